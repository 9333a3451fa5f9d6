// Package chat implements the interactive conversation loop.
//
// The loop has two states, AwaitingInput and Done. Each turn reads a line,
// calls the core.Responder with the current thread, prints the reply and
// saves the updated thread through the core.ThreadStore before prompting
// again. Typing the exit keyword (default "exit", case-insensitive) or
// closing the input ends the loop without a store write.
package chat
