package core

import "context"

// Reply is the outcome of a single conversational turn.
type Reply struct {
	Text   string  // Assistant message text shown to the user
	Thread *Thread // Updated conversation state including the new turn
}

// Responder produces an assistant reply for a user input given the prior
// conversation state. Implementations must not mutate the thread they are
// handed; the updated state is returned in Reply.Thread.
type Responder interface {
	Respond(ctx context.Context, input string, thread *Thread) (*Reply, error)
}

// ResponderFunc adapts an ordinary function to the Responder interface.
type ResponderFunc func(ctx context.Context, input string, thread *Thread) (*Reply, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(ctx context.Context, input string, thread *Thread) (*Reply, error) {
	return f(ctx, input, thread)
}
