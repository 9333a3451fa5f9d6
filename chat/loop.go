package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/chatthread/core"
	"github.com/hupe1980/chatthread/logging"
)

// DefaultExitKeyword ends the conversation when typed at the prompt
// (case-insensitive).
const DefaultExitKeyword = "exit"

// ErrEmptyReply is returned when the responder yields no reply or no updated
// thread.
var ErrEmptyReply = errors.New("responder returned an empty reply")

// State is the conversation loop state.
type State int

const (
	// AwaitingInput waits for the next user line.
	AwaitingInput State = iota
	// Done is terminal; the loop has returned.
	Done
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "AwaitingInput"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Options configure a Loop.
type Options struct {
	In          io.Reader
	Out         io.Writer
	ExitKeyword string
	// Streaming makes the loop print the "Assistant: " prefix before the
	// responder runs so fragments written through OnPartial follow it.
	Streaming bool
	Logger    logging.Logger
}

// Loop drives an interactive conversation for one session: read a line,
// ask the responder, print the reply, persist the updated thread. Turns
// are strictly sequential and each save completes before the next prompt.
type Loop struct {
	store     core.ThreadStore
	responder core.Responder
	out       io.Writer
	exit      string
	streaming bool
	logger    logging.Logger
	state     State

	in      io.Reader
	lines   chan string
	readErr error
}

// New creates a loop reading from stdin and writing to stdout unless
// overridden.
func New(store core.ThreadStore, responder core.Responder, optFns ...func(o *Options)) *Loop {
	opts := Options{
		In:          os.Stdin,
		Out:         os.Stdout,
		ExitKeyword: DefaultExitKeyword,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.ExitKeyword == "" {
		opts.ExitKeyword = DefaultExitKeyword
	}
	return &Loop{
		store:     store,
		responder: responder,
		out:       opts.Out,
		exit:      opts.ExitKeyword,
		streaming: opts.Streaming,
		logger:    opts.Logger,
		in:        opts.In,
		state:     AwaitingInput,
	}
}

// State reports the current loop state.
func (l *Loop) State() State { return l.state }

// OnPartial writes a streamed reply fragment to the output.
func (l *Loop) OnPartial(text string) { fmt.Fprint(l.out, text) }

// PromptSessionID asks for a session id; a blank answer generates a new one.
func (l *Loop) PromptSessionID(ctx context.Context) (string, error) {
	fmt.Fprint(l.out, "Enter session ID (or press Enter to generate a new one): ")
	line, ok, err := l.readLine(ctx)
	if err != nil {
		return "", err
	}
	id := ""
	if ok {
		id = strings.TrimSpace(line)
	}
	if id == "" {
		id = core.NewSessionID()
		fmt.Fprintf(l.out, "[INFO] Generated session ID: %s\n", id)
	}
	return id, nil
}

// Run executes the conversation for sessionID until the exit keyword or end
// of input. Responder errors are returned unchanged; store errors are
// wrapped and keep their core sentinel.
func (l *Loop) Run(ctx context.Context, sessionID string) error {
	logger := logging.ForSession(l.logger, sessionID)

	thread, found, err := l.store.Load(ctx, sessionID)
	if err != nil {
		l.state = Done
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}
	switch last, ok := lastActivity(thread); {
	case !found:
		thread = core.NewThread()
		logger.Info("starting new thread")
	case ok:
		logger.Info("resuming thread", "messages", thread.Len(), "last_activity", last)
	default:
		logger.Info("resuming thread", "messages", 0)
	}

	fmt.Fprintf(l.out, "Type '%s' to quit. Using session ID: %s\n", l.exit, sessionID)

	l.state = AwaitingInput
	for l.state == AwaitingInput {
		fmt.Fprint(l.out, "You: ")
		line, ok, err := l.readLine(ctx)
		if err != nil {
			l.state = Done
			return err
		}
		input := strings.TrimSpace(line)
		if !ok || strings.EqualFold(input, l.exit) {
			l.state = Done
			break
		}
		if input == "" {
			continue
		}

		if l.streaming {
			fmt.Fprint(l.out, "Assistant: ")
		}
		reply, err := l.responder.Respond(ctx, input, thread)
		if err != nil {
			l.state = Done
			if l.streaming {
				fmt.Fprintln(l.out)
			}
			return err
		}
		if reply == nil || reply.Thread == nil {
			l.state = Done
			if l.streaming {
				fmt.Fprintln(l.out)
			}
			return ErrEmptyReply
		}
		if l.streaming {
			fmt.Fprintln(l.out)
		} else {
			fmt.Fprintf(l.out, "Assistant: %s\n", reply.Text)
		}

		if err := l.store.Save(ctx, sessionID, reply.Thread); err != nil {
			l.state = Done
			return fmt.Errorf("save session %s: %w", sessionID, err)
		}
		logger.Debug("turn saved", "messages", reply.Thread.Len())
		thread = reply.Thread
	}

	fmt.Fprintln(l.out, "Chat ended.")
	return nil
}

func lastActivity(thread *core.Thread) (time.Time, bool) {
	if thread == nil {
		return time.Time{}, false
	}
	m, ok := thread.LastMessage()
	return m.Timestamp, ok
}

// readLine returns the next input line. ok is false at end of input. The
// underlying reader is consumed by a single goroutine so a cancelled context
// unblocks the caller even while the terminal read is pending. The reader
// stops once the context of the first call is done; later reads then report
// that context's error.
func (l *Loop) readLine(ctx context.Context) (string, bool, error) {
	if l.lines == nil {
		l.lines = make(chan string)
		go l.scan(ctx)
	}
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case line, ok := <-l.lines:
		if !ok {
			return "", false, l.readErr
		}
		return line, true, nil
	}
}

func (l *Loop) scan(ctx context.Context) {
	defer close(l.lines)
	scanner := bufio.NewScanner(l.in)
	for scanner.Scan() {
		select {
		case l.lines <- scanner.Text():
		case <-ctx.Done():
			l.readErr = ctx.Err()
			return
		}
	}
	l.readErr = scanner.Err()
}
