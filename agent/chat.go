package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/chatthread/core"
	"github.com/hupe1980/chatthread/logging"
	"github.com/hupe1980/chatthread/model"
)

// DefaultInstruction is the system prompt used when none is configured.
const DefaultInstruction = "You are a helpful assistant. Answer the user's questions."

// ChatAgentOptions configures a ChatAgent instance.
//
// Use functional options with NewChatAgent to override defaults.
type ChatAgentOptions struct {
	Instruction        Instruction
	EnableStreaming    bool
	MaxHistoryMessages int
	// OnPartial receives streamed text fragments when streaming is enabled.
	OnPartial func(text string)
	Logger    logging.Logger
}

// ChatAgent is a single model-backed assistant implementing core.Responder.
// It owns no state: every call receives the prior thread and returns an
// updated copy.
type ChatAgent struct {
	name               string
	llm                model.Model
	instruction        Instruction
	enableStreaming    bool
	maxHistoryMessages int
	onPartial          func(string)
	logger             logging.Logger
}

var _ core.Responder = (*ChatAgent)(nil)

// NewChatAgent creates a chat agent with sensible defaults:
//   - DefaultInstruction as system prompt
//   - streaming disabled
//   - 20-message history window sent to the model
func NewChatAgent(name string, llm model.Model, optFns ...func(o *ChatAgentOptions)) *ChatAgent {
	opts := ChatAgentOptions{
		Instruction:        NewInstructionFromText(DefaultInstruction),
		MaxHistoryMessages: 20,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &ChatAgent{
		name:               name,
		llm:                llm,
		instruction:        opts.Instruction,
		enableStreaming:    opts.EnableStreaming,
		maxHistoryMessages: opts.MaxHistoryMessages,
		onPartial:          opts.OnPartial,
		logger:             opts.Logger,
	}
}

// Name returns the agent's display name.
func (a *ChatAgent) Name() string { return a.name }

// Respond appends input to a copy of thread, asks the model for the next
// assistant message and returns it together with the updated thread. A nil
// thread starts a new conversation. Model errors are returned unchanged.
func (a *ChatAgent) Respond(ctx context.Context, input string, thread *core.Thread) (*core.Reply, error) {
	var next *core.Thread
	if thread == nil {
		next = core.NewThread()
	} else {
		next = thread.Clone()
	}
	next.AddMessage(core.NewUserMessage(input))

	instructions, err := a.instruction.Resolve(next)
	if err != nil {
		return nil, fmt.Errorf("resolve instruction: %w", err)
	}

	history := userFirst(next.History(a.maxHistoryMessages))
	contents := make([]core.Content, 0, len(history))
	for _, m := range history {
		contents = append(contents, m.Content)
	}

	info := a.llm.Info()
	start := time.Now()
	final, err := a.generate(ctx, model.Request{
		Instructions: instructions,
		Contents:     contents,
		Stream:       a.enableStreaming,
	})
	a.logCall(info, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	reply := final.Content.Text()
	next.AddMessage(core.NewAssistantMessage(reply))

	return &core.Reply{Text: reply, Thread: next}, nil
}

// userFirst drops leading non-user messages so a truncated window still
// opens with a user turn (required by the Anthropic Messages API).
func userFirst(history []core.Message) []core.Message {
	for i, m := range history {
		if m.Role == core.RoleUser {
			return history[i:]
		}
	}
	return history
}

func (a *ChatAgent) logCall(info model.Info, dur time.Duration, err error) {
	if ol, ok := a.logger.(logging.OperationLogger); ok {
		ol.LogLLMCall(info.Provider+"/"+info.Name, dur, err == nil, err)
		return
	}
	a.logger.Debug("agent.model.call", "agent", a.name, "model", info.Name, "duration", dur, "success", err == nil)
}

// generate drains the model channels returning the final non-partial response.
func (a *ChatAgent) generate(ctx context.Context, req model.Request) (*model.Response, error) {
	respCh, errCh := a.llm.Generate(ctx, req)

	var final *model.Response
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Partial {
				if a.onPartial != nil {
					a.onPartial(r.Content.Text())
				}
				continue
			}
			resp := r
			final = &resp
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}
	if final == nil {
		return nil, fmt.Errorf("model %s returned no final response", a.llm.Info().Name)
	}
	return final, nil
}
