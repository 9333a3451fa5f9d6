package agent

import (
	"github.com/hupe1980/chatthread/core"
	"github.com/hupe1980/chatthread/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from the conversation so far.
type Provider interface {
	Instruction(*core.Thread) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(*core.Thread) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(t *core.Thread) (string, error) { return f(t) }

// Instruction represents either a static instruction string or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string. The
// text may use text/template syntax with the fields thread_id, messages and
// last_user (the latest user message text).
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.Thread) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(t *core.Thread) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(t)
	}
	return util.RenderTemplate(i.text, templateData(t))
}

func templateData(t *core.Thread) map[string]any {
	data := map[string]any{"thread_id": "", "messages": 0, "last_user": ""}
	if t == nil {
		return data
	}
	data["thread_id"] = t.ID
	msgs := t.Messages()
	data["messages"] = len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser {
			data["last_user"] = msgs[i].Text()
			break
		}
	}
	return data
}
