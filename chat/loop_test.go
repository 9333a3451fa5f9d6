package chat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hupe1980/chatthread/agent"
	"github.com/hupe1980/chatthread/core"
	"github.com/hupe1980/chatthread/logging"
	"github.com/hupe1980/chatthread/model"
	"github.com/hupe1980/chatthread/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Save(ctx context.Context, sessionID string, thread *core.Thread) error {
	return m.Called(ctx, sessionID, thread).Error(0)
}

func (m *mockStore) Load(ctx context.Context, sessionID string) (*core.Thread, bool, error) {
	args := m.Called(ctx, sessionID)
	th, _ := args.Get(0).(*core.Thread)
	return th, args.Bool(1), args.Error(2)
}

func newLoop(store core.ThreadStore, r core.Responder, input string) (*Loop, *bytes.Buffer) {
	out := &bytes.Buffer{}
	l := New(store, r, func(o *Options) {
		o.In = strings.NewReader(input)
		o.Out = out
	})
	return l, out
}

func TestLoop_FirstMessagePersistsState(t *testing.T) {
	store := session.NewInMemoryStore()
	stateA := core.NewThread()
	stateA.AddMessage(core.NewUserMessage("hello"))
	stateA.AddMessage(core.NewAssistantMessage("hi there"))

	var calls int
	r := core.ResponderFunc(func(_ context.Context, input string, th *core.Thread) (*core.Reply, error) {
		calls++
		assert.Equal(t, "hello", input)
		assert.Equal(t, 0, th.Len())
		return &core.Reply{Text: "hi there", Thread: stateA}, nil
	})

	l, out := newLoop(store, r, "hello\nexit\n")
	require.NoError(t, l.Run(context.Background(), "abc"))

	assert.Equal(t, 1, calls)
	assert.Contains(t, out.String(), "Assistant: hi there\n")
	assert.True(t, strings.HasSuffix(out.String(), "Chat ended.\n"))
	assert.Equal(t, Done, l.State())

	raw, ok := store.Raw("chat_thread:abc")
	require.True(t, ok)
	want, err := core.MarshalThread(stateA)
	require.NoError(t, err)
	assert.Equal(t, want, raw)
}

func TestLoop_ImmediateExitWritesNothing(t *testing.T) {
	store := session.NewInMemoryStore()
	r := core.ResponderFunc(func(context.Context, string, *core.Thread) (*core.Reply, error) {
		t.Fatal("responder must not be called")
		return nil, nil
	})

	l, out := newLoop(store, r, "EXIT\n")
	require.NoError(t, l.Run(context.Background(), "abc"))

	assert.Contains(t, out.String(), "Chat ended.")
	assert.Equal(t, 0, store.Keys())
}

func TestLoop_EndOfInputEndsChat(t *testing.T) {
	store := session.NewInMemoryStore()
	l, out := newLoop(store, agent.NewChatAgent("Assistant", model.NewMockModel("mock", "mock")), "")
	require.NoError(t, l.Run(context.Background(), "abc"))
	assert.Contains(t, out.String(), "Chat ended.")
	assert.Equal(t, 0, store.Keys())
}

func TestLoop_ResumesStoredThread(t *testing.T) {
	store := session.NewInMemoryStore()
	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("one", "1")
	llm.AddResponse("two", "2")
	a := agent.NewChatAgent("Assistant", llm)

	l, _ := newLoop(store, a, "one\n")
	require.NoError(t, l.Run(context.Background(), "s1"))

	l, out := newLoop(store, a, "  \ntwo\n exit \n")
	require.NoError(t, l.Run(context.Background(), "s1"))
	assert.Contains(t, out.String(), "Assistant: 2\n")

	th, ok, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, th.Len())
	assert.Equal(t, "one", th.Messages()[0].Text())
	assert.Equal(t, "2", th.Messages()[3].Text())

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Contents, 3)
}

func TestLoop_ResponderErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("completion service down")
	store := session.NewInMemoryStore()
	r := core.ResponderFunc(func(context.Context, string, *core.Thread) (*core.Reply, error) {
		return nil, boom
	})

	l, out := newLoop(store, r, "hello\n")
	err := l.Run(context.Background(), "abc")
	assert.Same(t, boom, err)
	assert.NotContains(t, out.String(), "Chat ended.")
	assert.Equal(t, 0, store.Keys())
}

func TestLoop_SaveFailureAborts(t *testing.T) {
	store := &mockStore{}
	store.On("Load", mock.Anything, "abc").Return(nil, false, nil)
	store.On("Save", mock.Anything, "abc", mock.Anything).Return(core.ErrStoreUnavailable).Once()

	r := core.ResponderFunc(func(_ context.Context, input string, th *core.Thread) (*core.Reply, error) {
		return &core.Reply{Text: "ok", Thread: th}, nil
	})

	l, out := newLoop(store, r, "hello\nagain\n")
	err := l.Run(context.Background(), "abc")
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
	assert.Contains(t, out.String(), "Assistant: ok")
	assert.Equal(t, 1, strings.Count(out.String(), "You: "))
	store.AssertExpectations(t)
}

func TestLoop_CorruptStateAborts(t *testing.T) {
	store := session.NewInMemoryStore()
	store.SetRaw("chat_thread:abc", []byte("garbage"))
	r := core.ResponderFunc(func(context.Context, string, *core.Thread) (*core.Reply, error) {
		t.Fatal("responder must not be called")
		return nil, nil
	})

	l, out := newLoop(store, r, "hello\n")
	err := l.Run(context.Background(), "abc")
	assert.ErrorIs(t, err, core.ErrDeserialization)
	assert.Empty(t, out.String())
}

func TestLoop_CancelledContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	out := &bytes.Buffer{}
	l := New(session.NewInMemoryStore(), agent.NewChatAgent("Assistant", model.NewMockModel("mock", "mock")), func(o *Options) {
		o.In = pr
		o.Out = out
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Run(ctx, "abc")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoop_Streaming(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("hello", "hey")

	out := &bytes.Buffer{}
	var l *Loop
	a := agent.NewChatAgent("Assistant", llm, func(o *agent.ChatAgentOptions) {
		o.EnableStreaming = true
		o.OnPartial = func(text string) { l.OnPartial(text) }
	})
	l = New(session.NewInMemoryStore(), a, func(o *Options) {
		o.In = strings.NewReader("hello\n")
		o.Out = out
		o.Streaming = true
	})
	require.NoError(t, l.Run(context.Background(), "abc"))
	assert.Contains(t, out.String(), "Assistant: hey\n")
}

func TestLoop_PromptSessionID(t *testing.T) {
	l, out := newLoop(session.NewInMemoryStore(), nil, "  my-session \n")
	id, err := l.PromptSessionID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my-session", id)
	assert.NotContains(t, out.String(), "Generated")

	l, out = newLoop(session.NewInMemoryStore(), nil, "\n")
	id, err = l.PromptSessionID(context.Background())
	require.NoError(t, err)
	assert.True(t, core.IsValidSessionID(id))
	assert.Contains(t, out.String(), "[INFO] Generated session ID: "+id)
}

func TestLoop_PromptThenRunShareInput(t *testing.T) {
	store := session.NewInMemoryStore()
	l, out := newLoop(store, agent.NewChatAgent("Assistant", model.NewMockModel("mock", "mock")), "abc\nhello\nexit\n")

	id, err := l.PromptSessionID(context.Background())
	require.NoError(t, err)
	require.NoError(t, l.Run(context.Background(), id))

	assert.Contains(t, out.String(), "Using session ID: abc")
	assert.Contains(t, out.String(), "Assistant: Mock response to: hello")
	_, ok := store.Raw("chat_thread:abc")
	assert.True(t, ok)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "AwaitingInput", AwaitingInput.String())
	assert.Equal(t, "Done", Done.String())
}

func TestLoop_EmptyReplyAborts(t *testing.T) {
	cases := map[string]*core.Reply{
		"nil reply":  nil,
		"nil thread": {Text: "hi"},
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			store := session.NewInMemoryStore()
			r := core.ResponderFunc(func(context.Context, string, *core.Thread) (*core.Reply, error) {
				return reply, nil
			})

			l, out := newLoop(store, r, "hello\n")
			err := l.Run(context.Background(), "abc")
			assert.ErrorIs(t, err, ErrEmptyReply)
			assert.Equal(t, Done, l.State())
			assert.NotContains(t, out.String(), "Chat ended.")
			assert.Equal(t, 0, store.Keys())
		})
	}
}

func TestLoop_LogsWithSessionID(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "json", Output: buf})

	store := session.NewInMemoryStore()
	l := New(store, agent.NewChatAgent("Assistant", model.NewMockModel("mock", "mock")), func(o *Options) {
		o.In = strings.NewReader("hello\nexit\n")
		o.Out = &bytes.Buffer{}
		o.Logger = logger.WithComponent("chat")
	})
	require.NoError(t, l.Run(context.Background(), "abc"))
	require.NoError(t, l.Run(context.Background(), "abc"))

	logs := buf.String()
	assert.Contains(t, logs, `"session_id":"abc"`)
	assert.Contains(t, logs, `"msg":"starting new thread"`)
	assert.Contains(t, logs, `"msg":"turn saved"`)
	assert.Contains(t, logs, `"last_activity"`)
}

func TestLoop_ReaderStopsOnCancel(t *testing.T) {
	l, _ := newLoop(session.NewInMemoryStore(), nil, "one\ntwo\n")
	l.lines = make(chan string)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.scan(ctx)

	_, ok := <-l.lines
	assert.False(t, ok)
	assert.ErrorIs(t, l.readErr, context.Canceled)

	_, ok, err := l.readLine(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
