package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*ChatLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
	return l, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestChatLogger_ContextAttributes(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	l.WithComponent("store").WithSession("abc").WithContext("k", "v").Info("saved", "bytes", 12)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "saved", lines[0]["msg"])
	assert.Equal(t, "store", lines[0]["component"])
	assert.Equal(t, "abc", lines[0]["session_id"])
	assert.Equal(t, "v", lines[0]["k"])
	assert.EqualValues(t, 12, lines[0]["bytes"])
}

func TestChatLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "w", lines[0]["msg"])
	assert.Equal(t, "e", lines[1]["msg"])
}

func TestChatLogger_WithDoesNotMutateParent(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	_ = l.WithContext("child", true)
	l.Info("parent")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["child"]
	assert.False(t, ok)
}

func TestChatLogger_LogStoreOp(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	l.LogStoreOp("save", "chat_thread:abc", 42, time.Millisecond, nil)
	l.LogStoreOp("load", "chat_thread:abc", 0, time.Millisecond, errors.New("boom"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.Equal(t, "chat_thread:abc", lines[0]["key"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestChatLogger_LogLLMCall(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.LogLLMCall("gpt", time.Second, false, errors.New("rate limited"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "LLM call failed", lines[0]["msg"])
	assert.Equal(t, "gpt", lines[0]["model"])
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{"DEBUG": LogLevelDebug, "info": LogLevelInfo, "": LogLevelInfo, "warning": LogLevelWarn, "error": LogLevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	l.Info("nothing")
}

func TestForSession(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	ForSession(l, "s-1").Info("turn saved")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "s-1", lines[0]["session_id"])
	assert.Empty(t, l.sessionID)

	var noop Logger = NoOpLogger{}
	assert.Equal(t, noop, ForSession(noop, "s-1"))
}

func TestSlogAdapter(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewSlogAdapter(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	l.Debug("d", "k", 1)
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 4)
	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.EqualValues(t, 1, lines[0]["k"])
	assert.Equal(t, "ERROR", lines[3]["level"])
}
