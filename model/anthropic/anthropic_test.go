package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/chatthread/core"
	"github.com/hupe1980/chatthread/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	status int
	body   string
	sent   []byte
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.sent, _ = io.ReadAll(req.Body)
	_ = req.Body.Close()
	resp := &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(f.body))),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func newTestModel(rt http.RoundTripper) *Model {
	c := anthropic.NewClient(
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return NewModelFromClient(&c)
}

func TestModel_Generate(t *testing.T) {
	rt := &fakeTransport{status: 200, body: `{"id":"msg_1","type":"message","role":"assistant","model":"m",
"content":[{"type":"text","text":"hi there"}],"stop_reason":"end_turn","usage":{"input_tokens":4,"output_tokens":2}}`}
	m := newTestModel(rt)

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Instructions: "be brief",
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "hello"),
			core.NewTextContent(core.RoleAssistant, "hey"),
			core.NewTextContent(core.RoleUser, "again"),
		},
	})
	var got []model.Response
	for r := range respCh {
		got = append(got, r)
	}
	require.NoError(t, <-errCh)
	require.Len(t, got, 1)
	assert.Equal(t, "hi there", got[0].Content.Text())
	assert.Equal(t, "end_turn", got[0].FinishReason)
	assert.Equal(t, 6, got[0].Usage.TotalTokens)

	var body struct {
		System []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rt.sent, &body))
	require.Len(t, body.System, 1)
	assert.Equal(t, "be brief", body.System[0].Text)
	require.Len(t, body.Messages, 3)
	assert.Equal(t, "assistant", body.Messages[1].Role)
}

func TestModel_StreamingRejected(t *testing.T) {
	m := newTestModel(&fakeTransport{status: 200})
	respCh, errCh := m.Generate(context.Background(), model.Request{Stream: true})
	for range respCh {
	}
	assert.Error(t, <-errCh)
}

func TestModel_Info(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Model = "claude-x" })
	assert.Equal(t, model.Info{Name: "claude-x", Provider: "anthropic"}, m.Info())
}
