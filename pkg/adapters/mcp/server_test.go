package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/emberly"
	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, text, _ string) (*domain.Reply, error) {
	return &domain.Reply{MessageID: "m", Text: "echo: " + text}, nil
}

func (echoResponder) Reset() {}

// holdResponder never answers; the request ends only when canceled.
type holdResponder struct{}

func (holdResponder) Respond(ctx context.Context, _, _ string) (*domain.Reply, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("%w: %v", domain.ErrCanceled, ctx.Err())
}

func (holdResponder) Reset() {}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, echoResponder{})
}

func newTestServerWith(t *testing.T, responder ports.Responder) *Server {
	t.Helper()
	eng, err := emberly.New("", emberly.WithResponder(responder))
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return NewServer(eng)
}

func TestServer_DispatchAndSubmit(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{"event": "begin"})
	require.NoError(t, err)
	require.NotNil(t, resp.Accepted)
	assert.True(t, *resp.Accepted)
	assert.Equal(t, domain.StateListening, resp.State)
	assert.Equal(t, []string{"SUBMIT", "CANCEL"}, resp.ValidEvents)

	resp, err = s.handleSubmit(ctx, mcp.CallToolRequest{}, map[string]interface{}{"text": "hi\x1b[31m"})
	require.NoError(t, err)
	assert.Equal(t, domain.StateSpeaking, resp.State)
	assert.Equal(t, "echo: hi[31m", resp.Response)

	resp, err = s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{"event": "BACK"})
	require.NoError(t, err)
	assert.False(t, *resp.Accepted)
	assert.Equal(t, domain.StateSpeaking, resp.State)
}

func TestServer_DispatchUnknownEvent(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleDispatch(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"event": "JUMP"})
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)
}

func TestServer_DispatchRefusesCompletionEvents(t *testing.T) {
	s := newTestServerWith(t, holdResponder{})
	ctx := context.Background()

	_, err := s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{"event": "BEGIN"})
	require.NoError(t, err)
	_, err = s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{"event": "SUBMIT"})
	require.NoError(t, err)
	require.Equal(t, domain.StateThinking, s.engine.Snapshot().State)

	for _, name := range []string{"RESOLVE", "fail"} {
		_, err := s.handleDispatch(ctx, mcp.CallToolRequest{}, map[string]interface{}{"event": name})
		assert.ErrorIs(t, err, domain.ErrReservedEvent, name)
	}
	assert.Equal(t, domain.StateThinking, s.engine.Snapshot().State)
}

func TestServer_SubmitOutsideListening(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleSubmit(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"text": "hi"})
	assert.ErrorIs(t, err, domain.ErrEventRejected)
}

func TestServer_SetDraftAndGetState(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleSetDraft(ctx, mcp.CallToolRequest{}, map[string]interface{}{"text": "draft"})
	require.NoError(t, err)

	resp, err := s.handleGetState(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "draft", resp.Draft)
	assert.Equal(t, domain.StateIdle, resp.State)
	assert.Nil(t, resp.Accepted)
}

func TestServer_TransitionsResource(t *testing.T) {
	s := newTestServer(t)

	contents, err := s.readTransitions(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, TransitionsURI, text.URI)

	var rules []domain.Rule
	require.NoError(t, json.Unmarshal([]byte(text.Text), &rules))
	assert.Equal(t, domain.Rules(), rules)
}
