package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/emberly/pkg/conversation"
	"github.com/aretw0/emberly/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestTextHandler_RenderSpeaking(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader(""), out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	require.NoError(t, h.Render(context.Background(), conversation.Snapshot{State: domain.StateSpeaking, Response: "Hello World"}))
	assert.Contains(t, out.String(), "Rendered: Hello World")
	assert.Contains(t, out.String(), "[speaking]")
}

func TestTextHandler_RenderError(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader(""), out)

	require.NoError(t, h.Render(context.Background(), conversation.Snapshot{State: domain.StateError, Error: conversation.SafeErrorMessage}))
	assert.Contains(t, out.String(), conversation.SafeErrorMessage)
}

func TestTextHandler_Input(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader("  my user input \n"), out, WithTextHandlerPrompt(true))

	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my user input", val)
	assert.Equal(t, Prompt, out.String())

	_, err = h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_InputRejectsInvalid(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader("\xff\xfe\nok\n"), out)

	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Contains(t, out.String(), "Please try again")
}

func TestTextHandler_InputKeepsLineAfterCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	h := NewTextHandler(pr, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.Input(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	go func() { _, _ = io.WriteString(pw, "late\n") }()
	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", val)
}

func TestJSONHandler_Frames(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewJSONHandler(strings.NewReader(""), out)

	require.NoError(t, h.Render(context.Background(), conversation.Snapshot{State: domain.StateIdle}))
	require.NoError(t, h.SystemOutput(context.Background(), "hi"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var state, system Frame
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &state))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &system))
	assert.Equal(t, FrameState, state.Type)
	assert.Equal(t, []domain.Event{domain.EventBegin}, state.ValidEvents)
	assert.Equal(t, Frame{Type: FrameSystem, Message: "hi"}, system)
}

func TestJSONHandler_InputForms(t *testing.T) {
	in := strings.Join([]string{
		`{"event":"CANCEL"}`,
		`{"text":" hello "}`,
		`"quoted"`,
		`plain text`,
		`{broken`,
	}, "\n") + "\n"
	h := NewJSONHandler(strings.NewReader(in), io.Discard)

	for _, want := range []string{"/cancel", "hello", "quoted", "plain text", "{broken"} {
		got, err := h.Input(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestJSONHandler_InputRejectsOversized(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "4")
	out := &bytes.Buffer{}
	h := NewJSONHandler(strings.NewReader("toolong\nok\n"), out)

	got, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Contains(t, out.String(), "input rejected")
}

type closingHandler interface {
	IOHandler
	io.Closer
}

func TestHandlers_CloseStopsInputPump(t *testing.T) {
	for name, build := range map[string]func(io.Reader) closingHandler{
		"text": func(r io.Reader) closingHandler { return NewTextHandler(r, io.Discard, WithTextHandlerPrompt(false)) },
		"json": func(r io.Reader) closingHandler { return NewJSONHandler(r, io.Discard) },
	} {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

			pr, pw := io.Pipe()
			defer pw.Close()
			h := build(pr)

			go func() { _, _ = io.WriteString(pw, "first\n") }()
			line, err := h.Input(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "first", line)

			require.NoError(t, h.Close())

			// The pump takes this line, finds nobody listening and exits.
			_, err = io.WriteString(pw, "late\n")
			require.NoError(t, err)

			_, err = h.Input(context.Background())
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}
