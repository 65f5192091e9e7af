package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/emberly/pkg/conversation"
	"github.com/aretw0/emberly/pkg/domain"
)

// Frame types written by JSONHandler.
const (
	FrameState  = "state"
	FrameSystem = "system"
)

// Frame is one line of JSONHandler output.
type Frame struct {
	Type        string                 `json:"type"`
	Snapshot    *conversation.Snapshot `json:"snapshot,omitempty"`
	ValidEvents []domain.Event         `json:"valid_events,omitempty"`
	Message     string                 `json:"message,omitempty"`
}

// inputLine is the object form of a JSONHandler input line.
type inputLine struct {
	Event string `json:"event"`
	Text  string `json:"text"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
//
// Input lines may be an object ({"event":"cancel"} or {"text":"hello"}), a JSON
// string, or plain text. Objects with an event become the matching slash command.
type JSONHandler struct {
	mu      sync.Mutex
	encoder *json.Encoder
	lines   *lineReader
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		encoder: json.NewEncoder(w),
		lines:   newLineReader(r),
	}
}

// Close stops the input pump. The handler reads no more input afterwards.
func (h *JSONHandler) Close() error {
	h.lines.close()
	return nil
}

func (h *JSONHandler) Render(ctx context.Context, snap conversation.Snapshot) error {
	return h.write(Frame{
		Type:        FrameState,
		Snapshot:    &snap,
		ValidEvents: domain.ValidEvents(snap.State),
	})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.write(Frame{Type: FrameSystem, Message: msg})
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		text, err := h.lines.next(ctx)
		if err != nil {
			return "", err
		}

		clean, err := SanitizeInput(decodeInputLine(text))
		if err != nil {
			if werr := h.SystemOutput(ctx, "input rejected: "+err.Error()); werr != nil {
				return "", werr
			}
			continue
		}
		return clean, nil
	}
}

func (h *JSONHandler) write(f Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(f)
}

func decodeInputLine(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "{") {
		var in inputLine
		if err := json.Unmarshal([]byte(text), &in); err == nil {
			if in.Event != "" {
				return "/" + strings.ToLower(in.Event)
			}
			return strings.TrimSpace(in.Text)
		}
	}

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return strings.TrimSpace(val)
	}

	// Fallback: plain text
	return text
}
