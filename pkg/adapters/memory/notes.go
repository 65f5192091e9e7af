package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/ports"
)

// NoteStore implements ports.NoteStore with fixed demonstration data.
// Writes are accepted and dropped; reads always return the same three notes.
type NoteStore struct {
	notes  []domain.Note
	logger *slog.Logger
}

var _ ports.NoteStore = (*NoteStore)(nil)

// NewNoteStore creates the demo store. A nil logger disables logging.
func NewNoteStore(logger *slog.Logger) *NoteStore {
	if logger == nil {
		logger = logging.NewNop()
	}
	created := time.Now().UTC()
	return &NoteStore{
		logger: logger,
		notes: []domain.Note{
			{
				ID:        "demo-1",
				Title:     "Morning reflection",
				Note:      "A quiet moment to start the day with intention.",
				Tags:      []string{"morning", "reflection"},
				CreatedAt: created,
			},
			{
				ID:        "demo-2",
				Title:     "Gratitude note",
				Note:      "Remembering the small moments that bring joy.",
				Tags:      []string{"gratitude"},
				CreatedAt: created,
			},
			{
				ID:        "demo-3",
				Title:     "Connection",
				Note:      "A reminder that we are never truly alone.",
				Tags:      []string{"connection", "community"},
				CreatedAt: created,
			},
		},
	}
}

// List returns a copy of the demo notes.
func (s *NoteStore) List(ctx context.Context) ([]domain.Note, error) {
	out := make([]domain.Note, len(s.notes))
	for i, n := range s.notes {
		n.Tags = append([]string(nil), n.Tags...)
		out[i] = n
	}
	return out, nil
}

// Save is a no-op. Note content is never logged.
func (s *NoteStore) Save(ctx context.Context, note domain.Note) error {
	s.logger.Debug("note save skipped", "tags", len(note.Tags))
	return nil
}

// Delete is a no-op.
func (s *NoteStore) Delete(ctx context.Context, id string) error {
	s.logger.Debug("note delete skipped")
	return nil
}

// Clear is a no-op.
func (s *NoteStore) Clear(ctx context.Context) error {
	s.logger.Debug("note clear skipped")
	return nil
}
