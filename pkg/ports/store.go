package ports

import (
	"context"

	"github.com/aretw0/emberly/pkg/domain"
)

// NoteStore defines the notes persistence layer.
// The conversation engine has no dependency on it.
type NoteStore interface {
	// List returns the saved notes.
	List(ctx context.Context) ([]domain.Note, error)

	// Save persists a note.
	Save(ctx context.Context, note domain.Note) error

	// Delete removes a note by ID.
	Delete(ctx context.Context, id string) error

	// Clear removes every note.
	Clear(ctx context.Context) error
}
