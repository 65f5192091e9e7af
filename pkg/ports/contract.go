package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/emberly/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunNoteStoreContract runs a suite of tests to verify that a NoteStore implementation
// adheres to the defined interface contract.
func RunNoteStoreContract(t *testing.T, store NoteStore) {
	ctx := context.Background()

	t.Run("List Is Stable Copy", func(t *testing.T) {
		first, err := store.List(ctx)
		require.NoError(t, err, "List should not return error")

		if len(first) > 0 {
			first[0].Title = "mutated"
		}

		second, err := store.List(ctx)
		require.NoError(t, err)
		for _, n := range second {
			assert.NotEqual(t, "mutated", n.Title, "List must return a copy")
		}
	})

	t.Run("Save", func(t *testing.T) {
		err := store.Save(ctx, domain.Note{Title: "contract", Note: "body", CreatedAt: time.Now()})
		require.NoError(t, err, "Save should not return error")
	})

	t.Run("Delete Unknown", func(t *testing.T) {
		err := store.Delete(ctx, "non-existent-"+time.Now().Format("20060102150405"))
		assert.NoError(t, err, "Delete of an unknown ID is not an error")
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
	})
}
