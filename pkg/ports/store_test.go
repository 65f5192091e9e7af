package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/ports"
)

// MockStore is an in-memory NoteStore used to exercise the contract itself.
type MockStore struct {
	data []domain.Note
}

func (m *MockStore) List(ctx context.Context) ([]domain.Note, error) {
	out := make([]domain.Note, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MockStore) Save(ctx context.Context, note domain.Note) error {
	m.data = append(m.data, note)
	return nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	for i, n := range m.data {
		if n.ID == id {
			m.data = append(m.data[:i], m.data[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockStore) Clear(ctx context.Context) error {
	m.data = nil
	return nil
}

func TestNoteStore_Contract(t *testing.T) {
	store := &MockStore{data: []domain.Note{{ID: "a", Title: "first"}}}
	ports.RunNoteStoreContract(t, store)
}
