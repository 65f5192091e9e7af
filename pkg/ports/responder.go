package ports

import (
	"context"

	"github.com/aretw0/emberly/pkg/domain"
)

// Responder is the network side of a conversation.
type Responder interface {
	// Respond submits text and returns the assistant reply.
	// It returns an error matching domain.ErrCanceled when ctx is canceled,
	// and an error matching domain.ErrRequestFailed for every other failure.
	Respond(ctx context.Context, text, locale string) (*domain.Reply, error)

	// Reset restores the responder to its no-session, no-fallback baseline.
	Reset()
}
