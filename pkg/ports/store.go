package ports

import (
	"context"

	"github.com/aretw0/coldline/pkg/domain"
)

// RecordStore persists call records keyed by session ID. It lets the
// dispatch layer inspect outcomes after the call process exits; the
// live session itself never reads back through it.
type RecordStore interface {
	// Save persists the record for a given session ID.
	Save(ctx context.Context, sessionID string, record *domain.CallRecord) error

	// Load retrieves the record for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.CallRecord, error)

	// Delete removes the record for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the known session IDs.
	List(ctx context.Context) ([]string, error)
}
