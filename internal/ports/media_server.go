package ports

import (
	"context"

	"github.com/bnema/streamguard/internal/domain"
)

// MediaServer is one independently polled backend. ActiveSessions returns
// the sessions playing right now; failures are reported as wrapped
// domain.ErrServerUnreachable or domain.ErrInvalidResponse, never panics.
// An empty slice is a valid result.
type MediaServer interface {
	domain.Terminator
	ActiveSessions(ctx context.Context) ([]domain.SessionRecord, error)
}
