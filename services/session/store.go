// Package session keeps the ephemeral per-subscriber working set of a booking
// conversation. Entries expire after a fixed TTL so abandoned conversations
// never pin memory; losing an entry is always safe for the caller.
package session

import (
	"context"

	"easyservice/models"
)

// Store is the conversation working memory.
type Store interface {
	// Get returns the state for identity, or a fresh empty state when none is held.
	Get(ctx context.Context, identity string) (*models.SessionState, error)
	// Save stores state and restarts its TTL.
	Save(ctx context.Context, identity string, state *models.SessionState) error
	// Clear drops the state for identity. Clearing an absent entry is not an error.
	Clear(ctx context.Context, identity string) error
}

const keyPrefix = "conv:session:"

func key(identity string) string {
	return keyPrefix + identity
}
