// Package store persists DealDesk entities via GORM and publishes a full
// collection snapshot after every successful mutation. Every query is scoped
// to one organization; no method can read or write across tenants.
package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dealdesk/dealdesk/internal/live"
	"gorm.io/gorm"
)

// ErrNotFound is returned when an entity does not exist within the caller's
// organization. Cross-tenant ids look identical to missing ids.
var ErrNotFound = errors.New("not found")

// Store is the persistence layer. All mutations publish through bus so live
// subscribers converge on the committed state.
type Store struct {
	db     *gorm.DB
	bus    live.Broadcaster
	logger *slog.Logger
}

// New creates a Store. bus may be a no-op broadcaster in tests.
func New(db *gorm.DB, bus live.Broadcaster, logger *slog.Logger) *Store {
	return &Store{db: db, bus: bus, logger: logger}
}

// DB exposes the underlying handle for services that manage their own tables
// (refresh tokens, invite codes).
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) publish(ctx context.Context, orgID, collection string, snapshot any) {
	s.bus.Publish(ctx, orgID, collection, snapshot)
}
