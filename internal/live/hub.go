// Package live delivers collection snapshots to subscribers. Stores publish
// a full replacement snapshot after every mutation; subscribers always see
// whole-collection state, never diffs, so last-writer-wins at the store is
// also last-writer-wins here.
package live

import (
	"context"
	"sync"
)

// Collection keys published by the stores. Note snapshots are scoped per
// deal; see NotesCollection.
const (
	CollectionDeals   = "deals"
	CollectionStages  = "pipeline"
	CollectionFields  = "customFields"
	CollectionMembers = "members"
	CollectionInvites = "invites"
)

// NotesCollection returns the per-deal collection key for note snapshots.
func NotesCollection(dealID string) string { return "notes/" + dealID }

// Event is one snapshot delivery.
type Event struct {
	OrganizationID string `json:"organizationId"`
	Collection     string `json:"collection"`
	Snapshot       any    `json:"snapshot"`
}

type subKey struct {
	org        string
	collection string
}

// Subscription is a live registration. Receive from C; call Unsubscribe when
// done. The channel is closed on Unsubscribe.
type Subscription struct {
	C chan Event

	hub  *Hub
	key  subKey
	once sync.Once
}

// Unsubscribe removes the registration and closes C. Safe to call twice.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if set, ok := s.hub.subs[s.key]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.key)
			}
		}
		s.hub.mu.Unlock()
		close(s.C)
	})
}

// Hub is the in-process snapshot broadcaster. The zero value is not usable;
// construct with NewHub.
type Hub struct {
	mu   sync.RWMutex
	subs map[subKey]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[subKey]map[*Subscription]struct{})}
}

// Subscribe registers for snapshots of one collection within one tenant.
func (h *Hub) Subscribe(orgID, collection string) *Subscription {
	sub := &Subscription{
		C:   make(chan Event, 8),
		hub: h,
		key: subKey{org: orgID, collection: collection},
	}
	h.mu.Lock()
	set, ok := h.subs[sub.key]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sub.key] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish fans a snapshot out to every subscriber of (orgID, collection).
// Slow subscribers never block a mutation: when a subscriber's buffer is
// full the oldest pending snapshot is discarded in favour of the new one,
// which is correct because snapshots are full replacements.
func (h *Hub) Publish(_ context.Context, orgID, collection string, snapshot any) {
	ev := Event{OrganizationID: orgID, Collection: collection, Snapshot: snapshot}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[subKey{org: orgID, collection: collection}] {
		select {
		case sub.C <- ev:
		default:
			select {
			case <-sub.C:
			default:
			}
			select {
			case sub.C <- ev:
			default:
			}
		}
	}
}
