package live

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const fanoutChannel = "dealdesk:live"

// Broadcaster is what the stores publish through. The plain Hub satisfies it
// for single-instance deployments and for tests.
type Broadcaster interface {
	Publish(ctx context.Context, orgID, collection string, snapshot any)
}

// wireEvent is the fanout payload. Origin lets an instance skip its own
// messages when they come back around.
type wireEvent struct {
	Origin string `json:"origin"`
	Event
}

// RedisBridge mirrors local publishes to a Redis channel and replays remote
// publishes into the local hub, so subscribers on any instance observe every
// mutation. Snapshot payloads cross the wire as JSON; remote deliveries
// therefore carry json.RawMessage snapshots.
type RedisBridge struct {
	hub      *Hub
	rdb      *redis.Client
	instance string
	log      *slog.Logger
}

// NewRedisBridge wraps hub with cross-instance fanout over rdb.
func NewRedisBridge(hub *Hub, rdb *redis.Client, log *slog.Logger) *RedisBridge {
	return &RedisBridge{hub: hub, rdb: rdb, instance: uuid.New().String(), log: log}
}

// Publish delivers locally first, then mirrors to Redis. A Redis failure is
// logged and otherwise ignored: local subscribers already have the snapshot
// and nothing here is allowed to fail a store write.
func (b *RedisBridge) Publish(ctx context.Context, orgID, collection string, snapshot any) {
	b.hub.Publish(ctx, orgID, collection, snapshot)

	payload, err := json.Marshal(wireEvent{
		Origin: b.instance,
		Event:  Event{OrganizationID: orgID, Collection: collection, Snapshot: snapshot},
	})
	if err != nil {
		b.log.Error("live: marshal fanout event", "err", err)
		return
	}
	if err := b.rdb.Publish(ctx, fanoutChannel, payload).Err(); err != nil {
		b.log.Warn("live: redis publish failed", "err", err)
	}
}

// Run consumes the fanout channel until ctx is cancelled, replaying events
// from other instances into the local hub.
func (b *RedisBridge) Run(ctx context.Context) {
	sub := b.rdb.Subscribe(ctx, fanoutChannel)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev wireEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("live: bad fanout payload", "err", err)
				continue
			}
			if ev.Origin == b.instance {
				continue
			}
			b.hub.Publish(ctx, ev.OrganizationID, ev.Collection, ev.Snapshot)
		}
	}
}
