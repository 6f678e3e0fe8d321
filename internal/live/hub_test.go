package live_test

import (
	"context"
	"testing"

	"github.com/dealdesk/dealdesk/internal/live"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversToMatchingSubscriber(t *testing.T) {
	hub := live.NewHub()
	sub := hub.Subscribe("org-1", live.CollectionDeals)
	defer sub.Unsubscribe()

	hub.Publish(context.Background(), "org-1", live.CollectionDeals, []string{"snapshot"})

	ev := <-sub.C
	assert.Equal(t, "org-1", ev.OrganizationID)
	assert.Equal(t, live.CollectionDeals, ev.Collection)
	assert.Equal(t, []string{"snapshot"}, ev.Snapshot)
}

func TestHub_TenantIsolation(t *testing.T) {
	hub := live.NewHub()
	other := hub.Subscribe("org-2", live.CollectionDeals)
	defer other.Unsubscribe()

	hub.Publish(context.Background(), "org-1", live.CollectionDeals, nil)

	select {
	case ev := <-other.C:
		t.Fatalf("unexpected delivery across tenants: %+v", ev)
	default:
	}
}

func TestHub_CollectionIsolation(t *testing.T) {
	hub := live.NewHub()
	sub := hub.Subscribe("org-1", live.CollectionStages)
	defer sub.Unsubscribe()

	hub.Publish(context.Background(), "org-1", live.CollectionDeals, nil)

	select {
	case <-sub.C:
		t.Fatal("pipeline subscriber received a deals snapshot")
	default:
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := live.NewHub()
	sub := hub.Subscribe("org-1", live.CollectionDeals)

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	_, open := <-sub.C
	assert.False(t, open)

	// Publishing after unsubscribe must not panic.
	hub.Publish(context.Background(), "org-1", live.CollectionDeals, nil)
}

// A slow subscriber keeps only the freshest snapshots; snapshots are full
// replacements so intermediate ones are safe to drop.
func TestHub_SlowSubscriberGetsLatest(t *testing.T) {
	hub := live.NewHub()
	sub := hub.Subscribe("org-1", live.CollectionDeals)
	defer sub.Unsubscribe()

	for i := 0; i < 100; i++ {
		hub.Publish(context.Background(), "org-1", live.CollectionDeals, i)
	}

	var last any
	for {
		select {
		case ev := <-sub.C:
			last = ev.Snapshot
			continue
		default:
		}
		break
	}
	require.NotNil(t, last)
	assert.Equal(t, 99, last, "the most recent snapshot survives")
}

func TestNotesCollection_ScopedPerDeal(t *testing.T) {
	hub := live.NewHub()
	subA := hub.Subscribe("org-1", live.NotesCollection("deal-a"))
	defer subA.Unsubscribe()

	hub.Publish(context.Background(), "org-1", live.NotesCollection("deal-b"), nil)

	select {
	case <-subA.C:
		t.Fatal("note snapshot leaked across deals")
	default:
	}
}
