package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChannel = "board_events"

// startBridgedHubs wires two hubs to the same miniredis channel, as two
// service instances would be in production, and waits until both ends of the
// relay are subscribed.
func startBridgedHubs(t *testing.T, mr *miniredis.Miniredis) (*Hub, *Hub) {
	t.Helper()

	hubA := newTestHub()
	hubB := newTestHub()

	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		clientA.Close()
		clientB.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bridgeA := NewRedisBridge(clientA, testChannel, hubA, hubA.logger)
	bridgeB := NewRedisBridge(clientB, testChannel, hubB, hubB.logger)
	go bridgeA.Run(ctx)
	go bridgeB.Run(ctx)

	require.Eventually(t, func() bool {
		counts, err := clientA.PubSubNumSub(ctx, testChannel).Result()
		return err == nil && counts[testChannel] == 2
	}, 2*time.Second, 10*time.Millisecond)

	return hubA, hubB
}

func TestRedisBridgeRelaysToOtherInstance(t *testing.T) {
	mr := miniredis.RunT(t)
	hubA, hubB := startBridgedHubs(t, mr)

	subB := hubB.Subscribe(1)
	defer hubB.Unsubscribe(subB)

	hubA.Publish(1, EventTaskCreated, testPayload{N: 7})

	select {
	case ev := <-subB.C:
		assert.Equal(t, EventTaskCreated, ev.Kind)
		assert.Equal(t, uint64(1), ev.OrganizationID)
		assert.JSONEq(t, `{"n":7}`, string(ev.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("event never crossed the relay")
	}
}

func TestRedisBridgeDoesNotEchoToOrigin(t *testing.T) {
	mr := miniredis.RunT(t)
	hubA, hubB := startBridgedHubs(t, mr)

	subA := hubA.Subscribe(1)
	subB := hubB.Subscribe(1)
	defer hubA.Unsubscribe(subA)
	defer hubB.Unsubscribe(subB)

	hubA.Publish(1, EventTaskUpdated, testPayload{N: 1})

	// Local delivery happens synchronously.
	select {
	case ev := <-subA.C:
		assert.Equal(t, EventTaskUpdated, ev.Kind)
	default:
		t.Fatal("local subscriber did not receive the event")
	}

	// Once the remote instance has seen the event, the full Redis round trip
	// is done; the origin's subscriber must still have seen it exactly once.
	select {
	case <-subB.C:
	case <-time.After(2 * time.Second):
		t.Fatal("event never crossed the relay")
	}
	time.Sleep(50 * time.Millisecond)

	select {
	case <-subA.C:
		t.Fatal("event echoed back to its origin")
	default:
	}
}

func TestRedisBridgeScopesByOrganization(t *testing.T) {
	mr := miniredis.RunT(t)
	hubA, hubB := startBridgedHubs(t, mr)

	other := hubB.Subscribe(99)
	defer hubB.Unsubscribe(other)

	hubA.Publish(1, EventTaskDeleted, testPayload{N: 1})

	time.Sleep(100 * time.Millisecond)
	select {
	case <-other.C:
		t.Fatal("relayed event leaked to another organization")
	default:
	}
}
