package broadcast

import (
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	N int `json:"n"`
}

func newTestHub() *Hub {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewHub(logger)
}

func TestPublishDeliversInOrder(t *testing.T) {
	hub := newTestHub()
	sub := hub.Subscribe(1)
	defer hub.Unsubscribe(sub)

	for i := 0; i < 10; i++ {
		hub.Publish(1, EventTaskUpdated, testPayload{N: i})
	}

	for i := 0; i < 10; i++ {
		ev := <-sub.C
		assert.Equal(t, EventTaskUpdated, ev.Kind)
		assert.Equal(t, uint64(1), ev.OrganizationID)
		assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, i), string(ev.Payload))
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := newTestHub()
	a := hub.Subscribe(1)
	b := hub.Subscribe(1)
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	hub.Publish(1, EventTaskCreated, testPayload{N: 1})

	for _, sub := range []*Subscription{a, b} {
		select {
		case ev := <-sub.C:
			assert.Equal(t, EventTaskCreated, ev.Kind)
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestPublishScopedToOrganization(t *testing.T) {
	hub := newTestHub()
	mine := hub.Subscribe(1)
	other := hub.Subscribe(2)
	defer hub.Unsubscribe(mine)
	defer hub.Unsubscribe(other)

	hub.Publish(1, EventTaskCreated, testPayload{N: 1})

	select {
	case <-mine.C:
	default:
		t.Fatal("subscriber on the publishing organization got nothing")
	}

	select {
	case <-other.C:
		t.Fatal("event leaked to another organization")
	default:
	}
}

func TestNoRetroactiveDelivery(t *testing.T) {
	hub := newTestHub()
	hub.Publish(1, EventTaskCreated, testPayload{N: 1})

	sub := hub.Subscribe(1)
	defer hub.Unsubscribe(sub)

	select {
	case <-sub.C:
		t.Fatal("subscriber received an event published before it joined")
	default:
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := newTestHub()
	sub := hub.Subscribe(1)
	defer hub.Unsubscribe(sub)

	// Overfill the buffer; Publish must return regardless.
	for i := 0; i < subscriberBuffer+16; i++ {
		hub.Publish(1, EventTaskUpdated, testPayload{N: i})
	}

	// The buffered prefix survives intact and in order.
	for i := 0; i < subscriberBuffer; i++ {
		ev := <-sub.C
		assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, i), string(ev.Payload))
	}
	select {
	case <-sub.C:
		t.Fatal("events beyond the buffer should have been dropped")
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := newTestHub()
	sub := hub.Subscribe(1)

	require.Equal(t, 1, hub.SubscriberCount(1))
	hub.Unsubscribe(sub)
	require.Equal(t, 0, hub.SubscriberCount(1))

	_, open := <-sub.C
	assert.False(t, open)

	// Publishing afterwards is a no-op, and a double Unsubscribe must not panic.
	hub.Publish(1, EventTaskCreated, testPayload{N: 1})
	hub.Unsubscribe(sub)
}

func TestPublishWithoutSubscribersIsNoOp(t *testing.T) {
	hub := newTestHub()
	hub.Publish(42, EventTaskDeleted, testPayload{N: 1})
	assert.Equal(t, 0, hub.SubscriberCount(42))
}
