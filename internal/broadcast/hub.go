// Package broadcast fans accepted board mutations out to every observer
// subscribed to an organization's channel. Delivery is best effort: a slow
// or gone observer never delays the mutation that produced the event.
package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/taskflowhq/board-api/internal/utils"
)

// EventKind identifies what a broadcast event describes.
type EventKind string

const (
	EventTaskCreated   EventKind = "taskCreated"
	EventTaskUpdated   EventKind = "taskUpdated"
	EventTaskDeleted   EventKind = "taskDeleted"
	EventActivityAdded EventKind = "activityAdded"
)

// Event is one fan-out message. Origin names the hub instance that published
// it so a relay never echoes an event back to its source.
type Event struct {
	Kind           EventKind       `json:"event"`
	OrganizationID uint64          `json:"organization_id"`
	Origin         string          `json:"origin,omitempty"`
	Payload        json.RawMessage `json:"payload"`
}

// subscriberBuffer is how many undelivered events a subscriber may lag
// behind before further events are dropped for it.
const subscriberBuffer = 64

// Subscription is one observer's handle on an organization's event channel.
// Events arrive on C in the order they were published.
type Subscription struct {
	C <-chan Event

	ch             chan Event
	organizationID uint64
}

// Hub tracks subscriptions per organization and delivers published events to
// each of them without blocking the publisher.
type Hub struct {
	id     string
	logger *logrus.Logger

	mu   sync.RWMutex
	subs map[uint64]map[*Subscription]struct{}

	relay chan<- Event
}

// NewHub creates a Hub with a unique instance id.
func NewHub(logger *logrus.Logger) *Hub {
	id, err := utils.RandomToken(8)
	if err != nil {
		// crypto/rand failing means the process is in far worse trouble
		// than event relaying; an empty origin only disables echo
		// suppression.
		logger.WithError(err).Warn("could not generate hub instance id")
	}
	return &Hub{
		id:     id,
		logger: logger,
		subs:   make(map[uint64]map[*Subscription]struct{}),
	}
}

// Subscribe registers an observer on an organization's channel. The caller
// must Unsubscribe when the connection ends.
func (h *Hub) Subscribe(organizationID uint64) *Subscription {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, organizationID: organizationID}

	h.mu.Lock()
	if h.subs[organizationID] == nil {
		h.subs[organizationID] = make(map[*Subscription]struct{})
	}
	h.subs[organizationID][sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Unsubscribe removes the observer and closes its channel. Further events
// published to the organization are no longer delivered to it.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if set, ok := h.subs[sub.organizationID]; ok {
		if _, ok := set[sub]; ok {
			delete(set, sub)
			close(sub.ch)
		}
		if len(set) == 0 {
			delete(h.subs, sub.organizationID)
		}
	}
	h.mu.Unlock()
}

// Publish delivers an event to every current subscriber of the organization
// and hands it to the relay when one is attached. It never blocks on a slow
// subscriber: events beyond a subscriber's buffer are dropped for that
// subscriber only.
func (h *Hub) Publish(organizationID uint64, kind EventKind, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).WithField("event", kind).Error("could not encode broadcast payload")
		return
	}

	ev := Event{
		Kind:           kind,
		OrganizationID: organizationID,
		Origin:         h.id,
		Payload:        data,
	}

	h.dispatch(ev)

	if h.relay != nil {
		select {
		case h.relay <- ev:
		default:
			h.logger.WithField("event", kind).Warn("relay queue full, dropping event")
		}
	}
}

// dispatch delivers to local subscribers only. The relay inbound loop uses it
// to inject events from other instances.
func (h *Hub) dispatch(ev Event) {
	h.mu.RLock()
	for sub := range h.subs[ev.OrganizationID] {
		select {
		case sub.ch <- ev:
		default:
			h.logger.WithFields(logrus.Fields{
				"event":        ev.Kind,
				"organization": ev.OrganizationID,
			}).Warn("subscriber lagging, dropping event")
		}
	}
	h.mu.RUnlock()
}

// SubscriberCount reports how many observers are subscribed to an
// organization's channel.
func (h *Hub) SubscriberCount(organizationID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[organizationID])
}
