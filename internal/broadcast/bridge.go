package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// relayBuffer bounds the outbound relay queue. Publishing to Redis happens on
// the bridge goroutine so the mutation path never waits on the network.
const relayBuffer = 256

// RedisBridge relays hub events through a Redis pub/sub channel so that
// observers connected to other instances of this service see them too.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	out     chan Event
	logger  *logrus.Logger
}

// NewRedisBridge attaches a relay to the hub. Call Run to start it.
func NewRedisBridge(client *redis.Client, channel string, hub *Hub, logger *logrus.Logger) *RedisBridge {
	out := make(chan Event, relayBuffer)
	hub.relay = out
	return &RedisBridge{
		client:  client,
		channel: channel,
		hub:     hub,
		out:     out,
		logger:  logger,
	}
}

// Run pumps events both ways until the context is cancelled.
func (b *RedisBridge) Run(ctx context.Context) {
	go b.publishLoop(ctx)
	b.subscribeLoop(ctx)
}

func (b *RedisBridge) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.out:
			data, err := json.Marshal(ev)
			if err != nil {
				b.logger.WithError(err).Error("could not encode relay event")
				continue
			}
			if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
				b.logger.WithError(err).Warn("relay publish failed")
			}
		}
	}
}

func (b *RedisBridge) subscribeLoop(ctx context.Context) {
	for {
		sub := b.client.Subscribe(ctx, b.channel)
		ch := sub.Channel()
		for msg := range ch {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.WithError(err).Error("could not decode relay event")
				continue
			}
			if ev.Origin == b.hub.id {
				continue
			}
			b.hub.dispatch(ev)
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		b.logger.Warn("relay subscription closed, reconnecting")
		time.Sleep(time.Second)
	}
}
