// Package bus relays collab events between server processes over Redis
// pub/sub, so members of a room spread across instances still see each
// other's events. Every instance publishes to and subscribes on one shared
// channel; envelopes are stamped with the origin instance id and each
// subscriber drops its own.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"collabboard/backend/internal/collab"
)

// DefaultChannel is the pub/sub channel shared by all instances.
const DefaultChannel = "collabboard:events"

type envelope struct {
	Origin string       `json:"origin"`
	Event  collab.Event `json:"event"`
}

// Bus is the Redis-backed relay. It implements collab.Relay.
type Bus struct {
	rdb     *redis.Client
	hub     *collab.Hub
	channel string
	log     *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a bus publishing on channel. An empty channel selects
// DefaultChannel. Call Start to begin receiving.
func New(rdb *redis.Client, hub *collab.Hub, channel string, log *slog.Logger) *Bus {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bus{rdb: rdb, hub: hub, channel: channel, log: log}
}

// Publish sends a locally originated event to the shared channel.
func (b *Bus) Publish(ctx context.Context, origin string, e collab.Event) error {
	data, err := json.Marshal(envelope{Origin: origin, Event: e})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// Start subscribes to the channel and delivers remote events to the local hub
// until Close is called. It confirms the subscription before returning, so
// events published after Start returns are not missed.
func (b *Bus) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		sub.Close()
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.receive(ctx, sub)
	return nil
}

func (b *Bus) receive(ctx context.Context, sub *redis.PubSub) {
	defer close(b.done)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Warn("malformed relay envelope", "error", err)
				continue
			}
			if env.Origin == b.hub.InstanceID() {
				continue
			}
			b.hub.DeliverRemote(env.Event)
		}
	}
}

// Close stops the subscriber and waits for it to drain.
func (b *Bus) Close() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	<-b.done
}
