package redis

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wordgame-service/internal/store"
)

type docSubscriber struct {
	pubsub    *redis.PubSub
	listeners map[*store.Watch]struct{}
}

// subscriberHub keeps one Pub/Sub subscription per document channel and
// shares it between every listener on that document.
type subscriberHub struct {
	client *redis.Client
	logger *zap.Logger

	mutex       sync.Mutex
	subscribers map[string]*docSubscriber
}

func newSubscriberHub(client *redis.Client, logger *zap.Logger) *subscriberHub {
	return &subscriberHub{
		client:      client,
		logger:      logger,
		subscribers: make(map[string]*docSubscriber),
	}
}

func (h *subscriberHub) add(ctx context.Context, channel string, w *store.Watch) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if sub, ok := h.subscribers[channel]; ok {
		sub.listeners[w] = struct{}{}
		return nil
	}

	pubsub := h.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return err
	}
	sub := &docSubscriber{
		pubsub:    pubsub,
		listeners: map[*store.Watch]struct{}{w: {}},
	}
	h.subscribers[channel] = sub
	go h.run(channel, sub)
	h.logger.Debug("subscribed to redis channel", zap.String("channel", channel))
	return nil
}

func (h *subscriberHub) run(channel string, sub *docSubscriber) {
	for msg := range sub.pubsub.Channel() {
		var notice Notice
		if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
			h.logger.Warn("failed to unmarshal redis notice", zap.String("channel", channel), zap.Error(err))
			continue
		}
		doc, err := decodeData(notice.Data)
		if err != nil {
			h.logger.Warn("failed to decode document", zap.String("channel", channel), zap.Error(err))
			continue
		}

		h.mutex.Lock()
		for w := range sub.listeners {
			w.Deliver(notice.Version, doc)
		}
		h.mutex.Unlock()
	}
	h.logger.Debug("unsubscribed from redis channel", zap.String("channel", channel))
}

func (h *subscriberHub) remove(channel string, w *store.Watch) {
	w.Close()

	h.mutex.Lock()
	defer h.mutex.Unlock()

	sub, ok := h.subscribers[channel]
	if !ok {
		return
	}
	delete(sub.listeners, w)
	if len(sub.listeners) == 0 {
		if err := sub.pubsub.Close(); err != nil {
			h.logger.Warn("failed to close redis subscription", zap.String("channel", channel), zap.Error(err))
		}
		delete(h.subscribers, channel)
	}
}

func (h *subscriberHub) stopAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for channel, sub := range h.subscribers {
		for w := range sub.listeners {
			w.Close()
		}
		sub.pubsub.Close()
		delete(h.subscribers, channel)
	}
}
