// Package redis stores each room as one JSON document and fans changes
// out to every service instance through Redis Pub/Sub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wordgame-service/domain"
	"wordgame-service/internal/store"
)

const (
	DefaultPrefix = "store:"
	maxTxRetries  = 10
)

const (
	MsgDocumentChanged = "document_changed"
	MsgDocumentDeleted = "document_deleted"
)

// Notice is published on a document channel after every committed write.
type Notice struct {
	Type      string          `json:"type"`
	Path      string          `json:"path"`
	Version   int64           `json:"version"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type envelope struct {
	Version int64           `json:"version"`
	Data    json.RawMessage `json:"data"`
}

type Store struct {
	client *redis.Client
	prefix string
	now    func() time.Time
	logger *zap.Logger
	hub    *subscriberHub
}

type Option func(*Store)

func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewClient connects and pings the server.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func NewStore(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
		now:    time.Now,
		logger: zap.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newSubscriberHub(client, s.logger)
	return s
}

// Close stops every subscriber and closes the client.
func (s *Store) Close() error {
	s.hub.stopAll()
	return s.client.Close()
}

func (s *Store) key(docPath string) string {
	return s.prefix + docPath
}

func (s *Store) channel(docPath string) string {
	return s.prefix + "changes:" + docPath
}

func (s *Store) versionKey() string {
	return s.prefix + "version"
}

func (s *Store) Set(ctx context.Context, path string, value any) error {
	return s.Update(ctx, "", map[string]any{path: value})
}

func (s *Store) Remove(ctx context.Context, path string) error {
	return s.Set(ctx, path, nil)
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	docPath, writes, err := store.DocumentWrites(path, fields)
	if err != nil {
		return err
	}
	if docPath == "" {
		return nil
	}
	return s.apply(ctx, docPath, writes)
}

func (s *Store) apply(ctx context.Context, docPath string, writes []store.DocumentWrite) error {
	key := s.key(docPath)

	txf := func(tx *redis.Tx) error {
		env, err := readEnvelope(ctx, tx, key)
		if err != nil {
			return err
		}
		doc, err := decodeData(env.Data)
		if err != nil {
			return err
		}

		doc = store.ApplyWrites(doc, writes, s.now().UnixMilli())

		version, err := tx.Incr(ctx, s.versionKey()).Result()
		if err != nil {
			return err
		}

		notice := Notice{Path: docPath, Version: version, Timestamp: s.now()}
		var stored []byte
		if doc == nil {
			notice.Type = MsgDocumentDeleted
		} else {
			notice.Type = MsgDocumentChanged
			if notice.Data, err = json.Marshal(doc); err != nil {
				return err
			}
			if stored, err = json.Marshal(envelope{Version: version, Data: notice.Data}); err != nil {
				return err
			}
		}
		payload, err := json.Marshal(notice)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if doc == nil {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, stored, 0)
			}
			pipe.Publish(ctx, s.channel(docPath), payload)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: too much contention on %s", domain.ErrConflict, docPath)
}

func readEnvelope(ctx context.Context, c redis.Cmdable, key string) (envelope, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return envelope{}, nil
	}
	if err != nil {
		return envelope{}, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return env, nil
}

func decodeData(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) Once(ctx context.Context, path string) (store.Snapshot, error) {
	segs, err := store.Split(path)
	if err != nil {
		return store.Snapshot{}, err
	}
	if len(segs) >= store.DocumentDepth {
		env, err := readEnvelope(ctx, s.client, s.key(store.Join(segs[:store.DocumentDepth])))
		if err != nil {
			return store.Snapshot{}, err
		}
		doc, err := decodeData(env.Data)
		if err != nil {
			return store.Snapshot{}, err
		}
		return store.NewSnapshot(path, store.Get(doc, segs[store.DocumentDepth:])), nil
	}

	tree, err := s.scan(ctx, segs)
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.NewSnapshot(path, store.Get(tree, segs)), nil
}

// scan assembles every document below a shallow path into one tree.
func (s *Store) scan(ctx context.Context, segs []string) (any, error) {
	pattern := s.prefix + "*"
	if len(segs) > 0 {
		pattern = s.key(store.Join(segs)) + "/*"
	}

	var tree any
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		docPath := strings.TrimPrefix(key, s.prefix)
		docSegs, err := store.Split(docPath)
		if err != nil || len(docSegs) != store.DocumentDepth {
			continue
		}
		env, err := readEnvelope(ctx, s.client, key)
		if err != nil {
			return nil, err
		}
		doc, err := decodeData(env.Data)
		if err != nil {
			return nil, err
		}
		tree = store.SetAt(tree, docSegs, doc)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return tree, nil
}

func (s *Store) On(ctx context.Context, path string, fn store.Listener) (store.Subscription, error) {
	docPath, rel, err := store.DocumentOf(path)
	if err != nil {
		return nil, err
	}

	w := store.NewWatch(path, rel, fn)
	if err := s.hub.add(ctx, s.channel(docPath), w); err != nil {
		w.Close()
		return nil, err
	}

	env, err := readEnvelope(ctx, s.client, s.key(docPath))
	if err == nil {
		var doc any
		if doc, err = decodeData(env.Data); err == nil {
			w.Deliver(env.Version, doc)
		}
	}
	if err != nil {
		s.hub.remove(s.channel(docPath), w)
		return nil, err
	}

	return &subscription{hub: s.hub, channel: s.channel(docPath), w: w}, nil
}

type subscription struct {
	hub     *subscriberHub
	channel string
	w       *store.Watch
}

func (sub *subscription) Unsubscribe() error {
	sub.hub.remove(sub.channel, sub.w)
	return nil
}
