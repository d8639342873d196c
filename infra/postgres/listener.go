package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"wordgame-service/domain"
	"wordgame-service/internal/store"
)

const (
	pingInterval   = 90 * time.Second
	refreshTimeout = 5 * time.Second
)

// notifier is the part of *pq.Listener the hub needs.
type notifier interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

func newPQNotifier(connString string, logger *zap.Logger) *pq.Listener {
	return pq.NewListener(connString, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected:
			logger.Warn("postgres listener disconnected", zap.Error(err))
		case pq.ListenerEventReconnected:
			logger.Info("postgres listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("postgres listener connection attempt failed", zap.Error(err))
		}
	})
}

// listenerHub owns the single LISTEN connection and fans notices out to
// the watches registered per document.
type listenerHub struct {
	store    *Store
	notifier notifier

	mutex   sync.Mutex
	started bool
	done    chan struct{}
	watches map[string]map[*store.Watch]struct{}
}

func newListenerHub(s *Store, n notifier) *listenerHub {
	return &listenerHub{
		store:    s,
		notifier: n,
		done:     make(chan struct{}),
		watches:  make(map[string]map[*store.Watch]struct{}),
	}
}

func (h *listenerHub) add(docPath string, w *store.Watch) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.started {
		if h.notifier == nil {
			return fmt.Errorf("%w: subscriptions are not available", domain.ErrStore)
		}
		if err := h.notifier.Listen(ChangesChannel); err != nil && !errors.Is(err, pq.ErrChannelAlreadyOpen) {
			return fmt.Errorf("failed to listen on %s: %w", ChangesChannel, err)
		}
		h.started = true
		go h.run()
	}

	set, ok := h.watches[docPath]
	if !ok {
		set = make(map[*store.Watch]struct{})
		h.watches[docPath] = set
	}
	set[w] = struct{}{}
	return nil
}

func (h *listenerHub) remove(docPath string, w *store.Watch) {
	w.Close()

	h.mutex.Lock()
	defer h.mutex.Unlock()
	set, ok := h.watches[docPath]
	if !ok {
		return
	}
	delete(set, w)
	if len(set) == 0 {
		delete(h.watches, docPath)
	}
}

func (h *listenerHub) run() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-h.notifier.NotificationChannel():
			if !ok {
				return
			}
			if n == nil {
				// reconnected: notices sent while down are lost
				h.resync()
				continue
			}
			var notice Notice
			if err := json.Unmarshal([]byte(n.Extra), &notice); err != nil {
				h.store.logger.Warn("failed to unmarshal postgres notice", zap.String("payload", n.Extra), zap.Error(err))
				continue
			}
			h.refresh(notice.Path, notice.Version)
		case <-ticker.C:
			go func() {
				if err := h.notifier.Ping(); err != nil {
					h.store.logger.Warn("postgres listener ping failed", zap.Error(err))
				}
			}()
		case <-h.done:
			return
		}
	}
}

func (h *listenerHub) targets(docPath string) []*store.Watch {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	out := make([]*store.Watch, 0, len(h.watches[docPath]))
	for w := range h.watches[docPath] {
		out = append(out, w)
	}
	return out
}

// refresh re-reads a document and delivers it. A document that is gone
// is delivered at floor, the newest version known to be at least as
// recent as its removal.
func (h *listenerHub) refresh(docPath string, floor int64) {
	watches := h.targets(docPath)
	if len(watches) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	doc, version, err := h.store.readDocument(ctx, docPath)
	if err != nil {
		h.store.logger.Warn("failed to refresh document", zap.String("path", docPath), zap.Error(err))
		return
	}
	if doc == nil {
		version = floor
	}
	for _, w := range watches {
		w.Deliver(version, doc)
	}
}

func (h *listenerHub) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	var floor int64
	err := h.store.db.QueryRowContext(ctx, `SELECT last_value FROM store_document_version`).Scan(&floor)
	if err != nil {
		h.store.logger.Warn("failed to read document version", zap.Error(err))
		return
	}

	h.mutex.Lock()
	paths := make([]string, 0, len(h.watches))
	for docPath := range h.watches {
		paths = append(paths, docPath)
	}
	h.mutex.Unlock()

	for _, docPath := range paths {
		h.refresh(docPath, floor)
	}
}

func (h *listenerHub) close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for docPath, set := range h.watches {
		for w := range set {
			w.Close()
		}
		delete(h.watches, docPath)
	}
	if !h.started {
		return nil
	}
	h.started = false
	close(h.done)
	return h.notifier.Close()
}
