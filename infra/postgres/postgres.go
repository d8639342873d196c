// Package postgres keeps each room as a JSONB document and pushes changes
// to subscribers with LISTEN/NOTIFY.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"wordgame-service/internal/store"
)

// ChangesChannel is the NOTIFY channel every committed write is announced on.
const ChangesChannel = "store_changes"

// Notice is the NOTIFY payload. Listeners re-read the document since
// payloads are capped at 8000 bytes.
type Notice struct {
	Path    string `json:"path"`
	Version int64  `json:"version"`
}

type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
	hub    *listenerHub
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open connects, creates the schema and starts listening for changes.
func Open(connString string, opts ...Option) (*Store, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := initDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	s := New(db, nil, opts...)
	s.hub.notifier = newPQNotifier(connString, s.logger)
	return s, nil
}

// New wraps an initialized database. Subscriptions need a notifier.
func New(db *sql.DB, n notifier, opts ...Option) *Store {
	s := &Store{
		db:     db,
		now:    time.Now,
		logger: zap.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newListenerHub(s, n)
	return s
}

func (s *Store) Close() error {
	return errors.Join(s.hub.close(), s.db.Close())
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// the row may not exist yet, so FOR UPDATE alone cannot serialize creators
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, docPath); err != nil {
		return fmt.Errorf("failed to lock document: %w", err)
	}

	var body []byte
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM store_documents WHERE doc_path = $1 FOR UPDATE`,
		docPath,
	).Scan(&body)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to query document: %w", err)
	}
	doc, err := decodeBody(body)
	if err != nil {
		return err
	}

	doc = store.ApplyWrites(doc, writes, s.now().UnixMilli())

	var version int64
	if err := tx.QueryRowContext(ctx, `SELECT nextval('store_document_version')`).Scan(&version); err != nil {
		return fmt.Errorf("failed to allocate version: %w", err)
	}

	if doc == nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM store_documents WHERE doc_path = $1`, docPath)
	} else {
		var data []byte
		if data, err = json.Marshal(doc); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO store_documents (doc_path, body, version, updated_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (doc_path) DO UPDATE
			 SET body = EXCLUDED.body, version = EXCLUDED.version, updated_at = EXCLUDED.updated_at`,
			docPath, data, version, s.now(),
		)
	}
	if err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	payload, err := json.Marshal(Notice{Path: docPath, Version: version})
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, ChangesChannel, string(payload)); err != nil {
		return fmt.Errorf("failed to notify: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// readDocument returns the document and its version. A missing document
// reads as nil at version 0.
func (s *Store) readDocument(ctx context.Context, docPath string) (any, int64, error) {
	var body []byte
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT body, version FROM store_documents WHERE doc_path = $1`,
		docPath,
	).Scan(&body, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query document: %w", err)
	}
	doc, err := decodeBody(body)
	return doc, version, err
}

func decodeBody(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return v, nil
}

func (s *Store) Once(ctx context.Context, path string) (store.Snapshot, error) {
	segs, err := store.Split(path)
	if err != nil {
		return store.Snapshot{}, err
	}
	if len(segs) >= store.DocumentDepth {
		doc, _, err := s.readDocument(ctx, store.Join(segs[:store.DocumentDepth]))
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_path, body FROM store_documents WHERE doc_path LIKE $1 ORDER BY doc_path`,
		prefixPattern(segs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var tree any
	for rows.Next() {
		var docPath string
		var body []byte
		if err := rows.Scan(&docPath, &body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docSegs, err := store.Split(docPath)
		if err != nil || len(docSegs) != store.DocumentDepth {
			continue
		}
		doc, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		tree = store.SetAt(tree, docSegs, doc)
	}
	return tree, rows.Err()
}

func prefixPattern(segs []string) string {
	if len(segs) == 0 {
		return "%"
	}
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(store.Join(segs))
	return escaped + "/%"
}

func (s *Store) On(ctx context.Context, path string, fn store.Listener) (store.Subscription, error) {
	docPath, rel, err := store.DocumentOf(path)
	if err != nil {
		return nil, err
	}

	w := store.NewWatch(path, rel, fn)
	if err := s.hub.add(docPath, w); err != nil {
		w.Close()
		return nil, err
	}

	doc, version, err := s.readDocument(ctx, docPath)
	if err != nil {
		s.hub.remove(docPath, w)
		return nil, err
	}
	w.Deliver(version, doc)

	return &subscription{hub: s.hub, docPath: docPath, w: w}, nil
}

type subscription struct {
	hub     *listenerHub
	docPath string
	w       *store.Watch
}

func (sub *subscription) Unsubscribe() error {
	sub.hub.remove(sub.docPath, sub.w)
	return nil
}
