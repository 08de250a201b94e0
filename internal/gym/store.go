package gym

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/sqlite"
)

// Store persists one Document per user in the user_documents table.
//
// Writes are shallow merges of top-level document keys. Subscribers are notified after every committed
// write with the resulting document.
type Store struct {
	db     *sqlite.Database
	logger *slog.Logger

	mu          sync.Mutex
	nextID      uint64
	subscribers map[int]map[uint64]func(Document)
}

// NewStore creates a store on db.
func NewStore(db *sqlite.Database, logger *slog.Logger) *Store {
	return &Store{
		db:          db,
		logger:      logger,
		mu:          sync.Mutex{},
		nextID:      0,
		subscribers: make(map[int]map[uint64]func(Document)),
	}
}

// Current returns the stored document of userID, or ErrNotFound.
func (s *Store) Current(ctx context.Context, userID int) (Document, error) {
	var data []byte
	err := s.db.ReadOnly.QueryRowContext(ctx,
		`SELECT document FROM user_documents WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("query document: %w", err)
	}
	return DecodeDocument(data)
}

// Merge overwrites the given top-level keys of the stored document, creating it when absent.
func (s *Store) Merge(ctx context.Context, userID int, patch map[string]json.RawMessage) error {
	doc, err := s.write(ctx, userID, func(map[string]json.RawMessage) (map[string]json.RawMessage, error) {
		return patch, nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, userID, doc)
	return nil
}

// Update applies fn to the stored document in a single transaction and merges the top-level keys fn
// changed. seed provides the document when the user has none yet; the seed is stored in full.
func (s *Store) Update(
	ctx context.Context,
	userID int,
	seed func() Document,
	fn func(doc Document) (Document, error),
) (Document, error) {
	doc, err := s.write(ctx, userID, func(stored map[string]json.RawMessage) (map[string]json.RawMessage, error) {
		var before Document
		if stored == nil {
			before = seed().normalized()
		} else {
			raw, err := json.Marshal(stored)
			if err != nil {
				return nil, fmt.Errorf("marshal stored fields: %w", err)
			}
			if before, err = DecodeDocument(raw); err != nil {
				return nil, err
			}
		}
		after, err := fn(before.Clone())
		if err != nil {
			return nil, err
		}
		afterFields, err := after.normalized().fields()
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return afterFields, nil
		}
		beforeFields, err := before.fields()
		if err != nil {
			return nil, err
		}
		changed := make(map[string]json.RawMessage)
		for key, value := range afterFields {
			if !bytes.Equal(beforeFields[key], value) {
				changed[key] = value
			}
		}
		return changed, nil
	})
	if err != nil {
		return Document{}, err
	}
	s.publish(ctx, userID, doc)
	return doc, nil
}

// write runs patchFn inside an immediate transaction and stores the merged document. patchFn receives nil
// when the user has no document.
func (s *Store) write(
	ctx context.Context,
	userID int,
	patchFn func(stored map[string]json.RawMessage) (map[string]json.RawMessage, error),
) (Document, error) {
	var doc Document
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		var (
			data   []byte
			stored map[string]json.RawMessage
		)
		err := tx.QueryRowContext(ctx, `SELECT document FROM user_documents WHERE user_id = ?`, userID).Scan(&data)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("query document: %w", err)
		default:
			if err = json.Unmarshal(data, &stored); err != nil {
				return fmt.Errorf("unmarshal stored document: %w", err)
			}
		}

		patch, err := patchFn(stored)
		if err != nil {
			return err
		}
		merged := make(map[string]json.RawMessage, len(stored)+len(patch))
		maps.Copy(merged, stored)
		maps.Copy(merged, patch)
		if data, err = json.Marshal(merged); err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		if doc, err = DecodeDocument(data); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO user_documents (user_id, document) VALUES (?, ?)
			ON CONFLICT (user_id) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP`,
			userID, string(data)); err != nil {
			return fmt.Errorf("store document: %w", err)
		}
		return nil
	})
	if err != nil {
		return Document{}, err //nolint:wrapcheck // wrapped by the caller.
	}
	return doc, nil
}

// Subscribe registers fn to receive userID's document after every write. Call the returned function to
// stop receiving updates. fn must not block.
func (s *Store) Subscribe(userID int, fn func(Document)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if s.subscribers[userID] == nil {
		s.subscribers[userID] = make(map[uint64]func(Document))
	}
	s.subscribers[userID][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers[userID], id)
		if len(s.subscribers[userID]) == 0 {
			delete(s.subscribers, userID)
		}
	}
}

func (s *Store) publish(ctx context.Context, userID int, doc Document) {
	s.mu.Lock()
	fns := make([]func(Document), 0, len(s.subscribers[userID]))
	for _, fn := range s.subscribers[userID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	if len(fns) > 0 {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "notify document subscribers", slog.Int("subscribers", len(fns)))
	}
	for _, fn := range fns {
		fn(doc.Clone())
	}
}
