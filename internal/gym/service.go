package gym

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/myrjola/gympal/internal/contexthelpers"
	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/sqlite"
)

// Recorder receives notable domain events, e.g. for metrics.
type Recorder interface {
	WeekAdvanced(strategy string, changes []Change)
}

type nopRecorder struct{}

func (nopRecorder) WeekAdvanced(string, []Change) {}

// ServiceConfig tunes a Service. Zero values select the defaults.
type ServiceConfig struct {
	// Strategy defaults to ClassicProgression.
	Strategy Strategy
	// Rand is the source for rotations and time scaling. Defaults to a time-seeded generator.
	Rand *rand.Rand
	// Now defaults to time.Now.
	Now func() time.Time
	// Recorder defaults to a no-op.
	Recorder Recorder
}

// Service implements the user-facing actions. The user is taken from the request context.
type Service struct {
	store    *Store
	catalog  *Catalog
	resolver *Resolver
	engine   *Engine
	logger   *slog.Logger
	now      func() time.Time
	recorder Recorder
}

// NewService creates a new gym service.
func NewService(db *sqlite.Database, logger *slog.Logger, cfg ServiceConfig) (*Service, error) {
	catalog, err := DefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if cfg.Strategy == nil {
		cfg.Strategy = ClassicProgression{}
	}
	if cfg.Rand == nil {
		seed := uint64(time.Now().UnixNano()) //nolint:gosec // rotation draws need no cryptographic randomness.
		cfg.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	resolver := NewResolver(catalog.Alternatives)
	return &Service{
		store:    NewStore(db, logger),
		catalog:  catalog,
		resolver: resolver,
		engine:   NewEngine(cfg.Strategy, resolver, cfg.Rand),
		logger:   logger,
		now:      cfg.Now,
		recorder: cfg.Recorder,
	}, nil
}

// Catalog returns the static reference data.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Document returns the user's document, creating it on first access.
func (s *Service) Document(ctx context.Context) (Document, error) {
	doc, err := s.store.Current(ctx, contexthelpers.AuthenticatedUserID(ctx))
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Document{}, fmt.Errorf("current document: %w", err)
	}
	doc, err = s.update(ctx, func(doc Document) (Document, error) { return doc, nil })
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "created user document", slog.Int("week_count", doc.WeekCount))
	return doc, nil
}

// Subscribe calls fn with the user's document after every write until the returned function is called.
func (s *Service) Subscribe(ctx context.Context, fn func(Document)) func() {
	return s.store.Subscribe(contexthelpers.AuthenticatedUserID(ctx), fn)
}

// update runs fn as a read-modify-write of the user's document.
func (s *Service) update(ctx context.Context, fn func(doc Document) (Document, error)) (Document, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	seed := func() Document { return NewDocument(s.catalog, s.now()) }
	doc, err := s.store.Update(ctx, userID, seed, fn)
	if err != nil {
		return Document{}, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

// mutate is update for actions that invalidate a previewed week advance.
func (s *Service) mutate(ctx context.Context, fn func(doc Document) (Document, error)) (Document, error) {
	return s.update(ctx, func(doc Document) (Document, error) {
		doc.PendingAdvance = nil
		return fn(doc)
	})
}
