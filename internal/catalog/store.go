package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/gardengod/gardengod/internal/log"
	"github.com/gardengod/gardengod/internal/metrics"
)

// Store holds the in-memory plant catalog with atomic reload semantics: a
// reload that fails to parse or validate keeps the previous catalog intact.
type Store struct {
	mu      sync.RWMutex
	plants  []Plant
	byID    map[string]Plant
	path    string
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	hookMu      sync.Mutex
	reloadHooks []func()
}

// NewStore loads the catalog from path and returns a store serving it.
func NewStore(path string) (*Store, error) {
	plants, err := Load(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:   path,
		logger: log.WithComponent("catalog"),
	}
	s.swap(plants)

	s.logger.Info().
		Str("event", "catalog.loaded").
		Str("path", path).
		Int("plants", len(plants)).
		Msg("plant catalog loaded")
	return s, nil
}

func (s *Store) swap(plants []Plant) {
	byID := make(map[string]Plant, len(plants))
	for _, p := range plants {
		byID[p.ID] = p
	}

	s.mu.Lock()
	s.plants = plants
	s.byID = byID
	s.mu.Unlock()

	metrics.RecordCatalogSize(len(plants))
}

// Plants returns all catalog entries in file order.
func (s *Store) Plants() []Plant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plants
}

// Get returns the plant with the given ID.
func (s *Store) Get(id string) (Plant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return Plant{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return p, nil
}

// ByID returns the catalog as an ID-keyed lookup map. The map is shared;
// callers must not mutate it.
func (s *Store) ByID() map[string]Plant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID
}

// Len returns the number of plants in the catalog.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plants)
}

// Reload re-reads the catalog file. The old catalog stays active on failure.
func (s *Store) Reload() error {
	plants, err := Load(s.path)
	if err != nil {
		metrics.IncCatalogReload("failure")
		s.logger.Error().
			Err(err).
			Str("event", "catalog.reload_failed").
			Str("path", s.path).
			Msg("catalog reload failed, keeping current catalog")
		return err
	}

	s.swap(plants)
	metrics.IncCatalogReload("success")
	s.logger.Info().
		Str("event", "catalog.reloaded").
		Str("path", s.path).
		Int("plants", len(plants)).
		Msg("plant catalog reloaded")

	s.runReloadHooks()
	return nil
}

// OnReload registers a hook that runs after every successful reload, in
// registration order. Derived state (cached schedules) hangs off these hooks.
func (s *Store) OnReload(hook func()) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.reloadHooks = append(s.reloadHooks, hook)
}

func (s *Store) runReloadHooks() {
	s.hookMu.Lock()
	hooks := make([]func(), len(s.reloadHooks))
	copy(hooks, s.reloadHooks)
	s.hookMu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

// Watch starts a file watcher that reloads the catalog when the file changes.
// Watcher failures are returned so the caller can decide whether hot reload
// is load-bearing; the store itself keeps working without it.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	s.watcher = watcher

	if err := watcher.Add(s.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch catalog file: %w", err)
	}

	s.logger.Info().
		Str("event", "catalog.watcher_started").
		Str("path", s.path).
		Msg("watching plant catalog for changes")

	go s.watchLoop(ctx)
	return nil
}

func (s *Store) watchLoop(ctx context.Context) {
	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Str("event", "catalog.watcher_stopped").Msg("catalog watcher stopped")
			_ = s.watcher.Close()
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, func() {
					_ = s.Reload()
				})
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error().
				Err(err).
				Str("event", "catalog.watcher_error").
				Msg("catalog watcher error")
		}
	}
}
