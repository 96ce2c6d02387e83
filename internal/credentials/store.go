// Package credentials loads the service's credential documents from disk
// before the listener binds. Sources are named, loaded once at startup,
// and exposed as immutable handles shared read-only across request threads.
// A missing or unparsable source is fatal: the process must not serve
// traffic with partially loaded credentials.
package credentials

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/zetalabs/teliads/internal/component"
	apperrors "github.com/zetalabs/teliads/internal/errors"
	"github.com/zetalabs/teliads/internal/logger"
)

// DecodeFunc turns raw file bytes into a typed handle. A nil DecodeFunc
// keeps the raw bytes as the handle (opaque blob).
type DecodeFunc func(data []byte) (any, error)

// Source describes one credential document on disk.
type Source struct {
	// Name identifies the source for lookup and error reporting.
	Name string
	// Path is the file path, resolved relative to the working directory.
	Path string
	// Decode validates and transforms the raw bytes. Optional.
	Decode DecodeFunc
}

// Store loads and holds credential documents. Handles are written once in
// Start and never mutated afterwards, so concurrent reads are safe.
type Store struct {
	sources []Source
	log     *logger.Logger

	mu      sync.RWMutex
	handles map[string]any
	raw     map[string][]byte
	loaded  bool
}

// NewStore creates a store for the given sources.
func NewStore(log *logger.Logger, sources ...Source) *Store {
	return &Store{
		sources: sources,
		log:     log.WithComponent("credentials"),
		handles: make(map[string]any),
		raw:     make(map[string][]byte),
	}
}

// Name implements component.Component.
func (s *Store) Name() string { return "credential-store" }

// Start reads every source from disk. The first failure aborts the load so
// the launcher can exit non-zero before binding the listener.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, src := range s.sources {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return apperrors.CredentialError(src.Name, fmt.Errorf("read %s: %w", src.Path, err))
		}

		handle := any(data)
		if src.Decode != nil {
			handle, err = src.Decode(data)
			if err != nil {
				return apperrors.CredentialError(src.Name, fmt.Errorf("decode %s: %w", src.Path, err))
			}
		}

		s.raw[src.Name] = data
		s.handles[src.Name] = handle

		s.log.Info("Credential source loaded", map[string]interface{}{
			"source": src.Name,
			"path":   src.Path,
			"bytes":  len(data),
		})
	}

	s.loaded = true
	return nil
}

// Stop implements component.Component. Credential handles hold no external
// resources, so there is nothing to release.
func (s *Store) Stop(ctx context.Context) error {
	return nil
}

// Health implements component.Component.
func (s *Store) Health(ctx context.Context) component.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loaded {
		return component.Health{
			Name:   s.Name(),
			Status: component.StatusHealthy,
		}
	}
	return component.Health{
		Name:    s.Name(),
		Status:  component.StatusUnhealthy,
		Message: "credentials not loaded",
	}
}

// Handle returns the decoded handle for a named source.
func (s *Store) Handle(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handles[name]
	return h, ok
}

// Raw returns the raw bytes for a named source. The returned slice must be
// treated as read-only.
func (s *Store) Raw(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.raw[name]
	return b, ok
}
