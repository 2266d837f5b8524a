package features

import (
	"fmt"
	"sync"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const schemaKey = "expected_columns"

// SchemaCheck is run against a freshly loaded schema before it is cached.
type SchemaCheck func(*Schema) error

// SchemaStore caches the expected columns after the first successful load.
// The file is only read again after Invalidate or Reload.
type SchemaStore struct {
	path   string
	checks []SchemaCheck
	c      *cache.Cache
	mu     sync.Mutex // serialises loads; reads go through the cache
	onLoad func(ok bool)
}

func NewSchemaStore(path string, checks ...SchemaCheck) *SchemaStore {
	return &SchemaStore{path: path, checks: checks, c: cache.New(cache.NoExpiration, 0)}
}

// OnLoad registers a hook called after every load attempt.
func (s *SchemaStore) OnLoad(fn func(ok bool)) { s.onLoad = fn }

func (s *SchemaStore) Path() string { return s.path }

// Get returns the cached schema, loading it on first use.
func (s *SchemaStore) Get() (*Schema, error) {
	if v, ok := s.c.Get(schemaKey); ok {
		return v.(*Schema), nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.c.Get(schemaKey); ok {
		return v.(*Schema), nil
	}
	return s.load()
}

// Reload reads the reference dataset again. The previous schema stays in
// place when the new one fails to load or validate.
func (s *SchemaStore) Reload() (*Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Invalidate drops the cached schema; the next Get reads the file.
func (s *SchemaStore) Invalidate() {
	s.c.Delete(schemaKey)
	log.Info().Str("path", s.path).Msg("expected column schema invalidated")
}

func (s *SchemaStore) load() (*Schema, error) {
	sch, err := LoadExpectedColumns(s.path)
	if err == nil {
		for _, check := range s.checks {
			if cerr := check(sch); cerr != nil {
				err = &SchemaLoadError{Path: s.path, Err: fmt.Errorf("validate: %w", cerr)}
				break
			}
		}
	}
	if s.onLoad != nil {
		s.onLoad(err == nil)
	}
	if err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("expected column schema load failed")
		return nil, err
	}
	s.c.Set(schemaKey, sch, cache.NoExpiration)
	log.Info().
		Str("path", s.path).
		Str("version", sch.Version).
		Int("columns", sch.Len()).
		Int("crops", len(sch.Categories(CropPrefix))).
		Msg("expected column schema loaded")
	return sch, nil
}
