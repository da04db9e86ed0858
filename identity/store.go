// Package identity holds the enrolled identities and their face embeddings.
//
// Store is not safe for concurrent use on its own; callers go through guard.Controller,
// which serializes writers and lets readers share the store.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"SECUREATTEND/helper"
	"SECUREATTEND/models"
	"SECUREATTEND/storage"
)

// SnapshotKey is the backend key of the persisted store.
const SnapshotKey = "identities"

// Store is an insertion-ordered name -> IdentityRecord mapping persisted as one snapshot.
type Store struct {
	backend storage.Backend
	now     func() time.Time

	records  []models.IdentityRecord
	index    map[string]int
	dim      int
	fixedDim int
	version  uint64
}

type Option func(*Store)

// WithDimension pins the embedding length instead of learning it from the first enrollment.
func WithDimension(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.fixedDim = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		index:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dim = s.fixedDim
	return s
}

type document struct {
	Dimension int                     `json:"dimension"`
	Records   []models.IdentityRecord `json:"records"`
}

// Load replaces the in-memory state with the persisted snapshot. A missing snapshot
// yields an empty store.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.backend.Load(ctx, SnapshotKey)
	if errors.Is(err, storage.ErrNotFound) {
		s.reset(nil, s.fixedDim)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load identities: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode identities: %w", err)
	}
	if s.fixedDim > 0 && doc.Dimension > 0 && doc.Dimension != s.fixedDim {
		return fmt.Errorf("stored dimension %d, configured %d: %w", doc.Dimension, s.fixedDim, models.ErrInvalidEmbedding)
	}

	dim := doc.Dimension
	if dim == 0 {
		dim = s.fixedDim
	}
	seen := make(map[string]struct{}, len(doc.Records))
	for _, r := range doc.Records {
		if _, ok := seen[r.Name]; ok {
			return fmt.Errorf("decode identities: %q: %w", r.Name, models.ErrDuplicateName)
		}
		seen[r.Name] = struct{}{}
		if err := helper.ValidateEmbedding(r.Embedding); err != nil {
			return fmt.Errorf("decode identities: %q: %w", r.Name, err)
		}
		if dim == 0 {
			dim = len(r.Embedding)
		}
		if len(r.Embedding) != dim {
			return fmt.Errorf("decode identities: %q has length %d, want %d: %w", r.Name, len(r.Embedding), dim, models.ErrInvalidEmbedding)
		}
	}

	s.reset(doc.Records, dim)
	return nil
}

// Persist writes the current state as a whole snapshot.
func (s *Store) Persist(ctx context.Context) error {
	return s.write(ctx, s.records, s.dim)
}

// Backup writes the current state under a different key of the same backend.
func (s *Store) Backup(ctx context.Context, key string) error {
	data, err := s.encode(s.records, s.dim)
	if err != nil {
		return err
	}
	if err := s.backend.Replace(ctx, key, data); err != nil {
		return fmt.Errorf("backup identities: %w: %w", models.ErrPersistence, err)
	}
	return nil
}

func (s *Store) encode(records []models.IdentityRecord, dim int) ([]byte, error) {
	if records == nil {
		records = []models.IdentityRecord{}
	}
	data, err := json.Marshal(document{Dimension: dim, Records: records})
	if err != nil {
		return nil, fmt.Errorf("encode identities: %w", err)
	}
	return data, nil
}

func (s *Store) write(ctx context.Context, records []models.IdentityRecord, dim int) error {
	data, err := s.encode(records, dim)
	if err != nil {
		return err
	}
	if err := s.backend.Replace(ctx, SnapshotKey, data); err != nil {
		return fmt.Errorf("persist identities: %w: %w", models.ErrPersistence, err)
	}
	return nil
}

// commit persists the candidate state and only then makes it current.
func (s *Store) commit(ctx context.Context, records []models.IdentityRecord, dim int) error {
	if err := s.write(ctx, records, dim); err != nil {
		return err
	}
	s.reset(records, dim)
	return nil
}

func (s *Store) reset(records []models.IdentityRecord, dim int) {
	s.records = records
	s.dim = dim
	s.index = make(map[string]int, len(records))
	for i, r := range records {
		s.index[r.Name] = i
	}
	s.version++
}

func (s *Store) checkEmbedding(e models.Embedding, dim int) error {
	if err := helper.ValidateEmbedding(e); err != nil {
		return err
	}
	if dim > 0 && len(e) != dim {
		return fmt.Errorf("length %d, store uses %d: %w", len(e), dim, models.ErrInvalidEmbedding)
	}
	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name is required: %w", models.ErrInvalidInput)
	}
	return name, nil
}

// Enroll adds a new identity. The first enrollment of an empty, unpinned store
// establishes the embedding length.
func (s *Store) Enroll(ctx context.Context, name string, e models.Embedding) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if _, ok := s.index[name]; ok {
		return fmt.Errorf("enroll %q: %w", name, models.ErrDuplicateName)
	}

	dim := s.dim
	if len(s.records) == 0 && s.fixedDim == 0 {
		dim = 0
	}
	if err := s.checkEmbedding(e, dim); err != nil {
		return fmt.Errorf("enroll %q: %w", name, err)
	}
	if dim == 0 {
		dim = len(e)
	}

	next := make([]models.IdentityRecord, len(s.records), len(s.records)+1)
	copy(next, s.records)
	next = append(next, models.IdentityRecord{
		Name:       name,
		Embedding:  e.Clone(),
		EnrolledAt: s.now().Round(0).UTC(),
	})
	return s.commit(ctx, next, dim)
}

// Replace swaps the embedding of an existing identity, keeping its enrollment position.
func (s *Store) Replace(ctx context.Context, name string, e models.Embedding) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	i, ok := s.index[name]
	if !ok {
		return fmt.Errorf("replace %q: %w", name, models.ErrIdentityNotFound)
	}

	dim := s.dim
	if len(s.records) == 1 && s.fixedDim == 0 {
		// the only record may move the store to a new model dimension
		dim = 0
	}
	if err := s.checkEmbedding(e, dim); err != nil {
		return fmt.Errorf("replace %q: %w", name, err)
	}
	if dim == 0 {
		dim = len(e)
	}

	next := make([]models.IdentityRecord, len(s.records))
	copy(next, s.records)
	next[i] = models.IdentityRecord{
		Name:       name,
		Embedding:  e.Clone(),
		EnrolledAt: s.now().Round(0).UTC(),
	}
	return s.commit(ctx, next, dim)
}

// Remove deletes an identity. Removing the last record of an unpinned store clears the
// established length.
func (s *Store) Remove(ctx context.Context, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	i, ok := s.index[name]
	if !ok {
		return fmt.Errorf("remove %q: %w", name, models.ErrIdentityNotFound)
	}

	next := make([]models.IdentityRecord, 0, len(s.records)-1)
	next = append(next, s.records[:i]...)
	next = append(next, s.records[i+1:]...)

	dim := s.dim
	if len(next) == 0 && s.fixedDim == 0 {
		dim = 0
	}
	return s.commit(ctx, next, dim)
}

func (s *Store) Get(name string) (models.IdentityRecord, bool) {
	i, ok := s.index[strings.TrimSpace(name)]
	if !ok {
		return models.IdentityRecord{}, false
	}
	return s.records[i], true
}

func (s *Store) Len() int {
	return len(s.records)
}

// Dimension is the established embedding length, 0 while unknown.
func (s *Store) Dimension() int {
	return s.dim
}

// LookupAll returns a point-in-time snapshot in enrollment order.
func (s *Store) LookupAll() Snapshot {
	records := make([]models.IdentityRecord, len(s.records))
	copy(records, s.records)
	return Snapshot{records: records, version: s.version}
}

// Snapshot is an immutable view of the store at one version.
type Snapshot struct {
	records []models.IdentityRecord
	version uint64
}

// Candidates returns the records in enrollment order. Callers must not modify them.
func (s Snapshot) Candidates() []models.IdentityRecord {
	return s.records
}

// Version changes whenever the store content changes.
func (s Snapshot) Version() uint64 {
	return s.version
}

func (s Snapshot) Len() int {
	return len(s.records)
}
