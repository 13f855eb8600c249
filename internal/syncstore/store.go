// Package syncstore implements the dual-write persistence model: an in-memory
// cache that is always authoritative for reads, mirrored on every mutation to
// a line-oriented file and a relational store. Store writes are best effort;
// a failed mirror write is reported through the failure hook and the mutation
// still succeeds. Startup reconciliation heals the divergence.
package syncstore

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// Entity is anything the store can persist. Identities are assigned by the
// store itself via NextID.
type Entity interface {
	EntityID() int64
}

// Target names one of the two durable stores behind the cache.
type Target string

const (
	TargetFile     Target = "file"
	TargetDatabase Target = "database"
)

// Relational is the database side of the dual write.
type Relational[E Entity] interface {
	Upsert(e E) error
	Delete(id int64) error
	LoadAll() ([]E, error)
}

// FileStore is the flat-file side of the dual write. Append is used for
// records the store has never seen; Upsert rewrites in place.
type FileStore[E Entity] interface {
	Append(e E) error
	Upsert(e E) error
	Delete(id int64) error
	LoadAll() ([]E, error)
	ReplaceAll(records []E) error
}

// FailureHook is invoked, outside any store lock, whenever a durable write
// fails. id is the entity id, or the deleted id for deletes.
type FailureHook func(kind string, id int64, target Target, err error)

// Store is the dual-write store for one entity type.
type Store[E Entity] struct {
	kind    string
	file    FileStore[E]
	db      Relational[E]
	timeout time.Duration
	onFail  FailureHook

	// writeMu serializes mutations end to end, including the fanout to the
	// durable stores, so the file and the database see writes in the same
	// order the cache does.
	writeMu sync.Mutex

	// cacheMu guards only the map, so reads never wait on store I/O.
	cacheMu sync.RWMutex
	cache   map[int64]E

	idMu   sync.Mutex
	nextID int64
}

// Option configures a Store.
type Option[E Entity] func(*Store[E])

// WithTimeout bounds each durable write. A write that exceeds the bound is
// abandoned and reported as a persistence failure; resync replays it later.
func WithTimeout[E Entity](d time.Duration) Option[E] {
	return func(s *Store[E]) { s.timeout = d }
}

// WithFailureHook registers the persistence failure callback.
func WithFailureHook[E Entity](hook FailureHook) Option[E] {
	return func(s *Store[E]) { s.onFail = hook }
}

// New creates a dual-write store. kind names the entity type in logs and
// failure reports ("book", "loan", "member").
func New[E Entity](kind string, file FileStore[E], db Relational[E], opts ...Option[E]) *Store[E] {
	s := &Store[E]{
		kind:   kind,
		file:   file,
		db:     db,
		cache:  make(map[int64]E),
		nextID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind returns the entity type name this store was created with.
func (s *Store[E]) Kind() string { return s.kind }

// NextID hands out the next identity. Monotonic within a process; seeded to
// max(existing)+1 by Reconcile.
func (s *Store[E]) NextID() int64 {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// Get returns the cached entity.
func (s *Store[E]) Get(id int64) (E, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	e, ok := s.cache[id]
	return e, ok
}

// All returns a snapshot of the cache ordered by id.
func (s *Store[E]) All() []E {
	s.cacheMu.RLock()
	out := make([]E, 0, len(s.cache))
	for _, e := range s.cache {
		out = append(out, e)
	}
	s.cacheMu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].EntityID() < out[j].EntityID() })
	return out
}

// Len returns the number of cached entities.
func (s *Store[E]) Len() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return len(s.cache)
}

// Write commits the entity to the cache, then mirrors it to both durable
// stores. The cache update is never rolled back: a store that fails or times
// out is reported through the failure hook and caught up by resync.
func (s *Store[E]) Write(e E) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := e.EntityID()

	s.cacheMu.Lock()
	_, existed := s.cache[id]
	s.cache[id] = e
	s.cacheMu.Unlock()

	s.bumpNextID(id)

	fileWrite := s.file.Upsert
	if !existed {
		fileWrite = s.file.Append
	}
	if err := s.withTimeout(func() error { return fileWrite(e) }); err != nil {
		s.reportFailure(id, TargetFile, err)
	}
	if err := s.withTimeout(func() error { return s.db.Upsert(e) }); err != nil {
		s.reportFailure(id, TargetDatabase, err)
	}
}

// Delete removes the entity from the cache and both durable stores. Deleting
// an id that is not cached is a no-op.
func (s *Store[E]) Delete(id int64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.cacheMu.Lock()
	_, existed := s.cache[id]
	delete(s.cache, id)
	s.cacheMu.Unlock()

	if !existed {
		return
	}

	if err := s.withTimeout(func() error { return s.file.Delete(id) }); err != nil {
		s.reportFailure(id, TargetFile, err)
	}
	if err := s.withTimeout(func() error { return s.db.Delete(id) }); err != nil {
		s.reportFailure(id, TargetDatabase, err)
	}
}

// Report summarizes one reconciliation run.
type Report struct {
	Kind         string `json:"kind"`
	Loaded       int    `json:"loaded"`
	FromFileOnly int    `json:"from_file_only"`
	Healed       int    `json:"healed"`
	DatabaseDown bool   `json:"database_down"`
	NextID       int64  `json:"next_id"`
}

// Reconcile rebuilds the cache from the durable stores. The database is the
// source of truth; file records whose id the database does not know are kept
// and written back to the database to heal earlier failed writes. When the
// database cannot be read at all the file alone seeds the cache. The file is
// rewritten from the merged state so both stores converge. Idempotent.
func (s *Store[E]) Reconcile() (Report, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	report := Report{Kind: s.kind}

	dbRecords, dbErr := s.db.LoadAll()
	if dbErr != nil {
		report.DatabaseDown = true
		log.Printf("Reconcile %s: database unavailable, falling back to file: %v", s.kind, dbErr)
	}

	fileRecords, fileErr := s.file.LoadAll()
	if fileErr != nil {
		if dbErr != nil {
			return report, fmt.Errorf("reconcile %s: both stores unreadable: %w", s.kind, fileErr)
		}
		log.Printf("Reconcile %s: file unreadable, rebuilding from database: %v", s.kind, fileErr)
	}

	merged := make(map[int64]E, len(dbRecords)+len(fileRecords))
	for _, e := range dbRecords {
		merged[e.EntityID()] = e
	}
	for _, e := range fileRecords {
		id := e.EntityID()
		if _, inDB := merged[id]; inDB {
			continue
		}
		merged[id] = e
		if dbErr == nil {
			report.FromFileOnly++
			if err := s.db.Upsert(e); err != nil {
				log.Printf("Reconcile %s: failed to heal record %d into database: %v", s.kind, id, err)
			} else {
				report.Healed++
			}
		}
	}

	maxID := int64(0)
	all := make([]E, 0, len(merged))
	for id, e := range merged {
		all = append(all, e)
		if id > maxID {
			maxID = id
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EntityID() < all[j].EntityID() })

	if err := s.file.ReplaceAll(all); err != nil {
		log.Printf("Reconcile %s: failed to rewrite file store: %v", s.kind, err)
	}

	s.cacheMu.Lock()
	s.cache = merged
	s.cacheMu.Unlock()

	s.idMu.Lock()
	if maxID+1 > s.nextID {
		s.nextID = maxID + 1
	}
	report.NextID = s.nextID
	s.idMu.Unlock()

	report.Loaded = len(merged)
	log.Printf("Reconcile %s: %d records loaded, %d file-only, %d healed", s.kind, report.Loaded, report.FromFileOnly, report.Healed)
	return report, nil
}

// Resync replays the cached state of one entity to one store. Used by the
// background queue to retry writes that failed or timed out. An id absent
// from the cache replays as a delete.
func (s *Store[E]) Resync(id int64, target Target) error {
	s.cacheMu.RLock()
	e, ok := s.cache[id]
	s.cacheMu.RUnlock()

	switch target {
	case TargetFile:
		if !ok {
			return s.file.Delete(id)
		}
		return s.file.Upsert(e)
	case TargetDatabase:
		if !ok {
			return s.db.Delete(id)
		}
		return s.db.Upsert(e)
	default:
		return fmt.Errorf("unknown resync target %q", target)
	}
}

func (s *Store[E]) bumpNextID(id int64) {
	s.idMu.Lock()
	if id >= s.nextID {
		s.nextID = id + 1
	}
	s.idMu.Unlock()
}

func (s *Store[E]) reportFailure(id int64, target Target, err error) {
	log.Printf("Persistence failure: %s %d on %s store: %v", s.kind, id, target, err)
	if s.onFail != nil {
		s.onFail(s.kind, id, target, err)
	}
}

// withTimeout runs fn, bounding it by the configured timeout. A write that
// outlives the bound keeps running in its goroutine but is reported as failed;
// that is safe because resync replays are idempotent upserts.
func (s *Store[E]) withTimeout(fn func() error) error {
	if s.timeout <= 0 {
		return fn()
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("store write timed out after %s", s.timeout)
	}
}
