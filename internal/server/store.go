package server

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gpx_poster/internal/poster"
)

var ErrSessionNotFound = errors.New("session not found")

// lastUsed is read without mu so sweeping never waits on a render.
type entry struct {
	mu       sync.Mutex
	session  *poster.Session
	lastUsed atomic.Int64 // unix nanoseconds
}

func (e *entry) touch(t time.Time) { e.lastUsed.Store(t.UnixNano()) }

func (e *entry) idleSince(cutoff time.Time) bool {
	return e.lastUsed.Load() < cutoff.UnixNano()
}

// Store keeps editing sessions in memory. Each session is guarded by its
// own mutex so slow renders only block edits to the same session.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (st *Store) Create(s *poster.Session) string {
	id := uuid.NewString()
	e := &entry{session: s}
	e.touch(st.now())
	st.mu.Lock()
	st.entries[id] = e
	st.mu.Unlock()
	return id
}

func (st *Store) get(id string) (*entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	st.mu.RLock()
	e, ok := st.entries[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// View runs fn with exclusive access to the session.
func (st *Store) View(id string, fn func(*poster.Session) error) error {
	e, err := st.get(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch(st.now())
	return fn(e.session)
}

// Update applies fn to a copy of the session and keeps the copy only if
// fn succeeds.
func (st *Store) Update(id string, fn func(*poster.Session) error) error {
	e, err := st.get(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch(st.now())

	draft := e.session.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	e.session = draft
	return nil
}

func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.entries[id]; !ok {
		return false
	}
	delete(st.entries, id)
	return true
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed. A zero TTL keeps sessions forever.
func (st *Store) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.RLock()
	var idle []string
	for id, e := range st.entries {
		if e.idleSince(cutoff) {
			idle = append(idle, id)
		}
	}
	st.mu.RUnlock()
	if len(idle) == 0 {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for _, id := range idle {
		e, ok := st.entries[id]
		if !ok || !e.idleSince(cutoff) {
			continue
		}
		delete(st.entries, id)
		removed++
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				log.Printf("Expired %d idle sessions", n)
			}
		}
	}
}
