// Package approval tracks escalated commands awaiting a human decision.
// Each pending approval is consumed at most once and only within its TTL.
package approval

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/xdg/sshgate/internal/clog"
)

// Defaults for NewStore.
const (
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 1000
)

var (
	// ErrUnknownApproval is returned when no pending approval has the given id.
	ErrUnknownApproval = errors.New("unknown or expired approval_id")
	// ErrApprovalExpired is returned when the approval existed but outlived
	// its TTL. It wraps ErrUnknownApproval so callers cannot tell the two
	// apart by message.
	ErrApprovalExpired = fmt.Errorf("%w", ErrUnknownApproval)
)

// Pending is an escalated command awaiting a decision. It is never mutated
// after creation.
type Pending struct {
	ID        string
	SessionID string
	Profile   string
	Command   string
	Prefix    string
	CreatedAt time.Time

	seq uint64 // creation order, for eviction
}

// Store holds pending approvals with thread-safe operations.
type Store struct {
	mu       sync.Mutex
	pending  map[string]*Pending
	ttl      time.Duration
	capacity int
	now      func() time.Time
	entropy  io.Reader
	seq      uint64
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long a pending approval may be resolved.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCapacity bounds the number of pending approvals. When full, Create
// evicts the oldest record.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		pending:  make(map[string]*Pending),
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
		entropy:  rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the resolution window of pending approvals.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create records a new pending approval and returns it.
func (s *Store) Create(session, profile, command, prefix string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// A zero timestamp keeps creation time and ordering out of the id; the
	// remaining 80 bits are random.
	id, err := ulid.New(0, s.entropy)
	if err != nil {
		return nil, fmt.Errorf("generate approval id: %w", err)
	}

	if len(s.pending) >= s.capacity {
		s.evictOldestLocked()
	}

	p := &Pending{
		ID:        id.String(),
		SessionID: session,
		Profile:   profile,
		Command:   command,
		Prefix:    prefix,
		CreatedAt: now,
		seq:       s.seq,
	}
	s.seq++
	s.pending[p.ID] = p
	return p, nil
}

// Resolve consumes the pending approval with the given id. The record is
// removed whether or not it has expired, so it is returned at most once.
func (s *Store) Resolve(id string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[id]
	if !ok {
		return nil, ErrUnknownApproval
	}
	delete(s.pending, id)

	if s.expired(p, s.now()) {
		return nil, ErrApprovalExpired
	}
	return p, nil
}

// Len returns the number of pending approvals, including expired ones not
// yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Sweep removes every expired approval and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, p := range s.pending {
		if s.expired(p, now) {
			delete(s.pending, id)
			removed++
		}
	}
	return removed
}

func (s *Store) expired(p *Pending, now time.Time) bool {
	return now.Sub(p.CreatedAt) > s.ttl
}

// evictOldestLocked removes the earliest created pending approval.
func (s *Store) evictOldestLocked() {
	var oldest *Pending
	for _, p := range s.pending {
		if oldest == nil || p.seq < oldest.seq {
			oldest = p
		}
	}
	if oldest == nil {
		return
	}
	delete(s.pending, oldest.ID)
	clog.Warn("approval: capacity %d reached, evicted %s (profile=%s)", s.capacity, oldest.ID, oldest.Profile)
}
