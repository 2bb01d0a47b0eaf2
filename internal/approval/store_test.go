package approval

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStore_CreateAndResolve(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(WithClock(clock.Now))

	p, err := s.Create("s1", "prod", "rm -rf /tmp/x", "rm")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(p.ID) != 26 {
		t.Errorf("ID = %q, want 26-character ULID", p.ID)
	}
	if !p.CreatedAt.Equal(clock.Now()) {
		t.Errorf("CreatedAt = %v, want %v", p.CreatedAt, clock.Now())
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	got, err := s.Resolve(p.ID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if *got != *p {
		t.Errorf("Resolve() = %+v, want %+v", got, p)
	}

	_, err = s.Resolve(p.ID)
	if !errors.Is(err, ErrUnknownApproval) {
		t.Errorf("second Resolve() error = %v, want ErrUnknownApproval", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestStore_UniqueIDs(t *testing.T) {
	s := NewStore()
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		p, err := s.Create("s", "p", "ls", "ls")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[p.ID] {
			t.Fatalf("duplicate id %s", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestStore_ResolveUnknown(t *testing.T) {
	s := NewStore()
	_, err := s.Resolve("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	if !errors.Is(err, ErrUnknownApproval) {
		t.Errorf("Resolve() error = %v, want ErrUnknownApproval", err)
	}
	if errors.Is(err, ErrApprovalExpired) {
		t.Error("unknown id reported as expired")
	}
}

func TestStore_Expiry(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(WithClock(clock.Now), WithTTL(time.Minute))

	atLimit, _ := s.Create("s", "p", "ls", "ls")
	past, _ := s.Create("s", "p", "ls", "ls")

	clock.Advance(time.Minute)
	if _, err := s.Resolve(atLimit.ID); err != nil {
		t.Errorf("Resolve() at exactly TTL error = %v, want nil", err)
	}

	clock.Advance(time.Nanosecond)
	_, err := s.Resolve(past.ID)
	if !errors.Is(err, ErrApprovalExpired) {
		t.Fatalf("Resolve() after TTL error = %v, want ErrApprovalExpired", err)
	}
	if !errors.Is(err, ErrUnknownApproval) {
		t.Error("ErrApprovalExpired should wrap ErrUnknownApproval")
	}
	if err.Error() != ErrUnknownApproval.Error() {
		t.Errorf("expired message %q differs from unknown message %q", err, ErrUnknownApproval)
	}

	if _, err := s.Resolve(past.ID); errors.Is(err, ErrApprovalExpired) || !errors.Is(err, ErrUnknownApproval) {
		t.Errorf("Resolve() after expiry detection error = %v, want plain ErrUnknownApproval", err)
	}
}

func TestStore_Sweep(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(WithClock(clock.Now), WithTTL(time.Minute))

	_, _ = s.Create("s", "p", "old", "old")
	clock.Advance(45 * time.Second)
	fresh, _ := s.Create("s", "p", "new", "new")
	clock.Advance(30 * time.Second)

	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	if _, err := s.Resolve(fresh.ID); err != nil {
		t.Errorf("Resolve(fresh) error = %v", err)
	}
}

func TestStore_CapacityEvictsOldest(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(WithClock(clock.Now), WithCapacity(2))

	first, _ := s.Create("s", "p", "one", "one")
	clock.Advance(time.Second)
	second, _ := s.Create("s", "p", "two", "two")
	clock.Advance(time.Second)
	third, _ := s.Create("s", "p", "three", "three")

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if _, err := s.Resolve(first.ID); !errors.Is(err, ErrUnknownApproval) {
		t.Errorf("oldest approval still present: err = %v", err)
	}
	for _, p := range []*Pending{second, third} {
		if _, err := s.Resolve(p.ID); err != nil {
			t.Errorf("Resolve(%s) error = %v", p.Command, err)
		}
	}
}

func TestStore_CapacityEvictsInCreationOrder(t *testing.T) {
	// All three share one clock reading, so only creation order can pick.
	s := NewStore(WithClock(newFakeClock().Now), WithCapacity(2))

	first, _ := s.Create("s", "p", "one", "one")
	second, _ := s.Create("s", "p", "two", "two")
	third, _ := s.Create("s", "p", "three", "three")

	if _, err := s.Resolve(first.ID); !errors.Is(err, ErrUnknownApproval) {
		t.Errorf("first approval still present: err = %v", err)
	}
	for _, p := range []*Pending{second, third} {
		if _, err := s.Resolve(p.ID); err != nil {
			t.Errorf("Resolve(%s) error = %v", p.Command, err)
		}
	}
}

func TestStore_IDsCarryNoTimestamp(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(WithClock(clock.Now))

	var ids []string
	for i := 0; i < 3; i++ {
		p, err := s.Create("s", "p", "cmd", "cmd")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, p.ID)
		clock.Advance(time.Hour)
	}

	for _, id := range ids {
		parsed, err := ulid.ParseStrict(id)
		if err != nil {
			t.Fatalf("ParseStrict(%q) error = %v", id, err)
		}
		if parsed.Time() != 0 {
			t.Errorf("id %s embeds timestamp %d, want 0", id, parsed.Time())
		}
	}
}

func TestStore_ConcurrentResolveExactlyOnce(t *testing.T) {
	s := NewStore()
	p, err := s.Create("s", "p", "git push", "git push")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var successes, failures atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := s.Resolve(p.ID); err == nil {
				successes.Add(1)
			} else if errors.Is(err, ErrUnknownApproval) {
				failures.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("successes = %d, want 1", successes.Load())
	}
	if failures.Load() != 31 {
		t.Errorf("failures = %d, want 31", failures.Load())
	}
}

func TestStore_Defaults(t *testing.T) {
	s := NewStore(WithTTL(0), WithCapacity(-1))
	if s.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", s.TTL(), DefaultTTL)
	}
	if s.capacity != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", s.capacity, DefaultCapacity)
	}
}
