package policy

import (
	"errors"
	"slices"
	"sync"
)

// ErrEmptyPrefix is returned when Trust is called with an empty prefix.
var ErrEmptyPrefix = errors.New("prefix cannot be empty")

// SessionAllowlist tracks prefixes trusted per session by allow_prefix
// decisions. Entries never expire; a session is removed only by Clear.
// All methods are thread-safe.
type SessionAllowlist struct {
	mu       sync.RWMutex
	sessions map[string]map[string]struct{} // session -> prefix set
}

// NewSessionAllowlist creates an empty SessionAllowlist.
func NewSessionAllowlist() *SessionAllowlist {
	return &SessionAllowlist{
		sessions: make(map[string]map[string]struct{}),
	}
}

// Trust adds prefix to the session's set, creating the session if needed.
// Adding a prefix twice is a no-op.
func (s *SessionAllowlist) Trust(session, prefix string) error {
	if prefix == "" {
		return ErrEmptyPrefix
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions[session] == nil {
		s.sessions[session] = make(map[string]struct{})
	}
	s.sessions[session][prefix] = struct{}{}
	return nil
}

// IsTrusted reports whether any prefix trusted in session token-matches
// command, returning the matching prefix.
func (s *SessionAllowlist) IsTrusted(session, command string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for prefix := range s.sessions[session] {
		if MatchPrefix(prefix, command) {
			return prefix, true
		}
	}
	return "", false
}

// Clear removes the session entirely. Clearing an unknown session is a no-op.
func (s *SessionAllowlist) Clear(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
}

// Prefixes returns a sorted snapshot of the session's trusted prefixes.
func (s *SessionAllowlist) Prefixes(session string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.sessions[session]))
	for prefix := range s.sessions[session] {
		out = append(out, prefix)
	}
	slices.Sort(out)
	return out
}

// Size returns the number of tracked sessions and total number of prefixes
// across all sessions for memory monitoring.
func (s *SessionAllowlist) Size() (sessions int, prefixes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions = len(s.sessions)
	for _, set := range s.sessions {
		prefixes += len(set)
	}
	return sessions, prefixes
}
