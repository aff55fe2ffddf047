package application

import (
	"sync"
	"time"
)

// loginThrottle tracks failed login attempts per username so repeated
// failures lock the account name out for a window. Entries are swept
// opportunistically on writes; the map is bounded to keep hostile input from
// growing it without limit.
type loginThrottle struct {
	mu          sync.Mutex
	now         func() time.Time
	window      time.Duration
	maxFailures int
	maxEntries  int
	entries     map[string]throttleEntry
}

type throttleEntry struct {
	failures  int
	expiresAt time.Time
}

func newLoginThrottle(maxFailures int, window time.Duration, now func() time.Time) *loginThrottle {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &loginThrottle{
		now:         now,
		window:      window,
		maxFailures: maxFailures,
		maxEntries:  4096,
		entries:     make(map[string]throttleEntry),
	}
}

// Locked reports whether the username has exhausted its attempts for the
// current window.
func (t *loginThrottle) Locked(username string) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[username]
	if !ok {
		return false
	}
	if t.now().After(entry.expiresAt) {
		delete(t.entries, username)
		return false
	}
	return entry.failures >= t.maxFailures
}

// RecordFailure counts one failed attempt, starting a fresh window when the
// previous one has expired.
func (t *loginThrottle) RecordFailure(username string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cleanupLocked()
	if len(t.entries) >= t.maxEntries {
		t.evictOneLocked()
	}

	now := t.now()
	entry, ok := t.entries[username]
	if !ok || now.After(entry.expiresAt) {
		t.entries[username] = throttleEntry{failures: 1, expiresAt: now.Add(t.window)}
		return
	}
	entry.failures++
	t.entries[username] = entry
}

// Reset clears the counter after a successful login.
func (t *loginThrottle) Reset(username string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	delete(t.entries, username)
	t.mu.Unlock()
}

func (t *loginThrottle) cleanupLocked() {
	now := t.now()
	for username, entry := range t.entries {
		if now.After(entry.expiresAt) {
			delete(t.entries, username)
		}
	}
}

func (t *loginThrottle) evictOneLocked() {
	for username := range t.entries {
		delete(t.entries, username)
		return
	}
}
