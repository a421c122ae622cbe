// Package lockout limits repeated failed logins per account name. The remote
// identity API locks accounts too; this front end refuses early so locked
// users do not keep hammering it.
package lockout

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Default policy: ten failures lock the account name for ten minutes.
const (
	DefaultMaxFailures = 10
	DefaultDuration    = 10 * time.Minute
)

// Policy configures when a key is locked and for how long.
type Policy struct {
	MaxFailures int
	Duration    time.Duration
}

// DefaultPolicy returns the default lockout policy.
func DefaultPolicy() Policy {
	return Policy{MaxFailures: DefaultMaxFailures, Duration: DefaultDuration}
}

func (p Policy) normalized() Policy {
	if p.MaxFailures <= 0 {
		p.MaxFailures = DefaultMaxFailures
	}
	if p.Duration <= 0 {
		p.Duration = DefaultDuration
	}
	return p
}

// Limiter tracks failed attempts per key.
type Limiter interface {
	// Locked reports whether key is locked and for how much longer.
	Locked(ctx context.Context, key string) (bool, time.Duration, error)
	// Fail records a failed attempt and reports whether key is now locked.
	Fail(ctx context.Context, key string) (bool, error)
	// Reset forgets all failures for key.
	Reset(ctx context.Context, key string) error
}

// Key normalizes an account name so "Alice" and " alice" share a counter.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type entry struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

// Memory is an in-process Limiter. Counters are lost on restart.
type Memory struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewMemory creates an in-process limiter.
func NewMemory(p Policy) *Memory {
	return &Memory{
		policy:  p.normalized(),
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Locked implements Limiter.
func (m *Memory) Locked(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.current(Key(key))
	if e == nil {
		return false, 0, nil
	}
	if remaining := e.lockedUntil.Sub(m.now()); remaining > 0 {
		return true, remaining, nil
	}
	return false, 0, nil
}

// Fail implements Limiter.
func (m *Memory) Fail(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := Key(key)
	now := m.now()
	e := m.current(k)
	if e == nil {
		e = &entry{}
		m.entries[k] = e
	}
	if now.Before(e.lockedUntil) {
		return true, nil
	}

	e.failures++
	e.lastFailure = now
	if e.failures >= m.policy.MaxFailures {
		e.failures = 0
		e.lockedUntil = now.Add(m.policy.Duration)
		return true, nil
	}
	return false, nil
}

// Reset implements Limiter.
func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, Key(key))
	return nil
}

// current returns the live entry for k, dropping it once both the lock and
// the failure window have lapsed. Caller holds m.mu.
func (m *Memory) current(k string) *entry {
	e, ok := m.entries[k]
	if !ok {
		return nil
	}
	now := m.now()
	if !now.Before(e.lockedUntil) && now.Sub(e.lastFailure) >= m.policy.Duration {
		delete(m.entries, k)
		return nil
	}
	return e
}
