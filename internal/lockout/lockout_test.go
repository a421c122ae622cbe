package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemory(p Policy) (*Memory, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory(p)
	m.now = clock.now
	return m, clock
}

func TestMemory_LocksAfterMaxFailures(t *testing.T) {
	m, clock := newTestMemory(DefaultPolicy())
	ctx := context.Background()

	for i := 1; i < DefaultMaxFailures; i++ {
		locked, err := m.Fail(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if locked {
			t.Fatalf("locked after %d failures", i)
		}
	}
	locked, _ := m.Fail(ctx, "alice")
	if !locked {
		t.Fatal("expected lock on the tenth failure")
	}

	isLocked, remaining, _ := m.Locked(ctx, "Alice ")
	if !isLocked {
		t.Fatal("expected key to be locked regardless of case and spaces")
	}
	if remaining != DefaultDuration {
		t.Errorf("expected %v remaining, got %v", DefaultDuration, remaining)
	}

	clock.advance(DefaultDuration)
	if isLocked, _, _ := m.Locked(ctx, "alice"); isLocked {
		t.Error("expected lock to expire")
	}
}

func TestMemory_ResetClearsFailures(t *testing.T) {
	m, _ := newTestMemory(Policy{MaxFailures: 2, Duration: time.Minute})
	ctx := context.Background()

	m.Fail(ctx, "bob")
	if err := m.Reset(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	if locked, _ := m.Fail(ctx, "bob"); locked {
		t.Error("expected counter to restart after reset")
	}
}

func TestMemory_FailureWindowLapses(t *testing.T) {
	m, clock := newTestMemory(Policy{MaxFailures: 2, Duration: time.Minute})
	ctx := context.Background()

	m.Fail(ctx, "carol")
	clock.advance(2 * time.Minute)
	if locked, _ := m.Fail(ctx, "carol"); locked {
		t.Error("expected stale failure to be forgotten")
	}
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	m, _ := newTestMemory(Policy{MaxFailures: 1, Duration: time.Minute})
	ctx := context.Background()

	m.Fail(ctx, "dave")
	if locked, _, _ := m.Locked(ctx, "erin"); locked {
		t.Error("lock leaked to another key")
	}
}

func TestPolicy_Normalized(t *testing.T) {
	p := Policy{}.normalized()
	if p != DefaultPolicy() {
		t.Errorf("expected defaults, got %+v", p)
	}
}

func newTestRedis(t *testing.T, p Policy) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), p)
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestRedis_LocksAfterMaxFailures(t *testing.T) {
	r, mr := newTestRedis(t, Policy{MaxFailures: 2, Duration: time.Minute})
	ctx := context.Background()
	if err := r.Ping(ctx); err != nil {
		t.Fatal(err)
	}

	if locked, err := r.Fail(ctx, "alice"); err != nil || locked {
		t.Fatalf("first failure: locked=%v err=%v", locked, err)
	}
	if locked, err := r.Fail(ctx, "Alice "); err != nil || !locked {
		t.Fatalf("second failure: locked=%v err=%v", locked, err)
	}
	locked, remaining, err := r.Locked(ctx, "alice")
	if err != nil || !locked {
		t.Fatalf("Locked() = %v, %v, %v", locked, remaining, err)
	}
	if remaining <= 0 || remaining > time.Minute {
		t.Errorf("remaining = %v", remaining)
	}
	if mr.Exists(failKey("alice")) {
		t.Error("failure counter kept after locking")
	}

	mr.FastForward(time.Minute)
	if locked, _, _ := r.Locked(ctx, "alice"); locked {
		t.Error("expected lock to expire")
	}
}

func TestRedis_ResetClearsFailures(t *testing.T) {
	r, mr := newTestRedis(t, Policy{MaxFailures: 2, Duration: time.Minute})
	ctx := context.Background()

	r.Fail(ctx, "bob")
	if err := r.Reset(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists(failKey("bob")) {
		t.Error("counter survived reset")
	}
	if locked, _ := r.Fail(ctx, "bob"); locked {
		t.Error("expected counter to restart after reset")
	}

	r.Fail(ctx, "bob")
	if err := r.Reset(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	if locked, _, _ := r.Locked(ctx, "bob"); locked {
		t.Error("expected reset to unlock")
	}
}

func TestRedis_FailureWindowLapses(t *testing.T) {
	r, mr := newTestRedis(t, Policy{MaxFailures: 2, Duration: time.Minute})
	ctx := context.Background()

	r.Fail(ctx, "carol")
	mr.FastForward(2 * time.Minute)
	if locked, _ := r.Fail(ctx, "carol"); locked {
		t.Error("expected stale failure to be forgotten")
	}
}

func TestRedis_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	r := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), DefaultPolicy())
	defer r.Close()
	mr.Close()

	if _, _, err := r.Locked(context.Background(), "dave"); err == nil {
		t.Error("expected error when redis is gone")
	}
	if _, err := r.Fail(context.Background(), "dave"); err == nil {
		t.Error("expected Fail to report the outage")
	}
}

func TestNewRedis_BadURL(t *testing.T) {
	if _, err := NewRedis("not a url", DefaultPolicy()); err == nil {
		t.Error("expected error for bad url")
	}
}
