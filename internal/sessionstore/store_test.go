package sessionstore

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
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

func newTestStore(t *testing.T, clock *fakeClock, opts ...Option) *Store {
	t.Helper()
	base := []Option{
		WithClock(clock.Now),
		WithTTL(5 * time.Minute),
		WithReclaimInterval(0), // reclaim manually
	}
	store := New(append(base, opts...)...)
	t.Cleanup(store.Shutdown)
	return store
}

func TestNamespace_SetGet(t *testing.T) {
	store := newTestStore(t, newFakeClock())
	ns := store.Namespace("nlu")

	t.Run("absent key", func(t *testing.T) {
		v, ok := ns.Get("user1", "missing")
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		ns.Set("user1", "intent", "Greet")
		v, ok := ns.Get("user1", "intent")
		require.True(t, ok)
		assert.Equal(t, "Greet", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		ns.Set("user1", "intent", "Bye")
		v, _ := ns.Get("user1", "intent")
		assert.Equal(t, "Bye", v)
	})

	t.Run("typed access", func(t *testing.T) {
		ns.Set("user1", "turns", 3)
		n, ok := GetAs[int](ns, "user1", "turns")
		require.True(t, ok)
		assert.Equal(t, 3, n)

		_, ok = GetAs[string](ns, "user1", "turns")
		assert.False(t, ok, "wrong type should report absence")
	})
}

func TestNamespace_Isolation(t *testing.T) {
	store := newTestStore(t, newFakeClock())
	a := store.Namespace("serviceA")
	b := store.Namespace("serviceB")

	a.Set("user1", "k", "v")

	_, ok := a.Get("user2", "k")
	assert.False(t, ok, "other user must not see the value")

	_, ok = b.Get("user1", "k")
	assert.False(t, ok, "other namespace must not see the value")

	assert.Same(t, a, store.Namespace("serviceA"), "namespace handles are stable")
	assert.Equal(t, []string{"serviceA", "serviceB"}, store.Namespaces())
}

func TestNamespace_DeleteSession(t *testing.T) {
	store := newTestStore(t, newFakeClock())
	ns := store.Namespace("bst")

	ns.Set("user1", "a", 1)
	ns.Set("user1", "b", 2)
	ns.Set("user2", "a", 3)

	ns.DeleteSession("user1")

	_, ok := ns.Get("user1", "a")
	assert.False(t, ok)
	_, ok = ns.Get("user1", "b")
	assert.False(t, ok)
	v, ok := ns.Get("user2", "a")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, []string{"user2"}, ns.Sessions())

	ns.Delete("user2", "a")
	assert.Equal(t, 0, ns.Len())
	assert.Empty(t, ns.Sessions())
}

func TestStore_DeleteSessionAcrossNamespaces(t *testing.T) {
	store := newTestStore(t, newFakeClock())
	a := store.Namespace("a")
	b := store.Namespace("b")
	a.Set("user1", "k", 1)
	b.Set("user1", "k", 2)
	b.Set("user2", "k", 3)

	store.DeleteSession("user1")

	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestNamespace_Expiry(t *testing.T) {
	clock := newFakeClock()
	var reclaimed []string
	store := newTestStore(t, clock, WithReclaimHook(func(namespace string, removed int) {
		reclaimed = append(reclaimed, fmt.Sprintf("%s:%d", namespace, removed))
	}))
	ns := store.Namespace("policy")

	ns.Set("idle", "k", "old")
	ns.Set("active", "k", "fresh")

	clock.Advance(4 * time.Minute)
	// Reading refreshes the timestamp.
	_, ok := ns.Get("active", "k")
	require.True(t, ok)

	clock.Advance(2 * time.Minute)
	removed := store.Reclaim()

	assert.Equal(t, 1, removed)
	_, ok = ns.Get("idle", "k")
	assert.False(t, ok, "untouched entry should expire")
	v, ok := ns.Get("active", "k")
	assert.True(t, ok, "entry read within the TTL should survive")
	assert.Equal(t, "fresh", v)
	assert.Equal(t, []string{"policy:1"}, reclaimed)
	assert.Equal(t, []string{"active"}, ns.Sessions())
}

func TestStore_BackgroundReclaimer(t *testing.T) {
	clock := newFakeClock()
	store := New(
		WithClock(clock.Now),
		WithTTL(time.Minute),
		WithReclaimInterval(10*time.Millisecond),
	)
	defer store.Shutdown()

	ns := store.Namespace("nlg")
	ns.Set("user1", "k", "v")
	clock.Advance(2 * time.Minute)

	require.Eventually(t, func() bool {
		return ns.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestStore_ShutdownIdempotent(t *testing.T) {
	store := New(WithReclaimInterval(time.Millisecond))
	ns := store.Namespace("a")
	ns.Set("user1", "k", "v")

	store.Shutdown()
	assert.NotPanics(t, store.Shutdown)

	v, ok := ns.Get("user1", "k")
	assert.True(t, ok, "values stay readable after shutdown")
	assert.Equal(t, "v", v)

	// Namespaces created after shutdown do not start reclaimers.
	late := store.Namespace("late")
	late.Set("user1", "k", "v")
	assert.Equal(t, 1, late.Len())
}

func TestNamespace_ConcurrentAccess(t *testing.T) {
	store := newTestStore(t, newFakeClock())
	ns := store.Namespace("concurrent")

	const users = 20
	const ops = 100

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			userID := fmt.Sprintf("user%d", u)
			for i := 0; i < ops; i++ {
				ns.Set(userID, "counter", i)
				ns.Get(userID, "counter")
			}
		}(u)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			store.Reclaim()
		}
	}()
	wg.Wait()

	assert.Len(t, ns.Sessions(), users)
	for u := 0; u < users; u++ {
		v, ok := GetAs[int](ns, fmt.Sprintf("user%d", u), "counter")
		require.True(t, ok)
		assert.Equal(t, ops-1, v)
	}
}
