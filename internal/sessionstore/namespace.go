package sessionstore

import (
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// shardCount is the number of independently locked buckets per namespace.
const shardCount = 32

type entry struct {
	value   any
	touched time.Time
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]map[string]*entry // userID -> key -> entry
}

// Namespace is the state area owned by one service. Users are spread over
// shards by hash, so writes for the same user are serialized while different
// users usually proceed in parallel.
type Namespace struct {
	name   string
	store  *Store
	shards [shardCount]*shard
}

func newNamespace(name string, store *Store) *Namespace {
	ns := &Namespace{name: name, store: store}
	for i := range ns.shards {
		ns.shards[i] = &shard{sessions: make(map[string]map[string]*entry)}
	}
	return ns
}

// Name returns the namespace identifier.
func (n *Namespace) Name() string {
	return n.name
}

func (n *Namespace) shardFor(userID string) *shard {
	return n.shards[xxhash.Sum64String(userID)%shardCount]
}

// Set stores or overwrites a value and refreshes its timestamp.
func (n *Namespace) Set(userID, key string, value any) {
	sh := n.shardFor(userID)
	now := n.store.now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	entries, ok := sh.sessions[userID]
	if !ok {
		entries = make(map[string]*entry)
		sh.sessions[userID] = entries
	}
	entries[key] = &entry{value: value, touched: now}
}

// Get returns the stored value and true, or nil and false when absent.
// A successful read refreshes the entry's timestamp.
func (n *Namespace) Get(userID, key string) (any, bool) {
	sh := n.shardFor(userID)
	now := n.store.now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.sessions[userID][key]
	if !ok {
		return nil, false
	}
	e.touched = now
	return e.value, true
}

// Delete removes a single key for a user.
func (n *Namespace) Delete(userID, key string) {
	sh := n.shardFor(userID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	entries, ok := sh.sessions[userID]
	if !ok {
		return
	}
	delete(entries, key)
	if len(entries) == 0 {
		delete(sh.sessions, userID)
	}
}

// DeleteSession removes all entries of a user in this namespace.
func (n *Namespace) DeleteSession(userID string) {
	sh := n.shardFor(userID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.sessions, userID)
}

// Sessions returns the IDs of users that currently hold state, sorted.
func (n *Namespace) Sessions() []string {
	var result []string
	for _, sh := range n.shards {
		sh.mu.Lock()
		for userID := range sh.sessions {
			result = append(result, userID)
		}
		sh.mu.Unlock()
	}
	sort.Strings(result)
	return result
}

// Len returns the total number of entries across all users.
func (n *Namespace) Len() int {
	total := 0
	for _, sh := range n.shards {
		sh.mu.Lock()
		for _, entries := range sh.sessions {
			total += len(entries)
		}
		sh.mu.Unlock()
	}
	return total
}

// Reclaim evicts entries older than the store TTL, one shard lock at a time,
// and returns how many were removed.
func (n *Namespace) Reclaim() int {
	threshold := n.store.now().Add(-n.store.ttl)
	removed := 0
	var emptied []string

	for _, sh := range n.shards {
		sh.mu.Lock()
		for userID, entries := range sh.sessions {
			for key, e := range entries {
				if e.touched.Before(threshold) {
					delete(entries, key)
					removed++
				}
			}
			if len(entries) == 0 {
				delete(sh.sessions, userID)
				emptied = append(emptied, userID)
			}
		}
		sh.mu.Unlock()
	}

	if removed == 0 {
		return 0
	}

	n.store.logger.Info("Reclaimed expired session state",
		"namespace", n.name,
		"entries_removed", removed,
		"sessions_removed", len(emptied))

	if n.store.onReclaim != nil {
		n.store.onReclaim(n.name, removed)
	}
	return removed
}

// GetAs reads a value and asserts it to T. A present value of another type reports false.
func GetAs[T any](n *Namespace, userID, key string) (T, bool) {
	var zero T
	raw, ok := n.Get(userID, key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
