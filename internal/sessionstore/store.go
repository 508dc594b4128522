package sessionstore

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long an entry may stay untouched before the reclaimer evicts it.
	DefaultTTL = 5 * time.Minute

	// DefaultReclaimInterval is how often each namespace runs a reclaim pass.
	DefaultReclaimInterval = 5 * time.Minute
)

// Option is a function that configures a Store.
type Option func(*Store)

// WithTTL sets the retention window for untouched entries.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithReclaimInterval sets how often the background reclaimer runs.
// Zero or negative disables the background goroutines; Reclaim can still be called manually.
func WithReclaimInterval(d time.Duration) Option {
	return func(s *Store) {
		s.interval = d
	}
}

// WithClock replaces the time source. Useful for testing expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithReclaimHook registers a callback invoked after every reclaim pass that removed entries.
func WithReclaimHook(hook func(namespace string, removed int)) Option {
	return func(s *Store) {
		s.onReclaim = hook
	}
}

// WithLogger sets the logger used by the store and its reclaimers.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store maps (namespace, user, key) to arbitrary values. Every namespace is
// isolated and guarded by its own locks, and owns a reclaimer goroutine that
// evicts entries untouched for longer than the TTL.
type Store struct {
	mu         sync.Mutex
	namespaces map[string]*Namespace

	ttl       time.Duration
	interval  time.Duration
	now       func() time.Time
	onReclaim func(namespace string, removed int)
	logger    *slog.Logger

	stop     chan struct{}
	wg       sync.WaitGroup
	closed   bool
	stopOnce sync.Once
}

// New creates an empty store. Reclaimers start lazily, one per namespace.
func New(opts ...Option) *Store {
	s := &Store{
		namespaces: make(map[string]*Namespace),
		ttl:        DefaultTTL,
		interval:   DefaultReclaimInterval,
		now:        Now,
		logger:     slog.Default().With("component", "sessionstore"),
		stop:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}

// TTL returns the configured retention window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Namespace returns the namespace with the given name, creating it and
// starting its reclaimer on first use.
func (s *Store) Namespace(name string) *Namespace {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ns, ok := s.namespaces[name]; ok {
		return ns
	}

	ns := newNamespace(name, s)
	s.namespaces[name] = ns

	if !s.closed && s.interval > 0 {
		s.wg.Add(1)
		go s.runReclaimer(ns)
	}

	s.logger.Debug("Namespace created", "namespace", name)
	return ns
}

// Namespaces returns the names of all namespaces, sorted.
func (s *Store) Namespaces() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.namespaces))
	for name := range s.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeleteSession removes every entry of userID from every namespace.
func (s *Store) DeleteSession(userID string) {
	for _, ns := range s.snapshot() {
		ns.DeleteSession(userID)
	}
}

// Reclaim runs one reclaim pass over all namespaces and returns the number of evicted entries.
func (s *Store) Reclaim() int {
	total := 0
	for _, ns := range s.snapshot() {
		total += ns.Reclaim()
	}
	return total
}

// Shutdown stops all reclaimers and waits for them to exit. Calling it again is a no-op.
// Stored values remain readable after shutdown.
func (s *Store) Shutdown() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.stop)
		s.mu.Unlock()

		s.wg.Wait()
		s.logger.Info("Session store stopped")
	})
}

func (s *Store) snapshot() []*Namespace {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*Namespace, 0, len(s.namespaces))
	for _, ns := range s.namespaces {
		result = append(result, ns)
	}
	return result
}

// runReclaimer periodically evicts expired entries of one namespace
func (s *Store) runReclaimer(ns *Namespace) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ns.Reclaim()
		case <-s.stop:
			return
		}
	}
}
