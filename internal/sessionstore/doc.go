// Package sessionstore keeps per-service, per-session state in memory and
// evicts it once a session has been idle for longer than the retention window.
//
// Every service gets its own Namespace. Reads refresh an entry's timestamp, so
// an active session never expires mid-conversation; a background reclaimer per
// namespace removes everything untouched for longer than the TTL.
//
//	store := sessionstore.New(sessionstore.WithTTL(5 * time.Minute))
//	defer store.Shutdown()
//
//	ns := store.Namespace("bst")
//	ns.Set("user42", "beliefstate", bs)
//	bs, ok := sessionstore.GetAs[BeliefState](ns, "user42", "beliefstate")
package sessionstore
