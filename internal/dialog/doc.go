// Package dialog drives conversations through a pipeline of services.
//
// A System is built once from a list of services. Construction hands every
// service its own namespace of the session store, collects the handlers the
// services register, and refuses to start when the routing table has
// error-level inconsistencies.
//
// Each turn starts from a Seed. Seed pairs are queued in topic order; every
// dequeued message becomes the latest value of its topic and triggers the
// subscribers whose consumed topics all have a value in this turn. Their
// outputs are queued in turn, until nothing is pending. A chain longer than
// the hop budget or a turn past its deadline is aborted; handler failures are
// collected and the remaining handlers keep running.
//
//	sys, err := dialog.New(services,
//		dialog.WithTopics(catalogue),
//		dialog.WithFallback("sys_utterance", []string{"Sorry, something went wrong."}),
//	)
//	if err != nil {
//		return err
//	}
//	defer sys.Shutdown(context.Background())
//
//	res, err := sys.Turn(ctx, "42", dialog.Seed{"user_utterance": "hello"})
//
// Turns of the same user are serialized; different users run in parallel on
// the callers' goroutines.
package dialog
