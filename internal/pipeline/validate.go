package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/topicmgr"
)

// Kind classifies a pipeline inconsistency.
type Kind string

const (
	KindMissingProducer Kind = "missing_producer"
	KindSelfLoop        Kind = "self_loop"
	KindCycle           Kind = "cycle"
	KindUnconsumed      Kind = "unconsumed_topic"
	KindUncatalogued    Kind = "uncatalogued_topic"
)

// Severity tells whether an inconsistency blocks start-up.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Inconsistency is a single validation finding.
type Inconsistency struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Topic    string   `json:"topic,omitempty"`
	Handlers []string `json:"handlers,omitempty"`
	Message  string   `json:"message"`
}

func (i Inconsistency) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Kind, i.Message)
}

// Report collects the findings of Validate.
type Report struct {
	Inconsistencies []Inconsistency `json:"inconsistencies"`
}

// OK reports whether the pipeline has no error-level findings.
func (r *Report) OK() bool {
	return len(r.Errors()) == 0
}

// Errors returns the error-level findings.
func (r *Report) Errors() []Inconsistency {
	return r.filter(SeverityError)
}

// Warnings returns the warning-level findings.
func (r *Report) Warnings() []Inconsistency {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(sev Severity) []Inconsistency {
	var out []Inconsistency
	for _, inc := range r.Inconsistencies {
		if inc.Severity == sev {
			out = append(out, inc)
		}
	}
	return out
}

// Print writes a human-readable diagnostic, one finding per line.
func (r *Report) Print(w io.Writer) error {
	if len(r.Inconsistencies) == 0 {
		_, err := fmt.Fprintln(w, "pipeline is consistent")
		return err
	}
	for _, inc := range r.Inconsistencies {
		if _, err := fmt.Fprintln(w, inc.String()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) add(kind Kind, sev Severity, topic string, handlers []string, format string, args ...any) {
	r.Inconsistencies = append(r.Inconsistencies, Inconsistency{
		Kind:     kind,
		Severity: sev,
		Topic:    topic,
		Handlers: handlers,
		Message:  fmt.Sprintf(format, args...),
	})
}

// ValidationError wraps a report that contains error-level findings.
type ValidationError struct {
	Report *Report
}

func (e *ValidationError) Error() string {
	errs := e.Report.Errors()
	msgs := make([]string, 0, len(errs))
	for _, inc := range errs {
		msgs = append(msgs, inc.Message)
	}
	return fmt.Sprintf("messaging pipeline has %d error(s): %s", len(errs), strings.Join(msgs, "; "))
}

// Validate lints the routing table. Consumed topics need a producer unless
// they are seeds, a handler may not be the sole producer of its own input,
// handlers may not form cycles through internal topics, and produced topics
// should have a consumer unless they are terminal.
func (g *Graph) Validate() *Report {
	report := &Report{}

	for _, t := range g.Topics() {
		scope := g.Scope(t)
		if len(g.subscribers[t]) > 0 && len(g.publishers[t]) == 0 && scope != topicmgr.ScopeSeed {
			report.add(KindMissingProducer, SeverityError, t, names(g.Subscribers(t)),
				"topic %q is consumed by %s but no handler produces it and it is not a seed",
				t, strings.Join(names(g.Subscribers(t)), ", "))
		}
	}

	selfLoops := make(map[int]bool)
	for i, h := range g.handlers {
		for _, t := range h.Consumes {
			if !g.internal(t) {
				continue
			}
			pubs := g.publishers[t]
			if len(pubs) == 1 && pubs[0] == i {
				selfLoops[i] = true
				report.add(KindSelfLoop, SeverityError, t, []string{h.QualifiedName()},
					"handler %s consumes topic %q that only it produces", h.QualifiedName(), t)
			}
		}
	}

	for _, cycle := range g.cycles() {
		if len(cycle) == 1 && selfLoops[cycle[0]] {
			continue
		}
		members := make([]string, 0, len(cycle))
		for _, i := range cycle {
			members = append(members, g.handlers[i].QualifiedName())
		}
		report.add(KindCycle, SeverityError, "", members,
			"handlers form a cycle: %s", strings.Join(append(members, members[0]), " -> "))
	}

	for _, t := range g.Topics() {
		if len(g.publishers[t]) > 0 && len(g.subscribers[t]) == 0 && g.Scope(t) != topicmgr.ScopeTerminal {
			report.add(KindUnconsumed, SeverityWarning, t, names(g.Publishers(t)),
				"topic %q is produced but never consumed and is not terminal", t)
		}
	}

	for _, t := range g.Topics() {
		if _, known := g.topics.Get(t); !known {
			report.add(KindUncatalogued, SeverityWarning, t, nil,
				"topic %q is not catalogued", t)
		}
	}

	return report
}

func (g *Graph) internal(topic string) bool {
	scope := g.Scope(topic)
	return scope != topicmgr.ScopeSeed && scope != topicmgr.ScopeTerminal
}

// edges returns the handlers fed by handler i through internal topics, ascending.
func (g *Graph) edges(i int) []int {
	var out []int
	for _, t := range g.handlers[i].Produces {
		if !g.internal(t) {
			continue
		}
		for _, j := range g.subscribers[t] {
			if !slices.Contains(out, j) {
				out = append(out, j)
			}
		}
	}
	slices.Sort(out)
	return out
}

// cycles finds cycles with a depth-first search that keeps the current path.
// Every back edge yields one cycle, listed from the re-entered handler.
func (g *Graph) cycles() [][]int {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, len(g.handlers))
	var path []int
	var found [][]int

	var visit func(i int)
	visit = func(i int) {
		state[i] = onStack
		path = append(path, i)

		for _, j := range g.edges(i) {
			switch state[j] {
			case unvisited:
				visit(j)
			case onStack:
				start := slices.Index(path, j)
				found = append(found, slices.Clone(path[start:]))
			}
		}

		path = path[:len(path)-1]
		state[i] = done
	}

	for i := range g.handlers {
		if state[i] == unvisited {
			visit(i)
		}
	}
	return found
}
