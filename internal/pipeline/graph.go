package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/topicmgr"
)

// ErrDuplicateService is returned when two services share a name.
var ErrDuplicateService = errors.New("duplicate service name")

// Graph is the routing table of a pipeline: which handlers consume and
// produce each topic. It is built once and read-only afterwards.
type Graph struct {
	handlers    []service.Handler
	subscribers map[string][]int
	publishers  map[string][]int
	topics      *topicmgr.Manager
}

// Route describes one topic of the graph.
type Route struct {
	Topic       string              `json:"topic"`
	Scope       topicmgr.TopicScope `json:"scope"`
	Catalogued  bool                `json:"catalogued"`
	Publishers  []string            `json:"publishers"`
	Subscribers []string            `json:"subscribers"`
}

// Build asks every service to register its handlers and indexes them.
// Handlers keep the order of services and, within a service, their
// registration order. A nil topic manager is treated as an empty catalogue.
func Build(services []service.Service, topics *topicmgr.Manager) (*Graph, error) {
	if topics == nil {
		topics = topicmgr.NewManager()
	}

	g := &Graph{
		subscribers: make(map[string][]int),
		publishers:  make(map[string][]int),
		topics:      topics,
	}

	seen := make(map[string]struct{}, len(services))
	for _, svc := range services {
		name := svc.Name()
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateService, name)
		}
		seen[name] = struct{}{}

		r := service.NewRegistrar(name)
		if err := svc.Register(r); err != nil {
			return nil, fmt.Errorf("failed to register handlers of service %s: %w", name, err)
		}
		for _, h := range r.Handlers() {
			g.add(h)
		}
	}

	return g, nil
}

func (g *Graph) add(h service.Handler) {
	idx := len(g.handlers)
	g.handlers = append(g.handlers, h)
	for _, t := range h.Consumes {
		g.subscribers[t] = append(g.subscribers[t], idx)
	}
	for _, t := range h.Produces {
		g.publishers[t] = append(g.publishers[t], idx)
	}
}

// Handlers returns all handlers in registration order.
func (g *Graph) Handlers() []service.Handler {
	return slices.Clone(g.handlers)
}

// Subscribers returns the handlers consuming topic, in registration order.
func (g *Graph) Subscribers(topic string) []service.Handler {
	return g.pick(g.subscribers[topic])
}

// Publishers returns the handlers producing topic, in registration order.
func (g *Graph) Publishers(topic string) []service.Handler {
	return g.pick(g.publishers[topic])
}

func (g *Graph) pick(indices []int) []service.Handler {
	out := make([]service.Handler, 0, len(indices))
	for _, i := range indices {
		out = append(out, g.handlers[i])
	}
	return out
}

// Topics returns every topic that some handler consumes or produces, sorted.
func (g *Graph) Topics() []string {
	set := make(map[string]struct{}, len(g.subscribers)+len(g.publishers))
	for t := range g.subscribers {
		set[t] = struct{}{}
	}
	for t := range g.publishers {
		set[t] = struct{}{}
	}
	topics := make([]string, 0, len(set))
	for t := range set {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Catalogue returns the topic manager the graph was built with.
func (g *Graph) Catalogue() *topicmgr.Manager {
	return g.topics
}

// Scope returns the catalogued scope of topic; unknown topics are internal.
func (g *Graph) Scope(topic string) topicmgr.TopicScope {
	scope, _ := g.topics.ScopeOf(topic)
	return scope
}

// Routes returns one entry per topic, sorted by topic name.
func (g *Graph) Routes() []Route {
	topics := g.Topics()
	routes := make([]Route, 0, len(topics))
	for _, t := range topics {
		scope, known := g.topics.ScopeOf(t)
		routes = append(routes, Route{
			Topic:       t,
			Scope:       scope,
			Catalogued:  known,
			Publishers:  names(g.Publishers(t)),
			Subscribers: names(g.Subscribers(t)),
		})
	}
	return routes
}

func names(handlers []service.Handler) []string {
	out := make([]string, 0, len(handlers))
	for _, h := range handlers {
		out = append(out, h.QualifiedName())
	}
	return out
}
