package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/topicmgr"
)

var topicShapes = map[topicmgr.TopicScope]string{
	topicmgr.ScopeSeed:     "invhouse",
	topicmgr.ScopeInternal: "ellipse",
	topicmgr.ScopeTerminal: "house",
}

// WriteDOT renders the graph in Graphviz DOT format. Topics are ellipses
// (seeds and terminals get arrow shapes), handlers are boxes.
func (g *Graph) WriteDOT(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "digraph pipeline {")
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintln(bw, "  node [fontname=\"Helvetica\"];")

	for _, t := range g.Topics() {
		fmt.Fprintf(bw, "  %s [label=%q, shape=%s];\n", topicNode(t), t, topicShapes[g.Scope(t)])
	}
	for _, h := range g.handlers {
		fmt.Fprintf(bw, "  %s [label=%q, shape=box, style=rounded];\n", handlerNode(h.QualifiedName()), h.QualifiedName())
	}
	for _, h := range g.handlers {
		name := h.QualifiedName()
		for _, t := range h.Consumes {
			fmt.Fprintf(bw, "  %s -> %s;\n", topicNode(t), handlerNode(name))
		}
		for _, t := range h.Produces {
			fmt.Fprintf(bw, "  %s -> %s;\n", handlerNode(name), topicNode(t))
		}
	}
	fmt.Fprintln(bw, "}")

	return bw.Flush()
}

// WriteTable renders the routing table as aligned text columns.
func (g *Graph) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TOPIC\tSCOPE\tPUBLISHERS\tSUBSCRIBERS")
	fmt.Fprintln(tw, "-----\t-----\t----------\t-----------")
	for _, r := range g.Routes() {
		scope := string(r.Scope)
		if !r.Catalogued {
			scope += "?"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Topic, scope, list(r.Publishers), list(r.Subscribers))
	}
	return tw.Flush()
}

func list(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func topicNode(topic string) string {
	return fmt.Sprintf("%q", "t:"+topic)
}

func handlerNode(name string) string {
	return fmt.Sprintf("%q", "h:"+name)
}
