package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/cmd/dialogctl/internal/printer"
)

var graphFormat string

// pipelineGraphCmd represents the pipeline graph command
var pipelineGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Render the routing table",
	Long: `Render the routing table of the configured services.

Formats:
  dot    Graphviz digraph; topics and handlers are nodes (default)
  table  one row per topic with its publishers and subscribers
  json   the routes as a JSON array

Examples:
  dialogctl pipeline graph | dot -Tsvg > pipeline.svg
  dialogctl pipeline graph --format table`,
	Args: cobra.NoArgs,
	RunE: pipelineGraphHandler,
}

func pipelineGraphHandler(cmd *cobra.Command, args []string) error {
	p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())

	a, err := loadApp(p)
	if err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	g, err := a.Graph()
	if err != nil {
		return p.Error("Failed to build the pipeline", err.Error(), nil)
	}

	out := cmd.OutOrStdout()
	switch graphFormat {
	case "dot":
		return g.WriteDOT(out)
	case "table":
		return g.WriteTable(out)
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(g.Routes())
	default:
		return p.Error(fmt.Sprintf("Unknown format %q", graphFormat), "", []string{"Use --format dot, table or json."})
	}
}

func init() {
	pipelineGraphCmd.Flags().StringVarP(&graphFormat, "format", "f", "dot", "output format (dot, table, json)")
	pipelineCmd.AddCommand(pipelineGraphCmd)
}
