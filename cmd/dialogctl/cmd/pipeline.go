package cmd

import (
	"github.com/spf13/cobra"
)

// pipelineCmd represents the pipeline command
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Inspect the handler routing table",
	Long: `The pipeline command builds the configured services the same way the
server does and inspects the resulting routing table without running a turn.

Available subcommands:
  validate  Report missing producers, self loops, cycles and unused topics
  graph     Render the routing table

Examples:
  # Check the default pipeline
  dialogctl pipeline validate

  # Include scripted services
  dialogctl pipeline validate --scripts ./scripts

  # Draw the pipeline with Graphviz
  dialogctl pipeline graph | dot -Tsvg > pipeline.svg`,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
}
