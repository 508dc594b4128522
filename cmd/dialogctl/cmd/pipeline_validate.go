package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/cmd/dialogctl/internal/printer"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/pipeline"
)

// pipelineValidateCmd represents the pipeline validate command
var pipelineValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the routing table",
	Long: `Validate the routing table of the configured services.

Errors (the server refuses to start):
  missing_producer   an internal topic is consumed but never produced
  self_loop          a handler consumes a topic it produces
  cycle              handlers feed each other in a loop

Warnings:
  unconsumed_topic   an internal topic is produced but nobody consumes it
  uncatalogued_topic a topic is used without a catalogue entry

The command exits with a non-zero status when any error is found.`,
	Args: cobra.NoArgs,
	RunE: pipelineValidateHandler,
}

func pipelineValidateHandler(cmd *cobra.Command, args []string) error {
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
	return printReport(p, g.Validate())
}

func printReport(p *printer.Printer, report *pipeline.Report) error {
	for _, w := range report.Warnings() {
		p.Warning("%s\n", w)
	}
	errs := report.Errors()
	if len(errs) == 0 {
		p.Success("pipeline is consistent (%d warning(s))\n", len(report.Warnings()))
		return nil
	}

	explanation := ""
	for _, e := range errs {
		explanation += fmt.Sprintf("  %s\n", e)
	}
	return p.Error(fmt.Sprintf("Pipeline has %d error(s)", len(errs)), explanation, []string{
		"Add a producer or remove the consumer of every missing topic.",
		"Break every cycle by splitting a handler or renaming a topic.",
	})
}

func init() {
	pipelineCmd.AddCommand(pipelineValidateCmd)
}
