package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/cmd/dialogctl/internal/printer"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/dialog"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/simulation"
)

var (
	simulateFile    string
	simulateVerbose bool
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a scripted conversation",
	Long: `Replay a conversation from a YAML script against the configured pipeline.

A script names the user and lists the turns. A turn is either plain text,
published on the seed topic (user_utterance unless seed_topic is set), or a
mapping of topics to values:

  user_id: demo
  turns:
    - ""
    - hello
    - user_acts: [{intent: bye}]

The conversation stops at the first failed turn.`,
	Args: cobra.NoArgs,
	RunE: simulateHandler,
}

func simulateHandler(cmd *cobra.Command, args []string) error {
	p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())

	script, err := simulation.Load(afero.NewOsFs(), simulateFile)
	if err != nil {
		return p.Error("Cannot load the script", err.Error(), []string{"Pass a YAML script with --file."})
	}

	a, err := loadApp(p)
	if err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	system, err := a.System()
	if err != nil {
		return p.Error("Failed to start the dialog system", err.Error(), []string{
			"Run \"dialogctl pipeline validate\" to list pipeline errors.",
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	exchanges, runErr := simulation.Run(ctx, system, script)
	for _, ex := range exchanges {
		printExchange(p, script.SeedTopic, ex)
	}
	if runErr != nil {
		return p.Error("Conversation aborted", runErr.Error(), nil)
	}

	p.Success("%d turn(s) played for %s\n", len(exchanges), script.UserID)
	return nil
}

func printExchange(p *printer.Printer, seedTopic string, ex simulation.Exchange) {
	if seedTopic == "" {
		seedTopic = simulation.DefaultSeedTopic
	}
	if text, ok := ex.Seed[seedTopic].(string); ok && len(ex.Seed) == 1 {
		p.User("%s\n", text)
	} else {
		p.User("%v\n", map[string]any(ex.Seed))
	}

	res := ex.Result
	if res == nil {
		return
	}
	for _, msg := range utterances(res) {
		p.System("%s\n", msg)
	}
	for _, herr := range res.Errors {
		p.Warning("%s\n", herr)
	}
	if simulateVerbose {
		for _, e := range res.Emitted {
			p.Detail("hop %d  %-16s %s => %v\n", e.Hop, e.Producer, e.Topic, e.Value)
		}
		p.Detail("took %s\n", res.Duration)
	}
	if res.EndDialog {
		p.Info("dialog ended\n")
	}
}

// utterances extracts the system messages of a turn.
func utterances(res *dialog.TurnResult) []string {
	v, ok := res.Value("sys_utterance")
	if !ok {
		return nil
	}
	switch msgs := v.(type) {
	case []string:
		return msgs
	case string:
		return []string{msgs}
	case []any:
		out := make([]string, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, fmt.Sprint(m))
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

func init() {
	simulateCmd.Flags().StringVarP(&simulateFile, "file", "f", "", "YAML conversation script")
	simulateCmd.Flags().BoolVarP(&simulateVerbose, "verbose", "v", false, "print every emission")
	_ = simulateCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(simulateCmd)
}
