package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/topics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/topicmgr"
)

var (
	topicsScope  string
	topicsFormat string
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore the topic catalogue",
}

// topicDisplay represents a topic for display purposes
type topicDisplay struct {
	Name        string         `json:"name"`
	Scope       string         `json:"scope"`
	Owner       string         `json:"owner"`
	Description string         `json:"description"`
	Example     string         `json:"example"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued topics",
	Long: `List the topics of the dialog pipeline catalogue.

Examples:
  # List all topics
  dialogctl topics list

  # Seed topics only, as JSON
  dialogctl topics list --scope=seed --format=json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := topics.NewManager()
		if err != nil {
			return err
		}

		list := manager.List()
		if topicsScope != "" {
			scope := topicmgr.TopicScope(topicsScope)
			if !scope.Valid() {
				return fmt.Errorf("unknown scope %q (use seed, internal or terminal)", topicsScope)
			}
			list = manager.ListByScope(scope)
		}

		out := cmd.OutOrStdout()
		if topicsFormat == "json" {
			displays := make([]topicDisplay, 0, len(list))
			for _, t := range list {
				displays = append(displays, topicDisplay{
					Name:        t.Name(),
					Scope:       string(t.Scope()),
					Owner:       t.Owner(),
					Description: t.Description(),
					Example:     t.Example(),
					Metadata:    t.Metadata(),
				})
			}
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(displays)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSCOPE\tOWNER\tDESCRIPTION")
		fmt.Fprintln(w, "----\t-----\t-----\t-----------")
		for _, t := range list {
			owner := t.Owner()
			if owner == "" {
				owner = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name(), t.Scope(), owner, t.Description())
		}
		return w.Flush()
	},
}

func init() {
	topicsListCmd.Flags().StringVar(&topicsScope, "scope", "", "filter by scope (seed, internal, terminal)")
	topicsListCmd.Flags().StringVar(&topicsFormat, "format", "table", "output format (table, json)")
	topicsCmd.AddCommand(topicsListCmd)
	rootCmd.AddCommand(topicsCmd)
}
