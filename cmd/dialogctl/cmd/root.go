package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/cmd/dialogctl/internal/printer"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/app"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/config"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/logging"
)

var (
	templatesPath string
	scriptsDir    string
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "dialogctl",
	Short: "Inspect and exercise the dialog pipeline",
	Long: `dialogctl is a command-line interface for the dialog system.

Available commands:
  pipeline validate   Check the routing table for inconsistencies
  pipeline graph      Render the routing table (dot, table or json)
  topics list         List the topic catalogue
  simulate            Replay a scripted conversation

Configuration is read from the environment and .env like the server.
Use "dialogctl [command] --help" for more information about a specific command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&templatesPath, "templates", "", "NLG template file (overrides NLG_TEMPLATES_PATH)")
	rootCmd.PersistentFlags().StringVar(&scriptsDir, "scripts", "", "directory of scripted services (overrides SCRIPTS_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for pipeline components")
}

// loadApp builds the application from configuration and command-line overrides.
// The caller must shut it down.
func loadApp(p *printer.Printer) (*app.App, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, p.Error("Invalid configuration", err.Error(), []string{"Check your environment variables and .env file."})
	}
	if templatesPath != "" {
		cfg.NLGTemplatesPath = templatesPath
	}
	if scriptsDir != "" {
		cfg.ScriptsDir = scriptsDir
	}
	// A CLI run is short lived.
	cfg.NLGHotReload = false
	cfg.ReclaimInterval = 0

	// Logs go to stderr so that rendered output can be piped.
	slog.SetDefault(logging.NewWithWriter(os.Stderr, cfg.LogFormat, logLevel))
	return app.New(cfg), nil
}
