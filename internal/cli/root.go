// Package cli provides the command-line interface for showrunner.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/showrunner/internal/client"
	"github.com/raphaelgruber/showrunner/internal/config"
	"github.com/raphaelgruber/showrunner/internal/session"
	"github.com/raphaelgruber/showrunner/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	// Global config, session and GraphQL client
	cfg       config.Config
	logger    *slog.Logger
	closeLog  func() error
	sess      *session.Session
	gqlClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "showrunner",
	Short: "Series and episode production workflow",
	Long: `Showrunner plans serialized fiction: create a series with its lore and characters,
generate its seasons episode by episode, and read the resulting scripts.

All commands talk to a showrunner-server. Run 'showrunner tui' for the interactive
production workflow.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}

		// Logs go to the file only; verbose mirrors them to stderr.
		if verbose {
			logger, closeLog = config.SetupLogger(cfg.LogFile, slog.LevelDebug)
		} else {
			logger, closeLog = config.SetupFileLogger(cfg.LogFile, cfg.LogLevel)
		}

		var err error
		sess, err = session.Load(cfg.SessionFile)
		if err != nil && !errors.Is(err, session.ErrNoSession) {
			return fmt.Errorf("load session: %w", err)
		}
		if sess == nil && cfg.APIToken != "" {
			sess = &session.Session{Token: cfg.APIToken}
		}

		gqlClient = client.New(cfg.ServerURL, cfg.ClientTimeout, sess)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// newController creates a workflow controller backed by the GraphQL client.
func newController() *workflow.Controller {
	return workflow.New(gqlClient, workflow.WithLogger(logger))
}

// snapshotError converts a failed controller operation into a command error.
func snapshotError(snap workflow.Snapshot) error {
	if snap.Error != "" {
		return errors.New(snap.Error)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "GraphQL endpoint (default $SHOWRUNNER_SERVER_URL)")

	// Add subcommands
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(episodeCmd)
	rootCmd.AddCommand(storiesCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tuiCmd)
}
