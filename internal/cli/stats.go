package cli

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Long:  `Show in-memory server statistics: generation timings, LLM token usage and episode outcomes since the last restart.`,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := gqlClient.GetServerStats(cmd.Context())
	if err != nil {
		return err
	}
	printServerStats(cmd.OutOrStdout(), stats)
	return nil
}
