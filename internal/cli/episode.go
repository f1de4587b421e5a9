package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var episodeCmd = &cobra.Command{
	Use:   "episode",
	Short: "Read generated episodes",
}

var episodeShowCmd = &cobra.Command{
	Use:   "show <episode-id>",
	Short: "Show an episode's synopsis and script",
	Args:  cobra.ExactArgs(1),
	RunE:  runEpisodeShow,
}

func init() {
	episodeCmd.AddCommand(episodeShowCmd)
}

func runEpisodeShow(cmd *cobra.Command, args []string) error {
	c := newController()
	c.GoToProduction(cmd.Context(), args[0])

	snap := c.Snapshot()
	if err := snapshotError(snap); err != nil {
		return err
	}
	if snap.ActiveEpisode == nil {
		return fmt.Errorf("episode not found: %s", args[0])
	}
	printEpisode(cmd.OutOrStdout(), snap.ActiveSeries, *snap.ActiveEpisode)
	return nil
}
