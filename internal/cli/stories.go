package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/raphaelgruber/showrunner/internal/workflow"
)

var (
	storyPremise string
	storyGenre   string
)

var storiesCmd = &cobra.Command{
	Use:     "stories",
	Aliases: []string{"story"},
	Short:   "Manage standalone stories",
	RunE:    runStoriesList,
}

var storiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stories",
	RunE:  runStoriesList,
}

var storiesCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a story",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoriesCreate,
}

var storiesDeleteCmd = &cobra.Command{
	Use:   "delete <story-id>",
	Short: "Delete a story",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoriesDelete,
}

func init() {
	storiesCreateCmd.Flags().StringVarP(&storyPremise, "premise", "p", "", "story premise")
	storiesCreateCmd.Flags().StringVarP(&storyGenre, "genre", "g", "", "comma separated genres")

	storiesCmd.AddCommand(storiesListCmd)
	storiesCmd.AddCommand(storiesCreateCmd)
	storiesCmd.AddCommand(storiesDeleteCmd)
}

func newStoryBoard() *workflow.StoryBoard {
	return workflow.NewStoryBoard(gqlClient, logger)
}

func runStoriesList(cmd *cobra.Command, args []string) error {
	b := newStoryBoard()
	b.Load(cmd.Context())

	snap := b.Snapshot()
	if snap.Error != "" {
		return fmt.Errorf("%s", snap.Error)
	}
	printStories(cmd.OutOrStdout(), snap.Stories)
	return nil
}

func runStoriesCreate(cmd *cobra.Command, args []string) error {
	story, err := gqlClient.CreateStory(cmd.Context(), models.CreateStoryInput{
		Title:   args[0],
		Premise: storyPremise,
		Genre:   models.SplitGenre(storyGenre),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s (%s)\n", story.Title, story.ID)
	return nil
}

func runStoriesDelete(cmd *cobra.Command, args []string) error {
	b := newStoryBoard()
	b.DeleteStory(cmd.Context(), args[0])

	if snap := b.Snapshot(); snap.Error != "" {
		return fmt.Errorf("%s", snap.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", args[0])
	return nil
}
