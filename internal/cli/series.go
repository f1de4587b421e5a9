package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/showrunner/internal/lore"
	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/raphaelgruber/showrunner/internal/view"
	"github.com/raphaelgruber/showrunner/internal/workflow"
)

var (
	createTitle       string
	createTagline     string
	createGenre       string
	createSeasons     int
	createEpisodes    int
	createLore        string
	createLoreFile    string
	createVisualStyle string
	createScriptStyle string
	createCharacters  string
	createFrom        string

	deleteForce bool

	generateSeason int
	generateWatch  bool
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "List, create, inspect, generate and delete series",
	RunE:  runSeriesList,
}

var seriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all series",
	RunE:  runSeriesList,
}

var seriesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a series",
	Long: `Create a series from its creative parameters.

Characters are given as "name:role:description" entries separated by ";".

With --from the series is read from a Markdown bible: YAML frontmatter (title, tagline,
genre, seasons, episodes, visual_style, script_style, characters), a "Characters"
section of "- Name (role): description" bullets, and lore in every other section.

Examples:
  showrunner series create --title "The Lighthouse" --seasons 2 --episodes 6
  showrunner series create --title "Glass Harbor" --genre "fantasy,drama" \
    --lore-file lore.md --characters "Mara:keeper:last of her line;Ilo:stranger"
  showrunner series create --from bible.md --seasons 3`,
	RunE: runSeriesCreate,
}

var seriesShowCmd = &cobra.Command{
	Use:   "show <series-id>",
	Short: "Show a series and its episodes",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeriesShow,
}

var seriesDeleteCmd = &cobra.Command{
	Use:   "delete <series-id>",
	Short: "Delete a series and its episodes",
	Long: `Delete a series and all of its episodes.

Requires confirmation unless --force is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeriesDelete,
}

var seriesGenerateCmd = &cobra.Command{
	Use:   "generate <series-id>",
	Short: "Generate the episodes of a season",
	Long: `Generate every missing or failed episode of a season, in order.

The command waits until the whole season is written. With --watch a progress bar
follows the episodes as they finish.

Examples:
  showrunner series generate 5f0c... --season 1
  showrunner series generate 5f0c... --season 2 --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runSeriesGenerate,
}

func init() {
	f := seriesCreateCmd.Flags()
	f.StringVarP(&createTitle, "title", "t", "", "series title (required)")
	f.StringVar(&createTagline, "tagline", "", "one-line pitch")
	f.StringVarP(&createGenre, "genre", "g", "", "comma separated genres")
	f.IntVarP(&createSeasons, "seasons", "s", 1, "planned seasons")
	f.IntVarP(&createEpisodes, "episodes", "e", 6, "episodes per season")
	f.StringVar(&createLore, "lore", "", "series bible")
	f.StringVar(&createLoreFile, "lore-file", "", "read the series bible from a file")
	f.StringVar(&createVisualStyle, "visual-style", "", "visual style notes")
	f.StringVar(&createScriptStyle, "script-style", "", "script style notes")
	f.StringVarP(&createCharacters, "characters", "c", "", `main characters, "name:role:description;..."`)
	f.StringVar(&createFrom, "from", "", "read the series from a Markdown bible (flags override it)")

	seriesDeleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")

	seriesGenerateCmd.Flags().IntVarP(&generateSeason, "season", "s", 1, "season to generate")
	seriesGenerateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "show live progress")

	seriesCmd.AddCommand(seriesListCmd)
	seriesCmd.AddCommand(seriesCreateCmd)
	seriesCmd.AddCommand(seriesShowCmd)
	seriesCmd.AddCommand(seriesDeleteCmd)
	seriesCmd.AddCommand(seriesGenerateCmd)
}

func runSeriesList(cmd *cobra.Command, args []string) error {
	c := newController()
	c.Load(cmd.Context())

	snap := c.Snapshot()
	if err := snapshotError(snap); err != nil {
		return err
	}
	printSeriesList(cmd.OutOrStdout(), snap.Series)
	return nil
}

// createInput builds the series input from an optional bible file and the create flags. Flags that
// were set explicitly override the bible.
func createInput(cmd *cobra.Command) (models.CreateSeriesInput, error) {
	var input models.CreateSeriesInput
	if createFrom != "" {
		data, err := os.ReadFile(createFrom)
		if err != nil {
			return input, fmt.Errorf("read bible: %w", err)
		}
		b, err := lore.Parse(string(data))
		if err != nil {
			return input, err
		}
		input = b.Input()
	}

	flags := cmd.Flags()
	set := func(name string) bool { return createFrom == "" || flags.Changed(name) }

	if set("title") {
		input.Title = createTitle
	}
	if set("tagline") {
		input.Tagline = createTagline
	}
	if set("genre") {
		input.Genre = models.SplitGenre(createGenre)
	}
	if set("seasons") || input.PlannedSeasons == 0 {
		input.PlannedSeasons = createSeasons
	}
	if set("episodes") || input.EpisodesPerSeason == 0 {
		input.EpisodesPerSeason = createEpisodes
	}
	if set("lore") {
		input.FullLore = createLore
	}
	if createLoreFile != "" {
		data, err := os.ReadFile(createLoreFile)
		if err != nil {
			return input, fmt.Errorf("read lore file: %w", err)
		}
		input.FullLore = string(data)
	}
	if set("visual-style") {
		input.VisualStyle = createVisualStyle
	}
	if set("script-style") {
		input.ScriptStyle = createScriptStyle
	}
	if set("characters") {
		characters, err := models.ParseCharacters(createCharacters)
		if err != nil {
			return input, err
		}
		input.MainCharacters = characters
	}
	return input, nil
}

func runSeriesCreate(cmd *cobra.Command, args []string) error {
	input, err := createInput(cmd)
	if err != nil {
		return err
	}

	c := newController()
	c.CreateSeries(cmd.Context(), input)

	snap := c.Snapshot()
	if err := snapshotError(snap); err != nil {
		return err
	}
	if snap.ActiveSeries == nil {
		return fmt.Errorf("series was not created")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s (%s)\n\n", snap.ActiveSeries.Title, snap.ActiveSeries.ID)
	printSeriesDetail(cmd.OutOrStdout(), *snap.ActiveSeries, snap.Episodes)
	return nil
}

func runSeriesShow(cmd *cobra.Command, args []string) error {
	c := newController()
	c.GoToDetail(cmd.Context(), args[0])

	snap := c.Snapshot()
	if err := snapshotError(snap); err != nil {
		return err
	}
	if snap.View.Kind() != view.KindDetail || snap.ActiveSeries == nil {
		return fmt.Errorf("series not found: %s", args[0])
	}
	printSeriesDetail(cmd.OutOrStdout(), *snap.ActiveSeries, snap.Episodes)
	return nil
}

func runSeriesDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	c := newController()
	c.GoToDetail(ctx, id)
	snap := c.Snapshot()
	if err := snapshotError(snap); err != nil {
		return err
	}
	if snap.ActiveSeries == nil {
		return fmt.Errorf("series not found: %s", id)
	}
	title := snap.ActiveSeries.Title

	if !deleteForce {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("refusing to delete without --force when stdin is not a terminal")
		}
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
			fmt.Sprintf("About to delete: %s (%s) and %d episodes", title, id, len(snap.Episodes)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	c.DeleteSeries(ctx, id)
	if err := snapshotError(c.Snapshot()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", title)
	return nil
}

// confirm asks a yes/no question, defaulting to no.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintln(out, prompt)
	fmt.Fprint(out, "\nContinue? [y/N]: ")

	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read input: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

func runSeriesGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	c := newController()
	c.GoToDetail(ctx, id)
	if err := snapshotError(c.Snapshot()); err != nil {
		return err
	}

	if generateWatch && term.IsTerminal(int(os.Stdout.Fd())) {
		return runGenerationProgress(ctx, c, id, generateSeason)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generating season %d...\n", generateSeason)
	return generateAndReport(ctx, cmd.OutOrStdout(), c, id, generateSeason)
}

// generateAndReport runs a season generation through the controller and prints the season.
func generateAndReport(ctx context.Context, w io.Writer, c *workflow.Controller, id string, season int) error {
	c.GenerateSeasonEpisodes(ctx, id, season)

	snap := c.Snapshot()
	if err := snapshotError(snap); err != nil {
		return err
	}

	printEpisodes(w, seasonEpisodes(snap.Episodes, season))
	return nil
}
