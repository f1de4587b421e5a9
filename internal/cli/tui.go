package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/showrunner/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive production workflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("tui needs an interactive terminal")
		}
		return tui.Run(cmd.Context(), tui.Options{
			Controller: newController(),
			Stories:    newStoryBoard(),
			Session:    sess,
			Logger:     logger,
		})
	},
}
