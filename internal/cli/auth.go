package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/showrunner/internal/session"
)

var (
	loginToken string
	loginName  string
	loginEmail string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an API token for the server",
	Long: `Store the bearer token the server expects (SHOWRUNNER_API_TOKEN on the server side).

Without --token the token is read from the terminal without echo.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := session.SignOut(cfg.SessionFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := session.Load(cfg.SessionFile)
		if err != nil {
			return err
		}
		name := s.DisplayName()
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", name)
		if s.User.Email != "" && s.User.Email != name {
			fmt.Fprintf(cmd.OutOrStdout(), "Email:   %s\n", s.User.Email)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Since:   %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Fprintf(cmd.OutOrStdout(), "Server:  %s\n", cfg.ServerURL)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "API token")
	loginCmd.Flags().StringVar(&loginName, "name", "", "display name")
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "email address")
}

func runLogin(cmd *cobra.Command, args []string) error {
	token := strings.TrimSpace(loginToken)
	if token == "" {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return fmt.Errorf("--token is required when stdin is not a terminal")
		}
		fmt.Fprint(cmd.OutOrStdout(), "API token: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}

	s := &session.Session{
		User:  session.User{Name: loginName, Email: loginEmail},
		Token: token,
	}
	if err := session.Save(cfg.SessionFile, s); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed in to %s\n", cfg.ServerURL)
	return nil
}
