// gamectl plays change-management games and drafts communications against
// the change-assistant backend from a terminal.
package main

import (
	"fmt"
	"os"
	"time"

	"changekit/internal/client"
	"changekit/internal/config"

	"github.com/spf13/cobra"
)

// app holds the global flags shared by every command
type app struct {
	cfg        *config.Config
	backendURL string
	timeout    time.Duration
	userID     string
	debug      bool
	plain      bool
	dark       bool
}

func (a *app) backend() *client.BackendClient {
	return client.NewBackendClient(client.Options{
		BaseURL:      a.backendURL,
		Timeout:      a.timeout,
		ClientID:     a.cfg.BackendClientID,
		ClientSecret: a.cfg.BackendClientSecret,
		TokenURL:     a.cfg.BackendTokenURL,
	})
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	a := &app{cfg: cfg}

	rootCmd := &cobra.Command{
		Use:   "gamectl",
		Short: "Change-management games and communications in the terminal",
		Long: `gamectl talks to the change-assistant backend.

It lists and plays the ADKAR training games, classifies text into an
ADKAR stage and generates communication drafts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.backendURL, "backend", cfg.BackendURL, "change-assistant backend URL")
	flags.DurationVar(&a.timeout, "timeout", cfg.BackendTimeout, "backend request timeout")
	flags.StringVar(&a.userID, "user", cfg.DemoUserID, "user id recorded with completed games")
	flags.BoolVar(&a.debug, "debug", cfg.Debug, "enable debug logging")
	flags.BoolVar(&a.plain, "plain", false, "never clear the screen between pages")
	flags.BoolVar(&a.dark, "dark", false, "use the dark palette")

	rootCmd.AddCommand(
		newGamesCmd(a),
		newPlayCmd(a),
		newStageCmd(a),
		newDraftCmd(a),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
