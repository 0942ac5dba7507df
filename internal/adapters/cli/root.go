// Package cli is the terminal client: an interactive chat plus commands to
// manage and share locally stored sessions.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/yvi-assistant/internal/config"
)

// NewRootCmd assembles the command tree. newApp is called once per command run.
func NewRootCmd(newApp AppFactory) *cobra.Command {
	root := &cobra.Command{
		Use:   "yvi",
		Short: "Chat with the YVI Technologies assistant from your terminal",
		Long: `yvi is a terminal client for the YVI Technologies assistant.

Sessions are kept in a local database so you can pick a conversation up
where you left it, organise sessions and share them as links.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", config.DefaultClientConfigPath(), "Path to the client config file")
	root.PersistentFlags().String("db", "", "Path to the session database (overrides config)")
	root.PersistentFlags().String("backend", "", "Backend base URL (overrides config)")

	root.AddCommand(
		newChatCmd(newApp),
		newSessionsCmd(newApp),
		newShareCmd(newApp),
	)
	return root
}

// Execute runs the root command against the real session database and backend.
func Execute(ctx context.Context) {
	if err := NewRootCmd(defaultApp).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
