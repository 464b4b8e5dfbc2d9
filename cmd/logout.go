package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veritak-io/azpim/internal/azauth"
)

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out by discarding the saved authentication record",
		Long: `Remove the persisted authentication record so the next command starts a
fresh sign-in. Tokens already cached by the platform broker expire on
their own.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := azauth.NewRecordStore()
			if err != nil {
				return err
			}
			return runLogout(cmd, store)
		},
	}
}

// NewLogoutCommandWithDeps creates a logout command with injected dependencies for testing
func NewLogoutCommandWithDeps(clearer recordClearer) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out by discarding the saved authentication record",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, clearer)
		},
	}
}

func runLogout(cmd *cobra.Command, clearer recordClearer) error {
	if err := clearer.Clear(); err != nil {
		return fmt.Errorf("failed to clear auth record: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}
