package cmd

import (
	"bytes"

	"github.com/spf13/cobra"
)

// newTestRootCommand creates a fresh root command for tests so persistent
// flags are registered without sharing state through the package-level root.
func newTestRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "azpim",
		Short: "Just-in-time activation of Azure privileged roles",
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (json)")
	return cmd
}

// executeCommand executes a command and returns its combined output
func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}
