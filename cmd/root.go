package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veritak-io/azpim/internal/config"
)

var (
	verbose       bool
	useDeviceCode bool
)

// activateFlags holds the command-line flags for activation
type activateFlags struct {
	reason       string
	hours        string
	tenant       string
	subscription string
}

// registerActivateFlags registers the activation flag set on a command.
// Shared between the root command and the explicit activate subcommand.
func registerActivateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("reason", "r", "", "justification recorded on the activation requests")
	cmd.Flags().StringP("hours", "H", "", fmt.Sprintf("activation duration in hours, capped at max_hours from config (default %d)", config.DefaultMaxHours))
	cmd.Flags().String("tenant", "", "tenant ID override")
	cmd.Flags().String("subscription", "", "subscription ID override")
}

// parseActivateFlags reads the activation flags, letting a positional
// argument stand in for --reason.
func parseActivateFlags(cmd *cobra.Command, args []string) *activateFlags {
	flags := &activateFlags{}
	flags.reason, _ = cmd.Flags().GetString("reason")
	flags.hours, _ = cmd.Flags().GetString("hours")
	flags.tenant, _ = cmd.Flags().GetString("tenant")
	flags.subscription, _ = cmd.Flags().GetString("subscription")
	if flags.reason == "" && len(args) > 0 {
		flags.reason = args[0]
	}
	return flags
}

// newRootCommand creates the root cobra command with the given RunE function.
// All persistent flag registration and PersistentPreRunE setup is centralized
// here. Running azpim with no subcommand requests activation.
func newRootCommand(runFn func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "azpim [justification]",
		Short: "Activate your eligible Azure PIM roles",
		Long: `azpim activates your eligible Azure PIM roles for a working session: the
configured directory role (Global Administrator by default) and the configured
RBAC role (Owner by default) on one subscription.

Running azpim with no subcommand activates both roles. Every activation needs
a justification; the duration is capped by max_hours from the config.

Examples:
  # Activate both roles, prompting for a justification
  azpim

  # Justification as an argument, four hour window
  azpim "deploying the release" --hours 4

  # Drop the roles when done
  azpim deactivate`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setVerbose(verbose)
			return nil
		},
		RunE: runFn,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (json)")
	cmd.PersistentFlags().BoolVar(&useDeviceCode, "device-code", false, "sign in with the device code flow instead of a browser")
	registerActivateFlags(cmd)

	return cmd
}

var rootCmd = newRootCommand(runActivateProduction)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if !verbose {
			fmt.Fprintln(os.Stderr, "Hint: re-run with --verbose for more details")
		}
		os.Exit(1)
	}
}
