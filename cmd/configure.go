package cmd

import (
	"fmt"
	"strings"

	survey "github.com/Iilun/survey/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veritak-io/azpim/internal/config"
	"github.com/veritak-io/azpim/internal/ui"
)

// NewConfigureCommand creates the configure command
func NewConfigureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure the tenant and subscription to operate on",
		Long: `Write the azpim configuration file at ~/.azpim/config.yaml.

Values can be passed as flags or entered interactively. Leaving the
subscription blank skips subscription role activation; leaving the
tenant blank signs in against the 'organizations' authority.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, _ := cmd.Flags().GetString("tenant")
			subscriptionID, _ := cmd.Flags().GetString("subscription")
			clientID, _ := cmd.Flags().GetString("client-id")
			return runConfigure(cmd, tenantID, subscriptionID, clientID)
		},
	}

	cmd.Flags().String("tenant", "", "tenant ID to sign in against")
	cmd.Flags().String("subscription", "", "subscription ID for the subscription role")
	cmd.Flags().String("client-id", "", "client ID of the app registration used for sign-in")

	return cmd
}

func runConfigure(cmd *cobra.Command, tenantID, subscriptionID, clientID string) error {
	// Only prompt when nothing was passed and a human is present.
	promptNeeded := tenantID == "" && subscriptionID == "" && ui.IsInteractive()

	if promptNeeded {
		if err := survey.AskOne(&survey.Input{
			Message: "Tenant ID:",
			Help:    "Leave blank to sign in against the 'organizations' authority",
		}, &tenantID); err != nil {
			return fmt.Errorf("failed to read tenant ID: %w", err)
		}

		if err := survey.AskOne(&survey.Input{
			Message: "Subscription ID:",
			Help:    "Leave blank to skip subscription role activation",
		}, &subscriptionID); err != nil {
			return fmt.Errorf("failed to read subscription ID: %w", err)
		}
	}

	tenantID = strings.TrimSpace(tenantID)
	subscriptionID = strings.TrimSpace(subscriptionID)
	clientID = strings.TrimSpace(clientID)

	if err := validateGUID("tenant ID", tenantID); err != nil {
		return err
	}
	if err := validateGUID("subscription ID", subscriptionID); err != nil {
		return err
	}
	if err := validateGUID("client ID", clientID); err != nil {
		return err
	}

	cfg, cfgPath, err := config.LoadDefaultWithPath()
	if err != nil {
		return err
	}

	if tenantID != "" {
		cfg.TenantID = tenantID
	}
	if subscriptionID != "" {
		cfg.SubscriptionID = subscriptionID
	}
	if clientID != "" {
		cfg.ClientID = clientID
	}

	log.Debugf("saving config")
	if err := config.Save(cfg, cfgPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", cfgPath)
	return nil
}

// validateGUID rejects values that are not GUIDs. Empty values are allowed
// and leave the existing setting untouched.
func validateGUID(label, value string) error {
	if value == "" {
		return nil
	}
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("invalid %s %q: must be a GUID", label, value)
	}
	return nil
}
