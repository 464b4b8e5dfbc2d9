package cmd

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/spf13/cobra"

	"github.com/veritak-io/azpim/internal/azauth"
	"github.com/veritak-io/azpim/internal/config"
	"github.com/veritak-io/azpim/internal/rbac"
)

// NewStatusCommand creates the status command with production dependencies
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sign-in state and active role assignments",
		Long: `Display the signed-in account and the currently active directory and
subscription role assignments, with expiry times where known.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := azauth.NewRecordStore()
			if err != nil {
				return err
			}
			record, err := store.Load()
			if err != nil {
				log.Debugf("ignoring unreadable auth record: %v", err)
			}
			if record == (azidentity.AuthenticationRecord{}) {
				if isJSONOutput() {
					return writeJSON(cmd.OutOrStdout(), statusOutput{
						Directory:    []activeAssignmentOutput{},
						Subscription: []activeAssignmentOutput{},
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in. Run 'azpim login' first.")
				return nil
			}

			cfg, _, err := config.LoadDefaultWithPath()
			if err != nil {
				return err
			}

			graphClient, armService, err := bootstrapServices(cmd, cfg, "", "")
			if err != nil {
				return err
			}

			var subscription subscriptionService
			var names subscriptionNameResolver
			if armService != nil {
				subscription = armService
				names = armService
			}

			return runStatusWithDeps(cmd, record.Username, graphClient, subscription, names)
		},
	}
	return cmd
}

// NewStatusCommandWithDeps creates a status command with injected dependencies for testing
func NewStatusCommandWithDeps(
	username string,
	directory directoryService,
	subscription subscriptionService,
	names subscriptionNameResolver,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sign-in state and active role assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusWithDeps(cmd, username, directory, subscription, names)
		},
	}
	return cmd
}

func runStatusWithDeps(
	cmd *cobra.Command,
	username string,
	directory directoryService,
	subscription subscriptionService,
	names subscriptionNameResolver,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()

	me, err := directory.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve signed-in operator: %w", err)
	}
	if username == "" {
		username = me.UserPrincipalName
	}

	data := fetchStatusData(ctx, me.ID, directory, subscription, names)

	if isJSONOutput() {
		return writeJSON(cmd.OutOrStdout(), buildStatusOutput(username, data))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as: %s\n\n", username)

	fmt.Fprintln(cmd.OutOrStdout(), "Directory roles:")
	switch {
	case data.directoryErr != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "  error: %v\n", data.directoryErr)
	default:
		activated := filterActivatedDirectory(data.directory)
		if len(activated) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "  none active")
		}
		for _, inst := range activated {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s%s\n", inst.RoleName(), formatExpiry(inst.EndDateTime))
		}
	}

	label := "Subscription roles"
	if data.subscriptionName != "" {
		label = fmt.Sprintf("Subscription roles (%s)", data.subscriptionName)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", label)
	switch {
	case subscription == nil:
		fmt.Fprintln(cmd.OutOrStdout(), "  no subscription configured")
	case data.subscriptionErr != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "  error: %v\n", data.subscriptionErr)
	default:
		activated := rbac.FilterActivated(data.subscription)
		if len(activated) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "  none active")
		}
		for _, inst := range activated {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s%s\n", rbac.RoleDisplayName(inst), formatExpiry(armAssignmentEnd(inst)))
		}
	}

	return nil
}
