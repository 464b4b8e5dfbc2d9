package cmd

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/veritak-io/azpim/internal/cache"
	"github.com/veritak-io/azpim/internal/config"
	"github.com/veritak-io/azpim/internal/rbac"
)

// newListCommand creates the list cobra command with the given RunE function.
func newListCommand(runFn func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List eligible roles without activating anything",
		Long: `List the directory and subscription roles the signed-in account is
eligible to activate. Results are cached; use --refresh to bypass the cache.

Examples:
  # List all eligibility
  azpim list

  # JSON output for programmatic use
  azpim list --output json

  # Bypass the eligibility cache
  azpim list --refresh`,
		RunE: runFn,
	}

	cmd.Flags().Bool("refresh", false, "bypass the eligibility cache and fetch fresh data")

	return cmd
}

// NewListCommand creates the production list command.
func NewListCommand() *cobra.Command {
	return newListCommand(func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.LoadDefaultWithPath()
		if err != nil {
			return err
		}

		graphClient, armService, err := bootstrapServices(cmd, cfg, "", "")
		if err != nil {
			return err
		}

		cacheDir, err := cache.CacheDir()
		if err != nil {
			return err
		}
		store := cache.NewStore(cacheDir, config.ParseCacheTTL(cfg))
		refresh, _ := cmd.Flags().GetBool("refresh")

		var subscriptionInner cache.SubscriptionEligibilityLister
		scope := ""
		if armService != nil {
			subscriptionInner = armService
			scope = armService.Scope()
		}
		cached := cache.NewCachedEligibilityLister(graphClient, subscriptionInner, cfg.SubscriptionID, store, refresh, logrus.StandardLogger())

		var subscription subscriptionEligibilityLister
		if armService != nil {
			subscription = cached
		}

		return runListWithDeps(cmd, graphClient, cached, subscription, scope)
	})
}

// NewListCommandWithDeps creates a list command with injected dependencies for testing.
func NewListCommandWithDeps(
	operator operatorResolver,
	directory directoryEligibilityLister,
	subscription subscriptionEligibilityLister,
	subscriptionScope string,
) *cobra.Command {
	return newListCommand(func(cmd *cobra.Command, args []string) error {
		return runListWithDeps(cmd, operator, directory, subscription, subscriptionScope)
	})
}

func runListWithDeps(
	cmd *cobra.Command,
	operator operatorResolver,
	directory directoryEligibilityLister,
	subscription subscriptionEligibilityLister,
	subscriptionScope string,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()

	me, err := operator.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve signed-in operator: %w", err)
	}

	dirInstances, err := directory.ListEligibilityScheduleInstances(ctx, me.ID)
	if err != nil {
		return fmt.Errorf("failed to list directory role eligibility: %w", err)
	}

	var subInstances []*armauthorization.RoleEligibilityScheduleInstance
	var subErr error
	if subscription != nil {
		subInstances, subErr = subscription.ListEligibility(ctx)
		if subErr != nil {
			log.Debugf("subscription eligibility fetch failed: %v", subErr)
		}
	}

	if isJSONOutput() {
		return writeJSON(cmd.OutOrStdout(), buildEligibilityReport(dirInstances, subInstances))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Directory role eligibility:")
	if len(dirInstances) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "  none")
	}
	for _, inst := range dirInstances {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s%s\n", inst.RoleName(), formatExpiry(inst.EndDateTime))
	}

	label := "Subscription role eligibility"
	if subscriptionScope != "" {
		label = fmt.Sprintf("Subscription role eligibility (%s)", subscriptionScope)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", label)
	switch {
	case subscription == nil:
		fmt.Fprintln(cmd.OutOrStdout(), "  no subscription configured")
	case subErr != nil:
		fmt.Fprintf(cmd.OutOrStdout(), "  error: %v\n", subErr)
	case len(subInstances) == 0:
		fmt.Fprintln(cmd.OutOrStdout(), "  none")
	default:
		for _, inst := range subInstances {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s%s\n", rbac.EligibleRoleDisplayName(inst), formatExpiry(armEligibilityEnd(inst)))
		}
	}

	return nil
}
