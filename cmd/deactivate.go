package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veritak-io/azpim/internal/config"
	"github.com/veritak-io/azpim/internal/graph"
	"github.com/veritak-io/azpim/internal/graph/models"
	"github.com/veritak-io/azpim/internal/rbac"
)

// defaultDeactivateJustification is recorded when the operator gives no
// reason. Dropping privilege should never be blocked on wording.
const defaultDeactivateJustification = "Deactivated via azpim"

// newDeactivateCommand creates the deactivate command with the given RunE function.
func newDeactivateCommand(runFn func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deactivate [justification]",
		Short: "Deactivate the configured roles",
		Long: `Drop the currently active directory and subscription role activations.

Only PIM activations are dropped; standing assignments are never touched.
A role that is not active is reported as such and counts as success.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFn,
	}
	cmd.Flags().StringP("reason", "r", "", "justification recorded on the deactivation requests")
	cmd.Flags().String("tenant", "", "tenant ID override")
	cmd.Flags().String("subscription", "", "subscription ID override")
	return cmd
}

// NewDeactivateCommand creates the deactivate command with production dependencies
func NewDeactivateCommand() *cobra.Command {
	return newDeactivateCommand(func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		if reason == "" && len(args) > 0 {
			reason = args[0]
		}
		tenant, _ := cmd.Flags().GetString("tenant")
		subscriptionID, _ := cmd.Flags().GetString("subscription")

		cfg, _, err := config.LoadDefaultWithPath()
		if err != nil {
			return err
		}

		graphClient, armService, err := bootstrapServices(cmd, cfg, tenant, subscriptionID)
		if err != nil {
			return err
		}

		var subscription subscriptionService
		if armService != nil {
			subscription = armService
		}

		return runDeactivateWithDeps(cmd, reason, graphClient, subscription, cfg)
	})
}

// NewDeactivateCommandWithDeps creates a deactivate command with injected dependencies for testing
func NewDeactivateCommandWithDeps(
	directory directoryService,
	subscription subscriptionService,
	cfg *config.Config,
) *cobra.Command {
	return newDeactivateCommand(func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		if reason == "" && len(args) > 0 {
			reason = args[0]
		}
		return runDeactivateWithDeps(cmd, reason, directory, subscription, cfg)
	})
}

func runDeactivateWithDeps(
	cmd *cobra.Command,
	reason string,
	directory directoryService,
	subscription subscriptionService,
	cfg *config.Config,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()

	// Deactivation never prompts and never fails on a missing reason.
	justification := strings.TrimSpace(reason)
	if justification == "" {
		justification = defaultDeactivateJustification
	}

	me, err := directory.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve signed-in operator: %w", err)
	}

	results := []roleResult{
		deactivateDirectoryRole(ctx, directory, me, justification, cfg),
		deactivateSubscriptionRole(ctx, subscription, me, justification, cfg),
	}

	if isJSONOutput() {
		return writeJSON(cmd.OutOrStdout(), buildRunReport("deactivate", me.UserPrincipalName, results))
	}

	renderResults(cmd, results)
	return nil
}

// deactivateDirectoryRole submits a selfDeactivate request when the
// configured directory role has an Activated assignment instance.
func deactivateDirectoryRole(
	ctx context.Context,
	directory directoryService,
	me *models.User,
	justification string,
	cfg *config.Config,
) roleResult {
	result := roleResult{Role: cfg.DirectoryRole, Scope: "directory"}

	assignments, err := directory.ListAssignmentScheduleInstances(ctx, me.ID)
	if err != nil {
		result.Outcome = outcomeFailed
		result.Err = fmt.Errorf("failed to list active directory assignments: %w", err)
		return result
	}

	active := matchActiveDirectoryAssignment(assignments, cfg.DirectoryRole, directoryRoleID(cfg.DirectoryRole))
	if active == nil {
		result.Outcome = outcomeNotActive
		return result
	}
	result.Role = active.RoleName()

	scope := active.DirectoryScopeID
	if scope == "" {
		scope = "/"
	}

	req := &models.AssignmentScheduleRequest{
		Action:           models.ActionSelfDeactivate,
		PrincipalID:      me.ID,
		RoleDefinitionID: active.RoleDefinitionID,
		DirectoryScopeID: scope,
		Justification:    justification,
	}

	if _, err := directory.CreateAssignmentScheduleRequest(ctx, req); err != nil {
		// The activation can expire between the listing and the request.
		if graph.IsRoleAssignmentDoesNotExist(err) {
			result.Outcome = outcomeNotActive
			return result
		}
		result.Outcome = outcomeFailed
		result.Err = err
		return result
	}

	result.Outcome = outcomeSubmitted
	result.Detail = "deactivation submitted"
	return result
}

// deactivateSubscriptionRole submits a SelfDeactivate schedule request when
// the configured subscription role has an Activated assignment instance.
func deactivateSubscriptionRole(
	ctx context.Context,
	subscription subscriptionService,
	me *models.User,
	justification string,
	cfg *config.Config,
) roleResult {
	result := roleResult{Role: cfg.SubscriptionRole, Scope: "subscription"}

	if subscription == nil {
		result.Outcome = outcomeFailed
		result.Err = errSubscriptionNotConfigured
		return result
	}
	result.Scope = subscription.Scope()

	assignments, err := subscription.ListActiveAssignments(ctx)
	if err != nil {
		result.Outcome = outcomeFailed
		result.Err = fmt.Errorf("failed to list active assignments: %w", err)
		return result
	}

	active := rbac.MatchActiveAssignment(assignments, cfg.SubscriptionRole)
	if active == nil {
		result.Outcome = outcomeNotActive
		return result
	}
	result.Role = rbac.RoleDisplayName(active)

	defID := ""
	if active.Properties != nil && active.Properties.RoleDefinitionID != nil {
		defID = *active.Properties.RoleDefinitionID
	}

	props := rbac.NewSelfDeactivateProperties(me.ID, defID, justification)
	if _, err := subscription.CreateScheduleRequest(ctx, uuid.NewString(), props); err != nil {
		if rbac.IsRoleAssignmentDoesNotExist(err) {
			result.Outcome = outcomeNotActive
			return result
		}
		result.Outcome = outcomeFailed
		result.Err = err
		return result
	}

	result.Outcome = outcomeSubmitted
	result.Detail = "deactivation submitted"
	return result
}
