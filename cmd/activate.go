package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veritak-io/azpim/internal/config"
	"github.com/veritak-io/azpim/internal/graph"
	"github.com/veritak-io/azpim/internal/graph/models"
	"github.com/veritak-io/azpim/internal/rbac"
	"github.com/veritak-io/azpim/internal/ui"
)

// newActivateCommand creates the activate command with the given RunE function.
func newActivateCommand(runFn func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activate [justification]",
		Short: "Activate the configured directory and subscription roles",
		Long: `Request activation of both configured roles: the directory role via
Microsoft Graph PIM and the subscription RBAC role via ARM PIM.

Directory eligibility is checked first; without it nothing is submitted to
either backend. A role that is already active is reported and counts as
success. A failure on one role does not stop the other.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFn,
	}
	registerActivateFlags(cmd)
	return cmd
}

// NewActivateCommand creates the activate command with production dependencies
func NewActivateCommand() *cobra.Command {
	return newActivateCommand(runActivateProduction)
}

// runActivateProduction is the production RunE shared by the root command and
// the activate subcommand.
func runActivateProduction(cmd *cobra.Command, args []string) error {
	flags := parseActivateFlags(cmd, args)

	cfg, _, err := config.LoadDefaultWithPath()
	if err != nil {
		return err
	}

	justification, err := resolveJustification(flags.reason, &uiPrompter{})
	if err != nil {
		return err
	}

	graphClient, armService, err := bootstrapServices(cmd, cfg, flags.tenant, flags.subscription)
	if err != nil {
		return err
	}

	var subscription subscriptionService
	if armService != nil {
		subscription = armService
	}

	return runActivateWithDeps(cmd, justification, flags.hours, graphClient, subscription, cfg)
}

// NewActivateCommandWithDeps creates an activate command with injected dependencies for testing
func NewActivateCommandWithDeps(
	directory directoryService,
	subscription subscriptionService,
	prompter justificationPrompter,
	cfg *config.Config,
) *cobra.Command {
	return newActivateCommand(func(cmd *cobra.Command, args []string) error {
		flags := parseActivateFlags(cmd, args)
		justification, err := resolveJustification(flags.reason, prompter)
		if err != nil {
			return err
		}
		return runActivateWithDeps(cmd, justification, flags.hours, directory, subscription, cfg)
	})
}

func runActivateWithDeps(
	cmd *cobra.Command,
	justification string,
	hoursRaw string,
	directory directoryService,
	subscription subscriptionService,
	cfg *config.Config,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()

	hours := normalizeHours(hoursRaw, cfg.MaxHours)

	me, err := directory.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve signed-in operator: %w", err)
	}
	log.Debugf("operator %s (%s)", me.UserPrincipalName, me.ID)

	eligibility, err := directory.ListEligibilityScheduleInstances(ctx, me.ID)
	if err != nil {
		return fmt.Errorf("failed to list directory role eligibility: %w", err)
	}

	// Directory eligibility gates the whole run: a wrong account should not
	// fire requests at either backend.
	eligible := matchDirectoryEligibility(eligibility, cfg.DirectoryRole, directoryRoleID(cfg.DirectoryRole))
	if eligible == nil {
		return fmt.Errorf("no eligibility for %q found for %s; nothing was activated", cfg.DirectoryRole, me.UserPrincipalName)
	}

	results := []roleResult{
		activateDirectoryRole(ctx, directory, me, eligible, justification, hours),
		activateSubscriptionRole(ctx, subscription, me, justification, hours, cfg),
	}

	if isJSONOutput() {
		return writeJSON(cmd.OutOrStdout(), buildRunReport("activate", me.UserPrincipalName, results))
	}

	renderResults(cmd, results)
	return nil
}

// activateDirectoryRole submits a selfActivate request for the eligible
// directory role at its eligible scope.
func activateDirectoryRole(
	ctx context.Context,
	requester directoryRequester,
	me *models.User,
	eligible *models.EligibilityScheduleInstance,
	justification string,
	hours int,
) roleResult {
	result := roleResult{Role: eligible.RoleName(), Scope: "directory"}

	scope := eligible.DirectoryScopeID
	if scope == "" {
		scope = "/"
	}

	now := time.Now().UTC()
	req := &models.AssignmentScheduleRequest{
		Action:           models.ActionSelfActivate,
		PrincipalID:      me.ID,
		RoleDefinitionID: eligible.RoleDefinitionID,
		DirectoryScopeID: scope,
		Justification:    justification,
		ScheduleInfo: &models.ScheduleInfo{
			StartDateTime: &now,
			Expiration: &models.Expiration{
				Type:     models.ExpirationAfterDuration,
				Duration: isoDuration(hours),
			},
		},
	}

	created, err := requester.CreateAssignmentScheduleRequest(ctx, req)
	if err != nil {
		if graph.IsRoleAssignmentExists(err) {
			result.Outcome = outcomeAlreadyActive
			return result
		}
		result.Outcome = outcomeFailed
		result.Err = err
		return result
	}

	result.Outcome = outcomeSubmitted
	result.Detail = fmt.Sprintf("activation submitted for %dh (status %s)", hours, created.Status)
	return result
}

// activateSubscriptionRole submits a SelfActivate schedule request for the
// configured subscription role. Anything missing on this side fails only
// this role.
func activateSubscriptionRole(
	ctx context.Context,
	subscription subscriptionService,
	me *models.User,
	justification string,
	hours int,
	cfg *config.Config,
) roleResult {
	result := roleResult{Role: cfg.SubscriptionRole, Scope: "subscription"}

	if subscription == nil {
		result.Outcome = outcomeFailed
		result.Err = errSubscriptionNotConfigured
		return result
	}
	result.Scope = subscription.Scope()

	def, err := subscription.ResolveRoleDefinition(ctx, cfg.SubscriptionRole)
	if err != nil {
		result.Outcome = outcomeFailed
		result.Err = err
		return result
	}
	defID := ""
	if def.ID != nil {
		defID = *def.ID
	}

	eligibility, err := subscription.ListEligibility(ctx)
	if err != nil {
		result.Outcome = outcomeFailed
		result.Err = fmt.Errorf("failed to list role eligibility: %w", err)
		return result
	}

	eligible := rbac.MatchEligibility(eligibility, defID, cfg.SubscriptionRole)
	if eligible == nil {
		result.Outcome = outcomeFailed
		result.Err = fmt.Errorf("no eligibility for %q at %s", cfg.SubscriptionRole, subscription.Scope())
		return result
	}

	linkedScheduleID := ""
	if eligible.Properties != nil && eligible.Properties.RoleEligibilityScheduleID != nil {
		linkedScheduleID = *eligible.Properties.RoleEligibilityScheduleID
	}

	props := rbac.NewSelfActivateProperties(me.ID, defID, linkedScheduleID, justification, isoDuration(hours))
	created, err := subscription.CreateScheduleRequest(ctx, uuid.NewString(), props)
	if err != nil {
		if rbac.IsRoleAssignmentExists(err) {
			result.Outcome = outcomeAlreadyActive
			return result
		}
		result.Outcome = outcomeFailed
		result.Err = err
		return result
	}

	status := ""
	if created.Properties != nil && created.Properties.Status != nil {
		status = string(*created.Properties.Status)
	}
	result.Outcome = outcomeSubmitted
	result.Detail = fmt.Sprintf("activation submitted for %dh (status %s)", hours, status)
	return result
}

// uiPrompter wraps ui.PromptJustification to implement justificationPrompter
type uiPrompter struct{}

func (p *uiPrompter) PromptJustification() (string, error) {
	return ui.PromptJustification()
}
