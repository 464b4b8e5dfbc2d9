package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/spf13/cobra"

	"github.com/veritak-io/azpim/internal/azauth"
	"github.com/veritak-io/azpim/internal/config"
	"github.com/veritak-io/azpim/internal/graph"
	"github.com/veritak-io/azpim/internal/graph/models"
	"github.com/veritak-io/azpim/internal/rbac"
	"github.com/veritak-io/azpim/internal/ui"
)

// apiTimeout bounds one command's API conversation. Interactive sign-in has
// its own, longer timeout.
const apiTimeout = 60 * time.Second

// globalAdministratorRoleID is the well-known directory role definition ID
// for Global Administrator. It is the same in every tenant and strengthens
// eligibility matching for the default role.
const globalAdministratorRoleID = "62e90394-69f5-4237-9190-012177145e10"

var errJustificationRequired = errors.New("a justification is required: pass one as an argument or with --reason")

var errSubscriptionNotConfigured = errors.New("no subscription configured: set subscription_id via 'azpim configure' or pass --subscription")

// roleOutcome classifies the result of one role operation.
type roleOutcome int

const (
	outcomeSubmitted roleOutcome = iota
	outcomeAlreadyActive
	outcomeNotActive
	outcomeFailed
)

func (o roleOutcome) String() string {
	switch o {
	case outcomeSubmitted:
		return "submitted"
	case outcomeAlreadyActive:
		return "already-active"
	case outcomeNotActive:
		return "not-active"
	case outcomeFailed:
		return "failed"
	}
	return "unknown"
}

// roleResult captures the outcome of one role operation for rendering.
// A failed result never aborts the run; the other role still gets its turn.
type roleResult struct {
	Role    string
	Scope   string
	Outcome roleOutcome
	Detail  string
	Err     error
}

// normalizeHours parses the raw --hours value and clamps it to [1, max].
// Non-numeric or non-positive input falls back to max rather than failing;
// the worst that happens is a full-length activation.
func normalizeHours(raw string, max int) int {
	h, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || h <= 0 {
		return max
	}
	if h > max {
		return max
	}
	return h
}

// isoDuration renders an hour count as an ISO 8601 duration.
func isoDuration(hours int) string {
	return fmt.Sprintf("PT%dH", hours)
}

// resolveJustification returns the justification from the flag or argument,
// or prompts for one when stdin is a terminal. An empty justification is a
// hard stop before any request is submitted.
func resolveJustification(provided string, prompter justificationPrompter) (string, error) {
	justification := strings.TrimSpace(provided)
	if justification == "" && prompter != nil {
		answer, err := prompter.PromptJustification()
		if err != nil && !errors.Is(err, ui.ErrNotInteractive) {
			return "", err
		}
		justification = strings.TrimSpace(answer)
	}
	if justification == "" {
		return "", errJustificationRequired
	}
	return justification, nil
}

// matchDirectoryEligibility finds the eligibility instance for the given
// directory role by display name (case-insensitive) or role definition ID.
func matchDirectoryEligibility(instances []models.EligibilityScheduleInstance, roleName, roleDefinitionID string) *models.EligibilityScheduleInstance {
	for i := range instances {
		if strings.EqualFold(instances[i].RoleName(), roleName) {
			return &instances[i]
		}
		if roleDefinitionID != "" && strings.EqualFold(instances[i].RoleDefinitionID, roleDefinitionID) {
			return &instances[i]
		}
	}
	return nil
}

// matchActiveDirectoryAssignment finds an Activated assignment instance for
// the given role. Standing (Assigned) memberships are never touched.
func matchActiveDirectoryAssignment(instances []models.AssignmentScheduleInstance, roleName, roleDefinitionID string) *models.AssignmentScheduleInstance {
	for i := range instances {
		if instances[i].AssignmentType != models.AssignmentTypeActivated {
			continue
		}
		if strings.EqualFold(instances[i].RoleName(), roleName) {
			return &instances[i]
		}
		if roleDefinitionID != "" && strings.EqualFold(instances[i].RoleDefinitionID, roleDefinitionID) {
			return &instances[i]
		}
	}
	return nil
}

// filterActivatedDirectory keeps only PIM-activated directory assignments.
func filterActivatedDirectory(instances []models.AssignmentScheduleInstance) []models.AssignmentScheduleInstance {
	var out []models.AssignmentScheduleInstance
	for _, inst := range instances {
		if inst.AssignmentType == models.AssignmentTypeActivated {
			out = append(out, inst)
		}
	}
	return out
}

// directoryRoleID returns the well-known role definition ID when the
// configured role is the default, empty otherwise so name matching decides.
func directoryRoleID(roleName string) string {
	if strings.EqualFold(roleName, config.DefaultDirectoryRole) {
		return globalAdministratorRoleID
	}
	return ""
}

// formatExpiry renders an assignment end time for display. Permanent
// assignments have no end time and render as nothing.
func formatExpiry(end *time.Time) string {
	if end == nil || end.IsZero() {
		return ""
	}
	return fmt.Sprintf(" - expires %s", end.Local().Format("2006-01-02 15:04"))
}

func armEligibilityEnd(inst *armauthorization.RoleEligibilityScheduleInstance) *time.Time {
	if inst == nil || inst.Properties == nil {
		return nil
	}
	return inst.Properties.EndDateTime
}

func armAssignmentEnd(inst *armauthorization.RoleAssignmentScheduleInstance) *time.Time {
	if inst == nil || inst.Properties == nil {
		return nil
	}
	return inst.Properties.EndDateTime
}

// renderResults prints one line per role outcome. Failures go to stderr and
// do not change the exit code: a partially successful run is still a run.
func renderResults(cmd *cobra.Command, results []roleResult) {
	for _, r := range results {
		switch r.Outcome {
		case outcomeSubmitted:
			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %s\n", r.Role, r.Scope, r.Detail)
		case outcomeAlreadyActive:
			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: already active\n", r.Role, r.Scope)
		case outcomeNotActive:
			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: not active\n", r.Role, r.Scope)
		case outcomeFailed:
			fmt.Fprintf(cmd.ErrOrStderr(), "%s on %s: %v\n", r.Role, r.Scope, r.Err)
		}
	}
}

// buildRunReport converts role outcomes into the JSON report shape.
func buildRunReport(action, operator string, results []roleResult) runReport {
	report := runReport{
		Action:   action,
		Operator: operator,
		Results:  make([]roleResultOutput, 0, len(results)),
	}
	for _, r := range results {
		out := roleResultOutput{
			Role:   r.Role,
			Scope:  r.Scope,
			Status: r.Outcome.String(),
			Detail: r.Detail,
		}
		if r.Err != nil {
			out.Error = r.Err.Error()
		}
		report.Results = append(report.Results, out)
	}
	return report
}

// statusData holds the results of the concurrent status fetches.
type statusData struct {
	directory        []models.AssignmentScheduleInstance
	directoryErr     error
	subscription     []*armauthorization.RoleAssignmentScheduleInstance
	subscriptionErr  error
	subscriptionName string
}

// fetchStatusData fires the directory assignment, subscription assignment,
// and subscription name lookups concurrently, then joins results. Backend
// errors are carried per side so the other side still renders; the name
// lookup degrades to the raw scope.
func fetchStatusData(
	ctx context.Context,
	principalID string,
	directory directoryAssignmentLister,
	subscription subscriptionService,
	names subscriptionNameResolver,
) *statusData {
	data := &statusData{}
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		data.directory, data.directoryErr = directory.ListAssignmentScheduleInstances(ctx, principalID)
	}()

	if subscription != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data.subscription, data.subscriptionErr = subscription.ListActiveAssignments(ctx)
		}()
	}

	if names != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name, err := names.SubscriptionDisplayName(ctx)
			if err != nil {
				log.Debugf("failed to resolve subscription name: %v", err)
				return
			}
			data.subscriptionName = name
		}()
	}

	wg.Wait()
	return data
}

// buildStatusOutput converts status data into the JSON shape.
func buildStatusOutput(username string, data *statusData) statusOutput {
	out := statusOutput{
		SignedIn:         true,
		Username:         username,
		SubscriptionName: data.subscriptionName,
		Directory:        []activeAssignmentOutput{},
		Subscription:     []activeAssignmentOutput{},
	}
	for _, inst := range filterActivatedDirectory(data.directory) {
		entry := activeAssignmentOutput{Role: inst.RoleName(), Scope: "directory"}
		if inst.EndDateTime != nil {
			entry.ExpiresAt = inst.EndDateTime.UTC().Format(time.RFC3339)
		}
		out.Directory = append(out.Directory, entry)
	}
	for _, inst := range rbac.FilterActivated(data.subscription) {
		entry := activeAssignmentOutput{Role: rbac.RoleDisplayName(inst)}
		if inst.Properties.Scope != nil {
			entry.Scope = *inst.Properties.Scope
		}
		if end := armAssignmentEnd(inst); end != nil {
			entry.ExpiresAt = end.UTC().Format(time.RFC3339)
		}
		out.Subscription = append(out.Subscription, entry)
	}
	return out
}

// buildEligibilityReport converts eligibility listings into the JSON shape.
func buildEligibilityReport(directory []models.EligibilityScheduleInstance, subscription []*armauthorization.RoleEligibilityScheduleInstance) eligibilityReport {
	report := eligibilityReport{
		Directory:    []eligibilityOutput{},
		Subscription: []eligibilityOutput{},
	}
	for _, inst := range directory {
		entry := eligibilityOutput{Role: inst.RoleName(), Scope: "directory"}
		if inst.EndDateTime != nil {
			entry.ExpiresAt = inst.EndDateTime.UTC().Format(time.RFC3339)
		}
		report.Directory = append(report.Directory, entry)
	}
	for _, inst := range subscription {
		entry := eligibilityOutput{Role: rbac.EligibleRoleDisplayName(inst)}
		if inst.Properties != nil && inst.Properties.Scope != nil {
			entry.Scope = *inst.Properties.Scope
		}
		if end := armEligibilityEnd(inst); end != nil {
			entry.ExpiresAt = end.UTC().Format(time.RFC3339)
		}
		report.Subscription = append(report.Subscription, entry)
	}
	return report
}

// bootstrapServices builds the Graph client and ARM service from config and
// flag overrides. The ARM service is nil when no real subscription ID is
// available; callers surface that per role rather than failing the run.
func bootstrapServices(cmd *cobra.Command, cfg *config.Config, tenantOverride, subscriptionOverride string) (*graph.Client, *rbac.Service, error) {
	tenant := cfg.TenantID
	if tenantOverride != "" {
		tenant = tenantOverride
	}
	if config.IsPlaceholder(tenant) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: no tenant configured, signing in against the 'organizations' authority. Run 'azpim configure' to pin a tenant.")
	}

	var record azidentity.AuthenticationRecord
	if store, err := azauth.NewRecordStore(); err == nil {
		loaded, err := store.Load()
		if err != nil {
			log.Debugf("ignoring unreadable auth record: %v", err)
		} else {
			record = loaded
		}
	}

	cred, err := azauth.NewCredential(azauth.Options{
		TenantID:      tenant,
		ClientID:      cfg.ClientID,
		Record:        record,
		UseDeviceCode: useDeviceCode,
	})
	if err != nil {
		return nil, nil, err
	}

	graphClient := graph.NewClient(cred)

	subscriptionID := cfg.SubscriptionID
	if subscriptionOverride != "" {
		subscriptionID = subscriptionOverride
	}
	if config.IsPlaceholder(subscriptionID) {
		log.Debugf("no subscription configured, skipping ARM client")
		return graphClient, nil, nil
	}

	armService, err := rbac.NewService(subscriptionID, cred, nil)
	if err != nil {
		return nil, nil, err
	}
	return graphClient, armService, nil
}
