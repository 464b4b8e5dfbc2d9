package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/spf13/cobra"

	"github.com/veritak-io/azpim/internal/graph/models"
	"github.com/veritak-io/azpim/internal/ui"
)

func TestNormalizeHours(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		max  int
		want int
	}{
		{name: "empty falls to max", raw: "", max: 8, want: 8},
		{name: "within cap", raw: "4", max: 8, want: 4},
		{name: "at cap", raw: "8", max: 8, want: 8},
		{name: "above cap clamped", raw: "12", max: 8, want: 8},
		{name: "zero falls to max", raw: "0", max: 8, want: 8},
		{name: "negative falls to max", raw: "-3", max: 8, want: 8},
		{name: "not a number falls to max", raw: "soon", max: 8, want: 8},
		{name: "surrounding whitespace", raw: " 6 ", max: 8, want: 6},
		{name: "different cap", raw: "5", max: 2, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeHours(tt.raw, tt.max); got != tt.want {
				t.Errorf("normalizeHours(%q, %d) = %d, want %d", tt.raw, tt.max, got, tt.want)
			}
		})
	}
}

func TestIsoDuration(t *testing.T) {
	if got := isoDuration(8); got != "PT8H" {
		t.Errorf("isoDuration(8) = %q, want PT8H", got)
	}
	if got := isoDuration(1); got != "PT1H" {
		t.Errorf("isoDuration(1) = %q, want PT1H", got)
	}
}

func TestResolveJustification(t *testing.T) {
	tests := []struct {
		name       string
		provided   string
		prompter   *mockPrompter
		want       string
		wantErr    error
		wantPrompt int
	}{
		{name: "provided wins", provided: "deploying", prompter: &mockPrompter{answer: "ignored"}, want: "deploying"},
		{name: "provided is trimmed", provided: "  deploying  ", want: "deploying"},
		{name: "prompted when empty", provided: "", prompter: &mockPrompter{answer: "incident response"}, want: "incident response", wantPrompt: 1},
		{name: "prompt answer trimmed", provided: "", prompter: &mockPrompter{answer: "  ok  "}, want: "ok", wantPrompt: 1},
		{name: "no terminal tolerated", provided: "", prompter: &mockPrompter{err: ui.ErrNotInteractive}, wantErr: errJustificationRequired, wantPrompt: 1},
		{name: "empty answer rejected", provided: "", prompter: &mockPrompter{answer: "   "}, wantErr: errJustificationRequired, wantPrompt: 1},
		{name: "nil prompter rejected", provided: "", wantErr: errJustificationRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prompter justificationPrompter
			if tt.prompter != nil {
				prompter = tt.prompter
			}

			got, err := resolveJustification(tt.provided, prompter)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			} else if got != tt.want {
				t.Errorf("justification = %q, want %q", got, tt.want)
			}

			if tt.prompter != nil && tt.prompter.calls != tt.wantPrompt {
				t.Errorf("prompt calls = %d, want %d", tt.prompter.calls, tt.wantPrompt)
			}
		})
	}
}

func TestResolveJustification_PromptFailure(t *testing.T) {
	prompter := &mockPrompter{err: errors.New("stdin closed")}

	_, err := resolveJustification("", prompter)
	if err == nil || errors.Is(err, errJustificationRequired) {
		t.Fatalf("expected the prompt failure to propagate, got %v", err)
	}
}

func TestMatchDirectoryEligibility(t *testing.T) {
	instances := []models.EligibilityScheduleInstance{
		directoryEligibility("Exchange Administrator", "29232cdf-9323-42fd-ade2-1d097af3e4de"),
		directoryEligibility("Global Administrator", globalAdministratorRoleID),
	}

	tests := []struct {
		name     string
		roleName string
		roleID   string
		want     string
	}{
		{name: "by display name", roleName: "Global Administrator", want: globalAdministratorRoleID},
		{name: "case-insensitive name", roleName: "global administrator", want: globalAdministratorRoleID},
		{name: "by role definition ID", roleName: "Renamed Role", roleID: globalAdministratorRoleID, want: globalAdministratorRoleID},
		{name: "no match", roleName: "Billing Administrator", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchDirectoryEligibility(instances, tt.roleName, tt.roleID)
			if tt.want == "" {
				if got != nil {
					t.Errorf("expected no match, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a match")
			}
			if got.RoleDefinitionID != tt.want {
				t.Errorf("matched %q, want %q", got.RoleDefinitionID, tt.want)
			}
		})
	}
}

func TestMatchActiveDirectoryAssignment(t *testing.T) {
	instances := []models.AssignmentScheduleInstance{
		directoryAssignment("Global Administrator", globalAdministratorRoleID, models.AssignmentTypeAssigned),
		directoryAssignment("Global Administrator", globalAdministratorRoleID, models.AssignmentTypeActivated),
	}

	got := matchActiveDirectoryAssignment(instances, "Global Administrator", globalAdministratorRoleID)
	if got == nil {
		t.Fatal("expected a match on the activated instance")
	}
	if got.AssignmentType != models.AssignmentTypeActivated {
		t.Errorf("matched assignment type %q, want Activated", got.AssignmentType)
	}

	standingOnly := instances[:1]
	if got := matchActiveDirectoryAssignment(standingOnly, "Global Administrator", globalAdministratorRoleID); got != nil {
		t.Error("a standing assignment must never match as active")
	}
}

func TestFilterActivatedDirectory(t *testing.T) {
	instances := []models.AssignmentScheduleInstance{
		directoryAssignment("Global Administrator", globalAdministratorRoleID, models.AssignmentTypeActivated),
		directoryAssignment("User Administrator", "fe930be7-5e62-47db-91af-98c3a49a38b1", models.AssignmentTypeAssigned),
	}

	got := filterActivatedDirectory(instances)
	if len(got) != 1 {
		t.Fatalf("expected 1 activated instance, got %d", len(got))
	}
	if got[0].RoleName() != "Global Administrator" {
		t.Errorf("kept %q, want Global Administrator", got[0].RoleName())
	}
}

func TestDirectoryRoleID(t *testing.T) {
	if got := directoryRoleID("Global Administrator"); got != globalAdministratorRoleID {
		t.Errorf("directoryRoleID = %q, want the well-known ID", got)
	}
	if got := directoryRoleID("global ADMINISTRATOR"); got != globalAdministratorRoleID {
		t.Errorf("directoryRoleID should match case-insensitively, got %q", got)
	}
	if got := directoryRoleID("Exchange Administrator"); got != "" {
		t.Errorf("directoryRoleID = %q, want empty for non-default roles", got)
	}
}

func TestFormatExpiry(t *testing.T) {
	if got := formatExpiry(nil); got != "" {
		t.Errorf("formatExpiry(nil) = %q, want empty", got)
	}

	var zero time.Time
	if got := formatExpiry(&zero); got != "" {
		t.Errorf("formatExpiry(zero) = %q, want empty", got)
	}

	end := time.Date(2026, 3, 14, 15, 4, 0, 0, time.UTC)
	got := formatExpiry(&end)
	if !strings.HasPrefix(got, " - expires ") {
		t.Errorf("formatExpiry = %q, want an ' - expires ' prefix", got)
	}
}

func TestArmEndHelpers_NilSafe(t *testing.T) {
	if armEligibilityEnd(nil) != nil {
		t.Error("armEligibilityEnd(nil) should be nil")
	}
	if armEligibilityEnd(&armauthorization.RoleEligibilityScheduleInstance{}) != nil {
		t.Error("armEligibilityEnd without properties should be nil")
	}
	if armAssignmentEnd(nil) != nil {
		t.Error("armAssignmentEnd(nil) should be nil")
	}
	if armAssignmentEnd(&armauthorization.RoleAssignmentScheduleInstance{}) != nil {
		t.Error("armAssignmentEnd without properties should be nil")
	}
}

func TestRenderResults_SplitsStreams(t *testing.T) {
	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	renderResults(cmd, []roleResult{
		{Role: "Global Administrator", Scope: "directory", Outcome: outcomeSubmitted, Detail: "activation submitted for 8h (status Provisioned)"},
		{Role: "Owner", Scope: "/subscriptions/sub-1", Outcome: outcomeAlreadyActive},
		{Role: "Owner", Scope: "/subscriptions/sub-1", Outcome: outcomeNotActive},
		{Role: "Owner", Scope: "/subscriptions/sub-1", Outcome: outcomeFailed, Err: errors.New("token expired")},
	})

	stdout := out.String()
	stderr := errOut.String()

	for _, want := range []string{"activation submitted", "already active", "not active"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q\ngot:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "token expired") {
		t.Error("failures must not be written to stdout")
	}
	if !strings.Contains(stderr, "token expired") {
		t.Errorf("stderr missing the failure\ngot:\n%s", stderr)
	}
}

func TestBuildRunReport(t *testing.T) {
	report := buildRunReport("activate", "operator@contoso.com", []roleResult{
		{Role: "Global Administrator", Scope: "directory", Outcome: outcomeSubmitted, Detail: "activation submitted for 8h (status Provisioned)"},
		{Role: "Owner", Scope: "/subscriptions/sub-1", Outcome: outcomeFailed, Err: errors.New("token expired")},
	})

	if report.Action != "activate" || report.Operator != "operator@contoso.com" {
		t.Errorf("unexpected header: %+v", report)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report.Results))
	}
	if report.Results[0].Status != "submitted" || report.Results[0].Error != "" {
		t.Errorf("unexpected first result: %+v", report.Results[0])
	}
	if report.Results[1].Status != "failed" || report.Results[1].Error != "token expired" {
		t.Errorf("unexpected second result: %+v", report.Results[1])
	}
}

func TestFetchStatusData(t *testing.T) {
	directory := &mockDirectoryService{
		assignmentsFunc: func(ctx context.Context, principalID string) ([]models.AssignmentScheduleInstance, error) {
			return []models.AssignmentScheduleInstance{
				directoryAssignment("Global Administrator", globalAdministratorRoleID, models.AssignmentTypeActivated),
			}, nil
		},
	}
	subscription := &mockSubscriptionService{
		assignmentsFunc: func(ctx context.Context) ([]*armauthorization.RoleAssignmentScheduleInstance, error) {
			return nil, errors.New("listing denied")
		},
	}
	names := &mockNameResolver{name: "Production"}

	data := fetchStatusData(context.Background(), "user-1", directory, subscription, names)

	if data.directoryErr != nil || len(data.directory) != 1 {
		t.Errorf("unexpected directory data: %v / %v", data.directory, data.directoryErr)
	}
	if data.subscriptionErr == nil {
		t.Error("expected the subscription error to be carried")
	}
	if data.subscriptionName != "Production" {
		t.Errorf("subscriptionName = %q", data.subscriptionName)
	}
}

func TestFetchStatusData_NoSubscription(t *testing.T) {
	directory := &mockDirectoryService{}

	data := fetchStatusData(context.Background(), "user-1", directory, nil, nil)

	if data.subscription != nil || data.subscriptionErr != nil {
		t.Error("expected no subscription data without a service")
	}
	if data.subscriptionName != "" {
		t.Errorf("subscriptionName = %q, want empty", data.subscriptionName)
	}
}

func TestFetchStatusData_NameLookupDegrades(t *testing.T) {
	directory := &mockDirectoryService{}
	subscription := &mockSubscriptionService{}
	names := &mockNameResolver{err: errors.New("reader role missing")}

	data := fetchStatusData(context.Background(), "user-1", directory, subscription, names)

	if data.subscriptionName != "" {
		t.Errorf("subscriptionName = %q, want empty on lookup failure", data.subscriptionName)
	}
	if data.subscriptionErr != nil {
		t.Errorf("the name lookup failure must not poison the assignments: %v", data.subscriptionErr)
	}
}

func TestRoleOutcomeString(t *testing.T) {
	tests := []struct {
		outcome roleOutcome
		want    string
	}{
		{outcomeSubmitted, "submitted"},
		{outcomeAlreadyActive, "already-active"},
		{outcomeNotActive, "not-active"},
		{outcomeFailed, "failed"},
		{roleOutcome(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
