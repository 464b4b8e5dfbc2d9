package cmd

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"

	"github.com/veritak-io/azpim/internal/graph/models"
)

// operatorResolver interface for resolving the signed-in user
type operatorResolver interface {
	Me(ctx context.Context) (*models.User, error)
}

// directoryEligibilityLister interface for listing directory role eligibility
type directoryEligibilityLister interface {
	ListEligibilityScheduleInstances(ctx context.Context, principalID string) ([]models.EligibilityScheduleInstance, error)
}

// directoryAssignmentLister interface for listing in-effect directory role assignments
type directoryAssignmentLister interface {
	ListAssignmentScheduleInstances(ctx context.Context, principalID string) ([]models.AssignmentScheduleInstance, error)
}

// directoryRequester interface for submitting directory role schedule requests
type directoryRequester interface {
	CreateAssignmentScheduleRequest(ctx context.Context, req *models.AssignmentScheduleRequest) (*models.AssignmentScheduleRequestResult, error)
}

// directoryService is the full Graph surface the commands use.
// Satisfied by *graph.Client.
type directoryService interface {
	operatorResolver
	directoryEligibilityLister
	directoryAssignmentLister
	directoryRequester
}

// subscriptionEligibilityLister interface for listing subscription role eligibility
type subscriptionEligibilityLister interface {
	ListEligibility(ctx context.Context) ([]*armauthorization.RoleEligibilityScheduleInstance, error)
}

// subscriptionService is the ARM surface the commands use.
// Satisfied by *rbac.Service.
type subscriptionService interface {
	subscriptionEligibilityLister
	Scope() string
	ListActiveAssignments(ctx context.Context) ([]*armauthorization.RoleAssignmentScheduleInstance, error)
	ResolveRoleDefinition(ctx context.Context, roleName string) (*armauthorization.RoleDefinition, error)
	CreateScheduleRequest(ctx context.Context, name string, props *armauthorization.RoleAssignmentScheduleRequestProperties) (*armauthorization.RoleAssignmentScheduleRequest, error)
}

// subscriptionNameResolver interface for friendly subscription names
type subscriptionNameResolver interface {
	SubscriptionDisplayName(ctx context.Context) (string, error)
}

// justificationPrompter interface for interactive justification input
type justificationPrompter interface {
	PromptJustification() (string, error)
}

// authenticator interface for explicit sign-in
type authenticator interface {
	Authenticate(ctx context.Context, opts *policy.TokenRequestOptions) (azidentity.AuthenticationRecord, error)
}

// recordLoader interface for reading the persisted auth record
type recordLoader interface {
	Load() (azidentity.AuthenticationRecord, error)
}

// recordSaver interface for persisting the auth record after sign-in
type recordSaver interface {
	Save(record azidentity.AuthenticationRecord) error
	Path() string
}

// recordClearer interface for discarding the persisted auth record
type recordClearer interface {
	Clear() error
}

// selfUpdater interface for binary self-update
type selfUpdater interface {
	UpdateSelf(current semver.Version, slug string) (*selfupdate.Release, error)
}
