package cmd

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"

	"github.com/veritak-io/azpim/internal/graph"
	"github.com/veritak-io/azpim/internal/graph/models"
	"github.com/veritak-io/azpim/internal/rbac"
)

// testOwnerDefinitionID is the well-known Owner role definition, scoped to
// the test subscription.
const testOwnerDefinitionID = "/subscriptions/sub-1/providers/Microsoft.Authorization/roleDefinitions/8e3af657-a8ff-443c-a75c-2fe8c4bcb635"

// mockDirectoryService implements the directoryService interface for testing
type mockDirectoryService struct {
	meFunc          func(ctx context.Context) (*models.User, error)
	eligibilityFunc func(ctx context.Context, principalID string) ([]models.EligibilityScheduleInstance, error)
	assignmentsFunc func(ctx context.Context, principalID string) ([]models.AssignmentScheduleInstance, error)
	requestFunc     func(ctx context.Context, req *models.AssignmentScheduleRequest) (*models.AssignmentScheduleRequestResult, error)

	meCalls          int
	eligibilityCalls int
	assignmentCalls  int
	requestCalls     int
	requests         []*models.AssignmentScheduleRequest
}

func (m *mockDirectoryService) Me(ctx context.Context) (*models.User, error) {
	m.meCalls++
	if m.meFunc != nil {
		return m.meFunc(ctx)
	}
	return &models.User{ID: "user-1", DisplayName: "Operator", UserPrincipalName: "operator@contoso.com"}, nil
}

func (m *mockDirectoryService) ListEligibilityScheduleInstances(ctx context.Context, principalID string) ([]models.EligibilityScheduleInstance, error) {
	m.eligibilityCalls++
	if m.eligibilityFunc != nil {
		return m.eligibilityFunc(ctx, principalID)
	}
	return []models.EligibilityScheduleInstance{directoryEligibility("Global Administrator", globalAdministratorRoleID)}, nil
}

func (m *mockDirectoryService) ListAssignmentScheduleInstances(ctx context.Context, principalID string) ([]models.AssignmentScheduleInstance, error) {
	m.assignmentCalls++
	if m.assignmentsFunc != nil {
		return m.assignmentsFunc(ctx, principalID)
	}
	return nil, nil
}

func (m *mockDirectoryService) CreateAssignmentScheduleRequest(ctx context.Context, req *models.AssignmentScheduleRequest) (*models.AssignmentScheduleRequestResult, error) {
	m.requestCalls++
	m.requests = append(m.requests, req)
	if m.requestFunc != nil {
		return m.requestFunc(ctx, req)
	}
	return &models.AssignmentScheduleRequestResult{ID: "req-1", Status: "Provisioned", Action: req.Action}, nil
}

// mockSubscriptionService implements the subscriptionService interface for testing
type mockSubscriptionService struct {
	scope           string
	eligibilityFunc func(ctx context.Context) ([]*armauthorization.RoleEligibilityScheduleInstance, error)
	assignmentsFunc func(ctx context.Context) ([]*armauthorization.RoleAssignmentScheduleInstance, error)
	resolveFunc     func(ctx context.Context, roleName string) (*armauthorization.RoleDefinition, error)
	createFunc      func(ctx context.Context, name string, props *armauthorization.RoleAssignmentScheduleRequestProperties) (*armauthorization.RoleAssignmentScheduleRequest, error)

	eligibilityCalls int
	assignmentCalls  int
	resolveCalls     int
	createCalls      int
	createdNames     []string
	createdProps     []*armauthorization.RoleAssignmentScheduleRequestProperties
}

func (m *mockSubscriptionService) Scope() string {
	if m.scope != "" {
		return m.scope
	}
	return "/subscriptions/sub-1"
}

func (m *mockSubscriptionService) ListEligibility(ctx context.Context) ([]*armauthorization.RoleEligibilityScheduleInstance, error) {
	m.eligibilityCalls++
	if m.eligibilityFunc != nil {
		return m.eligibilityFunc(ctx)
	}
	return []*armauthorization.RoleEligibilityScheduleInstance{armEligibility("Owner", testOwnerDefinitionID, "elig-sched-1")}, nil
}

func (m *mockSubscriptionService) ListActiveAssignments(ctx context.Context) ([]*armauthorization.RoleAssignmentScheduleInstance, error) {
	m.assignmentCalls++
	if m.assignmentsFunc != nil {
		return m.assignmentsFunc(ctx)
	}
	return nil, nil
}

func (m *mockSubscriptionService) ResolveRoleDefinition(ctx context.Context, roleName string) (*armauthorization.RoleDefinition, error) {
	m.resolveCalls++
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, roleName)
	}
	return &armauthorization.RoleDefinition{
		ID: to.Ptr(testOwnerDefinitionID),
		Properties: &armauthorization.RoleDefinitionProperties{
			RoleName: to.Ptr("Owner"),
		},
	}, nil
}

func (m *mockSubscriptionService) CreateScheduleRequest(ctx context.Context, name string, props *armauthorization.RoleAssignmentScheduleRequestProperties) (*armauthorization.RoleAssignmentScheduleRequest, error) {
	m.createCalls++
	m.createdNames = append(m.createdNames, name)
	m.createdProps = append(m.createdProps, props)
	if m.createFunc != nil {
		return m.createFunc(ctx, name, props)
	}
	return &armauthorization.RoleAssignmentScheduleRequest{
		Properties: &armauthorization.RoleAssignmentScheduleRequestProperties{
			Status: to.Ptr(armauthorization.StatusProvisioned),
		},
	}, nil
}

// mockPrompter implements the justificationPrompter interface for testing
type mockPrompter struct {
	answer string
	err    error
	calls  int
}

func (m *mockPrompter) PromptJustification() (string, error) {
	m.calls++
	return m.answer, m.err
}

// mockAuthenticator implements the authenticator interface for testing
type mockAuthenticator struct {
	record azidentity.AuthenticationRecord
	err    error
	calls  int
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, opts *policy.TokenRequestOptions) (azidentity.AuthenticationRecord, error) {
	m.calls++
	return m.record, m.err
}

// mockRecordStore implements the recordSaver and recordClearer interfaces for testing
type mockRecordStore struct {
	saved      []azidentity.AuthenticationRecord
	saveErr    error
	clearErr   error
	clearCalls int
	path       string
}

func (m *mockRecordStore) Save(record azidentity.AuthenticationRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, record)
	return nil
}

func (m *mockRecordStore) Path() string {
	if m.path != "" {
		return m.path
	}
	return "/tmp/azpim-test/auth-record.json"
}

func (m *mockRecordStore) Clear() error {
	m.clearCalls++
	return m.clearErr
}

// mockNameResolver implements the subscriptionNameResolver interface for testing
type mockNameResolver struct {
	name string
	err  error
}

func (m *mockNameResolver) SubscriptionDisplayName(ctx context.Context) (string, error) {
	return m.name, m.err
}

// mockSelfUpdater implements the selfUpdater interface for testing
type mockSelfUpdater struct {
	release *selfupdate.Release
	err     error
	calls   int
	gotSlug string
}

func (m *mockSelfUpdater) UpdateSelf(current semver.Version, slug string) (*selfupdate.Release, error) {
	m.calls++
	m.gotSlug = slug
	return m.release, m.err
}

// directoryEligibility builds a directory eligibility instance for tests.
func directoryEligibility(roleName, roleDefinitionID string) models.EligibilityScheduleInstance {
	return models.EligibilityScheduleInstance{
		ID:               "elig-" + roleDefinitionID,
		PrincipalID:      "user-1",
		RoleDefinitionID: roleDefinitionID,
		DirectoryScopeID: "/",
		RoleDefinition:   &models.RoleDefinition{ID: roleDefinitionID, DisplayName: roleName},
	}
}

// directoryAssignment builds a directory assignment instance for tests.
func directoryAssignment(roleName, roleDefinitionID, assignmentType string) models.AssignmentScheduleInstance {
	return models.AssignmentScheduleInstance{
		ID:               "assign-" + roleDefinitionID,
		PrincipalID:      "user-1",
		RoleDefinitionID: roleDefinitionID,
		DirectoryScopeID: "/",
		AssignmentType:   assignmentType,
		RoleDefinition:   &models.RoleDefinition{ID: roleDefinitionID, DisplayName: roleName},
	}
}

// armEligibility builds a subscription eligibility instance for tests.
func armEligibility(roleName, roleDefinitionID, scheduleID string) *armauthorization.RoleEligibilityScheduleInstance {
	return &armauthorization.RoleEligibilityScheduleInstance{
		ID: to.Ptr("elig-inst-1"),
		Properties: &armauthorization.RoleEligibilityScheduleInstanceProperties{
			RoleDefinitionID:          to.Ptr(roleDefinitionID),
			RoleEligibilityScheduleID: to.Ptr(scheduleID),
			ExpandedProperties: &armauthorization.ExpandedProperties{
				RoleDefinition: &armauthorization.ExpandedPropertiesRoleDefinition{
					ID:          to.Ptr(roleDefinitionID),
					DisplayName: to.Ptr(roleName),
				},
			},
		},
	}
}

// armAssignment builds a subscription assignment instance for tests.
func armAssignment(roleName string, assignmentType armauthorization.AssignmentType) *armauthorization.RoleAssignmentScheduleInstance {
	return &armauthorization.RoleAssignmentScheduleInstance{
		ID: to.Ptr("assign-inst-1"),
		Properties: &armauthorization.RoleAssignmentScheduleInstanceProperties{
			AssignmentType:   to.Ptr(assignmentType),
			RoleDefinitionID: to.Ptr(testOwnerDefinitionID),
			Scope:            to.Ptr("/subscriptions/sub-1"),
			ExpandedProperties: &armauthorization.ExpandedProperties{
				RoleDefinition: &armauthorization.ExpandedPropertiesRoleDefinition{
					DisplayName: to.Ptr(roleName),
				},
			},
		},
	}
}

// graphConflictError mimics the Graph rejection for an already-active role.
func graphConflictError() error {
	return &graph.Error{StatusCode: 400, Code: graph.CodeRoleAssignmentExists, Message: "The Role assignment already exists."}
}

// graphNotActiveError mimics the Graph rejection for deactivating a role
// that is not active.
func graphNotActiveError() error {
	return &graph.Error{StatusCode: 400, Code: graph.CodeRoleAssignmentDoesNotExist, Message: "The Role assignment does not exist."}
}

// armConflictError mimics the ARM rejection for an already-active role.
func armConflictError() error {
	return &azcore.ResponseError{ErrorCode: rbac.CodeRoleAssignmentExists, StatusCode: 400}
}

// armNotActiveError mimics the ARM rejection for deactivating a role that is
// not active.
func armNotActiveError() error {
	return &azcore.ResponseError{ErrorCode: rbac.CodeRoleAssignmentDoesNotExist, StatusCode: 400}
}
