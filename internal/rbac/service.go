// Package rbac drives PIM self-service for Azure RBAC roles at subscription
// scope through the ARM authorization API: eligibility discovery, activation
// and deactivation schedule requests, and role definition lookup.
package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/sirupsen/logrus"
)

// ARM error codes for the benign schedule request conflicts.
const (
	// CodeRoleAssignmentExists is returned when the requested role is
	// already active for the principal.
	CodeRoleAssignmentExists = "RoleAssignmentExists"
	// CodeRoleAssignmentDoesNotExist is returned when deactivating a role
	// that is not active.
	CodeRoleAssignmentDoesNotExist = "RoleAssignmentDoesNotExist"
)

// asTargetFilter limits schedule listings to entries where the caller is the
// target principal.
const asTargetFilter = "asTarget()"

// Service wraps the ARM clients used for PIM schedule operations on one
// subscription.
type Service struct {
	subscriptionID string
	scope          string
	eligibility    *armauthorization.RoleEligibilityScheduleInstancesClient
	assignments    *armauthorization.RoleAssignmentScheduleInstancesClient
	requests       *armauthorization.RoleAssignmentScheduleRequestsClient
	definitions    *armauthorization.RoleDefinitionsClient
	subscriptions  *armsubscriptions.Client
}

// NewService creates a Service scoped to the given subscription.
func NewService(subscriptionID string, cred azcore.TokenCredential, opts *arm.ClientOptions) (*Service, error) {
	factory, err := armauthorization.NewClientFactory(subscriptionID, cred, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization clients: %w", err)
	}

	subs, err := armsubscriptions.NewClient(cred, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscriptions client: %w", err)
	}

	return &Service{
		subscriptionID: subscriptionID,
		scope:          "/subscriptions/" + subscriptionID,
		eligibility:    factory.NewRoleEligibilityScheduleInstancesClient(),
		assignments:    factory.NewRoleAssignmentScheduleInstancesClient(),
		requests:       factory.NewRoleAssignmentScheduleRequestsClient(),
		definitions:    factory.NewRoleDefinitionsClient(),
		subscriptions:  subs,
	}, nil
}

// Scope returns the ARM scope string the service operates on.
func (s *Service) Scope() string {
	return s.scope
}

// ListEligibility returns the caller's eligibility schedule instances at the
// subscription scope.
func (s *Service) ListEligibility(ctx context.Context) ([]*armauthorization.RoleEligibilityScheduleInstance, error) {
	pager := s.eligibility.NewListForScopePager(s.scope, &armauthorization.RoleEligibilityScheduleInstancesClientListForScopeOptions{
		Filter: to.Ptr(asTargetFilter),
	})

	var out []*armauthorization.RoleEligibilityScheduleInstance
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list role eligibility at %s: %w", s.scope, err)
		}
		out = append(out, page.Value...)
	}

	logrus.Debugf("found %d eligibility schedule instances at %s", len(out), s.scope)
	return out, nil
}

// ListActiveAssignments returns the caller's assignment schedule instances at
// the subscription scope. The result includes standing assignments; use
// FilterActivated to keep only PIM activations.
func (s *Service) ListActiveAssignments(ctx context.Context) ([]*armauthorization.RoleAssignmentScheduleInstance, error) {
	pager := s.assignments.NewListForScopePager(s.scope, &armauthorization.RoleAssignmentScheduleInstancesClientListForScopeOptions{
		Filter: to.Ptr(asTargetFilter),
	})

	var out []*armauthorization.RoleAssignmentScheduleInstance
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active role assignments at %s: %w", s.scope, err)
		}
		out = append(out, page.Value...)
	}

	logrus.Debugf("found %d assignment schedule instances at %s", len(out), s.scope)
	return out, nil
}

// ResolveRoleDefinition finds a role definition at the subscription scope by
// display name (case-insensitive).
func (s *Service) ResolveRoleDefinition(ctx context.Context, roleName string) (*armauthorization.RoleDefinition, error) {
	pager := s.definitions.NewListPager(s.scope, &armauthorization.RoleDefinitionsClientListOptions{
		Filter: to.Ptr(fmt.Sprintf("roleName eq '%s'", roleName)),
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to look up role definition %q: %w", roleName, err)
		}
		for _, def := range page.Value {
			if def.Properties != nil && def.Properties.RoleName != nil && strings.EqualFold(*def.Properties.RoleName, roleName) {
				return def, nil
			}
		}
	}

	return nil, fmt.Errorf("role definition %q not found at %s", roleName, s.scope)
}

// CreateScheduleRequest submits a role assignment schedule request under the
// client-generated request name, which doubles as the idempotency token.
func (s *Service) CreateScheduleRequest(ctx context.Context, name string, props *armauthorization.RoleAssignmentScheduleRequestProperties) (*armauthorization.RoleAssignmentScheduleRequest, error) {
	resp, err := s.requests.Create(ctx, s.scope, name, armauthorization.RoleAssignmentScheduleRequest{
		Properties: props,
	}, nil)
	if err != nil {
		return nil, err
	}
	return &resp.RoleAssignmentScheduleRequest, nil
}

// SubscriptionDisplayName resolves the subscription's display name for
// friendlier output.
func (s *Service) SubscriptionDisplayName(ctx context.Context) (string, error) {
	resp, err := s.subscriptions.Get(ctx, s.subscriptionID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to resolve subscription %s: %w", s.subscriptionID, err)
	}
	if resp.DisplayName == nil {
		return "", nil
	}
	return *resp.DisplayName, nil
}

// NewSelfActivateProperties builds the request properties for activating an
// eligible role. duration is an ISO 8601 duration such as "PT8H".
func NewSelfActivateProperties(principalID, roleDefinitionID, linkedEligibilityScheduleID, justification, duration string) *armauthorization.RoleAssignmentScheduleRequestProperties {
	props := &armauthorization.RoleAssignmentScheduleRequestProperties{
		PrincipalID:      to.Ptr(principalID),
		RoleDefinitionID: to.Ptr(roleDefinitionID),
		RequestType:      to.Ptr(armauthorization.RequestTypeSelfActivate),
		Justification:    to.Ptr(justification),
		ScheduleInfo: &armauthorization.RoleAssignmentScheduleRequestPropertiesScheduleInfo{
			StartDateTime: to.Ptr(time.Now().UTC()),
			Expiration: &armauthorization.RoleAssignmentScheduleRequestPropertiesScheduleInfoExpiration{
				Type:     to.Ptr(armauthorization.TypeAfterDuration),
				Duration: to.Ptr(duration),
			},
		},
	}
	if linkedEligibilityScheduleID != "" {
		props.LinkedRoleEligibilityScheduleID = to.Ptr(linkedEligibilityScheduleID)
	}
	return props
}

// NewSelfDeactivateProperties builds the request properties for dropping an
// active role. Deactivation carries no schedule window.
func NewSelfDeactivateProperties(principalID, roleDefinitionID, justification string) *armauthorization.RoleAssignmentScheduleRequestProperties {
	return &armauthorization.RoleAssignmentScheduleRequestProperties{
		PrincipalID:      to.Ptr(principalID),
		RoleDefinitionID: to.Ptr(roleDefinitionID),
		RequestType:      to.Ptr(armauthorization.RequestTypeSelfDeactivate),
		Justification:    to.Ptr(justification),
	}
}

// IsRoleAssignmentExists reports whether err is the ARM conflict returned
// when the role is already active. Detection uses the structured error code,
// never the message text.
func IsRoleAssignmentExists(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == CodeRoleAssignmentExists
}

// IsRoleAssignmentDoesNotExist reports whether err is the ARM error returned
// when deactivating a role that is not active.
func IsRoleAssignmentDoesNotExist(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == CodeRoleAssignmentDoesNotExist
}

// FilterActivated keeps only instances whose assignment type is Activated,
// dropping standing assignments.
func FilterActivated(instances []*armauthorization.RoleAssignmentScheduleInstance) []*armauthorization.RoleAssignmentScheduleInstance {
	var out []*armauthorization.RoleAssignmentScheduleInstance
	for _, inst := range instances {
		if inst.Properties == nil || inst.Properties.AssignmentType == nil {
			continue
		}
		if *inst.Properties.AssignmentType == armauthorization.AssignmentTypeActivated {
			out = append(out, inst)
		}
	}
	return out
}

// MatchEligibility returns the first eligibility instance for the given role,
// matching the full role definition ID or the expanded display name.
func MatchEligibility(instances []*armauthorization.RoleEligibilityScheduleInstance, roleDefinitionID, roleName string) *armauthorization.RoleEligibilityScheduleInstance {
	for _, inst := range instances {
		if inst.Properties == nil {
			continue
		}
		if inst.Properties.RoleDefinitionID != nil && roleDefinitionID != "" &&
			strings.EqualFold(*inst.Properties.RoleDefinitionID, roleDefinitionID) {
			return inst
		}
		if name := expandedRoleName(inst.Properties.ExpandedProperties); name != "" && strings.EqualFold(name, roleName) {
			return inst
		}
	}
	return nil
}

// MatchActiveAssignment returns the first Activated instance whose expanded
// role definition display name matches roleName.
func MatchActiveAssignment(instances []*armauthorization.RoleAssignmentScheduleInstance, roleName string) *armauthorization.RoleAssignmentScheduleInstance {
	for _, inst := range FilterActivated(instances) {
		if name := expandedRoleName(inst.Properties.ExpandedProperties); name != "" && strings.EqualFold(name, roleName) {
			return inst
		}
	}
	return nil
}

// RoleDisplayName returns the expanded role definition display name of an
// assignment instance, falling back to the raw role definition ID.
func RoleDisplayName(inst *armauthorization.RoleAssignmentScheduleInstance) string {
	if inst == nil || inst.Properties == nil {
		return ""
	}
	if name := expandedRoleName(inst.Properties.ExpandedProperties); name != "" {
		return name
	}
	if inst.Properties.RoleDefinitionID != nil {
		return *inst.Properties.RoleDefinitionID
	}
	return ""
}

// EligibleRoleDisplayName returns the expanded role definition display name
// of an eligibility instance, falling back to the raw role definition ID.
func EligibleRoleDisplayName(inst *armauthorization.RoleEligibilityScheduleInstance) string {
	if inst == nil || inst.Properties == nil {
		return ""
	}
	if name := expandedRoleName(inst.Properties.ExpandedProperties); name != "" {
		return name
	}
	if inst.Properties.RoleDefinitionID != nil {
		return *inst.Properties.RoleDefinitionID
	}
	return ""
}

func expandedRoleName(props *armauthorization.ExpandedProperties) string {
	if props == nil || props.RoleDefinition == nil || props.RoleDefinition.DisplayName == nil {
		return ""
	}
	return *props.RoleDefinition.DisplayName
}
