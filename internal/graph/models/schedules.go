package models

import (
	"encoding/json"
	"time"
)

// Assignment types reported on roleAssignmentScheduleInstances.
const (
	AssignmentTypeActivated = "Activated"
	AssignmentTypeAssigned  = "Assigned"
)

// RoleDefinition is a directory role definition, populated when the
// schedule endpoints are queried with $expand=roleDefinition.
type RoleDefinition struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	TemplateID  string `json:"templateId,omitempty"`
}

// EligibilityScheduleInstance represents a roleEligibilityScheduleInstance:
// one currently-valid eligibility the principal can self-activate.
type EligibilityScheduleInstance struct {
	ID                        string          `json:"id"`
	PrincipalID               string          `json:"principalId"`
	RoleDefinitionID          string          `json:"roleDefinitionId"`
	DirectoryScopeID          string          `json:"directoryScopeId"`
	MemberType                string          `json:"memberType,omitempty"`
	RoleEligibilityScheduleID string          `json:"roleEligibilityScheduleId,omitempty"`
	StartDateTime             *time.Time      `json:"startDateTime,omitempty"`
	EndDateTime               *time.Time      `json:"endDateTime,omitempty"`
	RoleDefinition            *RoleDefinition `json:"roleDefinition,omitempty"`
}

// AssignmentScheduleInstance represents a roleAssignmentScheduleInstance:
// an assignment that is in effect right now. AssignmentType distinguishes
// PIM activations ("Activated") from standing assignments ("Assigned").
type AssignmentScheduleInstance struct {
	ID                       string          `json:"id"`
	PrincipalID              string          `json:"principalId"`
	RoleDefinitionID         string          `json:"roleDefinitionId"`
	DirectoryScopeID         string          `json:"directoryScopeId"`
	AssignmentType           string          `json:"assignmentType"`
	RoleAssignmentScheduleID string          `json:"roleAssignmentScheduleId,omitempty"`
	StartDateTime            *time.Time      `json:"startDateTime,omitempty"`
	EndDateTime              *time.Time      `json:"endDateTime,omitempty"`
	RoleDefinition           *RoleDefinition `json:"roleDefinition,omitempty"`
}

// RoleName returns the expanded role definition display name, falling back
// to the raw role definition ID when the expansion is missing.
func (i EligibilityScheduleInstance) RoleName() string {
	if i.RoleDefinition != nil && i.RoleDefinition.DisplayName != "" {
		return i.RoleDefinition.DisplayName
	}
	return i.RoleDefinitionID
}

// RoleName returns the expanded role definition display name, falling back
// to the raw role definition ID when the expansion is missing.
func (i AssignmentScheduleInstance) RoleName() string {
	if i.RoleDefinition != nil && i.RoleDefinition.DisplayName != "" {
		return i.RoleDefinition.DisplayName
	}
	return i.RoleDefinitionID
}

// UnmarshalJSON tolerates schedule instances whose datetime fields are empty
// strings rather than absent, which some tenants emit for permanent grants.
func (i *EligibilityScheduleInstance) UnmarshalJSON(data []byte) error {
	type Alias EligibilityScheduleInstance
	aux := &struct {
		*Alias
		StartDateTime json.RawMessage `json:"startDateTime,omitempty"`
		EndDateTime   json.RawMessage `json:"endDateTime,omitempty"`
	}{
		Alias: (*Alias)(i),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	var err error
	if i.StartDateTime, err = parseOptionalTime(aux.StartDateTime); err != nil {
		return err
	}
	i.EndDateTime, err = parseOptionalTime(aux.EndDateTime)
	return err
}

// UnmarshalJSON applies the same empty-string datetime tolerance to
// assignment instances.
func (i *AssignmentScheduleInstance) UnmarshalJSON(data []byte) error {
	type Alias AssignmentScheduleInstance
	aux := &struct {
		*Alias
		StartDateTime json.RawMessage `json:"startDateTime,omitempty"`
		EndDateTime   json.RawMessage `json:"endDateTime,omitempty"`
	}{
		Alias: (*Alias)(i),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	var err error
	if i.StartDateTime, err = parseOptionalTime(aux.StartDateTime); err != nil {
		return err
	}
	i.EndDateTime, err = parseOptionalTime(aux.EndDateTime)
	return err
}

// parseOptionalTime decodes an RFC 3339 timestamp, treating null and the
// empty string as absent.
func parseOptionalTime(raw json.RawMessage) (*time.Time, error) {
	if len(raw) == 0 || string(raw) == `null` || string(raw) == `""` {
		return nil, nil
	}
	var t time.Time
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
