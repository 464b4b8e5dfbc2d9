package models

import "time"

// Actions accepted by roleAssignmentScheduleRequests for self-service PIM.
const (
	ActionSelfActivate   = "selfActivate"
	ActionSelfDeactivate = "selfDeactivate"
)

// Expiration types for scheduleInfo.expiration.
const (
	ExpirationAfterDuration = "afterDuration"
	ExpirationNoExpiration  = "noExpiration"
)

// Expiration describes when a requested assignment ends. Duration is an
// ISO 8601 duration such as "PT8H".
type Expiration struct {
	Type     string `json:"type"`
	Duration string `json:"duration,omitempty"`
}

// ScheduleInfo carries the requested activation window.
type ScheduleInfo struct {
	StartDateTime *time.Time  `json:"startDateTime,omitempty"`
	Expiration    *Expiration `json:"expiration,omitempty"`
}

// AssignmentScheduleRequest is the body for
// POST /roleManagement/directory/roleAssignmentScheduleRequests.
// Deactivation requests carry no ScheduleInfo.
type AssignmentScheduleRequest struct {
	Action           string        `json:"action"`
	PrincipalID      string        `json:"principalId"`
	RoleDefinitionID string        `json:"roleDefinitionId"`
	DirectoryScopeID string        `json:"directoryScopeId"`
	Justification    string        `json:"justification,omitempty"`
	ScheduleInfo     *ScheduleInfo `json:"scheduleInfo,omitempty"`
}

// AssignmentScheduleRequestResult is the created request resource returned
// by the backend.
type AssignmentScheduleRequestResult struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Action           string `json:"action"`
	PrincipalID      string `json:"principalId"`
	RoleDefinitionID string `json:"roleDefinitionId"`
	DirectoryScopeID string `json:"directoryScopeId"`
	CreatedDateTime  string `json:"createdDateTime,omitempty"`
}
