package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error codes the CLI branches on. The backend reports a conflicting
// activation and a missing assignment with stable codes, so detection never
// relies on message text.
const (
	CodeRoleAssignmentExists       = "RoleAssignmentExists"
	CodeRoleAssignmentDoesNotExist = "RoleAssignmentDoesNotExist"
)

// Error is a Graph API rejection decoded from the standard error envelope.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("graph request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("graph request failed with status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// apiError is the wire envelope for Graph errors.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeError builds an *Error from a non-2xx response body. Bodies that are
// not the standard envelope are preserved verbatim in the message.
func decodeError(statusCode int, body []byte) *Error {
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != "" {
		return &Error{
			StatusCode: statusCode,
			Code:       envelope.Error.Code,
			Message:    envelope.Error.Message,
		}
	}
	return &Error{
		StatusCode: statusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}

// IsRoleAssignmentExists reports whether err is the backend conflict returned
// when the requested role is already active for the principal.
func IsRoleAssignmentExists(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Code == CodeRoleAssignmentExists
}

// IsRoleAssignmentDoesNotExist reports whether err is the backend rejection
// for deactivating an assignment that is no longer in effect.
func IsRoleAssignmentDoesNotExist(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Code == CodeRoleAssignmentDoesNotExist
}
