package cmd

// roleResultOutput is the JSON representation of one role operation outcome.
type roleResultOutput struct {
	Role   string `json:"role"`
	Scope  string `json:"scope"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// runReport is the JSON representation of an activate or deactivate run.
type runReport struct {
	Action   string             `json:"action"`
	Operator string             `json:"operator"`
	Results  []roleResultOutput `json:"results"`
}

// activeAssignmentOutput is the JSON representation of an in-effect assignment.
type activeAssignmentOutput struct {
	Role      string `json:"role"`
	Scope     string `json:"scope"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// statusOutput is the JSON representation of azpim status.
type statusOutput struct {
	SignedIn         bool                     `json:"signedIn"`
	Username         string                   `json:"username,omitempty"`
	SubscriptionName string                   `json:"subscriptionName,omitempty"`
	Directory        []activeAssignmentOutput `json:"directory"`
	Subscription     []activeAssignmentOutput `json:"subscription"`
}

// eligibilityOutput is the JSON representation of one eligible role.
type eligibilityOutput struct {
	Role      string `json:"role"`
	Scope     string `json:"scope"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// eligibilityReport is the JSON representation of the list command result.
type eligibilityReport struct {
	Directory    []eligibilityOutput `json:"directory"`
	Subscription []eligibilityOutput `json:"subscription"`
}
