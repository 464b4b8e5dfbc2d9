// Package graph calls the Microsoft Graph role management endpoints used
// for directory role PIM self-service: eligibility discovery, activation
// and deactivation schedule requests, and operator resolution via /me.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"github.com/veritak-io/azpim/internal/graph/models"
)

const (
	defaultBaseURL = "https://graph.microsoft.com/v1.0"

	// tokenScope is the delegated scope requested for every Graph call.
	tokenScope = "https://graph.microsoft.com/.default"

	requestTimeout = 30 * time.Second
)

// doer issues HTTP requests. It allows dependency injection for testing.
type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the Graph role management API.
type Client struct {
	cred    azcore.TokenCredential
	http    doer
	baseURL string
}

// NewClient creates a Graph client that authenticates each request with a
// bearer token minted from cred.
func NewClient(cred azcore.TokenCredential) *Client {
	return &Client{
		cred:    cred,
		http:    newLoggingDoer(&http.Client{Timeout: requestTimeout}, nil),
		baseURL: defaultBaseURL,
	}
}

// NewClientWithDoer creates a client with a custom HTTP doer.
// This is primarily for testing with mock transports.
func NewClientWithDoer(cred azcore.TokenCredential, d doer) *Client {
	return &Client{
		cred:    cred,
		http:    d,
		baseURL: defaultBaseURL,
	}
}

// Me resolves the signed-in operator.
// GET /me
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, "/me?$select=id,displayName,userPrincipalName", &user); err != nil {
		return nil, fmt.Errorf("failed to resolve signed-in user: %w", err)
	}
	return &user, nil
}

// ListEligibilityScheduleInstances returns the principal's currently valid
// directory role eligibilities with role definitions expanded.
// GET /roleManagement/directory/roleEligibilityScheduleInstances
func (c *Client) ListEligibilityScheduleInstances(ctx context.Context, principalID string) ([]models.EligibilityScheduleInstance, error) {
	path := "/roleManagement/directory/roleEligibilityScheduleInstances?" + scheduleQuery(principalID)

	instances, err := listAll[models.EligibilityScheduleInstance](ctx, c, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list role eligibility: %w", err)
	}
	return instances, nil
}

// ListAssignmentScheduleInstances returns the principal's in-effect directory
// role assignments with role definitions expanded. Callers filter on
// AssignmentType to separate PIM activations from standing assignments.
// GET /roleManagement/directory/roleAssignmentScheduleInstances
func (c *Client) ListAssignmentScheduleInstances(ctx context.Context, principalID string) ([]models.AssignmentScheduleInstance, error) {
	path := "/roleManagement/directory/roleAssignmentScheduleInstances?" + scheduleQuery(principalID)

	instances, err := listAll[models.AssignmentScheduleInstance](ctx, c, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list active role assignments: %w", err)
	}
	return instances, nil
}

// CreateAssignmentScheduleRequest submits a self-service activation or
// deactivation. Backend rejections surface as *Error so callers can branch
// on the code.
// POST /roleManagement/directory/roleAssignmentScheduleRequests
func (c *Client) CreateAssignmentScheduleRequest(ctx context.Context, req *models.AssignmentScheduleRequest) (*models.AssignmentScheduleRequestResult, error) {
	if req == nil {
		return nil, fmt.Errorf("schedule request cannot be nil")
	}

	var result models.AssignmentScheduleRequestResult
	if err := c.post(ctx, "/roleManagement/directory/roleAssignmentScheduleRequests", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// scheduleQuery builds the principal filter + role definition expansion
// shared by both schedule instance endpoints.
func scheduleQuery(principalID string) string {
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("principalId eq '%s'", principalID))
	q.Set("$expand", "roleDefinition")
	return q.Encode()
}

// collection is the Graph OData collection envelope.
type collection[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// listAll follows @odata.nextLink until the collection is exhausted.
func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	next := c.baseURL + path

	for next != "" {
		var page collection[T]
		if err := c.getURL(ctx, next, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
		next = page.NextLink
	}

	return out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.getURL(ctx, c.baseURL+path, out)
}

func (c *Client) getURL(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.send(req, http.StatusOK, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, http.StatusCreated, out)
}

// send authorizes and executes req, decoding a 2xx body into out and any
// other status into an *Error.
func (c *Client) send(req *http.Request, wantStatus int, out any) error {
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus && resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			body = []byte("(failed to read response body)")
		}
		return decodeError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// authorize attaches a bearer token for the Graph scope.
func (c *Client) authorize(req *http.Request) error {
	token, err := c.cred.GetToken(req.Context(), policy.TokenRequestOptions{
		Scopes: []string{tokenScope},
	})
	if err != nil {
		return fmt.Errorf("failed to acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	return nil
}
