// Package azauth builds Entra ID credentials for the CLI and persists the
// authentication record so later runs can reuse the token cache silently.
package azauth

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity/cache"
	"github.com/sirupsen/logrus"

	"github.com/veritak-io/azpim/internal/config"
)

// DefaultClientID is the Azure PowerShell public client. It is pre-consented
// for Microsoft Graph and ARM user scopes in every tenant, so sign-in works
// without registering an app.
const DefaultClientID = "1950a258-227b-4e31-a9cf-717495945fc2"

// cacheName keys the persistent token cache shared across runs.
const cacheName = "azpim"

// Options configures credential construction.
type Options struct {
	// TenantID to authenticate against. Empty or placeholder values fall back
	// to the "organizations" authority.
	TenantID string

	// ClientID of the public client application. Defaults to DefaultClientID.
	ClientID string

	// Record from a previous Authenticate call, enabling silent sign-in.
	Record azidentity.AuthenticationRecord

	// UseDeviceCode switches from the browser flow to the device code flow,
	// for hosts without a usable browser.
	UseDeviceCode bool
}

// Credential is a token credential that can also run an explicit sign-in and
// report who signed in. Both azidentity interactive credential types
// implement it.
type Credential interface {
	azcore.TokenCredential
	Authenticate(ctx context.Context, opts *policy.TokenRequestOptions) (azidentity.AuthenticationRecord, error)
}

// NewCredential builds an interactive credential per opts. Tokens are cached
// persistently when the host supports it; otherwise the credential falls back
// to an in-memory cache and sign-in is required each run.
func NewCredential(opts Options) (Credential, error) {
	tenant := effectiveTenant(opts.TenantID)
	clientID := opts.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}

	tokenCache, err := cache.New(&cache.Options{Name: cacheName})
	if err != nil {
		logrus.Debugf("persistent token cache unavailable, tokens will not survive this run: %v", err)
		tokenCache = azidentity.Cache{}
	}

	if opts.UseDeviceCode {
		cred, err := azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
			TenantID:             tenant,
			ClientID:             clientID,
			AuthenticationRecord: opts.Record,
			Cache:                tokenCache,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create device code credential: %w", err)
		}
		return cred, nil
	}

	cred, err := azidentity.NewInteractiveBrowserCredential(&azidentity.InteractiveBrowserCredentialOptions{
		TenantID:             tenant,
		ClientID:             clientID,
		AuthenticationRecord: opts.Record,
		Cache:                tokenCache,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser credential: %w", err)
	}
	return cred, nil
}

// effectiveTenant maps unset or placeholder tenant IDs to the multi-tenant
// "organizations" authority so sign-in still works before configuration.
func effectiveTenant(tenantID string) string {
	if config.IsPlaceholder(tenantID) {
		return "organizations"
	}
	return tenantID
}
