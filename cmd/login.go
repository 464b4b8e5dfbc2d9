package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/spf13/cobra"

	"github.com/veritak-io/azpim/internal/azauth"
	"github.com/veritak-io/azpim/internal/config"
)

// loginTimeout bounds the interactive sign-in, browser round-trip included.
const loginTimeout = 5 * time.Minute

// graphScope is the scope requested during the initial sign-in. Tokens for
// ARM are requested per call later against the same cached record.
const graphScope = "https://graph.microsoft.com/.default"

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to Microsoft Entra ID",
		Long: `Sign in interactively and persist the authentication record so later
commands reuse the cached tokens without prompting again.

By default a browser window is opened; pass --device-code on hosts
without one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, _ := cmd.Flags().GetString("tenant")

			cfg, _, err := config.LoadDefaultWithPath()
			if err != nil {
				return err
			}
			if tenant == "" {
				tenant = cfg.TenantID
			}
			if config.IsPlaceholder(tenant) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning: no tenant configured, signing in against the 'organizations' authority. Run 'azpim configure' to pin a tenant.")
			}

			// No record here: login is an explicit re-authentication.
			cred, err := azauth.NewCredential(azauth.Options{
				TenantID:      tenant,
				ClientID:      cfg.ClientID,
				UseDeviceCode: useDeviceCode,
			})
			if err != nil {
				return err
			}

			store, err := azauth.NewRecordStore()
			if err != nil {
				return err
			}

			return runLogin(cmd, cred, store)
		},
	}

	cmd.Flags().String("tenant", "", "tenant ID override")

	return cmd
}

// NewLoginCommandWithDeps creates a login command with injected dependencies for testing
func NewLoginCommandWithDeps(auth authenticator, saver recordSaver) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in to Microsoft Entra ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, auth, saver)
		},
	}
}

func runLogin(cmd *cobra.Command, auth authenticator, saver recordSaver) error {
	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	log.Debugf("starting interactive sign-in")
	record, err := auth.Authenticate(ctx, &policy.TokenRequestOptions{
		Scopes: []string{graphScope},
	})
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	if err := saver.Save(record); err != nil {
		return fmt.Errorf("failed to persist auth record: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", record.Username)
	fmt.Fprintf(cmd.OutOrStdout(), "Auth record saved to %s\n", saver.Path())
	return nil
}
