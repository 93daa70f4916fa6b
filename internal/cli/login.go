package cli

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eisenvault/evshare/internal/api"
	"github.com/eisenvault/evshare/internal/config"
	internalhttp "github.com/eisenvault/evshare/internal/http"
)

// newLoginCmd creates the 'login' command.
func newLoginCmd() *cobra.Command {
	var (
		values   config.CredentialValues
		username string
		password string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save DMS credentials to the shared store",
		Long: `Save the DMS address and credentials that share sessions use.

The EisenVault app normally does this after you sign in. Use this command
on machines without the app, or to switch accounts.

Example:
  # Classic instance with a username (password is prompted)
  evshare login --url https://dms.example.com/alfresco --instance classic --username jdoe

  # Angora instance with an existing token
  evshare login --url https://acme.eisenvault.net --instance angora \
    --token "Bearer eyJ..." --customer-hostname acme.eisenvault.net`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			if values.AuthToken == "" {
				if username == "" {
					return fmt.Errorf("either --token or --username is required")
				}
				if password == "" {
					var err error
					password, err = promptPassword(fmt.Sprintf("Password for %s: ", username))
					if err != nil {
						return fmt.Errorf("failed to read password: %w", err)
					}
				}
				values.AuthToken = basicToken(username, password)
			}
			values.BaseURL = strings.TrimSpace(values.BaseURL)

			creds, err := config.ParseCredentials(map[string]string{
				config.KeyBaseURL:          values.BaseURL,
				config.KeyAuthToken:        values.AuthToken,
				config.KeyInstanceType:     values.InstanceType,
				config.KeyCustomerHostname: values.CustomerHostname,
			})
			if err != nil {
				return err
			}

			if !noVerify {
				cfg, err := loadConfig()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				httpClient, err := internalhttp.NewClient(cfg, logger, creds.BaseURL)
				if err != nil {
					return fmt.Errorf("failed to create HTTP client: %w", err)
				}
				backend, err := api.NewBackend(creds, httpClient, logger)
				if err != nil {
					return displayError(err)
				}
				roots, err := backend.ListRoot(GetContext())
				if err != nil {
					return fmt.Errorf("login check failed: %w", displayError(err))
				}
				logger.Debug().Int("entries", len(roots)).Msg("Login verified")
			}

			// A fresh login replaces every field, including an old customer hostname
			store := openStore()
			if err := store.ClearCredentials(); err != nil {
				return err
			}
			values.BaseURL = creds.BaseURL
			if err := store.SaveCredentials(values); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in to %s (%s)\n", creds.BaseURL, creds.InstanceType)
			fmt.Fprintf(cmd.OutOrStdout(), "  Credentials saved to %s\n", store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&values.BaseURL, "url", "", "DMS base URL (required)")
	cmd.Flags().StringVar(&values.InstanceType, "instance", "classic", "Instance type: classic or angora")
	cmd.Flags().StringVar(&values.AuthToken, "token", "", "Authorization header value, used verbatim")
	cmd.Flags().StringVar(&values.CustomerHostname, "customer-hostname", "", "Customer hostname (Angora only)")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username for basic authentication")
	cmd.Flags().StringVar(&password, "password", os.Getenv("EVSHARE_PASSWORD"), "Password (default $EVSHARE_PASSWORD, prompted if empty)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Save without checking the credentials against the server")

	cmd.MarkFlagRequired("url")

	return cmd
}

// basicToken builds a Basic Authorization value.
func basicToken(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// newLogoutCmd creates the 'logout' command.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove saved DMS credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore()
			if err := store.ClearCredentials(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Credentials removed from %s\n", store.Path())
			return nil
		},
	}
}
