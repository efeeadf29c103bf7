package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ticvision/ticvision/internal/database"
	"github.com/ticvision/ticvision/internal/models"
	"github.com/ticvision/ticvision/internal/services/oidc"
)

// NewOIDCCmd creates the oidc command with set, list, test and delete subcommands
func NewOIDCCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oidc",
		Short: "Manage identity providers",
		Long:  "Configure the OIDC provider whose ID tokens the API accepts (Firebase by default).",
	}
	cmd.AddCommand(newOIDCSetCmd(v))
	cmd.AddCommand(newOIDCListCmd(v))
	cmd.AddCommand(newOIDCTestCmd(v))
	cmd.AddCommand(newOIDCDeleteCmd(v))
	return cmd
}

type oidcSetOptions struct {
	issuer          string
	firebaseProject string
	domain          string
	clientID        string
	clientSecret    string
	redirectURI     string
	jwksURL         string
}

// build validates opts and returns the config to store for provider
func (o oidcSetOptions) build(provider string) (*models.OIDCConfig, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return nil, errors.New("provider name cannot be empty")
	}
	if o.issuer != "" && o.firebaseProject != "" {
		return nil, errors.New("use either --issuer or --firebase-project, not both")
	}

	issuer := o.issuer
	clientID := o.clientID
	if o.firebaseProject != "" {
		issuer = oidc.FirebaseIssuer(o.firebaseProject)
		// Firebase ID tokens carry the project ID as audience
		if clientID == "" {
			clientID = o.firebaseProject
		}
	}
	if issuer == "" || clientID == "" {
		return nil, errors.New("required flags: --issuer and --client-id, or --firebase-project")
	}

	c := &models.OIDCConfig{
		ID:          uuid.New(),
		Provider:    provider,
		Issuer:      strings.TrimSuffix(issuer, "/"),
		ClientID:    clientID,
		RedirectURI: o.redirectURI,
	}
	if o.domain != "" {
		c.Domain = &o.domain
	}
	if o.clientSecret != "" {
		c.ClientSecret = &o.clientSecret
	}
	if o.jwksURL != "" {
		c.JWKSUrl = &o.jwksURL
	}
	return c, nil
}

func newOIDCSetCmd(v *viper.Viper) *cobra.Command {
	var opts oidcSetOptions

	cmd := &cobra.Command{
		Use:   "set <provider-name>",
		Short: "Create or update a provider",
		Example: "  ticvision-configure oidc set firebase --firebase-project my-project\n" +
			"  ticvision-configure oidc set okta --issuer https://example.okta.com --client-id abc --redirect-uri https://app/cb",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.build(args[0])
			if err != nil {
				return err
			}

			db, _, err := openDB(v)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.NewOIDCConfigRepository(db).Upsert(cmd.Context(), c); err != nil {
				return fmt.Errorf("failed to save OIDC config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved OIDC configuration for provider: %s\n", c.Provider)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.issuer, "issuer", "", "OIDC issuer URL")
	cmd.Flags().StringVar(&opts.firebaseProject, "firebase-project", "", "Firebase project ID; sets issuer and client ID")
	cmd.Flags().StringVar(&opts.domain, "domain", "", "Hosted login domain (optional)")
	cmd.Flags().StringVar(&opts.clientID, "client-id", "", "OAuth2 client ID (token audience)")
	cmd.Flags().StringVar(&opts.clientSecret, "client-secret", "", "OAuth2 client secret (optional for public clients)")
	cmd.Flags().StringVar(&opts.redirectURI, "redirect-uri", "", "OAuth2 redirect URI (optional)")
	cmd.Flags().StringVar(&opts.jwksURL, "jwks-url", "", "Override the signing key endpoint (optional)")
	return cmd
}

func newOIDCListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB(v)
			if err != nil {
				return err
			}
			defer closeDB(db)

			configs, err := database.NewOIDCConfigRepository(db).GetAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list OIDC configs: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(configs) == 0 {
				fmt.Fprintln(out, "No OIDC providers configured")
				return nil
			}

			fmt.Fprintln(out, "Configured OIDC providers:")
			for _, c := range configs {
				fmt.Fprintf(out, "  - Provider: %s\n", c.Provider)
				fmt.Fprintf(out, "    Issuer: %s\n", c.Issuer)
				fmt.Fprintf(out, "    Client ID: %s\n", c.ClientID)
				if c.RedirectURI != "" {
					fmt.Fprintf(out, "    Redirect URI: %s\n", c.RedirectURI)
				}
				if c.JWKSUrl != nil {
					fmt.Fprintf(out, "    JWKS URL: %s\n", *c.JWKSUrl)
				}
				fmt.Fprintf(out, "    Client secret: %v\n", c.ClientSecret != nil)
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newOIDCTestCmd(v *viper.Viper) *cobra.Command {
	var clientCredentials bool

	cmd := &cobra.Command{
		Use:   "test <provider-name>",
		Short: "Check that a provider's endpoints respond",
		Long: "Fetches the signing keys for a provider. Non-Firebase issuers are also checked for a discovery document.\n" +
			"With --client-credentials the stored client ID and secret are exchanged for a token.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB(v)
			if err != nil {
				return err
			}
			defer closeDB(db)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			provider := oidc.NewProvider(database.NewOIDCConfigRepository(db))
			c, err := provider.GetConfig(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Testing OIDC configuration for provider: %s\n", c.Provider)
			fmt.Fprintf(out, "Issuer: %s\n", c.Issuer)

			var discovery *oidc.Discovery
			if !oidc.IsFirebaseIssuer(c.Issuer) {
				discovery, err = provider.Discover(ctx, c.Issuer)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "✓ Discovery document is accessible")
			}

			jwksURL := provider.JWKSURL(ctx, c)
			keys, err := oidc.NewJWKSManager().GetJWKS(ctx, jwksURL)
			if err != nil {
				return fmt.Errorf("failed to fetch signing keys from %s: %w", jwksURL, err)
			}
			fmt.Fprintf(out, "✓ %d signing keys at %s\n", keys.Len(), jwksURL)

			if clientCredentials {
				token, err := oidc.NewClient(c, discovery).ClientCredentialsToken(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Client credentials accepted (token type %s)\n", token.Type())
			}

			fmt.Fprintln(out, "\n✓ OIDC configuration test passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&clientCredentials, "client-credentials", false, "Also request a client credentials token")
	return cmd
}

func newOIDCDeleteCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <provider-name>",
		Short: "Remove a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB(v)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.NewOIDCConfigRepository(db).Delete(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("provider %q is not configured", args[0])
				}
				return fmt.Errorf("failed to delete OIDC config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted OIDC configuration for provider: %s\n", args[0])
			return nil
		},
	}
}
