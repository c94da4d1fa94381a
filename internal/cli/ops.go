package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"leasing-backoffice/internal/app"
	"leasing-backoffice/internal/config"
	"leasing-backoffice/internal/jobs"
	"leasing-backoffice/internal/security"
)

func reconcileCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Release vehicles still bound to ended leases",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := jobs.NewJobRunner(a.Leases, a.Alerts, a.Config).Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d reconciled=%d failed=%d\n",
				summary.Checked, summary.Reconciled, summary.Failed)
			return nil
		},
	}
}

func migrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the lease schema if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := app.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", cfg.Database.Driver)
			return nil
		},
	}
}

func devTokenCommand(opts *options) *cobra.Command {
	var (
		userID   int64
		username string
		role     string
		secret   string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dev-token",
		Short: "Mint a bearer token for local testing",
		Long:  "Mint an HS256 token in the gateway format. Without --secret the configured JWT secret is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				secret = cfg.JWT.Secret
			}
			token, err := security.NewTokenManager(secret, ttl).GenerateAccessToken(userID, username, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 1, "sub claim")
	cmd.Flags().StringVar(&username, "username", "operator", "username claim")
	cmd.Flags().StringVar(&role, "role", config.RoleAdmin, "role claim (DATAREG, SKADE, FORRET, LEDELSE, ADMIN)")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret, overrides the config")
	cmd.Flags().DurationVar(&ttl, "ttl", security.DefaultTokenTTL, "token lifetime (e.g. 30m, 2h)")
	return cmd
}
