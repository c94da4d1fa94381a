// Package cli implements leasectl, the operator command line for the lease
// back office.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"leasing-backoffice/internal/app"
	"leasing-backoffice/internal/config"
	"leasing-backoffice/internal/logger"
)

type options struct {
	configPath string
}

// NewRootCommand builds the leasectl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "leasectl",
		Short:         "Lease back office operator CLI",
		Long:          "Inspect and fix leases, run reconciliation, migrate the store and mint development tokens.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.dev.yaml", "Path to configuration file")

	root.AddCommand(
		leaseCommand(opts),
		reconcileCommand(opts),
		migrateCommand(opts),
		devTokenCommand(opts),
	)
	return root
}

// Execute runs leasectl with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	// stdout carries command output only
	logger.InitializeWriter(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func (o *options) openApp(ctx context.Context) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, nil)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseLeaseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid lease id %q", arg)
	}
	return id, nil
}
