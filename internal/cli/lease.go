package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/repository"
)

func leaseCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lease",
		Short: "Inspect and change leases",
	}
	cmd.AddCommand(
		leaseGetCommand(opts),
		leaseListCommand(opts),
		leaseEndCommand(opts),
		leaseSetStatusCommand(opts),
	)
	return cmd
}

func leaseGetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get LEASE_ID",
		Short: "Print one lease",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLeaseID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			lease, err := a.Leases.GetLease(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), lease)
		},
	}
}

func leaseListCommand(opts *options) *cobra.Command {
	var status string
	var unallocated bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leases",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			leases, err := a.Leases.ListLeases(cmd.Context(), repository.LeaseFilter{
				Status:      domain.LeaseStatus(strings.ToUpper(status)),
				UnboundOnly: unallocated,
				Limit:       limit,
			})
			if err != nil {
				return err
			}
			if leases == nil {
				leases = []domain.Lease{}
			}
			return printJSON(cmd.OutOrStdout(), leases)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only leases in this status (ACTIVE, COMPLETED, DAMAGED, CANCELLED)")
	cmd.Flags().BoolVar(&unallocated, "unallocated", false, "only leases without a vehicle")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of leases (0 = all)")
	return cmd
}

func leaseEndCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "end LEASE_ID",
		Short: "End an active lease, checking for open damages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLeaseID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Leases.EndLease(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func leaseSetStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status LEASE_ID STATUS",
		Short: "Overwrite a lease status without lifecycle checks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLeaseID(args[0])
			if err != nil {
				return err
			}
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Leases.SetLeaseStatus(cmd.Context(), id, domain.LeaseStatus(strings.ToUpper(args[1])))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}
