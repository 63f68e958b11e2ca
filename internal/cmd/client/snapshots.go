package client

import (
	"fmt"
	"time"

	transports "github.com/rzbill/blinkhub/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewSnapshotsCommand constructs the `snapshots` command group.
func NewSnapshotsCommand(baseURL BaseURLFunc) *cobra.Command {
	snapCmd := &cobra.Command{Use: "snapshots", Short: "Motion snapshot operations"}
	tr := func() transports.SnapshotsTransport { return transports.NewHTTPTransport(baseURL, nil) }
	snapCmd.AddCommand(
		newSnapshotsListCommand(tr),
		newSnapshotsAddCommand(tr),
		newSnapshotsTrimCommand(tr),
	)
	return snapCmd
}

func newSnapshotsListCommand(tr func() transports.SnapshotsTransport) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List stored snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			snaps, err := tr().List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), snaps)
			}
			for _, s := range snaps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", s.Time.Format(time.RFC3339), s.URL)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print JSON")
	return cmd
}

func newSnapshotsAddCommand(tr func() transports.SnapshotsTransport) *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Record a snapshot URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := tr().Record(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "recorded:", snap.Key)
			return nil
		},
	}
}

func newSnapshotsTrimCommand(tr func() transports.SnapshotsTransport) *cobra.Command {
	return &cobra.Command{
		Use:   "trim",
		Short: "Apply the retention window now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := tr().Trim(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted: %d\n", n)
			return nil
		},
	}
}
