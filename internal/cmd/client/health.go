package client

import (
	"context"
	"fmt"
	"time"

	transports "github.com/rzbill/blinkhub/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

func getHealthTransport() transports.HealthTransport {
	return transports.NewGrpcTransport(dialGRPCContext)
}

// NewHealthCommand constructs the `health` command, a grpc.health.v1 client.
func NewHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health over gRPC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, _ := cmd.Flags().GetString("service")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			st, err := getHealthTransport().Check(ctx, service)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "status:", st)
			if st != "SERVING" {
				return fmt.Errorf("server is %s", st)
			}
			return nil
		},
	}
	cmd.Flags().String("service", "", "Service name to check (empty = whole server)")
	cmd.Flags().Duration("timeout", 3*time.Second, "Request timeout")
	return cmd
}
