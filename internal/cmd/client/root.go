package client

import (
	"github.com/spf13/cobra"
)

// AddCommands registers the client command groups on root.
func AddCommands(root *cobra.Command, baseURL BaseURLFunc) {
	root.AddCommand(NewKVCommand())
	root.AddCommand(NewHealthCommand())
	root.AddCommand(NewSnapshotsCommand(baseURL))
}

// NewRoot constructs a root Cobra command carrying only the client commands.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "blinkhub",
		Short: "blinkhub client commands",
	}
	AddCommands(root, baseURL)
	return root
}
