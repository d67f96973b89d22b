package http

import "github.com/spf13/cobra"

// NewHTTPCommand groups the API server commands.
func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Run the ledger REST API",
	}
	cmd.AddCommand(NewStartCommand())
	return cmd
}
