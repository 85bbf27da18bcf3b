package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lazypower/rhythm/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the rhythm tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return mcpserver.New(a.engine, VersionString(), a.log).Serve(ctx)
	},
}
