package cli

import (
	"fmt"
	"strings"

	"github.com/mekedron/grocer-cli/internal/server"
	"github.com/spf13/cobra"
)

const defaultListenAddr = ":8080"

func newServeCommand(deps Dependencies) *cobra.Command {
	var listen string
	listenDefault := strings.TrimSpace(deps.ListenAddr)
	if listenDefault == "" {
		listenDefault = defaultListenAddr
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve store and product listings over HTTP.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.Catalog == nil {
				return fmt.Errorf("catalog source is not available")
			}
			if deps.Serve == nil {
				return fmt.Errorf("http server is not available")
			}
			addr := strings.TrimSpace(listen)
			if addr == "" {
				addr = listenDefault
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "serving listings on %s\n", addr)
			return deps.Serve(cmd.Context(), addr, server.NewHandler(deps.Catalog).Routes())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", listenDefault, "Address to listen on")
	return cmd
}
