package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/njchilds90/errprop/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Serve propagation requests over HTTP",
		Long: `Start the HTTP endpoint:

  POST /propagate  evaluate a request
  GET  /schema     request schema
  GET  /health     liveness check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.New(a.cfg)
			if err != nil {
				return err
			}
			pterm.Info.Printfln("errprop listening on %s", a.cfg.Server.Addr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("addr", ":8080", "Listen address")
	return cmd
}
