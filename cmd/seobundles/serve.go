package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/yanizio/seobundles/internal/server"
	"github.com/yanizio/seobundles/internal/webhook"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the content-change webhook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go reloadOnHUP(ctx, current.reload)

			r := chi.NewRouter()
			r.Handle("/metrics", promhttp.Handler())
			r.Mount("/", webhook.New(current.deps, webhook.Options{
				Token:  current.cfg.HTTP.Token,
				Reload: current.reload,
				Log:    current.log,
			}))

			ln, err := net.Listen("tcp", current.cfg.HTTP.ListenAddr)
			if err != nil {
				return err
			}
			return server.Run(ctx, server.New(current.cfg.HTTP.ListenAddr, r), ln)
		},
	}
}

func reloadOnHUP(ctx context.Context, reload func()) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			reload()
		}
	}
}
