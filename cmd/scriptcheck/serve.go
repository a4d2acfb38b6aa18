package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/scriptcheck/pkg/serve"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  "Serve POST /api/validate, POST /api/sort, GET /api/rules and GET /healthz until interrupted.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	base, err := cfg.KnowledgeBase()
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	logger := cfg.Log.Logger(os.Stderr)
	srv := serve.New(serve.Options{
		Knowledge:      base,
		Checks:         opts,
		Logger:         logger,
		RatePerSecond:  cfg.Server.RatePerSecond,
		Burst:          cfg.Server.Burst,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		TrustedProxies: cfg.Server.Proxies(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}
