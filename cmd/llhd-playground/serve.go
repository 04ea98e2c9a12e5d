package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michaelbrown/llhd-playground/internal/sandbox"
	"github.com/michaelbrown/llhd-playground/internal/server"
)

var (
	portFlag          int
	rootFlag          string
	skipPreflightFlag bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the playground web server",
	Long: `Start the HTTP server.

POST /compile compiles the posted code; every other path is served from the
static root (LLHD_WEBSITE_ROOT).

Examples:
  llhd-playground serve
  llhd-playground serve --port 8080 --root ./frontend`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&rootFlag, "root", "", "Static file root (overrides config)")
	serveCmd.Flags().BoolVar(&skipPreflightFlag, "skip-preflight", false, "Do not check the docker daemon and sandbox image at startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}
	if rootFlag != "" {
		cfg.Server.Root = rootFlag
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	policy := cfg.Policy()
	if cfg.Sandbox.Preflight && !skipPreflightFlag && policy.Mode == sandbox.ModeDocker {
		if err := preflight(cmd.Context(), policy, logger); err != nil {
			return err
		}
	}

	sb, err := newSandbox(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("sandbox ready",
		zap.String("mode", string(policy.Mode)),
		zap.String("image", policy.Image),
		zap.Duration("host_timeout", policy.HostTimeout),
	)

	opts := server.Options{
		Root:         cfg.Server.Root,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       logger.Named("server"),
	}
	if cfg.Server.AccessLog != "" {
		al, err := server.OpenAccessLog(cfg.Server.AccessLog)
		if err != nil {
			return err
		}
		defer al.Close()
		opts.AccessLog = al
	}
	if cfg.Server.Root == "" {
		logger.Warn("no static root configured, serving /compile only")
	}

	srv := server.New(sb, opts)

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, cfg.Addr())
}

func preflight(ctx context.Context, policy sandbox.Policy, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cli, err := sandbox.NewDockerClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	if err := sandbox.Preflight(ctx, cli, policy, logger); err != nil {
		return fmt.Errorf("docker preflight: %w (use --skip-preflight to bypass)", err)
	}
	return nil
}
