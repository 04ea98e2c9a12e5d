package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michaelbrown/llhd-playground/internal/config"
	"github.com/michaelbrown/llhd-playground/internal/logging"
	"github.com/michaelbrown/llhd-playground/internal/sandbox"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "llhd-playground",
	Short: "LLHD playground - compile hardware descriptions in a sandbox",
	Long: `llhd-playground serves the LLHD web playground.

Source code posted to /compile is compiled with moore inside a network-less,
resource-limited docker container and the compiler output is returned.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: ./playground.yaml or ~/.llhd/playground.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, logger, nil
}

func newSandbox(cfg *config.Config, logger *zap.Logger) (*sandbox.Sandbox, error) {
	sb, err := sandbox.New(cfg.Policy(), logger.Named("sandbox"))
	if err != nil {
		return nil, fmt.Errorf("creating sandbox: %w", err)
	}
	return sb, nil
}
