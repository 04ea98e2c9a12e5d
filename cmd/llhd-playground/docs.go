package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michaelbrown/llhd-playground/internal/docs"
)

var (
	docsURLFlag    string
	docsOutputFlag string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Render the LLHD language reference into the static root",
	Long: `Download LANGUAGE.md from the LLHD repository and render it to spec.html
so the playground can serve it next to the editor.

Examples:
  llhd-playground docs --output frontend/spec.html`,
	RunE: runDocs,
}

func init() {
	docsCmd.Flags().StringVar(&docsURLFlag, "url", "", "Markdown source URL (overrides config)")
	docsCmd.Flags().StringVarP(&docsOutputFlag, "output", "o", "", "Output file (default: <root>/spec.html)")
	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	url := cfg.Docs.SourceURL
	if docsURLFlag != "" {
		url = docsURLFlag
	}
	output := cfg.Docs.Output
	if docsOutputFlag != "" {
		output = docsOutputFlag
	}
	if output == "" {
		if cfg.Server.Root == "" {
			return fmt.Errorf("no output given and no static root configured")
		}
		output = filepath.Join(cfg.Server.Root, "spec.html")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client := &http.Client{Timeout: 30 * time.Second}
	if err := docs.Build(ctx, client, url, output); err != nil {
		return err
	}
	logger.Info("rendered language reference", zap.String("source", url), zap.String("output", output))
	return nil
}
