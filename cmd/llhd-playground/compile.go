package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile <file|->",
	Short: "Compile a file through the sandbox and print the output",
	Long: `Run one file through the same pipeline /compile uses. Useful to check a
deployment's sandbox without going through HTTP.

Examples:
  llhd-playground compile accumulator.sv
  echo 'module top; endmodule' | llhd-playground compile -`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var code []byte
	if args[0] == "-" {
		code, err = io.ReadAll(cmd.InOrStdin())
	} else {
		code, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	sb, err := newSandbox(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := sb.Compile(ctx, string(code))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out.Text())
	if out.ExitCode != 0 {
		return fmt.Errorf("compiler exited with status %d", out.ExitCode)
	}
	return nil
}
