package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/llhd-playground/internal/sandbox"
)

// maxToolOutput caps the text returned to the MCP client.
const maxToolOutput = 16000

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the compiler as an MCP tool over stdio",
	Long: `Expose a compile_hdl tool over the Model Context Protocol on stdin/stdout.
The tool runs the same sandboxed pipeline as POST /compile.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	sb, err := newSandbox(cfg, logger)
	if err != nil {
		return err
	}

	s := server.NewMCPServer("llhd-playground", "0.1.0")
	s.AddTool(compileTool(), compileToolHandler(sb))

	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func compileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "compile_hdl",
		Description: "Compile SystemVerilog/VHDL source to LLHD with moore in an isolated sandbox. The first declared module is elaborated.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Hardware description source containing at least one module",
				},
			},
			Required: []string{"code"},
		},
	}
}

type compiler interface {
	Compile(ctx context.Context, code string) (sandbox.Output, error)
}

func compileToolHandler(c compiler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		if args == nil {
			return errResult("error: invalid arguments"), nil
		}
		code, ok := args["code"].(string)
		if !ok {
			return errResult("error: 'code' argument must be a string"), nil
		}

		out, err := c.Compile(ctx, code)
		if err != nil {
			return errResult("error: " + err.Error()), nil
		}

		text := out.Text()
		if len(text) > maxToolOutput {
			text = text[:maxToolOutput] + "\n... (output truncated)"
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
			IsError: out.ExitCode != 0,
		}, nil
	}
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}
