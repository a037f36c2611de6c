package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/0xlayer/scriptscope/internal/pipeline"
)

func newMcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the Model Context Protocol (MCP) server",
		Long: `Starts a JSON-RPC server implementing the Model Context Protocol (MCP)
over stdio. This allows AI assistants to submit scripts for static
analysis and receive the structured report.`,
		RunE: runMcpServer,
	}
}

func runMcpServer(cmd *cobra.Command, args []string) error {
	s := server.NewMCPServer(
		"scriptscope",
		version,
		server.WithLogging(),
	)

	analyzeTool := mcp.NewTool("analyze_script",
		mcp.WithDescription("Statically analyze a suspected malicious script and return the full threat report as JSON"),
		mcp.WithString("content",
			mcp.Description("The raw script text to analyze"),
			mcp.Required(),
		),
		mcp.WithString("request_id",
			mcp.Description("Optional correlation identifier echoed into the report"),
		),
	)
	s.AddTool(analyzeTool, handleAnalyzeScript)

	listTool := mcp.NewTool("list_engines",
		mcp.WithDescription("List the deobfuscation engines the analyzer runs"),
	)
	s.AddTool(listTool, handleListEngines)

	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

func handleAnalyzeScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("arguments must be a map"), nil
	}
	content, ok := args["content"].(string)
	if !ok {
		return mcp.NewToolResultError("content must be a string"), nil
	}
	id, _ := args["request_id"].(string)

	p, err := buildPipeline()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Pipeline setup failed: %v", err)), nil
	}

	result := p.Analyze(pipeline.Request{ID: id, Data: []byte(content)})

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func handleListEngines(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := buildPipeline()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Pipeline setup failed: %v", err)), nil
	}
	result := p.Analyze(pipeline.Request{Data: []byte{}})
	return mcp.NewToolResultText(strings.Join(result.Meta.Engines, "\n")), nil
}
