package server_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/craftpanel/internal/lifecycle"
	"github.com/teemow/craftpanel/internal/logtail"
	"github.com/teemow/craftpanel/internal/server"
	"github.com/teemow/craftpanel/internal/tools/common"
)

// RegisterServerTools registers all server tools with the MCP server
func RegisterServerTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	statusTool := mcp.NewTool("server_status",
		mcp.WithDescription("Report whether the Minecraft server is running, with PID, uptime and resident memory"),
	)
	s.AddTool(statusTool, common.InstrumentedToolHandler("server_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleStatus(ctx, request, sc)
		}))

	logsTool := mcp.NewTool("server_logs",
		mcp.WithDescription("Read the trailing lines of the server log"),
		mcp.WithNumber("lines",
			mcp.Description(fmt.Sprintf("Number of lines to return (default: %d, max: %d)", logtail.DefaultLines, logtail.MaxLines)),
		),
	)
	s.AddTool(logsTool, common.InstrumentedToolHandler("server_logs", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLogs(ctx, request, sc)
		}))

	historyTool := mcp.NewTool("server_history",
		mcp.WithDescription("List the most recent administrative actions (start, stop, restart and console commands), oldest first"),
	)
	s.AddTool(historyTool, common.InstrumentedToolHandler("server_history", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleHistory(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	if err := registerLifecycleTools(s, sc); err != nil {
		return fmt.Errorf("failed to register lifecycle tools: %w", err)
	}
	if err := registerCommandTools(s, sc); err != nil {
		return fmt.Errorf("failed to register command tools: %w", err)
	}
	return nil
}

type statusResult struct {
	lifecycle.Status
	Uptime string `json:"uptime,omitempty"`
}

func handleStatus(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	st := sc.ServerStatus(ctx)

	res := statusResult{Status: st}
	if st.State == lifecycle.Running {
		res.Uptime = st.Uptime.Truncate(time.Second).String()
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func handleLogs(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	lines := logtail.DefaultLines
	if v, ok := args["lines"]; ok && v != nil {
		n, ok := v.(float64)
		if !ok || n < 1 || n != float64(int(n)) {
			return mcp.NewToolResultError("lines must be a positive integer"), nil
		}
		lines = int(n)
	}

	logs, err := sc.ReadLogs(lines)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read logs: %v", err)), nil
	}
	if len(logs) == 0 {
		return mcp.NewToolResultText("The server log is empty."), nil
	}
	return mcp.NewToolResultText(strings.Join(logs, "\n")), nil
}

func handleHistory(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(map[string]any{"commands": sc.History()}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
