package server_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/craftpanel/internal/instrumentation"
	"github.com/teemow/craftpanel/internal/server"
	"github.com/teemow/craftpanel/internal/tools/common"
)

func registerLifecycleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	startTool := mcp.NewTool("server_start",
		mcp.WithDescription("Launch the Minecraft server. Fails if it is already running."),
	)
	s.AddTool(startTool, common.InstrumentedToolHandler("server_start", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleStart(ctx, request, sc)
		}))

	stopTool := mcp.NewTool("server_stop",
		mcp.WithDescription("Stop the Minecraft server. Sends the stop console command first and kills the process if it does not exit in time."),
	)
	s.AddTool(stopTool, common.InstrumentedToolHandler("server_stop", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleStop(ctx, request, sc)
		}))

	restartTool := mcp.NewTool("server_restart",
		mcp.WithDescription("Stop the Minecraft server if it is running, then start it again"),
	)
	s.AddTool(restartTool, common.InstrumentedToolHandler("server_restart", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRestart(ctx, request, sc)
		}))

	return nil
}

func handleStart(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	h, err := sc.StartServer(ctx, server.LocalIdentity, instrumentation.ChannelMCP)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start server: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Server started (pid %d)", h.PID)), nil
}

func handleStop(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if err := sc.StopServer(ctx, server.LocalIdentity, instrumentation.ChannelMCP); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to stop server: %v", err)), nil
	}
	return mcp.NewToolResultText("Server stopped"), nil
}

func handleRestart(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	h, err := sc.RestartServer(ctx, server.LocalIdentity, instrumentation.ChannelMCP)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to restart server: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Server restarted (pid %d)", h.PID)), nil
}
