package server_tools

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/craftpanel/internal/instrumentation"
	"github.com/teemow/craftpanel/internal/server"
	"github.com/teemow/craftpanel/internal/tools/batch"
	"github.com/teemow/craftpanel/internal/tools/common"
)

// maxCooldownWaits bounds how often one command waits out the cooldown.
const maxCooldownWaits = 3

func registerCommandTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	commandTool := mcp.NewTool("server_command",
		mcp.WithDescription("Send console commands to the running Minecraft server (e.g. 'list', 'say hello', 'whitelist add Steve'). "+
			"Multiple commands run in order, spaced by the per-user cooldown."),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Console command (string) or array of commands, without the leading slash"),
		),
	)
	s.AddTool(commandTool, common.InstrumentedToolHandler("server_command", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCommand(ctx, request, sc)
		}))

	return nil
}

func handleCommand(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	commands, err := batch.ParseStringOrArray(args["command"], "command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	run := func(ctx context.Context, command string) (string, error) {
		return sendCommand(ctx, sc, command)
	}

	if len(commands) == 1 {
		text, err := run(ctx, commands[0])
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}

	results := batch.ProcessBatch(ctx, commands, run)
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

// sendCommand delivers one command as the local identity. A cooldown
// rejection is waited out rather than reported.
func sendCommand(ctx context.Context, sc *server.ServerContext, command string) (string, error) {
	for attempt := 0; ; attempt++ {
		res, err := sc.SendCommand(ctx, server.LocalIdentity, instrumentation.ChannelMCP, command)
		if errors.Is(err, server.ErrRateLimited) && attempt < maxCooldownWaits {
			if werr := wait(ctx, sc.CommandCooldown()); werr != nil {
				return "", werr
			}
			continue
		}
		if err != nil {
			return "", err
		}
		if !res.OK {
			return "", errors.New(res.Text)
		}
		return res.Text, nil
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
