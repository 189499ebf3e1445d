// Package server_tools provides MCP tools for operating the game server.
//
// The tools call the same ServerContext operations as the HTTP panel, so
// history entries, metrics and audit records look identical apart from the
// channel ("mcp") and the identity ("mcp:local"). The stdio transport is
// local to the machine running the panel, so no login is involved.
//
// # Available Tools
//
// Read-only:
//   - server_status: Current state, PID, uptime and memory of the server
//   - server_logs: Trailing lines of the server log
//   - server_history: The most recent administrative actions
//
// Write (not registered in read-only mode):
//   - server_start: Launch the server
//   - server_stop: Stop the server gracefully, forcefully if needed
//   - server_restart: Stop then start the server
//   - server_command: Send one or more console commands
package server_tools
