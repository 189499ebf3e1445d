// Package cmd implements the command-line interface for craftpanel.
//
// This package provides the following commands:
//   - serve: Start the HTTP control panel
//   - mcp: Serve the panel operations as MCP tools over stdio
//   - rcon: Send a single console command and print the response
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// All commands read their configuration from the environment; serve also
// accepts flags that override it.
package cmd
