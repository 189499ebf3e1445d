package instrumentation

import "strings"

// Cardinality management helpers for metrics.
//
// Console commands and user identities are unbounded. Metrics only ever carry
// the command verb and, with DetailedLabels, the email domain.

// ExtractUserDomain extracts the domain part from an email address.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("mcp:local")         // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}

// CommandVerb reduces a console command to its first word, lower-cased.
// A leading slash, as typed in the game chat, is dropped.
//
//	CommandVerb("/say hello")  // "say"
//	CommandVerb("")            // "unknown"
func CommandVerb(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "unknown"
	}
	verb := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if verb == "" {
		return "unknown"
	}
	return verb
}

// Panel operations recorded in metrics, spans and audit logs.
const (
	OperationStart   = "start"
	OperationStop    = "stop"
	OperationRestart = "restart"
	OperationCommand = "command"
	OperationLogin   = "login"
	OperationLogout  = "logout"
)

// Channels through which an operation can be requested.
const (
	ChannelHTTP = "http"
	ChannelMCP  = "mcp"
	ChannelCLI  = "cli"
)
