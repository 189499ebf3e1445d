package logging

import (
	"log"
	"log/slog"
)

// NewStdLogger bridges an slog.Logger to a *log.Logger for libraries that
// only accept the latter, such as http.Server.ErrorLog and the MCP stdio
// transport. Every line is emitted at level.
func NewStdLogger(logger *slog.Logger, level slog.Level) *log.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slog.NewLogLogger(logger.Handler(), level)
}
