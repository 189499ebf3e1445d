// Package logging provides structured logging utilities for the panel.
//
// This package centralizes logging patterns so every component emits the same
// attribute names through the standard library's slog package.
//
// # Key Features
//
//   - Handler construction for the CLI (--log-format, --debug)
//   - PII sanitization (email anonymization, token masking)
//   - Consistent attribute naming across the codebase
//   - Bridges to *log.Logger for libraries that still expect one
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "lifecycle.start")
//	logger.Info("server launched",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("command accepted",
//	    logging.UserHash(email),
//	    logging.Command("say hi"))
//
// # Security Considerations
//
//   - User emails are hashed to prevent PII leakage while allowing correlation
//   - Session cookies and OAuth tokens are never logged directly
package logging
