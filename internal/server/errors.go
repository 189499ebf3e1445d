package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/teemow/craftpanel/internal/i18n"
	"github.com/teemow/craftpanel/internal/instrumentation"
	"github.com/teemow/craftpanel/internal/lifecycle"
	"github.com/teemow/craftpanel/internal/oauth"
)

// Machine-readable error codes returned alongside the display message.
const (
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodePermissionDenied       = "PERMISSION_DENIED"
	CodeInvalidState           = "INVALID_STATE"
	CodeRateLimited            = "RATE_LIMITED"
	CodeReplayDetected         = "REPLAY_DETECTED"
	CodeConfigurationError     = "CONFIGURATION_ERROR"
	CodeUpstreamError          = "UPSTREAM_COMMUNICATION_ERROR"
	CodeValidationError        = "VALIDATION_ERROR"
	CodeInternalError          = "INTERNAL_ERROR"
)

// errorResponse is the failure body of the panel API. Status carries the
// localized message the frontend displays.
type errorResponse struct {
	Status string `json:"status"`
	Code   string `json:"code"`
}

// oauthErrorResponse is the failure body of the login endpoints.
type oauthErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Status: message, Code: code})
}

func writeOAuthError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, oauthErrorResponse{Detail: message, Code: code})
}

// mapLifecycleError maps a lifecycle failure of op to status, code and message.
func mapLifecycleError(t *i18n.Translator, op string, err error) (int, string, string) {
	switch {
	case errors.Is(err, lifecycle.ErrAlreadyRunning):
		return http.StatusBadRequest, CodeInvalidState, t.Text(i18n.AlreadyRunning)
	case errors.Is(err, lifecycle.ErrNotRunning):
		return http.StatusBadRequest, CodeInvalidState, t.Text(i18n.NotRunning)
	}

	key := i18n.StartFailed
	switch op {
	case instrumentation.OperationStop:
		key = i18n.StopFailed
	case instrumentation.OperationRestart:
		key = i18n.RestartFailed
	}
	return http.StatusInternalServerError, CodeInternalError, t.Text(key, err)
}

// mapOAuthError maps a login failure to status, code and message.
func mapOAuthError(t *i18n.Translator, err error) (int, string, string) {
	var retrieveErr *oauth2.RetrieveError
	var netErr net.Error

	switch {
	case errors.Is(err, oauth.ErrStateNotFound):
		return http.StatusBadRequest, CodeReplayDetected, t.Text(i18n.OAuthInvalidState)
	case errors.Is(err, oauth.ErrStateConsumed):
		return http.StatusBadRequest, CodeReplayDetected, t.Text(i18n.OAuthStateUsed)
	case errors.Is(err, oauth.ErrNotConfigured):
		return http.StatusInternalServerError, CodeConfigurationError, t.Text(i18n.OAuthNotConfigured)
	case errors.As(err, &retrieveErr):
		reason := retrieveErr.ErrorDescription
		if reason == "" {
			reason = retrieveErr.ErrorCode
		}
		if reason == "" && retrieveErr.Response != nil {
			reason = http.StatusText(retrieveErr.Response.StatusCode)
		}
		return http.StatusBadRequest, CodeUpstreamError, t.Text(i18n.OAuthTokenError, reason)
	case errors.Is(err, oauth.ErrIncompleteProfile):
		return http.StatusBadRequest, CodeUpstreamError, t.Text(i18n.OAuthIncompleteProfile)
	case errors.As(err, &netErr):
		return http.StatusInternalServerError, CodeUpstreamError, t.Text(i18n.OAuthUnreachable)
	default:
		return http.StatusInternalServerError, CodeInternalError, t.Text(i18n.OAuthFailed)
	}
}
