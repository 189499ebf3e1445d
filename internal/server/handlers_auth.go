package server

import (
	"net/http"

	"github.com/teemow/craftpanel/internal/i18n"
	"github.com/teemow/craftpanel/internal/logging"
)

func (h *Handler) googleLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.sc.AuthCodeURL()
	if err != nil {
		status, code, msg := mapOAuthError(h.sc.translator, err)
		logging.WithRequestID(h.logger, requestIDFromContext(r.Context())).Error("Cannot start login", logging.Err(err))
		writeOAuthError(w, status, code, msg)
		return
	}
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// oauthCallback completes the authorization-code flow, stores the session
// cookie and sends the browser back to the frontend. Allow-list membership
// is not checked here; /api/user reports it.
func (h *Handler) oauthCallback(w http.ResponseWriter, r *http.Request) {
	t := h.sc.translator
	q := r.URL.Query()

	code := q.Get("code")
	if code == "" {
		reason := q.Get("error_description")
		if reason == "" {
			reason = q.Get("error")
		}
		if reason == "" {
			reason = "missing authorization code"
		}
		// Burn the state so the same link cannot be replayed with a code.
		_ = h.sc.states.Validate(q.Get("state"))
		writeOAuthError(w, http.StatusBadRequest, CodeValidationError, t.Text(i18n.OAuthTokenError, reason))
		return
	}

	s, err := h.sc.CompleteLogin(r.Context(), q.Get("state"), code)
	if err != nil {
		status, code, msg := mapOAuthError(t, err)
		writeOAuthError(w, status, code, msg)
		return
	}

	if err := h.sc.codec.SetCookie(w, *s); err != nil {
		logging.WithRequestID(h.logger, requestIDFromContext(r.Context())).Error("Failed to issue session cookie", logging.Err(err))
		writeOAuthError(w, http.StatusInternalServerError, CodeInternalError, t.Text(i18n.OAuthFailed))
		return
	}

	target := h.sc.frontendURL
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
