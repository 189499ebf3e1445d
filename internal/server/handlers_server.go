package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/craftpanel/internal/history"
	"github.com/teemow/craftpanel/internal/i18n"
	"github.com/teemow/craftpanel/internal/instrumentation"
	"github.com/teemow/craftpanel/internal/lifecycle"
	"github.com/teemow/craftpanel/internal/logging"
	"github.com/teemow/craftpanel/internal/logtail"
	"github.com/teemow/craftpanel/internal/session"
)

// maxCommandBody bounds the JSON body of a command request.
const maxCommandBody = 64 << 10

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type userResponse struct {
	Authenticated bool   `json:"authenticated"`
	Authorized    bool   `json:"authorized"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	Picture       string `json:"picture,omitempty"`
	Message       string `json:"message,omitempty"`
}

type statusResponse struct {
	Status    string     `json:"status"`
	Uptime    string     `json:"uptime,omitempty"`
	PID       int        `json:"pid,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	MemoryRSS uint64     `json:"memory_rss_bytes,omitempty"`
}

type commandRequest struct {
	Command string `json:"command"`
}

type commandResponse struct {
	Command  string `json:"command"`
	Response string `json:"response"`
	Status   string `json:"status"`
}

type logsResponse struct {
	Logs []string `json:"logs"`
}

type historyResponse struct {
	Commands []history.Entry `json:"commands"`
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	s := h.sc.codec.FromRequest(r)

	switch h.sc.policy.Authorize(s) {
	case session.Anonymous:
		writeJSON(w, http.StatusOK, userResponse{Authenticated: false})
	case session.Unauthorized:
		writeJSON(w, http.StatusOK, userResponse{
			Authenticated: true,
			Authorized:    false,
			Name:          s.Name,
			Email:         s.Email,
			Picture:       s.Picture,
			Message:       h.sc.translator.Text(i18n.NoServerAccess),
		})
	default:
		writeJSON(w, http.StatusOK, userResponse{
			Authenticated: true,
			Authorized:    true,
			Name:          s.Name,
			Email:         s.Email,
			Picture:       s.Picture,
		})
	}
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if s := h.sc.codec.FromRequest(r); s != nil {
		h.sc.RecordLogout(r.Context(), s.Email)
	}
	h.sc.codec.ClearCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{
		Status:  instrumentation.StatusSuccess,
		Message: h.sc.translator.Text(i18n.LoggedOut),
	})
}

func (h *Handler) serverStatus(w http.ResponseWriter, r *http.Request) {
	st := h.sc.ServerStatus(r.Context())

	resp := statusResponse{Status: string(st.State)}
	if st.State == lifecycle.Running {
		startedAt := st.StartedAt
		resp.Uptime = st.Uptime.Truncate(time.Second).String()
		resp.PID = st.PID
		resp.StartedAt = &startedAt
		resp.MemoryRSS = st.MemoryRSS
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) startServer(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	if _, err := h.sc.StartServer(r.Context(), s.Email, instrumentation.ChannelHTTP); err != nil {
		status, code, msg := mapLifecycleError(h.sc.translator, instrumentation.OperationStart, err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Status: h.sc.translator.Text(i18n.Started)})
}

func (h *Handler) stopServer(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	if err := h.sc.StopServer(r.Context(), s.Email, instrumentation.ChannelHTTP); err != nil {
		status, code, msg := mapLifecycleError(h.sc.translator, instrumentation.OperationStop, err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Status: h.sc.translator.Text(i18n.Stopped)})
}

func (h *Handler) restartServer(w http.ResponseWriter, r *http.Request) {
	s := sessionFromContext(r.Context())
	if _, err := h.sc.RestartServer(r.Context(), s.Email, instrumentation.ChannelHTTP); err != nil {
		status, code, msg := mapLifecycleError(h.sc.translator, instrumentation.OperationRestart, err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Status: h.sc.translator.Text(i18n.Started)})
}

func (h *Handler) executeCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, h.sc.translator.Text(i18n.BadRequest))
		return
	}
	h.runCommand(w, r, req.Command)
}

// legacyCommand takes the command from the query string.
func (h *Handler) legacyCommand(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, r, r.URL.Query().Get("command"))
}

func (h *Handler) runCommand(w http.ResponseWriter, r *http.Request, command string) {
	s := sessionFromContext(r.Context())
	t := h.sc.translator

	res, err := h.sc.SendCommand(r.Context(), s.Email, instrumentation.ChannelHTTP, command)
	switch {
	case errors.Is(err, ErrEmptyCommand):
		writeError(w, http.StatusBadRequest, CodeValidationError, t.Text(i18n.EmptyCommand))
		return
	case errors.Is(err, ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, CodeRateLimited, t.Text(i18n.TooManyCommands))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, CodeInternalError, t.Text(i18n.CommandFailed, err))
		return
	}

	status := instrumentation.StatusSuccess
	if !res.OK {
		status = instrumentation.StatusError
	}
	writeJSON(w, http.StatusOK, commandResponse{
		Command:  strings.TrimSpace(command),
		Response: res.Text,
		Status:   status,
	})
}

func (h *Handler) serverLogs(w http.ResponseWriter, r *http.Request) {
	t := h.sc.translator

	n := logtail.DefaultLines
	if raw := r.URL.Query().Get("lines"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, CodeValidationError, t.Text(i18n.BadLineCount))
			return
		}
		n = v
	}

	lines, err := h.sc.ReadLogs(n)
	if err != nil {
		logging.WithRequestID(h.logger, requestIDFromContext(r.Context())).Error("Failed to read server log", logging.Err(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, t.Text(i18n.LogReadFailed, err))
		return
	}
	if len(lines) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, logsResponse{Logs: lines})
}

func (h *Handler) commandHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, historyResponse{Commands: h.sc.History()})
}
