package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teemow/craftpanel/internal/i18n"
	"github.com/teemow/craftpanel/internal/logging"
	"github.com/teemow/craftpanel/internal/session"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeySession   ctxKey = "session"
)

const requestIDHeader = "X-Request-Id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func sessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(ctxKeySession).(*session.Session)
	return s
}

func (h *Handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.WithRequestID(h.logger, requestIDFromContext(r.Context())).ErrorContext(r.Context(), "Panic recovered",
					logging.Operation("http.panic_recovery"),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, CodeInternalError, h.sc.translator.Text(i18n.InternalError))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

// loggingMiddleware logs every request and records the HTTP metrics. The
// route pattern, not the raw path, is used as the metric label.
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		duration := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		h.sc.metrics.RecordHTTPRequest(r.Context(), r.Method, route, statusCode, duration)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status_code", statusCode),
			slog.Int("bytes", recorder.bytes),
			slog.Duration(logging.KeyDuration, duration),
		}
		logger := logging.WithRequestID(h.logger, requestIDFromContext(r.Context()))
		switch {
		case statusCode >= 500:
			logger.LogAttrs(r.Context(), slog.LevelError, "HTTP request completed", attrs...)
		case statusCode >= 400:
			logger.LogAttrs(r.Context(), slog.LevelWarn, "HTTP request completed", attrs...)
		default:
			logger.LogAttrs(r.Context(), slog.LevelDebug, "HTTP request completed", attrs...)
		}
	})
}

// corsMiddleware allows the frontend origin to call the API with credentials.
// Preflight requests are answered directly.
func (h *Handler) corsMiddleware(next http.Handler) http.Handler {
	allowed := originOf(h.sc.frontendURL)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed == "" || !strings.EqualFold(origin, allowed) {
			next.ServeHTTP(w, r)
			return
		}

		header := w.Header()
		header.Set("Access-Control-Allow-Origin", origin)
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Add("Vary", "Origin")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				header.Set("Access-Control-Allow-Headers", reqHeaders)
			}
			header.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// originOf reduces a URL to scheme://host[:port].
func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// authMiddleware admits only callers with a session on the allow-list.
// Anonymous callers get 401, signed-in callers outside the list get 403.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := h.sc.codec.FromRequest(r)

		switch h.sc.policy.Authorize(s) {
		case session.Anonymous:
			writeError(w, http.StatusUnauthorized, CodeAuthenticationRequired, h.sc.translator.Text(i18n.AuthRequired))
			return
		case session.Unauthorized:
			logging.WithRequestID(h.logger, requestIDFromContext(r.Context())).Warn("Access denied",
				logging.UserHash(s.Email),
				slog.String("path", r.URL.Path))
			writeError(w, http.StatusForbidden, CodePermissionDenied, h.sc.translator.Text(i18n.AccessDenied))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeySession, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
