package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/teemow/craftpanel/internal/lifecycle"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthChecker answers the panel's liveness and readiness probes. Probes
// describe the panel process only: a stopped game server is a normal state
// and never fails one.
type HealthChecker struct {
	ready   atomic.Bool
	sc      *ServerContext
	started time.Time
}

// NewHealthChecker returns a checker that reports ready until SetReady(false).
// sc may be nil, in which case the game server section is omitted.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, started: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady flips the readiness probe, typically to false when draining.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness flag.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status     string            `json:"status"`
	Uptime     string            `json:"uptime"`
	GameServer *GameServerHealth `json:"game_server,omitempty"`
}

// GameServerHealth summarizes the managed process.
type GameServerHealth struct {
	State     string `json:"state"`
	PID       int    `json:"pid,omitempty"`
	Uptime    string `json:"uptime,omitempty"`
	MemoryRSS uint64 `json:"memory_rss_bytes,omitempty"`
}

// probe evaluates the readiness checks. The overall status is the first
// failing check's value, or ok.
func (h *HealthChecker) probe() (string, map[string]string) {
	checks := map[string]string{"ready": healthStatusOK, "shutdown": healthStatusOK}
	status := healthStatusOK

	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		status = healthStatusNotReady
	}
	if h.sc != nil && h.sc.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
		if status == healthStatusOK {
			status = healthStatusShuttingDown
		}
	}
	return status, checks
}

func probeCode(status string) int {
	if status == healthStatusOK {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// LivenessHandler serves /healthz. It answers ok as long as the process can
// serve HTTP at all.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler serves /readyz.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, checks := h.probe()
		// Any failing check reports the generic not-ready status.
		if status != healthStatusOK {
			status = healthStatusNotReady
		}
		writeJSON(w, probeCode(status), HealthResponse{Status: status, Checks: checks})
	})
}

// DetailedHealthHandler serves /healthz/detailed, adding panel uptime and the
// game server's state, pid, uptime and resident memory.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, _ := h.probe()
		resp := DetailedHealthResponse{
			Status: status,
			Uptime: time.Since(h.started).Truncate(time.Second).String(),
		}
		if h.sc != nil {
			resp.GameServer = gameServerHealth(h.sc.ServerStatus(r.Context()))
		}
		writeJSON(w, probeCode(status), resp)
	})
}

func gameServerHealth(st lifecycle.Status) *GameServerHealth {
	gs := &GameServerHealth{State: string(st.State), PID: st.PID, MemoryRSS: st.MemoryRSS}
	if st.State == lifecycle.Running {
		gs.Uptime = st.Uptime.Truncate(time.Second).String()
	}
	return gs
}
