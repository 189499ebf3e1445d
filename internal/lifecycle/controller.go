package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/teemow/craftpanel/internal/logging"
	"github.com/teemow/craftpanel/internal/rcon"
)

// Default timings for the stop protocol and restarts.
const (
	DefaultGracefulTimeout         = 30 * time.Second
	DefaultForcefulTimeout         = 5 * time.Second
	DefaultRestartDelay            = 2 * time.Second
	DefaultShutdownGracefulTimeout = 10 * time.Second
	DefaultPollInterval            = 250 * time.Millisecond

	// stopCommand is the console command asking the server to save and exit.
	stopCommand = "stop"
)

var (
	// ErrAlreadyRunning is returned by Start when a live server exists.
	ErrAlreadyRunning = errors.New("server is already running")

	// ErrNotRunning is returned by Stop when there is no live server.
	ErrNotRunning = errors.New("server is not running")
)

// State is the observed state of the server process.
type State string

const (
	Running State = "running"
	Stopped State = "stopped"
)

// Console delivers commands to the running server.
type Console interface {
	Execute(ctx context.Context, command string) rcon.Result
}

// Command describes how to launch the server.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// String renders the command line for logs.
func (c Command) String() string {
	return fmt.Sprintf("%s %v", c.Path, c.Args)
}

// Config configures a Controller. Zero durations use the package defaults.
type Config struct {
	Command Command

	// LogFile is removed after a stop when ClearLogsOnStop is set.
	LogFile         string
	ClearLogsOnStop bool

	GracefulTimeout         time.Duration
	ForcefulTimeout         time.Duration
	RestartDelay            time.Duration
	ShutdownGracefulTimeout time.Duration
	PollInterval            time.Duration
}

func (c *Config) applyDefaults() {
	if c.GracefulTimeout <= 0 {
		c.GracefulTimeout = DefaultGracefulTimeout
	}
	if c.ForcefulTimeout <= 0 {
		c.ForcefulTimeout = DefaultForcefulTimeout
	}
	if c.RestartDelay < 0 {
		c.RestartDelay = 0
	}
	if c.ShutdownGracefulTimeout <= 0 {
		c.ShutdownGracefulTimeout = DefaultShutdownGracefulTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
}

// Handle is the owned server process.
type Handle struct {
	PID       int
	StartedAt time.Time

	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// Exited reports whether the reaper has collected the process.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Status is a point-in-time view of the server.
type Status struct {
	State     State         `json:"status"`
	PID       int           `json:"pid,omitempty"`
	StartedAt time.Time     `json:"started_at,omitzero"`
	Uptime    time.Duration `json:"-"`
	MemoryRSS uint64        `json:"memory_rss_bytes,omitempty"`
}

// Controller starts and stops a single server process.
type Controller struct {
	cfg     Config
	console Console
	logger  *slog.Logger
	now     func() time.Time

	// opMu serializes Start, Stop, Restart and Close.
	opMu sync.Mutex

	// mu guards handle so Status never waits for a running Stop.
	mu     sync.RWMutex
	handle *Handle
}

// NewController creates a controller. console is used for the graceful stop
// request and may be nil, in which case the protocol starts at the wait.
func NewController(cfg Config, console Console, logger *slog.Logger) *Controller {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:     cfg,
		console: console,
		logger:  logging.WithService(logger, "lifecycle"),
		now:     time.Now,
	}
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Start launches the server unless a live one already exists.
// It returns as soon as the process is spawned.
func (c *Controller) Start(ctx context.Context) (*Handle, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	return c.startLocked(ctx)
}

// Stop runs the stop protocol against the live server.
func (c *Controller) Stop(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	h := c.liveHandle(ctx)
	if h == nil {
		return ErrNotRunning
	}
	return c.stopLocked(h, c.cfg.GracefulTimeout)
}

// Restart stops the live server, if any, waits RestartDelay and starts it
// again. An absent server is not an error. Once begun, a restart runs to
// completion even if ctx is cancelled, so the server is never left down.
func (c *Controller) Restart(ctx context.Context) (*Handle, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	ctx = context.WithoutCancel(ctx)
	if h := c.liveHandle(ctx); h != nil {
		if err := c.stopLocked(h, c.cfg.GracefulTimeout); err != nil {
			return nil, err
		}
		if c.cfg.RestartDelay > 0 {
			time.Sleep(c.cfg.RestartDelay)
		}
	} else {
		c.logger.Info("Restart requested while server is stopped, starting")
	}

	return c.startLocked(ctx)
}

// Status reports the server state derived from the operating system.
func (c *Controller) Status(ctx context.Context) Status {
	c.mu.RLock()
	h := c.handle
	c.mu.RUnlock()

	if h == nil || !c.alive(ctx, h) {
		return Status{State: Stopped}
	}

	st := Status{
		State:     Running,
		PID:       h.PID,
		StartedAt: h.StartedAt,
		Uptime:    c.now().Sub(h.StartedAt),
	}
	if p, err := process.NewProcessWithContext(ctx, int32(h.PID)); err == nil {
		if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
			st.MemoryRSS = mem.RSS
		}
	}
	return st
}

// Close stops a live server using the shorter shutdown grace period so the
// panel never leaves an orphaned process behind.
func (c *Controller) Close(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	h := c.liveHandle(ctx)
	if h == nil {
		return nil
	}
	c.logger.Info("Stopping server before exit", slog.Int("pid", h.PID))
	return c.stopLocked(h, c.cfg.ShutdownGracefulTimeout)
}

func (c *Controller) startLocked(ctx context.Context) (*Handle, error) {
	logger := logging.WithOperation(c.logger, "lifecycle.start")

	if h := c.liveHandle(ctx); h != nil {
		logger.Debug("Start rejected, server already running", slog.Int("pid", h.PID))
		return nil, ErrAlreadyRunning
	}

	launch := c.cfg.Command
	// Not CommandContext: the server must outlive the request that started it.
	cmd := exec.Command(launch.Path, launch.Args...)
	cmd.Dir = launch.Dir
	if len(launch.Env) > 0 {
		cmd.Env = append(os.Environ(), launch.Env...)
	}
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		logger.Error("Failed to launch server",
			slog.String("command", launch.String()),
			logging.Err(err))
		return nil, fmt.Errorf("failed to launch server: %w", err)
	}

	h := &Handle{
		PID:       cmd.Process.Pid,
		StartedAt: c.now(),
		cmd:       cmd,
		done:      make(chan struct{}),
	}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
		c.logger.Info("Server process exited",
			slog.Int("pid", h.PID),
			logging.Err(h.waitErr))
	}()

	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()

	logger.Info("Server launched",
		slog.Int("pid", h.PID),
		slog.String("dir", launch.Dir))
	return h, nil
}

// stopLocked runs the escalation on a background context: once begun, a stop
// is never cut short by the caller.
func (c *Controller) stopLocked(h *Handle, graceful time.Duration) error {
	logger := logging.WithOperation(c.logger, "lifecycle.stop").With(slog.Int("pid", h.PID))
	start := c.now()

	if c.console != nil {
		consoleCtx, cancel := context.WithTimeout(context.Background(), graceful)
		res := c.console.Execute(consoleCtx, stopCommand)
		cancel()
		logger.Debug("Console stop sent",
			slog.Bool("ok", res.OK),
			slog.String("reply", res.Text))
	}

	tier := "graceful"
	if !c.waitExit(h, graceful) {
		tier = "terminate"
		logger.Warn("Server did not stop gracefully, sending SIGTERM",
			slog.Duration("waited", graceful))
		if err := terminateProcess(h.PID); err != nil {
			logger.Warn("SIGTERM failed", logging.Err(err))
		}

		if !c.waitExit(h, c.cfg.ForcefulTimeout) {
			tier = "kill"
			logger.Warn("Server ignored SIGTERM, killing process group")
			if err := killProcessGroup(h.PID); err != nil {
				return fmt.Errorf("failed to kill server process: %w", err)
			}
			if !c.waitExit(h, c.cfg.ForcefulTimeout) {
				return fmt.Errorf("server process %d survived SIGKILL", h.PID)
			}
		}
	}

	c.mu.Lock()
	if c.handle == h {
		c.handle = nil
	}
	c.mu.Unlock()

	logger.Info("Server stopped",
		slog.String("tier", tier),
		slog.Duration(logging.KeyDuration, c.now().Sub(start)))

	c.clearLogs(logger)
	return nil
}

func (c *Controller) clearLogs(logger *slog.Logger) {
	if !c.cfg.ClearLogsOnStop || c.cfg.LogFile == "" {
		return
	}
	if err := os.Remove(c.cfg.LogFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to remove log file",
				slog.String("path", c.cfg.LogFile),
				logging.Err(err))
		}
		return
	}
	logger.Info("Removed log file", slog.String("path", c.cfg.LogFile))
}

// waitExit polls until the process is gone or d elapses.
func (c *Controller) waitExit(h *Handle, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return true
		case <-ticker.C:
			if !c.alive(context.Background(), h) {
				return true
			}
		case <-timer.C:
			return !c.alive(context.Background(), h)
		}
	}
}

// liveHandle returns the current handle if its process is alive. A dead
// handle is dropped so the next Start can proceed.
func (c *Controller) liveHandle(ctx context.Context) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		return nil
	}
	if !c.alive(ctx, c.handle) {
		c.logger.Info("Discarding handle of exited server", slog.Int("pid", c.handle.PID))
		c.handle = nil
		return nil
	}
	return c.handle
}

// alive asks the OS whether h's process still exists and is not a zombie.
func (c *Controller) alive(ctx context.Context, h *Handle) bool {
	if h.Exited() {
		return false
	}

	p, err := process.NewProcessWithContext(ctx, int32(h.PID))
	if err != nil {
		return false
	}
	running, err := p.IsRunningWithContext(ctx)
	if err != nil || !running {
		return false
	}
	if status, err := p.StatusWithContext(ctx); err == nil && slices.Contains(status, process.Zombie) {
		return false
	}
	return true
}
