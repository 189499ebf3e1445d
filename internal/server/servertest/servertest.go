// Package servertest builds ServerContext fixtures for tests of packages
// layered on top of the panel, such as the MCP tools.
package servertest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/teemow/craftpanel/internal/i18n"
	"github.com/teemow/craftpanel/internal/lifecycle"
	"github.com/teemow/craftpanel/internal/rcon"
	"github.com/teemow/craftpanel/internal/server"
	"github.com/teemow/craftpanel/internal/session"
)

// Console records commands and answers them through Reply, or with
// "ok: <command>" when Reply is nil.
type Console struct {
	mu       sync.Mutex
	commands []string

	// Reply, when set, produces the result for each command.
	Reply func(command string) rcon.Result
}

// Execute implements server.Console.
func (c *Console) Execute(_ context.Context, command string) rcon.Result {
	c.mu.Lock()
	c.commands = append(c.commands, command)
	reply := c.Reply
	c.mu.Unlock()

	if reply != nil {
		return reply(command)
	}
	return rcon.Result{OK: true, Text: "ok: " + command}
}

// Addr implements server.Console.
func (c *Console) Addr() string {
	return "127.0.0.1:25575"
}

// Received returns the commands executed so far.
func (c *Console) Received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.commands...)
}

// NewContext returns a ServerContext whose game server is "sleep 30" with
// short stop timeouts. The log file lives in t.TempDir() and does not exist
// until a test writes it. mutate may adjust the options before construction.
func NewContext(t testing.TB, mutate func(*server.Options)) (*server.ServerContext, *Console) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	console := &Console{}
	controller := lifecycle.NewController(lifecycle.Config{
		Command:                 lifecycle.Command{Path: "sleep", Args: []string{"30"}},
		GracefulTimeout:         200 * time.Millisecond,
		ForcefulTimeout:         200 * time.Millisecond,
		RestartDelay:            10 * time.Millisecond,
		ShutdownGracefulTimeout: 200 * time.Millisecond,
		PollInterval:            10 * time.Millisecond,
	}, console, logger)

	codec, err := session.NewCodec("servertest-secret", time.Hour, false)
	if err != nil {
		t.Fatalf("session codec: %v", err)
	}

	opts := server.Options{
		Controller: controller,
		Console:    console,
		Codec:      codec,
		Translator: i18n.New("en"),
		LogFile:    filepath.Join(t.TempDir(), "latest.log"),
		Logger:     logger,
	}
	if mutate != nil {
		mutate(&opts)
	}

	sc, err := server.NewServerContext(context.Background(), opts)
	if err != nil {
		t.Fatalf("server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Close(context.Background()) })
	return sc, console
}
