package common

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/craftpanel/internal/server/servertest"
)

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc, _ := servertest.NewContext(t, nil)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	wrapped := InstrumentedToolHandler("test_tool", sc, handler)
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
	if result == nil || result.IsError {
		t.Errorf("expected successful result, got %+v", result)
	}
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	sc, _ := servertest.NewContext(t, nil)

	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	wrapped := InstrumentedToolHandler("test_tool", sc, handler)
	_, err := wrapped(context.Background(), mcp.CallToolRequest{})

	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestInstrumentedToolHandler_ErrorResult(t *testing.T) {
	sc, _ := servertest.NewContext(t, nil)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("server is not running"), nil
	}

	wrapped := InstrumentedToolHandler("test_tool", sc, handler)
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatalf("expected error result to pass through, got %+v", result)
	}
	if got := resultText(result); got != "server is not running" {
		t.Errorf("resultText() = %q, want %q", got, "server is not running")
	}
}

func TestResultText_NoTextContent(t *testing.T) {
	result := &mcp.CallToolResult{IsError: true}
	if got := resultText(result); got != "tool returned an error" {
		t.Errorf("resultText() = %q", got)
	}
}
