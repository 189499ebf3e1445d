package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckSecureOrigin(t *testing.T) {
	tests := []struct {
		name    string
		rawURL string
		wantErr bool
	}{
		{
			name:    "valid HTTPS URL",
			rawURL: "https://panel.example.com",
			wantErr: false,
		},
		{
			name:    "valid HTTP localhost",
			rawURL: "http://localhost:8080",
			wantErr: false,
		},
		{
			name:    "valid HTTP 127.0.0.1",
			rawURL: "http://127.0.0.1:8080",
			wantErr: false,
		},
		{
			name:    "valid HTTP ::1 (IPv6 loopback)",
			rawURL: "http://[::1]:8080",
			wantErr: false,
		},
		{
			name:    "invalid HTTP non-localhost",
			rawURL: "http://panel.example.com",
			wantErr: true,
		},
		{
			name:    "invalid HTTP with localhost substring",
			rawURL: "http://localhost.example.com",
			wantErr: true,
		},
		{
			name:    "invalid HTTP with 127.0.0.1 in domain",
			rawURL: "http://127.0.0.1.example.com",
			wantErr: true,
		},
		{
			name:    "empty URL",
			rawURL: "",
			wantErr: true,
		},
		{
			name:    "invalid URL format",
			rawURL: "not a url",
			wantErr: true,
		},
		{
			name:    "invalid scheme",
			rawURL: "ftp://example.com",
			wantErr: true,
		},
		{
			name:    "HTTPS with path",
			rawURL: "https://panel.example.com/api",
			wantErr: false,
		},
		{
			name:    "HTTPS with port",
			rawURL: "https://panel.example.com:8443",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSecureOrigin(tt.rawURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckSecureOrigin() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatusRecorder(t *testing.T) {
	t.Run("captures status code", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		rw := &statusRecorder{ResponseWriter: recorder}

		rw.WriteHeader(http.StatusNotFound)

		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusNotFound)
		}
	})

	t.Run("write implies 200", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		rw := &statusRecorder{ResponseWriter: recorder}

		n, err := rw.Write([]byte("hello"))
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if rw.statusCode != http.StatusOK {
			t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusOK)
		}
		if rw.bytes != n {
			t.Errorf("bytes = %d, want %d", rw.bytes, n)
		}
	})

	t.Run("passes write header to underlying writer", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		rw := &statusRecorder{ResponseWriter: recorder}

		rw.WriteHeader(http.StatusCreated)

		if recorder.Code != http.StatusCreated {
			t.Errorf("recorder.Code = %d, want %d", recorder.Code, http.StatusCreated)
		}
	})
}

func TestHTTPServer_ServeAndShutdown(t *testing.T) {
	sc, _ := newTestServerContext(t, nil)
	srv := NewHTTPServer(sc, NewHealthChecker(sc))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := <-serveErr; err != http.ErrServerClosed {
		t.Errorf("Serve() error = %v, want %v", err, http.ErrServerClosed)
	}
}

func TestHTTPServer_ShutdownWithoutStart(t *testing.T) {
	sc, _ := newTestServerContext(t, nil)
	srv := NewHTTPServer(sc, nil)

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() without Start() error = %v", err)
	}
}
