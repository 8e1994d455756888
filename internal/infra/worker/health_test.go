package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"
)

func TestHealthServer_Healthz_NotReady(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	server := NewHealthServer("localhost:19092", logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(ctx); err != nil && err != http.ErrServerClosed {
			t.Errorf("unexpected server error: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://localhost:19092/healthz")
	if err != nil {
		t.Fatalf("failed to call /healthz: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	var response healthResponse
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Status != "not ready" {
		t.Errorf("expected status 'not ready', got '%s'", response.Status)
	}

	cancel()
	time.Sleep(100 * time.Millisecond)
}

func TestHealthServer_Healthz_Ready(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	server := NewHealthServer("localhost:19093", logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(ctx); err != nil && err != http.ErrServerClosed {
			t.Errorf("unexpected server error: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	server.SetReady(true)

	resp, err := http.Get("http://localhost:19093/healthz")
	if err != nil {
		t.Fatalf("failed to call /healthz: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	var response healthResponse
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", response.Status)
	}
	if response.SecondsSinceLastRun != nil {
		t.Errorf("expected no seconds_since_last_successful_run before any recorded run, got %v", *response.SecondsSinceLastRun)
	}

	cancel()
	time.Sleep(100 * time.Millisecond)
}

func TestHealthServer_Healthz_ReportsSecondsSinceLastRun(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	server := NewHealthServer("localhost:19096", logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(ctx); err != nil && err != http.ErrServerClosed {
			t.Errorf("unexpected server error: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	server.SetReady(true)
	server.RecordSuccessfulRun(time.Now().Add(-5 * time.Second))

	resp, err := http.Get("http://localhost:19096/healthz")
	if err != nil {
		t.Fatalf("failed to call /healthz: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	var response healthResponse
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.SecondsSinceLastRun == nil {
		t.Fatal("expected seconds_since_last_successful_run to be set")
	}
	if *response.SecondsSinceLastRun < 4 || *response.SecondsSinceLastRun > 10 {
		t.Errorf("expected seconds_since_last_successful_run near 5, got %d", *response.SecondsSinceLastRun)
	}

	cancel()
	time.Sleep(100 * time.Millisecond)
}

func TestHealthServer_Readiness_Transition(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	server := NewHealthServer("localhost:19094", logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(ctx); err != nil && err != http.ErrServerClosed {
			t.Errorf("unexpected server error: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://localhost:19094/healthz")
	if err != nil {
		t.Fatalf("failed to call /healthz: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 initially, got %d", resp.StatusCode)
	}
	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}

	server.SetReady(true)
	time.Sleep(10 * time.Millisecond)

	resp, err = http.Get("http://localhost:19094/healthz")
	if err != nil {
		t.Fatalf("failed to call /healthz after SetReady: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200 after SetReady(true), got %d", resp.StatusCode)
	}
	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}

	server.SetReady(false)
	time.Sleep(10 * time.Millisecond)

	resp, err = http.Get("http://localhost:19094/healthz")
	if err != nil {
		t.Fatalf("failed to call /healthz after SetReady(false): %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 after SetReady(false), got %d", resp.StatusCode)
	}
	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}

	cancel()
	time.Sleep(100 * time.Millisecond)
}

func TestHealthServer_GracefulShutdown(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	server := NewHealthServer("localhost:19095", logger)

	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			errChan <- err
		}
	}()
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get("http://localhost:19095/healthz")
	if err != nil {
		t.Fatalf("server not running: %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}

	cancel()

	select {
	case err := <-errChan:
		if err != http.ErrServerClosed {
			t.Errorf("expected http.ErrServerClosed, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown timeout")
	}

	_, err = http.Get("http://localhost:19095/healthz")
	if err == nil {
		t.Error("expected connection error after shutdown, but got success")
	}
}

func TestNewHealthServer(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	server := NewHealthServer(":9091", logger)

	if server.addr != ":9091" {
		t.Errorf("expected addr ':9091', got '%s'", server.addr)
	}
	if server.logger == nil {
		t.Error("expected logger to be set")
	}
	if server.isReady == nil {
		t.Fatal("expected isReady to be initialized")
	}
	if server.isReady.Load() {
		t.Error("expected isReady to be false initially")
	}
}

func TestSetReady(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	server := NewHealthServer(":9091", logger)

	if server.isReady.Load() {
		t.Error("expected isReady to be false initially")
	}

	server.SetReady(true)
	if !server.isReady.Load() {
		t.Error("expected isReady to be true after SetReady(true)")
	}

	server.SetReady(false)
	if server.isReady.Load() {
		t.Error("expected isReady to be false after SetReady(false)")
	}
}
