package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/vault"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  bool
	stopLog  *[]string
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped = true
	if s.stopLog != nil {
		*s.stopLog = append(*s.stopLog, s.name)
	}
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	failing := &fakeService{name: "http", startErr: errors.New("bind failed")}
	blocking := &fakeService{name: "worker", block: true}

	err := NewRunner(failing, blocking).Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "bind failed" {
		t.Fatalf("expected start error, got %v", err)
	}
	if !failing.stopped || !blocking.stopped {
		t.Fatalf("all services should be stopped")
	}
}

func TestRunnerStopsInReverseOrder(t *testing.T) {
	var order []string
	first := &fakeService{name: "http", block: true, stopLog: &order}
	second := &fakeService{name: "worker", startErr: errors.New("redis down"), stopLog: &order}

	if err := NewRunner(first, nil, second).Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected worker error")
	}
	if strings.Join(order, ",") != "worker,http" {
		t.Fatalf("unexpected stop order: %v", order)
	}
}

func TestHTTPServiceServesAndStops(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	svc := NewHTTPService(config.ServerConfig{Host: "127.0.0.1", Port: "0"}, handler)
	if svc.server.ReadHeaderTimeout != 5*time.Second || svc.server.WriteTimeout != 30*time.Second {
		t.Fatalf("default timeouts not applied: %+v", svc.server)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for svc.Addr() == "127.0.0.1:0" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	resp, err := http.Get("http://" + svc.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("start should return nil after shutdown, got %v", err)
	}
}

func TestRunnerCancelledContextIsClean(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(&fakeService{name: "worker", block: true}).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if err := (*Runner)(nil).Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("nil runner should fail")
	}
}

func TestBuildRunnerValidatesInputs(t *testing.T) {
	v, err := vault.New(bytes.Repeat([]byte{1}, vault.KeySize))
	if err != nil {
		t.Fatalf("new vault failed: %v", err)
	}
	if _, err := BuildRunner(nil, v, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
	if _, err := BuildRunner(&config.Config{}, nil, ModeAll); err == nil {
		t.Fatalf("nil vault should fail")
	}
	if _, err := BuildRunner(&config.Config{}, v, "cron"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestNormalizeOptions(t *testing.T) {
	opts := normalizeOptions(Options{})
	if opts.Mode != ModeAll || opts.ShutdownTimeout != 10*time.Second || opts.Logger == nil {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestNormalizeOptionsUsesServerShutdownTimeout(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{ShutdownTimeoutSeconds: 3}}
	if got := normalizeOptions(Options{Config: cfg}).ShutdownTimeout; got != 3*time.Second {
		t.Fatalf("expected configured shutdown timeout, got %s", got)
	}
	if got := normalizeOptions(Options{Config: cfg, ShutdownTimeout: time.Second}).ShutdownTimeout; got != time.Second {
		t.Fatalf("explicit timeout should win, got %s", got)
	}
}

func TestResourceServiceReleasesOnStop(t *testing.T) {
	released := 0
	svc := &resourceService{release: func() error { released++; return nil }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start should return nil once cancelled: %v", err)
	}
	if err := svc.Stop(context.Background()); err != nil || released != 1 {
		t.Fatalf("stop should release once, got released=%d err=%v", released, err)
	}
	if err := (&resourceService{}).Stop(context.Background()); err != nil {
		t.Fatalf("nil release should be a no-op: %v", err)
	}
}
