package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fahchen/aura/internal/events"
	"github.com/fahchen/aura/internal/registry"
)

func writeFile(path string) error {
	return os.WriteFile(path, []byte("stale"), 0o644)
}

func dialProbe(path string) (net.Conn, error) {
	return net.DialTimeout("unix", path, 200*time.Millisecond)
}

func TestServerAppliesValidEventsAndSkipsMalformedLines(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "aura.sock")
	reg := registry.New()
	s := NewServer(sockPath, reg)
	s.DefaultAgent = events.AgentClaudeCode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(ctx) }()

	waitForSocket(t, sockPath)

	// A malformed line is skipped and the valid line after it on the
	// same connection is still applied.
	raw, err := dialProbe(sockPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := raw.Write([]byte("not json\n" + `{"type":"activity","session_id":"s0"}` + "\n")); err != nil {
		t.Fatal(err)
	}
	raw.Close()

	SendEvents(sockPath, []events.AgentEvent{
		events.NewSessionStarted("s1", "/p", events.AgentClaudeCode),
		events.NewActivity("s1", "/p"),
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if reg.Has("s1") && reg.Has("s0") {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !reg.Has("s1") {
		t.Fatal("expected session s1 to be registered")
	}
	if !reg.Has("s0") {
		t.Fatal("expected session s0 from the line after the malformed one to be registered")
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down after cancel")
	}
}

func TestServerRemovesStaleSocketFileOnStartup(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "aura.sock")
	if err := writeFile(sockPath); err != nil {
		t.Fatal(err)
	}

	reg := registry.New()
	s := NewServer(sockPath, reg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(ctx) }()
	waitForSocket(t, sockPath)
	cancel()

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestSendEventsToMissingSocketDoesNotPanic(t *testing.T) {
	SendEvents(filepath.Join(t.TempDir(), "nonexistent.sock"), []events.AgentEvent{
		events.NewActivity("s1", "/p"),
	})
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := dialProbe(path); err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket %s never became ready", path)
}
