package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/guttosm/fundimport/internal/ingestion"
	"github.com/guttosm/fundimport/internal/storage"
)

type dummyHandler struct{}

func (d dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestStartServerAndShutdown(t *testing.T) {
	srv := startServer(dummyHandler{}, "0") // random port
	if srv == nil {
		t.Fatalf("expected server")
	}

	// Give server a moment to start
	time.Sleep(50 * time.Millisecond)

	// Shutdown quickly with short timeout and no-op cleanup
	_, cancel := context.WithCancel(context.Background())
	go func() {
		// trigger gracefulShutdown select by simulating signal via closing after a brief delay
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	// We cannot send OS signals easily here; instead, directly call Shutdown to simulate graceful flow.
	// Verify it doesn't panic and completes.
	shutdownCtx, c := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer c()
	if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		t.Fatalf("shutdown err: %v", err)
	}
}

func TestGracefulShutdown_SignalPath(t *testing.T) {
	// Use a server that responds immediately
	srv := startServer(dummyHandler{}, "0")

	cleaned := make(chan struct{}, 1)
	go func() {
		ctx := context.Background()
		gracefulShutdown(ctx, srv, func() { close(cleaned) })
	}()

	// Give the goroutine time to set up signal notifications
	time.Sleep(50 * time.Millisecond)

	// Send SIGTERM to current process
	p, _ := os.FindProcess(os.Getpid())
	_ = p.Signal(syscall.SIGTERM)

	select {
	case <-cleaned:
		// success
	case <-time.After(2 * time.Second):
		t.Fatalf("cleanup not called after SIGTERM")
	}
}

const cliCSV = "客户号,客户姓名,基金代码,购买金额,购买份额,购买日期\n" +
	"200001,周八,161725,3000,1500,2024-02-01\n" +
	"200002,吴九,519732,abc,100,2024-02-02\n"

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestRunImport_FileAndDir(t *testing.T) {
	dir := t.TempDir()
	file := writeTemp(t, dir, "a.csv", cliCSV)
	writeTemp(t, dir, "b.csv", "")
	writeTemp(t, dir, "notes.md", "ignored")

	repo := storage.NewMemoryRepository()
	cfg := ingestion.DefaultConfig()

	reports, err := runImport(context.Background(), importFlags{file: file}, repo, cfg)
	if err != nil {
		t.Fatalf("file import: %v", err)
	}
	s := summarize(reports)
	if s.Files != 1 || s.Imported != 1 || s.Success != 1 || s.Failed != 1 {
		t.Fatalf("unexpected file summary: %+v", s)
	}

	reports, err = runImport(context.Background(), importFlags{dir: dir}, repo, cfg)
	if err != nil {
		t.Fatalf("dir import: %v", err)
	}
	s = logReports(reports)
	if s.Files != 2 || s.AlreadyImported != 1 || s.Rejected != 1 {
		t.Fatalf("unexpected dir summary: %+v", s)
	}
}

func TestRunImport_FlagErrors(t *testing.T) {
	repo := storage.NewMemoryRepository()
	cfg := ingestion.DefaultConfig()
	cases := []struct {
		name  string
		flags importFlags
	}{
		{name: "none", flags: importFlags{}},
		{name: "both", flags: importFlags{file: "a.csv", dir: "."}},
		{name: "missing file", flags: importFlags{file: filepath.Join(t.TempDir(), "nope.csv")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runImport(context.Background(), tc.flags, repo, cfg); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
