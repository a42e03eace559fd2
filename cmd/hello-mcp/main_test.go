package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HerbHall/toolshed/internal/store"
	"github.com/HerbHall/toolshed/internal/toolserver"
)

func TestOpenAuditDB(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.db")

	// Opening twice must not re-run migrations.
	for i := 0; i < 2; i++ {
		db, err := openAuditDB(ctx, path)
		if err != nil {
			t.Fatalf("openAuditDB #%d: %v", i+1, err)
		}
		audit := toolserver.NewAuditStore(db.DB())
		if _, _, err := audit.List(ctx, "", 10, 0); err != nil {
			t.Fatalf("List: %v", err)
		}
		db.Close()
	}
}

func TestOpenAuditDB_newer_schema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.db")

	db, err := store.New(path)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	if err := db.CheckVersion(ctx, "99.0.0"); err != nil {
		t.Fatalf("CheckVersion: %v", err)
	}
	db.Close()

	// The test binary reports "dev", which is always accepted.
	db, err = openAuditDB(ctx, path)
	if err != nil {
		t.Fatalf("openAuditDB with dev binary: %v", err)
	}
	db.Close()
}

func TestOpenAuditDB_bad_path(t *testing.T) {
	_, err := openAuditDB(context.Background(), "/nonexistent/dir/audit.db")
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
	if errors.Is(err, store.ErrNewerSchema) {
		t.Errorf("unexpected ErrNewerSchema: %v", err)
	}
}

func TestMetricsMux(t *testing.T) {
	srv := toolserver.New(toolserver.Options{Name: "metrics-test"}, nil)
	if err := srv.Register(toolserver.Tool{
		Name:    "ping",
		Handler: func(context.Context, toolserver.Args) (string, error) { return "pong", nil },
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := srv.Call(context.Background(), "ping", nil); err != nil {
		t.Fatalf("Call: %v", err)
	}

	ts := httptest.NewServer(metricsMux())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), `toolshed_tool_calls_total{status="ok",tool="ping"}`) {
		t.Errorf("metrics output missing ping counter:\n%s", body)
	}
}
