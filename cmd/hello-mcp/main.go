// Command hello-mcp serves the hello tool over MCP on stdin/stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HerbHall/toolshed/internal/config"
	"github.com/HerbHall/toolshed/internal/greeting"
	"github.com/HerbHall/toolshed/internal/store"
	"github.com/HerbHall/toolshed/internal/toolserver"
	"github.com/HerbHall/toolshed/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "hello-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	v, err := config.Load(configPath, "hello-mcp")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(v)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("hello-mcp starting", zap.String("version", version.Short()))
	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var audit *toolserver.AuditStore
	if cfg.Audit.DBPath != "" {
		db, err := openAuditDB(ctx, cfg.Audit.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		audit = toolserver.NewAuditStore(db.DB())
		logger.Info("audit log enabled", zap.String("path", cfg.Audit.DBPath))
	}

	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr, logger.Named("metrics"))
		defer stop()
	}

	srv := toolserver.New(toolserver.Options{
		Name:      cfg.Server.Name,
		Version:   version.Short(),
		Transport: "stdio",
		Audit:     audit,
	}, logger.Named("toolserver"))

	if err := srv.Register(greeting.Tool()); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	err = srv.Run(ctx, &sdkmcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server error: %w", err)
	}
	logger.Info("hello-mcp stopped")
	return nil
}

func openAuditDB(ctx context.Context, path string) (*store.SQLiteStore, error) {
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Migrate(ctx, toolserver.MigrationOwner, toolserver.Migrations()); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit migrations: %w", err)
	}
	return db, nil
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// serveMetrics exposes the Prometheus registry on addr until the returned
// function is called.
func serveMetrics(addr string, logger *zap.Logger) func() {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listener started", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(ctx)
	}
}
