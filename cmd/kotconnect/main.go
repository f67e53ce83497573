package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmynk/kotconnect/internal/app"
	"github.com/mmynk/kotconnect/internal/config"
	"github.com/mmynk/kotconnect/internal/ui"
	"github.com/mmynk/kotconnect/internal/ui/keys"
	"github.com/mmynk/kotconnect/internal/ui/styles"
	"github.com/mmynk/kotconnect/internal/ui/views"
	"github.com/mmynk/kotconnect/pkg/logging"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default $KOTCONNECT_CONFIG)")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("kotconnect %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if err := run(*configPath, *metricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, metricsAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	// The UI owns the terminal, so logs go to a file.
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logging.SetupWithWriter(logFile, logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := client.ServeMetrics(ctx, cfg.MetricsAddr); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	root := ui.NewApp(&views.Env{
		Ctx:    ctx,
		App:    client,
		Styles: styles.NewStyles(),
		Keys:   keys.DefaultKeyMap(),
		Now:    time.Now,
	})
	defer root.Close()

	p := tea.NewProgram(root, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run application: %w", err)
	}
	slog.Info("Client stopped")
	return nil
}
