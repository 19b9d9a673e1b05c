// Package main is the entry point for the ETC operations console.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/etc-monitor-tui/internal/app"
	"github.com/j-veylop/etc-monitor-tui/internal/config"
	"github.com/j-veylop/etc-monitor-tui/internal/logger"
	"github.com/j-veylop/etc-monitor-tui/internal/lookup"
	"github.com/j-veylop/etc-monitor-tui/internal/services"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/tabs/alerts"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/tabs/analysis"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/tabs/info"
	"github.com/j-veylop/etc-monitor-tui/internal/ui/tabs/traffic"
	"github.com/j-veylop/etc-monitor-tui/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The terminal belongs to the TUI, so logs go to a file or nowhere.
	logCloser, err := logger.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logCloser.Close()

	tables, err := lookup.Load(cfg.LookupTablesPath)
	if err != nil {
		return fmt.Errorf("failed to load lookup tables: %w", err)
	}

	svcManager, err := services.NewManager(cfg, tables)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	logger.Info("starting console", "version", version.GetVersion(), "run_id", svcManager.RunID(), "api", cfg.APIBaseURL)

	model := app.NewModel(svcManager)

	// Tab order matches app.TabID.
	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state, svcManager),
		traffic.New(state, svcManager),
		alerts.New(state, svcManager),
		analysis.New(state, svcManager),
		info.New(state, svcManager),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.Quit())
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`ETC Monitor - highway toll operations console

Usage:
  etcmon [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-5             Switch tabs (Dashboard, Traffic, Alerts, Analysis, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Navigate lists
  /               Search (Traffic, Alerts)
  f               Edit filters (Traffic)
  n/b             Next/previous page
  p               Pause or resume polling (Dashboard)
  r               Refresh data
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  API_BASE_URL        Toll backend base URL (default: http://localhost:8080)
  POLL_INTERVAL       Dashboard polling interval (default: 5s)
  REQUEST_TIMEOUT     Per-request timeout (default: 10s)
  WINDOW_MINUTES      Traffic window in minutes (default: 60)
  ALERTS_SIZE         Recent alerts fetched per cycle (default: 20)
  PAGE_SIZE           Traffic page size (default: 20)
  LOOKUP_TABLES_PATH  YAML file overriding station and code labels
  CYCLE_JOURNAL_PATH  SQLite file journaling poll cycles (disabled when empty)
  METRICS_ADDR        Prometheus listen address, e.g. :9090 (disabled when empty)
  NOTIFY              Desktop notifications (default: true)
  LOG_FILE            Log file path (logs are discarded when empty)
  LOG_LEVEL           debug, info, warn or error (default: info)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/etc-monitor/.env
  - ~/.etc-monitor/.env`)
}
