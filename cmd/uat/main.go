// Package main is the entry point for the usage analytics TUI.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/j-veylop/usage-analytics-tui/internal/app"
	"github.com/j-veylop/usage-analytics-tui/internal/config"
	"github.com/j-veylop/usage-analytics-tui/internal/db"
	"github.com/j-veylop/usage-analytics-tui/internal/logger"
	"github.com/j-veylop/usage-analytics-tui/internal/services"
	"github.com/j-veylop/usage-analytics-tui/internal/ui/tabs/analytics"
	"github.com/j-veylop/usage-analytics-tui/internal/ui/tabs/info"
	"github.com/j-veylop/usage-analytics-tui/internal/version"
)

var (
	errPrefix  = color.New(color.FgRed, color.Bold).SprintFunc()
	okPrefix   = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnPrefix = color.New(color.FgYellow).SprintFunc()
)

// options holds the parsed command line.
type options struct {
	link       string
	importPath string
}

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

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n\n", errPrefix("Error:"), err)
		printUsage()
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errPrefix("Error:"), err)
		os.Exit(1)
	}
}

// parseArgs reads --link and --import.
func parseArgs(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--link", "--import":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%s needs a value", args[i])
			}
			if args[i] == "--link" {
				opts.link = args[i+1]
			} else {
				opts.importPath = args[i+1]
			}
			i++
		default:
			return opts, fmt.Errorf("unknown argument %q", args[i])
		}
	}
	return opts, nil
}

// run contains the main application logic, separated for cleaner error handling.
func run(opts options) error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Point the logger at its file; the terminal belongs to the UI
	logCloser, err := logger.Init(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logCloser.Close()

	if opts.importPath != "" {
		return importRecords(cfg, opts.importPath)
	}

	// 3. Initialize the service manager
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "%s error closing services: %v\n", warnPrefix("Warning:"), closeErr)
		}
	}()

	if opts.link != "" {
		if err := svcManager.Link().SetLink(opts.link); err != nil {
			return fmt.Errorf("invalid --link: %w", err)
		}
	}

	logger.Info("Starting usage analytics",
		"version", version.GetVersion(),
		"source", svcManager.SourceDescription(),
		"timezone", svcManager.InitialTimeZone(),
	)

	// 4. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 5. Initialize tabs with shared state and services
	state := model.GetState()
	tabs := []app.Tab{
		analytics.New(state, svcManager), // Tab 0: Analytics - bucketed usage
		info.New(state, cfg, svcManager), // Tab 1: Info - selection and configuration
	}
	model.SetTabs(tabs)

	// 6. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	// 7. Run the TUI program. This blocks until the user quits.
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// importRecords loads a usage-analytics JSON export into the local database.
func importRecords(cfg *config.Config, path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		err = errors.Join(err, database.Close())
	}()

	n, err := database.ImportJSON(context.Background(), f)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}

	logger.Info("Imported daily records", "count", n, "path", path)
	fmt.Printf("%s imported %d daily records into %s\n", okPrefix("Done:"), n, cfg.DatabasePath)
	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`Usage Analytics TUI - calendar-aligned SMS, chatbot and call usage

Usage:
  uat [flags]

Flags:
  -h, --help        Show this help message
  -v, --version     Show version information
  --link <url>      Open the range carried by a shared link
  --import <file>   Import a usage-analytics JSON export into the local database

Keyboard Shortcuts:
  1-2             Switch between tabs (Analytics, Info)
  Tab/Shift+Tab   Navigate between tabs
  t / T           Next / previous range preset
  c               Enter custom dates
  m               Next metric
  v               Compare all metrics
  r               Refresh data
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  USAGE_API_URL      Remote usage-analytics endpoint base (local database when unset)
  USAGE_API_TOKEN    Bearer token for the remote endpoint
  TENANT_ID          Tenant sent with remote requests
  TENANT_TIMEZONE    Zone reported by the local database (default: UTC)
  BROWSER_TIMEZONE   Initial zone guess (default: system zone)
  DATABASE_PATH      SQLite database path
  LINK_PATH          File holding the shareable link
  LOG_PATH           Log file path (empty disables logging)
  LOG_LEVEL          debug, info, warn or error (default: info)
  FETCH_TIMEOUT      Per-request timeout (default: 30s)
  FETCH_ATTEMPTS     Attempts for transient failures (default: 3)
  USAGE_CACHE_TTL    Response cache lifetime (default: 1m)
  NOTIFY_REALIGN     Desktop notification when the range is realigned (default: true)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/usage-analytics-tui/.env
  - ~/.uat/.env`)
}
