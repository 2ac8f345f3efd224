package main

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maynagashev/redactvault/client/internal/tui"
)

const (
	logDir             = "logs"
	logFileName        = "client.log"
	logFilePermissions = 0o666
)

// Set via ldflags at build time.
//
//nolint:gochecknoglobals // ldflags targets
var (
	version    = "dev"
	buildDate  = "unknown"
	commitHash = "N/A"
)

// setupLogging sends slog output to logs/client.log, since stdout belongs to the TUI.
func setupLogging(debug bool) {
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		panic("failed to create log directory: " + err.Error())
	}
	logPath := filepath.Join(logDir, logFileName)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions)
	if err != nil {
		panic("failed to open log file: " + err.Error())
	}
	// The file stays open for the lifetime of the process.

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(logHandler))
	slog.Info("Logger initialized", "path", logPath, "level", level)
}

func printVersion() {
	log.SetOutput(os.Stdout)
	log.SetFlags(0)
	log.Println("Redaction Vault Review")
	log.Printf("Version: %s", version)
	log.Printf("Build Date: %s", buildDate)
	log.Printf("Commit Hash: %s", commitHash)
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	if cfg.Version {
		printVersion()
		return
	}

	setupLogging(cfg.Debug)

	slog.Info("Starting vault review client",
		"server_url", cfg.ServerURL,
		"session_file", cfg.SessionFile,
		"page_size", cfg.PageSize,
		"timeout", cfg.Timeout,
		"debug_mode", cfg.Debug,
	)

	if err = tui.Start(tui.Config{
		ServerURL:   cfg.ServerURL,
		SessionFile: cfg.SessionFile,
		PageSize:    cfg.PageSize,
		Timeout:     cfg.Timeout,
		Debug:       cfg.Debug,
	}); err != nil {
		slog.Error("TUI exited with error", "error", err)
		log.Fatalf("vaultreview: %v", err)
	}
}
