package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/maynagashev/redactvault/client/internal/api"
	"github.com/maynagashev/redactvault/client/internal/repository"
)

const (
	defaultServerURL   = "http://localhost:8080"
	defaultSessionFile = "vaultreview.session.json"

	envServerURL   = "VAULTREVIEW_SERVER_URL"
	envSessionFile = "VAULTREVIEW_SESSION_FILE"
	envPageSize    = "VAULTREVIEW_PAGE_SIZE"
	envTimeout     = "VAULTREVIEW_TIMEOUT"
)

// config holds the client settings after flags and environment are merged.
type config struct {
	ServerURL   string
	SessionFile string
	PageSize    int
	Timeout     time.Duration
	Debug       bool
	Version     bool
}

// parseFlags reads command line flags and falls back to environment
// variables for anything not set explicitly.
func parseFlags() (*config, error) {
	cfg := &config{}

	flag.StringVar(&cfg.ServerURL, "server-url", "",
		fmt.Sprintf("Vault API base URL (env: %s, default: %s)", envServerURL, defaultServerURL))
	flag.StringVar(&cfg.SessionFile, "session-file", "",
		fmt.Sprintf("Path to the persisted session file (env: %s, default: %s)", envSessionFile, defaultSessionFile))
	flag.IntVar(&cfg.PageSize, "page-size", 0,
		fmt.Sprintf("Entries per page (env: %s, default: %d)", envPageSize, repository.DefaultPageSize))
	flag.DurationVar(&cfg.Timeout, "timeout", 0,
		fmt.Sprintf("Request timeout (env: %s, default: %s)", envTimeout, api.DefaultTimeout))
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging and the TUI debug panel")
	flag.BoolVar(&cfg.Version, "version", false, "Print version information and exit")

	flag.Parse()

	if cfg.ServerURL == "" {
		cfg.ServerURL = lookupEnv(envServerURL, defaultServerURL)
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = lookupEnv(envSessionFile, defaultSessionFile)
	}
	if cfg.PageSize == 0 {
		if value, ok := os.LookupEnv(envPageSize); ok {
			size, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", envPageSize, err)
			}
			cfg.PageSize = size
		} else {
			cfg.PageSize = repository.DefaultPageSize
		}
	}
	if cfg.Timeout == 0 {
		if value, ok := os.LookupEnv(envTimeout); ok {
			timeout, err := time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", envTimeout, err)
			}
			cfg.Timeout = timeout
		} else {
			cfg.Timeout = api.DefaultTimeout
		}
	}

	if cfg.PageSize <= 0 {
		return nil, errors.New("page size must be positive (--page-size or " + envPageSize + ")")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("timeout must be positive (--timeout or " + envTimeout + ")")
	}

	return cfg, nil
}

func lookupEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
