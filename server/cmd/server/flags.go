package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/maynagashev/redactvault/models"
)

const (
	defaultServerPort    = "8080"
	defaultTokenTTL      = 24 * time.Hour
	defaultMinioEndpoint = "localhost:9000"
	defaultMinioBucket   = "redactvault-restores"

	envServerPort    = "SERVER_PORT"
	envTLSCertFile   = "TLS_CERT_FILE"
	envTLSKeyFile    = "TLS_KEY_FILE"
	envDatabaseDSN   = "DATABASE_DSN"
	envJWTSecret     = "JWT_SECRET" //nolint:gosec // variable name, not a credential
	envTokenTTL      = "TOKEN_TTL"
	envMinioEndpoint = "MINIO_ENDPOINT"
	envMinioUser     = "MINIO_USER"
	envMinioPassword = "MINIO_PASSWORD" //nolint:gosec // variable name, not a credential
	envMinioBucket   = "MINIO_BUCKET"
	envMinioUseSSL   = "MINIO_USE_SSL"
	envRestorePrefix = "RESTORE_PREFIX"
	envDefaultRole   = "DEFAULT_ROLE"
)

// config holds the server settings.
type config struct {
	Port          string
	CertFile      string
	KeyFile       string
	DatabaseDSN   string
	JWTSecret     string
	TokenTTL      time.Duration
	MinioEndpoint string
	MinioUser     string
	MinioPassword string
	MinioBucket   string
	MinioUseSSL   bool
	RestorePrefix string
	DefaultRole   string
}

// TLSEnabled reports whether both certificate and key are configured.
func (c *config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// parseFlags reads flags, fills unset values from the environment and
// validates the result.
func parseFlags() (*config, error) {
	cfg := &config{}

	flag.StringVar(&cfg.Port, "port", "",
		fmt.Sprintf("HTTP(S) port (env: %s, default: %s)", envServerPort, defaultServerPort))
	flag.StringVar(&cfg.CertFile, "cert-file", "",
		fmt.Sprintf("TLS certificate file, enables HTTPS together with -key-file (env: %s)", envTLSCertFile))
	flag.StringVar(&cfg.KeyFile, "key-file", "",
		fmt.Sprintf("TLS key file (env: %s)", envTLSKeyFile))
	flag.StringVar(&cfg.DatabaseDSN, "database-dsn", "",
		fmt.Sprintf("PostgreSQL connection string (env: %s)", envDatabaseDSN))
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", "",
		fmt.Sprintf("Access token signing secret (env: %s)", envJWTSecret))
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", 0,
		fmt.Sprintf("Access token lifetime (env: %s, default: %s)", envTokenTTL, defaultTokenTTL))
	flag.StringVar(&cfg.MinioEndpoint, "minio-endpoint", "",
		fmt.Sprintf("MinIO endpoint host:port (env: %s, default: %s)", envMinioEndpoint, defaultMinioEndpoint))
	flag.StringVar(&cfg.MinioUser, "minio-user", "",
		fmt.Sprintf("MinIO access key (env: %s)", envMinioUser))
	flag.StringVar(&cfg.MinioPassword, "minio-password", "",
		fmt.Sprintf("MinIO secret key (env: %s)", envMinioPassword))
	flag.StringVar(&cfg.MinioBucket, "minio-bucket", "",
		fmt.Sprintf("Bucket for restore requests (env: %s, default: %s)", envMinioBucket, defaultMinioBucket))
	flag.BoolVar(&cfg.MinioUseSSL, "minio-ssl", false,
		fmt.Sprintf("Use TLS for MinIO (env: %s)", envMinioUseSSL))
	flag.StringVar(&cfg.RestorePrefix, "restore-prefix", "",
		fmt.Sprintf("Object key prefix for restore requests (env: %s)", envRestorePrefix))
	flag.StringVar(&cfg.DefaultRole, "default-role", "",
		fmt.Sprintf("Role given to newly registered users: admin, reviewer or viewer (env: %s, default: %s)",
			envDefaultRole, models.RoleReviewer))

	flag.Parse()

	applyEnv(&cfg.Port, envServerPort, defaultServerPort)
	applyEnv(&cfg.CertFile, envTLSCertFile, "")
	applyEnv(&cfg.KeyFile, envTLSKeyFile, "")
	applyEnv(&cfg.DatabaseDSN, envDatabaseDSN, "")
	applyEnv(&cfg.JWTSecret, envJWTSecret, "")
	applyEnv(&cfg.MinioEndpoint, envMinioEndpoint, defaultMinioEndpoint)
	applyEnv(&cfg.MinioUser, envMinioUser, "")
	applyEnv(&cfg.MinioPassword, envMinioPassword, "")
	applyEnv(&cfg.MinioBucket, envMinioBucket, defaultMinioBucket)
	applyEnv(&cfg.RestorePrefix, envRestorePrefix, "")
	applyEnv(&cfg.DefaultRole, envDefaultRole, models.RoleReviewer)

	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = defaultTokenTTL
		if value, ok := os.LookupEnv(envTokenTTL); ok {
			ttl, err := time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", envTokenTTL, err)
			}
			cfg.TokenTTL = ttl
		}
	}
	if !cfg.MinioUseSSL {
		if value, ok := os.LookupEnv(envMinioUseSSL); ok {
			useSSL, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", envMinioUseSSL, err)
			}
			cfg.MinioUseSSL = useSSL
		}
	}

	if cfg.DatabaseDSN == "" {
		return nil, errors.New("database DSN is required (--database-dsn or " + envDatabaseDSN + ")")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret is required (--jwt-secret or " + envJWTSecret + ")")
	}
	if cfg.MinioUser == "" || cfg.MinioPassword == "" {
		return nil, errors.New("MinIO credentials are required (--minio-user/--minio-password or " +
			envMinioUser + "/" + envMinioPassword + ")")
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("TLS needs both --cert-file and --key-file")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("token TTL must be positive")
	}
	if !models.ValidRole(cfg.DefaultRole) {
		return nil, fmt.Errorf("unknown default role %q", cfg.DefaultRole)
	}

	return cfg, nil
}

func applyEnv(dst *string, key, fallback string) {
	if *dst != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*dst = value
		return
	}
	*dst = fallback
}
