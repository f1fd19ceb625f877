package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Runtime modes for the studio client.
const (
	ModeNative = "native"
	ModeWeb    = "web"
)

// Config holds all environment-based configuration for token-studio.
// Client and server binaries share one config; each reads the fields
// relevant to it.
type Config struct {
	// Mode selects the client transport: "native" spawns the sidecar
	// process, "web" talks HTTP to a studio server.
	Mode string `env:"STUDIO_MODE" envDefault:"native"`

	// ServerURL is the base URL of the studio server (required in web mode).
	ServerURL string `env:"STUDIO_SERVER_URL"`

	// SidecarPath overrides sidecar discovery. When empty, the sidecar is
	// looked up next to the executable and on PATH.
	SidecarPath string `env:"STUDIO_SIDECAR_PATH"`

	// DataDir holds the local state database. Defaults to ~/.token-studio.
	DataDir string `env:"STUDIO_DATA_DIR"`

	// Environment controls log format.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"STUDIO_LOG_LEVEL" envDefault:"info"`

	// Server settings (token-studio-server only).
	ListenAddr string `env:"STUDIO_LISTEN_ADDR" envDefault:":8787"`
	AzPath     string `env:"STUDIO_AZ_PATH" envDefault:"az"`

	// Credential sources evaluated by the server-side resolver, in the
	// documented priority order: Key Vault certificate, local certificate,
	// Key Vault secret, local secret.
	TenantID          string `env:"AZURE_TENANT_ID"`
	ClientID          string `env:"AZURE_CLIENT_ID"`
	ClientSecret      string `env:"AZURE_CLIENT_SECRET"`
	RedirectURI       string `env:"STUDIO_REDIRECT_URI"`
	KeyVaultURI       string `env:"STUDIO_KEYVAULT_URI"`
	KeyVaultSecret    string `env:"STUDIO_KEYVAULT_SECRET_NAME"`
	KeyVaultCert      string `env:"STUDIO_KEYVAULT_CERT_NAME"`
	LocalCertFile     string `env:"STUDIO_CLIENT_CERT_FILE"`
	LocalCertPassword string `env:"STUDIO_CLIENT_CERT_PASSWORD"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing client secrets to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}

		cfg.DataDir = dir
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeNative, ModeWeb:
	default:
		return fmt.Errorf("STUDIO_MODE must be %q or %q, got %q", ModeNative, ModeWeb, c.Mode)
	}

	if c.Mode == ModeWeb {
		if c.ServerURL == "" {
			return fmt.Errorf("STUDIO_SERVER_URL is required in web mode")
		}

		u, err := url.Parse(c.ServerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("STUDIO_SERVER_URL must be an absolute URL: %q", c.ServerURL)
		}
	}

	// A Key Vault credential reference needs both the vault and the
	// item name; one without the other is a misconfiguration rather
	// than an unconfigured source.
	if c.KeyVaultURI == "" && (c.KeyVaultSecret != "" || c.KeyVaultCert != "") {
		return fmt.Errorf("STUDIO_KEYVAULT_URI is required when a Key Vault secret or certificate name is set")
	}

	return nil
}

// IsNative returns true when the client runs against the sidecar.
func (c *Config) IsNative() bool {
	return c.Mode == ModeNative
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DefaultDataDir returns ~/.token-studio.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}

	return filepath.Join(home, ".token-studio"), nil
}
