// Package config loads server settings from a TOML file with env vars for
// secrets. Mongo connection parameters live in pkg/storage/mongo and are
// read from the environment there.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Addr        string `toml:"addr"`
	LogLevel    string `toml:"logLevel"`
	FrontendURL string `toml:"frontendURL"`
	BuildDir    string `toml:"buildDir"`

	AllowedOrigins []string `toml:"allowedOrigins"`

	// Identities granted elevated roles, matched against the provider's
	// stable user id.
	AdminUserID     string `toml:"adminUserID"`
	ModeratorUserID string `toml:"moderatorUserID"`

	// Optional access-log shipping. Empty brokers disable it.
	KafkaBrokers []string `toml:"kafkaBrokers"`
	KafkaTopic   string   `toml:"kafkaTopic"`

	OIDCIssuer      string `toml:"oidcIssuer"`
	OIDCRedirectURL string `toml:"oidcRedirectURL"`

	// From env only, never the config file.
	NYTAPIKey        string `toml:"-"`
	SessionKey       string `toml:"-"`
	OIDCClientID     string `toml:"-"`
	OIDCClientSecret string `toml:"-"`
}

func Default() *Config {
	return &Config{
		Addr:        ":8000",
		LogLevel:    "info",
		FrontendURL: "http://localhost:5173",
		BuildDir:    "build",
		KafkaTopic:  "access-log",
	}
}

// Load decodes the TOML file at path over the defaults, then applies env
// overrides. An empty path skips the file and uses defaults alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.NYTAPIKey = os.Getenv("NYT_API_KEY")
	cfg.SessionKey = os.Getenv("SESSION_KEY")
	cfg.OIDCClientID = os.Getenv("OIDC_CLIENT_ID")
	cfg.OIDCClientSecret = os.Getenv("OIDC_CLIENT_SECRET")

	return cfg, nil
}
