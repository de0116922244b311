package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "casetime"
	configFile = "config.yaml"

	DefaultSheetName      = "Tasks"
	DefaultRequestTimeout = "30s"
	DefaultStateFile      = "tasks.json"
)

// Auth modes.
const (
	AuthOAuth          = "oauth"
	AuthServiceAccount = "service_account"
)

type AuthConfig struct {
	Mode               string `yaml:"mode"`
	CredentialsFile    string `yaml:"credentials_file"`
	TokenFile          string `yaml:"token_file"`
	ServiceAccountFile string `yaml:"service_account_file,omitempty"`
}

type Config struct {
	SpreadsheetID    string     `yaml:"spreadsheet_id"`
	SheetName        string     `yaml:"sheet_name"`
	ValueInputOption string     `yaml:"value_input_option"`
	RequestTimeout   string     `yaml:"request_timeout"`
	StateFile        string     `yaml:"state_file"`
	Auth             AuthConfig `yaml:"auth"`

	// Dir is the directory relative paths are resolved against.
	Dir string `yaml:"-"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.SheetName == "" {
		c.SheetName = DefaultSheetName
	}
	if c.ValueInputOption == "" {
		c.ValueInputOption = "USER_ENTERED"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.StateFile == "" {
		c.StateFile = DefaultStateFile
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = AuthOAuth
	}
	if c.Auth.CredentialsFile == "" {
		c.Auth.CredentialsFile = "credentials.json"
	}
	if c.Auth.TokenFile == "" {
		c.Auth.TokenFile = "token.json"
	}
	if c.Auth.ServiceAccountFile == "" {
		c.Auth.ServiceAccountFile = "service_account.json"
	}
}

// Validate checks the fields every remote operation needs.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("no spreadsheet configured. Run 'casetime config set-sheet <spreadsheet-id> <sheet-name>'")
	}
	if c.SheetName == "" {
		return fmt.Errorf("sheet name is empty")
	}
	switch c.Auth.Mode {
	case AuthOAuth, AuthServiceAccount:
	default:
		return fmt.Errorf("unknown auth mode '%s' (expected %s or %s)", c.Auth.Mode, AuthOAuth, AuthServiceAccount)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// Timeout is the bound applied to each remote round trip.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid request_timeout '%s': %w", c.RequestTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return d, nil
}

// Path resolves a configured file name against the config directory.
func (c *Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// GetXdgHome returns ~/.config/casetime.
func GetXdgHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := GetXdgHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config file at path, or the default location when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	}
	cfg.Dir = filepath.Dir(path)
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config back to path, or the default location when path is empty.
func Save(path string, cfg *Config) error {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
