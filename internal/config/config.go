// Package config loads and persists the YAML application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SMTPConfig holds outbound mail settings. Username/Password may be left
// empty in the file and resolved from ~/.netrc instead.
type SMTPConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	// UseTLS selects STARTTLS (true, typically port 587) over implicit
	// TLS (false, typically port 465).
	UseTLS bool `yaml:"use_tls" json:"use_tls"`
}

// Config is the top-level application configuration.
type Config struct {
	// CalendarID is a Google calendar identifier (e.g. an address); it is
	// expanded to the public ICS URL form. FeedURL, when set, wins.
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`
	FeedURL    string `yaml:"feed_url,omitempty" json:"feed_url,omitempty"`

	// Timezone is the IANA zone events are displayed in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DaysAhead is the lookahead window: events in [now, now+DaysAhead]
	// make the digest.
	DaysAhead int `yaml:"days_ahead" json:"days_ahead"`

	// Template is the name of the bundled template (without .html).
	// TemplateDir, when set, is searched before the bundle.
	Template    string `yaml:"template" json:"template"`
	TemplateDir string `yaml:"template_dir,omitempty" json:"template_dir,omitempty"`

	Subject     string   `yaml:"subject" json:"subject"`
	FromName    string   `yaml:"from_name" json:"from_name"`
	FromAddress string   `yaml:"from_address,omitempty" json:"from_address,omitempty"`
	Recipients  []string `yaml:"recipients" json:"recipients"`

	SMTP SMTPConfig `yaml:"smtp" json:"smtp"`

	// Schedule is an optional cron expression; empty means single-shot.
	Schedule string `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		CalendarID: "",
		Timezone:   "Europe/Paris",
		DaysAhead:  14,
		Template:   "design_classique",
		Subject:    "Happy au Rouret - Prochains événements",
		FromName:   "Happy au Rouret",
		Recipients: []string{},
		SMTP: SMTPConfig{
			Host:   "smtp.gmail.com",
			Port:   587,
			UseTLS: true,
		},
	}
}

// Normalize fills missing/zero values so partially-filled configs behave.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "Europe/Paris"
	}
	if c.DaysAhead <= 0 {
		c.DaysAhead = 14
	}
	if c.Template == "" {
		c.Template = "design_classique"
	}
	if c.Subject == "" {
		c.Subject = "Happy au Rouret - Prochains événements"
	}
	if c.FromName == "" {
		c.FromName = "Happy au Rouret"
	}
	if c.Recipients == nil {
		c.Recipients = []string{}
	}
	if c.SMTP.Host == "" {
		c.SMTP.Host = "smtp.gmail.com"
	}
	if c.SMTP.Port <= 0 {
		if c.SMTP.UseTLS {
			c.SMTP.Port = 587
		} else {
			c.SMTP.Port = 465
		}
	}

	// Trim stray whitespace from recipient entries and drop empties.
	clean := c.Recipients[:0]
	for _, r := range c.Recipients {
		r = strings.TrimSpace(r)
		if r != "" {
			clean = append(clean, r)
		}
	}
	c.Recipients = clean
}

// ResolvedFeedURL returns the ICS endpoint to fetch.
func (c *Config) ResolvedFeedURL() string {
	if c.FeedURL != "" {
		return c.FeedURL
	}
	return fmt.Sprintf("https://calendar.google.com/calendar/ical/%s/public/basic.ics", c.CalendarID)
}

// Validate checks that a config can actually drive a send run.
func (c *Config) Validate() error {
	if c.CalendarID == "" && c.FeedURL == "" {
		return errors.New("config: calendar_id or feed_url is required")
	}
	if len(c.Recipients) == 0 {
		return errors.New("config: no recipients configured")
	}
	if c.SMTP.Username == "" || c.SMTP.Password == "" {
		return errors.New("config: SMTP credentials missing (set smtp.username/password or a ~/.netrc entry)")
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600) and
// returned. After loading, missing SMTP credentials are resolved from
// ~/.netrc for the configured SMTP host.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	if cfg.SMTP.Username == "" || cfg.SMTP.Password == "" {
		if login, password, ok := netrcCredentials(cfg.SMTP.Host); ok {
			cfg.SMTP.Username = login
			cfg.SMTP.Password = password
		}
	}
	if cfg.FromAddress == "" {
		cfg.FromAddress = cfg.SMTP.Username
	}

	return &cfg, nil
}

// Save writes the configuration atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calmail-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
