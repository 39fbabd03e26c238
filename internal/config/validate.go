package config

import (
	"errors"
	"fmt"
	"net/url"

	"teamdesk/internal/textenc"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately by RequireCredentials so offline commands work without them.
func (c *Config) Validate() error {
	if err := c.validateTeamDesk(); err != nil {
		return err
	}
	if err := c.validateJournal(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTeamDesk() error {
	if c.TeamDesk.TimeoutSeconds <= 0 {
		return errors.New("teamdesk.timeout_seconds must be positive")
	}
	if _, err := textenc.Lookup(c.TeamDesk.SourceCharset); err != nil {
		return fmt.Errorf("teamdesk.source_charset: %w", err)
	}
	if c.TeamDesk.Server != "" {
		parsed, err := url.Parse(c.TeamDesk.Server)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("teamdesk.server must be an absolute URL, got %q", c.TeamDesk.Server)
		}
	}
	return nil
}

func (c *Config) validateJournal() error {
	if c.Journal.RetentionDays < 0 {
		return errors.New("journal.retention_days must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

// RequireCredentials reports whether the settings needed to reach the service
// are present.
func (c *Config) RequireCredentials() error {
	if c.TeamDesk.Server == "" {
		return c.missing("teamdesk.server", "TEAMDESK_SERVER")
	}
	if c.TeamDesk.Email == "" {
		return c.missing("teamdesk.email", "TEAMDESK_EMAIL")
	}
	return nil
}

func (c *Config) missing(key, envVar string) error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("%s is required. Set %s or edit %s (create with 'teamdesk config init')", key, envVar, defaultPath)
}
