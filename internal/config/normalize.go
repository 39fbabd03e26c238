package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeTeamDesk()
	if err := c.normalizeJournal(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeTeamDesk() {
	c.TeamDesk.Server = strings.TrimSpace(c.TeamDesk.Server)
	c.TeamDesk.Email = strings.TrimSpace(c.TeamDesk.Email)
	c.TeamDesk.UserAgent = strings.TrimSpace(c.TeamDesk.UserAgent)
	c.TeamDesk.SourceCharset = strings.TrimSpace(c.TeamDesk.SourceCharset)
	if c.TeamDesk.SourceCharset == "" {
		c.TeamDesk.SourceCharset = defaultSourceCharset
	}
	if c.TeamDesk.TimeoutSeconds == 0 {
		c.TeamDesk.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeJournal() error {
	if strings.TrimSpace(c.Journal.Path) == "" {
		c.Journal.Path = defaultJournalPath
	}
	var err error
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		expanded, err := expandPath(file)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}
