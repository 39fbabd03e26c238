package config

const (
	defaultConfigPath     = "~/.config/teamdesk/config.toml"
	defaultJournalPath    = "~/.local/share/teamdesk/journal.db"
	defaultTimeoutSeconds = 60
	defaultSourceCharset  = "ISO-8859-1"
	defaultRetentionDays  = 30
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		TeamDesk: TeamDesk{
			TimeoutSeconds: defaultTimeoutSeconds,
			SourceCharset:  defaultSourceCharset,
		},
		Journal: Journal{
			Path:          defaultJournalPath,
			RetentionDays: defaultRetentionDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
