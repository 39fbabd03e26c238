package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"

	"teamdesk/internal/config"
)

func clearTeamDeskEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TEAMDESK_SERVER", "TEAMDESK_EMAIL", "TEAMDESK_PASSWORD", "TEAMDESK_TIMEOUT", "TEAMDESK_USER_AGENT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearTeamDeskEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	require.False(t, exists)
	require.Equal(t, filepath.Join(tempHome, ".config", "teamdesk", "config.toml"), resolved)

	require.Equal(t, 60, cfg.TeamDesk.TimeoutSeconds)
	require.Equal(t, "ISO-8859-1", cfg.TeamDesk.SourceCharset)
	require.Equal(t, filepath.Join(tempHome, ".local", "share", "teamdesk", "journal.db"), cfg.Journal.Path)
	require.Equal(t, "console", cfg.Logging.Format)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Error(t, cfg.RequireCredentials())
}

func TestLoadFileAndEnvironmentOverlay(t *testing.T) {
	clearTeamDeskEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "teamdesk.toml")
	content := `
[teamdesk]
server = " https://example.test/secure/api/service.asmx "
email = "file@example.com"
password = "file-secret"
timeout_seconds = 20

[logging]
format = "JSON"
level = "Debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("TEAMDESK_PASSWORD", "env-secret")
	t.Setenv("TEAMDESK_TIMEOUT", "5")

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, path, resolved)

	require.Equal(t, "https://example.test/secure/api/service.asmx", cfg.TeamDesk.Server)
	require.Equal(t, "file@example.com", cfg.TeamDesk.Email)
	require.Equal(t, "env-secret", cfg.TeamDesk.Password)
	require.Equal(t, 5, cfg.TeamDesk.TimeoutSeconds)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.NoError(t, cfg.RequireCredentials())
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearTeamDeskEnv(t)
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TEAMDESK_SERVER=https://dotenv.test/service.asmx\nTEAMDESK_EMAIL=dotenv@example.com\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("TEAMDESK_SERVER")
		_ = os.Unsetenv("TEAMDESK_EMAIL")
	})

	cfg, _, _, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "https://dotenv.test/service.asmx", cfg.TeamDesk.Server)
	require.Equal(t, "dotenv@example.com", cfg.TeamDesk.Email)
}

func TestLoadProjectFileFallback(t *testing.T) {
	clearTeamDeskEnv(t)
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "teamdesk.toml"), []byte("[teamdesk]\nemail = \"project@example.com\"\n"), 0o600))

	cfg, resolved, exists, err := config.Load("")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "teamdesk.toml", filepath.Base(resolved))
	require.Equal(t, "project@example.com", cfg.TeamDesk.Email)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"timeout": func(c *config.Config) { c.TeamDesk.TimeoutSeconds = -1 },
		"charset": func(c *config.Config) { c.TeamDesk.SourceCharset = "klingon-8" },
		"server":   func(c *config.Config) { c.TeamDesk.Server = "not a url" },
		"format":   func(c *config.Config) { c.Logging.Format = "xml" },
		"level":    func(c *config.Config) { c.Logging.Level = "trace" },
		"journal": func(c *config.Config) { c.Journal.RetentionDays = -3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, config.CreateSample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, toml.Unmarshal(data, &cfg))
	require.Equal(t, 60, cfg.TeamDesk.TimeoutSeconds)
	require.Equal(t, "ISO-8859-1", cfg.TeamDesk.SourceCharset)
	require.NoError(t, cfg.Validate())
}

func TestExpandPathTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/data/journal.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "data", "journal.db"), got)
}
