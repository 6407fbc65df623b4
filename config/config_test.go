package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	require.True(t, cfg.Debug)
	require.Equal(t, 1500, cfg.ContentLimit)
	require.Equal(t, "Kunena Forum", cfg.FooterText)
	require.Equal(t, "7289DA", cfg.EmbedColor)
	require.Equal(t, 10*time.Second, cfg.WebhookTimeout)
	require.Equal(t, "file", cfg.Dedup.Backend)
	require.Equal(t, "@every 15s", cfg.Schedule.Spec)
	require.Equal(t, 30*time.Second, cfg.Schedule.Window)
	require.Equal(t, 5, cfg.Schedule.Limit)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `webhook: https://discord.com/api/webhooks/1/abc
content_limit: 800
forum:
  driver: sqlite3
  table_prefix: kx_
schedule:
  window: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("KUNENA_DISCORD_FOOTER_TEXT", "My Board")
	t.Setenv("KUNENA_DISCORD_FORUM_SITE_ROOT", "https://forum.example.org/")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://discord.com/api/webhooks/1/abc", cfg.Webhook)
	require.Equal(t, 800, cfg.ContentLimit)
	require.Equal(t, "sqlite3", cfg.Forum.Driver)
	require.Equal(t, "kx_", cfg.Forum.TablePrefix)
	require.Equal(t, 45*time.Second, cfg.Schedule.Window)
	require.Equal(t, "My Board", cfg.FooterText)
	require.Equal(t, "https://forum.example.org/", cfg.Forum.SiteRoot)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
