package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	v := New()

	cfg, err := Load(v, "")
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Database.Driver)
	assert.Equal(t, "https://graphql.anilist.co", cfg.AniList.Endpoint)
	assert.Equal(t, "halt", cfg.Ingest.UnresolvedPolicy)
	assert.Equal(t, "volume", cfg.Ingest.Numbering)
	assert.True(t, cfg.Ingest.RemoveSource)
	assert.Equal(t, "cbz", cfg.Archive.Format)
	assert.Equal(t, "mirror", cfg.Archive.Layout)
	assert.Equal(t, 10*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, cfg.Database.Path+".lock", cfg.LockPath())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
source_dir: /data/incoming
archive_dir: /data/library
quarantine_dir: /data/quarantine
database:
  driver: sqlite
  path: /data/ledger.sqlite
anilist:
  user_id: 1234
ingest:
  unresolved_policy: skip
  numbering: chapter
archive:
  format: epub
  layout: tracker
notify:
  urls:
    - ntfy://ntfy.sh/manga
`)

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/data/incoming", cfg.SourceDir)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 1234, cfg.AniList.UserID)
	assert.Equal(t, "skip", cfg.Ingest.UnresolvedPolicy)
	assert.Equal(t, "chapter", cfg.Ingest.Numbering)
	assert.Equal(t, "epub", cfg.Archive.Format)
	assert.Equal(t, "tracker", cfg.Archive.Layout)
	assert.Equal(t, []string{"ntfy://ntfy.sh/manga"}, cfg.Notify.URLs)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "anilist:\n  user_id: 1\n")
	t.Setenv("MANGASHELF_ANILIST_USER_ID", "42")
	t.Setenv("MANGASHELF_INGEST_UNRESOLVED_POLICY", "skip")
	t.Setenv("MANGASHELF_ANILIST_TOKEN", "secret")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.AniList.UserID)
	assert.Equal(t, "skip", cfg.Ingest.UnresolvedPolicy)
	assert.Equal(t, "secret", cfg.AniList.Token)
}

func TestLoadRejectsInvalidEnums(t *testing.T) {
	path := writeConfig(t, "archive:\n  format: rar\n")

	_, err := Load(New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive.format")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateIngest(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		SourceDir:     dir,
		ArchiveDir:    filepath.Join(dir, "archive"),
		QuarantineDir: filepath.Join(dir, "quarantine"),
		AniList:       AniListConfig{UserID: 7},
	}
	assert.NoError(t, cfg.ValidateIngest())

	missing := *cfg
	missing.SourceDir = filepath.Join(dir, "nope")
	assert.Error(t, missing.ValidateIngest())

	noArchive := *cfg
	noArchive.ArchiveDir = ""
	assert.Error(t, noArchive.ValidateIngest())

	noUser := *cfg
	noUser.AniList.UserID = 0
	assert.Error(t, noUser.ValidateIngest())
}
