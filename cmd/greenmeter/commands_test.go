package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jgoulah/greenmeter/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-10-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDate("7d")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), got, time.Minute)

	_, err = parseDate("last week")
	assert.Error(t, err)
}

func TestStatsPutAndSettingCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")
	cfg := filepath.Join(t.TempDir(), "missing.yaml")

	require.NoError(t, execute(t, "--config", cfg, "--db", path, "stats", "put", "--day", "2026-10-16", "--kwh", "12.5", "--cost", "2.25"))
	require.NoError(t, execute(t, "--config", cfg, "--db", path, "setting", "set", "monthly_target", "30"))
	require.NoError(t, execute(t, "--config", cfg, "--db", path, "stats"))
	require.NoError(t, execute(t, "--config", cfg, "--db", path, "readings"))

	assert.Error(t, execute(t, "--config", cfg, "--db", path, "stats", "put", "--day", "16/10/2026"))
	assert.Error(t, execute(t, "--config", cfg, "--db", path, "setting", "get", "unknown"))

	db, err := database.New(path)
	require.NoError(t, err)
	defer db.Close()

	stats, err := db.ListDailyStats(0)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 12.5, stats[0].KWh)

	v, ok, err := db.GetSetting("monthly_target")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "30", v)
}
