package database

import (
	"path/filepath"
	"testing"

	"github.com/jgoulah/greenmeter/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReadingsInsertAndList(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.InsertReading("2026-10-17T10:00:05Z", 240))
	require.NoError(t, db.SaveReading(models.Reading{Timestamp: "2026-10-17T10:00:00Z", Power: 120}))
	require.NoError(t, db.InsertReading("2026-10-17T10:00:10Z", 360))

	all, err := db.ListReadings(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// insertion order, not timestamp order
	assert.Equal(t, 240.0, all[0].Watts)
	assert.Equal(t, 120.0, all[1].Watts)

	limited, err := db.ListReadings(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestReadingsBetweenIsHalfOpen(t *testing.T) {
	db := openTestDB(t)

	for _, ts := range []string{"2026-10-16T23:59:59Z", "2026-10-17T00:00:00Z", "2026-10-17T12:00:00Z", "2026-10-18T00:00:00Z"} {
		require.NoError(t, db.InsertReading(ts, 100))
	}

	got, err := db.ListReadingsBetween("2026-10-17T00:00:00Z", "2026-10-18T00:00:00Z", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-10-17T00:00:00Z", got[0].Timestamp)
	assert.Equal(t, "2026-10-17T12:00:00Z", got[1].Timestamp)
}

func TestSettingsUpsert(t *testing.T) {
	db := openTestDB(t)

	_, ok, err := db.GetSetting("monthly_target")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.SetSetting("monthly_target", "30"))
	require.NoError(t, db.SaveSetting("monthly_target", "45.5"))

	v, ok, err := db.GetSetting("monthly_target")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "45.5", v)
}

func TestDailyStatsUpsertAndOrder(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.UpsertDailyStat(models.DailyStat{Day: "2026-10-15", KWh: 10, Cost: 1.8}))
	require.NoError(t, db.UpsertDailyStat(models.DailyStat{Day: "2026-10-16", KWh: 12, Cost: 2.16}))
	require.NoError(t, db.UpsertDailyStat(models.DailyStat{Day: "2026-10-15", KWh: 11, Cost: 1.98, Projected30dSavings: 3}))

	stats, err := db.ListDailyStats(0)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "2026-10-16", stats[0].Day)
	assert.Equal(t, "2026-10-15", stats[1].Day)
	assert.Equal(t, 11.0, stats[1].KWh)
	assert.Equal(t, 3.0, stats[1].Projected30dSavings)

	one, err := db.ListDailyStats(1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}
