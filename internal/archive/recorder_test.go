package archive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jgoulah/greenmeter/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu       sync.Mutex
	readings []models.Reading
	settings map[string]string
	err      error
}

func (m *memorySink) SaveReading(r models.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.readings = append(m.readings, r)
	return nil
}

func (m *memorySink) SaveSetting(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		m.settings = map[string]string{}
	}
	m.settings[key] = value
	return nil
}

type readingsOnly struct {
	mu    sync.Mutex
	count int
}

func (r *readingsOnly) SaveReading(models.Reading) error {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorderFansOutToSinks(t *testing.T) {
	db := &memorySink{}
	mirror := &readingsOnly{}
	rec := NewRecorder(16, discardLogger(), NamedSink{Name: "db", Sink: db}, NamedSink{Name: "mirror", Sink: mirror})

	require.True(t, rec.Reading(models.Reading{Timestamp: "2026-10-17T00:00:00Z", Power: 120}))
	require.True(t, rec.Reading(models.Reading{Timestamp: "2026-10-17T00:00:05Z", Power: 240}))
	require.True(t, rec.Setting("monthly_target", "30"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, rec.Run(ctx))

	assert.Len(t, db.readings, 2)
	assert.Equal(t, "30", db.settings["monthly_target"])
	assert.Equal(t, 2, mirror.count)
}

func TestRecorderDropsWhenFull(t *testing.T) {
	rec := NewRecorder(2, discardLogger(), NamedSink{Name: "db", Sink: &memorySink{}})
	drops := 0
	rec.OnDrop(func() { drops++ })

	assert.True(t, rec.Reading(models.Reading{Power: 1}))
	assert.True(t, rec.Reading(models.Reading{Power: 2}))
	assert.False(t, rec.Reading(models.Reading{Power: 3}))
	assert.False(t, rec.Setting("k", "v"))

	assert.EqualValues(t, 2, rec.Dropped())
	assert.Equal(t, 2, drops)
}

func TestRecorderSurvivesSinkErrors(t *testing.T) {
	failing := &memorySink{err: errors.New("disk full")}
	healthy := &memorySink{}
	rec := NewRecorder(4, discardLogger(), NamedSink{Name: "failing", Sink: failing}, NamedSink{Name: "healthy", Sink: healthy})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Run(ctx) }()

	rec.Reading(models.Reading{Power: 42})

	require.Eventually(t, func() bool {
		healthy.mu.Lock()
		defer healthy.mu.Unlock()
		return len(healthy.readings) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop")
	}
}
