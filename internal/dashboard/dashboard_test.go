package dashboard

import (
	"sync"
	"testing"

	"github.com/jgoulah/greenmeter/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWithPowers(powers ...float64) *Dashboard {
	d := New(Options{})
	for i, p := range powers {
		d.Submit(models.Reading{Timestamp: reading(i).Timestamp, Power: p})
	}
	return d
}

func TestComputeEmptyStore(t *testing.T) {
	d := New(Options{})
	d.SetTarget(50)

	snap, err := d.Compute()
	require.NoError(t, err)

	assert.Zero(t, snap.CurrentPower)
	assert.Zero(t, snap.AvgPower)
	assert.Zero(t, snap.ProjectedMonthlyBill)
	assert.Zero(t, snap.PotentialSavings)
	assert.NotNil(t, snap.PowerHistory)
	assert.Empty(t, snap.PowerHistory)
	assert.Equal(t, WaitingForData, snap.Recommendation)
	assert.Equal(t, StatusNoTarget, snap.TargetStatus)
	assert.Equal(t, 50.0, snap.MonthlyTarget)

	assert.Zero(t, d.Rotator().Count(), "empty store must not advance the rotator")
}

func TestComputeProjection(t *testing.T) {
	tests := []struct {
		name        string
		target      float64
		wantSavings float64
		wantStatus  string
	}{
		{name: "no target", target: 0, wantSavings: 0, wantStatus: StatusNoTarget},
		{name: "negative target is unset", target: -10, wantSavings: 0, wantStatus: StatusNoTarget},
		{name: "under budget", target: 30, wantSavings: 4.08, wantStatus: StatusOnTrack},
		{name: "over budget", target: 20, wantSavings: -5.92, wantStatus: StatusOver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newWithPowers(100, 200, 300)
			d.SetTarget(tt.target)

			snap, err := d.Compute()
			require.NoError(t, err)

			assert.Equal(t, 300.0, snap.CurrentPower)
			assert.Equal(t, 200.0, snap.AvgPower)
			assert.InDelta(t, 25.92, snap.ProjectedMonthlyBill, 1e-9)
			assert.InDelta(t, tt.wantSavings, snap.PotentialSavings, 1e-9)
			assert.Equal(t, tt.wantStatus, snap.TargetStatus)
			assert.Equal(t, tt.target, snap.MonthlyTarget)
			assert.Len(t, snap.PowerHistory, 3)
		})
	}
}

func TestComputeExactTargetIsOnTrack(t *testing.T) {
	d := newWithPowers(1000)
	// 1000 W -> 24 kWh/day -> 129.6 per month at 0.18
	d.SetTarget(ProjectMonthlyBill(1000, DefaultRatePerKWh))

	snap, err := d.Compute()
	require.NoError(t, err)
	assert.Equal(t, StatusOnTrack, snap.TargetStatus)
	assert.Zero(t, snap.PotentialSavings)
}

func TestComputeRoundsOutput(t *testing.T) {
	d := newWithPowers(100.004, 100.001, 100.111)

	snap, err := d.Compute()
	require.NoError(t, err)
	assert.Equal(t, 100.11, snap.CurrentPower)
	assert.Equal(t, 100.04, snap.AvgPower)
}

func TestComputeAdvancesRotatorOncePerCall(t *testing.T) {
	d := newWithPowers(120)

	for k := 1; k <= 13; k++ {
		snap, err := d.Compute()
		require.NoError(t, err)
		assert.Equal(t, DefaultRecommendations[(k-1)%len(DefaultRecommendations)], snap.Recommendation)
	}
	assert.EqualValues(t, 13, d.Rotator().Count())
}

func TestComputeHistoryWindow(t *testing.T) {
	d := New(Options{})
	for i := 0; i < 75; i++ {
		d.Submit(reading(i))
	}

	snap, err := d.Compute()
	require.NoError(t, err)

	require.Len(t, snap.PowerHistory, DefaultHistoryPoints)
	for i, r := range snap.PowerHistory {
		assert.Equal(t, reading(45+i), r)
	}

	// average covers the full retained window (15..74), not just the chart
	assert.Equal(t, 44.5, snap.AvgPower)
	assert.Equal(t, 74.0, snap.CurrentPower)
}

func TestComputeNoRecommendations(t *testing.T) {
	d := New(Options{Recommendations: []string{}})

	_, err := d.Compute()
	require.NoError(t, err, "empty store never consults the rotator")

	d.Submit(reading(1))
	_, err = d.Compute()
	assert.ErrorIs(t, err, ErrNoRecommendations)
}

func TestComputeCustomOptions(t *testing.T) {
	d := New(Options{MaxPoints: 3, HistoryPoints: 2, RatePerKWh: 0.5, Recommendations: []string{"only tip"}})
	for _, p := range []float64{10, 1000, 1000, 1000} {
		d.Submit(models.Reading{Timestamp: "2026-10-17T00:00:00Z", Power: p})
	}

	snap, err := d.Compute()
	require.NoError(t, err)
	assert.Equal(t, 1000.0, snap.AvgPower)
	assert.Len(t, snap.PowerHistory, 2)
	assert.InDelta(t, 360.0, snap.ProjectedMonthlyBill, 1e-9)
	assert.Equal(t, "only tip", snap.Recommendation)
}

func TestConcurrentSubmitAndCompute(t *testing.T) {
	d := New(Options{})

	var wg sync.WaitGroup
	const writers, readers, perWorker = 4, 4, 250
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				d.Submit(reading(w*perWorker + i))
				if i%50 == 0 {
					d.SetTarget(float64(i))
				}
			}
		}(w)
	}

	var mu sync.Mutex
	populated := 0
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				snap, err := d.Compute()
				if !assert.NoError(t, err) {
					return
				}
				assert.LessOrEqual(t, len(snap.PowerHistory), DefaultHistoryPoints)
				if snap.Recommendation != WaitingForData {
					mu.Lock()
					populated++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, DefaultMaxPoints, d.Store().Len())
	assert.EqualValues(t, populated, d.Rotator().Count())
}
