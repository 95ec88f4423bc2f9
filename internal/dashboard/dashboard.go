package dashboard

import (
	"fmt"
	"math"

	"github.com/jgoulah/greenmeter/pkg/models"
)

const (
	// DefaultRatePerKWh is the flat tariff used for bill projection
	DefaultRatePerKWh = 0.18
	// DefaultHistoryPoints is how many readings the chart receives
	DefaultHistoryPoints = 30

	hoursPerDay  = 24
	daysPerMonth = 30
)

// Messages placed in a Snapshot's Recommendation and TargetStatus fields.
const (
	WaitingForData = "Waiting for data…"
	StatusNoTarget = "No target set"
	StatusOnTrack  = "On track"
	StatusOver     = "Over target"
)

// Options configures a Dashboard. Zero values select the defaults. A nil
// Recommendations slice selects DefaultRecommendations; a non-nil empty slice
// is kept as is.
type Options struct {
	MaxPoints       int
	HistoryPoints   int
	RatePerKWh      float64
	Recommendations []string
}

// Dashboard owns the live window, the monthly target and the tip rotator,
// and compiles snapshots from them.
type Dashboard struct {
	store   *ReadingStore
	target  *TargetRegister
	rotator *Rotator

	historyPoints int
	ratePerKWh    float64
}

// New creates a dashboard with empty state
func New(opts Options) *Dashboard {
	history := opts.HistoryPoints
	if history <= 0 {
		history = DefaultHistoryPoints
	}
	rate := opts.RatePerKWh
	if rate <= 0 {
		rate = DefaultRatePerKWh
	}
	tips := opts.Recommendations
	if tips == nil {
		tips = DefaultRecommendations
	}

	return &Dashboard{
		store:         NewReadingStore(opts.MaxPoints),
		target:        &TargetRegister{},
		rotator:       NewRotator(tips),
		historyPoints: history,
		ratePerKWh:    rate,
	}
}

// Submit appends a reading to the live window. It reports whether an older
// reading was evicted to make room.
func (d *Dashboard) Submit(r models.Reading) (evicted bool) {
	_, old := d.store.Append(r)
	return old != nil
}

// SetTarget replaces the monthly target
func (d *Dashboard) SetTarget(v float64) {
	d.target.Set(v)
}

// Target returns the monthly target
func (d *Dashboard) Target() float64 {
	return d.target.Get()
}

// Store exposes the live window
func (d *Dashboard) Store() *ReadingStore {
	return d.store
}

// Rotator exposes the tip rotator
func (d *Dashboard) Rotator() *Rotator {
	return d.rotator
}

// Compute derives a snapshot from the current state. The rotator advances
// once per call, except when no readings are present.
func (d *Dashboard) Compute() (models.Snapshot, error) {
	readings := d.store.All()
	target := d.target.Get()

	if len(readings) == 0 {
		return models.Snapshot{
			PowerHistory:   []models.Reading{},
			Recommendation: WaitingForData,
			MonthlyTarget:  target,
			TargetStatus:   StatusNoTarget,
		}, nil
	}

	current := readings[len(readings)-1].Power

	var sum float64
	for _, r := range readings {
		sum += r.Power
	}
	avg := sum / float64(len(readings))

	bill := ProjectMonthlyBill(avg, d.ratePerKWh)

	var savings float64
	status := StatusNoTarget
	if target > 0 {
		savings = target - bill
		if savings >= 0 {
			status = StatusOnTrack
		} else {
			status = StatusOver
		}
	}

	tip, err := d.rotator.Next()
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("selecting recommendation: %w", err)
	}

	history := readings
	if len(history) > d.historyPoints {
		history = history[len(history)-d.historyPoints:]
	}

	return models.Snapshot{
		CurrentPower:         round2(current),
		AvgPower:             round2(avg),
		ProjectedMonthlyBill: round2(bill),
		PotentialSavings:     round2(savings),
		PowerHistory:         history,
		Recommendation:       tip,
		MonthlyTarget:        target,
		TargetStatus:         status,
	}, nil
}

// ProjectMonthlyBill extrapolates an average draw in watts to a 30-day cost,
// treating the average as constant over every hour of the day.
func ProjectMonthlyBill(avgWatts, ratePerKWh float64) float64 {
	kwhDay := avgWatts * hoursPerDay / 1000
	return kwhDay * ratePerKWh * daysPerMonth
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
