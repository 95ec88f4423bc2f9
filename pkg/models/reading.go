package models

// Reading is a single power sample reported by the sensor
type Reading struct {
	Timestamp string  `json:"timestamp"` // ISO-8601 UTC, 'Z'-suffixed
	Power     float64 `json:"power"`     // Watts
}

// StoredReading is a reading as kept in the durable store
type StoredReading struct {
	ID        int64   `json:"id"`
	Timestamp string  `json:"timestamp"`
	Watts     float64 `json:"watts"`
}

// DailyStat is one precomputed row of per-day aggregates
type DailyStat struct {
	Day                      string  `json:"day"` // YYYY-MM-DD
	KWh                      float64 `json:"kwh"`
	Cost                     float64 `json:"cost"`
	BaselineCost             float64 `json:"baseline_cost"`
	Projected30dCost         float64 `json:"projected_30d_cost"`
	Projected30dCostBaseline float64 `json:"projected_30d_cost_baseline"`
	Projected30dSavings      float64 `json:"projected_30d_savings"`
}

// Snapshot is the dashboard view derived from the live window
type Snapshot struct {
	CurrentPower         float64   `json:"current_power"`
	AvgPower             float64   `json:"avg_power"`
	ProjectedMonthlyBill float64   `json:"projected_monthly_bill"`
	PotentialSavings     float64   `json:"potential_savings"`
	PowerHistory         []Reading `json:"power_history"`
	Recommendation       string    `json:"recommendation"`
	MonthlyTarget        float64   `json:"monthly_target"`
	TargetStatus         string    `json:"target_status"`
}
