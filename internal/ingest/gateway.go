// Package ingest validates incoming sensor readings and forwards them to the
// live dashboard and the archive.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/jgoulah/greenmeter/internal/dashboard"
	"github.com/jgoulah/greenmeter/internal/metrics"
	"github.com/jgoulah/greenmeter/pkg/models"
)

// ValidationError describes a rejected payload
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Archiver receives accepted readings and settings without blocking
type Archiver interface {
	Reading(r models.Reading) bool
	Setting(key, value string) bool
}

type readingPayload struct {
	Timestamp *string  `json:"timestamp"`
	Power     *float64 `json:"power"`
}

// Decode parses and validates a JSON reading
func Decode(r io.Reader) (models.Reading, error) {
	var p readingPayload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return models.Reading{}, &ValidationError{Message: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	if p.Timestamp == nil {
		return models.Reading{}, &ValidationError{Message: "timestamp is required"}
	}
	if p.Power == nil {
		return models.Reading{}, &ValidationError{Message: "power is required"}
	}

	reading := models.Reading{Timestamp: *p.Timestamp, Power: *p.Power}
	if err := Validate(reading); err != nil {
		return models.Reading{}, err
	}
	return reading, nil
}

// Validate checks that the timestamp is RFC 3339 in UTC ('Z' suffix) and the
// power is a finite, non-negative number of watts. Stored timestamps are
// compared as text, so every reading must share the same zone.
func Validate(r models.Reading) error {
	if _, err := time.Parse(time.RFC3339Nano, r.Timestamp); err != nil {
		return &ValidationError{Message: fmt.Sprintf("timestamp %q is not RFC 3339", r.Timestamp)}
	}
	if !strings.HasSuffix(r.Timestamp, "Z") {
		return &ValidationError{Message: fmt.Sprintf("timestamp %q must be UTC with a Z suffix", r.Timestamp)}
	}
	if math.IsNaN(r.Power) || math.IsInf(r.Power, 0) {
		return &ValidationError{Message: "power must be a finite number"}
	}
	if r.Power < 0 {
		return &ValidationError{Message: fmt.Sprintf("power must not be negative, got %g", r.Power)}
	}
	return nil
}

// IsValidation reports whether err was caused by a rejected payload
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Gateway is the single entry point for new readings and target changes
type Gateway struct {
	dash    *dashboard.Dashboard
	archive Archiver
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewGateway wires a gateway. archive may be nil when durability is disabled.
func NewGateway(dash *dashboard.Dashboard, archive Archiver, m *metrics.Metrics, log *slog.Logger) *Gateway {
	return &Gateway{dash: dash, archive: archive, metrics: m, log: log}
}

// Submit validates a reading and appends it to the live window
func (g *Gateway) Submit(source string, r models.Reading) error {
	if err := Validate(r); err != nil {
		g.metrics.ReadingsRejected.WithLabelValues(source).Inc()
		return err
	}
	g.accept(r)
	return nil
}

// SubmitJSON decodes, validates and appends a reading
func (g *Gateway) SubmitJSON(source string, body io.Reader) (models.Reading, error) {
	r, err := Decode(body)
	if err != nil {
		g.metrics.ReadingsRejected.WithLabelValues(source).Inc()
		return models.Reading{}, err
	}
	g.accept(r)
	return r, nil
}

func (g *Gateway) accept(r models.Reading) {
	if g.dash.Submit(r) {
		g.metrics.ReadingsEvicted.Inc()
	}
	g.metrics.ReadingsIngested.Inc()
	g.metrics.CurrentPower.Set(r.Power)

	if g.archive != nil {
		g.archive.Reading(r)
	}
	g.log.Debug("reading accepted", "timestamp", r.Timestamp, "power", r.Power)
}

// SetTarget replaces the monthly target and archives it as a setting
func (g *Gateway) SetTarget(v float64) {
	g.dash.SetTarget(v)
	g.metrics.MonthlyTarget.Set(v)

	if g.archive != nil {
		g.archive.Setting(SettingMonthlyTarget, fmt.Sprintf("%g", v))
	}
	g.log.Info("monthly target updated", "monthly_target", v)
}

// SettingMonthlyTarget is the settings key the target is archived under
const SettingMonthlyTarget = "monthly_target"
