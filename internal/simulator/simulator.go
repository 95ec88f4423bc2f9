// Package simulator emulates the power sensor by posting random readings to
// the dashboard service.
package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/jgoulah/greenmeter/pkg/models"
)

// TimestampLayout is the UTC ISO-8601 form the sensor reports
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Simulator periodically sends readings to <baseURL>/api/readings
type Simulator struct {
	client   *http.Client
	endpoint string
	values   []float64
	rnd      *rand.Rand
	log      *slog.Logger
	now      func() time.Time
}

// Options configures a Simulator
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	PowerValues []float64
	Seed        int64
	Logger      *slog.Logger
}

// New creates a simulator
func New(opts Options) (*Simulator, error) {
	if len(opts.PowerValues) == 0 {
		return nil, fmt.Errorf("at least one power value is required")
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		client:   &http.Client{Timeout: opts.Timeout},
		endpoint: strings.TrimRight(opts.BaseURL, "/") + "/api/readings",
		values:   opts.PowerValues,
		rnd:      rand.New(rand.NewSource(seed)),
		log:      logger,
		now:      time.Now,
	}, nil
}

// NextReading builds a reading for the current time with a random wattage
func (s *Simulator) NextReading() models.Reading {
	return models.Reading{
		Timestamp: s.now().UTC().Format(TimestampLayout),
		Power:     s.values[s.rnd.Intn(len(s.values))],
	}
}

// Send posts one reading and returns the response status code
func (s *Simulator) Send(ctx context.Context, r models.Reading) (int, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return 0, fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return resp.StatusCode, nil
}

// Run sends a reading every interval until ctx is cancelled or count
// readings were attempted (count <= 0 means no limit). Send failures are
// logged and do not stop the loop.
func (s *Simulator) Run(ctx context.Context, interval time.Duration, count int) (int, error) {
	sent := 0
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempts := 0; count <= 0 || attempts < count; attempts++ {
		if attempts > 0 {
			select {
			case <-ctx.Done():
				return sent, nil
			case <-ticker.C:
			}
		}

		r := s.NextReading()
		status, err := s.Send(ctx, r)
		if err != nil {
			if ctx.Err() != nil {
				return sent, nil
			}
			s.log.Warn("error sending reading", "power", r.Power, "error", err)
			continue
		}
		sent++
		s.log.Info("sent reading", "timestamp", r.Timestamp, "power", r.Power, "status", status)
	}
	return sent, nil
}
