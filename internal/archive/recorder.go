// Package archive copies accepted readings and settings to durable sinks
// without ever blocking the live dashboard path.
package archive

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/jgoulah/greenmeter/pkg/models"
)

// ReadingSink persists raw readings
type ReadingSink interface {
	SaveReading(r models.Reading) error
}

// SettingSink persists key/value settings. Reading sinks may optionally
// implement it.
type SettingSink interface {
	SaveSetting(key, value string) error
}

// NamedSink is a sink with a label used in logs
type NamedSink struct {
	Name string
	Sink ReadingSink
}

type job struct {
	reading *models.Reading
	key     string
	value   string
}

// Recorder queues archive jobs and drains them to every sink from a single
// goroutine started by Run.
type Recorder struct {
	jobs    chan job
	sinks   []NamedSink
	log     *slog.Logger
	dropped atomic.Uint64
	onDrop  func()
}

// NewRecorder creates a recorder with a queue of bufferSize jobs
func NewRecorder(bufferSize int, log *slog.Logger, sinks ...NamedSink) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Recorder{
		jobs:  make(chan job, bufferSize),
		sinks: sinks,
		log:   log,
	}
}

// OnDrop registers a callback invoked every time a job is dropped
func (r *Recorder) OnDrop(fn func()) {
	r.onDrop = fn
}

// Reading queues a reading for archiving. It never blocks.
func (r *Recorder) Reading(rd models.Reading) bool {
	return r.enqueue(job{reading: &rd})
}

// Setting queues a setting for archiving. It never blocks.
func (r *Recorder) Setting(key, value string) bool {
	return r.enqueue(job{key: key, value: value})
}

// Dropped returns the number of jobs discarded because the queue was full
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *Recorder) enqueue(j job) bool {
	select {
	case r.jobs <- j:
		return true
	default:
		r.dropped.Add(1)
		if r.onDrop != nil {
			r.onDrop()
		}
		r.log.Warn("archive queue full, dropping job", "setting", j.key, "dropped_total", r.dropped.Load())
		return false
	}
}

// Run drains queued jobs until ctx is cancelled, then flushes whatever is
// still buffered and returns.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case j := <-r.jobs:
			r.write(j)
		case <-ctx.Done():
			for {
				select {
				case j := <-r.jobs:
					r.write(j)
				default:
					return nil
				}
			}
		}
	}
}

func (r *Recorder) write(j job) {
	for _, s := range r.sinks {
		if j.reading != nil {
			if err := s.Sink.SaveReading(*j.reading); err != nil {
				r.log.Error("archiving reading", "sink", s.Name, "timestamp", j.reading.Timestamp, "error", err)
			}
			continue
		}

		settings, ok := s.Sink.(SettingSink)
		if !ok {
			continue
		}
		if err := settings.SaveSetting(j.key, j.value); err != nil {
			r.log.Error("archiving setting", "sink", s.Name, "key", j.key, "error", err)
		}
	}
}
