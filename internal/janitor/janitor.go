// Package janitor bounds the tracker's memory: a key that never receives a
// terminal event would otherwise stay tracked forever, so a scheduled sweep
// force-removes records older than a maximum tracked age.
package janitor

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hardimpactdev/orbit-ui-sub001/internal/domain"
)

// Sweeper removes records tracked since before the cutoff.
type Sweeper interface {
	SweepOlderThan(cutoff time.Time) map[domain.Kind]int
}

// MetricsSink records sweep results. Must not block.
type MetricsSink interface {
	RecordsSwept(kind string, count int)
}

// Config holds janitor configuration.
type Config struct {
	// Schedule is a cron spec (descriptors like "@every 1m" allowed).
	Schedule string

	// MaxAge is the maximum time a record may stay tracked, terminal or not.
	MaxAge time.Duration
}

// DefaultConfig returns the default janitor configuration.
func DefaultConfig() Config {
	return Config{
		Schedule: "@every 1m",
		MaxAge:   30 * time.Minute,
	}
}

type Janitor struct {
	cfg     Config
	sweeper Sweeper
	metrics MetricsSink // optional, nil = disabled
	clock   func() time.Time
	cron    *cron.Cron
}

func New(cfg Config, sweeper Sweeper) *Janitor {
	return &Janitor{
		cfg:     cfg,
		sweeper: sweeper,
		clock:   time.Now,
	}
}

// WithMetrics attaches a metrics sink.
func (j *Janitor) WithMetrics(sink MetricsSink) *Janitor {
	j.metrics = sink
	return j
}

// Start schedules the sweep. Returns an error for an invalid cron spec.
func (j *Janitor) Start() error {
	j.cron = cron.New()
	if _, err := j.cron.AddFunc(j.cfg.Schedule, j.SweepOnce); err != nil {
		return err
	}
	j.cron.Start()
	log.Printf("janitor: started, schedule=%s max_age=%s", j.cfg.Schedule, j.cfg.MaxAge)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
	log.Println("janitor: stopped")
}

// SweepOnce runs a single sweep immediately.
func (j *Janitor) SweepOnce() {
	cutoff := j.clock().UTC().Add(-j.cfg.MaxAge)
	removed := j.sweeper.SweepOlderThan(cutoff)

	total := 0
	for kind, n := range removed {
		total += n
		if j.metrics != nil {
			j.metrics.RecordsSwept(string(kind), n)
		}
	}
	if total > 0 {
		log.Printf("janitor: swept %d overaged records", total)
	}
}
