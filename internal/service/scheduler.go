package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// IngestRunner is the pipeline contract the scheduler drives.
type IngestRunner interface {
	Run(ctx context.Context) error
}

// SchedulerConfig holds configuration for the ingestion scheduler.
type SchedulerConfig struct {
	// Interval is how often an ingestion run starts. Default: 12 hours.
	Interval time.Duration

	// RunOnStart triggers a run shortly after Start instead of waiting a
	// full interval.
	RunOnStart bool

	// RunTimeout bounds one full ingestion run. Default: 30 minutes.
	RunTimeout time.Duration
}

// IngestScheduler triggers pipeline runs on a fixed interval. Runs are
// serialized: the pipeline does not support concurrent runs, so a tick that
// arrives while one is in flight is skipped, not queued.
type IngestScheduler struct {
	runner   IngestRunner
	config   SchedulerConfig
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	running bool
}

// NewIngestScheduler creates the scheduler.
func NewIngestScheduler(runner IngestRunner, config SchedulerConfig) *IngestScheduler {
	if config.Interval == 0 {
		config.Interval = 12 * time.Hour
	}
	if config.RunTimeout == 0 {
		config.RunTimeout = 30 * time.Minute
	}
	return &IngestScheduler{
		runner: runner,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins scheduling. Safe to call once.
func (s *IngestScheduler) Start() {
	s.ticker = time.NewTicker(s.config.Interval)
	log.Printf("[Scheduler] Started - interval: %v", s.config.Interval)

	if s.config.RunOnStart {
		go func() {
			time.Sleep(5 * time.Second)
			s.runOnce()
		}()
	}

	go s.loop()
}

func (s *IngestScheduler) loop() {
	for {
		select {
		case <-s.ticker.C:
			s.runOnce()
		case <-s.stopCh:
			log.Printf("[Scheduler] Stopped")
			return
		}
	}
}

// runOnce executes a single pipeline run unless one is already in flight.
func (s *IngestScheduler) runOnce() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Printf("[Scheduler] Previous run still in flight, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeout)
	defer cancel()

	started := time.Now()
	if err := s.runner.Run(ctx); err != nil {
		log.Printf("[Scheduler] Ingestion run failed after %v: %v", time.Since(started).Round(time.Second), err)
		return
	}
	log.Printf("[Scheduler] Ingestion run finished in %v", time.Since(started).Round(time.Second))
}

// RunNow triggers an immediate run, subject to the same serialization.
func (s *IngestScheduler) RunNow() {
	go s.runOnce()
}

// Stop stops the scheduler. In-flight runs finish on their own; there is no
// cancellation of a started walk.
func (s *IngestScheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
}
