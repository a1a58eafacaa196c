package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/nerdfunk-net/cockpit-sub000/internal/domain"
)

// ErrJobNotFound is returned when polling an unknown or expired job id
var ErrJobNotFound = errors.New("scan job not found")

// EventPublisher allows the coordinator to publish progress events
type EventPublisher interface {
	PublishEvent(eventType string, payload interface{})
}

// CoordinatorConfig holds configuration for the scan job coordinator
type CoordinatorConfig struct {
	// MinPrefixLen is the safety ceiling on network size
	MinPrefixLen int
	// MaxConcurrent bounds simultaneous in-flight per-host pipelines,
	// shared across the whole job
	MaxConcurrent int
	// Retention is how long a finished job and its results are kept
	Retention time.Duration
	// SweepInterval is how often expired jobs are purged
	SweepInterval time.Duration
}

// DefaultCoordinatorConfig returns sensible defaults
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		MinPrefixLen:  22,
		MaxConcurrent: 10,
		Retention:     24 * time.Hour,
		SweepInterval: 10 * time.Minute,
	}
}

// job is the coordinator-owned state of one scan. Counters and the
// result list are mutated only by the goroutines this coordinator
// runs for the job; external readers get snapshots.
type job struct {
	id      string
	created time.Time

	mu       sync.Mutex
	state    domain.JobState
	counters domain.ScanCounters
	results  []domain.ScanResult
	errors   []string
}

// snapshot returns an eventually consistent copy safe for external
// readers
func (j *job) snapshot() *domain.ScanStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	status := &domain.ScanStatus{
		JobID:     j.id,
		State:     j.state,
		Counters:  j.counters,
		Results:   make([]domain.ScanResult, len(j.results)),
		CreatedAt: j.created,
	}
	copy(status.Results, j.results)
	if len(j.errors) > 0 {
		status.Errors = append([]string(nil), j.errors...)
	}
	return status
}

// Coordinator owns the in-memory job registry and the bounded
// execution of per-host pipelines. It has an explicit lifecycle so
// tests can construct and discard one per test.
type Coordinator struct {
	config     CoordinatorConfig
	prober     Prober
	trials     *TrialEngine
	classifier *Classifier
	publisher  EventPublisher

	mu   sync.RWMutex
	jobs map[string]*job

	wg     sync.WaitGroup
	stopCh chan struct{}
	once   sync.Once
}

// NewCoordinator creates a scan job coordinator
func NewCoordinator(prober Prober, trials *TrialEngine, classifier *Classifier, config CoordinatorConfig) *Coordinator {
	if config.MinPrefixLen == 0 {
		config.MinPrefixLen = 22
	}
	if config.MaxConcurrent == 0 {
		config.MaxConcurrent = 10
	}
	if config.Retention == 0 {
		config.Retention = 24 * time.Hour
	}
	if config.SweepInterval == 0 {
		config.SweepInterval = 10 * time.Minute
	}
	return &Coordinator{
		config:     config,
		prober:     prober,
		trials:     trials,
		classifier: classifier,
		jobs:       make(map[string]*job),
		stopCh:     make(chan struct{}),
	}
}

// SetEventPublisher sets the publisher for scan lifecycle events
func (c *Coordinator) SetEventPublisher(pub EventPublisher) {
	c.publisher = pub
}

// Start launches the background sweep that purges expired jobs
func (c *Coordinator) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.config.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
	log.Printf("Scan coordinator started (max_concurrent=%d, retention=%s)",
		c.config.MaxConcurrent, c.config.Retention)
}

// Stop halts the sweeper and waits for running jobs to finish
func (c *Coordinator) Stop() {
	c.once.Do(func() { close(c.stopCh) })
	c.wg.Wait()
	log.Printf("Scan coordinator stopped")
}

// Submit validates the request, expands targets, and starts the job.
// It returns promptly with a job id; all network activity happens on
// coordinator goroutines. Invalid input is rejected here, before any
// probe is sent.
func (c *Coordinator) Submit(req domain.ScanRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	targets, err := ExpandTargets(req.CIDRs, c.config.MinPrefixLen)
	if err != nil {
		return "", err
	}
	if len(targets) == 0 {
		return "", fmt.Errorf("networks expand to no scannable hosts")
	}

	j := &job{
		id:      uuid.NewString(),
		created: time.Now(),
		state:   domain.JobRunning,
		counters: domain.ScanCounters{
			Total: len(targets),
		},
	}

	c.mu.Lock()
	c.jobs[j.id] = j
	c.mu.Unlock()

	c.publish("scan-started", map[string]interface{}{
		"job_id": j.id,
		"total":  len(targets),
	})
	log.Printf("Scan %s started: %d targets from %d networks", j.id, len(targets), len(req.CIDRs))

	c.wg.Add(1)
	go c.run(j, targets, req)

	return j.id, nil
}

// Status returns a snapshot of the job, or ErrJobNotFound for unknown
// or expired ids
func (c *Coordinator) Status(id string) (*domain.ScanStatus, error) {
	c.mu.RLock()
	j, ok := c.jobs[id]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrJobNotFound
	}
	// Lazy expiry so short retentions behave without waiting for the
	// sweeper
	if time.Since(j.created) > c.config.Retention {
		c.mu.Lock()
		delete(c.jobs, id)
		c.mu.Unlock()
		return nil, ErrJobNotFound
	}

	return j.snapshot(), nil
}

// run executes every per-host pipeline, bounded by MaxConcurrent
// in-flight pipelines. The bound is shared across the whole job; it
// is not multiplied by credential count or classification stages.
func (c *Coordinator) run(j *job, targets []string, req domain.ScanRequest) {
	defer c.wg.Done()

	ctx := context.Background()
	sem := semaphore.NewWeighted(int64(c.config.MaxConcurrent))

	var wg sync.WaitGroup
	for _, addr := range targets {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			defer sem.Release(1)
			c.pipeline(ctx, j, addr, req)
		}(addr)
	}
	wg.Wait()

	j.mu.Lock()
	j.state = domain.JobFinished
	counters := j.counters
	j.mu.Unlock()

	c.publish("scan-complete", map[string]interface{}{
		"job_id":   j.id,
		"counters": counters,
	})
	log.Printf("Scan %s finished: %d scanned, %d alive, %d authenticated, %d unreachable, %d auth-failed, %d unsupported",
		j.id, counters.Scanned, counters.Alive, counters.Authenticated,
		counters.Unreachable, counters.AuthFailed, counters.DriverUnsupported)
}

// pipeline runs one host through probe, credential trial, and
// classification. Every outcome is classified, never thrown: a
// misbehaving host degrades to a counter bump, not a dead job.
func (c *Coordinator) pipeline(ctx context.Context, j *job, addr string, req domain.ScanRequest) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Scan %s: pipeline panic for %s: %v", j.id, addr, r)
			j.mu.Lock()
			j.errors = append(j.errors, fmt.Sprintf("%s: internal error", addr))
			j.counters.Scanned++
			j.mu.Unlock()
		}
	}()

	if !c.prober.Probe(ctx, addr) {
		j.mu.Lock()
		j.counters.Unreachable++
		j.counters.Scanned++
		j.mu.Unlock()
		return
	}

	j.mu.Lock()
	j.counters.Alive++
	j.mu.Unlock()

	sess, credentialID, err := c.trials.Try(ctx, addr, req.CredentialIDs)
	if err != nil {
		j.mu.Lock()
		j.counters.AuthFailed++
		j.counters.Scanned++
		j.addResult(domain.ScanResult{
			Address: addr,
			Failure: domain.FailureAuth,
		})
		j.mu.Unlock()
		c.progress(j, addr, "auth-failed")
		return
	}
	defer sess.Close()

	j.mu.Lock()
	j.counters.Authenticated++
	j.mu.Unlock()

	facts := c.classifier.Classify(ctx, addr, sess, req.Mode, req.ParseTemplates)

	result := domain.ScanResult{
		Address:      addr,
		CredentialID: credentialID,
	}
	j.mu.Lock()
	if facts == nil {
		j.counters.DriverUnsupported++
		result.Failure = domain.FailureDriverUnsupported
	} else {
		result.Family = facts.Family
		result.Hostname = facts.Hostname
		result.Platform = facts.Platform
	}
	j.counters.Scanned++
	j.addResult(result)
	j.mu.Unlock()

	outcome := string(result.Family)
	if result.Failure != "" {
		outcome = string(result.Failure)
	}
	c.progress(j, addr, outcome)
}

// addResult appends a result, enforcing at most one entry per
// address. Callers hold j.mu.
func (j *job) addResult(result domain.ScanResult) {
	for _, existing := range j.results {
		if existing.Address == result.Address {
			return
		}
	}
	j.results = append(j.results, result)
}

// sweep purges jobs past the retention window
func (c *Coordinator) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, j := range c.jobs {
		if time.Since(j.created) > c.config.Retention {
			delete(c.jobs, id)
			log.Printf("Scan %s expired after %s, purged", id, c.config.Retention)
		}
	}
}

// progress publishes a per-host progress event with a counter
// snapshot
func (c *Coordinator) progress(j *job, addr, outcome string) {
	if c.publisher == nil {
		return
	}
	j.mu.Lock()
	counters := j.counters
	j.mu.Unlock()
	c.publish("scan-progress", map[string]interface{}{
		"job_id":   j.id,
		"address":  addr,
		"outcome":  outcome,
		"counters": counters,
	})
}

func (c *Coordinator) publish(eventType string, payload interface{}) {
	if c.publisher != nil {
		c.publisher.PublishEvent(eventType, payload)
	}
}
