package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusIdle    JobStatus = "IDLE"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobFunc is the work of a job. now is the moment the job was triggered.
type JobFunc func(ctx context.Context, now time.Time) error

// JobState is a snapshot of a job's last run
type JobState struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Runs        int        `json:"runs"`
}

type job struct {
	name    string
	trigger Trigger
	fn      JobFunc

	state     JobState
	lastStart time.Time
}

// Config holds scheduler configuration
type Config struct {
	// CheckInterval is how often triggers are evaluated
	CheckInterval time.Duration
	// JobTimeout bounds a single run
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		CheckInterval: time.Minute,
		JobTimeout:    10 * time.Minute,
	}
}

// Scheduler runs registered jobs when their triggers are due. A job never
// overlaps with its own previous run.
type Scheduler struct {
	config Config
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	jobs      map[string]*job
	cancel    context.CancelFunc
	loopWG    sync.WaitGroup
	runWG     sync.WaitGroup
	isRunning bool
}

// New creates a new scheduler
func New(config Config, logger *zap.Logger) *Scheduler {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 10 * time.Minute
	}
	return &Scheduler{
		config: config,
		logger: logger,
		now:    time.Now,
		jobs:   make(map[string]*job),
	}
}

// Register adds a job. Registering a name twice replaces the job.
func (s *Scheduler) Register(name string, trigger Trigger, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = &job{
		name:    name,
		trigger: trigger,
		fn:      fn,
		state:   JobState{Name: name, Schedule: trigger.String(), Status: JobStatusIdle},
	}
}

// Start starts the trigger loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.loopWG.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.Jobs())),
		zap.Duration("check_interval", s.config.CheckInterval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop stops the loop and waits for in-flight runs or ctx, whichever is first
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.loopWG.Wait()
		s.runWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer s.loopWG.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick starts every due job that is not already running
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*job
	for _, j := range s.jobs {
		if j.state.Status == JobStatusRunning {
			continue
		}
		if j.trigger.Due(now, j.lastStart) {
			s.markStarted(j, now)
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		s.runWG.Add(1)
		go func() {
			defer s.runWG.Done()
			s.execute(ctx, j, now)
		}()
	}
}

// Trigger runs a job immediately and waits for it, bypassing its trigger
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	now := s.now()

	s.mu.Lock()
	j, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if j.state.Status == JobStatusRunning {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobAlreadyRunning, name)
	}
	s.markStarted(j, now)
	s.mu.Unlock()

	return s.execute(ctx, j, now)
}

// markStarted must be called with s.mu held
func (s *Scheduler) markStarted(j *job, now time.Time) {
	j.lastStart = now
	j.state.Status = JobStatusRunning
	j.state.StartedAt = &now
	j.state.CompletedAt = nil
	j.state.Error = ""
}

func (s *Scheduler) execute(ctx context.Context, j *job, now time.Time) error {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	log := s.logger.With(zap.String("job", j.name))
	log.Info("Job started")

	err := s.safeRun(jobCtx, j, now)

	completed := s.now()
	s.mu.Lock()
	j.state.Runs++
	j.state.CompletedAt = &completed
	if err != nil {
		j.state.Status = JobStatusFailed
		j.state.Error = err.Error()
	} else {
		j.state.Status = JobStatusSuccess
	}
	s.mu.Unlock()

	if err != nil {
		log.Error("Job failed", zap.Error(err), zap.Duration("duration", completed.Sub(now)))
		return err
	}
	log.Info("Job completed", zap.Duration("duration", completed.Sub(now)))
	return nil
}

// safeRun turns a panicking job into a failed run
func (s *Scheduler) safeRun(ctx context.Context, j *job, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.fn(ctx, now)
}

// Jobs returns a snapshot of every job ordered by name
func (s *Scheduler) Jobs() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobState, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.state)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}
