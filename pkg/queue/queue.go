// Package queue runs background jobs outside the request that dispatched
// them.
//
//	type LowStockNotification struct{ ProductID uint }
//	func (LowStockNotification) JobName() string { return "low_stock_notification" }
//	func (j *LowStockNotification) Handle(ctx context.Context) error { ... }
//
//	q := queue.New(queue.NewMemoryDriver())
//	q.Register(func() queue.Job { return &LowStockNotification{} })
//	q.Dispatch(ctx, &LowStockNotification{ProductID: 3})
//	go q.Run(ctx, 5)
//
// Jobs travel as JSON, so they must carry identifiers rather than live
// models. A failing job is released back onto the queue with a delay until
// it has been attempted MaxRetry times, then recorded as failed.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/shopfront/pkg/logger"
	"github.com/shashiranjanraj/shopfront/pkg/metrics"
	"github.com/shashiranjanraj/shopfront/pkg/workerpool"
)

// Job is the interface every queued job must satisfy. JobName must be
// stable: it is how a stored payload finds its type again.
type Job interface {
	JobName() string
	Handle(ctx context.Context) error
}

// Driver is the queue storage backend. Pop returns (nil, nil) when nothing
// arrived before its internal timeout.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
	Pop(ctx context.Context) ([]byte, error)
}

// FailedJob is an in-memory record of a job that exhausted its attempts.
type FailedJob struct {
	ID       string
	Job      string
	Payload  json.RawMessage
	Err      error
	Attempts int
	FailedAt time.Time
}

type envelope struct {
	ID       string          `json:"id"`
	Job      string          `json:"job"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Manager owns the driver, the job registry and the failure log.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	maxRetry int
	backoff  func(attempt int) time.Duration
	db       *gorm.DB
}

// New returns a Manager with three attempts per job and linear backoff.
func New(d Driver) *Manager {
	return &Manager{
		driver:   d,
		registry: map[string]func() Job{},
		maxRetry: 3,
		backoff:  func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
	}
}

// SetMaxRetry sets how many attempts a job gets in total. n < 1 means 1.
func (m *Manager) SetMaxRetry(n int) {
	if n < 1 {
		n = 1
	}
	m.mu.Lock()
	m.maxRetry = n
	m.mu.Unlock()
}

// SetBackoff sets the delay before retry number attempt (1-based).
func (m *Manager) SetBackoff(fn func(attempt int) time.Duration) {
	m.mu.Lock()
	m.backoff = fn
	m.mu.Unlock()
}

// UseDB persists failed jobs to the failed_jobs table as well.
func (m *Manager) UseDB(db *gorm.DB) {
	m.mu.Lock()
	m.db = db
	m.mu.Unlock()
}

// Register makes a job type available for decoding. The factory must
// return a pointer so the payload can be unmarshalled into it.
func (m *Manager) Register(factory func() Job) {
	name := factory().JobName()
	m.mu.Lock()
	m.registry[name] = factory
	m.mu.Unlock()
}

// Registered reports whether a job name has a factory.
func (m *Manager) Registered(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.registry[name]
	return ok
}

// Dispatch pushes job onto the queue.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	raw, err := encode(job, 0)
	if err != nil {
		return err
	}
	return m.driver.Push(ctx, raw)
}

func encode(job Job, attempts int) ([]byte, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", job.JobName(), err)
	}
	env, err := json.Marshal(envelope{ID: uuid.NewString(), Job: job.JobName(), Payload: payload, Attempts: attempts})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return env, nil
}

// Run processes jobs with n concurrent workers until ctx is cancelled,
// then waits for in-flight jobs before returning. Jobs run on a context
// that is not cancelled by shutdown so a half-sent mail is not cut off.
func (m *Manager) Run(ctx context.Context, n int) error {
	pool := workerpool.New(n, workerpool.WithPanicHandler(func(v any) {
		logger.Error("queue: job panicked", "panic", v)
	}))
	defer pool.Shutdown()

	logger.Info("queue: workers started", "count", n)
	jobCtx := context.WithoutCancel(ctx)
	for {
		raw, err := m.driver.Pop(ctx)
		if ctx.Err() != nil {
			if raw != nil {
				// Popped during shutdown; hand it back.
				_ = m.driver.Push(jobCtx, raw)
			}
			logger.Info("queue: workers stopping")
			return nil
		}
		if err != nil {
			logger.Error("queue: pop failed", "error", err)
			if !sleep(ctx, 500*time.Millisecond) {
				return nil
			}
			continue
		}
		if raw == nil {
			continue
		}
		if err := pool.SubmitWait(ctx, func() { m.process(jobCtx, raw) }); err != nil {
			_ = m.driver.Push(jobCtx, raw)
			return nil
		}
	}
}

// Work processes one job if one arrives before ctx is done. It reports
// whether a job was handled.
func (m *Manager) Work(ctx context.Context) (bool, error) {
	raw, err := m.driver.Pop(ctx)
	if err != nil || raw == nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
		return false, err
	}
	m.process(context.WithoutCancel(ctx), raw)
	return true, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}
	log := logger.WithCtx(ctx).With("job", env.Job, "job_id", env.ID)

	m.mu.RLock()
	factory, ok := m.registry[env.Job]
	maxRetry, backoff := m.maxRetry, m.backoff
	m.mu.RUnlock()

	if !ok {
		m.fail(ctx, env, fmt.Errorf("queue: unregistered job %q", env.Job))
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		m.fail(ctx, env, fmt.Errorf("queue: unmarshal payload: %w", err))
		return
	}

	env.Attempts++
	start := time.Now()
	err := job.Handle(logger.InjectLogger(ctx, log))
	if err == nil {
		metrics.RecordQueueJob(env.Job, "success", start)
		log.Info("queue: job processed", "attempt", env.Attempts)
		return
	}

	if env.Attempts >= maxRetry {
		metrics.RecordQueueJob(env.Job, "failed", start)
		m.fail(ctx, env, err)
		return
	}

	metrics.RecordQueueJob(env.Job, "retry", start)
	delay := backoff(env.Attempts)
	log.Warn("queue: job failed, releasing", "attempt", env.Attempts, "delay", delay, "error", err)
	next, mErr := json.Marshal(env)
	if mErr == nil {
		mErr = m.driver.PushDelayed(ctx, next, delay)
	}
	if mErr != nil {
		m.fail(ctx, env, errors.Join(err, mErr))
	}
}

// FailedJobs returns a snapshot of the jobs that failed in this process.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]FailedJob(nil), m.failed...)
}
