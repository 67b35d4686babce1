// Package schedule runs recurring tasks inside the process.
//
//	s := schedule.New()
//	s.Daily().At("23:55").Name("sales:daily-report").WithoutOverlapping().Run(sendReport)
//	s.EveryMinute().Run(tick)
//	s.Cron("0 */6 * * *").Run(cleanup)
//	go s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/shopfront/pkg/logger"
)

// Task is the function signature for a scheduled task.
type Task func(ctx context.Context) error

type entry struct {
	id        string
	interval  time.Duration
	cronExpr  string // "" unless using Cron/At
	task      Task
	noOverlap bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Scheduler holds registered entries.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
	now     func() time.Time
}

func New() *Scheduler {
	return &Scheduler{now: time.Now}
}

// Builder configures one entry before Run registers it.
type Builder struct {
	s   *Scheduler
	e   *entry
	err error
}

func (s *Scheduler) build(e *entry) *Builder { return &Builder{s: s, e: e} }

// EveryMinute fires at the start of every minute.
func (s *Scheduler) EveryMinute() *Builder { return s.Cron("* * * * *") }

// Hourly fires at minute 0 of every hour.
func (s *Scheduler) Hourly() *Builder { return s.Cron("0 * * * *") }

// Daily fires at midnight unless At changes the time.
func (s *Scheduler) Daily() *Builder { return s.Cron("0 0 * * *") }

// Every fires every d, the first time on the first tick.
func (s *Scheduler) Every(d time.Duration) *Builder {
	return s.build(&entry{interval: d})
}

// Cron uses a 5-field expression: minute hour day-of-month month day-of-week.
// Fields accept *, n, */step, a-b and comma lists.
func (s *Scheduler) Cron(expr string) *Builder {
	b := s.build(&entry{cronExpr: expr})
	if err := validateCron(expr); err != nil {
		b.err = err
	}
	return b
}

// At sets the time of day ("HH:MM") for a Daily entry.
func (b *Builder) At(hhmm string) *Builder {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		b.err = fmt.Errorf("schedule: bad time %q: %w", hhmm, err)
		return b
	}
	fields := strings.Fields(b.e.cronExpr)
	if len(fields) != 5 {
		b.err = fmt.Errorf("schedule: At needs a daily or cron entry")
		return b
	}
	fields[0], fields[1] = strconv.Itoa(t.Minute()), strconv.Itoa(t.Hour())
	b.e.cronExpr = strings.Join(fields, " ")
	return b
}

// WithoutOverlapping skips a run while the previous one is still executing.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

// Name gives the entry an identifier for logs and listings.
func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// Run registers the entry.
func (b *Builder) Run(fn Task) error {
	if b.err != nil {
		return b.err
	}
	b.e.task = fn
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
	return nil
}

// Start ticks every second and dispatches due entries until ctx is
// cancelled, then waits for running tasks.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	logger.Info("schedule: scheduler started", "entries", len(s.List()))

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: scheduler stopped")
			return
		case <-ticker.C:
			s.RunDue(ctx, s.now())
		}
	}
}

// RunDue starts every entry due at now and returns how many it started.
// Tasks run in their own goroutines; Wait blocks until they finish.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	started := 0
	for _, e := range current {
		if s.dispatch(ctx, e, now) {
			started++
		}
	}
	return started
}

// Wait blocks until every dispatched task has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

// isDue must be called with e.mu held. Cron entries fire once per matching
// minute no matter how often the loop ticks.
func (e *entry) isDue(now time.Time) bool {
	if e.cronExpr != "" {
		slot := now.Truncate(time.Minute)
		return matchCron(e.cronExpr, now) && !e.lastRun.Equal(slot)
	}
	return e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) bool {
	e.mu.Lock()
	if !e.isDue(now) {
		e.mu.Unlock()
		return false
	}
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return false
	}
	e.running = true
	if e.cronExpr != "" {
		e.lastRun = now.Truncate(time.Minute)
	} else {
		e.lastRun = now
	}
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}()

		logger.Info("schedule: running task", "id", e.id)
		start := time.Now()
		if err := e.task(ctx); err != nil {
			logger.Error("schedule: task failed", "id", e.id, "error", err)
			return
		}
		logger.Info("schedule: task finished", "id", e.id, "duration", time.Since(start))
	}()
	return true
}

// List describes the registered entries for CLI display.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		freq := e.cronExpr
		if freq == "" {
			freq = "every " + e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, freq))
	}
	return out
}

var cronBounds = [5][2]int{{0, 59}, {0, 23}, {1, 31}, {1, 12}, {0, 6}}

func validateCron(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return fmt.Errorf("schedule: cron %q needs 5 fields", expr)
	}
	for i, f := range fields {
		for _, part := range strings.Split(f, ",") {
			if _, err := parsePart(part, cronBounds[i][0], cronBounds[i][1]); err != nil {
				return fmt.Errorf("schedule: cron %q: %w", expr, err)
			}
		}
	}
	return nil
}

func matchCron(expr string, t time.Time) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return false
	}
	vals := [5]int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, f := range fields {
		if !matchField(f, vals[i], cronBounds[i][0], cronBounds[i][1]) {
			return false
		}
	}
	return true
}

func matchField(field string, val, lo, hi int) bool {
	for _, part := range strings.Split(field, ",") {
		m, err := parsePart(part, lo, hi)
		if err == nil && m(val) {
			return true
		}
	}
	return false
}

func parsePart(part string, lo, hi int) (func(int) bool, error) {
	atoi := func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil || n < lo || n > hi {
			return 0, fmt.Errorf("value %q out of range %d-%d", s, lo, hi)
		}
		return n, nil
	}
	switch {
	case part == "*":
		return func(int) bool { return true }, nil
	case strings.HasPrefix(part, "*/"):
		step, err := strconv.Atoi(part[2:])
		if err != nil || step < 1 {
			return nil, fmt.Errorf("bad step %q", part)
		}
		return func(v int) bool { return (v-lo)%step == 0 }, nil
	case strings.Contains(part, "-"):
		a, b, _ := strings.Cut(part, "-")
		from, err := atoi(a)
		if err != nil {
			return nil, err
		}
		to, err := atoi(b)
		if err != nil {
			return nil, err
		}
		return func(v int) bool { return v >= from && v <= to }, nil
	default:
		n, err := atoi(part)
		if err != nil {
			return nil, err
		}
		return func(v int) bool { return v == n }, nil
	}
}
