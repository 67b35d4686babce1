package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shashiranjanraj/shopfront/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingJob appends its payload to a shared log.
type recordingJob struct {
	ProductID uint `json:"product_id"`
	log       *jobLog
}

func (recordingJob) JobName() string { return "recording" }

func (j *recordingJob) Handle(context.Context) error {
	j.log.add(j.ProductID)
	return nil
}

type jobLog struct {
	mu  sync.Mutex
	ids []uint
}

func (l *jobLog) add(id uint) {
	l.mu.Lock()
	l.ids = append(l.ids, id)
	l.mu.Unlock()
}

func (l *jobLog) snapshot() []uint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uint(nil), l.ids...)
}

// flakyJob fails until it has been attempted failUntil times.
type flakyJob struct {
	Name      string `json:"name"`
	attempts  *atomic.Int32
	failUntil int32
}

func (flakyJob) JobName() string { return "flaky" }

func (j *flakyJob) Handle(context.Context) error {
	if j.attempts.Add(1) <= j.failUntil {
		return errors.New("smtp unavailable")
	}
	return nil
}

func newManager() *Manager {
	m := New(NewMemoryDriver())
	m.SetBackoff(func(int) time.Duration { return 0 })
	return m
}

func drain(t *testing.T, m *Manager, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		ok, err := m.Work(ctx)
		cancel()
		require.NoError(t, err)
		require.True(t, ok, "expected job %d", i+1)
	}
}

func TestDispatchCarriesPayloadByValue(t *testing.T) {
	m := newManager()
	log := &jobLog{}
	m.Register(func() Job { return &recordingJob{log: log} })

	require.NoError(t, m.Dispatch(context.Background(), &recordingJob{ProductID: 7}))
	drain(t, m, 1)

	assert.Equal(t, []uint{7}, log.snapshot())
}

func TestRetryThenSucceed(t *testing.T) {
	m := newManager()
	attempts := &atomic.Int32{}
	m.Register(func() Job { return &flakyJob{attempts: attempts, failUntil: 2} })

	require.NoError(t, m.Dispatch(context.Background(), &flakyJob{Name: "x"}))
	drain(t, m, 3)

	assert.Equal(t, int32(3), attempts.Load())
	assert.Empty(t, m.FailedJobs())
}

func TestExhaustedJobIsRecorded(t *testing.T) {
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&FailedJobRecord{}))

	m := newManager()
	m.SetMaxRetry(2)
	m.UseDB(db)
	attempts := &atomic.Int32{}
	m.Register(func() Job { return &flakyJob{attempts: attempts, failUntil: 100} })

	require.NoError(t, m.Dispatch(context.Background(), &flakyJob{Name: "alert"}))
	drain(t, m, 2)

	failed := m.FailedJobs()
	require.Len(t, failed, 1)
	assert.Equal(t, "flaky", failed[0].Job)
	assert.Equal(t, 2, failed[0].Attempts)
	assert.EqualError(t, failed[0].Err, "smtp unavailable")

	records, err := ListFailed(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"name":"alert"}`, records[0].Payload)
	assert.Equal(t, failed[0].ID, records[0].UUID)
}

func TestUnregisteredJobFails(t *testing.T) {
	m := newManager()
	require.NoError(t, m.Dispatch(context.Background(), &recordingJob{ProductID: 1}))
	drain(t, m, 1)

	failed := m.FailedJobs()
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Err.Error(), "unregistered")
}

func TestRetryWaitsForBackoff(t *testing.T) {
	d := NewMemoryDriver()
	m := New(d)
	m.SetBackoff(func(int) time.Duration { return 50 * time.Millisecond })
	attempts := &atomic.Int32{}
	m.Register(func() Job { return &flakyJob{attempts: attempts, failUntil: 1} })

	require.NoError(t, m.Dispatch(context.Background(), &flakyJob{Name: "x"}))
	drain(t, m, 1)
	assert.Zero(t, d.Len(), "released job must not be visible before its delay")

	drain(t, m, 1)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Empty(t, m.FailedJobs())
}

func TestRunProcessesUntilCancelled(t *testing.T) {
	m := newManager()
	log := &jobLog{}
	m.Register(func() Job { return &recordingJob{log: log} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, 3) }()

	for i := uint(1); i <= 20; i++ {
		require.NoError(t, m.Dispatch(context.Background(), &recordingJob{ProductID: i}))
	}
	require.Eventually(t, func() bool { return len(log.snapshot()) == 20 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestWorkReturnsFalseWhenIdle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	ok, err := newManager().Work(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
}
