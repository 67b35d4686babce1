package console

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReporter struct{ calls atomic.Int32 }

func (r *countingReporter) SendDaily(context.Context, time.Time) (models.SalesReport, []models.User, error) {
	r.calls.Add(1)
	return models.SalesReport{}, nil, nil
}

func TestScheduleRunsReportAtConfiguredTime(t *testing.T) {
	s := schedule.New()
	reports := &countingReporter{}
	require.NoError(t, Schedule(s, reports, "23:55"))

	assert.Equal(t, []string{"sales:daily-report  [55 23 * * *]"}, s.List())

	ctx := context.Background()
	assert.Zero(t, s.RunDue(ctx, time.Date(2026, 3, 4, 23, 54, 0, 0, time.Local)))
	assert.Equal(t, 1, s.RunDue(ctx, time.Date(2026, 3, 4, 23, 55, 10, 0, time.Local)))
	assert.Zero(t, s.RunDue(ctx, time.Date(2026, 3, 4, 23, 55, 40, 0, time.Local)))
	s.Wait()

	assert.EqualValues(t, 1, reports.calls.Load())
}

func TestScheduleRejectsBadTime(t *testing.T) {
	assert.Error(t, Schedule(schedule.New(), &countingReporter{}, "25:99"))
}
