package queue

import (
	"context"
	"time"

	"github.com/shashiranjanraj/shopfront/pkg/logger"
	"gorm.io/gorm"
)

// FailedJobRecord is a failed job persisted by UseDB.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID     string    `gorm:"size:32;index" json:"uuid"`
	Job      string    `gorm:"size:255;not null;index" json:"job"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
	FailedAt time.Time `gorm:"not null;index" json:"failed_at"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// ListFailed returns persisted failures, newest first.
func ListFailed(ctx context.Context, db *gorm.DB) ([]FailedJobRecord, error) {
	var out []FailedJobRecord
	err := db.WithContext(ctx).Order("id desc").Find(&out).Error
	return out, err
}

func (m *Manager) fail(ctx context.Context, env envelope, cause error) {
	now := time.Now()
	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		ID: env.ID, Job: env.Job, Payload: env.Payload,
		Err: cause, Attempts: env.Attempts, FailedAt: now,
	})
	db := m.db
	m.mu.Unlock()

	log := logger.WithCtx(ctx)
	log.Error("queue: job failed permanently",
		"job", env.Job, "job_id", env.ID, "attempts", env.Attempts, "error", cause)

	if db == nil {
		return
	}
	record := FailedJobRecord{
		UUID:     env.ID,
		Job:      env.Job,
		Payload:  string(env.Payload),
		Error:    cause.Error(),
		Attempts: env.Attempts,
		FailedAt: now,
	}
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		// The in-memory record above still has it.
		log.Error("queue: persist failed job", "job", env.Job, "error", err)
	}
}
