package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobQueued   JobStatus = "queued"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
	// rejected jobs had bad input and are never retried
	JobRejected JobStatus = "rejected"
)

// EngineJob is a deferred engine run (CSV bulk import or the async endpoint).
type EngineJob struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LawnID           uint           `gorm:"not null;index" json:"lawn_id"`
	StartDate        string         `gorm:"type:varchar(32)" json:"start_date"`
	UserInput        datatypes.JSON `json:"user_input"`
	SubscriptionYear int            `json:"subscription_year"`
	// api/csv
	Source string    `gorm:"type:varchar(16)" json:"source"`
	Status JobStatus `gorm:"type:varchar(16);not null;index" json:"status"`

	Attempts    int        `gorm:"default:0" json:"attempts"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	LastErrorAt *time.Time `json:"last_error_at,omitempty"`
	LockedAt    *time.Time `json:"-"`
	HeartbeatAt *time.Time `json:"-"`
	ResultRunID *uint      `json:"result_run_id,omitempty"`
}

func (EngineJob) TableName() string { return "lawn_engine_jobs" }

func (j *EngineJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Status == "" {
		j.Status = JobQueued
	}
	return nil
}
