package model

import (
	"time"

	"gorm.io/datatypes"
)

type RunType string

const (
	RunTypeFirst  RunType = "first"
	RunTypeRepeat RunType = "repeat"
)

type TaskStatus string

const (
	TaskStatusPending  TaskStatus = "pending"
	TaskStatusComplete TaskStatus = "complete"
)

// LawnEngine is one treatment-planning run for a lawn. A lawn keeps at most one run per
// subscription year; re-running replaces it.
type LawnEngine struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LawnID           uint           `gorm:"not null;uniqueIndex:idx_lawn_engine_lawn_year" json:"lawn_id"`
	SubscriptionYear int            `gorm:"not null;uniqueIndex:idx_lawn_engine_lawn_year" json:"subscription_year"`
	StartDate        time.Time      `json:"start_date"`
	UserInput        datatypes.JSON `json:"user_input"`
	StressZone       string         `gorm:"type:varchar(64)" json:"stress_zone"`
	GrassType        string         `gorm:"type:varchar(128)" json:"grass_type"`
	RunType          RunType        `gorm:"type:varchar(16);not null" json:"run_type"`
	MaxLawnSize      bool           `gorm:"default:false" json:"max_lawn_size"`
	TaskStatus       TaskStatus     `gorm:"type:varchar(16);not null;default:'pending'" json:"task_status"`
	PouchesPerApp    float64        `gorm:"type:decimal(4,1);default:0" json:"pouches_per_app"`

	GrassPotential []GrassPotential `gorm:"foreignKey:LawnEngineID;constraint:OnDelete:CASCADE" json:"grass_potential"`
	DateAndPouches []DateAndPouches `gorm:"foreignKey:LawnEngineID;constraint:OnDelete:CASCADE" json:"date_and_pouches"`
}

// GrassPotential is one point of a run's growth-potential curve. Rows are read back in id order.
type GrassPotential struct {
	ID           uint    `gorm:"primarykey" json:"-"`
	LawnEngineID uint    `gorm:"not null;index" json:"-"`
	Date         string  `gorm:"type:varchar(16);not null" json:"date"`
	Value        float64 `json:"value"`
}

type DateAndPouches struct {
	ID           uint    `gorm:"primarykey" json:"-"`
	LawnEngineID uint    `gorm:"not null;index" json:"-"`
	Date         string  `gorm:"type:varchar(16);not null" json:"date"`
	Pouches      float64 `gorm:"type:decimal(5,1)" json:"pouches"`
}

func (DateAndPouches) TableName() string { return "date_and_pouches" }
