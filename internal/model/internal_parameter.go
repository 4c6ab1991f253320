package model

import (
	"time"
)

type ParameterState string

const (
	ParameterActive  ParameterState = "active"
	ParameterDeleted ParameterState = "deleted"
)

// InternalParameter is an engine tunable. Deleting flips State instead of removing the row.
type InternalParameter struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`

	ParameterName   string         `gorm:"type:varchar(512);not null;index" json:"parameter_name"`
	ProductionValue *string        `gorm:"type:varchar(512)" json:"production_value"`
	DefaultValue    *string        `gorm:"type:varchar(512)" json:"default_value"`
	State           ParameterState `gorm:"type:varchar(16);not null;default:'active';index" json:"-"`
}
