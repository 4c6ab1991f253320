package model

import "time"

// Lawn, SoilTest and WeatherNormal are registry tables the engine reads from.

type Lawn struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address   string  `gorm:"type:varchar(512)" json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	SizeSqFt  float64 `json:"size_sqft"`
	GrassType string  `gorm:"type:varchar(128)" json:"grass_type"`
}

type SoilTest struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	LawnID           uint      `gorm:"not null;index" json:"lawn_id"`
	DateTested       time.Time `gorm:"index" json:"date_tested"`
	PH               float64   `json:"ph"`
	NitrogenPPM      float64   `json:"nitrogen_ppm"`
	PhosphorusPPM    float64   `json:"phosphorus_ppm"`
	PotassiumPPM     float64   `json:"potassium_ppm"`
	OrganicMatterPct float64   `json:"organic_matter_pct"`
}

// WeatherNormal is the climate normal for one calendar day at a lawn. Nil fields mean the source had no value.
type WeatherNormal struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	CreatedAt time.Time `json:"-"`

	LawnID   uint     `gorm:"not null;uniqueIndex:idx_weather_normal_day" json:"lawn_id"`
	Month    int      `gorm:"not null;uniqueIndex:idx_weather_normal_day" json:"month"`
	Day      int      `gorm:"not null;uniqueIndex:idx_weather_normal_day" json:"day"`
	PrecipMM *float64 `json:"precip_mm"`
	MinC     *float64 `json:"min_c"`
	MaxC     *float64 `json:"max_c"`
	AvgC     *float64 `json:"avg_c"`
}
