package testutil

import (
	"math"
	"testing"
	"time"

	"lawn-engine/internal/model"

	"gorm.io/gorm"
)

func SeedLawn(tb testing.TB, gdb *gorm.DB, lawn model.Lawn) *model.Lawn {
	tb.Helper()
	if err := gdb.Create(&lawn).Error; err != nil {
		tb.Fatalf("seed lawn: %v", err)
	}
	return &lawn
}

func SeedSoilTest(tb testing.TB, gdb *gorm.DB, soil model.SoilTest) *model.SoilTest {
	tb.Helper()
	if err := gdb.Create(&soil).Error; err != nil {
		tb.Fatalf("seed soil test: %v", err)
	}
	return &soil
}

// Normals builds a non-leap year of daily normals for a lawn with a cosine temperature
// curve peaking in mid-July.
func Normals(lawnID uint, meanC, ampC, precipMM float64) []model.WeatherNormal {
	var out []model.WeatherNormal
	for d := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() == 2023; d = d.AddDate(0, 0, 1) {
		avg := meanC - ampC*math.Cos(2*math.Pi*float64(d.YearDay()-15)/365)
		lo, hi, p := avg-5, avg+5, precipMM
		out = append(out, model.WeatherNormal{
			LawnID:   lawnID,
			Month:    int(d.Month()),
			Day:      d.Day(),
			PrecipMM: &p,
			MinC:     &lo,
			MaxC:     &hi,
			AvgC:     &avg,
		})
	}
	return out
}

func SeedNormals(tb testing.TB, gdb *gorm.DB, normals []model.WeatherNormal) {
	tb.Helper()
	if err := gdb.CreateInBatches(normals, 100).Error; err != nil {
		tb.Fatalf("seed normals: %v", err)
	}
}
