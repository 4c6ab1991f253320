package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lawn-engine/internal/config"
	"lawn-engine/internal/metrics"
	"lawn-engine/internal/model"
)

// WeatherClient talks to the weather history provider:
// GET {base_url}/history/daily?lat=..&lon=..&key=.. returning {"days": [...]}.
type WeatherClient struct {
	BaseURL string
	APIKey  string
	out     *outbound
}

func NewWeatherClient(cfg config.WeatherConfig, m *metrics.Metrics) *WeatherClient {
	return &WeatherClient{
		BaseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		APIKey:  cfg.APIKey,
		out:     newOutbound("weather", cfg.Timeout, cfg.MaxRetries, m),
	}
}

type HistoryDay struct {
	Date          string   `json:"date"`
	PrecipMM      *float64 `json:"precip_mm"`
	MinC          *float64 `json:"min_c"`
	MaxC          *float64 `json:"max_c"`
	AvgC          *float64 `json:"avg_c"`
	CloudCoverPct *float64 `json:"cloud_cover_pct"`
}

type historyResponse struct {
	Days []HistoryDay `json:"days"`
}

// HistorySummary is what the weather history endpoint returns: per-field means over
// the provider's daily records plus the records themselves.
type HistorySummary struct {
	Days             int          `json:"days"`
	TotalPrecipMM    float64      `json:"total_precip_mm"`
	AvgMinC          *float64     `json:"avg_min_c"`
	AvgMaxC          *float64     `json:"avg_max_c"`
	AvgC             *float64     `json:"avg_c"`
	AvgCloudCoverPct *float64     `json:"avg_cloud_cover_pct"`
	Daily            []HistoryDay `json:"daily"`
}

func (c *WeatherClient) Configured() bool {
	return c != nil && c.BaseURL != ""
}

func (c *WeatherClient) History(ctx context.Context, lat, lon float64) ([]HistoryDay, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: weather provider not configured", ErrDataUnavailable)
	}
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("key", c.APIKey)

	res, err := c.out.get(ctx, c.BaseURL+"/history/daily?"+q.Encode(), http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, err
	}
	if res.status != http.StatusOK {
		return nil, fmt.Errorf("%w: weather provider returned %d: %s", ErrDataUnavailable, res.status, truncateBody(res.body))
	}

	var hr historyResponse
	if err := json.Unmarshal(res.body, &hr); err != nil {
		return nil, fmt.Errorf("%w: decode weather history: %v", ErrDataUnavailable, err)
	}
	return hr.Days, nil
}

func Summarize(days []HistoryDay) HistorySummary {
	var minC, maxC, avgC, cloud mean
	s := HistorySummary{Days: len(days), Daily: days}
	for _, d := range days {
		if d.PrecipMM != nil {
			s.TotalPrecipMM += *d.PrecipMM
		}
		minC.add(d.MinC)
		maxC.add(d.MaxC)
		avgC.add(dayAvg(d))
		cloud.add(d.CloudCoverPct)
	}
	s.AvgMinC, s.AvgMaxC, s.AvgC, s.AvgCloudCoverPct = minC.value(), maxC.value(), avgC.value(), cloud.value()
	return s
}

// NormalsFromHistory collapses multi-year daily history into one normal per calendar day.
func NormalsFromHistory(lawnID uint, days []HistoryDay) []model.WeatherNormal {
	type acc struct{ precip, lo, hi, avg mean }
	byDay := map[[2]int]*acc{}
	var order [][2]int
	for _, d := range days {
		t, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		key := [2]int{int(t.Month()), t.Day()}
		a, ok := byDay[key]
		if !ok {
			a = &acc{}
			byDay[key] = a
			order = append(order, key)
		}
		a.precip.add(d.PrecipMM)
		a.lo.add(d.MinC)
		a.hi.add(d.MaxC)
		a.avg.add(dayAvg(d))
	}

	out := make([]model.WeatherNormal, 0, len(order))
	for _, key := range order {
		a := byDay[key]
		out = append(out, model.WeatherNormal{
			LawnID:   lawnID,
			Month:    key[0],
			Day:      key[1],
			PrecipMM: a.precip.value(),
			MinC:     a.lo.value(),
			MaxC:     a.hi.value(),
			AvgC:     a.avg.value(),
		})
	}
	return out
}

func dayAvg(d HistoryDay) *float64 {
	if d.AvgC != nil {
		return d.AvgC
	}
	if d.MinC != nil && d.MaxC != nil {
		v := (*d.MinC + *d.MaxC) / 2
		return &v
	}
	return nil
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}
