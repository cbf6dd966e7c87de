// Package weather talks to the external weather collaborator. Every failure
// degrades to a cached or reading-derived value; nothing here ever fails the
// dashboard response.
package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"powerpulse-backend/internal/analytics"
	"powerpulse-backend/internal/metrics"
)

// Service fetches current conditions and the 7-day temperature outlook.
type Service struct {
	client *resty.Client
	source analytics.ReadingSource
	cache  *cache.Cache
	logger *zap.Logger
}

// NewService creates the weather client. baseURL may be empty, in which case
// only the reading-derived fallback is served.
func NewService(baseURL string, timeout time.Duration, cacheTTL time.Duration, source analytics.ReadingSource, logger *zap.Logger) *Service {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(1)

	return &Service{
		client: client,
		source: source,
		cache:  cache.New(cacheTTL, 2*cacheTTL),
		logger: logger,
	}
}

type currentResponse struct {
	TemperatureF       float64  `json:"temperature_f"`
	TemperatureC       float64  `json:"temperature_c"`
	IndoorTemperatureC float64  `json:"indoor_temperature_c"`
	Humidity           *float64 `json:"humidity"`
	WindSpeed          *float64 `json:"wind_speed"`
	Location           string   `json:"location"`
}

type forecastResponse struct {
	Days []struct {
		Date  string  `json:"date"`
		TempC float64 `json:"temp_c"`
	} `json:"days"`
}

// Current returns the current weather for a home, or nil when neither the
// collaborator nor the reading history can supply one.
func (s *Service) Current(ctx context.Context, homeID int64) *analytics.Weather {
	key := fmt.Sprintf("current:%d", homeID)
	if cached, found := s.cache.Get(key); found {
		return cached.(*analytics.Weather)
	}

	if w := s.fetchCurrent(ctx, homeID); w != nil {
		s.cache.SetDefault(key, w)
		return w
	}
	return s.currentFromReadings(ctx, homeID)
}

func (s *Service) fetchCurrent(ctx context.Context, homeID int64) *analytics.Weather {
	if s.client.BaseURL == "" {
		return nil
	}

	var body currentResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(fmt.Sprintf("/current/%d", homeID))
	if err != nil || !resp.IsSuccess() {
		metrics.CollaboratorFailures.WithLabelValues("weather").Inc()
		s.logger.Warn("weather current fetch failed",
			zap.Int64("home_id", homeID), zap.Error(err))
		return nil
	}

	return &analytics.Weather{
		TemperatureF:       body.TemperatureF,
		TemperatureC:       body.TemperatureC,
		IndoorTemperatureC: body.IndoorTemperatureC,
		Humidity:           body.Humidity,
		WindSpeed:          body.WindSpeed,
		Location:           body.Location,
	}
}

// currentFromReadings derives conditions from the most recent reading's
// temperature columns when the collaborator is unreachable.
func (s *Service) currentFromReadings(ctx context.Context, homeID int64) *analytics.Weather {
	if s.source == nil {
		return nil
	}
	readings, err := s.source.Readings(ctx, homeID)
	if err != nil || len(readings) == 0 {
		return nil
	}

	latest := readings[0]
	for _, r := range readings[1:] {
		if r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}

	return &analytics.Weather{
		TemperatureF:       analytics.CToF(latest.OutdoorTempC),
		TemperatureC:       latest.OutdoorTempC,
		IndoorTemperatureC: latest.IndoorTempC,
	}
}

// Forecast returns the collaborator's 7-day daily temperature series, or nil
// when it is unavailable. Shaping into the dashboard tuple happens in
// analytics.
func (s *Service) Forecast(ctx context.Context, homeID int64) []analytics.DailyTemp {
	key := fmt.Sprintf("forecast:%d", homeID)
	if cached, found := s.cache.Get(key); found {
		return cached.([]analytics.DailyTemp)
	}
	if s.client.BaseURL == "" {
		return nil
	}

	var body forecastResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get(fmt.Sprintf("/forecast/%d", homeID))
	if err != nil || !resp.IsSuccess() {
		metrics.CollaboratorFailures.WithLabelValues("weather").Inc()
		s.logger.Warn("weather forecast fetch failed",
			zap.Int64("home_id", homeID), zap.Error(err))
		return nil
	}

	days := make([]analytics.DailyTemp, 0, len(body.Days))
	for _, d := range body.Days {
		t, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		days = append(days, analytics.DailyTemp{Date: t, TempC: d.TempC})
	}
	s.cache.SetDefault(key, days)
	return days
}
