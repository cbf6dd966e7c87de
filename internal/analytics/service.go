package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"powerpulse-backend/internal/model"
)

// ReadingSource is the abstract reading store the engine computes over.
type ReadingSource interface {
	Homes(ctx context.Context) ([]model.Home, error)
	Readings(ctx context.Context, homeID int64) ([]model.Reading, error)
}

// WeatherProvider supplies current conditions for the dashboard snapshot.
// Implementations degrade to nil rather than returning errors.
type WeatherProvider interface {
	Current(ctx context.Context, homeID int64) *Weather
}

// TariffRates is the time-of-use pricing the analysis engine prices its
// savings estimates with. The window is [PeakStartHour, PeakEndHour).
type TariffRates struct {
	PeakStartHour    int
	PeakEndHour      int
	PeakUSDPerKWh    float64
	OffPeakUSDPerKWh float64
}

// DefaultTariffRates returns the standard residential time-of-use schedule.
func DefaultTariffRates() TariffRates {
	return TariffRates{
		PeakStartHour:    15,
		PeakEndHour:      19,
		PeakUSDPerKWh:    0.32,
		OffPeakUSDPerKWh: 0.12,
	}
}

// Service computes the derived dashboard metrics. All operations are
// synchronous, stateless functions of the reading snapshot; "now" is
// injectable for tests.
type Service struct {
	source          ReadingSource
	weather         WeatherProvider
	emissionKgPerKW float64
	intervalMinutes int
	tariff          TariffRates
	logger          *zap.Logger

	now func() time.Time
}

// NewService creates the analytics service. weather may be nil; a zero
// tariff falls back to the default schedule.
func NewService(source ReadingSource, weather WeatherProvider, emissionFactor float64, intervalMinutes int, tariff TariffRates, logger *zap.Logger) *Service {
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}
	if tariff == (TariffRates{}) {
		tariff = DefaultTariffRates()
	}
	return &Service{
		source:          source,
		weather:         weather,
		emissionKgPerKW: emissionFactor,
		intervalMinutes: intervalMinutes,
		tariff:          tariff,
		logger:          logger,
		now:             time.Now,
	}
}

// SetNow overrides the clock. Intended for tests.
func (s *Service) SetNow(now func() time.Time) { s.now = now }

// EmissionFactor exposes the configured kg-CO2-per-kWh constant.
func (s *Service) EmissionFactor() float64 { return s.emissionKgPerKW }

// HourlyUsage returns a 24-point series for the given date (YYYY-MM-DD), or
// for the resolved "today" when the date is empty. The series is always
// length 24, ordered 0..23; hours without readings stay zero.
func (s *Service) HourlyUsage(ctx context.Context, homeID int64, date string) ([]HourlyPoint, error) {
	readings, err := s.source.Readings(ctx, homeID)
	if err != nil {
		return nil, err
	}
	return s.hourlySeries(readings, date), nil
}

func (s *Service) hourlySeries(readings []model.Reading, date string) []HourlyPoint {
	if date == "" {
		date = resolveToday(readings, s.now())
	}

	points := emptyHourlySeries()
	for _, r := range readings {
		if r.Date != date {
			continue
		}
		points[r.Hour()].KWh += r.KWh
	}
	return points
}

// TodayTotals returns usage, cost, and CO2 for the resolved "today".
func (s *Service) TodayTotals(ctx context.Context, homeID int64) (usageKWh, costUSD, co2Kg float64, err error) {
	readings, err := s.source.Readings(ctx, homeID)
	if err != nil {
		return 0, 0, 0, err
	}
	usageKWh, costUSD, co2Kg = s.todayTotals(readings)
	return usageKWh, costUSD, co2Kg, nil
}

func (s *Service) todayTotals(readings []model.Reading) (usageKWh, costUSD, co2Kg float64) {
	today := readingsForDate(readings, resolveToday(readings, s.now()))

	var kwh float64
	for _, r := range today {
		kwh += r.KWh
	}
	return kwh, CostUSD(today), CO2Kg(today, s.emissionKgPerKW)
}

// CurrentPower treats the most recent reading's kWh value as an
// instantaneous rate for display.
func (s *Service) CurrentPower(ctx context.Context, homeID int64) (float64, error) {
	readings, err := s.source.Readings(ctx, homeID)
	if err != nil {
		return 0, err
	}
	return currentPower(readings), nil
}

func currentPower(readings []model.Reading) float64 {
	latest := latestReading(readings)
	if latest == nil {
		return 0
	}
	return latest.KWh
}

// Devices derives the per-appliance online/offline view for a home. A home
// without readings yields an empty, well-formed list.
func (s *Service) Devices(ctx context.Context, homeID int64) ([]DeviceState, error) {
	readings, err := s.source.Readings(ctx, homeID)
	if err != nil {
		return nil, err
	}

	latestByAppliance := make(map[string]model.Reading)
	for _, r := range readings {
		if r.Appliance == "" {
			continue
		}
		cur, seen := latestByAppliance[r.Appliance]
		if !seen || r.Timestamp.After(cur.Timestamp) {
			latestByAppliance[r.Appliance] = r
		}
	}

	now := s.now()
	devices := make([]DeviceState, 0, len(latestByAppliance))
	for name, r := range latestByAppliance {
		var lastSeen *time.Time
		if !r.Timestamp.IsZero() {
			ts := r.Timestamp
			lastSeen = &ts
		}
		devices = append(devices, DeviceState{
			Name:       name,
			PowerLabel: fmt.Sprintf("%.2f kWh", r.KWh),
			Status:     ClassifyStatus(lastSeen, r.Online, now),
			Source:     deviceSource(r.Source),
			LastSeen:   lastSeen,
		})
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}

// PerDeviceStats computes the rollups for one appliance of one home.
func (s *Service) PerDeviceStats(ctx context.Context, homeID int64, appliance string) (DeviceStats, error) {
	all, err := s.source.Readings(ctx, homeID)
	if err != nil {
		return DeviceStats{}, err
	}

	var readings []model.Reading
	for _, r := range all {
		if r.Appliance == appliance {
			readings = append(readings, r)
		}
	}
	if len(readings) == 0 {
		return DeviceStats{}, nil
	}

	latestDate := ""
	dates := make(map[string]struct{})
	for _, r := range readings {
		dates[r.Date] = struct{}{}
		if r.Date > latestDate {
			latestDate = r.Date
		}
	}
	latestMonth := latestDate
	if len(latestMonth) >= 7 {
		latestMonth = latestMonth[:7]
	}

	var daily, monthly float64
	var hourSums [24]float64
	nonZero := 0
	for _, r := range readings {
		if r.Date == latestDate {
			daily += r.KWh
		}
		if len(r.Date) >= 7 && r.Date[:7] == latestMonth {
			monthly += r.KWh
		}
		if r.KWh > 0 {
			nonZero++
		}
		hourSums[r.Hour()] += r.KWh
	}

	// Interval granularity is assumed uniform across the feed.
	runtimeHours := float64(nonZero) * float64(s.intervalMinutes) / 60.0
	avgRuntime := runtimeHours / float64(len(dates))

	peakHour := 0
	for h := 1; h < 24; h++ {
		if hourSums[h] > hourSums[peakHour] {
			peakHour = h
		}
	}

	return DeviceStats{
		DailyKWh:        daily,
		MonthlyKWh:      monthly,
		AvgRuntimeHours: avgRuntime,
		PeakHour:        peakHour,
	}, nil
}

// DashboardMetrics assembles the full snapshot for one home. Weather is
// optional; a failed or absent provider leaves it nil.
//
// The readings are fetched exactly once so every field of the result is
// computed from the same view; a cache refresh mid-request cannot produce a
// payload whose hourly series disagrees with its totals.
func (s *Service) DashboardMetrics(ctx context.Context, homeID int64) (MetricsSnapshot, error) {
	readings, err := s.source.Readings(ctx, homeID)
	if err != nil {
		return MetricsSnapshot{}, err
	}

	usage, cost, co2 := s.todayTotals(readings)
	snapshot := MetricsSnapshot{
		CurrentPowerKW: currentPower(readings),
		TodayUsageKWh:  usage,
		TodayCostUSD:   cost,
		TodayCO2Kg:     co2,
		HourlyUsage24h: s.hourlySeries(readings, ""),
	}
	if s.weather != nil {
		snapshot.Weather = s.weather.Current(ctx, homeID)
	}
	return snapshot, nil
}

func emptyHourlySeries() []HourlyPoint {
	points := make([]HourlyPoint, 24)
	for h := range points {
		points[h] = HourlyPoint{Time: fmt.Sprintf("%02d:00", h), Hour: h}
	}
	return points
}

// resolveToday picks the current civil date when it has readings, otherwise
// the latest date with data, so the dashboard never renders blank just
// because the feed lags.
func resolveToday(readings []model.Reading, now time.Time) string {
	today := now.Format("2006-01-02")
	latest := ""
	for _, r := range readings {
		if r.Date == today {
			return today
		}
		if r.Date > latest {
			latest = r.Date
		}
	}
	if latest != "" {
		return latest
	}
	return today
}

func readingsForDate(readings []model.Reading, date string) []model.Reading {
	var out []model.Reading
	for _, r := range readings {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}

func latestReading(readings []model.Reading) *model.Reading {
	var latest *model.Reading
	for i := range readings {
		r := &readings[i]
		if latest == nil || r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}
	return latest
}
