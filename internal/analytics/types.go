package analytics

import "time"

// Device status values derived from last-seen age.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusUnknown = "unknown"
)

// HourlyPoint is one hour bucket of the 24-point usage series.
type HourlyPoint struct {
	Time string  `json:"time"` // HH:00
	Hour int     `json:"hour"`
	KWh  float64 `json:"kwh"`
}

// Weather is the current-conditions reading attached to the dashboard.
type Weather struct {
	TemperatureF       float64  `json:"temperature_f"`
	TemperatureC       float64  `json:"temperature_c"`
	IndoorTemperatureC float64  `json:"indoor_temperature_c"`
	Humidity           *float64 `json:"humidity"`
	WindSpeed          *float64 `json:"wind_speed"`
	Location           string   `json:"location,omitempty"`
}

// MetricsSnapshot is the full dashboard payload for one home.
type MetricsSnapshot struct {
	CurrentPowerKW float64       `json:"current_power_kw"`
	TodayUsageKWh  float64       `json:"today_usage_kwh"`
	TodayCostUSD   float64       `json:"today_cost_usd"`
	TodayCO2Kg     float64       `json:"today_co2_kg"`
	HourlyUsage24h []HourlyPoint `json:"hourly_usage_24h"`
	Weather        *Weather      `json:"weather"`
}

// DeviceState is the derived online/offline view of one appliance.
type DeviceState struct {
	Name       string     `json:"name"`
	PowerLabel string     `json:"power_label"`
	Status     string     `json:"status"`
	Source     string     `json:"source"`
	LastSeen   *time.Time `json:"last_seen"`
}

// DeviceStats are the per-appliance rollups.
type DeviceStats struct {
	DailyKWh        float64 `json:"daily_kwh"`
	MonthlyKWh      float64 `json:"monthly_kwh"`
	AvgRuntimeHours float64 `json:"avg_runtime_hours"`
	PeakHour        int     `json:"peak_hour"`
}

// ForecastPoint is one day of the 7-day consumption forecast.
type ForecastPoint struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Weekday string  `json:"weekday"`
	KWh     float64 `json:"kwh"`
	CostUSD float64 `json:"cost_usd"`
	CO2Kg   float64 `json:"co2_kg"`
}

// Analysis event types and the actions suggested for them.
const (
	EventSpike  = "SPIKE"
	EventPeak   = "PEAK"
	EventNormal = "NORMAL"

	SuggestionRaiseThermostat = "RAISE_THERM"
	SuggestionShiftAppliance  = "SHIFT_APPLIANCE"
	SuggestionNone            = "NONE"
)

// AnalysisPoint is one projected hour of the analysis horizon.
type AnalysisPoint struct {
	TS           string  `json:"ts"` // RFC3339
	PredictedKWh float64 `json:"predicted_kwh"`
	BaselineKWh  float64 `json:"baseline_kwh"`
}

// Savings is the estimated effect of acting on one event.
type Savings struct {
	KWh      float64 `json:"kwh"`
	CO2Grams int     `json:"co2_g"`
	CostUSD  float64 `json:"cost_usd"`
}

// AnalysisEvent classifies one projected hour and the suggested action.
type AnalysisEvent struct {
	Type       string  `json:"type"` // SPIKE, PEAK, or NORMAL
	At         string  `json:"at"`
	Suggestion string  `json:"suggestion"`
	Savings    Savings `json:"savings"`
	Reason     string  `json:"reason"`
}

// AnalysisSummary aggregates the horizon.
type AnalysisSummary struct {
	TodayKWh            float64 `json:"today_kwh"`
	PotentialSavingsKWh float64 `json:"potential_savings_kwh"`
}

// Analysis is the full deterministic event/savings report for one home.
type Analysis struct {
	HorizonMinutes int             `json:"horizon_minutes"`
	Series         []AnalysisPoint `json:"series"`
	Events         []AnalysisEvent `json:"events"`
	Summary        AnalysisSummary `json:"summary"`
}

// DailyTemp is the collaborator's raw 7-day outlook input.
type DailyTemp struct {
	Date  time.Time `json:"date"`
	TempC float64   `json:"temp_c"`
}

// WeatherForecastPoint is one day of the shaped temperature outlook.
type WeatherForecastPoint struct {
	Date    string  `json:"date"`
	Weekday string  `json:"weekday"`
	TempC   float64 `json:"temp_c"`
	TempF   float64 `json:"temp_f"`
}
