package model

import "time"

// TOU (time-of-use) pricing periods a reading's tariff may belong to.
const (
	TOUOffPeak = "off_peak"
	TOUMidPeak = "mid_peak"
	TOUPeak    = "peak"
	TOUUnknown = "unknown"
)

// Recognized device provenance tags.
const (
	SourceApp  = "app"
	SourcePlug = "plug"
)

// Reading is one normalized consumption interval for one appliance in one home.
// Readings are produced by the ingester and never mutated afterwards.
type Reading struct {
	ID              int64   `gorm:"autoIncrement;primaryKey"`
	HomeID          int64   `gorm:"index;not null"`
	Date            string  `gorm:"size:10;index;not null"` // YYYY-MM-DD
	Time            string  `gorm:"size:5;not null"`        // HH:MM
	Appliance       string  `gorm:"size:128;not null"`
	KWh             float64 `gorm:"not null"`
	TOUPeriod       string  `gorm:"size:16;not null"`
	TariffUSDPerKWh float64 `gorm:"not null"`
	OutdoorTempC    float64
	IndoorTempC     float64
	Source          string `gorm:"size:16"`
	Online          *bool  // explicit online flag from the feed, when present

	// Parsed Date+Time, kept denormalized for last-seen ordering.
	Timestamp time.Time `gorm:"index;not null"`
}

// Hour returns the hour-of-day bucket for the reading, clamped into [0,23].
// Minutes are truncated to the containing hour.
func (r Reading) Hour() int {
	h := r.Timestamp.Hour()
	if r.Timestamp.IsZero() {
		h = parseHour(r.Time)
	}
	if h < 0 {
		return 0
	}
	if h > 23 {
		return 23
	}
	return h
}

func parseHour(hhmm string) int {
	h := 0
	for i := 0; i < len(hhmm) && hhmm[i] != ':'; i++ {
		c := hhmm[i]
		if c < '0' || c > '9' {
			return 0
		}
		h = h*10 + int(c-'0')
	}
	return h
}
