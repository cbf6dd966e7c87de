// Package normalize maps heterogeneous raw reading fields into the canonical
// Reading shape. Every field degrades to a zero value instead of failing, so
// one malformed column never discards a row and one malformed row never
// discards a batch.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"powerpulse-backend/internal/model"
)

// Canonical field keys produced by ResolveHeader.
const (
	FieldHomeID      = "home_id"
	FieldDate        = "date"
	FieldTime        = "time"
	FieldAppliance   = "appliance"
	FieldKWh         = "kwh"
	FieldTariff      = "tariff"
	FieldTOUPeriod   = "tou_period"
	FieldOutdoorTemp = "outdoor_temp_c"
	FieldIndoorTemp  = "indoor_temp_c"
	FieldSource      = "source"
	FieldOnline      = "online"
)

// aliases maps each canonical field to the raw header spellings observed in
// the wild, including an encoding-mangled degree symbol. Matching is
// case-insensitive on the trimmed header.
var aliases = map[string][]string{
	FieldHomeID:      {"home id", "home_id", "homeid"},
	FieldDate:        {"date"},
	FieldTime:        {"time"},
	FieldAppliance:   {"appliance type", "appliance", "device", "device type"},
	FieldKWh:         {"energy consumption (kwh)", "energy (kwh)", "kwh", "consumption_kwh"},
	FieldTariff:      {"tariff ($/kwh)", "tariff (usd/kwh)", "tariff", "tariff_usd_per_kwh"},
	FieldTOUPeriod:   {"tou period", "tou_period", "time-of-use period", "rate period"},
	FieldOutdoorTemp: {"outdoor temperature (c)", "outdoor temperature (°c)", "outdoor temperature (â°c)", "outdoor_temp_c", "outdoor temp"},
	FieldIndoorTemp:  {"indoor temperature (c)", "indoor temperature (°c)", "indoor temperature (â°c)", "indoor_temp_c", "indoor temp"},
	FieldSource:      {"source", "device source"},
	FieldOnline:      {"online", "device online", "is online"},
}

// dateLayouts accepted for the Date column, tried in order.
var dateLayouts = []string{"1/2/06", "01/02/06", "2006-01-02", "1/2/2006"}

// ResolveHeader maps a raw CSV header row to column index per canonical
// field. Unrecognized columns are ignored; duplicate matches keep the first.
func ResolveHeader(header []string) map[string]int {
	cols := make(map[string]int, len(aliases))
	for i, raw := range header {
		h := strings.ToLower(strings.TrimSpace(raw))
		for field, names := range aliases {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, name := range names {
				if h == name {
					cols[field] = i
					break
				}
			}
		}
	}
	return cols
}

// Row normalizes one raw record, already keyed by canonical field, into a
// Reading. It never fails: missing or unparseable numerics become 0, strings
// are trimmed, and kwh and tariff are clamped non-negative.
func Row(fields map[string]string) model.Reading {
	r := model.Reading{
		HomeID:          parseInt(fields[FieldHomeID]),
		Date:            canonicalDate(strings.TrimSpace(fields[FieldDate])),
		Time:            strings.TrimSpace(fields[FieldTime]),
		Appliance:       strings.TrimSpace(fields[FieldAppliance]),
		KWh:             clampNonNegative(parseFloat(fields[FieldKWh])),
		TariffUSDPerKWh: clampNonNegative(parseFloat(fields[FieldTariff])),
		TOUPeriod:       canonicalTOU(fields[FieldTOUPeriod]),
		OutdoorTempC:    parseFloat(fields[FieldOutdoorTemp]),
		IndoorTempC:     parseFloat(fields[FieldIndoorTemp]),
		Source:          canonicalSource(fields[FieldSource]),
		Online:          parseBool(fields[FieldOnline]),
	}
	r.Timestamp = parseTimestamp(r.Date, r.Time)
	return r
}

// RowFromRecord applies the resolved header to one positional CSV record.
func RowFromRecord(cols map[string]int, record []string) model.Reading {
	fields := make(map[string]string, len(cols))
	for field, idx := range cols {
		if idx >= 0 && idx < len(record) {
			fields[field] = record[idx]
		}
	}
	return Row(fields)
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some feeds write home ids as floats.
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return v
}

func parseBool(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		v := true
		return &v
	case "false", "0", "no":
		v := false
		return &v
	}
	return nil
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func canonicalDate(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func canonicalTOU(s string) string {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "off_peak", "offpeak", "off peak":
		return model.TOUOffPeak
	case "mid_peak", "midpeak", "mid peak", "shoulder":
		return model.TOUMidPeak
	case "peak", "on_peak", "on peak":
		return model.TOUPeak
	}
	return model.TOUUnknown
}

func canonicalSource(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case model.SourcePlug:
		return model.SourcePlug
	case model.SourceApp:
		return model.SourceApp
	}
	// Unrecognized provenance defaults to the companion app.
	return model.SourceApp
}

func parseTimestamp(date, hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", date+" "+hhmm)
	if err != nil {
		return time.Time{}
	}
	return t
}
