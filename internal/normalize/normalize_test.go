package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powerpulse-backend/internal/model"
)

func TestResolveHeaderAliases(t *testing.T) {
	header := []string{
		"Home ID", "Date", "Time", "Appliance Type",
		"Energy Consumption (kWh)", "Tariff (USD/kWh)",
		"Outdoor Temperature (Â°C)", "Indoor Temperature (C)",
	}

	cols := ResolveHeader(header)

	assert.Equal(t, 0, cols[FieldHomeID])
	assert.Equal(t, 3, cols[FieldAppliance])
	assert.Equal(t, 4, cols[FieldKWh])
	assert.Equal(t, 5, cols[FieldTariff])
	assert.Equal(t, 6, cols[FieldOutdoorTemp])
	assert.Equal(t, 7, cols[FieldIndoorTemp])
	_, ok := cols[FieldTOUPeriod]
	assert.False(t, ok)
}

func TestRowCanonicalizes(t *testing.T) {
	r := Row(map[string]string{
		FieldHomeID:      " 3 ",
		FieldDate:        "1/5/24",
		FieldTime:        "06:30",
		FieldAppliance:   "  Dishwasher ",
		FieldKWh:         "1.25",
		FieldTariff:      "0.12",
		FieldTOUPeriod:   "Off-Peak",
		FieldOutdoorTemp: "28.4",
		FieldIndoorTemp:  "22.1",
		FieldSource:      "PLUG",
		FieldOnline:      "TRUE",
	})

	assert.Equal(t, int64(3), r.HomeID)
	assert.Equal(t, "2024-01-05", r.Date)
	assert.Equal(t, "Dishwasher", r.Appliance)
	assert.InDelta(t, 1.25, r.KWh, 1e-9)
	assert.Equal(t, model.TOUOffPeak, r.TOUPeriod)
	assert.Equal(t, model.SourcePlug, r.Source)
	require.NotNil(t, r.Online)
	assert.True(t, *r.Online)
	assert.Equal(t, 6, r.Hour())
	assert.False(t, r.Timestamp.IsZero())
}

func TestRowDegradesMalformedFields(t *testing.T) {
	r := Row(map[string]string{
		FieldHomeID:      "1",
		FieldDate:        "not-a-date",
		FieldTime:        "??",
		FieldKWh:         "n/a",
		FieldTariff:      "-0.5",
		FieldTOUPeriod:   "whatever",
		FieldOutdoorTemp: "",
		FieldSource:      "satellite",
		FieldOnline:      "maybe",
	})

	assert.Equal(t, int64(1), r.HomeID)
	assert.Zero(t, r.KWh)
	assert.Zero(t, r.TariffUSDPerKWh) // negative tariff clamps to 0
	assert.Equal(t, model.TOUUnknown, r.TOUPeriod)
	assert.Zero(t, r.OutdoorTempC)
	assert.Equal(t, model.SourceApp, r.Source)
	assert.Nil(t, r.Online)
	assert.True(t, r.Timestamp.IsZero())
}

func TestRowIndependence(t *testing.T) {
	// A malformed row must not affect how a following well-formed row parses.
	bad := Row(map[string]string{FieldKWh: "garbage"})
	good := Row(map[string]string{FieldHomeID: "2", FieldKWh: "0.8"})

	assert.Zero(t, bad.KWh)
	assert.InDelta(t, 0.8, good.KWh, 1e-9)
}

func TestRowFromRecordShortRecord(t *testing.T) {
	cols := ResolveHeader([]string{"Home ID", "Date", "Time", "kwh"})
	r := RowFromRecord(cols, []string{"7", "2024-03-01"})

	assert.Equal(t, int64(7), r.HomeID)
	assert.Equal(t, "2024-03-01", r.Date)
	assert.Zero(t, r.KWh)
}
