package analytics

import "powerpulse-backend/internal/model"

// CostUSD reduces a reading list to its total cost. The tariff travels with
// each reading because it varies by time-of-use period; no flat rate is
// applied here.
func CostUSD(readings []model.Reading) float64 {
	var total float64
	for _, r := range readings {
		total += r.KWh * r.TariffUSDPerKWh
	}
	return total
}

// CO2Kg reduces a reading list to its total emissions using the configured
// grid emission factor (kg CO2 per kWh).
func CO2Kg(readings []model.Reading, factorKgPerKWh float64) float64 {
	var kwh float64
	for _, r := range readings {
		kwh += r.KWh
	}
	return kwh * factorKgPerKWh
}

// CToF converts Celsius to Fahrenheit.
func CToF(c float64) float64 {
	return c*9/5 + 32
}
