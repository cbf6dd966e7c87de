package analytics

import (
	"context"
	"time"
)

// Forecast produces a 7-day consumption/cost/CO2 outlook starting tomorrow.
// Each upcoming weekday is predicted as the average of historical daily
// totals for the same weekday (weekday-naive), falling back to the overall
// historical daily average, then to zeros when no history exists.
func (s *Service) Forecast(ctx context.Context, homeID int64) ([]ForecastPoint, error) {
	readings, err := s.source.Readings(ctx, homeID)
	if err != nil {
		return nil, err
	}

	type dayTotal struct {
		kwh  float64
		cost float64
	}
	byDate := make(map[string]*dayTotal)
	for _, r := range readings {
		if r.Date == "" {
			continue
		}
		d := byDate[r.Date]
		if d == nil {
			d = &dayTotal{}
			byDate[r.Date] = d
		}
		d.kwh += r.KWh
		d.cost += r.KWh * r.TariffUSDPerKWh
	}

	type weekdayAvg struct {
		kwh, cost float64
		days      int
	}
	var perWeekday [7]weekdayAvg
	var overall weekdayAvg
	for date, total := range byDate {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		wd := int(t.Weekday())
		perWeekday[wd].kwh += total.kwh
		perWeekday[wd].cost += total.cost
		perWeekday[wd].days++
		overall.kwh += total.kwh
		overall.cost += total.cost
		overall.days++
	}

	today := s.now()
	points := make([]ForecastPoint, 0, 7)
	for i := 1; i <= 7; i++ {
		day := today.AddDate(0, 0, i)
		wd := int(day.Weekday())

		var kwh, cost float64
		switch {
		case perWeekday[wd].days > 0:
			kwh = perWeekday[wd].kwh / float64(perWeekday[wd].days)
			cost = perWeekday[wd].cost / float64(perWeekday[wd].days)
		case overall.days > 0:
			kwh = overall.kwh / float64(overall.days)
			cost = overall.cost / float64(overall.days)
		}

		points = append(points, ForecastPoint{
			Date:    day.Format("2006-01-02"),
			Weekday: day.Weekday().String(),
			KWh:     kwh,
			CostUSD: cost,
			CO2Kg:   kwh * s.emissionKgPerKW,
		})
	}
	return points, nil
}

// ShapeWeatherForecast converts the collaborator's raw daily series into the
// dashboard's 7-point outlook. A nil or empty input yields an empty but
// well-formed series.
func ShapeWeatherForecast(days []DailyTemp) []WeatherForecastPoint {
	points := make([]WeatherForecastPoint, 0, len(days))
	for i, d := range days {
		if i >= 7 {
			break
		}
		points = append(points, WeatherForecastPoint{
			Date:    d.Date.Format("2006-01-02"),
			Weekday: d.Date.Weekday().String(),
			TempC:   d.TempC,
			TempF:   CToF(d.TempC),
		})
	}
	return points
}
