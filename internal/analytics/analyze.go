package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"powerpulse-backend/internal/model"
)

// Hourly consumption baselines by home size.
var homeBaselines = map[string]float64{
	"small":  0.7,
	"medium": 1.2,
	"large":  1.8,
}

const (
	analysisHorizonHours = 12

	// Temperature-linear projection: each 10 degrees C above the reference
	// adds one baseline-relative kWh to the predicted hour.
	tempRefC    = 22.0
	tempSlope   = 1.0
	minPredKWh  = 0.1
	minBaseline = 0.1

	// A predicted hour at least 20 percent above baseline is a spike.
	spikeThreshold = 0.20

	// Savings model: HVAC is ~70 percent of the load and each degree F of
	// thermostat relief trims 3 percent of it; shifting an appliance moves
	// one full cycle out of the peak window.
	hvacShare         = 0.7
	perDegreeFSavings = 0.03
	thermostatDeltaF  = 2.0
	applianceCycleKWh = 1.0
)

// Analyze projects the next 12 hours of consumption for a home and
// classifies each hour as SPIKE, PEAK, or NORMAL with a savings estimate.
// The projection is deterministic over the stored readings: each future
// hour's temperature is the historical average outdoor temperature for that
// hour of day, defaulting to the reference when no history exists.
func (s *Service) Analyze(ctx context.Context, homeID int64, homeSize string) (Analysis, error) {
	readings, err := s.source.Readings(ctx, homeID)
	if err != nil {
		return Analysis{}, err
	}

	base := baselineKWh(homeSize)
	temps := hourlyTempAverages(readings)
	start := s.now().Truncate(time.Hour)

	series := make([]AnalysisPoint, 0, analysisHorizonHours)
	events := make([]AnalysisEvent, 0, analysisHorizonHours)
	var todayKWh, potentialKWh float64

	for i := 1; i <= analysisHorizonHours; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		temp := tempRefC
		if t := temps[at.Hour()]; t != nil {
			temp = *t
		}
		pred := predictKWh(base, temp)
		todayKWh += pred

		series = append(series, AnalysisPoint{
			TS:           at.Format(time.RFC3339),
			PredictedKWh: pred,
			BaselineKWh:  round3(base),
		})

		event := s.classifyHour(at, pred, base)
		if event.Type != EventNormal {
			potentialKWh += event.Savings.KWh
		}
		events = append(events, event)
	}

	return Analysis{
		HorizonMinutes: analysisHorizonHours * 60,
		Series:         series,
		Events:         events,
		Summary: AnalysisSummary{
			TodayKWh:            round2(todayKWh),
			PotentialSavingsKWh: round2(potentialKWh),
		},
	}, nil
}

// classifyHour turns one projected hour into an event. A spike outranks the
// peak window; the tariff of the hour itself prices the savings.
func (s *Service) classifyHour(at time.Time, pred, base float64) AnalysisEvent {
	peak := at.Hour() >= s.tariff.PeakStartHour && at.Hour() < s.tariff.PeakEndHour
	rate := s.tariff.OffPeakUSDPerKWh
	if peak {
		rate = s.tariff.PeakUSDPerKWh
	}

	dev := (pred - base) / math.Max(minBaseline, base)
	switch {
	case dev >= spikeThreshold:
		saved := round3(pred * hvacShare * perDegreeFSavings * thermostatDeltaF)
		return AnalysisEvent{
			Type:       EventSpike,
			At:         at.Format(time.RFC3339),
			Suggestion: SuggestionRaiseThermostat,
			Savings:    s.savings(saved, rate),
			Reason:     fmt.Sprintf("Predicted usage %d%% above baseline", int(dev*100)),
		}
	case peak:
		return AnalysisEvent{
			Type:       EventPeak,
			At:         at.Format(time.RFC3339),
			Suggestion: SuggestionShiftAppliance,
			Savings:    s.savings(applianceCycleKWh, s.tariff.PeakUSDPerKWh),
			Reason:     "Peak tariff window",
		}
	default:
		return AnalysisEvent{
			Type:       EventNormal,
			At:         at.Format(time.RFC3339),
			Suggestion: SuggestionNone,
			Reason:     "Within expected range",
		}
	}
}

func (s *Service) savings(kwh, usdPerKWh float64) Savings {
	return Savings{
		KWh:      kwh,
		CO2Grams: int(math.Round(kwh * s.emissionKgPerKW * 1000)),
		CostUSD:  round2(kwh * usdPerKWh),
	}
}

func baselineKWh(size string) float64 {
	if base, ok := homeBaselines[size]; ok {
		return base
	}
	return homeBaselines["medium"]
}

func predictKWh(base, tempC float64) float64 {
	pred := round3(base + tempSlope*(tempC-tempRefC)/10.0)
	return math.Max(minPredKWh, pred)
}

// hourlyTempAverages averages the outdoor temperature per hour of day over
// the whole reading history. Hours never observed stay nil.
func hourlyTempAverages(readings []model.Reading) [24]*float64 {
	var sums [24]float64
	var counts [24]int
	for _, r := range readings {
		h := r.Hour()
		sums[h] += r.OutdoorTempC
		counts[h]++
	}

	var avgs [24]*float64
	for h := range avgs {
		if counts[h] > 0 {
			avg := sums[h] / float64(counts[h])
			avgs[h] = &avg
		}
	}
	return avgs
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
