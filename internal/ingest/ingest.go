// Package ingest periodically loads the reading feed file into the store.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"powerpulse-backend/config"
	"powerpulse-backend/internal/analytics"
	"powerpulse-backend/internal/metrics"
	"powerpulse-backend/internal/model"
	"powerpulse-backend/internal/normalize"
	"powerpulse-backend/internal/notification"
	"powerpulse-backend/internal/store"
)

// AlertDispatcher receives offline-device transitions.
type AlertDispatcher interface {
	Dispatch(alert notification.Alert)
}

// Service orchestrates the periodic reading-file ingest.
type Service struct {
	cfg        *config.Config
	store      store.Store
	snapshot   *store.SnapshotStore
	dispatcher AlertDispatcher
	logger     *zap.Logger

	now func() time.Time

	// Feed file identity of the last successful load.
	lastModTime time.Time
	lastSize    int64

	// Last observed status per home/appliance, for transition detection.
	lastStatus map[deviceKey]string
}

type deviceKey struct {
	homeID    int64
	appliance string
}

// NewService creates the ingester. snapshot and dispatcher may be nil.
func NewService(cfg *config.Config, s store.Store, snapshot *store.SnapshotStore, dispatcher AlertDispatcher, logger *zap.Logger) *Service {
	return &Service{
		cfg:        cfg,
		store:      s,
		snapshot:   snapshot,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		lastStatus: make(map[deviceKey]string),
	}
}

// Run starts the ingest loop. It loads once immediately, then on every tick.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Ingest.Enabled {
		s.logger.Info("ingester is disabled, not starting")
		return
	}
	s.logger.Info("starting ingester",
		zap.String("csv_path", s.cfg.Ingest.CSVPath),
		zap.Duration("interval", s.cfg.Ingest.Interval))

	s.LoadOnce(ctx)

	timer := time.NewTimer(s.cfg.Ingest.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ingester shutting down")
			return
		case <-timer.C:
			s.LoadOnce(ctx)
			timer.Reset(s.cfg.Ingest.Interval)
		}
	}
}

// LoadOnce performs a single ingest cycle. A parse or stat failure leaves
// the stored data untouched.
func (s *Service) LoadOnce(ctx context.Context) {
	info, err := os.Stat(s.cfg.Ingest.CSVPath)
	if err != nil {
		metrics.IngestCycles.WithLabelValues("error").Inc()
		s.logger.Error("cannot stat reading feed", zap.Error(err))
		return
	}
	if info.ModTime().Equal(s.lastModTime) && info.Size() == s.lastSize {
		metrics.IngestCycles.WithLabelValues("skipped").Inc()
		s.logger.Debug("reading feed unchanged, skipping cycle")
		return
	}

	f, err := os.Open(s.cfg.Ingest.CSVPath)
	if err != nil {
		metrics.IngestCycles.WithLabelValues("error").Inc()
		s.logger.Error("cannot open reading feed", zap.Error(err))
		return
	}
	defer f.Close()

	readings, skipped, err := ParseReadings(f)
	if err != nil {
		metrics.IngestCycles.WithLabelValues("error").Inc()
		s.logger.Error("reading feed unparseable, keeping previous data", zap.Error(err))
		return
	}
	ApplyTariffDefaults(readings, &s.cfg.Tariff)

	byHome := make(map[int64][]model.Reading)
	for _, r := range readings {
		byHome[r.HomeID] = append(byHome[r.HomeID], r)
	}

	homes := make([]model.Home, 0, len(byHome))
	for id := range byHome {
		homes = append(homes, model.Home{ID: id, Name: fmt.Sprintf("Home %d", id)})
	}
	if err := s.store.UpsertHomes(ctx, homes); err != nil {
		metrics.IngestCycles.WithLabelValues("error").Inc()
		s.logger.Error("failed to upsert homes", zap.Error(err))
		return
	}

	for id, batch := range byHome {
		if err := s.store.ReplaceReadings(ctx, id, batch); err != nil {
			metrics.IngestCycles.WithLabelValues("error").Inc()
			s.logger.Error("failed to replace readings",
				zap.Int64("home_id", id), zap.Error(err))
			return
		}
	}

	s.lastModTime = info.ModTime()
	s.lastSize = info.Size()
	if s.snapshot != nil {
		s.snapshot.Invalidate()
	}

	s.detectOfflineTransitions(byHome)

	metrics.IngestCycles.WithLabelValues("ok").Inc()
	metrics.ReadingsLoaded.Set(float64(len(readings)))
	s.logger.Info("ingest cycle finished",
		zap.Int("readings", len(readings)),
		zap.Int("skipped_rows", skipped),
		zap.Int("homes", len(byHome)))
}

// ParseReadings decodes the CSV feed into normalized readings. Only a row
// without a home id is skipped; malformed fields degrade per the normalizer.
func ParseReadings(r io.Reader) (readings []model.Reading, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read feed header: %w", err)
	}
	cols := normalize.ResolveHeader(header)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read feed row: %w", err)
		}

		reading := normalize.RowFromRecord(cols, record)
		if reading.HomeID == 0 {
			skipped++
			continue
		}
		readings = append(readings, reading)
	}
	return readings, skipped, nil
}

// ApplyTariffDefaults backfills the configured time-of-use rate onto rows
// that arrived without a tariff, and resolves an unknown TOU period from the
// reading's hour, so the per-reading cost reduction always has a rate to
// travel with.
func ApplyTariffDefaults(readings []model.Reading, tariff *config.TariffConfig) {
	for i := range readings {
		r := &readings[i]
		peak := r.Hour() >= tariff.PeakStartHour && r.Hour() < tariff.PeakEndHour
		if r.TOUPeriod == model.TOUUnknown || r.TOUPeriod == "" {
			if peak {
				r.TOUPeriod = model.TOUPeak
			} else {
				r.TOUPeriod = model.TOUOffPeak
			}
		}
		if r.TariffUSDPerKWh == 0 {
			switch r.TOUPeriod {
			case model.TOUPeak:
				r.TariffUSDPerKWh = tariff.PeakUSDPerKWh
			default:
				r.TariffUSDPerKWh = tariff.OffPeakUSDPerKWh
			}
		}
	}
}

// detectOfflineTransitions classifies every device in the new batch and
// dispatches an alert for each one that just moved to offline.
func (s *Service) detectOfflineTransitions(byHome map[int64][]model.Reading) {
	if s.dispatcher == nil {
		return
	}
	now := s.now()

	for homeID, readings := range byHome {
		latest := make(map[string]model.Reading)
		for _, r := range readings {
			if r.Appliance == "" {
				continue
			}
			cur, seen := latest[r.Appliance]
			if !seen || r.Timestamp.After(cur.Timestamp) {
				latest[r.Appliance] = r
			}
		}

		for appliance, r := range latest {
			var lastSeen *time.Time
			if !r.Timestamp.IsZero() {
				ts := r.Timestamp
				lastSeen = &ts
			}
			status := analytics.ClassifyStatus(lastSeen, r.Online, now)

			key := deviceKey{homeID: homeID, appliance: appliance}
			previous, known := s.lastStatus[key]
			s.lastStatus[key] = status

			if known && previous != analytics.StatusOffline && status == analytics.StatusOffline {
				s.logger.Info("device went offline",
					zap.Int64("home_id", homeID), zap.String("appliance", appliance))
				s.dispatcher.Dispatch(notification.Alert{HomeID: homeID, Appliance: appliance})
			}
		}
	}
}
