package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"powerpulse-backend/internal/model"
)

// ErrUnknownHome is the only data condition that propagates to callers as a
// failure; every other absence degrades to zero values upstream.
var ErrUnknownHome = errors.New("unknown home")

// Store defines the interface for all database operations.
type Store interface {
	Homes(ctx context.Context) ([]model.Home, error)
	HomeByID(ctx context.Context, id int64) (model.Home, error)
	ReadingsForHome(ctx context.Context, homeID int64) ([]model.Reading, error)
	AllReadings(ctx context.Context) ([]model.Reading, error)
	UpsertHomes(ctx context.Context, homes []model.Home) error
	ReplaceReadings(ctx context.Context, homeID int64, readings []model.Reading) error
	SubscriptionsForHome(ctx context.Context, homeID int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Homes(ctx context.Context) ([]model.Home, error) {
	var homes []model.Home
	if err := s.db.WithContext(ctx).Order("id").Find(&homes).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch homes: %w", err)
	}
	return homes, nil
}

func (s *gormStore) HomeByID(ctx context.Context, id int64) (model.Home, error) {
	var home model.Home
	err := s.db.WithContext(ctx).First(&home, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Home{}, ErrUnknownHome
	}
	if err != nil {
		return model.Home{}, fmt.Errorf("failed to fetch home %d: %w", id, err)
	}
	return home, nil
}

func (s *gormStore) ReadingsForHome(ctx context.Context, homeID int64) ([]model.Reading, error) {
	var readings []model.Reading
	if err := s.db.WithContext(ctx).
		Where("home_id = ?", homeID).
		Order("timestamp").
		Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch readings for home %d: %w", homeID, err)
	}
	return readings, nil
}

func (s *gormStore) AllReadings(ctx context.Context) ([]model.Reading, error) {
	var readings []model.Reading
	if err := s.db.WithContext(ctx).Order("timestamp").Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch readings: %w", err)
	}
	return readings, nil
}

// UpsertHomes batch-upserts home metadata discovered in the feed.
func (s *gormStore) UpsertHomes(ctx context.Context, homes []model.Home) error {
	if len(homes) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "location", "updated_at"}),
	}).Create(&homes).Error; err != nil {
		return fmt.Errorf("batch upsert homes failed: %w", err)
	}
	return nil
}

// ReplaceReadings swaps one home's reading set in a single transaction so a
// concurrent reader sees either the previous batch or the new one.
func (s *gormStore) ReplaceReadings(ctx context.Context, homeID int64, readings []model.Reading) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("home_id = ?", homeID).Delete(&model.Reading{}).Error; err != nil {
			return fmt.Errorf("failed to clear readings for home %d: %w", homeID, err)
		}
		if len(readings) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(readings, 500).Error; err != nil {
			return fmt.Errorf("failed to insert readings for home %d: %w", homeID, err)
		}
		return nil
	})
}

func (s *gormStore) SubscriptionsForHome(ctx context.Context, homeID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("home_id = ?", homeID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for home %d: %w", homeID, err)
	}
	return subs, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", endpoint, err)
	}
	return nil
}
