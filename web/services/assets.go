package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vigilo-project/vigilo/web/models"
	"gorm.io/gorm"
)

type AssetsService struct {
	db *gorm.DB
}

func NewAssetsService(db *gorm.DB) *AssetsService {
	return &AssetsService{db: db}
}

func (s *AssetsService) GetAll() ([]models.Asset, error) {
	var assets []models.Asset

	err := s.db.Order("hostname").Find(&assets).Error
	if err != nil {
		return nil, err
	}

	return assets, nil
}

// GetByID returns nil when no asset matches
func (s *AssetsService) GetByID(id string) (*models.Asset, error) {
	var asset models.Asset

	err := s.db.First(&asset, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &asset, nil
}

// ListActiveIDs returns the ids of assets still reporting, that is Active
// assets seen within the activity window, ordered by id
func (s *AssetsService) ListActiveIDs(ctx context.Context, activeWithin time.Duration) ([]string, error) {
	var ids []string

	err := s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("status = ? AND last_seen >= ?", models.AssetStatusActive, time.Now().Add(-activeWithin)).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// MarkStale flips Active assets not seen within the activity window to
// Stale and returns how many were affected
func (s *AssetsService) MarkStale(activeWithin time.Duration) (int64, error) {
	result := s.db.
		Model(&models.Asset{}).
		Where("status = ? AND last_seen < ?", models.AssetStatusActive, time.Now().Add(-activeWithin)).
		Update("status", models.AssetStatusStale)

	return result.RowsAffected, result.Error
}
