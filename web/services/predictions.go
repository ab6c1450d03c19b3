package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/vigilo-project/vigilo/internal/analysis"
	"github.com/vigilo-project/vigilo/web/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultPredictionsLimit = 10

type PredictionsService struct {
	db *gorm.DB
}

func NewPredictionsService(db *gorm.DB) *PredictionsService {
	return &PredictionsService{db: db}
}

// Insert stores an analysis result, stamped with the current model version
func (s *PredictionsService) Insert(ctx context.Context, assetID string, predictionType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "could not encode prediction payload")
	}

	prediction := models.Prediction{
		AssetID:        assetID,
		PredictionType: predictionType,
		ModelVersion:   analysis.ModelVersion,
		Payload:        datatypes.JSON(data),
	}

	return s.db.WithContext(ctx).Create(&prediction).Error
}

// List returns the asset's most recent predictions, newest first.
// An empty predictionType matches all types; a non-positive limit falls
// back to the default
func (s *PredictionsService) List(assetID string, predictionType string, limit int) ([]models.Prediction, error) {
	if limit <= 0 {
		limit = defaultPredictionsLimit
	}

	query := s.db.
		Where("asset_id = ?", assetID).
		Order("created_at desc").
		Limit(limit)

	if predictionType != "" {
		query = query.Where("prediction_type = ?", predictionType)
	}

	var predictions []models.Prediction
	err := query.Find(&predictions).Error
	if err != nil {
		return nil, err
	}

	return predictions, nil
}

func (s *PredictionsService) CountByType() (map[string]int64, error) {
	var rows []struct {
		PredictionType string
		Count          int64
	}

	err := s.db.
		Model(&models.Prediction{}).
		Select("prediction_type, count(*) as count").
		Group("prediction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, row := range rows {
		counts[row.PredictionType] = row.Count
	}

	return counts, nil
}

func (s *PredictionsService) CountSince(since time.Time) (int64, error) {
	var count int64

	err := s.db.
		Model(&models.Prediction{}).
		Where("created_at >= ?", since).
		Count(&count).Error

	return count, err
}
