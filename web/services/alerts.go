package services

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vigilo-project/vigilo/web/models"
	"gorm.io/gorm"
)

type AlertsService struct {
	db          *gorm.DB
	dedupWindow time.Duration
}

// NewAlertsService builds the alerts store. While an open alert of the
// same asset and type is younger than the dedup window, further inserts
// are suppressed; a zero window disables suppression.
func NewAlertsService(db *gorm.DB, dedupWindow time.Duration) *AlertsService {
	return &AlertsService{db: db, dedupWindow: dedupWindow}
}

func (s *AlertsService) Insert(ctx context.Context, alert *models.Alert) error {
	alert.Status = models.AlertStatusOpen
	alert.MLGenerated = true
	alert.EmailSent = false

	if s.dedupWindow > 0 {
		var count int64

		err := s.db.WithContext(ctx).
			Model(&models.Alert{}).
			Where("asset_id = ? AND type = ? AND status = ? AND created_at >= ?",
				alert.AssetID, alert.Type, models.AlertStatusOpen, time.Now().Add(-s.dedupWindow)).
			Count(&count).Error
		if err != nil {
			return err
		}

		if count > 0 {
			log.Debugf("Suppressing %s alert for asset %s, an open one already exists", alert.Type, alert.AssetID)
			return nil
		}
	}

	return s.db.WithContext(ctx).Create(alert).Error
}

func (s *AlertsService) ListByAsset(assetID string) ([]models.Alert, error) {
	var alerts []models.Alert

	err := s.db.
		Where("asset_id = ?", assetID).
		Order("created_at desc").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}

	return alerts, nil
}

func (s *AlertsService) CountMLGenerated() (int64, error) {
	var count int64

	err := s.db.
		Model(&models.Alert{}).
		Where("ml_generated = ?", true).
		Count(&count).Error

	return count, err
}
