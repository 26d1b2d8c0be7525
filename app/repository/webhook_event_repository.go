package repository

import (
	"time"

	"github.com/luispontes/ContaCerta/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a webhook event repository instance
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// CreateIfNotExists inserts a webhook event unless one with the same
// provider event id was already recorded. Returns whether a new row was
// created along with the stored row.
func (r *webhookEventRepository) CreateIfNotExists(event *models.GatewayWebhookEvent) (bool, *models.GatewayWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.GatewayWebhookEvent
	if err := r.db.Where("provider_event_id = ?", event.ProviderEventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *webhookEventRepository) MarkProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.GatewayWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
