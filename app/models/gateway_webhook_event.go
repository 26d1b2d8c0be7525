package models

import "time"

// GatewayWebhookEvent stores payment-gateway webhook payloads with
// deduplication metadata for idempotent processing. The unique index on the
// provider event id makes redelivered events no-ops.
type GatewayWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;default:'';uniqueIndex" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	GatewayChargeID string     `gorm:"type:varchar(64);default:'';index" json:"gateway_charge_id"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	TokenValid      bool       `gorm:"default:false;index" json:"token_valid"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
