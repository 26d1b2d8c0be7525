package models

import "time"

// Subscription statuses kept by payment webhooks and reconciliation.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusOverdue   = "overdue"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Subscription is attached to a provisioned account, one row per user.
// Invariants: if IsTrial is set, TrialEndsAt must be set; CurrentPeriodEnd
// is never before CurrentPeriodStart.
type Subscription struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`
	PlanID uint `gorm:"not null;index" json:"plan_id"`
	Plan   Plan `gorm:"foreignKey:PlanID" json:"plan"`

	GatewayCustomerID     string `gorm:"type:varchar(64);default:''" json:"-"`
	GatewaySubscriptionID string `gorm:"type:varchar(64);default:'';index" json:"-"`

	Status             string     `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	IsTrial            bool       `gorm:"default:false" json:"is_trial"`
	TrialEndsAt        *time.Time `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`
	TrialNoticeSentAt  *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	CurrentPeriodStart time.Time  `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `gorm:"not null" json:"current_period_end"`
	CancelAtPeriodEnd  bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CancelledAt        *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
