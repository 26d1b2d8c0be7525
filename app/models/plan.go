package models

import "time"

const (
	PlanIntervalMonth = "month"
	PlanIntervalYear  = "year"
)

// Plan is read-only reference data from the signup flow's perspective.
// Rows are seeded by migration and toggled by hand.
type Plan struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Price     float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Interval  string    `gorm:"type:varchar(16);not null;default:'month'" json:"interval"`
	IsActive  bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PeriodEnd returns the end of one billing period starting at from.
func (p *Plan) PeriodEnd(from time.Time) time.Time {
	if p.Interval == PlanIntervalYear {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}
