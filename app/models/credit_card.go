package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// CreditCard is a user's card with its billing cycle anchors. ClosingDay and
// DueDay are calendar days 1-31; months with fewer days clip at aggregation
// time, never at storage time.
type CreditCard struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	UserID     uint     `gorm:"not null;index" json:"user_id"`
	Name       string   `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	ClosingDay int      `gorm:"not null" json:"closing_day" validate:"min=1,max=31"`
	DueDay     int      `gorm:"not null" json:"due_day" validate:"min=1,max=31"`
	Limit      *float64 `gorm:"type:decimal(10,2);default:null" json:"limit,omitempty"`
	Color      string   `gorm:"type:varchar(20);default:''" json:"color"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *CreditCard) Validate() error {
	v := validator.New()

	return v.Struct(c)
}
