package repository

import (
	"github.com/luispontes/ContaCerta/app/models"
	"gorm.io/gorm"
)

type creditCardRepository struct {
	db *gorm.DB
}

// NewCreditCardRepository creates a credit card repository instance
func NewCreditCardRepository(db *gorm.DB) CreditCardRepository {
	return &creditCardRepository{db: db}
}

func (r *creditCardRepository) GetByID(id uint) (*models.CreditCard, error) {
	var card models.CreditCard
	err := r.db.First(&card, id).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *creditCardRepository) GetByUserID(userID uint) ([]models.CreditCard, error) {
	var cards []models.CreditCard
	err := r.db.Where("user_id = ?", userID).Order("name ASC").Find(&cards).Error
	return cards, err
}
