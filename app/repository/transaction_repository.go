package repository

import (
	"time"

	"github.com/luispontes/ContaCerta/app/models"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// GetByCreditCard loads the credit transactions of one card inside a date
// window. The window is a superset of the invoice cycle; the calculator does
// the exact boundary work in memory.
func (r *transactionRepository) GetByCreditCard(userID, cardID uint, from, to time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.
		Where("user_id = ? AND credit_card_id = ? AND payment_method = ? AND date >= ? AND date <= ?",
			userID, cardID, models.TransactionMethodCredit, from, to).
		Order("date ASC").
		Find(&txs).Error
	return txs, err
}
