package models

import "time"

const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"
)

// Transaction payment methods. Only credit-card transactions with a card
// attached contribute to an invoice.
const (
	TransactionMethodDebit  = "debit"
	TransactionMethodPix    = "pix"
	TransactionMethodCredit = "credit"
	TransactionMethodBoleto = "boleto"
)

type Transaction struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	UserID   uint    `gorm:"not null;index" json:"user_id"`
	Type     string  `gorm:"type:varchar(16);not null;index" json:"type"`
	Amount   float64 `gorm:"type:decimal(10,2);not null" json:"amount"`
	Category string  `gorm:"type:varchar(100);not null;index" json:"category"`

	Date          time.Time `gorm:"not null;index" json:"date"`
	PaymentMethod string    `gorm:"type:varchar(16);default:''" json:"payment_method,omitempty"`
	CreditCardID  *uint     `gorm:"default:null;index" json:"credit_card_id,omitempty"`

	// Installment metadata for split purchases.
	InstallmentNumber  *int   `gorm:"default:null" json:"installment_number,omitempty"`
	TotalInstallments  *int   `gorm:"default:null" json:"total_installments,omitempty"`
	InstallmentGroupID string `gorm:"type:varchar(36);default:''" json:"installment_group_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CountsTowardInvoice reports whether this transaction can appear on a
// credit-card invoice at all.
func (t *Transaction) CountsTowardInvoice() bool {
	return t.PaymentMethod == TransactionMethodCredit && t.CreditCardID != nil
}
