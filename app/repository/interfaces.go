package repository

import (
	"time"

	"github.com/luispontes/ContaCerta/app/models"
)

// RegistrationRepository is the durable store for pending registrations.
// Mutations are narrow and idempotent: marking an already-paid row paid is a
// no-op, and artifact updates are permitted only before payment.
type RegistrationRepository interface {
	Create(reg *models.PendingRegistration) error
	GetByID(id uint) (*models.PendingRegistration, error)
	GetByPublicID(publicID string) (*models.PendingRegistration, error)
	GetByGatewayChargeID(chargeID string) (*models.PendingRegistration, error)
	// GetActiveByEmail finds the most recent non-expired registration for an
	// email, pending or paid. Used by the pending-payment recovery flow.
	GetActiveByEmail(email string, now time.Time) (*models.PendingRegistration, error)
	AttachGatewayCustomer(id uint, customerID string) error
	ClearGatewayCustomer(id uint) error
	AttachCharge(id uint, chargeID, method, invoiceURL string) error
	AttachPixArtifacts(id uint, pixCode, pixQrImage string) error
	AttachBoletoURL(id uint, boletoURL string) error
	AttachAddress(id uint, addr models.Address) error
	MarkPaid(id uint, paidAt time.Time) error
	// SweepExpired deletes pending rows whose validity window elapsed and
	// returns how many were removed.
	SweepExpired(now time.Time) (int64, error)
}

// PlanRepository reads plan reference data.
type PlanRepository interface {
	GetByID(id uint) (*models.Plan, error)
	GetActive() ([]models.Plan, error)
}

// UserRepository defines the user-related database operations the signup and
// auth flows need.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
}

// SubscriptionRepository stores one subscription row per user.
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByUserID(userID uint) (*models.Subscription, error)
	Update(sub *models.Subscription) error
	// ListAll returns every subscription row; the admin dashboard classifies
	// them with the same evaluator the paywall uses so the counts agree.
	ListAll() ([]models.Subscription, error)
	// ListExpiringTrials finds trials ending inside the window that have not
	// been warned yet.
	ListExpiringTrials(now time.Time, window time.Duration) ([]models.Subscription, error)
	MarkTrialNoticeSent(id uint, at time.Time) error
}

// CreditCardRepository reads a user's cards for invoice aggregation.
type CreditCardRepository interface {
	GetByID(id uint) (*models.CreditCard, error)
	GetByUserID(userID uint) ([]models.CreditCard, error)
}

// TransactionRepository reads transactions for invoice aggregation. Full
// transaction CRUD lives behind the regular data-access layer, not here.
type TransactionRepository interface {
	GetByCreditCard(userID, cardID uint, from, to time.Time) ([]models.Transaction, error)
}

// WebhookEventRepository persists gateway webhook deliveries idempotently.
type WebhookEventRepository interface {
	CreateIfNotExists(event *models.GatewayWebhookEvent) (bool, *models.GatewayWebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}
