package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles every repository implementation.
type Repositories struct {
	Registration RegistrationRepository
	Plan         PlanRepository
	User         UserRepository
	Subscription SubscriptionRepository
	CreditCard   CreditCardRepository
	Transaction  TransactionRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories wires all repositories against one DB handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Registration: NewRegistrationRepository(db),
		Plan:         NewPlanRepository(db),
		User:         NewUserRepository(db),
		Subscription: NewSubscriptionRepository(db),
		CreditCard:   NewCreditCardRepository(db),
		Transaction:  NewTransactionRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}
