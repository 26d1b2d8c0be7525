package signup

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/luispontes/ContaCerta/app/models"
	"github.com/luispontes/ContaCerta/app/repository"
)

// Notifier sends lifecycle emails. Implementations are fire-and-forget; a
// failed send never fails the surrounding operation.
type Notifier interface {
	PaymentInstructions(reg *models.PendingRegistration)
	Welcome(email, name, planName string)
	TrialExpiring(email, name string, daysRemaining int)
}

// Provisioner converts a paid registration into a real, loginable account
// exactly once. Both the orchestrator (instant card settlement) and the
// reconciler (polled PIX/boleto confirmation) call it, so it must tolerate
// being invoked twice for the same registration.
type Provisioner struct {
	regs     repository.RegistrationRepository
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	notifier Notifier
}

// NewProvisioner wires a provisioner. notifier may be nil.
func NewProvisioner(regs repository.RegistrationRepository, users repository.UserRepository, subs repository.SubscriptionRepository, notifier Notifier) *Provisioner {
	return &Provisioner{
		regs:     regs,
		users:    users,
		subs:     subs,
		notifier: notifier,
	}
}

// Provision creates the account and its initial subscription for a paid
// registration. If an account already exists for the registration's email
// the call succeeds with no side effect and returns that account.
func (p *Provisioner) Provision(ctx context.Context, registrationID uint) (*models.User, error) {
	_ = ctx

	reg, err := p.regs.GetByID(registrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	if !reg.IsPaid() {
		log.Errorf("[Signup] provision called for unpaid registration %s (status=%s)", reg.PublicID, reg.Status)
		return nil, ErrNotPaid
	}

	// Idempotency guard: the reconciler and the orchestrator may both reach
	// here for the same paid registration.
	if existing, err := p.users.GetByEmail(reg.Email); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, p.failure(reg, err)
	}

	user, err := models.NewUserFromHash(reg.Name, reg.Email, reg.Phone, reg.PasswordHash)
	if err != nil {
		return nil, p.failure(reg, err)
	}
	if err := p.users.Create(user); err != nil {
		return nil, p.failure(reg, err)
	}

	now := time.Now()
	sub := &models.Subscription{
		UserID:                user.ID,
		PlanID:                reg.PlanID,
		GatewayCustomerID:     reg.GatewayCustomerID,
		GatewaySubscriptionID: reg.GatewaySubscriptionID,
		Status:                models.SubscriptionStatusActive,
		IsTrial:               false,
		CurrentPeriodStart:    now,
		CurrentPeriodEnd:      reg.Plan.PeriodEnd(now),
	}
	if err := p.subs.Create(sub); err != nil {
		return nil, p.failure(reg, err)
	}

	if p.notifier != nil {
		p.notifier.Welcome(user.Email, user.Name, reg.Plan.Name)
	}

	log.Infof("[Signup] provisioned account %d for registration %s", user.ID, reg.PublicID)
	return user, nil
}

// failure wraps provisioning errors with the identifiers needed for manual
// reconciliation. Payment already succeeded at this point, so the error is
// logged loudly and never swallowed.
func (p *Provisioner) failure(reg *models.PendingRegistration, err error) error {
	perr := &ProvisioningError{
		RegistrationID: reg.PublicID,
		GatewayCharge:  reg.GatewayChargeID,
		Err:            err,
	}
	log.Errorf("[Signup] %v", perr)
	return perr
}
