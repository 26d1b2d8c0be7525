package signup

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/luispontes/ContaCerta/app/repository"
	"github.com/luispontes/ContaCerta/internal/pkg/gateway"
)

// GatewayAPI is the slice of the billing provider the signup flow uses.
// *gateway.Client satisfies it; tests substitute fakes.
type GatewayAPI interface {
	CreateCustomer(ctx context.Context, in gateway.CustomerInput) (string, error)
	GetCustomer(ctx context.Context, customerID string) (*gateway.Customer, error)
	UpdateCustomerTaxID(ctx context.Context, customerID, taxID string) error
	CreateCharge(ctx context.Context, in gateway.ChargeInput) (*gateway.Charge, error)
	GetChargeStatus(ctx context.Context, chargeID string) (string, error)
	GetPixArtifacts(ctx context.Context, chargeID string) (*gateway.PixArtifacts, error)
}

// StatusCache throttles repeated gateway status lookups for the same charge.
// The redis cache implements it; nil disables throttling.
type StatusCache interface {
	Get(key string) (string, error)
	Set(key string, value string, ttl time.Duration) error
}

// Reconciler answers "has this charge been paid yet" and triggers account
// provisioning exactly once on confirmation. Polling is the primary
// confirmation path; webhooks funnel into the same method.
type Reconciler struct {
	regs repository.RegistrationRepository
	gw   GatewayAPI
	prov *Provisioner

	// Cache throttles bursts of overlapping pollers per charge id. Optional.
	Cache    StatusCache
	CacheTTL time.Duration
}

// NewReconciler wires a reconciler without cache throttling.
func NewReconciler(regs repository.RegistrationRepository, gw GatewayAPI, prov *Provisioner) *Reconciler {
	return &Reconciler{
		regs:     regs,
		gw:       gw,
		prov:     prov,
		CacheTTL: 4 * time.Second,
	}
}

// CheckStatus reports whether the registration's charge is paid. Already-paid
// registrations short-circuit without a gateway call. On first confirmation
// it marks the registration paid and provisions the account; a provisioning
// failure is returned alongside isPaid=true so the caller can surface it
// without pretending the payment failed.
func (r *Reconciler) CheckStatus(ctx context.Context, publicID string) (bool, error) {
	reg, err := r.regs.GetByPublicID(publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrRegistrationNotFound
		}
		return false, err
	}

	// Idempotent fast path.
	if reg.IsPaid() {
		return true, nil
	}
	if reg.GatewayChargeID == "" {
		return false, nil
	}

	status, err := r.fetchStatus(ctx, reg.GatewayChargeID)
	if err != nil {
		return false, err
	}
	if !gateway.IsPaidStatus(status) {
		return false, nil
	}

	if err := r.regs.MarkPaid(reg.ID, time.Now()); err != nil {
		return false, err
	}
	log.Infof("[Signup] charge %s confirmed (%s), registration %s marked paid", reg.GatewayChargeID, status, reg.PublicID)

	if _, err := r.prov.Provision(ctx, reg.ID); err != nil {
		return true, err
	}
	return true, nil
}

func (r *Reconciler) fetchStatus(ctx context.Context, chargeID string) (string, error) {
	key := "charge_status:" + chargeID
	if r.Cache != nil {
		if cached, err := r.Cache.Get(key); err == nil && cached != "" {
			return cached, nil
		}
	}

	status, err := r.gw.GetChargeStatus(ctx, chargeID)
	if err != nil {
		return "", err
	}
	if r.Cache != nil {
		if err := r.Cache.Set(key, status, r.CacheTTL); err != nil {
			log.Warnf("[Signup] failed to cache status for charge %s: %v", chargeID, err)
		}
	}
	return status, nil
}
