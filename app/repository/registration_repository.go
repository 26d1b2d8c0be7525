package repository

import (
	"errors"
	"time"

	"github.com/luispontes/ContaCerta/app/models"
	"gorm.io/gorm"
)

// ErrDuplicateActiveRegistration is returned when a non-expired registration
// already exists for the applicant's email. The user should recover the
// pending payment instead of signing up again.
var ErrDuplicateActiveRegistration = errors.New("an active registration already exists for this email")

// ErrPlanInactive is returned when the referenced plan is disabled.
var ErrPlanInactive = errors.New("the selected plan is not active")

// registrationRepository implements RegistrationRepository on GORM.
type registrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository creates a registration repository instance
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

// Create inserts a registration after enforcing the one-active-per-email
// invariant and the active-plan requirement.
func (r *registrationRepository) Create(reg *models.PendingRegistration) error {
	var plan models.Plan
	if err := r.db.First(&plan, reg.PlanID).Error; err != nil {
		return err
	}
	if !plan.IsActive {
		return ErrPlanInactive
	}

	now := time.Now()
	var count int64
	err := r.db.Model(&models.PendingRegistration{}).
		Where("email = ? AND (status = ? OR (status = ? AND expires_at > ?))",
			models.NormalizeEmail(reg.Email), models.RegistrationStatusPaid, models.RegistrationStatusPending, now).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateActiveRegistration
	}

	reg.Email = models.NormalizeEmail(reg.Email)
	return r.db.Create(reg).Error
}

func (r *registrationRepository) GetByID(id uint) (*models.PendingRegistration, error) {
	var reg models.PendingRegistration
	err := r.db.Preload("Plan").First(&reg, id).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) GetByPublicID(publicID string) (*models.PendingRegistration, error) {
	var reg models.PendingRegistration
	err := r.db.Preload("Plan").Where("public_id = ?", publicID).First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) GetByGatewayChargeID(chargeID string) (*models.PendingRegistration, error) {
	var reg models.PendingRegistration
	err := r.db.Preload("Plan").Where("gateway_charge_id = ?", chargeID).First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) GetActiveByEmail(email string, now time.Time) (*models.PendingRegistration, error) {
	var reg models.PendingRegistration
	err := r.db.Preload("Plan").
		Where("email = ? AND (status = ? OR (status = ? AND expires_at > ?))",
			models.NormalizeEmail(email), models.RegistrationStatusPaid, models.RegistrationStatusPending, now).
		Order("created_at DESC").
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) AttachGatewayCustomer(id uint, customerID string) error {
	return r.updatePendingOrPaid(id, map[string]interface{}{
		"gateway_customer_id": customerID,
	})
}

func (r *registrationRepository) ClearGatewayCustomer(id uint) error {
	return r.updatePendingOrPaid(id, map[string]interface{}{
		"gateway_customer_id": "",
	})
}

func (r *registrationRepository) AttachCharge(id uint, chargeID, method, invoiceURL string) error {
	return r.updatePrePayment(id, map[string]interface{}{
		"gateway_charge_id": chargeID,
		"payment_method":    method,
		"invoice_url":       invoiceURL,
	})
}

func (r *registrationRepository) AttachPixArtifacts(id uint, pixCode, pixQrImage string) error {
	return r.updatePrePayment(id, map[string]interface{}{
		"pix_code":     pixCode,
		"pix_qr_image": pixQrImage,
	})
}

func (r *registrationRepository) AttachBoletoURL(id uint, boletoURL string) error {
	return r.updatePrePayment(id, map[string]interface{}{
		"boleto_url": boletoURL,
	})
}

func (r *registrationRepository) AttachAddress(id uint, addr models.Address) error {
	return r.updatePendingOrPaid(id, map[string]interface{}{
		"address_postal_code":  addr.PostalCode,
		"address_street":       addr.Street,
		"address_number":       addr.Number,
		"address_complement":   addr.Complement,
		"address_neighborhood": addr.Neighborhood,
		"address_city":         addr.City,
		"address_state":        addr.State,
	})
}

// MarkPaid is the single authoritative pending->paid transition. A second
// call finds no pending row and is a no-op, which keeps the racing
// orchestrator and reconciler callers safe.
func (r *registrationRepository) MarkPaid(id uint, paidAt time.Time) error {
	if err := r.mustExist(id); err != nil {
		return err
	}
	return r.db.Model(&models.PendingRegistration{}).
		Where("id = ? AND status = ?", id, models.RegistrationStatusPending).
		Updates(map[string]interface{}{
			"status":  models.RegistrationStatusPaid,
			"paid_at": paidAt,
		}).Error
}

func (r *registrationRepository) SweepExpired(now time.Time) (int64, error) {
	tx := r.db.Where("status = ? AND expires_at < ?", models.RegistrationStatusPending, now).
		Delete(&models.PendingRegistration{})
	return tx.RowsAffected, tx.Error
}

// updatePrePayment applies a mutation only while the row is still pending.
// Artifact refreshes after payment are silently ignored rather than failed.
func (r *registrationRepository) updatePrePayment(id uint, updates map[string]interface{}) error {
	if err := r.mustExist(id); err != nil {
		return err
	}
	return r.db.Model(&models.PendingRegistration{}).
		Where("id = ? AND status = ?", id, models.RegistrationStatusPending).
		Updates(updates).Error
}

// updatePendingOrPaid applies a mutation that never regresses status.
func (r *registrationRepository) updatePendingOrPaid(id uint, updates map[string]interface{}) error {
	if err := r.mustExist(id); err != nil {
		return err
	}
	return r.db.Model(&models.PendingRegistration{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *registrationRepository) mustExist(id uint) error {
	var count int64
	if err := r.db.Model(&models.PendingRegistration{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
