package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Registration lifecycle statuses. A registration never moves back from
// paid to pending; expired rows are removed by the sweeper.
const (
	RegistrationStatusPending = "pending"
	RegistrationStatusPaid    = "paid"
	RegistrationStatusExpired = "expired"
)

// Payment methods offered during signup.
const (
	PaymentMethodPix        = "PIX"
	PaymentMethodBoleto     = "BOLETO"
	PaymentMethodCreditCard = "CREDIT_CARD"
)

// DefaultRegistrationTTL is the validity window of a pending registration.
const DefaultRegistrationTTL = 48 * time.Hour

// PendingRegistration is a not-yet-provisioned signup awaiting payment.
// It carries the applicant profile, the chosen plan, the gateway linkage and
// the generated payment artifacts until the account is provisioned.
type PendingRegistration struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"type:varchar(36);uniqueIndex" json:"id"`

	// Applicant data captured at signup-intent time.
	Email           string    `gorm:"type:varchar(200);not null;index" json:"email"`
	Name            string    `gorm:"type:varchar(150);not null" json:"name"`
	Phone           string    `gorm:"type:varchar(30)" json:"phone"`
	PasswordHash    string    `gorm:"type:text;not null" json:"-"`
	TermsAcceptedAt time.Time `gorm:"not null" json:"terms_accepted_at"`

	PlanID uint `gorm:"not null;index" json:"plan_id"`
	Plan   Plan `gorm:"foreignKey:PlanID" json:"plan"`

	// Gateway linkage, filled in by the orchestrator.
	GatewayCustomerID     string `gorm:"type:varchar(64);default:''" json:"-"`
	GatewayChargeID       string `gorm:"type:varchar(64);default:'';index" json:"-"`
	GatewaySubscriptionID string `gorm:"type:varchar(64);default:''" json:"-"`

	// Payment artifacts shown on the payment screen.
	PaymentMethod string `gorm:"type:varchar(16);default:''" json:"payment_method,omitempty"`
	PixCode       string `gorm:"type:text" json:"pix_code,omitempty"`
	PixQrImage    string `gorm:"type:longtext" json:"pix_qr_image,omitempty"`
	BoletoURL     string `gorm:"type:varchar(500)" json:"boleto_url,omitempty"`
	InvoiceURL    string `gorm:"type:varchar(500)" json:"invoice_url,omitempty"`

	// Billing address, required before any charge can be created.
	AddressPostalCode   string `gorm:"type:varchar(16)" json:"-"`
	AddressStreet       string `gorm:"type:varchar(200)" json:"-"`
	AddressNumber       string `gorm:"type:varchar(20)" json:"-"`
	AddressComplement   string `gorm:"type:varchar(100)" json:"-"`
	AddressNeighborhood string `gorm:"type:varchar(100)" json:"-"`
	AddressCity         string `gorm:"type:varchar(100)" json:"-"`
	AddressState        string `gorm:"type:varchar(2)" json:"-"`

	Status    string     `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	PaidAt    *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewPendingRegistration creates a pending registration for an applicant.
// The password is hashed here so the registration row never stores clear text.
func NewPendingRegistration(name, email, phone, password string, planID uint) (*PendingRegistration, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &PendingRegistration{
		PublicID:        uuid.NewString(),
		Email:           NormalizeEmail(email),
		Name:            strings.TrimSpace(name),
		Phone:           strings.TrimSpace(phone),
		PasswordHash:    hash,
		TermsAcceptedAt: now,
		PlanID:          planID,
		Status:          RegistrationStatusPending,
		ExpiresAt:       now.Add(DefaultRegistrationTTL),
	}, nil
}

func (r *PendingRegistration) IsPaid() bool {
	return r.Status == RegistrationStatusPaid
}

func (r *PendingRegistration) IsExpired(now time.Time) bool {
	return r.Status == RegistrationStatusPending && now.After(r.ExpiresAt)
}

// HasAddress reports whether the billing address is fully populated.
// Complement is optional; the other six fields are required for every
// payment method before a charge can be created.
func (r *PendingRegistration) HasAddress() bool {
	return len(r.MissingAddressFields()) == 0
}

// MissingAddressFields lists the required address fields that are empty,
// using the JSON field names the signup form submits.
func (r *PendingRegistration) MissingAddressFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"postal_code", r.AddressPostalCode},
		{"street", r.AddressStreet},
		{"number", r.AddressNumber},
		{"neighborhood", r.AddressNeighborhood},
		{"city", r.AddressCity},
		{"state", r.AddressState},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Address is the structured billing address submitted with a charge request.
type Address struct {
	PostalCode   string `json:"postal_code" validate:"required"`
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required,len=2"`
}

// MissingFields lists the empty required address fields.
func (a Address) MissingFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"postal_code", a.PostalCode},
		{"street", a.Street},
		{"number", a.Number},
		{"neighborhood", a.Neighborhood},
		{"city", a.City},
		{"state", a.State},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
