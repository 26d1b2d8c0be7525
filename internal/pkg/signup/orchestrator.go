package signup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/luispontes/ContaCerta/app/models"
	"github.com/luispontes/ContaCerta/app/repository"
	"github.com/luispontes/ContaCerta/internal/pkg/gateway"
)

// CardData is the card payload for CREDIT_CARD charges. It is forwarded to
// the gateway and never persisted.
type CardData struct {
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	Ccv         string `json:"ccv"`

	// Holder profile required by the provider's anti-fraud checks.
	HolderTaxID      string `json:"holder_tax_id"`
	HolderPostalCode string `json:"holder_postal_code"`
	HolderPhone      string `json:"holder_phone"`
}

// ChargeRequest is the input to InitiateCharge.
type ChargeRequest struct {
	Method   string
	Address  models.Address
	TaxID    string
	Card     *CardData
	RemoteIP string
}

// ChargeResult is what the payment screen renders after a charge is created.
type ChargeResult struct {
	ChargeID   string `json:"charge_id"`
	Method     string `json:"method"`
	Status     string `json:"status"`
	PixCode    string `json:"pix_code,omitempty"`
	PixQrImage string `json:"pix_qr_image,omitempty"`
	BoletoURL  string `json:"boleto_url,omitempty"`
	InvoiceURL string `json:"invoice_url,omitempty"`
	Paid       bool   `json:"paid"`
}

// Orchestrator drives a pending registration from "no gateway linkage" to
// "charge created, artifacts available". A per-registration in-process guard
// keeps two concurrent attempts from creating duplicate gateway charges.
type Orchestrator struct {
	regs     repository.RegistrationRepository
	gw       GatewayAPI
	prov     *Provisioner
	notifier Notifier

	inFlight sync.Map // registration public id -> struct{}
}

// NewOrchestrator wires an orchestrator. notifier may be nil.
func NewOrchestrator(regs repository.RegistrationRepository, gw GatewayAPI, prov *Provisioner, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		regs:     regs,
		gw:       gw,
		prov:     prov,
		notifier: notifier,
	}
}

// InitiateCharge validates input, ensures a gateway customer, creates the
// charge and persists the returned artifacts. Validation failures are
// resolved before any gateway call; gateway rejections propagate with the
// provider's message and nothing is partially persisted.
//
// For instant credit-card settlement the registration is marked paid and the
// account provisioned synchronously. If provisioning then fails, the result
// still reports the successful payment and the provisioning error is
// returned alongside it: payment succeeded, so the registration stays paid
// and is never re-charged.
func (o *Orchestrator) InitiateCharge(ctx context.Context, publicID string, req ChargeRequest) (*ChargeResult, error) {
	if _, loaded := o.inFlight.LoadOrStore(publicID, struct{}{}); loaded {
		return nil, ErrChargeInProgress
	}
	defer o.inFlight.Delete(publicID)

	reg, err := o.regs.GetByPublicID(publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	if reg.IsPaid() {
		return nil, ErrAlreadyPaid
	}
	if reg.IsExpired(time.Now()) {
		return nil, ErrRegistrationExpired
	}

	// Fail fast on input before spending a gateway call.
	if missing := req.Address.MissingFields(); len(missing) > 0 {
		return nil, &IncompleteAddressError{Missing: missing}
	}
	if req.Method == models.PaymentMethodCreditCard {
		if missing := missingCardFields(req.Card); len(missing) > 0 {
			return nil, &IncompleteCardDataError{Missing: missing}
		}
	}
	if err := o.regs.AttachAddress(reg.ID, req.Address); err != nil {
		return nil, err
	}

	customerID, err := o.ensureCustomer(ctx, reg, req)
	if err != nil {
		return nil, err
	}

	var taxID string
	if req.Method == models.PaymentMethodPix {
		taxID, err = o.resolveTaxID(ctx, customerID, req.TaxID)
		if err != nil {
			return nil, err
		}
		if err := o.updateTaxID(ctx, reg, &customerID, taxID, req); err != nil {
			return nil, err
		}
	}

	charge, err := o.createCharge(ctx, reg, &customerID, req)
	if err != nil {
		return nil, err
	}

	if err := o.regs.AttachCharge(reg.ID, charge.ID, req.Method, charge.InvoiceURL); err != nil {
		return nil, err
	}

	result := &ChargeResult{
		ChargeID:   charge.ID,
		Method:     req.Method,
		Status:     charge.Status,
		InvoiceURL: charge.InvoiceURL,
	}

	switch req.Method {
	case models.PaymentMethodPix:
		// Best effort: the provider sometimes lags generating PIX artifacts.
		// The payment screen re-fetches on its poll ticks.
		if pix, err := o.gw.GetPixArtifacts(ctx, charge.ID); err == nil {
			result.PixCode = pix.Payload
			result.PixQrImage = pix.EncodedImage
			if err := o.regs.AttachPixArtifacts(reg.ID, pix.Payload, pix.EncodedImage); err != nil {
				return nil, err
			}
		} else {
			log.Warnf("[Signup] PIX artifacts unavailable for charge %s: %v", charge.ID, err)
		}
	case models.PaymentMethodBoleto:
		result.BoletoURL = charge.BankSlipURL
		if err := o.regs.AttachBoletoURL(reg.ID, charge.BankSlipURL); err != nil {
			return nil, err
		}
	}

	if o.notifier != nil && req.Method != models.PaymentMethodCreditCard {
		if fresh, err := o.regs.GetByID(reg.ID); err == nil {
			o.notifier.PaymentInstructions(fresh)
		}
	}

	if req.Method == models.PaymentMethodCreditCard && gateway.IsInstantSettlement(charge.Status) {
		result.Paid = true
		if err := o.regs.MarkPaid(reg.ID, time.Now()); err != nil {
			return result, err
		}
		if _, err := o.prov.Provision(ctx, reg.ID); err != nil {
			return result, err
		}
	}

	return result, nil
}

// ensureCustomer returns the gateway customer id for a registration,
// creating one when no linkage exists yet.
func (o *Orchestrator) ensureCustomer(ctx context.Context, reg *models.PendingRegistration, req ChargeRequest) (string, error) {
	if reg.GatewayCustomerID != "" {
		return reg.GatewayCustomerID, nil
	}
	return o.createCustomer(ctx, reg, req)
}

func (o *Orchestrator) createCustomer(ctx context.Context, reg *models.PendingRegistration, req ChargeRequest) (string, error) {
	customerID, err := o.gw.CreateCustomer(ctx, gateway.CustomerInput{
		Name:          reg.Name,
		Email:         reg.Email,
		Phone:         reg.Phone,
		CpfCnpj:       digitsOnly(req.TaxID),
		PostalCode:    req.Address.PostalCode,
		AddressNumber: req.Address.Number,
	})
	if err != nil {
		return "", err
	}
	if err := o.regs.AttachGatewayCustomer(reg.ID, customerID); err != nil {
		return "", err
	}
	return customerID, nil
}

// recreateCustomer handles the one retry policy in the flow: the gateway
// reporting the linked customer as removed. The stale id is cleared and a
// fresh customer created, once.
func (o *Orchestrator) recreateCustomer(ctx context.Context, reg *models.PendingRegistration, req ChargeRequest) (string, error) {
	log.Warnf("[Signup] gateway customer %s for registration %s was removed, recreating", reg.GatewayCustomerID, reg.PublicID)
	if err := o.regs.ClearGatewayCustomer(reg.ID); err != nil {
		return "", err
	}
	reg.GatewayCustomerID = ""
	return o.createCustomer(ctx, reg, req)
}

func (o *Orchestrator) updateTaxID(ctx context.Context, reg *models.PendingRegistration, customerID *string, taxID string, req ChargeRequest) error {
	err := o.gw.UpdateCustomerTaxID(ctx, *customerID, taxID)
	if err == nil {
		return nil
	}
	if ge, ok := gateway.AsError(err); ok && ge.IsCustomerRemoved() {
		fresh, rerr := o.recreateCustomer(ctx, reg, req)
		if rerr != nil {
			return rerr
		}
		*customerID = fresh
		return o.gw.UpdateCustomerTaxID(ctx, fresh, taxID)
	}
	return err
}

func (o *Orchestrator) createCharge(ctx context.Context, reg *models.PendingRegistration, customerID *string, req ChargeRequest) (*gateway.Charge, error) {
	in := o.chargeInput(reg, *customerID, req)
	charge, err := o.gw.CreateCharge(ctx, in)
	if err == nil {
		return charge, nil
	}
	if ge, ok := gateway.AsError(err); ok && ge.IsCustomerRemoved() {
		fresh, rerr := o.recreateCustomer(ctx, reg, req)
		if rerr != nil {
			return nil, rerr
		}
		*customerID = fresh
		in.CustomerID = fresh
		return o.gw.CreateCharge(ctx, in)
	}
	return nil, err
}

func (o *Orchestrator) chargeInput(reg *models.PendingRegistration, customerID string, req ChargeRequest) gateway.ChargeInput {
	in := gateway.ChargeInput{
		CustomerID:  customerID,
		BillingType: req.Method,
		Value:       reg.Plan.Price,
		DueDate:     gateway.DueDateFor(req.Method, time.Now()),
		Description: "Assinatura " + reg.Plan.Name,
		RemoteIP:    req.RemoteIP,
	}
	if req.Method == models.PaymentMethodCreditCard && req.Card != nil {
		in.Card = &gateway.CardDetails{
			HolderName:  req.Card.HolderName,
			Number:      req.Card.Number,
			ExpiryMonth: req.Card.ExpiryMonth,
			ExpiryYear:  req.Card.ExpiryYear,
			Ccv:         req.Card.Ccv,
		}
		in.CardHolder = &gateway.CardHolderInfo{
			Name:          req.Card.HolderName,
			Email:         reg.Email,
			CpfCnpj:       digitsOnly(req.Card.HolderTaxID),
			PostalCode:    req.Card.HolderPostalCode,
			AddressNumber: req.Address.Number,
			Phone:         req.Card.HolderPhone,
		}
	}
	return in
}

// resolveTaxID prefers the tax id supplied with the request and falls back
// to the one already on the gateway customer record. Valid ids are 11 (CPF)
// or 14 (CNPJ) digits.
func (o *Orchestrator) resolveTaxID(ctx context.Context, customerID, supplied string) (string, error) {
	if doc := digitsOnly(supplied); isValidTaxID(doc) {
		return doc, nil
	}
	customer, err := o.gw.GetCustomer(ctx, customerID)
	if err != nil {
		return "", err
	}
	if doc := digitsOnly(customer.CpfCnpj); isValidTaxID(doc) {
		return doc, nil
	}
	return "", ErrMissingTaxID
}

func missingCardFields(card *CardData) []string {
	if card == nil {
		return []string{"card"}
	}
	var missing []string
	fields := []struct {
		name  string
		value string
	}{
		{"number", card.Number},
		{"holder_name", card.HolderName},
		{"expiry_month", card.ExpiryMonth},
		{"expiry_year", card.ExpiryYear},
		{"ccv", card.Ccv},
		{"holder_tax_id", card.HolderTaxID},
		{"holder_postal_code", card.HolderPostalCode},
		{"holder_phone", card.HolderPhone},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isValidTaxID(digits string) bool {
	return len(digits) == 11 || len(digits) == 14
}
