package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Billing types accepted by the provider.
const (
	BillingTypePix        = "PIX"
	BillingTypeBoleto     = "BOLETO"
	BillingTypeCreditCard = "CREDIT_CARD"
)

// Charge statuses reported by the provider. RECEIVED, CONFIRMED and
// RECEIVED_IN_CASH all count as paid; CONFIRMED and RECEIVED are also the
// immediate-settlement states a credit-card charge can come back with.
const (
	ChargeStatusPending        = "PENDING"
	ChargeStatusConfirmed      = "CONFIRMED"
	ChargeStatusReceived       = "RECEIVED"
	ChargeStatusReceivedInCash = "RECEIVED_IN_CASH"
	ChargeStatusOverdue        = "OVERDUE"
	ChargeStatusRefunded       = "REFUNDED"
)

// IsPaidStatus reports whether a charge status means the money arrived.
func IsPaidStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case ChargeStatusReceived, ChargeStatusConfirmed, ChargeStatusReceivedInCash:
		return true
	default:
		return false
	}
}

// IsInstantSettlement reports whether a freshly created credit-card charge
// settled synchronously.
func IsInstantSettlement(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case ChargeStatusConfirmed, ChargeStatusReceived:
		return true
	default:
		return false
	}
}

// DueDateFor returns the charge due date for a billing type: tomorrow for
// PIX and boleto, today for cards.
func DueDateFor(billingType string, now time.Time) time.Time {
	if billingType == BillingTypeCreditCard {
		return now
	}
	return now.AddDate(0, 0, 1)
}

// CardDetails is the raw card data for CREDIT_CARD charges. It is forwarded
// to the provider and never persisted locally.
type CardDetails struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	Ccv         string `json:"ccv"`
}

// CardHolderInfo is the anti-fraud holder profile required alongside card data.
type CardHolderInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CpfCnpj       string `json:"cpfCnpj"`
	PostalCode    string `json:"postalCode"`
	AddressNumber string `json:"addressNumber,omitempty"`
	Phone         string `json:"phone"`
}

// ChargeInput describes one charge to create.
type ChargeInput struct {
	CustomerID  string
	BillingType string
	Value       float64
	DueDate     time.Time
	Description string

	// Card fields, only for BillingTypeCreditCard.
	Card       *CardDetails
	CardHolder *CardHolderInfo
	RemoteIP   string
}

// Charge is the provider's normalized charge record.
type Charge struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	InvoiceURL  string `json:"invoiceUrl"`
	BankSlipURL string `json:"bankSlipUrl"`
}

// PixArtifacts are the copy-paste code and QR image for a PIX charge.
// Either field may be empty when the provider has not generated them yet.
type PixArtifacts struct {
	Payload        string `json:"payload"`
	EncodedImage   string `json:"encodedImage"`
	ExpirationDate string `json:"expirationDate"`
}

// CreateCharge creates a charge for an existing customer and returns the
// provider's charge record. Validation rejections come back as *Error with
// the provider's own aggregated description.
func (c *Client) CreateCharge(ctx context.Context, in ChargeInput) (*Charge, error) {
	if strings.TrimSpace(in.CustomerID) == "" {
		return nil, errors.New("customer id is required")
	}
	switch in.BillingType {
	case BillingTypePix, BillingTypeBoleto, BillingTypeCreditCard:
	default:
		return nil, errors.New("unsupported billing type: " + in.BillingType)
	}
	if in.Value <= 0 {
		return nil, errors.New("charge value must be positive")
	}

	body := map[string]interface{}{
		"customer":    strings.TrimSpace(in.CustomerID),
		"billingType": in.BillingType,
		"value":       in.Value,
		"dueDate":     in.DueDate.Format("2006-01-02"),
		"description": in.Description,
	}
	if in.BillingType == BillingTypeCreditCard {
		if in.Card == nil || in.CardHolder == nil {
			return nil, errors.New("card details and holder info are required for credit card charges")
		}
		body["creditCard"] = in.Card
		body["creditCardHolderInfo"] = in.CardHolder
		if ip := strings.TrimSpace(in.RemoteIP); ip != "" {
			body["remoteIp"] = ip
		}
	}

	var out Charge
	if err := c.do(ctx, http.MethodPost, "/payments", body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, errors.New("gateway charge response missing id")
	}
	return &out, nil
}

// GetChargeStatus fetches the current status of a charge.
func (c *Client) GetChargeStatus(ctx context.Context, chargeID string) (string, error) {
	id := strings.TrimSpace(chargeID)
	if id == "" {
		return "", errors.New("charge id is required")
	}

	var out Charge
	if err := c.do(ctx, http.MethodGet, "/payments/"+id, nil, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Status) == "" {
		return "", errors.New("gateway charge response missing status")
	}
	return out.Status, nil
}

// GetPixArtifacts fetches the PIX payload and QR image for a charge. The
// primary endpoint occasionally lags behind charge creation, so the billing
// info endpoint is tried as a fallback. Both attempts are best effort and
// the result may be partially empty.
func (c *Client) GetPixArtifacts(ctx context.Context, chargeID string) (*PixArtifacts, error) {
	id := strings.TrimSpace(chargeID)
	if id == "" {
		return nil, errors.New("charge id is required")
	}

	var primary PixArtifacts
	err := c.do(ctx, http.MethodGet, "/payments/"+id+"/pixQrCode", nil, &primary)
	if err == nil && strings.TrimSpace(primary.Payload) != "" {
		return &primary, nil
	}

	var fallback struct {
		Pix PixArtifacts `json:"pix"`
	}
	if fbErr := c.do(ctx, http.MethodGet, "/payments/"+id+"/billingInfo", nil, &fallback); fbErr == nil {
		if strings.TrimSpace(fallback.Pix.Payload) != "" || strings.TrimSpace(fallback.Pix.EncodedImage) != "" {
			return &fallback.Pix, nil
		}
	}

	if err != nil {
		return nil, err
	}
	return &primary, nil
}
