package signup

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors surfaced to the HTTP layer. Validation failures are caught
// here before any gateway call is made; gateway rejections propagate as
// *gateway.Error with the provider's own message.
var (
	// ErrRegistrationNotFound means the registration id resolves to nothing;
	// the user should start signup over.
	ErrRegistrationNotFound = errors.New("registration not found")

	// ErrRegistrationExpired means the validity window elapsed before payment.
	ErrRegistrationExpired = errors.New("registration expired")

	// ErrAlreadyPaid means a charge attempt arrived for a settled registration.
	ErrAlreadyPaid = errors.New("registration is already paid")

	// ErrChargeInProgress means another charge attempt for the same
	// registration is mid-flight. The client should not retry until the
	// first attempt resolves.
	ErrChargeInProgress = errors.New("a charge for this registration is already in progress")

	// ErrMissingTaxID means no CPF/CNPJ could be resolved for a PIX charge,
	// neither from the request nor from the gateway customer record.
	ErrMissingTaxID = errors.New("a valid CPF or CNPJ is required for PIX payments")

	// ErrNotPaid guards account provisioning: reaching it indicates a
	// caller-sequencing bug, not a user error.
	ErrNotPaid = errors.New("registration is not paid")
)

// IncompleteAddressError lists the billing-address fields still missing.
// Every payment method requires a complete address before a charge.
type IncompleteAddressError struct {
	Missing []string
}

func (e *IncompleteAddressError) Error() string {
	return "incomplete billing address: missing " + strings.Join(e.Missing, ", ")
}

// IncompleteCardDataError lists the card fields still missing for a
// credit-card charge.
type IncompleteCardDataError struct {
	Missing []string
}

func (e *IncompleteCardDataError) Error() string {
	return "incomplete card data: missing " + strings.Join(e.Missing, ", ")
}

// ProvisioningError reports an account-creation failure after payment was
// confirmed. This is the highest-severity failure in the flow: it must reach
// the caller with enough detail to reconcile the charge by hand.
type ProvisioningError struct {
	RegistrationID string
	GatewayCharge  string
	Err            error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("account provisioning failed after payment (registration=%s charge=%s): %v",
		e.RegistrationID, e.GatewayCharge, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}
