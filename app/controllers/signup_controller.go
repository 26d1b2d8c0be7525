package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/luispontes/ContaCerta/app/models"
	"github.com/luispontes/ContaCerta/app/repository"
	"github.com/luispontes/ContaCerta/internal/pkg/signup"
)

// SignupController exposes the registration -> payment -> provisioning flow
// to the SPA.
type SignupController struct {
	Regs         repository.RegistrationRepository
	Plans        repository.PlanRepository
	Orchestrator *signup.Orchestrator
	Reconciler   *signup.Reconciler
}

type signupRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,min=8,max=30"`
	Password string `json:"password" validate:"required,min=6"`
	PlanID   uint   `json:"plan_id" validate:"required"`
	Terms    bool   `json:"terms" validate:"required"`
}

// HandleCreate starts a signup by creating a pending registration.
func (sc *SignupController) HandleCreate(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "bad_request",
			Message: "Corpo da requisição inválido.",
		})
	}
	if err := validator.New().Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	}

	reg, err := models.NewPendingRegistration(req.Name, req.Email, req.Phone, req.Password, req.PlanID)
	if err != nil {
		return writeError(c, err)
	}
	if err := sc.Regs.Create(reg); err != nil {
		return writeError(c, err)
	}

	created, err := sc.Regs.GetByID(reg.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

type chargeRequest struct {
	Method  string           `json:"method"`
	Address models.Address   `json:"address"`
	TaxID   string           `json:"tax_id"`
	Card    *signup.CardData `json:"card"`
}

// HandleInitiateCharge creates the gateway charge for a registration.
func (sc *SignupController) HandleInitiateCharge(c *fiber.Ctx) error {
	var req chargeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "bad_request",
			Message: "Corpo da requisição inválido.",
		})
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	switch method {
	case models.PaymentMethodPix, models.PaymentMethodBoleto, models.PaymentMethodCreditCard:
	default:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{
			Error:   "invalid_method",
			Message: "Forma de pagamento inválida.",
		})
	}

	result, err := sc.Orchestrator.InitiateCharge(c.UserContext(), c.Params("id"), signup.ChargeRequest{
		Method:   method,
		Address:  req.Address,
		TaxID:    req.TaxID,
		Card:     req.Card,
		RemoteIP: c.IP(),
	})
	if err != nil {
		var provErr *signup.ProvisioningError
		if result != nil && result.Paid && errors.As(err, &provErr) {
			// The card charge settled but account creation failed. The client
			// must not retry the charge; it shows the support message instead.
			return c.JSON(fiber.Map{
				"charge":             result,
				"provisioning_error": "Seu pagamento foi confirmado, mas houve um problema ao criar sua conta. Entre em contato com o suporte.",
			})
		}
		return writeError(c, err)
	}
	return c.JSON(result)
}

// HandleCheckStatus reports whether the registration's charge is paid. The
// payment screen polls it every few seconds and an explicit "I already paid"
// button calls it on demand.
func (sc *SignupController) HandleCheckStatus(c *fiber.Ctx) error {
	paid, err := sc.Reconciler.CheckStatus(c.UserContext(), c.Params("id"))
	if err != nil && !paid {
		return writeError(c, err)
	}
	if err != nil {
		// Paid but provisioning failed: report both.
		var provErr *signup.ProvisioningError
		if errors.As(err, &provErr) {
			return c.JSON(fiber.Map{
				"is_paid":            true,
				"provisioning_error": "Seu pagamento foi confirmado, mas houve um problema ao criar sua conta. Entre em contato com o suporte.",
			})
		}
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"is_paid": paid})
}

// HandleLookupByEmail is the pending-payment recovery flow. Not finding a
// registration is a normal outcome, not an error.
func (sc *SignupController) HandleLookupByEmail(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "bad_request",
			Message: "Informe um e-mail.",
		})
	}

	now := time.Now()
	reg, err := sc.Regs.GetActiveByEmail(email, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"state": "not_found"})
		}
		return writeError(c, err)
	}

	switch {
	case reg.IsPaid():
		return c.JSON(fiber.Map{"state": "paid"})
	case reg.IsExpired(now):
		return c.JSON(fiber.Map{"state": "expired"})
	default:
		return c.JSON(fiber.Map{
			"state":        "pending",
			"registration": reg,
		})
	}
}

// HandleListPlans returns the active plans for the signup screen.
func (sc *SignupController) HandleListPlans(c *fiber.Ctx) error {
	plans, err := sc.Plans.GetActive()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(plans)
}
