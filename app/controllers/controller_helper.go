package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/luispontes/ContaCerta/app/repository"
	"github.com/luispontes/ContaCerta/internal/pkg/gateway"
	"github.com/luispontes/ContaCerta/internal/pkg/signup"
)

// errorResponse is the uniform error body of the JSON API.
type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// writeError maps the signup error taxonomy onto HTTP responses. Validation
// failures report the missing fields; gateway rejections pass the provider's
// message through verbatim because it is usually actionable for the user.
func writeError(c *fiber.Ctx, err error) error {
	var addrErr *signup.IncompleteAddressError
	var cardErr *signup.IncompleteCardDataError
	var provErr *signup.ProvisioningError

	switch {
	case errors.Is(err, signup.ErrRegistrationNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{
			Error:   "not_found",
			Message: "Cadastro não encontrado. Por favor, recomece a assinatura.",
		})
	case errors.Is(err, signup.ErrRegistrationExpired):
		return c.Status(fiber.StatusGone).JSON(errorResponse{
			Error:   "expired",
			Message: "Este cadastro expirou. Por favor, recomece a assinatura.",
		})
	case errors.Is(err, signup.ErrAlreadyPaid):
		return c.Status(fiber.StatusConflict).JSON(errorResponse{
			Error:   "already_paid",
			Message: "O pagamento deste cadastro já foi confirmado.",
		})
	case errors.Is(err, signup.ErrChargeInProgress):
		return c.Status(fiber.StatusConflict).JSON(errorResponse{
			Error:   "charge_in_progress",
			Message: "Já existe uma cobrança em andamento para este cadastro.",
		})
	case errors.Is(err, signup.ErrMissingTaxID):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{
			Error:   "missing_tax_id",
			Message: "Informe um CPF ou CNPJ válido para pagar com PIX.",
		})
	case errors.Is(err, repository.ErrDuplicateActiveRegistration):
		return c.Status(fiber.StatusConflict).JSON(errorResponse{
			Error:   "duplicate_registration",
			Message: "Já existe um cadastro em andamento para este e-mail. Use a recuperação de pagamento pendente.",
		})
	case errors.Is(err, repository.ErrPlanInactive):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{
			Error:   "plan_inactive",
			Message: "O plano selecionado não está mais disponível.",
		})
	case errors.As(err, &addrErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{
			Error:   "incomplete_address",
			Message: "Endereço de cobrança incompleto.",
			Fields:  addrErr.Missing,
		})
	case errors.As(err, &cardErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{
			Error:   "incomplete_card_data",
			Message: "Dados do cartão incompletos.",
			Fields:  cardErr.Missing,
		})
	case errors.As(err, &provErr):
		// Payment succeeded but the account could not be created. Never hide
		// this: the user must contact support instead of paying again.
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
			Error:   "provisioning_failed",
			Message: "Seu pagamento foi confirmado, mas houve um problema ao criar sua conta. Entre em contato com o suporte.",
		})
	}

	if ge, ok := gateway.AsError(err); ok {
		msg := ge.Message
		if msg == "" {
			msg = "O provedor de pagamento recusou a operação. Tente novamente."
		}
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{
			Error:   "gateway_error",
			Message: msg,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
		Error:   "internal",
		Message: "Ocorreu um erro inesperado. Tente novamente.",
	})
}
