package controllers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/luispontes/ContaCerta/app/models"
	"github.com/luispontes/ContaCerta/app/repository"
	"github.com/luispontes/ContaCerta/internal/pkg/env"
	"github.com/luispontes/ContaCerta/internal/pkg/signup"
)

// Gateway events that mean money arrived. Anything else is recorded for
// audit and acknowledged without action.
var paymentConfirmedEvents = map[string]bool{
	"PAYMENT_RECEIVED":  true,
	"PAYMENT_CONFIRMED": true,
}

// WebhookController receives push notifications from the billing provider.
// Push is an optimization: confirmations funnel into the same idempotent
// reconcile path the payment-screen poll uses, so a lost webhook only delays
// confirmation until the next poll tick.
type WebhookController struct {
	Regs       repository.RegistrationRepository
	Events     repository.WebhookEventRepository
	Reconciler *signup.Reconciler
}

type gatewayWebhookPayload struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Payment struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"payment"`
}

// HandleGatewayWebhook validates the shared token, records the delivery
// idempotently and reconciles the charge it refers to.
func (wc *WebhookController) HandleGatewayWebhook(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Get("asaas-access-token"))
	secret := strings.TrimSpace(env.GetEnv("ASAAS_WEBHOOK_TOKEN", ""))
	tokenValid := secret != "" && subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
	if !tokenValid {
		return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{
			Error:   "unauthorized",
			Message: "invalid webhook token",
		})
	}

	rawBody := append([]byte(nil), c.BodyRaw()...)
	var payload gatewayWebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil || payload.Payment.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "bad_request",
			Message: "malformed webhook payload",
		})
	}

	created, stored, err := wc.Events.CreateIfNotExists(&models.GatewayWebhookEvent{
		ProviderEventID: payload.ID,
		EventType:       payload.Event,
		GatewayChargeID: payload.Payment.ID,
		PayloadJSON:     string(rawBody),
		TokenValid:      tokenValid,
	})
	if err != nil {
		return writeError(c, err)
	}
	if !created {
		// Redelivery of an event we already have.
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	if !paymentConfirmedEvents[payload.Event] {
		_ = wc.Events.MarkProcessed(stored.ID, "")
		return c.JSON(fiber.Map{"received": true})
	}

	reg, err := wc.Regs.GetByGatewayChargeID(payload.Payment.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Charge belongs to a later billing cycle of a provisioned
			// account, not to a pending registration.
			_ = wc.Events.MarkProcessed(stored.ID, "")
			return c.JSON(fiber.Map{"received": true})
		}
		return writeError(c, err)
	}

	if _, err := wc.Reconciler.CheckStatus(c.UserContext(), reg.PublicID); err != nil {
		log.Errorf("[Webhook] reconcile for charge %s failed: %v", payload.Payment.ID, err)
		_ = wc.Events.MarkProcessed(stored.ID, err.Error())
		// Acknowledge anyway: the poll path retries, and the provider should
		// not redeliver forever.
		return c.JSON(fiber.Map{"received": true})
	}

	_ = wc.Events.MarkProcessed(stored.ID, "")
	return c.JSON(fiber.Map{"received": true})
}
