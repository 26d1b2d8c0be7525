package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/luispontes/ContaCerta/app/models"
	"github.com/luispontes/ContaCerta/app/repository"
	"github.com/luispontes/ContaCerta/internal/pkg/billing"
	"github.com/luispontes/ContaCerta/internal/pkg/usercontext"
)

// SubscriptionController serves the paywall evaluation for the logged-in
// user. The SPA calls it on startup and blocks the app shell on anything
// other than an active state.
type SubscriptionController struct {
	Subs repository.SubscriptionRepository
}

// HandleGetSubscription classifies the caller's subscription.
func (sc *SubscriptionController) HandleGetSubscription(c *fiber.Ctx) error {
	sub, err := sc.Subs.GetByUserID(usercontext.GetUserID(c))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return writeError(c, err)
	}

	classification := billing.Classify(sub, time.Now())
	resp := fiber.Map{
		"state":          classification.State,
		"days_remaining": classification.DaysRemaining,
	}
	if sub != nil {
		resp["subscription"] = sub
	}
	return c.JSON(resp)
}

// AdminController exposes the subscription dashboard and trial management.
type AdminController struct {
	Subs  repository.SubscriptionRepository
	Users repository.UserRepository
}

// HandleSubscriptionSummary aggregates all subscriptions by classified state.
// It reuses the paywall evaluator so the dashboard never disagrees with what
// users see.
func (ac *AdminController) HandleSubscriptionSummary(c *fiber.Ctx) error {
	subs, err := ac.Subs.ListAll()
	if err != nil {
		return writeError(c, err)
	}

	now := time.Now()
	counts := map[billing.SubscriptionState]int{}
	for i := range subs {
		counts[billing.Classify(&subs[i], now).State]++
	}

	return c.JSON(fiber.Map{
		"total":          len(subs),
		"trial_active":   counts[billing.StateTrialActive],
		"trial_expiring": counts[billing.StateTrialExpiring],
		"trial_expired":  counts[billing.StateTrialExpired],
		"paid_active":    counts[billing.StatePaidActive],
		"paid_expired":   counts[billing.StatePaidExpired],
		"expired":        counts[billing.StateExpired],
	})
}

type extendTrialRequest struct {
	Days int `json:"days"`
}

const defaultTrialExtensionDays = 7

// HandleExtendTrial grants or extends a trial for a user. The new trial end
// counts from now, not from the previous end, so an expired trial comes back
// with the full window.
func (ac *AdminController) HandleExtendTrial(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "bad_request",
			Message: "ID de usuário inválido.",
		})
	}

	var req extendTrialRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "bad_request",
			Message: "Corpo da requisição inválido.",
		})
	}
	days := req.Days
	if days <= 0 {
		days = defaultTrialExtensionDays
	}

	user, err := ac.Users.GetByID(uint(userID))
	if err != nil {
		return writeError(c, err)
	}

	now := time.Now()
	trialEnd := now.AddDate(0, 0, days)

	sub, err := ac.Subs.GetByUserID(user.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return writeError(c, err)
		}
		sub = &models.Subscription{
			UserID:             user.ID,
			Status:             models.SubscriptionStatusActive,
			IsTrial:            true,
			TrialEndsAt:        &trialEnd,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   trialEnd,
		}
		if err := ac.Subs.Create(sub); err != nil {
			return writeError(c, err)
		}
	} else {
		sub.Status = models.SubscriptionStatusActive
		sub.IsTrial = true
		sub.TrialEndsAt = &trialEnd
		sub.TrialNoticeSentAt = nil
		sub.CurrentPeriodEnd = trialEnd
		if err := ac.Subs.Update(sub); err != nil {
			return writeError(c, err)
		}
	}

	return c.JSON(fiber.Map{
		"subscription":   sub,
		"classification": billing.Classify(sub, now),
	})
}
