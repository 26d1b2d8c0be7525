package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/luispontes/ContaCerta/app/models"
	"github.com/luispontes/ContaCerta/app/repository"
	"github.com/luispontes/ContaCerta/internal/pkg/billing"
	"github.com/luispontes/ContaCerta/internal/pkg/usercontext"
)

// InvoiceController serves per-card invoice views for a target month.
type InvoiceController struct {
	Cards        repository.CreditCardRepository
	Transactions repository.TransactionRepository
}

// HandleGetInvoice lists the transactions on a card's invoice for
// ?year=&month= and their total. Defaults to the current month.
func (ic *InvoiceController) HandleGetInvoice(c *fiber.Ctx) error {
	cardID, err := c.ParamsInt("id")
	if err != nil || cardID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "bad_request",
			Message: "ID de cartão inválido.",
		})
	}

	now := time.Now()
	year := c.QueryInt("year", now.Year())
	month := time.Month(c.QueryInt("month", int(now.Month())))
	if month < time.January || month > time.December || year < 2000 || year > 2200 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "bad_request",
			Message: "Mês ou ano inválido.",
		})
	}

	userID := usercontext.GetUserID(c)
	card, err := ic.Cards.GetByID(uint(cardID))
	if err != nil {
		return writeError(c, err)
	}
	if card.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{
			Error:   "not_found",
			Message: "Cartão não encontrado.",
		})
	}

	// Fetch a window wide enough to cover any cycle around the target month
	// and let the cycle arithmetic decide membership.
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.Local).AddDate(0, -1, 0)
	to := time.Date(year, month+1, 1, 0, 0, 0, 0, time.Local)
	txs, err := ic.Transactions.GetByCreditCard(userID, card.ID, from, to)
	if err != nil {
		return writeError(c, err)
	}

	items := make([]models.Transaction, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		if !tx.CountsTowardInvoice() {
			continue
		}
		if billing.BelongsToInvoice(tx.Date, card.ClosingDay, year, month) {
			items = append(items, *tx)
		}
	}

	return c.JSON(fiber.Map{
		"card":         card,
		"year":         year,
		"month":        int(month),
		"transactions": items,
		"total":        billing.InvoiceTotal(card, txs, year, month),
	})
}
