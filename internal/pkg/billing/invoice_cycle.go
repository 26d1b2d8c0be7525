package billing

import (
	"time"

	"github.com/luispontes/ContaCerta/app/models"
)

// BelongsToInvoice decides whether a credit-card transaction dated txDate
// falls on the invoice of targetYear/targetMonth for a card that closes on
// closingDay.
//
// The cycle runs from the day after closingDay of the month before the
// target month (00:00) through closingDay of the target month (23:59:59).
// When the target month is shorter than closingDay the end clips to its
// last day, so closing day 31 in February ends on Feb 28/29.
func BelongsToInvoice(txDate time.Time, closingDay int, targetYear int, targetMonth time.Month) bool {
	if closingDay < 1 || closingDay > 31 {
		return false
	}

	loc := txDate.Location()

	prevYear, prevMonth := targetYear, targetMonth-1
	if prevMonth < time.January {
		prevMonth = time.December
		prevYear--
	}

	startDay := closingDay + 1
	if last := lastDayOfMonth(prevYear, prevMonth); startDay > last {
		// Closing on or past the end of the previous month: the cycle opens
		// on the first of the target month.
		return belongsFrom(txDate, time.Date(targetYear, targetMonth, 1, 0, 0, 0, 0, loc), closingDay, targetYear, targetMonth, loc)
	}
	cycleStart := time.Date(prevYear, prevMonth, startDay, 0, 0, 0, 0, loc)
	return belongsFrom(txDate, cycleStart, closingDay, targetYear, targetMonth, loc)
}

func belongsFrom(txDate, cycleStart time.Time, closingDay, targetYear int, targetMonth time.Month, loc *time.Location) bool {
	endDay := closingDay
	if last := lastDayOfMonth(targetYear, targetMonth); endDay > last {
		endDay = last
	}
	cycleEnd := time.Date(targetYear, targetMonth, endDay, 23, 59, 59, 0, loc)

	return !txDate.Before(cycleStart) && !txDate.After(cycleEnd)
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// InvoiceTotal sums the expense transactions that fall on the given card's
// invoice for the target month. Only credit transactions attached to the
// card contribute.
func InvoiceTotal(card *models.CreditCard, txs []models.Transaction, targetYear int, targetMonth time.Month) float64 {
	var total float64
	for i := range txs {
		tx := &txs[i]
		if !tx.CountsTowardInvoice() || *tx.CreditCardID != card.ID {
			continue
		}
		if tx.Type != models.TransactionTypeExpense {
			continue
		}
		if BelongsToInvoice(tx.Date, card.ClosingDay, targetYear, targetMonth) {
			total += tx.Amount
		}
	}
	return total
}
