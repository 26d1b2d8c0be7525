package billing

import (
	"time"

	"github.com/luispontes/ContaCerta/app/models"
)

// SubscriptionState is the user-facing classification of a subscription.
// The paywall screen and the admin dashboard both consume it, so the
// thresholds live here and nowhere else.
type SubscriptionState string

const (
	StateNone          SubscriptionState = "none"
	StateTrialActive   SubscriptionState = "trial_active"
	StateTrialExpiring SubscriptionState = "trial_expiring"
	StateTrialExpired  SubscriptionState = "trial_expired"
	StatePaidActive    SubscriptionState = "paid_active"
	StatePaidExpired   SubscriptionState = "paid_expired"
	StateExpired       SubscriptionState = "expired"
)

// trialExpiringWindowDays is the "expiring soon" threshold shared by the
// paywall and the admin aggregate counts.
const trialExpiringWindowDays = 3

// Classification pairs a state with the whole days remaining in it.
type Classification struct {
	State         SubscriptionState `json:"state"`
	DaysRemaining int               `json:"days_remaining"`
}

// Classify computes the user-facing state of a subscription at a given
// instant. It is pure: no I/O, no clock reads.
func Classify(sub *models.Subscription, now time.Time) Classification {
	if sub == nil {
		return Classification{State: StateNone, DaysRemaining: 0}
	}

	if sub.IsTrial && sub.TrialEndsAt != nil {
		days := ceilDays(sub.TrialEndsAt.Sub(now))
		switch {
		case days <= 0:
			return Classification{State: StateTrialExpired, DaysRemaining: 0}
		case days <= trialExpiringWindowDays:
			return Classification{State: StateTrialExpiring, DaysRemaining: days}
		default:
			return Classification{State: StateTrialActive, DaysRemaining: days}
		}
	}

	if sub.Status == models.SubscriptionStatusActive && !sub.IsTrial {
		days := ceilDays(sub.CurrentPeriodEnd.Sub(now))
		if days > 0 {
			return Classification{State: StatePaidActive, DaysRemaining: days}
		}
		return Classification{State: StatePaidExpired, DaysRemaining: 0}
	}

	return Classification{State: StateExpired, DaysRemaining: 0}
}

func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	const day = 24 * time.Hour
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	return days
}
