package billing

import (
	"testing"
	"time"

	"github.com/luispontes/ContaCerta/app/models"
)

func TestClassify_NoSubscription(t *testing.T) {
	got := Classify(nil, time.Now())
	if got.State != StateNone || got.DaysRemaining != 0 {
		t.Fatalf("Classify(nil) = %+v, want none/0", got)
	}
}

func TestClassify_TrialStates(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		endsIn   time.Duration
		want     SubscriptionState
		wantDays int
	}{
		{name: "well inside the trial", endsIn: 10 * 24 * time.Hour, want: StateTrialActive, wantDays: 10},
		{name: "just over the warning window", endsIn: 3*24*time.Hour + time.Hour, want: StateTrialActive, wantDays: 4},
		{name: "exactly three days left", endsIn: 3 * 24 * time.Hour, want: StateTrialExpiring, wantDays: 3},
		{name: "one hour left still counts as a day", endsIn: time.Hour, want: StateTrialExpiring, wantDays: 1},
		{name: "expired this instant", endsIn: 0, want: StateTrialExpired, wantDays: 0},
		{name: "expired yesterday", endsIn: -24 * time.Hour, want: StateTrialExpired, wantDays: 0},
	}

	for _, tt := range tests {
		end := now.Add(tt.endsIn)
		sub := &models.Subscription{
			Status:      models.SubscriptionStatusActive,
			IsTrial:     true,
			TrialEndsAt: &end,
		}
		got := Classify(sub, now)
		if got.State != tt.want || got.DaysRemaining != tt.wantDays {
			t.Fatalf("%s: Classify = %+v, want %s/%d", tt.name, got, tt.want, tt.wantDays)
		}
	}
}

func TestClassify_PaidStates(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

	active := &models.Subscription{
		Status:           models.SubscriptionStatusActive,
		CurrentPeriodEnd: now.Add(20 * 24 * time.Hour),
	}
	if got := Classify(active, now); got.State != StatePaidActive || got.DaysRemaining != 20 {
		t.Fatalf("active paid: Classify = %+v", got)
	}

	lapsed := &models.Subscription{
		Status:           models.SubscriptionStatusActive,
		CurrentPeriodEnd: now.Add(-time.Hour),
	}
	if got := Classify(lapsed, now); got.State != StatePaidExpired {
		t.Fatalf("lapsed paid: Classify = %+v, want paid_expired", got)
	}
}

func TestClassify_NonActiveStatuses(t *testing.T) {
	now := time.Now()
	for _, status := range []string{
		models.SubscriptionStatusOverdue,
		models.SubscriptionStatusCancelled,
		models.SubscriptionStatusExpired,
	} {
		sub := &models.Subscription{Status: status, CurrentPeriodEnd: now.Add(time.Hour)}
		if got := Classify(sub, now); got.State != StateExpired {
			t.Fatalf("status %s: Classify = %+v, want expired", status, got)
		}
	}
}

func TestClassify_TrialFlagWithoutEndFallsThrough(t *testing.T) {
	// IsTrial without TrialEndsAt is a data bug; it must not panic and must
	// not report an active trial.
	now := time.Now()
	sub := &models.Subscription{
		Status:           models.SubscriptionStatusActive,
		IsTrial:          true,
		CurrentPeriodEnd: now.Add(time.Hour),
	}
	if got := Classify(sub, now); got.State == StateTrialActive {
		t.Fatalf("trial without end date must not be trial_active, got %+v", got)
	}
}

func TestCeilDays(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{in: 0, want: 0},
		{in: -time.Hour, want: 0},
		{in: time.Second, want: 1},
		{in: 24 * time.Hour, want: 1},
		{in: 24*time.Hour + time.Second, want: 2},
		{in: 72 * time.Hour, want: 3},
	}
	for _, tt := range tests {
		if got := ceilDays(tt.in); got != tt.want {
			t.Fatalf("ceilDays(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
