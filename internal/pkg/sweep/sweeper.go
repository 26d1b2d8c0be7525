package sweep

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/luispontes/ContaCerta/app/repository"
	"github.com/luispontes/ContaCerta/internal/pkg/billing"
	"github.com/luispontes/ContaCerta/internal/pkg/signup"
)

// DefaultInterval is how often the maintenance pass runs.
const DefaultInterval = time.Hour

// trialNoticeWindow mirrors the paywall's "expiring soon" threshold.
const trialNoticeWindow = 3 * 24 * time.Hour

// Sweeper runs the periodic maintenance pass: deleting expired pending
// registrations and warning users whose trial is about to end. It is an
// explicit cancellable task; Start returns once the context is cancelled.
type Sweeper struct {
	regs     repository.RegistrationRepository
	subs     repository.SubscriptionRepository
	users    repository.UserRepository
	notifier signup.Notifier
	interval time.Duration
}

// NewSweeper wires a sweeper. notifier may be nil, which disables trial
// notices but keeps the expiry sweep.
func NewSweeper(regs repository.RegistrationRepository, subs repository.SubscriptionRepository, users repository.UserRepository, notifier signup.Notifier, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		regs:     regs,
		subs:     subs,
		users:    users,
		notifier: notifier,
		interval: interval,
	}
}

// Start runs maintenance passes until the context is cancelled. Pass
// failures are logged and retried on the next tick.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.Run(ctx); err != nil {
			log.Errorf("[Sweep] maintenance pass failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Run executes a single maintenance pass.
func (s *Sweeper) Run(ctx context.Context) error {
	_ = ctx
	now := time.Now()

	removed, err := s.regs.SweepExpired(now)
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Infof("[Sweep] removed %d expired pending registrations", removed)
	}

	if s.notifier == nil {
		return nil
	}
	return s.notifyExpiringTrials(now)
}

func (s *Sweeper) notifyExpiringTrials(now time.Time) error {
	subs, err := s.subs.ListExpiringTrials(now, trialNoticeWindow)
	if err != nil {
		return err
	}

	for i := range subs {
		sub := &subs[i]
		// Same evaluator as the paywall; skip anything it does not consider
		// expiring so the two surfaces never disagree.
		cls := billing.Classify(sub, now)
		if cls.State != billing.StateTrialExpiring {
			continue
		}

		user, err := s.users.GetByID(sub.UserID)
		if err != nil {
			log.Warnf("[Sweep] trial notice skipped, user %d not found: %v", sub.UserID, err)
			continue
		}

		s.notifier.TrialExpiring(user.Email, user.Name, cls.DaysRemaining)
		if err := s.subs.MarkTrialNoticeSent(sub.ID, now); err != nil {
			log.Warnf("[Sweep] failed to mark trial notice for subscription %d: %v", sub.ID, err)
		}
	}
	return nil
}
