package repository

import (
	"time"

	"github.com/luispontes/ContaCerta/app/models"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *subscriptionRepository) GetByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Preload("Plan").Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *subscriptionRepository) ListAll() ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) ListExpiringTrials(now time.Time, window time.Duration) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.
		Where("is_trial = ? AND trial_ends_at IS NOT NULL AND trial_ends_at > ? AND trial_ends_at <= ? AND trial_notice_sent_at IS NULL",
			true, now, now.Add(window)).
		Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) MarkTrialNoticeSent(id uint, at time.Time) error {
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).
		Update("trial_notice_sent_at", at).Error
}
