package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/utidosgames/storefront/internal/models"
)

func (r *GormRepo) GetProSubscription(ctx context.Context, userID uuid.UUID) (*models.ProSubscription, error) {
	var sub models.ProSubscription
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// GrantPro starts a subscription or, when one is active at now, extends it
// from its current expiry.
func (r *GormRepo) GrantPro(ctx context.Context, userID uuid.UUID, plan string, length time.Duration, now time.Time) (*models.ProSubscription, error) {
	var sub models.ProSubscription
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&sub).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			sub = models.ProSubscription{
				UserID:    userID,
				Plan:      plan,
				Status:    models.ProStatusActive,
				StartedAt: now,
				ExpiresAt: now.Add(length),
			}
			return tx.Create(&sub).Error
		case err != nil:
			return err
		}

		if sub.ActiveAt(now) {
			sub.ExpiresAt = sub.ExpiresAt.Add(length)
		} else {
			sub.StartedAt = now
			sub.ExpiresAt = now.Add(length)
		}
		sub.Plan = plan
		sub.Status = models.ProStatusActive
		return tx.Save(&sub).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *GormRepo) RevokePro(ctx context.Context, userID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Model(&models.ProSubscription{}).
		Where("user_id = ? AND status = ?", userID, models.ProStatusActive).
		Update("status", models.ProStatusCanceled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ExpirePro marks active subscriptions past their expiry as expired.
func (r *GormRepo) ExpirePro(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.ProSubscription{}).
		Where("status = ? AND expires_at <= ?", models.ProStatusActive, now).
		Update("status", models.ProStatusExpired)
	return res.RowsAffected, res.Error
}
