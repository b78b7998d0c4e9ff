package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/utidosgames/storefront/internal/models"
)

func (r *GormRepo) GetWallet(ctx context.Context, userID uuid.UUID) (*models.CoinWallet, error) {
	var w models.CoinWallet
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.CoinWallet{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func lockWallet(tx *gorm.DB, userID uuid.UUID) (*models.CoinWallet, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.CoinWallet{UserID: userID}).Error; err != nil {
		return nil, err
	}
	var w models.CoinWallet
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func writeCoins(tx *gorm.DB, w *models.CoinWallet, entry *models.CoinTransaction, updates map[string]any) error {
	balance := w.Balance + entry.Amount
	if balance < 0 {
		return ErrInsufficientBalance
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["balance"] = balance
	if err := tx.Model(&models.CoinWallet{}).Where("user_id = ?", w.UserID).Updates(updates).Error; err != nil {
		return err
	}
	w.Balance = balance
	entry.UserID = w.UserID
	entry.BalanceAfter = balance
	return tx.Create(entry).Error
}

// ApplyCoins adds entry.Amount (negative to spend) to the user's wallet and
// records entry. The balance never drops below zero.
func (r *GormRepo) ApplyCoins(ctx context.Context, userID uuid.UUID, entry *models.CoinTransaction) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := lockWallet(tx, userID)
		if err != nil {
			return err
		}
		return writeCoins(tx, w, entry, nil)
	})
}

// ClaimDailyBonus credits entry once per day key.
func (r *GormRepo) ClaimDailyBonus(ctx context.Context, userID uuid.UUID, day string, entry *models.CoinTransaction) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := lockWallet(tx, userID)
		if err != nil {
			return err
		}
		if w.LastBonusDay == day {
			return ErrAlreadyClaimed
		}
		return writeCoins(tx, w, entry, map[string]any{"last_bonus_day": day})
	})
}

func (r *GormRepo) ListCoinTransactions(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.CoinTransaction, error) {
	q := r.DB.WithContext(ctx).Model(&models.CoinTransaction{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.CoinTransaction
	if err := q.Order("created_at DESC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}
