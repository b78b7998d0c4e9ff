package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utidosgames/storefront/internal/coins"
	"github.com/utidosgames/storefront/internal/models"
	"github.com/utidosgames/storefront/internal/repo"
	"github.com/utidosgames/storefront/internal/transport"
	"github.com/utidosgames/storefront/internal/util"
	"github.com/utidosgames/storefront/pkg/events"
	"github.com/utidosgames/storefront/pkg/logging"
)

const bonusDayLayout = "2006-01-02"

type CoinService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	// CashbackPercent of the paid total is credited after checkout, twice
	// that for PRO members.
	CashbackPercent int
	DailyBonus      int64
	now             func() time.Time
}

func NewCoinService(r *repo.GormRepo, pub events.Publisher, cashbackPercent int, dailyBonus int64) *CoinService {
	return &CoinService{Repo: r, Events: pub, CashbackPercent: cashbackPercent, DailyBonus: dailyBonus, now: time.Now}
}

func (s *CoinService) Balance(ctx context.Context, userID uuid.UUID) (*transport.CoinBalanceResponse, error) {
	w, err := s.Repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &transport.CoinBalanceResponse{
		Balance:      w.Balance,
		Reais:        coins.CoinsToReais(w.Balance),
		Formatted:    coins.FormatReais(coins.CoinsToCents(w.Balance)),
		LastBonusDay: w.LastBonusDay,
	}, nil
}

func (s *CoinService) Transactions(ctx context.Context, userID uuid.UUID, page, size int) (*transport.CoinTransactionsResponse, error) {
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.ListCoinTransactions(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.CoinTransaction{}
	}
	return &transport.CoinTransactionsResponse{Items: items, Total: total, Page: offset/limit + 1, Size: limit}, nil
}

// ClaimDailyBonus credits the daily bonus once per UTC day.
func (s *CoinService) ClaimDailyBonus(ctx context.Context, userID uuid.UUID) (*models.CoinTransaction, error) {
	if s.DailyBonus <= 0 {
		return nil, fmt.Errorf("daily bonus disabled: %w", ErrNotFound)
	}
	day := s.now().UTC().Format(bonusDayLayout)
	entry := &models.CoinTransaction{Kind: models.CoinKindBonus, Amount: s.DailyBonus, Reason: "daily bonus " + day}

	if err := s.Repo.ClaimDailyBonus(ctx, userID, day, entry); err != nil {
		if errors.Is(err, repo.ErrAlreadyClaimed) {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}
	s.published(ctx, entry)
	return entry, nil
}

// Adjust credits or debits coins by an admin.
func (s *CoinService) Adjust(ctx context.Context, adminID, userID uuid.UUID, amount int64, reason string) (*models.CoinTransaction, error) {
	if amount == 0 {
		return nil, fmt.Errorf("amount must not be zero: %w", ErrValidation)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "admin adjustment"
	}
	entry := &models.CoinTransaction{Kind: models.CoinKindAdjust, Amount: amount, Reason: reason}
	if err := s.Repo.ApplyCoins(ctx, userID, entry); err != nil {
		if errors.Is(err, repo.ErrInsufficientBalance) {
			return nil, ErrInsufficientCoins
		}
		return nil, err
	}
	logging.FromContext(ctx).Info("coins_adjusted", "user_id", userID, "admin_id", adminID, "amount", amount, "balance", entry.BalanceAfter)
	s.published(ctx, entry)
	return entry, nil
}

// Cashback returns the coins earned for paying totalCents.
func (s *CoinService) Cashback(totalCents int64, isPro bool) int64 {
	pct := s.CashbackPercent
	if isPro {
		pct *= 2
	}
	return coins.PercentOf(totalCents, pct)
}

func (s *CoinService) published(ctx context.Context, entry *models.CoinTransaction) {
	publish(ctx, s.Events, events.TopicCoins, entry.UserID.String(), map[string]any{
		"type":          "coins_" + entry.Kind,
		"user_id":       entry.UserID,
		"amount":        entry.Amount,
		"balance_after": entry.BalanceAfter,
		"order_id":      entry.OrderID,
	})
}
