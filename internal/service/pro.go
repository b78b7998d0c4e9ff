package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/utidosgames/storefront/internal/models"
	"github.com/utidosgames/storefront/internal/repo"
	"github.com/utidosgames/storefront/internal/transport"
	"github.com/utidosgames/storefront/pkg/events"
	"github.com/utidosgames/storefront/pkg/logging"
)

var proPlans = map[string]time.Duration{
	models.ProPlanMonthly: 30 * 24 * time.Hour,
	models.ProPlanAnnual:  365 * 24 * time.Hour,
}

type ProService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	now    func() time.Time
}

func NewProService(r *repo.GormRepo, pub events.Publisher) *ProService {
	return &ProService{Repo: r, Events: pub, now: time.Now}
}

func (s *ProService) Status(ctx context.Context, userID uuid.UUID) (*transport.ProStatusResponse, error) {
	sub, err := s.Repo.GetProSubscription(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &transport.ProStatusResponse{}, nil
	}
	if err != nil {
		return nil, err
	}
	exp := sub.ExpiresAt
	return &transport.ProStatusResponse{
		Active:    sub.ActiveAt(s.now()),
		Plan:      sub.Plan,
		Status:    sub.Status,
		ExpiresAt: &exp,
	}, nil
}

func (s *ProService) IsActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	sub, err := s.Repo.GetProSubscription(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sub.ActiveAt(s.now()), nil
}

// Grant starts or extends a subscription on plan.
func (s *ProService) Grant(ctx context.Context, adminID, userID uuid.UUID, plan string) (*models.ProSubscription, error) {
	length, ok := proPlans[plan]
	if !ok {
		return nil, fmt.Errorf("unknown plan %q: %w", plan, ErrValidation)
	}
	sub, err := s.Repo.GrantPro(ctx, userID, plan, length, s.now().UTC())
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("pro_granted", "user_id", userID, "admin_id", adminID, "plan", plan, "expires_at", sub.ExpiresAt)

	publish(ctx, s.Events, events.TopicPro, userID.String(), map[string]any{
		"type":       "pro_granted",
		"user_id":    userID,
		"plan":       plan,
		"expires_at": sub.ExpiresAt,
	})
	return sub, nil
}

func (s *ProService) Revoke(ctx context.Context, adminID, userID uuid.UUID) error {
	if err := s.Repo.RevokePro(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no active subscription for %s: %w", userID, ErrNotFound)
		}
		return err
	}
	logging.FromContext(ctx).Info("pro_revoked", "user_id", userID, "admin_id", adminID)
	publish(ctx, s.Events, events.TopicPro, userID.String(), map[string]any{
		"type":    "pro_revoked",
		"user_id": userID,
	})
	return nil
}

// ExpireDue marks lapsed subscriptions as expired.
func (s *ProService) ExpireDue(ctx context.Context) error {
	n, err := s.Repo.ExpirePro(ctx, s.now().UTC())
	if err != nil {
		return fmt.Errorf("expire pro: %w", err)
	}
	if n > 0 {
		logging.FromContext(ctx).Info("pro_expired", "count", n)
	}
	return nil
}
