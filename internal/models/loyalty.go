package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CoinKindEarn   = "earn"
	CoinKindSpend  = "spend"
	CoinKindBonus  = "bonus"
	CoinKindAdjust = "adjust"
)

type CoinWallet struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey"        json:"user_id"`
	Balance      int64     `gorm:"not null;check:balance >= 0" json:"balance"`
	LastBonusDay string    `gorm:"not null;default:''"         json:"last_bonus_day"`
	UpdatedAt    time.Time `                                   json:"updated_at"`
}

type CoinTransaction struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Kind         string     `gorm:"not null"                 json:"kind"`
	Amount       int64      `gorm:"not null"                 json:"amount"`
	BalanceAfter int64      `gorm:"not null"                 json:"balance_after"`
	Reason       string     `gorm:"not null;default:''"      json:"reason"`
	OrderID      *uuid.UUID `gorm:"type:uuid;index"          json:"order_id,omitempty"`
	CreatedAt    time.Time  `gorm:"index"                    json:"created_at"`
}

func (c *CoinTransaction) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

const (
	ProPlanMonthly = "monthly"
	ProPlanAnnual  = "annual"

	ProStatusActive   = "active"
	ProStatusExpired  = "expired"
	ProStatusCanceled = "canceled"
)

type ProSubscription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"           json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Plan      string    `gorm:"not null"                       json:"plan"`
	Status    string    `gorm:"not null;index"                 json:"status"`
	StartedAt time.Time `gorm:"not null"                       json:"started_at"`
	ExpiresAt time.Time `gorm:"not null;index"                 json:"expires_at"`
	UpdatedAt time.Time `                                      json:"updated_at"`
}

func (p *ProSubscription) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ActiveAt reports whether the subscription grants PRO benefits at t.
func (p *ProSubscription) ActiveAt(t time.Time) bool {
	return p != nil && p.Status == ProStatusActive && t.Before(p.ExpiresAt)
}
