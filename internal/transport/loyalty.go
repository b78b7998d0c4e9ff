package transport

import (
	"time"

	"github.com/utidosgames/storefront/internal/models"
)

type CoinBalanceResponse struct {
	Balance      int64   `json:"balance"`
	Reais        float64 `json:"reais"`
	Formatted    string  `json:"formatted"`
	LastBonusDay string  `json:"last_bonus_day,omitempty"`
}

type CoinTransactionsResponse struct {
	Items []models.CoinTransaction `json:"items"`
	Total int64                    `json:"total"`
	Page  int                      `json:"page"`
	Size  int                      `json:"size"`
}

type AdjustCoinsRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type GrantProRequest struct {
	Plan string `json:"plan"`
}

type ProStatusResponse struct {
	Active    bool       `json:"active"`
	Plan      string     `json:"plan,omitempty"`
	Status    string     `json:"status,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
