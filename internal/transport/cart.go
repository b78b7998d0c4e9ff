package transport

import (
	"github.com/google/uuid"

	"github.com/utidosgames/storefront/internal/models"
)

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  uint      `json:"quantity"`
}

type CheckoutRequest struct {
	UseCoins bool `json:"use_coins"`
}

type QuoteLine struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	Platform       string    `json:"platform"`
	Quantity       uint      `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
	ProPrice       bool      `json:"pro_price"`
}

type Quote struct {
	Lines         []QuoteLine `json:"lines"`
	SubtotalCents int64       `json:"subtotal_cents"`
	CoinsBalance  int64       `json:"coins_balance"`
	CoinsUsable   int64       `json:"coins_usable"`
	DiscountCents int64       `json:"discount_cents"`
	TotalCents    int64       `json:"total_cents"`
	ProApplied    bool        `json:"pro_applied"`
	Subtotal      string      `json:"subtotal"`
	Total         string      `json:"total"`
}

type CheckoutResponse struct {
	Order       models.Order `json:"order"`
	WhatsAppURL string       `json:"whatsapp_url"`
}
