package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const OrderStatusSentToWhatsApp = "sent_to_whatsapp"

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                   json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"product_id"`
	Quantity  uint      `gorm:"default:1;check:quantity>0"             json:"quantity"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

type Order struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID        uuid.UUID   `gorm:"type:uuid;index;not null" json:"user_id"`
	Status        string      `gorm:"not null"                 json:"status"`
	SubtotalCents int64       `gorm:"not null"                 json:"subtotal_cents"`
	DiscountCents int64       `gorm:"not null"                 json:"discount_cents"`
	TotalCents    int64       `gorm:"not null"                 json:"total_cents"`
	CoinsUsed     int64       `gorm:"not null"                 json:"coins_used"`
	CoinsEarned   int64       `gorm:"not null"                 json:"coins_earned"`
	ProApplied    bool        `gorm:"not null"                 json:"pro_applied"`
	WhatsAppURL   string      `gorm:"column:whatsapp_url;not null" json:"whatsapp_url"`
	Items         []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time   `                                json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID             uint      `gorm:"primaryKey"               json:"id"`
	OrderID        uuid.UUID `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null"       json:"product_id"`
	Name           string    `gorm:"not null"                 json:"name"`
	Platform       string    `                                json:"platform"`
	Quantity       uint      `gorm:"not null;check:quantity>0" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null"                 json:"unit_price_cents"`
	LineTotalCents int64     `gorm:"not null"                 json:"line_total_cents"`
}
