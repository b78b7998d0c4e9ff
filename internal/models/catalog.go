package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Tags is stored as text[] on Postgres and as an array literal elsewhere.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	return pq.StringArray(t).Value()
}

func (t *Tags) Scan(src any) error {
	var a pq.StringArray
	if err := a.Scan(src); err != nil {
		return err
	}
	*t = Tags(a)
	return nil
}

func (Tags) GormDataType() string { return "text[]" }

func (Tags) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

type Product struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"     json:"id"`
	Name            string     `gorm:"not null"                 json:"name"`
	Description     string     `gorm:"not null;default:''"      json:"description"`
	Platform        string     `gorm:"index"                    json:"platform"`
	MasterProductID *uuid.UUID `gorm:"type:uuid;index"          json:"master_product_id,omitempty"`
	Tags            Tags       `                                json:"tags"`
	PriceCents      int64      `gorm:"not null;check:price_cents >= 0" json:"price_cents"`
	ProPriceCents   *int64     `                                json:"pro_price_cents,omitempty"`
	Stock           int        `gorm:"not null"                 json:"stock"`
	Active          bool       `gorm:"not null;index"           json:"active"`
	CreatedAt       time.Time  `                                json:"created_at"`
	UpdatedAt       time.Time  `                                json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PriceFor returns the member price when isPro and one is set.
func (p *Product) PriceFor(isPro bool) int64 {
	if isPro && p.ProPriceCents != nil && *p.ProPriceCents < p.PriceCents {
		return *p.ProPriceCents
	}
	return p.PriceCents
}

type NavigationItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Label     string     `gorm:"not null"             json:"label"`
	URL       string     `gorm:"not null"             json:"url"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index"      json:"parent_id,omitempty"`
	Position  int        `gorm:"not null;index"       json:"position"`
	Visible   bool       `gorm:"not null"             json:"visible"`
	CreatedAt time.Time  `                            json:"created_at"`
	UpdatedAt time.Time  `                            json:"updated_at"`
}

func (n *NavigationItem) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
