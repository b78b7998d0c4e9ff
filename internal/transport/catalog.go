package transport

import (
	"github.com/google/uuid"

	"github.com/utidosgames/storefront/internal/models"
)

type CreateProductRequest struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Platform        string     `json:"platform"`
	MasterProductID *uuid.UUID `json:"master_product_id"`
	Tags            []string   `json:"tags"`
	PriceCents      int64      `json:"price_cents"`
	ProPriceCents   *int64     `json:"pro_price_cents"`
	Stock           int        `json:"stock"`
	Active          *bool      `json:"active"`
}

type PatchProductRequest struct {
	Name            *string    `json:"name"`
	Description     *string    `json:"description"`
	Platform        *string    `json:"platform"`
	MasterProductID *uuid.UUID `json:"master_product_id"`
	Tags            *[]string  `json:"tags"`
	PriceCents      *int64     `json:"price_cents"`
	ProPriceCents   *int64     `json:"pro_price_cents"`
	Stock           *int       `json:"stock"`
	Active          *bool      `json:"active"`
}

type ProductListResponse struct {
	Items []models.Product `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

// SKUFamily is a master product with its platform variants.
type SKUFamily struct {
	Master   models.Product   `json:"master"`
	Variants []models.Product `json:"variants"`
}

type SearchHit struct {
	Product models.Product `json:"product"`
	Score   float64        `json:"score"`
	Matched []string       `json:"matched"`
}

type SearchResponse struct {
	Query string      `json:"query"`
	Items []SearchHit `json:"items"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}

type NavigationRequest struct {
	Label    string     `json:"label"`
	URL      string     `json:"url"`
	ParentID *uuid.UUID `json:"parent_id"`
	Position int        `json:"position"`
	Visible  *bool      `json:"visible"`
}

type PatchNavigationRequest struct {
	Label    *string    `json:"label"`
	URL      *string    `json:"url"`
	ParentID *uuid.UUID `json:"parent_id"`
	Position *int       `json:"position"`
	Visible  *bool      `json:"visible"`
}
