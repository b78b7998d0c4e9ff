package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/utidosgames/storefront/internal/models"
	"github.com/utidosgames/storefront/internal/repo"
	"github.com/utidosgames/storefront/internal/search"
	"github.com/utidosgames/storefront/internal/transport"
	"github.com/utidosgames/storefront/internal/util"
	"github.com/utidosgames/storefront/pkg/es"
	"github.com/utidosgames/storefront/pkg/events"
	"github.com/utidosgames/storefront/pkg/logging"
)

const (
	searchCandidates = 200
	reindexBatch     = 200
)

// ProductIndex is the external full text index used to shortlist search
// candidates. *es.ProductIndex implements it.
type ProductIndex interface {
	Upsert(ctx context.Context, doc es.ProductDoc) error
	Delete(ctx context.Context, id string) error
	SearchIDs(ctx context.Context, q string, size int) ([]string, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductIndex
	Events events.Publisher
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID, includeHidden bool) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if !prod.Active && !includeHidden {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return prod, nil
}

func (s *CatalogService) GetProducts(ctx context.Context, page, size int, includeHidden bool) (*transport.ProductListResponse, error) {
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.GetProducts(ctx, offset, limit, !includeHidden)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Product{}
	}
	return &transport.ProductListResponse{Items: items, Total: total, Page: offset/limit + 1, Size: limit}, nil
}

func (s *CatalogService) SKUFamily(ctx context.Context, id uuid.UUID) (*transport.SKUFamily, error) {
	master, variants, err := s.Repo.SKUFamily(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if variants == nil {
		variants = []models.Product{}
	}
	return &transport.SKUFamily{Master: *master, Variants: variants}, nil
}

func validateProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required: %w", ErrValidation)
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	if p.ProPriceCents != nil && (*p.ProPriceCents < 0 || *p.ProPriceCents > p.PriceCents) {
		return fmt.Errorf("pro price must be between zero and the regular price: %w", ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock cannot be negative: %w", ErrValidation)
	}
	if p.MasterProductID != nil && *p.MasterProductID == p.ID {
		return fmt.Errorf("product cannot be its own master: %w", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	prod := &models.Product{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Platform:        strings.TrimSpace(req.Platform),
		MasterProductID: req.MasterProductID,
		Tags:            models.Tags(req.Tags),
		PriceCents:      req.PriceCents,
		ProPriceCents:   req.ProPriceCents,
		Stock:           req.Stock,
		Active:          true,
	}
	if req.Active != nil {
		prod.Active = *req.Active
	}
	if err := validateProduct(prod); err != nil {
		return nil, err
	}
	if err := s.checkMaster(ctx, prod.MasterProductID); err != nil {
		return nil, err
	}

	if _, err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.mirror(ctx, prod)
	publish(ctx, s.Events, events.TopicProduct, prod.ID.String(), map[string]any{
		"type":       "product_created",
		"product_id": prod.ID,
		"name":       prod.Name,
	})
	return prod, nil
}

func (s *CatalogService) checkMaster(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	master, err := s.Repo.GetProduct(ctx, *id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("master product %s: %w", *id, ErrValidation)
		}
		return err
	}
	if master.MasterProductID != nil {
		return fmt.Errorf("master product %s is itself a variant: %w", *id, ErrValidation)
	}
	return nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uuid.UUID) (*models.Product, error) {
	if req.MasterProductID != nil && *req.MasterProductID == id {
		return nil, fmt.Errorf("product cannot be its own master: %w", ErrValidation)
	}
	if err := s.checkMaster(ctx, req.MasterProductID); err != nil {
		return nil, err
	}

	var prod *models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		p, err := tx.PatchProduct(ctx, req, id)
		if err != nil {
			return err
		}
		if err := validateProduct(p); err != nil {
			return err
		}
		prod = p
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	s.mirror(ctx, prod)
	publish(ctx, s.Events, events.TopicProduct, prod.ID.String(), map[string]any{
		"type":       "product_updated",
		"product_id": prod.ID,
	})
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return err
	}

	if s.Index != nil {
		if err := s.Index.Delete(ctx, id.String()); err != nil {
			logging.FromContext(ctx).Warn("es_delete_error", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProduct, id.String(), map[string]any{
		"type":       "product_deleted",
		"product_id": id,
	})
	return nil
}

func productDoc(p *models.Product) es.ProductDoc {
	return es.ProductDoc{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Platform:    p.Platform,
		Tags:        []string(p.Tags),
		Active:      p.Active,
	}
}

func (s *CatalogService) mirror(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Upsert(ctx, productDoc(p)); err != nil {
		logging.FromContext(ctx).Warn("es_upsert_error", "product_id", p.ID, "error", err)
	}
}

// Reindex pushes every product to the search index.
func (s *CatalogService) Reindex(ctx context.Context) error {
	if s.Index == nil {
		return nil
	}
	for offset := 0; ; offset += reindexBatch {
		_, items, err := s.Repo.GetProducts(ctx, offset, reindexBatch, false)
		if err != nil {
			return err
		}
		for i := range items {
			if err := s.Index.Upsert(ctx, productDoc(&items[i])); err != nil {
				return err
			}
		}
		if len(items) < reindexBatch {
			return nil
		}
	}
}

func searchCandidate(p models.Product) search.Candidate {
	tags := make([]string, 0, len(p.Tags)+1)
	tags = append(tags, p.Tags...)
	if p.Platform != "" {
		tags = append(tags, p.Platform)
	}
	return search.Candidate{Name: p.Name, Tags: tags}
}

// Search ranks active products by token compatibility with q. Candidates
// come from the search index when one is configured, otherwise from the
// database.
func (s *CatalogService) Search(ctx context.Context, q string, page, size int) (*transport.SearchResponse, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("query is required: %w", ErrValidation)
	}

	candidates, err := s.candidates(ctx, q)
	if err != nil {
		return nil, err
	}
	ranked := search.Rank(q, candidates, searchCandidate, 0)

	offset, limit := util.Calculate(page, size)
	resp := &transport.SearchResponse{
		Query: q,
		Items: []transport.SearchHit{},
		Total: len(ranked),
		Page:  offset/limit + 1,
		Size:  limit,
	}
	end := min(len(ranked), offset+limit)
	if offset < 0 || end < offset {
		end = offset
	}
	for i := offset; i < end; i++ {
		resp.Items = append(resp.Items, transport.SearchHit{
			Product: ranked[i].Item,
			Score:   ranked[i].Score,
			Matched: ranked[i].Matched,
		})
	}
	return resp, nil
}

func (s *CatalogService) candidates(ctx context.Context, q string) ([]models.Product, error) {
	if s.Index != nil {
		ids, err := s.Index.SearchIDs(ctx, q, searchCandidates)
		if err == nil {
			uuids := make([]uuid.UUID, 0, len(ids))
			for _, id := range ids {
				if u, perr := uuid.Parse(id); perr == nil {
					uuids = append(uuids, u)
				}
			}
			items, err := s.Repo.GetProductsByIDs(ctx, uuids)
			if err != nil {
				return nil, err
			}
			active := items[:0]
			for _, p := range items {
				if p.Active {
					active = append(active, p)
				}
			}
			if len(active) > 0 {
				return active, nil
			}
			logging.FromContext(ctx).Debug("es_search_empty", "reason", "falling back to database")
		} else {
			logging.FromContext(ctx).Warn("es_search_error", "reason", "falling back to database", "error", err)
		}
	}
	return s.Repo.ActiveProducts(ctx)
}

func (s *CatalogService) Navigation(ctx context.Context, includeHidden bool) ([]models.NavigationItem, error) {
	items, err := s.Repo.ListNavigation(ctx, !includeHidden)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.NavigationItem{}
	}
	return items, nil
}

func (s *CatalogService) CreateNavigationItem(ctx context.Context, req transport.NavigationRequest) (*models.NavigationItem, error) {
	item := &models.NavigationItem{
		Label:    strings.TrimSpace(req.Label),
		URL:      strings.TrimSpace(req.URL),
		ParentID: req.ParentID,
		Position: req.Position,
		Visible:  true,
	}
	if req.Visible != nil {
		item.Visible = *req.Visible
	}
	if item.Label == "" || item.URL == "" {
		return nil, fmt.Errorf("label and url are required: %w", ErrValidation)
	}
	if err := s.Repo.CreateNavigationItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) PatchNavigationItem(ctx context.Context, id uuid.UUID, req transport.PatchNavigationRequest) (*models.NavigationItem, error) {
	item, err := s.Repo.GetNavigationItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("navigation item %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if req.Label != nil {
		item.Label = strings.TrimSpace(*req.Label)
	}
	if req.URL != nil {
		item.URL = strings.TrimSpace(*req.URL)
	}
	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, fmt.Errorf("item cannot be its own parent: %w", ErrValidation)
		}
		item.ParentID = req.ParentID
	}
	if req.Position != nil {
		item.Position = *req.Position
	}
	if req.Visible != nil {
		item.Visible = *req.Visible
	}
	if item.Label == "" || item.URL == "" {
		return nil, fmt.Errorf("label and url are required: %w", ErrValidation)
	}
	if err := s.Repo.SaveNavigationItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) DeleteNavigationItem(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteNavigationItem(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("navigation item %s: %w", id, ErrNotFound)
		}
		return err
	}
	return nil
}
