package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/utidosgames/storefront/internal/models"
	"github.com/utidosgames/storefront/internal/transport"
)

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts pages through products. With activeOnly set, hidden products
// are left out.
func (r *GormRepo) GetProducts(ctx context.Context, offset, limit int, activeOnly bool) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order("name ASC").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// LockProducts loads the given products with a row lock for the rest of the
// transaction.
func (r *GormRepo) LockProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ActiveProducts returns every active product, used as search candidates
// when no search index is configured.
func (r *GormRepo) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SKUFamily returns the master product of id and all its variants.
func (r *GormRepo) SKUFamily(ctx context.Context, id uuid.UUID) (*models.Product, []models.Product, error) {
	prod, err := r.GetProduct(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	master := prod
	if prod.MasterProductID != nil {
		if master, err = r.GetProduct(ctx, *prod.MasterProductID); err != nil {
			return nil, nil, err
		}
	}

	var variants []models.Product
	if err := r.DB.WithContext(ctx).
		Where("master_product_id = ? AND active = ?", master.ID, true).
		Order("platform ASC").
		Find(&variants).Error; err != nil {
		return nil, nil, err
	}
	return master, variants, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) (*models.Product, error) {
	if err := r.DB.WithContext(ctx).Create(prod).Error; err != nil {
		return nil, err
	}
	return prod, nil
}

func (r *GormRepo) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uuid.UUID) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&prod).Error; err != nil {
		return nil, err
	}

	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Platform != nil {
		prod.Platform = *req.Platform
	}
	if req.MasterProductID != nil {
		prod.MasterProductID = req.MasterProductID
	}
	if req.Tags != nil {
		prod.Tags = models.Tags(*req.Tags)
	}
	if req.PriceCents != nil {
		prod.PriceCents = *req.PriceCents
	}
	if req.ProPriceCents != nil {
		prod.ProPriceCents = req.ProPriceCents
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}
	if req.Active != nil {
		prod.Active = *req.Active
	}

	if err := r.DB.WithContext(ctx).Save(&prod).Error; err != nil {
		return nil, err
	}

	return &prod, nil
}

func (r *GormRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOutOfStock
	}
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *GormRepo) ListNavigation(ctx context.Context, visibleOnly bool) ([]models.NavigationItem, error) {
	q := r.DB.WithContext(ctx).Model(&models.NavigationItem{})
	if visibleOnly {
		q = q.Where("visible = ?", true)
	}
	var items []models.NavigationItem
	if err := q.Order("position ASC").Order("label ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetNavigationItem(ctx context.Context, id uuid.UUID) (*models.NavigationItem, error) {
	var item models.NavigationItem
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) CreateNavigationItem(ctx context.Context, item *models.NavigationItem) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

func (r *GormRepo) SaveNavigationItem(ctx context.Context, item *models.NavigationItem) error {
	return r.DB.WithContext(ctx).Save(item).Error
}

func (r *GormRepo) DeleteNavigationItem(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.NavigationItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
