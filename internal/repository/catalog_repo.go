package repository

import (
	"context"

	"sskerp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository reads the canonical reference data the confirmation
// step maps extracted lines onto. The pipeline never writes these tables.
type CatalogRepository interface {
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.CatalogItem, error)
	SearchItems(ctx context.Context, search string, page, limit int) ([]model.CatalogItem, int64, error)
	FindPackingUnitByID(ctx context.Context, id uuid.UUID) (*model.PackingUnit, error)
	ListPackingUnits(ctx context.Context) ([]model.PackingUnit, error)
	FindTaxRateByID(ctx context.Context, id uuid.UUID) (*model.TaxRate, error)
	ListTaxRates(ctx context.Context) ([]model.TaxRate, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) FindItemByID(ctx context.Context, id uuid.UUID) (*model.CatalogItem, error) {
	var item model.CatalogItem
	if err := GetDB(ctx, r.db).Preload("TaxRate").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *catalogRepository) SearchItems(ctx context.Context, search string, page, limit int) ([]model.CatalogItem, int64, error) {
	var items []model.CatalogItem
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.CatalogItem{}).Where("is_active = ?", true)
	if search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("TaxRate").Order("name asc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *catalogRepository) FindPackingUnitByID(ctx context.Context, id uuid.UUID) (*model.PackingUnit, error) {
	var unit model.PackingUnit
	if err := GetDB(ctx, r.db).First(&unit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *catalogRepository) ListPackingUnits(ctx context.Context) ([]model.PackingUnit, error) {
	var units []model.PackingUnit
	if err := GetDB(ctx, r.db).Order("name asc").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *catalogRepository) FindTaxRateByID(ctx context.Context, id uuid.UUID) (*model.TaxRate, error) {
	var rate model.TaxRate
	if err := GetDB(ctx, r.db).First(&rate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *catalogRepository) ListTaxRates(ctx context.Context) ([]model.TaxRate, error) {
	var rates []model.TaxRate
	if err := GetDB(ctx, r.db).Order("class asc").Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}
