package repository

import (
	"context"

	"sskerp/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerRepository appends to the committed purchase register. Masters,
// details and batch rows are created once and never mutated afterwards;
// the only update is the final aggregate write on the master inside the
// commit transaction.
type LedgerRepository interface {
	// NextSequence atomically bumps and returns the register counter.
	// Concurrent commits serialize on the underlying row lock.
	NextSequence(ctx context.Context, register string) (int64, error)
	CreateMaster(ctx context.Context, master *model.PurchaseMaster) error
	CreateDetail(ctx context.Context, detail *model.PurchaseDetail) error
	CreateBatch(ctx context.Context, batch *model.PurchaseBatch) error
	FinalizeMasterTotals(ctx context.Context, master *model.PurchaseMaster) error
	ExistsByInvoice(ctx context.Context, supplierID uuid.UUID, invoiceNo string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseMaster, error)
	List(ctx context.Context, filter PurchaseListFilter) ([]model.PurchaseMaster, int64, error)
}

// PurchaseListFilter narrows the committed-purchase listing.
type PurchaseListFilter struct {
	SupplierID *uuid.UUID
	InvoiceNo  string // partial match
	Page       int
	Limit      int
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) NextSequence(ctx context.Context, register string) (int64, error) {
	db := GetDB(ctx, r.db)

	// Seed the counter row on first use; ON CONFLICT keeps this idempotent.
	if err := db.Exec(
		`INSERT INTO doc_sequences (register, value, updated_at) VALUES (?, 0, NOW()) ON CONFLICT (register) DO NOTHING`,
		register,
	).Error; err != nil {
		return 0, err
	}

	var next int64
	err := db.Raw(
		`UPDATE doc_sequences SET value = value + 1, updated_at = NOW() WHERE register = ? RETURNING value`,
		register,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *ledgerRepository) CreateMaster(ctx context.Context, master *model.PurchaseMaster) error {
	return GetDB(ctx, r.db).Create(master).Error
}

func (r *ledgerRepository) CreateDetail(ctx context.Context, detail *model.PurchaseDetail) error {
	return GetDB(ctx, r.db).Create(detail).Error
}

func (r *ledgerRepository) CreateBatch(ctx context.Context, batch *model.PurchaseBatch) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *ledgerRepository) FinalizeMasterTotals(ctx context.Context, master *model.PurchaseMaster) error {
	return GetDB(ctx, r.db).Model(&model.PurchaseMaster{}).
		Where("id = ?", master.ID).
		Updates(map[string]interface{}{
			"total_taxable": master.TotalTaxable,
			"total_cgst":    master.TotalCGST,
			"total_sgst":    master.TotalSGST,
			"total_igst":    master.TotalIGST,
			"grand_total":   master.GrandTotal,
		}).Error
}

func (r *ledgerRepository) ExistsByInvoice(ctx context.Context, supplierID uuid.UUID, invoiceNo string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.PurchaseMaster{}).
		Where("supplier_id = ? AND invoice_no = ?", supplierID, invoiceNo).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ledgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseMaster, error) {
	var master model.PurchaseMaster
	err := GetDB(ctx, r.db).
		Preload("Supplier").
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("line_no asc") }).
		Preload("Details.CatalogItem").
		Preload("Details.Batches").
		First(&master, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &master, nil
}

func (r *ledgerRepository) List(ctx context.Context, filter PurchaseListFilter) ([]model.PurchaseMaster, int64, error) {
	var masters []model.PurchaseMaster
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.PurchaseMaster{})
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.InvoiceNo != "" {
		query = query.Where("invoice_no ILIKE ?", "%"+filter.InvoiceNo+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("Supplier").Order("seq_no desc").Offset(offset).Limit(filter.Limit).Find(&masters).Error; err != nil {
		return nil, 0, err
	}

	return masters, total, nil
}
