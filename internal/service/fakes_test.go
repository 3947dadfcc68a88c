package service

import (
	"context"

	"sskerp/internal/model"
	"sskerp/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory fakes for the repository interfaces. Only the behavior the
// workflow services rely on is modelled; everything is keyed the same
// way the real tables are.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeStagingRepo struct {
	batches map[uuid.UUID]*model.UploadBatch
	deleted []uuid.UUID
}

func newFakeStagingRepo() *fakeStagingRepo {
	return &fakeStagingRepo{batches: make(map[uuid.UUID]*model.UploadBatch)}
}

func (f *fakeStagingRepo) CreateBatch(_ context.Context, batch *model.UploadBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	f.batches[batch.ID] = batch
	return nil
}

func (f *fakeStagingRepo) FindByID(_ context.Context, id uuid.UUID) (*model.UploadBatch, error) {
	b, ok := f.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (f *fakeStagingRepo) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.UploadBatch, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeStagingRepo) DeleteUnconfirmedByUploader(_ context.Context, uploadedBy uuid.UUID) (int64, error) {
	var n int64
	for id, b := range f.batches {
		if b.UploadedBy == uploadedBy && b.Status == model.BatchStatusUploaded {
			delete(f.batches, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStagingRepo) DeleteBatch(_ context.Context, id uuid.UUID) error {
	delete(f.batches, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeLedgerRepo struct {
	seq       int64
	masters   []*model.PurchaseMaster
	details   []*model.PurchaseDetail
	batchRows []*model.PurchaseBatch
	existing  map[string]bool
	finalized bool
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{existing: make(map[string]bool)}
}

func invoiceKey(supplierID uuid.UUID, invoiceNo string) string {
	return supplierID.String() + "|" + invoiceNo
}

func (f *fakeLedgerRepo) NextSequence(_ context.Context, _ string) (int64, error) {
	f.seq++
	return f.seq, nil
}

func (f *fakeLedgerRepo) CreateMaster(_ context.Context, master *model.PurchaseMaster) error {
	if master.ID == uuid.Nil {
		master.ID = uuid.New()
	}
	f.masters = append(f.masters, master)
	f.existing[invoiceKey(master.SupplierID, master.InvoiceNo)] = true
	return nil
}

func (f *fakeLedgerRepo) CreateDetail(_ context.Context, detail *model.PurchaseDetail) error {
	if detail.ID == uuid.Nil {
		detail.ID = uuid.New()
	}
	f.details = append(f.details, detail)
	return nil
}

func (f *fakeLedgerRepo) CreateBatch(_ context.Context, batch *model.PurchaseBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	f.batchRows = append(f.batchRows, batch)
	return nil
}

func (f *fakeLedgerRepo) FinalizeMasterTotals(_ context.Context, _ *model.PurchaseMaster) error {
	f.finalized = true
	return nil
}

func (f *fakeLedgerRepo) ExistsByInvoice(_ context.Context, supplierID uuid.UUID, invoiceNo string) (bool, error) {
	return f.existing[invoiceKey(supplierID, invoiceNo)], nil
}

func (f *fakeLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseMaster, error) {
	for _, m := range f.masters {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepo) List(_ context.Context, _ repository.PurchaseListFilter) ([]model.PurchaseMaster, int64, error) {
	out := make([]model.PurchaseMaster, 0, len(f.masters))
	for _, m := range f.masters {
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

type fakeCatalogRepo struct {
	items map[uuid.UUID]*model.CatalogItem
	packs map[uuid.UUID]*model.PackingUnit
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		items: make(map[uuid.UUID]*model.CatalogItem),
		packs: make(map[uuid.UUID]*model.PackingUnit),
	}
}

func (f *fakeCatalogRepo) FindItemByID(_ context.Context, id uuid.UUID) (*model.CatalogItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (f *fakeCatalogRepo) SearchItems(_ context.Context, _ string, _, _ int) ([]model.CatalogItem, int64, error) {
	out := make([]model.CatalogItem, 0, len(f.items))
	for _, item := range f.items {
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCatalogRepo) FindPackingUnitByID(_ context.Context, id uuid.UUID) (*model.PackingUnit, error) {
	p, ok := f.packs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeCatalogRepo) ListPackingUnits(_ context.Context) ([]model.PackingUnit, error) {
	out := make([]model.PackingUnit, 0, len(f.packs))
	for _, p := range f.packs {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeCatalogRepo) FindTaxRateByID(_ context.Context, _ uuid.UUID) (*model.TaxRate, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalogRepo) ListTaxRates(_ context.Context) ([]model.TaxRate, error) {
	return nil, nil
}

type fakeSupplierRepo struct {
	suppliers map[uuid.UUID]*model.Supplier
}

func newFakeSupplierRepo() *fakeSupplierRepo {
	return &fakeSupplierRepo{suppliers: make(map[uuid.UUID]*model.Supplier)}
}

func (f *fakeSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := f.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeSupplierRepo) List(_ context.Context, _ string, _, _ int) ([]model.Supplier, int64, error) {
	out := make([]model.Supplier, 0, len(f.suppliers))
	for _, s := range f.suppliers {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

func (f *fakeAuditRepo) actions() []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}
