package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sskerp/internal/ingest"
	"sskerp/internal/model"
	"sskerp/internal/repository"
	"sskerp/internal/tax"
	ws "sskerp/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrDuplicateInvoice marks an attempt to commit an invoice number that
// already exists in the ledger for the same supplier.
var ErrDuplicateInvoice = errors.New("invoice already committed")

// --- DTOs ---

// LineSelection pairs one staged line with the canonical catalog item
// and packing unit the operator mapped it to.
type LineSelection struct {
	LineNo        int    `json:"line_no" binding:"required"`
	CatalogItemID string `json:"catalog_item_id" binding:"required"`
	PackingUnitID string `json:"packing_unit_id" binding:"required"`
}

type ConfirmRequest struct {
	Selections []LineSelection `json:"selections" binding:"required,min=1,dive"`
}

type PurchaseResponse struct {
	ID           string  `json:"id"`
	DocNo        string  `json:"doc_no"`
	SupplierID   string  `json:"supplier_id"`
	InvoiceNo    string  `json:"invoice_no"`
	InvoiceDate  *string `json:"invoice_date"`
	OrderNo      string  `json:"order_no"`
	Lines        int     `json:"lines"`
	TotalTaxable string  `json:"total_taxable"`
	TotalCGST    string  `json:"total_cgst"`
	TotalSGST    string  `json:"total_sgst"`
	TotalIGST    string  `json:"total_igst"`
	GrandTotal   string  `json:"grand_total"`
}

// --- Interface ---

type ConfirmService interface {
	Confirm(ctx context.Context, userID, batchID string, selections []LineSelection) (PurchaseResponse, error)
}

type confirmService struct {
	stagingRepo  repository.StagingRepository
	ledgerRepo   repository.LedgerRepository
	catalogRepo  repository.CatalogRepository
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
	homeState    string // 2-digit GST state code of our own registration
}

func NewConfirmService(
	stagingRepo repository.StagingRepository,
	ledgerRepo repository.LedgerRepository,
	catalogRepo repository.CatalogRepository,
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	homeState string,
) ConfirmService {
	return &confirmService{
		stagingRepo:  stagingRepo,
		ledgerRepo:   ledgerRepo,
		catalogRepo:  catalogRepo,
		supplierRepo: supplierRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
		homeState:    homeState,
	}
}

// confirmedLine is one staged line resolved against the catalog, taxed
// from the canonical rate table rather than the sheet.
type confirmedLine struct {
	staged  model.StagedLine
	item    *model.CatalogItem
	packing *model.PackingUnit
	split   tax.Split
	total   decimal.Decimal
}

// --- Implementation ---

// Confirm turns a staged batch into committed ledger rows. Selections
// referencing unknown line numbers are silently dropped; an empty
// resulting set is an error. The whole commit runs as one transaction:
// sequence allocation, master, details, batch rows, the final aggregate
// write on the master, and deletion of the staging batch.
func (s *confirmService) Confirm(ctx context.Context, userID, batchID string, selections []LineSelection) (PurchaseResponse, error) {
	id, err := uuid.Parse(batchID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid batch id: %w", err)
	}
	operatorID, err := uuid.Parse(userID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	batch, err := s.stagingRepo.FindByIDWithLines(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseResponse{}, fmt.Errorf("batch not found: it may have been superseded by a newer upload")
		}
		return PurchaseResponse{}, fmt.Errorf("failed to fetch batch: %w", err)
	}
	if batch.Status != model.BatchStatusUploaded {
		return PurchaseResponse{}, fmt.Errorf("batch is already %s", batch.Status)
	}

	supplier, err := s.supplierRepo.FindByID(ctx, batch.SupplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseResponse{}, fmt.Errorf("supplier not found")
		}
		return PurchaseResponse{}, fmt.Errorf("failed to fetch supplier: %w", err)
	}

	// Duplicate detection: one ledger master per (counterparty, invoice).
	if batch.InvoiceNo != "" {
		exists, dupErr := s.ledgerRepo.ExistsByInvoice(ctx, supplier.ID, batch.InvoiceNo)
		if dupErr != nil {
			return PurchaseResponse{}, fmt.Errorf("failed to check for duplicate invoice: %w", dupErr)
		}
		if exists {
			return PurchaseResponse{}, fmt.Errorf("invoice %s from %s is already committed: %w", batch.InvoiceNo, supplier.Name, ErrDuplicateInvoice)
		}
	}

	sameState := supplier.StateCode == s.homeState

	confirmed, err := s.resolveSelections(ctx, batch, selections, sameState)
	if err != nil {
		return PurchaseResponse{}, err
	}
	if len(confirmed) == 0 {
		return PurchaseResponse{}, fmt.Errorf("no valid lines selected for confirmation")
	}

	master := model.PurchaseMaster{
		SupplierID:  supplier.ID,
		InvoiceNo:   batch.InvoiceNo,
		InvoiceDate: batch.InvoiceDate,
		OrderNo:     batch.OrderNo,
		CreatedBy:   operatorID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		seq, seqErr := s.ledgerRepo.NextSequence(txCtx, model.RegisterPurchase)
		if seqErr != nil {
			return fmt.Errorf("failed to allocate document sequence: %w", seqErr)
		}
		master.SeqNo = seq
		master.DocNo = fmt.Sprintf("PUR-%06d", seq)

		// Master goes in with zero totals; details and batch rows are
		// written before the aggregates are finalized so a failure can
		// never leave a committed-looking master behind.
		if createErr := s.ledgerRepo.CreateMaster(txCtx, &master); createErr != nil {
			return fmt.Errorf("failed to create ledger master: %w", createErr)
		}

		totalTaxable, totalCGST := decimal.Zero, decimal.Zero
		totalSGST, totalIGST, grand := decimal.Zero, decimal.Zero, decimal.Zero

		for _, cl := range confirmed {
			detail := model.PurchaseDetail{
				MasterID:      master.ID,
				LineNo:        cl.staged.LineNo,
				CatalogItemID: cl.item.ID,
				PackingUnitID: cl.packing.ID,
				Description:   cl.staged.Description,
				HSNCode:       cl.staged.HSNCode,
				Qty:           cl.staged.Qty,
				PricePerUnit:  cl.staged.PricePerUnit,
				TradePrice:    cl.staged.TradePrice,
				MRP:           cl.staged.MRP,
				DiscountPct:   cl.staged.DiscountPct,
				DiscountValue: cl.staged.DiscountValue,
				TaxableValue:  cl.staged.TaxableValue,
				CGSTRate:      cl.split.CGSTRate,
				CGSTAmount:    cl.split.CGSTAmount,
				SGSTRate:      cl.split.SGSTRate,
				SGSTAmount:    cl.split.SGSTAmount,
				IGSTRate:      cl.split.IGSTRate,
				IGSTAmount:    cl.split.IGSTAmount,
				TotalAmount:   cl.total,
			}
			if createErr := s.ledgerRepo.CreateDetail(txCtx, &detail); createErr != nil {
				return fmt.Errorf("failed to create ledger detail for line %d: %w", cl.staged.LineNo, createErr)
			}

			if cl.staged.BatchNo != "" {
				if batchErr := s.ledgerRepo.CreateBatch(txCtx, buildBatchRow(detail.ID, cl)); batchErr != nil {
					return fmt.Errorf("failed to create batch row for line %d: %w", cl.staged.LineNo, batchErr)
				}
			}

			totalTaxable = totalTaxable.Add(cl.staged.TaxableValue)
			totalCGST = totalCGST.Add(cl.split.CGSTAmount)
			totalSGST = totalSGST.Add(cl.split.SGSTAmount)
			totalIGST = totalIGST.Add(cl.split.IGSTAmount)
			grand = grand.Add(cl.total)
		}

		master.TotalTaxable = totalTaxable
		master.TotalCGST = totalCGST
		master.TotalSGST = totalSGST
		master.TotalIGST = totalIGST
		master.GrandTotal = grand
		if finErr := s.ledgerRepo.FinalizeMasterTotals(txCtx, &master); finErr != nil {
			return fmt.Errorf("failed to finalize ledger totals: %w", finErr)
		}

		if delErr := s.stagingRepo.DeleteBatch(txCtx, batch.ID); delErr != nil {
			return fmt.Errorf("failed to clean up staging batch: %w", delErr)
		}
		return nil
	})
	if err != nil {
		// Commit aborted wholesale; the staging batch is retained so the
		// operator can retry confirmation.
		return PurchaseResponse{}, err
	}

	s.writeAuditLog(ctx, userID, model.ActionCommitPurchase, master.ID.String(), master.DocNo,
		map[string]interface{}{"batch_id": batch.ID.String(), "invoice_no": master.InvoiceNo, "lines": len(confirmed)})

	s.broadcast("purchase_committed", map[string]interface{}{
		"doc_no":      master.DocNo,
		"supplier_id": supplier.ID.String(),
		"grand_total": master.GrandTotal.StringFixed(2),
	})

	return toPurchaseResponse(master, len(confirmed)), nil
}

// resolveSelections maps each selection onto its staged line and the
// canonical catalog/packing records, recomputing tax from the catalog
// item's rate table. Unknown line numbers are dropped, not errors.
func (s *confirmService) resolveSelections(ctx context.Context, batch *model.UploadBatch, selections []LineSelection, sameState bool) ([]confirmedLine, error) {
	byLineNo := make(map[int]model.StagedLine, len(batch.Lines))
	for _, l := range batch.Lines {
		byLineNo[l.LineNo] = l
	}

	confirmed := make([]confirmedLine, 0, len(selections))
	for _, sel := range selections {
		staged, ok := byLineNo[sel.LineNo]
		if !ok {
			continue // treated as "not applicable"
		}

		itemID, err := uuid.Parse(sel.CatalogItemID)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid catalog_item_id: %w", sel.LineNo, err)
		}
		packingID, err := uuid.Parse(sel.PackingUnitID)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid packing_unit_id: %w", sel.LineNo, err)
		}

		item, err := s.catalogRepo.FindItemByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("line %d: catalog item not found", sel.LineNo)
			}
			return nil, fmt.Errorf("line %d: failed to fetch catalog item: %w", sel.LineNo, err)
		}
		packing, err := s.catalogRepo.FindPackingUnitByID(ctx, packingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("line %d: packing unit not found", sel.LineNo)
			}
			return nil, fmt.Errorf("line %d: failed to fetch packing unit: %w", sel.LineNo, err)
		}

		// Canonical rate beats whatever the sheet said.
		ratePct := decimal.Zero
		if item.TaxRate != nil {
			if sameState {
				ratePct = item.TaxRate.CGSTPct.Add(item.TaxRate.SGSTPct)
			} else {
				ratePct = item.TaxRate.IGSTPct
			}
		}

		base := staged.TaxableValue
		split := tax.Compute(base, ratePct, sameState)
		confirmed = append(confirmed, confirmedLine{
			staged:  staged,
			item:    item,
			packing: packing,
			split:   split,
			total:   split.Net(base),
		})
	}
	return confirmed, nil
}

// buildBatchRow derives the sub-detail lot row: full packs from the
// sheet's box count, loose units as the remainder of the total quantity.
func buildBatchRow(detailID uuid.UUID, cl confirmedLine) *model.PurchaseBatch {
	packs := int(ingest.ParseDecimal(cl.staged.BoxText).IntPart())
	unitsPerPack := cl.packing.UnitsPerPack
	if unitsPerPack <= 0 {
		unitsPerPack = 1
	}

	loose := cl.staged.Qty.Sub(decimal.NewFromInt(int64(packs * unitsPerPack)))
	if loose.IsNegative() {
		loose = decimal.Zero
	}

	return &model.PurchaseBatch{
		DetailID:     detailID,
		BatchNo:      cl.staged.BatchNo,
		ExpiryDate:   cl.staged.ExpiryDate,
		Packs:        packs,
		UnitsPerPack: unitsPerPack,
		LooseUnits:   loose,
	}
}

// --- Helpers ---

func (s *confirmService) broadcast(event string, data map[string]interface{}) {
	payload, err := json.Marshal(BatchEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

func (s *confirmService) writeAuditLog(ctx context.Context, userID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if parsed, err := uuid.Parse(userID); err == nil {
		entry.UserID = &parsed
	}

	_ = s.auditRepo.Log(ctx, &entry)
}

func toPurchaseResponse(master model.PurchaseMaster, lines int) PurchaseResponse {
	resp := PurchaseResponse{
		ID:           master.ID.String(),
		DocNo:        master.DocNo,
		SupplierID:   master.SupplierID.String(),
		InvoiceNo:    master.InvoiceNo,
		OrderNo:      master.OrderNo,
		Lines:        lines,
		TotalTaxable: master.TotalTaxable.StringFixed(2),
		TotalCGST:    master.TotalCGST.StringFixed(2),
		TotalSGST:    master.TotalSGST.StringFixed(2),
		TotalIGST:    master.TotalIGST.StringFixed(2),
		GrandTotal:   master.GrandTotal.StringFixed(2),
	}
	if master.InvoiceDate != nil {
		d := master.InvoiceDate.Format("2006-01-02")
		resp.InvoiceDate = &d
	}
	return resp
}
