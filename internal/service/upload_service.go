package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"sskerp/internal/ingest"
	"sskerp/internal/model"
	"sskerp/internal/repository"
	ws "sskerp/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type UploadRequest struct {
	SupplierID string
	OrderNo    string
	FileName   string
	File       io.Reader
}

type StagedLineResponse struct {
	LineNo       int    `json:"line_no"`
	MfrCode      string `json:"mfr_code"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	HSNCode      string `json:"hsn_code"`
	UOM          string `json:"uom"`
	BatchNo      string `json:"batch_no"`
	ExpiryText   string `json:"expiry_text"`
	BoxText      string `json:"box_text"`
	Qty          string `json:"qty"`
	PricePerUnit string `json:"price_per_unit"`
	TradePrice   string `json:"trade_price"`
	MRP          string `json:"mrp"`
	GrossValue   string `json:"gross_value"`
	DiscountPct  string `json:"discount_pct"`
	TaxableValue string `json:"taxable_value"`
	CGSTRate     string `json:"cgst_rate"`
	CGSTAmount   string `json:"cgst_amount"`
	SGSTRate     string `json:"sgst_rate"`
	SGSTAmount   string `json:"sgst_amount"`
	IGSTRate     string `json:"igst_rate"`
	IGSTAmount   string `json:"igst_amount"`
	TotalAmount  string `json:"total_amount"`
}

type BatchResponse struct {
	ID           string               `json:"id"`
	FileName     string               `json:"file_name"`
	SupplierID   string               `json:"supplier_id"`
	SupplierName string               `json:"supplier_name"`
	OrderNo      string               `json:"order_no"`
	InvoiceNo    string               `json:"invoice_no"`
	InvoiceDate  *string              `json:"invoice_date"`
	PartyName    string               `json:"party_name"`
	PartyGSTIN   string               `json:"party_gstin"`
	NeedsReview  bool                 `json:"needs_review"`
	Status       string               `json:"status"`
	Lines        []StagedLineResponse `json:"lines"`
	CreatedAt    string               `json:"created_at"`
}

// Websocket payload
type BatchEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// --- Interface ---

type UploadService interface {
	Upload(ctx context.Context, userID string, req UploadRequest) (BatchResponse, error)
	GetBatch(ctx context.Context, id string) (BatchResponse, error)
}

type uploadService struct {
	stagingRepo  repository.StagingRepository
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewUploadService(
	stagingRepo repository.StagingRepository,
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) UploadService {
	return &uploadService{
		stagingRepo:  stagingRepo,
		supplierRepo: supplierRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

// --- Implementation ---

// Upload parses the spreadsheet and stages its reconstructed lines as a
// new batch. The operator's previous unconfirmed batch is superseded in
// the same transaction — last-writer-wins is the documented policy, not
// a race to defend against.
func (s *uploadService) Upload(ctx context.Context, userID string, req UploadRequest) (BatchResponse, error) {
	uploaderID, err := uuid.Parse(userID)
	if err != nil {
		return BatchResponse{}, fmt.Errorf("invalid user id: %w", err)
	}
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return BatchResponse{}, fmt.Errorf("invalid supplier_id: %w", err)
	}

	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BatchResponse{}, fmt.Errorf("supplier not found")
		}
		return BatchResponse{}, fmt.Errorf("failed to fetch supplier: %w", err)
	}

	parsed, err := ingest.Parse(req.File, req.FileName, time.Now())
	if err != nil {
		// Structural errors reach the operator verbatim; nothing is staged.
		return BatchResponse{}, err
	}
	if len(parsed.Lines) == 0 {
		return BatchResponse{}, fmt.Errorf("no item lines could be extracted from %s", req.FileName)
	}

	batch := model.UploadBatch{
		FileName:    req.FileName,
		UploadedBy:  uploaderID,
		SupplierID:  supplier.ID,
		OrderNo:     req.OrderNo,
		InvoiceNo:   parsed.Header.InvoiceNo,
		InvoiceDate: parsed.Header.InvoiceDate,
		PartyName:   parsed.Header.PartyName,
		PartyGSTIN:  parsed.Header.PartyGSTIN,
		RawText:     parsed.RawText,
		NeedsReview: parsed.NeedsReview,
		Status:      model.BatchStatusUploaded,
		Lines:       make([]model.StagedLine, 0, len(parsed.Lines)),
	}
	for _, ln := range parsed.Lines {
		expiry := ln.ExpiryDate
		batch.Lines = append(batch.Lines, model.StagedLine{
			LineNo:        ln.LineNo,
			MfrCode:       ln.MfrCode,
			Category:      ln.Category,
			Description:   ln.Description,
			HSNCode:       ln.HSN,
			UOM:           ln.UOM,
			BatchNo:       ln.BatchNo,
			ExpiryText:    ln.ExpiryText,
			BoxText:       ln.BoxText,
			ExpiryDate:    &expiry,
			Qty:           ln.Qty,
			PricePerUnit:  ln.PricePerUnit,
			TradePrice:    ln.TradePrice,
			MRP:           ln.MRP,
			GrossValue:    ln.Gross,
			DiscountPct:   ln.DiscountPct,
			DiscountValue: ln.DiscountValue,
			TaxableValue:  ln.Taxable,
			CGSTRate:      ln.CGSTRate,
			CGSTAmount:    ln.CGSTAmount,
			SGSTRate:      ln.SGSTRate,
			SGSTAmount:    ln.SGSTAmount,
			IGSTRate:      ln.IGSTRate,
			IGSTAmount:    ln.IGSTAmount,
			TotalAmount:   ln.Total,
			RawLine:       ln.Raw,
		})
	}

	var superseded int64
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var delErr error
		superseded, delErr = s.stagingRepo.DeleteUnconfirmedByUploader(txCtx, uploaderID)
		if delErr != nil {
			return fmt.Errorf("failed to supersede previous batch: %w", delErr)
		}
		if createErr := s.stagingRepo.CreateBatch(txCtx, &batch); createErr != nil {
			return fmt.Errorf("failed to stage batch: %w", createErr)
		}
		return nil
	})
	if err != nil {
		return BatchResponse{}, err
	}

	if superseded > 0 {
		s.writeAuditLog(ctx, userID, model.ActionSupersedeBatch, batch.ID.String(), req.FileName,
			map[string]interface{}{"superseded_batches": superseded})
	}
	s.writeAuditLog(ctx, userID, model.ActionUploadBatch, batch.ID.String(), req.FileName,
		map[string]interface{}{"lines": len(batch.Lines), "invoice_no": batch.InvoiceNo})

	s.broadcast("batch_staged", map[string]interface{}{
		"batch_id": batch.ID.String(),
		"lines":    len(batch.Lines),
	})

	batch.Supplier = supplier
	return toBatchResponse(batch), nil
}

func (s *uploadService) GetBatch(ctx context.Context, id string) (BatchResponse, error) {
	batchID, err := uuid.Parse(id)
	if err != nil {
		return BatchResponse{}, fmt.Errorf("invalid batch id: %w", err)
	}

	batch, err := s.stagingRepo.FindByIDWithLines(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BatchResponse{}, fmt.Errorf("batch not found")
		}
		return BatchResponse{}, fmt.Errorf("failed to fetch batch: %w", err)
	}

	return toBatchResponse(*batch), nil
}

// --- Helpers ---

func (s *uploadService) broadcast(event string, data map[string]interface{}) {
	payload, err := json.Marshal(BatchEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

func (s *uploadService) writeAuditLog(ctx context.Context, userID, action, entityID, entityName string, details interface{}) {
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

	// Best-effort audit log — don't fail the operation if logging fails
	_ = s.auditRepo.Log(ctx, &entry)
}

func toBatchResponse(batch model.UploadBatch) BatchResponse {
	resp := BatchResponse{
		ID:          batch.ID.String(),
		FileName:    batch.FileName,
		SupplierID:  batch.SupplierID.String(),
		OrderNo:     batch.OrderNo,
		InvoiceNo:   batch.InvoiceNo,
		PartyName:   batch.PartyName,
		PartyGSTIN:  batch.PartyGSTIN,
		NeedsReview: batch.NeedsReview,
		Status:      batch.Status,
		Lines:       make([]StagedLineResponse, 0, len(batch.Lines)),
		CreatedAt:   batch.CreatedAt.Format(time.RFC3339),
	}
	if batch.Supplier != nil {
		resp.SupplierName = batch.Supplier.Name
	}
	if batch.InvoiceDate != nil {
		d := batch.InvoiceDate.Format("2006-01-02")
		resp.InvoiceDate = &d
	}
	for _, l := range batch.Lines {
		resp.Lines = append(resp.Lines, StagedLineResponse{
			LineNo:       l.LineNo,
			MfrCode:      l.MfrCode,
			Category:     l.Category,
			Description:  l.Description,
			HSNCode:      l.HSNCode,
			UOM:          l.UOM,
			BatchNo:      l.BatchNo,
			ExpiryText:   l.ExpiryText,
			BoxText:      l.BoxText,
			Qty:          l.Qty.StringFixed(3),
			PricePerUnit: l.PricePerUnit.StringFixed(4),
			TradePrice:   l.TradePrice.StringFixed(4),
			MRP:          l.MRP.StringFixed(4),
			GrossValue:   l.GrossValue.StringFixed(2),
			DiscountPct:  l.DiscountPct.StringFixed(2),
			TaxableValue: l.TaxableValue.StringFixed(2),
			CGSTRate:     l.CGSTRate.StringFixed(2),
			CGSTAmount:   l.CGSTAmount.StringFixed(2),
			SGSTRate:     l.SGSTRate.StringFixed(2),
			SGSTAmount:   l.SGSTAmount.StringFixed(2),
			IGSTRate:     l.IGSTRate.StringFixed(2),
			IGSTAmount:   l.IGSTAmount.StringFixed(2),
			TotalAmount:  l.TotalAmount.StringFixed(2),
		})
	}
	return resp
}
