package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sskerp/internal/model"
	"sskerp/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type PurchaseListItem struct {
	ID           string  `json:"id"`
	DocNo        string  `json:"doc_no"`
	SupplierName string  `json:"supplier_name"`
	InvoiceNo    string  `json:"invoice_no"`
	InvoiceDate  *string `json:"invoice_date"`
	TotalTaxable string  `json:"total_taxable"`
	GrandTotal   string  `json:"grand_total"`
	CreatedAt    string  `json:"created_at"`
}

type PurchaseBatchDetail struct {
	BatchNo      string  `json:"batch_no"`
	ExpiryDate   *string `json:"expiry_date"`
	Packs        int     `json:"packs"`
	UnitsPerPack int     `json:"units_per_pack"`
	LooseUnits   string  `json:"loose_units"`
}

type PurchaseLineDetail struct {
	LineNo       int                   `json:"line_no"`
	ItemCode     string                `json:"item_code"`
	ItemName     string                `json:"item_name"`
	Description  string                `json:"description"`
	HSNCode      string                `json:"hsn_code"`
	Qty          string                `json:"qty"`
	PricePerUnit string                `json:"price_per_unit"`
	TaxableValue string                `json:"taxable_value"`
	CGSTAmount   string                `json:"cgst_amount"`
	SGSTAmount   string                `json:"sgst_amount"`
	IGSTAmount   string                `json:"igst_amount"`
	TotalAmount  string                `json:"total_amount"`
	Batches      []PurchaseBatchDetail `json:"batches"`
}

type PurchaseDetailResponse struct {
	ID            string               `json:"id"`
	DocNo         string               `json:"doc_no"`
	SupplierName  string               `json:"supplier_name"`
	SupplierGSTIN string               `json:"supplier_gstin"`
	InvoiceNo     string               `json:"invoice_no"`
	InvoiceDate   *string              `json:"invoice_date"`
	OrderNo       string               `json:"order_no"`
	TotalTaxable  string               `json:"total_taxable"`
	TotalCGST     string               `json:"total_cgst"`
	TotalSGST     string               `json:"total_sgst"`
	TotalIGST     string               `json:"total_igst"`
	GrandTotal    string               `json:"grand_total"`
	Lines         []PurchaseLineDetail `json:"lines"`
	CreatedAt     string               `json:"created_at"`
}

type PurchaseListQuery struct {
	SupplierID string
	InvoiceNo  string
	Page       int
	Limit      int
}

type RegisterDataPoint struct {
	Period       string `json:"period"`
	DocCount     int64  `json:"doc_count"`
	TotalTaxable string `json:"total_taxable"`
	TotalCGST    string `json:"total_cgst"`
	TotalSGST    string `json:"total_sgst"`
	TotalIGST    string `json:"total_igst"`
	GrandTotal   string `json:"grand_total"`
}

type RegisterFilter struct {
	GroupBy   string // week, month, quarter, year
	StartDate string // RFC3339
	EndDate   string // RFC3339
}

// --- Interface ---

// RegisterService reads the committed purchase ledger: listings, single
// document detail and the period-bucketed purchase register totals.
type RegisterService interface {
	ListPurchases(ctx context.Context, query PurchaseListQuery) ([]PurchaseListItem, int64, error)
	GetPurchase(ctx context.Context, id string) (PurchaseDetailResponse, error)
	GetRegister(ctx context.Context, filter RegisterFilter) ([]RegisterDataPoint, error)
}

type registerService struct {
	ledgerRepo repository.LedgerRepository
	db         *gorm.DB
}

func NewRegisterService(ledgerRepo repository.LedgerRepository, db *gorm.DB) RegisterService {
	return &registerService{ledgerRepo: ledgerRepo, db: db}
}

// --- Implementation ---

func (s *registerService) ListPurchases(ctx context.Context, query PurchaseListQuery) ([]PurchaseListItem, int64, error) {
	filter := repository.PurchaseListFilter{
		InvoiceNo: query.InvoiceNo,
		Page:      query.Page,
		Limit:     query.Limit,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if query.SupplierID != "" {
		supplierID, err := uuid.Parse(query.SupplierID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid supplier_id: %w", err)
		}
		filter.SupplierID = &supplierID
	}

	masters, total, err := s.ledgerRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchases: %w", err)
	}

	res := make([]PurchaseListItem, 0, len(masters))
	for _, m := range masters {
		item := PurchaseListItem{
			ID:           m.ID.String(),
			DocNo:        m.DocNo,
			InvoiceNo:    m.InvoiceNo,
			TotalTaxable: m.TotalTaxable.StringFixed(2),
			GrandTotal:   m.GrandTotal.StringFixed(2),
			CreatedAt:    m.CreatedAt.Format(time.RFC3339),
		}
		if m.Supplier != nil {
			item.SupplierName = m.Supplier.Name
		}
		if m.InvoiceDate != nil {
			d := m.InvoiceDate.Format("2006-01-02")
			item.InvoiceDate = &d
		}
		res = append(res, item)
	}
	return res, total, nil
}

func (s *registerService) GetPurchase(ctx context.Context, id string) (PurchaseDetailResponse, error) {
	masterID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseDetailResponse{}, fmt.Errorf("invalid purchase id: %w", err)
	}

	master, err := s.ledgerRepo.FindByID(ctx, masterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseDetailResponse{}, fmt.Errorf("purchase not found")
		}
		return PurchaseDetailResponse{}, fmt.Errorf("failed to fetch purchase: %w", err)
	}

	return toPurchaseDetailResponse(master), nil
}

func (s *registerService) GetRegister(ctx context.Context, filter RegisterFilter) ([]RegisterDataPoint, error) {
	groupBy := filter.GroupBy
	switch groupBy {
	case "week", "month", "quarter", "year":
		// valid
	default:
		groupBy = "month"
	}

	query := `
		SELECT
			TO_CHAR(DATE_TRUNC($1, p.created_at), 'YYYY-MM-DD') AS period,
			COUNT(*) AS doc_count,
			COALESCE(SUM(p.total_taxable), 0) AS total_taxable,
			COALESCE(SUM(p.total_cgst), 0) AS total_cgst,
			COALESCE(SUM(p.total_sgst), 0) AS total_sgst,
			COALESCE(SUM(p.total_igst), 0) AS total_igst,
			COALESCE(SUM(p.grand_total), 0) AS grand_total
		FROM purchase_masters p
		WHERE p.created_at >= $2::timestamptz
		  AND p.created_at <= $3::timestamptz
		GROUP BY DATE_TRUNC($1, p.created_at)
		ORDER BY period
	`

	type rawResult struct {
		Period       string  `gorm:"column:period"`
		DocCount     int64   `gorm:"column:doc_count"`
		TotalTaxable float64 `gorm:"column:total_taxable"`
		TotalCGST    float64 `gorm:"column:total_cgst"`
		TotalSGST    float64 `gorm:"column:total_sgst"`
		TotalIGST    float64 `gorm:"column:total_igst"`
		GrandTotal   float64 `gorm:"column:grand_total"`
	}

	var rows []rawResult
	if err := s.db.WithContext(ctx).Raw(query,
		groupBy,
		filter.StartDate,
		filter.EndDate,
	).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query purchase register: %w", err)
	}

	result := make([]RegisterDataPoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, RegisterDataPoint{
			Period:       r.Period,
			DocCount:     r.DocCount,
			TotalTaxable: fmt.Sprintf("%.2f", r.TotalTaxable),
			TotalCGST:    fmt.Sprintf("%.2f", r.TotalCGST),
			TotalSGST:    fmt.Sprintf("%.2f", r.TotalSGST),
			TotalIGST:    fmt.Sprintf("%.2f", r.TotalIGST),
			GrandTotal:   fmt.Sprintf("%.2f", r.GrandTotal),
		})
	}

	return result, nil
}

// --- Mapping ---

func toPurchaseDetailResponse(master *model.PurchaseMaster) PurchaseDetailResponse {
	resp := PurchaseDetailResponse{
		ID:           master.ID.String(),
		DocNo:        master.DocNo,
		InvoiceNo:    master.InvoiceNo,
		OrderNo:      master.OrderNo,
		TotalTaxable: master.TotalTaxable.StringFixed(2),
		TotalCGST:    master.TotalCGST.StringFixed(2),
		TotalSGST:    master.TotalSGST.StringFixed(2),
		TotalIGST:    master.TotalIGST.StringFixed(2),
		GrandTotal:   master.GrandTotal.StringFixed(2),
		Lines:        make([]PurchaseLineDetail, 0, len(master.Details)),
		CreatedAt:    master.CreatedAt.Format(time.RFC3339),
	}
	if master.Supplier != nil {
		resp.SupplierName = master.Supplier.Name
		resp.SupplierGSTIN = master.Supplier.GSTIN
	}
	if master.InvoiceDate != nil {
		d := master.InvoiceDate.Format("2006-01-02")
		resp.InvoiceDate = &d
	}

	for _, det := range master.Details {
		line := PurchaseLineDetail{
			LineNo:       det.LineNo,
			Description:  det.Description,
			HSNCode:      det.HSNCode,
			Qty:          det.Qty.StringFixed(3),
			PricePerUnit: det.PricePerUnit.StringFixed(4),
			TaxableValue: det.TaxableValue.StringFixed(2),
			CGSTAmount:   det.CGSTAmount.StringFixed(2),
			SGSTAmount:   det.SGSTAmount.StringFixed(2),
			IGSTAmount:   det.IGSTAmount.StringFixed(2),
			TotalAmount:  det.TotalAmount.StringFixed(2),
			Batches:      make([]PurchaseBatchDetail, 0, len(det.Batches)),
		}
		if det.CatalogItem != nil {
			line.ItemCode = det.CatalogItem.Code
			line.ItemName = det.CatalogItem.Name
		}
		for _, b := range det.Batches {
			bd := PurchaseBatchDetail{
				BatchNo:      b.BatchNo,
				Packs:        b.Packs,
				UnitsPerPack: b.UnitsPerPack,
				LooseUnits:   b.LooseUnits.StringFixed(3),
			}
			if b.ExpiryDate != nil {
				d := b.ExpiryDate.Format("2006-01-02")
				bd.ExpiryDate = &d
			}
			line.Batches = append(line.Batches, bd)
		}
		resp.Lines = append(resp.Lines, line)
	}
	return resp
}
