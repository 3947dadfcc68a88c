package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus constants
const (
	BatchStatusUploaded  = "UPLOADED"
	BatchStatusConfirmed = "CONFIRMED"
)

// UploadBatch is one file-upload attempt. It holds the document header
// fields extracted from the sheet and owns its StagedLines. A new upload
// by the same operator supersedes (hard-deletes) their previous
// unconfirmed batch — last-writer-wins, no lock.
type UploadBatch struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FileName    string       `gorm:"type:varchar(255);not null" json:"file_name"`
	UploadedBy  uuid.UUID    `gorm:"type:uuid;not null;index" json:"uploaded_by"`
	SupplierID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier    *Supplier    `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	OrderNo     string       `gorm:"type:varchar(50)" json:"order_no"` // originating purchase-order reference
	InvoiceNo   string       `gorm:"type:varchar(50);index" json:"invoice_no"`
	InvoiceDate *time.Time   `gorm:"type:date" json:"invoice_date"`
	PartyName   string       `gorm:"type:varchar(255)" json:"party_name"`
	PartyGSTIN  string       `gorm:"type:varchar(20)" json:"party_gstin"`
	RawText     string       `gorm:"type:text" json:"-"` // full extracted sheet text, kept for audit
	NeedsReview bool         `gorm:"default:false" json:"needs_review"`
	Status      string       `gorm:"type:varchar(20);not null;default:'UPLOADED';index" json:"status"`
	Lines       []StagedLine `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// StagedLine is one reconstructed logical invoice line awaiting
// confirmation. Raw text fields keep exactly what the sheet said;
// the decimal columns hold the normalized values.
type StagedLine struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BatchID uuid.UUID `gorm:"type:uuid;not null;index:idx_staged_batch_line,unique" json:"batch_id"`
	LineNo  int       `gorm:"type:int;not null;index:idx_staged_batch_line,unique" json:"line_no"`

	MfrCode     string `gorm:"type:varchar(50)" json:"mfr_code"`
	Category    string `gorm:"type:varchar(50)" json:"category"`
	Description string `gorm:"type:varchar(500)" json:"description"`
	HSNCode     string `gorm:"type:varchar(20)" json:"hsn_code"`
	UOM         string `gorm:"type:varchar(30)" json:"uom"`
	BatchNo     string `gorm:"type:varchar(50)" json:"batch_no"`
	ExpiryText  string `gorm:"type:varchar(30)" json:"expiry_text"`
	BoxText     string `gorm:"type:varchar(30)" json:"box_text"`

	ExpiryDate    *time.Time      `gorm:"type:date" json:"expiry_date"`
	Qty           decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0" json:"qty"`
	PricePerUnit  decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"price_per_unit"`
	TradePrice    decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"trade_price"`
	MRP           decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"mrp"`
	GrossValue    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"gross_value"`
	DiscountPct   decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"discount_pct"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"discount_value"`
	TaxableValue  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"taxable_value"`
	CGSTRate      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"cgst_rate"`
	CGSTAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"cgst_amount"`
	SGSTRate      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"sgst_rate"`
	SGSTAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"sgst_amount"`
	IGSTRate      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"igst_rate"`
	IGSTAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"igst_amount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_amount"`

	RawLine   string    `gorm:"type:text" json:"-"` // reconstructed source text for audit
	CreatedAt time.Time `json:"created_at"`
}
