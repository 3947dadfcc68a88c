package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase register name used for document sequencing
const RegisterPurchase = "PURCHASE"

// DocSequence is a per-register monotonic counter. The next value is
// allocated with a single UPDATE ... RETURNING inside the commit
// transaction so concurrent confirmations serialize on the row lock.
type DocSequence struct {
	Register  string    `gorm:"type:varchar(30);primaryKey" json:"register"`
	Value     int64     `gorm:"type:bigint;not null;default:0" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PurchaseMaster is the committed ledger header for one confirmed batch.
// Created exactly once per batch; never updated or deleted afterwards.
type PurchaseMaster struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocNo       string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"doc_no"`
	SeqNo       int64     `gorm:"type:bigint;not null" json:"seq_no"`
	SupplierID  uuid.UUID `gorm:"type:uuid;not null;index:idx_purchase_supplier_invoice" json:"supplier_id"`
	Supplier    *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	InvoiceNo   string    `gorm:"type:varchar(50);not null;index:idx_purchase_supplier_invoice" json:"invoice_no"`
	InvoiceDate *time.Time `gorm:"type:date" json:"invoice_date"`
	OrderNo     string    `gorm:"type:varchar(50)" json:"order_no"`

	TotalTaxable decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_taxable"`
	TotalCGST    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_cgst"`
	TotalSGST    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_sgst"`
	TotalIGST    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_igst"`
	GrandTotal   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"grand_total"`

	Details   []PurchaseDetail `gorm:"foreignKey:MasterID" json:"details,omitempty"`
	CreatedBy uuid.UUID        `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt time.Time        `json:"created_at"`
}

// PurchaseDetail is one committed invoice line with its tax split.
type PurchaseDetail struct {
	ID            uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	MasterID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"master_id"`
	LineNo        int          `gorm:"type:int;not null" json:"line_no"`
	CatalogItemID uuid.UUID    `gorm:"type:uuid;not null;index" json:"catalog_item_id"`
	CatalogItem   *CatalogItem `gorm:"foreignKey:CatalogItemID" json:"catalog_item,omitempty"`
	PackingUnitID uuid.UUID    `gorm:"type:uuid;not null" json:"packing_unit_id"`
	Description   string       `gorm:"type:varchar(500)" json:"description"` // as extracted from the sheet
	HSNCode       string       `gorm:"type:varchar(20)" json:"hsn_code"`

	Qty           decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"qty"`
	PricePerUnit  decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"price_per_unit"`
	TradePrice    decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"trade_price"`
	MRP           decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"mrp"`
	DiscountPct   decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"discount_pct"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"discount_value"`
	TaxableValue  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"taxable_value"`
	CGSTRate      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"cgst_rate"`
	CGSTAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"cgst_amount"`
	SGSTRate      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"sgst_rate"`
	SGSTAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"sgst_amount"`
	IGSTRate      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"igst_rate"`
	IGSTAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"igst_amount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`

	Batches   []PurchaseBatch `gorm:"foreignKey:DetailID" json:"batches,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// PurchaseBatch is the sub-detail lot row, written when a detail line
// carried a batch/lot number. Pack counts derive from the sheet's box
// count and the confirmed packing unit.
type PurchaseBatch struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DetailID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"detail_id"`
	BatchNo      string          `gorm:"type:varchar(50);not null" json:"batch_no"`
	ExpiryDate   *time.Time      `gorm:"type:date" json:"expiry_date"`
	Packs        int             `gorm:"type:int;not null;default:0" json:"packs"`
	UnitsPerPack int             `gorm:"type:int;not null;default:1" json:"units_per_pack"`
	LooseUnits   decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0" json:"loose_units"`
	CreatedAt    time.Time       `json:"created_at"`
}
