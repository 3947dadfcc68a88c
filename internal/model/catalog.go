package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxRate stores the percentage for each GST component of one tax class.
// Rates are stored as percentages (18.00 = 18%), not fractions.
type TaxRate struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Class     string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"class"` // e.g. GST18
	CGSTPct   decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"cgst_pct"`
	SGSTPct   decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"sgst_pct"`
	IGSTPct   decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"igst_pct"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CatalogItem is the canonical product record an extracted description
// gets mapped to during confirmation. Read-only to the pipeline.
type CatalogItem struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	PackSize  string         `gorm:"type:varchar(50)" json:"pack_size"` // e.g. "10x10"
	HSNCode   string         `gorm:"type:varchar(20);index" json:"hsn_code"`
	TaxRateID *uuid.UUID     `gorm:"type:uuid;index" json:"tax_rate_id"`
	TaxRate   *TaxRate       `gorm:"foreignKey:TaxRateID" json:"tax_rate,omitempty"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PackingUnit describes how many saleable units one pack of an item holds.
type PackingUnit struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"` // e.g. "1x10"
	UnitsPerPack int       `gorm:"type:int;not null" json:"units_per_pack"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
