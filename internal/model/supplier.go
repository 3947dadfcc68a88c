package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier is the counterparty an invoice sheet is received from.
// Master-data maintenance lives outside the ingestion pipeline; this
// table is read-only here.
type Supplier struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	GSTIN     string         `gorm:"type:varchar(20)" json:"gstin"`
	StateCode string         `gorm:"type:varchar(5);not null" json:"state_code"` // 2-digit GST state code, e.g. "33"
	City      string         `gorm:"type:varchar(100)" json:"city"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
