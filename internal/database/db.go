package database

import (
	"log"

	"sskerp/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.AuditLog{},
		&model.Supplier{},
		&model.TaxRate{},
		&model.CatalogItem{},
		&model.PackingUnit{},
		&model.UploadBatch{},
		&model.StagedLine{},
		&model.DocSequence{},
		&model.PurchaseMaster{},
		&model.PurchaseDetail{},
		&model.PurchaseBatch{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
