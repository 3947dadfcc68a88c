package service

import (
	"context"
	"fmt"

	"sskerp/internal/model"
	"sskerp/internal/repository"
)

// --- DTOs ---

type CatalogItemResponse struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	PackSize string  `json:"pack_size"`
	HSNCode  string  `json:"hsn_code"`
	TaxClass *string `json:"tax_class"`
	CGSTPct  *string `json:"cgst_pct"`
	SGSTPct  *string `json:"sgst_pct"`
	IGSTPct  *string `json:"igst_pct"`
}

type PackingUnitResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UnitsPerPack int    `json:"units_per_pack"`
}

type TaxRateResponse struct {
	ID      string `json:"id"`
	Class   string `json:"class"`
	CGSTPct string `json:"cgst_pct"`
	SGSTPct string `json:"sgst_pct"`
	IGSTPct string `json:"igst_pct"`
}

type SupplierResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	GSTIN     string `json:"gstin"`
	StateCode string `json:"state_code"`
	City      string `json:"city"`
}

// --- Interface ---

// CatalogService exposes the read-only reference data the confirmation
// screen needs: catalog items, packing units, tax rates and suppliers.
type CatalogService interface {
	SearchItems(ctx context.Context, search string, page, limit int) ([]CatalogItemResponse, int64, error)
	ListPackingUnits(ctx context.Context) ([]PackingUnitResponse, error)
	ListTaxRates(ctx context.Context) ([]TaxRateResponse, error)
	ListSuppliers(ctx context.Context, search string, page, limit int) ([]SupplierResponse, int64, error)
}

type catalogService struct {
	catalogRepo  repository.CatalogRepository
	supplierRepo repository.SupplierRepository
}

func NewCatalogService(catalogRepo repository.CatalogRepository, supplierRepo repository.SupplierRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo, supplierRepo: supplierRepo}
}

// --- Implementation ---

func (s *catalogService) SearchItems(ctx context.Context, search string, page, limit int) ([]CatalogItemResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	items, total, err := s.catalogRepo.SearchItems(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search catalog items: %w", err)
	}

	res := make([]CatalogItemResponse, 0, len(items))
	for _, item := range items {
		res = append(res, toCatalogItemResponse(item))
	}
	return res, total, nil
}

func (s *catalogService) ListPackingUnits(ctx context.Context) ([]PackingUnitResponse, error) {
	units, err := s.catalogRepo.ListPackingUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch packing units: %w", err)
	}

	res := make([]PackingUnitResponse, 0, len(units))
	for _, u := range units {
		res = append(res, PackingUnitResponse{
			ID:           u.ID.String(),
			Name:         u.Name,
			UnitsPerPack: u.UnitsPerPack,
		})
	}
	return res, nil
}

func (s *catalogService) ListTaxRates(ctx context.Context) ([]TaxRateResponse, error) {
	rates, err := s.catalogRepo.ListTaxRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tax rates: %w", err)
	}

	res := make([]TaxRateResponse, 0, len(rates))
	for _, r := range rates {
		res = append(res, TaxRateResponse{
			ID:      r.ID.String(),
			Class:   r.Class,
			CGSTPct: r.CGSTPct.StringFixed(2),
			SGSTPct: r.SGSTPct.StringFixed(2),
			IGSTPct: r.IGSTPct.StringFixed(2),
		})
	}
	return res, nil
}

func (s *catalogService) ListSuppliers(ctx context.Context, search string, page, limit int) ([]SupplierResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	suppliers, total, err := s.supplierRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch suppliers: %w", err)
	}

	res := make([]SupplierResponse, 0, len(suppliers))
	for _, sup := range suppliers {
		res = append(res, SupplierResponse{
			ID:        sup.ID.String(),
			Code:      sup.Code,
			Name:      sup.Name,
			GSTIN:     sup.GSTIN,
			StateCode: sup.StateCode,
			City:      sup.City,
		})
	}
	return res, total, nil
}

// --- Mapping ---

func toCatalogItemResponse(item model.CatalogItem) CatalogItemResponse {
	resp := CatalogItemResponse{
		ID:       item.ID.String(),
		Code:     item.Code,
		Name:     item.Name,
		PackSize: item.PackSize,
		HSNCode:  item.HSNCode,
	}
	if item.TaxRate != nil {
		resp.TaxClass = &item.TaxRate.Class
		cgst := item.TaxRate.CGSTPct.StringFixed(2)
		sgst := item.TaxRate.SGSTPct.StringFixed(2)
		igst := item.TaxRate.IGSTPct.StringFixed(2)
		resp.CGSTPct = &cgst
		resp.SGSTPct = &sgst
		resp.IGSTPct = &igst
	}
	return resp
}
