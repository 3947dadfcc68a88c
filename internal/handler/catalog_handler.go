package handler

import (
	"net/http"

	"sskerp/internal/middleware"
	"sskerp/internal/model"
	"sskerp/internal/service"
	"sskerp/pkg/pagination"
	"sskerp/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleOperator)

	catalog := router.Group("/api/catalog")
	{
		catalog.GET("/items", staff, h.SearchItems)
		catalog.GET("/packing-units", staff, h.ListPackingUnits)
	}

	router.GET("/api/tax-rates", staff, h.ListTaxRates)
	router.GET("/api/suppliers", staff, h.ListSuppliers)
}

// SearchItems searches the item catalog by name or code
// @Summary      Search catalog items
// @Description  Retrieves active catalog items matching the search term, with their tax class
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Match against item name or code"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/catalog/items [get]
func (h *CatalogHandler) SearchItems(c *gin.Context) {
	p := pagination.Parse(c)

	items, total, err := h.catalogService.SearchItems(c.Request.Context(), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// ListPackingUnits lists the configured packing units
// @Summary      List packing units
// @Description  Retrieves every packing unit with its units-per-pack factor
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.PackingUnitResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/catalog/packing-units [get]
func (h *CatalogHandler) ListPackingUnits(c *gin.Context) {
	units, err := h.catalogService.ListPackingUnits(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, units))
}

// ListTaxRates lists the canonical GST rate table
// @Summary      List tax rates
// @Description  Retrieves every tax class with its CGST/SGST/IGST percentages
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.TaxRateResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/tax-rates [get]
func (h *CatalogHandler) ListTaxRates(c *gin.Context) {
	rates, err := h.catalogService.ListTaxRates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rates))
}

// ListSuppliers lists active suppliers
// @Summary      List suppliers
// @Description  Retrieves active suppliers matching the search term
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Match against supplier name or code"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/suppliers [get]
func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	p := pagination.Parse(c)

	suppliers, total, err := h.catalogService.ListSuppliers(c.Request.Context(), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"suppliers": suppliers,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	}))
}
