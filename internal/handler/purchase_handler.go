package handler

import (
	"errors"
	"net/http"
	"time"

	"sskerp/internal/ingest"
	"sskerp/internal/middleware"
	"sskerp/internal/model"
	"sskerp/internal/service"
	"sskerp/pkg/pagination"
	"sskerp/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	uploadService   service.UploadService
	confirmService  service.ConfirmService
	registerService service.RegisterService
}

func NewPurchaseHandler(
	uploadService service.UploadService,
	confirmService service.ConfirmService,
	registerService service.RegisterService,
) *PurchaseHandler {
	return &PurchaseHandler{
		uploadService:   uploadService,
		confirmService:  confirmService,
		registerService: registerService,
	}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleOperator)

	purchases := router.Group("/api/purchases")
	{
		purchases.POST("/uploads", staff, h.UploadInvoice)
		purchases.GET("/uploads/:id", staff, h.GetBatch)
		purchases.POST("/uploads/:id/confirm", staff, h.ConfirmBatch)
		purchases.GET("", staff, h.ListPurchases)
		purchases.GET("/register", staff, h.GetRegister)
		purchases.GET("/:id", staff, h.GetPurchase)
	}
}

// UploadInvoice stages a supplier invoice spreadsheet for review
// @Summary      Upload supplier invoice
// @Description  Parses an uploaded spreadsheet (.xlsx/.xlsm/.csv) and stages the extracted lines. Any previous unconfirmed batch by the same operator is superseded.
// @Tags         purchases
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file         formData  file    true   "Invoice spreadsheet"
// @Param        supplier_id  formData  string  true   "Supplier UUID"
// @Param        order_no     formData  string  false  "Purchase order number"
// @Success      201  {object}  response.Response{data=service.BatchResponse}
// @Failure      400  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/purchases/uploads [post]
func (h *PurchaseHandler) UploadInvoice(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file upload: "+err.Error()))
		return
	}
	supplierID := c.PostForm("supplier_id")
	if supplierID == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "supplier_id is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to read uploaded file: "+err.Error()))
		return
	}
	defer file.Close()

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	batch, err := h.uploadService.Upload(c.Request.Context(), userIDStr, service.UploadRequest{
		SupplierID: supplierID,
		OrderNo:    c.PostForm("order_no"),
		FileName:   fileHeader.Filename,
		File:       file,
	})
	if err != nil {
		status := http.StatusBadRequest
		var unsupported *ingest.UnsupportedFileError
		var mapErr *ingest.MappingError
		if errors.Is(err, ingest.ErrHeaderNotFound) || errors.As(err, &unsupported) || errors.As(err, &mapErr) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, batch))
}

// GetBatch returns a staged batch with its extracted lines
// @Summary      Get staged batch
// @Description  Retrieves a staged upload batch and its reconstructed invoice lines
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Batch ID"
// @Success      200  {object}  response.Response{data=service.BatchResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/uploads/{id} [get]
func (h *PurchaseHandler) GetBatch(c *gin.Context) {
	batch, err := h.uploadService.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, batch))
}

// ConfirmBatch commits a staged batch to the purchase ledger
// @Summary      Confirm staged batch
// @Description  Maps staged lines to catalog items and packing units, recomputes tax from the canonical rate table and commits the batch atomically to the ledger
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Batch ID"
// @Param        payload  body      service.ConfirmRequest  true  "Line selections"
// @Success      201      {object}  response.Response{data=service.PurchaseResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/purchases/uploads/{id}/confirm [post]
func (h *PurchaseHandler) ConfirmBatch(c *gin.Context) {
	var req service.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)

	purchase, err := h.confirmService.Confirm(c.Request.Context(), userIDStr, c.Param("id"), req.Selections)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrDuplicateInvoice) {
			status = http.StatusConflict
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, purchase))
}

// ListPurchases returns a paginated list of committed purchases
// @Summary      List purchases
// @Description  Retrieves committed purchase documents, optionally filtered by supplier and invoice number
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        supplier_id  query     string  false  "Filter by supplier UUID"
// @Param        invoice_no   query     string  false  "Filter by invoice number (partial match)"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/purchases [get]
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	p := pagination.Parse(c)

	purchases, total, err := h.registerService.ListPurchases(c.Request.Context(), service.PurchaseListQuery{
		SupplierID: c.Query("supplier_id"),
		InvoiceNo:  c.Query("invoice_no"),
		Page:       p.Page,
		Limit:      p.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"purchases": purchases,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	}))
}

// GetPurchase returns one committed purchase with lines and batch rows
// @Summary      Get purchase
// @Description  Retrieves a committed purchase document with its detail lines and batch sub-details
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  response.Response{data=service.PurchaseDetailResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.registerService.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, purchase))
}

// GetRegister returns purchase register totals grouped by period
// @Summary      Get purchase register
// @Description  Returns committed purchase totals grouped by time period
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        group_by    query     string  false  "Group by period: week, month, quarter, year (default: month)"
// @Param        start_date  query     string  false  "Start date (RFC3339)"
// @Param        end_date    query     string  false  "End date (RFC3339)"
// @Success      200  {object}  response.Response{data=[]service.RegisterDataPoint}
// @Failure      500  {object}  response.Response
// @Router       /api/purchases/register [get]
func (h *PurchaseHandler) GetRegister(c *gin.Context) {
	groupBy := c.DefaultQuery("group_by", "month")
	startDateStr := c.Query("start_date")
	endDateStr := c.Query("end_date")

	// Default to current month
	now := time.Now()
	if startDateStr == "" {
		startDateStr = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(time.RFC3339)
	}
	if endDateStr == "" {
		endDateStr = now.Format(time.RFC3339)
	}

	data, err := h.registerService.GetRegister(c.Request.Context(), service.RegisterFilter{
		GroupBy:   groupBy,
		StartDate: startDateStr,
		EndDate:   endDateStr,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}
