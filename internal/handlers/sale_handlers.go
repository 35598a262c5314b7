package handlers

import (
	"errors"
	"net/http"

	"tour_sales_backend/internal/middleware"
	"tour_sales_backend/internal/models"
	"tour_sales_backend/internal/services"
	"tour_sales_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler holds the ledger service.
type SaleHandler struct {
	ledgerService services.LedgerService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(ls services.LedgerService) *SaleHandler {
	return &SaleHandler{ledgerService: ls}
}

// batchIDFromPath builds the structured batch identifier from the
// /:source/:id path segments.
func batchIDFromPath(c *gin.Context) (models.BatchID, bool) {
	source := models.BatchSource(c.Param("source"))
	if source != models.BatchSourceGenerated && source != models.BatchSourceImported {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid batch source; expected 'generated' or 'imported'.", string(source)))
		return models.BatchID{}, false
	}
	value := c.Param("id")
	if value == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Batch ID is required.", ""))
		return models.BatchID{}, false
	}
	return models.BatchID{Source: source, Value: value}, true
}

func callerOrAbort(c *gin.Context) (models.Caller, bool) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing caller in context"))
	}
	return caller, ok
}

// CreateBatch records a new sale batch.
func (h *SaleHandler) CreateBatch(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req services.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	batch, err := h.ledgerService.CreateBatch(caller, req)
	if err != nil {
		utils.LogError(err, "CreateBatch: Error from ledgerService.CreateBatch")
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// GetBatches lists sale batches with optional filters and pagination.
func (h *SaleHandler) GetBatches(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var filters models.SaleFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters: "+err.Error(), err.Error()))
		return
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	batches, totalCount, err := h.ledgerService.GetBatches(caller, filters)
	if err != nil {
		utils.LogError(err, "GetBatches: Error from ledgerService.GetBatches")
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": batches, "total_count": totalCount})
}

// GetBatch retrieves one sale batch with all its lines.
func (h *SaleHandler) GetBatch(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	batchID, ok := batchIDFromPath(c)
	if !ok {
		return
	}

	batch, err := h.ledgerService.GetBatch(caller, batchID)
	if err != nil {
		utils.LogError(err, "GetBatch: Error from ledgerService.GetBatch")
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// UpdateBatch replaces a batch's lines with the proposed set.
func (h *SaleHandler) UpdateBatch(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	batchID, ok := batchIDFromPath(c)
	if !ok {
		return
	}

	var req struct {
		Lines []services.ProposedLine `json:"lines" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	batch, err := h.ledgerService.UpdateBatch(caller, batchID, req.Lines)
	if err != nil {
		utils.LogError(err, "UpdateBatch: Error from ledgerService.UpdateBatch")
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// VoidBatch cancels a batch and restores its inventory.
func (h *SaleHandler) VoidBatch(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	batchID, ok := batchIDFromPath(c)
	if !ok {
		return
	}

	var req struct {
		Reason *string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
			return
		}
	}

	if err := h.ledgerService.VoidBatch(caller, batchID, req.Reason); err != nil {
		utils.LogError(err, "VoidBatch: Error from ledgerService.VoidBatch")
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Batch voided successfully"})
}

// DeleteBatch permanently removes an already-voided batch.
func (h *SaleHandler) DeleteBatch(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	batchID, ok := batchIDFromPath(c)
	if !ok {
		return
	}

	if err := h.ledgerService.DeleteBatch(caller, batchID); err != nil {
		utils.LogError(err, "DeleteBatch: Error from ledgerService.DeleteBatch")
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Batch deleted successfully"})
}

// UpdatePayment updates the paid flag and payment amounts on a batch.
func (h *SaleHandler) UpdatePayment(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	batchID, ok := batchIDFromPath(c)
	if !ok {
		return
	}

	var req services.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	if err := h.ledgerService.UpdatePayment(caller, batchID, req); err != nil {
		utils.LogError(err, "UpdatePayment: Error from ledgerService.UpdatePayment")
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment updated successfully"})
}

// GetStockMovements lists the audit trail of stock/sold counter changes.
func (h *SaleHandler) GetStockMovements(c *gin.Context) {
	var filters models.MovementFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters: "+err.Error(), err.Error()))
		return
	}

	movements, totalCount, err := h.ledgerService.GetStockMovements(filters)
	if err != nil {
		utils.LogError(err, "GetStockMovements: Error from ledgerService.GetStockMovements")
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": movements, "total_count": totalCount})
}

func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrBatchNotFound), errors.Is(err, services.ErrTourNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), err.Error()))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, err.Error(), err.Error()))
	case errors.Is(err, services.ErrBatchVoided), errors.Is(err, services.ErrBatchNotVoided):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
	case errors.Is(err, services.ErrForbidden):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You do not have access to this batch.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Ledger operation failed.", "Internal error"))
	}
}
