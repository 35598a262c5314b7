package handlers

import (
	"errors"
	"net/http"

	"tour_sales_backend/internal/models"
	"tour_sales_backend/internal/repositories"
	"tour_sales_backend/internal/services"
	"tour_sales_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler holds the catalog service.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// CreateTour handles creation of a catalog tour.
func (h *CatalogHandler) CreateTour(c *gin.Context) {
	var req services.CreateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	tour, err := h.catalogService.CreateTour(req)
	if err != nil {
		utils.LogError(err, "CreateTour: Error from catalogService.CreateTour")
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tour)
}

// GetTours lists catalog tours with optional filters and pagination.
func (h *CatalogHandler) GetTours(c *gin.Context) {
	var filters models.TourFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters: "+err.Error(), err.Error()))
		return
	}

	tours, totalCount, err := h.catalogService.GetTours(filters)
	if err != nil {
		utils.LogError(err, "GetTours: Error from catalogService.GetTours")
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tours, "total_count": totalCount})
}

// GetTourByID retrieves one tour.
func (h *CatalogHandler) GetTourByID(c *gin.Context) {
	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid tour ID format.", err.Error()))
		return
	}

	tour, err := h.catalogService.GetTourByID(id)
	if err != nil {
		utils.LogError(err, "GetTourByID: Error from catalogService.GetTourByID")
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

// UpdateTour updates a tour's descriptive fields.
func (h *CatalogHandler) UpdateTour(c *gin.Context) {
	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid tour ID format.", err.Error()))
		return
	}

	var req services.UpdateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	tour, err := h.catalogService.UpdateTour(id, req)
	if err != nil {
		utils.LogError(err, "UpdateTour: Error from catalogService.UpdateTour")
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

// DeleteTour removes a tour that no sale line references.
func (h *CatalogHandler) DeleteTour(c *gin.Context) {
	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid tour ID format.", err.Error()))
		return
	}

	if err := h.catalogService.DeleteTour(id); err != nil {
		utils.LogError(err, "DeleteTour: Error from catalogService.DeleteTour")
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tour deleted successfully"})
}

// SetStock replaces a tour's remaining stock (-1 makes it unlimited).
func (h *CatalogHandler) SetStock(c *gin.Context) {
	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid tour ID format.", err.Error()))
		return
	}

	var req services.SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	tour, err := h.catalogService.SetStock(id, req.Stock)
	if err != nil {
		utils.LogError(err, "SetStock: Error from catalogService.SetStock")
		respondCatalogError(c, err)
		return
	}
	c.JSON(http.StatusOK, tour)
}

func respondCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Tour not found.", err.Error()))
	case errors.Is(err, repositories.ErrDuplicateKey):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A tour with this name already exists.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Catalog operation failed.", "Internal error"))
	}
}
