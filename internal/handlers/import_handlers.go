package handlers

import (
	"errors"
	"net/http"

	"tour_sales_backend/internal/services"
	"tour_sales_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// maxImportFileSize caps uploads at 20 MiB; real export files are far smaller.
const maxImportFileSize = 20 << 20

// ImportHandler holds the import service.
type ImportHandler struct {
	importService services.ImportService
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(is services.ImportService) *ImportHandler {
	return &ImportHandler{importService: is}
}

// ImportSales ingests an uploaded CSV or XLSX sales export. The response is
// always 200 with a summary; row-level failures are reported inside it rather
// than failing the whole upload.
func (h *ImportHandler) ImportSales(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Request must include a 'file' form field.", err.Error()))
		return
	}
	if fileHeader.Size > maxImportFileSize {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "File is too large.", ""))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.LogError(err, "ImportSales: Failed to open uploaded file")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Could not read uploaded file.", err.Error()))
		return
	}
	defer file.Close()

	summary, err := h.importService.ImportFile(caller, file, fileHeader.Filename)
	if err != nil {
		utils.LogError(err, "ImportSales: Error from importService.ImportFile")
		if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Import failed.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, summary)
}
