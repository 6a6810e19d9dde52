package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aviadkim/statement-reconciler/dto"
	"github.com/aviadkim/statement-reconciler/service"
)

type StatementHandler struct {
	extractionService *service.ExtractionService
}

func NewStatementHandler(extractionService *service.ExtractionService) *StatementHandler {
	return &StatementHandler{
		extractionService: extractionService,
	}
}

// ExtractStatement handles the POST /statements/extract endpoint. It
// accepts either a multipart PDF upload (field "file", optional "metadata"
// JSON carrying reference total, corrections and password) or a JSON body
// with raw text, pages or table rows. The only hard failure is a malformed
// input shape; everything else resolves to a report.
func (h *StatementHandler) ExtractStatement(c *gin.Context) {
	slog.Info("received statement extraction request")

	if fileHeader, err := c.FormFile("file"); err == nil {
		h.extractFromUpload(c, fileHeader)
		return
	}

	var request dto.ExtractionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "Request body is neither a file upload nor valid JSON", err)
		return
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	report, err := h.extractionService.Process(c.Request.Context(), request.Document(), buildOptions(&request))
	if err != nil {
		h.sendProcessError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *StatementHandler) extractFromUpload(c *gin.Context, fileHeader *multipart.FileHeader) {
	file, err := fileHeader.Open()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	pdfBytes, err := io.ReadAll(file)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}

	// Optional metadata rides in a form field next to the file.
	var request dto.ExtractionRequest
	if metadata := c.PostForm("metadata"); metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &request); err != nil {
			h.sendError(c, http.StatusBadRequest, "Invalid metadata JSON", err)
			return
		}
	}

	slog.Info("processing uploaded statement", "filename", fileHeader.Filename, "size", fileHeader.Size)

	report, err := h.extractionService.ProcessPDF(c.Request.Context(), pdfBytes, request.Password, buildOptions(&request))
	if err != nil {
		h.sendProcessError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *StatementHandler) sendProcessError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, dto.ErrNoInput) {
		status = http.StatusBadRequest
	}
	h.sendError(c, status, "Failed to extract statement", err)
}

func buildOptions(request *dto.ExtractionRequest) dto.ExtractionOptions {
	opts := dto.DefaultExtractionOptions()
	opts.ReferenceTotal = request.ReferenceTotal
	opts.KnownCorrections = request.Corrections
	return opts
}

// sendError sends a structured error response
func (h *StatementHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		slog.Error("request failed", "message", message, "error", err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "EXTRACTION_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
