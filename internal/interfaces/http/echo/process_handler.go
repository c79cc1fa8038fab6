package echo

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	app "github.com/mohammadpnp/csv-import/internal/application/importer"
)

type jobProcessor interface {
	Process(ctx context.Context, jobID string) (app.ProcessResult, error)
}

// ProcessHandler runs one import job synchronously. Callers follow progress on
// the job record; the response only carries the final counters.
type ProcessHandler struct {
	processor jobProcessor
}

type processImportRequest struct {
	ImportJobID string `json:"importJobId"`
}

type processSuccess struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
	Errors    int  `json:"errors"`
}

type processFailure struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewProcessHandler(processor jobProcessor) *ProcessHandler {
	return &ProcessHandler{processor: processor}
}

func (h *ProcessHandler) ProcessImport(c echo.Context) error {
	var req processImportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, processFailure{
			Error:   "Invalid request",
			Message: "invalid request body",
		})
	}
	jobID := strings.TrimSpace(req.ImportJobID)
	if jobID == "" {
		return c.JSON(http.StatusBadRequest, processFailure{
			Error:   "Invalid request",
			Message: "importJobId is required",
		})
	}

	// A disconnecting caller must not abort the job half way.
	ctx := context.WithoutCancel(c.Request().Context())
	result, err := h.processor.Process(ctx, jobID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, processFailure{
			Error:   "Processing failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, processSuccess{
		Success:   true,
		Processed: result.Processed,
		Errors:    result.Errors,
	})
}
