package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	app "github.com/mohammadpnp/csv-import/internal/application/importer"
)

type ImportHandler struct {
	enqueue app.EnqueueImport
	getJob  app.GetImportJob
}

type enqueueImportRequest struct {
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	FileName       string `json:"file_name"`
	FilePath       string `json:"file_path"`
	ImportType     string `json:"import_type"`
	TargetID       string `json:"target_id"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func NewImportHandler(enqueue app.EnqueueImport, getJob app.GetImportJob) *ImportHandler {
	return &ImportHandler{enqueue: enqueue, getJob: getJob}
}

func (h *ImportHandler) EnqueueImport(c echo.Context) error {
	var req enqueueImportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "invalid request body",
		}})
	}

	out, err := h.enqueue.Execute(c.Request().Context(), app.EnqueueImportInput{
		OrganizationID: req.OrganizationID,
		UserID:         req.UserID,
		FileName:       req.FileName,
		FilePath:       req.FilePath,
		ImportType:     req.ImportType,
		TargetID:       req.TargetID,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidImportInput) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_import",
				Message: err.Error(),
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to enqueue import job",
		}})
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *ImportHandler) GetImportJob(c echo.Context) error {
	out, err := h.getJob.Execute(c.Request().Context(), app.GetImportJobInput{
		ID: c.Param("id"),
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidImportJob) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_job_id",
				Message: "id must be a valid UUID",
			}})
		}
		if errors.Is(err, app.ErrImportJobNotFound) {
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "not_found",
				Message: "import job not found",
			}})
		}

		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to get import job",
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
