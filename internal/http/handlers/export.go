package handlers

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/http/response"
	pkgerrors "github.com/yungbote/coursepack/internal/pkg/errors"
	"github.com/yungbote/coursepack/internal/platform/apierr"
	"github.com/yungbote/coursepack/internal/platform/ctxutil"
	"github.com/yungbote/coursepack/internal/platform/logger"
	"github.com/yungbote/coursepack/internal/services"
)

type ExportHandler struct {
	log     *logger.Logger
	exports services.ExportService
}

func NewExportHandler(log *logger.Logger, exports services.ExportService) *ExportHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ExportHandler{log: log.With("handler", "ExportHandler"), exports: exports}
}

// POST /api/courses/:id/export
func (h *ExportHandler) ExportCourse(c *gin.Context) {
	courseID := strings.TrimSpace(c.Param("id"))
	var req export.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	res := h.exports.ExportCourseByID(c.Request.Context(), courseID, req)
	if !res.Success {
		response.RespondAPIError(c, res.Message, exportError(res))
		return
	}
	defer func() {
		if err := os.Remove(res.PackagePath); err != nil && !os.IsNotExist(err) {
			h.log.Warn("Remove served package failed", append(ctxutil.LogFields(c.Request.Context()), "path", res.PackagePath, "error", err)...)
		}
	}()

	h.log.Info("Serving package", append(ctxutil.LogFields(c.Request.Context()),
		"course_id", courseID, "format", req.Format, "filename", res.Filename, "size", res.Size)...)
	c.Header("Content-Type", "application/zip")
	c.FileAttachment(res.PackagePath, res.Filename)
}

// GET /api/export/formats
func (h *ExportHandler) ListFormats(c *gin.Context) {
	formats, err := h.exports.Formats()
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "formats_unavailable", err)
		return
	}
	response.RespondOK(c, gin.H{"formats": formats})
}

// exportError maps a failed result to the HTTP status the client sees.
func exportError(res *export.PackageResult) *apierr.Error {
	var (
		verr *export.ValidationError
		ferr *export.UnsupportedFormatError
		out  *apierr.Error
	)
	switch {
	case errors.As(res.Err, &ferr):
		out = apierr.New(http.StatusBadRequest, "unsupported_format", res.Err)
	case errors.As(res.Err, &verr):
		out = apierr.New(http.StatusBadRequest, "validation_failed", res.Err)
	case errors.Is(res.Err, pkgerrors.ErrInvalidArgument):
		out = apierr.New(http.StatusBadRequest, "invalid_request", res.Err)
	case errors.Is(res.Err, pkgerrors.ErrNotFound):
		out = apierr.New(http.StatusNotFound, "course_not_found", res.Err)
	default:
		out = apierr.New(http.StatusInternalServerError, "export_failed", res.Err)
	}
	return out.WithDetails(res.Errors)
}
