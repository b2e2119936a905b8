package handler

import (
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"net/http"
	"strconv"
	"time"
	"video-tracker/constant"
	"video-tracker/dto"
	"video-tracker/service"
)

type HTTPHandler struct {
	Progress service.ProgressService
	Reports  service.ReportService
	Exports  service.ExportService
}

type Middlewares struct {
	Logger       gin.HandlerFunc
	Authenticate gin.HandlerFunc
	RequireAdmin gin.HandlerFunc
	RateLimit    gin.HandlerFunc
}

func (h *HTTPHandler) Register(r gin.IRouter, mw Middlewares) {
	api := r.Group("/api", mw.Logger, mw.Authenticate)
	if mw.RateLimit != nil {
		api.POST("/progress", mw.RateLimit, h.SaveProgress)
	} else {
		api.POST("/progress", h.SaveProgress)
	}

	admin := api.Group("/admin", mw.RequireAdmin)
	admin.GET("/records", h.ListRecords)
	admin.GET("/records/:id", h.GetRecord)
	admin.PUT("/records/:id", h.UpdateRecord)
	admin.DELETE("/records/:id", h.DeleteRecord)
	admin.GET("/export", h.Export)
	admin.POST("/exports", h.CreateExport)
	admin.GET("/exports/:id", h.GetExport)
	admin.GET("/debug", h.Debug)
}

func (h *HTTPHandler) SaveProgress(c *gin.Context) {
	var sample dto.ProgressSample
	if err := c.ShouldBind(&sample); err != nil {
		abortWithError(c, fmt.Errorf("%w: %s", service.ErrValidation, err.Error()))
		return
	}

	result, err := h.Progress.SaveProgress(c.Request.Context(), currentUserID(c), sample)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Progress saved",
		"status":       result.Status,
		"status_label": result.Status.Label(),
		"video_id":     result.VideoID,
		"stale":        result.Stale,
	})
}

func (h *HTTPHandler) ListRecords(c *gin.Context) {
	filter, err := bindFilter(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	rows, err := h.Reports.Query(c.Request.Context(), filter, constant.ReportDisplayLimit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rows,
	})
}

func (h *HTTPHandler) GetRecord(c *gin.Context) {
	id, err := recordID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	row, err := h.Reports.GetRecord(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    row,
	})
}

func (h *HTTPHandler) UpdateRecord(c *gin.Context) {
	id, err := recordID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var req dto.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %s", service.ErrValidation, err.Error()))
		return
	}

	record, err := h.Reports.UpdateRecord(c.Request.Context(), id, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Record updated successfully",
		"data":    record,
	})
}

func (h *HTTPHandler) DeleteRecord(c *gin.Context) {
	id, err := recordID(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := h.Reports.DeleteRecord(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Record deleted successfully",
	})
}

// Export streams the whole filtered report in the requested format.
func (h *HTTPHandler) Export(c *gin.Context) {
	format := constant.ExportFormat(c.DefaultQuery("format", string(constant.ExportFormatCSV)))
	if !format.Valid() {
		abortWithError(c, fmt.Errorf("%w: unknown export format %q", service.ErrValidation, format))
		return
	}
	filter, err := bindFilter(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	fileName := fmt.Sprintf("video-watch-report-%s.%s", time.Now().Format("2006-01-02"), format.Extension())
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Status(http.StatusOK)

	if _, err := h.Reports.Export(c.Request.Context(), c.Writer, format, filter); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("export aborted mid stream")
		_ = c.Error(err)
	}
}

func (h *HTTPHandler) CreateExport(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %s", service.ErrValidation, err.Error()))
		return
	}

	job, err := h.Exports.CreateExport(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    job,
	})
}

func (h *HTTPHandler) GetExport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: invalid job id", service.ErrValidation))
		return
	}

	job, err := h.Exports.GetExport(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    job,
	})
}

func (h *HTTPHandler) Debug(c *gin.Context) {
	info, err := h.Reports.DebugInfo(c.Request.Context(), currentUserID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    info,
	})
}

func bindFilter(c *gin.Context) (dto.ReportFilter, error) {
	var filter dto.ReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		return filter, fmt.Errorf("%w: %s", service.ErrValidation, err.Error())
	}

	raw := c.DefaultQuery("filter_status", "-1")
	status, err := strconv.Atoi(raw)
	if err != nil {
		return filter, fmt.Errorf("%w: invalid filter_status %q", service.ErrValidation, raw)
	}
	if status >= 0 {
		s := constant.WatchStatus(status)
		filter.Status = &s
	}

	return filter, nil
}

func recordID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid record id", service.ErrValidation)
	}
	return id, nil
}

func abortWithError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	message := "Internal server error"
	switch {
	case errors.Is(err, service.ErrValidation):
		code, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		code, message = http.StatusUnauthorized, "User not logged in"
	case errors.Is(err, service.ErrForbidden):
		code, message = http.StatusForbidden, "Access denied"
	case errors.Is(err, service.ErrNotFound):
		code, message = http.StatusNotFound, "Record not found"
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
	}

	c.AbortWithStatusJSON(code, gin.H{
		"success": false,
		"message": message,
	})
}
