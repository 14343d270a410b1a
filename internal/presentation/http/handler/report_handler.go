package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sweetcrumb/bakebill-api/internal/application/service"
	"github.com/sweetcrumb/bakebill-api/internal/presentation/http/dto/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles revenue reporting requests
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Revenue handles the daily revenue report, defaulting to the last 30 days
func (h *ReportHandler) Revenue(c *gin.Context) {
	start, end, ok := parseDateRange(c)
	if !ok {
		response.BadRequest(c, "Dates must be in YYYY-MM-DD format")
		return
	}

	report, err := h.reportService.Revenue(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Revenue report retrieved successfully", report)
}

// ExportRevenue streams the revenue report as an xlsx download
func (h *ReportHandler) ExportRevenue(c *gin.Context) {
	start, end, ok := parseDateRange(c)
	if !ok {
		response.BadRequest(c, "Dates must be in YYYY-MM-DD format")
		return
	}

	data, filename, err := h.reportService.ExportRevenueXLSX(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, xlsxContentType, data)
}
