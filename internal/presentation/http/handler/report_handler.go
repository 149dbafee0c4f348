package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/bookshop-pos/internal/application/service"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/response"
)

// ReportHandler handles sales reports and the dashboard
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Report returns the sales report for a period
// @Summary Sales Report
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Param type path string true "daily, weekly, monthly or yearly"
// @Success 200 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /reports/{type} [get]
func (h *ReportHandler) Report(c *gin.Context) {
	period, err := service.ParseReportPeriod(c.Param("type"))
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.reportService.Report(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Report generated successfully", report)
}

// Dashboard returns today's figures and the seven day trend
// @Summary Dashboard
// @Tags reports
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	stats, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Dashboard retrieved successfully", stats)
}
