package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coopledger/coopledger/internal/apperrors"
	portssvc "github.com/coopledger/coopledger/internal/core/ports/services"
	"github.com/coopledger/coopledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles HTTP requests for financial reports and portfolio
// metrics.
type reportingHandler struct {
	reportingService portssvc.ReportingService
	portfolioService portssvc.PortfolioService
}

// newReportingHandler creates a new reportingHandler.
func newReportingHandler(rs portssvc.ReportingService, ps portssvc.PortfolioService) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
		portfolioService: ps,
	}
}

// registerReportingRoutes registers routes related to reports.
func registerReportingRoutes(rg *gin.RouterGroup, rs portssvc.ReportingService, ps portssvc.PortfolioService) {
	h := newReportingHandler(rs, ps)

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance", h.getTrialBalance)
		reports.GET("/income-statement", h.getIncomeStatement)
		reports.GET("/balance-sheet", h.getBalanceSheet)
		reports.GET("/general-ledger/:accountID", h.getGeneralLedger)
	}

	rg.GET("/portfolio/metrics", h.getPortfolioMetrics)
}

// asOfOrToday reads an optional ?asOf date, defaulting to now.
func asOfOrToday(c *gin.Context) (time.Time, bool) {
	parsed, ok := parseOptionalDate(c, "asOf")
	if !ok {
		return time.Time{}, false
	}
	if parsed != nil {
		return *parsed, true
	}
	return time.Now().UTC(), true
}

// requiredPeriod reads mandatory ?from and ?to dates.
func requiredPeriod(c *gin.Context) (time.Time, time.Time, bool) {
	from, ok := parseOptionalDate(c, "from")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok := parseOptionalDate(c, "to")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	if from == nil || to == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both from and to dates are required"})
		return time.Time{}, time.Time{}, false
	}
	return *from, *to, true
}

// getTrialBalance returns the trial balance as of a date.
func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf, ok := asOfOrToday(c)
	if !ok {
		return
	}

	report, err := h.reportingService.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to generate trial balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate trial balance"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// getIncomeStatement returns the income statement over ?from/?to.
func (h *reportingHandler) getIncomeStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	from, to, ok := requiredPeriod(c)
	if !ok {
		return
	}

	report, err := h.reportingService.IncomeStatement(c.Request.Context(), from, to)
	if err != nil {
		logger.Error("Failed to generate income statement", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate income statement"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// getBalanceSheet returns the balance sheet as of a date.
func (h *reportingHandler) getBalanceSheet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf, ok := asOfOrToday(c)
	if !ok {
		return
	}

	report, err := h.reportingService.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to generate balance sheet", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate balance sheet"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// getGeneralLedger returns one account's ledger over ?from/?to.
func (h *reportingHandler) getGeneralLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	from, to, ok := requiredPeriod(c)
	if !ok {
		return
	}

	report, err := h.reportingService.GeneralLedger(c.Request.Context(), accountID, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		logger.Error("Failed to generate general ledger", slog.String("error", err.Error()), slog.String("account_id", accountID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate general ledger"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// getPortfolioMetrics returns PAR buckets and collection efficiency.
func (h *reportingHandler) getPortfolioMetrics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	metrics, err := h.portfolioService.PortfolioMetrics(c.Request.Context(), time.Now().UTC())
	if err != nil {
		logger.Error("Failed to compute portfolio metrics", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute portfolio metrics"})
		return
	}

	c.JSON(http.StatusOK, metrics)
}
