package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coopledger/coopledger/internal/apperrors"
	"github.com/coopledger/coopledger/internal/core/domain"
	portssvc "github.com/coopledger/coopledger/internal/core/ports/services"
	"github.com/coopledger/coopledger/internal/core/services"
	"github.com/coopledger/coopledger/internal/dto"
	"github.com/coopledger/coopledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// loanHandler handles HTTP requests for the loan lifecycle.
type loanHandler struct {
	loanService portssvc.LoanSvcFacade
}

// newLoanHandler creates a new loanHandler.
func newLoanHandler(ls portssvc.LoanSvcFacade) *loanHandler {
	return &loanHandler{loanService: ls}
}

// registerLoanRoutes registers routes related to loans.
func registerLoanRoutes(rg *gin.RouterGroup, ls portssvc.LoanSvcFacade) {
	h := newLoanHandler(ls)

	loans := rg.Group("/loans")
	{
		loans.POST("", h.disburseLoan)
		loans.GET("", h.listLoans)
		loans.POST("/preview", h.previewSchedule)
		loans.GET("/:loanID", h.getLoan)
		loans.POST("/:loanID/payments", h.recordPayment)
		loans.GET("/:loanID/settlement", h.getSettlementQuote)
		loans.POST("/:loanID/settlement", h.settleLoan)
		loans.POST("/sweep-overdue", h.sweepOverdue)
	}
}

// disburseLoan creates a loan with its schedule and posts the disbursement.
func (h *loanHandler) disburseLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.DisburseLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for DisburseLoan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID := middleware.GetActorFromContext(c.Request.Context())

	loan, err := h.loanService.DisburseLoan(c.Request.Context(), req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error disbursing loan", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to disburse loan", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disburse loan"})
		return
	}

	c.JSON(http.StatusCreated, loan)
}

// previewSchedule computes an amortization schedule without persisting it.
func (h *loanHandler) previewSchedule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.SchedulePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PreviewSchedule", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	schedule, err := h.loanService.PreviewSchedule(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to preview schedule", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute schedule"})
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// getLoan retrieves a loan with its schedule.
func (h *loanHandler) getLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("loanID")

	loan, err := h.loanService.GetLoan(c.Request.Context(), loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
			return
		}
		logger.Error("Failed to get loan", slog.String("error", err.Error()), slog.String("loan_id", loanID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve loan"})
		return
	}

	c.JSON(http.StatusOK, loan)
}

// listLoans lists loans, optionally filtered by ?status=ACTIVE etc.
func (h *loanHandler) listLoans(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var status *domain.LoanStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.LoanStatus(raw)
		switch s {
		case domain.LoanActive, domain.LoanClosed, domain.LoanDefaulted, domain.LoanWrittenOff:
			status = &s
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status parameter"})
			return
		}
	}

	loans, err := h.loanService.ListLoans(c.Request.Context(), status)
	if err != nil {
		logger.Error("Failed to list loans", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list loans"})
		return
	}

	responses := make([]dto.LoanResponse, len(loans))
	for i := range loans {
		responses[i] = dto.ToLoanResponse(&loans[i])
	}
	c.JSON(http.StatusOK, gin.H{"loans": responses})
}

// recordPayment runs the repayment waterfall for an incoming payment.
func (h *loanHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("loanID")

	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID := middleware.GetActorFromContext(c.Request.Context())

	result, err := h.loanService.AllocatePayment(c.Request.Context(), loanID, req, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
		case errors.Is(err, services.ErrOverpayment), errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Payment rejected", slog.String("error", err.Error()), slog.String("loan_id", loanID))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrLoanNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to record payment", slog.String("error", err.Error()), slog.String("loan_id", loanID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// getSettlementQuote prices an early payoff as of ?asOf=YYYY-MM-DD (default today).
func (h *loanHandler) getSettlementQuote(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("loanID")

	asOf := time.Now().UTC()
	if parsed, ok := parseOptionalDate(c, "asOf"); !ok {
		return
	} else if parsed != nil {
		asOf = *parsed
	}

	quote, err := h.loanService.CalculateSettlement(c.Request.Context(), loanID, asOf)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
		case errors.Is(err, services.ErrLoanNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to calculate settlement", slog.String("error", err.Error()), slog.String("loan_id", loanID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate settlement"})
		}
		return
	}

	c.JSON(http.StatusOK, quote)
}

// settleLoan executes an early settlement against a previously issued quote.
func (h *loanHandler) settleLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("loanID")

	var req dto.SettleLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SettleLoan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID := middleware.GetActorFromContext(c.Request.Context())

	payment, err := h.loanService.SettleLoan(c.Request.Context(), loanID, req.Quote, req.PaymentDate, req.Reference, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrLoanNotActive), errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to settle loan", slog.String("error", err.Error()), slog.String("loan_id", loanID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to settle loan"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment))
}

// sweepOverdue flips past-due open installments to OVERDUE as of
// ?asOf=YYYY-MM-DD (default today).
func (h *loanHandler) sweepOverdue(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf := time.Now().UTC()
	if parsed, ok := parseOptionalDate(c, "asOf"); !ok {
		return
	} else if parsed != nil {
		asOf = *parsed
	}

	count, err := h.loanService.MarkOverdueInstallments(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to sweep overdue installments", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark overdue installments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"markedOverdue": count})
}
