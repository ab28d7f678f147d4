package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/coopledger/coopledger/internal/apperrors"
	portssvc "github.com/coopledger/coopledger/internal/core/ports/services"
	"github.com/coopledger/coopledger/internal/dto"
	"github.com/coopledger/coopledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests related to journals.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(js portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: js}
}

// registerJournalRoutes registers routes related to journals.
func registerJournalRoutes(rg *gin.RouterGroup, js portssvc.JournalSvcFacade) {
	h := newJournalHandler(js)

	journals := rg.Group("/journals")
	{
		journals.POST("", h.createJournal)
		journals.GET("", h.listJournals)
		journals.GET("/:journalID", h.getJournal)
		journals.POST("/:journalID/approve", h.approveJournal)
		journals.POST("/:journalID/reverse", h.reverseJournal)
	}

	rg.POST("/transactions", h.postTransaction)
}

// createJournal validates and persists a manual journal entry.
func (h *journalHandler) createJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateJournal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID := middleware.GetActorFromContext(c.Request.Context())

	journal, err := h.journalService.PostJournalEntry(c.Request.Context(), req, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error creating journal", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create journal", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create journal"})
		}
		return
	}

	logger.Info("Journal created", slog.String("journal_id", journal.JournalID), slog.String("entry_number", journal.EntryNumber))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

// postTransaction records a canonical financial action through the fixed
// posting-rule table.
func (h *journalHandler) postTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID := middleware.GetActorFromContext(c.Request.Context())

	journal, err := h.journalService.PostMappedTransaction(c.Request.Context(), req.Kind, req.Amount, req.Date, req.Narration, req.Reference, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error posting transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to post transaction", slog.String("error", err.Error()), slog.String("kind", string(req.Kind)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post transaction"})
		return
	}

	logger.Info("Transaction posted", slog.String("journal_id", journal.JournalID), slog.String("kind", string(req.Kind)))
	c.JSON(http.StatusCreated, dto.ToJournalResponse(journal))
}

// getJournal retrieves a journal with its lines.
func (h *journalHandler) getJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	journal, err := h.journalService.GetJournalByID(c.Request.Context(), journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Journal not found"})
			return
		}
		logger.Error("Failed to get journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve journal"})
		return
	}

	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

// listJournals lists journals with token-based pagination.
func (h *journalHandler) listJournals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	params := dto.ListJournalsParams{}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		params.Limit = limit
	}
	if token := c.Query("nextToken"); token != "" {
		params.NextToken = &token
	}
	if raw := c.Query("includeReversals"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid includeReversals parameter"})
			return
		}
		params.IncludeReversals = include
	}

	page, err := h.journalService.ListJournals(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list journals", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list journals"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// approveJournal transitions a DRAFT journal to POSTED.
func (h *journalHandler) approveJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	userID := middleware.GetActorFromContext(c.Request.Context())

	journal, err := h.journalService.ApproveJournal(c.Request.Context(), journalID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Journal not found"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to approve journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve journal"})
		}
		return
	}

	logger.Info("Journal approved", slog.String("journal_id", journalID))
	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

// reverseJournal reverses a journal with a mandatory reason. A POSTED journal
// gets a compensating entry; a DRAFT is reversed in place.
func (h *journalHandler) reverseJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	journalID := c.Param("journalID")

	var req dto.ReverseJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReverseJournal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	userID := middleware.GetActorFromContext(c.Request.Context())

	journal, err := h.journalService.ReverseJournal(c.Request.Context(), journalID, req.Reason, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Journal not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to reverse journal", slog.String("error", err.Error()), slog.String("journal_id", journalID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse journal"})
		}
		return
	}

	logger.Info("Journal reversed", slog.String("journal_id", journalID), slog.String("reversing_journal_id", journal.JournalID))
	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}
