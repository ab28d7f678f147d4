package dto

import (
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one line of a journal entry to be created. Exactly one
// of Debit/Credit must be nonzero; the service enforces this beyond binding.
type JournalLineRequest struct {
	AccountID string          `json:"accountID" binding:"required"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Notes     string          `json:"notes"`
}

// CreateJournalRequest defines the payload for creating a journal entry.
// Manually created entries default to DRAFT pending approval; system flows
// post directly.
type CreateJournalRequest struct {
	Date      time.Time            `json:"date" binding:"required"`
	Narration string               `json:"narration" binding:"required"`
	Reference string               `json:"reference"`
	PostNow   bool                 `json:"postNow"`
	Lines     []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// PostTransactionRequest records one canonical financial action (deposit,
// withdrawal, share purchase, ...) that the posting-rule table maps to a
// balanced two-line journal.
type PostTransactionRequest struct {
	Kind      domain.TransactionKind `json:"kind" binding:"required"`
	Amount    decimal.Decimal        `json:"amount" binding:"required"`
	Date      time.Time              `json:"date" binding:"required"`
	Narration string                 `json:"narration" binding:"required"`
	Reference string                 `json:"reference"`
}

// ReverseJournalRequest carries the mandatory reversal reason.
type ReverseJournalRequest struct {
	Reason string `json:"reason" binding:"required,min=10"`
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID    string          `json:"lineID"`
	AccountID string          `json:"accountID"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Notes     string          `json:"notes,omitempty"`
}

// JournalResponse defines the data returned for a journal entry.
type JournalResponse struct {
	JournalID      string                `json:"journalID"`
	EntryNumber    string                `json:"entryNumber"`
	Date           time.Time             `json:"date"`
	Narration      string                `json:"narration"`
	Reference      string                `json:"reference,omitempty"`
	Status         domain.JournalStatus  `json:"status"`
	Amount         decimal.Decimal       `json:"amount"`
	ReversalReason string                `json:"reversalReason,omitempty"`
	Lines          []JournalLineResponse `json:"lines,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	CreatedBy      string                `json:"createdBy"`
}

// ListJournalsParams holds parameters for listing journals.
type ListJournalsParams struct {
	Limit            int
	NextToken        *string
	IncludeReversals bool
}

// ListJournalsResponse is a page of journals with the token for the next page.
type ListJournalsResponse struct {
	Journals  []JournalResponse `json:"journals"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToJournalLineResponse converts a domain.JournalLine to its DTO.
func ToJournalLineResponse(l *domain.JournalLine) JournalLineResponse {
	return JournalLineResponse{
		LineID:    l.LineID,
		AccountID: l.AccountID,
		Debit:     l.Debit,
		Credit:    l.Credit,
		Notes:     l.Notes,
	}
}

// ToJournalResponse converts a domain.Journal (with any loaded lines) to its DTO.
func ToJournalResponse(j *domain.Journal) JournalResponse {
	resp := JournalResponse{
		JournalID:      j.JournalID,
		EntryNumber:    j.EntryNumber,
		Date:           j.JournalDate,
		Narration:      j.Narration,
		Reference:      j.Reference,
		Status:         j.Status,
		Amount:         j.Amount,
		ReversalReason: j.ReversalReason,
		CreatedAt:      j.CreatedAt,
		CreatedBy:      j.CreatedBy,
	}
	if len(j.Lines) > 0 {
		resp.Lines = make([]JournalLineResponse, len(j.Lines))
		for i := range j.Lines {
			resp.Lines[i] = ToJournalLineResponse(&j.Lines[i])
		}
	}
	return resp
}
