package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coopledger/coopledger/internal/apperrors"
	"github.com/coopledger/coopledger/internal/core/domain"
	portsrepo "github.com/coopledger/coopledger/internal/core/ports/repositories"
	portssvc "github.com/coopledger/coopledger/internal/core/ports/services"
	"github.com/coopledger/coopledger/internal/dto"
	"github.com/coopledger/coopledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

var (
	ErrJournalUnbalanced  = errors.New("journal lines do not balance")
	ErrJournalMinLines    = errors.New("journal must have at least two lines")
	ErrJournalMinAccounts = errors.New("journal must affect at least two different accounts")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrUnknownPostingKind = errors.New("unknown transaction kind")
	ErrReversalReason     = errors.New("a reversal reason of at least 10 characters is required")
)

// minReversalReasonLen guards against empty-ish audit trails on reversals.
const minReversalReasonLen = 10

// journalService provides the double-entry posting and balance derivation
// operations.
type journalService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryWithTx
	accountSvc  portssvc.AccountSvcFacade
}

// NewJournalService creates a new JournalService.
func NewJournalService(journalRepo portsrepo.JournalRepositoryWithTx, accountSvc portssvc.AccountSvcFacade) portssvc.JournalSvcFacade {
	return &journalService{
		journalRepo: journalRepo,
		accountSvc:  accountSvc,
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// buildLines converts line requests into domain lines, normalising amounts to
// the currency minor unit.
func buildLines(journalID string, reqs []dto.JournalLineRequest, now time.Time, userID string) []domain.JournalLine {
	lines := make([]domain.JournalLine, len(reqs))
	for i, lr := range reqs {
		lines[i] = domain.JournalLine{
			LineID:    uuid.NewString(),
			JournalID: journalID,
			AccountID: lr.AccountID,
			Debit:     accounting.RoundMoney(lr.Debit),
			Credit:    accounting.RoundMoney(lr.Credit),
			Notes:     lr.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}
	return lines
}

// validateAccounts checks that every referenced account exists and is active.
func (s *journalService) validateAccounts(ctx context.Context, lines []domain.JournalLine) error {
	accountIDs := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountID]; !ok {
			seen[line.AccountID] = struct{}{}
			accountIDs = append(accountIDs, line.AccountID)
		}
	}
	if len(accountIDs) < 2 {
		return ErrJournalMinAccounts
	}

	accountsMap, err := s.accountSvc.GetAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range accountIDs {
		acc, found := accountsMap[id]
		if !found {
			return fmt.Errorf("%w: ID %s", ErrAccountNotFound, id)
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: ID %s", ErrAccountInactive, id)
		}
	}
	return nil
}

// debitTotal computes the economic value of a journal: the sum of its debit
// side, which for a balanced journal equals the credit side.
func debitTotal(lines []domain.JournalLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Debit)
	}
	return total
}

// PostJournalEntry validates and persists a new journal entry with its lines.
func (s *journalService) PostJournalEntry(ctx context.Context, req dto.CreateJournalRequest, creatorUserID string) (*domain.Journal, error) {
	if len(req.Lines) < 2 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrJournalMinLines)
	}
	if req.Narration == "" {
		return nil, fmt.Errorf("%w: narration is required", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	journalID := uuid.NewString()
	lines := buildLines(journalID, req.Lines, now, creatorUserID)

	// The double-entry invariant: exact minor-unit equality of debit and
	// credit sums. Any deviation fails the whole posting.
	if err := accounting.ValidateJournalBalance(lines); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrJournalUnbalanced, err)
	}
	if err := s.validateAccounts(ctx, lines); err != nil {
		return nil, err
	}

	status := domain.Draft
	if req.PostNow {
		status = domain.Posted
	}

	journal := domain.Journal{
		JournalID:   journalID,
		JournalDate: req.Date,
		Narration:   req.Narration,
		Reference:   req.Reference,
		Status:      status,
		Amount:      debitTotal(lines),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	saved, err := s.journalRepo.SaveJournal(ctx, journal, lines)
	if err != nil {
		s.LogError(ctx, err, "Failed to save journal")
		return nil, fmt.Errorf("failed to save journal: %w", err)
	}

	s.LogInfo(ctx, "Journal created",
		slog.String("journal_id", saved.JournalID),
		slog.String("entry_number", saved.EntryNumber),
		slog.String("status", string(saved.Status)))
	saved.Lines = lines
	return saved, nil
}

// PostMappedTransaction records a canonical financial action through the fixed
// posting-rule table. The resulting journal is balanced by construction and is
// POSTED immediately.
func (s *journalService) PostMappedTransaction(ctx context.Context, kind domain.TransactionKind, amount decimal.Decimal, date time.Time, narration, reference, userID string) (*domain.Journal, error) {
	rule, ok := domain.RuleFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPostingKind, kind)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrValidation, amount)
	}

	debitAcc, err := s.accountSvc.GetAccountByCode(ctx, rule.DebitCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve debit account %s: %w", rule.DebitCode, err)
	}
	creditAcc, err := s.accountSvc.GetAccountByCode(ctx, rule.CreditCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credit account %s: %w", rule.CreditCode, err)
	}

	req := dto.CreateJournalRequest{
		Date:      date,
		Narration: narration,
		Reference: reference,
		PostNow:   true,
		Lines: []dto.JournalLineRequest{
			{AccountID: debitAcc.AccountID, Debit: amount},
			{AccountID: creditAcc.AccountID, Credit: amount},
		},
	}
	return s.PostJournalEntry(ctx, req, userID)
}

// GetJournalByID retrieves a journal with its lines.
func (s *journalService) GetJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find journal", slog.String("journal_id", journalID))
		}
		return nil, err
	}

	lines, err := s.journalRepo.FindLinesByJournalID(ctx, journalID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch journal lines", slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to retrieve lines for journal %s: %w", journalID, apperrors.ErrInternal)
	}
	journal.Lines = lines
	return journal, nil
}

// ListJournals retrieves a paginated list of journals.
func (s *journalService) ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	journals, nextToken, err := s.journalRepo.ListJournals(ctx, limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		s.LogError(ctx, err, "Failed to list journals")
		return nil, fmt.Errorf("failed to retrieve journals: %w", err)
	}

	responses := make([]dto.JournalResponse, len(journals))
	for i := range journals {
		responses[i] = dto.ToJournalResponse(&journals[i])
	}
	return &dto.ListJournalsResponse{Journals: responses, NextToken: nextToken}, nil
}

// ApproveJournal transitions a DRAFT journal to POSTED.
func (s *journalService) ApproveJournal(ctx context.Context, journalID string, approverUserID string) (*domain.Journal, error) {
	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if journal.Status != domain.Draft {
		return nil, fmt.Errorf("%w: journal status is %s", apperrors.ErrConflict, journal.Status)
	}

	now := time.Now().UTC()
	if err := s.journalRepo.UpdateJournalStatus(ctx, journalID, domain.Draft, domain.Posted, "", nil, approverUserID, now); err != nil {
		s.LogError(ctx, err, "Failed to post draft journal", slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to post journal: %w", err)
	}

	journal.Status = domain.Posted
	journal.LastUpdatedAt = now
	journal.LastUpdatedBy = approverUserID
	s.LogInfo(ctx, "Draft journal posted", slog.String("journal_id", journalID), slog.String("approver", approverUserID))
	return journal, nil
}

// ReverseJournal reverses a journal. A DRAFT is marked REVERSED in place; a
// POSTED journal is compensated by a new journal with swapped sides and then
// marked REVERSED. REVERSED journals cannot be reversed again.
func (s *journalService) ReverseJournal(ctx context.Context, journalID string, reason string, userID string) (*domain.Journal, error) {
	if len(reason) < minReversalReasonLen {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrReversalReason)
	}

	journal, err := s.journalRepo.FindJournalByID(ctx, journalID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	switch journal.Status {
	case domain.Draft:
		// Nothing was ever posted, so no compensating entry is needed.
		if err := s.journalRepo.UpdateJournalStatus(ctx, journalID, domain.Draft, domain.Reversed, reason, nil, userID, now); err != nil {
			s.LogError(ctx, err, "Failed to reverse draft journal", slog.String("journal_id", journalID))
			return nil, fmt.Errorf("failed to reverse journal: %w", err)
		}
		journal.Status = domain.Reversed
		journal.ReversalReason = reason
		return journal, nil

	case domain.Posted:
		if journal.OriginalJournalID != nil {
			return nil, fmt.Errorf("%w: cannot reverse a journal that is already a reversal", apperrors.ErrConflict)
		}
		return s.reversePostedJournal(ctx, journal, reason, userID, now)

	default:
		return nil, fmt.Errorf("%w: journal status is %s", apperrors.ErrConflict, journal.Status)
	}
}

// reversePostedJournal creates the compensating journal and flips the original
// to REVERSED.
func (s *journalService) reversePostedJournal(ctx context.Context, original *domain.Journal, reason, userID string, now time.Time) (*domain.Journal, error) {
	originalLines, err := s.journalRepo.FindLinesByJournalID(ctx, original.JournalID)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch lines for reversal", slog.String("journal_id", original.JournalID))
		return nil, fmt.Errorf("failed to retrieve original lines: %w", err)
	}

	newJournalID := uuid.NewString()
	reversingLines := make([]domain.JournalLine, len(originalLines))
	for i, orig := range originalLines {
		reversingLines[i] = domain.JournalLine{
			LineID:    uuid.NewString(),
			JournalID: newJournalID,
			AccountID: orig.AccountID,
			Debit:     orig.Credit,
			Credit:    orig.Debit,
			Notes:     orig.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	reversingJournal := domain.Journal{
		JournalID:         newJournalID,
		JournalDate:       original.JournalDate,
		Narration:         fmt.Sprintf("Reversal of %s: %s", original.EntryNumber, original.Narration),
		Reference:         original.Reference,
		Status:            domain.Posted,
		OriginalJournalID: &original.JournalID,
		Amount:            original.Amount,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	// The compensating journal and the status flip on the original are one
	// atomic unit: a failure of either leaves no partial reversal behind, and
	// the status guard rejects a second reversal of the same journal.
	tx, err := s.journalRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reversal transaction: %w", err)
	}
	defer s.journalRepo.Rollback(ctx, tx)

	entryNumber, err := s.journalRepo.SaveJournalInTx(ctx, tx, reversingJournal, reversingLines)
	if err != nil {
		s.LogError(ctx, err, "Failed to save reversing journal", slog.String("original_journal_id", original.JournalID))
		return nil, fmt.Errorf("failed to save reversing journal: %w", err)
	}

	if err := s.journalRepo.UpdateJournalStatusInTx(ctx, tx, original.JournalID, domain.Posted, domain.Reversed, reason, &newJournalID, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to mark original journal reversed",
			slog.String("original_journal_id", original.JournalID),
			slog.String("reversing_journal_id", newJournalID))
		return nil, fmt.Errorf("failed to update original journal status: %w", err)
	}

	if err := s.journalRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit reversal of journal %s: %w", original.JournalID, err)
	}

	s.LogInfo(ctx, "Journal reversed",
		slog.String("original_journal_id", original.JournalID),
		slog.String("reversing_journal_id", newJournalID))
	reversingJournal.EntryNumber = entryNumber
	reversingJournal.Lines = reversingLines
	return &reversingJournal, nil
}

// AccountBalance derives an account's balance from its POSTED debit/credit
// totals in the window, applying the account-type sign convention.
func (s *journalService) AccountBalance(ctx context.Context, accountID string, from, to *time.Time) (decimal.Decimal, error) {
	account, err := s.accountSvc.GetAccountByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	totalDebit, totalCredit, err := s.journalRepo.GetAccountActivity(ctx, accountID, from, to)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch account activity", slog.String("account_id", accountID))
		return decimal.Zero, fmt.Errorf("failed to fetch account activity: %w", err)
	}

	balance, err := accounting.BalanceFromTotals(account.AccountType, totalDebit, totalCredit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrInternal, err)
	}
	return balance, nil
}
