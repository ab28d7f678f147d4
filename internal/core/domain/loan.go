package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InterestType is the rate basis a loan was priced on.
type InterestType string

const (
	// Flat interest is computed on the original principal for the whole tenure.
	Flat InterestType = "FLAT"
	// Diminishing interest is computed on the outstanding principal each period.
	Diminishing InterestType = "DIMINISHING"
)

// IsValid reports whether t is a known interest type.
func (t InterestType) IsValid() bool {
	return t == Flat || t == Diminishing
}

// LoanStatus indicates the lifecycle state of a loan.
type LoanStatus string

const (
	LoanActive     LoanStatus = "ACTIVE"
	LoanClosed     LoanStatus = "CLOSED"
	LoanDefaulted  LoanStatus = "DEFAULTED"
	LoanWrittenOff LoanStatus = "WRITTEN_OFF"
)

// Loan represents a disbursed loan and its outstanding position.
// Created on disbursement from an approved application; mutated on each
// payment; transitions to CLOSED when the outstanding principal reaches zero.
type Loan struct {
	LoanID               string          `json:"loanID"`     // Primary Key (UUID)
	BorrowerID           string          `json:"borrowerID"` // Member/customer reference
	PrincipalAmount      decimal.Decimal `json:"principalAmount"`
	InterestRate         decimal.Decimal `json:"interestRate"` // Annual percent, e.g. 12.5
	TenureMonths         int             `json:"tenureMonths"`
	InterestType         InterestType    `json:"interestType"`
	DisbursementDate     time.Time       `json:"disbursementDate"`
	FirstPaymentDate     time.Time       `json:"firstPaymentDate"`
	EMIAmount            decimal.Decimal `json:"emiAmount"`
	OutstandingPrincipal decimal.Decimal `json:"outstandingPrincipal"`
	OutstandingInterest  decimal.Decimal `json:"outstandingInterest"`
	// LastInterestAccrual is the date up to which interest has been accrued
	// into OutstandingInterest. Starts at the disbursement date.
	LastInterestAccrual time.Time  `json:"lastInterestAccrual"`
	Status              LoanStatus `json:"status"`
	ClosureDate         *time.Time `json:"closureDate,omitempty"`
	AuditFields
}

// InstallmentStatus indicates the repayment state of a scheduled installment.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPartial InstallmentStatus = "PARTIAL"
	InstallmentPaid    InstallmentStatus = "PAID"
	InstallmentOverdue InstallmentStatus = "OVERDUE"
)

// LoanInstallment is one row of a loan's amortization schedule.
// The schedule is generated once at disbursement and is immutable apart from
// PaidAmount and Status.
type LoanInstallment struct {
	InstallmentID     string            `json:"installmentID"`     // Primary Key (UUID)
	LoanID            string            `json:"loanID"`            // FK -> Loan.loanID
	InstallmentNumber int               `json:"installmentNumber"` // 1..tenure
	DueDate           time.Time         `json:"dueDate"`
	PrincipalAmount   decimal.Decimal   `json:"principalAmount"`
	InterestAmount    decimal.Decimal   `json:"interestAmount"`
	TotalAmount       decimal.Decimal   `json:"totalAmount"`
	PaidAmount        decimal.Decimal   `json:"paidAmount"`
	Status            InstallmentStatus `json:"status"`
	AuditFields
}

// LoanPayment is an immutable, append-only record of a received payment and
// how it was allocated across the waterfall.
type LoanPayment struct {
	PaymentID          string          `json:"paymentID"` // Primary Key (UUID)
	LoanID             string          `json:"loanID"`    // FK -> Loan.loanID
	Amount             decimal.Decimal `json:"amount"`
	PrincipalComponent decimal.Decimal `json:"principalComponent"`
	InterestComponent  decimal.Decimal `json:"interestComponent"`
	LateFeeComponent   decimal.Decimal `json:"lateFeeComponent"`
	PaymentDate        time.Time       `json:"paymentDate"`
	Reference          string          `json:"reference"`           // Nullable external reference
	JournalID          *string         `json:"journalID,omitempty"` // Journal the payment generated
	AuditFields
}

// SettlementQuote prices an early payoff as of a given date.
type SettlementQuote struct {
	LoanID               string          `json:"loanID"`
	AsOfDate             time.Time       `json:"asOfDate"`
	OutstandingPrincipal decimal.Decimal `json:"outstandingPrincipal"`
	OutstandingInterest  decimal.Decimal `json:"outstandingInterest"`
	InterestDiscount     decimal.Decimal `json:"interestDiscount"`
	SettlementAmount     decimal.Decimal `json:"settlementAmount"`
}
