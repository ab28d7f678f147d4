package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InterestType selects the amortization method of a loan.
type InterestType string

const (
	Flat        InterestType = "FLAT"
	Diminishing InterestType = "DIMINISHING"
)

// LoanStatus indicates where a loan is in its lifecycle.
type LoanStatus string

const (
	LoanActive     LoanStatus = "ACTIVE"
	LoanClosed     LoanStatus = "CLOSED"
	LoanDefaulted  LoanStatus = "DEFAULTED"
	LoanWrittenOff LoanStatus = "WRITTEN_OFF"
)

// Loan represents a disbursed loan and its live outstanding position.
type Loan struct {
	LoanID               string          `db:"loan_id"`
	BorrowerID           string          `db:"borrower_id"`
	PrincipalAmount      decimal.Decimal `db:"principal_amount"`
	InterestRate         decimal.Decimal `db:"interest_rate"` // Annual percentage
	TenureMonths         int             `db:"tenure_months"`
	InterestType         InterestType    `db:"interest_type"`
	DisbursementDate     time.Time       `db:"disbursement_date"`
	FirstPaymentDate     time.Time       `db:"first_payment_date"`
	EMIAmount            decimal.Decimal `db:"emi_amount"`
	OutstandingPrincipal decimal.Decimal `db:"outstanding_principal"`
	OutstandingInterest  decimal.Decimal `db:"outstanding_interest"`
	LastInterestAccrual  time.Time       `db:"last_interest_accrual"`
	Status               LoanStatus      `db:"status"`
	ClosureDate          *time.Time      `db:"closure_date"`
	AuditFields
}

// InstallmentStatus indicates the payment state of a single installment.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPartial InstallmentStatus = "PARTIAL"
	InstallmentPaid    InstallmentStatus = "PAID"
	InstallmentOverdue InstallmentStatus = "OVERDUE"
)

// LoanInstallment is one scheduled repayment of a loan.
type LoanInstallment struct {
	InstallmentID     string            `db:"installment_id"`
	LoanID            string            `db:"loan_id"`
	InstallmentNumber int               `db:"installment_number"`
	DueDate           time.Time         `db:"due_date"`
	PrincipalAmount   decimal.Decimal   `db:"principal_amount"`
	InterestAmount    decimal.Decimal   `db:"interest_amount"`
	TotalAmount       decimal.Decimal   `db:"total_amount"`
	PaidAmount        decimal.Decimal   `db:"paid_amount"`
	Status            InstallmentStatus `db:"status"`
	AuditFields
}

// LoanPayment records one received payment and its waterfall allocation.
type LoanPayment struct {
	PaymentID          string          `db:"payment_id"`
	LoanID             string          `db:"loan_id"`
	Amount             decimal.Decimal `db:"amount"`
	PrincipalComponent decimal.Decimal `db:"principal_component"`
	InterestComponent  decimal.Decimal `db:"interest_component"`
	LateFeeComponent   decimal.Decimal `db:"late_fee_component"`
	PaymentDate        time.Time       `db:"payment_date"`
	Reference          string          `db:"reference"`
	JournalID          *string         `db:"journal_id"` // FK to the repayment journal
	AuditFields
}
