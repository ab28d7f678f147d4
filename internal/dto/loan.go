package dto

import (
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DisburseLoanRequest defines the payload for disbursing an approved loan.
type DisburseLoanRequest struct {
	BorrowerID       string              `json:"borrowerID" binding:"required"`
	PrincipalAmount  decimal.Decimal     `json:"principalAmount" binding:"required"`
	InterestRate     decimal.Decimal     `json:"interestRate"` // Annual percent
	TenureMonths     int                 `json:"tenureMonths" binding:"required,min=1"`
	InterestType     domain.InterestType `json:"interestType" binding:"required,oneof=FLAT DIMINISHING"`
	DisbursementDate time.Time           `json:"disbursementDate" binding:"required"`
	FirstPaymentDate time.Time           `json:"firstPaymentDate" binding:"required"`
}

// SchedulePreviewRequest computes a schedule without creating a loan.
type SchedulePreviewRequest struct {
	PrincipalAmount  decimal.Decimal     `json:"principalAmount" binding:"required"`
	InterestRate     decimal.Decimal     `json:"interestRate"`
	TenureMonths     int                 `json:"tenureMonths" binding:"required,min=1"`
	InterestType     domain.InterestType `json:"interestType" binding:"required,oneof=FLAT DIMINISHING"`
	FirstPaymentDate time.Time           `json:"firstPaymentDate" binding:"required"`
}

// InstallmentResponse defines the data returned for one schedule row.
type InstallmentResponse struct {
	InstallmentNumber int                      `json:"installmentNumber"`
	DueDate           time.Time                `json:"dueDate"`
	PrincipalAmount   decimal.Decimal          `json:"principalAmount"`
	InterestAmount    decimal.Decimal          `json:"interestAmount"`
	TotalAmount       decimal.Decimal          `json:"totalAmount"`
	PaidAmount        decimal.Decimal          `json:"paidAmount"`
	Status            domain.InstallmentStatus `json:"status"`
}

// SchedulePreviewResponse is a computed schedule that was not persisted.
type SchedulePreviewResponse struct {
	EMIAmount    decimal.Decimal       `json:"emiAmount"`
	Installments []InstallmentResponse `json:"installments"`
}

// LoanResponse defines the data returned for a loan.
type LoanResponse struct {
	LoanID               string              `json:"loanID"`
	BorrowerID           string              `json:"borrowerID"`
	PrincipalAmount      decimal.Decimal     `json:"principalAmount"`
	InterestRate         decimal.Decimal     `json:"interestRate"`
	TenureMonths         int                 `json:"tenureMonths"`
	InterestType         domain.InterestType `json:"interestType"`
	DisbursementDate     time.Time           `json:"disbursementDate"`
	FirstPaymentDate     time.Time           `json:"firstPaymentDate"`
	EMIAmount            decimal.Decimal     `json:"emiAmount"`
	OutstandingPrincipal decimal.Decimal     `json:"outstandingPrincipal"`
	OutstandingInterest  decimal.Decimal     `json:"outstandingInterest"`
	Status               domain.LoanStatus   `json:"status"`
	ClosureDate          *time.Time          `json:"closureDate,omitempty"`
}

// LoanDetailResponse is a loan with its schedule.
type LoanDetailResponse struct {
	Loan         LoanResponse          `json:"loan"`
	Installments []InstallmentResponse `json:"installments"`
}

// PaymentRequest defines the payload for a loan repayment.
type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate time.Time       `json:"paymentDate" binding:"required"`
	Reference   string          `json:"reference"`
}

// PaymentResponse defines the data returned for a recorded payment.
type PaymentResponse struct {
	PaymentID          string          `json:"paymentID"`
	LoanID             string          `json:"loanID"`
	Amount             decimal.Decimal `json:"amount"`
	PrincipalComponent decimal.Decimal `json:"principalComponent"`
	InterestComponent  decimal.Decimal `json:"interestComponent"`
	LateFeeComponent   decimal.Decimal `json:"lateFeeComponent"`
	PaymentDate        time.Time       `json:"paymentDate"`
	Reference          string          `json:"reference,omitempty"`
	JournalID          *string         `json:"journalID,omitempty"`
}

// PaymentResult is the outcome of a payment allocation.
type PaymentResult struct {
	Payment              PaymentResponse   `json:"payment"`
	OutstandingPrincipal decimal.Decimal   `json:"outstandingPrincipal"`
	OutstandingInterest  decimal.Decimal   `json:"outstandingInterest"`
	LoanStatus           domain.LoanStatus `json:"loanStatus"`
	LoanClosed           bool              `json:"loanClosed"`
}

// SettleLoanRequest defines the payload for executing an early settlement.
type SettleLoanRequest struct {
	Quote       domain.SettlementQuote `json:"quote" binding:"required"`
	PaymentDate time.Time              `json:"paymentDate" binding:"required"`
	Reference   string                 `json:"reference"`
}

// ToInstallmentResponse converts a domain.LoanInstallment to its DTO.
func ToInstallmentResponse(inst *domain.LoanInstallment) InstallmentResponse {
	return InstallmentResponse{
		InstallmentNumber: inst.InstallmentNumber,
		DueDate:           inst.DueDate,
		PrincipalAmount:   inst.PrincipalAmount,
		InterestAmount:    inst.InterestAmount,
		TotalAmount:       inst.TotalAmount,
		PaidAmount:        inst.PaidAmount,
		Status:            inst.Status,
	}
}

// ToInstallmentResponses converts a schedule slice.
func ToInstallmentResponses(installments []domain.LoanInstallment) []InstallmentResponse {
	responses := make([]InstallmentResponse, len(installments))
	for i := range installments {
		responses[i] = ToInstallmentResponse(&installments[i])
	}
	return responses
}

// ToLoanResponse converts a domain.Loan to its DTO.
func ToLoanResponse(l *domain.Loan) LoanResponse {
	return LoanResponse{
		LoanID:               l.LoanID,
		BorrowerID:           l.BorrowerID,
		PrincipalAmount:      l.PrincipalAmount,
		InterestRate:         l.InterestRate,
		TenureMonths:         l.TenureMonths,
		InterestType:         l.InterestType,
		DisbursementDate:     l.DisbursementDate,
		FirstPaymentDate:     l.FirstPaymentDate,
		EMIAmount:            l.EMIAmount,
		OutstandingPrincipal: l.OutstandingPrincipal,
		OutstandingInterest:  l.OutstandingInterest,
		Status:               l.Status,
		ClosureDate:          l.ClosureDate,
	}
}

// ToPaymentResponse converts a domain.LoanPayment to its DTO.
func ToPaymentResponse(p *domain.LoanPayment) PaymentResponse {
	return PaymentResponse{
		PaymentID:          p.PaymentID,
		LoanID:             p.LoanID,
		Amount:             p.Amount,
		PrincipalComponent: p.PrincipalComponent,
		InterestComponent:  p.InterestComponent,
		LateFeeComponent:   p.LateFeeComponent,
		PaymentDate:        p.PaymentDate,
		Reference:          p.Reference,
		JournalID:          p.JournalID,
	}
}
