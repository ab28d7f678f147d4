package mapping

import (
	"github.com/coopledger/coopledger/internal/core/domain"
	"github.com/coopledger/coopledger/internal/models"
)

// ToModelLoan converts a domain Loan to a model Loan
func ToModelLoan(d domain.Loan) models.Loan {
	return models.Loan{
		LoanID:               d.LoanID,
		BorrowerID:           d.BorrowerID,
		PrincipalAmount:      d.PrincipalAmount,
		InterestRate:         d.InterestRate,
		TenureMonths:         d.TenureMonths,
		InterestType:         models.InterestType(d.InterestType),
		DisbursementDate:     d.DisbursementDate,
		FirstPaymentDate:     d.FirstPaymentDate,
		EMIAmount:            d.EMIAmount,
		OutstandingPrincipal: d.OutstandingPrincipal,
		OutstandingInterest:  d.OutstandingInterest,
		LastInterestAccrual:  d.LastInterestAccrual,
		Status:               models.LoanStatus(d.Status),
		ClosureDate:          d.ClosureDate,
		AuditFields:          ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLoan converts a model Loan to a domain Loan
func ToDomainLoan(m models.Loan) domain.Loan {
	return domain.Loan{
		LoanID:               m.LoanID,
		BorrowerID:           m.BorrowerID,
		PrincipalAmount:      m.PrincipalAmount,
		InterestRate:         m.InterestRate,
		TenureMonths:         m.TenureMonths,
		InterestType:         domain.InterestType(m.InterestType),
		DisbursementDate:     m.DisbursementDate,
		FirstPaymentDate:     m.FirstPaymentDate,
		EMIAmount:            m.EMIAmount,
		OutstandingPrincipal: m.OutstandingPrincipal,
		OutstandingInterest:  m.OutstandingInterest,
		LastInterestAccrual:  m.LastInterestAccrual,
		Status:               domain.LoanStatus(m.Status),
		ClosureDate:          m.ClosureDate,
		AuditFields:          ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLoanSlice converts a slice of model Loans to domain Loans
func ToDomainLoanSlice(ms []models.Loan) []domain.Loan {
	ds := make([]domain.Loan, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLoan(m)
	}
	return ds
}

// ToModelInstallment converts a domain LoanInstallment to a model LoanInstallment
func ToModelInstallment(d domain.LoanInstallment) models.LoanInstallment {
	return models.LoanInstallment{
		InstallmentID:     d.InstallmentID,
		LoanID:            d.LoanID,
		InstallmentNumber: d.InstallmentNumber,
		DueDate:           d.DueDate,
		PrincipalAmount:   d.PrincipalAmount,
		InterestAmount:    d.InterestAmount,
		TotalAmount:       d.TotalAmount,
		PaidAmount:        d.PaidAmount,
		Status:            models.InstallmentStatus(d.Status),
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainInstallment converts a model LoanInstallment to a domain LoanInstallment
func ToDomainInstallment(m models.LoanInstallment) domain.LoanInstallment {
	return domain.LoanInstallment{
		InstallmentID:     m.InstallmentID,
		LoanID:            m.LoanID,
		InstallmentNumber: m.InstallmentNumber,
		DueDate:           m.DueDate,
		PrincipalAmount:   m.PrincipalAmount,
		InterestAmount:    m.InterestAmount,
		TotalAmount:       m.TotalAmount,
		PaidAmount:        m.PaidAmount,
		Status:            domain.InstallmentStatus(m.Status),
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainInstallmentSlice converts a slice of model LoanInstallments to domain LoanInstallments
func ToDomainInstallmentSlice(ms []models.LoanInstallment) []domain.LoanInstallment {
	ds := make([]domain.LoanInstallment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainInstallment(m)
	}
	return ds
}

// ToModelPayment converts a domain LoanPayment to a model LoanPayment
func ToModelPayment(d domain.LoanPayment) models.LoanPayment {
	return models.LoanPayment{
		PaymentID:          d.PaymentID,
		LoanID:             d.LoanID,
		Amount:             d.Amount,
		PrincipalComponent: d.PrincipalComponent,
		InterestComponent:  d.InterestComponent,
		LateFeeComponent:   d.LateFeeComponent,
		PaymentDate:        d.PaymentDate,
		Reference:          d.Reference,
		JournalID:          d.JournalID,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPayment converts a model LoanPayment to a domain LoanPayment
func ToDomainPayment(m models.LoanPayment) domain.LoanPayment {
	return domain.LoanPayment{
		PaymentID:          m.PaymentID,
		LoanID:             m.LoanID,
		Amount:             m.Amount,
		PrincipalComponent: m.PrincipalComponent,
		InterestComponent:  m.InterestComponent,
		LateFeeComponent:   m.LateFeeComponent,
		PaymentDate:        m.PaymentDate,
		Reference:          m.Reference,
		JournalID:          m.JournalID,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPaymentSlice converts a slice of model LoanPayments to domain LoanPayments
func ToDomainPaymentSlice(ms []models.LoanPayment) []domain.LoanPayment {
	ds := make([]domain.LoanPayment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPayment(m)
	}
	return ds
}
