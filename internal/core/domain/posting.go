package domain

// Well-known chart-of-accounts codes the engine posts against. Seeded by the
// initial migration; looked up by code at posting time so operators can
// re-home them without a code change.
const (
	CodeCash             = "1001"
	CodeLoansReceivable  = "1101"
	CodeCustomerDeposits = "2001"
	CodeShareCapital     = "3001"
	CodeInterestIncome   = "4001"
	CodeLateFeeIncome    = "4002"
	CodeInterestExpense  = "5001"
)

// TransactionKind enumerates the canonical financial actions the rest of the
// system may record. Every action resolves to exactly one posting rule; there
// are no ad hoc postings.
type TransactionKind string

const (
	KindDeposit                TransactionKind = "DEPOSIT"
	KindWithdrawal             TransactionKind = "WITHDRAWAL"
	KindLoanDisbursement       TransactionKind = "LOAN_DISBURSEMENT"
	KindLoanPrincipalRepayment TransactionKind = "LOAN_PRINCIPAL_REPAYMENT"
	KindLoanInterestRepayment  TransactionKind = "LOAN_INTEREST_REPAYMENT"
	KindLateFeeCollection      TransactionKind = "LATE_FEE_COLLECTION"
	KindSharePurchase          TransactionKind = "SHARE_PURCHASE"
	KindShareReturn            TransactionKind = "SHARE_RETURN"
	KindInterestExpense        TransactionKind = "INTEREST_EXPENSE"
)

// PostingRule names the two account codes a transaction kind moves value
// between. The debit and credit amounts are always equal, so any rule yields
// a balanced journal.
type PostingRule struct {
	DebitCode  string
	CreditCode string
}

var postingRules = map[TransactionKind]PostingRule{
	KindDeposit:                {DebitCode: CodeCash, CreditCode: CodeCustomerDeposits},
	KindWithdrawal:             {DebitCode: CodeCustomerDeposits, CreditCode: CodeCash},
	KindLoanDisbursement:       {DebitCode: CodeLoansReceivable, CreditCode: CodeCash},
	KindLoanPrincipalRepayment: {DebitCode: CodeCash, CreditCode: CodeLoansReceivable},
	KindLoanInterestRepayment:  {DebitCode: CodeCash, CreditCode: CodeInterestIncome},
	KindLateFeeCollection:      {DebitCode: CodeCash, CreditCode: CodeLateFeeIncome},
	KindSharePurchase:          {DebitCode: CodeCash, CreditCode: CodeShareCapital},
	KindShareReturn:            {DebitCode: CodeShareCapital, CreditCode: CodeCash},
	KindInterestExpense:        {DebitCode: CodeInterestExpense, CreditCode: CodeCustomerDeposits},
}

// RuleFor returns the posting rule for a transaction kind.
func RuleFor(kind TransactionKind) (PostingRule, bool) {
	rule, ok := postingRules[kind]
	return rule, ok
}
