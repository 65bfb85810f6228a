package loans

import "math/big"

// LoanStatus enumerates the lifecycle states of a loan. Only the
// Active -> Repaid transition is driven by the engine today; Defaulted,
// Liquidated and GracePeriod are reserved for the settlement layer's
// time-based triggers and carry no transition logic here.
type LoanStatus uint8

const (
	StatusActive LoanStatus = iota
	StatusRepaid
	StatusDefaulted
	StatusLiquidated
	StatusGracePeriod
)

// String renders the canonical lowercase status label.
func (s LoanStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusRepaid:
		return "repaid"
	case StatusDefaulted:
		return "defaulted"
	case StatusLiquidated:
		return "liquidated"
	case StatusGracePeriod:
		return "gracePeriod"
	default:
		return "unknown"
	}
}

// Repayment records a single payment event against a loan. Records are
// append-only and never mutated once stored.
type Repayment struct {
	// Amount is the full payment submitted by the borrower in atomic units.
	Amount *big.Int `json:"amount"`
	// Timestamp is the unix time the payment was applied.
	Timestamp int64 `json:"timestamp"`
	// InterestPaid is the interest portion after any early-payment bonus.
	InterestPaid *big.Int `json:"interestPaid"`
	// PrincipalPaid is the principal portion credited against the loan.
	PrincipalPaid *big.Int `json:"principalPaid"`
	// EarlyPaymentBonus is the interest discount granted for paying early.
	EarlyPaymentBonus *big.Int `json:"earlyPaymentBonus"`
	// DaysEarly counts whole days between the payment and the due date.
	DaysEarly uint64 `json:"daysEarly"`
}

// Clone returns a deep copy of the repayment record.
func (r *Repayment) Clone() *Repayment {
	if r == nil {
		return nil
	}
	clone := &Repayment{
		Timestamp: r.Timestamp,
		DaysEarly: r.DaysEarly,
	}
	if r.Amount != nil {
		clone.Amount = new(big.Int).Set(r.Amount)
	}
	if r.InterestPaid != nil {
		clone.InterestPaid = new(big.Int).Set(r.InterestPaid)
	}
	if r.PrincipalPaid != nil {
		clone.PrincipalPaid = new(big.Int).Set(r.PrincipalPaid)
	}
	if r.EarlyPaymentBonus != nil {
		clone.EarlyPaymentBonus = new(big.Int).Set(r.EarlyPaymentBonus)
	}
	return clone
}

// Loan captures a collateralized DST loan. Amount values are denominated in
// atomic units and expressed as big integers to match on-chain precision.
type Loan struct {
	// ID is the sequential identifier assigned at creation, never reused.
	ID uint64 `json:"loanId"`
	// Borrower is the opaque identity string supplied by the caller.
	Borrower string `json:"borrower"`
	// CollateralAmount is the XFG amount locked against the loan.
	CollateralAmount *big.Int `json:"collateralAmount"`
	// Principal is the DST amount borrowed.
	Principal *big.Int `json:"principal"`
	// BaseInterestRate is the policy base annual rate at creation, in basis
	// points.
	BaseInterestRate uint64 `json:"baseInterestRate"`
	// CurrentInterestRate is the effective annual rate after collateral and
	// reputation adjustments, fixed at creation.
	CurrentInterestRate uint64 `json:"currentInterestRate"`
	// TermDays is the loan term in days.
	TermDays uint64 `json:"termDays"`
	// CreatedAt is the unix creation timestamp supplied by the caller.
	CreatedAt int64 `json:"createdAt"`
	// DueDate is CreatedAt plus the term converted to seconds.
	DueDate int64 `json:"dueDate"`
	// RepaidAt is the unix completion timestamp, zero while outstanding.
	RepaidAt int64 `json:"repaidAt,omitempty"`
	// Status is the current lifecycle state.
	Status LoanStatus `json:"status"`
	// Repayments is the chronological, append-only payment history.
	Repayments []*Repayment `json:"repayments"`
	// CollateralRatio is the integer collateral percentage fixed at creation.
	CollateralRatio uint64 `json:"collateralRatio"`
	// TotalInterestPaid accumulates the interest portions credited so far.
	TotalInterestPaid *big.Int `json:"totalInterestPaid"`
	// TotalPrincipalPaid accumulates the principal portions credited so far.
	// Never exceeds Principal.
	TotalPrincipalPaid *big.Int `json:"totalPrincipalPaid"`
	// EarlyPaymentBonusTotal accumulates the bonuses granted on this loan.
	EarlyPaymentBonusTotal *big.Int `json:"earlyPaymentBonusTotal"`
}

// Clone returns a deep copy of the loan, including its repayment history.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := &Loan{
		ID:                  l.ID,
		Borrower:            l.Borrower,
		BaseInterestRate:    l.BaseInterestRate,
		CurrentInterestRate: l.CurrentInterestRate,
		TermDays:            l.TermDays,
		CreatedAt:           l.CreatedAt,
		DueDate:             l.DueDate,
		RepaidAt:            l.RepaidAt,
		Status:              l.Status,
		CollateralRatio:     l.CollateralRatio,
	}
	if l.CollateralAmount != nil {
		clone.CollateralAmount = new(big.Int).Set(l.CollateralAmount)
	}
	if l.Principal != nil {
		clone.Principal = new(big.Int).Set(l.Principal)
	}
	if l.TotalInterestPaid != nil {
		clone.TotalInterestPaid = new(big.Int).Set(l.TotalInterestPaid)
	}
	if l.TotalPrincipalPaid != nil {
		clone.TotalPrincipalPaid = new(big.Int).Set(l.TotalPrincipalPaid)
	}
	if l.EarlyPaymentBonusTotal != nil {
		clone.EarlyPaymentBonusTotal = new(big.Int).Set(l.EarlyPaymentBonusTotal)
	}
	if len(l.Repayments) > 0 {
		clone.Repayments = make([]*Repayment, 0, len(l.Repayments))
		for _, r := range l.Repayments {
			clone.Repayments = append(clone.Repayments, r.Clone())
		}
	}
	return clone
}

// outstandingPrincipal returns Principal minus TotalPrincipalPaid.
func (l *Loan) outstandingPrincipal() *big.Int {
	owed := new(big.Int).Set(l.Principal)
	if l.TotalPrincipalPaid != nil {
		owed.Sub(owed, l.TotalPrincipalPaid)
	}
	if owed.Sign() < 0 {
		return big.NewInt(0)
	}
	return owed
}

// SystemStats aggregates the engine-wide counters exposed to embedders.
type SystemStats struct {
	// TotalLoansCreated counts every loan ever opened.
	TotalLoansCreated uint64 `json:"totalLoansCreated"`
	// TotalLoansRepaid counts loans that reached the Repaid state.
	TotalLoansRepaid uint64 `json:"totalLoansRepaid"`
	// TotalInterestCollected accumulates final interest across all loans.
	TotalInterestCollected *big.Int `json:"totalInterestCollected"`
	// TotalEarlyPaymentBonus accumulates bonuses granted across all loans.
	TotalEarlyPaymentBonus *big.Int `json:"totalEarlyPaymentBonus"`
	// ActiveLoans counts loans currently in the Active state.
	ActiveLoans uint64 `json:"activeLoans"`
	// DefaultedLoans counts loans in the reserved Defaulted state.
	DefaultedLoans uint64 `json:"defaultedLoans"`
	// AverageInterestRate is the arithmetic mean of current rates across all
	// loans in basis points, zero when no loans exist.
	AverageInterestRate uint64 `json:"averageInterestRate"`
	// PromptPaymentRate is the share of repaid loans that earned an early
	// payment bonus, in basis points, zero before the first repayment.
	PromptPaymentRate uint64 `json:"promptPaymentRate"`
}
