package loans

import "math/big"

var basisPoints = big.NewInt(10_000)

const (
	// minRateBps floors every effective annual rate at 1%.
	minRateBps    = 100
	daysInYear    = 365
	secondsPerDay = 86_400
)

// InterestRateModel is the process-wide lending policy. All fields are
// expressed in basis points and are fixed once the engine is constructed.
type InterestRateModel struct {
	// BaseRate is the base annual interest rate applied before adjustments.
	BaseRate uint64
	// PromptPaymentDiscount is the interest discount granted per day of
	// early repayment.
	PromptPaymentDiscount uint64
	// RiskPremium is the reserved risk-based surcharge.
	RiskPremium uint64
	// CollateralDiscount is the rate reduction for over-collateralized loans.
	CollateralDiscount uint64
	// BorrowerHistoryFactor is the neutral baseline of the reputation rate
	// multiplier.
	BorrowerHistoryFactor uint64
	// MaxDiscount caps the cumulative early-payment discount.
	MaxDiscount uint64
}

// DefaultModel returns the production policy shipped with the DST loan
// system: a 12% base rate, 1% discount per day early capped at 75%, and a 5%
// collateral discount.
func DefaultModel() *InterestRateModel {
	return &InterestRateModel{
		BaseRate:              1200,
		PromptPaymentDiscount: 100,
		RiskPremium:           200,
		CollateralDiscount:    500,
		BorrowerHistoryFactor: 10_000,
		MaxDiscount:           7500,
	}
}

// Clone returns a copy of the policy.
func (m *InterestRateModel) Clone() *InterestRateModel {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// RateFor derives the effective annual rate in basis points for a loan with
// the given collateral ratio issued to the given borrower. Over-collateralized
// positions earn the full collateral discount above 200%, half of it above
// 150%. The result is scaled by the borrower's reputation factor and floored
// at 1% annually.
func (m *InterestRateModel) RateFor(collateralRatio uint64, rep *BorrowerReputation) uint64 {
	rate := m.BaseRate
	switch {
	case collateralRatio > 200:
		rate = saturatingSub(rate, m.CollateralDiscount)
	case collateralRatio > 150:
		rate = saturatingSub(rate, m.CollateralDiscount/2)
	}

	rate = rate * rep.RateFactor() / 10_000

	if rate < minRateBps {
		return minRateBps
	}
	return rate
}

// InterestOwed computes the interest due on the loan when it is settled
// daysEarly whole days before the due date. The annual rate is converted to a
// daily rate with truncating division, so annual rates below 365 bp floor to
// a zero daily rate; that precision floor is intentional policy.
func (m *InterestRateModel) InterestOwed(loan *Loan, daysEarly uint64) *big.Int {
	daysElapsed := loan.TermDays
	if daysEarly > 0 {
		daysElapsed = loan.TermDays - daysEarly
	}

	dailyRate := loan.CurrentInterestRate / daysInYear

	interest := new(big.Int).Set(loan.Principal)
	interest.Mul(interest, new(big.Int).SetUint64(dailyRate))
	interest.Mul(interest, new(big.Int).SetUint64(daysElapsed))
	return interest.Quo(interest, basisPoints)
}

// EarlyPaymentBonus computes the interest discount earned by settling
// daysEarly days before the due date. The discount grows by
// PromptPaymentDiscount per day and saturates at MaxDiscount.
func (m *InterestRateModel) EarlyPaymentBonus(interestOwed *big.Int, daysEarly uint64) *big.Int {
	bonusBps := daysEarly * m.PromptPaymentDiscount
	if bonusBps > m.MaxDiscount {
		bonusBps = m.MaxDiscount
	}
	bonus := new(big.Int).Set(interestOwed)
	bonus.Mul(bonus, new(big.Int).SetUint64(bonusBps))
	return bonus.Quo(bonus, basisPoints)
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}
