package loans

import "math/big"

// defaultCreditScore is the neutral score assigned to first-time borrowers.
const defaultCreditScore = 500

// BorrowerReputation tracks a borrower's lending history and the derived
// credit score. Records are created lazily on first loan and live for the
// lifetime of the engine.
type BorrowerReputation struct {
	// Borrower is the opaque identity the record belongs to.
	Borrower string `json:"borrower"`
	// TotalLoans counts every loan the borrower has opened.
	TotalLoans uint64 `json:"totalLoans"`
	// RepaidLoans counts loans the borrower settled in full.
	RepaidLoans uint64 `json:"repaidLoans"`
	// DefaultedLoans counts loans that ended in the reserved Defaulted state.
	DefaultedLoans uint64 `json:"defaultedLoans"`
	// AverageRepaymentTime is the running average of days-early across
	// repaid loans, maintained with truncating integer division. Ties drift
	// the average downward; that truncating-average policy is intentional.
	AverageRepaymentTime uint64 `json:"averageRepaymentTime"`
	// PromptPaymentRatio is RepaidLoans over TotalLoans in basis points.
	PromptPaymentRatio uint64 `json:"promptPaymentRatio"`
	// CreditScore is the derived 0-1000 standing, 500 for new borrowers.
	CreditScore uint64 `json:"creditScore"`
	// LastActivity is the unix timestamp of the latest lifecycle event.
	LastActivity int64 `json:"lastActivity"`
	// TotalEarlyPaymentBonus accumulates bonuses the borrower has earned.
	TotalEarlyPaymentBonus *big.Int `json:"totalEarlyPaymentBonus"`
}

func newBorrowerReputation(borrower string, now int64) *BorrowerReputation {
	return &BorrowerReputation{
		Borrower:               borrower,
		CreditScore:            defaultCreditScore,
		LastActivity:           now,
		TotalEarlyPaymentBonus: big.NewInt(0),
	}
}

// Clone returns a deep copy of the reputation record.
func (r *BorrowerReputation) Clone() *BorrowerReputation {
	if r == nil {
		return nil
	}
	clone := *r
	if r.TotalEarlyPaymentBonus != nil {
		clone.TotalEarlyPaymentBonus = new(big.Int).Set(r.TotalEarlyPaymentBonus)
	}
	return &clone
}

// recordOpened registers a newly created loan. Opening a loan grows the
// TotalLoans denominator without touching the repayment counters, so the
// derived score is re-evaluated immediately.
func (r *BorrowerReputation) recordOpened(now int64) {
	r.TotalLoans++
	r.LastActivity = now
	r.refresh()
}

// recordRepaid registers a fully settled loan, folding daysEarly into the
// truncating running average when the payment beat the due date.
func (r *BorrowerReputation) recordRepaid(daysEarly uint64, bonus *big.Int, now int64) {
	r.RepaidLoans++
	r.LastActivity = now
	if daysEarly > 0 {
		total := r.AverageRepaymentTime*(r.RepaidLoans-1) + daysEarly
		r.AverageRepaymentTime = total / r.RepaidLoans
	}
	if bonus != nil && bonus.Sign() > 0 {
		if r.TotalEarlyPaymentBonus == nil {
			r.TotalEarlyPaymentBonus = big.NewInt(0)
		}
		r.TotalEarlyPaymentBonus.Add(r.TotalEarlyPaymentBonus, bonus)
	}
	r.refresh()
}

// refresh recomputes the prompt-payment ratio and credit score after a
// lifecycle event.
func (r *BorrowerReputation) refresh() {
	if r.TotalLoans > 0 {
		r.PromptPaymentRatio = r.RepaidLoans * 10_000 / r.TotalLoans
	}
	r.CreditScore = r.creditScore()
}

// creditScore derives the 0-1000 standing from the repayment rate, the
// prompt-payment ratio and a speed bonus for sub-week average turnaround.
// Borrowers with no loan history keep the neutral default.
func (r *BorrowerReputation) creditScore() uint64 {
	if r.TotalLoans == 0 {
		return defaultCreditScore
	}
	repaymentRate := r.RepaidLoans * 10_000 / r.TotalLoans
	var timeBonus uint64
	if r.AverageRepaymentTime < 7 {
		timeBonus = 100
	}
	score := repaymentRate + r.PromptPaymentRatio + timeBonus
	if score > 1000 {
		return 1000
	}
	return score
}

// RateFactor maps the credit score to the interest rate multiplier applied on
// top of the collateral-adjusted rate, in basis points. Bands are inclusive
// and cover the full 0-1000 range.
func (r *BorrowerReputation) RateFactor() uint64 {
	score := defaultCreditScore
	if r != nil {
		score = int(r.CreditScore)
	}
	switch {
	case score >= 900:
		return 8000
	case score >= 800:
		return 9000
	case score >= 700:
		return 9500
	case score >= 600:
		return 10_000
	case score >= 500:
		return 10_500
	default:
		return 11_000
	}
}
