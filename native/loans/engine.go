package loans

import (
	"math"
	"math/big"
	"sort"
	"sync"

	"dstchain/core/types"
	nativecommon "dstchain/native/common"
	"dstchain/observability"
)

const moduleName = "loans"

var (
	hundred            = big.NewInt(100)
	minCollateralRatio = big.NewInt(120)
)

// Engine owns every loan and borrower reputation record and sequences all
// state transitions over them. It is the single writer: callers mutate state
// exclusively through CreateLoan and RepayLoan, each of which either fully
// applies or fully fails. The caller supplies the current timestamp on every
// operation; the engine never reads a wall clock.
type Engine struct {
	mu sync.RWMutex

	model       *InterestRateModel
	loans       map[uint64]*Loan
	reputations map[string]*BorrowerReputation
	nextLoanID  uint64

	totalLoansCreated      uint64
	totalLoansRepaid       uint64
	totalInterestCollected *big.Int
	totalEarlyPaymentBonus *big.Int

	pauses  nativecommon.PauseView
	emitter EventEmitter
	metrics *observability.LoanMetrics
}

// NewEngine constructs an engine governed by the supplied policy. A nil model
// selects the default DST policy.
func NewEngine(model *InterestRateModel) *Engine {
	if model == nil {
		model = DefaultModel()
	}
	return &Engine{
		model:                  model.Clone(),
		loans:                  make(map[uint64]*Loan),
		reputations:            make(map[string]*BorrowerReputation),
		nextLoanID:             1,
		totalInterestCollected: big.NewInt(0),
		totalEarlyPaymentBonus: big.NewInt(0),
	}
}

// SetPauses wires the module pause switchboard consulted before mutations.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter wires the sink that receives loan lifecycle events.
func (e *Engine) SetEmitter(emitter EventEmitter) {
	if e == nil {
		return
	}
	e.emitter = emitter
}

// SetMetrics wires the prometheus registry recorded on engine operations.
func (e *Engine) SetMetrics(metrics *observability.LoanMetrics) {
	if e == nil {
		return
	}
	e.metrics = metrics
}

// Model returns a copy of the active policy.
func (e *Engine) Model() *InterestRateModel {
	if e == nil {
		return nil
	}
	return e.model.Clone()
}

// CreateLoan validates the collateralized loan request, derives the effective
// interest rate from the borrower's standing, registers the loan and returns
// its id. The due date is now plus the term converted to seconds.
func (e *Engine) CreateLoan(borrower string, collateral, principal *big.Int, termDays uint64, now int64) (uint64, error) {
	if e == nil {
		return 0, ErrNilEngine
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		e.record("create", "paused")
		return 0, err
	}
	if borrower == "" {
		e.record("create", "invalid")
		return 0, ErrBorrowerRequired
	}
	if collateral == nil || collateral.Sign() <= 0 || principal == nil || principal.Sign() <= 0 {
		e.record("create", "invalid")
		return 0, ErrInvalidAmount
	}
	if termDays == 0 {
		e.record("create", "invalid")
		return 0, ErrInvalidTerm
	}

	ratio := new(big.Int).Mul(collateral, hundred)
	ratio.Quo(ratio, principal)
	if ratio.Cmp(minCollateralRatio) < 0 {
		e.record("create", "undercollateralized")
		return 0, ErrInsufficientCollateral
	}
	collateralRatio := uint64(math.MaxUint64)
	if ratio.IsUint64() {
		collateralRatio = ratio.Uint64()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rep := e.getOrCreateReputation(borrower, now)
	rate := e.model.RateFor(collateralRatio, rep)

	id := e.nextLoanID
	loan := &Loan{
		ID:                     id,
		Borrower:               borrower,
		CollateralAmount:       new(big.Int).Set(collateral),
		Principal:              new(big.Int).Set(principal),
		BaseInterestRate:       e.model.BaseRate,
		CurrentInterestRate:    rate,
		TermDays:               termDays,
		CreatedAt:              now,
		DueDate:                now + int64(termDays)*secondsPerDay,
		Status:                 StatusActive,
		CollateralRatio:        collateralRatio,
		TotalInterestPaid:      big.NewInt(0),
		TotalPrincipalPaid:     big.NewInt(0),
		EarlyPaymentBonusTotal: big.NewInt(0),
	}

	e.loans[id] = loan
	e.nextLoanID++
	e.totalLoansCreated++

	rep.recordOpened(now)

	e.emit(newLoanCreatedEvent(loan))
	e.record("create", "ok")
	return id, nil
}

// RepayLoan settles the loan in a single payment covering the outstanding
// interest and principal. Payments ahead of the due date earn an interest
// discount that grows with each day early. The applied repayment record is
// returned; on any failure no state changes.
func (e *Engine) RepayLoan(id uint64, amount *big.Int, borrower string, now int64) (*Repayment, error) {
	if e == nil {
		return nil, ErrNilEngine
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		e.record("repay", "paused")
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		e.record("repay", "invalid")
		return nil, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	loan, ok := e.loans[id]
	if !ok {
		e.record("repay", "notFound")
		return nil, ErrLoanNotFound
	}
	if loan.Borrower != borrower {
		e.record("repay", "unauthorized")
		return nil, ErrUnauthorizedBorrower
	}
	if loan.Status != StatusActive {
		e.record("repay", "notActive")
		return nil, ErrLoanNotActive
	}

	var daysEarly uint64
	if now < loan.DueDate {
		daysEarly = uint64((loan.DueDate - now) / secondsPerDay)
	}

	interestOwed := e.model.InterestOwed(loan, daysEarly)
	principalOwed := loan.outstandingPrincipal()

	owed := new(big.Int).Add(interestOwed, principalOwed)
	if amount.Cmp(owed) < 0 {
		e.record("repay", "insufficient")
		return nil, ErrInsufficientRepayment
	}

	bonus := big.NewInt(0)
	if daysEarly > 0 {
		bonus = e.model.EarlyPaymentBonus(interestOwed, daysEarly)
	}

	finalInterest := new(big.Int).Sub(interestOwed, bonus)
	if finalInterest.Sign() < 0 {
		finalInterest.SetInt64(0)
	}

	// The overpayment remainder, if any, is change for the settlement layer
	// to return; crediting it against principal would overshoot the loan.
	principalPaid := new(big.Int).Sub(amount, finalInterest)
	if principalPaid.Cmp(principalOwed) > 0 {
		principalPaid.Set(principalOwed)
	}

	repayment := &Repayment{
		Amount:            new(big.Int).Set(amount),
		Timestamp:         now,
		InterestPaid:      finalInterest,
		PrincipalPaid:     principalPaid,
		EarlyPaymentBonus: bonus,
		DaysEarly:         daysEarly,
	}

	loan.Repayments = append(loan.Repayments, repayment)
	loan.TotalInterestPaid.Add(loan.TotalInterestPaid, finalInterest)
	loan.TotalPrincipalPaid.Add(loan.TotalPrincipalPaid, principalPaid)
	loan.EarlyPaymentBonusTotal.Add(loan.EarlyPaymentBonusTotal, bonus)

	if loan.TotalPrincipalPaid.Cmp(loan.Principal) >= 0 {
		loan.Status = StatusRepaid
		loan.RepaidAt = now
		e.totalLoansRepaid++
	}

	e.totalInterestCollected.Add(e.totalInterestCollected, finalInterest)
	e.totalEarlyPaymentBonus.Add(e.totalEarlyPaymentBonus, bonus)

	rep := e.getOrCreateReputation(borrower, now)
	rep.recordRepaid(daysEarly, bonus, now)

	e.emit(newLoanRepaidEvent(loan, repayment))
	e.record("repay", "ok")
	if e.metrics != nil {
		e.metrics.AddInterest(finalInterest)
		e.metrics.AddBonus(bonus)
	}
	return repayment.Clone(), nil
}

// GetLoan returns a deep copy of the loan, or ok=false when the id is
// unknown.
func (e *Engine) GetLoan(id uint64) (*Loan, bool) {
	if e == nil {
		return nil, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	loan, ok := e.loans[id]
	if !ok {
		return nil, false
	}
	return loan.Clone(), true
}

// GetReputation returns a deep copy of the borrower's reputation record, or
// ok=false when the borrower has never opened a loan.
func (e *Engine) GetReputation(borrower string) (*BorrowerReputation, bool) {
	if e == nil {
		return nil, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	rep, ok := e.reputations[borrower]
	if !ok {
		return nil, false
	}
	return rep.Clone(), true
}

// LoansForBorrower returns copies of every loan opened by the borrower in
// ascending id order.
func (e *Engine) LoansForBorrower(borrower string) []*Loan {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	var matched []*Loan
	for _, loan := range e.loans {
		if loan.Borrower == borrower {
			matched = append(matched, loan.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

// Stats returns the engine-wide aggregate counters.
func (e *Engine) Stats() SystemStats {
	if e == nil {
		return SystemStats{TotalInterestCollected: big.NewInt(0), TotalEarlyPaymentBonus: big.NewInt(0)}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := SystemStats{
		TotalLoansCreated:      e.totalLoansCreated,
		TotalLoansRepaid:       e.totalLoansRepaid,
		TotalInterestCollected: new(big.Int).Set(e.totalInterestCollected),
		TotalEarlyPaymentBonus: new(big.Int).Set(e.totalEarlyPaymentBonus),
	}

	var rateSum, promptlyRepaid uint64
	for _, loan := range e.loans {
		rateSum += loan.CurrentInterestRate
		switch loan.Status {
		case StatusActive:
			stats.ActiveLoans++
		case StatusDefaulted:
			stats.DefaultedLoans++
		case StatusRepaid:
			if loan.EarlyPaymentBonusTotal != nil && loan.EarlyPaymentBonusTotal.Sign() > 0 {
				promptlyRepaid++
			}
		}
	}
	if n := uint64(len(e.loans)); n > 0 {
		stats.AverageInterestRate = rateSum / n
	}
	if e.totalLoansRepaid > 0 {
		stats.PromptPaymentRate = promptlyRepaid * 10_000 / e.totalLoansRepaid
	}
	return stats
}

// getOrCreateReputation returns the live reputation record, inserting a
// neutral one on first contact. Callers must hold the write lock.
func (e *Engine) getOrCreateReputation(borrower string, now int64) *BorrowerReputation {
	if rep, ok := e.reputations[borrower]; ok {
		return rep
	}
	rep := newBorrowerReputation(borrower, now)
	e.reputations[borrower] = rep
	return rep
}

func (e *Engine) emit(evt *types.Event) {
	if e.emitter == nil || evt == nil {
		return
	}
	e.emitter.AppendEvent(evt)
}

func (e *Engine) record(operation, outcome string) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordOperation(operation, outcome)
}
