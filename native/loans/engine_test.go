package loans

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"testing"

	"dstchain/core/types"
	nativecommon "dstchain/native/common"
)

const (
	testPrincipal  = 100_000_000
	testCollateral = 120_000_000
	testTermDays   = uint64(30)
	testNow        = int64(1_700_000_000)
)

type recordingEmitter struct {
	events []*types.Event
}

func (r *recordingEmitter) AppendEvent(evt *types.Event) {
	r.events = append(r.events, evt)
}

func createTestLoan(t *testing.T, engine *Engine, borrower string) uint64 {
	t.Helper()
	id, err := engine.CreateLoan(borrower, big.NewInt(testCollateral), big.NewInt(testPrincipal), testTermDays, testNow)
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	return id
}

func TestCreateLoanMinimumCollateral(t *testing.T) {
	engine := NewEngine(nil)

	id := createTestLoan(t, engine, "alice")
	loan, ok := engine.GetLoan(id)
	if !ok {
		t.Fatalf("expected loan %d to exist", id)
	}
	if loan.CollateralRatio != 120 {
		t.Fatalf("expected ratio 120, got %d", loan.CollateralRatio)
	}
	// New borrowers carry a 5% reputation penalty, so the effective rate
	// sits above the 12% base with no collateral discount band met.
	if loan.CurrentInterestRate < loan.BaseInterestRate {
		t.Fatalf("rate %d fell below base %d", loan.CurrentInterestRate, loan.BaseInterestRate)
	}
	if loan.CurrentInterestRate != 1260 {
		t.Fatalf("expected 1260 bp, got %d", loan.CurrentInterestRate)
	}
	if loan.Status != StatusActive {
		t.Fatalf("expected active status, got %s", loan.Status)
	}
	if loan.DueDate != testNow+int64(testTermDays)*86_400 {
		t.Fatalf("unexpected due date %d", loan.DueDate)
	}
}

func TestCreateLoanCollateralDiscountBand(t *testing.T) {
	engine := NewEngine(nil)

	id, err := engine.CreateLoan("bob", big.NewInt(200_000_000), big.NewInt(testPrincipal), testTermDays, testNow)
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	loan, _ := engine.GetLoan(id)
	if loan.CollateralRatio != 200 {
		t.Fatalf("expected ratio 200, got %d", loan.CollateralRatio)
	}
	// 150 < ratio <= 200 earns half the 500 bp collateral discount:
	// (1200-250) * 10500 / 10000 = 997.
	if loan.CurrentInterestRate != 997 {
		t.Fatalf("expected 997 bp, got %d", loan.CurrentInterestRate)
	}
}

func TestCreateLoanValidation(t *testing.T) {
	engine := NewEngine(nil)

	cases := []struct {
		name       string
		borrower   string
		collateral *big.Int
		principal  *big.Int
		term       uint64
		want       error
	}{
		{"empty borrower", "", big.NewInt(testCollateral), big.NewInt(testPrincipal), testTermDays, ErrBorrowerRequired},
		{"zero collateral", "alice", big.NewInt(0), big.NewInt(testPrincipal), testTermDays, ErrInvalidAmount},
		{"nil collateral", "alice", nil, big.NewInt(testPrincipal), testTermDays, ErrInvalidAmount},
		{"zero principal", "alice", big.NewInt(testCollateral), big.NewInt(0), testTermDays, ErrInvalidAmount},
		{"zero term", "alice", big.NewInt(testCollateral), big.NewInt(testPrincipal), 0, ErrInvalidTerm},
		{"ratio below 120", "alice", big.NewInt(119_000_000), big.NewInt(testPrincipal), testTermDays, ErrInsufficientCollateral},
	}
	for _, tc := range cases {
		if _, err := engine.CreateLoan(tc.borrower, tc.collateral, tc.principal, tc.term, testNow); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
	if stats := engine.Stats(); stats.TotalLoansCreated != 0 {
		t.Fatalf("failed creations must not count, got %d", stats.TotalLoansCreated)
	}
}

func TestRepayLoanEarlySettles(t *testing.T) {
	engine := NewEngine(nil)
	id := createTestLoan(t, engine, "alice")

	// Ten days ahead of the due date: 20 accrued days at a 3 bp daily rate
	// owes 600000 interest on top of the full principal.
	now := testNow + int64(testTermDays-10)*86_400
	amount := big.NewInt(testPrincipal + 600_000)
	repayment, err := engine.RepayLoan(id, amount, "alice", now)
	if err != nil {
		t.Fatalf("repay loan: %v", err)
	}
	if repayment.DaysEarly != 10 {
		t.Fatalf("expected 10 days early, got %d", repayment.DaysEarly)
	}
	// 10 days at 100 bp each discounts 10% of the interest owed.
	if repayment.EarlyPaymentBonus.Cmp(big.NewInt(60_000)) != 0 {
		t.Fatalf("expected bonus 60000, got %s", repayment.EarlyPaymentBonus)
	}
	if repayment.InterestPaid.Cmp(big.NewInt(540_000)) != 0 {
		t.Fatalf("expected interest 540000, got %s", repayment.InterestPaid)
	}
	if repayment.PrincipalPaid.Cmp(big.NewInt(testPrincipal)) != 0 {
		t.Fatalf("expected full principal, got %s", repayment.PrincipalPaid)
	}

	loan, _ := engine.GetLoan(id)
	if loan.Status != StatusRepaid {
		t.Fatalf("expected repaid status, got %s", loan.Status)
	}
	if loan.RepaidAt != now {
		t.Fatalf("expected repaidAt %d, got %d", now, loan.RepaidAt)
	}
	if loan.TotalPrincipalPaid.Cmp(loan.Principal) != 0 {
		t.Fatalf("principal accumulator mismatch: %s vs %s", loan.TotalPrincipalPaid, loan.Principal)
	}
	if len(loan.Repayments) != 1 {
		t.Fatalf("expected one repayment record, got %d", len(loan.Repayments))
	}
}

func TestRepayLoanInsufficientAmount(t *testing.T) {
	engine := NewEngine(nil)
	id := createTestLoan(t, engine, "alice")

	// Five days in, the principal alone no longer covers interest + principal.
	now := testNow + 5*86_400
	_, err := engine.RepayLoan(id, big.NewInt(testPrincipal), "alice", now)
	if !errors.Is(err, ErrInsufficientRepayment) {
		t.Fatalf("expected ErrInsufficientRepayment, got %v", err)
	}

	// The failed attempt must leave the loan untouched.
	loan, _ := engine.GetLoan(id)
	if loan.Status != StatusActive {
		t.Fatalf("expected loan to stay active, got %s", loan.Status)
	}
	if len(loan.Repayments) != 0 {
		t.Fatalf("expected no repayment records, got %d", len(loan.Repayments))
	}
	if loan.TotalPrincipalPaid.Sign() != 0 || loan.TotalInterestPaid.Sign() != 0 {
		t.Fatalf("accumulators mutated on failure: %+v", loan)
	}
	if stats := engine.Stats(); stats.TotalLoansRepaid != 0 {
		t.Fatalf("failed repayment counted: %d", stats.TotalLoansRepaid)
	}
}

func TestRepayLoanGuards(t *testing.T) {
	engine := NewEngine(nil)
	id := createTestLoan(t, engine, "alice")

	if _, err := engine.RepayLoan(999, big.NewInt(testPrincipal), "alice", testNow); !errors.Is(err, ErrLoanNotFound) {
		t.Fatalf("unknown id: got %v", err)
	}
	if _, err := engine.RepayLoan(id, big.NewInt(testPrincipal), "mallory", testNow); !errors.Is(err, ErrUnauthorizedBorrower) {
		t.Fatalf("borrower mismatch: got %v", err)
	}
	if _, err := engine.RepayLoan(id, nil, "alice", testNow); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("nil amount: got %v", err)
	}

	// Settle, then a second repayment must hit the status guard.
	if _, err := engine.RepayLoan(id, big.NewInt(testPrincipal), "alice", testNow); err != nil {
		t.Fatalf("settle loan: %v", err)
	}
	if _, err := engine.RepayLoan(id, big.NewInt(testPrincipal), "alice", testNow); !errors.Is(err, ErrLoanNotActive) {
		t.Fatalf("settled loan: got %v", err)
	}
}

func TestRepayLoanAtDueDate(t *testing.T) {
	engine := NewEngine(nil)
	id := createTestLoan(t, engine, "alice")

	loan, _ := engine.GetLoan(id)
	// At the due date the full 30-day interest accrues and no bonus applies.
	amount := big.NewInt(testPrincipal + 900_000)
	repayment, err := engine.RepayLoan(id, amount, "alice", loan.DueDate)
	if err != nil {
		t.Fatalf("repay at due date: %v", err)
	}
	if repayment.DaysEarly != 0 {
		t.Fatalf("expected zero days early, got %d", repayment.DaysEarly)
	}
	if repayment.EarlyPaymentBonus.Sign() != 0 {
		t.Fatalf("expected no bonus at due date, got %s", repayment.EarlyPaymentBonus)
	}
	if repayment.InterestPaid.Cmp(big.NewInt(900_000)) != 0 {
		t.Fatalf("expected interest 900000, got %s", repayment.InterestPaid)
	}
}

func TestRepeatedCyclesBuildReputation(t *testing.T) {
	engine := NewEngine(nil)

	for i := 0; i < 5; i++ {
		id := createTestLoan(t, engine, "eve")
		// Immediate repayment: zero accrued days, principal only.
		if _, err := engine.RepayLoan(id, big.NewInt(testPrincipal), "eve", testNow); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}

	rep, ok := engine.GetReputation("eve")
	if !ok {
		t.Fatalf("expected reputation for eve")
	}
	if rep.TotalLoans != 5 {
		t.Fatalf("expected 5 loans, got %d", rep.TotalLoans)
	}
	if rep.RepaidLoans != 5 {
		t.Fatalf("expected 5 repaid, got %d", rep.RepaidLoans)
	}
	if rep.CreditScore <= 500 {
		t.Fatalf("expected score above neutral, got %d", rep.CreditScore)
	}
	if rep.CreditScore > 1000 {
		t.Fatalf("score escaped the ceiling: %d", rep.CreditScore)
	}

	// The improved standing lowers the rate on the next loan.
	id := createTestLoan(t, engine, "eve")
	loan, _ := engine.GetLoan(id)
	if loan.CurrentInterestRate >= 1260 {
		t.Fatalf("expected a discounted rate, got %d", loan.CurrentInterestRate)
	}
}

func TestReadsAreIdempotent(t *testing.T) {
	engine := NewEngine(nil)
	id := createTestLoan(t, engine, "alice")

	first, _ := engine.GetLoan(id)
	second, _ := engine.GetLoan(id)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated reads diverged: %+v vs %+v", first, second)
	}

	// Mutating a returned copy must not leak into engine state.
	first.Principal.SetInt64(1)
	first.Status = StatusDefaulted
	fresh, _ := engine.GetLoan(id)
	if fresh.Principal.Cmp(big.NewInt(testPrincipal)) != 0 || fresh.Status != StatusActive {
		t.Fatalf("caller mutation leaked into engine state")
	}

	repA, _ := engine.GetReputation("alice")
	repB, _ := engine.GetReputation("alice")
	if !reflect.DeepEqual(repA, repB) {
		t.Fatalf("repeated reputation reads diverged")
	}
}

func TestLoansForBorrower(t *testing.T) {
	engine := NewEngine(nil)
	first := createTestLoan(t, engine, "alice")
	createTestLoan(t, engine, "bob")
	third := createTestLoan(t, engine, "alice")

	matched := engine.LoansForBorrower("alice")
	if len(matched) != 2 {
		t.Fatalf("expected 2 loans, got %d", len(matched))
	}
	if matched[0].ID != first || matched[1].ID != third {
		t.Fatalf("expected ascending ids %d,%d got %d,%d", first, third, matched[0].ID, matched[1].ID)
	}
	if loans := engine.LoansForBorrower("nobody"); len(loans) != 0 {
		t.Fatalf("expected no loans for unknown borrower, got %d", len(loans))
	}
}

func TestStats(t *testing.T) {
	engine := NewEngine(nil)

	stats := engine.Stats()
	if stats.AverageInterestRate != 0 || stats.PromptPaymentRate != 0 {
		t.Fatalf("expected zeroed stats on empty engine: %+v", stats)
	}

	first := createTestLoan(t, engine, "alice")
	createTestLoan(t, engine, "bob")

	// Settle the first loan ten days early so it earns a bonus.
	now := testNow + int64(testTermDays-10)*86_400
	if _, err := engine.RepayLoan(first, big.NewInt(testPrincipal+600_000), "alice", now); err != nil {
		t.Fatalf("repay: %v", err)
	}

	stats = engine.Stats()
	if stats.TotalLoansCreated != 2 || stats.TotalLoansRepaid != 1 {
		t.Fatalf("unexpected counters: %+v", stats)
	}
	if stats.ActiveLoans != 1 || stats.DefaultedLoans != 0 {
		t.Fatalf("unexpected status counts: %+v", stats)
	}
	if stats.TotalInterestCollected.Cmp(big.NewInt(540_000)) != 0 {
		t.Fatalf("expected interest total 540000, got %s", stats.TotalInterestCollected)
	}
	if stats.TotalEarlyPaymentBonus.Cmp(big.NewInt(60_000)) != 0 {
		t.Fatalf("expected bonus total 60000, got %s", stats.TotalEarlyPaymentBonus)
	}
	// Both loans were issued at 1260 bp.
	if stats.AverageInterestRate != 1260 {
		t.Fatalf("expected average rate 1260, got %d", stats.AverageInterestRate)
	}
	// The single repaid loan earned a bonus, so the prompt rate is 100%.
	if stats.PromptPaymentRate != 10_000 {
		t.Fatalf("expected prompt rate 10000, got %d", stats.PromptPaymentRate)
	}
}

func TestPauseGuard(t *testing.T) {
	engine := NewEngine(nil)
	pauses := nativecommon.NewPauses()
	engine.SetPauses(pauses)

	id := createTestLoan(t, engine, "alice")

	pauses.SetPaused("loans", true)
	if _, err := engine.CreateLoan("alice", big.NewInt(testCollateral), big.NewInt(testPrincipal), testTermDays, testNow); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused create, got %v", err)
	}
	if _, err := engine.RepayLoan(id, big.NewInt(testPrincipal), "alice", testNow); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused repay, got %v", err)
	}

	pauses.SetPaused("loans", false)
	if _, err := engine.RepayLoan(id, big.NewInt(testPrincipal), "alice", testNow); err != nil {
		t.Fatalf("expected resumed repay to succeed: %v", err)
	}
}

func TestLifecycleEvents(t *testing.T) {
	engine := NewEngine(nil)
	emitter := &recordingEmitter{}
	engine.SetEmitter(emitter)

	id := createTestLoan(t, engine, "alice")
	if _, err := engine.RepayLoan(id, big.NewInt(testPrincipal), "alice", testNow); err != nil {
		t.Fatalf("repay: %v", err)
	}

	if len(emitter.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(emitter.events))
	}
	created, repaid := emitter.events[0], emitter.events[1]
	if created.Type != EventTypeLoanCreated {
		t.Fatalf("expected %s, got %s", EventTypeLoanCreated, created.Type)
	}
	if created.Attributes["borrower"] != "alice" || created.Attributes["loanId"] != "1" {
		t.Fatalf("unexpected created attributes: %v", created.Attributes)
	}
	if repaid.Type != EventTypeLoanRepaid {
		t.Fatalf("expected %s, got %s", EventTypeLoanRepaid, repaid.Type)
	}
	if repaid.Attributes["status"] != "repaid" {
		t.Fatalf("unexpected repaid attributes: %v", repaid.Attributes)
	}
}

func TestConcurrentLifecycles(t *testing.T) {
	engine := NewEngine(nil)

	const borrowers = 8
	const cyclesEach = 10
	done := make(chan error, borrowers)
	for b := 0; b < borrowers; b++ {
		borrower := fmt.Sprintf("borrower-%d", b)
		go func() {
			for i := 0; i < cyclesEach; i++ {
				id, err := engine.CreateLoan(borrower, big.NewInt(testCollateral), big.NewInt(testPrincipal), testTermDays, testNow)
				if err != nil {
					done <- err
					return
				}
				if _, err := engine.RepayLoan(id, big.NewInt(testPrincipal), borrower, testNow); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}
	for b := 0; b < borrowers; b++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent lifecycle: %v", err)
		}
	}

	stats := engine.Stats()
	if stats.TotalLoansCreated != borrowers*cyclesEach {
		t.Fatalf("expected %d loans, got %d", borrowers*cyclesEach, stats.TotalLoansCreated)
	}
	if stats.TotalLoansRepaid != borrowers*cyclesEach {
		t.Fatalf("expected %d repaid, got %d", borrowers*cyclesEach, stats.TotalLoansRepaid)
	}
	for b := 0; b < borrowers; b++ {
		rep, ok := engine.GetReputation(fmt.Sprintf("borrower-%d", b))
		if !ok || rep.TotalLoans != cyclesEach || rep.RepaidLoans != cyclesEach {
			t.Fatalf("borrower %d reputation off: %+v", b, rep)
		}
	}
}

func TestOverpaymentDoesNotOvershootPrincipal(t *testing.T) {
	engine := NewEngine(nil)
	id := createTestLoan(t, engine, "alice")

	// Pay well over the outstanding balance; the surplus is change, not
	// principal credit.
	repayment, err := engine.RepayLoan(id, big.NewInt(testPrincipal*2), "alice", testNow)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if repayment.PrincipalPaid.Cmp(big.NewInt(testPrincipal)) != 0 {
		t.Fatalf("expected principal capped at %d, got %s", testPrincipal, repayment.PrincipalPaid)
	}
	loan, _ := engine.GetLoan(id)
	if loan.TotalPrincipalPaid.Cmp(loan.Principal) != 0 {
		t.Fatalf("principal accumulator overshot: %s", loan.TotalPrincipalPaid)
	}
}
