package loans

import "errors"

var (
	// ErrNilEngine marks calls against an unconstructed engine.
	ErrNilEngine = errors.New("loans: engine not initialised")
	// ErrInvalidAmount marks zero, negative or missing monetary inputs.
	ErrInvalidAmount = errors.New("loans: amount must be positive")
	// ErrInvalidTerm marks a zero-day loan term.
	ErrInvalidTerm = errors.New("loans: term length must be positive")
	// ErrBorrowerRequired marks a missing borrower identity.
	ErrBorrowerRequired = errors.New("loans: borrower required")
	// ErrInsufficientCollateral is returned when the collateral ratio falls
	// below the 120% creation minimum.
	ErrInsufficientCollateral = errors.New("loans: insufficient collateral, minimum 120% required")
	// ErrLoanNotFound marks lookups and repayments against unknown loan ids.
	ErrLoanNotFound = errors.New("loans: loan not found")
	// ErrUnauthorizedBorrower is returned when a repayment names a borrower
	// other than the one the loan was issued to.
	ErrUnauthorizedBorrower = errors.New("loans: unauthorized borrower")
	// ErrLoanNotActive marks repayments against settled or reserved states.
	ErrLoanNotActive = errors.New("loans: loan is not active")
	// ErrInsufficientRepayment is returned when the payment does not cover
	// the outstanding interest plus principal.
	ErrInsufficientRepayment = errors.New("loans: insufficient repayment amount")
)
