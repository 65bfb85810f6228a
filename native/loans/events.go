package loans

import (
	"strconv"

	"dstchain/core/types"
)

const (
	// EventTypeLoanCreated is emitted when a loan is opened.
	EventTypeLoanCreated = "loans.created"
	// EventTypeLoanRepaid is emitted when a repayment settles a loan.
	EventTypeLoanRepaid = "loans.repaid"
)

// EventEmitter receives the events produced while the engine applies state
// transitions. Implemented by the embedding settlement layer.
type EventEmitter interface {
	AppendEvent(evt *types.Event)
}

func newLoanCreatedEvent(loan *Loan) *types.Event {
	attrs := make(map[string]string)
	if loan == nil {
		return &types.Event{Type: EventTypeLoanCreated, Attributes: attrs}
	}
	attrs["loanId"] = strconv.FormatUint(loan.ID, 10)
	attrs["borrower"] = loan.Borrower
	if loan.CollateralAmount != nil {
		attrs["collateral"] = loan.CollateralAmount.String()
	}
	if loan.Principal != nil {
		attrs["principal"] = loan.Principal.String()
	}
	attrs["rateBps"] = strconv.FormatUint(loan.CurrentInterestRate, 10)
	attrs["collateralRatio"] = strconv.FormatUint(loan.CollateralRatio, 10)
	attrs["termDays"] = strconv.FormatUint(loan.TermDays, 10)
	attrs["dueDate"] = strconv.FormatInt(loan.DueDate, 10)
	return &types.Event{Type: EventTypeLoanCreated, Attributes: attrs}
}

func newLoanRepaidEvent(loan *Loan, repayment *Repayment) *types.Event {
	attrs := make(map[string]string)
	if loan == nil || repayment == nil {
		return &types.Event{Type: EventTypeLoanRepaid, Attributes: attrs}
	}
	attrs["loanId"] = strconv.FormatUint(loan.ID, 10)
	attrs["borrower"] = loan.Borrower
	if repayment.Amount != nil {
		attrs["amount"] = repayment.Amount.String()
	}
	if repayment.InterestPaid != nil {
		attrs["interestPaid"] = repayment.InterestPaid.String()
	}
	if repayment.PrincipalPaid != nil {
		attrs["principalPaid"] = repayment.PrincipalPaid.String()
	}
	if repayment.EarlyPaymentBonus != nil {
		attrs["earlyPaymentBonus"] = repayment.EarlyPaymentBonus.String()
	}
	attrs["daysEarly"] = strconv.FormatUint(repayment.DaysEarly, 10)
	attrs["status"] = loan.Status.String()
	return &types.Event{Type: EventTypeLoanRepaid, Attributes: attrs}
}
