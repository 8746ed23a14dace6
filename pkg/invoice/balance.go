// Package invoice derives balances, payment statuses, and printable
// statement aggregates from invoice records. Pure computation, no I/O.
package invoice

import (
	"math"

	"github.com/shweproperty/buildingbooks/pkg/api"
	"github.com/shweproperty/buildingbooks/pkg/money"
)

// paidEpsilon is the tolerance under which a balance counts as fully paid.
const paidEpsilon = 0.01

// PaymentStatus is the derived (never stored) payment state of an invoice.
type PaymentStatus string

const (
	StatusPaid     PaymentStatus = "Paid"
	StatusHalfPaid PaymentStatus = "Half Paid"
	StatusUnpaid   PaymentStatus = "Unpaid"
)

// Balance computes the outstanding balance used by the list and eligibility
// views: amount minus payments minus applied credits. Applied discounts are
// intentionally NOT subtracted here; the statement view subtracts both.
func Balance(inv api.Invoice) float64 {
	return money.Round2(inv.Amount.Float() - inv.PaidAmount.Float() - inv.AppliedCreditsTotal.Float())
}

// ComputePaymentStatus derives the payment status from the invoice's raw
// fields. Exact-paid takes priority over half-paid.
func ComputePaymentStatus(inv api.Invoice) PaymentStatus {
	balance := Balance(inv)
	switch {
	case math.Abs(balance) < paidEpsilon:
		return StatusPaid
	case balance < inv.Amount.Float():
		return StatusHalfPaid
	default:
		return StatusUnpaid
	}
}

// EligibleForCredit reports whether the invoice can take an applied credit.
func EligibleForCredit(inv api.Invoice) bool {
	return Balance(inv) > 0
}

// EligibleForDiscount reports whether the invoice can take an applied
// discount. Same rule as credits.
func EligibleForDiscount(inv api.Invoice) bool {
	return Balance(inv) > 0
}

// EligibleForPayment reports whether the invoice can still take a payment,
// i.e. it is not fully paid.
func EligibleForPayment(inv api.Invoice) bool {
	return math.Abs(Balance(inv)) >= paidEpsilon
}

// Side selects the debit or credit column of a split.
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

// SumActive sums one side over splits whose status is active, rounded to 2
// decimal places. Inactive splits are retained history and excluded.
func SumActive(splits []api.Split, side Side) float64 {
	values := make([]float64, 0, len(splits))
	for _, s := range splits {
		if !s.Status.Active() {
			continue
		}
		if side == Debit {
			values = append(values, s.Debit.Float())
		} else {
			values = append(values, s.Credit.Float())
		}
	}
	return money.Sum(values...)
}
