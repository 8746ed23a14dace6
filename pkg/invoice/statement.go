package invoice

import (
	"math"

	"github.com/shweproperty/buildingbooks/pkg/api"
	"github.com/shweproperty/buildingbooks/pkg/money"
)

// Statement is the printable view of one invoice: its detail graph plus
// aggregates that no single endpoint returns directly.
type Statement struct {
	Invoice          api.Invoice
	Items            []api.InvoiceItem
	Payments         []api.InvoicePayment
	AppliedCredits   []api.AppliedCredit
	AppliedDiscounts []api.AppliedDiscount

	PaidAmount            float64
	AppliedCreditsTotal   float64
	AppliedDiscountsTotal float64
	PreviousBalance       float64
	DueAmount             float64
}

// outstanding is the statement-view balance of one invoice: payments,
// credits AND discounts all reduce what is due, clamped at zero.
func outstanding(inv api.Invoice) float64 {
	due := money.Round2(inv.Amount.Float() - inv.PaidAmount.Float() -
		inv.AppliedCreditsTotal.Float() - inv.AppliedDiscountsTotal.Float())
	return math.Max(0, due)
}

// PreviousBalance sums the outstanding balances of the target's same-unit
// invoices dated strictly before it. Invoices on the same sales date count
// only when their id is lower (entry-order tie-break). Each contributing
// invoice is clamped at zero so an overpaid invoice never reduces the total.
func PreviousBalance(all []api.Invoice, target api.Invoice) float64 {
	values := make([]float64, 0, len(all))
	for _, inv := range all {
		if inv.ID == target.ID || inv.UnitID != target.UnitID {
			continue
		}
		if inv.SalesDate > target.SalesDate {
			continue
		}
		if inv.SalesDate == target.SalesDate && inv.ID >= target.ID {
			continue
		}
		values = append(values, outstanding(inv))
	}
	return money.Sum(values...)
}

// BuildStatement assembles the print view. The paid/credit/discount totals
// are recomputed from the fetched child records (active rows only) rather
// than trusted from the invoice aggregate fields, and the due amount is
// floored at zero.
func BuildStatement(allInvoices []api.Invoice, detail api.InvoiceDetail,
	payments []api.InvoicePayment, credits []api.AppliedCredit, discounts []api.AppliedDiscount) Statement {

	var paid []float64
	for _, p := range payments {
		if p.Status.Active() {
			paid = append(paid, p.Amount.Float())
		}
	}
	var creditTotals []float64
	for _, cr := range credits {
		if cr.Status.Active() {
			creditTotals = append(creditTotals, cr.Amount.Float())
		}
	}
	var discountTotals []float64
	for _, d := range discounts {
		if d.Status.Active() {
			discountTotals = append(discountTotals, d.Amount.Float())
		}
	}

	stmt := Statement{
		Invoice:               detail.Invoice,
		Items:                 detail.Items,
		Payments:              payments,
		AppliedCredits:        credits,
		AppliedDiscounts:      discounts,
		PaidAmount:            money.Sum(paid...),
		AppliedCreditsTotal:   money.Sum(creditTotals...),
		AppliedDiscountsTotal: money.Sum(discountTotals...),
		PreviousBalance:       PreviousBalance(allInvoices, detail.Invoice),
	}

	due := money.Round2(detail.Invoice.Amount.Float() + stmt.PreviousBalance -
		stmt.PaidAmount - stmt.AppliedCreditsTotal - stmt.AppliedDiscountsTotal)
	stmt.DueAmount = math.Max(0, due)

	return stmt
}
