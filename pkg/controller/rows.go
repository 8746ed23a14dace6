package controller

import (
	"fmt"

	"github.com/shweproperty/buildingbooks/pkg/api"
	"github.com/shweproperty/buildingbooks/pkg/invoice"
)

// Action is a row action available for one invoice.
type Action string

const (
	ActionView          Action = "view"
	ActionEdit          Action = "edit"
	ActionPay           Action = "pay"
	ActionApplyCredit   Action = "apply-credit"
	ActionApplyDiscount Action = "apply-discount"
)

// Row is one derived table row: the raw invoice plus the computed balance,
// payment status, and the actions its state allows.
type Row struct {
	Invoice       api.Invoice
	Balance       float64
	PaymentStatus invoice.PaymentStatus
	Actions       []Action
}

// actionsFor gates row actions: View and Edit always; Pay only while not
// fully paid; ApplyCredit and ApplyDiscount only while the balance is
// positive.
func actionsFor(inv api.Invoice) []Action {
	actions := []Action{ActionView}
	if invoice.EligibleForPayment(inv) {
		actions = append(actions, ActionPay)
	}
	if invoice.EligibleForCredit(inv) {
		actions = append(actions, ActionApplyCredit)
	}
	if invoice.EligibleForDiscount(inv) {
		actions = append(actions, ActionApplyDiscount)
	}
	return append(actions, ActionEdit)
}

// Rows derives the table rows for the current invoice list.
func (c *Controller) Rows() []Row {
	c.mu.Lock()
	invoices := c.invoices
	c.mu.Unlock()

	rows := make([]Row, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, Row{
			Invoice:       inv,
			Balance:       invoice.Balance(inv),
			PaymentStatus: invoice.ComputePaymentStatus(inv),
			Actions:       actionsFor(inv),
		})
	}
	return rows
}

// AccountName resolves an account id against the loaded reference data,
// falling back to an "ID: n" placeholder when the lookup misses. The
// fallback is a required degrade contract: rendering must never depend on
// reference data having arrived.
func (c *Controller) AccountName(id int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.accounts {
		if a.ID == id {
			return a.Name
		}
	}
	return fmt.Sprintf("ID: %d", id)
}

// UnitName resolves a unit id, with the same fallback contract.
func (c *Controller) UnitName(id int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.units {
		if u.ID == id {
			return u.Name
		}
	}
	return fmt.Sprintf("ID: %d", id)
}

// PeopleName resolves a people id, with the same fallback contract.
func (c *Controller) PeopleName(id int64) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.people {
		if p.ID == id {
			return p.Name
		}
	}
	return fmt.Sprintf("ID: %d", id)
}

// Accounts returns the loaded account reference data.
func (c *Controller) Accounts() []api.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accounts
}

// Units returns the loaded unit reference data.
func (c *Controller) Units() []api.Unit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.units
}

// People returns the loaded people reference data.
func (c *Controller) People() []api.People {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.people
}
