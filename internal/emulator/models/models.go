// Package models defines the emulator's stored record shapes. Wire shapes
// are shared with the client package; records add the backend-only scoping
// and parentage fields.
package models

import "github.com/shweproperty/buildingbooks/pkg/api"

// Parent document types for splits.
const (
	ParentInvoice         = "invoice"
	ParentAppliedCredit   = "applied_credit"
	ParentAppliedDiscount = "applied_discount"
	ParentPayment         = "payment"
)

// User is an emulator login. Passwords are stored in the clear: the
// emulator exists for local development and tests only.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Building is a stored building.
type Building struct {
	api.Building
}

// Account is a stored ledger account.
type Account struct {
	api.Account
	BuildingID int64 `json:"building_id"`
}

// Unit is a stored unit.
type Unit struct {
	api.Unit
	BuildingID int64 `json:"building_id"`
}

// People is a stored tenant/customer.
type People struct {
	api.People
	BuildingID int64 `json:"building_id"`
}

// Item is a stored billable item.
type Item struct {
	api.Item
	BuildingID int64 `json:"building_id"`
}

// CreditMemo is a stored credit memo. AvailableAmount is derived on read,
// never stored.
type CreditMemo struct {
	api.CreditMemo
	BuildingID int64 `json:"building_id"`
}

// Invoice is a stored invoice. The paid/applied totals on the embedded
// wire struct are derived on read.
type Invoice struct {
	api.Invoice
	BuildingID      int64 `json:"building_id"`
	IncomeAccountID int64 `json:"income_account_id,omitempty"`
}

// InvoiceItem is a stored invoice line.
type InvoiceItem struct {
	api.InvoiceItem
}

// Split is a stored ledger line with its parent document. Splits posted
// together share a TxnID.
type Split struct {
	api.Split
	BuildingID int64  `json:"building_id"`
	ParentType string `json:"parent_type"`
	ParentID   int64  `json:"parent_id"`
	Date       string `json:"date"`
	TxnID      string `json:"txn_id"`
}

// AppliedCredit is a stored credit application.
type AppliedCredit struct {
	api.AppliedCredit
	BuildingID int64 `json:"building_id"`
	UserID     int64 `json:"user_id"`
}

// AppliedDiscount is a stored discount application.
type AppliedDiscount struct {
	api.AppliedDiscount
	BuildingID int64 `json:"building_id"`
	UserID     int64 `json:"user_id"`
}

// Payment is a stored invoice payment.
type Payment struct {
	api.InvoicePayment
	BuildingID int64 `json:"building_id"`
	UserID     int64 `json:"user_id"`
}
