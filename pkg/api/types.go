// Package api provides the building-scoped REST client and wire types for the
// property accounting backend.
package api

import (
	"encoding/json"

	"github.com/shweproperty/buildingbooks/pkg/money"
)

// Status is the backend's active/inactive flag, serialized as "1"/"0".
// Inactive records are retained history (soft deletes, superseded revisions)
// and are excluded from active totals.
type Status string

const (
	StatusActive   Status = "1"
	StatusInactive Status = "0"
)

// Active reports whether the record counts toward active totals.
func (s Status) Active() bool {
	return s == StatusActive
}

// Amount is a monetary value. The backend returns amounts both as JSON
// numbers and as numeric strings; malformed values coerce to 0 rather than
// failing the whole payload.
type Amount float64

// UnmarshalJSON implements tolerant numeric decoding.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(money.Coerce(v))
	return nil
}

// Float returns the amount as a plain float64.
func (a Amount) Float() float64 {
	return float64(a)
}

// Building is a multi-tenant partition; most resources are namespaced
// under a building id.
type Building struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Status  Status `json:"status,omitempty"`
}

// Account is a ledger account.
type Account struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code,omitempty"`
	Type   string `json:"type,omitempty"` // asset, liability, income, expense, equity
	Status Status `json:"status,omitempty"`
}

// Unit is a rentable unit within a building.
type Unit struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status Status `json:"status,omitempty"`
}

// People is a tenant/customer record.
type People struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Status Status `json:"status,omitempty"`
}

// Item is a billable item (rent, electricity, water...).
type Item struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Rate   Amount `json:"rate"`
	Status Status `json:"status,omitempty"`
}

// Invoice is an accounts-receivable document. The paid/applied totals are
// computed by the backend; balance and payment status are derived client-side
// (see the invoice package).
type Invoice struct {
	ID                    int64  `json:"id"`
	InvoiceNo             string `json:"invoice_no"`
	SalesDate             string `json:"sales_date"` // YYYY-MM-DD
	DueDate               string `json:"due_date,omitempty"`
	UnitID                int64  `json:"unit_id"`
	PeopleID              int64  `json:"people_id"`
	ARAccountID           int64  `json:"ar_account_id"`
	Amount                Amount `json:"amount"`
	PaidAmount            Amount `json:"paid_amount"`
	AppliedCreditsTotal   Amount `json:"applied_credits_total"`
	AppliedDiscountsTotal Amount `json:"applied_discounts_total"`
	Description           string `json:"description,omitempty"`
	Status                Status `json:"status"`
}

// InvoiceItem is one line of an invoice. Inactive items represent a prior
// revision kept for audit.
type InvoiceItem struct {
	ID            int64  `json:"id"`
	InvoiceID     int64  `json:"invoice_id"`
	ItemName      string `json:"item_name"`
	PreviousValue Amount `json:"previous_value"`
	CurrentValue  Amount `json:"current_value"`
	Qty           Amount `json:"qty"`
	Rate          Amount `json:"rate"`
	Total         Amount `json:"total"`
	Status        Status `json:"status"`
}

// Split is one debit-or-credit line of a double-entry transaction. At most
// one of Debit/Credit is populated per business convention.
type Split struct {
	ID        int64  `json:"id"`
	AccountID int64  `json:"account_id"`
	PeopleID  int64  `json:"people_id,omitempty"`
	UnitID    int64  `json:"unit_id,omitempty"`
	Debit     Amount `json:"debit"`
	Credit    Amount `json:"credit"`
	Status    Status `json:"status"`
}

// InvoiceDetail is the full detail graph of one invoice, fetched lazily.
type InvoiceDetail struct {
	Invoice Invoice       `json:"invoice"`
	Items   []InvoiceItem `json:"items"`
	Splits  []Split       `json:"splits"`
}

// CreditMemo is a customer credit that can be applied against invoices.
// AvailableAmount is server-computed: amount minus active applications.
type CreditMemo struct {
	ID              int64  `json:"id"`
	CreditMemoNo    string `json:"credit_memo_no"`
	PeopleID        int64  `json:"people_id"`
	AccountID       int64  `json:"account_id"`
	Date            string `json:"date"`
	Amount          Amount `json:"amount"`
	AvailableAmount Amount `json:"available_amount"`
	Description     string `json:"description,omitempty"`
	Status          Status `json:"status"`
}

// AppliedCredit links a credit memo to an invoice. Soft-deleted (status "0")
// by an explicit delete, which also soft-deletes the generated splits
// server-side.
type AppliedCredit struct {
	ID           int64  `json:"id"`
	InvoiceID    int64  `json:"invoice_id"`
	CreditMemoID int64  `json:"credit_memo_id"`
	Amount       Amount `json:"amount"`
	Description  string `json:"description,omitempty"`
	Date         string `json:"date"`
	Status       Status `json:"status"`
}

// AppliedDiscount links an AR/income account pair to an invoice.
type AppliedDiscount struct {
	ID              int64  `json:"id"`
	InvoiceID       int64  `json:"invoice_id"`
	ARAccountID     int64  `json:"ar_account_id"`
	IncomeAccountID int64  `json:"income_account_id"`
	Amount          Amount `json:"amount"`
	Description     string `json:"description,omitempty"`
	Date            string `json:"date"`
	Reference       string `json:"reference,omitempty"`
	Status          Status `json:"status"`
}

// InvoicePayment is a recorded payment against an invoice.
type InvoicePayment struct {
	ID        int64  `json:"id"`
	InvoiceID int64  `json:"invoice_id"`
	AccountID int64  `json:"account_id"`
	Amount    Amount `json:"amount"`
	Date      string `json:"date"`
	Reference string `json:"reference,omitempty"`
	Status    Status `json:"status"`
}

// SplitsPreview is the ephemeral result of a dry-run endpoint: the splits
// that WOULD be created by a commit, never persisted.
type SplitsPreview struct {
	Splits      []Split `json:"splits"`
	TotalDebit  Amount  `json:"total_debit"`
	TotalCredit Amount  `json:"total_credit"`
	IsBalanced  bool    `json:"is_balanced"`
}

// User is the authenticated backend user.
type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username"`
}

// LoginResponse is returned by POST /v1/auth/login.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	Username    string `json:"username"`
	User        User   `json:"user"`
}

// ApplyCreditRequest is the payload shared by preview-apply-credit and
// apply-credit. Preview and commit intentionally use the same shape.
type ApplyCreditRequest struct {
	CreditMemoID int64   `json:"credit_memo_id"`
	Amount       float64 `json:"amount"`
	Description  string  `json:"description"`
	Date         string  `json:"date"`
}

// ApplyDiscountRequest is the payload shared by preview-apply-discount and
// apply-discount.
type ApplyDiscountRequest struct {
	ARAccount     int64   `json:"ar_account"`
	IncomeAccount int64   `json:"income_account"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	Date          string  `json:"date"`
	Reference     string  `json:"reference,omitempty"`
}

// PaymentRequest is the payload shared by invoice-payments/preview and
// invoice-payments.
type PaymentRequest struct {
	Reference  string  `json:"reference,omitempty"`
	InvoiceID  int64   `json:"invoice_id"`
	AccountID  int64   `json:"account_id"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
	Status     Status  `json:"status"`
	BuildingID int64   `json:"building_id"`
}

// CreateInvoiceItem is one line of an invoice create/update request.
type CreateInvoiceItem struct {
	ItemName      string  `json:"item_name"`
	PreviousValue float64 `json:"previous_value"`
	CurrentValue  float64 `json:"current_value"`
	Qty           float64 `json:"qty"`
	Rate          float64 `json:"rate"`
}

// CreateInvoiceRequest creates or replaces an invoice.
type CreateInvoiceRequest struct {
	InvoiceNo       string              `json:"invoice_no"`
	SalesDate       string              `json:"sales_date"`
	DueDate         string              `json:"due_date,omitempty"`
	UnitID          int64               `json:"unit_id"`
	PeopleID        int64               `json:"people_id"`
	ARAccountID     int64               `json:"ar_account_id"`
	IncomeAccountID int64               `json:"income_account_id,omitempty"`
	Description     string              `json:"description,omitempty"`
	Items           []CreateInvoiceItem `json:"items"`
}

// CreateCreditMemoRequest creates a credit memo.
type CreateCreditMemoRequest struct {
	CreditMemoNo string  `json:"credit_memo_no"`
	PeopleID     int64   `json:"people_id"`
	AccountID    int64   `json:"account_id"`
	Date         string  `json:"date"`
	Amount       float64 `json:"amount"`
	Description  string  `json:"description,omitempty"`
}

// InvoiceFilter narrows the invoice list.
type InvoiceFilter struct {
	StartDate string
	EndDate   string
	PeopleID  int64
	Status    Status
}
