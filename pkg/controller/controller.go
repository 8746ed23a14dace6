// Package controller orchestrates the invoice list screen: reference data,
// persisted filters, derived rows, lazy detail, statement aggregation, and
// the three two-phase mutation workflows.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shweproperty/buildingbooks/pkg/api"
	"github.com/shweproperty/buildingbooks/pkg/history"
	"github.com/shweproperty/buildingbooks/pkg/invoice"
	"github.com/shweproperty/buildingbooks/pkg/workflow"
)

// ErrNotEligible is returned when a workflow is requested for an invoice
// whose balance does not allow it.
var ErrNotEligible = errors.New("invoice is not eligible for this action")

// ErrNotConfirmed is returned when a destructive action was not confirmed.
var ErrNotConfirmed = errors.New("action not confirmed")

// Backend is the slice of the REST surface the invoice screen consumes.
// *api.Client satisfies it; tests substitute fakes.
type Backend interface {
	ListAccounts(ctx context.Context) ([]api.Account, error)
	ListUnits(ctx context.Context) ([]api.Unit, error)
	ListPeople(ctx context.Context) ([]api.People, error)
	ListInvoices(ctx context.Context, filter api.InvoiceFilter) ([]api.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*api.InvoiceDetail, error)
	AvailableCredits(ctx context.Context, invoiceID int64) ([]api.CreditMemo, error)
	AppliedCredits(ctx context.Context, invoiceID int64) ([]api.AppliedCredit, error)
	AppliedDiscounts(ctx context.Context, invoiceID int64) ([]api.AppliedDiscount, error)
	ListPayments(ctx context.Context, invoiceID int64) ([]api.InvoicePayment, error)
	DeleteAppliedCredit(ctx context.Context, id int64) error
	DeleteAppliedDiscount(ctx context.Context, id int64) error

	workflow.CreditBackend
	workflow.DiscountBackend
	workflow.PaymentBackend
}

// Settings is the injected persisted-settings port (durable key-value
// storage keyed by building id and name).
type Settings interface {
	Filter(buildingID int64, name string) (string, bool)
	SetFilter(buildingID int64, name, value string) error
	PaymentDate(buildingID int64) (string, bool)
	SetPaymentDate(buildingID int64, date string) error
}

// Filters narrows the invoice list. Values persist across sessions per
// building.
type Filters struct {
	StartDate string
	EndDate   string
	PeopleID  int64
	Status    api.Status
}

// DefaultFilters returns current-month bounds with status active.
func DefaultFilters(now time.Time) Filters {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return Filters{
		StartDate: first.Format("2006-01-02"),
		EndDate:   last.Format("2006-01-02"),
		Status:    api.StatusActive,
	}
}

// Config wires a Controller. Backend and BuildingID are required; Settings
// and Recorder are optional conveniences.
type Config struct {
	Backend    Backend
	Settings   Settings
	Recorder   *history.Recorder
	BuildingID int64
	Logger     *slog.Logger
	Now        func() time.Time
}

// Controller holds the invoice screen's state. Reference arrays are
// replaced wholesale on fetch, never mutated in place.
type Controller struct {
	backend    Backend
	settings   Settings
	recorder   *history.Recorder
	buildingID int64
	log        *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	gen      uint64
	accounts []api.Account
	units    []api.Unit
	people   []api.People
	invoices []api.Invoice
	filters  Filters
}

// New creates a Controller, restoring any persisted filter selections for
// the building.
func New(cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	c := &Controller{
		backend:    cfg.Backend,
		settings:   cfg.Settings,
		recorder:   cfg.Recorder,
		buildingID: cfg.BuildingID,
		log:        log,
		now:        now,
		filters:    DefaultFilters(now()),
	}
	c.restoreFilters()
	return c
}

func (c *Controller) restoreFilters() {
	if c.settings == nil {
		return
	}
	if v, ok := c.settings.Filter(c.buildingID, "start_date"); ok {
		c.filters.StartDate = v
	}
	if v, ok := c.settings.Filter(c.buildingID, "end_date"); ok {
		c.filters.EndDate = v
	}
	if v, ok := c.settings.Filter(c.buildingID, "people_id"); ok {
		fmt.Sscanf(v, "%d", &c.filters.PeopleID)
	}
	if v, ok := c.settings.Filter(c.buildingID, "status"); ok {
		c.filters.Status = api.Status(v)
	}
}

func (c *Controller) persistFilters(f Filters) {
	if c.settings == nil {
		return
	}
	pairs := map[string]string{
		"start_date": f.StartDate,
		"end_date":   f.EndDate,
		"people_id":  fmt.Sprintf("%d", f.PeopleID),
		"status":     string(f.Status),
	}
	for name, value := range pairs {
		if err := c.settings.SetFilter(c.buildingID, name, value); err != nil {
			c.log.Warn("failed to persist filter", "name", name, "error", err)
		}
	}
}

// Filters returns the active filter selection.
func (c *Controller) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// LoadReference fetches accounts, units, and people concurrently. A failed
// fetch degrades that list to empty and logs a warning; the screen stays
// usable and lookups fall back to "ID: n" placeholders.
func (c *Controller) LoadReference(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		accounts, err := c.backend.ListAccounts(ctx)
		if err != nil {
			c.log.Warn("failed to fetch accounts", "error", err)
			accounts = nil
		}
		c.mu.Lock()
		c.accounts = accounts
		c.mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		units, err := c.backend.ListUnits(ctx)
		if err != nil {
			c.log.Warn("failed to fetch units", "error", err)
			units = nil
		}
		c.mu.Lock()
		c.units = units
		c.mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		people, err := c.backend.ListPeople(ctx)
		if err != nil {
			c.log.Warn("failed to fetch people", "error", err)
			people = nil
		}
		c.mu.Lock()
		c.people = people
		c.mu.Unlock()
	}()

	wg.Wait()
}

// RefreshInvoices refetches the invoice list for the current filters.
// Responses belonging to an older request generation are discarded so a
// slow response can never overwrite newer state.
func (c *Controller) RefreshInvoices(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	filter := api.InvoiceFilter{
		StartDate: c.filters.StartDate,
		EndDate:   c.filters.EndDate,
		PeopleID:  c.filters.PeopleID,
		Status:    c.filters.Status,
	}
	c.mu.Unlock()

	invoices, err := c.backend.ListInvoices(ctx, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.log.Debug("discarding stale invoice response", "gen", gen, "current", c.gen)
		return nil
	}
	if err != nil {
		c.invoices = nil
		return fmt.Errorf("failed to fetch invoices: %w", err)
	}
	c.invoices = invoices
	return nil
}

// SetFilters persists the new selection and refetches the list.
func (c *Controller) SetFilters(ctx context.Context, f Filters) error {
	c.mu.Lock()
	c.filters = f
	c.mu.Unlock()
	c.persistFilters(f)
	return c.RefreshInvoices(ctx)
}

// Invoices returns the current invoice list.
func (c *Controller) Invoices() []api.Invoice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invoices
}

// InvoiceDetail fetches one invoice's full graph on demand.
func (c *Controller) InvoiceDetail(ctx context.Context, id int64) (*api.InvoiceDetail, error) {
	return c.backend.GetInvoice(ctx, id)
}

// AvailableCredits lists the credit memos applicable to an invoice.
func (c *Controller) AvailableCredits(ctx context.Context, invoiceID int64) ([]api.CreditMemo, error) {
	return c.backend.AvailableCredits(ctx, invoiceID)
}

// AppliedCredits lists the credits applied to an invoice.
func (c *Controller) AppliedCredits(ctx context.Context, invoiceID int64) ([]api.AppliedCredit, error) {
	return c.backend.AppliedCredits(ctx, invoiceID)
}

// AppliedDiscounts lists the discounts applied to an invoice.
func (c *Controller) AppliedDiscounts(ctx context.Context, invoiceID int64) ([]api.AppliedDiscount, error) {
	return c.backend.AppliedDiscounts(ctx, invoiceID)
}

// DeleteAppliedCredit soft-deletes an applied credit after explicit
// confirmation; the backend cascades to the generated splits.
func (c *Controller) DeleteAppliedCredit(ctx context.Context, id int64, confirm func() bool) error {
	if confirm == nil || !confirm() {
		return ErrNotConfirmed
	}
	if err := c.backend.DeleteAppliedCredit(ctx, id); err != nil {
		return err
	}
	if err := c.RefreshInvoices(ctx); err != nil {
		c.log.Warn("refresh after delete failed", "error", err)
	}
	return nil
}

// DeleteAppliedDiscount soft-deletes an applied discount after explicit
// confirmation.
func (c *Controller) DeleteAppliedDiscount(ctx context.Context, id int64, confirm func() bool) error {
	if confirm == nil || !confirm() {
		return ErrNotConfirmed
	}
	if err := c.backend.DeleteAppliedDiscount(ctx, id); err != nil {
		return err
	}
	if err := c.RefreshInvoices(ctx); err != nil {
		c.log.Warn("refresh after delete failed", "error", err)
	}
	return nil
}

// recordPosting appends to the local posting log. Failures are secondary.
func (c *Controller) recordPosting(kind workflow.Kind, invoiceID int64, amount float64, date, reference string) {
	if c.recorder == nil {
		return
	}
	err := c.recorder.Record(history.Posting{
		Workflow:    string(kind),
		BuildingID:  c.buildingID,
		InvoiceID:   invoiceID,
		Amount:      amount,
		PostingDate: date,
		Reference:   reference,
	})
	if err != nil {
		c.log.Warn("failed to record posting history", "workflow", kind, "error", err)
	}
}

// CreditWorkflow builds the apply-credit runner and form for an invoice
// with a positive balance.
func (c *Controller) CreditWorkflow(inv api.Invoice) (*workflow.Runner, *workflow.CreditForm, error) {
	if !invoice.EligibleForCredit(inv) {
		return nil, nil, ErrNotEligible
	}

	form := &workflow.CreditForm{Date: c.now().Format("2006-01-02")}
	runner := workflow.NewCreditRunner(c.backend, inv.ID, c.log, c.now)
	runner.OnCommitted(func(ctx context.Context) error {
		c.recordPosting(workflow.KindCredit, inv.ID, form.Amount, form.Date, "")
		return nil
	})
	runner.OnCommitted(c.RefreshInvoices)
	return runner, form, nil
}

// DiscountWorkflow builds the apply-discount runner and form, pre-selecting
// the invoice's AR account.
func (c *Controller) DiscountWorkflow(inv api.Invoice) (*workflow.Runner, *workflow.DiscountForm, error) {
	if !invoice.EligibleForDiscount(inv) {
		return nil, nil, ErrNotEligible
	}

	form := &workflow.DiscountForm{
		ARAccountID: inv.ARAccountID,
		Date:        c.now().Format("2006-01-02"),
	}
	runner := workflow.NewDiscountRunner(c.backend, inv.ID, c.log, c.now)
	runner.OnCommitted(func(ctx context.Context) error {
		c.recordPosting(workflow.KindDiscount, inv.ID, form.Amount, form.Date, form.Reference)
		return nil
	})
	runner.OnCommitted(c.RefreshInvoices)
	return runner, form, nil
}

// PaymentWorkflow builds the record-payment runner and form. The payment
// date is restored from (and persisted to) the per-building memory so
// sequential payment entry across invoices keeps the chosen date.
func (c *Controller) PaymentWorkflow(inv api.Invoice) (*workflow.Runner, *workflow.PaymentForm, error) {
	if !invoice.EligibleForPayment(inv) {
		return nil, nil, ErrNotEligible
	}

	form := &workflow.PaymentForm{Date: c.now().Format("2006-01-02")}
	if c.settings != nil {
		if date, ok := c.settings.PaymentDate(c.buildingID); ok && date != "" {
			form.Date = date
		}
	}

	runner := workflow.NewPaymentRunner(c.backend, inv.ID, c.buildingID, c.log)
	runner.OnCommitted(func(ctx context.Context) error {
		c.recordPosting(workflow.KindPayment, inv.ID, form.Amount, form.Date, form.Reference)
		if c.settings != nil {
			if err := c.settings.SetPaymentDate(c.buildingID, form.Date); err != nil {
				c.log.Warn("failed to persist payment date", "error", err)
			}
		}
		return nil
	})
	runner.OnCommitted(c.RefreshInvoices)
	return runner, form, nil
}

// Statement assembles the printable view of one invoice. The detail graph,
// applied credits, applied discounts, payments, and the unit-wide invoice
// list (for the previous-balance aggregation) are fetched in parallel.
func (c *Controller) Statement(ctx context.Context, invoiceID int64) (*invoice.Statement, error) {
	var (
		wg        sync.WaitGroup
		detail    *api.InvoiceDetail
		credits   []api.AppliedCredit
		discounts []api.AppliedDiscount
		payments  []api.InvoicePayment
		all       []api.Invoice

		detailErr, creditsErr, discountsErr, paymentsErr, allErr error
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		detail, detailErr = c.backend.GetInvoice(ctx, invoiceID)
	}()
	go func() {
		defer wg.Done()
		credits, creditsErr = c.backend.AppliedCredits(ctx, invoiceID)
	}()
	go func() {
		defer wg.Done()
		discounts, discountsErr = c.backend.AppliedDiscounts(ctx, invoiceID)
	}()
	go func() {
		defer wg.Done()
		payments, paymentsErr = c.backend.ListPayments(ctx, invoiceID)
	}()
	go func() {
		defer wg.Done()
		// Unfiltered active list: the previous-balance aggregation spans
		// invoices outside the screen's current date window.
		all, allErr = c.backend.ListInvoices(ctx, api.InvoiceFilter{Status: api.StatusActive})
	}()
	wg.Wait()

	for _, err := range []error{detailErr, creditsErr, discountsErr, paymentsErr, allErr} {
		if err != nil {
			return nil, fmt.Errorf("failed to assemble statement: %w", err)
		}
	}

	stmt := invoice.BuildStatement(all, *detail, payments, credits, discounts)
	return &stmt, nil
}
