package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shweproperty/buildingbooks/pkg/api"
)

// fakeBackend is an in-memory Backend with per-call overrides.
type fakeBackend struct {
	mu sync.Mutex

	accounts  []api.Account
	units     []api.Unit
	people    []api.People
	invoices  []api.Invoice
	detail    *api.InvoiceDetail
	credits   []api.AppliedCredit
	discounts []api.AppliedDiscount
	payments  []api.InvoicePayment
	memos     []api.CreditMemo

	accountsErr error
	invoicesErr error

	listCalls    int
	listOverride func(call int, filter api.InvoiceFilter) ([]api.Invoice, error)

	deletedCredits []int64
}

func (f *fakeBackend) ListAccounts(ctx context.Context) ([]api.Account, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return f.accounts, nil
}

func (f *fakeBackend) ListUnits(ctx context.Context) ([]api.Unit, error)     { return f.units, nil }
func (f *fakeBackend) ListPeople(ctx context.Context) ([]api.People, error)  { return f.people, nil }

func (f *fakeBackend) ListInvoices(ctx context.Context, filter api.InvoiceFilter) ([]api.Invoice, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	override := f.listOverride
	f.mu.Unlock()

	if override != nil {
		return override(call, filter)
	}
	if f.invoicesErr != nil {
		return nil, f.invoicesErr
	}
	return f.invoices, nil
}

func (f *fakeBackend) GetInvoice(ctx context.Context, id int64) (*api.InvoiceDetail, error) {
	if f.detail == nil {
		return nil, errors.New("not found")
	}
	return f.detail, nil
}

func (f *fakeBackend) AvailableCredits(ctx context.Context, invoiceID int64) ([]api.CreditMemo, error) {
	return f.memos, nil
}

func (f *fakeBackend) AppliedCredits(ctx context.Context, invoiceID int64) ([]api.AppliedCredit, error) {
	return f.credits, nil
}

func (f *fakeBackend) AppliedDiscounts(ctx context.Context, invoiceID int64) ([]api.AppliedDiscount, error) {
	return f.discounts, nil
}

func (f *fakeBackend) ListPayments(ctx context.Context, invoiceID int64) ([]api.InvoicePayment, error) {
	return f.payments, nil
}

func (f *fakeBackend) DeleteAppliedCredit(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedCredits = append(f.deletedCredits, id)
	return nil
}

func (f *fakeBackend) DeleteAppliedDiscount(ctx context.Context, id int64) error { return nil }

func (f *fakeBackend) PreviewApplyCredit(ctx context.Context, invoiceID int64, req api.ApplyCreditRequest) (*api.SplitsPreview, error) {
	return &api.SplitsPreview{IsBalanced: true}, nil
}

func (f *fakeBackend) ApplyCredit(ctx context.Context, invoiceID int64, req api.ApplyCreditRequest) (*api.AppliedCredit, error) {
	return &api.AppliedCredit{ID: 1}, nil
}

func (f *fakeBackend) PreviewApplyDiscount(ctx context.Context, invoiceID int64, req api.ApplyDiscountRequest) (*api.SplitsPreview, error) {
	return &api.SplitsPreview{IsBalanced: true}, nil
}

func (f *fakeBackend) ApplyDiscount(ctx context.Context, invoiceID int64, req api.ApplyDiscountRequest) (*api.AppliedDiscount, error) {
	return &api.AppliedDiscount{ID: 1}, nil
}

func (f *fakeBackend) PreviewPayment(ctx context.Context, req api.PaymentRequest) (*api.SplitsPreview, error) {
	return &api.SplitsPreview{IsBalanced: true}, nil
}

func (f *fakeBackend) CreatePayment(ctx context.Context, req api.PaymentRequest) (*api.InvoicePayment, error) {
	return &api.InvoicePayment{ID: 1}, nil
}

// fakeSettings is an in-memory Settings port.
type fakeSettings struct {
	mu          sync.Mutex
	filters     map[string]string
	paymentDate string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{filters: make(map[string]string)}
}

func (s *fakeSettings) key(buildingID int64, name string) string {
	return fmt.Sprintf("b%d/%s", buildingID, name)
}

func (s *fakeSettings) Filter(buildingID int64, name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.filters[s.key(buildingID, name)]
	return v, ok
}

func (s *fakeSettings) SetFilter(buildingID int64, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters[s.key(buildingID, name)] = value
	return nil
}

func (s *fakeSettings) PaymentDate(buildingID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentDate, s.paymentDate != ""
}

func (s *fakeSettings) SetPaymentDate(buildingID int64, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentDate = date
	return nil
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
}

func newTestController(backend *fakeBackend, settings Settings) *Controller {
	return New(Config{
		Backend:    backend,
		Settings:   settings,
		BuildingID: 7,
		Now:        fixedNow,
	})
}

func TestDefaultFiltersAreCurrentMonth(t *testing.T) {
	c := newTestController(&fakeBackend{}, nil)
	filters := c.Filters()
	assert.Equal(t, "2026-08-01", filters.StartDate)
	assert.Equal(t, "2026-08-31", filters.EndDate)
	assert.Equal(t, api.StatusActive, filters.Status)
}

func TestFiltersRestoredFromSettings(t *testing.T) {
	settings := newFakeSettings()
	require.NoError(t, settings.SetFilter(7, "start_date", "2026-01-01"))
	require.NoError(t, settings.SetFilter(7, "end_date", "2026-01-31"))
	require.NoError(t, settings.SetFilter(7, "people_id", "42"))

	c := newTestController(&fakeBackend{}, settings)
	filters := c.Filters()
	assert.Equal(t, "2026-01-01", filters.StartDate)
	assert.Equal(t, "2026-01-31", filters.EndDate)
	assert.Equal(t, int64(42), filters.PeopleID)
}

func TestSetFiltersPersistsAndRefetches(t *testing.T) {
	settings := newFakeSettings()
	backend := &fakeBackend{invoices: []api.Invoice{{ID: 1, Status: api.StatusActive}}}
	c := newTestController(backend, settings)

	next := Filters{StartDate: "2026-07-01", EndDate: "2026-07-31", PeopleID: 3, Status: api.StatusActive}
	require.NoError(t, c.SetFilters(context.Background(), next))

	v, ok := settings.Filter(7, "start_date")
	require.True(t, ok)
	assert.Equal(t, "2026-07-01", v)
	assert.Len(t, c.Invoices(), 1)

	// A fresh controller sees the persisted selection.
	c2 := newTestController(backend, settings)
	assert.Equal(t, next, c2.Filters())
}

func TestRowsDeriveBalanceStatusAndActions(t *testing.T) {
	backend := &fakeBackend{invoices: []api.Invoice{
		{ID: 1, Amount: 100, Status: api.StatusActive},                   // unpaid
		{ID: 2, Amount: 100, PaidAmount: 40, Status: api.StatusActive},   // half paid
		{ID: 3, Amount: 100, PaidAmount: 100, Status: api.StatusActive},  // paid
	}}
	c := newTestController(backend, nil)
	require.NoError(t, c.RefreshInvoices(context.Background()))

	rows := c.Rows()
	require.Len(t, rows, 3)

	assert.Equal(t, 100.0, rows[0].Balance)
	assert.Contains(t, rows[0].Actions, ActionPay)
	assert.Contains(t, rows[0].Actions, ActionApplyCredit)
	assert.Contains(t, rows[0].Actions, ActionApplyDiscount)

	assert.Equal(t, 60.0, rows[1].Balance)
	assert.Contains(t, rows[1].Actions, ActionPay)

	assert.Equal(t, 0.0, rows[2].Balance)
	assert.NotContains(t, rows[2].Actions, ActionPay)
	assert.NotContains(t, rows[2].Actions, ActionApplyCredit)
	assert.NotContains(t, rows[2].Actions, ActionApplyDiscount)
	assert.Contains(t, rows[2].Actions, ActionView)
	assert.Contains(t, rows[2].Actions, ActionEdit)
}

func TestNameLookupFallsBackToID(t *testing.T) {
	backend := &fakeBackend{
		accounts:    []api.Account{{ID: 1, Name: "Cash"}},
		accountsErr: nil,
	}
	c := newTestController(backend, nil)
	c.LoadReference(context.Background())

	assert.Equal(t, "Cash", c.AccountName(1))
	assert.Equal(t, "ID: 99", c.AccountName(99))
	assert.Equal(t, "ID: 5", c.UnitName(5))
	assert.Equal(t, "ID: 8", c.PeopleName(8))
}

func TestLoadReferenceDegradesOnFailure(t *testing.T) {
	backend := &fakeBackend{
		accountsErr: errors.New("backend down"),
		units:       []api.Unit{{ID: 2, Name: "A-2"}},
	}
	c := newTestController(backend, nil)
	c.LoadReference(context.Background())

	// The failed list degrades to the placeholder path; the others load.
	assert.Equal(t, "ID: 1", c.AccountName(1))
	assert.Equal(t, "A-2", c.UnitName(2))
}

func TestRefreshInvoicesDiscardsStaleResponse(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	backend := &fakeBackend{}
	backend.listOverride = func(call int, filter api.InvoiceFilter) ([]api.Invoice, error) {
		if call == 1 {
			close(firstStarted)
			<-releaseFirst
			return []api.Invoice{{ID: 1, InvoiceNo: "STALE"}}, nil
		}
		return []api.Invoice{{ID: 2, InvoiceNo: "FRESH"}}, nil
	}
	c := newTestController(backend, nil)

	done := make(chan error, 1)
	go func() { done <- c.RefreshInvoices(context.Background()) }()
	<-firstStarted

	// A newer request completes while the first is still in flight.
	require.NoError(t, c.RefreshInvoices(context.Background()))
	close(releaseFirst)
	require.NoError(t, <-done)

	invoices := c.Invoices()
	require.Len(t, invoices, 1)
	assert.Equal(t, "FRESH", invoices[0].InvoiceNo, "the stale response must not overwrite newer state")
}

func TestRefreshInvoicesErrorEmptiesList(t *testing.T) {
	backend := &fakeBackend{invoices: []api.Invoice{{ID: 1}}}
	c := newTestController(backend, nil)
	require.NoError(t, c.RefreshInvoices(context.Background()))
	require.Len(t, c.Invoices(), 1)

	backend.invoicesErr = errors.New("backend down")
	err := c.RefreshInvoices(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Invoices(), "a failed refresh must not leave stale rows visible")
}

func TestWorkflowEligibilityGates(t *testing.T) {
	c := newTestController(&fakeBackend{}, nil)

	paid := api.Invoice{ID: 1, Amount: 100, PaidAmount: 100, Status: api.StatusActive}
	_, _, err := c.CreditWorkflow(paid)
	assert.ErrorIs(t, err, ErrNotEligible)
	_, _, err = c.DiscountWorkflow(paid)
	assert.ErrorIs(t, err, ErrNotEligible)
	_, _, err = c.PaymentWorkflow(paid)
	assert.ErrorIs(t, err, ErrNotEligible)

	open := api.Invoice{ID: 2, Amount: 100, Status: api.StatusActive}
	runner, form, err := c.CreditWorkflow(open)
	require.NoError(t, err)
	assert.NotNil(t, runner)
	assert.Equal(t, "2026-08-15", form.Date)
}

func TestDiscountWorkflowPreselectsARAccount(t *testing.T) {
	c := newTestController(&fakeBackend{}, nil)

	inv := api.Invoice{ID: 2, Amount: 100, ARAccountID: 11, Status: api.StatusActive}
	_, form, err := c.DiscountWorkflow(inv)
	require.NoError(t, err)
	assert.Equal(t, int64(11), form.ARAccountID)
}

func TestPaymentWorkflowRemembersDate(t *testing.T) {
	settings := newFakeSettings()
	backend := &fakeBackend{}
	c := newTestController(backend, settings)

	inv := api.Invoice{ID: 2, Amount: 100, Status: api.StatusActive}
	runner, form, err := c.PaymentWorkflow(inv)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-15", form.Date, "defaults to today with no memory")

	form.AccountID = 3
	form.Amount = 100
	form.Date = "2026-08-10"
	require.NoError(t, runner.Commit(context.Background(), form))

	// The chosen date is remembered for the next invoice's form.
	_, form2, err := c.PaymentWorkflow(inv)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-10", form2.Date)
}

func TestDeleteAppliedCreditRequiresConfirmation(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestController(backend, nil)

	err := c.DeleteAppliedCredit(context.Background(), 9, func() bool { return false })
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Empty(t, backend.deletedCredits)

	err = c.DeleteAppliedCredit(context.Background(), 9, func() bool { return true })
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, backend.deletedCredits)
}

func TestStatementAggregates(t *testing.T) {
	target := api.Invoice{
		ID: 10, UnitID: 1, SalesDate: "2026-08-01", Amount: 200, Status: api.StatusActive,
	}
	backend := &fakeBackend{
		detail: &api.InvoiceDetail{Invoice: target},
		invoices: []api.Invoice{
			target,
			{ID: 5, UnitID: 1, SalesDate: "2026-07-01", Amount: 100, PaidAmount: 40, Status: api.StatusActive},
		},
		payments: []api.InvoicePayment{{ID: 1, InvoiceID: 10, Amount: 50, Status: api.StatusActive}},
		credits:  []api.AppliedCredit{{ID: 1, InvoiceID: 10, Amount: 30, Status: api.StatusActive}},
	}
	c := newTestController(backend, nil)

	stmt, err := c.Statement(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 60.0, stmt.PreviousBalance)
	assert.Equal(t, 50.0, stmt.PaidAmount)
	assert.Equal(t, 30.0, stmt.AppliedCreditsTotal)
	assert.Equal(t, 180.0, stmt.DueAmount) // 200 + 60 - 50 - 30
}

func TestStatementFailsWhenAnyFetchFails(t *testing.T) {
	backend := &fakeBackend{detail: nil} // GetInvoice fails
	c := newTestController(backend, nil)

	_, err := c.Statement(context.Background(), 10)
	assert.Error(t, err, "a statement must never print with partial data")
}
