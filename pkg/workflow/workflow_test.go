package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shweproperty/buildingbooks/pkg/api"
)

// fakeCreditBackend counts calls and can be made to fail or block.
type fakeCreditBackend struct {
	mu           sync.Mutex
	previewCalls int
	commitCalls  int

	previewErr error
	commitErr  error

	blockCommit chan struct{} // when set, commit waits until closed
}

func (f *fakeCreditBackend) PreviewApplyCredit(ctx context.Context, invoiceID int64, req api.ApplyCreditRequest) (*api.SplitsPreview, error) {
	f.mu.Lock()
	f.previewCalls++
	f.mu.Unlock()
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	return &api.SplitsPreview{
		Splits: []api.Split{
			{AccountID: 9, Debit: api.Amount(req.Amount), Status: api.StatusActive},
			{AccountID: 2, Credit: api.Amount(req.Amount), Status: api.StatusActive},
		},
		TotalDebit:  api.Amount(req.Amount),
		TotalCredit: api.Amount(req.Amount),
		IsBalanced:  true,
	}, nil
}

func (f *fakeCreditBackend) ApplyCredit(ctx context.Context, invoiceID int64, req api.ApplyCreditRequest) (*api.AppliedCredit, error) {
	f.mu.Lock()
	f.commitCalls++
	f.mu.Unlock()
	if f.blockCommit != nil {
		<-f.blockCommit
	}
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	return &api.AppliedCredit{ID: 1, InvoiceID: invoiceID, Amount: api.Amount(req.Amount)}, nil
}

func (f *fakeCreditBackend) calls() (preview, commit int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.previewCalls, f.commitCalls
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
}

func validCreditForm() *CreditForm {
	return &CreditForm{CreditMemoID: 3, Amount: 50, Description: "july credit", Date: "2026-08-15"}
}

func TestRequestPreviewValidationMakesNoNetworkCall(t *testing.T) {
	backend := &fakeCreditBackend{}
	runner := NewCreditRunner(backend, 1, slog.Default(), fixedNow)

	form := &CreditForm{} // everything missing
	_, err := runner.RequestPreview(context.Background(), form)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "CreditMemoID")
	assert.Contains(t, verr.Fields, "Amount")
	assert.Contains(t, verr.Fields, "Description")
	assert.Contains(t, verr.Fields, "Date")

	preview, commit := backend.calls()
	assert.Zero(t, preview, "validation failure must not reach the backend")
	assert.Zero(t, commit)
	assert.Equal(t, StateFormEditing, runner.State())
}

func TestRequestPreviewHoldsResult(t *testing.T) {
	backend := &fakeCreditBackend{}
	runner := NewCreditRunner(backend, 1, slog.Default(), fixedNow)

	preview, err := runner.RequestPreview(context.Background(), validCreditForm())
	require.NoError(t, err)
	require.NotNil(t, preview)
	assert.True(t, preview.IsBalanced)
	assert.Equal(t, StatePreviewShown, runner.State())
	assert.Same(t, preview, runner.Preview())

	// Preview is a dry run: repeating it is safe and hits the backend again.
	_, err = runner.RequestPreview(context.Background(), validCreditForm())
	require.NoError(t, err)
	previews, commits := backend.calls()
	assert.Equal(t, 2, previews)
	assert.Zero(t, commits)
}

func TestCommitResetsFormAndRunsCallbacks(t *testing.T) {
	backend := &fakeCreditBackend{}
	runner := NewCreditRunner(backend, 1, slog.Default(), fixedNow)

	var refreshed bool
	var amountSeenByCallback float64
	form := validCreditForm()
	runner.OnCommitted(func(ctx context.Context) error {
		// Callbacks run before the reset so they can read the form.
		amountSeenByCallback = form.Amount
		refreshed = true
		return nil
	})

	require.NoError(t, runner.Commit(context.Background(), form))

	assert.True(t, refreshed)
	assert.Equal(t, 50.0, amountSeenByCallback)
	assert.Zero(t, form.Amount, "amount clears on reset")
	assert.Zero(t, form.CreditMemoID)
	assert.Empty(t, form.Description)
	assert.Equal(t, "2026-08-15", form.Date, "date resets to today")
	assert.Nil(t, runner.Preview())
	assert.Equal(t, StateFormEditing, runner.State())
}

func TestCommitFailureKeepsFormIntact(t *testing.T) {
	backend := &fakeCreditBackend{commitErr: errors.New("boom")}
	runner := NewCreditRunner(backend, 1, slog.Default(), fixedNow)

	var refreshed bool
	runner.OnCommitted(func(ctx context.Context) error {
		refreshed = true
		return nil
	})

	form := validCreditForm()
	err := runner.Commit(context.Background(), form)
	require.Error(t, err)

	assert.False(t, refreshed, "callbacks must not run on a failed commit")
	assert.Equal(t, 50.0, form.Amount, "entered values survive the failure")
	assert.Equal(t, "july credit", form.Description)
	assert.Equal(t, StateFormEditing, runner.State())

	// The latch released: a retry goes through.
	backend.commitErr = nil
	require.NoError(t, runner.Commit(context.Background(), form))
}

func TestCommitLatchRejectsDoubleSubmit(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeCreditBackend{blockCommit: release}
	runner := NewCreditRunner(backend, 1, slog.Default(), fixedNow)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- runner.Commit(context.Background(), validCreditForm())
	}()

	// Wait until the first commit is inside the backend call.
	require.Eventually(t, func() bool {
		_, commits := backend.calls()
		return commits == 1
	}, time.Second, time.Millisecond)

	err := runner.Commit(context.Background(), validCreditForm())
	assert.ErrorIs(t, err, ErrCommitInFlight)

	close(release)
	require.NoError(t, <-firstDone)

	_, commits := backend.calls()
	assert.Equal(t, 1, commits, "the duplicate submit must never reach the backend")
}

func TestCallbackFailureDoesNotFailCommit(t *testing.T) {
	backend := &fakeCreditBackend{}
	runner := NewCreditRunner(backend, 1, slog.Default(), fixedNow)
	runner.OnCommitted(func(ctx context.Context) error {
		return errors.New("refresh failed")
	})

	err := runner.Commit(context.Background(), validCreditForm())
	assert.NoError(t, err, "a failed refresh is logged, not surfaced")
}

// fakePaymentBackend records the last request it saw.
type fakePaymentBackend struct {
	lastRequest api.PaymentRequest
}

func (f *fakePaymentBackend) PreviewPayment(ctx context.Context, req api.PaymentRequest) (*api.SplitsPreview, error) {
	f.lastRequest = req
	return &api.SplitsPreview{IsBalanced: true}, nil
}

func (f *fakePaymentBackend) CreatePayment(ctx context.Context, req api.PaymentRequest) (*api.InvoicePayment, error) {
	f.lastRequest = req
	return &api.InvoicePayment{ID: 1}, nil
}

func TestPaymentResetKeepsDate(t *testing.T) {
	backend := &fakePaymentBackend{}
	runner := NewPaymentRunner(backend, 42, 7, slog.Default())

	form := &PaymentForm{AccountID: 3, Amount: 150, Date: "2026-08-10", Reference: "chq 11"}
	require.NoError(t, runner.Commit(context.Background(), form))

	assert.Zero(t, form.Amount)
	assert.Empty(t, form.Reference)
	assert.Equal(t, "2026-08-10", form.Date, "payment date survives the reset")

	assert.Equal(t, int64(42), backend.lastRequest.InvoiceID)
	assert.Equal(t, int64(7), backend.lastRequest.BuildingID)
	assert.Equal(t, api.StatusActive, backend.lastRequest.Status)
}

// fakeDiscountBackend is the minimal discount API.
type fakeDiscountBackend struct{}

func (fakeDiscountBackend) PreviewApplyDiscount(ctx context.Context, invoiceID int64, req api.ApplyDiscountRequest) (*api.SplitsPreview, error) {
	return &api.SplitsPreview{IsBalanced: true}, nil
}

func (fakeDiscountBackend) ApplyDiscount(ctx context.Context, invoiceID int64, req api.ApplyDiscountRequest) (*api.AppliedDiscount, error) {
	return &api.AppliedDiscount{ID: 1}, nil
}

func TestDiscountFormRequiresBothAccounts(t *testing.T) {
	runner := NewDiscountRunner(fakeDiscountBackend{}, 1, slog.Default(), fixedNow)

	form := &DiscountForm{Amount: 10, Description: "d", Date: "2026-08-15"}
	_, err := runner.RequestPreview(context.Background(), form)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "ARAccountID")
	assert.Contains(t, verr.Fields, "IncomeAccountID")
}

func TestDiscountResetClearsReference(t *testing.T) {
	runner := NewDiscountRunner(fakeDiscountBackend{}, 1, slog.Default(), fixedNow)

	form := &DiscountForm{
		ARAccountID: 2, IncomeAccountID: 5, Amount: 10,
		Description: "loyalty", Date: "2026-08-01", Reference: "ref-9",
	}
	require.NoError(t, runner.Commit(context.Background(), form))

	assert.Zero(t, form.Amount)
	assert.Empty(t, form.Description)
	assert.Empty(t, form.Reference)
	assert.Equal(t, "2026-08-15", form.Date, "date resets to today")
	assert.Equal(t, int64(2), form.ARAccountID, "account selectors persist across entries")
	assert.Equal(t, int64(5), form.IncomeAccountID)
}
