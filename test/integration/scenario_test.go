package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/shweproperty/buildingbooks/pkg/api"
	"github.com/shweproperty/buildingbooks/pkg/invoice"
)

func TestInvoiceCreationPostsBalancedSplits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv := env.createInvoice(ctx, "INV-001", "2026-08-01", 150000)

	if inv.Amount.Float() != 150000 {
		t.Errorf("amount = %v, want 150000", inv.Amount.Float())
	}
	if inv.PaidAmount.Float() != 0 || inv.AppliedCreditsTotal.Float() != 0 {
		t.Errorf("fresh invoice should have zero derived totals: %+v", inv)
	}

	detail, err := env.Client.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if len(detail.Splits) != 2 {
		t.Fatalf("got %d splits, want 2", len(detail.Splits))
	}
	debit := invoice.SumActive(detail.Splits, invoice.Debit)
	credit := invoice.SumActive(detail.Splits, invoice.Credit)
	if debit != 150000 || credit != 150000 {
		t.Errorf("splits debit/credit = %v/%v, want 150000/150000", debit, credit)
	}
}

func TestPreviewIsRepeatableAndPersistsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv := env.createInvoice(ctx, "INV-001", "2026-08-01", 100000)
	memo := env.createMemo(ctx, "CM-001", "2026-07-15", 60000)

	req := api.ApplyCreditRequest{CreditMemoID: memo.ID, Amount: 25000, Date: "2026-08-10"}
	for i := 0; i < 3; i++ {
		preview, err := env.Client.PreviewApplyCredit(ctx, inv.ID, req)
		if err != nil {
			t.Fatalf("preview %d: %v", i, err)
		}
		if !preview.IsBalanced {
			t.Errorf("preview %d not balanced: %+v", i, preview)
		}
		if preview.TotalDebit.Float() != 25000 || preview.TotalCredit.Float() != 25000 {
			t.Errorf("preview %d totals = %v/%v, want 25000/25000",
				i, preview.TotalDebit.Float(), preview.TotalCredit.Float())
		}
	}

	// Nothing was persisted by the previews.
	refreshed := env.getInvoice(ctx, inv.ID)
	if refreshed.AppliedCreditsTotal.Float() != 0 {
		t.Errorf("applied credits after previews = %v, want 0", refreshed.AppliedCreditsTotal.Float())
	}
	memos, err := env.Client.AvailableCredits(ctx, inv.ID)
	if err != nil {
		t.Fatalf("AvailableCredits: %v", err)
	}
	if len(memos) != 1 || memos[0].AvailableAmount.Float() != 60000 {
		t.Errorf("available amount after previews = %+v, want full 60000", memos)
	}
}

func TestApplyCreditRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv := env.createInvoice(ctx, "INV-001", "2026-08-01", 100000)
	memo := env.createMemo(ctx, "CM-001", "2026-07-15", 60000)

	applied, err := env.Client.ApplyCredit(ctx, inv.ID, api.ApplyCreditRequest{
		CreditMemoID: memo.ID, Amount: 25000, Description: "july credit", Date: "2026-08-10",
	})
	if err != nil {
		t.Fatalf("ApplyCredit: %v", err)
	}
	if applied.Amount.Float() != 25000 {
		t.Errorf("applied amount = %v, want 25000", applied.Amount.Float())
	}

	refreshed := env.getInvoice(ctx, inv.ID)
	if refreshed.AppliedCreditsTotal.Float() != 25000 {
		t.Errorf("applied credits total = %v, want 25000", refreshed.AppliedCreditsTotal.Float())
	}
	if got := invoice.Balance(refreshed); got != 75000 {
		t.Errorf("balance = %v, want 75000", got)
	}

	// The memo's available amount went down by the applied amount.
	memos, err := env.Client.AvailableCredits(ctx, inv.ID)
	if err != nil {
		t.Fatalf("AvailableCredits: %v", err)
	}
	if len(memos) != 1 || memos[0].AvailableAmount.Float() != 35000 {
		t.Errorf("available = %+v, want 35000 left", memos)
	}
}

func TestApplyCreditRejectsOverApplication(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv := env.createInvoice(ctx, "INV-001", "2026-08-01", 100000)
	memo := env.createMemo(ctx, "CM-001", "2026-07-15", 10000)

	_, err := env.Client.ApplyCredit(ctx, inv.ID, api.ApplyCreditRequest{
		CreditMemoID: memo.ID, Amount: 15000, Description: "too much", Date: "2026-08-10",
	})
	if err == nil {
		t.Fatal("expected over-application to fail")
	}
	reqErr, ok := err.(*api.RequestError)
	if !ok {
		t.Fatalf("error type = %T, want *api.RequestError", err)
	}
	if reqErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", reqErr.StatusCode)
	}
	if !strings.Contains(reqErr.Message, "exceeds available credit") {
		t.Errorf("message = %q, want the backend's validation text", reqErr.Message)
	}
}

func TestPaymentMarksInvoicePaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv := env.createInvoice(ctx, "INV-001", "2026-08-01", 100000)

	preview, err := env.Client.PreviewPayment(ctx, api.PaymentRequest{
		InvoiceID: inv.ID, AccountID: env.DepositAccount.ID, Amount: 100000,
		Date: "2026-08-20", BuildingID: env.Building.ID, Status: api.StatusActive,
	})
	if err != nil {
		t.Fatalf("PreviewPayment: %v", err)
	}
	if !preview.IsBalanced {
		t.Errorf("payment preview not balanced: %+v", preview)
	}

	if _, err := env.Client.CreatePayment(ctx, api.PaymentRequest{
		InvoiceID: inv.ID, AccountID: env.DepositAccount.ID, Amount: 100000,
		Date: "2026-08-20", BuildingID: env.Building.ID, Status: api.StatusActive,
	}); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	refreshed := env.getInvoice(ctx, inv.ID)
	if got := invoice.ComputePaymentStatus(refreshed); got != invoice.StatusPaid {
		t.Errorf("payment status = %v, want Paid", got)
	}
	if got := invoice.Balance(refreshed); got != 0 {
		t.Errorf("balance = %v, want 0", got)
	}
}

func TestDiscountReducesStatementNotListBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv := env.createInvoice(ctx, "INV-001", "2026-08-01", 100000)

	if _, err := env.Client.ApplyDiscount(ctx, inv.ID, api.ApplyDiscountRequest{
		ARAccount: env.ARAccount.ID, IncomeAccount: env.IncomeAccount.ID,
		Amount: 20000, Description: "loyalty", Date: "2026-08-10",
	}); err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}

	refreshed := env.getInvoice(ctx, inv.ID)
	if refreshed.AppliedDiscountsTotal.Float() != 20000 {
		t.Errorf("discount total = %v, want 20000", refreshed.AppliedDiscountsTotal.Float())
	}
	// The list balance ignores discounts.
	if got := invoice.Balance(refreshed); got != 100000 {
		t.Errorf("list balance = %v, want 100000", got)
	}
}

func TestDeleteAppliedCreditRestoresAvailability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv := env.createInvoice(ctx, "INV-001", "2026-08-01", 100000)
	memo := env.createMemo(ctx, "CM-001", "2026-07-15", 60000)

	applied, err := env.Client.ApplyCredit(ctx, inv.ID, api.ApplyCreditRequest{
		CreditMemoID: memo.ID, Amount: 25000, Description: "july credit", Date: "2026-08-10",
	})
	if err != nil {
		t.Fatalf("ApplyCredit: %v", err)
	}

	if err := env.Client.DeleteAppliedCredit(ctx, applied.ID); err != nil {
		t.Fatalf("DeleteAppliedCredit: %v", err)
	}

	// Soft delete: the row remains for audit but stops counting.
	rows, err := env.Client.AppliedCredits(ctx, inv.ID)
	if err != nil {
		t.Fatalf("AppliedCredits: %v", err)
	}
	if len(rows) != 1 || rows[0].Status.Active() {
		t.Errorf("applied credit rows = %+v, want one inactive row", rows)
	}

	refreshed := env.getInvoice(ctx, inv.ID)
	if refreshed.AppliedCreditsTotal.Float() != 0 {
		t.Errorf("applied credits total = %v, want 0 after reversal", refreshed.AppliedCreditsTotal.Float())
	}
	memos, err := env.Client.AvailableCredits(ctx, inv.ID)
	if err != nil {
		t.Fatalf("AvailableCredits: %v", err)
	}
	if len(memos) != 1 || memos[0].AvailableAmount.Float() != 60000 {
		t.Errorf("available = %+v, want the full 60000 restored", memos)
	}
}

func TestSoftDeletedInvoiceKeepsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv := env.createInvoice(ctx, "INV-001", "2026-08-01", 100000)
	if err := env.Client.DeleteInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}

	// The record survives with inactive status and inactive splits.
	detail, err := env.Client.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice after delete: %v", err)
	}
	if detail.Invoice.Status.Active() {
		t.Error("deleted invoice still reads active")
	}
	if got := invoice.SumActive(detail.Splits, invoice.Debit); got != 0 {
		t.Errorf("active debit after delete = %v, want 0", got)
	}

	// Inactive invoices drop out of the active list filter.
	active, err := env.Client.ListInvoices(ctx, api.InvoiceFilter{Status: api.StatusActive})
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active list has %d invoices, want 0", len(active))
	}
}

func TestInvoiceListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createInvoice(ctx, "INV-JUL", "2026-07-05", 100)
	env.createInvoice(ctx, "INV-AUG", "2026-08-05", 200)

	aug, err := env.Client.ListInvoices(ctx, api.InvoiceFilter{
		StartDate: "2026-08-01", EndDate: "2026-08-31", Status: api.StatusActive,
	})
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(aug) != 1 || aug[0].InvoiceNo != "INV-AUG" {
		t.Errorf("august filter returned %+v, want only INV-AUG", aug)
	}

	byPeople, err := env.Client.ListInvoices(ctx, api.InvoiceFilter{PeopleID: env.Tenant.ID + 999})
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(byPeople) != 0 {
		t.Errorf("unknown tenant filter returned %d invoices, want 0", len(byPeople))
	}
}

func TestFinancialMutationsRequireUserID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv := env.createInvoice(ctx, "INV-001", "2026-08-01", 100000)

	// A client with a valid token but no user id cannot post.
	login, err := api.NewClient(api.ClientConfig{BaseURL: env.server.URL}).Login(ctx, testUsername, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	anonymous := api.NewClient(api.ClientConfig{
		BaseURL:     env.server.URL,
		AccessToken: login.AccessToken,
		BuildingID:  env.Building.ID,
	})

	_, err = anonymous.CreatePayment(ctx, api.PaymentRequest{
		InvoiceID: inv.ID, AccountID: env.DepositAccount.ID, Amount: 1000,
		Date: "2026-08-20", BuildingID: env.Building.ID, Status: api.StatusActive,
	})
	if err == nil {
		t.Fatal("expected the mutation to be rejected without a User-ID header")
	}
	reqErr, ok := err.(*api.RequestError)
	if !ok || reqErr.StatusCode != http.StatusBadRequest {
		t.Errorf("error = %v, want a 400 RequestError", err)
	}

	// Reads still work for the same client.
	if _, err := anonymous.ListInvoices(ctx, api.InvoiceFilter{}); err != nil {
		t.Errorf("read with no user id failed: %v", err)
	}
}

func TestAuthRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	noToken := api.NewClient(api.ClientConfig{BaseURL: env.server.URL})
	_, err := noToken.ListBuildings(ctx)
	reqErr, ok := err.(*api.RequestError)
	if !ok || reqErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("no-token error = %v, want 401", err)
	}

	badToken := api.NewClient(api.ClientConfig{BaseURL: env.server.URL, AccessToken: "garbage"})
	_, err = badToken.ListBuildings(ctx)
	reqErr, ok = err.(*api.RequestError)
	if !ok || reqErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad-token error = %v, want 401", err)
	}

	_, err = noToken.Login(ctx, testUsername, "wrong-password")
	reqErr, ok = err.(*api.RequestError)
	if !ok || reqErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad-login error = %v, want 401", err)
	}
	if !strings.Contains(reqErr.Message, "invalid credentials") {
		t.Errorf("message = %q, want invalid credentials", reqErr.Message)
	}
}

func TestPreviousBalanceAcrossInvoices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	older := env.createInvoice(ctx, "INV-JUL", "2026-07-01", 100000)
	newer := env.createInvoice(ctx, "INV-AUG", "2026-08-01", 200000)

	// Pay part of the older invoice; the rest carries forward.
	if _, err := env.Client.CreatePayment(ctx, api.PaymentRequest{
		InvoiceID: older.ID, AccountID: env.DepositAccount.ID, Amount: 40000,
		Date: "2026-07-20", BuildingID: env.Building.ID, Status: api.StatusActive,
	}); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	all, err := env.Client.ListInvoices(ctx, api.InvoiceFilter{Status: api.StatusActive})
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	target := env.getInvoice(ctx, newer.ID)

	if got := invoice.PreviousBalance(all, target); got != 60000 {
		t.Errorf("previous balance = %v, want 60000", got)
	}
}

func TestUpdateInvoiceSupersedesItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv := env.createInvoice(ctx, "INV-001", "2026-08-01", 100000)

	updated, err := env.Client.UpdateInvoice(ctx, inv.ID, api.CreateInvoiceRequest{
		InvoiceNo: "INV-001", SalesDate: "2026-08-01",
		UnitID: env.Unit.ID, PeopleID: env.Tenant.ID, ARAccountID: env.ARAccount.ID,
		Items: []api.CreateInvoiceItem{
			{ItemName: "Rent", Qty: 1, Rate: 80000},
			{ItemName: "Water", Qty: 2, Rate: 2500},
		},
	})
	if err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}
	if updated.Amount.Float() != 85000 {
		t.Errorf("amount = %v, want 85000", updated.Amount.Float())
	}

	detail, err := env.Client.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	var active, inactive int
	for _, item := range detail.Items {
		if item.Status.Active() {
			active++
		} else {
			inactive++
		}
	}
	if active != 2 || inactive != 1 {
		t.Errorf("items active/inactive = %d/%d, want 2/1 (old line kept for audit)", active, inactive)
	}
}
