// Package integration exercises the full client/emulator stack: the REST
// client from pkg/api against an in-process emulator instance.
package integration

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	emuapi "github.com/shweproperty/buildingbooks/internal/emulator/api"
	"github.com/shweproperty/buildingbooks/internal/emulator/models"
	"github.com/shweproperty/buildingbooks/internal/emulator/store"
	"github.com/shweproperty/buildingbooks/pkg/api"
)

const (
	testUsername = "admin"
	testPassword = "secret"
	testSecret   = "integration-test-secret"
)

// testEnv is one emulator instance plus a logged-in client scoped to a
// seeded building.
type testEnv struct {
	t      *testing.T
	server *httptest.Server
	store  *store.Store

	Client   *api.Client
	Building api.Building

	ARAccount      api.Account
	IncomeAccount  api.Account
	DepositAccount api.Account
	MemoAccount    api.Account

	Unit   api.Unit
	Tenant api.People
}

// newTestEnv boots an emulator on a temp database, seeds the reference
// graph, and returns a logged-in building-scoped client.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "emulator.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if _, err := st.CreateUser(models.User{Name: "Admin", Username: testUsername, Password: testPassword}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	server := httptest.NewServer(emuapi.NewRouter(st, []byte(testSecret)))
	t.Cleanup(server.Close)

	// Login with an unscoped client, then seed the building.
	bootstrap := api.NewClient(api.ClientConfig{BaseURL: server.URL})
	login, err := bootstrap.Login(context.Background(), testUsername, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	building, err := bootstrap.CreateBuilding(context.Background(), api.Building{Name: "Sunrise Tower", Address: "12 Main St"})
	if err != nil {
		t.Fatalf("failed to create building: %v", err)
	}

	client := api.NewClient(api.ClientConfig{
		BaseURL:     server.URL,
		AccessToken: login.AccessToken,
		UserID:      login.User.ID,
		BuildingID:  building.ID,
	})

	env := &testEnv{
		t:        t,
		server:   server,
		store:    st,
		Client:   client,
		Building: *building,
	}
	env.seedReference()
	return env
}

func (e *testEnv) seedReference() {
	e.t.Helper()
	ctx := context.Background()

	e.ARAccount = e.mustAccount(ctx, api.Account{Name: "Accounts Receivable", Type: "asset"})
	e.IncomeAccount = e.mustAccount(ctx, api.Account{Name: "Rental Income", Type: "income"})
	e.DepositAccount = e.mustAccount(ctx, api.Account{Name: "Bank", Type: "asset"})
	e.MemoAccount = e.mustAccount(ctx, api.Account{Name: "Customer Credits", Type: "liability"})

	unit, err := e.Client.CreateUnit(ctx, api.Unit{Name: "A-101"})
	if err != nil {
		e.t.Fatalf("failed to create unit: %v", err)
	}
	e.Unit = *unit

	tenant, err := e.Client.CreatePeople(ctx, api.People{Name: "Aung Kyaw"})
	if err != nil {
		e.t.Fatalf("failed to create tenant: %v", err)
	}
	e.Tenant = *tenant
}

func (e *testEnv) mustAccount(ctx context.Context, a api.Account) api.Account {
	e.t.Helper()
	created, err := e.Client.CreateAccount(ctx, a)
	if err != nil {
		e.t.Fatalf("failed to create account %s: %v", a.Name, err)
	}
	return *created
}

// createInvoice seeds one single-line invoice and returns it with derived
// totals.
func (e *testEnv) createInvoice(ctx context.Context, no, date string, amount float64) api.Invoice {
	e.t.Helper()
	inv, err := e.Client.CreateInvoice(ctx, api.CreateInvoiceRequest{
		InvoiceNo:       no,
		SalesDate:       date,
		UnitID:          e.Unit.ID,
		PeopleID:        e.Tenant.ID,
		ARAccountID:     e.ARAccount.ID,
		IncomeAccountID: e.IncomeAccount.ID,
		Items: []api.CreateInvoiceItem{
			{ItemName: "Rent", Qty: 1, Rate: amount},
		},
	})
	if err != nil {
		e.t.Fatalf("failed to create invoice %s: %v", no, err)
	}
	return *inv
}

// createMemo seeds a credit memo for the test tenant.
func (e *testEnv) createMemo(ctx context.Context, no, date string, amount float64) api.CreditMemo {
	e.t.Helper()
	memo, err := e.Client.CreateCreditMemo(ctx, api.CreateCreditMemoRequest{
		CreditMemoNo: no,
		PeopleID:     e.Tenant.ID,
		AccountID:    e.MemoAccount.ID,
		Date:         date,
		Amount:       amount,
	})
	if err != nil {
		e.t.Fatalf("failed to create credit memo %s: %v", no, err)
	}
	return *memo
}

// getInvoice refetches one invoice with fresh derived totals.
func (e *testEnv) getInvoice(ctx context.Context, id int64) api.Invoice {
	e.t.Helper()
	detail, err := e.Client.GetInvoice(ctx, id)
	if err != nil {
		e.t.Fatalf("failed to fetch invoice %d: %v", id, err)
	}
	return detail.Invoice
}
