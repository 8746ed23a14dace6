package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAmountUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		want float64
	}{
		{"number", `{"amount": 1500.50}`, 1500.50},
		{"numeric string", `{"amount": "1500.50"}`, 1500.50},
		{"string with separators", `{"amount": "1,500.50"}`, 1500.50},
		{"null", `{"amount": null}`, 0},
		{"malformed string", `{"amount": "n/a"}`, 0},
		{"missing", `{}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload struct {
				Amount Amount `json:"amount"`
			}
			if err := json.Unmarshal([]byte(tt.json), &payload); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if payload.Amount.Float() != tt.want {
				t.Errorf("Amount = %v, want %v", payload.Amount.Float(), tt.want)
			}
		})
	}
}

func TestListInvoicesEnvelopedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/buildings/7/invoices" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "1" {
			t.Errorf("status query = %q, want 1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [{"id": 1, "invoice_no": "INV-1", "amount": "100.10"}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, BuildingID: 7})
	invoices, err := client.ListInvoices(context.Background(), InvoiceFilter{Status: StatusActive})
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("got %d invoices, want 1", len(invoices))
	}
	if invoices[0].Amount.Float() != 100.10 {
		t.Errorf("amount = %v, want 100.10", invoices[0].Amount.Float())
	}
}

func TestGetInvoiceBareResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"invoice": {"id": 42, "amount": 250}, "items": [], "splits": []}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, BuildingID: 7})
	detail, err := client.GetInvoice(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if detail.Invoice.ID != 42 {
		t.Errorf("invoice id = %d, want 42", detail.Invoice.ID)
	}
}

func TestUnscopedClientUsesFallbackRoutes(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	if _, err := client.ListAccounts(context.Background()); err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if gotPath != "/v1/accounts" {
		t.Errorf("path = %q, want /v1/accounts", gotPath)
	}
}

func TestMutationsCarryAuthAndUserIDHeaders(t *testing.T) {
	var auth, userID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		userID = r.Header.Get("User-ID")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, AccessToken: "tok-1", UserID: 5, BuildingID: 7})
	_, err := client.ApplyCredit(context.Background(), 42, ApplyCreditRequest{CreditMemoID: 1, Amount: 10, Date: "2026-08-15"})
	if err != nil {
		t.Fatalf("ApplyCredit: %v", err)
	}
	if auth != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want Bearer tok-1", auth)
	}
	if userID != "5" {
		t.Errorf("User-ID = %q, want 5", userID)
	}
}

func TestPreviewOmitsUserIDHeader(t *testing.T) {
	var sawUserID bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUserID = r.Header.Get("User-ID") != ""
		_, _ = w.Write([]byte(`{"splits": [], "total_debit": 0, "total_credit": 0, "is_balanced": true}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, UserID: 5, BuildingID: 7})
	_, err := client.PreviewApplyCredit(context.Background(), 42, ApplyCreditRequest{CreditMemoID: 1, Amount: 10})
	if err != nil {
		t.Fatalf("PreviewApplyCredit: %v", err)
	}
	if sawUserID {
		t.Error("preview must not carry the User-ID header")
	}
}

func TestRequestErrorExtraction(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			"string error field",
			http.StatusBadRequest,
			`{"error": "amount exceeds available credit"}`,
			"amount exceeds available credit",
		},
		{
			"object error field stringified",
			http.StatusUnprocessableEntity,
			`{"error": {"amount": "too large"}}`,
			"map[amount:too large]",
		},
		{
			"empty body falls back to generic text",
			http.StatusInternalServerError,
			``,
			"request to /v1/buildings/7/invoices/42/apply-credit failed",
		},
		{
			"non-json body falls back",
			http.StatusBadGateway,
			`<html>bad gateway</html>`,
			"request to /v1/buildings/7/invoices/42/apply-credit failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(ClientConfig{BaseURL: server.URL, BuildingID: 7})
			_, err := client.ApplyCredit(context.Background(), 42, ApplyCreditRequest{CreditMemoID: 1, Amount: 10})
			if err == nil {
				t.Fatal("expected an error")
			}

			reqErr, ok := err.(*RequestError)
			if !ok {
				t.Fatalf("error type = %T, want *RequestError", err)
			}
			if reqErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", reqErr.StatusCode, tt.status)
			}
			if reqErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", reqErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestLoginStoresSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"accessToken": "tok-9", "username": "admin", "user": {"id": 3, "username": "admin"}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})
	resp, err := client.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken != "tok-9" {
		t.Errorf("token = %q, want tok-9", resp.AccessToken)
	}

	// Subsequent calls carry the stored token.
	var auth string
	server2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server2.Close()

	client2 := NewClient(ClientConfig{BaseURL: server2.URL})
	client2.SetAccessToken(resp.AccessToken)
	if _, err := client2.ListBuildings(context.Background()); err != nil {
		t.Fatalf("ListBuildings: %v", err)
	}
	if auth != "Bearer tok-9" {
		t.Errorf("Authorization = %q, want Bearer tok-9", auth)
	}
}
