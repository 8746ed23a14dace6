package settings

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestFilterRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if _, ok := store.Filter(7, "start_date"); ok {
		t.Error("expected no value before set")
	}

	if err := store.SetFilter(7, "start_date", "2026-08-01"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}

	value, ok := store.Filter(7, "start_date")
	if !ok || value != "2026-08-01" {
		t.Errorf("Filter = %q, %v; want 2026-08-01, true", value, ok)
	}
}

func TestFiltersAreScopedPerBuilding(t *testing.T) {
	store := openTestStore(t)

	if err := store.SetFilter(1, "status", "1"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if err := store.SetFilter(2, "status", "0"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}

	v1, _ := store.Filter(1, "status")
	v2, _ := store.Filter(2, "status")
	if v1 != "1" || v2 != "0" {
		t.Errorf("got %q/%q, want 1/0: buildings must not share filters", v1, v2)
	}
}

func TestPaymentDateMemory(t *testing.T) {
	store := openTestStore(t)

	if _, ok := store.PaymentDate(7); ok {
		t.Error("expected no remembered date")
	}

	if err := store.SetPaymentDate(7, "2026-08-10"); err != nil {
		t.Fatalf("SetPaymentDate: %v", err)
	}
	date, ok := store.PaymentDate(7)
	if !ok || date != "2026-08-10" {
		t.Errorf("PaymentDate = %q, %v; want 2026-08-10, true", date, ok)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	if _, _, _, ok := store.Session(); ok {
		t.Error("expected no session before login")
	}

	if err := store.SetSession("tok-1", "admin", 3); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	token, username, userID, ok := store.Session()
	if !ok || token != "tok-1" || username != "admin" || userID != 3 {
		t.Errorf("Session = %q/%q/%d/%v", token, username, userID, ok)
	}

	if err := store.ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, _, _, ok := store.Session(); ok {
		t.Error("expected session cleared")
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.SetFilter(7, "end_date", "2026-08-31"); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	value, ok := reopened.Filter(7, "end_date")
	if !ok || value != "2026-08-31" {
		t.Errorf("Filter after reopen = %q, %v; want 2026-08-31, true", value, ok)
	}
}
