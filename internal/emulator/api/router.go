// Package api wires the emulator's HTTP surface: a chi router exposing the
// building-scoped accounting REST API backed by the bbolt store.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shweproperty/buildingbooks/internal/emulator/store"
)

// NewRouter builds the emulator's HTTP handler. Resource routes are mounted
// twice: under /v1/buildings/{buildingID} for scoped access and under the
// bare /v1 fallback where the scope is 0 (all buildings).
func NewRouter(st *store.Store, secret []byte) http.Handler {
	auth := NewAuthHandler(st, secret)
	reference := NewReferenceHandler(st)
	invoices := NewInvoicesHandler(st)
	credits := NewCreditsHandler(st)
	discounts := NewDiscountsHandler(st)
	payments := NewPaymentsHandler(st)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	resources := func(r chi.Router) {
		r.Get("/accounts", reference.ListAccounts)
		r.Post("/accounts", reference.CreateAccount)
		r.Get("/units", reference.ListUnits)
		r.Post("/units", reference.CreateUnit)
		r.Get("/people", reference.ListPeople)
		r.Post("/people", reference.CreatePeople)
		r.Get("/items", reference.ListItems)
		r.Post("/items", reference.CreateItem)

		r.Get("/invoices", invoices.List)
		r.Get("/invoices/{id}", invoices.Get)
		r.Get("/invoices/{id}/available-credits", credits.Available)
		r.Get("/invoices/{id}/applied-credits", credits.Applied)
		r.Get("/invoices/{id}/applied-discounts", discounts.Applied)
		r.Get("/invoices/{id}/payments", payments.ByInvoice)

		// Previews never persist and need no author attribution.
		r.Post("/invoices/{id}/preview-apply-credit", credits.Preview)
		r.Post("/invoices/{id}/preview-apply-discount", discounts.Preview)
		r.Post("/invoice-payments/preview", payments.Preview)

		r.Get("/credit-memos", credits.ListMemos)

		// Financial mutations require the User-ID header.
		r.Group(func(r chi.Router) {
			r.Use(RequireUserID)
			r.Post("/invoices", invoices.Create)
			r.Put("/invoices/{id}", invoices.Update)
			r.Delete("/invoices/{id}", invoices.Delete)
			r.Post("/invoices/{id}/apply-credit", credits.Apply)
			r.Post("/invoices/{id}/apply-discount", discounts.Apply)
			r.Post("/invoice-payments", payments.Create)
			r.Delete("/invoice-payments/{id}", payments.Delete)
			r.Delete("/invoice-applied-credits/{id}", credits.Delete)
			r.Delete("/invoice-applied-discounts/{id}", discounts.Delete)
			r.Post("/credit-memos", credits.CreateMemo)
		})
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(secret))

			r.Get("/buildings", reference.ListBuildings)
			r.Post("/buildings", reference.CreateBuilding)
			r.Route("/buildings/{buildingID}", resources)

			resources(r)
		})
	})

	return r
}
