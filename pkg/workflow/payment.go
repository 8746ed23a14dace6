package workflow

import (
	"context"
	"log/slog"

	"github.com/shweproperty/buildingbooks/pkg/api"
)

// PaymentForm is the user-entered state of a record-payment modal.
type PaymentForm struct {
	AccountID int64   `validate:"required,gt=0"`
	Amount    float64 `validate:"required,gt=0"`
	Date      string  `validate:"required"`
	Reference string
}

// PaymentBackend is the API slice the payment workflow needs.
type PaymentBackend interface {
	PreviewPayment(ctx context.Context, req api.PaymentRequest) (*api.SplitsPreview, error)
	CreatePayment(ctx context.Context, req api.PaymentRequest) (*api.InvoicePayment, error)
}

func paymentRequest(f *PaymentForm, invoiceID, buildingID int64) api.PaymentRequest {
	return api.PaymentRequest{
		Reference:  f.Reference,
		InvoiceID:  invoiceID,
		AccountID:  f.AccountID,
		Amount:     f.Amount,
		Date:       f.Date,
		Status:     api.StatusActive,
		BuildingID: buildingID,
	}
}

// NewPaymentRunner builds the record-payment workflow for one invoice.
// Unlike the credit and discount workflows the date survives the reset:
// keeping it allows rapid sequential payment entry across invoices. The
// controller persists that date in settings.
func NewPaymentRunner(backend PaymentBackend, invoiceID, buildingID int64, log *slog.Logger) *Runner {
	return NewRunner(Definition{
		Kind: KindPayment,
		Preview: func(ctx context.Context, form interface{}) (*api.SplitsPreview, error) {
			return backend.PreviewPayment(ctx, paymentRequest(form.(*PaymentForm), invoiceID, buildingID))
		},
		Commit: func(ctx context.Context, form interface{}) error {
			_, err := backend.CreatePayment(ctx, paymentRequest(form.(*PaymentForm), invoiceID, buildingID))
			return err
		},
		Reset: func(form interface{}) {
			f := form.(*PaymentForm)
			f.Amount = 0
			f.Reference = ""
			// Date intentionally kept.
		},
	}, log)
}
