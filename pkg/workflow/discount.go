package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/shweproperty/buildingbooks/pkg/api"
)

// DiscountForm is the user-entered state of an apply-discount modal.
// Both sides of the posting pair are required selectors.
type DiscountForm struct {
	ARAccountID     int64   `validate:"required,gt=0"`
	IncomeAccountID int64   `validate:"required,gt=0"`
	Amount          float64 `validate:"required,gt=0"`
	Description     string  `validate:"required"`
	Date            string  `validate:"required"`
	Reference       string
}

// DiscountBackend is the API slice the discount workflow needs.
type DiscountBackend interface {
	PreviewApplyDiscount(ctx context.Context, invoiceID int64, req api.ApplyDiscountRequest) (*api.SplitsPreview, error)
	ApplyDiscount(ctx context.Context, invoiceID int64, req api.ApplyDiscountRequest) (*api.AppliedDiscount, error)
}

func discountRequest(f *DiscountForm) api.ApplyDiscountRequest {
	return api.ApplyDiscountRequest{
		ARAccount:     f.ARAccountID,
		IncomeAccount: f.IncomeAccountID,
		Amount:        f.Amount,
		Description:   f.Description,
		Date:          f.Date,
		Reference:     f.Reference,
	}
}

// NewDiscountRunner builds the apply-discount workflow for one invoice.
func NewDiscountRunner(backend DiscountBackend, invoiceID int64, log *slog.Logger, now func() time.Time) *Runner {
	if now == nil {
		now = time.Now
	}
	return NewRunner(Definition{
		Kind: KindDiscount,
		Preview: func(ctx context.Context, form interface{}) (*api.SplitsPreview, error) {
			return backend.PreviewApplyDiscount(ctx, invoiceID, discountRequest(form.(*DiscountForm)))
		},
		Commit: func(ctx context.Context, form interface{}) error {
			_, err := backend.ApplyDiscount(ctx, invoiceID, discountRequest(form.(*DiscountForm)))
			return err
		},
		Reset: func(form interface{}) {
			f := form.(*DiscountForm)
			f.Amount = 0
			f.Description = ""
			f.Reference = ""
			f.Date = now().Format("2006-01-02")
		},
	}, log)
}
