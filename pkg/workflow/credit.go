package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/shweproperty/buildingbooks/pkg/api"
)

// CreditForm is the user-entered state of an apply-credit modal.
type CreditForm struct {
	CreditMemoID int64   `validate:"required,gt=0"`
	Amount       float64 `validate:"required,gt=0"`
	Description  string  `validate:"required"`
	Date         string  `validate:"required"`
}

// CreditBackend is the API slice the credit workflow needs. *api.Client
// satisfies it.
type CreditBackend interface {
	PreviewApplyCredit(ctx context.Context, invoiceID int64, req api.ApplyCreditRequest) (*api.SplitsPreview, error)
	ApplyCredit(ctx context.Context, invoiceID int64, req api.ApplyCreditRequest) (*api.AppliedCredit, error)
}

func creditRequest(f *CreditForm) api.ApplyCreditRequest {
	return api.ApplyCreditRequest{
		CreditMemoID: f.CreditMemoID,
		Amount:       f.Amount,
		Description:  f.Description,
		Date:         f.Date,
	}
}

// NewCreditRunner builds the apply-credit workflow for one invoice.
// After a successful commit the amount and description are cleared and the
// date returns to today.
func NewCreditRunner(backend CreditBackend, invoiceID int64, log *slog.Logger, now func() time.Time) *Runner {
	if now == nil {
		now = time.Now
	}
	return NewRunner(Definition{
		Kind: KindCredit,
		Preview: func(ctx context.Context, form interface{}) (*api.SplitsPreview, error) {
			return backend.PreviewApplyCredit(ctx, invoiceID, creditRequest(form.(*CreditForm)))
		},
		Commit: func(ctx context.Context, form interface{}) error {
			_, err := backend.ApplyCredit(ctx, invoiceID, creditRequest(form.(*CreditForm)))
			return err
		},
		Reset: func(form interface{}) {
			f := form.(*CreditForm)
			f.CreditMemoID = 0
			f.Amount = 0
			f.Description = ""
			f.Date = now().Format("2006-01-02")
		},
	}, log)
}
