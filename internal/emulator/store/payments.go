package store

import (
	"encoding/json"
	"fmt"

	"github.com/shweproperty/buildingbooks/internal/emulator/models"
	"github.com/shweproperty/buildingbooks/pkg/api"
	"github.com/shweproperty/buildingbooks/pkg/money"
)

// PaymentsByInvoice returns every payment recorded against one invoice,
// active or not.
func (s *Store) PaymentsByInvoice(invoiceID int64) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.listInto(BucketPayments, func(data []byte) error {
		var p models.Payment
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if p.InvoiceID == invoiceID {
			payments = append(payments, p)
		}
		return nil
	})
	return payments, err
}

// ListPayments lists payments in scope, optionally restricted to one invoice.
func (s *Store) ListPayments(buildingID, invoiceID int64) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.listInto(BucketPayments, func(data []byte) error {
		var p models.Payment
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if !inScope(buildingID, p.BuildingID) {
			return nil
		}
		if invoiceID != 0 && p.InvoiceID != invoiceID {
			return nil
		}
		payments = append(payments, p)
		return nil
	})
	return payments, err
}

// paymentSplits builds the posting for a payment: debit the deposit
// account, credit the invoice's AR account.
func paymentSplits(inv *models.Invoice, req api.PaymentRequest, amount float64) []models.Split {
	return []models.Split{
		{
			Split: api.Split{
				AccountID: req.AccountID,
				PeopleID:  inv.PeopleID,
				UnitID:    inv.UnitID,
				Debit:     api.Amount(amount),
				Status:    api.StatusActive,
			},
			BuildingID: inv.BuildingID,
			ParentType: models.ParentPayment,
			Date:       req.Date,
		},
		{
			Split: api.Split{
				AccountID: inv.ARAccountID,
				PeopleID:  inv.PeopleID,
				UnitID:    inv.UnitID,
				Credit:    api.Amount(amount),
				Status:    api.StatusActive,
			},
			BuildingID: inv.BuildingID,
			ParentType: models.ParentPayment,
			Date:       req.Date,
		},
	}
}

// validatePayment checks a payment request. Overpayment is allowed: excess
// shows up as a negative balance on the client.
func (s *Store) validatePayment(req api.PaymentRequest) (*models.Invoice, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if req.AccountID == 0 {
		return nil, fmt.Errorf("%w: missing account_id", ErrValidation)
	}
	if req.Date == "" {
		return nil, fmt.Errorf("%w: missing date", ErrValidation)
	}
	inv, err := s.GetInvoiceRecord(req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.Status.Active() {
		return nil, fmt.Errorf("%w: invoice %d is not active", ErrValidation, inv.ID)
	}
	return inv, nil
}

// PreviewPayment returns the splits a payment commit would post, without
// persisting anything.
func (s *Store) PreviewPayment(req api.PaymentRequest) (*api.SplitsPreview, error) {
	inv, err := s.validatePayment(req)
	if err != nil {
		return nil, err
	}
	return buildPreview(paymentSplits(inv, req, money.Round2(req.Amount))), nil
}

// CreatePayment records a payment against an invoice and posts the splits.
func (s *Store) CreatePayment(userID int64, req api.PaymentRequest) (*models.Payment, error) {
	inv, err := s.validatePayment(req)
	if err != nil {
		return nil, err
	}
	amount := money.Round2(req.Amount)

	id, err := s.nextID(BucketPayments)
	if err != nil {
		return nil, err
	}
	payment := models.Payment{
		InvoicePayment: api.InvoicePayment{
			ID:        id,
			InvoiceID: inv.ID,
			AccountID: req.AccountID,
			Amount:    api.Amount(amount),
			Date:      req.Date,
			Reference: req.Reference,
			Status:    api.StatusActive,
		},
		BuildingID: inv.BuildingID,
		UserID:     userID,
	}
	if err := s.put(BucketPayments, id, payment); err != nil {
		return nil, err
	}

	splits := paymentSplits(inv, req, amount)
	for i := range splits {
		splits[i].ParentID = id
	}
	if err := s.insertSplits(splits); err != nil {
		return nil, err
	}
	return &payment, nil
}

// SoftDeletePayment reverses a payment and its splits.
func (s *Store) SoftDeletePayment(id int64) error {
	var payment models.Payment
	if err := s.get(BucketPayments, id, &payment); err != nil {
		return err
	}
	payment.Status = api.StatusInactive
	if err := s.put(BucketPayments, id, payment); err != nil {
		return err
	}
	return s.softDeleteSplits(models.ParentPayment, id)
}
