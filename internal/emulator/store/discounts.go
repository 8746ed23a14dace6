package store

import (
	"encoding/json"
	"fmt"

	"github.com/shweproperty/buildingbooks/internal/emulator/models"
	"github.com/shweproperty/buildingbooks/pkg/api"
	"github.com/shweproperty/buildingbooks/pkg/invoice"
	"github.com/shweproperty/buildingbooks/pkg/money"
)

// AppliedDiscountsByInvoice returns every discount application against one
// invoice, active or not.
func (s *Store) AppliedDiscountsByInvoice(invoiceID int64) ([]models.AppliedDiscount, error) {
	var applied []models.AppliedDiscount
	err := s.listInto(BucketAppliedDiscounts, func(data []byte) error {
		var a models.AppliedDiscount
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		if a.InvoiceID == invoiceID {
			applied = append(applied, a)
		}
		return nil
	})
	return applied, err
}

// discountSplits builds the posting for a discount: debit the income
// account (contra revenue), credit the invoice's AR account.
func discountSplits(inv *models.Invoice, req api.ApplyDiscountRequest, amount float64) []models.Split {
	return []models.Split{
		{
			Split: api.Split{
				AccountID: req.IncomeAccount,
				PeopleID:  inv.PeopleID,
				UnitID:    inv.UnitID,
				Debit:     api.Amount(amount),
				Status:    api.StatusActive,
			},
			BuildingID: inv.BuildingID,
			ParentType: models.ParentAppliedDiscount,
			Date:       req.Date,
		},
		{
			Split: api.Split{
				AccountID: req.ARAccount,
				PeopleID:  inv.PeopleID,
				UnitID:    inv.UnitID,
				Credit:    api.Amount(amount),
				Status:    api.StatusActive,
			},
			BuildingID: inv.BuildingID,
			ParentType: models.ParentAppliedDiscount,
			Date:       req.Date,
		},
	}
}

func (s *Store) validateApplyDiscount(invoiceID int64, req api.ApplyDiscountRequest) (*models.Invoice, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if req.ARAccount == 0 || req.IncomeAccount == 0 {
		return nil, fmt.Errorf("%w: missing ar_account or income_account", ErrValidation)
	}
	inv, err := s.GetInvoiceRecord(invoiceID)
	if err != nil {
		return nil, err
	}
	amount := money.Round2(req.Amount)
	balance := invoice.Balance(inv.Invoice)
	if amount > balance {
		return nil, fmt.Errorf("%w: amount %.2f exceeds invoice balance %.2f",
			ErrValidation, amount, balance)
	}
	return inv, nil
}

// PreviewApplyDiscount returns the splits a discount commit would post,
// without persisting anything.
func (s *Store) PreviewApplyDiscount(invoiceID int64, req api.ApplyDiscountRequest) (*api.SplitsPreview, error) {
	inv, err := s.validateApplyDiscount(invoiceID, req)
	if err != nil {
		return nil, err
	}
	return buildPreview(discountSplits(inv, req, money.Round2(req.Amount))), nil
}

// ApplyDiscount records a discount against an invoice and posts the splits.
func (s *Store) ApplyDiscount(invoiceID, userID int64, req api.ApplyDiscountRequest) (*models.AppliedDiscount, error) {
	inv, err := s.validateApplyDiscount(invoiceID, req)
	if err != nil {
		return nil, err
	}
	amount := money.Round2(req.Amount)

	id, err := s.nextID(BucketAppliedDiscounts)
	if err != nil {
		return nil, err
	}
	applied := models.AppliedDiscount{
		AppliedDiscount: api.AppliedDiscount{
			ID:              id,
			InvoiceID:       invoiceID,
			ARAccountID:     req.ARAccount,
			IncomeAccountID: req.IncomeAccount,
			Amount:          api.Amount(amount),
			Description:     req.Description,
			Date:            req.Date,
			Reference:       req.Reference,
			Status:          api.StatusActive,
		},
		BuildingID: inv.BuildingID,
		UserID:     userID,
	}
	if err := s.put(BucketAppliedDiscounts, id, applied); err != nil {
		return nil, err
	}

	splits := discountSplits(inv, req, amount)
	for i := range splits {
		splits[i].ParentID = id
	}
	if err := s.insertSplits(splits); err != nil {
		return nil, err
	}
	return &applied, nil
}

// SoftDeleteAppliedDiscount reverses a discount application and its splits.
func (s *Store) SoftDeleteAppliedDiscount(id int64) error {
	var applied models.AppliedDiscount
	if err := s.get(BucketAppliedDiscounts, id, &applied); err != nil {
		return err
	}
	applied.Status = api.StatusInactive
	if err := s.put(BucketAppliedDiscounts, id, applied); err != nil {
		return err
	}
	return s.softDeleteSplits(models.ParentAppliedDiscount, id)
}
