package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shweproperty/buildingbooks/internal/emulator/models"
	"github.com/shweproperty/buildingbooks/pkg/api"
	"github.com/shweproperty/buildingbooks/pkg/money"
)

// ErrValidation marks a request the store refused on business grounds; the
// API layer maps it to a 400 with the wrapped message.
var ErrValidation = errors.New("validation failed")

// CreateInvoice stores an invoice with its items and posting splits.
// The invoice amount is the sum of the item totals; each item total is
// qty * rate unless given explicitly.
func (s *Store) CreateInvoice(buildingID int64, req api.CreateInvoiceRequest) (*models.Invoice, error) {
	if req.SalesDate == "" {
		return nil, fmt.Errorf("%w: missing sales_date", ErrValidation)
	}
	if req.UnitID == 0 || req.PeopleID == 0 || req.ARAccountID == 0 {
		return nil, fmt.Errorf("%w: missing unit_id, people_id or ar_account_id", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: missing items", ErrValidation)
	}

	id, err := s.nextID(BucketInvoices)
	if err != nil {
		return nil, err
	}

	var itemTotals []float64
	for _, item := range req.Items {
		total := money.Round2(item.Qty * item.Rate)
		itemTotals = append(itemTotals, total)

		itemID, err := s.nextID(BucketInvoiceItems)
		if err != nil {
			return nil, err
		}
		record := models.InvoiceItem{InvoiceItem: api.InvoiceItem{
			ID:            itemID,
			InvoiceID:     id,
			ItemName:      item.ItemName,
			PreviousValue: api.Amount(item.PreviousValue),
			CurrentValue:  api.Amount(item.CurrentValue),
			Qty:           api.Amount(item.Qty),
			Rate:          api.Amount(item.Rate),
			Total:         api.Amount(total),
			Status:        api.StatusActive,
		}}
		if err := s.put(BucketInvoiceItems, itemID, record); err != nil {
			return nil, err
		}
	}
	amount := money.Sum(itemTotals...)

	inv := models.Invoice{
		Invoice: api.Invoice{
			ID:          id,
			InvoiceNo:   req.InvoiceNo,
			SalesDate:   req.SalesDate,
			DueDate:     req.DueDate,
			UnitID:      req.UnitID,
			PeopleID:    req.PeopleID,
			ARAccountID: req.ARAccountID,
			Amount:      api.Amount(amount),
			Description: req.Description,
			Status:      api.StatusActive,
		},
		BuildingID:      buildingID,
		IncomeAccountID: req.IncomeAccountID,
	}
	if err := s.put(BucketInvoices, id, inv); err != nil {
		return nil, err
	}

	// Posting: debit AR, credit income.
	splits := []models.Split{
		{
			Split: api.Split{
				AccountID: req.ARAccountID,
				PeopleID:  req.PeopleID,
				UnitID:    req.UnitID,
				Debit:     api.Amount(amount),
				Status:    api.StatusActive,
			},
			BuildingID: buildingID,
			ParentType: models.ParentInvoice,
			ParentID:   id,
			Date:       req.SalesDate,
		},
		{
			Split: api.Split{
				AccountID: req.IncomeAccountID,
				PeopleID:  req.PeopleID,
				UnitID:    req.UnitID,
				Credit:    api.Amount(amount),
				Status:    api.StatusActive,
			},
			BuildingID: buildingID,
			ParentType: models.ParentInvoice,
			ParentID:   id,
			Date:       req.SalesDate,
		},
	}
	if err := s.insertSplits(splits); err != nil {
		return nil, err
	}

	return s.GetInvoiceRecord(id)
}

func (s *Store) insertSplits(splits []models.Split) error {
	txnID := uuid.NewString()
	for _, split := range splits {
		splitID, err := s.nextID(BucketSplits)
		if err != nil {
			return err
		}
		split.ID = splitID
		split.TxnID = txnID
		if err := s.put(BucketSplits, splitID, split); err != nil {
			return err
		}
	}
	return nil
}

// GetInvoiceRecord returns one invoice with its derived totals.
func (s *Store) GetInvoiceRecord(id int64) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.get(BucketInvoices, id, &inv); err != nil {
		return nil, err
	}
	if err := s.fillDerivedTotals(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// fillDerivedTotals recomputes paid_amount, applied_credits_total and
// applied_discounts_total from the invoice's active child records.
func (s *Store) fillDerivedTotals(inv *models.Invoice) error {
	payments, err := s.PaymentsByInvoice(inv.ID)
	if err != nil {
		return err
	}
	var paid []float64
	for _, p := range payments {
		if p.Status.Active() {
			paid = append(paid, p.Amount.Float())
		}
	}

	credits, err := s.AppliedCreditsByInvoice(inv.ID)
	if err != nil {
		return err
	}
	var creditTotals []float64
	for _, c := range credits {
		if c.Status.Active() {
			creditTotals = append(creditTotals, c.Amount.Float())
		}
	}

	discounts, err := s.AppliedDiscountsByInvoice(inv.ID)
	if err != nil {
		return err
	}
	var discountTotals []float64
	for _, d := range discounts {
		if d.Status.Active() {
			discountTotals = append(discountTotals, d.Amount.Float())
		}
	}

	inv.PaidAmount = api.Amount(money.Sum(paid...))
	inv.AppliedCreditsTotal = api.Amount(money.Sum(creditTotals...))
	inv.AppliedDiscountsTotal = api.Amount(money.Sum(discountTotals...))
	return nil
}

// InvoiceFilter narrows ListInvoices.
type InvoiceFilter struct {
	StartDate string
	EndDate   string
	PeopleID  int64
	Status    api.Status
}

// ListInvoices lists invoices in scope matching the filter, with derived
// totals filled in.
func (s *Store) ListInvoices(buildingID int64, filter InvoiceFilter) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.listInto(BucketInvoices, func(data []byte) error {
		var inv models.Invoice
		if err := json.Unmarshal(data, &inv); err != nil {
			return err
		}
		if !inScope(buildingID, inv.BuildingID) {
			return nil
		}
		if filter.StartDate != "" && inv.SalesDate < filter.StartDate {
			return nil
		}
		if filter.EndDate != "" && inv.SalesDate > filter.EndDate {
			return nil
		}
		if filter.PeopleID != 0 && inv.PeopleID != filter.PeopleID {
			return nil
		}
		if filter.Status != "" && inv.Status != filter.Status {
			return nil
		}
		invoices = append(invoices, inv)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range invoices {
		if err := s.fillDerivedTotals(&invoices[i]); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// InvoiceItems returns the items of one invoice, including superseded
// revisions.
func (s *Store) InvoiceItems(invoiceID int64) ([]api.InvoiceItem, error) {
	var items []api.InvoiceItem
	err := s.listInto(BucketInvoiceItems, func(data []byte) error {
		var item models.InvoiceItem
		if err := json.Unmarshal(data, &item); err != nil {
			return err
		}
		if item.InvoiceID == invoiceID {
			items = append(items, item.InvoiceItem)
		}
		return nil
	})
	return items, err
}

// SplitsByParent returns the splits posted for one parent document.
func (s *Store) SplitsByParent(parentType string, parentID int64) ([]models.Split, error) {
	var splits []models.Split
	err := s.listInto(BucketSplits, func(data []byte) error {
		var split models.Split
		if err := json.Unmarshal(data, &split); err != nil {
			return err
		}
		if split.ParentType == parentType && split.ParentID == parentID {
			splits = append(splits, split)
		}
		return nil
	})
	return splits, err
}

// softDeleteSplits marks a parent document's splits inactive.
func (s *Store) softDeleteSplits(parentType string, parentID int64) error {
	splits, err := s.SplitsByParent(parentType, parentID)
	if err != nil {
		return err
	}
	for _, split := range splits {
		split.Status = api.StatusInactive
		if err := s.put(BucketSplits, split.ID, split); err != nil {
			return err
		}
	}
	return nil
}

// UpdateInvoice replaces an invoice's header fields and supersedes its
// items: prior active items flip to inactive and stay for audit.
func (s *Store) UpdateInvoice(id int64, req api.CreateInvoiceRequest) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.get(BucketInvoices, id, &inv); err != nil {
		return nil, err
	}

	items, err := s.InvoiceItems(id)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if !item.Status.Active() {
			continue
		}
		item.Status = api.StatusInactive
		if err := s.put(BucketInvoiceItems, item.ID, models.InvoiceItem{InvoiceItem: item}); err != nil {
			return nil, err
		}
	}

	var itemTotals []float64
	for _, item := range req.Items {
		total := money.Round2(item.Qty * item.Rate)
		itemTotals = append(itemTotals, total)

		itemID, err := s.nextID(BucketInvoiceItems)
		if err != nil {
			return nil, err
		}
		record := models.InvoiceItem{InvoiceItem: api.InvoiceItem{
			ID:            itemID,
			InvoiceID:     id,
			ItemName:      item.ItemName,
			PreviousValue: api.Amount(item.PreviousValue),
			CurrentValue:  api.Amount(item.CurrentValue),
			Qty:           api.Amount(item.Qty),
			Rate:          api.Amount(item.Rate),
			Total:         api.Amount(total),
			Status:        api.StatusActive,
		}}
		if err := s.put(BucketInvoiceItems, itemID, record); err != nil {
			return nil, err
		}
	}

	if req.InvoiceNo != "" {
		inv.InvoiceNo = req.InvoiceNo
	}
	if req.SalesDate != "" {
		inv.SalesDate = req.SalesDate
	}
	inv.DueDate = req.DueDate
	inv.Description = req.Description
	inv.Amount = api.Amount(money.Sum(itemTotals...))

	if err := s.put(BucketInvoices, id, inv); err != nil {
		return nil, err
	}
	return s.GetInvoiceRecord(id)
}

// SoftDeleteInvoice marks an invoice and its splits inactive.
func (s *Store) SoftDeleteInvoice(id int64) error {
	var inv models.Invoice
	if err := s.get(BucketInvoices, id, &inv); err != nil {
		return err
	}
	inv.Status = api.StatusInactive
	if err := s.put(BucketInvoices, id, inv); err != nil {
		return err
	}
	return s.softDeleteSplits(models.ParentInvoice, id)
}
