package store

import (
	"encoding/json"
	"fmt"

	"github.com/shweproperty/buildingbooks/internal/emulator/models"
	"github.com/shweproperty/buildingbooks/pkg/api"
	"github.com/shweproperty/buildingbooks/pkg/invoice"
	"github.com/shweproperty/buildingbooks/pkg/money"
)

// CreateCreditMemo stores a credit memo.
func (s *Store) CreateCreditMemo(buildingID int64, req api.CreateCreditMemoRequest) (*models.CreditMemo, error) {
	if req.PeopleID == 0 || req.AccountID == 0 {
		return nil, fmt.Errorf("%w: missing people_id or account_id", ErrValidation)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	id, err := s.nextID(BucketCreditMemos)
	if err != nil {
		return nil, err
	}
	memo := models.CreditMemo{
		CreditMemo: api.CreditMemo{
			ID:           id,
			CreditMemoNo: req.CreditMemoNo,
			PeopleID:     req.PeopleID,
			AccountID:    req.AccountID,
			Date:         req.Date,
			Amount:       api.Amount(money.Round2(req.Amount)),
			Description:  req.Description,
			Status:       api.StatusActive,
		},
		BuildingID: buildingID,
	}
	if err := s.put(BucketCreditMemos, id, memo); err != nil {
		return nil, err
	}
	return s.GetCreditMemo(id)
}

// GetCreditMemo returns one credit memo with its available amount derived.
func (s *Store) GetCreditMemo(id int64) (*models.CreditMemo, error) {
	var memo models.CreditMemo
	if err := s.get(BucketCreditMemos, id, &memo); err != nil {
		return nil, err
	}
	if err := s.fillAvailableAmount(&memo); err != nil {
		return nil, err
	}
	return &memo, nil
}

// fillAvailableAmount derives available_amount as the memo amount minus
// active applications.
func (s *Store) fillAvailableAmount(memo *models.CreditMemo) error {
	applied, err := s.appliedCreditsByMemo(memo.ID)
	if err != nil {
		return err
	}
	available := memo.Amount.Float()
	var used []float64
	for _, a := range applied {
		if a.Status.Active() {
			used = append(used, a.Amount.Float())
		}
	}
	memo.AvailableAmount = api.Amount(money.Round2(available - money.Sum(used...)))
	return nil
}

// ListCreditMemos lists credit memos in scope, optionally restricted to one
// customer, with available amounts derived.
func (s *Store) ListCreditMemos(buildingID, peopleID int64) ([]models.CreditMemo, error) {
	var memos []models.CreditMemo
	err := s.listInto(BucketCreditMemos, func(data []byte) error {
		var memo models.CreditMemo
		if err := json.Unmarshal(data, &memo); err != nil {
			return err
		}
		if !inScope(buildingID, memo.BuildingID) {
			return nil
		}
		if peopleID != 0 && memo.PeopleID != peopleID {
			return nil
		}
		memos = append(memos, memo)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range memos {
		if err := s.fillAvailableAmount(&memos[i]); err != nil {
			return nil, err
		}
	}
	return memos, nil
}

func (s *Store) appliedCreditsByMemo(memoID int64) ([]models.AppliedCredit, error) {
	var applied []models.AppliedCredit
	err := s.listInto(BucketAppliedCredits, func(data []byte) error {
		var a models.AppliedCredit
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		if a.CreditMemoID == memoID {
			applied = append(applied, a)
		}
		return nil
	})
	return applied, err
}

// AppliedCreditsByInvoice returns every credit application against one
// invoice, active or not.
func (s *Store) AppliedCreditsByInvoice(invoiceID int64) ([]models.AppliedCredit, error) {
	var applied []models.AppliedCredit
	err := s.listInto(BucketAppliedCredits, func(data []byte) error {
		var a models.AppliedCredit
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

// creditSplits builds the posting for applying a credit memo: debit the
// memo's liability account, credit the invoice's AR account.
func creditSplits(inv *models.Invoice, memo *models.CreditMemo, amount float64, date string) []models.Split {
	return []models.Split{
		{
			Split: api.Split{
				AccountID: memo.AccountID,
				PeopleID:  inv.PeopleID,
				UnitID:    inv.UnitID,
				Debit:     api.Amount(amount),
				Status:    api.StatusActive,
			},
			BuildingID: inv.BuildingID,
			ParentType: models.ParentAppliedCredit,
			Date:       date,
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
			ParentType: models.ParentAppliedCredit,
			Date:       date,
		},
	}
}

// validateApplyCredit checks an apply-credit request against the invoice
// balance and the memo's remaining credit.
func (s *Store) validateApplyCredit(invoiceID int64, req api.ApplyCreditRequest) (*models.Invoice, *models.CreditMemo, error) {
	if req.Amount <= 0 {
		return nil, nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	inv, err := s.GetInvoiceRecord(invoiceID)
	if err != nil {
		return nil, nil, err
	}
	memo, err := s.GetCreditMemo(req.CreditMemoID)
	if err != nil {
		return nil, nil, err
	}
	if !memo.Status.Active() {
		return nil, nil, fmt.Errorf("%w: credit memo %d is not active", ErrValidation, memo.ID)
	}
	amount := money.Round2(req.Amount)
	if amount > memo.AvailableAmount.Float() {
		return nil, nil, fmt.Errorf("%w: amount %.2f exceeds available credit %.2f",
			ErrValidation, amount, memo.AvailableAmount.Float())
	}
	balance := invoice.Balance(inv.Invoice)
	if amount > balance {
		return nil, nil, fmt.Errorf("%w: amount %.2f exceeds invoice balance %.2f",
			ErrValidation, amount, balance)
	}
	return inv, memo, nil
}

// PreviewApplyCredit returns the splits an apply-credit commit would post,
// without persisting anything.
func (s *Store) PreviewApplyCredit(invoiceID int64, req api.ApplyCreditRequest) (*api.SplitsPreview, error) {
	inv, memo, err := s.validateApplyCredit(invoiceID, req)
	if err != nil {
		return nil, err
	}
	return buildPreview(creditSplits(inv, memo, money.Round2(req.Amount), req.Date)), nil
}

// ApplyCredit applies a credit memo to an invoice and posts the splits.
func (s *Store) ApplyCredit(invoiceID, userID int64, req api.ApplyCreditRequest) (*models.AppliedCredit, error) {
	inv, memo, err := s.validateApplyCredit(invoiceID, req)
	if err != nil {
		return nil, err
	}
	amount := money.Round2(req.Amount)

	id, err := s.nextID(BucketAppliedCredits)
	if err != nil {
		return nil, err
	}
	applied := models.AppliedCredit{
		AppliedCredit: api.AppliedCredit{
			ID:           id,
			InvoiceID:    invoiceID,
			CreditMemoID: memo.ID,
			Amount:       api.Amount(amount),
			Description:  req.Description,
			Date:         req.Date,
			Status:       api.StatusActive,
		},
		BuildingID: inv.BuildingID,
		UserID:     userID,
	}
	if err := s.put(BucketAppliedCredits, id, applied); err != nil {
		return nil, err
	}

	splits := creditSplits(inv, memo, amount, req.Date)
	for i := range splits {
		splits[i].ParentID = id
	}
	if err := s.insertSplits(splits); err != nil {
		return nil, err
	}
	return &applied, nil
}

// SoftDeleteAppliedCredit reverses a credit application and its splits.
func (s *Store) SoftDeleteAppliedCredit(id int64) error {
	var applied models.AppliedCredit
	if err := s.get(BucketAppliedCredits, id, &applied); err != nil {
		return err
	}
	applied.Status = api.StatusInactive
	if err := s.put(BucketAppliedCredits, id, applied); err != nil {
		return err
	}
	return s.softDeleteSplits(models.ParentAppliedCredit, id)
}

// buildPreview totals a candidate posting without persisting it.
func buildPreview(splits []models.Split) *api.SplitsPreview {
	preview := &api.SplitsPreview{}
	var debits, credits []float64
	for _, split := range splits {
		preview.Splits = append(preview.Splits, split.Split)
		debits = append(debits, split.Debit.Float())
		credits = append(credits, split.Credit.Float())
	}
	preview.TotalDebit = api.Amount(money.Sum(debits...))
	preview.TotalCredit = api.Amount(money.Sum(credits...))
	preview.IsBalanced = preview.TotalDebit == preview.TotalCredit
	return preview
}
