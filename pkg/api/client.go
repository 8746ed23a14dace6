package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ClientConfig configures the REST client.
type ClientConfig struct {
	BaseURL     string
	AccessToken string
	UserID      int64 // sent as the User-ID header on financial mutations
	BuildingID  int64 // 0 means unscoped /v1 routes
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client talks to the property accounting REST API. When BuildingID is set,
// resource routes are issued under /v1/buildings/{id}; otherwise the unscoped
// /v1 fallback is used.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	userID      int64
	buildingID  int64
	log         *slog.Logger
}

// NewClient creates a new API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	log := config.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     config.BaseURL,
		accessToken: config.AccessToken,
		userID:      config.UserID,
		buildingID:  config.BuildingID,
		log:         log,
	}
}

// SetAccessToken sets the bearer token for API requests.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// SetUserID sets the user id sent as the User-ID header on mutations.
func (c *Client) SetUserID(id int64) {
	c.userID = id
}

// BuildingID returns the building scope of this client.
func (c *Client) BuildingID() int64 {
	return c.buildingID
}

// scoped returns the path under the building scope, or the unscoped
// fallback when no building is set.
func (c *Client) scoped(path string) string {
	if c.buildingID > 0 {
		return fmt.Sprintf("/v1/buildings/%d%s", c.buildingID, path)
	}
	return "/v1" + path
}

type requestOptions struct {
	withUserID bool
}

// do issues one request and decodes the (possibly enveloped) payload into out.
// op doubles as the generic fallback message for error display.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, opts requestOptions) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", methodOp(method, path), err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", methodOp(method, path), err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	if opts.withUserID && c.userID > 0 {
		req.Header.Set("User-ID", strconv.FormatInt(c.userID, 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", methodOp(method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(methodOp(method, path), genericFailure(method, path), resp)
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", methodOp(method, path), err)
	}
	return decodePayload(c.log, methodOp(method, path), data, out)
}

func methodOp(method, path string) string {
	return method + " " + path
}

func genericFailure(method, path string) string {
	switch method {
	case http.MethodGet:
		return "failed to fetch " + path
	case http.MethodDelete:
		return "failed to delete " + path
	default:
		return "request to " + path + " failed"
	}
}

// Login authenticates against the unscoped auth endpoint and stores the
// returned token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", nil, body, &resp, requestOptions{}); err != nil {
		return nil, err
	}
	c.accessToken = resp.AccessToken
	c.userID = resp.User.ID
	return &resp, nil
}

// ListBuildings lists all buildings.
func (c *Client) ListBuildings(ctx context.Context) ([]Building, error) {
	var buildings []Building
	if err := c.do(ctx, http.MethodGet, "/v1/buildings", nil, nil, &buildings, requestOptions{}); err != nil {
		return nil, err
	}
	return buildings, nil
}

// CreateBuilding creates a building.
func (c *Client) CreateBuilding(ctx context.Context, b Building) (*Building, error) {
	var created Building
	if err := c.do(ctx, http.MethodPost, "/v1/buildings", nil, b, &created, requestOptions{}); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListAccounts lists the ledger accounts in scope.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.do(ctx, http.MethodGet, c.scoped("/accounts"), nil, nil, &accounts, requestOptions{}); err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateAccount creates a ledger account.
func (c *Client) CreateAccount(ctx context.Context, a Account) (*Account, error) {
	var created Account
	if err := c.do(ctx, http.MethodPost, c.scoped("/accounts"), nil, a, &created, requestOptions{}); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListUnits lists the units in scope.
func (c *Client) ListUnits(ctx context.Context) ([]Unit, error) {
	var units []Unit
	if err := c.do(ctx, http.MethodGet, c.scoped("/units"), nil, nil, &units, requestOptions{}); err != nil {
		return nil, err
	}
	return units, nil
}

// CreateUnit creates a unit.
func (c *Client) CreateUnit(ctx context.Context, u Unit) (*Unit, error) {
	var created Unit
	if err := c.do(ctx, http.MethodPost, c.scoped("/units"), nil, u, &created, requestOptions{}); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListPeople lists the tenants/customers in scope.
func (c *Client) ListPeople(ctx context.Context) ([]People, error) {
	var people []People
	if err := c.do(ctx, http.MethodGet, c.scoped("/people"), nil, nil, &people, requestOptions{}); err != nil {
		return nil, err
	}
	return people, nil
}

// CreatePeople creates a tenant/customer record.
func (c *Client) CreatePeople(ctx context.Context, p People) (*People, error) {
	var created People
	if err := c.do(ctx, http.MethodPost, c.scoped("/people"), nil, p, &created, requestOptions{}); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListItems lists the billable items in scope.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := c.do(ctx, http.MethodGet, c.scoped("/items"), nil, nil, &items, requestOptions{}); err != nil {
		return nil, err
	}
	return items, nil
}

// ListInvoices lists invoices matching the filter.
func (c *Client) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	query := url.Values{}
	if filter.StartDate != "" {
		query.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		query.Set("end_date", filter.EndDate)
	}
	if filter.PeopleID > 0 {
		query.Set("people_id", strconv.FormatInt(filter.PeopleID, 10))
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}

	var invoices []Invoice
	if err := c.do(ctx, http.MethodGet, c.scoped("/invoices"), query, nil, &invoices, requestOptions{}); err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetInvoice fetches one invoice's full detail graph (invoice + items +
// splits). Detail is deliberately not prefetched by the list endpoint.
func (c *Client) GetInvoice(ctx context.Context, id int64) (*InvoiceDetail, error) {
	var detail InvoiceDetail
	path := fmt.Sprintf("%s/%d", c.scoped("/invoices"), id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &detail, requestOptions{}); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateInvoice creates an invoice.
func (c *Client) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	var created Invoice
	if err := c.do(ctx, http.MethodPost, c.scoped("/invoices"), nil, req, &created, requestOptions{withUserID: true}); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateInvoice replaces an invoice.
func (c *Client) UpdateInvoice(ctx context.Context, id int64, req CreateInvoiceRequest) (*Invoice, error) {
	var updated Invoice
	path := fmt.Sprintf("%s/%d", c.scoped("/invoices"), id)
	if err := c.do(ctx, http.MethodPut, path, nil, req, &updated, requestOptions{withUserID: true}); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteInvoice soft-deletes an invoice.
func (c *Client) DeleteInvoice(ctx context.Context, id int64) error {
	path := fmt.Sprintf("%s/%d", c.scoped("/invoices"), id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, requestOptions{withUserID: true})
}

// AvailableCredits lists the credit memos applicable to an invoice, with
// their server-computed available amounts.
func (c *Client) AvailableCredits(ctx context.Context, invoiceID int64) ([]CreditMemo, error) {
	var memos []CreditMemo
	path := fmt.Sprintf("%s/%d/available-credits", c.scoped("/invoices"), invoiceID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &memos, requestOptions{}); err != nil {
		return nil, err
	}
	return memos, nil
}

// AppliedCredits lists the credits applied to an invoice.
func (c *Client) AppliedCredits(ctx context.Context, invoiceID int64) ([]AppliedCredit, error) {
	var credits []AppliedCredit
	path := fmt.Sprintf("%s/%d/applied-credits", c.scoped("/invoices"), invoiceID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &credits, requestOptions{}); err != nil {
		return nil, err
	}
	return credits, nil
}

// AppliedDiscounts lists the discounts applied to an invoice.
func (c *Client) AppliedDiscounts(ctx context.Context, invoiceID int64) ([]AppliedDiscount, error) {
	var discounts []AppliedDiscount
	path := fmt.Sprintf("%s/%d/applied-discounts", c.scoped("/invoices"), invoiceID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &discounts, requestOptions{}); err != nil {
		return nil, err
	}
	return discounts, nil
}

// ListPayments lists the payments recorded against an invoice.
func (c *Client) ListPayments(ctx context.Context, invoiceID int64) ([]InvoicePayment, error) {
	var payments []InvoicePayment
	path := fmt.Sprintf("%s/%d/payments", c.scoped("/invoices"), invoiceID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &payments, requestOptions{}); err != nil {
		return nil, err
	}
	return payments, nil
}

// PreviewApplyCredit dry-runs a credit application. The backend returns the
// splits that WOULD be created without persisting anything; the call is
// repeatable.
func (c *Client) PreviewApplyCredit(ctx context.Context, invoiceID int64, req ApplyCreditRequest) (*SplitsPreview, error) {
	var preview SplitsPreview
	path := fmt.Sprintf("%s/%d/preview-apply-credit", c.scoped("/invoices"), invoiceID)
	if err := c.do(ctx, http.MethodPost, path, nil, req, &preview, requestOptions{}); err != nil {
		return nil, err
	}
	return &preview, nil
}

// ApplyCredit commits a credit application using the same payload shape as
// the preview.
func (c *Client) ApplyCredit(ctx context.Context, invoiceID int64, req ApplyCreditRequest) (*AppliedCredit, error) {
	var applied AppliedCredit
	path := fmt.Sprintf("%s/%d/apply-credit", c.scoped("/invoices"), invoiceID)
	if err := c.do(ctx, http.MethodPost, path, nil, req, &applied, requestOptions{withUserID: true}); err != nil {
		return nil, err
	}
	return &applied, nil
}

// PreviewApplyDiscount dry-runs a discount application.
func (c *Client) PreviewApplyDiscount(ctx context.Context, invoiceID int64, req ApplyDiscountRequest) (*SplitsPreview, error) {
	var preview SplitsPreview
	path := fmt.Sprintf("%s/%d/preview-apply-discount", c.scoped("/invoices"), invoiceID)
	if err := c.do(ctx, http.MethodPost, path, nil, req, &preview, requestOptions{}); err != nil {
		return nil, err
	}
	return &preview, nil
}

// ApplyDiscount commits a discount application.
func (c *Client) ApplyDiscount(ctx context.Context, invoiceID int64, req ApplyDiscountRequest) (*AppliedDiscount, error) {
	var applied AppliedDiscount
	path := fmt.Sprintf("%s/%d/apply-discount", c.scoped("/invoices"), invoiceID)
	if err := c.do(ctx, http.MethodPost, path, nil, req, &applied, requestOptions{withUserID: true}); err != nil {
		return nil, err
	}
	return &applied, nil
}

// PreviewPayment dry-runs a payment recording.
func (c *Client) PreviewPayment(ctx context.Context, req PaymentRequest) (*SplitsPreview, error) {
	var preview SplitsPreview
	if err := c.do(ctx, http.MethodPost, c.scoped("/invoice-payments/preview"), nil, req, &preview, requestOptions{}); err != nil {
		return nil, err
	}
	return &preview, nil
}

// CreatePayment commits a payment recording.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*InvoicePayment, error) {
	var created InvoicePayment
	if err := c.do(ctx, http.MethodPost, c.scoped("/invoice-payments"), nil, req, &created, requestOptions{withUserID: true}); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteAppliedCredit soft-deletes an applied credit; the backend cascades
// to the generated transaction/splits.
func (c *Client) DeleteAppliedCredit(ctx context.Context, id int64) error {
	path := fmt.Sprintf("%s/%d", c.scoped("/invoice-applied-credits"), id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, requestOptions{withUserID: true})
}

// DeleteAppliedDiscount soft-deletes an applied discount.
func (c *Client) DeleteAppliedDiscount(ctx context.Context, id int64) error {
	path := fmt.Sprintf("%s/%d", c.scoped("/invoice-applied-discounts"), id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, requestOptions{withUserID: true})
}

// ListCreditMemos lists the credit memos in scope.
func (c *Client) ListCreditMemos(ctx context.Context) ([]CreditMemo, error) {
	var memos []CreditMemo
	if err := c.do(ctx, http.MethodGet, c.scoped("/credit-memos"), nil, nil, &memos, requestOptions{}); err != nil {
		return nil, err
	}
	return memos, nil
}

// CreateCreditMemo creates a credit memo.
func (c *Client) CreateCreditMemo(ctx context.Context, req CreateCreditMemoRequest) (*CreditMemo, error) {
	var created CreditMemo
	if err := c.do(ctx, http.MethodPost, c.scoped("/credit-memos"), nil, req, &created, requestOptions{withUserID: true}); err != nil {
		return nil, err
	}
	return &created, nil
}
