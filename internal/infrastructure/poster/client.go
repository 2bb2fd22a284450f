package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultTimeout          = 20 * time.Second
	defaultMaxResponseBytes = 10 * 1024 * 1024
	dateLayout              = "2006-01-02 15:04:05"
)

// Options tune a Client
type Options struct {
	Timeout          time.Duration
	MaxResponseBytes int64
	// Location transaction dates are rendered in
	Location *time.Location
	Logger   *zap.Logger
}

// Client talks to the finance API of one POS installation
type Client struct {
	baseURL    string
	token      string
	userID     int64
	location   *time.Location
	maxBytes   int64
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client. baseURL may or may not end in /api.
func NewClient(baseURL, token string, userID int64, opts Options) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" || strings.TrimSpace(token) == "" {
		return nil, pos.ErrGatewayNotConfigured
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxResponseBytes <= 0 {
		opts.MaxResponseBytes = defaultMaxResponseBytes
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	base := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}

	return &Client{
		baseURL:    base,
		token:      token,
		userID:     userID,
		location:   opts.Location,
		maxBytes:   opts.MaxResponseBytes,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     opts.Logger.Named("poster"),
	}, nil
}

// GetClosedOrderTotals implements pos.Gateway
func (c *Client) GetClosedOrderTotals(ctx context.Context, date time.Time) (*pos.ClosedOrderTotals, error) {
	const op = "dash.getTransactions"
	day := settlement.PosDate(date)

	var orders []dashTransaction
	if err := c.call(ctx, http.MethodGet, op, url.Values{"dateFrom": {day}, "dateTo": {day}}, nil, &orders); err != nil {
		return nil, shared.NewGatewayError(op, err)
	}

	totals := &pos.ClosedOrderTotals{}
	for _, o := range orders {
		if o.Status != closedOrderStatus {
			continue
		}
		totals.CashPaid += int64(o.PayedCash)
		totals.CardPaid += int64(o.PayedCard)
		totals.GrossPaid += int64(o.PayedSum)
		totals.OrderCount++
	}
	return totals, nil
}

// ListTransactions implements pos.Gateway
func (c *Client) ListTransactions(ctx context.Context, date time.Time) ([]pos.Transaction, error) {
	const op = "finance.getTransactions"
	day := settlement.PosDate(date)

	var raw []financeTransaction
	if err := c.call(ctx, http.MethodGet, op, url.Values{"dateFrom": {day}, "dateTo": {day}}, nil, &raw); err != nil {
		return nil, shared.NewGatewayError(op, err)
	}

	txns := make([]pos.Transaction, 0, len(raw))
	for _, r := range raw {
		txns = append(txns, pos.Transaction{
			ID:            strconv.FormatInt(int64(r.TransactionID), 10),
			Type:          pos.TransactionType(r.Type),
			AccountFromID: strconv.FormatInt(r.accountFrom(), 10),
			AmountFrom:    r.amountFrom(),
			CategoryName:  r.CategoryName,
			Comment:       r.Comment,
		})
	}
	return txns, nil
}

// CreateTransaction implements pos.Gateway
func (c *Client) CreateTransaction(ctx context.Context, txn pos.NewTransaction) (string, error) {
	const op = "finance.createTransaction"
	if !txn.Type.IsValid() {
		return "", shared.NewValidationError("unknown transaction type %d", txn.Type)
	}
	if !txn.Amount.IsPositive() {
		return "", shared.NewValidationError("transaction amount must be positive")
	}

	amount := settlement.ToTiyin(txn.Amount)
	userID := txn.UserID
	if userID == 0 {
		userID = c.userID
	}
	req := createTransactionRequest{
		Type:       int(txn.Type),
		CategoryID: txn.CategoryID,
		AccountID:  txn.AccountID,
		AmountFrom: amount,
		UserID:     userID,
		Date:       txn.Date.In(c.location).Format(dateLayout),
		Comment:    txn.Comment,
	}
	if txn.Type == pos.TransactionTransfer {
		req.AccountToID = txn.AccountToID
		req.AmountTo = amount
	}

	var raw json.RawMessage
	if err := c.call(ctx, http.MethodPost, op, nil, req, &raw); err != nil {
		return "", shared.NewGatewayError(op, err)
	}
	id, err := parseCreatedID(raw)
	if err != nil {
		return "", shared.NewGatewayError(op, fmt.Errorf("%w: %v", pos.ErrGatewayInvalidResponse, err))
	}

	c.logger.Debug("transaction created",
		zap.String("transaction_id", id),
		zap.Stringer("type", txn.Type),
		zap.Int64("amount_tiyin", amount),
	)
	return id, nil
}

// Accounts implements pos.Gateway
func (c *Client) Accounts(ctx context.Context) ([]pos.FinanceAccount, error) {
	const op = "finance.getAccounts"

	var raw []financeAccount
	if err := c.call(ctx, http.MethodGet, op, nil, nil, &raw); err != nil {
		return nil, shared.NewGatewayError(op, err)
	}

	accounts := make([]pos.FinanceAccount, 0, len(raw))
	for _, a := range raw {
		name := a.AccountName
		if name == "" {
			name = a.Name
		}
		accounts = append(accounts, pos.FinanceAccount{ID: int64(a.AccountID), Name: name})
	}
	return accounts, nil
}

// Categories implements pos.Gateway
func (c *Client) Categories(ctx context.Context) ([]pos.Category, error) {
	const op = "finance.getCategories"

	var raw []financeCategory
	if err := c.call(ctx, http.MethodGet, op, nil, nil, &raw); err != nil {
		return nil, shared.NewGatewayError(op, err)
	}

	cats := make([]pos.Category, 0, len(raw))
	for _, r := range raw {
		id := int64(r.CategoryID)
		if id == 0 {
			id = int64(r.ID)
		}
		name := r.CategoryName
		if name == "" {
			name = r.Name
		}
		cats = append(cats, pos.Category{ID: id, Name: name})
	}
	return cats, nil
}

// call performs a request and decodes the envelope's response into out
func (c *Client) call(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.token)
	target := c.baseURL + "/" + endpoint + "?" + query.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", pos.ErrGatewayRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", pos.ErrGatewayRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", pos.ErrGatewayRequestFailed, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d: %s", pos.ErrGatewayRequestFailed, resp.StatusCode, truncate(data, 200))
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", pos.ErrGatewayInvalidResponse, err)
	}
	if env.failed() {
		return fmt.Errorf("%w: %s", pos.ErrGatewayRejected, env.errorText())
	}
	if len(env.Response) == 0 {
		return fmt.Errorf("%w: empty response", pos.ErrGatewayInvalidResponse)
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("%w: %v", pos.ErrGatewayInvalidResponse, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ pos.Gateway = (*Client)(nil)
