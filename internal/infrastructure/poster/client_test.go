package poster

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/posterdash/backend/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	loc := time.FixedZone("ALMT", 5*60*60)
	c, err := NewClient(srv.URL, "tok", 7, Options{Timeout: 2 * time.Second, Location: loc})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("", "tok", 0, Options{})
	assert.ErrorIs(t, err, pos.ErrGatewayNotConfigured)

	c, err := NewClient("https://shop.joinposter.com/api/", "tok", 0, Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://shop.joinposter.com/api", c.baseURL)

	c, err = NewClient("https://shop.joinposter.com", "tok", 0, Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://shop.joinposter.com/api", c.baseURL)
}

func TestClient_GetClosedOrderTotals(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dash.getTransactions", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		assert.Equal(t, "20240310", r.URL.Query().Get("dateFrom"))
		assert.Equal(t, "20240310", r.URL.Query().Get("dateTo"))
		_, _ = io.WriteString(w, `{"response":[
			{"status":"2","payed_cash":"1000000","payed_card":"2000000","payed_sum":"3050000"},
			{"status":2,"payed_cash":500000,"payed_card":0,"payed_sum":500000},
			{"status":"1","payed_cash":"999900","payed_card":"0","payed_sum":"999900"}
		]}`)
	})

	totals, err := c.GetClosedOrderTotals(context.Background(), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, totals.OrderCount)
	assert.Equal(t, int64(1500000), totals.CashPaid)
	assert.Equal(t, int64(2000000), totals.CardPaid)
	assert.True(t, totals.Trade().Equal(decimal.NewFromInt(35000)))
	assert.True(t, totals.Bonus().Equal(decimal.NewFromInt(500)))
}

func TestClient_ListTransactions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/finance.getTransactions", r.URL.Path)
		_, _ = io.WriteString(w, `{"response":[
			{"transaction_id":"55","type":"0","account_id":"4","amount_from":"-250000","category_name":"Хозтовары","comment":"Салфетки"},
			{"transaction_id":56,"type":2,"account_from_id":1,"amount":100000,"category_name":"Перевод","comment":""}
		]}`)
	})

	txns, err := c.ListTransactions(context.Background(), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "55", txns[0].ID)
	assert.Equal(t, pos.TransactionExpense, txns[0].Type)
	assert.Equal(t, "4", txns[0].AccountFromID)
	assert.True(t, txns[0].Amount().Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, "Салфетки", txns[0].Comment)

	assert.Equal(t, pos.TransactionTransfer, txns[1].Type)
	assert.Equal(t, "1", txns[1].AccountFromID)
	assert.Equal(t, int64(100000), txns[1].AmountFrom)
}

func TestClient_CreateTransaction(t *testing.T) {
	var got createTransactionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/finance.createTransaction", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"response":{"transaction_id":"901"}}`)
	})

	at := time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)
	id, err := c.CreateTransaction(context.Background(), pos.NewTransfer(2, 4, decimal.NewFromInt(120000), at, "Инкассация"))
	require.NoError(t, err)
	assert.Equal(t, "901", id)

	assert.Equal(t, 2, got.Type)
	assert.Equal(t, int64(2), got.AccountID)
	assert.Equal(t, int64(4), got.AccountToID)
	assert.Equal(t, int64(12000000), got.AmountFrom)
	assert.Equal(t, int64(12000000), got.AmountTo)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "2024-03-10 23:30:00", got.Date)
	assert.Equal(t, "Инкассация", got.Comment)
}

func TestClient_CreateTransaction_BareID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":902}`)
	})

	id, err := c.CreateTransaction(context.Background(), pos.NewExpense(16, 4, decimal.NewFromInt(8000), time.Now(), "Кассир - Аружан"))
	require.NoError(t, err)
	assert.Equal(t, "902", id)
}

func TestClient_CreateTransaction_RejectsNonPositive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.CreateTransaction(context.Background(), pos.NewExpense(16, 4, decimal.Zero, time.Now(), ""))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"http error", http.StatusBadGateway, `bad gateway`, pos.ErrGatewayRequestFailed},
		{"api error", http.StatusOK, `{"error":32,"message":"Access token invalid"}`, pos.ErrGatewayRejected},
		{"malformed", http.StatusOK, `<html>`, pos.ErrGatewayInvalidResponse},
		{"empty", http.StatusOK, `{}`, pos.ErrGatewayInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Accounts(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, shared.ErrExternalGateway)
			assert.Contains(t, err.Error(), "finance.getAccounts")
		})
	}
}

func TestClient_AccountsAndCategories(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/finance.getAccounts":
			_, _ = io.WriteString(w, `{"response":[{"account_id":"1","account_name":"Kaspi Gold"},{"account_id":"4","name":"Денежный ящик"}]}`)
		case "/api/finance.getCategories":
			_, _ = io.WriteString(w, `{"response":[{"category_id":"16","category_name":"Зарплата"},{"id":"19","name":"Кухня"}]}`)
		}
	})

	accounts, err := c.Accounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []pos.FinanceAccount{{ID: 1, Name: "Kaspi Gold"}, {ID: 4, Name: "Денежный ящик"}}, accounts)

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []pos.Category{{ID: 16, Name: "Зарплата"}, {ID: 19, Name: "Кухня"}}, cats)
}

func TestFactory_CachesReferenceData(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"response":[{"account_id":"1","account_name":"Kaspi Gold"}]}`)
	}))
	defer srv.Close()

	refCache := cache.NewMemoryReferenceCache(time.Minute)
	defer refCache.Close()

	f := NewFactory(time.Second, 0, time.UTC, refCache, nil)
	account := &pos.Account{BaseURL: srv.URL, Token: "tok"}
	account.ID = uuid.New()

	gw, err := f.ForAccount(account)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		accounts, err := gw.Accounts(context.Background())
		require.NoError(t, err)
		assert.Len(t, accounts, 1)
	}
	assert.Equal(t, int32(1), hits.Load())

	_, err = f.ForAccount(nil)
	assert.ErrorIs(t, err, pos.ErrGatewayNotConfigured)
}

type countingGateway struct {
	pos.Gateway
	calls *atomic.Int32
}

func (g countingGateway) Accounts(ctx context.Context) ([]pos.FinanceAccount, error) {
	g.calls.Add(1)
	return g.Gateway.Accounts(ctx)
}

func TestFactory_DecoratorSitsBelowCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":[{"account_id":"1","account_name":"Kaspi Gold"}]}`)
	}))
	defer srv.Close()

	refCache := cache.NewMemoryReferenceCache(time.Minute)
	defer refCache.Close()

	var decorated, calls atomic.Int32
	f := NewFactory(time.Second, 0, time.UTC, refCache, nil).Instrument(func(gw pos.Gateway, account *pos.Account) pos.Gateway {
		decorated.Add(1)
		return countingGateway{Gateway: gw, calls: &calls}
	})
	account := &pos.Account{BaseURL: srv.URL, Token: "tok"}
	account.ID = uuid.New()

	gw, err := f.ForAccount(account)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := gw.Accounts(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), decorated.Load())
	assert.Equal(t, int32(1), calls.Load())
}
