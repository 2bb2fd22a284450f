package poster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// envelope is the wrapper around every POS API response
type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    json.RawMessage `json:"error"`
	Message  string          `json:"message"`
}

func (e envelope) failed() bool {
	raw := bytes.TrimSpace(e.Error)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && !bytes.Equal(raw, []byte("0"))
}

func (e envelope) errorText() string {
	if e.Message != "" {
		return e.Message
	}
	return strings.Trim(string(e.Error), `"`)
}

// flexInt decodes integers the API sends either as numbers or as strings
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = flexInt(n)
		return nil
	}
	// amounts occasionally come with a fractional part
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	*f = flexInt(v)
	return nil
}

type dashTransaction struct {
	Status    flexInt `json:"status"`
	PayedCash flexInt `json:"payed_cash"`
	PayedCard flexInt `json:"payed_card"`
	PayedSum  flexInt `json:"payed_sum"`
}

const closedOrderStatus = 2

type financeTransaction struct {
	TransactionID flexInt `json:"transaction_id"`
	Type          flexInt `json:"type"`
	AccountID     flexInt `json:"account_id"`
	AccountFromID flexInt `json:"account_from_id"`
	AmountFrom    flexInt `json:"amount_from"`
	Amount        flexInt `json:"amount"`
	CategoryName  string  `json:"category_name"`
	Comment       string  `json:"comment"`
}

func (t financeTransaction) accountFrom() int64 {
	if t.AccountID != 0 {
		return int64(t.AccountID)
	}
	return int64(t.AccountFromID)
}

func (t financeTransaction) amountFrom() int64 {
	if t.AmountFrom != 0 {
		return int64(t.AmountFrom)
	}
	return int64(t.Amount)
}

type financeAccount struct {
	AccountID   flexInt `json:"account_id"`
	AccountName string  `json:"account_name"`
	Name        string  `json:"name"`
}

type financeCategory struct {
	CategoryID   flexInt `json:"category_id"`
	ID           flexInt `json:"id"`
	CategoryName string  `json:"category_name"`
	Name         string  `json:"name"`
}

type createTransactionRequest struct {
	Type        int    `json:"type"`
	CategoryID  int64  `json:"category_id,omitempty"`
	AccountID   int64  `json:"account_id"`
	AccountToID int64  `json:"account_to_id,omitempty"`
	AmountFrom  int64  `json:"amount_from"`
	AmountTo    int64  `json:"amount_to,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
	Date        string `json:"date"`
	Comment     string `json:"comment"`
}

type createTransactionResponse struct {
	TransactionID flexInt `json:"transaction_id"`
}

// parseCreatedID accepts both a bare id and an object carrying transaction_id
func parseCreatedID(raw json.RawMessage) (string, error) {
	var id flexInt
	if err := json.Unmarshal(raw, &id); err == nil && id != 0 {
		return strconv.FormatInt(int64(id), 10), nil
	}
	var obj createTransactionResponse
	if err := json.Unmarshal(raw, &obj); err == nil && obj.TransactionID != 0 {
		return strconv.FormatInt(int64(obj.TransactionID), 10), nil
	}
	return "", fmt.Errorf("no transaction id in %s", string(raw))
}
