package mpesa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

type callbackEnvelope struct {
	Body *struct {
		StkCallback *stkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type stkCallback struct {
	MerchantRequestID string       `json:"MerchantRequestID"`
	CheckoutRequestID string       `json:"CheckoutRequestID"`
	ResultCode        *json.Number `json:"ResultCode"`
	ResultDesc        string       `json:"ResultDesc"`
	CallbackMetadata  *struct {
		Item []metadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

type metadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// CallbackResult is the flattened content of an STK push callback.
type CallbackResult struct {
	MerchantRequestID string              `json:"merchant_request_id"`
	CheckoutRequestID string              `json:"checkout_request_id"`
	ResultCode        int                 `json:"result_code"`
	ResultDesc        string              `json:"result_desc"`
	Success           bool                `json:"success"`
	Amount            decimal.NullDecimal `json:"amount,omitempty"`
	ReceiptNumber     string              `json:"mpesa_receipt_number,omitempty"`
	TransactionDate   string              `json:"transaction_date,omitempty"`
	PhoneNumber       string              `json:"phone_number,omitempty"`
}

// ParseCallback decodes the provider's webhook body. Metadata items are
// matched by name so reordered or new items do not break parsing.
func ParseCallback(body []byte) (*CallbackResult, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}
	if env.Body == nil || env.Body.StkCallback == nil {
		return nil, fmt.Errorf("%w: missing Body.stkCallback", ErrMalformedCallback)
	}

	cb := env.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing CheckoutRequestID", ErrMalformedCallback)
	}
	if cb.ResultCode == nil {
		return nil, fmt.Errorf("%w: missing ResultCode", ErrMalformedCallback)
	}
	code, err := strconv.Atoi(cb.ResultCode.String())
	if err != nil {
		return nil, fmt.Errorf("%w: ResultCode %q", ErrMalformedCallback, cb.ResultCode.String())
	}

	result := &CallbackResult{
		MerchantRequestID: cb.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        code,
		ResultDesc:        cb.ResultDesc,
		Success:           code == 0,
	}

	if !result.Success || cb.CallbackMetadata == nil {
		return result, nil
	}

	for _, item := range cb.CallbackMetadata.Item {
		value, ok := itemValue(item.Value)
		if !ok {
			continue
		}
		switch item.Name {
		case "Amount":
			if amount, err := decimal.NewFromString(value); err == nil {
				result.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
			}
		case "MpesaReceiptNumber":
			result.ReceiptNumber = value
		case "TransactionDate":
			result.TransactionDate = value
		case "PhoneNumber":
			result.PhoneNumber = value
		}
	}

	return result, nil
}

// itemValue renders a metadata value (string or number literal) as text.
func itemValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", false
	}
	return n.String(), true
}
