package mpesa

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Callback is the body Daraja posts to CallBackURL once the customer has
// answered (or ignored) the STK prompt.
type Callback struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []MetadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value,omitempty"`
}

func (c *Callback) Result() *StkCallback {
	return &c.Body.StkCallback
}

func (s *StkCallback) Succeeded() bool {
	return s.ResultCode == 0
}

// Item returns the metadata value for name as text. Numbers keep their
// literal form; absent items yield "".
func (s *StkCallback) Item(name string) string {
	for _, item := range s.CallbackMetadata.Item {
		if !strings.EqualFold(item.Name, name) || len(item.Value) == 0 {
			continue
		}
		var str string
		if err := json.Unmarshal(item.Value, &str); err == nil {
			return str
		}
		var num json.Number
		if err := json.Unmarshal(item.Value, &num); err == nil {
			return num.String()
		}
		return strings.Trim(string(item.Value), `"`)
	}
	return ""
}

func (s *StkCallback) AccountReference() string {
	return s.Item("AccountReference")
}

func (s *StkCallback) Receipt() string {
	return s.Item("MpesaReceiptNumber")
}

func (s *StkCallback) Amount() (decimal.Decimal, error) {
	raw := s.Item("Amount")
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("callback amount %q: %w", raw, err)
	}
	return amount, nil
}
