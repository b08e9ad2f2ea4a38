package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// InvoiceExtraction is the structured content the model reads off a purchase invoice.
type InvoiceExtraction struct {
	Wholesaler    Text                `json:"wholesaler"`
	InvoiceNumber Text                `json:"invoiceNumber"`
	Date          Text                `json:"date"`
	Medicines     []ExtractedMedicine `json:"medicines"`
}

// ExtractedMedicine is one invoice line item.
type ExtractedMedicine struct {
	MedicineName  Text   `json:"medicine_name"`
	BrandName     Text   `json:"brand_name"`
	MfgDate       Text   `json:"mfg_date"`
	ExpiryDate    Text   `json:"expiry_date"`
	PackedType    Text   `json:"packed_type"`
	StockQuantity Amount `json:"stock_quantity"`
	PurchasePrice Amount `json:"purchase_price"`
	MRP           Amount `json:"mrp"`
	BatchNo       Text   `json:"batch_no"`
}

// Text is a string field that also takes whatever scalar the model wrote instead,
// such as a batch number emitted as a bare number. Objects and arrays are kept as raw JSON.
type Text string

// UnmarshalJSON accepts strings, numbers, booleans and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case len(raw) == 0 || string(raw) == "null":
		*t = ""
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(raw)
	}
	return nil
}

// Amount is a decimal that tolerates the loose number encodings models emit.
// null and "" decode to an invalid (missing) amount. Anything else that is not a number,
// like "10 strips", is kept verbatim in Raw and the amount stays invalid.
type Amount struct {
	decimal.NullDecimal
	Raw string
}

// NewAmount wraps a known value.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{NullDecimal: decimal.NullDecimal{Decimal: d, Valid: true}}
}

// UnmarshalJSON accepts any JSON value. Numbers and numeric strings become the decimal.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var text Text
	if err := text.UnmarshalJSON(data); err != nil {
		return err
	}
	s := strings.TrimSpace(string(text))
	if s == "" {
		*a = Amount{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		*a = Amount{Raw: s}
		return nil
	}
	*a = NewAmount(d)
	return nil
}

// MarshalJSON writes a bare number, the raw text when it was not numeric, or null.
func (a Amount) MarshalJSON() ([]byte, error) {
	switch {
	case a.Valid:
		return []byte(a.Decimal.String()), nil
	case a.Raw != "":
		return json.Marshal(a.Raw)
	default:
		return []byte("null"), nil
	}
}
