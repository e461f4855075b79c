package cari

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/ledger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/money"
)

// Amount is a decimal read from JSON the same way stored amounts are read:
// numbers, and strings in either "1.234,56" or "1,234.56" form.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// UnmarshalJSON implements json.Unmarshaler. null and "" leave a zero amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	v, err := decodeScalar(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if v == nil || v == "" {
		a.Decimal = decimal.Zero
		return nil
	}

	d, err := money.ParseAmount(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	a.Decimal = d
	return nil
}

// Date is a time read from JSON the same way stored dates are read: ISO-8601,
// plain dates, local formats and unix timestamps.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler. null and "" leave a zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	v, err := decodeScalar(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if v == nil || v == "" {
		d.Time = time.Time{}
		return nil
	}

	t, ok := ledger.ParseDate(v)
	if !ok {
		return fmt.Errorf("%w: unrecognized date %s", ErrInvalidInput, data)
	}
	d.Time = t
	return nil
}

// decodeScalar decodes data keeping numbers as json.Number.
func decodeScalar(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
