package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// Money 金额，存储与输出统一保留两位小数
type Money struct {
	decimal.Decimal
}

func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(moneyPlaces)}
}

func NewMoneyFromInt(amount int64) Money {
	return Money{Decimal: decimal.NewFromInt(amount)}
}

// Minus 扣减后的金额，结果不低于 0
func (m Money) Minus(other Money) Money {
	diff := m.Decimal.Sub(other.Decimal)
	if diff.IsNegative() {
		return Money{Decimal: decimal.Zero}
	}
	return NewMoneyFromDecimal(diff)
}

func (m Money) String() string {
	return m.Decimal.Round(moneyPlaces).StringFixed(moneyPlaces)
}

// MarshalJSON 以字符串输出，避免浮点精度丢失
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 同时接受 "50.00" 与 50
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return fmt.Errorf("invalid money %q: %w", raw, err)
	}
	if !d.Equal(d.Round(moneyPlaces)) {
		return fmt.Errorf("invalid money %q: more than %d decimal places", raw, moneyPlaces)
	}
	*m = NewMoneyFromDecimal(d)
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(moneyPlaces).Value()
}

func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*m = NewMoneyFromDecimal(d)
	return nil
}
