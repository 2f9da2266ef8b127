// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package state

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// Currency identifies a fungible asset
type Currency struct {
	Ticker        string
	DecimalPlaces uint8
}

// NewCurrency creates a currency
func NewCurrency(ticker string, decimalPlaces uint8) Currency {
	return Currency{
		Ticker:        ticker,
		DecimalPlaces: decimalPlaces,
	}
}

// Equal returns true if two currencies are the same
func (c Currency) Equal(o Currency) bool {
	return c.Ticker == o.Ticker && c.DecimalPlaces == o.DecimalPlaces
}

// Zero returns the zero value of the currency
func (c Currency) Zero() FungibleAssetValue {
	return FungibleAssetValue{Currency: c, Raw: big.NewInt(0)}
}

// Raw returns a value of the currency with raw (minor unit) amount
func (c Currency) Raw(raw *big.Int) FungibleAssetValue {
	return NewFungibleAssetValue(c, raw)
}

func (c Currency) String() string {
	return c.Ticker
}

// FungibleAssetValue is an amount of a currency in its minor unit
type FungibleAssetValue struct {
	Currency Currency
	Raw      *big.Int
}

// NewFungibleAssetValue creates a value, the raw amount is copied
func NewFungibleAssetValue(c Currency, raw *big.Int) FungibleAssetValue {
	r := big.NewInt(0)
	if raw != nil {
		r.Set(raw)
	}
	return FungibleAssetValue{Currency: c, Raw: r}
}

// Clone returns a deep copy
func (v FungibleAssetValue) Clone() FungibleAssetValue {
	return NewFungibleAssetValue(v.Currency, v.Raw)
}

// Sign returns -1, 0 or +1 depending on the sign of the raw amount
func (v FungibleAssetValue) Sign() int {
	if v.Raw == nil {
		return 0
	}
	return v.Raw.Sign()
}

// IsZero returns true if the raw amount is zero
func (v FungibleAssetValue) IsZero() bool {
	return v.Sign() == 0
}

// Add returns v + o
func (v FungibleAssetValue) Add(o FungibleAssetValue) (FungibleAssetValue, error) {
	if !v.Currency.Equal(o.Currency) {
		return v, errors.Wrapf(ErrCurrencyMismatch, "%s + %s", v.Currency, o.Currency)
	}
	return FungibleAssetValue{Currency: v.Currency, Raw: new(big.Int).Add(v.Raw, o.Raw)}, nil
}

// Sub returns v - o
func (v FungibleAssetValue) Sub(o FungibleAssetValue) (FungibleAssetValue, error) {
	if !v.Currency.Equal(o.Currency) {
		return v, errors.Wrapf(ErrCurrencyMismatch, "%s - %s", v.Currency, o.Currency)
	}
	return FungibleAssetValue{Currency: v.Currency, Raw: new(big.Int).Sub(v.Raw, o.Raw)}, nil
}

// Cmp compares the raw amounts of two values of the same currency
func (v FungibleAssetValue) Cmp(o FungibleAssetValue) (int, error) {
	if !v.Currency.Equal(o.Currency) {
		return 0, errors.Wrapf(ErrCurrencyMismatch, "%s <> %s", v.Currency, o.Currency)
	}
	return v.Raw.Cmp(o.Raw), nil
}

// Equal returns true if both currency and amount match
func (v FungibleAssetValue) Equal(o FungibleAssetValue) bool {
	return v.Currency.Equal(o.Currency) && v.Raw.Cmp(o.Raw) == 0
}

// String formats the value with its decimal places, e.g. "12.50 NCG"
func (v FungibleAssetValue) String() string {
	raw := v.Raw
	if raw == nil {
		raw = big.NewInt(0)
	}
	if v.Currency.DecimalPlaces == 0 {
		return fmt.Sprintf("%s %s", raw.String(), v.Currency.Ticker)
	}
	sign := ""
	abs := new(big.Int).Abs(raw)
	if raw.Sign() < 0 {
		sign = "-"
	}
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(v.Currency.DecimalPlaces)), nil)
	q, r := new(big.Int).QuoRem(abs, unit, new(big.Int))
	frac := r.String()
	frac = strings.Repeat("0", int(v.Currency.DecimalPlaces)-len(frac)) + frac
	return fmt.Sprintf("%s%s.%s %s", sign, q.String(), frac, v.Currency.Ticker)
}
