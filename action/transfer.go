// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"
)

// Transfer moves an amount of a currency to a recipient
type Transfer struct {
	recipient string
	ticker    string
	amount    *big.Int
}

// NewTransfer returns a Transfer instance
func NewTransfer(recipient, ticker, amount string) (*Transfer, error) {
	v, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	return &Transfer{
		recipient: recipient,
		ticker:    ticker,
		amount:    v,
	}, nil
}

// Recipient returns the recipient address
func (tsf *Transfer) Recipient() string { return tsf.recipient }

// Ticker returns the currency ticker
func (tsf *Transfer) Ticker() string { return tsf.ticker }

// Amount returns the amount
func (tsf *Transfer) Amount() *big.Int { return tsf.amount }

// SanityCheck validates the variables in the action
func (tsf *Transfer) SanityCheck() error {
	if err := checkPositive(tsf.amount); err != nil {
		return err
	}
	if tsf.ticker == "" {
		return ErrInvalidTicker
	}
	return checkAddress(tsf.recipient)
}

func (tsf *Transfer) actionType() uint8 { return transferType }

func (tsf *Transfer) payload() []interface{} {
	return []interface{}{tsf.recipient, tsf.ticker, tsf.amount}
}

// Mint creates an amount of a currency for a recipient, only the operator may mint
type Mint struct {
	recipient string
	ticker    string
	amount    *big.Int
}

// NewMint returns a Mint instance
func NewMint(recipient, ticker, amount string) (*Mint, error) {
	v, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	return &Mint{
		recipient: recipient,
		ticker:    ticker,
		amount:    v,
	}, nil
}

// Recipient returns the recipient address
func (m *Mint) Recipient() string { return m.recipient }

// Ticker returns the currency ticker
func (m *Mint) Ticker() string { return m.ticker }

// Amount returns the amount
func (m *Mint) Amount() *big.Int { return m.amount }

// SanityCheck validates the variables in the action
func (m *Mint) SanityCheck() error {
	if err := checkPositive(m.amount); err != nil {
		return err
	}
	if m.ticker == "" {
		return ErrInvalidTicker
	}
	return checkAddress(m.recipient)
}

func (m *Mint) actionType() uint8 { return mintType }

func (m *Mint) payload() []interface{} { return []interface{}{m.recipient, m.ticker, m.amount} }
