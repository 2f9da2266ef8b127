// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package account

import (
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-delegation/action/protocol"
	accountutil "github.com/iotexproject/iotex-delegation/action/protocol/account/util"
	"github.com/iotexproject/iotex-delegation/state"
)

// Transferer moves fungible balances between addresses inside a state manager, every call is all-or-nothing
type Transferer struct {
	sm protocol.StateManager
}

// NewTransferer creates a transferer on top of the state manager
func NewTransferer(sm protocol.StateManager) *Transferer {
	return &Transferer{sm: sm}
}

// TransferAsset moves amount from sender to recipient
func (t *Transferer) TransferAsset(sender, recipient address.Address, amount state.FungibleAssetValue) error {
	if amount.Sign() < 0 {
		return errors.Wrapf(state.ErrInvalidAmount, "transfer amount %s", amount)
	}
	if amount.IsZero() || address.Equal(sender, recipient) {
		return nil
	}
	from, err := accountutil.LoadAccount(t.sm, sender, amount.Currency)
	if err != nil {
		return err
	}
	if err := from.SubBalance(amount.Raw); err != nil {
		return errors.Wrapf(
			err,
			"sender %s balance %s, required amount %s",
			sender.String(),
			from.Balance,
			amount,
		)
	}
	to, err := accountutil.LoadAccount(t.sm, recipient, amount.Currency)
	if err != nil {
		return err
	}
	if err := to.AddBalance(amount.Raw); err != nil {
		return err
	}
	if err := accountutil.StoreAccount(t.sm, sender, amount.Currency, from); err != nil {
		return err
	}
	return accountutil.StoreAccount(t.sm, recipient, amount.Currency, to)
}

// MintAsset creates amount for recipient
func (t *Transferer) MintAsset(recipient address.Address, amount state.FungibleAssetValue) error {
	if amount.Sign() < 0 {
		return errors.Wrapf(state.ErrInvalidAmount, "mint amount %s", amount)
	}
	to, err := accountutil.LoadAccount(t.sm, recipient, amount.Currency)
	if err != nil {
		return err
	}
	if err := to.AddBalance(amount.Raw); err != nil {
		return err
	}
	return accountutil.StoreAccount(t.sm, recipient, amount.Currency, to)
}

// BurnAsset destroys amount owned by owner
func (t *Transferer) BurnAsset(owner address.Address, amount state.FungibleAssetValue) error {
	if amount.Sign() < 0 {
		return errors.Wrapf(state.ErrInvalidAmount, "burn amount %s", amount)
	}
	from, err := accountutil.LoadAccount(t.sm, owner, amount.Currency)
	if err != nil {
		return err
	}
	if err := from.SubBalance(amount.Raw); err != nil {
		return errors.Wrapf(err, "owner %s balance %s, burn amount %s", owner.String(), from.Balance, amount)
	}
	return accountutil.StoreAccount(t.sm, owner, amount.Currency, from)
}

// GetBalance returns the balance of addr in currency
func (t *Transferer) GetBalance(addr address.Address, currency state.Currency) (state.FungibleAssetValue, error) {
	return Balance(t.sm, addr, currency)
}

// Balance reads the balance of addr in currency
func Balance(sr protocol.StateReader, addr address.Address, currency state.Currency) (state.FungibleAssetValue, error) {
	acct, err := accountutil.LoadAccount(sr, addr, currency)
	if err != nil {
		return currency.Zero(), err
	}
	return currency.Raw(acct.Balance), nil
}

// BalanceReader reads balances from a state reader
type BalanceReader struct {
	sr protocol.StateReader
}

// NewBalanceReader creates a balance reader on top of the state reader
func NewBalanceReader(sr protocol.StateReader) *BalanceReader {
	return &BalanceReader{sr: sr}
}

// GetBalance returns the balance of addr in currency
func (r *BalanceReader) GetBalance(addr address.Address, currency state.Currency) (state.FungibleAssetValue, error) {
	return Balance(r.sr, addr, currency)
}
