// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package accountutil

import (
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/pkg/util/byteutil"
	"github.com/iotexproject/iotex-delegation/state"
)

// AccountNameSpace is the namespace of balances
const AccountNameSpace = "Account"

// AccountKey returns the state key of the balance of an address in a currency
func AccountKey(addr address.Address, currency state.Currency) []byte {
	return byteutil.BytesConcat(addr.Bytes(), []byte{currency.DecimalPlaces}, []byte(currency.Ticker))
}

// LoadAccount loads an account state, an absent account has zero balance
func LoadAccount(sr protocol.StateReader, addr address.Address, currency state.Currency) (*state.Account, error) {
	account := state.NewAccount()
	_, err := sr.State(
		account,
		protocol.NamespaceOption(AccountNameSpace),
		protocol.KeyOption(AccountKey(addr, currency)),
	)
	switch errors.Cause(err) {
	case nil:
		return account, nil
	case state.ErrStateNotExist:
		return state.NewAccount(), nil
	default:
		return nil, errors.Wrapf(err, "failed to load account of %s", addr.String())
	}
}

// StoreAccount puts updated account state, an empty account is deleted
func StoreAccount(sm protocol.StateManager, addr address.Address, currency state.Currency, account *state.Account) error {
	opts := []protocol.StateOption{
		protocol.NamespaceOption(AccountNameSpace),
		protocol.KeyOption(AccountKey(addr, currency)),
	}
	var err error
	if account.Balance.Sign() == 0 {
		_, err = sm.DelState(opts...)
	} else {
		_, err = sm.PutState(account, opts...)
	}
	return errors.Wrapf(err, "failed to store account of %s", addr.String())
}
