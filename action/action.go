// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

var (
	// ErrAddress indicates error of address
	ErrAddress = errors.New("invalid address")
	// ErrInvalidAmount indicates error of amount
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidSender indicates error of sender
	ErrInvalidSender = errors.New("invalid sender")
	// ErrInvalidAct indicates error of action
	ErrInvalidAct = errors.New("invalid action")
	// ErrInvalidHeight indicates error of height
	ErrInvalidHeight = errors.New("invalid height")
	// ErrSameDelegatee indicates a redelegation into the source delegatee
	ErrSameDelegatee = errors.New("source and destination delegatee are the same")
	// ErrInvalidTicker indicates an empty currency ticker
	ErrInvalidTicker = errors.New("invalid currency ticker")
)

type (
	// Action is the action can be Executed in protocols. The method is added to avoid mistakenly used empty interface as action.
	Action interface {
		SanityCheck() error
	}

	// encodable is implemented by every action that can be sealed in an envelope
	encodable interface {
		Action
		actionType() uint8
		payload() []interface{}
	}
)

const (
	registerDelegateeType uint8 = iota + 1
	delegateType
	undelegateType
	redelegateType
	cancelUnbondingType
	claimRewardType
	allocateRewardType
	jailType
	unjailType
	tombstoneType
	slashType
	transferType
	mintType
)

func parseAmount(amount string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidAmount, "amount %s", amount)
	}
	return v, nil
}

func checkPositive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.Wrap(ErrInvalidAmount, "non-positive value")
	}
	return nil
}

func checkAddress(addr string) error {
	if _, err := address.FromString(addr); err != nil {
		return errors.Wrapf(ErrAddress, "%s: %v", addr, err)
	}
	return nil
}
