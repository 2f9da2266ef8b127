// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-delegation/state"
)

// ErrorKind classifies the errors returned by the ledger
type ErrorKind uint8

const (
	// KindUnknown is an error not raised by the ledger rules, e.g. a storage failure
	KindUnknown ErrorKind = iota
	// KindValidation is a rejected input
	KindValidation
	// KindCapacity is a full unbonding queue
	KindCapacity
	// KindInvariant is an operation that would break the share accounting
	KindInvariant
)

var (
	// ErrInvalidCurrency is the error that an amount is not in the currency the delegatee accepts
	ErrInvalidCurrency = errors.New("invalid currency")
	// ErrInvalidAmount is the error that an amount or a share is not positive
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidHeight is the error that a height is out of the accepted range
	ErrInvalidHeight = errors.New("invalid height")
	// ErrInvalidPolicy is the error that a delegatee policy is malformed
	ErrInvalidPolicy = errors.New("invalid delegatee policy")
	// ErrNullDelegatee is the error that a delegatee has never been registered
	ErrNullDelegatee = errors.New("delegatee does not exist")
	// ErrNullDelegator is the error that a delegator has nothing bonded or pending
	ErrNullDelegator = errors.New("delegator does not exist")
	// ErrDelegateeExists is the error that a delegatee is registered twice
	ErrDelegateeExists = errors.New("delegatee already exists")
	// ErrSelfRedelegation is the error that a redelegation has the same source and destination
	ErrSelfRedelegation = errors.New("cannot redelegate to the same delegatee")
	// ErrJailed is the error that a jailed delegatee is asked to take delegation or to leave jail early
	ErrJailed = errors.New("delegatee is jailed")
	// ErrTombstoned is the error that a tombstoned delegatee is asked to leave jail
	ErrTombstoned = errors.New("delegatee is tombstoned")

	// ErrMaxEntries is the error that an unbonding queue is full
	ErrMaxEntries = errors.New("too many unbonding entries")

	// ErrInsufficientShare is the error that more shares are redeemed than held
	ErrInsufficientShare = errors.New("insufficient share")
	// ErrInsufficientCancellable is the error that more value is cancelled than pending
	ErrInsufficientCancellable = errors.New("insufficient cancellable unbonding")
	// ErrInvalidExchangeRate is the error that a delegatee has shares but no delegated value
	ErrInvalidExchangeRate = errors.New("invalid exchange rate")
	// ErrUnknownCurrency is the error that a reward base does not track a currency
	ErrUnknownCurrency = errors.New("currency is not tracked")
	// ErrInvalidRewardBase is the error that a reward base snapshot is ahead of the current reward base
	ErrInvalidRewardBase = errors.New("invalid reward base")
	// ErrInvalidUnbondingRef is the error that an unbonding reference points to nothing or to the wrong kind
	ErrInvalidUnbondingRef = errors.New("invalid unbonding reference")
)

// Kind returns the kind of err
func Kind(err error) ErrorKind {
	switch errors.Cause(err) {
	case ErrInvalidCurrency,
		ErrInvalidAmount,
		ErrInvalidHeight,
		ErrInvalidPolicy,
		ErrNullDelegatee,
		ErrNullDelegator,
		ErrDelegateeExists,
		ErrSelfRedelegation,
		ErrJailed,
		ErrTombstoned,
		state.ErrNotEnoughBalance,
		state.ErrCurrencyMismatch,
		state.ErrInvalidAmount:
		return KindValidation
	case ErrMaxEntries:
		return KindCapacity
	case ErrInsufficientShare,
		ErrInsufficientCancellable,
		ErrInvalidExchangeRate,
		ErrUnknownCurrency,
		ErrInvalidRewardBase,
		ErrInvalidUnbondingRef:
		return KindInvariant
	default:
		return KindUnknown
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindCapacity:
		return "capacity"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}
