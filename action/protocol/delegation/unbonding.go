// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-delegation/state"
)

// UnbondingKind tells which queue an unbonding reference points to
type UnbondingKind uint8

const (
	// UnbondLockInKind is the kind of UnbondLockIn
	UnbondLockInKind UnbondingKind = iota + 1
	// RebondGraceKind is the kind of RebondGrace
	RebondGraceKind
)

type (
	// Unbonding is a queue of entries maturing at given heights
	Unbonding interface {
		Address() address.Address
		Kind() UnbondingKind
		Delegatee() address.Address
		Delegator() address.Address
		IsEmpty() bool
		LowestExpireHeight() (uint64, bool)
		// Release removes the entries matured at height and returns their remaining values
		Release(uint64) []state.FungibleAssetValue
	}

	// UnbondingRef points to an unbonding queue
	UnbondingRef struct {
		Address   address.Address
		Kind      UnbondingKind
		Delegatee address.Address
	}
)

func (k UnbondingKind) String() string {
	switch k {
	case UnbondLockInKind:
		return "UnbondLockIn"
	case RebondGraceKind:
		return "RebondGrace"
	default:
		return "Unknown"
	}
}

// NewUnbondingRef returns the reference of an unbonding queue
func NewUnbondingRef(u Unbonding) UnbondingRef {
	return UnbondingRef{Address: u.Address(), Kind: u.Kind(), Delegatee: u.Delegatee()}
}

// LoadUnbonding loads the queue a reference points to
func LoadUnbonding(repo *Repository, ref UnbondingRef) (Unbonding, error) {
	switch ref.Kind {
	case UnbondLockInKind:
		u, err := repo.GetUnbondLockInByAddress(ref.Address)
		if err != nil {
			return nil, err
		}
		return u, nil
	case RebondGraceKind:
		u, err := repo.GetRebondGraceByAddress(ref.Address)
		if err != nil {
			return nil, err
		}
		return u, nil
	default:
		return nil, errors.Wrapf(ErrInvalidUnbondingRef, "unknown kind %d of %s", ref.Kind, ref.Address.String())
	}
}

// slashAmount returns ceil(initial / slashFactor), capped at remaining
func slashAmount(initial, remaining, slashFactor *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(initial, slashFactor, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if q.Cmp(remaining) > 0 {
		q.Set(remaining)
	}
	return q
}

func validateSlash(slashFactor *big.Int, infractionHeight, height uint64) error {
	if slashFactor == nil || slashFactor.Sign() <= 0 {
		return errors.Wrapf(ErrInvalidAmount, "slash factor %v", slashFactor)
	}
	if infractionHeight > height {
		return errors.Wrapf(ErrInvalidHeight, "infraction height %d is after height %d", infractionHeight, height)
	}
	return nil
}

// slashable returns true if an entry created at creation and expiring at expire is still pending at height and
// covers the infraction
func slashable(creation, expire, infractionHeight, height uint64) bool {
	return expire > height && creation <= infractionHeight && infractionHeight <= expire
}
