// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-delegation/state"
)

type (
	// UnbondLockInEntry is a withdrawal waiting for its expire height
	UnbondLockInEntry struct {
		InitialLockInFAV state.FungibleAssetValue
		LockInFAV        state.FungibleAssetValue
		CreationHeight   uint64
		ExpireHeight     uint64
	}

	// UnbondLockIn is the queue of withdrawals of a delegator from a delegatee
	UnbondLockIn struct {
		address    address.Address
		delegatee  address.Address
		delegator  address.Address
		currency   state.Currency
		maxEntries uint32
		queue      *maturityQueue[*UnbondLockInEntry]
	}

	unbondLockInStore struct {
		Delegatee  []byte
		Delegator  []byte
		Currency   state.Currency
		MaxEntries uint32
		Entries    []*UnbondLockInEntry
	}
)

// NewUnbondLockIn creates an empty lock-in queue
func NewUnbondLockIn(delegatee, delegator address.Address, currency state.Currency, maxEntries uint32) *UnbondLockIn {
	return &UnbondLockIn{
		address:    UnbondLockInAddress(delegatee, delegator),
		delegatee:  delegatee,
		delegator:  delegator,
		currency:   currency,
		maxEntries: maxEntries,
		queue:      newMaturityQueue[*UnbondLockInEntry](),
	}
}

// Address returns the address of the queue
func (u *UnbondLockIn) Address() address.Address { return u.address }

// Kind returns UnbondLockInKind
func (u *UnbondLockIn) Kind() UnbondingKind { return UnbondLockInKind }

// Delegatee returns the delegatee the value is withdrawn from
func (u *UnbondLockIn) Delegatee() address.Address { return u.delegatee }

// Delegator returns the owner of the withdrawals
func (u *UnbondLockIn) Delegator() address.Address { return u.delegator }

// MaxEntries returns the capacity of the queue
func (u *UnbondLockIn) MaxEntries() uint32 { return u.maxEntries }

// SetMaxEntries applies the current capacity of the delegatee
func (u *UnbondLockIn) SetMaxEntries(maxEntries uint32) { u.maxEntries = maxEntries }

// Len returns the number of entries
func (u *UnbondLockIn) Len() int { return u.queue.Len() }

// IsEmpty returns true if the queue holds no entry
func (u *UnbondLockIn) IsEmpty() bool { return u.queue.Len() == 0 }

// IsFull returns true if no entry can be added
func (u *UnbondLockIn) IsFull() bool { return u.queue.Len() >= int(u.maxEntries) }

// LowestExpireHeight returns the earliest expire height
func (u *UnbondLockIn) LowestExpireHeight() (uint64, bool) { return u.queue.lowest() }

// Entries returns the entries, earliest expire first
func (u *UnbondLockIn) Entries() []*UnbondLockInEntry { return u.queue.all() }

// Total returns the value still locked in
func (u *UnbondLockIn) Total() state.FungibleAssetValue {
	total := new(big.Int)
	u.queue.ascend(func(_ uint64, e *UnbondLockInEntry) bool {
		total.Add(total, e.LockInFAV.Raw)
		return true
	})
	return u.currency.Raw(total)
}

// Cancellable returns the value of the entries not matured at height
func (u *UnbondLockIn) Cancellable(height uint64) state.FungibleAssetValue {
	total := new(big.Int)
	u.queue.descend(func(expire uint64, e *UnbondLockInEntry) bool {
		if expire <= height {
			return false
		}
		total.Add(total, e.LockInFAV.Raw)
		return true
	})
	return u.currency.Raw(total)
}

// LockIn adds an entry locking fav from creation to expire
func (u *UnbondLockIn) LockIn(fav state.FungibleAssetValue, creation, expire uint64) error {
	if !fav.Currency.Equal(u.currency) {
		return errors.Wrapf(ErrInvalidCurrency, "lock-in currency %s, required %s", fav.Currency, u.currency)
	}
	if fav.Sign() <= 0 {
		return errors.Wrapf(ErrInvalidAmount, "lock-in amount %s", fav)
	}
	if expire <= creation {
		return errors.Wrapf(ErrInvalidHeight, "expire height %d is not after creation height %d", expire, creation)
	}
	if u.IsFull() {
		return errors.Wrapf(ErrMaxEntries, "lock-in queue of %s holds %d entries", u.delegator.String(), u.queue.Len())
	}
	u.queue.push(expire, &UnbondLockInEntry{
		InitialLockInFAV: fav.Clone(),
		LockInFAV:        fav.Clone(),
		CreationHeight:   creation,
		ExpireHeight:     expire,
	})
	return nil
}

// Cancel takes fav back from the entries not matured at height, farthest expire and latest created first
func (u *UnbondLockIn) Cancel(fav state.FungibleAssetValue, height uint64) error {
	if !fav.Currency.Equal(u.currency) {
		return errors.Wrapf(ErrInvalidCurrency, "cancel currency %s, required %s", fav.Currency, u.currency)
	}
	if fav.Sign() <= 0 {
		return errors.Wrapf(ErrInvalidAmount, "cancel amount %s", fav)
	}
	if cancellable := u.Cancellable(height); cancellable.Raw.Cmp(fav.Raw) < 0 {
		return errors.Wrapf(ErrInsufficientCancellable, "cancellable %s, required %s", cancellable, fav)
	}
	var (
		remaining = new(big.Int).Set(fav.Raw)
		consumed  = make(map[*UnbondLockInEntry]struct{})
	)
	u.queue.descend(func(_ uint64, e *UnbondLockInEntry) bool {
		if e.LockInFAV.Raw.Cmp(remaining) <= 0 {
			remaining.Sub(remaining, e.LockInFAV.Raw)
			consumed[e] = struct{}{}
		} else {
			e.InitialLockInFAV.Raw.Sub(e.InitialLockInFAV.Raw, remaining)
			e.LockInFAV.Raw.Sub(e.LockInFAV.Raw, remaining)
			remaining.SetInt64(0)
		}
		return remaining.Sign() > 0
	})
	u.queue.removeIf(func(e *UnbondLockInEntry) bool {
		_, ok := consumed[e]
		return ok
	})
	return nil
}

// Release removes the entries matured at height and returns their values
func (u *UnbondLockIn) Release(height uint64) []state.FungibleAssetValue {
	matured := u.queue.popMatured(height)
	released := make([]state.FungibleAssetValue, 0, len(matured))
	for _, e := range matured {
		released = append(released, e.LockInFAV.Clone())
	}
	return released
}

// Slash seizes ceil(initial / slashFactor) from every pending entry covering the infraction and returns the total
func (u *UnbondLockIn) Slash(slashFactor *big.Int, infractionHeight, height uint64) (state.FungibleAssetValue, error) {
	if err := validateSlash(slashFactor, infractionHeight, height); err != nil {
		return u.currency.Zero(), err
	}
	total := new(big.Int)
	u.queue.ascend(func(_ uint64, e *UnbondLockInEntry) bool {
		if !slashable(e.CreationHeight, e.ExpireHeight, infractionHeight, height) {
			return true
		}
		amount := slashAmount(e.InitialLockInFAV.Raw, e.LockInFAV.Raw, slashFactor)
		e.LockInFAV.Raw.Sub(e.LockInFAV.Raw, amount)
		total.Add(total, amount)
		return true
	})
	u.queue.removeIf(func(e *UnbondLockInEntry) bool {
		return e.LockInFAV.Sign() == 0
	})
	return u.currency.Raw(total), nil
}

// Serialize serializes the queue into bytes
func (u *UnbondLockIn) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(&unbondLockInStore{
		Delegatee:  u.delegatee.Bytes(),
		Delegator:  u.delegator.Bytes(),
		Currency:   u.currency,
		MaxEntries: u.maxEntries,
		Entries:    u.queue.all(),
	})
}

// Deserialize deserializes bytes into the queue
func (u *UnbondLockIn) Deserialize(buf []byte) error {
	var s unbondLockInStore
	if err := rlp.DecodeBytes(buf, &s); err != nil {
		return err
	}
	delegatee, err := address.FromBytes(s.Delegatee)
	if err != nil {
		return errors.Wrap(err, "failed to decode delegatee of lock-in")
	}
	delegator, err := address.FromBytes(s.Delegator)
	if err != nil {
		return errors.Wrap(err, "failed to decode delegator of lock-in")
	}
	*u = *NewUnbondLockIn(delegatee, delegator, s.Currency, s.MaxEntries)
	for _, e := range s.Entries {
		u.queue.push(e.ExpireHeight, e)
	}
	return nil
}
