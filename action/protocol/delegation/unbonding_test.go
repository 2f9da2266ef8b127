// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"math/big"
	"testing"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-delegation/test/identityset"
)

func TestUnbondLockIn(t *testing.T) {
	require := require.New(t)

	var (
		v = identityset.Address(0)
		d = identityset.Address(1)
	)
	u := NewUnbondLockIn(v, d, _ncg, 2)
	require.True(u.IsEmpty())
	require.True(address.Equal(UnbondLockInAddress(v, d), u.Address()))
	require.False(address.Equal(RebondGraceAddress(v, d), u.Address()))
	_, ok := u.LowestExpireHeight()
	require.False(ok)

	require.Equal(ErrInvalidCurrency, errors.Cause(u.LockIn(gold(1), 1, 2)))
	require.Equal(ErrInvalidAmount, errors.Cause(u.LockIn(ncg(0), 1, 2)))
	require.Equal(ErrInvalidHeight, errors.Cause(u.LockIn(ncg(1), 2, 2)))
	require.NoError(u.LockIn(ncg(100), 1, 11))
	require.NoError(u.LockIn(ncg(50), 2, 12))
	require.True(u.IsFull())
	require.Equal(ErrMaxEntries, errors.Cause(u.LockIn(ncg(1), 3, 13)))
	require.Equal(2, u.Len())

	h, ok := u.LowestExpireHeight()
	require.True(ok)
	require.Equal(uint64(11), h)
	require.Equal(ncg(150).String(), u.Total().String())
	require.Equal(ncg(150).String(), u.Cancellable(10).String())
	require.Equal(ncg(50).String(), u.Cancellable(11).String())
	require.True(u.Cancellable(12).IsZero())

	buf, err := u.Serialize()
	require.NoError(err)
	u2 := &UnbondLockIn{}
	require.NoError(u2.Deserialize(buf))
	require.True(address.Equal(u.Address(), u2.Address()))
	require.True(address.Equal(d, u2.Delegator()))
	require.Equal(uint32(2), u2.MaxEntries())
	require.Equal(u.Total().String(), u2.Total().String())
	require.Len(u2.Entries(), 2)
	require.Equal(uint64(2), u2.Entries()[1].CreationHeight)

	require.Empty(u.Release(10))
	released := u.Release(11)
	require.Len(released, 1)
	require.Equal(ncg(100).String(), released[0].String())
	require.Equal(1, u.Len())
	require.False(u.IsFull())
}

func TestUnbondLockIn_Cancel(t *testing.T) {
	require := require.New(t)

	u := NewUnbondLockIn(identityset.Address(0), identityset.Address(1), _ncg, 5)
	require.NoError(u.LockIn(ncg(10), 1, 11))
	require.NoError(u.LockIn(ncg(20), 1, 11))
	require.NoError(u.LockIn(ncg(30), 2, 12))

	require.Equal(ErrInsufficientCancellable, errors.Cause(u.Cancel(ncg(61), 5)))
	require.Equal(ErrInvalidAmount, errors.Cause(u.Cancel(ncg(0), 5)))

	// farthest expire first, then the latest entry of a height
	require.NoError(u.Cancel(ncg(35), 5))
	entries := u.Entries()
	require.Len(entries, 2)
	require.Equal(ncg(10).String(), entries[0].LockInFAV.String())
	require.Equal(ncg(15).String(), entries[1].LockInFAV.String())
	require.Equal(ncg(15).String(), entries[1].InitialLockInFAV.String())

	require.NoError(u.Cancel(ncg(25), 5))
	require.True(u.IsEmpty())
}

func TestUnbondLockIn_Slash(t *testing.T) {
	require := require.New(t)

	u := NewUnbondLockIn(identityset.Address(0), identityset.Address(1), _ncg, 10)
	require.NoError(u.LockIn(ncg(101), 5, 15))
	require.NoError(u.LockIn(ncg(10), 8, 18))
	require.NoError(u.LockIn(ncg(3), 1, 4))

	_, err := u.Slash(big.NewInt(0), 6, 7)
	require.Equal(ErrInvalidAmount, errors.Cause(err))
	_, err = u.Slash(big.NewInt(10), 8, 7)
	require.Equal(ErrInvalidHeight, errors.Cause(err))

	// ceil(101 / 10), entries created after the infraction or already matured are spared
	amount, err := u.Slash(big.NewInt(10), 6, 7)
	require.NoError(err)
	require.Equal(ncg(11).String(), amount.String())
	entries := u.Entries()
	require.Equal(ncg(3).String(), entries[0].LockInFAV.String())
	require.Equal(ncg(90).String(), entries[1].LockInFAV.String())
	require.Equal(ncg(101).String(), entries[1].InitialLockInFAV.String())
	require.Equal(ncg(10).String(), entries[2].LockInFAV.String())

	// capped at what is left, an exhausted entry leaves the queue
	amount, err = u.Slash(big.NewInt(1), 6, 7)
	require.NoError(err)
	require.Equal(ncg(90).String(), amount.String())
	require.Equal(2, u.Len())
}

func TestRebondGrace(t *testing.T) {
	require := require.New(t)

	var (
		v  = identityset.Address(0)
		d  = identityset.Address(1)
		v2 = identityset.Address(2)
		v3 = identityset.Address(3)
	)
	g := NewRebondGrace(v, d, _ncg, 3)
	require.True(address.Equal(RebondGraceAddress(v, d), g.Address()))
	require.Equal(ErrInvalidCurrency, errors.Cause(g.Rebond(v2, gold(1), 1, 11)))
	require.NoError(g.Rebond(v2, ncg(100), 1, 11))
	require.NoError(g.Rebond(v3, ncg(30), 2, 12))
	require.NoError(g.Rebond(v2, ncg(20), 3, 13))
	require.True(g.IsFull())
	require.Equal(ErrMaxEntries, errors.Cause(g.Rebond(v3, ncg(1), 4, 14)))

	slashes, err := g.Slash(big.NewInt(10), 3, 4)
	require.NoError(err)
	require.Len(slashes, 2)
	require.True(address.Equal(v2, slashes[0].Unbondee))
	require.Equal(ncg(12).String(), slashes[0].Amount.String())
	require.True(address.Equal(v3, slashes[1].Unbondee))
	require.Equal(ncg(3).String(), slashes[1].Amount.String())
	entries := g.Entries()
	require.Equal(ncg(90).String(), entries[0].GraceFAV.String())
	require.Equal(ncg(27).String(), entries[1].GraceFAV.String())
	require.Equal(ncg(18).String(), entries[2].GraceFAV.String())

	buf, err := g.Serialize()
	require.NoError(err)
	g2 := &RebondGrace{}
	require.NoError(g2.Deserialize(buf))
	require.Equal(3, g2.Len())
	require.True(address.Equal(v3, g2.Entries()[1].UnbondeeAddress))
	require.Equal(ncg(30).String(), g2.Entries()[1].InitialGraceFAV.String())

	released := g.Release(11)
	require.Len(released, 1)
	require.Equal(ncg(90).String(), released[0].String())
	h, ok := g.LowestExpireHeight()
	require.True(ok)
	require.Equal(uint64(12), h)
}

func TestUnbondingSet(t *testing.T) {
	require := require.New(t)

	var (
		v  = identityset.Address(0)
		d1 = identityset.Address(1)
		d2 = identityset.Address(2)
	)
	u1 := NewUnbondLockIn(v, d1, _ncg, 5)
	require.NoError(u1.LockIn(ncg(1), 1, 20))
	u2 := NewUnbondLockIn(v, d2, _ncg, 5)
	require.NoError(u2.LockIn(ncg(1), 1, 10))
	g := NewRebondGrace(v, d1, _ncg, 5)
	require.NoError(g.Rebond(d2, ncg(1), 1, 15))

	set := NewUnbondingSet()
	require.True(set.IsEmpty())
	for _, u := range []Unbonding{u1, u2, g} {
		set.Update(u)
	}
	// an empty queue is never indexed
	set.Update(NewUnbondLockIn(v, identityset.Address(3), _ncg, 5))
	require.Equal(3, set.Len())
	require.Empty(set.Matured(9))
	require.Equal([]UnbondingRef{NewUnbondingRef(u2), NewUnbondingRef(g)}, set.Matured(15))
	require.Equal([]UnbondingRef{NewUnbondingRef(u2), NewUnbondingRef(g), NewUnbondingRef(u1)}, set.Refs())
	require.Len(set.UnbondLockIns(), 2)
	require.Len(set.RebondGraces(), 1)

	buf, err := set.Serialize()
	require.NoError(err)
	set2 := &UnbondingSet{}
	require.NoError(set2.Deserialize(buf))
	refs := set2.Refs()
	require.Len(refs, 3)
	for i, ref := range set.Refs() {
		require.True(address.Equal(ref.Address, refs[i].Address))
		require.Equal(ref.Kind, refs[i].Kind)
		require.True(address.Equal(ref.Delegatee, refs[i].Delegatee))
	}

	// updates re-index by the new lowest expire height
	require.Len(u2.Release(10), 1)
	set.Update(u2)
	require.False(set.Contains(u2.Address()))
	require.NoError(u1.LockIn(ncg(1), 2, 5))
	set.Update(u1)
	require.Equal([]UnbondingRef{NewUnbondingRef(u1)}, set.Matured(5))
	require.Equal(2, set.Len())

	u, err := LoadUnbonding(nil, UnbondingRef{Address: v, Kind: UnbondingKind(9)})
	require.Nil(u)
	require.Equal(ErrInvalidUnbondingRef, errors.Cause(err))
}

func TestUnbondingSet_OfDelegatee(t *testing.T) {
	require := require.New(t)

	var (
		v1 = identityset.Address(0)
		v2 = identityset.Address(4)
		d1 = identityset.Address(1)
		d2 = identityset.Address(2)
	)
	u1 := NewUnbondLockIn(v1, d1, _ncg, 5)
	require.NoError(u1.LockIn(ncg(1), 1, 20))
	u2 := NewUnbondLockIn(v2, d1, _ncg, 5)
	require.NoError(u2.LockIn(ncg(1), 1, 10))
	g := NewRebondGrace(v1, d2, _ncg, 5)
	require.NoError(g.Rebond(v2, ncg(1), 1, 15))

	set := NewUnbondingSet()
	for _, u := range []Unbonding{u1, u2, g} {
		set.Update(u)
	}
	require.Equal([]UnbondingRef{NewUnbondingRef(g), NewUnbondingRef(u1)}, set.OfDelegatee(v1))
	require.Equal([]UnbondingRef{NewUnbondingRef(u2)}, set.OfDelegatee(v2))
	require.Empty(set.OfDelegatee(d1))

	// a drained queue leaves the index of its delegatee
	require.Len(u2.Release(10), 1)
	set.Update(u2)
	require.Empty(set.OfDelegatee(v2))
	require.Len(set.OfDelegatee(v1), 2)

	buf, err := set.Serialize()
	require.NoError(err)
	set2 := &UnbondingSet{}
	require.NoError(set2.Deserialize(buf))
	refs := set2.OfDelegatee(v1)
	require.Len(refs, 2)
	require.True(address.Equal(g.Address(), refs[0].Address))
	require.Equal(RebondGraceKind, refs[0].Kind)
	require.True(address.Equal(v1, refs[1].Delegatee))
	require.Empty(set2.OfDelegatee(v2))
}
