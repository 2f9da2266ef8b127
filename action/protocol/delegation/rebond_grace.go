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
	// RebondGraceEntry is value moved to another delegatee that can still be clawed back
	RebondGraceEntry struct {
		UnbondeeAddress address.Address
		InitialGraceFAV state.FungibleAssetValue
		GraceFAV        state.FungibleAssetValue
		CreationHeight  uint64
		ExpireHeight    uint64
	}

	// GraceSlash is the value clawed back from one destination delegatee
	GraceSlash struct {
		Unbondee address.Address
		Amount   state.FungibleAssetValue
	}

	// RebondGrace is the queue of redelegations of a delegator leaving a delegatee
	RebondGrace struct {
		address    address.Address
		delegatee  address.Address
		delegator  address.Address
		currency   state.Currency
		maxEntries uint32
		queue      *maturityQueue[*RebondGraceEntry]
	}

	rebondGraceEntryStore struct {
		Unbondee        []byte
		InitialGraceFAV state.FungibleAssetValue
		GraceFAV        state.FungibleAssetValue
		CreationHeight  uint64
		ExpireHeight    uint64
	}

	rebondGraceStore struct {
		Delegatee  []byte
		Delegator  []byte
		Currency   state.Currency
		MaxEntries uint32
		Entries    []*rebondGraceEntryStore
	}
)

// NewRebondGrace creates an empty rebond grace queue
func NewRebondGrace(delegatee, delegator address.Address, currency state.Currency, maxEntries uint32) *RebondGrace {
	return &RebondGrace{
		address:    RebondGraceAddress(delegatee, delegator),
		delegatee:  delegatee,
		delegator:  delegator,
		currency:   currency,
		maxEntries: maxEntries,
		queue:      newMaturityQueue[*RebondGraceEntry](),
	}
}

// Address returns the address of the queue
func (g *RebondGrace) Address() address.Address { return g.address }

// Kind returns RebondGraceKind
func (g *RebondGrace) Kind() UnbondingKind { return RebondGraceKind }

// Delegatee returns the delegatee the value left
func (g *RebondGrace) Delegatee() address.Address { return g.delegatee }

// Delegator returns the owner of the redelegations
func (g *RebondGrace) Delegator() address.Address { return g.delegator }

// MaxEntries returns the capacity of the queue
func (g *RebondGrace) MaxEntries() uint32 { return g.maxEntries }

// SetMaxEntries applies the current capacity of the delegatee
func (g *RebondGrace) SetMaxEntries(maxEntries uint32) { g.maxEntries = maxEntries }

// Len returns the number of entries
func (g *RebondGrace) Len() int { return g.queue.Len() }

// IsEmpty returns true if the queue holds no entry
func (g *RebondGrace) IsEmpty() bool { return g.queue.Len() == 0 }

// IsFull returns true if no entry can be added
func (g *RebondGrace) IsFull() bool { return g.queue.Len() >= int(g.maxEntries) }

// LowestExpireHeight returns the earliest expire height
func (g *RebondGrace) LowestExpireHeight() (uint64, bool) { return g.queue.lowest() }

// Entries returns the entries, earliest expire first
func (g *RebondGrace) Entries() []*RebondGraceEntry { return g.queue.all() }

// Rebond records fav moved to unbondee at creation, clawback-eligible until expire
func (g *RebondGrace) Rebond(unbondee address.Address, fav state.FungibleAssetValue, creation, expire uint64) error {
	if !fav.Currency.Equal(g.currency) {
		return errors.Wrapf(ErrInvalidCurrency, "grace currency %s, required %s", fav.Currency, g.currency)
	}
	if fav.Sign() <= 0 {
		return errors.Wrapf(ErrInvalidAmount, "grace amount %s", fav)
	}
	if expire <= creation {
		return errors.Wrapf(ErrInvalidHeight, "expire height %d is not after creation height %d", expire, creation)
	}
	if g.IsFull() {
		return errors.Wrapf(ErrMaxEntries, "rebond grace queue of %s holds %d entries", g.delegator.String(), g.queue.Len())
	}
	g.queue.push(expire, &RebondGraceEntry{
		UnbondeeAddress: unbondee,
		InitialGraceFAV: fav.Clone(),
		GraceFAV:        fav.Clone(),
		CreationHeight:  creation,
		ExpireHeight:    expire,
	})
	return nil
}

// Release removes the entries matured at height, the value stays with the destination delegatee
func (g *RebondGrace) Release(height uint64) []state.FungibleAssetValue {
	matured := g.queue.popMatured(height)
	released := make([]state.FungibleAssetValue, 0, len(matured))
	for _, e := range matured {
		released = append(released, e.GraceFAV.Clone())
	}
	return released
}

// Slash seizes ceil(initial / slashFactor) from every pending entry covering the infraction, grouped by
// destination delegatee in the order they are first met
func (g *RebondGrace) Slash(slashFactor *big.Int, infractionHeight, height uint64) ([]GraceSlash, error) {
	if err := validateSlash(slashFactor, infractionHeight, height); err != nil {
		return nil, err
	}
	var (
		slashes []GraceSlash
		index   = make(map[string]int)
	)
	g.queue.ascend(func(_ uint64, e *RebondGraceEntry) bool {
		if !slashable(e.CreationHeight, e.ExpireHeight, infractionHeight, height) {
			return true
		}
		amount := slashAmount(e.InitialGraceFAV.Raw, e.GraceFAV.Raw, slashFactor)
		e.GraceFAV.Raw.Sub(e.GraceFAV.Raw, amount)
		key := e.UnbondeeAddress.String()
		i, ok := index[key]
		if !ok {
			i = len(slashes)
			index[key] = i
			slashes = append(slashes, GraceSlash{Unbondee: e.UnbondeeAddress, Amount: g.currency.Zero()})
		}
		slashes[i].Amount.Raw.Add(slashes[i].Amount.Raw, amount)
		return true
	})
	g.queue.removeIf(func(e *RebondGraceEntry) bool {
		return e.GraceFAV.Sign() == 0
	})
	return slashes, nil
}

// Serialize serializes the queue into bytes
func (g *RebondGrace) Serialize() ([]byte, error) {
	entries := g.queue.all()
	s := &rebondGraceStore{
		Delegatee:  g.delegatee.Bytes(),
		Delegator:  g.delegator.Bytes(),
		Currency:   g.currency,
		MaxEntries: g.maxEntries,
		Entries:    make([]*rebondGraceEntryStore, 0, len(entries)),
	}
	for _, e := range entries {
		s.Entries = append(s.Entries, &rebondGraceEntryStore{
			Unbondee:        e.UnbondeeAddress.Bytes(),
			InitialGraceFAV: e.InitialGraceFAV,
			GraceFAV:        e.GraceFAV,
			CreationHeight:  e.CreationHeight,
			ExpireHeight:    e.ExpireHeight,
		})
	}
	return rlp.EncodeToBytes(s)
}

// Deserialize deserializes bytes into the queue
func (g *RebondGrace) Deserialize(buf []byte) error {
	var s rebondGraceStore
	if err := rlp.DecodeBytes(buf, &s); err != nil {
		return err
	}
	delegatee, err := address.FromBytes(s.Delegatee)
	if err != nil {
		return errors.Wrap(err, "failed to decode delegatee of rebond grace")
	}
	delegator, err := address.FromBytes(s.Delegator)
	if err != nil {
		return errors.Wrap(err, "failed to decode delegator of rebond grace")
	}
	*g = *NewRebondGrace(delegatee, delegator, s.Currency, s.MaxEntries)
	for _, e := range s.Entries {
		unbondee, err := address.FromBytes(e.Unbondee)
		if err != nil {
			return errors.Wrap(err, "failed to decode unbondee of rebond grace")
		}
		g.queue.push(e.ExpireHeight, &RebondGraceEntry{
			UnbondeeAddress: unbondee,
			InitialGraceFAV: e.InitialGraceFAV,
			GraceFAV:        e.GraceFAV,
			CreationHeight:  e.CreationHeight,
			ExpireHeight:    e.ExpireHeight,
		})
	}
	return nil
}
