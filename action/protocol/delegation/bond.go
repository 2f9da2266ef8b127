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
)

type (
	// Bond is the share a delegator holds on a delegatee
	Bond struct {
		address              address.Address
		delegatee            address.Address
		delegator            address.Address
		share                *big.Int
		lastDistributeHeight uint64
	}

	bondStore struct {
		Share                *big.Int
		LastDistributeHeight uint64
	}
)

// NewBond creates an empty bond of delegator on delegatee
func NewBond(delegatee, delegator address.Address) *Bond {
	return &Bond{
		address:   BondAddress(delegatee, delegator),
		delegatee: delegatee,
		delegator: delegator,
		share:     big.NewInt(0),
	}
}

// Address returns the address of the bond
func (b *Bond) Address() address.Address { return b.address }

// Delegatee returns the delegatee of the bond
func (b *Bond) Delegatee() address.Address { return b.delegatee }

// Delegator returns the delegator of the bond
func (b *Bond) Delegator() address.Address { return b.delegator }

// Share returns a copy of the share
func (b *Bond) Share() *big.Int { return new(big.Int).Set(b.share) }

// LastDistributeHeight returns the height rewards were last paid for the bond
func (b *Bond) LastDistributeHeight() uint64 { return b.lastDistributeHeight }

// IsEmpty returns true if the bond holds no share
func (b *Bond) IsEmpty() bool { return b.share.Sign() == 0 }

// AddShare adds share to the bond
func (b *Bond) AddShare(share *big.Int) error {
	if share == nil || share.Sign() < 0 {
		return errors.Wrapf(ErrInvalidAmount, "cannot add share %v", share)
	}
	b.share.Add(b.share, share)
	return nil
}

// SubtractShare removes share from the bond
func (b *Bond) SubtractShare(share *big.Int) error {
	if share == nil || share.Sign() < 0 {
		return errors.Wrapf(ErrInvalidAmount, "cannot subtract share %v", share)
	}
	if b.share.Cmp(share) < 0 {
		return errors.Wrapf(ErrInsufficientShare, "bond share %s, required %s", b.share, share)
	}
	b.share.Sub(b.share, share)
	return nil
}

// UpdateLastDistributeHeight moves the last distribution height forward
func (b *Bond) UpdateLastDistributeHeight(height uint64) error {
	if height < b.lastDistributeHeight {
		return errors.Wrapf(ErrInvalidHeight, "last distribute height %d, new height %d", b.lastDistributeHeight, height)
	}
	b.lastDistributeHeight = height
	return nil
}

// Serialize serializes the bond into bytes
func (b *Bond) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(&bondStore{
		Share:                b.share,
		LastDistributeHeight: b.lastDistributeHeight,
	})
}

// Deserialize deserializes bytes into the bond
func (b *Bond) Deserialize(buf []byte) error {
	var s bondStore
	if err := rlp.DecodeBytes(buf, &s); err != nil {
		return err
	}
	b.share = s.Share
	if b.share == nil {
		b.share = big.NewInt(0)
	}
	b.lastDistributeHeight = s.LastDistributeHeight
	return nil
}
