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

// Delegator is the metadata of a delegator bound to the repository it is stored in
type Delegator struct {
	*DelegatorMetadata
	repo *Repository
}

// GetDelegator loads a delegator, creating its metadata on first reference
func (r *Repository) GetDelegator(addr address.Address) (*Delegator, error) {
	m, err := r.GetOrCreateDelegatorMetadata(addr)
	if err != nil {
		return nil, err
	}
	return &Delegator{DelegatorMetadata: m, repo: r}, nil
}

// Metadata returns the metadata of the delegator
func (d *Delegator) Metadata() *DelegatorMetadata { return d.DelegatorMetadata }

// Delegate moves fav from the delegator into the delegation pool of delegatee and mints the shares it buys
func (d *Delegator) Delegate(delegatee *Delegatee, fav state.FungibleAssetValue, height uint64) (*DelegateResult, error) {
	if fav.Sign() <= 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "delegate amount %s", fav)
	}
	if delegatee.IsJailed() {
		return nil, errors.Wrapf(ErrJailed, "delegatee %s", delegatee.Address().String())
	}
	share, err := delegatee.ShareFromFAV(fav)
	if err != nil {
		return nil, err
	}
	if share.Sign() == 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "%s buys no share", fav)
	}
	s, err := newDelegation(d.repo, delegatee, d)
	if err != nil {
		return nil, err
	}
	if err := d.repo.TransferAsset(d.DelegationPoolAddress(), delegatee.DelegationPoolAddress(), fav); err != nil {
		return nil, err
	}
	minted, rewards, err := delegatee.bond(s.bond, fav, height)
	if err != nil {
		return nil, err
	}
	if err := s.Commit(); err != nil {
		return nil, err
	}
	return &DelegateResult{
		Delegatee: delegatee.DelegateeMetadata,
		Delegator: d.DelegatorMetadata,
		Amount:    fav.Clone(),
		Share:     minted,
		Rewards:   rewards,
	}, nil
}

// Undelegate redeems share from delegatee and locks the redeemed value in until the unbonding period passes
func (d *Delegator) Undelegate(delegatee *Delegatee, share *big.Int, height uint64) (*UndelegateResult, error) {
	if share == nil || share.Sign() <= 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "undelegate share %v", share)
	}
	s, err := newDelegation(d.repo, delegatee, d)
	if err != nil {
		return nil, err
	}
	if s.lockIn.IsFull() {
		return nil, errors.Wrapf(ErrMaxEntries, "%d pending lock-ins on %s", s.lockIn.Len(), delegatee.Address().String())
	}
	fav, rewards, err := delegatee.unbond(s.bond, share, height)
	if err != nil {
		return nil, err
	}
	expire := height + delegatee.UnbondingPeriod()
	if fav.Sign() > 0 {
		if err := s.lockIn.LockIn(fav, height, expire); err != nil {
			return nil, err
		}
	}
	if err := s.Commit(); err != nil {
		return nil, err
	}
	return &UndelegateResult{
		Delegatee:    delegatee.DelegateeMetadata,
		Delegator:    d.DelegatorMetadata,
		Share:        new(big.Int).Set(share),
		Amount:       fav,
		ExpireHeight: expire,
		Rewards:      rewards,
	}, nil
}

// Redelegate moves share from src to dst without unbonding, the moved value can be clawed back from dst for
// infractions of src until the unbonding period of src passes
func (d *Delegator) Redelegate(src, dst *Delegatee, share *big.Int, height uint64) (*RedelegateResult, error) {
	if share == nil || share.Sign() <= 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "redelegate share %v", share)
	}
	if address.Equal(src.Address(), dst.Address()) {
		return nil, errors.Wrapf(ErrSelfRedelegation, "delegatee %s", src.Address().String())
	}
	if dst.IsJailed() {
		return nil, errors.Wrapf(ErrJailed, "delegatee %s", dst.Address().String())
	}
	if !src.DelegationCurrency().Equal(dst.DelegationCurrency()) {
		return nil, errors.Wrapf(ErrInvalidCurrency, "%s -> %s", src.DelegationCurrency(), dst.DelegationCurrency())
	}
	if err := dst.checkExchangeRate(); err != nil {
		return nil, err
	}
	srcSession, err := newDelegation(d.repo, src, d)
	if err != nil {
		return nil, err
	}
	if srcSession.grace.IsFull() {
		return nil, errors.Wrapf(ErrMaxEntries, "%d pending rebond graces on %s", srcSession.grace.Len(), src.Address().String())
	}
	dstSession, err := newDelegation(d.repo, dst, d)
	if err != nil {
		return nil, err
	}
	fav, srcRewards, err := src.unbond(srcSession.bond, share, height)
	if err != nil {
		return nil, err
	}
	var (
		minted     = big.NewInt(0)
		dstRewards []state.FungibleAssetValue
		expire     = height + src.UnbondingPeriod()
	)
	if fav.Sign() > 0 {
		if err := d.repo.TransferAsset(src.DelegationPoolAddress(), dst.DelegationPoolAddress(), fav); err != nil {
			return nil, err
		}
		if minted, dstRewards, err = dst.bond(dstSession.bond, fav, height); err != nil {
			return nil, err
		}
		if err := srcSession.grace.Rebond(dst.Address(), fav, height, expire); err != nil {
			return nil, err
		}
	}
	if err := srcSession.Commit(); err != nil {
		return nil, err
	}
	if err := dstSession.Commit(); err != nil {
		return nil, err
	}
	return &RedelegateResult{
		Src:          src.DelegateeMetadata,
		Dst:          dst.DelegateeMetadata,
		Delegator:    d.DelegatorMetadata,
		Share:        new(big.Int).Set(share),
		Amount:       fav,
		MintedShare:  minted,
		ExpireHeight: expire,
		SrcRewards:   srcRewards,
		DstRewards:   dstRewards,
	}, nil
}

// CancelUnbonding takes fav back out of the pending lock-ins on delegatee, latest first, and rebonds it
func (d *Delegator) CancelUnbonding(delegatee *Delegatee, fav state.FungibleAssetValue, height uint64) (*CancelUnbondingResult, error) {
	if fav.Sign() <= 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "cancel amount %s", fav)
	}
	if !fav.Currency.Equal(delegatee.DelegationCurrency()) {
		return nil, errors.Wrapf(ErrInvalidCurrency, "currency %s, expected %s", fav.Currency, delegatee.DelegationCurrency())
	}
	if delegatee.IsJailed() {
		return nil, errors.Wrapf(ErrJailed, "delegatee %s", delegatee.Address().String())
	}
	if err := delegatee.checkExchangeRate(); err != nil {
		return nil, err
	}
	s, err := newDelegation(d.repo, delegatee, d)
	if err != nil {
		return nil, err
	}
	if err := s.lockIn.Cancel(fav, height); err != nil {
		return nil, err
	}
	share, rewards, err := delegatee.bond(s.bond, fav, height)
	if err != nil {
		return nil, err
	}
	if err := s.Commit(); err != nil {
		return nil, err
	}
	return &CancelUnbondingResult{
		Delegatee: delegatee.DelegateeMetadata,
		Delegator: d.DelegatorMetadata,
		Amount:    fav.Clone(),
		Share:     share,
		Rewards:   rewards,
	}, nil
}

// ClaimReward pays the rewards the delegator earned on delegatee since its last distribution
func (d *Delegator) ClaimReward(delegatee *Delegatee, height uint64) (*ClaimRewardResult, error) {
	bond, err := d.repo.GetBond(delegatee.Address(), d.Address())
	if err != nil {
		return nil, err
	}
	rewards, err := delegatee.DistributeReward(bond, height)
	if err != nil {
		return nil, err
	}
	if err := d.repo.SetBond(bond); err != nil {
		return nil, err
	}
	return &ClaimRewardResult{
		Delegatee: delegatee.Address(),
		Delegator: d.Address(),
		Rewards:   rewards,
	}, nil
}
