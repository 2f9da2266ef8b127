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

// Delegatee is the metadata of a registered delegatee bound to the repository it is stored in
type Delegatee struct {
	*DelegateeMetadata
	repo *Repository
}

// GetDelegatee loads a registered delegatee
func (r *Repository) GetDelegatee(addr address.Address) (*Delegatee, error) {
	m, err := r.GetDelegateeMetadata(addr)
	if err != nil {
		return nil, err
	}
	return &Delegatee{DelegateeMetadata: m, repo: r}, nil
}

// Metadata returns the metadata of the delegatee
func (d *Delegatee) Metadata() *DelegateeMetadata { return d.DelegateeMetadata }

func (d *Delegatee) save() error {
	return d.repo.SetDelegateeMetadata(d.DelegateeMetadata)
}

// CollectRewards credits the rewards deposited into the reward pool to the reward base, once per height.
// The rewards stay in the pool while the delegatee has no share.
func (d *Delegatee) CollectRewards(height uint64) ([]state.FungibleAssetValue, error) {
	if d.rewardCollectedHeight >= height {
		return nil, nil
	}
	d.rewardCollectedHeight = height
	var collected []state.FungibleAssetValue
	if d.totalShares.Sign() > 0 {
		rb, err := d.repo.GetRewardBase(d.address)
		if err != nil {
			return nil, err
		}
		for _, c := range d.policy.RewardCurrencies {
			balance, err := d.repo.GetBalance(d.RewardPoolAddress(), c)
			if err != nil {
				return nil, err
			}
			if balance.Sign() <= 0 {
				continue
			}
			if err := rb.AddReward(balance); err != nil {
				return nil, err
			}
			if err := d.repo.TransferAsset(d.RewardPoolAddress(), d.RewardDistributorAddress(), balance); err != nil {
				return nil, errors.Wrapf(err, "failed to collect rewards of %s", d.address.String())
			}
			collected = append(collected, balance)
		}
		if len(collected) > 0 {
			if err := d.repo.SetRewardBase(rb); err != nil {
				return nil, err
			}
		}
	}
	return collected, d.save()
}

// DistributeReward pays the rewards bond earned since its last distribution to the delegator and moves the
// distribution height of the bond to height
func (d *Delegatee) DistributeReward(bond *Bond, height uint64) ([]state.FungibleAssetValue, error) {
	if _, err := d.CollectRewards(height); err != nil {
		return nil, err
	}
	rb, err := d.repo.GetRewardBase(d.address)
	if err != nil {
		return nil, err
	}
	var rewards []state.FungibleAssetValue
	if !bond.IsEmpty() {
		rewards, err = d.pendingRewards(rb, bond, height)
		if err != nil {
			return nil, err
		}
		for _, reward := range rewards {
			if err := d.repo.TransferAsset(d.RewardDistributorAddress(), bond.Delegator(), reward); err != nil {
				return nil, errors.Wrapf(err, "failed to pay %s to %s", reward, bond.Delegator().String())
			}
		}
	}
	if err := d.repo.SetRewardBaseSnapshot(rb, height); err != nil {
		return nil, err
	}
	if err := bond.UpdateLastDistributeHeight(height); err != nil {
		return nil, err
	}
	return rewards, nil
}

// pendingRewards returns the non-zero rewards of bond accrued in rb since the last distribution of the bond
func (d *Delegatee) pendingRewards(rb *RewardBase, bond *Bond, height uint64) ([]state.FungibleAssetValue, error) {
	rewards, err := d.legacyRewards(bond, height)
	if err != nil {
		return nil, err
	}
	snapshot, ok, err := d.repo.GetRewardBaseSnapshot(d.address, bond.LastDistributeHeight())
	if err != nil {
		return nil, err
	}
	if !ok {
		snapshot = nil
	}
	earned, err := rb.RewardsSince(snapshot, bond.share)
	if err != nil {
		return nil, err
	}
	return mergeRewards(rewards, earned), nil
}

// legacyRewards returns the lump sum rewards of the periods starting from the last distribution of bond and
// before height
func (d *Delegatee) legacyRewards(bond *Bond, height uint64) ([]state.FungibleAssetValue, error) {
	start, ok := d.LegacyHead()
	var rewards []state.FungibleAssetValue
	for ok {
		rec, err := d.repo.GetLumpSumRewardsRecord(d.address, start)
		if err != nil {
			return nil, err
		}
		if rec.StartHeight() < bond.LastDistributeHeight() {
			break
		}
		if rec.StartHeight() < height && rec.ContainsDelegator(bond.Delegator()) {
			rewards = mergeRewards(rewards, rec.RewardsDuringPeriod(bond.share))
		}
		start, ok = rec.LastStartHeight()
	}
	return rewards, nil
}

func (d *Delegatee) updateTotalShares(height uint64) error {
	rb, err := d.repo.GetRewardBase(d.address)
	if err != nil {
		return err
	}
	if err := rb.UpdateTotalShares(d.totalShares, height); err != nil {
		return err
	}
	return d.repo.SetRewardBase(rb)
}

// bond mints the shares bought by fav into bond after paying its pending rewards, fav must already be in the
// delegation pool
func (d *Delegatee) bond(bond *Bond, fav state.FungibleAssetValue, height uint64) (*big.Int, []state.FungibleAssetValue, error) {
	if fav.Sign() <= 0 {
		return nil, nil, errors.Wrapf(ErrInvalidAmount, "bond amount %s", fav)
	}
	share, err := d.ShareFromFAV(fav)
	if err != nil {
		return nil, nil, err
	}
	rewards, err := d.DistributeReward(bond, height)
	if err != nil {
		return nil, nil, err
	}
	if err := bond.AddShare(share); err != nil {
		return nil, nil, err
	}
	if err := d.AddBond(share, fav); err != nil {
		return nil, nil, err
	}
	if !bond.IsEmpty() {
		d.AddDelegator(bond.Delegator())
	}
	if err := d.updateTotalShares(height); err != nil {
		return nil, nil, err
	}
	if err := d.repo.SetBond(bond); err != nil {
		return nil, nil, err
	}
	return share, rewards, d.save()
}

// unbond redeems share of bond after paying its pending rewards, the redeemed value stays in the delegation pool
func (d *Delegatee) unbond(bond *Bond, share *big.Int, height uint64) (state.FungibleAssetValue, []state.FungibleAssetValue, error) {
	zero := d.policy.DelegationCurrency.Zero()
	if share == nil || share.Sign() <= 0 {
		return zero, nil, errors.Wrapf(ErrInvalidAmount, "unbond share %v", share)
	}
	if bond.share.Cmp(share) < 0 {
		return zero, nil, errors.Wrapf(ErrInsufficientShare, "bond share %s, required %s", bond.share, share)
	}
	fav, err := d.FAVFromShare(share)
	if err != nil {
		return zero, nil, err
	}
	rewards, err := d.DistributeReward(bond, height)
	if err != nil {
		return zero, nil, err
	}
	if err := bond.SubtractShare(share); err != nil {
		return zero, nil, err
	}
	if err := d.RemoveBond(share, fav); err != nil {
		return zero, nil, err
	}
	if bond.IsEmpty() {
		d.RemoveDelegator(bond.Delegator())
	}
	if err := d.updateTotalShares(height); err != nil {
		return zero, nil, err
	}
	if err := d.repo.SetBond(bond); err != nil {
		return zero, nil, err
	}
	return fav, rewards, d.save()
}

// Slash seizes ceil(value / slashFactor) from the bonded value, from every pending lock-in entry and from every
// pending rebond grace entry covering the infraction, moving it to the slashed pool
func (d *Delegatee) Slash(slashFactor *big.Int, infractionHeight, height uint64) (*SlashResult, error) {
	if err := validateSlash(slashFactor, infractionHeight, height); err != nil {
		return nil, err
	}
	bonded, err := d.SlashBonded(slashFactor)
	if err != nil {
		return nil, err
	}
	if err := d.repo.TransferAsset(d.DelegationPoolAddress(), d.SlashedPoolAddress(), bonded); err != nil {
		return nil, errors.Wrap(err, "failed to seize bonded value")
	}
	res := &SlashResult{
		Delegatee:     d.DelegateeMetadata,
		Bonded:        bonded,
		UnbondLockIns: d.policy.DelegationCurrency.Zero(),
	}
	set, err := d.repo.GetUnbondingSet()
	if err != nil {
		return nil, err
	}
	for _, ref := range set.OfDelegatee(d.address) {
		switch ref.Kind {
		case UnbondLockInKind:
			u, err := d.repo.GetUnbondLockInByAddress(ref.Address)
			if err != nil {
				return nil, err
			}
			amount, err := u.Slash(slashFactor, infractionHeight, height)
			if err != nil {
				return nil, err
			}
			if amount.IsZero() {
				continue
			}
			if err := d.repo.TransferAsset(d.DelegationPoolAddress(), d.SlashedPoolAddress(), amount); err != nil {
				return nil, errors.Wrapf(err, "failed to seize lock-in of %s", u.Delegator().String())
			}
			res.UnbondLockIns.Raw.Add(res.UnbondLockIns.Raw, amount.Raw)
			if err := d.repo.SetUnbondLockIn(u); err != nil {
				return nil, err
			}
			set.Update(u)
		case RebondGraceKind:
			g, err := d.repo.GetRebondGraceByAddress(ref.Address)
			if err != nil {
				return nil, err
			}
			slashes, err := g.Slash(slashFactor, infractionHeight, height)
			if err != nil {
				return nil, err
			}
			for _, s := range slashes {
				seized, err := d.clawBack(s, g.Delegator(), height)
				if err != nil {
					return nil, err
				}
				res.RebondGraces = append(res.RebondGraces, seized)
			}
			if err := d.repo.SetRebondGrace(g); err != nil {
				return nil, err
			}
			set.Update(g)
		}
	}
	if err := d.repo.SetUnbondingSet(set); err != nil {
		return nil, err
	}
	return res, d.save()
}

// clawBack redeems the shares worth a grace slash from the bond delegator holds on the destination delegatee,
// capped at that bond, and moves the redeemed value to the slashed pool. Other delegators of the destination
// keep their share price.
func (d *Delegatee) clawBack(s GraceSlash, delegator address.Address, height uint64) (GraceSlash, error) {
	dst, err := d.repo.GetDelegatee(s.Unbondee)
	if err != nil {
		return GraceSlash{}, err
	}
	seized := GraceSlash{Unbondee: s.Unbondee, Amount: dst.DelegationCurrency().Zero()}
	bond, err := d.repo.GetBond(dst.Address(), delegator)
	if err != nil {
		return GraceSlash{}, err
	}
	if bond.IsEmpty() || dst.totalDelegated.Sign() == 0 {
		return seized, nil
	}
	share, err := dst.ShareFromFAV(s.Amount)
	if err != nil {
		return GraceSlash{}, err
	}
	if share.Cmp(bond.Share()) > 0 {
		share = bond.Share()
	}
	if share.Sign() == 0 {
		return seized, nil
	}
	fav, _, err := dst.unbond(bond, share, height)
	if err != nil {
		return GraceSlash{}, err
	}
	if bond.IsEmpty() {
		r, err := d.repo.GetDelegator(delegator)
		if err != nil {
			return GraceSlash{}, err
		}
		r.RemoveDelegatee(dst.Address())
		if err := d.repo.SetDelegatorMetadata(r.DelegatorMetadata); err != nil {
			return GraceSlash{}, err
		}
	}
	if err := d.repo.TransferAsset(dst.DelegationPoolAddress(), d.SlashedPoolAddress(), fav); err != nil {
		return GraceSlash{}, errors.Wrapf(err, "failed to claw back from %s", s.Unbondee.String())
	}
	seized.Amount = fav
	return seized, nil
}

// mergeRewards adds the non-zero values of src to dst, summing values of the same currency
func mergeRewards(dst, src []state.FungibleAssetValue) []state.FungibleAssetValue {
	for _, v := range src {
		if v.Sign() <= 0 {
			continue
		}
		merged := false
		for i := range dst {
			if dst[i].Currency.Equal(v.Currency) {
				dst[i].Raw.Add(dst[i].Raw, v.Raw)
				merged = true
				break
			}
		}
		if !merged {
			dst = append(dst, v.Clone())
		}
	}
	return dst
}
