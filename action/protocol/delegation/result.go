// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"math/big"

	"github.com/iotexproject/iotex-address/address"

	"github.com/iotexproject/iotex-delegation/state"
)

type (
	// DelegateResult describes a delegation
	DelegateResult struct {
		Delegatee *DelegateeMetadata
		Delegator *DelegatorMetadata
		Amount    state.FungibleAssetValue
		Share     *big.Int
		Rewards   []state.FungibleAssetValue
	}

	// UndelegateResult describes an undelegation, Amount is locked in until ExpireHeight
	UndelegateResult struct {
		Delegatee    *DelegateeMetadata
		Delegator    *DelegatorMetadata
		Share        *big.Int
		Amount       state.FungibleAssetValue
		ExpireHeight uint64
		Rewards      []state.FungibleAssetValue
	}

	// RedelegateResult describes a redelegation, Amount can be clawed back from Dst until ExpireHeight
	RedelegateResult struct {
		Src          *DelegateeMetadata
		Dst          *DelegateeMetadata
		Delegator    *DelegatorMetadata
		Share        *big.Int
		Amount       state.FungibleAssetValue
		MintedShare  *big.Int
		ExpireHeight uint64
		SrcRewards   []state.FungibleAssetValue
		DstRewards   []state.FungibleAssetValue
	}

	// CancelUnbondingResult describes a cancelled lock-in rebonded into the delegatee
	CancelUnbondingResult struct {
		Delegatee *DelegateeMetadata
		Delegator *DelegatorMetadata
		Amount    state.FungibleAssetValue
		Share     *big.Int
		Rewards   []state.FungibleAssetValue
	}

	// ClaimRewardResult describes the rewards paid to a delegator
	ClaimRewardResult struct {
		Delegatee address.Address
		Delegator address.Address
		Rewards   []state.FungibleAssetValue
	}

	// AllocateRewardResult describes a reward deposit
	AllocateRewardResult struct {
		Delegatee *DelegateeMetadata
		Payer     address.Address
		Amount    state.FungibleAssetValue
		Collected []state.FungibleAssetValue
	}

	// SlashResult describes the value seized from a delegatee
	SlashResult struct {
		Delegatee     *DelegateeMetadata
		Bonded        state.FungibleAssetValue
		UnbondLockIns state.FungibleAssetValue
		RebondGraces  []GraceSlash
	}

	// Release is the value released from one matured unbonding queue
	Release struct {
		Ref       UnbondingRef
		Delegatee address.Address
		Delegator address.Address
		Amount    state.FungibleAssetValue
	}

	// SweepResult lists the releases of a maturity sweep
	SweepResult struct {
		Height   uint64
		Releases []Release
		Pending  int
	}
)

// Total returns the whole value seized
func (r *SlashResult) Total() state.FungibleAssetValue {
	total := r.Bonded.Clone()
	total.Raw.Add(total.Raw, r.UnbondLockIns.Raw)
	for _, g := range r.RebondGraces {
		total.Raw.Add(total.Raw, g.Amount.Raw)
	}
	return total
}
