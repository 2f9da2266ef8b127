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

	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/state"
)

// Ledger runs the delegation operations against a repository, one operation at a time.
// An operation returning an error may leave partial writes behind, callers revert the state manager.
type Ledger struct {
	repo *Repository
}

// NewLedger creates a ledger writing to sm and moving assets with t
func NewLedger(sm protocol.StateManager, t Transferer) *Ledger {
	return &Ledger{repo: NewRepository(sm, t)}
}

// NewReadOnlyLedger creates a ledger serving queries only
func NewReadOnlyLedger(sr protocol.StateReader, br BalanceReader) *Ledger {
	return &Ledger{repo: NewReadOnlyRepository(sr, br)}
}

// Repository returns the repository of the ledger
func (l *Ledger) Repository() *Repository { return l.repo }

// RegisterDelegatee registers addr as a delegatee following policy
func (l *Ledger) RegisterDelegatee(addr address.Address, policy DelegateePolicy, height uint64) (*DelegateeMetadata, error) {
	_, err := l.repo.GetDelegateeMetadata(addr)
	switch errors.Cause(err) {
	case nil:
		return nil, errors.Wrapf(ErrDelegateeExists, "delegatee %s", addr.String())
	case ErrNullDelegatee:
	default:
		return nil, err
	}
	m, err := NewDelegateeMetadata(addr, policy)
	if err != nil {
		return nil, err
	}
	rb, err := NewRewardBase(addr, big.NewInt(0), policy.RewardCurrencies, height)
	if err != nil {
		return nil, err
	}
	if err := l.repo.SetDelegateeMetadata(m); err != nil {
		return nil, err
	}
	if err := l.repo.SetRewardBase(rb); err != nil {
		return nil, err
	}
	return m, nil
}

func (l *Ledger) load(delegator, delegatee address.Address) (*Delegator, *Delegatee, error) {
	if delegator == nil {
		return nil, nil, errors.Wrap(ErrNullDelegator, "delegator is nil")
	}
	e, err := l.repo.GetDelegatee(delegatee)
	if err != nil {
		return nil, nil, err
	}
	r, err := l.repo.GetDelegator(delegator)
	if err != nil {
		return nil, nil, err
	}
	return r, e, nil
}

// Delegate bonds fav of delegator to delegatee
func (l *Ledger) Delegate(delegator, delegatee address.Address, fav state.FungibleAssetValue, height uint64) (*DelegateResult, error) {
	r, e, err := l.load(delegator, delegatee)
	if err != nil {
		return nil, err
	}
	return r.Delegate(e, fav, height)
}

// Undelegate unbonds share of delegator from delegatee
func (l *Ledger) Undelegate(delegator, delegatee address.Address, share *big.Int, height uint64) (*UndelegateResult, error) {
	r, e, err := l.load(delegator, delegatee)
	if err != nil {
		return nil, err
	}
	return r.Undelegate(e, share, height)
}

// Redelegate moves share of delegator from src to dst
func (l *Ledger) Redelegate(delegator, src, dst address.Address, share *big.Int, height uint64) (*RedelegateResult, error) {
	r, s, err := l.load(delegator, src)
	if err != nil {
		return nil, err
	}
	d, err := l.repo.GetDelegatee(dst)
	if err != nil {
		return nil, err
	}
	return r.Redelegate(s, d, share, height)
}

// CancelUnbonding rebonds fav of the pending lock-ins of delegator on delegatee
func (l *Ledger) CancelUnbonding(delegator, delegatee address.Address, fav state.FungibleAssetValue, height uint64) (*CancelUnbondingResult, error) {
	r, e, err := l.load(delegator, delegatee)
	if err != nil {
		return nil, err
	}
	return r.CancelUnbonding(e, fav, height)
}

// Claim pays the pending rewards of delegator on delegatee
func (l *Ledger) Claim(delegator, delegatee address.Address, height uint64) (*ClaimRewardResult, error) {
	r, e, err := l.load(delegator, delegatee)
	if err != nil {
		return nil, err
	}
	return r.ClaimReward(e, height)
}

// AllocateReward deposits fav from payer into the reward pool of delegatee
func (l *Ledger) AllocateReward(payer, delegatee address.Address, fav state.FungibleAssetValue, height uint64) (*AllocateRewardResult, error) {
	e, err := l.repo.GetDelegatee(delegatee)
	if err != nil {
		return nil, err
	}
	if fav.Sign() <= 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "reward %s", fav)
	}
	if !e.IsRewardCurrency(fav.Currency) {
		return nil, errors.Wrapf(ErrInvalidCurrency, "%s is not a reward currency of %s", fav.Currency, delegatee.String())
	}
	collected, err := e.CollectRewards(height)
	if err != nil {
		return nil, err
	}
	if err := l.repo.TransferAsset(payer, e.RewardPoolAddress(), fav); err != nil {
		return nil, err
	}
	return &AllocateRewardResult{
		Delegatee: e.DelegateeMetadata,
		Payer:     payer,
		Amount:    fav.Clone(),
		Collected: collected,
	}, nil
}

// Slash seizes ceil(value / slashFactor) of the bonded and unbonding value of delegatee covering the infraction
func (l *Ledger) Slash(delegatee address.Address, slashFactor *big.Int, infractionHeight, height uint64) (*SlashResult, error) {
	e, err := l.repo.GetDelegatee(delegatee)
	if err != nil {
		return nil, err
	}
	return e.Slash(slashFactor, infractionHeight, height)
}

// Jail bars delegatee from taking delegation until the height
func (l *Ledger) Jail(delegatee address.Address, until, height uint64) (*DelegateeMetadata, error) {
	m, err := l.repo.GetDelegateeMetadata(delegatee)
	if err != nil {
		return nil, err
	}
	if until < height {
		return nil, errors.Wrapf(ErrInvalidHeight, "jail until %d is before height %d", until, height)
	}
	m.Jail(until)
	return m, l.repo.SetDelegateeMetadata(m)
}

// Unjail lifts the jail of delegatee at height
func (l *Ledger) Unjail(delegatee address.Address, height uint64) (*DelegateeMetadata, error) {
	m, err := l.repo.GetDelegateeMetadata(delegatee)
	if err != nil {
		return nil, err
	}
	if err := m.Unjail(height); err != nil {
		return nil, err
	}
	return m, l.repo.SetDelegateeMetadata(m)
}

// Tombstone bars delegatee from taking delegation forever
func (l *Ledger) Tombstone(delegatee address.Address) (*DelegateeMetadata, error) {
	m, err := l.repo.GetDelegateeMetadata(delegatee)
	if err != nil {
		return nil, err
	}
	m.Tombstone()
	return m, l.repo.SetDelegateeMetadata(m)
}

// SweepMaturedUnbondings releases every unbonding entry matured at height. Lock-ins are paid back to the
// delegator, matured rebond graces only drop their clawback eligibility. Sweeping a height twice is a no-op.
func (l *Ledger) SweepMaturedUnbondings(height uint64) (*SweepResult, error) {
	set, err := l.repo.GetUnbondingSet()
	if err != nil {
		return nil, err
	}
	res := &SweepResult{Height: height}
	matured := set.Matured(height)
	for _, ref := range matured {
		u, err := LoadUnbonding(l.repo, ref)
		if err != nil {
			return nil, err
		}
		m, err := l.repo.GetDelegateeMetadata(u.Delegatee())
		if err != nil {
			return nil, err
		}
		amount := m.DelegationCurrency().Zero()
		for _, v := range u.Release(height) {
			amount.Raw.Add(amount.Raw, v.Raw)
		}
		if ref.Kind == UnbondLockInKind && amount.Sign() > 0 {
			r, err := l.repo.GetOrCreateDelegatorMetadata(u.Delegator())
			if err != nil {
				return nil, err
			}
			if err := l.repo.TransferAsset(m.DelegationPoolAddress(), r.DelegationPoolAddress(), amount); err != nil {
				return nil, errors.Wrapf(err, "failed to release lock-in of %s", u.Delegator().String())
			}
		}
		if err := l.repo.SetUnbonding(u); err != nil {
			return nil, err
		}
		set.Update(u)
		res.Releases = append(res.Releases, Release{
			Ref:       ref,
			Delegatee: u.Delegatee(),
			Delegator: u.Delegator(),
			Amount:    amount,
		})
	}
	if len(matured) > 0 {
		if err := l.repo.SetUnbondingSet(set); err != nil {
			return nil, err
		}
	}
	res.Pending = set.Len()
	return res, nil
}

// Delegatee returns the metadata of a registered delegatee
func (l *Ledger) Delegatee(addr address.Address) (*DelegateeMetadata, error) {
	return l.repo.GetDelegateeMetadata(addr)
}

// Delegator returns the metadata of a delegator
func (l *Ledger) Delegator(addr address.Address) (*DelegatorMetadata, error) {
	return l.repo.GetDelegatorMetadata(addr)
}

// Bond returns the bond of delegator on delegatee, empty if none
func (l *Ledger) Bond(delegatee, delegator address.Address) (*Bond, error) {
	return l.repo.GetBond(delegatee, delegator)
}

// UnbondLockIn returns the lock-in queue of delegator on delegatee
func (l *Ledger) UnbondLockIn(delegatee, delegator address.Address) (*UnbondLockIn, error) {
	m, err := l.repo.GetDelegateeMetadata(delegatee)
	if err != nil {
		return nil, err
	}
	return l.repo.GetUnbondLockIn(m, delegator)
}

// RebondGrace returns the rebond grace queue of delegator leaving delegatee
func (l *Ledger) RebondGrace(delegatee, delegator address.Address) (*RebondGrace, error) {
	m, err := l.repo.GetDelegateeMetadata(delegatee)
	if err != nil {
		return nil, err
	}
	return l.repo.GetRebondGrace(m, delegator)
}

// UnbondingSet returns the index of pending unbonding queues
func (l *Ledger) UnbondingSet() (*UnbondingSet, error) {
	return l.repo.GetUnbondingSet()
}

// RewardBase returns the reward base of delegatee
func (l *Ledger) RewardBase(delegatee address.Address) (*RewardBase, error) {
	return l.repo.GetRewardBase(delegatee)
}

// ClaimableRewards returns the rewards a claim of delegator on delegatee would pay at height
func (l *Ledger) ClaimableRewards(delegatee, delegator address.Address, height uint64) ([]state.FungibleAssetValue, error) {
	e, err := l.repo.GetDelegatee(delegatee)
	if err != nil {
		return nil, err
	}
	bond, err := l.repo.GetBond(delegatee, delegator)
	if err != nil {
		return nil, err
	}
	if bond.IsEmpty() {
		return nil, nil
	}
	rb, err := l.repo.GetRewardBase(delegatee)
	if err != nil {
		return nil, err
	}
	if e.RewardCollectedHeight() < height && e.totalShares.Sign() > 0 {
		for _, c := range e.RewardCurrencies() {
			balance, err := l.repo.GetBalance(e.RewardPoolAddress(), c)
			if err != nil {
				return nil, err
			}
			if balance.Sign() <= 0 {
				continue
			}
			if err := rb.AddReward(balance); err != nil {
				return nil, err
			}
		}
	}
	return e.pendingRewards(rb, bond, height)
}
