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

const (
	// DefaultSigFig is the smallest exponent of the reward multiplier
	DefaultSigFig uint32 = 2
	_sigFigMargin uint32 = 2
)

type (
	rewardPortion struct {
		Currency state.Currency
		Portion  *big.Int
	}

	// RewardBase accumulates the reward per share of a delegatee, scaled by 10^SigFig
	RewardBase struct {
		delegatee   address.Address
		startHeight uint64
		totalShares *big.Int
		sigFig      uint32
		portions    []*rewardPortion
	}

	rewardBaseStore struct {
		Delegatee   []byte
		StartHeight uint64
		TotalShares *big.Int
		SigFig      uint32
		Portions    []*rewardPortion
	}
)

// RecommendedSigFig returns floor(log10(totalShares)) + 2
func RecommendedSigFig(totalShares *big.Int) uint32 {
	if totalShares == nil || totalShares.Sign() <= 0 {
		return DefaultSigFig
	}
	return uint32(len(totalShares.String())-1) + _sigFigMargin
}

func pow10(n uint32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// NewRewardBase creates a reward base tracking currencies with zero portions
func NewRewardBase(delegatee address.Address, totalShares *big.Int, currencies []state.Currency, startHeight uint64) (*RewardBase, error) {
	if totalShares == nil || totalShares.Sign() < 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "total shares %v", totalShares)
	}
	rb := &RewardBase{
		delegatee:   delegatee,
		startHeight: startHeight,
		totalShares: new(big.Int).Set(totalShares),
		sigFig:      RecommendedSigFig(totalShares),
	}
	for _, c := range currencies {
		if _, err := rb.Portion(c); err == nil {
			return nil, errors.Wrapf(ErrInvalidCurrency, "duplicate reward currency %s", c)
		}
		rb.portions = append(rb.portions, &rewardPortion{Currency: c, Portion: big.NewInt(0)})
	}
	return rb, nil
}

// Delegatee returns the owner of the reward base
func (rb *RewardBase) Delegatee() address.Address { return rb.delegatee }

// StartHeight returns the height the total shares were last changed
func (rb *RewardBase) StartHeight() uint64 { return rb.startHeight }

// TotalShares returns a copy of the total shares
func (rb *RewardBase) TotalShares() *big.Int { return new(big.Int).Set(rb.totalShares) }

// SigFig returns the exponent of the multiplier
func (rb *RewardBase) SigFig() uint32 { return rb.sigFig }

// Currencies returns the tracked currencies
func (rb *RewardBase) Currencies() []state.Currency {
	currencies := make([]state.Currency, 0, len(rb.portions))
	for _, p := range rb.portions {
		currencies = append(currencies, p.Currency)
	}
	return currencies
}

// Portion returns a copy of the scaled reward per share of currency
func (rb *RewardBase) Portion(currency state.Currency) (*big.Int, error) {
	p := rb.portion(currency)
	if p == nil {
		return nil, errors.Wrapf(ErrUnknownCurrency, "currency %s", currency)
	}
	return new(big.Int).Set(p.Portion), nil
}

func (rb *RewardBase) portion(currency state.Currency) *rewardPortion {
	for _, p := range rb.portions {
		if p.Currency.Equal(currency) {
			return p
		}
	}
	return nil
}

// AddReward adds reward * 10^SigFig / TotalShares to the portion of the reward currency
func (rb *RewardBase) AddReward(reward state.FungibleAssetValue) error {
	p := rb.portion(reward.Currency)
	if p == nil {
		return errors.Wrapf(ErrUnknownCurrency, "currency %s", reward.Currency)
	}
	if reward.Sign() < 0 {
		return errors.Wrapf(ErrInvalidAmount, "reward %s", reward)
	}
	if rb.totalShares.Sign() == 0 {
		return errors.Wrap(ErrInvalidRewardBase, "cannot add reward without shares")
	}
	add := new(big.Int).Mul(reward.Raw, pow10(rb.sigFig))
	p.Portion.Add(p.Portion, add.Quo(add, rb.totalShares))
	return nil
}

// UpdateTotalShares sets the total shares from height on, raising the multiplier and rescaling the portions when
// the recommended one grows
func (rb *RewardBase) UpdateTotalShares(totalShares *big.Int, height uint64) error {
	if totalShares == nil || totalShares.Sign() < 0 {
		return errors.Wrapf(ErrInvalidAmount, "total shares %v", totalShares)
	}
	if height < rb.startHeight {
		return errors.Wrapf(ErrInvalidHeight, "start height %d, new height %d", rb.startHeight, height)
	}
	if sigFig := RecommendedSigFig(totalShares); sigFig > rb.sigFig {
		mul := pow10(sigFig - rb.sigFig)
		for _, p := range rb.portions {
			p.Portion.Mul(p.Portion, mul)
		}
		rb.sigFig = sigFig
	}
	rb.totalShares = new(big.Int).Set(totalShares)
	rb.startHeight = height
	return nil
}

// CumulativeRewards returns the rewards a share earned since the reward base was created
func (rb *RewardBase) CumulativeRewards(share *big.Int) []state.FungibleAssetValue {
	rewards, _ := rb.RewardsSince(nil, share)
	return rewards
}

// RewardsSince returns the rewards a share earned between the snapshot and the reward base
func (rb *RewardBase) RewardsSince(snapshot *RewardBase, share *big.Int) ([]state.FungibleAssetValue, error) {
	if snapshot != nil && snapshot.sigFig > rb.sigFig {
		return nil, errors.Wrapf(ErrInvalidRewardBase, "snapshot sigfig %d, current sigfig %d", snapshot.sigFig, rb.sigFig)
	}
	var (
		unit    = pow10(rb.sigFig)
		rewards = make([]state.FungibleAssetValue, 0, len(rb.portions))
	)
	for _, p := range rb.portions {
		delta := new(big.Int).Set(p.Portion)
		if snapshot != nil {
			if sp := snapshot.portion(p.Currency); sp != nil {
				delta.Sub(delta, new(big.Int).Mul(sp.Portion, pow10(rb.sigFig-snapshot.sigFig)))
			}
		}
		if delta.Sign() < 0 {
			return nil, errors.Wrapf(ErrInvalidRewardBase, "portion of %s decreased", p.Currency)
		}
		reward := delta.Mul(delta, share)
		rewards = append(rewards, p.Currency.Raw(reward.Quo(reward, unit)))
	}
	return rewards, nil
}

// Clone returns a deep copy
func (rb *RewardBase) Clone() *RewardBase {
	c := &RewardBase{
		delegatee:   rb.delegatee,
		startHeight: rb.startHeight,
		totalShares: new(big.Int).Set(rb.totalShares),
		sigFig:      rb.sigFig,
		portions:    make([]*rewardPortion, 0, len(rb.portions)),
	}
	for _, p := range rb.portions {
		c.portions = append(c.portions, &rewardPortion{Currency: p.Currency, Portion: new(big.Int).Set(p.Portion)})
	}
	return c
}

// Serialize serializes the reward base into bytes
func (rb *RewardBase) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(&rewardBaseStore{
		Delegatee:   rb.delegatee.Bytes(),
		StartHeight: rb.startHeight,
		TotalShares: rb.totalShares,
		SigFig:      rb.sigFig,
		Portions:    rb.portions,
	})
}

// Deserialize deserializes bytes into the reward base
func (rb *RewardBase) Deserialize(buf []byte) error {
	var s rewardBaseStore
	if err := rlp.DecodeBytes(buf, &s); err != nil {
		return err
	}
	delegatee, err := address.FromBytes(s.Delegatee)
	if err != nil {
		return errors.Wrap(err, "failed to decode delegatee of reward base")
	}
	rb.delegatee = delegatee
	rb.startHeight = s.StartHeight
	rb.totalShares = s.TotalShares
	if rb.totalShares == nil {
		rb.totalShares = big.NewInt(0)
	}
	rb.sigFig = s.SigFig
	rb.portions = s.Portions
	for _, p := range rb.portions {
		if p.Portion == nil {
			p.Portion = big.NewInt(0)
		}
	}
	return nil
}
