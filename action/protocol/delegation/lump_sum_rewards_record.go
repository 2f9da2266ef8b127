// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-delegation/state"
)

type (
	// LumpSumRewardsRecord is the reward pool of a delegatee for the period starting at StartHeight, kept from
	// ledgers that paid rewards per period instead of per share
	LumpSumRewardsRecord struct {
		delegatee       address.Address
		startHeight     uint64
		totalShares     *big.Int
		delegators      []address.Address
		lumpSumRewards  []state.FungibleAssetValue
		lastStartHeight uint64
		hasLast         bool
	}

	lumpSumRewardsRecordStore struct {
		Delegatee       []byte
		StartHeight     uint64
		TotalShares     *big.Int
		Delegators      [][]byte
		LumpSumRewards  []state.FungibleAssetValue
		HasLast         bool
		LastStartHeight uint64
	}
)

// NewLumpSumRewardsRecord creates a record for the period starting at startHeight
func NewLumpSumRewardsRecord(
	delegatee address.Address,
	startHeight uint64,
	totalShares *big.Int,
	delegators []address.Address,
	currencies []state.Currency,
) (*LumpSumRewardsRecord, error) {
	if totalShares == nil || totalShares.Sign() < 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "total shares %v", totalShares)
	}
	r := &LumpSumRewardsRecord{
		delegatee:   delegatee,
		startHeight: startHeight,
		totalShares: new(big.Int).Set(totalShares),
		delegators:  sortAddresses(delegators),
	}
	for _, c := range currencies {
		r.lumpSumRewards = append(r.lumpSumRewards, c.Zero())
	}
	return r, nil
}

// Delegatee returns the owner of the record
func (r *LumpSumRewardsRecord) Delegatee() address.Address { return r.delegatee }

// StartHeight returns the first height of the period
func (r *LumpSumRewardsRecord) StartHeight() uint64 { return r.startHeight }

// TotalShares returns a copy of the total shares during the period
func (r *LumpSumRewardsRecord) TotalShares() *big.Int { return new(big.Int).Set(r.totalShares) }

// Delegators returns the delegators bonded during the period
func (r *LumpSumRewardsRecord) Delegators() []address.Address {
	return append([]address.Address(nil), r.delegators...)
}

// LumpSumRewards returns the rewards of the period
func (r *LumpSumRewardsRecord) LumpSumRewards() []state.FungibleAssetValue {
	rewards := make([]state.FungibleAssetValue, 0, len(r.lumpSumRewards))
	for _, v := range r.lumpSumRewards {
		rewards = append(rewards, v.Clone())
	}
	return rewards
}

// LastStartHeight returns the start height of the previous period, if any
func (r *LumpSumRewardsRecord) LastStartHeight() (uint64, bool) { return r.lastStartHeight, r.hasLast }

// SetLastStartHeight links the record to the previous period
func (r *LumpSumRewardsRecord) SetLastStartHeight(height uint64) error {
	if height >= r.startHeight {
		return errors.Wrapf(ErrInvalidHeight, "previous period %d does not precede %d", height, r.startHeight)
	}
	r.lastStartHeight, r.hasLast = height, true
	return nil
}

// ContainsDelegator returns true if delegator was bonded during the period
func (r *LumpSumRewardsRecord) ContainsDelegator(delegator address.Address) bool {
	_, ok := searchAddress(r.delegators, delegator)
	return ok
}

// AddLumpSumRewards adds reward to the pool of the period
func (r *LumpSumRewardsRecord) AddLumpSumRewards(reward state.FungibleAssetValue) error {
	if reward.Sign() < 0 {
		return errors.Wrapf(ErrInvalidAmount, "reward %s", reward)
	}
	for i := range r.lumpSumRewards {
		if r.lumpSumRewards[i].Currency.Equal(reward.Currency) {
			r.lumpSumRewards[i].Raw.Add(r.lumpSumRewards[i].Raw, reward.Raw)
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownCurrency, "currency %s", reward.Currency)
}

// RewardsDuringPeriod returns lumpSum * share / totalShares for every currency
func (r *LumpSumRewardsRecord) RewardsDuringPeriod(share *big.Int) []state.FungibleAssetValue {
	rewards := make([]state.FungibleAssetValue, 0, len(r.lumpSumRewards))
	for _, v := range r.lumpSumRewards {
		if r.totalShares.Sign() == 0 {
			rewards = append(rewards, v.Currency.Zero())
			continue
		}
		reward := new(big.Int).Mul(v.Raw, share)
		rewards = append(rewards, v.Currency.Raw(reward.Quo(reward, r.totalShares)))
	}
	return rewards
}

// Serialize serializes the record into bytes
func (r *LumpSumRewardsRecord) Serialize() ([]byte, error) {
	s := &lumpSumRewardsRecordStore{
		Delegatee:       r.delegatee.Bytes(),
		StartHeight:     r.startHeight,
		TotalShares:     r.totalShares,
		Delegators:      encodeAddresses(r.delegators),
		LumpSumRewards:  r.lumpSumRewards,
		HasLast:         r.hasLast,
		LastStartHeight: r.lastStartHeight,
	}
	return rlp.EncodeToBytes(s)
}

// Deserialize deserializes bytes into the record
func (r *LumpSumRewardsRecord) Deserialize(buf []byte) error {
	var s lumpSumRewardsRecordStore
	if err := rlp.DecodeBytes(buf, &s); err != nil {
		return err
	}
	delegatee, err := address.FromBytes(s.Delegatee)
	if err != nil {
		return errors.Wrap(err, "failed to decode delegatee of lump sum record")
	}
	delegators, err := decodeAddresses(s.Delegators)
	if err != nil {
		return err
	}
	r.delegatee = delegatee
	r.startHeight = s.StartHeight
	r.totalShares = s.TotalShares
	if r.totalShares == nil {
		r.totalShares = big.NewInt(0)
	}
	r.delegators = delegators
	r.lumpSumRewards = s.LumpSumRewards
	r.hasLast = s.HasLast
	r.lastStartHeight = s.LastStartHeight
	return nil
}

// sortAddresses returns a copy of addrs sorted by bytes without duplicates
func sortAddresses(addrs []address.Address) []address.Address {
	sorted := make([]address.Address, 0, len(addrs))
	for _, a := range addrs {
		sorted = insertAddress(sorted, a)
	}
	return sorted
}

func searchAddress(addrs []address.Address, addr address.Address) (int, bool) {
	b := addr.Bytes()
	i := sort.Search(len(addrs), func(i int) bool {
		return bytes.Compare(addrs[i].Bytes(), b) >= 0
	})
	return i, i < len(addrs) && bytes.Equal(addrs[i].Bytes(), b)
}

func insertAddress(addrs []address.Address, addr address.Address) []address.Address {
	i, ok := searchAddress(addrs, addr)
	if ok {
		return addrs
	}
	addrs = append(addrs, nil)
	copy(addrs[i+1:], addrs[i:])
	addrs[i] = addr
	return addrs
}

func removeAddress(addrs []address.Address, addr address.Address) []address.Address {
	i, ok := searchAddress(addrs, addr)
	if !ok {
		return addrs
	}
	return append(addrs[:i], addrs[i+1:]...)
}

func decodeAddresses(raw [][]byte) ([]address.Address, error) {
	addrs := make([]address.Address, 0, len(raw))
	for _, b := range raw {
		addr, err := address.FromBytes(b)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode address")
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func encodeAddresses(addrs []address.Address) [][]byte {
	raw := make([][]byte, 0, len(addrs))
	for _, a := range addrs {
		raw = append(raw, a.Bytes())
	}
	return raw
}
