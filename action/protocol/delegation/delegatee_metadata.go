// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-delegation/state"
)

type (
	// DelegateePolicy is the configuration a delegatee is registered with
	DelegateePolicy struct {
		DelegationCurrency     state.Currency
		RewardCurrencies       []state.Currency
		UnbondingPeriod        uint64
		MaxUnbondLockInEntries uint32
		MaxRebondGraceEntries  uint32
	}

	// DelegateeMetadata is the ledger state of a delegatee
	DelegateeMetadata struct {
		address               address.Address
		policy                DelegateePolicy
		delegators            []address.Address
		totalDelegated        state.FungibleAssetValue
		totalShares           *big.Int
		jailed                bool
		jailedUntil           uint64
		tombstoned            bool
		rewardCollectedHeight uint64
		legacyHead            uint64
		hasLegacy             bool
	}

	delegateeMetadataStore struct {
		Address                []byte
		DelegationCurrency     state.Currency
		RewardCurrencies       []state.Currency
		UnbondingPeriod        uint64
		MaxUnbondLockInEntries uint32
		MaxRebondGraceEntries  uint32
		Delegators             [][]byte
		TotalDelegated         state.FungibleAssetValue
		TotalShares            *big.Int
		Jailed                 bool
		JailedUntil            uint64
		Tombstoned             bool
		RewardCollectedHeight  uint64
		HasLegacy              bool
		LegacyHead             uint64
	}
)

// Validate checks the policy
func (p DelegateePolicy) Validate() error {
	if p.DelegationCurrency.Ticker == "" {
		return errors.Wrap(ErrInvalidPolicy, "empty delegation currency")
	}
	if p.UnbondingPeriod == 0 {
		return errors.Wrap(ErrInvalidPolicy, "unbonding period must be positive")
	}
	if p.MaxUnbondLockInEntries == 0 || p.MaxRebondGraceEntries == 0 {
		return errors.Wrap(ErrInvalidPolicy, "max entries must be positive")
	}
	for i, c := range p.RewardCurrencies {
		if c.Ticker == "" {
			return errors.Wrap(ErrInvalidPolicy, "empty reward currency")
		}
		for _, o := range p.RewardCurrencies[:i] {
			if o.Equal(c) {
				return errors.Wrapf(ErrInvalidPolicy, "duplicate reward currency %s", c)
			}
		}
	}
	return nil
}

// NewDelegateeMetadata creates the metadata of a new delegatee
func NewDelegateeMetadata(addr address.Address, policy DelegateePolicy) (*DelegateeMetadata, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	policy.RewardCurrencies = append([]state.Currency(nil), policy.RewardCurrencies...)
	return &DelegateeMetadata{
		address:        addr,
		policy:         policy,
		totalDelegated: policy.DelegationCurrency.Zero(),
		totalShares:    big.NewInt(0),
	}, nil
}

// Address returns the address of the delegatee
func (m *DelegateeMetadata) Address() address.Address { return m.address }

// DelegationCurrency returns the currency the delegatee accepts
func (m *DelegateeMetadata) DelegationCurrency() state.Currency { return m.policy.DelegationCurrency }

// RewardCurrencies returns the currencies the delegatee pays rewards in
func (m *DelegateeMetadata) RewardCurrencies() []state.Currency {
	return append([]state.Currency(nil), m.policy.RewardCurrencies...)
}

// IsRewardCurrency returns true if rewards are paid in currency
func (m *DelegateeMetadata) IsRewardCurrency(currency state.Currency) bool {
	for _, c := range m.policy.RewardCurrencies {
		if c.Equal(currency) {
			return true
		}
	}
	return false
}

// UnbondingPeriod returns the number of blocks a withdrawal is locked in
func (m *DelegateeMetadata) UnbondingPeriod() uint64 { return m.policy.UnbondingPeriod }

// MaxUnbondLockInEntries returns the capacity of a lock-in queue
func (m *DelegateeMetadata) MaxUnbondLockInEntries() uint32 { return m.policy.MaxUnbondLockInEntries }

// MaxRebondGraceEntries returns the capacity of a rebond grace queue
func (m *DelegateeMetadata) MaxRebondGraceEntries() uint32 { return m.policy.MaxRebondGraceEntries }

// DelegationPoolAddress returns the address escrowing the delegated value
func (m *DelegateeMetadata) DelegationPoolAddress() address.Address {
	return deriveAddress(_delegationPoolKind, m.address)
}

// RewardPoolAddress returns the address rewards are deposited to before being collected
func (m *DelegateeMetadata) RewardPoolAddress() address.Address {
	return deriveAddress(_rewardCollectorKind, m.address)
}

// RewardDistributorAddress returns the address collected rewards are paid from
func (m *DelegateeMetadata) RewardDistributorAddress() address.Address {
	return deriveAddress(_rewardDistributorKind, m.address)
}

// SlashedPoolAddress returns the address seized value is moved to
func (m *DelegateeMetadata) SlashedPoolAddress() address.Address {
	return deriveAddress(_slashedPoolKind, m.address)
}

// Delegators returns the delegators holding a bond, sorted by address bytes
func (m *DelegateeMetadata) Delegators() []address.Address {
	return append([]address.Address(nil), m.delegators...)
}

// ContainsDelegator returns true if delegator holds a bond
func (m *DelegateeMetadata) ContainsDelegator(delegator address.Address) bool {
	_, ok := searchAddress(m.delegators, delegator)
	return ok
}

// AddDelegator adds delegator to the delegator set
func (m *DelegateeMetadata) AddDelegator(delegator address.Address) {
	m.delegators = insertAddress(m.delegators, delegator)
}

// RemoveDelegator removes delegator from the delegator set
func (m *DelegateeMetadata) RemoveDelegator(delegator address.Address) {
	m.delegators = removeAddress(m.delegators, delegator)
}

// TotalDelegated returns the value backing the shares
func (m *DelegateeMetadata) TotalDelegated() state.FungibleAssetValue { return m.totalDelegated.Clone() }

// TotalShares returns a copy of the shares outstanding
func (m *DelegateeMetadata) TotalShares() *big.Int { return new(big.Int).Set(m.totalShares) }

func (m *DelegateeMetadata) checkExchangeRate() error {
	if m.totalDelegated.Sign() == 0 && m.totalShares.Sign() > 0 {
		return errors.Wrapf(
			ErrInvalidExchangeRate,
			"delegatee %s has %s shares and no delegated value",
			m.address.String(),
			m.totalShares,
		)
	}
	return nil
}

// ShareFromFAV returns the shares minted for fav at the current share price
func (m *DelegateeMetadata) ShareFromFAV(fav state.FungibleAssetValue) (*big.Int, error) {
	if !fav.Currency.Equal(m.policy.DelegationCurrency) {
		return nil, errors.Wrapf(ErrInvalidCurrency, "currency %s, delegatee accepts %s", fav.Currency, m.policy.DelegationCurrency)
	}
	if err := m.checkExchangeRate(); err != nil {
		return nil, err
	}
	if m.totalShares.Sign() == 0 {
		return new(big.Int).Set(fav.Raw), nil
	}
	share := new(big.Int).Mul(m.totalShares, fav.Raw)
	return share.Quo(share, m.totalDelegated.Raw), nil
}

// FAVFromShare returns the value redeemed by share, redeeming every share returns the whole delegated value
func (m *DelegateeMetadata) FAVFromShare(share *big.Int) (state.FungibleAssetValue, error) {
	if share.Cmp(m.totalShares) > 0 {
		return m.policy.DelegationCurrency.Zero(), errors.Wrapf(
			ErrInsufficientShare,
			"total shares %s, required %s",
			m.totalShares,
			share,
		)
	}
	if share.Cmp(m.totalShares) == 0 {
		return m.totalDelegated.Clone(), nil
	}
	fav := new(big.Int).Mul(m.totalDelegated.Raw, share)
	return m.policy.DelegationCurrency.Raw(fav.Quo(fav, m.totalShares)), nil
}

// AddBond records share minted for fav
func (m *DelegateeMetadata) AddBond(share *big.Int, fav state.FungibleAssetValue) error {
	if share.Sign() < 0 || fav.Sign() < 0 {
		return errors.Wrapf(ErrInvalidAmount, "share %s, amount %s", share, fav)
	}
	total, err := m.totalDelegated.Add(fav)
	if err != nil {
		return errors.Wrap(ErrInvalidCurrency, err.Error())
	}
	m.totalDelegated = total
	m.totalShares.Add(m.totalShares, share)
	return nil
}

// RemoveBond records share redeemed for fav
func (m *DelegateeMetadata) RemoveBond(share *big.Int, fav state.FungibleAssetValue) error {
	if share.Sign() < 0 || fav.Sign() < 0 {
		return errors.Wrapf(ErrInvalidAmount, "share %s, amount %s", share, fav)
	}
	if share.Cmp(m.totalShares) > 0 {
		return errors.Wrapf(ErrInsufficientShare, "total shares %s, required %s", m.totalShares, share)
	}
	total, err := m.totalDelegated.Sub(fav)
	if err != nil {
		return errors.Wrap(ErrInvalidCurrency, err.Error())
	}
	if total.Sign() < 0 {
		return errors.Wrapf(ErrInvalidExchangeRate, "total delegated %s, required %s", m.totalDelegated, fav)
	}
	m.totalDelegated = total
	m.totalShares.Sub(m.totalShares, share)
	return nil
}

// SlashBonded seizes ceil(totalDelegated / slashFactor) of the bonded value, shares are untouched
func (m *DelegateeMetadata) SlashBonded(slashFactor *big.Int) (state.FungibleAssetValue, error) {
	if slashFactor == nil || slashFactor.Sign() <= 0 {
		return m.policy.DelegationCurrency.Zero(), errors.Wrapf(ErrInvalidAmount, "slash factor %v", slashFactor)
	}
	amount := slashAmount(m.totalDelegated.Raw, m.totalDelegated.Raw, slashFactor)
	m.totalDelegated.Raw.Sub(m.totalDelegated.Raw, amount)
	return m.policy.DelegationCurrency.Raw(amount), nil
}

// IsJailed returns true if the delegatee cannot take delegation
func (m *DelegateeMetadata) IsJailed() bool { return m.jailed }

// JailedUntil returns the first height the delegatee may be unjailed at
func (m *DelegateeMetadata) JailedUntil() uint64 { return m.jailedUntil }

// IsTombstoned returns true if the delegatee is jailed forever
func (m *DelegateeMetadata) IsTombstoned() bool { return m.tombstoned }

// Jail jails the delegatee until the height, an earlier release is never brought forward
func (m *DelegateeMetadata) Jail(until uint64) {
	m.jailed = true
	if until > m.jailedUntil {
		m.jailedUntil = until
	}
}

// Unjail releases the delegatee at height
func (m *DelegateeMetadata) Unjail(height uint64) error {
	if m.tombstoned {
		return errors.Wrapf(ErrTombstoned, "delegatee %s", m.address.String())
	}
	if !m.jailed {
		return nil
	}
	if height < m.jailedUntil {
		return errors.Wrapf(ErrJailed, "delegatee %s is jailed until %d", m.address.String(), m.jailedUntil)
	}
	m.jailed = false
	m.jailedUntil = 0
	return nil
}

// Tombstone jails the delegatee forever
func (m *DelegateeMetadata) Tombstone() {
	m.jailed = true
	m.jailedUntil = math.MaxUint64
	m.tombstoned = true
}

// RewardCollectedHeight returns the last height rewards were collected at
func (m *DelegateeMetadata) RewardCollectedHeight() uint64 { return m.rewardCollectedHeight }

// LegacyHead returns the start height of the latest lump sum rewards record, if any
func (m *DelegateeMetadata) LegacyHead() (uint64, bool) { return m.legacyHead, m.hasLegacy }

func (m *DelegateeMetadata) setLegacyHead(height uint64) {
	m.legacyHead, m.hasLegacy = height, true
}

// Serialize serializes the metadata into bytes
func (m *DelegateeMetadata) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(&delegateeMetadataStore{
		Address:                m.address.Bytes(),
		DelegationCurrency:     m.policy.DelegationCurrency,
		RewardCurrencies:       m.policy.RewardCurrencies,
		UnbondingPeriod:        m.policy.UnbondingPeriod,
		MaxUnbondLockInEntries: m.policy.MaxUnbondLockInEntries,
		MaxRebondGraceEntries:  m.policy.MaxRebondGraceEntries,
		Delegators:             encodeAddresses(m.delegators),
		TotalDelegated:         m.totalDelegated,
		TotalShares:            m.totalShares,
		Jailed:                 m.jailed,
		JailedUntil:            m.jailedUntil,
		Tombstoned:             m.tombstoned,
		RewardCollectedHeight:  m.rewardCollectedHeight,
		HasLegacy:              m.hasLegacy,
		LegacyHead:             m.legacyHead,
	})
}

// Deserialize deserializes bytes into the metadata
func (m *DelegateeMetadata) Deserialize(buf []byte) error {
	var s delegateeMetadataStore
	if err := rlp.DecodeBytes(buf, &s); err != nil {
		return err
	}
	addr, err := address.FromBytes(s.Address)
	if err != nil {
		return errors.Wrap(err, "failed to decode delegatee address")
	}
	delegators, err := decodeAddresses(s.Delegators)
	if err != nil {
		return err
	}
	*m = DelegateeMetadata{
		address: addr,
		policy: DelegateePolicy{
			DelegationCurrency:     s.DelegationCurrency,
			RewardCurrencies:       s.RewardCurrencies,
			UnbondingPeriod:        s.UnbondingPeriod,
			MaxUnbondLockInEntries: s.MaxUnbondLockInEntries,
			MaxRebondGraceEntries:  s.MaxRebondGraceEntries,
		},
		delegators:            delegators,
		totalDelegated:        s.TotalDelegated,
		totalShares:           s.TotalShares,
		jailed:                s.Jailed,
		jailedUntil:           s.JailedUntil,
		tombstoned:            s.Tombstoned,
		rewardCollectedHeight: s.RewardCollectedHeight,
		legacyHead:            s.LegacyHead,
		hasLegacy:             s.HasLegacy,
	}
	if m.totalShares == nil {
		m.totalShares = big.NewInt(0)
	}
	if m.totalDelegated.Raw == nil {
		m.totalDelegated.Raw = big.NewInt(0)
	}
	return nil
}
