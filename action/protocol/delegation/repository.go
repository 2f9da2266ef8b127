// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"

	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/pkg/util/byteutil"
	"github.com/iotexproject/iotex-delegation/state"
)

const (
	// DelegateeMetadataNamespace is the namespace of delegatee metadata
	DelegateeMetadataNamespace = "DelegateeMetadata"
	// DelegatorMetadataNamespace is the namespace of delegator metadata
	DelegatorMetadataNamespace = "DelegatorMetadata"
	// BondNamespace is the namespace of bonds
	BondNamespace = "Bond"
	// UnbondLockInNamespace is the namespace of lock-in queues
	UnbondLockInNamespace = "UnbondLockIn"
	// RebondGraceNamespace is the namespace of rebond grace queues
	RebondGraceNamespace = "RebondGrace"
	// UnbondingSetNamespace is the namespace of the unbonding set
	UnbondingSetNamespace = "UnbondingSet"
	// RewardBaseNamespace is the namespace of reward bases and their snapshots
	RewardBaseNamespace = "RewardBase"
	// LumpSumRewardsRecordNamespace is the namespace of lump sum rewards records
	LumpSumRewardsRecordNamespace = "LumpSumRewardsRecord"
)

var (
	_unbondingSetKey = []byte("UnbondingSet")

	errReadOnly = errors.New("repository is read-only")
)

type (
	// BalanceReader reads balances
	BalanceReader interface {
		GetBalance(address.Address, state.Currency) (state.FungibleAssetValue, error)
	}

	// Transferer moves fungible assets, every call is all-or-nothing
	Transferer interface {
		BalanceReader
		TransferAsset(sender, recipient address.Address, amount state.FungibleAssetValue) error
		MintAsset(recipient address.Address, amount state.FungibleAssetValue) error
		BurnAsset(owner address.Address, amount state.FungibleAssetValue) error
	}

	// Repository maps the ledger entities to namespaced states
	Repository struct {
		sr         protocol.StateReader
		sm         protocol.StateManager
		balances   BalanceReader
		transferer Transferer
	}
)

// NewRepository creates a repository writing to sm and moving assets with t
func NewRepository(sm protocol.StateManager, t Transferer) *Repository {
	return &Repository{
		sr:         sm,
		sm:         sm,
		balances:   t,
		transferer: t,
	}
}

// NewReadOnlyRepository creates a repository reading from sr
func NewReadOnlyRepository(sr protocol.StateReader, br BalanceReader) *Repository {
	return &Repository{
		sr:       sr,
		balances: br,
	}
}

func (r *Repository) get(s interface{}, ns string, key []byte) (bool, error) {
	_, err := r.sr.State(s, protocol.NamespaceOption(ns), protocol.KeyOption(key))
	switch errors.Cause(err) {
	case nil:
		return true, nil
	case state.ErrStateNotExist:
		return false, nil
	default:
		return false, errors.Wrapf(err, "failed to read %s of key %x", ns, key)
	}
}

func (r *Repository) put(s interface{}, ns string, key []byte) error {
	if r.sm == nil {
		return errReadOnly
	}
	_, err := r.sm.PutState(s, protocol.NamespaceOption(ns), protocol.KeyOption(key))
	return errors.Wrapf(err, "failed to write %s of key %x", ns, key)
}

func (r *Repository) del(ns string, key []byte) error {
	if r.sm == nil {
		return errReadOnly
	}
	_, err := r.sm.DelState(protocol.NamespaceOption(ns), protocol.KeyOption(key))
	return errors.Wrapf(err, "failed to delete %s of key %x", ns, key)
}

// GetDelegateeMetadata returns the metadata of a registered delegatee
func (r *Repository) GetDelegateeMetadata(addr address.Address) (*DelegateeMetadata, error) {
	m := &DelegateeMetadata{}
	ok, err := r.get(m, DelegateeMetadataNamespace, addr.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNullDelegatee, "delegatee %s", addr.String())
	}
	return m, nil
}

// SetDelegateeMetadata stores the metadata of a delegatee
func (r *Repository) SetDelegateeMetadata(m *DelegateeMetadata) error {
	return r.put(m, DelegateeMetadataNamespace, m.Address().Bytes())
}

// GetDelegatorMetadata returns the metadata of a delegator that has delegated before
func (r *Repository) GetDelegatorMetadata(addr address.Address) (*DelegatorMetadata, error) {
	m := &DelegatorMetadata{}
	ok, err := r.get(m, DelegatorMetadataNamespace, addr.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNullDelegator, "delegator %s", addr.String())
	}
	return m, nil
}

// GetOrCreateDelegatorMetadata returns the metadata of a delegator, creating it on first reference
func (r *Repository) GetOrCreateDelegatorMetadata(addr address.Address) (*DelegatorMetadata, error) {
	m, err := r.GetDelegatorMetadata(addr)
	if errors.Cause(err) == ErrNullDelegator {
		return NewDelegatorMetadata(addr), nil
	}
	return m, err
}

// SetDelegatorMetadata stores the metadata of a delegator
func (r *Repository) SetDelegatorMetadata(m *DelegatorMetadata) error {
	return r.put(m, DelegatorMetadataNamespace, m.Address().Bytes())
}

// GetBond returns the bond of delegator on delegatee, empty if never created
func (r *Repository) GetBond(delegatee, delegator address.Address) (*Bond, error) {
	b := NewBond(delegatee, delegator)
	if _, err := r.get(b, BondNamespace, b.Address().Bytes()); err != nil {
		return nil, err
	}
	return b, nil
}

// SetBond stores the bond, an empty bond is deleted
func (r *Repository) SetBond(b *Bond) error {
	if b.IsEmpty() {
		return r.del(BondNamespace, b.Address().Bytes())
	}
	return r.put(b, BondNamespace, b.Address().Bytes())
}

// GetUnbondLockIn returns the lock-in queue of delegator on the delegatee, empty if never created
func (r *Repository) GetUnbondLockIn(delegatee *DelegateeMetadata, delegator address.Address) (*UnbondLockIn, error) {
	u := NewUnbondLockIn(
		delegatee.Address(),
		delegator,
		delegatee.DelegationCurrency(),
		delegatee.MaxUnbondLockInEntries(),
	)
	if _, err := r.get(u, UnbondLockInNamespace, u.Address().Bytes()); err != nil {
		return nil, err
	}
	u.SetMaxEntries(delegatee.MaxUnbondLockInEntries())
	return u, nil
}

// GetUnbondLockInByAddress returns the lock-in queue stored at addr
func (r *Repository) GetUnbondLockInByAddress(addr address.Address) (*UnbondLockIn, error) {
	u := &UnbondLockIn{}
	ok, err := r.get(u, UnbondLockInNamespace, addr.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrInvalidUnbondingRef, "no lock-in at %s", addr.String())
	}
	return u, nil
}

// SetUnbondLockIn stores the lock-in queue, an empty queue is deleted
func (r *Repository) SetUnbondLockIn(u *UnbondLockIn) error {
	if u.IsEmpty() {
		return r.del(UnbondLockInNamespace, u.Address().Bytes())
	}
	return r.put(u, UnbondLockInNamespace, u.Address().Bytes())
}

// GetRebondGrace returns the rebond grace queue of delegator leaving the delegatee, empty if never created
func (r *Repository) GetRebondGrace(delegatee *DelegateeMetadata, delegator address.Address) (*RebondGrace, error) {
	g := NewRebondGrace(
		delegatee.Address(),
		delegator,
		delegatee.DelegationCurrency(),
		delegatee.MaxRebondGraceEntries(),
	)
	if _, err := r.get(g, RebondGraceNamespace, g.Address().Bytes()); err != nil {
		return nil, err
	}
	g.SetMaxEntries(delegatee.MaxRebondGraceEntries())
	return g, nil
}

// GetRebondGraceByAddress returns the rebond grace queue stored at addr
func (r *Repository) GetRebondGraceByAddress(addr address.Address) (*RebondGrace, error) {
	g := &RebondGrace{}
	ok, err := r.get(g, RebondGraceNamespace, addr.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrInvalidUnbondingRef, "no rebond grace at %s", addr.String())
	}
	return g, nil
}

// SetRebondGrace stores the rebond grace queue, an empty queue is deleted
func (r *Repository) SetRebondGrace(g *RebondGrace) error {
	if g.IsEmpty() {
		return r.del(RebondGraceNamespace, g.Address().Bytes())
	}
	return r.put(g, RebondGraceNamespace, g.Address().Bytes())
}

// SetUnbonding stores an unbonding queue of either kind
func (r *Repository) SetUnbonding(u Unbonding) error {
	switch u := u.(type) {
	case *UnbondLockIn:
		return r.SetUnbondLockIn(u)
	case *RebondGrace:
		return r.SetRebondGrace(u)
	default:
		return errors.Wrapf(ErrInvalidUnbondingRef, "unknown unbonding %T", u)
	}
}

// GetUnbondingSet returns the unbonding set, empty if never created
func (r *Repository) GetUnbondingSet() (*UnbondingSet, error) {
	s := NewUnbondingSet()
	if _, err := r.get(s, UnbondingSetNamespace, _unbondingSetKey); err != nil {
		return nil, err
	}
	return s, nil
}

// SetUnbondingSet stores the unbonding set, an empty set is deleted
func (r *Repository) SetUnbondingSet(s *UnbondingSet) error {
	if s.IsEmpty() {
		return r.del(UnbondingSetNamespace, _unbondingSetKey)
	}
	return r.put(s, UnbondingSetNamespace, _unbondingSetKey)
}

// GetRewardBase returns the current reward base of delegatee
func (r *Repository) GetRewardBase(delegatee address.Address) (*RewardBase, error) {
	rb := &RewardBase{}
	ok, err := r.get(rb, RewardBaseNamespace, delegatee.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNullDelegatee, "no reward base of %s", delegatee.String())
	}
	return rb, nil
}

// SetRewardBase stores the current reward base
func (r *Repository) SetRewardBase(rb *RewardBase) error {
	return r.put(rb, RewardBaseNamespace, rb.Delegatee().Bytes())
}

func rewardBaseSnapshotKey(delegatee address.Address, height uint64) []byte {
	return byteutil.BytesConcat(delegatee.Bytes(), byteutil.Uint64ToBytesBigEndian(height))
}

// GetRewardBaseSnapshot returns the reward base recorded at height, if any
func (r *Repository) GetRewardBaseSnapshot(delegatee address.Address, height uint64) (*RewardBase, bool, error) {
	rb := &RewardBase{}
	ok, err := r.get(rb, RewardBaseNamespace, rewardBaseSnapshotKey(delegatee, height))
	if err != nil || !ok {
		return nil, false, err
	}
	return rb, true, nil
}

// SetRewardBaseSnapshot records the reward base at height, the first record of a height is kept
func (r *Repository) SetRewardBaseSnapshot(rb *RewardBase, height uint64) error {
	_, ok, err := r.GetRewardBaseSnapshot(rb.Delegatee(), height)
	if err != nil || ok {
		return err
	}
	return r.put(rb, RewardBaseNamespace, rewardBaseSnapshotKey(rb.Delegatee(), height))
}

func lumpSumRewardsRecordKey(delegatee address.Address, startHeight uint64) []byte {
	return byteutil.BytesConcat(delegatee.Bytes(), byteutil.Uint64ToBytesBigEndian(startHeight))
}

// GetLumpSumRewardsRecord returns the record of delegatee for the period starting at startHeight
func (r *Repository) GetLumpSumRewardsRecord(delegatee address.Address, startHeight uint64) (*LumpSumRewardsRecord, error) {
	rec := &LumpSumRewardsRecord{}
	ok, err := r.get(rec, LumpSumRewardsRecordNamespace, lumpSumRewardsRecordKey(delegatee, startHeight))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(state.ErrStateNotExist, "no lump sum record of %s at %d", delegatee.String(), startHeight)
	}
	return rec, nil
}

// SetLumpSumRewardsRecord stores a record, a record newer than the chain head becomes the head and is linked to it
func (r *Repository) SetLumpSumRewardsRecord(rec *LumpSumRewardsRecord) error {
	m, err := r.GetDelegateeMetadata(rec.Delegatee())
	if err != nil {
		return err
	}
	head, ok := m.LegacyHead()
	if !ok || rec.StartHeight() > head {
		if _, linked := rec.LastStartHeight(); ok && !linked {
			if err := rec.SetLastStartHeight(head); err != nil {
				return err
			}
		}
		m.setLegacyHead(rec.StartHeight())
		if err := r.SetDelegateeMetadata(m); err != nil {
			return err
		}
	}
	return r.put(rec, LumpSumRewardsRecordNamespace, lumpSumRewardsRecordKey(rec.Delegatee(), rec.StartHeight()))
}

// TransferAsset moves amount from sender to recipient
func (r *Repository) TransferAsset(sender, recipient address.Address, amount state.FungibleAssetValue) error {
	if r.transferer == nil {
		return errReadOnly
	}
	return r.transferer.TransferAsset(sender, recipient, amount)
}

// GetBalance returns the balance of addr in currency
func (r *Repository) GetBalance(addr address.Address, currency state.Currency) (state.FungibleAssetValue, error) {
	return r.balances.GetBalance(addr, currency)
}
