// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

// Delegation binds the bond and the unbonding queues of one delegator on one delegatee for a single operation
type Delegation struct {
	repo      *Repository
	delegatee *Delegatee
	delegator *Delegator
	bond      *Bond
	lockIn    *UnbondLockIn
	grace     *RebondGrace
}

func newDelegation(repo *Repository, delegatee *Delegatee, delegator *Delegator) (*Delegation, error) {
	bond, err := repo.GetBond(delegatee.Address(), delegator.Address())
	if err != nil {
		return nil, err
	}
	lockIn, err := repo.GetUnbondLockIn(delegatee.DelegateeMetadata, delegator.Address())
	if err != nil {
		return nil, err
	}
	grace, err := repo.GetRebondGrace(delegatee.DelegateeMetadata, delegator.Address())
	if err != nil {
		return nil, err
	}
	return &Delegation{
		repo:      repo,
		delegatee: delegatee,
		delegator: delegator,
		bond:      bond,
		lockIn:    lockIn,
		grace:     grace,
	}, nil
}

// Bond returns the bond of the delegation
func (s *Delegation) Bond() *Bond { return s.bond }

// UnbondLockIn returns the lock-in queue of the delegation
func (s *Delegation) UnbondLockIn() *UnbondLockIn { return s.lockIn }

// RebondGrace returns the rebond grace queue of the delegation
func (s *Delegation) RebondGrace() *RebondGrace { return s.grace }

// Commit stores the bond, the queues, the unbonding index and the delegatee membership of the delegator
func (s *Delegation) Commit() error {
	delegatee := s.delegatee.Address()
	if s.bond.IsEmpty() {
		s.delegator.RemoveDelegatee(delegatee)
	} else {
		s.delegator.AddDelegatee(delegatee)
	}
	if err := s.repo.SetBond(s.bond); err != nil {
		return err
	}
	if err := s.repo.SetUnbondLockIn(s.lockIn); err != nil {
		return err
	}
	if err := s.repo.SetRebondGrace(s.grace); err != nil {
		return err
	}
	set, err := s.repo.GetUnbondingSet()
	if err != nil {
		return err
	}
	set.Update(s.lockIn)
	set.Update(s.grace)
	if err := s.repo.SetUnbondingSet(set); err != nil {
		return err
	}
	return s.repo.SetDelegatorMetadata(s.delegator.DelegatorMetadata)
}
