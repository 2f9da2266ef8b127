// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"
)

// RegisterDelegatee registers the sender as a delegatee
type RegisterDelegatee struct{}

// NewRegisterDelegatee returns a RegisterDelegatee instance
func NewRegisterDelegatee() *RegisterDelegatee {
	return &RegisterDelegatee{}
}

// SanityCheck validates the variables in the action
func (rd *RegisterDelegatee) SanityCheck() error { return nil }

func (rd *RegisterDelegatee) actionType() uint8 { return registerDelegateeType }

func (rd *RegisterDelegatee) payload() []interface{} { return []interface{}{} }

// Delegate bonds an amount of the delegation currency to a delegatee
type Delegate struct {
	delegatee string
	amount    *big.Int
}

// NewDelegate returns a Delegate instance
func NewDelegate(delegatee, amount string) (*Delegate, error) {
	v, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	return &Delegate{
		delegatee: delegatee,
		amount:    v,
	}, nil
}

// Delegatee returns the delegatee address
func (d *Delegate) Delegatee() string { return d.delegatee }

// Amount returns the amount
func (d *Delegate) Amount() *big.Int { return d.amount }

// SanityCheck validates the variables in the action
func (d *Delegate) SanityCheck() error {
	if err := checkPositive(d.amount); err != nil {
		return err
	}
	return checkAddress(d.delegatee)
}

func (d *Delegate) actionType() uint8 { return delegateType }

func (d *Delegate) payload() []interface{} { return []interface{}{d.delegatee, d.amount} }

// Undelegate redeems shares of a delegatee into an unbonding lock-in
type Undelegate struct {
	delegatee string
	share     *big.Int
}

// NewUndelegate returns an Undelegate instance
func NewUndelegate(delegatee, share string) (*Undelegate, error) {
	v, err := parseAmount(share)
	if err != nil {
		return nil, err
	}
	return &Undelegate{
		delegatee: delegatee,
		share:     v,
	}, nil
}

// Delegatee returns the delegatee address
func (u *Undelegate) Delegatee() string { return u.delegatee }

// Share returns the share to redeem
func (u *Undelegate) Share() *big.Int { return u.share }

// SanityCheck validates the variables in the action
func (u *Undelegate) SanityCheck() error {
	if err := checkPositive(u.share); err != nil {
		return err
	}
	return checkAddress(u.delegatee)
}

func (u *Undelegate) actionType() uint8 { return undelegateType }

func (u *Undelegate) payload() []interface{} { return []interface{}{u.delegatee, u.share} }

// Redelegate moves shares from one delegatee to another
type Redelegate struct {
	src   string
	dst   string
	share *big.Int
}

// NewRedelegate returns a Redelegate instance
func NewRedelegate(src, dst, share string) (*Redelegate, error) {
	v, err := parseAmount(share)
	if err != nil {
		return nil, err
	}
	return &Redelegate{
		src:   src,
		dst:   dst,
		share: v,
	}, nil
}

// Src returns the source delegatee address
func (r *Redelegate) Src() string { return r.src }

// Dst returns the destination delegatee address
func (r *Redelegate) Dst() string { return r.dst }

// Share returns the share to move
func (r *Redelegate) Share() *big.Int { return r.share }

// SanityCheck validates the variables in the action
func (r *Redelegate) SanityCheck() error {
	if err := checkPositive(r.share); err != nil {
		return err
	}
	if err := checkAddress(r.src); err != nil {
		return err
	}
	if err := checkAddress(r.dst); err != nil {
		return err
	}
	if r.src == r.dst {
		return ErrSameDelegatee
	}
	return nil
}

func (r *Redelegate) actionType() uint8 { return redelegateType }

func (r *Redelegate) payload() []interface{} { return []interface{}{r.src, r.dst, r.share} }

// CancelUnbonding re-bonds an amount of pending lock-in
type CancelUnbonding struct {
	delegatee string
	amount    *big.Int
}

// NewCancelUnbonding returns a CancelUnbonding instance
func NewCancelUnbonding(delegatee, amount string) (*CancelUnbonding, error) {
	v, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	return &CancelUnbonding{
		delegatee: delegatee,
		amount:    v,
	}, nil
}

// Delegatee returns the delegatee address
func (c *CancelUnbonding) Delegatee() string { return c.delegatee }

// Amount returns the amount to cancel
func (c *CancelUnbonding) Amount() *big.Int { return c.amount }

// SanityCheck validates the variables in the action
func (c *CancelUnbonding) SanityCheck() error {
	if err := checkPositive(c.amount); err != nil {
		return err
	}
	return checkAddress(c.delegatee)
}

func (c *CancelUnbonding) actionType() uint8 { return cancelUnbondingType }

func (c *CancelUnbonding) payload() []interface{} { return []interface{}{c.delegatee, c.amount} }
