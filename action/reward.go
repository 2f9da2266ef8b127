// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"
)

// ClaimReward pays the sender's pending rewards from a delegatee
type ClaimReward struct {
	delegatee string
}

// NewClaimReward returns a ClaimReward instance
func NewClaimReward(delegatee string) *ClaimReward {
	return &ClaimReward{delegatee: delegatee}
}

// Delegatee returns the delegatee address
func (c *ClaimReward) Delegatee() string { return c.delegatee }

// SanityCheck validates the variables in the action
func (c *ClaimReward) SanityCheck() error { return checkAddress(c.delegatee) }

func (c *ClaimReward) actionType() uint8 { return claimRewardType }

func (c *ClaimReward) payload() []interface{} { return []interface{}{c.delegatee} }

// AllocateReward moves reward from the sender into a delegatee's reward pool
type AllocateReward struct {
	delegatee string
	ticker    string
	amount    *big.Int
}

// NewAllocateReward returns an AllocateReward instance
func NewAllocateReward(delegatee, ticker, amount string) (*AllocateReward, error) {
	v, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}
	return &AllocateReward{
		delegatee: delegatee,
		ticker:    ticker,
		amount:    v,
	}, nil
}

// Delegatee returns the delegatee address
func (a *AllocateReward) Delegatee() string { return a.delegatee }

// Ticker returns the reward currency ticker
func (a *AllocateReward) Ticker() string { return a.ticker }

// Amount returns the amount
func (a *AllocateReward) Amount() *big.Int { return a.amount }

// SanityCheck validates the variables in the action
func (a *AllocateReward) SanityCheck() error {
	if err := checkPositive(a.amount); err != nil {
		return err
	}
	if a.ticker == "" {
		return ErrInvalidTicker
	}
	return checkAddress(a.delegatee)
}

func (a *AllocateReward) actionType() uint8 { return allocateRewardType }

func (a *AllocateReward) payload() []interface{} {
	return []interface{}{a.delegatee, a.ticker, a.amount}
}
