// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"

	"github.com/pkg/errors"
)

// Jail bars a delegatee from receiving delegation until a height
type Jail struct {
	delegatee string
	until     uint64
}

// NewJail returns a Jail instance
func NewJail(delegatee string, until uint64) *Jail {
	return &Jail{delegatee: delegatee, until: until}
}

// Delegatee returns the delegatee address
func (j *Jail) Delegatee() string { return j.delegatee }

// Until returns the height the delegatee can be unjailed at
func (j *Jail) Until() uint64 { return j.until }

// SanityCheck validates the variables in the action
func (j *Jail) SanityCheck() error { return checkAddress(j.delegatee) }

func (j *Jail) actionType() uint8 { return jailType }

func (j *Jail) payload() []interface{} { return []interface{}{j.delegatee, j.until} }

// Unjail releases the sender from jail
type Unjail struct{}

// NewUnjail returns an Unjail instance
func NewUnjail() *Unjail { return &Unjail{} }

// SanityCheck validates the variables in the action
func (u *Unjail) SanityCheck() error { return nil }

func (u *Unjail) actionType() uint8 { return unjailType }

func (u *Unjail) payload() []interface{} { return []interface{}{} }

// Tombstone bars a delegatee permanently
type Tombstone struct {
	delegatee string
}

// NewTombstone returns a Tombstone instance
func NewTombstone(delegatee string) *Tombstone { return &Tombstone{delegatee: delegatee} }

// Delegatee returns the delegatee address
func (t *Tombstone) Delegatee() string { return t.delegatee }

// SanityCheck validates the variables in the action
func (t *Tombstone) SanityCheck() error { return checkAddress(t.delegatee) }

func (t *Tombstone) actionType() uint8 { return tombstoneType }

func (t *Tombstone) payload() []interface{} { return []interface{}{t.delegatee} }

// Slash seizes a fraction of a delegatee's bonded and unbonding value for an infraction
type Slash struct {
	delegatee        string
	infractionHeight uint64
	slashFactor      *big.Int
	jailUntil        uint64
	tombstone        bool
}

// NewSlash returns a Slash instance, jailUntil of 0 leaves the jail status untouched
func NewSlash(delegatee string, infractionHeight uint64, slashFactor string, jailUntil uint64, tombstone bool) (*Slash, error) {
	f, err := parseAmount(slashFactor)
	if err != nil {
		return nil, err
	}
	return &Slash{
		delegatee:        delegatee,
		infractionHeight: infractionHeight,
		slashFactor:      f,
		jailUntil:        jailUntil,
		tombstone:        tombstone,
	}, nil
}

// Delegatee returns the delegatee address
func (s *Slash) Delegatee() string { return s.delegatee }

// InfractionHeight returns the height the infraction happened at
func (s *Slash) InfractionHeight() uint64 { return s.infractionHeight }

// SlashFactor returns the divisor of the seized fraction
func (s *Slash) SlashFactor() *big.Int { return s.slashFactor }

// JailUntil returns the jail release height
func (s *Slash) JailUntil() uint64 { return s.jailUntil }

// Tombstone returns true if the delegatee is tombstoned as well
func (s *Slash) Tombstone() bool { return s.tombstone }

// SanityCheck validates the variables in the action
func (s *Slash) SanityCheck() error {
	if err := checkPositive(s.slashFactor); err != nil {
		return errors.Wrap(err, "slash factor")
	}
	return checkAddress(s.delegatee)
}

func (s *Slash) actionType() uint8 { return slashType }

func (s *Slash) payload() []interface{} {
	return []interface{}{s.delegatee, s.infractionHeight, s.slashFactor, s.jailUntil, s.tombstone}
}
