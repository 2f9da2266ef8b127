// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

const (
	_delegationPoolKind    = "DelegationPool"
	_rewardCollectorKind   = "RewardCollector"
	_rewardDistributorKind = "RewardDistributor"
	_slashedPoolKind       = "SlashedPool"
	_bondKind              = "Bond"
	_unbondLockInKind      = "UnbondLockIn"
	_rebondGraceKind       = "RebondGrace"
)

// deriveAddress returns the address of an entity of the kind owned by the owners
func deriveAddress(kind string, owners ...address.Address) address.Address {
	b := []byte(kind)
	for _, owner := range owners {
		b = append(b, owner.Bytes()...)
	}
	h := hash.Hash160b(b)
	addr, err := address.FromBytes(h[:])
	if err != nil {
		panic(errors.Wrapf(err, "failed to derive %s address", kind))
	}
	return addr
}

// BondAddress returns the address of the bond of delegator on delegatee
func BondAddress(delegatee, delegator address.Address) address.Address {
	return deriveAddress(_bondKind, delegatee, delegator)
}

// UnbondLockInAddress returns the address of the lock-in queue of delegator on delegatee
func UnbondLockInAddress(delegatee, delegator address.Address) address.Address {
	return deriveAddress(_unbondLockInKind, delegatee, delegator)
}

// RebondGraceAddress returns the address of the rebond grace queue of delegator leaving delegatee
func RebondGraceAddress(delegatee, delegator address.Address) address.Address {
	return deriveAddress(_rebondGraceKind, delegatee, delegator)
}
