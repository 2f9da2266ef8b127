// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

type (
	// DelegatorMetadata is the ledger state of a delegator
	DelegatorMetadata struct {
		address    address.Address
		delegatees []address.Address
	}

	delegatorMetadataStore struct {
		Address    []byte
		Delegatees [][]byte
	}
)

// NewDelegatorMetadata creates the metadata of a new delegator
func NewDelegatorMetadata(addr address.Address) *DelegatorMetadata {
	return &DelegatorMetadata{address: addr}
}

// Address returns the address of the delegator
func (m *DelegatorMetadata) Address() address.Address { return m.address }

// DelegationPoolAddress returns the address delegated value is paid from and released to
func (m *DelegatorMetadata) DelegationPoolAddress() address.Address { return m.address }

// RewardAddress returns the address rewards are paid to
func (m *DelegatorMetadata) RewardAddress() address.Address { return m.address }

// Delegatees returns the delegatees the delegator holds a bond on, sorted by address bytes
func (m *DelegatorMetadata) Delegatees() []address.Address {
	return append([]address.Address(nil), m.delegatees...)
}

// ContainsDelegatee returns true if the delegator holds a bond on delegatee
func (m *DelegatorMetadata) ContainsDelegatee(delegatee address.Address) bool {
	_, ok := searchAddress(m.delegatees, delegatee)
	return ok
}

// AddDelegatee adds delegatee to the delegatee set
func (m *DelegatorMetadata) AddDelegatee(delegatee address.Address) {
	m.delegatees = insertAddress(m.delegatees, delegatee)
}

// RemoveDelegatee removes delegatee from the delegatee set
func (m *DelegatorMetadata) RemoveDelegatee(delegatee address.Address) {
	m.delegatees = removeAddress(m.delegatees, delegatee)
}

// Serialize serializes the metadata into bytes
func (m *DelegatorMetadata) Serialize() ([]byte, error) {
	return rlp.EncodeToBytes(&delegatorMetadataStore{
		Address:    m.address.Bytes(),
		Delegatees: encodeAddresses(m.delegatees),
	})
}

// Deserialize deserializes bytes into the metadata
func (m *DelegatorMetadata) Deserialize(buf []byte) error {
	var s delegatorMetadataStore
	if err := rlp.DecodeBytes(buf, &s); err != nil {
		return err
	}
	addr, err := address.FromBytes(s.Address)
	if err != nil {
		return errors.Wrap(err, "failed to decode delegator address")
	}
	delegatees, err := decodeAddresses(s.Delegatees)
	if err != nil {
		return err
	}
	m.address = addr
	m.delegatees = delegatees
	return nil
}
