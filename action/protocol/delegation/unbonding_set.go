// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"bytes"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/btree"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

type (
	unbondingIndexItem struct {
		height uint64
		ref    UnbondingRef
	}

	// UnbondingSet indexes the unbonding queues holding entries by their earliest expire height, globally and
	// per delegatee
	UnbondingSet struct {
		index       *btree.BTreeG[unbondingIndexItem]
		byDelegatee map[string]*btree.BTreeG[unbondingIndexItem]
		items       map[string]unbondingIndexItem
	}

	unbondingSetItemStore struct {
		Height    uint64
		Address   []byte
		Kind      uint8
		Delegatee []byte
	}
)

func lessUnbondingIndexItem(a, b unbondingIndexItem) bool {
	if a.height != b.height {
		return a.height < b.height
	}
	if c := bytes.Compare(a.ref.Address.Bytes(), b.ref.Address.Bytes()); c != 0 {
		return c < 0
	}
	return a.ref.Kind < b.ref.Kind
}

// NewUnbondingSet creates an empty unbonding set
func NewUnbondingSet() *UnbondingSet {
	return &UnbondingSet{
		index:       btree.NewG[unbondingIndexItem](_queueDegree, lessUnbondingIndexItem),
		byDelegatee: make(map[string]*btree.BTreeG[unbondingIndexItem]),
		items:       make(map[string]unbondingIndexItem),
	}
}

func (s *UnbondingSet) insert(item unbondingIndexItem) {
	s.index.ReplaceOrInsert(item)
	s.items[item.ref.Address.String()] = item
	key := item.ref.Delegatee.String()
	tree, ok := s.byDelegatee[key]
	if !ok {
		tree = btree.NewG[unbondingIndexItem](_queueDegree, lessUnbondingIndexItem)
		s.byDelegatee[key] = tree
	}
	tree.ReplaceOrInsert(item)
}

func (s *UnbondingSet) remove(item unbondingIndexItem) {
	s.index.Delete(item)
	delete(s.items, item.ref.Address.String())
	key := item.ref.Delegatee.String()
	if tree, ok := s.byDelegatee[key]; ok {
		tree.Delete(item)
		if tree.Len() == 0 {
			delete(s.byDelegatee, key)
		}
	}
}

// Len returns the number of indexed queues
func (s *UnbondingSet) Len() int { return len(s.items) }

// IsEmpty returns true if no queue is indexed
func (s *UnbondingSet) IsEmpty() bool { return len(s.items) == 0 }

// Contains returns true if the queue at addr is indexed
func (s *UnbondingSet) Contains(addr address.Address) bool {
	_, ok := s.items[addr.String()]
	return ok
}

// Update re-indexes u, a queue without entries leaves the set
func (s *UnbondingSet) Update(u Unbonding) {
	if old, ok := s.items[u.Address().String()]; ok {
		s.remove(old)
	}
	height, ok := u.LowestExpireHeight()
	if !ok || u.IsEmpty() {
		return
	}
	s.insert(unbondingIndexItem{height: height, ref: NewUnbondingRef(u)})
}

// Matured returns the queues holding an entry expiring at or before height, earliest first
func (s *UnbondingSet) Matured(height uint64) []UnbondingRef {
	var refs []UnbondingRef
	s.index.Ascend(func(item unbondingIndexItem) bool {
		if item.height > height {
			return false
		}
		refs = append(refs, item.ref)
		return true
	})
	return refs
}

// Refs returns every indexed queue, earliest first
func (s *UnbondingSet) Refs() []UnbondingRef {
	return s.filter(func(UnbondingRef) bool { return true })
}

// OfDelegatee returns the indexed queues on delegatee, earliest first
func (s *UnbondingSet) OfDelegatee(delegatee address.Address) []UnbondingRef {
	tree, ok := s.byDelegatee[delegatee.String()]
	if !ok {
		return nil
	}
	refs := make([]UnbondingRef, 0, tree.Len())
	tree.Ascend(func(item unbondingIndexItem) bool {
		refs = append(refs, item.ref)
		return true
	})
	return refs
}

// UnbondLockIns returns the indexed lock-in queues
func (s *UnbondingSet) UnbondLockIns() []UnbondingRef {
	return s.filter(func(ref UnbondingRef) bool { return ref.Kind == UnbondLockInKind })
}

// RebondGraces returns the indexed rebond grace queues
func (s *UnbondingSet) RebondGraces() []UnbondingRef {
	return s.filter(func(ref UnbondingRef) bool { return ref.Kind == RebondGraceKind })
}

func (s *UnbondingSet) filter(pred func(UnbondingRef) bool) []UnbondingRef {
	refs := make([]UnbondingRef, 0, len(s.items))
	s.index.Ascend(func(item unbondingIndexItem) bool {
		if pred(item.ref) {
			refs = append(refs, item.ref)
		}
		return true
	})
	return refs
}

// Serialize serializes the set into bytes
func (s *UnbondingSet) Serialize() ([]byte, error) {
	items := make([]*unbondingSetItemStore, 0, len(s.items))
	s.index.Ascend(func(item unbondingIndexItem) bool {
		items = append(items, &unbondingSetItemStore{
			Height:    item.height,
			Address:   item.ref.Address.Bytes(),
			Kind:      uint8(item.ref.Kind),
			Delegatee: item.ref.Delegatee.Bytes(),
		})
		return true
	})
	return rlp.EncodeToBytes(items)
}

// Deserialize deserializes bytes into the set
func (s *UnbondingSet) Deserialize(buf []byte) error {
	var items []*unbondingSetItemStore
	if err := rlp.DecodeBytes(buf, &items); err != nil {
		return err
	}
	*s = *NewUnbondingSet()
	for _, i := range items {
		addr, err := address.FromBytes(i.Address)
		if err != nil {
			return errors.Wrap(err, "failed to decode unbonding address")
		}
		kind := UnbondingKind(i.Kind)
		if kind != UnbondLockInKind && kind != RebondGraceKind {
			return errors.Wrapf(ErrInvalidUnbondingRef, "unknown kind %d of %s", i.Kind, addr.String())
		}
		delegatee, err := address.FromBytes(i.Delegatee)
		if err != nil {
			return errors.Wrap(err, "failed to decode unbonding delegatee")
		}
		s.insert(unbondingIndexItem{
			height: i.Height,
			ref:    UnbondingRef{Address: addr, Kind: kind, Delegatee: delegatee},
		})
	}
	return nil
}
