// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"github.com/google/btree"
)

const _queueDegree = 8

type (
	// maturityBucket holds the entries expiring at the same height, in insertion order
	maturityBucket[E any] struct {
		expire  uint64
		entries []E
	}

	// maturityQueue is a bounded map from expire height to entries
	maturityQueue[E any] struct {
		tree *btree.BTreeG[*maturityBucket[E]]
		size int
	}
)

func newMaturityQueue[E any]() *maturityQueue[E] {
	return &maturityQueue[E]{
		tree: btree.NewG[*maturityBucket[E]](_queueDegree, func(a, b *maturityBucket[E]) bool {
			return a.expire < b.expire
		}),
	}
}

// Len returns the number of entries
func (q *maturityQueue[E]) Len() int { return q.size }

func (q *maturityQueue[E]) push(expire uint64, e E) {
	if b, ok := q.tree.Get(&maturityBucket[E]{expire: expire}); ok {
		b.entries = append(b.entries, e)
	} else {
		q.tree.ReplaceOrInsert(&maturityBucket[E]{expire: expire, entries: []E{e}})
	}
	q.size++
}

func (q *maturityQueue[E]) lowest() (uint64, bool) {
	b, ok := q.tree.Min()
	if !ok {
		return 0, false
	}
	return b.expire, true
}

// popMatured removes the entries expiring at or before height, earliest first
func (q *maturityQueue[E]) popMatured(height uint64) []E {
	var matured []E
	for {
		b, ok := q.tree.Min()
		if !ok || b.expire > height {
			break
		}
		q.tree.DeleteMin()
		q.size -= len(b.entries)
		matured = append(matured, b.entries...)
	}
	return matured
}

// ascend walks the entries earliest expire first
func (q *maturityQueue[E]) ascend(fn func(uint64, E) bool) {
	q.tree.Ascend(func(b *maturityBucket[E]) bool {
		for _, e := range b.entries {
			if !fn(b.expire, e) {
				return false
			}
		}
		return true
	})
}

// descend walks the entries farthest expire first, latest inserted first within a height
func (q *maturityQueue[E]) descend(fn func(uint64, E) bool) {
	q.tree.Descend(func(b *maturityBucket[E]) bool {
		for i := len(b.entries) - 1; i >= 0; i-- {
			if !fn(b.expire, b.entries[i]) {
				return false
			}
		}
		return true
	})
}

// removeIf drops the entries matching pred
func (q *maturityQueue[E]) removeIf(pred func(E) bool) {
	var emptied []*maturityBucket[E]
	q.tree.Ascend(func(b *maturityBucket[E]) bool {
		kept := b.entries[:0]
		for _, e := range b.entries {
			if pred(e) {
				q.size--
				continue
			}
			kept = append(kept, e)
		}
		b.entries = kept
		if len(kept) == 0 {
			emptied = append(emptied, b)
		}
		return true
	})
	for _, b := range emptied {
		q.tree.Delete(b)
	}
}

func (q *maturityQueue[E]) all() []E {
	entries := make([]E, 0, q.size)
	q.ascend(func(_ uint64, e E) bool {
		entries = append(entries, e)
		return true
	})
	return entries
}
