// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"syscall"

	"github.com/cockroachdb/pebble"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-delegation/db/batch"
	"github.com/iotexproject/iotex-delegation/pkg/lifecycle"
	"github.com/iotexproject/iotex-delegation/pkg/log"
)

// namespaces are mapped to a fixed-length key prefix
const prefixLength = 8

// PebbleDB is KVStore implementation based on pebble DB
type PebbleDB struct {
	lifecycle.Readiness
	db     *pebble.DB
	path   string
	config Config
}

// NewPebbleDB creates a new PebbleDB instance
func NewPebbleDB(cfg Config) *PebbleDB {
	return &PebbleDB{
		path:   cfg.DbPath,
		config: cfg,
	}
}

// Start opens the DB (creates new file if not existing yet)
func (b *PebbleDB) Start(_ context.Context) error {
	comparer := *pebble.DefaultComparer
	comparer.Split = func(a []byte) int {
		if len(a) < prefixLength {
			return len(a)
		}
		return prefixLength
	}
	db, err := pebble.Open(b.path, &pebble.Options{
		Comparer: &comparer,
		ReadOnly: b.config.ReadOnly,
	})
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	b.db = db
	return b.TurnOn()
}

// Stop closes the DB
func (b *PebbleDB) Stop(_ context.Context) error {
	if err := b.TurnOff(); err != nil {
		return err
	}
	if err := b.db.Close(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// Get retrieves a record
func (b *PebbleDB) Get(namespace string, key []byte) ([]byte, error) {
	if !b.IsReady() {
		return nil, ErrDBNotStarted
	}
	v, closer, err := b.db.Get(nsKey(namespace, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(ErrNotExist, "namespace = %s key = %x doesn't exist", namespace, key)
	}
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	defer closer.Close()
	value := make([]byte, len(v))
	copy(value, v)
	return value, nil
}

// Put inserts a <key, value> record
func (b *PebbleDB) Put(namespace string, key, value []byte) error {
	return b.commit("put", func(pb *pebble.Batch) error {
		return pb.Set(nsKey(namespace, key), value, nil)
	})
}

// Delete deletes a record
func (b *PebbleDB) Delete(namespace string, key []byte) error {
	return b.commit("delete", func(pb *pebble.Batch) error {
		return pb.Delete(nsKey(namespace, key), nil)
	})
}

// WriteBatch commits a batch, only the last write of a key is applied
func (b *PebbleDB) WriteBatch(kvsb batch.KVStoreBatch) (err error) {
	kvsb.Lock()
	defer func() {
		if err == nil {
			kvsb.ClearAndUnlock()
		} else {
			kvsb.Unlock()
		}
	}()
	return b.commit("write batch", func(pb *pebble.Batch) error {
		written := make(map[string]struct{}, kvsb.Size())
		for i := kvsb.Size() - 1; i >= 0; i-- {
			write, err := kvsb.Entry(i)
			if err != nil {
				return err
			}
			k := nsKey(write.Namespace(), write.Key())
			if _, ok := written[string(k)]; ok {
				continue
			}
			written[string(k)] = struct{}{}
			switch write.WriteType() {
			case batch.Put:
				err = pb.Set(k, write.Value(), nil)
			case batch.Delete:
				err = pb.Delete(k, nil)
			}
			if err != nil {
				return errors.Wrapf(err, write.ErrorFormat(), write.ErrorArgs())
			}
		}
		return nil
	})
}

// commit builds a pebble batch and syncs it, retrying up to NumRetries times
func (b *PebbleDB) commit(op string, fill func(*pebble.Batch) error) (err error) {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	if b.config.ReadOnly {
		return ErrReadOnly
	}
	retries := b.config.NumRetries
	if retries == 0 {
		retries = 1
	}
	for c := uint8(0); c < retries; c++ {
		pb := b.db.NewBatch()
		if err = fill(pb); err != nil {
			pb.Close()
			return err
		}
		err = pb.Commit(pebble.Sync)
		pb.Close()
		if err == nil {
			return nil
		}
	}
	if errors.Is(err, syscall.ENOSPC) {
		log.L().Fatal("Failed to "+op+" db.", zap.Error(err))
	}
	return errors.Wrap(ErrIO, err.Error())
}

func nsKey(namespace string, key []byte) []byte {
	h := hash.Hash160b([]byte(namespace))
	k := make([]byte, 0, prefixLength+len(key))
	k = append(k, h[:prefixLength]...)
	return append(k, key...)
}
