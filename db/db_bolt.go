// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"syscall"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-delegation/db/batch"
	"github.com/iotexproject/iotex-delegation/pkg/lifecycle"
	"github.com/iotexproject/iotex-delegation/pkg/log"
)

const fileMode = 0600

// BoltDB is KVStore implementation based bolt DB
type BoltDB struct {
	lifecycle.Readiness
	db     *bolt.DB
	path   string
	config Config
}

// NewBoltDB instantiates an BoltDB with implements KVStore
func NewBoltDB(cfg Config) *BoltDB {
	return &BoltDB{
		db:     nil,
		path:   cfg.DbPath,
		config: cfg,
	}
}

// Start opens the BoltDB (creates new file if not existing yet)
func (b *BoltDB) Start(_ context.Context) error {
	opts := *bolt.DefaultOptions
	if b.config.ReadOnly {
		opts.ReadOnly = true
	}
	db, err := bolt.Open(b.path, fileMode, &opts)
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	b.db = db
	return b.TurnOn()
}

// Stop closes the BoltDB
func (b *BoltDB) Stop(_ context.Context) error {
	if err := b.TurnOff(); err != nil {
		return err
	}
	if err := b.db.Close(); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	return nil
}

// Put inserts a <key, value> record
func (b *BoltDB) Put(namespace string, key, value []byte) (err error) {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	if b.config.ReadOnly {
		return ErrReadOnly
	}
	for c := uint8(0); c < b.config.NumRetries; c++ {
		if err = b.db.Update(func(tx *bolt.Tx) error {
			bucket, err := tx.CreateBucketIfNotExists([]byte(namespace))
			if err != nil {
				return err
			}
			return bucket.Put(key, value)
		}); err == nil {
			break
		}
	}
	if err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			log.L().Fatal("Failed to put db.", zap.Error(err))
		}
		err = errors.Wrap(ErrIO, err.Error())
	}
	return err
}

// Get retrieves a record
func (b *BoltDB) Get(namespace string, key []byte) ([]byte, error) {
	if !b.IsReady() {
		return nil, ErrDBNotStarted
	}
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return errors.Wrapf(ErrNotExist, "bucket = %x doesn't exist", []byte(namespace))
		}
		v := bucket.Get(key)
		if v == nil {
			return errors.Wrapf(ErrNotExist, "key = %x doesn't exist", key)
		}
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err == nil {
		return value, nil
	}
	if errors.Cause(err) == ErrNotExist {
		return nil, err
	}
	return nil, errors.Wrap(ErrIO, err.Error())
}

// Delete deletes a record, a missing bucket is not an error
func (b *BoltDB) Delete(namespace string, key []byte) (err error) {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	if b.config.ReadOnly {
		return ErrReadOnly
	}
	for c := uint8(0); c < b.config.NumRetries; c++ {
		err = b.db.Update(func(tx *bolt.Tx) error {
			bucket := tx.Bucket([]byte(namespace))
			if bucket == nil {
				return nil
			}
			return bucket.Delete(key)
		})
		if err == nil {
			break
		}
	}
	if err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			log.L().Fatal("Failed to delete db.", zap.Error(err))
		}
		err = errors.Wrap(ErrIO, err.Error())
	}
	return err
}

// WriteBatch commits a batch
func (b *BoltDB) WriteBatch(kvsb batch.KVStoreBatch) (err error) {
	if !b.IsReady() {
		return ErrDBNotStarted
	}
	if b.config.ReadOnly {
		return ErrReadOnly
	}
	kvsb.Lock()
	defer func() {
		if err == nil {
			// clear the batch if commit succeeds
			kvsb.ClearAndUnlock()
		} else {
			kvsb.Unlock()
		}
	}()

	for c := uint8(0); c < b.config.NumRetries; c++ {
		if err = b.db.Update(func(tx *bolt.Tx) error {
			for i := 0; i < kvsb.Size(); i++ {
				write, err := kvsb.Entry(i)
				if err != nil {
					return err
				}
				ns := write.Namespace()
				switch write.WriteType() {
				case batch.Put:
					bucket, err := tx.CreateBucketIfNotExists([]byte(ns))
					if err != nil {
						return errors.Wrapf(err, write.ErrorFormat(), write.ErrorArgs())
					}
					if err := bucket.Put(write.Key(), write.Value()); err != nil {
						return errors.Wrapf(err, write.ErrorFormat(), write.ErrorArgs())
					}
				case batch.Delete:
					bucket := tx.Bucket([]byte(ns))
					if bucket == nil {
						continue
					}
					if err := bucket.Delete(write.Key()); err != nil {
						return errors.Wrapf(err, write.ErrorFormat(), write.ErrorArgs())
					}
				}
			}
			return nil
		}); err == nil {
			break
		}
	}

	if err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			log.L().Fatal("Failed to write batch db.", zap.Error(err))
		}
		err = errors.Wrap(ErrIO, err.Error())
	}
	return err
}
