// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-delegation/db/batch"
)

var (
	bucket1 = "test_ns1"
	bucket2 = "test_ns2"
	testK1  = [3][]byte{[]byte("key_1"), []byte("key_2"), []byte("key_3")}
	testV1  = [3][]byte{[]byte("value_1"), []byte("value_2"), []byte("value_3")}
	testK2  = [3][]byte{[]byte("key_4"), []byte("key_5"), []byte("key_6")}
	testV2  = [3][]byte{[]byte("value_4"), []byte("value_5"), []byte("value_6")}
)

func testStores(t *testing.T) map[string]KVStore {
	dir := t.TempDir()
	cfg := DefaultConfig
	cfg.DbPath = filepath.Join(dir, "bolt.db")
	bolt := NewBoltDB(cfg)
	cfg.DbPath = filepath.Join(dir, "pebble")
	pebble := NewPebbleDB(cfg)
	return map[string]KVStore{
		"memory": NewMemKVStore(),
		"bolt":   bolt,
		"pebble": pebble,
	}
}

func TestKVStorePutGet(t *testing.T) {
	for name, kvStore := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			require.NoError(kvStore.Start(ctx))
			defer func() {
				require.NoError(kvStore.Stop(ctx))
			}()

			require.NoError(kvStore.Put(bucket1, []byte("key"), []byte("value")))
			value, err := kvStore.Get(bucket1, []byte("key"))
			require.NoError(err)
			require.Equal([]byte("value"), value)
			value, err = kvStore.Get("test_ns_1", []byte("key"))
			require.Error(err)
			require.Nil(value)
			value, err = kvStore.Get(bucket1, testK1[0])
			require.True(errors.Is(err, ErrNotExist))
			require.Nil(value)

			// overwrite
			require.NoError(kvStore.Put(bucket1, []byte("key"), testV1[1]))
			value, err = kvStore.Get(bucket1, []byte("key"))
			require.NoError(err)
			require.Equal(testV1[1], value)

			// same key in another namespace is independent
			require.NoError(kvStore.Put(bucket2, []byte("key"), testV2[0]))
			value, err = kvStore.Get(bucket1, []byte("key"))
			require.NoError(err)
			require.Equal(testV1[1], value)

			require.NoError(kvStore.Delete(bucket1, []byte("key")))
			_, err = kvStore.Get(bucket1, []byte("key"))
			require.True(errors.Is(err, ErrNotExist))
			// deleting a missing key is a no-op
			require.NoError(kvStore.Delete(bucket1, []byte("key")))
		})
	}
}

func TestBatchCommit(t *testing.T) {
	for name, kvStore := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			require.NoError(kvStore.Start(ctx))
			defer func() {
				require.NoError(kvStore.Stop(ctx))
			}()

			require.NoError(kvStore.Put(bucket1, testK1[0], testV1[0]))
			b := batch.NewBatch()
			b.Put(bucket1, testK1[1], testV1[1], "")
			b.Put(bucket1, testK1[2], testV1[2], "")
			b.Delete(bucket1, testK1[0], "")
			b.Put(bucket2, testK2[0], testV2[0], "")
			// later write of the same key wins
			b.Put(bucket2, testK2[0], testV2[1], "")
			b.Delete(bucket1, testK1[2], "")
			require.NoError(kvStore.WriteBatch(b))
			require.Zero(b.Size())

			_, err := kvStore.Get(bucket1, testK1[0])
			require.True(errors.Is(err, ErrNotExist))
			v, err := kvStore.Get(bucket1, testK1[1])
			require.NoError(err)
			require.Equal(testV1[1], v)
			_, err = kvStore.Get(bucket1, testK1[2])
			require.True(errors.Is(err, ErrNotExist))
			v, err = kvStore.Get(bucket2, testK2[0])
			require.NoError(err)
			require.Equal(testV2[1], v)
		})
	}
}

func TestCachedBatchCommit(t *testing.T) {
	require := require.New(t)
	kvStore := NewMemKVStore()
	cb := batch.NewCachedBatch()
	cb.Put(bucket1, testK1[0], testV1[0], "")
	s := cb.Snapshot()
	cb.Put(bucket1, testK1[1], testV1[1], "")
	require.NoError(cb.RevertSnapshot(s))
	require.NoError(kvStore.WriteBatch(cb))

	v, err := kvStore.Get(bucket1, testK1[0])
	require.NoError(err)
	require.Equal(testV1[0], v)
	_, err = kvStore.Get(bucket1, testK1[1])
	require.True(errors.Is(err, ErrNotExist))
}

func TestDBNotStarted(t *testing.T) {
	require := require.New(t)
	cfg := DefaultConfig
	cfg.DbPath = filepath.Join(t.TempDir(), "bolt.db")
	for _, kvStore := range []KVStore{NewBoltDB(cfg), NewPebbleDB(cfg)} {
		_, err := kvStore.Get(bucket1, testK1[0])
		require.Equal(ErrDBNotStarted, err)
		require.Equal(ErrDBNotStarted, kvStore.Put(bucket1, testK1[0], testV1[0]))
	}
}

func TestCreateKVStore(t *testing.T) {
	require := require.New(t)
	cfg := DefaultConfig

	_, err := CreateKVStore(cfg, "")
	require.Equal(ErrEmptyDBPath, err)

	kv, err := CreateKVStore(cfg, filepath.Join(t.TempDir(), "a.db"))
	require.NoError(err)
	require.IsType(&BoltDB{}, kv)

	cfg.DBType = DBPebble
	kv, err = CreateKVStore(cfg, t.TempDir())
	require.NoError(err)
	require.IsType(&PebbleDB{}, kv)

	cfg.DBType = DBMemory
	kv, err = CreateKVStore(cfg, "")
	require.NoError(err)
	require.IsType(&memKVStore{}, kv)

	cfg.DBType = "leveldb"
	_, err = CreateKVStore(cfg, "x")
	require.Error(err)
}
