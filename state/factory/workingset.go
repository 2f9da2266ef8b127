// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package factory

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/db"
	"github.com/iotexproject/iotex-delegation/db/batch"
	"github.com/iotexproject/iotex-delegation/pkg/util/byteutil"
	"github.com/iotexproject/iotex-delegation/state"
)

var (
	stateDBMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_delegation_state_db",
			Help: "Delegation ledger state DB",
		},
		[]string{"type"},
	)
	dbBatchSizelMtc = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "iotex_delegation_db_batch_size",
			Help: "DB batch size",
		},
		[]string{},
	)
)

func init() {
	prometheus.MustRegister(stateDBMtc)
	prometheus.MustRegister(dbBatchSizelMtc)
}

// workingSet tracks pending changes of one block in a cached batch on top of the underlying DB
type workingSet struct {
	height    uint64
	finalized bool
	cb        batch.CachedBatch
	dao       db.KVStore
}

func newWorkingSet(height uint64, kv db.KVStore) *workingSet {
	return &workingSet{
		height: height,
		cb:     batch.NewCachedBatch(),
		dao:    kv,
	}
}

// Height returns the Height of the block being worked on
func (ws *workingSet) Height() (uint64, error) {
	return ws.height, nil
}

// State pulls a state, pending writes take precedence over the DB
func (ws *workingSet) State(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	stateDBMtc.WithLabelValues("get").Inc()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return ws.height, err
	}
	value, err := ws.cb.Get(cfg.Namespace, cfg.Key)
	switch errors.Cause(err) {
	case nil:
		return ws.height, state.Deserialize(s, value)
	case batch.ErrAlreadyDeleted:
		return ws.height, errors.Wrapf(state.ErrStateNotExist, "ns = %s key = %x", cfg.Namespace, cfg.Key)
	}
	return ws.height, readState(ws.dao, cfg, s)
}

// PutState puts a state into the pending batch
func (ws *workingSet) PutState(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	stateDBMtc.WithLabelValues("put").Inc()
	if ws.finalized {
		return ws.height, errors.New("cannot put state into a finalized working set")
	}
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return ws.height, err
	}
	ss, err := state.Serialize(s)
	if err != nil {
		return ws.height, errors.Wrapf(err, "failed to convert %T to bytes", s)
	}
	ws.cb.Put(cfg.Namespace, cfg.Key, ss, "failed to put state %x in %s", cfg.Key, cfg.Namespace)
	return ws.height, nil
}

// DelState deletes a state from the pending batch
func (ws *workingSet) DelState(opts ...protocol.StateOption) (uint64, error) {
	stateDBMtc.WithLabelValues("delete").Inc()
	if ws.finalized {
		return ws.height, errors.New("cannot delete state from a finalized working set")
	}
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return ws.height, err
	}
	ws.cb.Delete(cfg.Namespace, cfg.Key, "failed to delete state %x in %s", cfg.Key, cfg.Namespace)
	return ws.height, nil
}

// Snapshot takes a snapshot of the pending changes
func (ws *workingSet) Snapshot() int {
	return ws.cb.Snapshot()
}

// Revert discards the pending changes made after the snapshot
func (ws *workingSet) Revert(snapshot int) error {
	return ws.cb.RevertSnapshot(snapshot)
}

// finalize persists the block height along with the pending changes
func (ws *workingSet) finalize() error {
	if ws.finalized {
		return errors.New("cannot finalize a working set twice")
	}
	ws.finalized = true
	ws.cb.Put(SystemNameSpace, []byte(CurrentHeightKey), byteutil.Uint64ToBytesBigEndian(ws.height), "failed to store current height")
	return nil
}

// commit writes all changes in a batch
func (ws *workingSet) commit() error {
	if !ws.finalized {
		return errors.New("cannot commit a working set before finalizing it")
	}
	dbBatchSizelMtc.WithLabelValues().Set(float64(ws.cb.Size()))
	if err := ws.dao.WriteBatch(ws.cb); err != nil {
		return errors.Wrap(err, "failed to commit all changes to underlying DB in a batch")
	}
	return nil
}

func readState(kv db.KVStore, cfg *protocol.StateConfig, s interface{}) error {
	value, err := kv.Get(cfg.Namespace, cfg.Key)
	if err != nil {
		if errors.Cause(err) == db.ErrNotExist {
			return errors.Wrapf(state.ErrStateNotExist, "ns = %s key = %x", cfg.Namespace, cfg.Key)
		}
		return errors.Wrapf(err, "failed to get state %x in %s", cfg.Key, cfg.Namespace)
	}
	return state.Deserialize(s, value)
}
