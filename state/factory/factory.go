// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package factory

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-delegation/action"
	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/db"
	"github.com/iotexproject/iotex-delegation/pkg/lifecycle"
	"github.com/iotexproject/iotex-delegation/pkg/log"
	"github.com/iotexproject/iotex-delegation/pkg/util/byteutil"
)

const (
	// SystemNameSpace is the namespace of the factory's own bookkeeping
	SystemNameSpace = "System"
	// CurrentHeightKey indicates the key of current factory height in underlying DB
	CurrentHeightKey = "currentHeight"
)

var (
	// ErrInvalidHeight is the error that a block is not the next one
	ErrInvalidHeight = errors.New("invalid block height")
	// ErrUnhandledAction is the error that no protocol handles an action
	ErrUnhandledAction = errors.New("no protocol handles the action")
)

type (
	// Factory defines an interface for managing states
	Factory interface {
		lifecycle.StartStopper
		protocol.StateReader
		Register(protocol.Protocol) error
		// RunBlock applies the actions of the next block in order and commits the result atomically
		RunBlock(context.Context, []*action.SealedEnvelope) ([]*action.Receipt, error)
	}

	// factory implements Factory interface, tracks changes in a working set and batch-commits to DB
	factory struct {
		lifecycle          lifecycle.Lifecycle
		mutex              sync.RWMutex
		currentChainHeight uint64
		registry           *protocol.Registry
		dao                db.KVStore
	}
)

// Option sets Factory construction parameter
type Option func(*factory) error

// RegistryOption sets the registry of protocols
func RegistryOption(reg *protocol.Registry) Option {
	return func(sf *factory) error {
		if reg == nil {
			return errors.New("invalid registry")
		}
		sf.registry = reg
		return nil
	}
}

// NewFactory creates a new state factory
func NewFactory(kv db.KVStore, opts ...Option) (Factory, error) {
	if kv == nil {
		return nil, errors.New("invalid kv store")
	}
	sf := &factory{
		currentChainHeight: 0,
		registry:           protocol.NewRegistry(),
		dao:                kv,
	}
	for _, opt := range opts {
		if err := opt(sf); err != nil {
			log.S().Errorf("Failed to execute state factory creation option %p: %v", opt, err)
			return nil, err
		}
	}
	sf.lifecycle.Add(kv)
	return sf, nil
}

func (sf *factory) Start(ctx context.Context) error {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	if err := sf.lifecycle.OnStart(ctx); err != nil {
		return err
	}
	// check factory height
	h, err := sf.dao.Get(SystemNameSpace, []byte(CurrentHeightKey))
	switch errors.Cause(err) {
	case nil:
		sf.currentChainHeight = byteutil.BytesToUint64BigEndian(h)
	case db.ErrNotExist:
		sf.currentChainHeight = 0
	default:
		return err
	}
	return nil
}

func (sf *factory) Stop(ctx context.Context) error {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	return sf.lifecycle.OnStop(ctx)
}

// Register registers a protocol, actions are offered to protocols in registration order
func (sf *factory) Register(p protocol.Protocol) error {
	return sf.registry.Register(p.Name(), p)
}

// Height returns factory's height
func (sf *factory) Height() (uint64, error) {
	sf.mutex.RLock()
	defer sf.mutex.RUnlock()
	return sf.currentChainHeight, nil
}

// State reads a committed state
func (sf *factory) State(s interface{}, opts ...protocol.StateOption) (uint64, error) {
	sf.mutex.RLock()
	defer sf.mutex.RUnlock()
	cfg, err := protocol.CreateStateConfig(opts...)
	if err != nil {
		return 0, err
	}
	return sf.currentChainHeight, readState(sf.dao, cfg, s)
}

func (sf *factory) RunBlock(ctx context.Context, elps []*action.SealedEnvelope) ([]*action.Receipt, error) {
	sf.mutex.Lock()
	defer sf.mutex.Unlock()
	blkCtx := protocol.MustGetBlockCtx(ctx)
	if blkCtx.BlockHeight != sf.currentChainHeight+1 {
		return nil, errors.Wrapf(
			ErrInvalidHeight,
			"block height %d, %d expected",
			blkCtx.BlockHeight,
			sf.currentChainHeight+1,
		)
	}
	ws := newWorkingSet(blkCtx.BlockHeight, sf.dao)
	ctx = protocol.WithRegistry(ctx, sf.registry)
	receipts := make([]*action.Receipt, 0, len(elps))
	for _, elp := range elps {
		receipt, err := sf.runAction(ctx, ws, elp)
		if err != nil {
			return nil, errors.Wrap(err, "error when run action")
		}
		receipts = append(receipts, receipt)
	}
	for _, p := range sf.registry.All() {
		if finalizer, ok := p.(protocol.BlockFinalizer); ok {
			if err := finalizer.FinalizeBlock(ctx, ws); err != nil {
				return nil, errors.Wrapf(err, "failed to finalize block with protocol %s", p.Name())
			}
		}
	}
	if err := ws.finalize(); err != nil {
		return nil, err
	}
	if err := ws.commit(); err != nil {
		return nil, err
	}
	sf.currentChainHeight = blkCtx.BlockHeight
	log.L().Debug("Committed block.",
		zap.Uint64("height", blkCtx.BlockHeight),
		zap.Int("actions", len(elps)))
	return receipts, nil
}

func (sf *factory) runAction(ctx context.Context, ws *workingSet, elp *action.SealedEnvelope) (*action.Receipt, error) {
	if err := elp.VerifySignature(); err != nil {
		return nil, err
	}
	caller, err := elp.SenderAddress()
	if err != nil {
		return nil, err
	}
	ctx = protocol.WithActionCtx(ctx, protocol.ActionCtx{
		Caller:     caller,
		ActionHash: elp.Hash(),
		Nonce:      elp.Nonce(),
	})
	act := elp.Action()
	for _, p := range sf.registry.All() {
		if err := p.Validate(ctx, act, ws); err != nil {
			receipt := action.NewReceipt(action.InvalidInputReceiptStatus, ws.height, elp.Hash())
			receipt.ExecutionError = err.Error()
			return receipt, nil
		}
	}
	snapshot := ws.Snapshot()
	for _, p := range sf.registry.All() {
		receipt, err := p.Handle(ctx, act, ws)
		if err != nil {
			return nil, errors.Wrapf(
				err,
				"error when action %x (nonce: %d) from %s mutates states",
				elp.Hash(),
				elp.Nonce(),
				caller.String(),
			)
		}
		if receipt == nil {
			continue
		}
		if !receipt.Succeeded() {
			if err := ws.Revert(snapshot); err != nil {
				return nil, errors.Wrap(err, "failed to revert a failed action")
			}
		}
		return receipt, nil
	}
	return nil, errors.Wrapf(ErrUnhandledAction, "%T", act)
}
