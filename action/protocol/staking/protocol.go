// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package staking

import (
	"context"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-delegation/action"
	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/action/protocol/account"
	"github.com/iotexproject/iotex-delegation/action/protocol/delegation"
	"github.com/iotexproject/iotex-delegation/pkg/log"
)

// ProtocolID is the protocol ID
const ProtocolID = "staking"

var (
	_actionMtc = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iotex_delegation_action",
			Help: "Delegation actions by type and status",
		},
		[]string{"type", "status"},
	)
	_unbondingMtc = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "iotex_delegation_unbondings",
			Help: "Number of unbonding queues with pending entries",
		},
	)

	// ErrInvalidConfig is the error that the protocol config is invalid
	ErrInvalidConfig = errors.New("invalid staking config")
)

func init() {
	prometheus.MustRegister(_actionMtc)
	prometheus.MustRegister(_unbondingMtc)
}

type (
	// Config is the config of the staking protocol
	Config struct {
		// Policy is applied to every newly registered delegatee
		Policy delegation.DelegateePolicy
		// SweepInterval is the number of blocks between two maturity sweeps
		SweepInterval uint64
	}

	// Protocol defines the protocol of handling delegation
	Protocol struct {
		operator address.Address
		config   Config
	}
)

// NewProtocol instantiates the protocol of staking
func NewProtocol(operator address.Address, cfg Config) (*Protocol, error) {
	if operator == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "operator is nil")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 1
	}
	return &Protocol{
		operator: operator,
		config:   cfg,
	}, nil
}

// Name returns the name of protocol
func (p *Protocol) Name() string {
	return ProtocolID
}

// Validate validates a delegation action
func (p *Protocol) Validate(_ context.Context, act action.Action, _ protocol.StateReader) error {
	switch act.(type) {
	case *action.RegisterDelegatee, *action.Delegate, *action.Undelegate, *action.Redelegate,
		*action.CancelUnbonding, *action.ClaimReward, *action.AllocateReward,
		*action.Jail, *action.Unjail, *action.Tombstone, *action.Slash:
		if err := act.SanityCheck(); err != nil {
			return errors.Wrapf(err, "error when validating %T", act)
		}
	}
	return nil
}

// Handle handles a delegation action
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	l := delegation.NewLedger(sm, account.NewTransferer(sm))
	switch act := act.(type) {
	case *action.RegisterDelegatee:
		return p.handleRegisterDelegatee(ctx, l)
	case *action.Delegate:
		return p.handleDelegate(ctx, act, l)
	case *action.Undelegate:
		return p.handleUndelegate(ctx, act, l)
	case *action.Redelegate:
		return p.handleRedelegate(ctx, act, l)
	case *action.CancelUnbonding:
		return p.handleCancelUnbonding(ctx, act, l)
	case *action.ClaimReward:
		return p.handleClaimReward(ctx, act, l)
	case *action.AllocateReward:
		return p.handleAllocateReward(ctx, act, l)
	case *action.Jail:
		return p.handleJail(ctx, act, l)
	case *action.Unjail:
		return p.handleUnjail(ctx, l)
	case *action.Tombstone:
		return p.handleTombstone(ctx, act, l)
	case *action.Slash:
		return p.handleSlash(ctx, act, l)
	}
	return nil, nil
}

// FinalizeBlock releases the unbondings matured at the block height
func (p *Protocol) FinalizeBlock(ctx context.Context, sm protocol.StateManager) error {
	blkCtx := protocol.MustGetBlockCtx(ctx)
	if blkCtx.BlockHeight%p.config.SweepInterval != 0 {
		return nil
	}
	res, err := delegation.NewLedger(sm, account.NewTransferer(sm)).SweepMaturedUnbondings(blkCtx.BlockHeight)
	if err != nil {
		return errors.Wrapf(err, "failed to sweep matured unbondings at height %d", blkCtx.BlockHeight)
	}
	for _, r := range res.Releases {
		log.L().Debug("Released matured unbonding.",
			zap.Uint64("height", res.Height),
			zap.String("kind", r.Ref.Kind.String()),
			zap.String("delegatee", r.Delegatee.String()),
			zap.String("delegator", r.Delegator.String()),
			zap.String("amount", r.Amount.String()))
	}
	_unbondingMtc.Set(float64(res.Pending))
	return nil
}
