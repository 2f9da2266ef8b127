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
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-delegation/action"
	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/action/protocol/delegation"
	"github.com/iotexproject/iotex-delegation/pkg/log"
	"github.com/iotexproject/iotex-delegation/state"
)

const (
	_registerDelegatee = "registerDelegatee"
	_delegate          = "delegate"
	_undelegate        = "undelegate"
	_redelegate        = "redelegate"
	_cancelUnbonding   = "cancelUnbonding"
	_claimReward       = "claimReward"
	_allocateReward    = "allocateReward"
	_jail              = "jail"
	_unjail            = "unjail"
	_tombstone         = "tombstone"
	_slash             = "slash"

	_statusSuccess      = "success"
	_statusUnauthorized = "unauthorized"
)

func (p *Protocol) handleRegisterDelegatee(ctx context.Context, l *delegation.Ledger) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	m, err := l.RegisterDelegatee(actionCtx.Caller, p.config.Policy, blkCtx.BlockHeight)
	if err != nil {
		return p.failure(ctx, _registerDelegatee, err)
	}
	log.L().Debug("Registered delegatee.",
		zap.String("delegatee", m.Address().String()),
		zap.String("currency", m.DelegationCurrency().String()),
		zap.Uint64("height", blkCtx.BlockHeight))
	return p.success(ctx, _registerDelegatee), nil
}

func (p *Protocol) handleDelegate(ctx context.Context, act *action.Delegate, l *delegation.Ledger) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	delegatee, err := address.FromString(act.Delegatee())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode delegatee address %s", act.Delegatee())
	}
	m, err := l.Delegatee(delegatee)
	if err != nil {
		return p.failure(ctx, _delegate, err)
	}
	res, err := l.Delegate(actionCtx.Caller, delegatee, m.DelegationCurrency().Raw(act.Amount()), blkCtx.BlockHeight)
	if err != nil {
		return p.failure(ctx, _delegate, err)
	}
	log.L().Debug("Delegated.",
		zap.String("delegator", actionCtx.Caller.String()),
		zap.String("delegatee", delegatee.String()),
		zap.String("amount", res.Amount.String()),
		zap.String("share", res.Share.String()))
	return p.success(ctx, _delegate).
		AddTransactionLogs(&action.TransactionLog{
			Type:      action.DelegateLog,
			Sender:    actionCtx.Caller.String(),
			Recipient: delegatee.String(),
			Amount:    res.Amount,
		}).
		AddTransactionLogs(rewardLogs(delegatee, actionCtx.Caller, res.Rewards)...), nil
}

func (p *Protocol) handleUndelegate(ctx context.Context, act *action.Undelegate, l *delegation.Ledger) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	delegatee, err := address.FromString(act.Delegatee())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode delegatee address %s", act.Delegatee())
	}
	res, err := l.Undelegate(actionCtx.Caller, delegatee, act.Share(), blkCtx.BlockHeight)
	if err != nil {
		return p.failure(ctx, _undelegate, err)
	}
	log.L().Debug("Undelegated.",
		zap.String("delegator", actionCtx.Caller.String()),
		zap.String("delegatee", delegatee.String()),
		zap.String("amount", res.Amount.String()),
		zap.Uint64("expireHeight", res.ExpireHeight))
	return p.success(ctx, _undelegate).
		AddTransactionLogs(&action.TransactionLog{
			Type:      action.UndelegateLog,
			Sender:    delegatee.String(),
			Recipient: actionCtx.Caller.String(),
			Amount:    res.Amount,
		}).
		AddTransactionLogs(rewardLogs(delegatee, actionCtx.Caller, res.Rewards)...), nil
}

func (p *Protocol) handleRedelegate(ctx context.Context, act *action.Redelegate, l *delegation.Ledger) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	src, err := address.FromString(act.Src())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode source delegatee address %s", act.Src())
	}
	dst, err := address.FromString(act.Dst())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode destination delegatee address %s", act.Dst())
	}
	res, err := l.Redelegate(actionCtx.Caller, src, dst, act.Share(), blkCtx.BlockHeight)
	if err != nil {
		return p.failure(ctx, _redelegate, err)
	}
	log.L().Debug("Redelegated.",
		zap.String("delegator", actionCtx.Caller.String()),
		zap.String("src", src.String()),
		zap.String("dst", dst.String()),
		zap.String("amount", res.Amount.String()),
		zap.String("mintedShare", res.MintedShare.String()))
	return p.success(ctx, _redelegate).
		AddTransactionLogs(&action.TransactionLog{
			Type:      action.RedelegateLog,
			Sender:    src.String(),
			Recipient: dst.String(),
			Amount:    res.Amount,
		}).
		AddTransactionLogs(rewardLogs(src, actionCtx.Caller, res.SrcRewards)...).
		AddTransactionLogs(rewardLogs(dst, actionCtx.Caller, res.DstRewards)...), nil
}

func (p *Protocol) handleCancelUnbonding(ctx context.Context, act *action.CancelUnbonding, l *delegation.Ledger) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	delegatee, err := address.FromString(act.Delegatee())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode delegatee address %s", act.Delegatee())
	}
	m, err := l.Delegatee(delegatee)
	if err != nil {
		return p.failure(ctx, _cancelUnbonding, err)
	}
	res, err := l.CancelUnbonding(actionCtx.Caller, delegatee, m.DelegationCurrency().Raw(act.Amount()), blkCtx.BlockHeight)
	if err != nil {
		return p.failure(ctx, _cancelUnbonding, err)
	}
	return p.success(ctx, _cancelUnbonding).
		AddTransactionLogs(&action.TransactionLog{
			Type:      action.CancelUnbondingLog,
			Sender:    actionCtx.Caller.String(),
			Recipient: delegatee.String(),
			Amount:    res.Amount,
		}).
		AddTransactionLogs(rewardLogs(delegatee, actionCtx.Caller, res.Rewards)...), nil
}

func (p *Protocol) handleClaimReward(ctx context.Context, act *action.ClaimReward, l *delegation.Ledger) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	delegatee, err := address.FromString(act.Delegatee())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode delegatee address %s", act.Delegatee())
	}
	res, err := l.Claim(actionCtx.Caller, delegatee, blkCtx.BlockHeight)
	if err != nil {
		return p.failure(ctx, _claimReward, err)
	}
	return p.success(ctx, _claimReward).AddTransactionLogs(rewardLogs(delegatee, actionCtx.Caller, res.Rewards)...), nil
}

func (p *Protocol) handleAllocateReward(ctx context.Context, act *action.AllocateReward, l *delegation.Ledger) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	delegatee, err := address.FromString(act.Delegatee())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode delegatee address %s", act.Delegatee())
	}
	m, err := l.Delegatee(delegatee)
	if err != nil {
		return p.failure(ctx, _allocateReward, err)
	}
	var currency *state.Currency
	for _, c := range m.RewardCurrencies() {
		if c.Ticker == act.Ticker() {
			currency = &c
			break
		}
	}
	if currency == nil {
		return p.failure(ctx, _allocateReward, errors.Wrapf(
			delegation.ErrInvalidCurrency,
			"delegatee %s is not rewarded in %s",
			delegatee.String(),
			act.Ticker(),
		))
	}
	res, err := l.AllocateReward(actionCtx.Caller, delegatee, currency.Raw(act.Amount()), blkCtx.BlockHeight)
	if err != nil {
		return p.failure(ctx, _allocateReward, err)
	}
	return p.success(ctx, _allocateReward).AddTransactionLogs(&action.TransactionLog{
		Type:      action.AllocateRewardLog,
		Sender:    actionCtx.Caller.String(),
		Recipient: delegatee.String(),
		Amount:    res.Amount,
	}), nil
}

func (p *Protocol) handleJail(ctx context.Context, act *action.Jail, l *delegation.Ledger) (*action.Receipt, error) {
	if !p.isOperator(ctx) {
		return p.unauthorized(ctx, _jail), nil
	}
	blkCtx := protocol.MustGetBlockCtx(ctx)
	delegatee, err := address.FromString(act.Delegatee())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode delegatee address %s", act.Delegatee())
	}
	if _, err := l.Jail(delegatee, act.Until(), blkCtx.BlockHeight); err != nil {
		return p.failure(ctx, _jail, err)
	}
	log.L().Info("Jailed delegatee.", zap.String("delegatee", delegatee.String()), zap.Uint64("until", act.Until()))
	return p.success(ctx, _jail), nil
}

func (p *Protocol) handleUnjail(ctx context.Context, l *delegation.Ledger) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	if _, err := l.Unjail(actionCtx.Caller, blkCtx.BlockHeight); err != nil {
		return p.failure(ctx, _unjail, err)
	}
	return p.success(ctx, _unjail), nil
}

func (p *Protocol) handleTombstone(ctx context.Context, act *action.Tombstone, l *delegation.Ledger) (*action.Receipt, error) {
	if !p.isOperator(ctx) {
		return p.unauthorized(ctx, _tombstone), nil
	}
	delegatee, err := address.FromString(act.Delegatee())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode delegatee address %s", act.Delegatee())
	}
	if _, err := l.Tombstone(delegatee); err != nil {
		return p.failure(ctx, _tombstone, err)
	}
	log.L().Warn("Tombstoned delegatee.", zap.String("delegatee", delegatee.String()))
	return p.success(ctx, _tombstone), nil
}

func (p *Protocol) handleSlash(ctx context.Context, act *action.Slash, l *delegation.Ledger) (*action.Receipt, error) {
	if !p.isOperator(ctx) {
		return p.unauthorized(ctx, _slash), nil
	}
	blkCtx := protocol.MustGetBlockCtx(ctx)
	delegatee, err := address.FromString(act.Delegatee())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode delegatee address %s", act.Delegatee())
	}
	res, err := l.Slash(delegatee, act.SlashFactor(), act.InfractionHeight(), blkCtx.BlockHeight)
	if err != nil {
		return p.failure(ctx, _slash, err)
	}
	switch {
	case act.Tombstone():
		_, err = l.Tombstone(delegatee)
	case act.JailUntil() > 0:
		_, err = l.Jail(delegatee, act.JailUntil(), blkCtx.BlockHeight)
	}
	if err != nil {
		return p.failure(ctx, _slash, err)
	}
	log.L().Warn("Slashed delegatee.",
		zap.String("delegatee", delegatee.String()),
		zap.Uint64("infractionHeight", act.InfractionHeight()),
		zap.String("slashFactor", act.SlashFactor().String()),
		zap.String("total", res.Total().String()))
	slashed := res.Delegatee.SlashedPoolAddress().String()
	receipt := p.success(ctx, _slash).AddTransactionLogs(
		&action.TransactionLog{
			Type:      action.SlashLog,
			Sender:    delegatee.String(),
			Recipient: slashed,
			Amount:    res.Bonded,
		},
		&action.TransactionLog{
			Type:      action.SlashLog,
			Sender:    delegatee.String(),
			Recipient: slashed,
			Amount:    res.UnbondLockIns,
		},
	)
	for _, g := range res.RebondGraces {
		receipt.AddTransactionLogs(&action.TransactionLog{
			Type:      action.SlashLog,
			Sender:    g.Unbondee.String(),
			Recipient: slashed,
			Amount:    g.Amount,
		})
	}
	return receipt, nil
}

func (p *Protocol) isOperator(ctx context.Context) bool {
	return address.Equal(p.operator, protocol.MustGetActionCtx(ctx).Caller)
}

func (p *Protocol) success(ctx context.Context, actType string) *action.Receipt {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	_actionMtc.WithLabelValues(actType, _statusSuccess).Inc()
	return action.NewReceipt(action.SuccessReceiptStatus, blkCtx.BlockHeight, actionCtx.ActionHash)
}

func (p *Protocol) unauthorized(ctx context.Context, actType string) *action.Receipt {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	_actionMtc.WithLabelValues(actType, _statusUnauthorized).Inc()
	log.L().Info("Unauthorized delegation action.",
		zap.String("type", actType),
		zap.String("caller", actionCtx.Caller.String()))
	receipt := action.NewReceipt(action.UnauthorizedReceiptStatus, blkCtx.BlockHeight, actionCtx.ActionHash)
	receipt.ExecutionError = "only the operator can " + actType
	return receipt
}

// failure turns a rejected operation into a receipt, errors of unknown kind abort the block
func (p *Protocol) failure(ctx context.Context, actType string, err error) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	kind := delegation.Kind(err)
	status, ok := _kindStatus[kind]
	if !ok {
		return nil, errors.Wrapf(err, "failed to handle %s", actType)
	}
	_actionMtc.WithLabelValues(actType, kind.String()).Inc()
	logger := log.L().With(
		zap.String("type", actType),
		zap.String("caller", actionCtx.Caller.String()),
		zap.Uint64("height", blkCtx.BlockHeight),
		zap.Error(err))
	if kind == delegation.KindInvariant {
		logger.Warn("Delegation action broke a ledger invariant.")
	} else {
		logger.Info("Delegation action rejected.")
	}
	receipt := action.NewReceipt(status, blkCtx.BlockHeight, actionCtx.ActionHash)
	receipt.ExecutionError = err.Error()
	return receipt, nil
}

var _kindStatus = map[delegation.ErrorKind]uint64{
	delegation.KindValidation: action.InvalidInputReceiptStatus,
	delegation.KindCapacity:   action.CapacityExceededReceiptStatus,
	delegation.KindInvariant:  action.InvariantViolationReceiptStatus,
}

func rewardLogs(delegatee, delegator address.Address, rewards []state.FungibleAssetValue) []*action.TransactionLog {
	logs := make([]*action.TransactionLog, 0, len(rewards))
	for _, r := range rewards {
		logs = append(logs, &action.TransactionLog{
			Type:      action.RewardLog,
			Sender:    delegatee.String(),
			Recipient: delegator.String(),
			Amount:    r,
		})
	}
	return logs
}
