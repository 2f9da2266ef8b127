// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package staking

import (
	"context"
	"math/big"
	"testing"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/iotex-delegation/action"
	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/action/protocol/account"
	"github.com/iotexproject/iotex-delegation/action/protocol/delegation"
	"github.com/iotexproject/iotex-delegation/state"
	"github.com/iotexproject/iotex-delegation/test/identityset"
	"github.com/iotexproject/iotex-delegation/testutil/testdb"
)

var _ncg = state.NewCurrency("NCG", 2)

func testConfig() Config {
	return Config{
		Policy: delegation.DelegateePolicy{
			DelegationCurrency:     _ncg,
			RewardCurrencies:       []state.Currency{_ncg},
			UnbondingPeriod:        10,
			MaxUnbondLockInEntries: 2,
			MaxRebondGraceEntries:  2,
		},
		SweepInterval: 1,
	}
}

func actionCtx(height uint64, caller address.Address) context.Context {
	ctx := protocol.WithBlockCtx(context.Background(), protocol.BlockCtx{BlockHeight: height})
	return protocol.WithActionCtx(ctx, protocol.ActionCtx{Caller: caller})
}

func requireBalance(t *testing.T, sr protocol.StateReader, addr address.Address, expected string) {
	bal, err := account.Balance(sr, addr, _ncg)
	require.NoError(t, err)
	require.Equal(t, expected, bal.String())
}

func TestNewProtocol(t *testing.T) {
	require := require.New(t)

	_, err := NewProtocol(nil, testConfig())
	require.Equal(ErrInvalidConfig, errors.Cause(err))
	cfg := testConfig()
	cfg.Policy.UnbondingPeriod = 0
	_, err = NewProtocol(identityset.Operator(), cfg)
	require.Equal(ErrInvalidConfig, errors.Cause(err))

	cfg = testConfig()
	cfg.SweepInterval = 0
	p, err := NewProtocol(identityset.Operator(), cfg)
	require.NoError(err)
	require.Equal(ProtocolID, p.Name())
	require.Equal(uint64(1), p.config.SweepInterval)
}

func TestProtocol_Validate(t *testing.T) {
	require := require.New(t)
	p, err := NewProtocol(identityset.Operator(), testConfig())
	require.NoError(err)
	ctx := context.Background()
	v := identityset.Address(0).String()

	act, err := action.NewDelegate(v, "0")
	require.NoError(err)
	require.Equal(action.ErrInvalidAmount, errors.Cause(p.Validate(ctx, act, nil)))
	act, err = action.NewDelegate("io1invalid", "10")
	require.NoError(err)
	require.Equal(action.ErrAddress, errors.Cause(p.Validate(ctx, act, nil)))
	redelegate, err := action.NewRedelegate(v, v, "10")
	require.NoError(err)
	require.Equal(action.ErrSameDelegatee, errors.Cause(p.Validate(ctx, redelegate, nil)))
	reward, err := action.NewAllocateReward(v, "", "10")
	require.NoError(err)
	require.Equal(action.ErrInvalidTicker, errors.Cause(p.Validate(ctx, reward, nil)))

	act, err = action.NewDelegate(v, "10")
	require.NoError(err)
	require.NoError(p.Validate(ctx, act, nil))
	// actions of other protocols pass through
	mint, err := action.NewMint(v, "NCG", "0")
	require.NoError(err)
	require.NoError(p.Validate(ctx, mint, nil))
}

func TestProtocol_Handle(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	sm := testdb.NewMockStateManager(ctrl)

	p, err := NewProtocol(identityset.Operator(), testConfig())
	require.NoError(err)
	var (
		op    = identityset.Operator()
		v     = identityset.Address(0)
		d     = identityset.Address(1)
		payer = identityset.Address(2)
		tr    = account.NewTransferer(sm)
	)
	require.NoError(tr.MintAsset(d, _ncg.Raw(big.NewInt(1000))))
	require.NoError(tr.MintAsset(payer, _ncg.Raw(big.NewInt(1000))))
	handle := func(height uint64, caller address.Address, act action.Action) *action.Receipt {
		require.NoError(p.Validate(actionCtx(height, caller), act, sm))
		receipt, err := p.Handle(actionCtx(height, caller), act, sm)
		require.NoError(err)
		require.NotNil(receipt)
		require.Equal(height, receipt.BlockHeight)
		return receipt
	}

	// register
	receipt := handle(1, v, action.NewRegisterDelegatee())
	require.True(receipt.Succeeded())
	receipt = handle(1, v, action.NewRegisterDelegatee())
	require.Equal(action.InvalidInputReceiptStatus, receipt.Status)
	require.Contains(receipt.ExecutionError, delegation.ErrDelegateeExists.Error())

	// delegate
	act, err := action.NewDelegate(v.String(), "500")
	require.NoError(err)
	receipt = handle(1, d, act)
	require.True(receipt.Succeeded())
	logs := receipt.TransactionLogs()
	require.Len(logs, 1)
	require.Equal(action.DelegateLog, logs[0].Type)
	require.Equal(d.String(), logs[0].Sender)
	require.Equal(v.String(), logs[0].Recipient)
	require.Equal("5.00 NCG", logs[0].Amount.String())
	requireBalance(t, sm, d, "5.00 NCG")
	act, err = action.NewDelegate(identityset.Address(5).String(), "10")
	require.NoError(err)
	receipt = handle(1, d, act)
	require.Equal(action.InvalidInputReceiptStatus, receipt.Status)

	// undelegate up to the lock-in capacity
	for h := uint64(2); h <= 3; h++ {
		undelegate, err := action.NewUndelegate(v.String(), "100")
		require.NoError(err)
		receipt = handle(h, d, undelegate)
		require.True(receipt.Succeeded())
		require.Equal(action.UndelegateLog, receipt.TransactionLogs()[0].Type)
		require.Equal("1.00 NCG", receipt.TransactionLogs()[0].Amount.String())
	}
	undelegate, err := action.NewUndelegate(v.String(), "100")
	require.NoError(err)
	receipt = handle(4, d, undelegate)
	require.Equal(action.CapacityExceededReceiptStatus, receipt.Status)

	// rewards
	reward, err := action.NewAllocateReward(v.String(), "GOLD", "400")
	require.NoError(err)
	receipt = handle(5, payer, reward)
	require.Equal(action.InvalidInputReceiptStatus, receipt.Status)
	reward, err = action.NewAllocateReward(v.String(), "NCG", "400")
	require.NoError(err)
	receipt = handle(5, payer, reward)
	require.True(receipt.Succeeded())
	require.Equal(action.AllocateRewardLog, receipt.TransactionLogs()[0].Type)
	receipt = handle(6, d, action.NewClaimReward(v.String()))
	require.True(receipt.Succeeded())
	logs = receipt.TransactionLogs()
	require.Len(logs, 1)
	require.Equal(action.RewardLog, logs[0].Type)
	require.Equal("3.99 NCG", logs[0].Amount.String())
	requireBalance(t, sm, d, "8.99 NCG")

	// jail is operator only
	receipt = handle(7, d, action.NewJail(v.String(), 20))
	require.Equal(action.UnauthorizedReceiptStatus, receipt.Status)
	receipt = handle(7, op, action.NewJail(v.String(), 20))
	require.True(receipt.Succeeded())
	act, err = action.NewDelegate(v.String(), "10")
	require.NoError(err)
	receipt = handle(7, d, act)
	require.Equal(action.InvalidInputReceiptStatus, receipt.Status)
	receipt = handle(8, v, action.NewUnjail())
	require.Equal(action.InvalidInputReceiptStatus, receipt.Status)

	// maturity sweep
	ctx := protocol.WithBlockCtx(context.Background(), protocol.BlockCtx{BlockHeight: 12})
	require.NoError(p.FinalizeBlock(ctx, sm))
	requireBalance(t, sm, d, "9.99 NCG")
	require.Equal(float64(1), testutil.ToFloat64(_unbondingMtc))
	require.NoError(p.FinalizeBlock(ctx, sm))
	requireBalance(t, sm, d, "9.99 NCG")

	receipt = handle(20, v, action.NewUnjail())
	require.True(receipt.Succeeded())

	// slash with tombstone
	slash, err := action.NewSlash(v.String(), 3, "10", 0, true)
	require.NoError(err)
	receipt = handle(21, d, slash)
	require.Equal(action.UnauthorizedReceiptStatus, receipt.Status)
	receipt = handle(21, op, slash)
	require.True(receipt.Succeeded())
	logs = receipt.TransactionLogs()
	require.Len(logs, 1)
	require.Equal(action.SlashLog, logs[0].Type)
	require.Equal("0.30 NCG", logs[0].Amount.String())
	receipt = handle(22, v, action.NewUnjail())
	require.Equal(action.InvalidInputReceiptStatus, receipt.Status)
	require.Contains(receipt.ExecutionError, delegation.ErrTombstoned.Error())

	m, err := delegation.NewReadOnlyLedger(sm, account.NewBalanceReader(sm)).Delegatee(v)
	require.NoError(err)
	require.True(m.IsTombstoned())
	require.Equal("2.70 NCG", m.TotalDelegated().String())

	// actions of other protocols are ignored
	tsf, err := action.NewTransfer(v.String(), "NCG", "1")
	require.NoError(err)
	receipt, err = p.Handle(actionCtx(22, d), tsf, sm)
	require.NoError(err)
	require.Nil(receipt)
}

func TestProtocol_Redelegate(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	sm := testdb.NewMockStateManager(ctrl)

	p, err := NewProtocol(identityset.Operator(), testConfig())
	require.NoError(err)
	var (
		src = identityset.Address(0)
		dst = identityset.Address(1)
		d   = identityset.Address(2)
	)
	require.NoError(account.NewTransferer(sm).MintAsset(d, _ncg.Raw(big.NewInt(1000))))
	for _, addr := range []address.Address{src, dst} {
		receipt, err := p.Handle(actionCtx(1, addr), action.NewRegisterDelegatee(), sm)
		require.NoError(err)
		require.True(receipt.Succeeded())
	}
	act, err := action.NewDelegate(src.String(), "300")
	require.NoError(err)
	receipt, err := p.Handle(actionCtx(1, d), act, sm)
	require.NoError(err)
	require.True(receipt.Succeeded())

	redelegate, err := action.NewRedelegate(src.String(), dst.String(), "100")
	require.NoError(err)
	receipt, err = p.Handle(actionCtx(2, d), redelegate, sm)
	require.NoError(err)
	require.True(receipt.Succeeded())
	logs := receipt.TransactionLogs()
	require.Len(logs, 1)
	require.Equal(action.RedelegateLog, logs[0].Type)
	require.Equal(src.String(), logs[0].Sender)
	require.Equal(dst.String(), logs[0].Recipient)
	require.Equal("1.00 NCG", logs[0].Amount.String())

	// the grace clawback shows up as a slash of the destination
	slash, err := action.NewSlash(src.String(), 2, "10", 30, false)
	require.NoError(err)
	receipt, err = p.Handle(actionCtx(3, identityset.Operator()), slash, sm)
	require.NoError(err)
	require.True(receipt.Succeeded())
	logs = receipt.TransactionLogs()
	require.Len(logs, 2)
	require.Equal("0.20 NCG", logs[0].Amount.String())
	require.Equal(dst.String(), logs[1].Sender)
	require.Equal("0.10 NCG", logs[1].Amount.String())

	l := delegation.NewReadOnlyLedger(sm, account.NewBalanceReader(sm))
	m, err := l.Delegatee(src)
	require.NoError(err)
	require.True(m.IsJailed())
	require.Equal(uint64(30), m.JailedUntil())
	m, err = l.Delegatee(dst)
	require.NoError(err)
	require.Equal("0.90 NCG", m.TotalDelegated().String())
	require.Equal("90", m.TotalShares().String())

	cancel, err := action.NewCancelUnbonding(src.String(), "10")
	require.NoError(err)
	receipt, err = p.Handle(actionCtx(4, d), cancel, sm)
	require.NoError(err)
	require.Equal(action.InvalidInputReceiptStatus, receipt.Status)
	require.Contains(receipt.ExecutionError, delegation.ErrJailed.Error())
}
