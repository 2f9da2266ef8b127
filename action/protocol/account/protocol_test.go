// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package account

import (
	"context"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/iotex-delegation/action"
	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/state"
	"github.com/iotexproject/iotex-delegation/test/identityset"
	"github.com/iotexproject/iotex-delegation/testutil/testdb"
)

var _ncg = state.NewCurrency("NCG", 2)

func TestTransferer(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	sm := testdb.NewMockStateManager(ctrl)

	var (
		alice = identityset.Address(0)
		bob   = identityset.Address(1)
		tr    = NewTransferer(sm)
	)
	require.NoError(tr.MintAsset(alice, _ncg.Raw(big.NewInt(1000))))
	require.NoError(tr.TransferAsset(alice, bob, _ncg.Raw(big.NewInt(300))))

	bal, err := tr.GetBalance(alice, _ncg)
	require.NoError(err)
	require.Equal(big.NewInt(700), bal.Raw)
	bal, err = Balance(sm, bob, _ncg)
	require.NoError(err)
	require.Equal(big.NewInt(300), bal.Raw)

	// other currency is a separate balance
	gold := state.NewCurrency("GOLD", 0)
	bal, err = tr.GetBalance(alice, gold)
	require.NoError(err)
	require.True(bal.IsZero())
	require.Equal(gold, bal.Currency)

	// insufficient balance leaves both sides untouched
	err = tr.TransferAsset(bob, alice, _ncg.Raw(big.NewInt(301)))
	require.Equal(state.ErrNotEnoughBalance, errors.Cause(err))
	bal, err = tr.GetBalance(bob, _ncg)
	require.NoError(err)
	require.Equal(big.NewInt(300), bal.Raw)

	// zero and self transfers are no-ops
	require.NoError(tr.TransferAsset(bob, alice, _ncg.Zero()))
	require.NoError(tr.TransferAsset(bob, bob, _ncg.Raw(big.NewInt(5000))))

	err = tr.TransferAsset(alice, bob, _ncg.Raw(big.NewInt(-1)))
	require.Equal(state.ErrInvalidAmount, errors.Cause(err))

	// burning the whole balance deletes the account
	require.NoError(tr.BurnAsset(bob, _ncg.Raw(big.NewInt(300))))
	bal, err = tr.GetBalance(bob, _ncg)
	require.NoError(err)
	require.True(bal.IsZero())
	err = tr.BurnAsset(bob, _ncg.Raw(big.NewInt(1)))
	require.Equal(state.ErrNotEnoughBalance, errors.Cause(err))
}

func TestProtocol_Validate(t *testing.T) {
	require := require.New(t)
	p := NewProtocol(identityset.Operator(), _ncg)
	require.Equal(ProtocolID, p.Name())

	c, err := p.Currency("NCG")
	require.NoError(err)
	require.Equal(_ncg, c)
	_, err = p.Currency("GOLD")
	require.Equal(ErrUnknownCurrency, errors.Cause(err))

	tsf, err := action.NewTransfer(identityset.Address(1).String(), "NCG", "10")
	require.NoError(err)
	require.NoError(p.Validate(context.Background(), tsf, nil))
	tsf, err = action.NewTransfer(identityset.Address(1).String(), "GOLD", "10")
	require.NoError(err)
	require.Equal(ErrUnknownCurrency, errors.Cause(p.Validate(context.Background(), tsf, nil)))
	mint, err := action.NewMint(identityset.Address(1).String(), "GOLD", "10")
	require.NoError(err)
	require.Equal(ErrUnknownCurrency, errors.Cause(p.Validate(context.Background(), mint, nil)))
}

func TestProtocol_Handle(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)
	sm := testdb.NewMockStateManager(ctrl)

	p := NewProtocol(identityset.Operator(), _ncg)
	ctx := protocol.WithBlockCtx(context.Background(), protocol.BlockCtx{BlockHeight: 1})
	asCaller := func(caller int) context.Context {
		addr := identityset.Operator()
		if caller >= 0 {
			addr = identityset.Address(caller)
		}
		return protocol.WithActionCtx(ctx, protocol.ActionCtx{Caller: addr})
	}

	// only the operator mints
	mint, err := action.NewMint(identityset.Address(0).String(), "NCG", "100")
	require.NoError(err)
	receipt, err := p.Handle(asCaller(0), mint, sm)
	require.NoError(err)
	require.Equal(action.UnauthorizedReceiptStatus, receipt.Status)
	receipt, err = p.Handle(asCaller(-1), mint, sm)
	require.NoError(err)
	require.True(receipt.Succeeded())
	require.Len(receipt.TransactionLogs(), 1)
	require.Equal(action.MintLog, receipt.TransactionLogs()[0].Type)

	tsf, err := action.NewTransfer(identityset.Address(1).String(), "NCG", "40")
	require.NoError(err)
	receipt, err = p.Handle(asCaller(0), tsf, sm)
	require.NoError(err)
	require.True(receipt.Succeeded())
	logs := receipt.TransactionLogs()
	require.Len(logs, 1)
	require.Equal(action.TransferLog, logs[0].Type)
	require.Equal(identityset.Address(0).String(), logs[0].Sender)
	require.Equal(identityset.Address(1).String(), logs[0].Recipient)
	require.Equal("0.40 NCG", logs[0].Amount.String())

	// overdraft is a failed receipt, not an error
	tsf, err = action.NewTransfer(identityset.Address(1).String(), "NCG", "61")
	require.NoError(err)
	receipt, err = p.Handle(asCaller(0), tsf, sm)
	require.NoError(err)
	require.Equal(action.FailureReceiptStatus, receipt.Status)
	require.NotEmpty(receipt.ExecutionError)

	bal, err := Balance(sm, identityset.Address(0), _ncg)
	require.NoError(err)
	require.Equal(big.NewInt(60), bal.Raw)

	// actions of other protocols are ignored
	receipt, err = p.Handle(asCaller(0), &action.ClaimReward{}, sm)
	require.NoError(err)
	require.Nil(receipt)
}
