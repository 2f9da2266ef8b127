// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package factory

import (
	"context"
	"testing"

	"github.com/iotexproject/go-pkgs/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-delegation/action"
	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/action/protocol/account"
	"github.com/iotexproject/iotex-delegation/action/protocol/delegation"
	"github.com/iotexproject/iotex-delegation/action/protocol/staking"
	"github.com/iotexproject/iotex-delegation/db"
	"github.com/iotexproject/iotex-delegation/state"
	"github.com/iotexproject/iotex-delegation/test/identityset"
)

var _ncg = state.NewCurrency("NCG", 2)

func newTestFactory(t *testing.T, kv db.KVStore) Factory {
	require := require.New(t)
	sf, err := NewFactory(kv)
	require.NoError(err)
	require.NoError(sf.Register(account.NewProtocol(identityset.Operator(), _ncg)))
	sp, err := staking.NewProtocol(identityset.Operator(), staking.Config{
		Policy: delegation.DelegateePolicy{
			DelegationCurrency:     _ncg,
			RewardCurrencies:       []state.Currency{_ncg},
			UnbondingPeriod:        10,
			MaxUnbondLockInEntries: 5,
			MaxRebondGraceEntries:  5,
		},
		SweepInterval: 1,
	})
	require.NoError(err)
	require.NoError(sf.Register(sp))
	require.NoError(sf.Start(context.Background()))
	return sf
}

func sign(t *testing.T, sk crypto.PrivateKey, nonce uint64, act action.Action) *action.SealedEnvelope {
	selp, err := action.Sign(action.NewEnvelope(nonce, act), sk)
	require.NoError(t, err)
	return selp
}

func runBlock(sf Factory, height uint64, elps ...*action.SealedEnvelope) ([]*action.Receipt, error) {
	ctx := protocol.WithBlockCtx(context.Background(), protocol.BlockCtx{BlockHeight: height})
	return sf.RunBlock(ctx, elps)
}

func TestFactory_RunBlock(t *testing.T) {
	require := require.New(t)
	kv := db.NewMemKVStore()
	sf := newTestFactory(t, kv)

	var (
		op = identityset.OperatorKey()
		v  = identityset.PrivateKey(0)
		d  = identityset.PrivateKey(1)
	)
	mint, err := action.NewMint(d.PublicKey().Address().String(), "NCG", "1000")
	require.NoError(err)
	delegate, err := action.NewDelegate(v.PublicKey().Address().String(), "500")
	require.NoError(err)
	receipts, err := runBlock(sf, 1,
		sign(t, op, 1, mint),
		sign(t, v, 1, action.NewRegisterDelegatee()),
		sign(t, d, 1, delegate),
	)
	require.NoError(err)
	require.Len(receipts, 3)
	for _, r := range receipts {
		require.True(r.Succeeded(), r.ExecutionError)
	}
	h, err := sf.Height()
	require.NoError(err)
	require.Equal(uint64(1), h)

	_, err = runBlock(sf, 3)
	require.Equal(ErrInvalidHeight, errors.Cause(err))

	// a failed action leaves no trace
	undelegate, err := action.NewUndelegate(v.PublicKey().Address().String(), "100")
	require.NoError(err)
	overdraft, err := action.NewTransfer(v.PublicKey().Address().String(), "NCG", "10000")
	require.NoError(err)
	unregistered, err := action.NewDelegate(identityset.Address(5).String(), "10")
	require.NoError(err)
	zero, err := action.NewDelegate(v.PublicKey().Address().String(), "0")
	require.NoError(err)
	receipts, err = runBlock(sf, 2,
		sign(t, d, 2, undelegate),
		sign(t, d, 3, overdraft),
		sign(t, d, 4, unregistered),
		sign(t, d, 5, zero),
	)
	require.NoError(err)
	require.Len(receipts, 4)
	require.True(receipts[0].Succeeded())
	require.Equal(action.FailureReceiptStatus, receipts[1].Status)
	require.Equal(action.InvalidInputReceiptStatus, receipts[2].Status)
	require.Equal(action.InvalidInputReceiptStatus, receipts[3].Status)

	var (
		delegator = d.PublicKey().Address()
		delegatee = v.PublicKey().Address()
		br        = account.NewBalanceReader(sf)
		l         = delegation.NewReadOnlyLedger(sf, br)
	)
	bal, err := br.GetBalance(delegator, _ncg)
	require.NoError(err)
	require.Equal("5.00 NCG", bal.String())
	bond, err := l.Bond(delegatee, delegator)
	require.NoError(err)
	require.Equal("400", bond.Share().String())
	lockIn, err := l.UnbondLockIn(delegatee, delegator)
	require.NoError(err)
	require.Equal(1, lockIn.Len())

	// the lock-in matures at block 12
	for height := uint64(3); height <= 12; height++ {
		receipts, err = runBlock(sf, height)
		require.NoError(err)
		require.Empty(receipts)
	}
	bal, err = br.GetBalance(delegator, _ncg)
	require.NoError(err)
	require.Equal("6.00 NCG", bal.String())
	set, err := l.UnbondingSet()
	require.NoError(err)
	require.Zero(set.Len())

	// the height survives a restart
	require.NoError(sf.Stop(context.Background()))
	sf = newTestFactory(t, kv)
	h, err = sf.Height()
	require.NoError(err)
	require.Equal(uint64(12), h)
	m, err := delegation.NewReadOnlyLedger(sf, account.NewBalanceReader(sf)).Delegatee(delegatee)
	require.NoError(err)
	require.Equal("4.00 NCG", m.TotalDelegated().String())
}

func TestFactory_UnhandledAction(t *testing.T) {
	require := require.New(t)
	sf, err := NewFactory(db.NewMemKVStore())
	require.NoError(err)
	require.NoError(sf.Register(account.NewProtocol(identityset.Operator(), _ncg)))
	require.NoError(sf.Start(context.Background()))

	_, err = runBlock(sf, 1, sign(t, identityset.PrivateKey(0), 1, action.NewRegisterDelegatee()))
	require.Equal(ErrUnhandledAction, errors.Cause(err))
	h, err := sf.Height()
	require.NoError(err)
	require.Zero(h)

	_, err = NewFactory(nil)
	require.Error(err)
	_, err = NewFactory(db.NewMemKVStore(), RegistryOption(nil))
	require.Error(err)
}
