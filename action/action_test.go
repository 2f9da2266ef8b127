// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"math/big"
	"testing"

	"github.com/iotexproject/go-pkgs/crypto"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-delegation/state"
)

const _testAddr = "io1mflp9m6hcgm2qcghchsdqj3z3eccrnekx9p0ms"

func TestActionSanityCheck(t *testing.T) {
	require := require.New(t)

	_, err := NewDelegate(_testAddr, "abc")
	require.Equal(ErrInvalidAmount, errors.Cause(err))

	d, err := NewDelegate(_testAddr, "100")
	require.NoError(err)
	require.NoError(d.SanityCheck())
	require.Equal(_testAddr, d.Delegatee())
	require.Equal(big.NewInt(100), d.Amount())

	d, err = NewDelegate(_testAddr, "0")
	require.NoError(err)
	require.Equal(ErrInvalidAmount, errors.Cause(d.SanityCheck()))

	d, err = NewDelegate("io1xyz", "10")
	require.NoError(err)
	require.Equal(ErrAddress, errors.Cause(d.SanityCheck()))

	r, err := NewRedelegate(_testAddr, _testAddr, "1")
	require.NoError(err)
	require.Equal(ErrSameDelegatee, r.SanityCheck())

	a, err := NewAllocateReward(_testAddr, "", "1")
	require.NoError(err)
	require.Equal(ErrInvalidTicker, a.SanityCheck())

	s, err := NewSlash(_testAddr, 10, "-3", 0, false)
	require.NoError(err)
	require.Equal(ErrInvalidAmount, errors.Cause(s.SanityCheck()))

	m, err := NewMint(_testAddr, "NCG", "5")
	require.NoError(err)
	require.NoError(m.SanityCheck())
	require.NoError(NewJail(_testAddr, 100).SanityCheck())
	require.NoError(NewUnjail().SanityCheck())
	require.NoError(NewClaimReward(_testAddr).SanityCheck())
}

func TestSealedEnvelope(t *testing.T) {
	require := require.New(t)

	sk, err := crypto.GenerateKey()
	require.NoError(err)
	d, err := NewDelegate(_testAddr, "100")
	require.NoError(err)

	sealed, err := Sign(NewEnvelope(1, d), sk)
	require.NoError(err)
	require.NoError(sealed.VerifySignature())
	require.NotEqual(hash.ZeroHash256, sealed.Hash())
	require.Equal(uint64(1), sealed.Nonce())
	sender, err := sealed.SenderAddress()
	require.NoError(err)
	require.Equal(sk.PublicKey().Hash(), sender.Bytes())

	// a different nonce yields a different hash
	other, err := Sign(NewEnvelope(2, d), sk)
	require.NoError(err)
	require.NotEqual(sealed.Hash(), other.Hash())

	// tampered signature
	sealed.signature[0] ^= 0xff
	require.Error(sealed.VerifySignature())

	// invalid action is rejected before signing
	bad, err := NewDelegate(_testAddr, "0")
	require.NoError(err)
	_, err = Sign(NewEnvelope(3, bad), sk)
	require.Equal(ErrInvalidAmount, errors.Cause(err))
}

func TestReceipt(t *testing.T) {
	require := require.New(t)

	ncg := state.NewCurrency("NCG", 2)
	r := NewReceipt(SuccessReceiptStatus, 3, hash.ZeroHash256)
	r.AddTransactionLogs(
		&TransactionLog{Type: DelegateLog, Sender: "a", Recipient: "b", Amount: ncg.Raw(big.NewInt(5))},
		&TransactionLog{Type: RewardLog, Amount: ncg.Zero()},
		nil,
	)
	require.True(r.Succeeded())
	require.Len(r.TransactionLogs(), 1)
	require.Equal("delegate", r.TransactionLogs()[0].Type.String())
	require.Equal("unknown", TransactionLogType(200).String())
}
