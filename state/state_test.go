// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package state

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestAccountBalance(t *testing.T) {
	require := require.New(t)

	acct := NewAccount()
	require.NoError(acct.AddBalance(big.NewInt(20)))
	require.Equal(big.NewInt(20), acct.Balance)
	require.NoError(acct.SubBalance(big.NewInt(15)))
	require.Equal(big.NewInt(5), acct.Balance)
	require.Equal(ErrNotEnoughBalance, acct.SubBalance(big.NewInt(6)))
	require.True(acct.HasSufficientBalance(big.NewInt(5)))
	require.Equal(ErrInvalidAmount, errors.Cause(acct.AddBalance(big.NewInt(-1))))

	ss, err := acct.Serialize()
	require.NoError(err)
	acct2 := &Account{}
	require.NoError(acct2.Deserialize(ss))
	require.Equal(0, acct2.Balance.Cmp(big.NewInt(5)))
}

func TestFungibleAssetValue(t *testing.T) {
	require := require.New(t)

	ncg := NewCurrency("NCG", 2)
	gold := NewCurrency("GOLD", 0)
	a := ncg.Raw(big.NewInt(1250))
	b := ncg.Raw(big.NewInt(5))

	sum, err := a.Add(b)
	require.NoError(err)
	require.Equal("12.55 NCG", sum.String())
	diff, err := b.Sub(a)
	require.NoError(err)
	require.Equal("-12.45 NCG", diff.String())
	require.Equal(-1, diff.Sign())

	_, err = a.Add(gold.Raw(big.NewInt(1)))
	require.Equal(ErrCurrencyMismatch, errors.Cause(err))
	_, err = a.Cmp(gold.Zero())
	require.Error(err)
	c, err := a.Cmp(b)
	require.NoError(err)
	require.Equal(1, c)

	require.Equal("7 GOLD", gold.Raw(big.NewInt(7)).String())
	require.True(gold.Zero().IsZero())
	require.True(a.Equal(a.Clone()))

	// the raw amount is copied on construction
	raw := big.NewInt(3)
	v := ncg.Raw(raw)
	raw.SetInt64(4)
	require.Equal(int64(3), v.Raw.Int64())
}

func TestSerializeHelpers(t *testing.T) {
	require := require.New(t)

	acct := NewAccount()
	require.NoError(acct.AddBalance(big.NewInt(9)))
	b, err := Serialize(acct)
	require.NoError(err)
	out := &Account{}
	require.NoError(Deserialize(out, b))
	require.Equal(0, out.Balance.Cmp(big.NewInt(9)))

	_, err = Serialize(struct{}{})
	require.Equal(ErrStateSerialization, errors.Cause(err))
	require.Equal(ErrStateDeserialization, errors.Cause(Deserialize(&struct{}{}, b)))
}
