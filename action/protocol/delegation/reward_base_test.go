// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package delegation

import (
	"math/big"
	"testing"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotexproject/iotex-delegation/state"
	"github.com/iotexproject/iotex-delegation/test/identityset"
)

func TestRecommendedSigFig(t *testing.T) {
	require := require.New(t)
	for _, c := range []struct {
		shares int64
		sigFig uint32
	}{
		{0, DefaultSigFig},
		{-1, DefaultSigFig},
		{9, 2},
		{10, 3},
		{99, 3},
		{12345, 6},
	} {
		require.Equal(c.sigFig, RecommendedSigFig(big.NewInt(c.shares)), "shares %d", c.shares)
	}
	require.Equal(DefaultSigFig, RecommendedSigFig(nil))
}

func TestRewardBase(t *testing.T) {
	require := require.New(t)

	v := identityset.Address(0)
	currencies := []state.Currency{_ncg, _gold}
	_, err := NewRewardBase(v, big.NewInt(0), []state.Currency{_ncg, _ncg}, 1)
	require.Equal(ErrInvalidCurrency, errors.Cause(err))
	_, err = NewRewardBase(v, big.NewInt(-1), currencies, 1)
	require.Equal(ErrInvalidAmount, errors.Cause(err))

	rb, err := NewRewardBase(v, big.NewInt(0), currencies, 1)
	require.NoError(err)
	require.Equal(ErrInvalidRewardBase, errors.Cause(rb.AddReward(ncg(10))))
	require.NoError(rb.UpdateTotalShares(big.NewInt(400), 1))
	require.Equal(uint32(4), rb.SigFig())

	require.Equal(ErrUnknownCurrency, errors.Cause(rb.AddReward(_crystal.Raw(big.NewInt(1)))))
	_, err = rb.Portion(_crystal)
	require.Equal(ErrUnknownCurrency, errors.Cause(err))
	require.Equal(ErrInvalidAmount, errors.Cause(rb.AddReward(gold(-1))))

	require.NoError(rb.AddReward(gold(400)))
	p, err := rb.Portion(_gold)
	require.NoError(err)
	require.Equal("10000", p.String())
	rewards := rb.CumulativeRewards(big.NewInt(300))
	require.Len(rewards, 2)
	require.True(rewards[0].IsZero())
	require.Equal(gold(300).String(), rewards[1].String())

	buf, err := rb.Serialize()
	require.NoError(err)
	rb2 := &RewardBase{}
	require.NoError(rb2.Deserialize(buf))
	require.True(address.Equal(v, rb2.Delegatee()))
	require.Equal(uint64(1), rb2.StartHeight())
	require.Equal("400", rb2.TotalShares().String())
	require.Equal(rb.SigFig(), rb2.SigFig())
	require.Equal(currencies, rb2.Currencies())
	p, err = rb2.Portion(_gold)
	require.NoError(err)
	require.Equal("10000", p.String())

	require.Equal(ErrInvalidHeight, errors.Cause(rb.UpdateTotalShares(big.NewInt(1), 0)))
}

func TestRewardBase_RescaleOnShareChange(t *testing.T) {
	require := require.New(t)

	rb, err := NewRewardBase(identityset.Address(0), big.NewInt(99), []state.Currency{_ncg, _gold}, 1)
	require.NoError(err)
	require.Equal(uint32(3), rb.SigFig())
	require.NoError(rb.AddReward(ncg(10)))
	p, err := rb.Portion(_ncg)
	require.NoError(err)
	require.Equal("101", p.String())
	snapshot := rb.Clone()

	// the multiplier grows before the reward of the same height is added
	require.NoError(rb.UpdateTotalShares(big.NewInt(1000), 2))
	require.Equal(uint32(5), rb.SigFig())
	require.Equal(uint64(2), rb.StartHeight())
	p, err = rb.Portion(_ncg)
	require.NoError(err)
	require.Equal("10100", p.String())
	require.NoError(rb.AddReward(ncg(10)))
	p, err = rb.Portion(_ncg)
	require.NoError(err)
	require.Equal("11100", p.String())

	rewards, err := rb.RewardsSince(snapshot, big.NewInt(1000))
	require.NoError(err)
	require.Equal(ncg(10).String(), rewards[0].String())
	require.True(rewards[1].IsZero())
	_, err = snapshot.RewardsSince(rb, big.NewInt(1))
	require.Equal(ErrInvalidRewardBase, errors.Cause(err))

	// the multiplier never shrinks
	require.NoError(rb.UpdateTotalShares(big.NewInt(50), 3))
	require.Equal(uint32(5), rb.SigFig())
	require.Equal("50", rb.TotalShares().String())
	// the snapshot is a copy
	p, err = snapshot.Portion(_ncg)
	require.NoError(err)
	require.Equal("101", p.String())
}

func TestLumpSumRewardsRecord(t *testing.T) {
	require := require.New(t)

	var (
		v  = identityset.Address(0)
		d1 = identityset.Address(1)
		d2 = identityset.Address(2)
		d3 = identityset.Address(3)
	)
	_, err := NewLumpSumRewardsRecord(v, 5, big.NewInt(-1), nil, nil)
	require.Equal(ErrInvalidAmount, errors.Cause(err))
	rec, err := NewLumpSumRewardsRecord(v, 5, big.NewInt(300), []address.Address{d2, d1}, []state.Currency{_ncg, _gold})
	require.NoError(err)
	require.True(rec.ContainsDelegator(d1))
	require.True(rec.ContainsDelegator(d2))
	require.False(rec.ContainsDelegator(d3))
	_, ok := rec.LastStartHeight()
	require.False(ok)
	require.Equal(ErrInvalidHeight, errors.Cause(rec.SetLastStartHeight(5)))
	require.NoError(rec.SetLastStartHeight(2))

	require.Equal(ErrUnknownCurrency, errors.Cause(rec.AddLumpSumRewards(_crystal.Raw(big.NewInt(1)))))
	require.Equal(ErrInvalidAmount, errors.Cause(rec.AddLumpSumRewards(gold(-1))))
	require.NoError(rec.AddLumpSumRewards(gold(100)))
	require.NoError(rec.AddLumpSumRewards(gold(1)))
	rewards := rec.RewardsDuringPeriod(big.NewInt(100))
	require.Len(rewards, 2)
	require.True(rewards[0].IsZero())
	require.Equal(gold(33).String(), rewards[1].String())

	buf, err := rec.Serialize()
	require.NoError(err)
	rec2 := &LumpSumRewardsRecord{}
	require.NoError(rec2.Deserialize(buf))
	require.True(address.Equal(v, rec2.Delegatee()))
	require.Equal(uint64(5), rec2.StartHeight())
	require.Equal("300", rec2.TotalShares().String())
	require.Len(rec2.Delegators(), 2)
	require.True(rec2.ContainsDelegator(d2))
	last, ok := rec2.LastStartHeight()
	require.True(ok)
	require.Equal(uint64(2), last)
	require.Equal(gold(101).String(), rec2.LumpSumRewards()[1].String())

	empty, err := NewLumpSumRewardsRecord(v, 1, big.NewInt(0), nil, []state.Currency{_gold})
	require.NoError(err)
	require.NoError(empty.AddLumpSumRewards(gold(10)))
	require.True(empty.RewardsDuringPeriod(big.NewInt(10))[0].IsZero())
}
