// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package log

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLoggers(t *testing.T) {
	r := require.New(t)

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level.SetLevel(zap.WarnLevel)
	r.NoError(InitLoggers(GlobalConfig{Zap: &zapCfg}, map[string]GlobalConfig{
		"staking": {},
	}))
	r.NotNil(L())
	r.NotNil(S())
	r.NotNil(Logger("staking"))
	// unknown sub logger falls back to a named global logger
	r.NotNil(Logger("factory"))
	r.False(L().Core().Enabled(zap.InfoLevel))
	r.True(L().Core().Enabled(zap.WarnLevel))
}
