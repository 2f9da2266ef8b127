// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package testdb

import (
	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"

	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/db/batch"
	"github.com/iotexproject/iotex-delegation/state"
	"github.com/iotexproject/iotex-delegation/test/mock/mock_chainmanager"
)

// NewMockStateManager returns a mock state manager whose states live in an in-memory cached batch
func NewMockStateManager(ctrl *gomock.Controller) *mock_chainmanager.MockStateManager {
	sm := mock_chainmanager.NewMockStateManager(ctrl)
	cb := batch.NewCachedBatch()
	sm.EXPECT().State(gomock.Any(), gomock.Any()).DoAndReturn(
		func(s interface{}, opts ...protocol.StateOption) (uint64, error) {
			cfg, err := protocol.CreateStateConfig(opts...)
			if err != nil {
				return 0, err
			}
			val, err := cb.Get(cfg.Namespace, cfg.Key)
			if err != nil {
				return 0, errors.Wrapf(state.ErrStateNotExist, "failed to get state of ns = %s and key = %x", cfg.Namespace, cfg.Key)
			}
			return 0, state.Deserialize(s, val)
		}).AnyTimes()
	sm.EXPECT().PutState(gomock.Any(), gomock.Any()).DoAndReturn(
		func(s interface{}, opts ...protocol.StateOption) (uint64, error) {
			cfg, err := protocol.CreateStateConfig(opts...)
			if err != nil {
				return 0, err
			}
			ss, err := state.Serialize(s)
			if err != nil {
				return 0, err
			}
			cb.Put(cfg.Namespace, cfg.Key, ss, "failed to put state")
			return 0, nil
		}).AnyTimes()
	sm.EXPECT().DelState(gomock.Any()).DoAndReturn(
		func(opts ...protocol.StateOption) (uint64, error) {
			cfg, err := protocol.CreateStateConfig(opts...)
			if err != nil {
				return 0, err
			}
			cb.Delete(cfg.Namespace, cfg.Key, "failed to delete state")
			return 0, nil
		}).AnyTimes()
	sm.EXPECT().Snapshot().DoAndReturn(cb.Snapshot).AnyTimes()
	sm.EXPECT().Revert(gomock.Any()).DoAndReturn(cb.RevertSnapshot).AnyTimes()
	sm.EXPECT().Height().Return(uint64(0), nil).AnyTimes()
	return sm
}
