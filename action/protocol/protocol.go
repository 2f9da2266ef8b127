// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package protocol

import (
	"context"

	"github.com/iotexproject/iotex-delegation/action"
)

type (
	// Protocol defines the protocol interfaces atop the ledger
	Protocol interface {
		ActionValidator
		ActionHandler
		Name() string
	}

	// ActionValidator is the interface of validating an action
	ActionValidator interface {
		Validate(context.Context, action.Action, StateReader) error
	}

	// ActionHandler is the interface for the action handlers. For each incoming action, the assembled actions will be
	// called one by one to process it. ActionHandler implementation is supposed to parse the sub-type of the action to
	// decide if it wants to handle this action or not.
	ActionHandler interface {
		Handle(context.Context, action.Action, StateManager) (*action.Receipt, error)
	}

	// BlockFinalizer is implemented by protocols that run housekeeping after the last action of a block
	BlockFinalizer interface {
		FinalizeBlock(context.Context, StateManager) error
	}
)
