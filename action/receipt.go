// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"github.com/iotexproject/go-pkgs/hash"

	"github.com/iotexproject/iotex-delegation/state"
)

const (
	// FailureReceiptStatus is the status that action execution failed
	FailureReceiptStatus = uint64(0)
	// SuccessReceiptStatus is the status that action execution success
	SuccessReceiptStatus = uint64(1)
	// InvalidInputReceiptStatus is the status of an action rejected by input validation
	InvalidInputReceiptStatus = uint64(100)
	// CapacityExceededReceiptStatus is the status of an action rejected because a bounded queue is full
	CapacityExceededReceiptStatus = uint64(101)
	// InvariantViolationReceiptStatus is the status of an action that would break a ledger invariant
	InvariantViolationReceiptStatus = uint64(102)
	// UnauthorizedReceiptStatus is the status of an action sent by a caller without permission
	UnauthorizedReceiptStatus = uint64(103)
)

// TransactionLogType is the type of a value movement
type TransactionLogType uint8

// transaction log types
const (
	TransferLog TransactionLogType = iota
	MintLog
	DelegateLog
	UndelegateLog
	RedelegateLog
	CancelUnbondingLog
	RewardLog
	AllocateRewardLog
	SlashLog
)

var _logTypeNames = map[TransactionLogType]string{
	TransferLog:        "transfer",
	MintLog:            "mint",
	DelegateLog:        "delegate",
	UndelegateLog:      "undelegate",
	RedelegateLog:      "redelegate",
	CancelUnbondingLog: "cancelUnbonding",
	RewardLog:          "reward",
	AllocateRewardLog:  "allocateReward",
	SlashLog:           "slash",
}

func (t TransactionLogType) String() string {
	if name, ok := _logTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

type (
	// Receipt represents the result of an action
	Receipt struct {
		Status          uint64
		BlockHeight     uint64
		ActionHash      hash.Hash256
		ExecutionError  string
		transactionLogs []*TransactionLog
	}

	// TransactionLog describes a value moved by an action
	TransactionLog struct {
		Type      TransactionLogType
		Sender    string
		Recipient string
		Amount    state.FungibleAssetValue
	}
)

// NewReceipt creates a receipt with the given status
func NewReceipt(status uint64, height uint64, actHash hash.Hash256) *Receipt {
	return &Receipt{
		Status:      status,
		BlockHeight: height,
		ActionHash:  actHash,
	}
}

// AddTransactionLogs adds transaction logs to the receipt, zero movements are skipped
func (receipt *Receipt) AddTransactionLogs(logs ...*TransactionLog) *Receipt {
	for _, l := range logs {
		if l == nil || l.Amount.IsZero() {
			continue
		}
		receipt.transactionLogs = append(receipt.transactionLogs, l)
	}
	return receipt
}

// TransactionLogs returns the transaction logs
func (receipt *Receipt) TransactionLogs() []*TransactionLog {
	return receipt.transactionLogs
}

// Succeeded returns true if the action succeeded
func (receipt *Receipt) Succeeded() bool {
	return receipt.Status == SuccessReceiptStatus
}
