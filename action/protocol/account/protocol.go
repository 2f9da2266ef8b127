// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package account

import (
	"context"

	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-delegation/action"
	"github.com/iotexproject/iotex-delegation/action/protocol"
	"github.com/iotexproject/iotex-delegation/pkg/log"
	"github.com/iotexproject/iotex-delegation/state"
)

const (
	// ProtocolID is the protocol ID
	ProtocolID = "account"
)

var (
	// ErrUnknownCurrency is the error that a ticker is not served by the ledger
	ErrUnknownCurrency = errors.New("unknown currency")
)

// Protocol defines the protocol of handling account
type Protocol struct {
	operator   address.Address
	currencies map[string]state.Currency
}

// NewProtocol instantiates the protocol of account
func NewProtocol(operator address.Address, currencies ...state.Currency) *Protocol {
	p := &Protocol{
		operator:   operator,
		currencies: make(map[string]state.Currency, len(currencies)),
	}
	for _, c := range currencies {
		p.currencies[c.Ticker] = c
	}
	return p
}

// Name returns the name of protocol
func (p *Protocol) Name() string {
	return ProtocolID
}

// Currency returns the currency of a ticker
func (p *Protocol) Currency(ticker string) (state.Currency, error) {
	c, ok := p.currencies[ticker]
	if !ok {
		return state.Currency{}, errors.Wrapf(ErrUnknownCurrency, "ticker %s", ticker)
	}
	return c, nil
}

// Validate validates an account action
func (p *Protocol) Validate(_ context.Context, act action.Action, _ protocol.StateReader) error {
	switch act := act.(type) {
	case *action.Transfer:
		if _, err := p.Currency(act.Ticker()); err != nil {
			return errors.Wrap(err, "error when validating transfer action")
		}
		return act.SanityCheck()
	case *action.Mint:
		if _, err := p.Currency(act.Ticker()); err != nil {
			return errors.Wrap(err, "error when validating mint action")
		}
		return act.SanityCheck()
	}
	return nil
}

// Handle handles an account action
func (p *Protocol) Handle(ctx context.Context, act action.Action, sm protocol.StateManager) (*action.Receipt, error) {
	switch act := act.(type) {
	case *action.Transfer:
		return p.handleTransfer(ctx, act, sm)
	case *action.Mint:
		return p.handleMint(ctx, act, sm)
	}
	return nil, nil
}

func (p *Protocol) handleTransfer(ctx context.Context, tsf *action.Transfer, sm protocol.StateManager) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	recipient, err := address.FromString(tsf.Recipient())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode recipient address %s", tsf.Recipient())
	}
	currency, err := p.Currency(tsf.Ticker())
	if err != nil {
		return nil, err
	}
	amount := currency.Raw(tsf.Amount())
	if err := NewTransferer(sm).TransferAsset(actionCtx.Caller, recipient, amount); err != nil {
		if errors.Cause(err) != state.ErrNotEnoughBalance {
			return nil, err
		}
		log.L().Debug("Transfer failed.", zap.String("sender", actionCtx.Caller.String()), zap.Error(err))
		receipt := action.NewReceipt(action.FailureReceiptStatus, blkCtx.BlockHeight, actionCtx.ActionHash)
		receipt.ExecutionError = err.Error()
		return receipt, nil
	}
	receipt := action.NewReceipt(action.SuccessReceiptStatus, blkCtx.BlockHeight, actionCtx.ActionHash)
	return receipt.AddTransactionLogs(&action.TransactionLog{
		Type:      action.TransferLog,
		Sender:    actionCtx.Caller.String(),
		Recipient: recipient.String(),
		Amount:    amount,
	}), nil
}

func (p *Protocol) handleMint(ctx context.Context, mint *action.Mint, sm protocol.StateManager) (*action.Receipt, error) {
	actionCtx := protocol.MustGetActionCtx(ctx)
	blkCtx := protocol.MustGetBlockCtx(ctx)
	if p.operator == nil || !address.Equal(p.operator, actionCtx.Caller) {
		log.L().Info("Unauthorized mint.", zap.String("caller", actionCtx.Caller.String()))
		receipt := action.NewReceipt(action.UnauthorizedReceiptStatus, blkCtx.BlockHeight, actionCtx.ActionHash)
		receipt.ExecutionError = "only the operator can mint"
		return receipt, nil
	}
	recipient, err := address.FromString(mint.Recipient())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode recipient address %s", mint.Recipient())
	}
	currency, err := p.Currency(mint.Ticker())
	if err != nil {
		return nil, err
	}
	amount := currency.Raw(mint.Amount())
	if err := NewTransferer(sm).MintAsset(recipient, amount); err != nil {
		return nil, err
	}
	receipt := action.NewReceipt(action.SuccessReceiptStatus, blkCtx.BlockHeight, actionCtx.ActionHash)
	return receipt.AddTransactionLogs(&action.TransactionLog{
		Type:      action.MintLog,
		Sender:    actionCtx.Caller.String(),
		Recipient: recipient.String(),
		Amount:    amount,
	}), nil
}
