// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package action

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/iotexproject/go-pkgs/crypto"
	"github.com/iotexproject/go-pkgs/hash"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
)

// Envelope wraps an action with the nonce of its sender
type Envelope struct {
	nonce  uint64
	action Action
}

// NewEnvelope creates an envelope
func NewEnvelope(nonce uint64, act Action) Envelope {
	return Envelope{nonce: nonce, action: act}
}

// Nonce returns the nonce
func (elp Envelope) Nonce() uint64 { return elp.nonce }

// Action returns the wrapped action
func (elp Envelope) Action() Action { return elp.action }

// Serialize returns the rlp encoding of [nonce, type, payload]
func (elp Envelope) Serialize() ([]byte, error) {
	act, ok := elp.action.(encodable)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidAct, "unsupported action %T", elp.action)
	}
	body, err := rlp.EncodeToBytes(act.payload())
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode action payload")
	}
	return rlp.EncodeToBytes([]interface{}{elp.nonce, act.actionType(), body})
}

// Hash returns the hash to be signed
func (elp Envelope) Hash() (hash.Hash256, error) {
	b, err := elp.Serialize()
	if err != nil {
		return hash.ZeroHash256, err
	}
	return hash.Hash256b(b), nil
}

// SealedEnvelope is a signed action envelope.
type SealedEnvelope struct {
	Envelope
	srcPubkey crypto.PublicKey
	signature []byte
	hash      hash.Hash256
}

// Sign signs the action using sender's private key
func Sign(elp Envelope, sk crypto.PrivateKey) (*SealedEnvelope, error) {
	if elp.action == nil {
		return nil, errors.Wrap(ErrInvalidAct, "nil action")
	}
	if err := elp.action.SanityCheck(); err != nil {
		return nil, err
	}
	h, err := elp.Hash()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate envelope hash")
	}
	sig, err := sk.Sign(h[:])
	if err != nil {
		return nil, ErrInvalidSender
	}
	return &SealedEnvelope{
		Envelope:  elp,
		srcPubkey: sk.PublicKey(),
		signature: sig,
		hash:      h,
	}, nil
}

// Hash returns the hash of the sealed envelope
func (sealed *SealedEnvelope) Hash() hash.Hash256 { return sealed.hash }

// SrcPubkey returns the source public key
func (sealed *SealedEnvelope) SrcPubkey() crypto.PublicKey { return sealed.srcPubkey }

// Signature returns signature bytes
func (sealed *SealedEnvelope) Signature() []byte {
	sig := make([]byte, len(sealed.signature))
	copy(sig, sealed.signature)
	return sig
}

// SenderAddress returns the address of the signer
func (sealed *SealedEnvelope) SenderAddress() (address.Address, error) {
	return address.FromBytes(sealed.srcPubkey.Hash())
}

// VerifySignature verifies the signature against the envelope hash
func (sealed *SealedEnvelope) VerifySignature() error {
	if sealed.srcPubkey == nil {
		return errors.Wrap(ErrInvalidSender, "empty public key")
	}
	h, err := sealed.Envelope.Hash()
	if err != nil {
		return errors.Wrap(err, "failed to generate envelope hash")
	}
	if h != sealed.hash || !sealed.srcPubkey.Verify(h[:], sealed.signature) {
		return errors.Wrap(ErrInvalidSender, "failed to verify action signature")
	}
	return nil
}
