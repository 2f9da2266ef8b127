// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package identityset

import (
	"github.com/iotexproject/go-pkgs/crypto"
	"github.com/iotexproject/iotex-address/address"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iotexproject/iotex-delegation/pkg/log"
)

// the last key is reserved for the operator
var keyPortfolio = []string{
	"bace9b2435db45b119e1570b4ea9c57993b2311e0c408d743d87cd22838ae892",
	"f964b7ccc40ccace513d3159fa9c30514c4a186ebfdd7c63d69cd79a29b804b0",
	"b437800aab0715903d36f85ea963eb2a0b6e386e7f9345a24354422a3b455757",
	"414efa99dfac6f4095d6954713fb0085268d400d6a05a8ae8a69b5b1c10b4bed",
	"d1acb5110e20becd3f1e2575e5c67f7befac58cd925767601a5f26223dddd1c8",
	"3aa779c846a62a62217f7481b9c3265f1b7fbc8e3217b7dd192d75a65da8a162",
	"c9b58691ee786b92980ab1d273254acaa0b31ab49e39e24b809dd6c36a2c165a",
	"9a3296d4237fd5bd2aacc68c09eea1f6b2c225fff46098597889fec8bd703ac1",
	"5af7498f89772c20917ca0f95671e538d360979447fd1098ec7941f2ded7b563",
	"370d2da29479db621aef14259738d38e59470a46cc3d30962f253851d67fe564",
	"6f221f32adb566b3a04fa0e76a2764eaa1278f890f7321399152695e2b0a5c43",
	"9254d943485d0fb859ff63c5581acc44f00fc2110343ac0445b99dfe39a6f1a5",
}

// Size returns the number of identities
func Size() int {
	return len(keyPortfolio)
}

// PrivateKey returns the i-th identity's private key
func PrivateKey(i int) crypto.PrivateKey {
	sk, err := crypto.HexStringToPrivateKey(keyPortfolio[i])
	if err != nil {
		log.L().Panic(
			"Error when decoding private key string",
			zap.String("keyStr", keyPortfolio[i]),
			zap.Error(err),
		)
	}
	return sk
}

// Address returns the i-th identity's address
func Address(i int) address.Address {
	sk := PrivateKey(i)
	addr := sk.PublicKey().Address()
	if addr == nil {
		log.L().Panic("Error when constructing the address", zap.Error(errors.New("failed to get address")))
	}
	return addr
}

// OperatorKey returns the private key of the operator identity
func OperatorKey() crypto.PrivateKey {
	return PrivateKey(Size() - 1)
}

// Operator returns the address of the operator identity
func Operator() address.Address {
	return Address(Size() - 1)
}
