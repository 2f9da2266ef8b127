// Copyright (c) 2019 IoTeX Foundation
// This is an alpha (internal) release and is not suitable for production. This source code is provided 'as is' and no
// warranties are given as to title or non-infringement, merchantability or fitness for purpose and, to the extent
// permitted by law, all liability for your use of the code is disclaimed. This source code is governed by Apache
// License 2.0 that can be found in the LICENSE file.

package byteutil

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestUint64BigEndian(t *testing.T) {
	r := require.New(t)
	r.Equal([]byte{0, 0, 0, 0, 0, 0, 1, 0}, Uint64ToBytesBigEndian(256))
	r.Equal(uint64(256), BytesToUint64BigEndian(Uint64ToBytesBigEndian(256)))
	// big-endian keeps numeric order under byte comparison
	r.Equal(-1, bytes.Compare(Uint64ToBytesBigEndian(255), Uint64ToBytesBigEndian(256)))
}

func TestBytesConcat(t *testing.T) {
	r := require.New(t)
	r.Equal([]byte{1, 2, 3}, BytesConcat([]byte{1}, nil, []byte{2, 3}))
	r.Empty(BytesConcat())
}

func TestMust(t *testing.T) {
	r := require.New(t)
	r.Equal([]byte{1}, Must([]byte{1}, nil))
	r.Panics(func() { Must(nil, errors.New("failure")) })
}
