// Copyright 2026 肖其顿 (XIAO QI DUN)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package png

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitReaderMultipleReads(t *testing.T) {
	data := []byte{
		0b0000_0001,
		0b0010_0011,
		0b0100_0101,
		0b0110_0111,
		0b1000_1001,
		0b1010_1011,
		0b1100_1101,
		0b1110_1111,
		0b1111_1111,
		0b1010_1011,
		0b1100_1101,
		0b1110_1111,
	}
	br := NewBitReader(bytes.NewReader(data))
	peek := func() {
		_, err := br.PeekBits(9, MSBFirst)
		require.NoError(t, err)
	}
	read := func(n uint, order BitOrder) uint64 {
		v, err := br.ReadBits(n, order)
		require.NoError(t, err)
		peek()
		return v
	}

	assert.Equal(t, uint64(0b100), read(3, MSBFirst))
	assert.Equal(t, uint64(0b0000), read(4, LSBFirst))
	assert.Equal(t, uint64(0), read(0, LSBFirst))
	assert.Equal(t, uint64(0b0110_0010), read(8, MSBFirst))
	assert.False(t, br.IsAtByteBoundary())
	br.SkipToByteBoundary()
	peek()
	assert.True(t, br.IsAtByteBoundary())
	br.SkipToByteBoundary()
	assert.True(t, br.IsAtByteBoundary())

	v, err := br.PeekBits(5, LSBFirst)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b0_0101), v)
	assert.Equal(t, uint64(0b0_0101), read(5, LSBFirst))
	assert.Equal(t, uint64(0), read(0, MSBFirst))
	assert.Equal(t, uint64(0b1_1010), read(5, LSBFirst))
	assert.Equal(t, uint64(0b1_0011), read(5, MSBFirst))

	v, err = br.PeekBits(10, MSBFirst)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b01_0010_0011), v)
	assert.Equal(t, uint64(0b01_0010_0011), read(10, MSBFirst))

	b, err := br.ReadAlignedByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0b1100_1101), b)
	assert.True(t, br.IsAtByteBoundary())

	u, err := br.ReadUint16LE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0b1111_1111_1110_1111), u)

	assert.Equal(t, uint64(1), read(1, LSBFirst))
	assert.Equal(t, uint64(1), read(1, MSBFirst))

	u, err = br.ReadUint16LE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0b1110_1111_1100_1101), u)

	_, err = br.ReadBits(1, LSBFirst)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestBitReaderWideReads(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF, 0x55, 0xAA}

	t.Run("lsb first 64 bits", func(t *testing.T) {
		br := NewBitReader(bytes.NewReader(data))
		v, err := br.ReadBits(64, LSBFirst)
		require.NoError(t, err)
		assert.Equal(t, uint64(0xEFCDAB8967452301), v)
	})

	t.Run("unaligned 64 bits", func(t *testing.T) {
		br := NewBitReader(bytes.NewReader(data))
		_, err := br.ReadBits(4, LSBFirst)
		require.NoError(t, err)
		v, err := br.ReadBits(64, LSBFirst)
		require.NoError(t, err)
		assert.Equal(t, uint64(0x5EFCDAB896745230), v)
	})

	t.Run("too many bits", func(t *testing.T) {
		br := NewBitReader(bytes.NewReader(data))
		_, err := br.ReadBits(65, LSBFirst)
		assert.Error(t, err)
	})
}

func TestBitReaderPeekDoesNotAdvance(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0b1011_0110, 0xFF}))
	for i := 0; i < 3; i++ {
		v, err := br.PeekBits(5, MSBFirst)
		require.NoError(t, err)
		assert.Equal(t, uint64(0b01101), v)
	}
	v, err := br.ReadBits(5, MSBFirst)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b01101), v)
	v, err = br.ReadBits(3, LSBFirst)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b101), v)
}

func TestBitReaderSkipAndAlignedBytes(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0xFF, 0x11, 0x22, 0x33, 0x44, 0x55}))
	require.NoError(t, br.SkipBits(3))
	p := make([]byte, 4)
	require.NoError(t, br.ReadAlignedBytes(p))
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, p)
	b, err := br.ReadAlignedByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x55), b)
	assert.ErrorIs(t, br.ReadAlignedBytes(make([]byte, 1)), io.ErrUnexpectedEOF)
}

func TestBitReaderPeekPadded(t *testing.T) {
	br := NewBitReader(bytes.NewReader([]byte{0b0000_0101}))
	_, err := br.ReadBits(5, LSBFirst)
	require.NoError(t, err)
	v, avail, err := br.peekPadded(7, MSBFirst)
	require.NoError(t, err)
	assert.Equal(t, uint(3), avail)
	assert.Equal(t, uint64(0), v)

	br = NewBitReader(bytes.NewReader([]byte{0b1010_0000}))
	_, err = br.ReadBits(5, LSBFirst)
	require.NoError(t, err)
	v, avail, err = br.peekPadded(7, MSBFirst)
	require.NoError(t, err)
	assert.Equal(t, uint(3), avail)
	assert.Equal(t, uint64(0b101_0000), v)
}

func TestBitOrderString(t *testing.T) {
	assert.Equal(t, "MSBFirst", MSBFirst.String())
	assert.Equal(t, "LSBFirst", LSBFirst.String())
	assert.Equal(t, "bitorder(7)", BitOrder(7).String())
}
