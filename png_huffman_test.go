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

// bitWriter 测试用位写入器, 与 BitReader 的位序对应
type bitWriter struct {
	buf  []byte
	nbit uint
}

// writeLSB 写入整数字段, 低位先写
func (w *bitWriter) writeLSB(v uint64, n uint) {
	for i := uint(0); i < n; i++ {
		w.writeBit(byte(v >> i & 1))
	}
}

// writeMSB 写入霍夫曼编码, 高位先写
func (w *bitWriter) writeMSB(v uint64, n uint) {
	for i := n; i > 0; i-- {
		w.writeBit(byte(v >> (i - 1) & 1))
	}
}

func (w *bitWriter) writeBit(b byte) {
	if w.nbit%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	w.buf[len(w.buf)-1] |= b << (w.nbit % 8)
	w.nbit++
}

func (w *bitWriter) align() {
	w.nbit = (w.nbit + 7) &^ 7
}

func (w *bitWriter) writeBytes(p ...byte) {
	w.align()
	w.buf = append(w.buf, p...)
	w.nbit += uint(len(p)) * 8
}

func rfc1951Code(t *testing.T) *HuffmanCode[rune] {
	h, err := NewHuffmanCode([]CodeLength[rune]{
		{'A', 3}, {'B', 3}, {'C', 3}, {'D', 3}, {'E', 3}, {'F', 2}, {'G', 4}, {'H', 4},
	})
	require.NoError(t, err)
	return h
}

func TestHuffmanCanonicalCodes(t *testing.T) {
	h := rfc1951Code(t)
	assert.Equal(t, uint8(4), h.MaxLength())
	want := []SymbolEntry[rune]{
		{'F', 2, 0b00},
		{'A', 3, 0b010},
		{'B', 3, 0b011},
		{'C', 3, 0b100},
		{'D', 3, 0b101},
		{'E', 3, 0b110},
		{'G', 4, 0b1110},
		{'H', 4, 0b1111},
	}
	assert.Equal(t, want, h.Entries())

	tests := []struct {
		prefix uint16
		want   rune
	}{
		{0b0000, 'F'},
		{0b0011, 'F'},
		{0b0100, 'A'},
		{0b0101, 'A'},
		{0b1100, 'E'},
		{0b1110, 'G'},
		{0b1111, 'H'},
	}
	for _, tt := range tests {
		s, ok := h.Lookup(tt.prefix)
		assert.True(t, ok)
		assert.Equal(t, tt.want, s, "prefix %04b", tt.prefix)
	}
	_, ok := h.Lookup(0b1_0000)
	assert.False(t, ok)
}

func TestHuffmanReadNext(t *testing.T) {
	h := rfc1951Code(t)
	br := NewBitReader(bytes.NewReader([]byte{0b1111_0111, 0b1011_1000}))
	var got []rune
	for i := 0; i < 4; i++ {
		s, err := h.ReadNext(br)
		require.NoError(t, err)
		got = append(got, s)
	}
	assert.Equal(t, []rune{'G', 'H', 'F', 'B'}, got)

	s, err := h.ReadNext(br)
	require.NoError(t, err)
	assert.Equal(t, 'D', s)

	_, err = h.ReadNext(br)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestHuffmanReadNextShortTail(t *testing.T) {
	h := rfc1951Code(t)
	var w bitWriter
	w.writeMSB(0b1110, 4)
	w.writeMSB(0b00, 2)
	w.writeMSB(0b00, 2)
	br := NewBitReader(bytes.NewReader(w.buf))
	for _, want := range []rune{'G', 'F', 'F'} {
		s, err := h.ReadNext(br)
		require.NoError(t, err)
		assert.Equal(t, want, s)
	}
}

func TestHuffmanFixedLiteralCode(t *testing.T) {
	built, err := NewHuffmanCode(fixedLiteralLengths())
	require.NoError(t, err)
	assert.Equal(t, built.Entries(), FixedLiteralCode().Entries())
	assert.Equal(t, uint8(9), FixedLiteralCode().MaxLength())

	tests := []struct {
		prefix uint16
		want   uint16
	}{
		{0b0000000_00, 256},
		{0b0010111_11, 279},
		{0b00110000_0, 0},
		{0b10111111_1, 143},
		{0b11000000_0, 280},
		{0b11000111_1, 287},
		{0b110010000, 144},
		{0b111111111, 255},
	}
	for _, tt := range tests {
		s, ok := FixedLiteralCode().Lookup(tt.prefix)
		assert.True(t, ok)
		assert.Equal(t, tt.want, s)
	}

	d, ok := FixedDistanceCode().Lookup(0b00101)
	assert.True(t, ok)
	assert.Equal(t, uint16(5), d)
}

func TestHuffmanErrors(t *testing.T) {
	t.Run("over-subscribed", func(t *testing.T) {
		_, err := NewHuffmanCode([]CodeLength[int]{{0, 1}, {1, 1}, {2, 1}})
		var fe FormatError
		assert.ErrorAs(t, err, &fe)
	})

	t.Run("length too long", func(t *testing.T) {
		_, err := NewHuffmanCode([]CodeLength[int]{{0, 16}})
		var fe FormatError
		assert.ErrorAs(t, err, &fe)
	})

	t.Run("empty alphabet", func(t *testing.T) {
		h, err := NewHuffmanCode([]CodeLength[int]{{0, 0}, {1, 0}})
		require.NoError(t, err)
		_, err = h.ReadNext(NewBitReader(bytes.NewReader([]byte{0xFF})))
		var fe FormatError
		assert.ErrorAs(t, err, &fe)
	})

	t.Run("no matching code", func(t *testing.T) {
		h, err := NewHuffmanCode([]CodeLength[int]{{7, 1}})
		require.NoError(t, err)
		br := NewBitReader(bytes.NewReader([]byte{0b10}))
		s, err := h.ReadNext(br)
		require.NoError(t, err)
		assert.Equal(t, 7, s)
		_, err = h.ReadNext(br)
		var fe FormatError
		assert.ErrorAs(t, err, &fe)
	})
}
