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
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// MaxCodeLength 支持的最大码长
const MaxCodeLength = 15

// noEntry 查找表空槽
const noEntry = -1

// CodeLength 符号及其码长, 码长为 0 表示不在字母表中
type CodeLength[S comparable] struct {
	Symbol S
	Length uint8
}

// SymbolEntry 已分配编码的符号
type SymbolEntry[S comparable] struct {
	Symbol S
	Length uint8
	Code   uint16
}

// HuffmanCode 规范霍夫曼编码
type HuffmanCode[S comparable] struct {
	entries   []SymbolEntry[S]
	lut       []int32
	maxLength uint8
}

// NewHuffmanCode 由码长表构造规范霍夫曼编码
// 入参: lengths 符号码长列表
// 返回: *HuffmanCode 编码, error 错误信息
func NewHuffmanCode[S comparable](lengths []CodeLength[S]) (*HuffmanCode[S], error) {
	var maxLength uint8
	entries := make([]SymbolEntry[S], 0, len(lengths))
	for _, cl := range lengths {
		if cl.Length == 0 {
			continue
		}
		if cl.Length > MaxCodeLength {
			return nil, FormatError(fmt.Sprintf("code length %d exceeds %d", cl.Length, MaxCodeLength))
		}
		if cl.Length > maxLength {
			maxLength = cl.Length
		}
		entries = append(entries, SymbolEntry[S]{Symbol: cl.Symbol, Length: cl.Length})
	}
	assignCanonicalCodes(entries, maxLength)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		return uint32(a.Code)<<(maxLength-a.Length) < uint32(b.Code)<<(maxLength-b.Length)
	})
	lut := make([]int32, 1<<maxLength)
	for i := range lut {
		lut[i] = noEntry
	}
	for idx, e := range entries {
		shift := maxLength - e.Length
		start := int(e.Code) << shift
		end := (int(e.Code) + 1) << shift
		if end > len(lut) {
			return nil, FormatError("over-subscribed huffman code")
		}
		for i := start; i < end; i++ {
			lut[i] = int32(idx)
		}
	}
	return &HuffmanCode[S]{entries: entries, lut: lut, maxLength: maxLength}, nil
}

// mustHuffmanCode 构造固定表, 失败即为程序错误
func mustHuffmanCode[S comparable](lengths []CodeLength[S]) *HuffmanCode[S] {
	h, err := NewHuffmanCode(lengths)
	if err != nil {
		panic(err)
	}
	return h
}

// assignCanonicalCodes 按 RFC 1951 3.2.2 分配编码, 同码长按输入顺序递增
// 入参: entries 码长非零的符号, maxLength 最大码长
func assignCanonicalCodes[S comparable](entries []SymbolEntry[S], maxLength uint8) {
	blCount := make([]uint16, maxLength+1)
	for _, e := range entries {
		blCount[e.Length]++
	}
	nextCode := make([]uint16, maxLength+1)
	code := uint16(0)
	for bits := uint8(1); bits <= maxLength; bits++ {
		code = (code + blCount[bits-1]) << 1
		nextCode[bits] = code
	}
	for i := range entries {
		l := entries[i].Length
		entries[i].Code = nextCode[l]
		nextCode[l]++
	}
}

// MaxLength 最大码长
func (h *HuffmanCode[S]) MaxLength() uint8 {
	return h.maxLength
}

// Entries 按编码排序的符号表
func (h *HuffmanCode[S]) Entries() []SymbolEntry[S] {
	return h.entries
}

// Lookup 按 maxLength 位的前缀查找符号
// 入参: prefix 前缀
// 返回: S 符号, bool 是否命中
func (h *HuffmanCode[S]) Lookup(prefix uint16) (S, bool) {
	var zero S
	if int(prefix) >= len(h.lut) {
		return zero, false
	}
	idx := h.lut[prefix]
	if idx == noEntry {
		return zero, false
	}
	return h.entries[idx].Symbol, true
}

// ReadNext 从位流解码下一个符号, 只消费该符号的实际码长
// 入参: br 位读取器
// 返回: S 符号, error 错误信息
func (h *HuffmanCode[S]) ReadNext(br *BitReader) (S, error) {
	var zero S
	prefix, avail, err := br.peekPadded(uint(h.maxLength), MSBFirst)
	if err != nil {
		return zero, err
	}
	idx := h.lut[prefix]
	if idx == noEntry {
		return zero, FormatError(fmt.Sprintf("no matching code for %0*b", int(h.maxLength), prefix))
	}
	e := h.entries[idx]
	if uint(e.Length) > avail {
		return zero, errors.Wrap(io.ErrUnexpectedEOF, "png: truncated huffman code")
	}
	br.readBitPos += uint(e.Length)
	return e.Symbol, nil
}
