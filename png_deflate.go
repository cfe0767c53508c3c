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

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrOutputLimit 解压输出超过 WithMaxOutput 设置的上限
var ErrOutputLimit = errors.New("png: inflated output exceeds limit")

// CompressionType 块压缩类型
type CompressionType uint8

const (
	// NoCompression 未压缩块
	NoCompression CompressionType = 0
	// FixedHuffman 固定霍夫曼块
	FixedHuffman CompressionType = 1
	// DynamicHuffman 动态霍夫曼块
	DynamicHuffman CompressionType = 2
	// Reserved 保留类型, 出现即为错误
	Reserved CompressionType = 3
)

func (t CompressionType) String() string {
	switch t {
	case NoCompression:
		return "stored"
	case FixedHuffman:
		return "fixed"
	case DynamicHuffman:
		return "dynamic"
	}
	return "reserved"
}

// BlockHeader 块头
type BlockHeader struct {
	IsFinal bool
	Type    CompressionType
}

// SymbolKind 符号种类
type SymbolKind uint8

const (
	// SymbolLiteral 字面字节
	SymbolLiteral SymbolKind = 0
	// SymbolBackReference 长度距离对
	SymbolBackReference SymbolKind = 1
	// SymbolEndOfBlock 块结束
	SymbolEndOfBlock SymbolKind = 2
)

// DeflateSymbol 解码出的一个 DEFLATE 符号
type DeflateSymbol struct {
	Kind     SymbolKind
	Literal  byte
	Length   uint16
	Distance uint16
}

const (
	endOfBlock     = 256
	maxLitLenCodes = 286
	numCLCodes     = 19
)

// codeLengthOrder 码长字母表的传输顺序
var codeLengthOrder = [numCLCodes]uint8{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthBase 长度码 257..285 的基础值
var lengthBase = [29]uint16{
	3, 4, 5, 6, 7, 8, 9, 10,
	11, 13, 15, 17,
	19, 23, 27, 31,
	35, 43, 51, 59,
	67, 83, 99, 115,
	131, 163, 195, 227,
	258,
}

// lengthExtra 长度码的额外位数
var lengthExtra = [29]uint8{
	0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 1, 1,
	2, 2, 2, 2,
	3, 3, 3, 3,
	4, 4, 4, 4,
	5, 5, 5, 5,
	0,
}

// distanceBase 距离码 0..29 的基础值
var distanceBase = [30]uint16{
	1, 2, 3, 4,
	5, 7,
	9, 13,
	17, 25,
	33, 49,
	65, 97,
	129, 193,
	257, 385,
	513, 769,
	1025, 1537,
	2049, 3073,
	4097, 6145,
	8193, 12289,
	16385, 24577,
}

// distanceExtra 距离码的额外位数
var distanceExtra = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

var (
	fixedLiteralCode  *HuffmanCode[uint16]
	fixedDistanceCode *HuffmanCode[uint16]
)

func init() {
	fixedLiteralCode = mustHuffmanCode(fixedLiteralLengths())
	fixedDistanceCode = mustHuffmanCode(fixedDistanceLengths())
}

// fixedLiteralLengths 固定字面/长度字母表的码长
func fixedLiteralLengths() []CodeLength[uint16] {
	lengths := make([]CodeLength[uint16], 288)
	for i := range lengths {
		var l uint8
		switch {
		case i < 144:
			l = 8
		case i < 256:
			l = 9
		case i < 280:
			l = 7
		default:
			l = 8
		}
		lengths[i] = CodeLength[uint16]{Symbol: uint16(i), Length: l}
	}
	return lengths
}

// fixedDistanceLengths 固定距离字母表的码长
func fixedDistanceLengths() []CodeLength[uint16] {
	lengths := make([]CodeLength[uint16], 32)
	for i := range lengths {
		lengths[i] = CodeLength[uint16]{Symbol: uint16(i), Length: 5}
	}
	return lengths
}

// FixedLiteralCode 固定字面/长度编码
func FixedLiteralCode() *HuffmanCode[uint16] {
	return fixedLiteralCode
}

// FixedDistanceCode 固定距离编码
func FixedDistanceCode() *HuffmanCode[uint16] {
	return fixedDistanceCode
}

// Inflater DEFLATE 解压器
type Inflater struct {
	br     *BitReader
	out    []byte
	limit  int
	logger zerolog.Logger
}

// NewInflater 创建解压器
// 入参: br 位读取器, opts 选项
// 返回: *Inflater 解压器
func NewInflater(br *BitReader, opts ...Option) *Inflater {
	return newInflater(br, newOptions(opts))
}

func newInflater(br *BitReader, o *options) *Inflater {
	return &Inflater{br: br, limit: o.maxOutput, logger: o.logger}
}

// Inflate 解压一个原始 DEFLATE 流
// 入参: r 数据源, opts 选项
// 返回: []byte 解压结果, error 错误信息
func Inflate(r io.Reader, opts ...Option) ([]byte, error) {
	return NewInflater(NewBitReader(r), opts...).Run()
}

// Output 目前为止的输出
func (f *Inflater) Output() []byte {
	return f.out
}

// Run 逐块解压直到最后一块
// 返回: []byte 解压结果, error 错误信息
func (f *Inflater) Run() ([]byte, error) {
	for {
		h, err := readBlockHeader(f.br)
		if err != nil {
			return f.out, err
		}
		f.logger.Debug().Bool("final", h.IsFinal).Stringer("type", h.Type).Int("offset", len(f.out)).Msg("deflate block")
		switch h.Type {
		case NoCompression:
			err = f.copyStored()
		case FixedHuffman:
			err = f.decodeBlock(fixedLiteralCode, fixedDistanceCode)
		case DynamicHuffman:
			var lit, dist *HuffmanCode[uint16]
			lit, dist, err = readDynamicCodes(f.br)
			if err == nil {
				err = f.decodeBlock(lit, dist)
			}
		default:
			err = FormatError("reserved block type")
		}
		if errors.Is(err, ErrOutputLimit) {
			f.out = f.out[:f.limit]
			return f.out, err
		}
		if err != nil {
			return f.out, err
		}
		if h.IsFinal {
			return f.out, nil
		}
	}
}

// readBlockHeader 读取 3 位块头
func readBlockHeader(br *BitReader) (BlockHeader, error) {
	v, err := br.ReadBits(3, LSBFirst)
	if err != nil {
		return BlockHeader{}, err
	}
	return BlockHeader{IsFinal: v&1 == 1, Type: CompressionType(v >> 1)}, nil
}

// copyStored 复制未压缩块
func (f *Inflater) copyStored() error {
	n, err := f.br.ReadUint16LE()
	if err != nil {
		return err
	}
	nn, err := f.br.ReadUint16LE()
	if err != nil {
		return err
	}
	if n&nn != 0 || n != ^nn {
		return FormatError(fmt.Sprintf("stored block LEN %04x does not match NLEN %04x", n, nn))
	}
	start := len(f.out)
	f.out = append(f.out, make([]byte, n)...)
	if err := f.br.ReadAlignedBytes(f.out[start:]); err != nil {
		return err
	}
	return f.checkLimit()
}

// checkLimit 输出超过上限时返回 ErrOutputLimit
func (f *Inflater) checkLimit() error {
	if f.limit > 0 && len(f.out) > f.limit {
		return ErrOutputLimit
	}
	return nil
}

// decodeBlock 解码霍夫曼块直到块结束符
// 入参: lit 字面/长度编码, dist 距离编码
// 返回: error 错误信息
func (f *Inflater) decodeBlock(lit, dist *HuffmanCode[uint16]) error {
	for {
		sym, err := readDeflateSymbol(f.br, lit, dist)
		if err != nil {
			return err
		}
		switch sym.Kind {
		case SymbolLiteral:
			f.out = append(f.out, sym.Literal)
		case SymbolBackReference:
			out, err := appendBackReference(f.out, int(sym.Length), int(sym.Distance))
			if err != nil {
				return err
			}
			f.out = out
		case SymbolEndOfBlock:
			return nil
		}
		if err := f.checkLimit(); err != nil {
			return err
		}
	}
}

// readDeflateSymbol 解码一个字面, 长度距离对或块结束符
// 入参: br 位读取器, lit 字面/长度编码, dist 距离编码
// 返回: DeflateSymbol 符号, error 错误信息
func readDeflateSymbol(br *BitReader, lit, dist *HuffmanCode[uint16]) (DeflateSymbol, error) {
	s, err := lit.ReadNext(br)
	if err != nil {
		return DeflateSymbol{}, err
	}
	switch {
	case s < endOfBlock:
		return DeflateSymbol{Kind: SymbolLiteral, Literal: byte(s)}, nil
	case s == endOfBlock:
		return DeflateSymbol{Kind: SymbolEndOfBlock}, nil
	case int(s-endOfBlock-1) >= len(lengthBase):
		return DeflateSymbol{}, FormatError(fmt.Sprintf("invalid length symbol %d", s))
	}
	i := s - endOfBlock - 1
	extra, err := br.ReadBits(uint(lengthExtra[i]), LSBFirst)
	if err != nil {
		return DeflateSymbol{}, err
	}
	length := lengthBase[i] + uint16(extra)
	d, err := dist.ReadNext(br)
	if err != nil {
		return DeflateSymbol{}, err
	}
	if int(d) >= len(distanceBase) {
		return DeflateSymbol{}, FormatError(fmt.Sprintf("invalid distance symbol %d", d))
	}
	extra, err = br.ReadBits(uint(distanceExtra[d]), LSBFirst)
	if err != nil {
		return DeflateSymbol{}, err
	}
	distance := distanceBase[d] + uint16(extra)
	return DeflateSymbol{Kind: SymbolBackReference, Length: length, Distance: distance}, nil
}

// appendBackReference 从 distance 字节之前复制 length 字节到末尾
// 源与目标可以重叠, 必须逐字节复制
// 入参: out 输出缓冲区, length 长度, distance 距离
// 返回: []byte 新缓冲区, error 错误信息
func appendBackReference(out []byte, length, distance int) ([]byte, error) {
	if distance <= 0 || distance > len(out) {
		return out, FormatError(fmt.Sprintf("distance %d exceeds output length %d", distance, len(out)))
	}
	start := len(out) - distance
	for i := 0; i < length; i++ {
		out = append(out, out[start+i])
	}
	return out, nil
}

// readDynamicCodes 读取动态块的字面/长度与距离编码
// 入参: br 位读取器
// 返回: 字面/长度编码, 距离编码, error 错误信息
func readDynamicCodes(br *BitReader) (*HuffmanCode[uint16], *HuffmanCode[uint16], error) {
	v, err := br.ReadBits(14, LSBFirst)
	if err != nil {
		return nil, nil, err
	}
	hlit := int(v&0x1F) + 257
	hdist := int(v>>5&0x1F) + 1
	hclen := int(v>>10&0xF) + 4
	if hlit > maxLitLenCodes {
		return nil, nil, FormatError(fmt.Sprintf("HLIT %d exceeds %d", hlit, maxLitLenCodes))
	}
	clLengths := make([]CodeLength[uint8], numCLCodes)
	for i := range clLengths {
		clLengths[i].Symbol = uint8(i)
	}
	for i := 0; i < hclen; i++ {
		l, err := br.ReadBits(3, LSBFirst)
		if err != nil {
			return nil, nil, err
		}
		clLengths[codeLengthOrder[i]].Length = uint8(l)
	}
	clCode, err := NewHuffmanCode(clLengths)
	if err != nil {
		return nil, nil, err
	}
	lengths, err := readCodeLengths(br, clCode, hlit+hdist)
	if err != nil {
		return nil, nil, err
	}
	if lengths[endOfBlock] == 0 {
		return nil, nil, FormatError("dynamic block has no end-of-block code")
	}
	lit, err := NewHuffmanCode(toCodeLengths(lengths[:hlit]))
	if err != nil {
		return nil, nil, err
	}
	dist, err := NewHuffmanCode(toCodeLengths(lengths[hlit:]))
	if err != nil {
		return nil, nil, err
	}
	return lit, dist, nil
}

// readCodeLengths 用码长字母表解码 total 个码长, 处理 16/17/18 重复码
// 入参: br 位读取器, clCode 码长编码, total 码长总数
// 返回: []uint8 码长, error 错误信息
func readCodeLengths(br *BitReader, clCode *HuffmanCode[uint8], total int) ([]uint8, error) {
	lengths := make([]uint8, 0, total)
	for len(lengths) < total {
		s, err := clCode.ReadNext(br)
		if err != nil {
			return nil, err
		}
		var (
			rep  int
			fill uint8
		)
		switch {
		case s < 16:
			lengths = append(lengths, s)
			continue
		case s == 16:
			if len(lengths) == 0 {
				return nil, FormatError("repeat code with no previous length")
			}
			n, err := br.ReadBits(2, LSBFirst)
			if err != nil {
				return nil, err
			}
			rep, fill = 3+int(n), lengths[len(lengths)-1]
		case s == 17:
			n, err := br.ReadBits(3, LSBFirst)
			if err != nil {
				return nil, err
			}
			rep = 3 + int(n)
		case s == 18:
			n, err := br.ReadBits(7, LSBFirst)
			if err != nil {
				return nil, err
			}
			rep = 11 + int(n)
		default:
			return nil, FormatError(fmt.Sprintf("invalid code length symbol %d", s))
		}
		if len(lengths)+rep > total {
			return nil, FormatError(fmt.Sprintf("code length run overflows %d entries", total))
		}
		for ; rep > 0; rep-- {
			lengths = append(lengths, fill)
		}
	}
	return lengths, nil
}

// toCodeLengths 转为按下标编号的码长表
func toCodeLengths(lengths []uint8) []CodeLength[uint16] {
	cls := make([]CodeLength[uint16], len(lengths))
	for i, l := range lengths {
		cls[i] = CodeLength[uint16]{Symbol: uint16(i), Length: l}
	}
	return cls
}
