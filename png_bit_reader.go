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
	"math/bits"

	"github.com/pkg/errors"
)

// BitOrder 位序
type BitOrder int

const (
	// MSBFirst 先读到的位作为结果的最高位
	MSBFirst BitOrder = 0
	// LSBFirst 先读到的位作为结果的最低位
	LSBFirst BitOrder = 1
)

// String 位序名称
func (o BitOrder) String() string {
	switch o {
	case MSBFirst:
		return "MSBFirst"
	case LSBFirst:
		return "LSBFirst"
	}
	return fmt.Sprintf("bitorder(%d)", int(o))
}

const (
	// MaxBitsPerRead 单次读取的最大位数
	MaxBitsPerRead = 64
	// bitReaderBufSize 64 位加一个跨字节的残余字节
	bitReaderBufSize = MaxBitsPerRead/8 + 1
)

// BitReader 位读取器
// 源字节总是从低位开始消费, 位序只决定结果的拼装方式
type BitReader struct {
	r           io.Reader
	buf         [bitReaderBufSize]byte
	readBitPos  uint
	loadBytePos uint
}

// NewBitReader 创建位读取器
// 入参: r 数据源
// 返回: *BitReader 位读取器
func NewBitReader(r io.Reader) *BitReader {
	return &BitReader{r: r}
}

// ReadBits 读取指定位数
// 入参: n 位数, order 位序
// 返回: uint64 结果, error 错误信息
func (b *BitReader) ReadBits(n uint, order BitOrder) (uint64, error) {
	v, err := b.PeekBits(n, order)
	if err != nil {
		return 0, err
	}
	b.readBitPos += n
	return v, nil
}

// PeekBits 读取指定位数但不前进
// 入参: n 位数, order 位序
// 返回: uint64 结果, error 错误信息
func (b *BitReader) PeekBits(n uint, order BitOrder) (uint64, error) {
	if n > MaxBitsPerRead {
		return 0, errors.Errorf("png: cannot read %d bits at once", n)
	}
	if n == 0 {
		return 0, nil
	}
	if err := b.ensure(n); err != nil {
		return 0, err
	}
	return b.extract(n, order), nil
}

// peekPadded 尽量读取 n 位, 数据源不足时以 0 补齐尾部
// 入参: n 位数, order 位序
// 返回: uint64 结果, uint 实际可用位数, error 错误信息
func (b *BitReader) peekPadded(n uint, order BitOrder) (uint64, uint, error) {
	if n > MaxBitsPerRead {
		return 0, 0, errors.Errorf("png: cannot read %d bits at once", n)
	}
	if n == 0 {
		return 0, 0, nil
	}
	err := b.ensure(n)
	if err == nil {
		return b.extract(n, order), n, nil
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, 0, err
	}
	avail := b.readableBits()
	if avail == 0 {
		return 0, 0, err
	}
	v := b.extract(avail, order)
	if order == MSBFirst {
		v <<= n - avail
	}
	return v, avail, nil
}

// SkipBits 跳过指定位数
// 入参: n 位数
// 返回: error 错误信息
func (b *BitReader) SkipBits(n uint) error {
	for n > 0 {
		step := n
		if step > MaxBitsPerRead {
			step = MaxBitsPerRead
		}
		if err := b.ensure(step); err != nil {
			return err
		}
		b.readBitPos += step
		n -= step
	}
	return nil
}

// SkipToByteBoundary 跳到下一个字节边界, 已对齐时不做任何事
func (b *BitReader) SkipToByteBoundary() {
	b.readBitPos = (b.readBitPos + 7) &^ 7
}

// IsAtByteBoundary 是否位于字节边界
func (b *BitReader) IsAtByteBoundary() bool {
	return b.readBitPos&7 == 0
}

// ReadAlignedByte 对齐后读取一个原始字节
// 返回: byte 结果, error 错误信息
func (b *BitReader) ReadAlignedByte() (byte, error) {
	b.SkipToByteBoundary()
	if err := b.ensure(8); err != nil {
		return 0, err
	}
	v := b.buf[b.readBitPos>>3]
	b.readBitPos += 8
	return v, nil
}

// ReadUint16LE 对齐后读取小端序 16 位整数
// 返回: uint16 结果, error 错误信息
func (b *BitReader) ReadUint16LE() (uint16, error) {
	lo, err := b.ReadAlignedByte()
	if err != nil {
		return 0, err
	}
	hi, err := b.ReadAlignedByte()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// ReadAlignedBytes 对齐后读满 p, 先消费缓冲区中的字节再直接读取数据源
// 入参: p 目标缓冲区
// 返回: error 错误信息
func (b *BitReader) ReadAlignedBytes(p []byte) error {
	b.SkipToByteBoundary()
	for len(p) > 0 && b.readableBits() > 0 {
		p[0] = b.buf[b.readBitPos>>3]
		b.readBitPos += 8
		p = p[1:]
	}
	if len(p) == 0 {
		return nil
	}
	b.readBitPos = 0
	b.loadBytePos = 0
	if _, err := io.ReadFull(b.r, p); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return errors.Wrap(err, "png: read aligned bytes")
	}
	return nil
}

// readableBits 已加载未读取的位数
func (b *BitReader) readableBits() uint {
	return 8*b.loadBytePos - b.readBitPos
}

// ensure 保证至少有 n 位可读, 空间不足时先压缩缓冲区
// 入参: n 位数
// 返回: error 错误信息
func (b *BitReader) ensure(n uint) error {
	readable := b.readableBits()
	if n <= readable {
		return nil
	}
	need := (n - readable + 7) / 8
	if b.loadBytePos+need > bitReaderBufSize {
		b.compact()
	}
	k, err := io.ReadFull(b.r, b.buf[b.loadBytePos:b.loadBytePos+need])
	b.loadBytePos += uint(k)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return errors.Wrapf(err, "png: need %d more bits", n-readable)
	}
	return nil
}

// compact 把当前读取位置所在字节移到缓冲区开头
func (b *BitReader) compact() {
	start := b.readBitPos >> 3
	if start == 0 {
		return
	}
	copy(b.buf[:], b.buf[start:b.loadBytePos])
	b.loadBytePos -= start
	b.readBitPos &= 7
}

// extract 从缓冲区当前位置取出 n 位, 不移动位置
// 入参: n 位数, order 位序
// 返回: uint64 结果
func (b *BitReader) extract(n uint, order BitOrder) uint64 {
	var v uint64
	idx := b.readBitPos >> 3
	off := b.readBitPos & 7
	got := uint(0)
	for got < n {
		take := 8 - off
		if take > n-got {
			take = n - got
		}
		chunk := (b.buf[idx] >> off) & byte(uint16(1)<<take-1)
		if order == MSBFirst {
			v = v<<take | uint64(bits.Reverse8(chunk)>>(8-take))
		} else {
			v |= uint64(chunk) << got
		}
		got += take
		off = 0
		idx++
	}
	return v
}
