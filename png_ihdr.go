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
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
)

// BitDepth 每个采样的位数
type BitDepth uint8

const (
	Bits1  BitDepth = 1
	Bits2  BitDepth = 2
	Bits4  BitDepth = 4
	Bits8  BitDepth = 8
	Bits16 BitDepth = 16
)

// ColorType 颜色类型
type ColorType uint8

const (
	Grayscale      ColorType = 0
	RGB            ColorType = 2
	Palette        ColorType = 3
	GrayscaleAlpha ColorType = 4
	RGBA           ColorType = 6
)

func (c ColorType) String() string {
	switch c {
	case Grayscale:
		return "grayscale"
	case RGB:
		return "rgb"
	case Palette:
		return "palette"
	case GrayscaleAlpha:
		return "grayscale+alpha"
	case RGBA:
		return "rgba"
	}
	return fmt.Sprintf("colortype(%d)", uint8(c))
}

// Channels 每个像素的采样数
func (c ColorType) Channels() int {
	switch c {
	case Grayscale, Palette:
		return 1
	case GrayscaleAlpha:
		return 2
	case RGB:
		return 3
	case RGBA:
		return 4
	}
	return 0
}

const (
	ihdrLength          = 13
	compressionDeflate  = 0
	filterMethodDefault = 0
	interlaceNone       = 0
	interlaceAdam7      = 1
)

// IHDR 图像头
type IHDR struct {
	Width             uint32
	Height            uint32
	BitDepth          BitDepth
	ColorType         ColorType
	BytesPerPixel     uint32
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   uint8
}

// BytesPerPixel 由颜色类型和位深得到每像素字节数, 不足一字节按一字节计
// 入参: ct 颜色类型, depth 位深
// 返回: uint32 字节数, error 错误信息
func BytesPerPixel(ct ColorType, depth BitDepth) (uint32, error) {
	switch ct {
	case Palette:
		return 0, UnsupportedError("palette images")
	case Grayscale:
		switch depth {
		case Bits1, Bits2, Bits4, Bits8:
			return 1, nil
		case Bits16:
			return 2, nil
		}
	case RGB, GrayscaleAlpha, RGBA:
		switch depth {
		case Bits8:
			return uint32(ct.Channels()), nil
		case Bits16:
			return uint32(ct.Channels()) * 2, nil
		}
	}
	return 0, FormatError(fmt.Sprintf("invalid color type %d with bit depth %d", uint8(ct), uint8(depth)))
}

// parseIHDR 解析并校验 IHDR 数据
// 入参: b 13 字节数据, o 选项
// 返回: IHDR 图像头, error 错误信息
func parseIHDR(b []byte, o *options) (IHDR, error) {
	if len(b) != ihdrLength {
		return IHDR{}, FormatError(fmt.Sprintf("IHDR length must be %d, not %d", ihdrLength, len(b)))
	}
	h := IHDR{
		Width:             binary.BigEndian.Uint32(b[0:4]),
		Height:            binary.BigEndian.Uint32(b[4:8]),
		BitDepth:          BitDepth(b[8]),
		ColorType:         ColorType(b[9]),
		CompressionMethod: b[10],
		FilterMethod:      b[11],
		InterlaceMethod:   b[12],
	}
	if h.Width == 0 || h.Height == 0 || h.Width > 1<<31-1 || h.Height > 1<<31-1 {
		return h, FormatError(fmt.Sprintf("invalid dimensions %dx%d", h.Width, h.Height))
	}
	if uint64(h.Width)*uint64(h.Height) > o.maxPixels {
		return h, UnsupportedError(fmt.Sprintf("image of %dx%d pixels", h.Width, h.Height))
	}
	bpp, err := BytesPerPixel(h.ColorType, h.BitDepth)
	if err != nil {
		return h, err
	}
	h.BytesPerPixel = bpp
	if _, err := h.scanlineBytes(); err != nil {
		return h, err
	}
	if h.CompressionMethod != compressionDeflate {
		return h, FormatError(fmt.Sprintf("unknown compression method %d", h.CompressionMethod))
	}
	if h.FilterMethod != filterMethodDefault {
		return h, FormatError(fmt.Sprintf("unknown filter method %d", h.FilterMethod))
	}
	switch h.InterlaceMethod {
	case interlaceNone:
	case interlaceAdam7:
		return h, UnsupportedError("adam7 interlacing")
	default:
		return h, FormatError(fmt.Sprintf("unknown interlace method %d", h.InterlaceMethod))
	}
	return h, nil
}

// bitsPerPixel 每像素位数
func (h IHDR) bitsPerPixel() int {
	return h.ColorType.Channels() * int(h.BitDepth)
}

// scanlineBytes 解压后扫描线流的总字节数, 含每行的滤波类型字节
// 扫描线流或像素数据超出 int 范围时返回 UnsupportedError
// 返回: int 字节数, error 错误信息
func (h IHDR) scanlineBytes() (int, error) {
	row := (uint64(h.Width)*uint64(h.bitsPerPixel())+7)/8 + 1
	hi, total := bits.Mul64(uint64(h.Height), row)
	if hi != 0 || total > math.MaxInt {
		return 0, UnsupportedError(fmt.Sprintf("%dx%d image data does not fit in memory", h.Width, h.Height))
	}
	hi, data := bits.Mul64(uint64(h.Width)*uint64(h.Height), uint64(h.BytesPerPixel))
	if hi != 0 || data > math.MaxInt {
		return 0, UnsupportedError(fmt.Sprintf("%dx%d image data does not fit in memory", h.Width, h.Height))
	}
	return int(total), nil
}

// rowBytes 一行扫描线的字节数, 不含滤波类型字节
func (h IHDR) rowBytes() int {
	return (int(h.Width)*h.bitsPerPixel() + 7) / 8
}
