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
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"io"

	"github.com/pkg/errors"
)

const zlibDeflate = 8

// ZlibHeader zlib 流头
type ZlibHeader struct {
	CompressionMethod uint8
	CompressionInfo   uint8
	WindowSize        uint32
	Level             uint8
	PresetDict        bool
}

// ParseZlibHeader 解析并校验 CMF 与 FLG
// 入参: cmf 压缩方法字节, flg 标志字节
// 返回: ZlibHeader 流头, error 错误信息
func ParseZlibHeader(cmf, flg byte) (ZlibHeader, error) {
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return ZlibHeader{}, FormatError(fmt.Sprintf("zlib header check failed for %02x %02x", cmf, flg))
	}
	h := ZlibHeader{
		CompressionMethod: cmf & 0x0F,
		CompressionInfo:   cmf >> 4,
		Level:             flg >> 6,
		PresetDict:        flg&0x20 != 0,
	}
	if h.CompressionMethod != zlibDeflate {
		return h, FormatError(fmt.Sprintf("zlib compression method %d", h.CompressionMethod))
	}
	if h.CompressionInfo > 7 {
		return h, FormatError(fmt.Sprintf("zlib window size 2^%d", h.CompressionInfo+8))
	}
	h.WindowSize = 1 << (h.CompressionInfo + 8)
	if h.PresetDict {
		return h, UnsupportedError("zlib preset dictionary")
	}
	return h, nil
}

// ZlibDecompress 解压 zlib 数据
// 入参: data 压缩数据, opts 选项
// 返回: []byte 解压结果, error 错误信息
func ZlibDecompress(data []byte, opts ...Option) ([]byte, error) {
	return zlibDecompress(data, newOptions(opts))
}

func zlibDecompress(data []byte, o *options) ([]byte, error) {
	if len(data) < 2 {
		return nil, errors.Wrap(io.ErrUnexpectedEOF, "png: zlib header")
	}
	if _, err := ParseZlibHeader(data[0], data[1]); err != nil {
		return nil, err
	}
	br := NewBitReader(bytes.NewReader(data[2:]))
	out, err := newInflater(br, o).Run()
	if errors.Is(err, ErrOutputLimit) && !o.strict {
		o.logger.Debug().Int("limit", o.maxOutput).Msg("ignoring inflated data beyond limit")
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	var trailer [4]byte
	if err := br.ReadAlignedBytes(trailer[:]); err != nil {
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		if o.strict {
			return nil, FormatError("missing adler-32 trailer")
		}
		o.logger.Warn().Msg("zlib stream has no adler-32 trailer")
		return out, nil
	}
	if err := o.checksum(ChecksumAdler32, "", binary.BigEndian.Uint32(trailer[:]), adler32.Checksum(out)); err != nil {
		return nil, err
	}
	return out, nil
}
