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

// Package png 一个自带 DEFLATE/zlib 解压实现的纯 Go 语言 PNG 解码器
package png

import (
	"bufio"
	"bytes"
	"image"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Decoder PNG解码器
type Decoder struct {
	cr   *chunkReader
	o    *options
	ihdr IHDR
}

// NewDecoder 创建解码器, 读取签名和 IHDR
// 入参: r 读取器, opts 选项
// 返回: *Decoder 解码器, error 错误信息
func NewDecoder(r io.Reader, opts ...Option) (*Decoder, error) {
	o := newOptions(opts)
	d := &Decoder{cr: newChunkReader(r, o), o: o}
	if err := d.cr.readSignature(); err != nil {
		return nil, err
	}
	length, typ, err := d.cr.next()
	if err != nil {
		return nil, err
	}
	if typ != chunkIHDR {
		return nil, FormatError("first chunk must be IHDR, was " + typ)
	}
	if length != ihdrLength {
		return nil, FormatError("bad IHDR length")
	}
	var buf [ihdrLength]byte
	if err := d.cr.read(buf[:]); err != nil {
		return nil, err
	}
	if d.ihdr, err = parseIHDR(buf[:], o); err != nil {
		return nil, err
	}
	if err := d.cr.verify(chunkIHDR); err != nil {
		return nil, err
	}
	return d, nil
}

// Header 获取图像头
// 返回: IHDR 图像头
func (d *Decoder) Header() IHDR {
	return d.ihdr
}

// Decode 读取剩余块并解码像素
// 返回: *Image 图像, error 错误信息
func (d *Decoder) Decode() (*Image, error) {
	compressed, err := d.readIDAT()
	if err != nil {
		return nil, err
	}
	need, err := d.ihdr.scanlineBytes()
	if err != nil {
		return nil, err
	}
	o := *d.o
	if o.maxOutput <= 0 || o.maxOutput > need {
		o.maxOutput = need
	}
	raw, err := zlibDecompress(compressed, &o)
	if err != nil {
		return nil, err
	}
	data, err := reconstruct(d.ihdr, raw)
	if err != nil {
		return nil, err
	}
	return &Image{
		Width:         d.ihdr.Width,
		Height:        d.ihdr.Height,
		BitDepth:      d.ihdr.BitDepth,
		ColorType:     d.ihdr.ColorType,
		BytesPerPixel: d.ihdr.BytesPerPixel,
		Data:          data,
	}, nil
}

// readIDAT 按顺序拼接全部 IDAT 数据直到 IEND
// 返回: []byte 压缩数据, error 错误信息
func (d *Decoder) readIDAT() ([]byte, error) {
	var buf bytes.Buffer
	seenIDAT := false
	for {
		length, typ, err := d.cr.next()
		if err != nil {
			return nil, err
		}
		switch typ {
		case chunkIEND:
			if err := d.cr.skip(length); err != nil {
				return nil, err
			}
			if err := d.cr.verify(typ); err != nil {
				return nil, err
			}
			if !seenIDAT {
				return nil, FormatError("no IDAT chunk")
			}
			return buf.Bytes(), nil
		case chunkIDAT:
			seenIDAT = true
			err = d.cr.appendTo(&buf, length)
		case chunkIHDR:
			return nil, FormatError("second IHDR chunk")
		default:
			d.o.logger.Debug().Str("chunk", typ).Uint32("length", length).Msg("skipping chunk")
			err = d.cr.skip(length)
		}
		if err != nil {
			return nil, err
		}
		if err := d.cr.verify(typ); err != nil {
			return nil, err
		}
	}
}

// Load 解码 PNG 数据
// 入参: r 读取器, opts 选项
// 返回: *Image 图像, error 错误信息
func Load(r io.Reader, opts ...Option) (*Image, error) {
	d, err := NewDecoder(r, opts...)
	if err != nil {
		return nil, err
	}
	return d.Decode()
}

// LoadFile 解码 PNG 文件
// 入参: path 文件路径, opts 选项
// 返回: *Image 图像, error 错误信息
func LoadFile(path string, opts ...Option) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "png: open")
	}
	defer f.Close()
	img, err := Load(bufio.NewReader(f), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "png: decode %s", path)
	}
	return img, nil
}

// Decode 解码为Go标准库Image
// 入参: r 读取器
// 返回: image.Image 图像, error 错误信息
func Decode(r io.Reader) (image.Image, error) {
	img, err := Load(r)
	if err != nil {
		return nil, err
	}
	return img.ToGoImage(), nil
}

// DecodeConfig 获取PNG图像配置
// 入参: r 读取器
// 返回: image.Config 图像配置, error 错误信息
func DecodeConfig(r io.Reader) (image.Config, error) {
	d, err := NewDecoder(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: colorModel(d.ihdr.ColorType, d.ihdr.BitDepth),
		Width:      int(d.ihdr.Width),
		Height:     int(d.ihdr.Height),
	}, nil
}

func init() {
	image.RegisterFormat("png", Signature, Decode, DecodeConfig)
}
