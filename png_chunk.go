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
	"hash"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
)

// Signature PNG 文件签名
const Signature = "\x89PNG\r\n\x1a\n"

const maxChunkLength = 1<<31 - 1

const (
	chunkIHDR = "IHDR"
	chunkIDAT = "IDAT"
	chunkIEND = "IEND"
)

// chunkReader 逐块读取并累积 CRC-32
type chunkReader struct {
	r   io.Reader
	crc hash.Hash32
	tmp [8]byte
	o   *options
}

func newChunkReader(r io.Reader, o *options) *chunkReader {
	return &chunkReader{r: r, crc: crc32.NewIEEE(), o: o}
}

// readSignature 校验文件签名
func (c *chunkReader) readSignature() error {
	if _, err := io.ReadFull(c.r, c.tmp[:len(Signature)]); err != nil {
		return wrapEOF(err, "png: read signature")
	}
	if string(c.tmp[:len(Signature)]) != Signature {
		return FormatError(fmt.Sprintf("not a PNG file: % x", c.tmp[:len(Signature)]))
	}
	return nil
}

// next 读取块长度和类型, 并重置 CRC
// 返回: uint32 长度, string 类型, error 错误信息
func (c *chunkReader) next() (uint32, string, error) {
	if _, err := io.ReadFull(c.r, c.tmp[:8]); err != nil {
		return 0, "", wrapEOF(err, "png: read chunk header")
	}
	length := binary.BigEndian.Uint32(c.tmp[:4])
	if length > maxChunkLength {
		return 0, "", FormatError(fmt.Sprintf("chunk length %d too large", length))
	}
	typ := string(c.tmp[4:8])
	c.crc.Reset()
	c.crc.Write(c.tmp[4:8])
	return length, typ, nil
}

// read 读满 p 并计入 CRC
func (c *chunkReader) read(p []byte) error {
	if _, err := io.ReadFull(io.TeeReader(c.r, c.crc), p); err != nil {
		return wrapEOF(err, "png: read chunk data")
	}
	return nil
}

// appendTo 把 n 字节数据追加到 buf, 不预先分配 n 字节
func (c *chunkReader) appendTo(buf *bytes.Buffer, n uint32) error {
	if _, err := io.CopyN(buf, io.TeeReader(c.r, c.crc), int64(n)); err != nil {
		return wrapEOF(err, "png: read chunk data")
	}
	return nil
}

// skip 跳过 n 字节数据, 仍然计入 CRC
func (c *chunkReader) skip(n uint32) error {
	if _, err := io.CopyN(c.crc, c.r, int64(n)); err != nil {
		return wrapEOF(err, "png: skip chunk data")
	}
	return nil
}

// verify 读取并比较块尾 CRC
// 入参: typ 块类型
// 返回: error 错误信息
func (c *chunkReader) verify(typ string) error {
	if _, err := io.ReadFull(c.r, c.tmp[:4]); err != nil {
		return wrapEOF(err, "png: read chunk crc")
	}
	return c.o.checksum(ChecksumCRC32, typ, binary.BigEndian.Uint32(c.tmp[:4]), c.crc.Sum32())
}

// wrapEOF 数据提前结束统一为 io.ErrUnexpectedEOF
func wrapEOF(err error, msg string) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.Wrap(err, msg)
}
