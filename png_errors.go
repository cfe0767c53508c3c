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

import "fmt"

// FormatError 输入不符合格式
type FormatError string

func (e FormatError) Error() string { return "png: invalid format: " + string(e) }

// UnsupportedError 输入合法但使用了未实现的特性
type UnsupportedError string

func (e UnsupportedError) Error() string { return "png: unsupported feature: " + string(e) }

// ChecksumKind 校验和类型
type ChecksumKind string

const (
	// ChecksumCRC32 PNG 块校验
	ChecksumCRC32 ChecksumKind = "crc32"
	// ChecksumAdler32 zlib 尾部校验
	ChecksumAdler32 ChecksumKind = "adler32"
)

// ChecksumError 校验和不匹配, 仅在严格模式下返回
type ChecksumError struct {
	Kind  ChecksumKind
	Chunk string
	Want  uint32
	Got   uint32
}

func (e *ChecksumError) Error() string {
	if e.Chunk != "" {
		return fmt.Sprintf("png: %s mismatch in %s chunk: want %08x, got %08x", e.Kind, e.Chunk, e.Want, e.Got)
	}
	return fmt.Sprintf("png: %s mismatch: want %08x, got %08x", e.Kind, e.Want, e.Got)
}
