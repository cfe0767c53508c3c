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

import "github.com/rs/zerolog"

// DefaultMaxPixels 默认像素上限
const DefaultMaxPixels = 1 << 28

// Option 解码选项
type Option func(*options)

type options struct {
	strict    bool
	logger    zerolog.Logger
	maxPixels uint64
	maxOutput int
}

// WithStrict 严格模式下校验和错误是致命的
// 入参: strict 是否严格
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithLogger 设置日志
// 入参: logger 日志
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxPixels 设置像素上限
// 解压后数据大小超出 int 范围的图像无论上限多大都会被拒绝
// 入参: n 宽乘高的上限
func WithMaxPixels(n uint64) Option {
	return func(o *options) {
		o.maxPixels = n
	}
}

// WithMaxOutput 限制解压输出的字节数, 0 表示不限制
// 超出时停止解压并返回 ErrOutputLimit, 已有输出截断到上限
// 入参: n 字节数上限
func WithMaxOutput(n int) Option {
	return func(o *options) {
		o.maxOutput = n
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:    zerolog.Nop(),
		maxPixels: DefaultMaxPixels,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// checksum 比较校验和, 宽松模式只记录警告
// 入参: kind 类型, chunk 块名, want 期望值, got 实际值
// 返回: error 错误信息
func (o *options) checksum(kind ChecksumKind, chunk string, want, got uint32) error {
	if want == got {
		return nil
	}
	err := &ChecksumError{Kind: kind, Chunk: chunk, Want: want, Got: got}
	if o.strict {
		return err
	}
	o.logger.Warn().Str("kind", string(kind)).Str("chunk", chunk).
		Uint32("want", want).Uint32("got", got).Msg("checksum mismatch ignored")
	return nil
}
