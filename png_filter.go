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

// FilterType 扫描线滤波类型
type FilterType uint8

const (
	FilterNone    FilterType = 0
	FilterSub     FilterType = 1
	FilterUp      FilterType = 2
	FilterAverage FilterType = 3
	FilterPaeth   FilterType = 4
)

// Unfilter 原地还原一行扫描线
// 所有加法按 256 取模; prior 为 nil 表示第一行
// 入参: ft 滤波类型, cur 当前行, prior 上一行已还原数据, bpp 回看步长
// 返回: error 错误信息
func Unfilter(ft FilterType, cur, prior []byte, bpp int) error {
	switch ft {
	case FilterNone:
	case FilterSub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case FilterUp:
		if prior == nil {
			return nil
		}
		for i := range cur {
			cur[i] += prior[i]
		}
	case FilterAverage:
		for i := range cur {
			var left, up int
			if i >= bpp {
				left = int(cur[i-bpp])
			}
			if prior != nil {
				up = int(prior[i])
			}
			cur[i] += uint8((left + up) / 2)
		}
	case FilterPaeth:
		for i := range cur {
			var left, up, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
			}
			if prior != nil {
				up = prior[i]
				if i >= bpp {
					upLeft = prior[i-bpp]
				}
			}
			cur[i] += paethPredictor(left, up, upLeft)
		}
	default:
		return FormatError(fmt.Sprintf("bad filter type %d", ft))
	}
	return nil
}

// paethPredictor 取与 a+b-c 最接近的邻居, 平局依次取 a, b, c
func paethPredictor(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// reconstruct 还原全部扫描线并展开低位深采样
// 入参: h 图像头, raw 解压后的扫描线流
// 返回: []byte 像素数据, error 错误信息
func reconstruct(h IHDR, raw []byte) ([]byte, error) {
	rowBytes := h.rowBytes()
	height := int(h.Height)
	if len(raw) < height*(rowBytes+1) {
		return nil, FormatError(fmt.Sprintf("not enough pixel data: have %d bytes, need %d", len(raw), height*(rowBytes+1)))
	}
	bpp := int(h.BytesPerPixel)
	rows := make([]byte, height*rowBytes)
	var prior []byte
	for y := 0; y < height; y++ {
		line := raw[y*(rowBytes+1) : (y+1)*(rowBytes+1)]
		cur := rows[y*rowBytes : (y+1)*rowBytes]
		copy(cur, line[1:])
		if err := Unfilter(FilterType(line[0]), cur, prior, bpp); err != nil {
			return nil, err
		}
		prior = cur
	}
	if h.BitDepth >= Bits8 {
		return rows, nil
	}
	return unpackSamples(rows, int(h.Width), height, rowBytes, int(h.BitDepth)), nil
}

// unpackSamples 把每字节多个采样展开为每采样一字节, 保留原始采样值
func unpackSamples(rows []byte, width, height, rowBytes, depth int) []byte {
	out := make([]byte, width*height)
	mask := byte(1<<depth - 1)
	for y := 0; y < height; y++ {
		row := rows[y*rowBytes : (y+1)*rowBytes]
		for x := 0; x < width; x++ {
			bit := x * depth
			shift := 8 - depth - bit%8
			out[y*width+x] = row[bit/8] >> shift & mask
		}
	}
	return out
}
