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
	"image"
	"image/color"
)

// Image 解码后的图像, 行优先, 行间无填充, 滤波已还原
// 16 位采样为大端序; 低于 8 位的灰度采样每个占一字节
type Image struct {
	Width         uint32
	Height        uint32
	BitDepth      BitDepth
	ColorType     ColorType
	BytesPerPixel uint32
	Data          []byte
}

// Stride 获取跨度
// 返回: int 每行字节数
func (i *Image) Stride() int {
	return int(i.Width * i.BytesPerPixel)
}

// Pixel 获取像素的原始字节
// 入参: x 轴坐标, y 轴坐标
// 返回: []byte 长度为 BytesPerPixel 的切片, 越界时为 nil
func (i *Image) Pixel(x, y int) []byte {
	if x < 0 || y < 0 || x >= int(i.Width) || y >= int(i.Height) {
		return nil
	}
	bpp := int(i.BytesPerPixel)
	off := y*i.Stride() + x*bpp
	return i.Data[off : off+bpp : off+bpp]
}

// ColorModel 对应的标准库颜色模型
func (i *Image) ColorModel() color.Model {
	return colorModel(i.ColorType, i.BitDepth)
}

func colorModel(ct ColorType, depth BitDepth) color.Model {
	switch {
	case ct == Grayscale && depth == Bits16:
		return color.Gray16Model
	case ct == Grayscale:
		return color.GrayModel
	case depth == Bits16:
		return color.NRGBA64Model
	}
	return color.NRGBAModel
}

// ToGoImage 转换为Go标准库Image
// 返回: image.Image 图像
func (i *Image) ToGoImage() image.Image {
	if i == nil {
		return nil
	}
	w, h := int(i.Width), int(i.Height)
	rect := image.Rect(0, 0, w, h)
	n := w * h
	switch {
	case i.ColorType == Grayscale && i.BitDepth == Bits16:
		img := image.NewGray16(rect)
		copy(img.Pix, i.Data)
		return img
	case i.ColorType == Grayscale:
		img := image.NewGray(rect)
		scale := byte(255 / (int(1)<<i.BitDepth - 1))
		for p := 0; p < n; p++ {
			img.Pix[p] = i.Data[p] * scale
		}
		return img
	case i.ColorType == RGBA && i.BitDepth == Bits8:
		img := image.NewNRGBA(rect)
		copy(img.Pix, i.Data)
		return img
	case i.ColorType == RGBA:
		img := image.NewNRGBA64(rect)
		copy(img.Pix, i.Data)
		return img
	case i.BitDepth == Bits8:
		img := image.NewNRGBA(rect)
		for p := 0; p < n; p++ {
			src := i.Data[p*int(i.BytesPerPixel):]
			dst := img.Pix[p*4 : p*4+4]
			if i.ColorType == RGB {
				dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xFF
			} else {
				dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], src[1]
			}
		}
		return img
	default:
		img := image.NewNRGBA64(rect)
		for p := 0; p < n; p++ {
			src := i.Data[p*int(i.BytesPerPixel):]
			dst := img.Pix[p*8 : p*8+8]
			if i.ColorType == RGB {
				copy(dst[:6], src[:6])
				dst[6], dst[7] = 0xFF, 0xFF
			} else {
				copy(dst[0:2], src[0:2])
				copy(dst[2:4], src[0:2])
				copy(dst[4:6], src[0:2])
				copy(dst[6:8], src[2:4])
			}
		}
		return img
	}
}
