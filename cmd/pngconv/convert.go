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

package main

import (
	"bufio"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/xiaoqidun/png"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

type convertFlags struct {
	width  int
	height int
	strict bool
}

func newConvertCommand(logger *zerolog.Logger) *cobra.Command {
	var flags convertFlags
	cmd := &cobra.Command{
		Use:   "convert <in.png> <out.{bmp,tif,tiff}>",
		Short: "Decode a PNG file and write it as BMP or TIFF",
		Long:  "Decode a PNG file and write it as BMP or TIFF, optionally scaling it to --width and --height. The output format is chosen by extension.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return convert(args[0], args[1], flags, *logger)
		},
	}
	cmd.Flags().IntVar(&flags.width, "width", 0, "output width, 0 keeps the aspect ratio")
	cmd.Flags().IntVar(&flags.height, "height", 0, "output height, 0 keeps the aspect ratio")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail on checksum mismatches")
	return cmd
}

// encoderFor 按扩展名选择编码器
// 入参: path 输出路径
// 返回: func 编码函数, error 错误信息
func encoderFor(path string) (func(io.Writer, image.Image) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		}, nil
	}
	return nil, errors.Errorf("unsupported output format %q", filepath.Ext(path))
}

// targetSize 计算缩放后的尺寸, 只给出一边时按比例推算另一边
// 入参: w 原宽, h 原高, flags 参数
// 返回: int 宽, int 高
func targetSize(w, h int, flags convertFlags) (int, int) {
	tw, th := flags.width, flags.height
	switch {
	case tw <= 0 && th <= 0:
		return w, h
	case tw <= 0:
		tw = max(1, w*th/h)
	case th <= 0:
		th = max(1, h*tw/w)
	}
	return tw, th
}

// convert 解码 in 并写出 out
func convert(in, out string, flags convertFlags, logger zerolog.Logger) error {
	encode, err := encoderFor(out)
	if err != nil {
		return err
	}
	img, err := png.LoadFile(in, png.WithStrict(flags.strict), png.WithLogger(logger))
	if err != nil {
		return err
	}
	var src image.Image = img.ToGoImage()
	w, h := targetSize(int(img.Width), int(img.Height), flags)
	if w != int(img.Width) || h != int(img.Height) {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		src = dst
		logger.Debug().Int("width", w).Int("height", h).Msg("scaled image")
	}
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	bw := bufio.NewWriter(f)
	if err := encode(bw, src); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", out)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "flush output")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}
	logger.Info().Str("input", in).Str("output", out).
		Uint32("width", img.Width).Uint32("height", img.Height).
		Str("color_type", img.ColorType.String()).Msg("converted")
	return nil
}
