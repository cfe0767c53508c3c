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
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/xiaoqidun/png"
)

func newInfoCommand(logger *zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print the IHDR header of a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open input")
			}
			defer f.Close()
			d, err := png.NewDecoder(bufio.NewReader(f), png.WithLogger(*logger))
			if err != nil {
				return errors.Wrapf(err, "read header of %s", args[0])
			}
			printHeader(cmd.OutOrStdout(), args[0], d.Header())
			return nil
		},
	}
}

// printHeader 输出图像头
// 入参: w 输出, name 文件名, h 图像头
func printHeader(w io.Writer, name string, h png.IHDR) {
	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  size:            %dx%d\n", h.Width, h.Height)
	fmt.Fprintf(w, "  color type:      %s\n", h.ColorType)
	fmt.Fprintf(w, "  bit depth:       %d\n", h.BitDepth)
	fmt.Fprintf(w, "  bytes per pixel: %d\n", h.BytesPerPixel)
	fmt.Fprintf(w, "  interlace:       %d\n", h.InterlaceMethod)
}
