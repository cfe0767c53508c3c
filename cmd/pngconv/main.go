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

// pngconv 查看 PNG 图像信息并转换为 BMP/TIFF
package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand 创建根命令
// 返回: *cobra.Command 根命令
func newRootCommand() *cobra.Command {
	var level string
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	rootCommand := &cobra.Command{
		Use:           "pngconv",
		Short:         "Inspect and convert PNG images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := zerolog.ParseLevel(level)
			if err != nil {
				return errors.Wrapf(err, "bad log level %q", level)
			}
			logger = logger.Level(lvl)
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&level, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCommand.AddCommand(newInfoCommand(&logger), newConvertCommand(&logger))
	rootCommand.SetErr(os.Stderr)
	rootCommand.SetOut(os.Stdout)
	return wrapErrors(rootCommand, &logger)
}

// wrapErrors 统一把子命令错误写入日志
func wrapErrors(root *cobra.Command, logger *zerolog.Logger) *cobra.Command {
	for _, c := range root.Commands() {
		run := c.RunE
		if run == nil {
			continue
		}
		c.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if err != nil {
				logger.Error().Err(err).Str("command", cmd.Name()).Msg("command failed")
			}
			return err
		}
	}
	return root
}
