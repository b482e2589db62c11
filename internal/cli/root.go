/*
 * SPDX-FileCopyrightText: Copyright (c) 2003 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/NVIDIA/recipe/internal/config"
	"github.com/NVIDIA/recipe/internal/logging"
)

const name = "recipectl"

// overridden during build with ldflags
var version = "dev"

// app holds the state shared by the commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

// NewCommand returns the root command writing results to out.
func NewCommand(cfg *config.Config, out io.Writer) *cli.Command {
	a := &app{cfg: cfg, logger: zap.NewNop(), out: out}
	return &cli.Command{
		Name:    name,
		Usage:   "Inspect object graph definition documents",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: cfg.Level,
				Usage: "log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "log-dev",
				Value: cfg.Development,
				Usage: "human readable log output",
			},
			&cli.IntFlag{
				Name:  "workers",
				Value: int64(cfg.Workers),
				Usage: "number of documents validated concurrently",
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			a.validateCmd(),
			a.orderCmd(),
			a.dumpCmd(),
		},
	}
}

// Execute runs the command line tool.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := NewCommand(cfg, os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// before configures the logger after flags are parsed.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	a.cfg.Level = cmd.String("log-level")
	a.cfg.Development = cmd.Bool("log-dev")
	a.cfg.Workers = int(cmd.Int("workers"))
	if a.cfg.Workers < 1 {
		return ctx, fmt.Errorf("workers must be positive, got %d", a.cfg.Workers)
	}

	logger, err := logging.New(logging.Config{
		Level:       a.cfg.Level,
		Development: a.cfg.Development,
	})
	if err != nil {
		return ctx, err
	}
	a.logger = logger.With(zap.String("name", name), zap.String("version", version))
	return ctx, nil
}

func (a *app) after(_ context.Context, _ *cli.Command) error {
	_ = a.logger.Sync()
	return nil
}
