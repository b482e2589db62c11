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
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/recipe"
	"github.com/NVIDIA/recipe/loader"
)

func (a *app) validateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate definition documents",
		ArgsUsage: "FILE...",
		Description: `Parse each document, check its structure and compute its
construction order. Documents are validated concurrently.

Types unknown to recipectl are assumed to need every nested object
before they are built.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return errors.New("at least one file is required")
			}

			results := make([]error, len(paths))
			group, _ := errgroup.WithContext(ctx)
			group.SetLimit(a.cfg.Workers)
			for index, path := range paths {
				index, path := index, path
				group.Go(func() error {
					results[index] = a.validateFile(path)
					return nil
				})
			}
			_ = group.Wait()

			var failed int
			for index, path := range paths {
				if results[index] != nil {
					failed++
					fmt.Fprintf(a.out, "FAIL %s: %v\n", path, results[index])
					continue
				}
				fmt.Fprintf(a.out, "ok   %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents are invalid", failed, len(paths))
			}
			return nil
		},
	}
}

func (a *app) orderCmd() *cli.Command {
	return &cli.Command{
		Name:      "order",
		Usage:     "Print the construction order of a document",
		ArgsUsage: "FILE",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path, err := singleArg(cmd)
			if err != nil {
				return err
			}
			names, err := a.sortedNames(path)
			if err != nil {
				var cycle *recipe.CircularDependencyError
				if errors.As(err, &cycle) {
					fmt.Fprintf(a.out, "cycle: %s\n", strings.Join(cycle.Names(), " -> "))
				}
				return err
			}
			for _, name := range names {
				fmt.Fprintln(a.out, name)
			}
			return nil
		},
	}
}

func (a *app) dumpCmd() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Print the normalized document",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   string(loader.FormatYAML),
				Usage:   "output format (yaml, toml)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			format, err := loader.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			path, err := singleArg(cmd)
			if err != nil {
				return err
			}
			doc, err := loader.LoadFile(path)
			if err != nil {
				return err
			}
			if err := loader.Validate(doc); err != nil {
				return fmt.Errorf("invalid document %q: %w", path, err)
			}
			data, err := loader.Marshal(doc, format)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}
}

// validateFile checks the document and its construction order.
func (a *app) validateFile(path string) error {
	names, err := a.sortedNames(path)
	if err != nil {
		return err
	}
	a.logger.Debug("document is valid", zap.String("path", path), zap.Int("objects", len(names)))
	return nil
}

// sortedNames loads the document into a new graph and orders it.
func (a *app) sortedNames(path string) ([]string, error) {
	a.logger.Info("loading document", zap.String("path", path))
	doc, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	graph := recipe.NewObjectGraph(recipe.NewRepository(), recipe.WithLogger(a.logger))
	if err := loader.Populate(graph, doc); err != nil {
		return nil, err
	}
	return graph.SortedNames()
}

func singleArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("exactly one file is required, got %d", cmd.Args().Len())
	}
	return cmd.Args().First(), nil
}
