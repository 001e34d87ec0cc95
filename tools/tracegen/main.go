// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// tracegen writes synthetic call traces for the hookprofiler replay runtime.

package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3/ffcli"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetReportCaller(false)
	log.SetFormatter(&log.TextFormatter{})

	if err := newRootCmd().ParseAndRun(context.Background(), os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			log.Fatalf("%v", err)
		}
	}
}

func newRootCmd() *ffcli.Command {
	return &ffcli.Command{
		Name:       "tracegen",
		ShortUsage: "tracegen <subcommand> [flags]",
		ShortHelp:  "Tool for generating synthetic call traces",
		Subcommands: []*ffcli.Command{
			newNestedCmd(),
			newTailCmd(),
			newCoroutinesCmd(),
		},
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
	}
}

func commonFlags(set *flag.FlagSet, opts *options) {
	set.StringVar(&opts.output, "o", "-", "Output file, '-' for stdout. A .zst suffix compresses")
	set.Uint64Var(&opts.seed, "seed", 1, "Seed of the random generator")
	set.IntVar(&opts.functions, "functions", 16, "Number of distinct functions")
	set.IntVar(&opts.iterations, "iterations", 100, "Number of times the workload is repeated")
	set.DurationVar(&opts.maxStep, "max-step", 10*time.Microsecond,
		"Largest time advance between two events")
}

type nestedCmd struct {
	opts          options
	depth, fanout int
}

func newNestedCmd() *ffcli.Command {
	cmd := nestedCmd{}
	set := flag.NewFlagSet("nested", flag.ExitOnError)
	commonFlags(set, &cmd.opts)
	set.IntVar(&cmd.depth, "depth", 6, "Depth of each call tree")
	set.IntVar(&cmd.fanout, "fanout", 3, "Maximum number of callees per call")
	return &ffcli.Command{
		Name:       "nested",
		ShortUsage: "nested [flags]",
		ShortHelp:  "Random call trees on a single context",
		FlagSet:    set,
		Exec:       cmd.exec,
	}
}

func (cmd *nestedCmd) exec(context.Context, []string) error {
	n, err := writeTrace(&cmd.opts, func(g *generator) {
		g.nested(1, cmd.depth, cmd.fanout)
	})
	log.Infof("Wrote %d events", n)
	return err
}

type tailCmd struct {
	opts   options
	length int
}

func newTailCmd() *ffcli.Command {
	cmd := tailCmd{}
	set := flag.NewFlagSet("tail", flag.ExitOnError)
	commonFlags(set, &cmd.opts)
	set.IntVar(&cmd.length, "length", 8, "Number of tail calls per chain")
	return &ffcli.Command{
		Name:       "tail",
		ShortUsage: "tail [flags]",
		ShortHelp:  "Chains of tail calls ended by a single return",
		FlagSet:    set,
		Exec:       cmd.exec,
	}
}

func (cmd *tailCmd) exec(context.Context, []string) error {
	n, err := writeTrace(&cmd.opts, func(g *generator) {
		g.tailChain(1, cmd.length)
	})
	log.Infof("Wrote %d events", n)
	return err
}

type coroutinesCmd struct {
	opts                  options
	contexts, depth, step int
}

func newCoroutinesCmd() *ffcli.Command {
	cmd := coroutinesCmd{}
	set := flag.NewFlagSet("coroutines", flag.ExitOnError)
	commonFlags(set, &cmd.opts)
	set.IntVar(&cmd.contexts, "contexts", 4, "Number of interleaved contexts")
	set.IntVar(&cmd.depth, "depth", 5, "Maximum stack depth per context")
	set.IntVar(&cmd.step, "steps", 50, "Number of calls and returns per iteration")
	return &ffcli.Command{
		Name:       "coroutines",
		ShortUsage: "coroutines [flags]",
		ShortHelp:  "Interleaved call stacks on several contexts",
		FlagSet:    set,
		Exec:       cmd.exec,
	}
}

func (cmd *coroutinesCmd) exec(context.Context, []string) error {
	if cmd.contexts < 1 {
		return errors.New("need at least one context")
	}
	n, err := writeTrace(&cmd.opts, func(g *generator) {
		g.coroutines(cmd.contexts, cmd.depth, cmd.step)
	})
	log.Infof("Wrote %d events", n)
	return err
}
