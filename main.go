// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// hookprofiler replays recorded call traces of a scripting runtime through the
// call-stack profiler and writes one cost report per trace.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/hookprofiler/internal/controller"
	"go.opentelemetry.io/hookprofiler/metrics"
	"go.opentelemetry.io/hookprofiler/vc"
)

type exitCode int

const (
	exitSuccess exitCode = 0
	exitFailure exitCode = 1

	// Go 'flag' package calls os.Exit(2) on flag parse errors, if ExitOnError is set
	exitParseError exitCode = 2
)

func main() {
	os.Exit(int(mainWithExitCode(os.Args[1:])))
}

func mainWithExitCode(arguments []string) exitCode {
	cfg, err := parseArgs(arguments)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitSuccess
		}
		return parseError("Failure to parse arguments: %v", err)
	}

	if cfg.Version {
		fmt.Printf("%s\n", vc.Version())
		return exitSuccess
	}

	if cfg.VerboseMode {
		log.SetLevel(log.DebugLevel)
		// Dump the arguments in debug mode.
		cfg.Dump()
		metrics.SetReporter(controller.NewMetricsLogger())
	}

	if err = cfg.Validate(); err != nil {
		return parseError("Invalid configuration: %v", err)
	}

	// Context to drive main goroutine and the replays.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT)
	defer cancel()

	log.Debugf("Starting hookprofiler %s", vc.Summary())

	if err = controller.New(cfg).Run(ctx); err != nil {
		var exitErr controller.ErrorWithExitCode
		if errors.As(err, &exitErr) {
			log.Error(err)
			return exitCode(exitErr.Code())
		}
		return failure("Failed to profile: %v", err)
	}
	return exitSuccess
}

func parseError(msg string, args ...any) exitCode {
	log.Errorf(msg, args...)
	return exitParseError
}

func failure(msg string, args ...any) exitCode {
	log.Errorf(msg, args...)
	return exitFailure
}
