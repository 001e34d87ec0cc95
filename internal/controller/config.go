// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "go.opentelemetry.io/hookprofiler/internal/controller"

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/hookprofiler/host"
	"go.opentelemetry.io/hookprofiler/libpf"
	"go.opentelemetry.io/hookprofiler/reporter"
)

type Config struct {
	// Traces are the recorded traces to profile, one session each.
	Traces []string
	// Contexts is a comma separated list of context IDs to profile. Empty
	// selects all contexts.
	Contexts string

	MaxCallDepth    int
	MaxContexts     int
	StrictClock     bool
	CallPath        bool
	Rollup          string
	SymbolCacheSize uint
	Demangle        bool

	Format string
	// Limit truncates the flat records of each report. 0 keeps all.
	Limit  int
	Output string

	S3Bucket    string
	S3Prefix    string
	S3Endpoint  string
	S3Region    string
	S3PathStyle bool
	S3Compress  bool

	// Parallelism is the number of traces replayed at the same time.
	Parallelism int

	VerboseMode bool
	Version     bool

	Fs *flag.FlagSet

	rollup   reporter.Rollup
	format   reporter.Format
	contexts libpf.Set[host.ContextID]
}

// Dump visits all flag sets, and dumps them all to debug
// Used for verbose mode logging.
func (cfg *Config) Dump() {
	if cfg.Fs == nil {
		return
	}
	log.Debug("Config:")
	cfg.Fs.VisitAll(func(f *flag.Flag) {
		log.Debug(fmt.Sprintf("%s: %v", f.Name, f.Value))
	})
}

// Validate runs validations on the provided configuration, and returns errors
// if invalid values were provided.
func (cfg *Config) Validate() error {
	if len(cfg.Traces) == 0 {
		return errors.New("no trace to profile")
	}
	seen := make(libpf.Set[string], len(cfg.Traces))
	for _, t := range cfg.Traces {
		if _, ok := seen[t]; ok {
			return fmt.Errorf("trace %s given more than once", t)
		}
		seen[t] = libpf.Void{}
	}

	var err error
	if cfg.rollup, err = reporter.ParseRollup(cfg.Rollup); err != nil {
		return err
	}
	if cfg.format, err = reporter.ParseFormat(cfg.Format); err != nil {
		return err
	}
	if cfg.contexts, err = parseContexts(cfg.Contexts); err != nil {
		return err
	}

	if cfg.MaxCallDepth < 0 {
		return fmt.Errorf("invalid max call depth %d", cfg.MaxCallDepth)
	}
	if cfg.MaxContexts < 0 {
		return fmt.Errorf("invalid max contexts %d", cfg.MaxContexts)
	}
	if cfg.Limit < 0 {
		return fmt.Errorf("invalid record limit %d", cfg.Limit)
	}
	if cfg.Parallelism < 1 {
		return fmt.Errorf("invalid parallelism %d", cfg.Parallelism)
	}
	if cfg.S3Bucket == "" && (cfg.S3Prefix != "" || cfg.S3Endpoint != "") {
		return errors.New("S3 options given without a bucket")
	}
	if cfg.Output == "" && cfg.S3Bucket == "" {
		return errors.New("no output configured")
	}
	return nil
}

func parseContexts(list string) (libpf.Set[host.ContextID], error) {
	set := make(libpf.Set[host.ContextID])
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.ParseUint(field, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid context ID '%s': %v", field, err)
		}
		set[host.ContextID(id)] = libpf.Void{}
	}
	return set, nil
}
