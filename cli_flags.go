// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"runtime"

	"github.com/peterbourgon/ff/v3"

	"go.opentelemetry.io/hookprofiler/internal/controller"
	"go.opentelemetry.io/hookprofiler/profiler"
)

const (
	// Default values for CLI flags
	defaultArgMaxCallDepth    = profiler.DefaultMaxCallDepth
	defaultArgMaxContexts     = profiler.DefaultMaxContexts
	defaultArgSymbolCacheSize = 4096
	defaultArgOutput          = "-"
	defaultArgFormat          = "text"
	defaultArgRollup          = "max"
)

// Help strings for command line arguments
var (
	callPathHelp     = "Add the call-path tree to every report."
	contextsHelp     = "Comma separated list of context IDs to profile. All contexts if empty."
	demangleHelp     = "Demangle the names of native functions."
	formatHelp       = "Report format: text, json or pprof."
	limitHelp        = "Only report the N most expensive functions. 0 reports all."
	maxCallDepthHelp = fmt.Sprintf("Maximum number of open frames per context. "+
		"Default is %d.", defaultArgMaxCallDepth)
	maxContextsHelp = fmt.Sprintf("Maximum number of profiled contexts per trace. "+
		"Default is %d.", defaultArgMaxContexts)
	outputHelp = "Report destination. '-' writes to stdout. With more than one trace " +
		"this is a directory receiving one report per trace. A .zst suffix compresses."
	parallelismHelp = "Number of traces replayed at the same time."
	rollupHelp      = "Call-path cost roll-up policy: max or sum."
	s3BucketHelp    = "Upload every report to this S3 bucket."
	s3CompressHelp  = "Compress S3 uploads with zstd."
	s3EndpointHelp  = "Custom S3 endpoint, e.g. for a local object store."
	s3PathStyleHelp = "Use path style S3 addressing."
	s3PrefixHelp    = "Key prefix of S3 uploads."
	s3RegionHelp    = "Region of the S3 bucket."
	strictClockHelp = "Abort a trace if time goes backwards instead of clamping costs to 0."
	symbolCacheHelp = "Number of resolved function symbols to cache."
	verboseModeHelp = "Enable verbose logging and debugging capabilities."
	versionHelp     = "Show version."
)

func parseArgs(arguments []string) (*controller.Config, error) {
	var args controller.Config

	fs := flag.NewFlagSet("hookprofiler", flag.ContinueOnError)

	// Please keep the parameters ordered alphabetically in the source-code.
	fs.BoolVar(&args.CallPath, "call-path", false, callPathHelp)
	fs.StringVar(&args.Contexts, "contexts", "", contextsHelp)

	fs.BoolVar(&args.Demangle, "demangle", false, demangleHelp)

	fs.StringVar(&args.Format, "format", defaultArgFormat, formatHelp)

	fs.IntVar(&args.Limit, "limit", 0, limitHelp)

	fs.IntVar(&args.MaxCallDepth, "max-call-depth", defaultArgMaxCallDepth, maxCallDepthHelp)
	fs.IntVar(&args.MaxContexts, "max-contexts", defaultArgMaxContexts, maxContextsHelp)

	fs.StringVar(&args.Output, "o", defaultArgOutput, "Shorthand for -output.")
	fs.StringVar(&args.Output, "output", defaultArgOutput, outputHelp)

	fs.IntVar(&args.Parallelism, "parallelism", runtime.GOMAXPROCS(0), parallelismHelp)

	fs.StringVar(&args.Rollup, "rollup", defaultArgRollup, rollupHelp)

	fs.StringVar(&args.S3Bucket, "s3-bucket", "", s3BucketHelp)
	fs.BoolVar(&args.S3Compress, "s3-compress", false, s3CompressHelp)
	fs.StringVar(&args.S3Endpoint, "s3-endpoint", "", s3EndpointHelp)
	fs.BoolVar(&args.S3PathStyle, "s3-path-style", false, s3PathStyleHelp)
	fs.StringVar(&args.S3Prefix, "s3-prefix", "", s3PrefixHelp)
	fs.StringVar(&args.S3Region, "s3-region", "", s3RegionHelp)

	fs.BoolVar(&args.StrictClock, "strict-clock", false, strictClockHelp)
	fs.UintVar(&args.SymbolCacheSize, "symbol-cache-size", defaultArgSymbolCacheSize,
		symbolCacheHelp)

	fs.BoolVar(&args.VerboseMode, "v", false, "Shorthand for -verbose.")
	fs.BoolVar(&args.VerboseMode, "verbose", false, verboseModeHelp)
	fs.BoolVar(&args.Version, "version", false, versionHelp)

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] trace...\n", fs.Name())
		fs.PrintDefaults()
	}

	args.Fs = fs

	err := ff.Parse(fs, arguments,
		ff.WithEnvVarPrefix("HOOKPROFILER"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		// This will ignore configuration file (only) options that the current
		// version does not recognize.
		ff.WithIgnoreUndefined(true),
		ff.WithAllowMissingConfigFile(true),
	)
	args.Traces = fs.Args()
	return &args, err
}
