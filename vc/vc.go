// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package vc provides buildtime information.
package vc // import "go.opentelemetry.io/hookprofiler/vc"

import (
	"fmt"
	"runtime/debug"
)

// Set at link time with -ldflags "-X go.opentelemetry.io/hookprofiler/vc.version=...".
// Empty values fall back to the build info the go command embeds.
var (
	// version in vX.Y.Z{-N-abbrev} format (via git-describe --tags)
	version = ""
	// revision is the VCS commit
	revision = ""
	// buildTimestamp is the commit time in RFC 3339
	buildTimestamp = ""
)

const devVersion = "v0.0.0-dev"

// Info describes the running binary.
type Info struct {
	Version   string
	Revision  string
	Timestamp string
	// Modified is set for builds from a dirty working tree.
	Modified bool
}

// Current merges the link-time variables with the embedded build info.
func Current() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(bi)
}

func resolve(bi *debug.BuildInfo) Info {
	info := Info{Version: version, Revision: revision, Timestamp: buildTimestamp}
	if bi != nil {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Revision == "" {
					info.Revision = s.Value
				}
			case "vcs.time":
				if info.Timestamp == "" {
					info.Timestamp = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	if info.Version == "" {
		info.Version = devVersion
	}
	return info
}

// Version in vX.Y.Z{-N-abbrev} format.
func Version() string {
	return Current().Version
}

// Summary returns version, revision and build timestamp on one line.
func Summary() string {
	return Current().String()
}

func (i Info) String() string {
	rev := i.Revision
	if rev == "" {
		rev = "unknown"
	} else if i.Modified {
		rev += "+dirty"
	}
	ts := i.Timestamp
	if ts == "" {
		ts = "unknown"
	}
	return fmt.Sprintf("%s (revision %s, built %s)", i.Version, rev, ts)
}
