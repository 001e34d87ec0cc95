// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package vc

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := map[string]struct {
		version  string
		revision string
		bi       *debug.BuildInfo
		info     Info
		summary  string
	}{
		"no build info": {
			info:    Info{Version: devVersion},
			summary: "v0.0.0-dev (revision unknown, built unknown)",
		},
		"devel build with vcs": {
			bi: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123"},
					{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
					{Key: "vcs.modified", Value: "true"},
				},
			},
			info: Info{Version: devVersion, Revision: "abc123",
				Timestamp: "2026-01-02T03:04:05Z", Modified: true},
			summary: "v0.0.0-dev (revision abc123+dirty, built 2026-01-02T03:04:05Z)",
		},
		"module version": {
			bi:      &debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}},
			info:    Info{Version: "v1.2.3"},
			summary: "v1.2.3 (revision unknown, built unknown)",
		},
		"ldflags win": {
			version:  "v2.0.0-3-gdeadbee",
			revision: "deadbee",
			bi: &debug.BuildInfo{
				Main: debug.Module{Version: "v1.2.3"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "abc123"},
				},
			},
			info:    Info{Version: "v2.0.0-3-gdeadbee", Revision: "deadbee"},
			summary: "v2.0.0-3-gdeadbee (revision deadbee, built unknown)",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			oldVersion, oldRevision := version, revision
			t.Cleanup(func() { version, revision = oldVersion, oldRevision })
			version, revision = tc.version, tc.revision

			info := resolve(tc.bi)
			assert.Equal(t, tc.info, info)
			assert.Equal(t, tc.summary, info.String())
		})
	}
}

func TestVersionNotEmpty(t *testing.T) {
	assert.NotEmpty(t, Version())
	assert.Contains(t, Summary(), Version())
}
