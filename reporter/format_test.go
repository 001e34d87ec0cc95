// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/pprof/profile"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/hookprofiler/flat"
	"go.opentelemetry.io/hookprofiler/libpf"
)

func testReport(withCallPath bool) *Report {
	r := &Report{
		Name:      "a.trace",
		SessionID: uuid.MustParse("8d1b5c1e-1b7e-4a3c-9f3e-2a9c7f1b0d42"),
		Start:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Elapsed:   27 * time.Microsecond,
		Records: []flat.Record{
			{Identity: 0xf, Name: "f", Source: "@a.lua", Line: 1, Flag: libpf.InterpretedFrame,
				Count: 1, Cost: 10 * time.Microsecond, Average: 10 * time.Microsecond,
				Percent: 10.0 / 27.0},
			{Identity: 0x4, Name: "h", Source: "@a.lua", Line: 9, Flag: libpf.InterpretedFrame,
				Count: 4, Cost: 9 * time.Microsecond, Average: 2250 * time.Nanosecond,
				Percent: 9.0 / 27.0},
			{Identity: 0x3, Name: "g", Source: "@a.lua", Line: 5, Flag: libpf.NativeFrame,
				Count: 3, Cost: 8 * time.Microsecond, Average: 2666 * time.Nanosecond,
				Percent: 8.0 / 27.0},
		},
	}
	if withCallPath {
		root := testTree()
		ApplyRollup(root, RollupMax)
		r.CallPath = &CallPath{Elapsed: 27 * time.Microsecond, Root: root}
	}
	return r
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{FormatText, FormatJSON, FormatPprof} {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
	require.Error(t, Write(io.Discard, testReport(false), Format(42)))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, testReport(true)))
	out := buf.String()

	assert.Contains(t, out, "profile a.trace\n")
	assert.Contains(t, out, "session 8d1b5c1e-1b7e-4a3c-9f3e-2a9c7f1b0d42")
	assert.Contains(t, out, "37.04")
	assert.Contains(t, out, "0.000010")
	assert.Contains(t, out, "@a.lua:9")
	assert.Contains(t, out, "call path (elapsed 27us)")
	assert.Contains(t, out, "\n  f @a.lua:1 count=4 cost=10us\n")
	assert.Contains(t, out, "\n    h @a.lua:9 count=4 cost=9us\n")

	// f is listed before h, and h before g.
	assert.Less(t, strings.Index(out, " f "), strings.Index(out, " h "))
	assert.Less(t, strings.Index(out, " h "), strings.Index(out, " g "))

	buf.Reset()
	require.NoError(t, WriteText(&buf, testReport(false)))
	assert.NotContains(t, buf.String(), "call path")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, testReport(true)))

	var doc struct {
		SessionID string  `json:"session_id"`
		Elapsed   float64 `json:"elapsed"`
		Records   []struct {
			Identity string  `json:"identity"`
			Name     string  `json:"name"`
			Flag     string  `json:"flag"`
			Count    uint64  `json:"count"`
			Cost     float64 `json:"cost"`
			Percent  float64 `json:"percent"`
		} `json:"records"`
		CallPath struct {
			Elapsed int64 `json:"elapsed"`
			Root    struct {
				Label    string `json:"label"`
				Count    uint64 `json:"count"`
				Cost     uint64 `json:"cost"`
				Children []struct {
					Label    string            `json:"label"`
					Children []json.RawMessage `json:"children"`
				} `json:"children"`
			} `json:"root"`
		} `json:"call_path"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "8d1b5c1e-1b7e-4a3c-9f3e-2a9c7f1b0d42", doc.SessionID)
	assert.InDelta(t, 27e-6, doc.Elapsed, 1e-12)
	require.Len(t, doc.Records, 3)
	assert.Equal(t, "0xf", doc.Records[0].Identity)
	assert.Equal(t, "L", doc.Records[0].Flag)
	assert.Equal(t, "C", doc.Records[2].Flag)
	assert.InDelta(t, 10e-6, doc.Records[0].Cost, 1e-12)
	assert.InDelta(t, 10.0/27.0, doc.Records[0].Percent, 1e-9)

	assert.Equal(t, int64(27), doc.CallPath.Elapsed)
	assert.Equal(t, "total total:0", doc.CallPath.Root.Label)
	assert.Equal(t, uint64(10), doc.CallPath.Root.Cost)
	require.Len(t, doc.CallPath.Root.Children, 1)
	assert.Equal(t, "f @a.lua:1", doc.CallPath.Root.Children[0].Label)
	assert.Len(t, doc.CallPath.Root.Children[0].Children, 2)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, testReport(false)))
	assert.NotContains(t, buf.String(), "call_path")
}

func TestWritePprof(t *testing.T) {
	tests := map[string]struct {
		callPath bool
		samples  int
		// maxDepth is the longest location stack of a sample.
		maxDepth int
	}{
		"flat":      {callPath: false, samples: 3, maxDepth: 1},
		"call path": {callPath: true, samples: 3, maxDepth: 2},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WritePprof(&buf, testReport(tc.callPath)))

			prof, err := profile.Parse(&buf)
			require.NoError(t, err)
			require.Len(t, prof.SampleType, 2)
			assert.Equal(t, "self", prof.SampleType[1].Type)
			assert.Len(t, prof.Sample, tc.samples)
			assert.Len(t, prof.Function, 3)
			assert.Equal(t, int64(27000), prof.DurationNanos)

			depth := 0
			var total int64
			for _, s := range prof.Sample {
				depth = max(depth, len(s.Location))
				total += s.Value[1]
			}
			assert.Equal(t, tc.maxDepth, depth)
			assert.Equal(t, int64(27000), total)
		})
	}
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	r := testReport(false)

	plain := &FileSink{Path: filepath.Join(dir, "report.json"), Format: FormatJSON}
	require.NoError(t, plain.Send(context.Background(), r))
	data, err := os.ReadFile(plain.Path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	compressed := &FileSink{Path: filepath.Join(dir, "report.json.zst"), Format: FormatJSON}
	require.NoError(t, compressed.Send(context.Background(), r))
	f, err := os.Open(compressed.Path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()
	unpacked, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, data, unpacked)

	var stdout bytes.Buffer
	console := &FileSink{Path: "-", Format: FormatText, Stdout: &stdout}
	require.NoError(t, console.Send(context.Background(), r))
	assert.Contains(t, stdout.String(), "session ")

	missing := &FileSink{Path: filepath.Join(dir, "no", "such", "dir"), Format: FormatText}
	require.Error(t, missing.Send(context.Background(), r))
}

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput,
	_ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink(t *testing.T) {
	tests := map[string]struct {
		cfg         S3Config
		key         string
		contentType string
	}{
		"json": {
			cfg:         S3Config{Bucket: "profiles", Prefix: "runs", Format: FormatJSON},
			key:         "runs/8d1b5c1e-1b7e-4a3c-9f3e-2a9c7f1b0d42.json",
			contentType: "application/json",
		},
		"compressed pprof": {
			cfg:         S3Config{Bucket: "profiles", Format: FormatPprof, Compress: true},
			key:         "8d1b5c1e-1b7e-4a3c-9f3e-2a9c7f1b0d42.pb.gz.zst",
			contentType: "application/zstd",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			putter := &fakePutter{}
			sink := NewS3SinkWithClient(putter, tc.cfg)
			require.NoError(t, sink.Send(context.Background(), testReport(true)))

			require.Len(t, putter.inputs, 1)
			in := putter.inputs[0]
			assert.Equal(t, "profiles", *in.Bucket)
			assert.Equal(t, tc.key, *in.Key)
			assert.Equal(t, tc.contentType, *in.ContentType)
			assert.NotEmpty(t, putter.bodies[0])
		})
	}

	failing := NewS3SinkWithClient(&fakePutter{err: errors.New("denied")},
		S3Config{Bucket: "profiles"})
	err := failing.Send(context.Background(), testReport(false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://profiles/")
}
