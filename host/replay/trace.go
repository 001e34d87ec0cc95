// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package replay // import "go.opentelemetry.io/hookprofiler/host/replay"

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/klauspost/compress/zstd"

	"go.opentelemetry.io/hookprofiler/host"
	"go.opentelemetry.io/hookprofiler/libpf"
	"go.opentelemetry.io/hookprofiler/times"
)

// EventKind is the kind of a recorded trace line.
type EventKind uint8

const (
	KindSpawn EventKind = iota
	KindCall
	KindTail
	KindReturn
	KindLine
	KindExit
)

var kindNames = [...]string{
	KindSpawn:  "spawn",
	KindCall:   "call",
	KindTail:   "tail",
	KindReturn: "return",
	KindLine:   "line",
	KindExit:   "exit",
}

func (k EventKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Event is one line of a recorded trace. Fields not used by Kind are zero.
type Event struct {
	Kind     EventKind
	Context  host.ContextID
	Time     times.KTime
	Identity libpf.Identity
	Flag     libpf.FrameFlag
	Name     string
	Source   string
	// Line is the defining line for call and tail events and the current
	// line for line events.
	Line int
}

// Decoder reads events from a trace.
type Decoder struct {
	sc     *bufio.Scanner
	lineNo int
	last   times.KTime
	closer func()
}

// NewDecoder returns a Decoder reading a plain text trace from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Decoder{sc: sc, closer: func() {}}
}

// Open opens the trace stored at path. Files with a .zst suffix are
// decompressed on the fly.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		d := NewDecoder(f)
		d.closer = func() { _ = f.Close() }
		return d, nil
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create zstd reader for %s: %v", path, err)
	}
	d := NewDecoder(zr)
	d.closer = func() {
		zr.Close()
		_ = f.Close()
	}
	return d, nil
}

// Close releases the underlying file, if any.
func (d *Decoder) Close() {
	d.closer()
}

// Next returns the next event. It returns io.EOF once the trace is exhausted.
func (d *Decoder) Next() (Event, error) {
	for d.sc.Scan() {
		d.lineNo++
		line := strings.TrimSpace(d.sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		var ev Event
		fields, err := splitFields(line)
		if err == nil {
			ev, err = d.parse(fields)
		}
		if err != nil {
			return Event{}, fmt.Errorf("line %d: %w", d.lineNo, err)
		}
		return ev, nil
	}
	if err := d.sc.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// ErrMalformed is wrapped by all parse errors.
var ErrMalformed = errors.New("malformed trace event")

func (d *Decoder) parse(fields []string) (Event, error) {
	var ev Event
	switch fields[0] {
	case "spawn", "exit":
		ev.Kind = KindSpawn
		if fields[0] == "exit" {
			ev.Kind = KindExit
		}
		if len(fields) != 2 {
			return ev, fmt.Errorf("%w: %s takes 1 argument", ErrMalformed, fields[0])
		}
	case "call", "tail":
		ev.Kind = KindCall
		if fields[0] == "tail" {
			ev.Kind = KindTail
		}
		if len(fields) != 8 {
			return ev, fmt.Errorf("%w: %s takes 7 arguments", ErrMalformed, fields[0])
		}
	case "return":
		ev.Kind = KindReturn
		if len(fields) != 3 {
			return ev, fmt.Errorf("%w: return takes 2 arguments", ErrMalformed)
		}
	case "line":
		ev.Kind = KindLine
		if len(fields) != 3 {
			return ev, fmt.Errorf("%w: line takes 2 arguments", ErrMalformed)
		}
	default:
		return ev, fmt.Errorf("%w: unknown event '%s'", ErrMalformed, fields[0])
	}

	ctx, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return ev, fmt.Errorf("%w: context: %v", ErrMalformed, err)
	}
	ev.Context = host.ContextID(ctx)

	switch ev.Kind {
	case KindLine:
		if ev.Line, err = strconv.Atoi(fields[2]); err != nil {
			return ev, fmt.Errorf("%w: line: %v", ErrMalformed, err)
		}
		return ev, nil
	case KindSpawn, KindExit:
		return ev, nil
	}

	ts, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return ev, fmt.Errorf("%w: timestamp: %v", ErrMalformed, err)
	}
	ev.Time = times.KTime(ts)
	if ev.Time < d.last {
		return ev, fmt.Errorf("%w: timestamp %d before %d", ErrMalformed, ev.Time, d.last)
	}
	d.last = ev.Time
	if ev.Kind == KindReturn {
		return ev, nil
	}

	id, err := strconv.ParseUint(strings.TrimPrefix(fields[3], "0x"), 16, 64)
	if err != nil {
		return ev, fmt.Errorf("%w: identity: %v", ErrMalformed, err)
	}
	ev.Identity = libpf.Identity(id)
	if ev.Flag, err = libpf.ParseFrameFlag(fields[4]); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev.Name, err = decodeField(fields[5]); err != nil {
		return ev, fmt.Errorf("%w: name: %v", ErrMalformed, err)
	}
	if ev.Source, err = decodeField(fields[6]); err != nil {
		return ev, fmt.Errorf("%w: source: %v", ErrMalformed, err)
	}
	if ev.Line, err = strconv.Atoi(fields[7]); err != nil {
		return ev, fmt.Errorf("%w: line: %v", ErrMalformed, err)
	}
	return ev, nil
}

// splitFields splits line at whitespace. A field starting with a double quote
// extends to its closing quote and may contain whitespace.
func splitFields(line string) ([]string, error) {
	var fields []string
	for {
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
		if line == "" {
			return fields, nil
		}
		end := strings.IndexFunc(line, unicode.IsSpace)
		if end < 0 {
			end = len(line)
		}
		if line[0] == '"' {
			quoted, err := strconv.QuotedPrefix(line)
			if err != nil {
				return nil, fmt.Errorf("%w: unterminated quote", ErrMalformed)
			}
			end = len(quoted)
			if end < len(line) && !unicode.IsSpace(rune(line[end])) {
				return nil, fmt.Errorf("%w: text after closing quote", ErrMalformed)
			}
		}
		fields = append(fields, line[:end])
		line = line[end:]
	}
}

// encodeField returns s as a single field: "-" for an empty string, quoted
// if it could otherwise not be read back.
func encodeField(s string) string {
	if s == "" {
		return "-"
	}
	if s == "-" || s[0] == '"' || strings.ContainsFunc(s, unicode.IsSpace) {
		return strconv.Quote(s)
	}
	return s
}

// decodeField reverses encodeField.
func decodeField(field string) (string, error) {
	switch {
	case field == "-":
		return "", nil
	case field[0] == '"':
		return strconv.Unquote(field)
	}
	return field, nil
}

// Encoder writes events in the format read by Decoder.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder returns an Encoder writing to w. Call Flush when done.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode appends ev to the trace.
func (e *Encoder) Encode(ev *Event) error {
	var err error
	switch ev.Kind {
	case KindSpawn, KindExit:
		_, err = fmt.Fprintf(e.w, "%s %d\n", ev.Kind, ev.Context)
	case KindCall, KindTail:
		_, err = fmt.Fprintf(e.w, "%s %d %d %s %s %s %s %d\n", ev.Kind, ev.Context,
			ev.Time, ev.Identity, ev.Flag, encodeField(ev.Name), encodeField(ev.Source),
			ev.Line)
	case KindReturn:
		_, err = fmt.Fprintf(e.w, "return %d %d\n", ev.Context, ev.Time)
	case KindLine:
		_, err = fmt.Fprintf(e.w, "line %d %d\n", ev.Context, ev.Line)
	default:
		return fmt.Errorf("can not encode event kind %d", ev.Kind)
	}
	return err
}

// Comment writes a comment line.
func (e *Encoder) Comment(text string) error {
	_, err := fmt.Fprintf(e.w, "# %s\n", text)
	return err
}

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}
