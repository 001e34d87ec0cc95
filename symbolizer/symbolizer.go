// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package symbolizer turns the function information delivered with call
// events into the name, source and line shown in reports.
package symbolizer // import "go.opentelemetry.io/hookprofiler/symbolizer"

import (
	"fmt"

	lru "github.com/elastic/go-freelru"
	"github.com/ianlancetaylor/demangle"
	"github.com/zeebo/xxh3"

	"go.opentelemetry.io/hookprofiler/host"
	"go.opentelemetry.io/hookprofiler/libpf"
)

// UnknownName is reported for functions the runtime could not name.
const UnknownName = "?"

// DefaultCacheSize is the number of interpreted-function symbols kept.
const DefaultCacheSize = 4096

// Symbol is the display information of a function.
type Symbol struct {
	Name   string
	Source string
	Line   int
	Flag   libpf.FrameFlag
}

// Function describes a callee as seen in its call event.
type Function struct {
	Identity libpf.Identity
	Name     string
	Source   string
	Line     int
	Flag     libpf.FrameFlag
}

// Statistics holds cache counters since the previous call to
// GetAndResetStatistics.
type Statistics struct {
	Hit  uint64
	Miss uint64
}

// Symbolizer resolves symbols. It is not safe for concurrent use.
type Symbolizer struct {
	walker   host.StackWalker
	demangle bool

	// symbols caches interpreted functions, whose symbol only depends on
	// the identity.
	symbols *lru.LRU[libpf.Identity, Symbol]
	// sources interns source names, which the host hands out as fresh
	// strings on every event.
	sources *lru.LRU[string, string]

	hit  uint64
	miss uint64
}

// xxh3 turned out to be the fastest hash function for strings in the FreeLRU benchmarks.
func hashString(s string) uint32 {
	return uint32(xxh3.HashString(s))
}

// New returns a Symbolizer. walker may be nil, in which case native functions
// keep their own, usually uninformative, location.
func New(walker host.StackWalker, cacheSize uint32, demangleNames bool) (*Symbolizer, error) {
	if cacheSize == 0 {
		cacheSize = DefaultCacheSize
	}
	symbols, err := lru.New[libpf.Identity, Symbol](cacheSize, libpf.Identity.Hash32)
	if err != nil {
		return nil, fmt.Errorf("failed to create symbol cache: %v", err)
	}
	sources, err := lru.New[string, string](cacheSize, hashString)
	if err != nil {
		return nil, fmt.Errorf("failed to create source cache: %v", err)
	}
	return &Symbolizer{
		walker:   walker,
		demangle: demangleNames,
		symbols:  symbols,
		sources:  sources,
	}, nil
}

// Resolve returns the symbol of fn, which is active at stack level 0 of ctx.
//
// A native function has no location of its own. It is attributed to the
// current line of the nearest non-native caller instead, so the result
// depends on the call path and is not cached.
func (s *Symbolizer) Resolve(ctx host.ContextID, fn *Function) Symbol {
	if !fn.Flag.IsNative() {
		if sym, ok := s.symbols.Get(fn.Identity); ok {
			s.hit++
			return sym
		}
		s.miss++
	}

	sym := Symbol{
		Name:   fn.Name,
		Source: fn.Source,
		Line:   fn.Line,
		Flag:   fn.Flag,
	}
	if sym.Name == "" {
		sym.Name = UnknownName
	}

	if fn.Flag.IsNative() {
		if s.demangle {
			sym.Name = demangle.Filter(sym.Name)
		}
		if s.walker != nil {
			for level := 1; ; level++ {
				fi, ok := s.walker.StackFrame(ctx, level)
				if !ok {
					break
				}
				if !fi.Flag.IsNative() {
					sym.Source = fi.Source
					sym.Line = fi.CurrentLine
					break
				}
			}
		}
	}
	if sym.Source == "" {
		sym.Source = UnknownName
	}
	sym.Source = s.intern(sym.Source)

	if !fn.Flag.IsNative() {
		s.symbols.Add(fn.Identity, sym)
	}
	return sym
}

func (s *Symbolizer) intern(str string) string {
	if v, ok := s.sources.Get(str); ok {
		return v
	}
	s.sources.Add(str, str)
	return str
}

// Purge drops all cached symbols. Identities may be reused by the runtime
// once a session ends, so caches do not survive sessions.
func (s *Symbolizer) Purge() {
	s.symbols.Purge()
	s.sources.Purge()
}

// GetAndResetStatistics returns the cache statistics and resets them to 0.
func (s *Symbolizer) GetAndResetStatistics() Statistics {
	st := Statistics{Hit: s.hit, Miss: s.miss}
	s.hit, s.miss = 0, 0
	return st
}
