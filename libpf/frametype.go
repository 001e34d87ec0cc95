// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libpf // import "go.opentelemetry.io/hookprofiler/libpf"

import "fmt"

// FrameFlag classifies the function a frame belongs to, using the single
// character the host runtime reports for it.
type FrameFlag byte

const (
	// UnknownFrame indicates a frame whose kind was not reported.
	// If this appears, it's likely a bug in the host binding.
	UnknownFrame FrameFlag = 0
	// InterpretedFrame identifies functions defined in the scripting language.
	InterpretedFrame FrameFlag = 'L'
	// NativeFrame identifies native functions registered with the runtime.
	NativeFrame FrameFlag = 'C'
	// MainFrame identifies the main chunk of a loaded script.
	MainFrame FrameFlag = 'm'
)

// ParseFrameFlag converts the textual representation produced by String back
// into a FrameFlag.
func ParseFrameFlag(s string) (FrameFlag, error) {
	switch s {
	case "L", "Lua":
		return InterpretedFrame, nil
	case "C":
		return NativeFrame, nil
	case "m", "main":
		return MainFrame, nil
	case "?":
		return UnknownFrame, nil
	}
	return UnknownFrame, fmt.Errorf("unknown frame flag '%s'", s)
}

// IsNative reports whether the frame belongs to a native function.
func (f FrameFlag) IsNative() bool {
	return f == NativeFrame
}

// String implements the Stringer interface.
func (f FrameFlag) String() string {
	if f == UnknownFrame {
		return "?"
	}
	return string(rune(f))
}
