// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package libpf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameFlagFromString(t *testing.T) {
	// Simple check whether all FrameFlag values can be converted to string and back.
	for _, ff := range []FrameFlag{UnknownFrame, InterpretedFrame, NativeFrame, MainFrame} {
		result, err := ParseFrameFlag(ff.String())
		require.NoError(t, err)
		require.Equal(t, ff, result)
	}

	_, err := ParseFrameFlag("x")
	require.Error(t, err)
}

func TestFrameFlagIsNative(t *testing.T) {
	require.True(t, NativeFrame.IsNative())
	require.False(t, InterpretedFrame.IsNative())
	require.False(t, MainFrame.IsNative())
}
