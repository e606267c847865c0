package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	// test binaries carry build info, so version reporting must not fail
	require.NoError(t, Version())
}
