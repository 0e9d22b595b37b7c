// Package testutil provides helpers for generating synthetic document
// photographs and temp resources used across the test suites.
package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateTempDir creates a temporary directory for a test and returns its path.
func CreateTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "snapscan-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}
