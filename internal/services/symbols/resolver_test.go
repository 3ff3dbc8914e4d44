package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveKnownSymbol(t *testing.T) {
	r := NewResolver(nil)
	code, mapped := r.Resolve("BIAT")
	require.True(t, mapped)
	require.Equal(t, "TN0001800457", code)

	// Case and whitespace are forgiven.
	code, mapped = r.Resolve("  biat ")
	require.True(t, mapped)
	require.Equal(t, "TN0001800457", code)
}

func TestResolveCodePassesThrough(t *testing.T) {
	r := NewResolver(nil)
	code, mapped := r.Resolve("TN0001800457")
	require.True(t, mapped)
	require.Equal(t, "TN0001800457", code)
}

func TestResolveUnknownSymbolIdentityFallback(t *testing.T) {
	// An unmapped ticker is not an error: the raw symbol becomes the code
	// and downstream lookups simply find no history for it.
	r := NewResolver(nil)
	code, mapped := r.Resolve("NOPE")
	require.False(t, mapped)
	require.Equal(t, "NOPE", code)

	// Fallback still normalizes case and whitespace.
	code, mapped = r.Resolve("  nope ")
	require.False(t, mapped)
	require.Equal(t, "NOPE", code)
}

func TestResolverOverrides(t *testing.T) {
	r := NewResolver(map[string]string{"NEWCO": "TN0009999999"})
	code, mapped := r.Resolve("NEWCO")
	require.True(t, mapped)
	require.Equal(t, "TN0009999999", code)

	require.Equal(t, "NEWCO", r.Symbol("TN0009999999"))
}

func TestSymbolFallsBackToCode(t *testing.T) {
	r := NewResolver(nil)
	require.Equal(t, "TN0000000000", r.Symbol("TN0000000000"))
	require.Equal(t, "SFBT", r.Symbol("TN0007570015"))
}
