package register

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChildren_ScanOnceUntilRefresh(t *testing.T) {
	var c children[string]
	disk := []string{"a", "b"}
	scans := 0
	scan := func() ([]string, error) {
		scans++
		return append([]string{}, disk...), nil
	}

	names, err := c.names(false, scan)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)

	disk = []string{"b", "c"}
	names, err = c.names(false, scan)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)
	require.Equal(t, 1, scans)

	names, err = c.names(true, scan)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, names)
	require.Equal(t, 2, scans)
}

func TestChildren_RefreshPrunesMemoized(t *testing.T) {
	var c children[string]
	c.put("gone", "x")
	c.put("kept", "y")

	_, err := c.names(true, func() ([]string, error) { return []string{"kept"}, nil })
	require.NoError(t, err)

	_, ok := c.lookup("gone")
	require.False(t, ok)
	v, ok := c.lookup("kept")
	require.True(t, ok)
	require.Equal(t, "y", v)
}

func TestChildren_GetMemoizes(t *testing.T) {
	var c children[*int]
	loads := 0
	load := func(string) (*int, error) {
		loads++
		n := loads
		return &n, nil
	}

	first, err := c.get("k", false, load)
	require.NoError(t, err)
	second, err := c.get("k", false, load)
	require.NoError(t, err)
	require.Same(t, first, second)

	third, err := c.get("k", true, load)
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, 2, loads)
}

func TestChildren_LoadErrorNotMemoized(t *testing.T) {
	var c children[string]
	boom := errors.New("boom")

	_, err := c.get("k", false, func(string) (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	require.False(t, c.has("k"))
}

func TestChildren_RekeyAndRemove(t *testing.T) {
	var c children[string]
	c.put("b", "B")
	c.put("a", "A")
	require.Equal(t, []string{"A", "B"}, c.cached())

	c.rekey("a", "z")
	require.False(t, c.has("a"))
	require.True(t, c.has("z"))
	require.Equal(t, []string{"B", "A"}, c.cached())

	c.remove("b")
	require.Equal(t, []string{"A"}, c.cached())

	c.reset()
	require.Empty(t, c.cached())
	require.False(t, c.has("z"))
}

func TestChildren_FirstListingScansAfterPut(t *testing.T) {
	var c children[string]
	c.put("b", "B")
	c.put("spawned", "S")

	scans := 0
	scan := func() ([]string, error) {
		scans++
		return []string{"a", "b"}, nil
	}

	names, err := c.names(false, scan)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "spawned"}, names)

	_, err = c.names(false, scan)
	require.NoError(t, err)
	require.Equal(t, 1, scans)

	c.reset()
	_, err = c.names(false, scan)
	require.NoError(t, err)
	require.Equal(t, 2, scans)
}
