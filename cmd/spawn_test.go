package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/paneron/internal/register"
)

// localRegister creates a saved register without version control.
func localRegister(t *testing.T) *register.Register {
	t.Helper()
	ctx := context.Background()
	reg, err := register.Open(ctx, filepath.Join(t.TempDir(), "units"), register.WithoutVersionControl())
	require.NoError(t, err)
	_, err = reg.Save(ctx)
	require.NoError(t, err)
	return reg
}

func TestReadItemData(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "metre.yaml")
	require.NoError(t, os.WriteFile(dataPath, []byte("name: metre\n"), 0o644))

	tests := []struct {
		name    string
		stdin   string
		source  string
		want    any
		wantErr string
	}{
		{name: "no data", source: "", want: nil},
		{name: "file", source: dataPath, want: map[string]any{"name": "metre"}},
		{name: "stdin", stdin: "- a\n- b\n", source: "-", want: []any{"a", "b"}},
		{name: "missing file", source: filepath.Join(t.TempDir(), "nope.yaml"), wantErr: "reading item data"},
		{name: "malformed", stdin: "name: [unclosed\n", source: "-", wantErr: "parsing item data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readItemData(strings.NewReader(tt.stdin), tt.source)
			if tt.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSpawnItem(t *testing.T) {
	reg := localRegister(t)
	ds, err := reg.SpawnDataSet("si")
	require.NoError(t, err)
	ic, err := ds.SpawnItemClass("unit")
	require.NoError(t, err)

	it, err := spawnItem(ic, "", map[string]any{"symbol": "m"}, "valid")
	require.NoError(t, err)
	require.NoError(t, register.ValidateUUID(it.UUID()))
	require.Equal(t, register.ItemStatusValid, it.Status)
	require.Equal(t, map[string]any{"symbol": "m"}, it.Data)

	// Respawning keeps existing data when none is given.
	again, err := spawnItem(ic, it.UUID(), nil, "")
	require.NoError(t, err)
	require.Same(t, it, again)
	require.Equal(t, map[string]any{"symbol": "m"}, again.Data)
}

func TestSpawnItem_Rejects(t *testing.T) {
	reg := localRegister(t)
	ds, err := reg.SpawnDataSet("si")
	require.NoError(t, err)
	ic, err := ds.SpawnItemClass("unit")
	require.NoError(t, err)

	_, err = spawnItem(ic, "not-a-uuid", nil, "")
	require.ErrorIs(t, err, register.ErrInvalidIdentifier)

	_, err = spawnItem(ic, "", nil, "approved")
	require.ErrorIs(t, err, register.ErrInvalidIdentifier)
}
