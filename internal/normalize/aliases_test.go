package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAliases(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Order Dt: OrderDate\n\"PO #\": PONumber\n"), 0o644))

	aliases, err := LoadAliases(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Order Dt": "OrderDate",
		"PO #":     "PONumber",
	}, aliases)
}

func TestLoadAliasesMissingFile(t *testing.T) {
	t.Parallel()
	aliases, err := LoadAliases(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, aliases)

	aliases, err = LoadAliases("")
	require.NoError(t, err)
	assert.Empty(t, aliases)
}

func TestLoadAliasesBadYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	_, err := LoadAliases(path)
	assert.Error(t, err)
}
