package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Commands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "sweep"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("addr"))
}

func TestRootCmd_MigrateAndSweep(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
logger:
  level: error
database:
  driver: sqlite
  dsn: `+filepath.Join(dir, "tokenauth.db")+`
`), 0o644))
	t.Setenv("TOKENAUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--config", cfgPath})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.FileExists(t, filepath.Join(dir, "tokenauth.db"))

	var out bytes.Buffer
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"sweep", "--config", cfgPath, "--redis", mr.Addr()})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "removed 0 stale session entries")
}

func TestRootCmd_MissingSecret(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt")
}
