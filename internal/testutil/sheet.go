package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chemflow/internal/sheet"
)

// CompileSheet compiles CUE source into a sheet, failing the test on error.
func CompileSheet(t testing.TB, src string) *sheet.Sheet {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	s, err := sheet.CompileSheet(v)
	require.NoError(t, err)
	return s
}

// WriteSheet writes src to dir/name and returns the file path.
func WriteSheet(t testing.TB, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}
