package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// WriteFile writes content to name inside dir, creating parent directories,
// and returns the file path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// WriteTree writes files (relative name to content) into a fresh temporary
// directory and returns it.
func WriteTree(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		WriteFile(t, dir, name, content)
	}
	return dir
}

// FilterMapKeys recursively creates a new map from source containing only
// keys present in reference. Lists of equal length are filtered element by
// element.
func FilterMapKeys(source, reference map[string]any) map[string]any {
	result := make(map[string]any)
	for key, refVal := range reference {
		if srcVal, ok := source[key]; ok {
			result[key] = filterValue(srcVal, refVal)
		}
	}
	return result
}

func filterValue(src, ref any) any {
	switch refVal := ref.(type) {
	case map[string]any:
		if srcMap, ok := src.(map[string]any); ok {
			return FilterMapKeys(srcMap, refVal)
		}
	case []any:
		if srcList, ok := src.([]any); ok && len(srcList) == len(refVal) {
			out := make([]any, len(srcList))
			for i := range srcList {
				out[i] = filterValue(srcList[i], refVal[i])
			}
			return out
		}
	}
	// Type mismatch, will be caught by cmp.Diff
	return src
}

// JSONSubsetDiff decodes both documents and diffs got against want, looking
// only at the keys want mentions. It returns "" when they agree.
func JSONSubsetDiff(t testing.TB, want string, got []byte) string {
	t.Helper()
	var wantVal, gotVal any
	require.NoError(t, json.Unmarshal([]byte(want), &wantVal), "want is not JSON")
	require.NoError(t, json.Unmarshal(got, &gotVal), "got is not JSON")
	return cmp.Diff(wantVal, filterValue(gotVal, wantVal), cmpopts.EquateEmpty())
}
