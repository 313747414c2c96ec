package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain builds the larder binary once before running tests.
func TestMain(m *testing.M) {
	root, err := FindProjectRoot()
	if err != nil {
		buildErr = err
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "larder-test-*")
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	larderBin = filepath.Join(tmpDir, "larder")

	cmd := exec.Command("go", "build", "-o", larderBin, "./cmd/larder")
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(out)}
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func TestVersion(t *testing.T) {
	env := NewTestEnv(t)
	r := env.MustRun("version")
	assert.Contains(t, r.Stdout, "larder v")
}

func TestExitCodes(t *testing.T) {
	env := NewTestEnv(t)
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"success", []string{"find", "pantry"}, 0},
		{"missing document", []string{"get", "pantry", "nope"}, 1},
		{"unknown flag", []string{"get", "pantry", "x", "--bogus"}, 1},
		{"malformed document", []string{"store", "pantry", "{"}, 1},
		{"unknown backend", []string{"--backend", "redis", "find", "pantry"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := env.Run("", tt.args...)
			assert.Equal(t, tt.want, r.ExitCode, "stderr: %s", r.Stderr)
			if tt.want != 0 {
				assert.True(t, strings.HasPrefix(r.Stderr, "Error:"), "stderr: %s", r.Stderr)
			}
		})
	}
}

func TestCollectionFileRoundTrip(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun("store", "pantry", `{"_id": "oats", "qty": 2}`)
	env.MustRun("store", "pantry", `{"_id": 7, "qty": 5}`)

	path := filepath.Join(env.DataDir, "pantry.jsonl")
	records := ReadJSONLFile[Record](t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "string", records[0].ID.K)
	assert.Equal(t, "int64", records[1].ID.K)
	assert.Equal(t, "object", records[0].Body.K)
	assert.Equal(t, "record", records[0].Body.T)
	assert.NotEmpty(t, records[0].CreatedAt)

	// The database is rebuilt from the collection files.
	require.NoError(t, os.Remove(filepath.Join(env.DataDir, "larder.db")))
	r := env.MustRun("get", "pantry", "7")
	assert.JSONEq(t, `{"_id": 7, "qty": 5}`, r.Stdout)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r = env.MustRun("find", "pantry")
	found := ParseJSON[[]map[string]any](t, r.Stdout)
	assert.Len(t, found, 2)
}

func TestDeleteLastDocumentRemovesFile(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun("store", "pantry", `{"_id": "oats"}`)
	env.MustRun("delete", "pantry", "oats")

	_, err := os.Stat(filepath.Join(env.DataDir, "pantry.jsonl"))
	assert.True(t, os.IsNotExist(err))
}

func TestSyncOnCloseFromConfig(t *testing.T) {
	env := NewTestEnv(t, "sqlite:", "  sync_strategy: on_close")
	env.MustRun("store", "pantry", `{"_id": "oats"}`)

	records := ReadJSONLFile[Record](t, filepath.Join(env.DataDir, "pantry.jsonl"))
	assert.Len(t, records, 1)
}

func TestDataDirFlagOverridesConfig(t *testing.T) {
	env := NewTestEnv(t)
	other := t.TempDir()
	env.MustRun("--data-dir", other, "store", "pantry", `{"_id": "oats"}`)

	_, err := os.Stat(filepath.Join(other, "pantry.jsonl"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(env.DataDir, "pantry.jsonl"))
	assert.True(t, os.IsNotExist(err))
}

func TestStoreAndConvertFromStdin(t *testing.T) {
	env := NewTestEnv(t)

	r := env.Run(`{"name": "rye"}`, "store", "pantry", "-")
	require.Equal(t, 0, r.ExitCode, r.Stderr)
	id := ParseJSON[string](t, r.Stdout)
	assert.NotEmpty(t, id)

	r = env.Run("name: rye\nqty: 3\n", "convert", "-", "--format", "yaml", "--to", "record")
	require.Equal(t, 0, r.ExitCode, r.Stderr)
	assert.JSONEq(t, `{"converted": {"name": "rye", "qty": 3}, "remainder": {}}`, r.Stdout)
}
