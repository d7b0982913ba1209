package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/config"
	"docrag/internal/domain"
)

const catsText = "Cats are small mammals. Cats sleep most of the day. Dogs are loyal companions."

func resetFlags() {
	cfgFile = ""
	rootDir = ""
	trainQuiet = false
	queryText = ""
	queryTopK = 0
	queryMinScore = 0
	queryJSON = false
	queryContext = false
	statusJSON = false
	queryCmd.Flags().Lookup("min-score").Changed = false
}

// run executes the root command in dir and returns its stdout.
func run(t *testing.T, dir string, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--dir", dir}, args...))

	err := rootCmd.Execute()
	return stdout.String(), err
}

func clearEnv(t *testing.T) {
	for _, key := range []string{"DOCRAG_STORE_BACKEND", "DOCRAG_STORE_PATH", "DOCRAG_DIMENSION", "DOCRAG_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestCLI_Workflow(t *testing.T) {
	for _, backend := range []string{config.BackendBolt, config.BackendSQLite, config.BackendFile} {
		t.Run(backend, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DOCRAG_STORE_BACKEND", backend)
			dir := t.TempDir()

			out, err := run(t, dir, strings.NewReader(catsText), "train", "notes", "--quiet")
			require.NoError(t, err)
			assert.Contains(t, out, "Documents:      1")

			out, err = run(t, dir, nil, "query", "notes", "-q", "Tell me about cats", "--json")
			require.NoError(t, err)
			var results []domain.ScoredDocument
			require.NoError(t, json.Unmarshal([]byte(out), &results))
			require.Len(t, results, 1)
			assert.Equal(t, catsText, results[0].Text)
			assert.InDelta(t, 0.2939, results[0].Score, 1e-3)

			out, err = run(t, dir, nil, "query", "notes", "-q", "Tell me about cats", "--context")
			require.NoError(t, err)
			assert.Equal(t, "[Source 1]:\n"+catsText+"\n", out)

			out, err = run(t, dir, nil, "status", "notes")
			require.NoError(t, err)
			assert.Equal(t, "notes: 1 documents\n", out)

			snapshot := filepath.Join(t.TempDir(), "notes.json")
			_, err = run(t, dir, nil, "export", "notes", snapshot)
			require.NoError(t, err)

			out, err = run(t, dir, nil, "import", "copy", snapshot)
			require.NoError(t, err)
			assert.Equal(t, "Imported 1 documents into copy\n", out)

			out, err = run(t, dir, nil, "list")
			require.NoError(t, err)
			assert.Equal(t, "copy\nnotes\n", out)

			_, err = run(t, dir, nil, "drop", "notes")
			require.NoError(t, err)

			out, err = run(t, dir, nil, "status", "notes")
			require.NoError(t, err)
			assert.Equal(t, "notes: not trained\n", out)

			out, err = run(t, dir, nil, "status", "copy", "--json")
			require.NoError(t, err)
			var status domain.Status
			require.NoError(t, json.Unmarshal([]byte(out), &status))
			assert.Equal(t, domain.Status{Exists: true, DocumentCount: 1}, status)
		})
	}
}

func TestCLI_TrainFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	corpus := filepath.Join(dir, "corpus")
	require.NoError(t, os.MkdirAll(corpus, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(corpus, "cats.txt"), []byte(catsText), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(corpus, "rockets.md"),
		[]byte("Rocket engines burn liquid oxygen and kerosene to reach orbit."), 0o644))

	out, err := run(t, dir, nil, "train", "docs", corpus, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Files read:     2")

	out, err = run(t, dir, nil, "query", "docs", "-q", "rocket orbit", "-k", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "=== FILE: rockets.md ===")
}

func TestCLI_TrainTooShort(t *testing.T) {
	clearEnv(t)

	_, err := run(t, t.TempDir(), strings.NewReader("Too short."), "train", "notes", "--quiet")
	assert.ErrorIs(t, err, domain.ErrTextTooShort)
}

func TestCLI_QueryUntrained(t *testing.T) {
	clearEnv(t)

	_, err := run(t, t.TempDir(), nil, "query", "missing", "-q", "cats")
	assert.ErrorIs(t, err, domain.ErrCollectionNotTrained)
}

func TestCLI_ImportDimensionMismatch(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	snapshot := filepath.Join(t.TempDir(), "notes.json")

	t.Setenv("DOCRAG_DIMENSION", "64")
	_, err := run(t, dir, strings.NewReader(catsText), "train", "notes", "--quiet")
	require.NoError(t, err)
	_, err = run(t, dir, nil, "export", "notes", snapshot)
	require.NoError(t, err)

	t.Setenv("DOCRAG_DIMENSION", "128")
	_, err = run(t, t.TempDir(), nil, "import", "notes", snapshot)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCLI_DimensionChangeKeepsCollections(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := run(t, dir, strings.NewReader(catsText), "train", "notes", "--quiet")
	require.NoError(t, err)

	t.Setenv("DOCRAG_DIMENSION", "64")
	_, err = run(t, dir, nil, "query", "notes", "-q", "cats")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	t.Setenv("DOCRAG_DIMENSION", "")
	out, err := run(t, dir, nil, "status", "notes")
	require.NoError(t, err)
	assert.Equal(t, "notes: 1 documents\n", out)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")

	err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, `{"format":`)
		require.NoError(t, err)
		return errors.New("encode failed")
	})
	assert.EqualError(t, err, "encode failed")
	assert.NoFileExists(t, path)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
	err = writeFileAtomic(path, func(w io.Writer) error {
		return errors.New("encode failed")
	})
	assert.Error(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	err = writeFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	})
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCLI_InvalidConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCRAG_STORE_BACKEND", "postgres")

	_, err := run(t, t.TempDir(), nil, "list")
	assert.Error(t, err)
}
