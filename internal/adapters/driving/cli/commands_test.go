package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "ragd", rootCmd.Use)
}

func TestRootCmd_TenantFlagDefault(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("tenant")
	require.NotNil(t, flag)
	assert.Equal(t, "t", flag.Shorthand)
	assert.Equal(t, "default", flag.DefValue)
}

func TestVersionCmd(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ragd version")
}

func TestIngestCmd_RequiresArgs(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "ingest")
	assert.Error(t, err)
}

func TestIngestCmd_IDCountMismatch(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	ingestIDs = []int64{1}
	defer func() { ingestIDs = nil }()

	err := runIngest(ingestCmd, []string{"a.txt", "b.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--id given 1 times for 2 files")
}

func TestIngestQueryDeleteLifecycle(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	python := writeDoc(t, "python.txt", "Guido van Rossum created Python in 1991.")
	golang := writeDoc(t, "go.txt", "Go was designed at Google by Rob Pike.")

	out, err := execute(t, "ingest", "--id", "1", "--id", "2", python, golang)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed default:1")
	assert.Contains(t, out, "Indexed default:2")
	assert.Contains(t, out, "Done: 2 document(s)")
	defer func() { ingestIDs = nil }()

	out, err = execute(t, "query", "who created Python")
	require.NoError(t, err)
	assert.Contains(t, out, "Results for")
	assert.Contains(t, out, "doc 1")
	assert.Contains(t, out, "Guido van Rossum")

	out, err = execute(t, "documents")
	require.NoError(t, err)
	assert.Contains(t, out, "python.txt")
	assert.Contains(t, out, "go.txt")

	out, err = execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Tenant:")
	assert.Contains(t, out, "Documents:        2")

	out, err = execute(t, "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted document 1")

	out, err = execute(t, "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "was not indexed")

	out, err = execute(t, "delete", "2", "99")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 document(s)")

	out, err = execute(t, "documents")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents indexed")
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmd_InvalidFilter(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "query", "text", "--filter", "nodelimiter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")
	queryFilters = nil
}

func TestQueryCmd_EmptyIndex(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	out, err := execute(t, "query", "anything at all")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found")
}

func TestDeleteCmd_InvalidID(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "delete", "not-a-number")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document id")
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"lang=en", "author=ada lovelace"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lang": "en", "author": "ada lovelace"}, filters)

	empty, err := parseFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = parseFilters([]string{"=value"})
	assert.Error(t, err)
}

func TestFileID_StableAndPositive(t *testing.T) {
	a := fileID("/tmp/one/notes.txt")
	b := fileID("/var/two/notes.txt")
	assert.Equal(t, a, b, "id depends on the base name only")
	assert.Positive(t, a)
	assert.NotEqual(t, a, fileID("other.txt"))
}
