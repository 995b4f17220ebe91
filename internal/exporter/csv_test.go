package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcli/internal/config"
)

// setupTestPaths anchors all path resolution in a per-test temp directory.
func setupTestPaths(t *testing.T) *config.Paths {
	t.Helper()
	return config.NewPaths(config.PathsConfig{
		BaseDir:   t.TempDir(),
		DataDir:   "data",
		OutputDir: "output",
		LogsDir:   "logs",
	})
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := strings.TrimPrefix(string(data), "\uFEFF")
	rows, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteSimpleCSV(t *testing.T) {
	paths := setupTestPaths(t)
	writer := NewCSVWriter(paths)

	headers := []string{"col_a", "col_b"}
	records := [][]string{
		{"1", "x"},
		{"2", "y"},
	}

	err := writer.WriteSimpleCSV("simple.csv", headers, records)
	require.NoError(t, err)

	fullPath := filepath.Join(paths.OutputDir, "simple.csv")
	rows := readCSVFile(t, fullPath)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"2", "y"}, rows[2])

	// WriteSimpleCSV always prefixes the UTF-8 BOM.
	raw, err := os.ReadFile(fullPath)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, raw[:3])
}

func TestWriteCSVAppend(t *testing.T) {
	paths := setupTestPaths(t)
	writer := NewCSVWriter(paths)

	err := writer.WriteCSV("append.csv", WriteOptions{
		Headers: []string{"n"},
		Records: [][]string{{"1"}},
	})
	require.NoError(t, err)

	err = writer.WriteCSV("append.csv", WriteOptions{
		Records: [][]string{{"2"}, {"3"}},
		Append:  true,
	})
	require.NoError(t, err)

	rows := readCSVFile(t, filepath.Join(paths.OutputDir, "append.csv"))
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"3"}, rows[3])
}

func TestWriteCSVCreatesDirectories(t *testing.T) {
	paths := setupTestPaths(t)
	writer := NewCSVWriter(paths)

	err := writer.WriteCSV(filepath.Join("nested", "deep", "out.csv"), WriteOptions{
		Headers: []string{"a"},
		Records: [][]string{{"1"}},
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(paths.OutputDir, "nested", "deep", "out.csv"))
}

func TestResolvePathAbsolute(t *testing.T) {
	paths := setupTestPaths(t)
	writer := NewCSVWriter(paths)

	abs := filepath.Join(t.TempDir(), "elsewhere.csv")
	err := writer.WriteCSV(abs, WriteOptions{
		Headers: []string{"a"},
		Records: [][]string{{"1"}},
	})
	require.NoError(t, err)
	assert.FileExists(t, abs)
}

func TestStreamWriter(t *testing.T) {
	paths := setupTestPaths(t)
	writer := NewCSVWriter(paths)

	stream, err := writer.CreateStreamWriter("stream.csv", []string{"a", "b"}, false)
	require.NoError(t, err)

	require.NoError(t, stream.WriteRecord([]string{"1", "x"}))
	require.NoError(t, stream.WriteRecord([]string{"2", "y"}))
	require.NoError(t, stream.Close())

	fullPath := filepath.Join(paths.OutputDir, "stream.csv")
	rows := readCSVFile(t, fullPath)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b"}, rows[0])

	// No BOM was requested.
	raw, err := os.ReadFile(fullPath)
	require.NoError(t, err)
	assert.NotEqual(t, []byte{0xEF, 0xBB, 0xBF}, raw[:3])
}

func TestStreamWriterQuotesEmbeddedCommas(t *testing.T) {
	paths := setupTestPaths(t)
	writer := NewCSVWriter(paths)

	stream, err := writer.CreateStreamWriter("quoted.csv", []string{"hospital"}, false)
	require.NoError(t, err)
	require.NoError(t, stream.WriteRecord([]string{"Smith, Sons and Miller"}))
	require.NoError(t, stream.Close())

	rows := readCSVFile(t, filepath.Join(paths.OutputDir, "quoted.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "Smith, Sons and Miller", rows[1][0])
}
