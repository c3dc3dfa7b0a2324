package archive_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/CJFEdu/AutoGrader/internal/archive"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "submission.zip")
	writeZip(t, zipPath, map[string]string{
		"MyList.java":     "public class MyList {}",
		"src/Helper.java": "public class Helper {}",
	})

	dest := filepath.Join(dir, "out")
	require.NoError(t, archive.Extract(zipPath, dest))

	data, err := os.ReadFile(filepath.Join(dest, "MyList.java"))
	require.NoError(t, err)
	require.Equal(t, "public class MyList {}", string(data))

	data, err = os.ReadFile(filepath.Join(dest, "src", "Helper.java"))
	require.NoError(t, err)
	require.Equal(t, "public class Helper {}", string(data))
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{
		"../evil.txt": "nope",
	})

	err := archive.Extract(zipPath, filepath.Join(dir, "out"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "escapes")
}

func TestExtractMissingArchive(t *testing.T) {
	err := archive.Extract(filepath.Join(t.TempDir(), "nope.zip"), t.TempDir())
	require.Error(t, err)
}

func TestWriteDirRoundTrip(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "results")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "smith.txt"), []byte("Test 1: PASSED\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "extra.txt"), []byte("x"), 0644))

	zipPath := filepath.Join(root, "results.zip")
	require.NoError(t, archive.WriteDir(zipPath, src))

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	// Entry names carry the archived directory itself.
	require.True(t, names["results/smith.txt"])
	require.True(t, names["results/nested/extra.txt"])

	dest := filepath.Join(root, "extracted")
	require.NoError(t, archive.Extract(zipPath, dest))
	data, err := os.ReadFile(filepath.Join(dest, "results", "smith.txt"))
	require.NoError(t, err)
	require.Equal(t, "Test 1: PASSED\n", string(data))
}
