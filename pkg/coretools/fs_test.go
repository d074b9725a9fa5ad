package coretools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemTools(t *testing.T) {
	root := t.TempDir()
	te := newRegistry(t, Options{WorkspaceRoot: root})

	out := invoke(t, te, "create_folder", map[string]interface{}{"path": root, "folder_name": "test123"})
	assert.Equal(t, "Folder created at: "+filepath.Join(root, "test123"), out)
	assert.DirExists(t, filepath.Join(root, "test123"))

	file := filepath.Join(root, "test123", "note.txt")
	invoke(t, te, "write_text_file", map[string]interface{}{"path": file, "content": "hello"})
	assert.Equal(t, "hello", invoke(t, te, "read_text_file", map[string]interface{}{"path": "test123/note.txt"}))

	assert.Equal(t, []string{"note.txt"}, invoke(t, te, "list_files", map[string]interface{}{"path": "test123"}))
	assert.Equal(t, "5 bytes (5 B)", invoke(t, te, "get_file_size", map[string]interface{}{"path": file}))
	assert.Equal(t, ".txt", invoke(t, te, "get_file_extension", map[string]interface{}{"path": file}))

	assert.Equal(t, true, invoke(t, te, "is_path_exists", map[string]interface{}{"path": file}))
	assert.Equal(t, true, invoke(t, te, "is_file", map[string]interface{}{"path": file}))
	assert.Equal(t, false, invoke(t, te, "is_directory", map[string]interface{}{"path": file}))
	assert.Equal(t, false, invoke(t, te, "is_path_exists", map[string]interface{}{"path": "nope"}))

	invoke(t, te, "rename_file", map[string]interface{}{"source_path": file, "new_name": "renamed.txt"})
	renamed := filepath.Join(root, "test123", "renamed.txt")
	assert.FileExists(t, renamed)

	invoke(t, te, "copy_file", map[string]interface{}{"source_path": "test123", "destination_path": "copy"})
	assert.FileExists(t, filepath.Join(root, "copy", "renamed.txt"))

	require.NoError(t, os.Mkdir(filepath.Join(root, "dest"), 0o755))
	invoke(t, te, "move_file", map[string]interface{}{"source_path": renamed, "destination_path": "dest"})
	assert.FileExists(t, filepath.Join(root, "dest", "renamed.txt"))
	assert.NoFileExists(t, renamed)

	invoke(t, te, "delete_folder", map[string]interface{}{"path": "copy"})
	assert.NoDirExists(t, filepath.Join(root, "copy"))
}

func TestFilesystemToolsConfined(t *testing.T) {
	root := t.TempDir()
	te := newRegistry(t, Options{WorkspaceRoot: root})

	_, err := te.Invoke(t.Context(), "write_text_file", map[string]interface{}{"path": "../escape.txt", "content": "x"})
	assert.ErrorContains(t, err, "outside workspace root")

	_, err = te.Invoke(t.Context(), "create_folder", map[string]interface{}{"path": root, "folder_name": "../../x"})
	assert.Error(t, err)

	_, err = te.Invoke(t.Context(), "rename_file", map[string]interface{}{"source_path": "a", "new_name": "../b"})
	assert.ErrorContains(t, err, "path separator")

	_, err = te.Invoke(t.Context(), "delete_folder", map[string]interface{}{"path": root})
	assert.ErrorContains(t, err, "workspace root")
}

func TestZipRoundTrip(t *testing.T) {
	root := t.TempDir()
	te := newRegistry(t, Options{WorkspaceRoot: root})

	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("b"), 0o644))

	invoke(t, te, "compress_files", map[string]interface{}{"source_path": "src", "output_path": "out/src.zip"})
	assert.FileExists(t, filepath.Join(root, "out", "src.zip"))

	invoke(t, te, "extract_zip", map[string]interface{}{"zip_path": "out/src.zip", "extract_path": "restored"})
	data, err := os.ReadFile(filepath.Join(root, "restored", "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))

	_, err = te.Invoke(t.Context(), "compress_files", map[string]interface{}{"source_path": "src", "output_path": "src/self.zip"})
	assert.ErrorContains(t, err, "outside the source folder")
}
