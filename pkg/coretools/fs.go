package coretools

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/harun/toolplan/pkg/toolexecutor"
)

const maxReadBytes = 1 << 20

func fsTools(opts Options) []toolexecutor.ToolDefinition {
	return []toolexecutor.ToolDefinition{
		{
			Name:        "create_folder",
			Description: "Create a folder, optionally appending a folder name to the base path.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "path", Description: "Base path", Required: true},
				{Name: "folder_name", Description: "Folder name to append (optional)"},
			},
			Returns: "the created folder path",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				base, err := requiredString(params, "path")
				if err != nil {
					return nil, err
				}
				if name := strings.TrimSpace(stringParam(params, "folder_name")); name != "" {
					base = filepath.Join(base, name)
				}
				target, err := resolvePath(opts.WorkspaceRoot, base)
				if err != nil {
					return nil, err
				}
				if err := os.MkdirAll(target, 0o755); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Folder created at: %s", target), nil
			},
		},
		{
			Name:        "write_text_file",
			Description: "Write text to a file, replacing its content.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "path", Description: "Full file path", Required: true},
				{Name: "content", Description: "Text to write", Required: true},
			},
			Returns: "confirmation with the written path",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				target, err := pathParam(opts, params, "path")
				if err != nil {
					return nil, err
				}
				content := stringParam(params, "content")
				if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
					return nil, err
				}
				if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Written to %s", target), nil
			},
		},
		{
			Name:        "read_text_file",
			Description: "Read a text file.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "path", Description: "Full file path", Required: true},
			},
			Returns: "file content",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				target, err := pathParam(opts, params, "path")
				if err != nil {
					return nil, err
				}
				data, truncated, err := readFileWithLimit(target, maxReadBytes)
				if err != nil {
					return nil, err
				}
				if truncated {
					return string(data) + "\n...[truncated]", nil
				}
				return string(data), nil
			},
		},
		{
			Name:        "list_files",
			Description: "List the entries of a folder.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "path", Description: "Folder path", Required: true},
			},
			Returns: "entry names",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				target, err := pathParam(opts, params, "path")
				if err != nil {
					return nil, err
				}
				entries, err := os.ReadDir(target)
				if err != nil {
					return nil, err
				}
				names := make([]string, 0, len(entries))
				for _, e := range entries {
					names = append(names, e.Name())
				}
				sort.Strings(names)
				return names, nil
			},
		},
		{
			Name:        "compress_files",
			Description: "Compress a folder into a .zip file.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "source_path", Description: "Folder to compress", Required: true},
				{Name: "output_path", Description: "Output zip path (with .zip)", Required: true},
			},
			Returns: "the zip path",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				src, err := pathParam(opts, params, "source_path")
				if err != nil {
					return nil, err
				}
				out, err := pathParam(opts, params, "output_path")
				if err != nil {
					return nil, err
				}
				if err := zipDir(ctx, src, out); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Zip created at: %s", out), nil
			},
		},
		{
			Name:        "extract_zip",
			Description: "Extract a .zip file into a folder.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "zip_path", Description: "Zip file path", Required: true},
				{Name: "extract_path", Description: "Destination folder", Required: true},
			},
			Returns: "the destination folder",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				src, err := pathParam(opts, params, "zip_path")
				if err != nil {
					return nil, err
				}
				dest, err := pathParam(opts, params, "extract_path")
				if err != nil {
					return nil, err
				}
				if err := unzip(ctx, src, dest); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Extracted to: %s", dest), nil
			},
		},
		{
			Name:        "delete_folder",
			Description: "Delete a folder and everything in it.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "path", Description: "Folder path", Required: true},
			},
			Returns: "confirmation",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				target, err := pathParam(opts, params, "path")
				if err != nil {
					return nil, err
				}
				if opts.WorkspaceRoot != "" && target == opts.WorkspaceRoot {
					return nil, fmt.Errorf("refusing to delete the workspace root")
				}
				info, err := os.Stat(target)
				if err != nil {
					return nil, err
				}
				if !info.IsDir() {
					return nil, fmt.Errorf("%s is not a folder", target)
				}
				if err := os.RemoveAll(target); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Deleted folder: %s", target), nil
			},
		},
		{
			Name:        "rename_file",
			Description: "Rename a file or folder in place.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "source_path", Description: "Current path", Required: true},
				{Name: "new_name", Description: "New name (no directory)", Required: true},
			},
			Returns: "the new path",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				src, err := pathParam(opts, params, "source_path")
				if err != nil {
					return nil, err
				}
				name, err := requiredString(params, "new_name")
				if err != nil {
					return nil, err
				}
				if strings.ContainsAny(name, `/\`) {
					return nil, fmt.Errorf("new_name must not contain a path separator")
				}
				dest, err := resolvePath(opts.WorkspaceRoot, filepath.Join(filepath.Dir(src), name))
				if err != nil {
					return nil, err
				}
				if err := os.Rename(src, dest); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Renamed to: %s", dest), nil
			},
		},
		{
			Name:        "copy_file",
			Description: "Copy a file or folder to a destination.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "source_path", Description: "Source path", Required: true},
				{Name: "destination_path", Description: "Destination path", Required: true},
			},
			Returns: "the destination path",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				src, err := pathParam(opts, params, "source_path")
				if err != nil {
					return nil, err
				}
				dest, err := pathParam(opts, params, "destination_path")
				if err != nil {
					return nil, err
				}
				if err := copyPath(ctx, src, dest); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Copied to: %s", dest), nil
			},
		},
		{
			Name:        "move_file",
			Description: "Move a file or folder.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "source_path", Description: "Source path", Required: true},
				{Name: "destination_path", Description: "Destination path", Required: true},
			},
			Returns: "the destination path",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				src, err := pathParam(opts, params, "source_path")
				if err != nil {
					return nil, err
				}
				dest, err := pathParam(opts, params, "destination_path")
				if err != nil {
					return nil, err
				}
				// moving into an existing folder keeps the source name
				if info, err := os.Stat(dest); err == nil && info.IsDir() {
					dest = filepath.Join(dest, filepath.Base(src))
				}
				if err := os.Rename(src, dest); err != nil {
					return nil, err
				}
				return fmt.Sprintf("Moved to: %s", dest), nil
			},
		},
		{
			Name:        "get_file_size",
			Description: "Get a file's size.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "path", Description: "File path", Required: true},
			},
			Returns: "size in bytes with a readable form",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				target, err := pathParam(opts, params, "path")
				if err != nil {
					return nil, err
				}
				info, err := os.Stat(target)
				if err != nil {
					return nil, err
				}
				size := uint64(info.Size())
				return fmt.Sprintf("%d bytes (%s)", size, humanize.Bytes(size)), nil
			},
		},
		{
			Name:        "get_file_extension",
			Description: "Get a file's extension, including the dot.",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "path", Description: "File path", Required: true},
			},
			Returns: "extension such as .txt",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				p, err := requiredString(params, "path")
				if err != nil {
					return nil, err
				}
				return filepath.Ext(p), nil
			},
		},
		statTool(opts, "is_path_exists", "Check whether a path exists.", func(info fs.FileInfo) bool { return true }),
		statTool(opts, "is_directory", "Check whether a path is a folder.", func(info fs.FileInfo) bool { return info.IsDir() }),
		statTool(opts, "is_file", "Check whether a path is a regular file.", func(info fs.FileInfo) bool { return info.Mode().IsRegular() }),
	}
}

// statTool reports match(info) for an existing path and false otherwise.
func statTool(opts Options, name, description string, match func(fs.FileInfo) bool) toolexecutor.ToolDefinition {
	return toolexecutor.ToolDefinition{
		Name:        name,
		Description: description,
		Parameters: []toolexecutor.ToolParameter{
			{Name: "path", Description: "Path to check", Required: true},
		},
		Returns: "true or false",
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			target, err := pathParam(opts, params, "path")
			if err != nil {
				return nil, err
			}
			info, err := os.Stat(target)
			if err != nil {
				if os.IsNotExist(err) {
					return false, nil
				}
				return nil, err
			}
			return match(info), nil
		},
	}
}

func zipDir(ctx context.Context, src, out string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a folder", src)
	}
	if rel, err := filepath.Rel(src, out); err == nil && !strings.HasPrefix(rel, "..") {
		return fmt.Errorf("output zip must be outside the source folder")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(f)

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: filepath.ToSlash(rel), Method: zip.Deflate})
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})

	if err := zw.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if err := f.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if walkErr != nil {
		_ = os.Remove(out)
	}
	return walkErr
}

func unzip(ctx context.Context, src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(zf.Name))
		if rel, err := filepath.Rel(dest, target); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("zip entry %q escapes the destination", zf.Name)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(zf, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(zf *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyPath(ctx context.Context, src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dest, info.Mode().Perm())
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, fi.Mode().Perm())
	})
}

func copyFile(src, dest string, perm os.FileMode) error {
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, filepath.Base(src))
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
