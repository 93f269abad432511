package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wagiedev/toolagent-go/internal/dispatch"
)

// Filesystem tools resolve relative paths against Root. An empty Root means
// the working directory.
type Filesystem struct {
	Root string
}

func (f Filesystem) resolve(path string) string {
	if path == "" {
		path = "."
	}

	if filepath.IsAbs(path) || f.Root == "" {
		return path
	}

	return filepath.Join(f.Root, path)
}

// Descriptors returns list_directory and read_file.
func (f Filesystem) Descriptors() []dispatch.Descriptor {
	return []dispatch.Descriptor{f.ListDirectory(), f.ReadFile()}
}

// ListDirectory lists the entries of a directory, directories first.
func (f Filesystem) ListDirectory() dispatch.Descriptor {
	return dispatch.Descriptor{
		Name: "list_directory",
		Description: "List the contents of a directory at the given path. " +
			"Use this when you want to see what files and folders are in a directory.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "The path to the directory to list. Defaults to the current directory ('.').",
				},
			},
		},
		Invoker: dispatch.LocalFunc(func(_ context.Context, input map[string]any) (string, error) {
			path, _ := input["path"].(string)
			if path == "" {
				path = "."
			}

			return listDirectory(f.resolve(path), path)
		}),
	}
}

func listDirectory(dir, display string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory not found: %s", display)
		}

		return "", fmt.Errorf("error listing directory %s: %w", display, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", display)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("error listing directory %s: %w", display, err)
	}

	var dirs, files []string

	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name()+"/")
		} else {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(dirs)
	sort.Strings(files)

	var b strings.Builder

	if len(dirs) > 0 {
		b.WriteString("Directories:\n")

		for _, d := range dirs {
			b.WriteString("  " + d + "\n")
		}
	}

	if len(files) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}

		b.WriteString("Files:\n")

		for _, name := range files {
			b.WriteString("  " + name + "\n")
		}
	}

	if b.Len() == 0 {
		return "(empty directory)", nil
	}

	return strings.TrimSuffix(b.String(), "\n"), nil
}

// ReadFile returns the contents of a text file.
func (f Filesystem) ReadFile() dispatch.Descriptor {
	return dispatch.Descriptor{
		Name: "read_file",
		Description: "Read the contents of a given relative file path. " +
			"Use this when you want to see what's inside a file. Do not use this with directory names.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "The relative path of a file in the working directory.",
				},
			},
			Required: []string{"path"},
		},
		Invoker: dispatch.LocalFunc(func(_ context.Context, input map[string]any) (string, error) {
			path, _ := input["path"].(string)

			data, err := os.ReadFile(f.resolve(path))
			if err != nil {
				if os.IsNotExist(err) {
					return "", fmt.Errorf("file not found: %s", path)
				}

				return "", fmt.Errorf("error reading file: %w", err)
			}

			return string(data), nil
		}),
	}
}
