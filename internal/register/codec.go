package register

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// readYAML decodes the file at path into v. A missing file is reported as
// missing with a *PathError.
func readYAML(path string, v any, missing error) error {
	data, err := os.ReadFile(path) //nolint:gosec // paths are derived from the register root
	if os.IsNotExist(err) {
		return &PathError{Op: "read", Path: path, Err: missing}
	}
	if err != nil {
		return &PathError{Op: "read", Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeYAML serializes v to path unless the file already holds the same
// bytes. It reports whether the file was written.
func writeYAML(path string, v any) (bool, error) {
	data, err := marshalYAML(v)
	if err != nil {
		return false, fmt.Errorf("marshaling %s: %w", path, err)
	}

	existing, err := os.ReadFile(path) //nolint:gosec // paths are derived from the register root
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}

	if err := writeFileAtomic(path, data); err != nil {
		return false, err
	}
	return true, nil
}

// writeFileAtomic writes to a temp file in the target directory, then renames.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("setting file mode: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// moveOrCreateDir moves oldPath to newPath when the entity was renamed and
// its old directory exists; otherwise it makes sure newPath exists.
// It reports whether a move happened.
func moveOrCreateDir(oldPath, newPath string) (bool, error) {
	if oldPath != "" && filepath.Clean(oldPath) != filepath.Clean(newPath) && dirExists(oldPath) {
		if _, err := os.Stat(newPath); err == nil {
			return false, &PathError{Op: "move", Path: newPath, Err: ErrNameConflict}
		}
		if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
			return false, &PathError{Op: "move", Path: newPath, Err: err}
		}
		if err := os.Rename(oldPath, newPath); err != nil {
			return false, &PathError{Op: "move", Path: oldPath, Err: err}
		}
		return true, nil
	}
	if err := os.MkdirAll(newPath, 0o755); err != nil {
		return false, &PathError{Op: "mkdir", Path: newPath, Err: err}
	}
	return false, nil
}
