package register

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// On-disk names.
const (
	RegisterMetadataFile = "paneron.yaml"
	DataSetMetadataFile  = "register.yaml"
	DataSetExtensionFile = "panerondataset.yaml"
	DefaultExtension     = "yaml"
	DefaultRemoteName    = "origin"
	DefaultBranch        = "main"
)

// ChildPath returns the location of the entity called name under parent.
func ChildPath(parent, name string) string {
	return filepath.Join(parent, name)
}

// SplitPath splits a full path into its parent path and base name.
func SplitPath(full string) (parent, name string) {
	full = filepath.Clean(full)
	return filepath.Dir(full), filepath.Base(full)
}

// ValidateName checks that name can be used as a single path element.
func ValidateName(kind, name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: %s name cannot be empty", ErrInvalidIdentifier, kind)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %s name %q is reserved", ErrInvalidIdentifier, kind, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %s name %q contains a path separator", ErrInvalidIdentifier, kind, name)
	}
	return nil
}

// ValidateUUID checks that id is a UUID in canonical hyphenated form.
func ValidateUUID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != strings.ToLower(id) {
		return fmt.Errorf("%w: %q is not a UUID", ErrInvalidIdentifier, id)
	}
	return nil
}

// NewUUID returns a random (version 4) UUID string.
func NewUUID() string {
	return uuid.NewString()
}

// itemFileName is "<uuid>.<ext>".
func itemFileName(id, ext string) string {
	return id + "." + ext
}

// normalizeExtension strips a leading dot and defaults to DefaultExtension.
func normalizeExtension(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return DefaultExtension
	}
	return ext
}

// checkDir reports why path is not an existing directory, or nil.
func checkDir(op, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &PathError{Op: op, Path: path, Err: ErrPathNotFound}
	}
	if err != nil {
		return &PathError{Op: op, Path: path, Err: err}
	}
	if !info.IsDir() {
		return &PathError{Op: op, Path: path, Err: ErrNotADirectory}
	}
	return nil
}

// checkFile reports why path is not an existing regular file, or nil.
func checkFile(op, path string, missing error) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &PathError{Op: op, Path: path, Err: missing}
	}
	if err != nil {
		return &PathError{Op: op, Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return &PathError{Op: op, Path: path, Err: ErrNotAFile}
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// readDir lists dir, treating a missing directory as empty.
func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return entries, nil
}

// scanMarkedDirs returns the sorted names of directories under root that
// contain the file marker.
func scanMarkedDirs(root, marker string) ([]string, error) {
	entries, err := readDir(root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if info, err := os.Stat(filepath.Join(root, e.Name(), marker)); err == nil && info.Mode().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// scanDirsWithExt returns the sorted names of directories under root that
// contain at least one ".<ext>" file.
func scanDirsWithExt(root, ext string) ([]string, error) {
	entries, err := readDir(root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		files, err := scanFiles(filepath.Join(root, e.Name()), ext)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// scanFiles returns the sorted basenames, without extension, of regular
// files directly under dir ending in ".<ext>".
func scanFiles(dir, ext string) ([]string, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}
	suffix := "." + ext
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), suffix)
		if base == "" || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, base)
	}
	sort.Strings(names)
	return names, nil
}
