package register

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/zjrosen/paneron/internal/log"
)

// DataSet is a directory under a register holding register.yaml and
// panerondataset.yaml plus one directory per item class.
type DataSet struct {
	parent    *Register
	name      string
	savedName string

	Metadata  DataSetMetadata
	Extension ExtensionMetadata

	itemClasses children[*ItemClass]
}

func newDataSet(name string) *DataSet {
	return &DataSet{
		name:      name,
		Metadata:  defaultDataSetMetadata(name),
		Extension: ExtensionMetadata{Title: name},
	}
}

// NewDataSet creates a data set with no register, for AddDataSets.
func NewDataSet(name string) (*DataSet, error) {
	if err := ValidateName("data set", name); err != nil {
		return nil, err
	}
	return newDataSet(name), nil
}

// OpenDataSet discovers the data set at path. If parent is nil the register
// is opened from the parent directory with opts; otherwise parent must live
// at that directory.
func OpenDataSet(ctx context.Context, path string, parent *Register, opts ...Option) (*DataSet, error) {
	parentPath, name := SplitPath(path)
	if err := ValidateName("data set", name); err != nil {
		return nil, err
	}
	if parent == nil {
		reg, err := Open(ctx, parentPath, opts...)
		if err != nil {
			return nil, err
		}
		parent = reg
	} else if filepath.Clean(parent.Path()) != parentPath {
		return nil, &PathError{Op: "open data set", Path: path, Err: ErrParentMismatch}
	}

	ds, err := loadDataSet(parent, name)
	if err != nil {
		return nil, err
	}
	parent.dataSets.put(name, ds)
	return ds, nil
}

func loadDataSet(r *Register, name string) (*DataSet, error) {
	path := ChildPath(r.Path(), name)
	if err := checkDir("data set", path); err != nil {
		return nil, err
	}

	ds := &DataSet{parent: r, name: name, savedName: name}
	if err := readYAML(filepath.Join(path, DataSetMetadataFile), &ds.Metadata, ErrMissingMetadataFile); err != nil {
		return nil, err
	}
	ds.Metadata.applyDefaults()

	err := readYAML(filepath.Join(path, DataSetExtensionFile), &ds.Extension, ErrMissingMetadataFile)
	if err != nil && !errors.Is(err, ErrMissingMetadataFile) {
		return nil, err
	}
	ds.Extension.Title = name
	return ds, nil
}

func (d *DataSet) Kind() string { return "Data set" }

func (d *DataSet) Name() string { return d.name }

// Register returns the owning register, or nil for a detached data set.
func (d *DataSet) Register() *Register { return d.parent }

// Path returns <register>/<name>, or "" when detached.
func (d *DataSet) Path() string {
	if d.parent == nil {
		return ""
	}
	return ChildPath(d.parent.Path(), d.name)
}

func (d *DataSet) parentNode() Persistable {
	if d.parent == nil {
		return nil
	}
	return d.parent
}

func (d *DataSet) root() *Register { return d.parent }

func (d *DataSet) extension() string {
	if d.parent == nil {
		return DefaultExtension
	}
	return d.parent.extension
}

// Rename changes the name in memory; Save moves the directory.
func (d *DataSet) Rename(newName string) error {
	if err := ValidateName("data set", newName); err != nil {
		return err
	}
	if newName == d.name {
		return nil
	}
	if d.parent != nil {
		if _, err := d.parent.dataSets.names(false, d.parent.scanDataSets); err != nil {
			return err
		}
		if d.parent.dataSets.has(newName) {
			return fmt.Errorf("%w: data set %q", ErrNameConflict, newName)
		}
		d.parent.dataSets.rekey(d.name, newName)
		d.parent.Metadata.rekey(d.name, newName)
	}
	d.name = newName
	d.Extension.Title = newName
	return nil
}

// Validate checks the directory and register.yaml.
func (d *DataSet) Validate() error {
	if d.parent == nil {
		return validationResult(d.Kind(), []string{fmt.Sprintf("data set %q has no register", d.name)})
	}
	path := d.Path()
	return structural(d.Kind(),
		func() error { return checkDir("data set", path) },
		func() error {
			return checkFile("data set metadata", filepath.Join(path, DataSetMetadataFile), ErrMissingMetadataFile)
		},
	)
}

func (d *DataSet) IsValid() bool { return d.Validate() == nil }

func (d *DataSet) problems() []string {
	var msgs []string
	if d.parent == nil {
		msgs = append(msgs, fmt.Sprintf("data set %q has no register", d.name))
	}
	msgs = append(msgs, d.Metadata.problems()...)
	for _, ic := range d.itemClasses.cached() {
		msgs = append(msgs, ic.problems()...)
	}
	return msgs
}

// Save writes the data set and its cached item classes, then commits.
func (d *DataSet) Save(ctx context.Context) (*DataSet, error) {
	if err := save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DataSet) saveTree(ctx context.Context) error {
	path := d.Path()
	var oldPath string
	if d.savedName != "" {
		oldPath = ChildPath(d.parent.Path(), d.savedName)
	}
	moved, err := moveOrCreateDir(oldPath, path)
	if err != nil {
		return err
	}
	if moved {
		log.Info(log.CatRegister, "moved data set", "from", d.savedName, "to", d.name)
	}
	d.savedName = d.name

	if d.Metadata.Name == "" {
		d.Metadata.Name = d.name
	}
	if _, err := writeYAML(filepath.Join(path, DataSetMetadataFile), d.Metadata); err != nil {
		return err
	}
	if _, err := writeYAML(filepath.Join(path, DataSetExtensionFile), d.Extension); err != nil {
		return err
	}

	for _, ic := range d.itemClasses.cached() {
		if err := ic.saveTree(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ItemClassNames lists item classes: directories holding at least one item file.
func (d *DataSet) ItemClassNames(refresh bool) ([]string, error) {
	return d.itemClasses.names(refresh, d.scanItemClasses)
}

// ItemClasses returns every item class keyed by name.
func (d *DataSet) ItemClasses(refresh bool) (map[string]*ItemClass, error) {
	return d.itemClasses.all(refresh, d.scanItemClasses, d.loadItemClass)
}

// ItemClass returns the named item class, loading it on first access.
func (d *DataSet) ItemClass(name string, refresh bool) (*ItemClass, error) {
	if err := ValidateName("item class", name); err != nil {
		return nil, err
	}
	return d.itemClasses.get(name, refresh, d.loadItemClass)
}

func (d *DataSet) scanItemClasses() ([]string, error) {
	if d.parent == nil {
		return nil, nil
	}
	return scanDirsWithExt(d.Path(), d.extension())
}

func (d *DataSet) loadItemClass(name string) (*ItemClass, error) {
	return loadItemClass(d, name, d.extension())
}

// SpawnItemClass creates an in-memory item class. Spawning a known name
// returns the existing item class.
func (d *DataSet) SpawnItemClass(name string) (*ItemClass, error) {
	if err := ValidateName("item class", name); err != nil {
		return nil, err
	}
	if _, err := d.itemClasses.names(false, d.scanItemClasses); err != nil {
		return nil, err
	}
	if ic, ok := d.itemClasses.lookup(name); ok {
		return ic, nil
	}
	if d.itemClasses.has(name) {
		return d.itemClasses.get(name, false, d.loadItemClass)
	}
	ic := newItemClass(name, d.extension())
	ic.parent = d
	d.itemClasses.put(name, ic)
	return ic, nil
}

// AddItemClasses transfers ownership of item classes to d.
func (d *DataSet) AddItemClasses(classes ...*ItemClass) error {
	for _, ic := range classes {
		if existing, ok := d.itemClasses.lookup(ic.name); ok && existing != ic {
			return fmt.Errorf("%w: item class %q", ErrNameConflict, ic.name)
		}
	}
	for _, ic := range classes {
		if ic.parent != nil && ic.parent != d {
			ic.parent.itemClasses.remove(ic.name)
			ic.savedName = ""
		}
		ic.parent = d
		ic.items.rescan()
		d.itemClasses.put(ic.name, ic)
	}
	return nil
}

// ItemUUIDs aggregates the item UUIDs of every item class.
func (d *DataSet) ItemUUIDs(refresh bool) ([]string, error) {
	classes, err := d.ItemClasses(refresh)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range sortedKeys(classes) {
		uuids, err := classes[name].ItemUUIDs(refresh)
		if err != nil {
			return nil, err
		}
		out = append(out, uuids...)
	}
	return out, nil
}
