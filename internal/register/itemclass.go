package register

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/zjrosen/paneron/internal/log"
)

// ItemClass is a directory of item files inside a data set.
type ItemClass struct {
	parent    *DataSet
	name      string
	savedName string
	extension string

	items children[*Item]
}

func newItemClass(name, ext string) *ItemClass {
	return &ItemClass{name: name, extension: normalizeExtension(ext)}
}

// NewItemClass creates an item class with no data set, for AddItemClasses.
func NewItemClass(name, ext string) (*ItemClass, error) {
	if err := ValidateName("item class", name); err != nil {
		return nil, err
	}
	return newItemClass(name, ext), nil
}

// OpenItemClass discovers the item class at path. If parent is nil the data
// set (and its register) is opened from the parent directory.
func OpenItemClass(ctx context.Context, path string, parent *DataSet, ext string, opts ...Option) (*ItemClass, error) {
	parentPath, name := SplitPath(path)
	if err := ValidateName("item class", name); err != nil {
		return nil, err
	}
	if parent == nil {
		ds, err := OpenDataSet(ctx, parentPath, nil, append(opts, WithExtension(ext))...)
		if err != nil {
			return nil, err
		}
		parent = ds
	} else if filepath.Clean(parent.Path()) != parentPath {
		return nil, &PathError{Op: "open item class", Path: path, Err: ErrParentMismatch}
	}

	ic, err := loadItemClass(parent, name, ext)
	if err != nil {
		return nil, err
	}
	parent.itemClasses.put(name, ic)
	return ic, nil
}

func loadItemClass(d *DataSet, name, ext string) (*ItemClass, error) {
	path := ChildPath(d.Path(), name)
	if err := checkDir("item class", path); err != nil {
		return nil, err
	}
	return &ItemClass{
		parent:    d,
		name:      name,
		savedName: name,
		extension: normalizeExtension(ext),
	}, nil
}

func (ic *ItemClass) Kind() string { return "Item class" }

func (ic *ItemClass) Name() string { return ic.name }

// Extension returns the item file extension, without the dot.
func (ic *ItemClass) Extension() string { return ic.extension }

// DataSet returns the owning data set, or nil when detached.
func (ic *ItemClass) DataSet() *DataSet { return ic.parent }

// Path returns <data set>/<name>, or "" when detached.
func (ic *ItemClass) Path() string {
	if ic.parent == nil || ic.parent.parent == nil {
		return ""
	}
	return ChildPath(ic.parent.Path(), ic.name)
}

func (ic *ItemClass) parentNode() Persistable {
	if ic.parent == nil {
		return nil
	}
	return ic.parent
}

func (ic *ItemClass) root() *Register {
	if ic.parent == nil {
		return nil
	}
	return ic.parent.root()
}

// Rename changes the name in memory; Save moves the directory.
func (ic *ItemClass) Rename(newName string) error {
	if err := ValidateName("item class", newName); err != nil {
		return err
	}
	if newName == ic.name {
		return nil
	}
	if ic.parent != nil {
		if _, err := ic.parent.itemClasses.names(false, ic.parent.scanItemClasses); err != nil {
			return err
		}
		if ic.parent.itemClasses.has(newName) {
			return fmt.Errorf("%w: item class %q", ErrNameConflict, newName)
		}
		ic.parent.itemClasses.rekey(ic.name, newName)
	}
	ic.name = newName
	return nil
}

// Validate checks that the item class directory exists.
func (ic *ItemClass) Validate() error {
	if ic.Path() == "" {
		return validationResult(ic.Kind(), []string{fmt.Sprintf("item class %q has no data set", ic.name)})
	}
	path := ic.Path()
	return structural(ic.Kind(), func() error { return checkDir("item class", path) })
}

func (ic *ItemClass) IsValid() bool { return ic.Validate() == nil }

func (ic *ItemClass) problems() []string {
	var msgs []string
	if ic.parent == nil {
		msgs = append(msgs, fmt.Sprintf("item class %q has no data set", ic.name))
	}
	for _, it := range ic.items.cached() {
		msgs = append(msgs, it.problems()...)
	}
	return msgs
}

// Save writes the item class directory and its cached items, then commits.
func (ic *ItemClass) Save(ctx context.Context) (*ItemClass, error) {
	if err := save(ctx, ic); err != nil {
		return nil, err
	}
	return ic, nil
}

func (ic *ItemClass) saveTree(ctx context.Context) error {
	path := ic.Path()
	var oldPath string
	if ic.savedName != "" {
		oldPath = ChildPath(ic.parent.Path(), ic.savedName)
	}
	moved, err := moveOrCreateDir(oldPath, path)
	if err != nil {
		return err
	}
	if moved {
		log.Info(log.CatRegister, "moved item class", "from", ic.savedName, "to", ic.name)
	}
	ic.savedName = ic.name

	for _, it := range ic.items.cached() {
		if err := it.saveTree(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ItemUUIDs lists the basenames of item files in the directory.
func (ic *ItemClass) ItemUUIDs(refresh bool) ([]string, error) {
	return ic.items.names(refresh, ic.scanItems)
}

// Items returns every item keyed by UUID.
func (ic *ItemClass) Items(refresh bool) (map[string]*Item, error) {
	return ic.items.all(refresh, ic.scanItems, ic.loadItem)
}

// Item returns the item with the given UUID, loading it on first access.
func (ic *ItemClass) Item(id string, refresh bool) (*Item, error) {
	if err := ValidateUUID(id); err != nil {
		return nil, err
	}
	return ic.items.get(id, refresh, ic.loadItem)
}

func (ic *ItemClass) scanItems() ([]string, error) {
	path := ic.Path()
	if path == "" {
		return nil, nil
	}
	return scanFiles(path, ic.extension)
}

func (ic *ItemClass) loadItem(id string) (*Item, error) {
	return loadItem(ic, id)
}

// SpawnItem creates an in-memory item. An empty id generates a UUID; a
// known id returns the existing item.
func (ic *ItemClass) SpawnItem(id string, opts ...SpawnOption[*Item]) (*Item, error) {
	if id == "" {
		id = NewUUID()
	} else if err := ValidateUUID(id); err != nil {
		return nil, err
	}
	if _, err := ic.items.names(false, ic.scanItems); err != nil {
		return nil, err
	}
	if it, ok := ic.items.lookup(id); ok {
		return it, nil
	}
	if ic.items.has(id) {
		return ic.items.get(id, false, ic.loadItem)
	}
	it := newItem(id)
	it.parent = ic
	for _, opt := range opts {
		opt(it)
	}
	ic.items.put(id, it)
	return it, nil
}

// AddItems transfers ownership of items to ic.
func (ic *ItemClass) AddItems(items ...*Item) error {
	for _, it := range items {
		if existing, ok := ic.items.lookup(it.id); ok && existing != it {
			return fmt.Errorf("%w: item %s", ErrNameConflict, it.id)
		}
	}
	for _, it := range items {
		if it.parent != nil && it.parent != ic {
			it.parent.items.remove(it.id)
		}
		it.parent = ic
		ic.items.put(it.id, it)
	}
	return nil
}
