package register

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Item is a single record file, <uuid>.<ext>, inside an item class.
type Item struct {
	parent *ItemClass
	id     string

	Data         any
	Status       ItemStatus
	DateAccepted time.Time
}

func newItem(id string) *Item {
	return &Item{
		id:           id,
		Status:       ItemStatusSubmitted,
		DateAccepted: NewJSTime(time.Now()).Time,
	}
}

// NewItem creates an item with no item class, for AddItems. An empty id
// generates a UUID.
func NewItem(id string) (*Item, error) {
	if id == "" {
		return newItem(NewUUID()), nil
	}
	if err := ValidateUUID(id); err != nil {
		return nil, err
	}
	return newItem(id), nil
}

// OpenItem discovers the item file at path. The extension is taken from the
// file name. If parent is nil the item class is opened from the directory.
func OpenItem(ctx context.Context, path string, parent *ItemClass, opts ...Option) (*Item, error) {
	parentPath, file := SplitPath(path)
	ext := strings.TrimPrefix(filepath.Ext(file), ".")
	id := strings.TrimSuffix(file, filepath.Ext(file))
	if id == "" || ext == "" {
		return nil, fmt.Errorf("%w: item file %q must be named <uuid>.<ext>", ErrInvalidIdentifier, file)
	}
	if err := ValidateUUID(id); err != nil {
		return nil, err
	}

	if parent == nil {
		ic, err := OpenItemClass(ctx, parentPath, nil, ext, opts...)
		if err != nil {
			return nil, err
		}
		parent = ic
	} else if filepath.Clean(parent.Path()) != parentPath {
		return nil, &PathError{Op: "open item", Path: path, Err: ErrParentMismatch}
	}

	it, err := loadItem(parent, id)
	if err != nil {
		return nil, err
	}
	parent.items.put(id, it)
	return it, nil
}

func loadItem(ic *ItemClass, id string) (*Item, error) {
	path := ChildPath(ic.Path(), itemFileName(id, ic.extension))
	if err := checkFile("item", path, ErrPathNotFound); err != nil {
		return nil, err
	}
	var rec itemRecord
	if err := readYAML(path, &rec, ErrPathNotFound); err != nil {
		return nil, err
	}

	it := &Item{
		parent:       ic,
		id:           id,
		Data:         rec.Data,
		Status:       rec.Status,
		DateAccepted: rec.DateAccepted.Time,
	}
	if it.DateAccepted.IsZero() {
		it.DateAccepted = NewJSTime(time.Now()).Time
	}
	return it, nil
}

func (it *Item) Kind() string { return "Item" }

// UUID returns the item's identifier.
func (it *Item) UUID() string { return it.id }

// ItemClass returns the owning item class, or nil when detached.
func (it *Item) ItemClass() *ItemClass { return it.parent }

// Path returns <item class>/<uuid>.<ext>, or "" when detached.
func (it *Item) Path() string {
	if it.parent == nil || it.parent.Path() == "" {
		return ""
	}
	return ChildPath(it.parent.Path(), itemFileName(it.id, it.parent.extension))
}

func (it *Item) parentNode() Persistable {
	if it.parent == nil {
		return nil
	}
	return it.parent
}

func (it *Item) root() *Register {
	if it.parent == nil {
		return nil
	}
	return it.parent.root()
}

// Validate checks that the item file exists.
func (it *Item) Validate() error {
	path := it.Path()
	if path == "" {
		return validationResult(it.Kind(), []string{fmt.Sprintf("item %s has no item class", it.id)})
	}
	return structural(it.Kind(), func() error { return checkFile("item", path, ErrPathNotFound) })
}

func (it *Item) IsValid() bool { return it.Validate() == nil }

func (it *Item) problems() []string {
	var msgs []string
	if it.parent == nil {
		msgs = append(msgs, fmt.Sprintf("item %s has no item class", it.id))
	}
	if err := ValidateUUID(it.id); err != nil {
		msgs = append(msgs, err.Error())
	}
	if !it.Status.IsValid() {
		msgs = append(msgs, fmt.Sprintf("item %s has unknown status %q", it.id, it.Status))
	}
	return msgs
}

// Save writes the item file, then commits.
func (it *Item) Save(ctx context.Context) (*Item, error) {
	if err := save(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *Item) saveTree(_ context.Context) error {
	_, err := writeYAML(it.Path(), itemRecord{
		ID:           it.id,
		Data:         it.Data,
		Status:       it.Status,
		DateAccepted: NewJSTime(it.DateAccepted),
	})
	return err
}
