// Package register models a Register → DataSet → ItemClass → Item tree
// stored as YAML files, optionally in a git repository.
//
// Children are discovered lazily from disk and memoized; names are applied
// to disk only on Save, which moves renamed directories. The Register owns
// the repository handle; descendants reach it through their parent.
package register

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/paneron/internal/clonecache"
	"github.com/zjrosen/paneron/internal/git"
	"github.com/zjrosen/paneron/internal/log"
	"github.com/zjrosen/paneron/internal/tracing"
)

// Register is the root of the tree.
type Register struct {
	path      string
	savedPath string

	remoteURL    string
	remoteName   string
	branch       string
	update       bool
	extension    string
	strictRemote bool

	Metadata RegisterMetadata
	dataSets children[*DataSet]

	vcs        bool
	client     git.Client
	repo       git.Repository
	pending    pendingAction
	freshClone bool
	clonedFrom string
}

// Open constructs a register rooted at path, acquiring its repository as
// described by the lifecycle decision table.
func Open(ctx context.Context, path string, opts ...Option) (*Register, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return open(ctx, path, o)
}

// FromRemote opens the clone of url held in the clone cache, cloning it on a
// miss. On a hit the existing clone's remote must match url.
func FromRemote(ctx context.Context, url string, opts ...Option) (*Register, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: remote URL cannot be empty", ErrInvalidIdentifier)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.remoteURL = url

	cache := o.cache
	if cache == nil {
		var err error
		if cache, err = clonecache.Default(); err != nil {
			return nil, err
		}
	}
	if err := cache.Ensure(); err != nil {
		return nil, err
	}

	path, hit := cache.Lookup(url)
	o.strictRemote = hit
	log.Debug(log.CatCache, "clone cache lookup", "url", url, "path", path, "hit", hit)
	return open(ctx, path, o)
}

func open(ctx context.Context, path string, o options) (r *Register, err error) {
	if path == "" {
		return nil, fmt.Errorf("%w: register path cannot be empty", ErrInvalidIdentifier)
	}
	ctx, span := tracer().Start(ctx, tracing.SpanOpen, trace.WithAttributes(
		attribute.String(tracing.AttrEntityPath, path),
		attribute.Bool(tracing.AttrHasRemote, o.remoteURL != ""),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	path = filepath.Clean(path)
	if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
		return nil, &PathError{Op: "open", Path: path, Err: ErrNotADirectory}
	}

	r = &Register{
		path:         path,
		remoteURL:    o.remoteURL,
		remoteName:   o.remoteName,
		branch:       o.branch,
		update:       o.update,
		extension:    o.extension,
		strictRemote: o.strictRemote,
		vcs:          o.vcs,
		client:       o.client,
	}
	if r.vcs && r.client == nil {
		r.client = git.NewClient(git.Config{})
	}

	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String(tracing.AttrPendingAction, r.pending.String()))

	if dirExists(path) {
		r.savedPath = path
	}
	if err := r.loadMetadata(); err != nil {
		return nil, err
	}
	return r, nil
}

// loadMetadata reads paneron.yaml, falling back to a template.
func (r *Register) loadMetadata() error {
	var meta RegisterMetadata
	err := readYAML(filepath.Join(r.path, RegisterMetadataFile), &meta, ErrMissingMetadataFile)
	if errors.Is(err, ErrMissingMetadataFile) {
		r.Metadata = defaultRegisterMetadata(filepath.Base(r.path))
		return nil
	}
	if err != nil {
		return err
	}
	if meta.DataSets == nil {
		meta.DataSets = map[string]bool{}
	}
	r.Metadata = meta
	return nil
}

func (r *Register) Kind() string { return "Register" }

// Path returns the register root.
func (r *Register) Path() string { return r.path }

// RemoteURL returns the configured remote URL, or "" for local-only.
func (r *Register) RemoteURL() string { return r.remoteURL }

func (r *Register) RemoteName() string { return r.remoteName }

func (r *Register) Branch() string { return r.branch }

// Extension returns the item file extension used for discovery.
func (r *Register) Extension() string { return r.extension }

// Repository returns the open repository, or nil when none is open yet.
func (r *Register) Repository() git.Repository { return r.repo }

func (r *Register) parentNode() Persistable { return nil }

func (r *Register) root() *Register { return r }

// SetPath changes where the register lives. The directory moves on Save.
func (r *Register) SetPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: register path cannot be empty", ErrInvalidIdentifier)
	}
	r.path = filepath.Clean(path)
	return nil
}

// Validate checks the root directory and paneron.yaml.
func (r *Register) Validate() error {
	return structural(r.Kind(),
		func() error { return checkDir("register", r.path) },
		func() error {
			return checkFile("register metadata", filepath.Join(r.path, RegisterMetadataFile), ErrMissingMetadataFile)
		},
	)
}

func (r *Register) IsValid() bool { return r.Validate() == nil }

func (r *Register) problems() []string {
	var msgs []string
	for _, ds := range r.dataSets.cached() {
		if ds.parent != r {
			msgs = append(msgs, fmt.Sprintf("data set %q is owned by another register", ds.name))
			continue
		}
		msgs = append(msgs, ds.problems()...)
	}
	return msgs
}

// Save writes the register and every cached descendant, then commits.
func (r *Register) Save(ctx context.Context) (*Register, error) {
	if err := save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Register) saveTree(ctx context.Context) error {
	if err := r.move(); err != nil {
		return err
	}
	if err := r.resolvePending(ctx); err != nil {
		return err
	}
	if err := os.MkdirAll(r.path, 0o755); err != nil {
		return &PathError{Op: "mkdir", Path: r.path, Err: err}
	}
	r.savedPath = r.path

	if _, err := writeYAML(filepath.Join(r.path, RegisterMetadataFile), r.Metadata); err != nil {
		return err
	}
	for _, ds := range r.dataSets.cached() {
		if err := ds.saveTree(ctx); err != nil {
			return err
		}
	}
	r.freshClone = false
	return nil
}

// move relocates the register directory after SetPath and reopens the
// repository at its new location.
func (r *Register) move() error {
	if r.savedPath == "" || r.savedPath == r.path {
		return nil
	}
	moved, err := moveOrCreateDir(r.savedPath, r.path)
	if err != nil {
		return err
	}
	if !moved {
		return nil
	}
	log.Info(log.CatRegister, "moved register", "from", r.savedPath, "to", r.path)
	r.savedPath = r.path
	if r.repo != nil {
		repo, err := r.client.Open(r.path)
		if err != nil {
			return r.gitErr("reopen", err)
		}
		r.repo = repo
	}
	return nil
}

// DataSetNames lists data sets: directories containing register.yaml.
func (r *Register) DataSetNames(refresh bool) ([]string, error) {
	return r.dataSets.names(refresh, r.scanDataSets)
}

// DataSets returns every data set keyed by name.
func (r *Register) DataSets(refresh bool) (map[string]*DataSet, error) {
	return r.dataSets.all(refresh, r.scanDataSets, r.loadDataSet)
}

// DataSet returns the named data set, loading it from disk on first access.
func (r *Register) DataSet(name string, refresh bool) (*DataSet, error) {
	if err := ValidateName("data set", name); err != nil {
		return nil, err
	}
	return r.dataSets.get(name, refresh, r.loadDataSet)
}

func (r *Register) scanDataSets() ([]string, error) {
	return scanMarkedDirs(r.path, DataSetMetadataFile)
}

func (r *Register) loadDataSet(name string) (*DataSet, error) {
	return loadDataSet(r, name)
}

// SpawnDataSet creates an in-memory data set and marks it available.
// Spawning a known name returns the existing data set.
func (r *Register) SpawnDataSet(name string, opts ...SpawnOption[*DataSet]) (*DataSet, error) {
	if err := ValidateName("data set", name); err != nil {
		return nil, err
	}
	if _, err := r.dataSets.names(false, r.scanDataSets); err != nil {
		return nil, err
	}
	if ds, ok := r.dataSets.lookup(name); ok {
		return ds, nil
	}
	if r.dataSets.has(name) {
		return r.dataSets.get(name, false, r.loadDataSet)
	}
	ds := newDataSet(name)
	ds.parent = r
	for _, opt := range opts {
		opt(ds)
	}
	r.dataSets.put(name, ds)
	r.Metadata.markAvailable(name)
	return ds, nil
}

// AddDataSets transfers ownership of data sets to r.
func (r *Register) AddDataSets(dataSets ...*DataSet) error {
	for _, ds := range dataSets {
		if existing, ok := r.dataSets.lookup(ds.name); ok && existing != ds {
			return fmt.Errorf("%w: data set %q", ErrNameConflict, ds.name)
		}
	}
	for _, ds := range dataSets {
		if ds.parent != nil && ds.parent != r {
			ds.parent.dataSets.remove(ds.name)
			ds.savedName = ""
		}
		ds.parent = r
		ds.itemClasses.rescan()
		r.dataSets.put(ds.name, ds)
		r.Metadata.markAvailable(ds.name)
	}
	return nil
}

// Item finds an item by UUID anywhere in the register.
func (r *Register) Item(id string) (*Item, error) {
	if err := ValidateUUID(id); err != nil {
		return nil, err
	}
	dataSets, err := r.DataSets(false)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(dataSets) {
		classes, err := dataSets[name].ItemClasses(false)
		if err != nil {
			return nil, err
		}
		for _, className := range sortedKeys(classes) {
			ic := classes[className]
			uuids, err := ic.ItemUUIDs(false)
			if err != nil {
				return nil, err
			}
			for _, u := range uuids {
				if u == id {
					return ic.Item(id, false)
				}
			}
		}
	}
	return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
}
