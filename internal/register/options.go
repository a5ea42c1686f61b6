package register

import (
	"github.com/zjrosen/paneron/internal/clonecache"
	"github.com/zjrosen/paneron/internal/git"
)

type options struct {
	remoteURL    string
	remoteName   string
	branch       string
	update       bool
	extension    string
	vcs          bool
	client       git.Client
	cache        *clonecache.Cache
	strictRemote bool
}

func defaultOptions() options {
	return options{
		remoteName: DefaultRemoteName,
		branch:     DefaultBranch,
		extension:  DefaultExtension,
		vcs:        true,
	}
}

// Option configures Open and FromRemote.
type Option func(*options)

// WithRemote sets the remote URL. An empty URL means local-only.
func WithRemote(url string) Option {
	return func(o *options) {
		o.remoteURL = url
	}
}

// WithRemoteName overrides the remote name (default "origin").
func WithRemoteName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.remoteName = name
		}
	}
}

// WithBranch overrides the branch (default "main").
func WithBranch(branch string) Option {
	return func(o *options) {
		if branch != "" {
			o.branch = branch
		}
	}
}

// WithUpdate pulls with rebase when an existing repository is opened.
func WithUpdate(update bool) Option {
	return func(o *options) {
		o.update = update
	}
}

// WithExtension sets the item file extension used for discovery (default "yaml").
func WithExtension(ext string) Option {
	return func(o *options) {
		o.extension = normalizeExtension(ext)
	}
}

// WithGitClient replaces the go-git client.
func WithGitClient(c git.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithCloneCache sets the cache used by FromRemote.
func WithCloneCache(c *clonecache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithoutVersionControl treats the register as a plain directory tree.
func WithoutVersionControl() Option {
	return func(o *options) {
		o.vcs = false
	}
}

// SpawnOption sets up a freshly spawned child. Options are ignored when the
// key is already known and the existing child is returned.
type SpawnOption[T any] func(T)

// WithDataSetMetadata replaces the metadata of a spawned data set. An empty
// Name is filled from the data set name.
func WithDataSetMetadata(meta DataSetMetadata) SpawnOption[*DataSet] {
	return func(d *DataSet) {
		if meta.Name == "" {
			meta.Name = d.name
		}
		meta.applyDefaults()
		d.Metadata = meta
	}
}

// WithItemData sets the data of a spawned item.
func WithItemData(data any) SpawnOption[*Item] {
	return func(it *Item) {
		it.Data = data
	}
}

// WithItemStatus sets the status of a spawned item.
func WithItemStatus(status ItemStatus) SpawnOption[*Item] {
	return func(it *Item) {
		it.Status = status
	}
}
