package register

import (
	"slices"
	"sort"
)

// children is a lazily populated child map. The keyset is scanned from disk
// on first listing and again only on an explicit refresh. Children memoized
// before that first scan are merged into it rather than standing in for it.
type children[T any] struct {
	keys    []string
	byKey   map[string]T
	scanned bool
}

func (c *children[T]) init() {
	if c.byKey == nil {
		c.byKey = make(map[string]T)
	}
}

// names returns the cached keys, scanning on first use or when refresh is
// set. A refresh replaces the keyset and drops memoized children that are no
// longer present; the first scan keeps children memoized before it.
func (c *children[T]) names(refresh bool, scan func() ([]string, error)) ([]string, error) {
	c.init()
	if !refresh && c.scanned {
		return slices.Clone(c.keys), nil
	}
	found, err := scan()
	if err != nil {
		return nil, err
	}
	keys := slices.Clone(found)
	for key := range c.byKey {
		if slices.Contains(found, key) {
			continue
		}
		if refresh {
			delete(c.byKey, key)
		} else {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	c.keys = slices.Compact(keys)
	c.scanned = true
	return slices.Clone(c.keys), nil
}

// get returns the memoized child for key, loading it when absent or when
// refresh is set.
func (c *children[T]) get(key string, refresh bool, load func(string) (T, error)) (T, error) {
	c.init()
	if !refresh {
		if v, ok := c.byKey[key]; ok {
			return v, nil
		}
	}
	v, err := load(key)
	if err != nil {
		var zero T
		return zero, err
	}
	c.put(key, v)
	return v, nil
}

// all returns every child, loading each lazily. With refresh the keyset is
// re-scanned and every child reloaded.
func (c *children[T]) all(refresh bool, scan func() ([]string, error), load func(string) (T, error)) (map[string]T, error) {
	keys, err := c.names(refresh, scan)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(keys))
	for _, key := range keys {
		v, err := c.get(key, refresh, load)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// lookup returns the memoized child without loading.
func (c *children[T]) lookup(key string) (T, bool) {
	v, ok := c.byKey[key]
	return v, ok
}

// put memoizes v under key and adds key to the keyset.
func (c *children[T]) put(key string, v T) {
	c.init()
	c.byKey[key] = v
	if !slices.Contains(c.keys, key) {
		c.keys = append(c.keys, key)
		sort.Strings(c.keys)
	}
}

// rekey moves the child at oldKey to newKey.
func (c *children[T]) rekey(oldKey, newKey string) {
	v, ok := c.byKey[oldKey]
	if !ok {
		return
	}
	delete(c.byKey, oldKey)
	c.keys = slices.DeleteFunc(c.keys, func(k string) bool { return k == oldKey })
	c.put(newKey, v)
}

// has reports whether key is known, memoized or only scanned. Callers list
// names first so that on-disk keys are included.
func (c *children[T]) has(key string) bool {
	if _, ok := c.byKey[key]; ok {
		return true
	}
	return slices.Contains(c.keys, key)
}

// cached returns memoized children in key order. Entities never loaded are
// not included.
func (c *children[T]) cached() []T {
	keys := make([]string, 0, len(c.byKey))
	for key := range c.byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, key := range keys {
		out = append(out, c.byKey[key])
	}
	return out
}

// reset forgets every key and child; the next listing scans again.
func (c *children[T]) reset() {
	c.keys = nil
	c.byKey = nil
	c.scanned = false
}

// rescan makes the next listing scan again, keeping memoized children.
func (c *children[T]) rescan() {
	c.scanned = false
}

// remove forgets key.
func (c *children[T]) remove(key string) {
	delete(c.byKey, key)
	c.keys = slices.DeleteFunc(c.keys, func(k string) bool { return k == key })
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
