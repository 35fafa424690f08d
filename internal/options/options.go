// Package options holds the immutable key/value configuration read by rules.
package options

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"slices"
	"strings"
)

// Key names a single configuration entry. Sub-options use the
// "parent.child" form.
type Key string

// Parent returns the key before the first dot, or k itself.
func (k Key) Parent() Key {
	if i := strings.IndexByte(string(k), '.'); i >= 0 {
		return k[:i]
	}
	return k
}

// Child joins a sub-option name onto k.
func (k Key) Child(name string) Key {
	return k + "." + Key(name)
}

const (
	True  = "true"
	False = "false"
)

// Options is a read-only snapshot of configuration values. The zero value
// is valid and has every key disabled.
type Options struct {
	values map[Key]string
}

// New copies values into a new snapshot.
func New(values map[string]string) Options {
	o := Options{values: make(map[Key]string, len(values))}
	for k, v := range values {
		o.values[Key(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return o
}

// Enable returns a snapshot with all of keys set to "true".
func Enable(keys ...Key) Options {
	o := Options{values: make(map[Key]string, len(keys))}
	for _, k := range keys {
		o.values[k] = True
	}
	return o
}

// With returns a copy of o with key set to value.
func (o Options) With(key Key, value string) Options {
	n := Options{values: make(map[Key]string, len(o.values)+1)}
	maps.Copy(n.values, o.values)
	n.values[key] = value
	return n
}

// Value returns the raw value of key and whether it was set.
func (o Options) Value(key Key) (string, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Enabled reports whether key holds a truthy value. Unset and unknown keys
// are disabled.
func (o Options) Enabled(key Key) bool {
	v, ok := o.values[key]
	if !ok {
		return false
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// All reports whether every key is enabled.
func (o Options) All(keys ...Key) bool {
	for _, k := range keys {
		if !o.Enabled(k) {
			return false
		}
	}
	return len(keys) > 0
}

// Any reports whether at least one key is enabled.
func (o Options) Any(keys ...Key) bool {
	for _, k := range keys {
		if o.Enabled(k) {
			return true
		}
	}
	return false
}

// Keys returns the set keys in sorted order.
func (o Options) Keys() []Key {
	return slices.Sorted(maps.Keys(o.values))
}

// Map returns a copy of the snapshot as plain strings.
func (o Options) Map() map[string]string {
	m := make(map[string]string, len(o.values))
	for k, v := range o.values {
		m[string(k)] = v
	}
	return m
}

// Fingerprint hashes the values of the given keys, or of every set key when
// none are given. Two snapshots agreeing on those keys share a fingerprint.
func (o Options) Fingerprint(keys ...Key) string {
	if len(keys) == 0 {
		keys = o.Keys()
	} else {
		keys = slices.Clone(keys)
		slices.Sort(keys)
		keys = slices.Compact(keys)
	}
	h := sha256.New()
	for _, k := range keys {
		v, ok := o.values[k]
		h.Write([]byte(k))
		if ok {
			h.Write([]byte{'='})
			h.Write([]byte(v))
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
