package query

import (
	"net/url"
	"strings"
)

// Key identifies a cached resource: the resource name followed by its parameters.
// Two logically identical requests must build equal keys.
type Key []string

func NewKey(parts ...string) Key {
	return Key(parts)
}

// String renders the key with each part path-escaped, so distinct keys never collide.
func (k Key) String() string {
	escaped := make([]string, len(k))
	for i, p := range k {
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/")
}

// HasPrefix reports whether prefix matches the leading parts of k. An empty prefix matches all keys.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}

// With returns a new key extended by parts; k is not modified.
func (k Key) With(parts ...string) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}
