package cache

import (
	"fmt"
	"net/url"
	"strings"
)

// Key identifies one remote resource. A nil or empty Key disables the query,
// which is how callers express "not authenticated yet".
type Key []string

// K builds a Key from its parts, e.g. K("expenses", dormID).
func K(parts ...any) Key {
	k := make(Key, 0, len(parts))
	for _, p := range parts {
		k = append(k, fmt.Sprint(p))
	}
	return k
}

// Enabled reports whether the key names a resource.
func (k Key) Enabled() bool {
	return len(k) > 0
}

// String is the canonical storage form. Parts are path-escaped so
// K("a/b") and K("a", "b") never collide.
func (k Key) String() string {
	escaped := make([]string, len(k))
	for i, p := range k {
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/")
}

// Resource is the first part of the key, used as a metrics label.
func (k Key) Resource() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}
