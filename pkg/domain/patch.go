package domain

import (
	"strconv"
	"strings"
)

// Op is the kind of change described by a Patch.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
)

// Path is the ordered list of segments from a subtree root to a location.
// Array indices are encoded as decimal strings.
type Path []string

// Append returns a new path with the segments added, leaving p untouched.
func (p Path) Append(segments ...string) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Pointer renders the path as a JSON Pointer (RFC 6901).
func (p Path) Pointer() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		seg = strings.ReplaceAll(seg, "~", "~0")
		b.WriteString(strings.ReplaceAll(seg, "/", "~1"))
	}
	return b.String()
}

// ParsePointer converts a JSON Pointer back into a Path.
func ParsePointer(ptr string) (Path, error) {
	if ptr == "" {
		return Path{}, nil
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, ErrInvalidPath
	}
	parts := strings.Split(ptr[1:], "/")
	out := make(Path, len(parts))
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		out[i] = strings.ReplaceAll(part, "~0", "~")
	}
	return out, nil
}

// Index formats an array index as a path segment.
func Index(i int) string {
	return strconv.Itoa(i)
}

// Patch describes a single mutation against a subtree.
// Value is only meaningful for OpAdd and OpReplace.
type Patch struct {
	Op    Op   `json:"op" yaml:"op"`
	Path  Path `json:"path" yaml:"path"`
	Value any  `json:"value,omitempty" yaml:"value,omitempty"`
}

// WithPrefix returns a copy of the patch whose path is rooted higher up by prefix.
func (p Patch) WithPrefix(prefix Path) Patch {
	if len(prefix) == 0 {
		return p
	}
	p.Path = prefix.Append(p.Path...)
	return p
}
