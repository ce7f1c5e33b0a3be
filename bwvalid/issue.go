package bwvalid

import (
	"strings"
)

// Issue is a single field-level validation problem.
type Issue struct {
	In      string `json:"in,omitempty"`
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Issues is an ordered list of validation problems. A non-empty Issues can be
// returned as an error.
type Issues []Issue

func (is Issues) Error() string {
	msgs := make([]string, len(is))
	for i, iss := range is {
		msgs[i] = iss.String()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add appends an issue.
func (is *Issues) Add(path, code, message string) {
	*is = append(*is, Issue{Path: path, Code: code, Message: message})
}

// In returns a copy with every issue located in loc, e.g. "path" or "body".
// Paths are left untouched so the same field name can be reported for both.
func (is Issues) In(loc string) Issues {
	out := make(Issues, len(is))
	for i, iss := range is {
		iss.In = loc
		out[i] = iss
	}
	return out
}
