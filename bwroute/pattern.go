package bwroute

import (
	"strings"

	"github.com/cockroachdb/errors"
)

type segment struct {
	literal string
	param   string
	greedy  bool
}

// Pattern is a compiled route path such as "benefits/{benefitId}/users" or
// "files/{path+}". Leading and trailing slashes are insignificant.
type Pattern struct {
	raw      string
	segments []segment
}

// ParsePattern compiles a route path. A greedy parameter must be the final
// segment and parameter names must be unique within the pattern.
func ParsePattern(path string) (*Pattern, error) {
	pat := &Pattern{raw: path}
	seen := map[string]bool{}

	parts := splitPath(path)
	for i, part := range parts {
		if !strings.HasPrefix(part, "{") && !strings.HasSuffix(part, "}") {
			if strings.ContainsAny(part, "{}") {
				return nil, errors.Newf("route %q: unbalanced braces in segment %q", path, part)
			}
			pat.segments = append(pat.segments, segment{literal: part})
			continue
		}
		if !strings.HasPrefix(part, "{") || !strings.HasSuffix(part, "}") {
			return nil, errors.Newf("route %q: unbalanced braces in segment %q", path, part)
		}

		name := part[1 : len(part)-1]
		greedy := strings.HasSuffix(name, "+")
		name = strings.TrimSuffix(name, "+")
		switch {
		case name == "" || strings.ContainsAny(name, "{}+"):
			return nil, errors.Newf("route %q: invalid parameter segment %q", path, part)
		case greedy && i != len(parts)-1:
			return nil, errors.Newf("route %q: greedy parameter {%s+} must be the last segment", path, name)
		case seen[name]:
			return nil, errors.Newf("route %q: duplicate parameter name %q", path, name)
		}
		seen[name] = true
		pat.segments = append(pat.segments, segment{param: name, greedy: greedy})
	}

	return pat, nil
}

func (p *Pattern) String() string { return p.raw }

// Params returns the parameter names declared by the pattern, in order.
func (p *Pattern) Params() []string {
	var names []string
	for _, seg := range p.segments {
		if seg.param != "" {
			names = append(names, seg.param)
		}
	}
	return names
}

func (p *Pattern) greedy() bool {
	return len(p.segments) > 0 && p.segments[len(p.segments)-1].greedy
}

// Match reports whether requestPath matches the pattern and returns the
// parameter bindings. Query strings and fragments are ignored.
func (p *Pattern) Match(requestPath string) (map[string]string, bool) {
	parts := splitPath(stripQuery(requestPath))

	fixed := len(p.segments)
	if p.greedy() {
		fixed--
		if len(parts) < fixed {
			return nil, false
		}
	} else if len(parts) != fixed {
		return nil, false
	}

	params := make(map[string]string, len(p.segments))
	for i := range fixed {
		seg := p.segments[i]
		if seg.param == "" {
			if seg.literal != parts[i] {
				return nil, false
			}
			continue
		}
		params[seg.param] = parts[i]
	}
	if p.greedy() {
		params[p.segments[fixed].param] = strings.Join(parts[fixed:], "/")
	}

	return params, true
}

// Match compiles routePath and matches requestPath against it. A malformed
// routePath never matches.
func Match(routePath, requestPath string) (map[string]string, bool) {
	pat, err := ParsePattern(routePath)
	if err != nil {
		return nil, false
	}
	return pat.Match(requestPath)
}

func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

func stripQuery(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		return path[:i]
	}
	return path
}
