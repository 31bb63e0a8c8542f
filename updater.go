// Copyright (c) 2024 Akxen Labs

package nemde

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

///////////////////////////////////////////////////////////////////////////////

// Patch is one casefile update: a dotted path with optional list indices
// ("[0]") or attribute predicates ("[?(@TraderID=='AGLHAL')]"), and the
// replacement value for the attribute the path ends in.
type Patch struct {
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// pathSegment is one parsed component of a patch path.
type pathSegment struct {
	name      string
	index     int // list index selector, -1 if unset
	hasIndex  bool
	predAttr  string // predicate attribute, "" if unset
	predValue string
}

func parsePatchPath(path string) ([]pathSegment, error) {
	var segments []pathSegment
	for _, raw := range strings.Split(path, ".") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, fmt.Errorf("%w: empty path segment in %q", ErrCasefileUpdaterLookup, path)
		}
		seg := pathSegment{index: -1}
		if open := strings.Index(raw, "["); open >= 0 {
			if !strings.HasSuffix(raw, "]") {
				return nil, fmt.Errorf("%w: unterminated selector in %q", ErrCasefileUpdaterLookup, raw)
			}
			seg.name = raw[:open]
			selector := raw[open+1 : len(raw)-1]
			if strings.HasPrefix(selector, "?(@") {
				// [?(@Attr=='Value')]
				body := strings.TrimSuffix(strings.TrimPrefix(selector, "?(@"), ")")
				parts := strings.SplitN(body, "==", 2)
				if len(parts) != 2 {
					return nil, fmt.Errorf("%w: bad predicate %q", ErrCasefileUpdaterLookup, selector)
				}
				seg.predAttr = "@" + parts[0]
				seg.predValue = strings.Trim(parts[1], "'\"")
			} else {
				idx, err := strconv.Atoi(selector)
				if err != nil {
					return nil, fmt.Errorf("%w: bad index %q", ErrCasefileUpdaterLookup, selector)
				}
				seg.index = idx
				seg.hasIndex = true
			}
		} else {
			seg.name = raw
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// resolve walks one segment from every candidate node, normalizing
// single-object collections to lists and applying selectors.
func resolveSegment(candidates []*fastjson.Value, seg pathSegment) []*fastjson.Value {
	var next []*fastjson.Value
	for _, c := range candidates {
		child := c.Get(seg.name)
		if child == nil {
			continue
		}
		items := elems(child)
		switch {
		case seg.hasIndex:
			if seg.index >= 0 && seg.index < len(items) {
				next = append(next, items[seg.index])
			}
		case seg.predAttr != "":
			for _, item := range items {
				if v, ok := attrString(item, seg.predAttr); ok && v == seg.predValue {
					next = append(next, item)
				}
			}
		default:
			next = append(next, items...)
		}
	}
	return next
}

///////////////////////////////////////////////////////////////////////////////

// ApplyPatches applies each patch in order. Every patch path must resolve to
// exactly one element; the final path segment names the attribute replaced.
// An empty patch list leaves the casefile untouched.
func (cf *Casefile) ApplyPatches(patches []Patch) error {
	for _, p := range patches {
		if err := cf.applyPatch(p); err != nil {
			return err
		}
	}
	return nil
}

func (cf *Casefile) applyPatch(p Patch) error {
	segments, err := parsePatchPath(p.Path)
	if err != nil {
		return err
	}
	if len(segments) < 2 {
		return fmt.Errorf("%w: path %q too short", ErrCasefileUpdaterLookup, p.Path)
	}

	// All but the last segment locate the element; the last names the
	// attribute to replace.
	candidates := []*fastjson.Value{cf.root}
	for _, seg := range segments[:len(segments)-1] {
		candidates = resolveSegment(candidates, seg)
	}
	if len(candidates) != 1 {
		return fmt.Errorf("%w: path %q identifies %d elements, want 1",
			ErrCasefileUpdaterLookup, p.Path, len(candidates))
	}

	attr := segments[len(segments)-1]
	if attr.hasIndex || attr.predAttr != "" {
		return fmt.Errorf("%w: path %q must end in an attribute", ErrCasefileUpdaterLookup, p.Path)
	}
	target := candidates[0]
	if target.Get(attr.name) == nil {
		return fmt.Errorf("%w: path %q attribute %s not present",
			ErrCasefileUpdaterLookup, p.Path, attr.name)
	}

	replacement, err := cf.newValue(p.Value)
	if err != nil {
		return err
	}
	target.Set(attr.name, replacement)
	return nil
}

// newValue builds a fastjson value for a patch replacement. Casefile
// attributes are strings in the source format, so scalars are stringified.
func (cf *Casefile) newValue(v interface{}) (*fastjson.Value, error) {
	switch x := v.(type) {
	case string:
		return cf.arena.NewString(x), nil
	case float64:
		return cf.arena.NewString(strconv.FormatFloat(x, 'f', -1, 64)), nil
	case int:
		return cf.arena.NewString(strconv.Itoa(x)), nil
	case bool:
		if x {
			return cf.arena.NewString("1"), nil
		}
		return cf.arena.NewString("0"), nil
	case nil:
		return nil, fmt.Errorf("%w: patch value is null", ErrCasefileValue)
	default:
		return nil, fmt.Errorf("%w: unsupported patch value type %T", ErrCasefileValue, v)
	}
}
