// Package pattern matches classification labels against trust patterns.
//
// A trust pattern is a label with optional "*" wildcards: "imports:added",
// "imports:*", "*:added" or "*". A pattern without "*" matches only the
// identical label; there is no implicit prefix matching, so "imports" does
// not match "imports:added". Every other character is literal. A wildcard
// spans any run of characters except a newline and the whole label must be
// covered. The lone "*" pattern matches every label.
package pattern

import (
	"regexp"
	"strings"
	"sync"
)

// Kind is the compiled shape of a pattern.
type Kind int

const (
	KindExact   Kind = iota // no wildcard
	KindAny                 // "*"
	KindPrefix              // "X*"
	KindSuffix              // "*X"
	KindGeneral             // anything else with wildcards
	KindNever               // could not be compiled; matches nothing
)

const wildcard = "*"

// Pattern is a precompiled trust pattern. The zero value is the exact
// pattern "" and matches only the empty label.
type Pattern struct {
	raw  string
	kind Kind
	lit  string
	re   *regexp.Regexp
}

// Compile turns a pattern string into a matcher. It never fails: a pattern
// that cannot be compiled matches nothing.
func Compile(p string) Pattern {
	switch {
	case !strings.Contains(p, wildcard):
		return Pattern{raw: p, kind: KindExact, lit: p}
	case p == wildcard:
		return Pattern{raw: p, kind: KindAny}
	}

	parts := strings.Split(p, wildcard)
	if len(parts) == 2 {
		switch {
		case parts[1] == "" && parts[0] != "":
			return Pattern{raw: p, kind: KindPrefix, lit: parts[0]}
		case parts[0] == "" && parts[1] != "":
			return Pattern{raw: p, kind: KindSuffix, lit: parts[1]}
		}
	}

	quoted := make([]string, len(parts))
	for i, part := range parts {
		quoted[i] = regexp.QuoteMeta(part)
	}
	re, err := regexp.Compile("^" + strings.Join(quoted, ".*") + "$")
	if err != nil {
		return Pattern{raw: p, kind: KindNever}
	}
	return Pattern{raw: p, kind: KindGeneral, re: re}
}

// String returns the source pattern.
func (p Pattern) String() string { return p.raw }

// Kind returns the compiled shape.
func (p Pattern) Kind() Kind { return p.kind }

// Match reports whether label is matched by p.
func (p Pattern) Match(label string) bool {
	switch p.kind {
	case KindExact:
		return label == p.lit
	case KindAny:
		return true
	case KindPrefix:
		return strings.HasPrefix(label, p.lit) && !strings.Contains(label[len(p.lit):], "\n")
	case KindSuffix:
		return strings.HasSuffix(label, p.lit) && !strings.Contains(label[:len(label)-len(p.lit)], "\n")
	case KindGeneral:
		return p.re.MatchString(label)
	default:
		return false
	}
}

// maxCached bounds the compiled-pattern cache. Patterns come from user
// input, so the cache is dropped wholesale once full.
const maxCached = 256

var cache = struct {
	sync.Mutex
	m map[string]Pattern
}{m: make(map[string]Pattern)}

func compiled(p string) Pattern {
	cache.Lock()
	defer cache.Unlock()
	if c, ok := cache.m[p]; ok {
		return c
	}
	if len(cache.m) >= maxCached {
		clear(cache.m)
	}
	c := Compile(p)
	cache.m[p] = c
	return c
}

func cacheLen() int {
	cache.Lock()
	defer cache.Unlock()
	return len(cache.m)
}

// Matches reports whether label matches pattern.
func Matches(label, pattern string) bool {
	return compiled(pattern).Match(label)
}

// MatchesAny reports whether label matches at least one of patterns.
func MatchesAny(label string, patterns []string) bool {
	_, ok := FindFirstMatch(label, patterns)
	return ok
}

// FindFirstMatch returns the first pattern, in list order, that matches label.
func FindFirstMatch(label string, patterns []string) (string, bool) {
	for _, p := range patterns {
		if Matches(label, p) {
			return p, true
		}
	}
	return "", false
}

// AnyLabelMatchesPattern reports whether any of labels matches pattern.
func AnyLabelMatchesPattern(labels []string, pattern string) bool {
	c := compiled(pattern)
	for _, l := range labels {
		if c.Match(l) {
			return true
		}
	}
	return false
}

// AnyLabelMatchesAnyPattern reports whether some label matches some pattern.
func AnyLabelMatchesAnyPattern(labels, patterns []string) bool {
	for _, p := range patterns {
		if AnyLabelMatchesPattern(labels, p) {
			return true
		}
	}
	return false
}

// Set is a compiled, order-preserving list of patterns.
type Set struct {
	patterns []Pattern
}

// NewSet compiles patterns once for repeated use.
func NewSet(patterns []string) Set {
	s := Set{patterns: make([]Pattern, 0, len(patterns))}
	for _, p := range patterns {
		s.patterns = append(s.patterns, compiled(p))
	}
	return s
}

// Len returns the number of patterns.
func (s Set) Len() int { return len(s.patterns) }

// Strings returns the source patterns in order.
func (s Set) Strings() []string {
	out := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = p.raw
	}
	return out
}

// FirstMatch returns the first pattern matching label.
func (s Set) FirstMatch(label string) (string, bool) {
	for _, p := range s.patterns {
		if p.Match(label) {
			return p.raw, true
		}
	}
	return "", false
}

// MatchAnyLabel reports whether any label matches any pattern in s.
func (s Set) MatchAnyLabel(labels []string) bool {
	for _, l := range labels {
		if _, ok := s.FirstMatch(l); ok {
			return true
		}
	}
	return false
}
