package emit

import (
	"go/token"
	"go/types"
	"path"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/broady/ctrlgen/graph"
)

// importSet assigns each imported package a file-unique name. Names are
// handed out in the order packages are added, so the same sequence of adds
// always yields the same aliases.
type importSet struct {
	names   map[string]string // import path -> name
	pkgName map[string]string // import path -> declared package name
	taken   map[string]bool
}

// newImportSet returns an empty set. Predeclared identifiers and reserved
// are never used as package names.
func newImportSet(reserved map[string]bool) *importSet {
	s := &importSet{
		names:   make(map[string]string),
		pkgName: make(map[string]string),
		taken:   make(map[string]bool),
	}
	for _, n := range types.Universe.Names() {
		s.taken[n] = true
	}
	for n := range reserved {
		s.taken[n] = true
	}
	return s
}

// add registers the package at importPath, declared as pkgName, and returns
// the name it is referred to by. An empty pkgName is guessed from the path.
func (s *importSet) add(importPath, pkgName string) string {
	if n, ok := s.names[importPath]; ok {
		return n
	}
	if pkgName == "" {
		pkgName = graph.DefaultPackageName(importPath)
	}
	base := sanitizeIdentifier(pkgName)
	name := base
	for i := 2; s.taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	s.taken[name] = true
	s.names[importPath] = name
	s.pkgName[importPath] = pkgName
	return name
}

// name returns the name assigned to importPath.
func (s *importSet) name(importPath string) string {
	return s.names[importPath]
}

type importSpec struct {
	Alias string // empty when the declared name is used
	Path  string
}

// specs returns the imports in two groups, standard library first, each
// sorted by path.
func (s *importSet) specs() (std, other []importSpec) {
	paths := make([]string, 0, len(s.names))
	for p := range s.names {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		spec := importSpec{Path: p}
		if n := s.names[p]; n != s.pkgName[p] || n != path.Base(p) {
			spec.Alias = n
		}
		if isStdlib(p) {
			std = append(std, spec)
		} else {
			other = append(other, spec)
		}
	}
	return std, other
}

// isStdlib reports whether the first path element lacks a dot, as the
// go command assumes for standard library packages.
func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}

// sanitizeIdentifier makes name a valid, non-keyword Go identifier.
func sanitizeIdentifier(name string) string {
	if name == "" {
		return "_"
	}
	var sb strings.Builder
	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteRune('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	out := sb.String()
	if token.IsKeyword(out) {
		out += "_"
	}
	return out
}

// scope hands out fresh local identifiers.
type scope map[string]bool

// fresh returns base, or base followed by the smallest number from 2 that
// is not yet taken, and marks the result taken.
func (s scope) fresh(base string) string {
	name := base
	for i := 2; s[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	s[name] = true
	return name
}
