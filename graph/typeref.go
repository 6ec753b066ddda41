package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeName identifies a declared type by import path and name.
// Two TypeNames denote the same type exactly when they are equal.
type TypeName struct {
	Pkg  string // import path; empty for predeclared types
	Name string
}

// ParseTypeName splits a qualified name such as "example.com/shop.Widget"
// at its last dot. A name without a dot is treated as predeclared.
func ParseTypeName(qualified string) TypeName {
	i := strings.LastIndex(qualified, ".")
	if i < 0 || strings.Contains(qualified[i:], "/") {
		return TypeName{Name: qualified}
	}
	return TypeName{Pkg: qualified[:i], Name: qualified[i+1:]}
}

// String returns the qualified name.
func (n TypeName) String() string {
	if n.Pkg == "" {
		return n.Name
	}
	return n.Pkg + "." + n.Name
}

// IsZero reports whether n is the zero TypeName.
func (n TypeName) IsZero() bool { return n == TypeName{} }

// Kind identifies the shape of a TypeRef.
type Kind int

const (
	KindBasic     Kind = iota // predeclared scalar (int, string, ...)
	KindNamed                 // declared type, possibly instantiated
	KindPointer               // *T
	KindSlice                 // []T
	KindArray                 // [N]T
	KindMap                   // map[K]V
	KindInterface             // empty interface, spelled any
	KindTuple                 // result list of a method
)

func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "Basic"
	case KindNamed:
		return "Named"
	case KindPointer:
		return "Pointer"
	case KindSlice:
		return "Slice"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindInterface:
		return "Interface"
	case KindTuple:
		return "Tuple"
	default:
		return "Unknown"
	}
}

// BasicKind identifies a predeclared scalar type.
// Byte and rune are reported as Uint8 and Int32; the spelling is kept in
// TypeRef.Name.
type BasicKind int

const (
	InvalidBasic BasicKind = iota
	Bool
	Int
	Int8
	Int16
	Int32
	Int64
	Uint
	Uint8
	Uint16
	Uint32
	Uint64
	Uintptr
	Float32
	Float64
	Complex64
	Complex128
	String
)

var basicNames = map[string]BasicKind{
	"bool":       Bool,
	"int":        Int,
	"int8":       Int8,
	"int16":      Int16,
	"int32":      Int32,
	"rune":       Int32,
	"int64":      Int64,
	"uint":       Uint,
	"uint8":      Uint8,
	"byte":       Uint8,
	"uint16":     Uint16,
	"uint32":     Uint32,
	"uint64":     Uint64,
	"uintptr":    Uintptr,
	"float32":    Float32,
	"float64":    Float64,
	"complex64":  Complex64,
	"complex128": Complex128,
	"string":     String,
}

// LookupBasic returns the BasicKind spelled by name.
func LookupBasic(name string) (BasicKind, bool) {
	k, ok := basicNames[name]
	return k, ok
}

// TypeRef is an immutable structural type expression as it must appear in
// generated source. Named types carry their import path; choosing a package
// qualifier is left to the renderer.
type TypeRef struct {
	Kind  Kind
	Basic BasicKind // KindBasic

	// Name is the spelled basic name for KindBasic and the type name for KindNamed.
	Name    string
	Pkg     string // KindNamed: import path, empty for error
	PkgName string // KindNamed: package name used as default qualifier

	// Enum marks a named type defined over a basic type with declared constants.
	Enum bool

	Args []*TypeRef // KindNamed: type arguments; KindTuple: elements
	Elem *TypeRef   // KindPointer, KindSlice, KindArray, KindMap (value)
	Key  *TypeRef   // KindMap
	Len  int64      // KindArray

	// Imports lists the packages an opaque type mentions. An opaque type is a
	// KindNamed with no Pkg whose Name is Go source; each package qualifier in
	// it is written as OpaqueQualifier(i) followed by a dot.
	Imports []Import
}

// Import is a package referenced from an opaque type.
type Import struct {
	Path string
	Name string
}

// OpaqueQualifier is the placeholder for the qualifier of Imports[i] in the
// spelling of an opaque type.
func OpaqueQualifier(i int) string {
	return "\x00" + strconv.Itoa(i) + "\x00"
}

// Basic returns a TypeRef for a predeclared scalar spelled name.
// It panics if name is not a basic type.
func Basic(name string) *TypeRef {
	k, ok := LookupBasic(name)
	if !ok {
		panic(fmt.Sprintf("graph: %q is not a basic type", name))
	}
	return &TypeRef{Kind: KindBasic, Basic: k, Name: name}
}

// Named returns a TypeRef for a declared type.
func Named(pkg, name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: KindNamed, Pkg: pkg, PkgName: DefaultPackageName(pkg), Name: name, Args: args}
}

// Enum returns a TypeRef for a declared enumerated type.
func Enum(pkg, name string) *TypeRef {
	t := Named(pkg, name)
	t.Enum = true
	return t
}

// Error returns the predeclared error type.
func Error() *TypeRef { return &TypeRef{Kind: KindNamed, Name: "error"} }

// Any returns the empty interface.
func Any() *TypeRef { return &TypeRef{Kind: KindInterface} }

// Pointer returns *elem.
func Pointer(elem *TypeRef) *TypeRef { return &TypeRef{Kind: KindPointer, Elem: elem} }

// Slice returns []elem.
func Slice(elem *TypeRef) *TypeRef { return &TypeRef{Kind: KindSlice, Elem: elem} }

// Array returns [n]elem.
func Array(elem *TypeRef, n int64) *TypeRef {
	return &TypeRef{Kind: KindArray, Elem: elem, Len: n}
}

// Map returns map[key]elem.
func Map(key, elem *TypeRef) *TypeRef { return &TypeRef{Kind: KindMap, Key: key, Elem: elem} }

// Tuple returns a result list.
func Tuple(elems ...*TypeRef) *TypeRef { return &TypeRef{Kind: KindTuple, Args: elems} }

// TypeName returns the declared name of a named type, or the zero TypeName.
func (t *TypeRef) TypeName() TypeName {
	if t == nil || t.Kind != KindNamed {
		return TypeName{}
	}
	return TypeName{Pkg: t.Pkg, Name: t.Name}
}

// IsError reports whether t is the predeclared error type.
func (t *TypeRef) IsError() bool {
	return t != nil && t.Kind == KindNamed && t.Pkg == "" && t.Name == "error"
}

// Is reports whether t is the named type n, ignoring type arguments.
func (t *TypeRef) Is(n TypeName) bool {
	return t != nil && t.Kind == KindNamed && t.Pkg == n.Pkg && t.Name == n.Name
}

// String renders t with fully-qualified package paths.
func (t *TypeRef) String() string {
	return t.Format(func(pkg, _ string) string { return pkg })
}

// Format renders t, asking qualify for the qualifier of every named type in a
// package. An empty qualifier leaves the name unqualified.
func (t *TypeRef) Format(qualify func(pkg, pkgName string) string) string {
	var sb strings.Builder
	t.format(&sb, qualify)
	return sb.String()
}

func (t *TypeRef) format(sb *strings.Builder, qualify func(pkg, pkgName string) string) {
	if t == nil {
		sb.WriteString("<nil>")
		return
	}
	switch t.Kind {
	case KindBasic:
		sb.WriteString(t.Name)
	case KindNamed:
		if len(t.Imports) > 0 {
			t.formatOpaque(sb, qualify)
			return
		}
		if t.Pkg != "" {
			if q := qualify(t.Pkg, t.PkgName); q != "" {
				sb.WriteString(q)
				sb.WriteByte('.')
			}
		}
		sb.WriteString(t.Name)
		if len(t.Args) > 0 {
			sb.WriteByte('[')
			for i, a := range t.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				a.format(sb, qualify)
			}
			sb.WriteByte(']')
		}
	case KindPointer:
		sb.WriteByte('*')
		t.Elem.format(sb, qualify)
	case KindSlice:
		sb.WriteString("[]")
		t.Elem.format(sb, qualify)
	case KindArray:
		sb.WriteByte('[')
		sb.WriteString(strconv.FormatInt(t.Len, 10))
		sb.WriteByte(']')
		t.Elem.format(sb, qualify)
	case KindMap:
		sb.WriteString("map[")
		t.Key.format(sb, qualify)
		sb.WriteByte(']')
		t.Elem.format(sb, qualify)
	case KindInterface:
		sb.WriteString("any")
	case KindTuple:
		sb.WriteByte('(')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			a.format(sb, qualify)
		}
		sb.WriteByte(')')
	default:
		sb.WriteString("<invalid>")
	}
}

// formatOpaque writes the spelling of an opaque type, replacing each
// qualifier placeholder and its dot with the qualifier chosen by qualify.
func (t *TypeRef) formatOpaque(sb *strings.Builder, qualify func(pkg, pkgName string) string) {
	s := t.Name
	for {
		start := strings.IndexByte(s, 0)
		if start < 0 {
			sb.WriteString(s)
			return
		}
		sb.WriteString(s[:start])
		s = s[start+1:]
		end := strings.IndexByte(s, 0)
		if end < 0 {
			sb.WriteString(s)
			return
		}
		i, err := strconv.Atoi(s[:end])
		s = strings.TrimPrefix(s[end+1:], ".")
		if err != nil || i < 0 || i >= len(t.Imports) {
			continue
		}
		if q := qualify(t.Imports[i].Path, t.Imports[i].Name); q != "" {
			sb.WriteString(q)
			sb.WriteByte('.')
		}
	}
}

// Walk calls fn for t and every type nested in it, depth first.
func (t *TypeRef) Walk(fn func(*TypeRef)) {
	if t == nil {
		return
	}
	fn(t)
	t.Key.Walk(fn)
	t.Elem.Walk(fn)
	for _, a := range t.Args {
		a.Walk(fn)
	}
}

// DefaultPackageName guesses the package name of an import path: the last
// path element, without a major version suffix or a gopkg.in style ".vN".
func DefaultPackageName(path string) string {
	if path == "" {
		return ""
	}
	elems := strings.Split(path, "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 && isDigits(name[i+2:]) {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, name)
}

func isMajorVersion(s string) bool {
	return len(s) > 1 && s[0] == 'v' && isDigits(s[1:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MarshalText encodes t as its fully-qualified spelling.
func (t *TypeRef) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses the form produced by MarshalText.
func (t *TypeRef) UnmarshalText(text []byte) error {
	ref, err := ParseTypeRef(string(text))
	if err != nil {
		return err
	}
	*t = *ref
	return nil
}

// MarshalText encodes n as its qualified name.
func (n TypeName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText parses a qualified name.
func (n *TypeName) UnmarshalText(text []byte) error {
	*n = ParseTypeName(string(text))
	return nil
}
