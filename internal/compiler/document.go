// Package compiler is the document front end built on the memo engine. Files are
// sources, and every pass over them is a memoized function, so an edit only
// re-runs the passes whose inputs really changed.
package compiler

import (
	"fmt"
	"slices"
)

// SourceFile is one input document.
type SourceFile struct {
	Path    string
	Content string
}

// SourceKey keys files by path.
func (f SourceFile) SourceKey() string {
	return f.Path
}

// Kind is the keyword that introduces a definition.
type Kind string

// Definition kinds.
const (
	KindType         Kind = "type"
	KindInterface    Kind = "interface"
	KindEnum         Kind = "enum"
	KindInput        Kind = "input"
	KindScalar       Kind = "scalar"
	KindUnion        Kind = "union"
	KindSchema       Kind = "schema"
	KindDirective    Kind = "directive"
	KindQuery        Kind = "query"
	KindMutation     Kind = "mutation"
	KindSubscription Kind = "subscription"
	KindFragment     Kind = "fragment"
)

var kinds = map[string]Kind{
	"type":         KindType,
	"interface":    KindInterface,
	"enum":         KindEnum,
	"input":        KindInput,
	"scalar":       KindScalar,
	"union":        KindUnion,
	"schema":       KindSchema,
	"directive":    KindDirective,
	"query":        KindQuery,
	"mutation":     KindMutation,
	"subscription": KindSubscription,
	"fragment":     KindFragment,
}

// DefinesType reports whether definitions of k add a named type to the schema.
func (k Kind) DefinesType() bool {
	switch k {
	case KindType, KindInterface, KindEnum, KindInput, KindScalar, KindUnion:
		return true
	default:
		return false
	}
}

// IsOperation reports whether k is an executable operation.
func (k Kind) IsOperation() bool {
	return k == KindQuery || k == KindMutation || k == KindSubscription
}

// Definition is one top-level declaration of a document.
type Definition struct {
	Kind      Kind
	Name      string
	On        string
	Extension bool
	Line      int
}

// Document is a parsed file.
type Document struct {
	Path        string
	Definitions []Definition
}

// TypeNames returns the sorted names of the schema types the document declares.
// Extensions do not declare a type.
func (d Document) TypeNames() []string {
	var names []string
	for _, def := range d.Definitions {
		if def.Kind.DefinesType() && !def.Extension {
			names = append(names, def.Name)
		}
	}
	slices.Sort(names)
	return names
}

// ParseError is a syntax error at a line of a document.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Diagnostic is a problem found in a file. Line is zero when the problem
// concerns the file as a whole.
type Diagnostic struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Report summarises a compilation.
type Report struct {
	Files       int          `json:"files"`
	Definitions int          `json:"definitions"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// HasErrors reports whether the compilation found any problem.
func (r Report) HasErrors() bool {
	return len(r.Diagnostics) > 0
}
