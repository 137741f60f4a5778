package compiler

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"go.trai.ch/pico/internal/engine/memo"
)

type fileMap = map[string]memo.SourceID[SourceFile]

// fileSet is the singleton through which passes reach the project's file list.
type fileSet struct {
	files *memo.Field[fileMap]
}

func (f fileSet) Equal(other fileSet) bool {
	return f.files == other.files
}

// trackedFiles returns the current file list and records the read.
func trackedFiles(s *memo.Session) fileMap {
	set, ok := memo.GetSingleton[fileSet](s)
	if !ok {
		return nil
	}
	return set.files.Tracked(s)
}

func sortedPaths(files fileMap) []string {
	return slices.Sorted(maps.Keys(files))
}

// typeDecl is a schema type a file declares.
type typeDecl struct {
	Name string
	Kind Kind
	Line int
}

// SchemaIndex maps every declared type to the file that declared it first.
type SchemaIndex struct {
	Types      map[string]string
	Duplicates []Diagnostic
}

var (
	parseDocument = memo.Memo1("compiler.parse", func(s *memo.Session, file memo.SourceID[SourceFile]) memo.Result[Document] {
		src := memo.Get(s, file)
		doc, err := Parse(src.Path, src.Content)
		if err != nil {
			return memo.Err[Document](err)
		}
		return memo.Ok(doc)
	})

	// declaredTypes only changes when a file's type declarations do, which
	// keeps edits to operations and fragments away from the schema index.
	declaredTypes = memo.Memo1("compiler.declaredTypes", func(s *memo.Session, file memo.SourceID[SourceFile]) []typeDecl {
		doc, err := memo.TryValue(s, parseDocument.Call(s, file))
		if err != nil {
			return nil
		}
		var decls []typeDecl
		for _, def := range doc.Definitions {
			if def.Kind.DefinesType() && !def.Extension {
				decls = append(decls, typeDecl{Name: def.Name, Kind: def.Kind, Line: def.Line})
			}
		}
		return decls
	})

	schemaIndex = memo.Memo0("compiler.schema", func(s *memo.Session) SchemaIndex {
		files := trackedFiles(s)
		index := SchemaIndex{Types: make(map[string]string)}
		for _, path := range sortedPaths(files) {
			for _, decl := range declaredTypes.Get(s, files[path]) {
				if first, dup := index.Types[decl.Name]; dup {
					index.Duplicates = append(index.Duplicates, Diagnostic{
						Path:    path,
						Line:    decl.Line,
						Message: fmt.Sprintf("%s %q is already declared in %s", decl.Kind, decl.Name, first),
					})
					continue
				}
				index.Types[decl.Name] = path
			}
		}
		return index
	})

	validateFile = memo.Memo1("compiler.validate", func(s *memo.Session, file memo.SourceID[SourceFile]) []Diagnostic {
		doc, err := memo.TryValue(s, parseDocument.Call(s, file))
		if err != nil {
			return []Diagnostic{parseDiagnostic(file.Name, err)}
		}

		index := schemaIndex.Get(s)
		var diags []Diagnostic
		for _, def := range doc.Definitions {
			switch {
			case def.Kind == KindFragment:
				if _, ok := index.Types[def.On]; !ok {
					diags = append(diags, Diagnostic{
						Path:    file.Name,
						Line:    def.Line,
						Message: fmt.Sprintf("fragment %q is on unknown type %q", def.Name, def.On),
					})
				}
			case def.Extension && def.Kind.DefinesType():
				if _, ok := index.Types[def.Name]; !ok {
					diags = append(diags, Diagnostic{
						Path:    file.Name,
						Line:    def.Line,
						Message: fmt.Sprintf("extension of unknown %s %q", def.Kind, def.Name),
					})
				}
			}
		}
		for _, dup := range index.Duplicates {
			if dup.Path == file.Name {
				diags = append(diags, dup)
			}
		}
		slices.SortStableFunc(diags, func(a, b Diagnostic) int {
			return cmp.Compare(a.Line, b.Line)
		})
		return diags
	})

	projectReport = memo.Memo0("compiler.report", func(s *memo.Session) Report {
		files := trackedFiles(s)
		report := Report{Files: len(files)}
		for _, path := range sortedPaths(files) {
			id := files[path]
			if doc, err := memo.TryValue(s, parseDocument.Call(s, id)); err == nil {
				report.Definitions += len(doc.Definitions)
			}
			report.Diagnostics = append(report.Diagnostics, validateFile.Get(s, id)...)
		}
		return report
	})
)

func parseDiagnostic(path string, err error) Diagnostic {
	var perr *ParseError
	if errors.As(err, &perr) {
		return Diagnostic{Path: path, Line: perr.Line, Message: perr.Message}
	}
	return Diagnostic{Path: path, Message: err.Error()}
}
