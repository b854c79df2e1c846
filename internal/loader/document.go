// Package loader reads named filter documents from YAML and CUE files.
//
// A document names a suite of filters, each with an optional expectation,
// plus optional vertex fixtures:
//
//	name: ranges
//	filters:
//	  - name: age-range
//	    filter:
//	      and:
//	        - cmp: {left: {prop: 1}, op: ge, right: {const: 10}}
//	        - cmp: {left: {prop: 1}, op: le, right: {const: 20}}
//	    expect:
//	      outcome: pushed
//	      condition: "AND(prop[1] >= 10, prop[1] <= 20)"
//	vertices:
//	  - {id: 1, label: 7, props: {"1": 5}}
//
// CUE documents use the same field names and are checked against an
// embedded schema before parsing.
package loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/pushdown/internal/predicate"
	"github.com/roach88/pushdown/internal/store"
)

// Outcome is the expected result class of a translation.
type Outcome string

const (
	OutcomePushed   Outcome = "pushed"
	OutcomeFallback Outcome = "fallback"
	OutcomeError    Outcome = "error"
)

// Document is a parsed filter file.
type Document struct {
	Name     string
	Path     string
	Filters  []Filter
	Vertices []store.Vertex
}

// Filter is one named filter of a document.
type Filter struct {
	Name      string
	Evaluator predicate.Evaluator
	Expect    *Expect
	Pos       Position
}

// Expect describes what translating (and scanning with) a filter must
// produce.
type Expect struct {
	Outcome Outcome

	// Condition is the rendered storage condition; only for pushed.
	Condition string

	// Error is the lowercase error code, e.g. "unsupported_operand"; only
	// for error.
	Error string

	// IDs are the vertex IDs the filter must select, in order. Checked
	// only when CheckIDs is set, so an explicit empty list expects no rows.
	IDs      []int64
	CheckIDs bool
}

// LoadFile reads and parses the document at path. The format follows the
// extension: .yaml, .yml or .cue.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errorf(ErrCodeNotFound, Position{}, "file not found: %s", path)
	}
	if err != nil {
		return nil, errorf(ErrCodeGeneric, Position{}, "reading %s: %v", path, err)
	}
	return Parse(data, path)
}

// Parse parses data as the format named by filename's extension.
func Parse(data []byte, filename string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return ParseYAML(data, filename)
	case ".cue":
		return ParseCUE(data, filename)
	default:
		return nil, errorf(ErrCodeExtension, Position{File: filename}, "unsupported extension %q (want .yaml, .yml or .cue)", filepath.Ext(filename))
	}
}

// IsDocument reports whether path has a document extension.
func IsDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".cue":
		return true
	}
	return false
}

// FindFiles walks dir and returns every document path in lexical order.
func FindFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, errorf(ErrCodeNotFound, Position{}, "directory not found: %s", dir)
	}
	if err != nil {
		return nil, errorf(ErrCodeScanError, Position{}, "error accessing directory: %v", err)
	}
	if !info.IsDir() {
		return nil, errorf(ErrCodeNotFound, Position{}, "not a directory: %s", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsDocument(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errorf(ErrCodeScanError, Position{}, "error scanning directory: %v", err)
	}
	if len(files) == 0 {
		return nil, errorf(ErrCodeNoFiles, Position{}, "no filter documents found in %s", dir)
	}
	return files, nil
}
