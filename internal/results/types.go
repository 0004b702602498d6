// Package results aggregates raw per-backend result sets into the final
// categorized, precedence-ordered, budget-limited response tree.
package results

import (
	"bytes"
	"encoding/json"
)

// Analysis kinds, in display/precedence order. Earlier kinds win when a
// (path, line) pair is hit by more than one kind.
const (
	KindFiles        = "Files"
	KindIDL          = "IDL"
	KindDefinitions  = "Definitions"
	KindAssignments  = "Assignments"
	KindUses         = "Uses"
	KindDeclarations = "Declarations"
	KindTextual      = "Textual Occurrences"
)

// KindPrecedences is the fixed ingestion and display order of analysis kinds
var KindPrecedences = []string{
	KindFiles, KindIDL, KindDefinitions, KindAssignments,
	KindUses, KindDeclarations, KindTextual,
}

// Path kinds, in display order
const (
	PathKindNormal    = "normal"
	PathKindTest      = "test"
	PathKindGenerated = "generated"
)

// PathKindPrecedences is the fixed display order of path kinds
var PathKindPrecedences = []string{PathKindNormal, PathKindTest, PathKindGenerated}

// Budget limits. MaxCount is the hard cap on lines in one response; MaxWork
// caps qualified items ingested per analysis kind when work limiting is on.
const (
	MaxCount = 1000
	MaxWork  = 750
)

// LineMatch is a single matching line within a file
type LineMatch struct {
	Lno        int    `json:"lno"`
	Line       string `json:"line,omitempty"`
	Context    string `json:"context,omitempty"`
	ContextSym string `json:"contextsym,omitempty"`

	// Bounds is the [start, end) highlight range into Line, when known
	Bounds []int `json:"bounds,omitempty"`
}

// PathResult is a path plus its matching lines
type PathResult struct {
	Path  string      `json:"path"`
	Lines []LineMatch `json:"lines"`
}

// KindMap is an analysis-kind-keyed set of path results, as produced by the
// cross-reference store and the search backends
type KindMap map[string][]PathResult

// LineFixup adjusts a LineMatch at finalization time. Contract: given a
// LineMatch with an optional highlight bound, return a possibly-modified
// LineMatch. Used by identifier search to shrink bounds after prefix
// expansion.
type LineFixup func(LineMatch) LineMatch

// Tree is the final response: path kind -> display kind -> path results,
// with every level carrying a deterministic order, plus *title* and
// *timedout* metadata. It serializes to the nested JSON object the client
// consumes.
type Tree struct {
	PathKinds []PathKindGroup
	Title     string
	TimedOut  bool
}

// PathKindGroup is one normal/test/generated bucket of the response
type PathKindGroup struct {
	PathKind string
	Kinds    []KindGroup
}

// KindGroup is one display-kind bucket: an analysis kind, optionally
// qualified by a symbol name, holding ordered path results
type KindGroup struct {
	Kind  string
	Paths []PathResult
}

// MarshalJSON serializes the tree as a nested object, preserving path-kind
// and display-kind ordering. Go maps would lose the ordering the client
// relies on, so the object is written by hand.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for _, pk := range t.PathKinds {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, pk.PathKind)
		buf.WriteByte(':')
		buf.WriteByte('{')
		for i, kg := range pk.Kinds {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(&buf, kg.Kind)
			buf.WriteByte(':')
			paths, err := marshalNoEscape(kg.Paths)
			if err != nil {
				return nil, err
			}
			buf.Write(paths)
		}
		buf.WriteByte('}')
	}

	if buf.Len() > 1 {
		buf.WriteByte(',')
	}
	writeJSONString(&buf, "*title*")
	buf.WriteByte(':')
	writeJSONString(&buf, t.Title)
	buf.WriteByte(',')
	writeJSONString(&buf, "*timedout*")
	buf.WriteByte(':')
	if t.TimedOut {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := marshalNoEscape(s)
	buf.Write(b)
}

// marshalNoEscape marshals without HTML-escaping < > & to \u escapes. The
// serialized tree is either served as plain JSON or embedded into a page
// that defangs it itself; escaped text would hide the sequences that
// defanging looks for.
func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// LineCount returns the total number of lines in the tree
func (t *Tree) LineCount() int {
	n := 0
	for _, pk := range t.PathKinds {
		for _, kg := range pk.Kinds {
			for _, pr := range kg.Paths {
				n += len(pr.Lines)
			}
		}
	}
	return n
}
