package results

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTreeMarshalJSON(t *testing.T) {
	tree := &Tree{
		PathKinds: []PathKindGroup{
			{
				PathKind: PathKindNormal,
				Kinds: []KindGroup{
					{
						Kind: KindDefinitions,
						Paths: []PathResult{{
							Path:  "dom/base.cpp",
							Lines: []LineMatch{{Lno: 12, Line: "void Foo()", Bounds: []int{5, 8}}},
						}},
					},
					{
						Kind:  KindFiles,
						Paths: []PathResult{{Path: "dom/other.cpp", Lines: []LineMatch{}}},
					},
				},
			},
			{
				PathKind: PathKindTest,
				Kinds: []KindGroup{
					{
						Kind:  KindTextual,
						Paths: []PathResult{{Path: "dom/test/t.html", Lines: []LineMatch{{Lno: 3, Line: "Foo"}}}},
					},
				},
			},
		},
		Title:    "Symbol Foo",
		TimedOut: true,
	}

	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	s := string(data)

	// Round-trips as a generic object.
	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if generic["*title*"] != "Symbol Foo" {
		t.Errorf("*title* = %v", generic["*title*"])
	}
	if generic["*timedout*"] != true {
		t.Errorf("*timedout* = %v", generic["*timedout*"])
	}

	// Path-kind order is preserved in the serialized text.
	if strings.Index(s, `"normal"`) > strings.Index(s, `"test"`) {
		t.Errorf("normal should precede test in %s", s)
	}
	// Display-kind order likewise.
	if strings.Index(s, `"Definitions"`) > strings.Index(s, `"Files"`) {
		t.Errorf("Definitions should precede Files in %s", s)
	}
	// Empty Files listing serializes with an empty lines array, not null.
	if !strings.Contains(s, `"lines":[]`) {
		t.Errorf("empty lines should serialize as []: %s", s)
	}
	if !strings.Contains(s, `"bounds":[5,8]`) {
		t.Errorf("bounds missing: %s", s)
	}
}

func TestTreeMarshalDoesNotEscapeHTML(t *testing.T) {
	tree := &Tree{
		PathKinds: []PathKindGroup{{
			PathKind: PathKindNormal,
			Kinds: []KindGroup{{
				Kind: KindDefinitions,
				Paths: []PathResult{{
					Path:  "dom/foo.cpp",
					Lines: []LineMatch{{Lno: 1, Line: "void foo() </script>"}},
				}},
			}},
		}},
		Title: "x",
	}

	// The page embedding this JSON defangs </ and <script itself; <
	// escaping would hide those sequences from it.
	data, err := tree.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON error: %v", err)
	}
	if !strings.Contains(string(data), `void foo() </script>`) {
		t.Errorf("angle brackets escaped: %s", data)
	}
	if strings.Contains(string(data), `\u003c`) {
		t.Errorf("unexpected unicode escape: %s", data)
	}
}

func TestTreeMarshalEmpty(t *testing.T) {
	tree := &Tree{Title: "x"}
	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"*title*":"x","*timedout*":false}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}

func TestRawResults(t *testing.T) {
	raw := NewRawResults()
	raw.SetPathFilter("^dom/")
	raw.AddSymbol("_Z3foov", "foo", KindMap{
		"defs": {{Path: "dom/foo.cpp", Lines: []LineMatch{{Lno: 4}}}},
		"uses": {{Path: "layout/bar.cpp", Lines: []LineMatch{{Lno: 9}}}},
	})
	raw.AddPaths([]PathResult{
		{Path: "dom/foo.cpp", Lines: []LineMatch{}},
		{Path: "widget/gtk.cpp", Lines: []LineMatch{}},
	})

	tree := raw.Build()

	if len(tree.PathKinds) != 1 || tree.PathKinds[0].PathKind != PathKindNormal {
		t.Fatalf("PathKinds = %+v", tree.PathKinds)
	}
	kinds := tree.PathKinds[0].Kinds
	// Files first (precedence), then the qualified Definitions group; the
	// layout/ use and widget/ path are filtered out.
	if len(kinds) != 2 {
		t.Fatalf("Kinds = %d, want 2", len(kinds))
	}
	if kinds[0].Kind != KindFiles {
		t.Errorf("kinds[0] = %q, want Files", kinds[0].Kind)
	}
	if kinds[1].Kind != "Definitions (foo)" {
		t.Errorf("kinds[1] = %q, want Definitions (foo)", kinds[1].Kind)
	}
}
