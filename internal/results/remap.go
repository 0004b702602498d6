package results

// keyRemapping maps the cross-reference store's key scheme onto the display
// kinds. A nil value drops the key: the display side has no representation
// for those records. The "conumes" entry is carried over from the index
// producer as-is; renaming it needs coordination with the index owners.
var keyRemapping = map[string]string{
	"uses":        KindUses,
	"defs":        KindDefinitions,
	"assignments": KindAssignments,
	"decls":       KindDeclarations,
	"idl":         KindIDL,
	"conumes":     "",
}

// ExpandKeys produces a new KindMap with the store's keys renamed to display
// kinds. Keys with no mapping pass through untouched; keys mapped to nothing
// are dropped.
func ExpandKeys(stored KindMap) KindMap {
	out := make(KindMap, len(stored))
	for key, paths := range stored {
		mapped, known := keyRemapping[key]
		if !known {
			out[key] = paths
			continue
		}
		if mapped == "" {
			continue
		}
		out[mapped] = paths
	}
	return out
}
