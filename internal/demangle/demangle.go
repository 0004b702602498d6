// Package demangle turns mangled symbol names into readable ones. It is a
// best-effort wrapper around c++filt: when the tool is missing or rejects
// the input, the symbol comes back unchanged.
package demangle

import (
	"os/exec"
	"strings"
)

// Demangler shells out to c++filt. The tool is located once at
// construction; a Demangler with no tool is still usable and acts as the
// identity transform.
type Demangler struct {
	tool string
}

// New locates c++filt on PATH
func New() *Demangler {
	tool, err := exec.LookPath("c++filt")
	if err != nil {
		return &Demangler{}
	}
	return &Demangler{tool: tool}
}

// Demangle returns the demangled form of sym, or sym itself when
// demangling is unavailable or fails.
func (d *Demangler) Demangle(sym string) string {
	if d.tool == "" {
		return sym
	}

	out, err := exec.Command(d.tool, "--no-params", sym).Output()
	if err != nil {
		return sym
	}

	demangled := strings.TrimSpace(string(out))
	if demangled == "" {
		return sym
	}
	return demangled
}
