// Package manifest reads the pinned dependency declaration consumed by the
// install stage.
//
// The manifest is immutable input: it is parsed for ordering and diagnostics
// only, never generated or rewritten. Resolution semantics stay with pip; an
// Entry's Raw text is handed to pip verbatim.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entry is one requirement line: the raw specifier pip receives, plus the
// parsed package name and version constraint used for snapshots and
// diagnostics.
type Entry struct {
	// Raw is the exact specifier handed to pip (extras and environment
	// markers included).
	Raw string

	// Name is the distribution name prefix of the specifier.
	Name string

	// Constraint is the remainder of the specifier after the name, trimmed.
	// Empty for unconstrained entries.
	Constraint string

	// Line is the 1-based line number in the manifest file.
	Line int
}

// Manifest is the ordered list of requirement entries.
type Manifest struct {
	Path    string
	Entries []Entry
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse parses requirement lines from r. Blank lines and comments are
// skipped. Installation is per-entry, so pip option lines (-r, -e,
// --index-url, ...) cannot be honored and are rejected up front rather than
// silently mangled.
func Parse(r io.Reader, path string) (*Manifest, error) {
	m := &Manifest{Path: path}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "-") {
			return nil, fmt.Errorf("%s:%d: pip option lines are not supported in the manifest: %q", path, lineNo, line)
		}
		line = stripInlineComment(line)
		if line == "" {
			continue
		}

		name, constraint := splitSpecifier(line)
		if name == "" {
			return nil, fmt.Errorf("%s:%d: cannot determine package name: %q", path, lineNo, line)
		}
		m.Entries = append(m.Entries, Entry{
			Raw:        line,
			Name:       name,
			Constraint: constraint,
			Line:       lineNo,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if len(m.Entries) == 0 {
		return nil, fmt.Errorf("%s: manifest declares no packages", path)
	}
	return m, nil
}

// stripInlineComment removes a trailing " # ..." comment. A '#' inside a
// specifier (no preceding whitespace) is left alone, matching pip.
func stripInlineComment(line string) string {
	for i := 1; i < len(line); i++ {
		if line[i] == '#' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return strings.TrimSpace(line[:i])
		}
	}
	if strings.HasPrefix(line, "#") {
		return ""
	}
	return strings.TrimSpace(line)
}

// splitSpecifier splits a requirement into its distribution name and the
// trailing constraint text (version operators, extras, markers).
func splitSpecifier(spec string) (name, constraint string) {
	i := 0
	for i < len(spec) {
		c := spec[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
			c == '.' || c == '-' || c == '_' {
			i++
			continue
		}
		break
	}
	return spec[:i], strings.TrimSpace(spec[i:])
}

// Names returns the package names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		names[i] = e.Name
	}
	return names
}
