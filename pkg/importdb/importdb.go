// Package importdb builds the layered import database pyflyby
// consults when resolving missing names and rewriting imports
// (spec.md §4.7): known_imports, mandatory_imports, forget_imports,
// canonical_imports, and preferred_import, merged left-to-right across
// an ordered list of contributor roots.
package importdb

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deshaw/pyflyby/internal/log"
	"github.com/deshaw/pyflyby/internal/scanner"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/ident"
	"github.com/deshaw/pyflyby/pkg/imports"
	"github.com/deshaw/pyflyby/pkg/importset"
)

// DB is an ImportDB: the five layered ImportSets named in spec.md §3
// collapse here into KnownImports/MandatoryImports/ForgetImports plus
// CanonicalImports (the rewrite-rule map) and PreferredImport (the one
// ImportMap, keyed by the bound name it disambiguates).
type DB struct {
	KnownImports     *importset.Set
	MandatoryImports *importset.Set
	ForgetImports    *importset.Set
	CanonicalImports map[string]imports.RewriteRule // keyed by Old.String(), last writer wins
	PreferredImport  *importset.Map
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		KnownImports:     importset.New(),
		MandatoryImports: importset.New(),
		ForgetImports:    importset.New(),
		CanonicalImports: make(map[string]imports.RewriteRule),
		PreferredImport:  importset.NewMap(),
	}
}

// Preferred returns the preferred candidate for boundName among
// `known_imports`, if one was set by a contributor's
// `__preferred_imports__` directive.
func (db *DB) Preferred(boundName string) (imports.Import, bool) {
	key, err := ident.Parse(boundName)
	if err != nil {
		return imports.Import{}, false
	}
	set := db.PreferredImport.Get(key)
	items := set.Items()
	if len(items) == 0 {
		return imports.Import{}, false
	}
	return items[0], true
}

// CanonicalRewrites returns the canonical_imports rules in a
// deterministic order (by OLD fullname), for iteration by the
// rewriter's canonicalize_imports/tidy_imports primitives.
func (db *DB) CanonicalRewrites() []imports.RewriteRule {
	out := make([]imports.RewriteRule, 0, len(db.CanonicalImports))
	for _, rule := range db.CanonicalImports {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Old.String() < out[j].Old.String() })
	return out
}

// defaultPathSpec is DEFAULT_PYFLYBY_PATH: ".../.pyflyby" (ancestor
// search from the target file) followed by "~/.pyflyby".
func defaultPathSpec() []string {
	return []string{".../.pyflyby", "~/.pyflyby"}
}

// ResolveRoots expands pathSpec into a concrete, ordered list of
// existing files and directories to scan, resolving the "-"/"..."
// sentinel (expand to the default path) and ".../name" ancestor-search
// sentinels (spec.md §4.7) relative to absTargetFile.
func ResolveRoots(pathSpec []string, absTargetFile string) ([]string, error) {
	if len(pathSpec) == 0 {
		pathSpec = defaultPathSpec()
	}

	var roots []string
	for _, entry := range pathSpec {
		if entry == "-" || entry == "..." {
			expanded, err := ResolveRoots(defaultPathSpec(), absTargetFile)
			if err != nil {
				return nil, err
			}
			roots = append(roots, expanded...)
			continue
		}
		if strings.HasPrefix(entry, ".../") {
			name := strings.TrimPrefix(entry, ".../")
			roots = append(roots, ancestorMatches(absTargetFile, name)...)
			continue
		}
		resolved, err := expandHome(entry)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(resolved); err == nil {
			roots = append(roots, resolved)
		}
	}
	return roots, nil
}

// ancestorMatches walks every ancestor directory of absTargetFile,
// deepest first, stopping at the filesystem root, collecting any
// directory entry named name that exists.
func ancestorMatches(absTargetFile, name string) []string {
	dir := filepath.Dir(absTargetFile)
	var matches []string
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			matches = append(matches, candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return matches
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("importdb: resolving home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// contributorFiles lists every contributor under root: root itself if
// it is a file, or every TargetExt file beneath it in stable sorted
// order if it is a directory (spec.md §4.7).
func contributorFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	files, err := scanner.Scan(root)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.FullPath
	}
	return out, nil
}

// Build constructs a DB from pathSpec, resolved relative to
// absTargetFile, reading and layering every contributor file
// left-to-right. A contributor that vanishes between resolution and
// read is treated as absent, not an error (spec.md §4's suspension
// rules). Diagnostics receives a warning for every unrecognized
// top-level statement and malformed directive string.
func Build(pathSpec []string, absTargetFile string, diags *log.Diagnostics) (*DB, error) {
	roots, err := ResolveRoots(pathSpec, absTargetFile)
	if err != nil {
		return nil, err
	}

	db := New()
	for _, root := range roots {
		files, err := contributorFiles(root)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if err := db.mergeContributor(file, diags); err != nil {
				return nil, err
			}
		}
	}
	return db, nil
}

// mergeContributor reads and layers a single contributor file into db,
// following the left-to-right merge order in spec.md §4.7: a
// `__forget_imports__` entry removes matching fullnames from
// known_imports and mandatory_imports accumulated so far; a top-level
// import statement adds to known_imports; `__mandatory_imports__` adds
// to mandatory_imports; `__canonical_imports__` and
// `__preferred_imports__` merge into their maps, last writer wins.
func (db *DB) mergeContributor(path string, diags *log.Diagnostics) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	directives, err := parseContributor(string(data))
	if err != nil {
		return fmt.Errorf("importdb: reading %s: %w", path, err)
	}

	for _, d := range directives {
		switch d.kind {
		case directiveImport:
			stmt, perr := imports.ParseStatement(d.text)
			if perr != nil {
				diags.Warnf(path, ftext.FilePos{Line: d.line, Column: 1}, "not a valid import statement: %s", d.text)
				continue
			}
			for _, im := range stmt.Split() {
				db.KnownImports.Add(im)
			}
		case directiveMandatory:
			for _, text := range d.items {
				stmt, perr := imports.ParseStatement(text)
				if perr != nil {
					diags.Warnf(path, ftext.FilePos{Line: d.line, Column: 1}, "malformed __mandatory_imports__ entry: %s", text)
					continue
				}
				for _, im := range stmt.Split() {
					db.MandatoryImports.Add(im)
				}
			}
		case directiveForget:
			for _, text := range d.items {
				stmt, perr := imports.ParseStatement(text)
				if perr != nil {
					diags.Warnf(path, ftext.FilePos{Line: d.line, Column: 1}, "malformed __forget_imports__ entry: %s", text)
					continue
				}
				for _, im := range stmt.Split() {
					db.forget(im)
				}
			}
		case directivePreferred:
			for name, text := range d.mapping {
				stmt, perr := imports.ParseStatement(text)
				if perr != nil {
					diags.Warnf(path, ftext.FilePos{Line: d.line, Column: 1}, "malformed __preferred_imports__ entry: %s", text)
					continue
				}
				aliases := stmt.Split()
				if len(aliases) != 1 {
					diags.Warnf(path, ftext.FilePos{Line: d.line, Column: 1}, "__preferred_imports__[%s] must name exactly one import", name)
					continue
				}
				key, kerr := ident.Parse(name)
				if kerr != nil {
					diags.Warnf(path, ftext.FilePos{Line: d.line, Column: 1}, "__preferred_imports__ key %q is not a valid name", name)
					continue
				}
				bucket := db.PreferredImport.Get(key)
				for _, existing := range bucket.Items() {
					bucket.Remove(existing)
				}
				bucket.Add(aliases[0])
			}
		case directiveCanonical:
			for oldText, newText := range d.mapping {
				oldName, operr := ident.Parse(oldText)
				if operr != nil {
					diags.Warnf(path, ftext.FilePos{Line: d.line, Column: 1}, "malformed __canonical_imports__ key: %s", oldText)
					continue
				}
				newName, nerr := ident.Parse(newText)
				if nerr != nil {
					diags.Warnf(path, ftext.FilePos{Line: d.line, Column: 1}, "malformed __canonical_imports__ value: %s", newText)
					continue
				}
				db.CanonicalImports[oldName.String()] = imports.RewriteRule{Old: oldName, New: newName}
			}
		case directiveIgnored:
			diags.Warnf(path, ftext.FilePos{Line: d.line, Column: 1}, "ignoring unrecognized top-level statement: %s", d.text)
		}
	}
	return nil
}

// forget matches by fullname only (spec.md §8's resolved Open
// Question: `forget_imports` does not also key off bound name, since a
// contributor wants to retract a specific module regardless of how a
// later file aliases it).
func (db *DB) forget(im imports.Import) {
	for _, candidate := range db.KnownImports.ByFullname(im.Fullname) {
		db.KnownImports.Remove(candidate)
	}
	for _, candidate := range db.MandatoryImports.ByFullname(im.Fullname) {
		db.MandatoryImports.Remove(candidate)
	}
	db.ForgetImports.Add(im)
}
