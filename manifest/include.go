package manifest

import (
	"fmt"
	"os"
	"path/filepath"
)

// Included is a hierarchy file pulled in through [include].
type Included struct {
	Path     string    // absolute directory
	Manifest *Manifest // the included file
}

// Resolver expands a manifest's includes.
type Resolver struct {
	manifest *Manifest
}

// NewResolver creates a new include resolver.
func NewResolver(m *Manifest) *Resolver {
	return &Resolver{manifest: m}
}

// Resolve loads every included hierarchy file and returns them in load
// order (topologically sorted: includes before includers). A directory
// reached twice is loaded once; a cycle is an error.
func (r *Resolver) Resolve() ([]Included, error) {
	done := make(map[string]bool)
	active := map[string]bool{r.manifest.Dir: true}
	return r.resolveAll(r.manifest, done, active)
}

// resolveAll resolves the includes of m recursively.
func (r *Resolver) resolveAll(m *Manifest, done, active map[string]bool) ([]Included, error) {
	var order []Included

	for _, inc := range m.Include {
		path, err := includePath(m.Dir, inc)
		if err != nil {
			return nil, err
		}
		if active[path] {
			return nil, fmt.Errorf("include cycle through %s", path)
		}
		if done[path] {
			continue // already loaded
		}

		sub, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("including %s: %w", inc, err)
		}

		active[path] = true
		transitive, err := r.resolveAll(sub, done, active)
		if err != nil {
			return nil, err
		}
		delete(active, path)
		done[path] = true

		order = append(order, transitive...)
		order = append(order, Included{Path: path, Manifest: sub})
	}

	return order, nil
}

// includePath resolves an include entry relative to the including file.
func includePath(dir, inc string) (string, error) {
	path := inc
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid include %q: %w", inc, err)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("include %q not found at %s: %w", inc, path, err)
	}
	return path, nil
}

// AllClasses returns the classes of every included file, in load order,
// followed by the manifest's own.
func (r *Resolver) AllClasses() ([]ClassDecl, error) {
	included, err := r.Resolve()
	if err != nil {
		return nil, err
	}
	var classes []ClassDecl
	for _, inc := range included {
		classes = append(classes, inc.Manifest.Classes...)
	}
	return append(classes, r.manifest.Classes...), nil
}
