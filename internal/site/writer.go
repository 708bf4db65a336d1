package site

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const tempPrefix = ".tmp-"

// Writer maps routes to files below an output root.
type Writer struct {
	root string
}

func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

func (w *Writer) Root() string { return w.root }

// FilePath is the on-disk location of the route's canonical file.
func (w *Writer) FilePath(route Route) string {
	return w.abs(route.Path())
}

func (w *Writer) abs(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
}

// Write stores doc at the route's canonical path and at each of its aliases.
// Every file is replaced atomically so readers never see partial content.
func (w *Writer) Write(route Route, doc []byte) (string, error) {
	target := w.FilePath(route)
	if err := writeAtomic(target, doc); err != nil {
		return "", err
	}
	for _, alias := range route.Aliases() {
		if err := writeAtomic(w.abs(alias), doc); err != nil {
			return "", err
		}
	}
	return target, nil
}

func writeAtomic(path string, doc []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Exists reports whether the route's canonical file is present.
func (w *Writer) Exists(route Route) bool {
	info, err := os.Stat(w.FilePath(route))
	return err == nil && info.Mode().IsRegular()
}

// Reconcile removes generated files (index.html and feed.xml) whose
// root-relative path is not in keep, then prunes directories left empty.
// Other files, such as static assets, are never touched. It returns the
// removed paths relative to the root, sorted.
func (w *Writer) Reconcile(keep map[string]bool) ([]string, error) {
	var removed []string
	var dirs []string
	err := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) && p == w.root {
				return fs.SkipAll
			}
			return walkErr
		}
		if d.IsDir() {
			if p != w.root {
				dirs = append(dirs, p)
			}
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, tempPrefix) || (name != indexFile && name != feedFile) {
			return nil
		}
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return err
		}
		rel = "/" + filepath.ToSlash(rel)
		if keep[rel] {
			return nil
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale %s: %w", rel, err)
		}
		removed = append(removed, rel)
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("reconcile %s: %w", w.root, err)
	}

	// Deepest first so parents empty out before they are checked.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		os.Remove(dir)
	}
	sort.Strings(removed)
	return removed, nil
}
