package localfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Expand returns the regular files named by paths. Files are kept as given;
// directories are walked recursively in lexical order, skipping hidden
// entries unless opts.IncludeHidden is set. Duplicates are dropped.
func Expand(paths []string, opts ExpandOptions) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		key := filepath.Clean(path)
		if !seen[key] {
			seen[key] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot share %s: %w", path, err)
		}
		if !info.IsDir() {
			if !info.Mode().IsRegular() {
				return nil, fmt.Errorf("cannot share %s: not a regular file", path)
			}
			add(path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable entries are skipped, the rest of the tree is still shared
				if d != nil && d.IsDir() && p != path {
					return filepath.SkipDir
				}
				return nil
			}
			if p != path && !opts.IncludeHidden && IsHiddenName(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	}
	return files, nil
}
