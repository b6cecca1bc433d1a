package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
)

// documentFiles resolves --file and --dir into the documents to process.
// A directory contributes its *.yaml and *.yml files, sorted.
func documentFiles(file, dir string) ([]string, error) {
	if file == "" && dir == "" {
		return nil, errors.New("either --file or --dir must be specified")
	}

	var files []string
	if file != "" {
		files = append(files, file)
	}
	if dir != "" {
		var matches []string
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			m, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, fmt.Errorf("failed to list documents: %w", err)
			}
			matches = append(matches, m...)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no documents found in %s", dir)
	}
	return files, nil
}
