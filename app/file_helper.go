package app

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"
)

// FileHelper discovers module files for the scan pipeline.
type FileHelper struct {
	respectGitignore bool
}

// NewFileHelper returns a helper that honors .gitignore by default.
func NewFileHelper() *FileHelper {
	return &FileHelper{respectGitignore: true}
}

// WithGitignore controls whether .gitignore files at the scan roots are
// honored during collection
func (h *FileHelper) WithGitignore(enabled bool) *FileHelper {
	h.respectGitignore = enabled
	return h
}

// CollectModuleFiles collects JavaScript/TypeScript module files from the
// given paths. Roots are walked concurrently and the merged result is
// returned sorted and deduplicated.
func (h *FileHelper) CollectModuleFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	results := make([][]string, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			collected, err := h.collectFromPath(path, recursive, includePatterns, excludePatterns)
			if err != nil {
				return err
			}
			results[i] = collected
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var files []string
	for _, collected := range results {
		files = append(files, collected...)
	}
	sort.Strings(files)

	deduped := files[:0]
	for i, f := range files {
		if i == 0 || f != files[i-1] {
			deduped = append(deduped, f)
		}
	}
	return deduped, nil
}

// collectFromPath collects module files from a single root
func (h *FileHelper) collectFromPath(path string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if h.isCollectable(path, includePatterns, excludePatterns) {
			return []string{path}, nil
		}
		return nil, nil
	}

	ignorer := h.loadGitignore(path)

	if !recursive {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}

		var files []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			filePath := filepath.Join(path, entry.Name())
			if ignorer != nil && ignorer.MatchesPath(entry.Name()) {
				continue
			}
			if h.isCollectable(filePath, includePatterns, excludePatterns) {
				files = append(files, filePath)
			}
		}
		return files, nil
	}

	var files []string
	err = filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip excluded directories early
		if info.IsDir() {
			dirName := filepath.Base(filePath)
			for _, pattern := range excludePatterns {
				if pattern == dirName {
					return filepath.SkipDir
				}
				if matched, _ := filepath.Match(pattern, dirName); matched {
					return filepath.SkipDir
				}
			}
			if ignorer != nil && filePath != path {
				if rel, relErr := filepath.Rel(path, filePath); relErr == nil && ignorer.MatchesPath(rel) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if ignorer != nil {
			if rel, relErr := filepath.Rel(path, filePath); relErr == nil && ignorer.MatchesPath(rel) {
				return nil
			}
		}
		if h.isCollectable(filePath, includePatterns, excludePatterns) {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// FileExists reports whether path names an existing regular file.
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// isCollectable applies the extension, include, and exclude checks
func (h *FileHelper) isCollectable(path string, includePatterns, excludePatterns []string) bool {
	return h.isModuleFile(path) &&
		h.matchesInclude(path, includePatterns) &&
		!h.isExcluded(path, excludePatterns)
}

// isModuleFile recognizes JavaScript/TypeScript files by extension.
func (h *FileHelper) isModuleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs":
		return true
	}
	return false
}

// matchesInclude checks the path against the include patterns. An empty
// pattern list includes everything.
func (h *FileHelper) matchesInclude(path string, includePatterns []string) bool {
	if len(includePatterns) == 0 {
		return true
	}

	base := filepath.Base(path)
	slashPath := filepath.ToSlash(path)
	for _, pattern := range includePatterns {
		// "**/*.ts" style patterns match on the file name
		if matched, _ := filepath.Match(strings.TrimPrefix(pattern, "**/"), base); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, slashPath); matched {
			return true
		}
	}
	return false
}

// isExcluded reports whether any exclude pattern rules the path out.
func (h *FileHelper) isExcluded(path string, excludePatterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range excludePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		// Bare names like "node_modules" exclude by path substring
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

// loadGitignore compiles the .gitignore at a scan root, when present
func (h *FileHelper) loadGitignore(root string) *gitignore.GitIgnore {
	if !h.respectGitignore {
		return nil
	}
	ignorer, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignorer
}

// ResolveModulePaths returns the inputs unchanged when every path is an
// existing file, and otherwise collects module files from the roots.
func ResolveModulePaths(fileHelper *FileHelper, paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	for _, path := range paths {
		exists, err := fileHelper.FileExists(path)
		if err != nil || !exists {
			return fileHelper.CollectModuleFiles(paths, recursive, includePatterns, excludePatterns)
		}
	}
	return paths, nil
}
