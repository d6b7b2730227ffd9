package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// File is a regular file found by Folder.
type File struct {
	// Path is the absolute path of the file, rooted at the resolved scan root.
	Path string

	// Entry is the directory entry the file was found through. For a
	// symlink to a regular file, Entry describes the link.
	Entry fs.DirEntry
}

type queued struct {
	path  string
	depth int
}

// Folder lists the regular files beneath path.
//
// If path is a file, its parent directory is scanned. The root must exist;
// it is made absolute with symlinks resolved. Returns ErrNotFound if it does
// not exist and a *ScanError for unreadable directories.
func Folder(ctx context.Context, path string, opts ...Option) ([]File, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	root, err := resolveRoot(path)
	if err != nil {
		return nil, err
	}

	visited := map[string]struct{}{root: {}}
	queue := []queued{{path: root}}
	files := make([]File, 0)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := queue[0]
		queue = queue[1:]

		cfg.logger.Info("scanning directory", "path", dir.path)
		entries, err := os.ReadDir(dir.path)
		if err != nil {
			scanErr := &ScanError{Path: dir.path, Err: err}
			if cfg.continueOnError && dir.depth > 0 {
				cfg.logger.Warn("skipping unreadable directory", "path", dir.path, "error", err)
				continue
			}
			return nil, scanErr
		}

		for _, entry := range entries {
			full := filepath.Join(dir.path, entry.Name())

			switch {
			case entry.Type().IsRegular():
				files = append(files, File{Path: full, Entry: entry})

			case entry.IsDir():
				if cfg.descend(entry.Name(), dir.depth) && cfg.firstVisit(visited, full) {
					queue = append(queue, queued{path: full, depth: dir.depth + 1})
				}

			case entry.Type()&fs.ModeSymlink != 0:
				info, err := os.Stat(full)
				if err != nil {
					cfg.logger.Debug("skipping broken symlink", "path", full, "error", err)
					continue
				}
				if info.Mode().IsRegular() {
					files = append(files, File{Path: full, Entry: entry})
					continue
				}
				if info.IsDir() && cfg.followSymlinks && cfg.descend(entry.Name(), dir.depth) && cfg.firstVisit(visited, full) {
					queue = append(queue, queued{path: full, depth: dir.depth + 1})
				}
			}
		}
	}

	return files, nil
}

// descend reports whether a subdirectory named name of a directory at depth
// should be visited.
func (c *config) descend(name string, depth int) bool {
	if !c.recursive {
		return false
	}
	if _, skip := c.skipDirs[name]; skip {
		return false
	}
	return c.maxDepth == 0 || depth+1 <= c.maxDepth
}

// firstVisit records the resolved form of dir and reports whether it had
// not been seen before. Without symlink following every directory path is
// already unique, so nothing is recorded.
func (c *config) firstVisit(visited map[string]struct{}, dir string) bool {
	if !c.followSymlinks {
		return true
	}
	target, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return false
	}
	if _, seen := visited[target]; seen {
		return false
	}
	visited[target] = struct{}{}
	return true
}

// resolveRoot returns the absolute, symlink-free directory to scan.
func resolveRoot(path string) (string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return "", &ScanError{Path: path, Err: err}
	}
	if !info.IsDir() {
		path = filepath.Dir(path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &ScanError{Path: path, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &ScanError{Path: abs, Err: err}
	}
	return resolved, nil
}

// Paths returns the paths of files in order.
func Paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

// fileCandidate holds a file and its cached modification time.
type fileCandidate struct {
	file    File
	modTime int64
}

// Newest returns the most recently modified file among files.
//
// Each file is stat-ed once and the cached times are sorted, so a file
// removed during the call is skipped rather than failing the sort.
// Returns ErrNotFound if none of the files can be stat-ed.
func Newest(files []File) (File, error) {
	candidates := make([]fileCandidate, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, fileCandidate{file: f, modTime: info.ModTime().UnixNano()})
	}

	if len(candidates) == 0 {
		return File{}, fmt.Errorf("%w: no regular files", ErrNotFound)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})
	return candidates[0].file, nil
}
