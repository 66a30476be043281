// Package resolver provides FileResolver implementations that locate
// sibling DAT containers on disk, for AnimationRecord's cross-file
// Torso/Shadow/Body references (§4.7).
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	dat "github.com/krullgor/godat-reader"
)

// DirResolver resolves a numeric FileId to "<dir>/<id>.DAT" (case-insensitive
// on the extension and any zero-padding in the id), opening and caching each
// Container the first time it is referenced. It owns every Container it
// opens and closes them all from Close.
type DirResolver struct {
	dir      string
	fileType dat.FileType
	opts     []dat.ContainerOption

	mu         sync.Mutex
	containers map[uint16]*dat.Container
	entries    map[uint16]string // fileID -> resolved path, built lazily
	listed     bool
}

// NewDirResolver returns a resolver that looks for "<id>.DAT"-style files
// inside dir, opening them with fileType and opts on first reference.
func NewDirResolver(dir string, fileType dat.FileType, opts ...dat.ContainerOption) *DirResolver {
	return &DirResolver{
		dir:        dir,
		fileType:   fileType,
		opts:       opts,
		containers: make(map[uint16]*dat.Container),
	}
}

// Resolve implements dat.FileResolver.
func (r *DirResolver) Resolve(fileID uint16) (*dat.Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.containers[fileID]; ok {
		return c, nil
	}

	path, err := r.locate(fileID)
	if err != nil {
		return nil, err
	}

	c, err := dat.Open(path, r.fileType, r.opts...)
	if err != nil {
		return nil, fmt.Errorf("dirresolver: open %s for file id %d: %w", path, fileID, err)
	}
	r.containers[fileID] = c
	return c, nil
}

// locate scans r.dir once, matching directory entries whose base name
// (minus extension) parses as fileID, tolerating zero-padding and mixed
// case (e.g. both "7.dat" and "007.DAT" resolve file id 7).
func (r *DirResolver) locate(fileID uint16) (string, error) {
	if !r.listed {
		entries, err := os.ReadDir(r.dir)
		if err != nil {
			return "", fmt.Errorf("dirresolver: read %s: %w", r.dir, err)
		}
		r.entries = make(map[uint16]string, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if !strings.EqualFold(filepath.Ext(name), ".dat") {
				continue
			}
			stem := strings.TrimSuffix(name, filepath.Ext(name))
			id, err := strconv.ParseUint(strings.TrimLeft(stem, "0"), 10, 16)
			if err != nil {
				if stem != "" && strings.Trim(stem, "0") == "" {
					id = 0
				} else {
					continue
				}
			}
			r.entries[uint16(id)] = filepath.Join(r.dir, name)
		}
		r.listed = true
	}

	path, ok := r.entries[fileID]
	if !ok {
		return "", fmt.Errorf("dirresolver: no *.DAT file for id %d under %s: %w", fileID, r.dir, dat.ErrCrossReferenceMissing)
	}
	return path, nil
}

// Close closes every Container this resolver has opened.
func (r *DirResolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, c := range r.containers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("dirresolver: close file id %d: %w", id, err)
		}
	}
	r.containers = make(map[uint16]*dat.Container)
	return firstErr
}
