package source

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// Resolver opens source documents by location.
type Resolver interface {
	Resolve(base, location string) (doc io.ReadCloser, systemID string, err error)
}

// FSResolver resolves documents from an fs.FS with strict path validation.
type FSResolver struct {
	fsys fs.FS
}

// NewFSResolver creates a resolver backed by the provided filesystem.
func NewFSResolver(fsys fs.FS) *FSResolver {
	return &FSResolver{fsys: fsys}
}

// Resolve implements Resolver.
func (r *FSResolver) Resolve(base, location string) (io.ReadCloser, string, error) {
	if r == nil || r.fsys == nil {
		return nil, "", fmt.Errorf("no filesystem configured")
	}
	if location == "" {
		return nil, "", fs.ErrNotExist
	}
	systemID, err := resolveSystemID(base, location)
	if err != nil {
		return nil, "", err
	}
	f, err := r.fsys.Open(systemID)
	if err != nil {
		return nil, "", err
	}
	return f, systemID, nil
}

// ModuleFiles lists the .yang files directly under dir, sorted.
func (r *FSResolver) ModuleFiles(dir string) ([]string, error) {
	if r == nil || r.fsys == nil {
		return nil, fmt.Errorf("no filesystem configured")
	}
	entries, err := fs.ReadDir(r.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yang" {
			continue
		}
		out = append(out, path.Join(dir, entry.Name()))
	}
	slices.Sort(out)
	return out, nil
}

// FileIdentifier derives an identifier from a "name@revision.yang" file
// name. The revision part is optional.
func FileIdentifier(systemID string) Identifier {
	name := strings.TrimSuffix(path.Base(systemID), ".yang")
	if before, after, ok := strings.Cut(name, "@"); ok {
		return Identifier{Name: before, Revision: after}
	}
	return Identifier{Name: name}
}

func resolveSystemID(base, location string) (string, error) {
	if strings.Contains(location, "\\") {
		return "", fmt.Errorf("location contains backslash: %q", location)
	}
	if strings.HasPrefix(location, "/") {
		return "", fmt.Errorf("location must be relative: %q", location)
	}
	if base != "" && strings.Contains(base, "\\") {
		return "", fmt.Errorf("base contains backslash: %q", base)
	}
	if slices.Contains(strings.Split(location, "/"), "") {
		return "", fmt.Errorf("invalid location segment: %q", location)
	}
	joined := path.Clean(location)
	if dir := baseDir(base); dir != "" {
		joined = path.Clean(dir + "/" + location)
	}
	if joined == "." {
		return "", fmt.Errorf("location is empty")
	}
	if strings.HasPrefix(joined, "../") || joined == ".." {
		return "", fmt.Errorf("location escapes root: %q", location)
	}
	return joined, nil
}

func baseDir(systemID string) string {
	idx := strings.LastIndex(systemID, "/")
	if idx == -1 {
		return ""
	}
	return systemID[:idx]
}
