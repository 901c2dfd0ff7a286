// Package yang builds effective schema models from YANG modules.
package yang

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/jacoelho/yang/internal/reactor"
	"github.com/jacoelho/yang/internal/source"
	"github.com/jacoelho/yang/internal/yangtext"
)

// Build processes sources together and returns their schema context.
// Build failures are reported as *errors.ReactorError.
func Build(ctx context.Context, opts BuildOptions, sources ...Source) (*SchemaContext, error) {
	resolved, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("build options: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("build schema: no sources")
	}
	res, err := reactor.Build(ctx, resolved.config(), sources...)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return newSchemaContext(res), nil
}

// ParseSource parses YANG text into a source for Build.
func ParseSource(path string, data []byte) (Source, error) {
	tree, err := yangtext.Parse(path, data)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// BuildFS reads and builds the modules at paths in fsys. A directory path
// contributes every .yang file directly inside it.
func BuildFS(ctx context.Context, fsys fs.FS, paths []string, opts BuildOptions) (*SchemaContext, error) {
	if fsys == nil {
		return nil, fmt.Errorf("build schema: nil fs")
	}
	resolver := source.NewFSResolver(fsys)
	files, err := expandPaths(paths, func(p string) (bool, error) {
		info, err := fs.Stat(fsys, p)
		if err != nil {
			return false, err
		}
		return info.IsDir(), nil
	}, resolver.ModuleFiles)
	if err != nil {
		return nil, err
	}
	sources, err := parseAll(ctx, files, func(p string) (Source, error) {
		doc, systemID, err := resolver.Resolve("", p)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", p, err)
		}
		defer doc.Close()
		return yangtext.ParseReader(systemID, doc)
	})
	if err != nil {
		return nil, err
	}
	return Build(ctx, opts, sources...)
}

// BuildFiles reads and builds the modules at paths on the local
// filesystem. A directory path contributes every .yang file directly
// inside it.
func BuildFiles(ctx context.Context, opts BuildOptions, paths ...string) (*SchemaContext, error) {
	files, err := expandPaths(paths, func(p string) (bool, error) {
		info, err := os.Stat(p)
		if err != nil {
			return false, err
		}
		return info.IsDir(), nil
	}, moduleFilesOnDisk)
	if err != nil {
		return nil, err
	}
	sources, err := parseAll(ctx, files, func(p string) (Source, error) {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		return ParseSource(p, data)
	})
	if err != nil {
		return nil, err
	}
	return Build(ctx, opts, sources...)
}

func expandPaths(paths []string, isDir func(string) (bool, error), list func(string) ([]string, error)) ([]string, error) {
	var files []string
	for _, p := range paths {
		dir, err := isDir(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !dir {
			files = append(files, p)
			continue
		}
		inDir, err := list(p)
		if err != nil {
			return nil, err
		}
		files = append(files, inDir...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .yang files in %v", paths)
	}
	return files, nil
}

func moduleFilesOnDisk(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yang" {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(out)
	return out, nil
}

// parseAll parses files concurrently, keeping their order.
func parseAll(ctx context.Context, files []string, parse func(string) (Source, error)) ([]Source, error) {
	sources := make([]Source, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := parse(file)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}
