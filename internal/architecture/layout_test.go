package architecture_test

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"testing"
)

func TestCorePackagesHaveDoc(t *testing.T) {
	root := repoRoot(t)
	required := []string{
		"errors",
		"internal/phase",
		"internal/namespace",
		"internal/source",
		"internal/model",
		"internal/reactor",
		"internal/rfc7950",
		"internal/yangtext",
		"internal/dump",
		"internal/config",
	}

	fset := token.NewFileSet()
	for _, rel := range required {
		files, err := sourceFiles(filepath.Join(root, rel))
		if err != nil {
			t.Fatalf("read %s: %v", rel, err)
		}
		documented := false
		for _, file := range files {
			node, err := parser.ParseFile(fset, file, nil, parser.PackageClauseOnly|parser.ParseComments)
			if err != nil {
				t.Fatalf("parse %s: %v", file, err)
			}
			if node.Doc != nil {
				documented = true
				break
			}
		}
		if !documented {
			t.Errorf("missing package doc: %s", rel)
		}
	}
}
