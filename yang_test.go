package yang_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jacoelho/yang"
	"github.com/jacoelho/yang/errors"
)

const ifModule = `module interfaces {
  yang-version 1.1;
  namespace "urn:example:interfaces";
  prefix if;
  revision 2024-05-01;
  feature stats;
  grouping counters {
    leaf in-octets { type uint64; }
    leaf out-octets { type uint64; }
  }
  container interfaces {
    list interface {
      key "name";
      leaf name { type string; }
      container statistics {
        if-feature stats;
        config false;
        uses counters;
      }
    }
  }
}`

const ifOldModule = `module interfaces {
  namespace "urn:example:interfaces";
  prefix if;
  revision 2023-01-01;
  container interfaces;
}`

const ipModule = `module ip {
  namespace "urn:example:ip";
  prefix ip;
  import interfaces { prefix if; }
  augment "/if:interfaces/if:interface" {
    leaf mtu { type uint16; }
  }
}`

func quietOptions() yang.BuildOptions {
	return yang.NewBuildOptions().
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithTracerProvider(tracenoop.NewTracerProvider()).
		WithMeterProvider(noop.NewMeterProvider())
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"models/interfaces@2024-05-01.yang": &fstest.MapFile{Data: []byte(ifModule)},
		"models/interfaces@2023-01-01.yang": &fstest.MapFile{Data: []byte(ifOldModule)},
		"models/ip.yang":                    &fstest.MapFile{Data: []byte(ipModule)},
		"models/README.md":                  &fstest.MapFile{Data: []byte("not yang")},
	}
}

func TestBuildFS(t *testing.T) {
	sc, err := yang.BuildFS(context.Background(), testFS(), []string{"models"}, quietOptions().WithBuildID("b-1"))
	require.NoError(t, err)

	assert.Equal(t, "b-1", sc.BuildID())
	assert.Len(t, sc.DeclaredRoots(), 3)
	assert.Len(t, sc.EffectiveRoots(), 3)
	assert.Len(t, sc.Modules(), 3)
	assert.Positive(t, sc.Stats().Statements)

	ifm, ok := sc.Module("interfaces")
	require.True(t, ok)
	assert.Equal(t, yang.Identifier{Name: "interfaces", Revision: "2024-05-01"}, yang.ModuleIdentifier(ifm))
	_, ok = sc.Module("missing")
	assert.False(t, ok)

	ns := ifm.Module()
	iface, ok := sc.FindSchemaNode(yang.NewQName(ns, "interfaces"), yang.NewQName(ns, "interface"))
	require.True(t, ok)
	assert.Equal(t, "list", iface.Keyword())

	ipm, ok := sc.Module("ip")
	require.True(t, ok)
	mtu, ok := sc.FindSchemaNode(yang.NewQName(ns, "interfaces"), yang.NewQName(ns, "interface"),
		yang.NewQName(ipm.Module(), "mtu"))
	require.True(t, ok)
	assert.Equal(t, "leaf", mtu.Keyword())

	octets, ok := sc.FindSchemaNode(yang.NewQName(ns, "interfaces"), yang.NewQName(ns, "interface"),
		yang.NewQName(ns, "statistics"), yang.NewQName(ns, "in-octets"))
	require.True(t, ok)
	assert.True(t, octets.Flags().Has(yang.FlagAddedByUses|yang.FlagConfigFalse))

	_, ok = sc.FindSchemaNode()
	assert.False(t, ok)
	_, ok = sc.FindSchemaNode(yang.NewQName(yang.Module{Namespace: "urn:none"}, "x"))
	assert.False(t, ok)
}

func TestBuildWithSupportedFeatures(t *testing.T) {
	opts := quietOptions().WithSupportedFeatures()
	sc, err := yang.BuildFS(context.Background(), testFS(), []string{"models/interfaces@2024-05-01.yang"}, opts)
	require.NoError(t, err)

	ifm, _ := sc.Module("interfaces")
	ns := ifm.Module()
	_, ok := sc.FindSchemaNode(yang.NewQName(ns, "interfaces"), yang.NewQName(ns, "interface"), yang.NewQName(ns, "statistics"))
	assert.False(t, ok)

	sc, err = yang.BuildFS(context.Background(), testFS(), []string{"models/interfaces@2024-05-01.yang"},
		quietOptions().WithSupportedFeatures("interfaces:stats"))
	require.NoError(t, err)
	_, ok = sc.FindSchemaNode(yang.NewQName(ns, "interfaces"), yang.NewQName(ns, "interface"), yang.NewQName(ns, "statistics"))
	assert.True(t, ok)
}

func TestBuildOptionsValidate(t *testing.T) {
	assert.NoError(t, yang.NewBuildOptions().Validate())
	assert.NoError(t, yang.NewBuildOptions().WithSupportedFeatures("m:f").Validate())

	for _, bad := range []string{"f", "m:", ":f", "m:f:g", "1m:f"} {
		err := yang.NewBuildOptions().WithSupportedFeatures(bad).Validate()
		assert.Error(t, err, bad)
	}

	_, err := yang.BuildFS(context.Background(), testFS(), []string{"models"}, quietOptions().WithSupportedFeatures("bad"))
	assert.ErrorContains(t, err, "build options")
}

func TestBuildStrictVersion(t *testing.T) {
	text := `module a { namespace "urn:a"; prefix a; anydata d; }`
	src, err := yang.ParseSource("a.yang", []byte(text))
	require.NoError(t, err)

	_, err = yang.Build(context.Background(), quietOptions(), src)
	assert.True(t, errors.HasCode(err, errors.ErrVersion))

	src, err = yang.ParseSource("a.yang", []byte(text))
	require.NoError(t, err)
	_, err = yang.Build(context.Background(), quietOptions().WithStrictVersion(false), src)
	assert.NoError(t, err)
}

func TestBuildReportsReactorError(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yang": &fstest.MapFile{Data: []byte(`module a {
  namespace "urn:a";
  prefix a;
  import missing { prefix m; }
  container c { uses nope; }
}`)},
	}
	_, err := yang.BuildFS(context.Background(), fsys, []string{"a.yang"}, quietOptions())
	require.Error(t, err)
	re, ok := errors.AsReactor(err)
	require.True(t, ok)
	assert.Equal(t, "a", re.Source)
	assert.True(t, errors.HasCode(err, errors.ErrUnresolved))
}

func TestBuildFSErrors(t *testing.T) {
	ctx := context.Background()

	_, err := yang.BuildFS(ctx, nil, []string{"a.yang"}, quietOptions())
	assert.Error(t, err)

	_, err = yang.BuildFS(ctx, testFS(), []string{"missing.yang"}, quietOptions())
	assert.ErrorContains(t, err, "missing.yang")

	_, err = yang.BuildFS(ctx, fstest.MapFS{"empty/x.txt": &fstest.MapFile{}}, []string{"empty"}, quietOptions())
	assert.ErrorContains(t, err, "no .yang files")

	bad := fstest.MapFS{"bad.yang": &fstest.MapFile{Data: []byte("module a {")}}
	_, err = yang.BuildFS(ctx, bad, []string{"bad.yang"}, quietOptions())
	se, ok := errors.AsSource(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrSyntax, se.Code)
	assert.Equal(t, "bad.yang", se.Path)

	_, err = yang.Build(ctx, quietOptions())
	assert.Error(t, err)
}

func TestBuildFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "interfaces.yang"), []byte(ifModule), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ip.yang"), []byte(ipModule), 0o600))

	sc, err := yang.BuildFiles(context.Background(), quietOptions(), dir)
	require.NoError(t, err)
	assert.Len(t, sc.Modules(), 2)

	sc, err = yang.BuildFiles(context.Background(), quietOptions(), filepath.Join(dir, "interfaces.yang"))
	require.NoError(t, err)
	assert.Len(t, sc.Modules(), 1)
}

func TestBuildHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := yang.BuildFS(ctx, testFS(), []string{"models"}, quietOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
