package dump_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"gopkg.in/yaml.v3"

	"github.com/jacoelho/yang"
	"github.com/jacoelho/yang/internal/dump"
	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/qname"
)

var (
	modT = qname.Module{Namespace: "urn:t", Revision: "2024-01-01"}
	modO = qname.Module{Namespace: "urn:o"}
)

const (
	rw = model.FlagSchemaTree | model.FlagConfigTrue
	ro = model.FlagSchemaTree | model.FlagConfigFalse
)

func stmt(keyword string, arg any, flags model.Flags, subs ...model.Effective) *model.EffectiveStatement {
	return model.NewEffective(keyword, arg, nil, flags, subs)
}

func typeOf(q qname.QName) *model.EffectiveStatement { return stmt("type", q, 0) }

func fixture() []*model.ModuleStatement {
	list := stmt("list", qname.New(modT, "item"), rw,
		stmt("key", "name", 0),
		stmt("leaf", qname.New(modT, "name"), rw|model.FlagMandatory, typeOf(qname.QName{Local: "string"})),
		stmt("leaf", qname.New(modT, "value"), rw, typeOf(qname.QName{Local: "uint8"})),
		stmt("leaf", qname.New(modO, "ext"), rw|model.FlagAugmenting, typeOf(qname.New(modO, "t"))),
	)
	state := stmt("container", qname.New(modT, "state"), ro,
		stmt("presence", "enabled", 0),
		stmt("leaf", qname.New(modT, "count"), ro,
			typeOf(qname.QName{Local: "uint32"}),
			stmt("if-feature", "stats", 0),
		),
	)
	t := model.NewModule(stmt("module", "t", 0, stmt("prefix", "t", 0), list, state), modT, "t")
	o := model.NewModule(stmt("module", "o", 0), modO, "o")
	return []*model.ModuleStatement{t, o}
}

func TestTree(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, dump.Tree(&buf, fixture()))

	want := `module: t
  +--rw item* [name]
  |  +--rw name    string
  |  +--rw value?    uint8
  |  +--rw o:ext?    o:t
  +--ro state!
     +--ro count?    uint32 {stats}?

module: o
`
	assert.Equal(t, want, buf.String())
}

func TestNewDocument(t *testing.T) {
	doc := dump.NewDocument(fixture())
	require.Len(t, doc.Modules, 2)

	m := doc.Modules[0]
	assert.Equal(t, "t", m.Name)
	assert.Equal(t, "urn:t", m.Namespace)
	assert.Equal(t, "2024-01-01", m.Revision)
	require.Len(t, m.Statements, 3)

	item := m.Statements[1]
	assert.Equal(t, "list", item.Keyword)
	assert.Equal(t, "item", item.Argument)
	assert.Empty(t, item.Namespace)
	assert.Equal(t, []string{"config", "schema-tree"}, item.Flags)

	name := item.Children[1]
	assert.Equal(t, []string{"config", "mandatory", "schema-tree"}, name.Flags)

	ext := item.Children[3]
	assert.Equal(t, "ext", ext.Argument)
	assert.Equal(t, "urn:o", ext.Namespace)
	require.Len(t, ext.Children, 1)
	assert.Equal(t, "t", ext.Children[0].Argument)
	assert.Empty(t, ext.Children[0].Namespace)

	assert.Empty(t, doc.Modules[1].Statements)
}

func TestEncode(t *testing.T) {
	doc := dump.NewDocument(fixture())

	var js bytes.Buffer
	require.NoError(t, dump.Encode(&js, dump.FormatJSON, doc))
	var fromJSON dump.Document
	require.NoError(t, json.Unmarshal(js.Bytes(), &fromJSON))
	assert.Equal(t, doc, &fromJSON)

	var ym bytes.Buffer
	require.NoError(t, dump.Encode(&ym, dump.FormatYAML, doc))
	assert.Contains(t, ym.String(), "keyword: list")
	var fromYAML dump.Document
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &fromYAML))
	assert.Equal(t, doc, &fromYAML)

	var tm bytes.Buffer
	require.NoError(t, dump.Encode(&tm, dump.FormatTOML, doc))
	assert.Contains(t, tm.String(), "[[modules]]")
	var fromTOML dump.Document
	require.NoError(t, toml.Unmarshal(tm.Bytes(), &fromTOML))
	assert.Equal(t, doc, &fromTOML)

	assert.Error(t, dump.Encode(io.Discard, dump.Format("xml"), doc))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]dump.Format{"yaml": dump.FormatYAML, "TOML": dump.FormatTOML, "json": dump.FormatJSON} {
		got, err := dump.ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := dump.ParseFormat("xml")
	assert.ErrorContains(t, err, "xml")
}

func TestTreeOfBuiltModule(t *testing.T) {
	src, err := yang.ParseSource("system.yang", []byte(`module system {
  namespace "urn:example:system";
  prefix sys;
  container system {
    leaf hostname { type string; }
    leaf-list server { type string; }
  }
}`))
	require.NoError(t, err)
	opts := yang.NewBuildOptions().
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithTracerProvider(tracenoop.NewTracerProvider()).
		WithMeterProvider(noop.NewMeterProvider())
	sc, err := yang.Build(context.Background(), opts, src)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dump.Tree(&buf, sc.Modules()))
	out := buf.String()
	assert.Contains(t, out, "module: system\n")
	assert.Contains(t, out, "+--rw system\n")
	assert.Contains(t, out, "+--rw hostname?    string\n")
	assert.Contains(t, out, "+--rw server*    string\n")

	doc := dump.NewDocument(sc.Modules())
	require.Len(t, doc.Modules, 1)
	assert.Equal(t, "sys", doc.Modules[0].Prefix)
}
