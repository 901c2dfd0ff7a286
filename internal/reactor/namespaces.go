package reactor

import (
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/qname"
)

// SchemaTree maps the QName of a schema tree child to its statement.
// Copies populate it on demand, so a lookup through a copy only copies
// the child that was asked for.
var SchemaTree = namespace.New[qname.QName, Ctx]("schema-tree", namespace.StatementLocal)

func init() {
	SchemaTree.WithLoader(loadSchemaTreeChild)
}

func loadSchemaTreeChild(node namespace.StorageNode, q qname.QName) (Ctx, bool) {
	switch v := node.(type) {
	case *inferredCtx:
		return v.requestSchemaTreeChild(q)
	case *replicaCtx:
		return SchemaTree.Get(v.source, q)
	default:
		return nil, false
	}
}
