package dump

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/qname"
)

// Tree writes the schema tree of each module to w:
//
//	module: interfaces
//	  +--rw interfaces
//	     +--rw interface* [name]
//	        +--rw name    string
//
// Nodes bound to another module's namespace are printed with that
// module's prefix.
func Tree(w io.Writer, modules []*model.ModuleStatement) error {
	bw := bufio.NewWriter(w)
	p := treePrinter{w: bw, prefixes: make(map[string]string, len(modules))}
	for _, ms := range modules {
		p.prefixes[ms.Module().Namespace] = ms.Prefix()
	}
	for i, ms := range modules {
		if i > 0 {
			p.line("")
		}
		p.line("%s: %s", ms.Keyword(), ms.Name())
		p.module = ms.Module().Namespace
		p.children(ms, "  ")
	}
	if p.err != nil {
		return p.err
	}
	return bw.Flush()
}

type treePrinter struct {
	w        *bufio.Writer
	err      error
	prefixes map[string]string
	module   string
}

func (p *treePrinter) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *treePrinter) children(e model.Effective, indent string) {
	kids := model.SchemaChildren(e)
	for i, kid := range kids {
		last := i == len(kids)-1
		p.line("%s+--%s %s", indent, access(kid), p.label(kid))
		next := indent + "|  "
		if last {
			next = indent + "   "
		}
		p.children(kid, next)
	}
}

func (p *treePrinter) label(e model.Effective) string {
	name := p.name(e)
	var b strings.Builder
	switch e.Keyword() {
	case "choice":
		b.WriteString("(" + name + ")")
	case "case":
		b.WriteString(":(" + name + ")")
	case "list":
		b.WriteString(name + "*")
		if key, ok := model.FindFirst(e, "key"); ok {
			b.WriteString(" [" + Argument(key) + "]")
		}
	case "leaf-list":
		b.WriteString(name + "*")
	case "container":
		b.WriteString(name)
		if _, ok := model.FindFirst(e, "presence"); ok {
			b.WriteString("!")
		}
	case "leaf", "anydata", "anyxml":
		b.WriteString(name)
		if !e.Flags().Has(model.FlagMandatory) {
			b.WriteString("?")
		}
	default:
		b.WriteString(name)
	}
	if t, ok := model.FindArgument[qname.QName](e, "type"); ok {
		b.WriteString("    " + p.qualified(t))
	}
	if f, ok := model.FindFirst(e, "if-feature"); ok {
		b.WriteString(" {" + Argument(f) + "}?")
	}
	return b.String()
}

func (p *treePrinter) name(e model.Effective) string {
	q, ok := e.Argument().(qname.QName)
	if !ok {
		return Argument(e)
	}
	return p.qualified(q)
}

// qualified prefixes q with its module prefix unless q is local to the
// module being printed or a built-in.
func (p *treePrinter) qualified(q qname.QName) string {
	ns := q.Module.Namespace
	if ns == "" || ns == p.module {
		return q.Local
	}
	if prefix, ok := p.prefixes[ns]; ok {
		return prefix + ":" + q.Local
	}
	return q.Local
}

func access(e model.Effective) string {
	switch e.Keyword() {
	case "rpc", "action":
		return "-x"
	case "notification":
		return "-n"
	case "input":
		return "-w"
	case "output":
		return "ro"
	}
	switch {
	case e.Flags().Has(model.FlagConfigFalse):
		return "ro"
	case e.Flags().Has(model.FlagConfigTrue):
		return "rw"
	default:
		return "--"
	}
}
