package reactor

import (
	"errors"
	"strings"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/source"
)

// writer builds the declared tree of one source during one declaration
// pass. Statements seen in an earlier pass are resumed, not recreated.
type writer struct {
	err    error
	src    *SourceContext
	bundle *Bundle
	stack  []Ctx
	phase  phase.Phase
}

var _ source.StatementWriter = (*writer)(nil)

func newWriter(src *SourceContext, p phase.Phase) *writer {
	return &writer{src: src, bundle: src.build.bundleFor(p), phase: p}
}

// accept reports whether keyword takes part in this pass.
func (w *writer) accept(keyword string) bool {
	if w.phase == phase.FullDeclaration {
		return true
	}
	_, ok := w.bundle.Lookup(keyword)
	return ok
}

func (w *writer) lookup(keyword string, ref source.Ref) (Support, error) {
	if s, ok := w.bundle.Lookup(keyword); ok {
		return s, nil
	}
	if strings.Contains(keyword, ":") && w.src.build.cfg.Unrecognized != nil {
		return w.src.build.cfg.Unrecognized, nil
	}
	return nil, yangerrors.NewSourceError(yangerrors.ErrUnknownStatement, ref.Path, ref.Line, ref.Column,
		"unknown statement %q", keyword)
}

func (w *writer) top() Ctx {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

func subsOf(ctx Ctx) *declaredSubs {
	switch v := ctx.(type) {
	case *RootCtx:
		return &v.declaredSubs
	case *declaredCtx:
		return &v.declaredSubs
	default:
		return nil
	}
}

func (w *writer) StartStatement(offset int, keyword, argument string, ref source.Ref) error {
	if w.err != nil {
		return w.err
	}
	support, err := w.lookup(keyword, ref)
	if err != nil {
		return w.fail(err)
	}
	parent := w.top()
	if parent == nil {
		root, err := w.startRoot(support, argument, ref)
		if err != nil {
			return w.fail(err)
		}
		w.stack = append(w.stack, root)
		return nil
	}
	if implicit, ok := parent.Support().ImplicitParent(parent, support); ok {
		wrapper := subsOf(parent).at(offset)
		if wrapper == nil {
			d := newDeclared(parent, implicit, argument, ref)
			d.implicit = true
			subsOf(parent).put(offset, d)
			wrapper = d
		}
		w.stack = append(w.stack, wrapper)
		parent = wrapper
	}
	child := subsOf(parent).at(offset)
	if child == nil {
		d := newDeclared(parent, support, argument, ref)
		d.keyword = keyword
		v, err := support.ParseArgument(d, argument)
		if err != nil {
			return w.fail(argumentError(err, keyword, argument, ref))
		}
		d.argument = v
		if wrapper, ok := parent.(*declaredCtx); ok && wrapper.implicit {
			wrapper.argument = v
			if err := registerSchemaChild(wrapper.parent, wrapper); err != nil {
				return w.fail(err)
			}
		}
		subsOf(parent).put(offset, d)
		if err := support.OnStatementAdded(d); err != nil {
			return w.fail(err)
		}
		if err := registerSchemaChild(parent, d); err != nil {
			return w.fail(err)
		}
		child = d
	}
	w.stack = append(w.stack, child)
	return nil
}

func (w *writer) startRoot(support Support, argument string, ref source.Ref) (*RootCtx, error) {
	if root := w.src.root; root != nil {
		if root.Keyword() != support.Keyword() {
			return nil, yangerrors.NewSourceError(yangerrors.ErrInvalidSubstatement, ref.Path, ref.Line, ref.Column,
				"source declares a second root statement %q", support.Keyword())
		}
		return root, nil
	}
	root := newRoot(w.src, support, argument, ref)
	v, err := support.ParseArgument(root, argument)
	if err != nil {
		return nil, argumentError(err, support.Keyword(), argument, ref)
	}
	root.argument = v
	w.src.root = root
	w.src.build.stats.statements++
	if err := support.OnStatementAdded(root); err != nil {
		return nil, err
	}
	return root, nil
}

func newDeclared(parent Ctx, support Support, raw string, ref source.Ref) *declaredCtx {
	d := &declaredCtx{parent: parent}
	d.support = support
	d.raw = raw
	d.argument = raw
	d.ref = ref
	d.history = parent.History()
	d.completed = phase.Init
	buildOf(parent).stats.statements++
	return d
}

func argumentError(err error, keyword, argument string, ref source.Ref) error {
	var se *yangerrors.SourceError
	if errors.As(err, &se) {
		return err
	}
	e := yangerrors.NewSourceError(yangerrors.ErrInvalidArgument, ref.Path, ref.Line, ref.Column,
		"invalid argument %q of %s", argument, keyword)
	e.Cause = err
	return e
}

func (w *writer) StoreStatement(expectedChildCount int, fullyDefined bool) {
	subs := subsOf(w.top())
	if subs == nil {
		return
	}
	subs.reserve(expectedChildCount)
	if fullyDefined {
		subs.fullyDefined = true
	}
}

func (w *writer) EndStatement(ref source.Ref) error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) == 0 {
		return w.fail(yangerrors.NewSourceError(yangerrors.ErrSyntax, ref.Path, ref.Line, ref.Column,
			"statement end without a start"))
	}
	if err := w.endTop(); err != nil {
		return w.fail(err)
	}
	if d, ok := w.top().(*declaredCtx); ok && d.implicit {
		if err := w.endTop(); err != nil {
			return w.fail(err)
		}
	}
	return nil
}

func (w *writer) endTop() error {
	ctx := w.top()
	w.stack = w.stack[:len(w.stack)-1]
	return ctx.Support().OnDeclared(w.phase, ctx)
}

func (w *writer) ResumeStatement(offset int) source.Resume {
	if w.err != nil {
		return source.NotStarted
	}
	parent := w.top()
	if parent == nil {
		root := w.src.root
		if root == nil {
			return source.NotStarted
		}
		return w.resume(root, nil)
	}
	child := subsOf(parent).at(offset)
	if child == nil {
		return source.NotStarted
	}
	if d, ok := child.(*declaredCtx); ok && d.implicit {
		inner := d.at(offset)
		if inner == nil {
			return source.NotStarted
		}
		return w.resume(inner, d)
	}
	return w.resume(child, nil)
}

func (w *writer) resume(ctx Ctx, wrapper *declaredCtx) source.Resume {
	if subs := subsOf(ctx); subs != nil && subs.fullyDefined {
		err := w.declareSubtree(ctx)
		if err == nil && wrapper != nil {
			err = wrapper.Support().OnDeclared(w.phase, wrapper)
		}
		if err != nil {
			w.fail(err)
		}
		return source.FullyDefined
	}
	if wrapper != nil {
		w.stack = append(w.stack, wrapper)
	}
	w.stack = append(w.stack, ctx)
	return source.Resumed
}

// declareSubtree replays the end of declaration for a statement whose
// subtree needs no further reading.
func (w *writer) declareSubtree(ctx Ctx) error {
	for _, child := range ctx.declaredNodes() {
		if err := w.declareSubtree(child); err != nil {
			return err
		}
	}
	return ctx.Support().OnDeclared(w.phase, ctx)
}

func (w *writer) fail(err error) error {
	if w.err == nil {
		w.err = err
	}
	return w.err
}
