package reactor

import (
	"fmt"
	"slices"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
)

type subsState uint8

const (
	// subsUntouched copies have not looked at their prototype's children.
	subsUntouched subsState = iota
	// subsPartial copies hold children copied on demand.
	subsPartial
	subsMaterialized
	subsSwept
)

type inferredChild struct {
	template Ctx
	copy     Ctx
}

// inferredCtx is a copy of a prototype statement placed elsewhere by uses
// or augment. Its children are copied lazily, and unmodified copies share
// effective statements with the prototype or with equal copies.
type inferredCtx struct {
	stmtCommon
	mutableState
	parent    Ctx
	prototype Ctx
	target    qname.Module
	partial   []inferredChild
	list      []Ctx
	childCopy CopyType
	subs      subsState
	modified  bool
	protoHeld bool
}

func newInferred(parent, prototype Ctx, typ CopyType, target qname.Module) *inferredCtx {
	c := &inferredCtx{
		parent:    parent,
		prototype: prototype,
		target:    target,
		childCopy: typ,
		protoHeld: true,
	}
	c.support = prototype.Support()
	c.keyword = prototype.Keyword()
	c.argument = prototype.Support().AdaptArgument(prototype, target)
	c.raw = prototype.RawArgument()
	c.ref = prototype.Ref()
	c.history = prototype.History().Append(typ)
	c.completed = phase.FullDeclaration
	incRef(prototype)
	buildOf(parent).stats.statements++
	return c
}

func (c *inferredCtx) StorageType() namespace.StorageType { return namespace.StatementStorage }
func (c *inferredCtx) ParentStorage() namespace.StorageNode { return c.parent }
func (c *inferredCtx) Parent() Ctx { return c.parent }
func (c *inferredCtx) Root() *RootCtx { return c.parent.Root() }
func (c *inferredCtx) Origin() Ctx { return c.prototype }

func (c *inferredCtx) IsSupported() bool {
	return !c.unsupported && c.prototype.IsSupported() && c.parent.IsSupported()
}

func (c *inferredCtx) EffectiveConfig() EffectiveConfig { return effectiveConfigOf(c) }
func (c *inferredCtx) DeclaredSubstatements() []Ctx { return nil }

func (c *inferredCtx) EffectiveSubstatements() []Ctx {
	children, err := c.materialize()
	if err != nil {
		c.Root().Logger().Warn("cannot materialize substatements", "statement", Describe(c), "error", err)
		return nil
	}
	return slices.Clone(children)
}

func (c *inferredCtx) FindSubstatementArgument(keyword string) (any, bool) {
	switch c.subs {
	case subsUntouched, subsPartial:
		return c.prototype.FindSubstatementArgument(keyword)
	case subsMaterialized:
		return findArgument(keyword, c.list)
	default:
		return nil, false
	}
}

// Declared returns the prototype's declared statement; copies have no
// text of their own.
func (c *inferredCtx) Declared() (model.Declared, error) { return c.prototype.Declared() }

func (c *inferredCtx) Effective() (model.Effective, error) { return loadEffective(c) }

func (c *inferredCtx) NewInferenceAction(p phase.Phase) (*Modifier, error) {
	return newInferenceAction(c, p)
}

func (c *inferredCtx) AddEffectiveSubstatements(children ...Ctx) error {
	if err := checkNotSealed(c); err != nil {
		return err
	}
	if _, err := c.materialize(); err != nil {
		return err
	}
	for _, child := range children {
		if child == nil {
			continue
		}
		if err := registerSchemaChild(c, child); err != nil {
			return err
		}
		c.list = append(c.list, child)
	}
	markModified(c)
	return nil
}

func (c *inferredCtx) RemoveEffectiveSubstatements(match func(Ctx) bool) error {
	if err := checkNotSealed(c); err != nil {
		return err
	}
	if _, err := c.materialize(); err != nil {
		return err
	}
	c.list = slices.DeleteFunc(c.list, match)
	markModified(c)
	return nil
}

func (c *inferredCtx) CopyAsChildOf(parent Ctx, typ CopyType, target qname.Module) (Ctx, error) {
	return copyAsChildOf(c, parent, typ, target)
}

func (c *inferredCtx) ReplicaAsChildOf(parent Ctx) (Ctx, error) { return newReplica(parent, c), nil }

func (c *inferredCtx) CreateUndeclared(support Support, argument any) (Ctx, error) {
	return createUndeclared(c, support, argument)
}

func (c *inferredCtx) AddMutableStatement(m model.Mutable) { buildOf(c).addMutable(m) }

func (c *inferredCtx) declaredNodes() []Ctx { return nil }

func (c *inferredCtx) completionChildren() []Ctx {
	switch c.subs {
	case subsPartial:
		out := make([]Ctx, len(c.partial))
		for i, p := range c.partial {
			out[i] = p.copy
		}
		return out
	case subsMaterialized:
		return c.list
	default:
		return nil
	}
}

func (c *inferredCtx) copySources() ([]Ctx, error) { return c.materialize() }

func (c *inferredCtx) sweepSubstatements() int {
	pending := sweepAll(c.completionChildren())
	c.releasePrototype()
	return pending
}

func (c *inferredCtx) releaseSubstatements() {
	c.partial, c.list = nil, nil
	c.subs = subsSwept
	c.releasePrototype()
}

func (c *inferredCtx) unmodifiedEffectiveSource() Ctx {
	if c.modified {
		return c
	}
	return c.prototype.unmodifiedEffectiveSource()
}

func (c *inferredCtx) contextIndependent() bool { return c.prototype.contextIndependent() }

func (c *inferredCtx) releasePrototype() {
	if c.protoHeld {
		c.protoHeld = false
		decRef(c.prototype)
	}
}

func (c *inferredCtx) partialCopy(template Ctx) (Ctx, bool) {
	for _, p := range c.partial {
		if p.template == template {
			return p.copy, true
		}
	}
	return nil, false
}

// adopt publishes a new child and brings it to this statement's phase.
func (c *inferredCtx) adopt(child Ctx) error {
	if err := registerSchemaChild(c, child); err != nil {
		return err
	}
	if done := c.CompletedPhase(); child.CompletedPhase() < done {
		ok, err := tryToCompletePhase(child, done)
		if err != nil {
			return err
		}
		if !ok {
			return NewInferenceError(child, yangerrors.ErrUnresolved, "copy %s cannot reach phase %s", Describe(child), done)
		}
	}
	return nil
}

// materialize copies every remaining prototype child.
func (c *inferredCtx) materialize() ([]Ctx, error) {
	switch c.subs {
	case subsMaterialized:
		return c.list, nil
	case subsSwept:
		return nil, fmt.Errorf("statement %s: substatements already released", Describe(c))
	}
	templates, err := c.prototype.copySources()
	if err != nil {
		return nil, err
	}
	out := make([]Ctx, 0, len(templates))
	for _, tmpl := range templates {
		if cp, ok := c.partialCopy(tmpl); ok {
			out = append(out, cp)
			continue
		}
		cp, err := copyAsChildOf(tmpl, c, c.childCopy, c.target)
		if err != nil {
			return nil, err
		}
		if cp == nil {
			continue
		}
		if err := c.adopt(cp); err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	c.list, c.partial, c.subs = out, nil, subsMaterialized
	c.releasePrototype()
	return out, nil
}

// requestSchemaTreeChild copies the single prototype child named q.
func (c *inferredCtx) requestSchemaTreeChild(q qname.QName) (Ctx, bool) {
	if c.subs == subsMaterialized || c.subs == subsSwept {
		return nil, false
	}
	templateQ := q
	if !c.target.IsZero() {
		if q.Module != c.target {
			return nil, false
		}
		mod, ok := SchemaChildModule(c.prototype)
		if !ok {
			return nil, false
		}
		templateQ = q.BindTo(mod)
	}
	tmpl, ok := SchemaTree.Get(c.prototype, templateQ)
	if !ok {
		return nil, false
	}
	if cp, ok := c.partialCopy(tmpl); ok {
		return cp, true
	}
	cp, err := copyAsChildOf(tmpl, c, c.childCopy, c.target)
	if err != nil || cp == nil {
		if err != nil {
			c.Root().Logger().Warn("cannot copy schema child", "statement", Describe(tmpl), "error", err)
		}
		return nil, false
	}
	c.partial = append(c.partial, inferredChild{template: tmpl, copy: cp})
	c.subs = subsPartial
	if err := c.adopt(cp); err != nil {
		c.Root().Logger().Warn("cannot adopt schema child", "statement", Describe(cp), "error", err)
		return nil, false
	}
	return cp, true
}

// SchemaChildModule returns the module the schema tree children of n are
// bound to.
func SchemaChildModule(n Ctx) (qname.Module, bool) {
	switch v := n.(type) {
	case *inferredCtx:
		if !v.target.IsZero() {
			return v.target, true
		}
		return SchemaChildModule(v.prototype)
	case *replicaCtx:
		return SchemaChildModule(v.source)
	}
	if q, ok := n.Argument().(qname.QName); ok {
		return q.Module, true
	}
	for _, child := range sweepChildrenOf(n) {
		if !child.Support().IsSchemaTree() {
			continue
		}
		if q, ok := child.Argument().(qname.QName); ok {
			return q.Module, true
		}
	}
	return qname.Module{}, false
}

func (c *inferredCtx) buildEffective() (model.Effective, error) {
	var (
		e   model.Effective
		err error
	)
	if c.subs == subsUntouched {
		e, err = c.tryToReusePrototype()
	} else {
		e, err = c.buildInferred()
	}
	if err != nil {
		return nil, err
	}
	return internAlongCopyAxis(c, e), nil
}

func (c *inferredCtx) buildInferred() (model.Effective, error) {
	children, err := c.materialize()
	if err != nil {
		return nil, err
	}
	return buildFromSubstatements(c, children)
}

func (c *inferredCtx) tryToReusePrototype() (model.Effective, error) {
	orig, err := c.prototype.Effective()
	if err != nil {
		return nil, err
	}
	if !c.support.CanReuseCurrent(c, c.prototype) {
		return c.tryToReuseSubstatements(orig)
	}
	if len(orig.Substatements()) == 0 || c.contextIndependent() {
		c.dropSubstatements()
		return orig, nil
	}
	children, err := c.materialize()
	if err != nil {
		return nil, err
	}
	subs := make([]model.Effective, 0, len(children))
	reused := true
	for _, child := range children {
		if !child.IsSupported() {
			continue
		}
		e, err := child.Effective()
		if err != nil {
			return nil, err
		}
		subs = append(subs, e)
		if reused {
			reused = sameAsOrigin(child, e)
		}
	}
	if reused {
		return orig, nil
	}
	return c.support.CreateEffective(c, subs)
}

func sameAsOrigin(child Ctx, e model.Effective) bool {
	origin := child.Origin()
	if origin == nil {
		return false
	}
	oe, err := origin.Effective()
	return err == nil && oe == e
}

func (c *inferredCtx) tryToReuseSubstatements(orig model.Effective) (model.Effective, error) {
	if c.contextIndependent() {
		c.dropSubstatements()
		return c.support.CopyEffective(c, orig)
	}
	full, err := c.buildInferred()
	if err != nil {
		return nil, err
	}
	if sameSubstatements(orig.Substatements(), full.Substatements()) {
		return c.support.CopyEffective(c, orig)
	}
	return full, nil
}

// dropSubstatements forgets the prototype's children when nobody can ask
// for copies of them anymore.
func (c *inferredCtx) dropSubstatements() {
	if r := &c.refs; r.state == refLive && r.count == 0 {
		c.subs = subsSwept
		c.releasePrototype()
	}
}

func sameSubstatements(a, b []model.Effective) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// markModified records that n no longer mirrors its prototype, along with
// every copy above it.
func markModified(n Ctx) {
	for cur := n; cur != nil; cur = cur.Parent() {
		switch v := cur.(type) {
		case *inferredCtx:
			v.modified = true
		case *undeclaredCtx:
		default:
			return
		}
	}
}
