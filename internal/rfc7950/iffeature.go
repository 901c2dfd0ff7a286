package rfc7950

import (
	"fmt"
	"strings"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/reactor"
)

// FeatureExpr is a parsed if-feature argument.
type FeatureExpr interface {
	Eval(enabled func(qname.QName) bool) bool
	// Features returns the referenced feature names in order of appearance.
	Features() []qname.QName
	String() string
}

type featureRef struct{ name qname.QName }

func (f *featureRef) Eval(enabled func(qname.QName) bool) bool { return enabled(f.name) }
func (f *featureRef) Features() []qname.QName { return []qname.QName{f.name} }
func (f *featureRef) String() string { return f.name.Local }

type notExpr struct{ operand FeatureExpr }

func (n *notExpr) Eval(enabled func(qname.QName) bool) bool { return !n.operand.Eval(enabled) }
func (n *notExpr) Features() []qname.QName { return n.operand.Features() }
func (n *notExpr) String() string { return "not " + n.operand.String() }

type binaryExpr struct {
	left, right FeatureExpr
	and         bool
}

func (b *binaryExpr) Eval(enabled func(qname.QName) bool) bool {
	if b.and {
		return b.left.Eval(enabled) && b.right.Eval(enabled)
	}
	return b.left.Eval(enabled) || b.right.Eval(enabled)
}

func (b *binaryExpr) Features() []qname.QName {
	return append(b.left.Features(), b.right.Features()...)
}

func (b *binaryExpr) String() string {
	op := " or "
	if b.and {
		op = " and "
	}
	return "(" + b.left.String() + op + b.right.String() + ")"
}

// ParseFeatureExpr parses an if-feature expression. resolve binds each
// feature name to its module.
func ParseFeatureExpr(raw string, resolve func(string) (qname.QName, error)) (FeatureExpr, error) {
	p := &exprParser{tokens: tokenizeExpr(raw), resolve: resolve}
	if len(p.tokens) == 0 {
		return nil, fmt.Errorf("empty if-feature expression")
	}
	expr, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("unexpected %q in if-feature expression", p.tokens[p.pos])
	}
	return expr, nil
}

func tokenizeExpr(raw string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range raw {
		switch {
		case r == '(' || r == ')':
			flush()
			out = append(out, string(r))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

type exprParser struct {
	resolve func(string) (qname.QName, error)
	tokens  []string
	pos     int
}

func (p *exprParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *exprParser) or() (FeatureExpr, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek() == "or" {
		p.pos++
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) and() (FeatureExpr, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.peek() == "and" {
		p.pos++
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{left: left, right: right, and: true}
	}
	return left, nil
}

func (p *exprParser) factor() (FeatureExpr, error) {
	tok := p.peek()
	switch tok {
	case "":
		return nil, fmt.Errorf("if-feature expression ends early")
	case "not":
		p.pos++
		operand, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &notExpr{operand: operand}, nil
	case "(":
		p.pos++
		expr, err := p.or()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("missing ) in if-feature expression")
		}
		p.pos++
		return expr, nil
	case ")", "and", "or":
		return nil, fmt.Errorf("unexpected %q in if-feature expression", tok)
	}
	p.pos++
	q, err := p.resolve(tok)
	if err != nil {
		return nil, err
	}
	return &featureRef{name: q}, nil
}

type ifFeatureSupport struct {
	reactor.BaseSupport
	strict bool
}

func (s ifFeatureSupport) ParseArgument(ctx reactor.Ctx, raw string) (any, error) {
	expr, err := ParseFeatureExpr(raw, func(name string) (qname.QName, error) {
		return resolveQName(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	if _, single := expr.(*featureRef); !single && s.strict {
		if err := requireVersion11(ctx, "if-feature expressions"); err != nil {
			return nil, err
		}
	}
	return expr, nil
}

// OnDeclared checks every referenced feature exists. Features are all
// declared before any if-feature statement is.
func (ifFeatureSupport) OnDeclared(p phase.Phase, ctx reactor.Ctx) error {
	if p != phase.FullDeclaration {
		return nil
	}
	expr, ok := ctx.Argument().(FeatureExpr)
	if !ok {
		return nil
	}
	for _, q := range expr.Features() {
		if _, ok := Features.Get(ctx, q); !ok {
			return reactor.NewSourceError(ctx, yangerrors.ErrUnresolved, "feature %s not found", q.Local)
		}
	}
	return nil
}

// Enabled evaluates the expression against the supported features of the
// build. A feature is enabled when the build supports it and its own
// if-feature statements hold.
func (ifFeatureSupport) Enabled(ctx reactor.Ctx) bool {
	expr, ok := ctx.Argument().(FeatureExpr)
	if !ok {
		return true
	}
	return expr.Eval(featureResolver(ctx, map[qname.QName]bool{}))
}

func featureResolver(ctx reactor.Ctx, visiting map[qname.QName]bool) func(qname.QName) bool {
	var enabled func(q qname.QName) bool
	enabled = func(q qname.QName) bool {
		if visiting[q] {
			return false
		}
		name, ok := moduleName(ctx, q.Module)
		if !ok || !ctx.Root().Features().Supports(name, q.Local) {
			return false
		}
		feature, ok := Features.Get(ctx, q)
		if !ok {
			return false
		}
		visiting[q] = true
		defer delete(visiting, q)
		for _, child := range feature.DeclaredSubstatements() {
			expr, ok := child.Argument().(FeatureExpr)
			if ok && !expr.Eval(enabled) {
				return false
			}
		}
		return true
	}
	return enabled
}
