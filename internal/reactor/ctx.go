package reactor

import (
	"errors"
	"fmt"
	"slices"

	yangerrors "github.com/jacoelho/yang/errors"
	"github.com/jacoelho/yang/internal/model"
	"github.com/jacoelho/yang/internal/namespace"
	"github.com/jacoelho/yang/internal/phase"
	"github.com/jacoelho/yang/internal/qname"
	"github.com/jacoelho/yang/internal/source"
)

// Ctx is one node of the statement context tree. The set of
// implementations is closed: roots, declared statements, undeclared
// statements, inferred copies and replicas.
//
// Contexts are not safe for concurrent use.
type Ctx interface {
	namespace.StorageNode

	Support() Support
	Keyword() string
	Argument() any
	RawArgument() string
	Ref() source.Ref
	// Parent returns nil for roots.
	Parent() Ctx
	Root() *RootCtx
	History() CopyHistory
	// Origin returns the statement a copy or replica was made from.
	Origin() Ctx
	CompletedPhase() phase.Phase
	// IsSupported reports whether the statement takes part in the
	// effective model. A statement below an unsupported one never does.
	IsSupported() bool
	EffectiveConfig() EffectiveConfig

	// DeclaredSubstatements returns the textual children.
	DeclaredSubstatements() []Ctx
	// EffectiveSubstatements returns children added by inference; for
	// copies it returns every materialized child.
	EffectiveSubstatements() []Ctx
	FindSubstatementArgument(keyword string) (any, bool)

	Declared() (model.Declared, error)
	Effective() (model.Effective, error)

	NewInferenceAction(p phase.Phase) (*Modifier, error)
	// AddEffectiveSubstatements appends children created for this
	// statement. It fails once the statement completed EffectiveModel.
	AddEffectiveSubstatements(children ...Ctx) error
	RemoveEffectiveSubstatements(match func(Ctx) bool) error
	SetUnsupported()
	// CopyAsChildOf re-instantiates the statement under parent following
	// its copy policy. It returns nil when the statement is ignored.
	CopyAsChildOf(parent Ctx, typ CopyType, target qname.Module) (Ctx, error)
	ReplicaAsChildOf(parent Ctx) (Ctx, error)
	// CreateUndeclared builds a synthesized child; callers add it.
	CreateUndeclared(support Support, argument any) (Ctx, error)
	AddMutableStatement(m model.Mutable)

	common() *stmtCommon
	state() *mutableState
	declaredNodes() []Ctx
	completionChildren() []Ctx
	copySources() ([]Ctx, error)
	buildEffective() (model.Effective, error)
	sweepSubstatements() int
	releaseSubstatements()
	unmodifiedEffectiveSource() Ctx
	contextIndependent() bool
}

// FeatureGate is implemented by supports whose statements can disable
// their parent, such as if-feature.
type FeatureGate interface {
	Enabled(ctx Ctx) bool
}

// FeatureCarrier is implemented by supports whose feature gates apply to
// another statement, such as the target of a refine, instead of their
// own.
type FeatureCarrier interface {
	CarriesFeatures() bool
}

// ErrReplicaImmutable reports an attempt to modify a replica.
var ErrReplicaImmutable = errors.New("replica statements cannot be modified")

// stmtCommon holds the fields every variant carries.
type stmtCommon struct {
	argument any
	support  Support
	keyword  string
	raw      string
	ref      source.Ref
	storage  namespace.Storage
	refs     refCounter
	history  CopyHistory
}

func (c *stmtCommon) Support() Support { return c.support }
// Keyword returns the keyword as written, which differs from the
// support's for unrecognized extensions.
func (c *stmtCommon) Keyword() string {
	if c.keyword != "" {
		return c.keyword
	}
	return c.support.Keyword()
}

func (c *stmtCommon) Argument() any { return c.argument }
func (c *stmtCommon) RawArgument() string { return c.raw }
func (c *stmtCommon) Ref() source.Ref { return c.ref }
func (c *stmtCommon) History() CopyHistory { return c.history }
func (c *stmtCommon) Storage() *namespace.Storage { return &c.storage }
func (c *stmtCommon) common() *stmtCommon { return c }

type triState uint8

const (
	triUnknown triState = iota
	triTrue
	triFalse
)

func triOf(b bool) triState {
	if b {
		return triTrue
	}
	return triFalse
}

type mutation interface {
	isFinished() bool
}

type phaseListener struct {
	fn    func() error
	phase phase.Phase
}

// mutableState is carried by every variant that can be modified: roots,
// declared, undeclared and inferred statements.
type mutableState struct {
	mutations     map[phase.Phase][]mutation
	effectiveInst model.Effective
	declaredInst  model.Declared
	copies        map[copyKey]model.Effective
	listeners     []phaseListener
	effective     []Ctx
	completed     phase.Phase
	config        EffectiveConfig
	features      triState
	independent   triState
	unsupported   bool
	building      bool
}

func (s *mutableState) CompletedPhase() phase.Phase { return s.completed }
func (s *mutableState) SetUnsupported() { s.unsupported = true }
func (s *mutableState) state() *mutableState { return s }

// attachEffectiveCopy interns an effective copy made from this statement.
func (s *mutableState) attachEffectiveCopy(key copyKey, e model.Effective) model.Effective {
	if s.copies == nil {
		s.copies = make(map[copyKey]model.Effective)
	}
	if existing, ok := s.copies[key]; ok {
		return existing
	}
	s.copies[key] = e
	return e
}

// NewSourceError builds a source error located at ctx.
func NewSourceError(ctx Ctx, code yangerrors.ErrorCode, format string, args ...any) *yangerrors.SourceError {
	ref := ctx.Ref()
	return yangerrors.NewSourceError(code, ref.Path, ref.Line, ref.Column, format, args...)
}

// NewInferenceError builds an inference error located at ctx.
func NewInferenceError(ctx Ctx, code yangerrors.ErrorCode, format string, args ...any) *yangerrors.InferenceError {
	ref := ctx.Ref()
	return yangerrors.NewInferenceError(code, ref.Path, ref.Line, ref.Column, format, args...)
}

// Describe renders a statement for messages.
func Describe(ctx Ctx) string {
	if ctx == nil {
		return "<nil>"
	}
	arg := ctx.RawArgument()
	if arg == "" {
		if a := ctx.Argument(); a != nil {
			arg = fmt.Sprint(a)
		}
	}
	if arg == "" {
		return fmt.Sprintf("%s at %s", ctx.Keyword(), ctx.Ref())
	}
	return fmt.Sprintf("%s %s at %s", ctx.Keyword(), arg, ctx.Ref())
}

func buildOf(ctx Ctx) *buildContext {
	return ctx.Root().source.build
}

func effectiveConfigOf(n Ctx) EffectiveConfig {
	st := n.state()
	if st.config != configUnknown {
		return st.config
	}
	cfg := computeConfig(n)
	// inference may still rewrite config statements of ancestors
	if buildOf(n).collecting {
		st.config = cfg
	}
	return cfg
}

func supportedByFeatures(n Ctx) bool {
	st := n.state()
	if st.features != triUnknown {
		return st.features == triTrue
	}
	ok := true
	if fc, isCarrier := n.Support().(FeatureCarrier); isCarrier && fc.CarriesFeatures() {
		return true
	}
	for _, child := range n.declaredNodes() {
		gate, isGate := child.Support().(FeatureGate)
		if isGate && !gate.Enabled(child) {
			ok = false
			break
		}
	}
	if st.completed >= phase.FullDeclaration {
		st.features = triOf(ok)
	}
	return ok
}

func findArgument(keyword string, groups ...[]Ctx) (any, bool) {
	for _, group := range groups {
		for _, child := range group {
			if child.Keyword() == keyword && child.IsSupported() {
				return child.Argument(), true
			}
		}
	}
	return nil, false
}

func loadDeclared(n Ctx) (model.Declared, error) {
	st := n.state()
	if st.declaredInst != nil {
		return st.declaredInst, nil
	}
	var subs []model.Declared
	for _, child := range n.declaredNodes() {
		ds, err := declaredOf(child)
		if err != nil {
			return nil, err
		}
		subs = append(subs, ds...)
	}
	d, err := n.Support().CreateDeclared(n, subs)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", Describe(n), err)
	}
	st.declaredInst = d
	return d, nil
}

// declaredOf returns the declared form of child, splicing the children of
// implicit statements into their parent.
func declaredOf(child Ctx) ([]model.Declared, error) {
	if dc, ok := child.(*declaredCtx); ok && dc.implicit {
		var out []model.Declared
		for _, grand := range dc.declaredNodes() {
			ds, err := declaredOf(grand)
			if err != nil {
				return nil, err
			}
			out = append(out, ds...)
		}
		return out, nil
	}
	d, err := child.Declared()
	if err != nil {
		return nil, err
	}
	return []model.Declared{d}, nil
}

func loadEffective(n Ctx) (model.Effective, error) {
	st := n.state()
	if st.effectiveInst != nil {
		return st.effectiveInst, nil
	}
	if !n.IsSupported() {
		return nil, fmt.Errorf("statement %s is not supported", Describe(n))
	}
	if st.building {
		return nil, fmt.Errorf("statement %s: effective statement depends on itself", Describe(n))
	}
	st.building = true
	e, err := n.buildEffective()
	st.building = false
	if err != nil {
		return nil, err
	}
	st.effectiveInst = e
	// the substatements are no longer needed for this statement's own view
	if r := &n.common().refs; r.state == refLive && r.count == 0 {
		sweepOnDecrement(n)
	}
	return e, nil
}

func effectivesOf(children []Ctx) ([]model.Effective, error) {
	subs := make([]model.Effective, 0, len(children))
	for _, child := range children {
		if !child.IsSupported() {
			continue
		}
		e, err := child.Effective()
		if err != nil {
			return nil, err
		}
		subs = append(subs, e)
	}
	return subs, nil
}

func buildFromSubstatements(n Ctx, children []Ctx) (model.Effective, error) {
	subs, err := effectivesOf(children)
	if err != nil {
		return nil, err
	}
	e, err := n.Support().CreateEffective(n, subs)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", Describe(n), err)
	}
	return e, nil
}

func checkNotSealed(n Ctx) error {
	if n.CompletedPhase() == phase.EffectiveModel {
		return NewSourceError(n, yangerrors.ErrSealed, "statement %s: effective substatements are frozen", Describe(n))
	}
	return nil
}

// registerSchemaChild publishes schema tree children in their parent's
// schema tree namespace.
func registerSchemaChild(parent, child Ctx) error {
	if !child.Support().IsSchemaTree() {
		return nil
	}
	q, ok := child.Argument().(qname.QName)
	if !ok {
		return nil
	}
	prev, loaded, err := SchemaTree.PutIfAbsent(parent, q, child)
	if err != nil {
		return err
	}
	if loaded && prev != child {
		return NewSourceError(child, yangerrors.ErrDuplicate,
			"%s %s conflicts with %s", child.Keyword(), q.Local, Describe(prev))
	}
	return nil
}

func addEffective(n Ctx, children []Ctx) error {
	if err := checkNotSealed(n); err != nil {
		return err
	}
	st := n.state()
	for _, child := range children {
		if child == nil {
			continue
		}
		if err := registerSchemaChild(n, child); err != nil {
			return err
		}
		st.effective = append(st.effective, child)
	}
	return nil
}

func removeEffective(n Ctx, match func(Ctx) bool) error {
	if err := checkNotSealed(n); err != nil {
		return err
	}
	for _, child := range n.declaredNodes() {
		if match(child) {
			child.SetUnsupported()
		}
	}
	st := n.state()
	st.effective = slices.DeleteFunc(st.effective, match)
	return nil
}

func createUndeclared(parent Ctx, support Support, argument any) (Ctx, error) {
	if parent.state() == nil {
		return nil, ErrReplicaImmutable
	}
	u := &undeclaredCtx{parent: parent}
	u.support = support
	u.argument = argument
	u.ref = parent.Ref()
	u.history = parent.History()
	u.completed = min(parent.CompletedPhase(), phase.FullDeclaration)
	buildOf(parent).stats.statements++
	if err := support.OnStatementAdded(u); err != nil {
		return nil, err
	}
	return u, nil
}

func newInferenceAction(n Ctx, p phase.Phase) (*Modifier, error) {
	return n.Root().source.newModifier(p, n)
}
