// Package translate renders a mutated formula tree for one dialect.
package translate

import (
	stderrors "errors"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/zoobzio/formula/internal/datatype"
	"github.com/zoobzio/formula/internal/diag"
	"github.com/zoobzio/formula/internal/dialect"
	"github.com/zoobzio/formula/internal/nodes"
	"github.com/zoobzio/formula/internal/registry"
	"github.com/zoobzio/formula/internal/render"
)

// Dialect is the set of strategies resolved for one requested dialect.
type Dialect struct {
	Combo    dialect.Combo
	Literals render.Literalizer
	Columns  render.ColumnRenderer
	Post     render.ContextPostprocessor
	Features render.Features
}

// Env describes the fields a formula may reference.
type Env struct {
	Types map[string]datatype.DataType
	Names render.FieldNames
	// RestrictFields makes references to fields missing from Types an error.
	RestrictFields bool
}

// Options tune one translation.
type Options struct {
	// Condition renders the result as a predicate, as for a filter.
	Condition bool
	// Unprefixed renders columns without their table qualifier.
	Unprefixed bool
}

// Output is a finished translation. Expr is nil when Diagnostics holds an
// error.
type Output struct {
	Expr        render.Expr
	Type        datatype.DataType
	Scopes      []string
	Diagnostics []diag.Diagnostic
}

// Translator renders trees against a sealed registry. It holds per-compile
// state and must not be shared between goroutines.
type Translator struct {
	reg  *registry.Registry
	d    Dialect
	env  Env
	opts Options
	log  logrus.FieldLogger

	memo   map[string]memoized
	scopes map[string]struct{}
	diags  []diag.Diagnostic
}

type result struct {
	expr  render.Expr
	typ   datatype.DataType
	value any
	ok    bool
}

// New creates a translator.
func New(reg *registry.Registry, d Dialect, env Env, opts Options, log logrus.FieldLogger) *Translator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Translator{
		reg:    reg,
		d:      d,
		env:    env,
		opts:   opts,
		log:    log,
		memo:   make(map[string]memoized),
		scopes: make(map[string]struct{}),
	}
}

// Translate renders tree, which must already have been through the standard
// mutation pipeline. Problems with the formula are returned as diagnostics;
// an error means the engine itself cannot serve the tree.
func (t *Translator) Translate(tree nodes.Node) (*Output, error) {
	res, err := t.translate(tree)
	if err != nil {
		return nil, err
	}

	out := &Output{Type: res.typ}
	if res.ok {
		if t.opts.Condition {
			out.Expr = t.booleanize(tree, res)
			out.Type = datatype.Boolean
		} else {
			out.Expr = t.d.Post.Debooleanize(res.typ, res.expr)
		}
	}
	for name := range t.scopes {
		out.Scopes = append(out.Scopes, name)
	}
	sort.Strings(out.Scopes)
	out.Diagnostics = t.diags
	if diag.HasErrors(out.Diagnostics) {
		out.Expr = nil
		out.Type = datatype.Unsupported
	}
	return out, nil
}

func (t *Translator) report(d diag.Diagnostic) result {
	t.diags = append(t.diags, d)
	return result{typ: datatype.Unsupported}
}

func (t *Translator) translate(n nodes.Node) (result, error) {
	key := n.Extract().Key()
	if m, ok := t.memo[key]; ok && nodes.Equal(m.node, n) {
		return m.r, nil
	}
	r, err := t.translateNode(n)
	if err != nil {
		return result{}, err
	}
	t.memo[key] = memoized{node: n, r: r}
	return r, nil
}

type memoized struct {
	node nodes.Node
	r    result
}

func (t *Translator) translateNode(n nodes.Node) (result, error) {
	switch x := n.(type) {
	case *nodes.Literal:
		return t.literal(x), nil
	case *nodes.Null:
		e, err := t.d.Literals.LiteralNull(t.d.Combo)
		if err != nil {
			return t.report(diag.New(diag.CodeLiteralUnsupported, n, "%v", err)), nil
		}
		return result{expr: e, typ: datatype.Null, ok: true}, nil
	case *nodes.Field:
		return t.field(x), nil
	case *nodes.Compiled:
		return result{expr: x.Expr(), typ: x.Type(), ok: true}, nil
	case *nodes.FuncCall:
		return t.call(x)
	case *nodes.BeforeFilterBy:
		return t.beforeFilterBy(x)
	}
	return result{}, errors.Errorf("translate: %s node reached the translator; lower it with the standard pipeline first", n.Kind())
}

func (t *Translator) literal(n *nodes.Literal) result {
	e, err := render.Literalize(t.d.Literals, t.d.Combo, n.Type(), n.Value())
	if err != nil {
		return t.report(diag.New(diag.CodeLiteralUnsupported, n, "%v", err))
	}
	return result{expr: e, typ: n.Type(), value: n.Value(), ok: true}
}

func (t *Translator) field(n *nodes.Field) result {
	typ, known := t.env.Types[n.Name()]
	if !known {
		if t.env.RestrictFields {
			return t.report(diag.New(diag.CodeUnknownField, n, "unknown field %q", n.Name()))
		}
		typ = datatype.Unsupported
	}
	var col *render.Column
	if t.opts.Unprefixed || !t.d.Features.QualifiedColumns {
		col = t.d.Columns.MakeUnprefixedColumn(n.Name(), t.env.Names)
	} else {
		col = t.d.Columns.MakeColumn(n.Name(), t.env.Names)
	}
	return result{expr: col, typ: typ, ok: true}
}

func classOf(n *nodes.FuncCall) registry.Classification {
	switch {
	case n.IsWindow():
		return registry.Window
	case n.IsAggregate():
		return registry.Aggregate
	case n.IsOperator():
		return registry.Operator
	}
	return registry.Function
}

func (t *Translator) call(n *nodes.FuncCall) (result, error) {
	args := n.Args()
	op, err := t.reg.Lookup(n.Name(), len(args), classOf(n))
	if err != nil {
		return result{}, err
	}

	within, order := n.Within(), n.Order()
	if len(within) > 0 && !op.Caps.Has(registry.SupportsGrouping) {
		return t.report(diag.New(diag.CodeGroupingUnsupported, n, "%s does not accept WITHIN", op.Name)), nil
	}
	if len(order) > 0 && !op.Caps.Has(registry.SupportsOrdering) {
		return t.report(diag.New(diag.CodeGroupingUnsupported, n, "%s does not accept ORDER BY", op.Name)), nil
	}

	ok := true
	rendered := make([]registry.Arg, len(args))
	for i, a := range args {
		r, err := t.translate(a)
		if err != nil {
			return result{}, err
		}
		if !r.ok {
			ok = false
			continue
		}
		if op.Conditions.IsCondition(i, len(args)) {
			rendered[i] = registry.Arg{Expr: t.booleanize(a, r), Type: r.typ, Value: r.value}
		} else {
			rendered[i] = registry.Arg{Expr: t.d.Post.Debooleanize(r.typ, r.expr), Type: r.typ, Value: r.value}
		}
	}
	partition, ok2, err := t.values(within)
	if err != nil {
		return result{}, err
	}
	ordering, ok3, err := t.values(order)
	if err != nil {
		return result{}, err
	}
	if !ok || !ok2 || !ok3 {
		return result{typ: datatype.Unsupported}, nil
	}

	ctx := &registry.Context{
		Dialect:  t.d.Combo,
		Literals: t.d.Literals,
		Post:     t.d.Post,
		Features: t.d.Features,
		Within:   partition,
		Order:    ordering,
	}
	e, typ, err := t.reg.Render(op, ctx, rendered)
	if err != nil {
		return t.renderError(n, err)
	}
	if typ == datatype.Unsupported && !anyUnsupported(rendered) {
		return t.report(diag.New(diag.CodeArgumentTypes, n, "%s arguments have no common type", op.Name)), nil
	}
	t.log.WithFields(logrus.Fields{"op": op.Name, "type": typ.String()}).Debug("translated call")
	return result{expr: e, typ: typ, ok: true}, nil
}

func (t *Translator) values(ns []nodes.Node) ([]render.Expr, bool, error) {
	out := make([]render.Expr, 0, len(ns))
	ok := true
	for _, n := range ns {
		r, err := t.translate(n)
		if err != nil {
			return nil, false, err
		}
		if !r.ok {
			ok = false
			continue
		}
		out = append(out, t.d.Post.Debooleanize(r.typ, r.expr))
	}
	return out, ok, nil
}

func anyUnsupported(args []registry.Arg) bool {
	for _, a := range args {
		if a.Type == datatype.Unsupported {
			return true
		}
	}
	return false
}

func (t *Translator) renderError(n nodes.Node, err error) (result, error) {
	var ate *registry.ArgumentTypeError
	if stderrors.As(err, &ate) {
		return t.report(diag.New(diag.CodeArgumentTypes, n, "%v", ate)), nil
	}
	var ufe render.UnsupportedFeatureError
	if stderrors.As(err, &ufe) {
		code := diag.CodeUnavailable
		if ufe.Kind == render.FeatureLiteral {
			code = diag.CodeLiteralUnsupported
		}
		return t.report(diag.New(code, n, "%v", ufe)), nil
	}
	return result{}, errors.WithStack(err)
}

func (t *Translator) booleanize(n nodes.Node, r result) render.Expr {
	if r.typ.IsDateLike() && !render.IsCondition(r.expr) {
		t.diags = append(t.diags, diag.Warn(diag.CodeConstantCondition, n,
			"a %s value used as a condition is always true", r.typ.NonConst()))
	}
	return t.d.Post.Booleanize(r.typ, r.expr)
}

func (t *Translator) beforeFilterBy(n *nodes.BeforeFilterBy) (result, error) {
	inner := n.Expr()
	fc, isCall := inner.(*nodes.FuncCall)
	supported := false
	if isCall {
		op, err := t.reg.Lookup(fc.Name(), len(fc.Args()), classOf(fc))
		if err != nil {
			return result{}, err
		}
		supported = op.Caps.Has(registry.SupportsBeforeFilterBy)
	}
	if !supported {
		return t.report(diag.New(diag.CodeScopeUnsupported, n,
			"BEFORE FILTER BY applies only to aggregations that support it")), nil
	}
	for _, name := range n.Names() {
		t.scopes[name] = struct{}{}
	}
	return t.translate(inner)
}
