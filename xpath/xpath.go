package xpath

import (
	"errors"
	"iter"
	"maps"
	"math"
	"strings"
	"time"

	"github.com/midbel/xee/environ"
	"github.com/midbel/xee/schema"
	"github.com/midbel/xee/xml"
)

// Query is a compiled expression ready for evaluation. A Query holds
// no evaluation state, so one Query can be used from several
// goroutines at once.
type Query struct {
	expr Expr

	version     int
	namespaces  map[string]string
	vars        map[string]Sequence
	schema      *schema.Schema
	documents   map[string]Node
	collections map[string][]Item
	now         time.Time
	loc         *time.Location
	tracer      Tracer
}

// Option configures a Query before its expression is compiled.
type Option func(*Query) error

// WithNamespace binds a prefix for the expression. The xml, xs and fn
// prefixes are bound out of the box and can be rebound.
func WithNamespace(prefix, uri string) Option {
	return func(q *Query) error {
		q.namespaces[prefix] = uri
		return nil
	}
}

// WithVariable binds a variable visible to the expression. The value
// can be a single Go value, a Node, an Item or a whole Sequence.
func WithVariable(name string, value any) Option {
	return func(q *Query) error {
		seq, err := sequenceOf(value)
		if err != nil {
			return err
		}
		q.vars[name] = seq
		return nil
	}
}

// WithSchema attaches a schema used to check that the expression can
// select something at all from documents the schema describes.
func WithSchema(s *schema.Schema) Option {
	return func(q *Query) error {
		q.schema = s
		return nil
	}
}

// WithDocument makes a tree available to the doc function under the
// given uri.
func WithDocument(uri string, root any) Option {
	return func(q *Query) error {
		node, err := BuildTree(root, WithBuildURI(uri))
		if err != nil {
			return err
		}
		q.documents[uri] = node
		return nil
	}
}

// WithCollection makes a list of values available to the collection
// function. An empty uri binds the default collection.
func WithCollection(uri string, values ...any) Option {
	return func(q *Query) error {
		seq, err := sequenceOf(values...)
		if err != nil {
			return err
		}
		q.collections[uri] = seq
		return nil
	}
}

// WithTimezone sets the implicit timezone of the evaluation.
func WithTimezone(loc *time.Location) Option {
	return func(q *Query) error {
		q.loc = loc
		return nil
	}
}

// WithNow freezes the point in time reported by current-dateTime.
// Without it every evaluation observes the wall clock once.
func WithNow(now time.Time) Option {
	return func(q *Query) error {
		q.now = now
		return nil
	}
}

// WithVersion selects the grammar. Version 2 is the default, version
// 1 keeps the word operators of the larger grammar usable as element
// names.
func WithVersion(version int) Option {
	return func(q *Query) error {
		q.version = version
		return nil
	}
}

// WithTracer observes compilation and evaluation of the query.
func WithTracer(t Tracer) Option {
	return func(q *Query) error {
		if t != nil {
			q.tracer = t
		}
		return nil
	}
}

// Build compiles an expression with the default configuration.
func Build(query string) (*Query, error) {
	return BuildWith(query)
}

// BuildWith compiles an expression after applying the given options.
// Besides syntax errors, errors that do not depend on a context item,
// like a division by zero between literals, are reported here rather
// than at evaluation.
func BuildWith(query string, opts ...Option) (*Query, error) {
	q := Query{
		version:     2,
		namespaces:  make(map[string]string),
		vars:        make(map[string]Sequence),
		documents:   make(map[string]Node),
		collections: make(map[string][]Item),
		tracer:      discardTracer{},
	}
	for _, opt := range opts {
		if err := opt(&q); err != nil {
			return nil, err
		}
	}
	grammar, err := grammarForVersion(q.version)
	if err != nil {
		return nil, err
	}
	cp := NewCompiler(strings.NewReader(query))
	cp.grammar = grammar
	cp.Tracer = q.tracer
	maps.Copy(cp.namespaces, q.namespaces)

	expr, err := cp.Compile()
	if err != nil {
		return nil, err
	}
	q.expr = expr
	if err := q.check(); err != nil {
		return nil, err
	}
	return &q, nil
}

// Find evaluates the query against a tree and materializes the
// result. The root can be a Node from BuildTree or any of the raw
// shapes BuildTree accepts.
func (q *Query) Find(root any) (Sequence, error) {
	node, err := BuildTree(root)
	if err != nil {
		return nil, err
	}
	return q.FindContext(q.newContext(createNode(node)))
}

// Select evaluates the query against a tree and streams the result.
// Steps and predicates are pulled one item at a time, so abandoning
// the iteration early skips the work of the remaining items.
func (q *Query) Select(root any) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		node, err := BuildTree(root)
		if err != nil {
			yield(nil, err)
			return
		}
		for it, err := range q.SelectContext(q.newContext(createNode(node))) {
			if !yield(it, err) {
				return
			}
		}
	}
}

// FindContext evaluates the query under a context owned by the
// caller.
func (q *Query) FindContext(ctx *Context) (Sequence, error) {
	if ctx == nil {
		return nil, missingContext()
	}
	return q.expr.find(ctx)
}

// SelectContext streams the query under a context owned by the
// caller.
func (q *Query) SelectContext(ctx *Context) iter.Seq2[Item, error] {
	if ctx == nil {
		return stream(nil, missingContext())
	}
	return q.expr.choose(ctx)
}

func (q *Query) newContext(it Item) *Context {
	ctx := Context{
		Item:        it,
		Pos:         1,
		Size:        1,
		vars:        environ.Empty[Sequence](),
		documents:   q.documents,
		collections: q.collections,
		now:         q.timestamp(),
		tracer:      q.tracer,
	}
	for name, seq := range q.vars {
		ctx.vars.Define(name, seq)
	}
	return &ctx
}

func (q *Query) timestamp() time.Time {
	now := q.now
	if now.IsZero() {
		now = time.Now()
	}
	if q.loc != nil {
		now = now.In(q.loc)
	}
	return now
}

// check runs the expression once without a context item. Everything
// that needs the context reports a context error and is ignored, the
// rest surfaces now.
func (q *Query) check() error {
	ctx := q.newContext(nil)
	ctx.static = true
	if _, err := q.expr.find(ctx); err != nil && !errors.Is(err, ErrContext) {
		return err
	}
	return q.checkSchema()
}

// checkSchema runs a path of plain name tests over the graph of the
// attached schema. A path that can never select anything from a valid
// document is reported as an error.
func (q *Query) checkSchema() error {
	if q.schema == nil || !allNamePath(q.expr) {
		return nil
	}
	graph, err := BuildSchemaTree(q.schema)
	if err != nil {
		return err
	}
	ctx := q.newContext(createNode(graph))
	ctx.static = true
	res, err := q.expr.find(ctx)
	if err != nil {
		if errors.Is(err, ErrContext) {
			return nil
		}
		return err
	}
	if res.Empty() {
		return errorf(CodeEmptySelect, "expression selects nothing from the schema")
	}
	return nil
}

// allNamePath reports whether the expression is a location path made
// only of name tests, the one shape the schema graph can answer for.
func allNamePath(e Expr) bool {
	switch e := e.(type) {
	case root, current:
		return true
	case step:
		return allNamePath(e.curr) && allNamePath(e.next)
	case axisStep:
		if _, ok := e.test.(nameTest); ok {
			return true
		}
		return anyNodeTest(e.test)
	default:
		return false
	}
}

// anyNodeTest recognizes the bare node() test that a double slash
// inserts between two name steps.
func anyNodeTest(t nodeTest) bool {
	switch t := t.(type) {
	case kindTest:
		return t.kind == KindNode && t.name == "" && t.typ.Zero() && t.inner == nil
	case *kindTest:
		return t.kind == KindNode && t.name == "" && t.typ.Zero() && t.inner == nil
	default:
		return false
	}
}

// NewContext prepares a context of its own for use with FindContext
// or SelectContext. Position and size start at 1 and can be adjusted
// before evaluation, variables can be bound with Define.
func NewContext(root Node) *Context {
	ctx := Context{
		Pos:    1,
		Size:   1,
		vars:   environ.Empty[Sequence](),
		now:    time.Now(),
		tracer: discardTracer{},
	}
	if root != nil {
		ctx.Item = createNode(root)
	}
	return &ctx
}

// Find compiles and evaluates an expression in one call.
func Find(root any, query string) (Sequence, error) {
	q, err := Build(query)
	if err != nil {
		return nil, err
	}
	return q.Find(root)
}

// Select compiles an expression and streams its result in one call.
func Select(root any, query string) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		q, err := Build(query)
		if err != nil {
			yield(nil, err)
			return
		}
		for it, err := range q.Select(root) {
			if !yield(it, err) {
				return
			}
		}
	}
}

func itemize(value any) (Item, error) {
	switch v := value.(type) {
	case Item:
		return v, nil
	case Node:
		return createNode(v), nil
	case *xml.Document, *xml.Element:
		n, err := BuildTree(v)
		if err != nil {
			return nil, err
		}
		return createNode(n), nil
	case string:
		return createString(v), nil
	case bool:
		return createBool(v), nil
	case int:
		return createInt(int64(v)), nil
	case int64:
		return createInt(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, typeErrorf("%d overflows integer", v)
		}
		return createInt(int64(v)), nil
	case float64:
		return createDouble(v), nil
	case time.Time:
		return createTyped(v, dateTimeType), nil
	default:
		return nil, typeErrorf("%T can not be used as a value", value)
	}
}

func sequenceOf(values ...any) (Sequence, error) {
	var seq Sequence
	for _, v := range values {
		switch v := v.(type) {
		case Sequence:
			seq = append(seq, v...)
		case []Item:
			seq = append(seq, v...)
		case []any:
			rest, err := sequenceOf(v...)
			if err != nil {
				return nil, err
			}
			seq = append(seq, rest...)
		default:
			it, err := itemize(v)
			if err != nil {
				return nil, err
			}
			seq = append(seq, it)
		}
	}
	return seq, nil
}
