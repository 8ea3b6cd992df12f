package xpath

import (
	"iter"

	"github.com/midbel/xee/xml"
)

// Expr is a compiled expression. find evaluates it fully while choose
// yields its items one by one so callers can stop early.
type Expr interface {
	find(*Context) (Sequence, error)
	choose(*Context) iter.Seq2[Item, error]
}

type literal struct {
	expr string
}

func (e literal) find(_ *Context) (Sequence, error) {
	return Singleton(createString(e.expr)), nil
}

func (e literal) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

type number struct {
	value Item
}

func (e number) find(_ *Context) (Sequence, error) {
	return Sequence{e.value}, nil
}

func (e number) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

type identifier struct {
	ident string
}

func (e identifier) find(ctx *Context) (Sequence, error) {
	return ctx.Resolve(e.ident)
}

func (e identifier) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// root selects the document node of the tree holding the context
// item.
type root struct{}

func (e root) find(ctx *Context) (Sequence, error) {
	n, err := ctx.currentNode()
	if err != nil {
		return nil, err
	}
	r := rootOf(n)
	if r.Kind() != KindDocument {
		return nil, errorf(CodeTreatAs, "root of the tree is not a document node")
	}
	return Singleton(createNode(r)), nil
}

func (e root) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// current selects the context item itself.
type current struct{}

func (e current) find(ctx *Context) (Sequence, error) {
	if ctx.Item == nil {
		return nil, missingContext()
	}
	return Sequence{ctx.Item}, nil
}

func (e current) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// axisStep yields the nodes of one axis that pass its node test, in
// axis order.
type axisStep struct {
	axis      string
	principal NodeKind
	test      nodeTest
}

func (e axisStep) find(ctx *Context) (Sequence, error) {
	return materialize(e.choose(ctx))
}

func (e axisStep) choose(ctx *Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		node, err := ctx.currentNode()
		if err != nil {
			yield(nil, err)
			return
		}
		for n := range ctx.iterAxis(e.axis, node) {
			if !e.test.matches(n, e.principal) {
				continue
			}
			if !yield(createNode(n), nil) {
				return
			}
		}
	}
}

// step composes a path: the right side runs once per item selected
// by the left side, and the combined result comes back deduplicated
// in document order.
type step struct {
	curr Expr
	next Expr
}

func (e step) find(ctx *Context) (Sequence, error) {
	list, err := e.curr.find(ctx)
	if err != nil {
		return nil, err
	}
	saved := ctx.saveFocus()
	defer ctx.restoreFocus(saved)
	ctx.Size = len(list)
	var out Sequence
	for i, it := range list {
		if it.Node() == nil {
			return nil, typeErrorf("path step applied to an atomic value")
		}
		ctx.Item = it
		ctx.Pos = i + 1
		sub, err := e.next.find(ctx)
		if err != nil {
			return nil, err
		}
		out.Concat(sub)
	}
	return normalizeNodes(out)
}

func (e step) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// filter keeps the items of a sequence whose predicate holds. A
// predicate evaluating to a number keeps the item at that position
// instead.
type filter struct {
	expr Expr
	pred Expr
}

func (e filter) find(ctx *Context) (Sequence, error) {
	list, err := materialize(e.expr.choose(ctx))
	if err != nil {
		return nil, err
	}
	saved := ctx.saveFocus()
	defer ctx.restoreFocus(saved)
	ctx.Size = len(list)
	var out Sequence
	for i, it := range list {
		ctx.Item = it
		ctx.Pos = i + 1
		keep, err := e.keep(ctx)
		if err != nil {
			return nil, err
		}
		if keep {
			out.Append(it)
		}
	}
	return out, nil
}

func (e filter) keep(ctx *Context) (bool, error) {
	res, err := e.pred.find(ctx)
	if err != nil {
		return false, err
	}
	if res.Len() == 1 && res[0].Atomic() && isNumericType(res[0].Type()) {
		val, err := toFloat(res[0].Value())
		if err != nil {
			return false, err
		}
		return val == float64(ctx.Pos), nil
	}
	return res.True()
}

func (e filter) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// index is the fast path for a constant positional predicate: the
// input is abandoned as soon as the wanted position is reached.
type index struct {
	expr Expr
	pos  int
}

func (e index) find(ctx *Context) (Sequence, error) {
	return materialize(e.choose(ctx))
}

func (e index) choose(ctx *Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		if e.pos <= 0 {
			return
		}
		count := 0
		for it, err := range e.expr.choose(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			count++
			if count == e.pos {
				yield(it, nil)
				return
			}
		}
	}
}

// sequence concatenates the results of its members in order.
type sequence struct {
	all []Expr
}

func (e sequence) find(ctx *Context) (Sequence, error) {
	return materialize(e.choose(ctx))
}

func (e sequence) choose(ctx *Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for _, ex := range e.all {
			for it, err := range ex.choose(ctx) {
				if err != nil {
					yield(nil, err)
					return
				}
				if !yield(it, nil) {
					return
				}
			}
		}
	}
}

type call struct {
	name xml.QName
	def  *FunctionDef
	args []Expr
}

func (e call) find(ctx *Context) (Sequence, error) {
	res, err := e.def.Call(ctx, e.args)
	if err != nil {
		ctx.tracer.Error(e.name.QualifiedName(), err)
		return nil, err
	}
	return res, nil
}

func (e call) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

type binding struct {
	ident string
	expr  Expr
}

// let binds variables one after the other, each visible to the next,
// then evaluates its body.
type let struct {
	binds []binding
	body  Expr
}

func (e let) find(ctx *Context) (Sequence, error) {
	ctx.pushScope()
	defer ctx.popScope()
	for _, b := range e.binds {
		seq, err := b.expr.find(ctx)
		if err != nil {
			return nil, err
		}
		ctx.Define(b.ident, seq)
	}
	return e.body.find(ctx)
}

func (e let) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// loop is the for expression. Variables turn like the wheels of an
// odometer, rightmost fastest, and the body runs once per tuple.
type loop struct {
	binds []binding
	body  Expr
}

func (e loop) find(ctx *Context) (Sequence, error) {
	return materialize(e.choose(ctx))
}

func (e loop) choose(ctx *Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		ctx.pushScope()
		defer ctx.popScope()
		e.run(ctx, e.binds, yield)
	}
}

func (e loop) run(ctx *Context, binds []binding, yield func(Item, error) bool) bool {
	if len(binds) == 0 {
		for it, err := range e.body.choose(ctx) {
			if err != nil {
				yield(nil, err)
				return false
			}
			if !yield(it, nil) {
				return false
			}
		}
		return true
	}
	head := binds[0]
	seq, err := head.expr.find(ctx)
	if err != nil {
		yield(nil, err)
		return false
	}
	for _, it := range seq {
		ctx.Define(head.ident, Singleton(it))
		if !e.run(ctx, binds[1:], yield) {
			return false
		}
	}
	return true
}

// quantified is some or every. Both stop at the first binding tuple
// that decides the answer.
type quantified struct {
	binds []binding
	test  Expr
	every bool
}

func (e quantified) find(ctx *Context) (Sequence, error) {
	ctx.pushScope()
	defer ctx.popScope()
	ok, err := e.run(ctx, e.binds)
	if err != nil {
		return nil, err
	}
	return Singleton(createBool(ok)), nil
}

func (e quantified) run(ctx *Context, binds []binding) (bool, error) {
	if len(binds) == 0 {
		return booleanOf(e.test.choose(ctx))
	}
	head := binds[0]
	seq, err := head.expr.find(ctx)
	if err != nil {
		return false, err
	}
	for _, it := range seq {
		ctx.Define(head.ident, Singleton(it))
		ok, err := e.run(ctx, binds[1:])
		if err != nil {
			return false, err
		}
		if ok != e.every {
			return ok, nil
		}
	}
	return e.every, nil
}

func (e quantified) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

type conditional struct {
	test Expr
	csq  Expr
	alt  Expr
}

func (e conditional) find(ctx *Context) (Sequence, error) {
	ok, err := booleanOf(e.test.choose(ctx))
	if err != nil {
		return nil, err
	}
	if ok {
		return e.csq.find(ctx)
	}
	return e.alt.find(ctx)
}

func (e conditional) choose(ctx *Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		ok, err := booleanOf(e.test.choose(ctx))
		if err != nil {
			yield(nil, err)
			return
		}
		next := e.alt
		if ok {
			next = e.csq
		}
		for it, err := range next.choose(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(it, nil) {
				return
			}
		}
	}
}
