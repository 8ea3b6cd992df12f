package xpath

import "iter"

type castExpr struct {
	expr       Expr
	typ        Type
	allowEmpty bool
}

func (e castExpr) find(ctx *Context) (Sequence, error) {
	it, err := singleValue(e.expr, ctx)
	if err != nil {
		return nil, err
	}
	if it == nil {
		if e.allowEmpty {
			return nil, nil
		}
		return nil, typeErrorf("cast of an empty sequence")
	}
	res, err := e.typ.Cast(it)
	if err != nil {
		return nil, err
	}
	return Sequence{res}, nil
}

func (e castExpr) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// castableExpr answers whether the cast would succeed. It never
// raises the cast error itself.
type castableExpr struct {
	expr       Expr
	typ        Type
	allowEmpty bool
}

func (e castableExpr) find(ctx *Context) (Sequence, error) {
	seq, err := e.expr.find(ctx)
	if err != nil {
		return nil, err
	}
	seq, err = Atomize(seq)
	if err != nil {
		return nil, err
	}
	switch seq.Len() {
	case 0:
		return Singleton(createBool(e.allowEmpty)), nil
	case 1:
		_, err := e.typ.Cast(seq[0])
		return Singleton(createBool(err == nil)), nil
	default:
		return Singleton(createBool(false)), nil
	}
}

func (e castableExpr) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

type instanceOf struct {
	expr Expr
	st   SequenceType
}

func (e instanceOf) find(ctx *Context) (Sequence, error) {
	seq, err := e.expr.find(ctx)
	if err != nil {
		return nil, err
	}
	return Singleton(createBool(e.st.Matches(seq))), nil
}

func (e instanceOf) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// treatAs asserts the sequence type of its operand at evaluation
// time and passes the value through unchanged.
type treatAs struct {
	expr Expr
	st   SequenceType
}

func (e treatAs) find(ctx *Context) (Sequence, error) {
	seq, err := e.expr.find(ctx)
	if err != nil {
		return nil, err
	}
	if !e.st.Matches(seq) {
		return nil, errorf(CodeTreatAs, "sequence does not match type %s", e.st)
	}
	return seq, nil
}

func (e treatAs) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}
