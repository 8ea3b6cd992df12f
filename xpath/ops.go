package xpath

import (
	"iter"
	"math"
	"strings"
	"time"

	"github.com/midbel/xee/xml"
)

// singleValue atomizes the result of expr and enforces at most one
// item. A nil item with a nil error means the operand was empty.
func singleValue(expr Expr, ctx *Context) (Item, error) {
	seq, err := expr.find(ctx)
	if err != nil {
		return nil, err
	}
	seq, err = Atomize(seq)
	if err != nil {
		return nil, err
	}
	switch seq.Len() {
	case 0:
		return nil, nil
	case 1:
		return seq[0], nil
	default:
		return nil, typeErrorf("operand is a sequence of more than one item")
	}
}

func numericValue(expr Expr, ctx *Context) (Item, error) {
	it, err := singleValue(expr, ctx)
	if err != nil || it == nil {
		return nil, err
	}
	if isUntyped(it) {
		it, err = doubleType.Cast(it)
		if err != nil {
			return nil, err
		}
	}
	if !isNumericType(it.Type()) {
		return nil, typeErrorf("%s can not be used in arithmetic", it.Type().Name().QualifiedName())
	}
	return it, nil
}

type arithmetic struct {
	left  Expr
	right Expr
	op    rune
}

func (e arithmetic) find(ctx *Context) (Sequence, error) {
	left, err := numericValue(e.left, ctx)
	if err != nil || left == nil {
		return nil, err
	}
	right, err := numericValue(e.right, ctx)
	if err != nil || right == nil {
		return nil, err
	}
	return e.apply(left, right)
}

func (e arithmetic) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

func (e arithmetic) apply(left, right Item) (Sequence, error) {
	if e.op == opIdiv {
		return e.quotient(left, right)
	}
	typ := promote(left.Type(), right.Type())
	if e.op == opDiv && (typ == integerType || typ == decimalType) {
		return e.divide(left, right)
	}
	if typ == integerType {
		a, err := toInt(left.Value())
		if err != nil {
			return nil, err
		}
		b, err := toInt(right.Value())
		if err != nil {
			return nil, err
		}
		res, err := applyInt(e.op, a, b)
		if err != nil {
			return nil, err
		}
		return Singleton(createInt(res)), nil
	}
	a, err := toFloat(left.Value())
	if err != nil {
		return nil, err
	}
	b, err := toFloat(right.Value())
	if err != nil {
		return nil, err
	}
	if b == 0 && e.op == opMod && typ == decimalType {
		return nil, errorWith(CodeDivByZero, ErrZero, "modulus by zero")
	}
	return Singleton(createTyped(applyFloat(e.op, a, b), typ)), nil
}

// divide handles div on the exact numeric types: the result is a
// decimal and dividing by zero is an error instead of infinity.
func (e arithmetic) divide(left, right Item) (Sequence, error) {
	a, err := toFloat(left.Value())
	if err != nil {
		return nil, err
	}
	b, err := toFloat(right.Value())
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, errorWith(CodeDivByZero, ErrZero, "division by zero")
	}
	return Singleton(createTyped(a/b, decimalType)), nil
}

func (e arithmetic) quotient(left, right Item) (Sequence, error) {
	a, err := toFloat(left.Value())
	if err != nil {
		return nil, err
	}
	b, err := toFloat(right.Value())
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, errorWith(CodeDivByZero, ErrZero, "integer division by zero")
	}
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) {
		return nil, errorf(CodeNumeric, "idiv operand out of range")
	}
	if promote(left.Type(), right.Type()) == integerType {
		ia, err := toInt(left.Value())
		if err != nil {
			return nil, err
		}
		ib, err := toInt(right.Value())
		if err != nil {
			return nil, err
		}
		return Singleton(createInt(ia / ib)), nil
	}
	return Singleton(createInt(int64(math.Trunc(a / b)))), nil
}

func applyInt(op rune, a, b int64) (int64, error) {
	switch op {
	case opAdd:
		return a + b, nil
	case opSub:
		return a - b, nil
	case opMul:
		return a * b, nil
	case opMod:
		if b == 0 {
			return 0, errorWith(CodeDivByZero, ErrZero, "modulus by zero")
		}
		return a % b, nil
	default:
		return 0, errorf(CodeSyntax, "unsupported arithmetic operator")
	}
}

func applyFloat(op rune, a, b float64) float64 {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		return a / b
	case opMod:
		return math.Mod(a, b)
	default:
		return math.NaN()
	}
}

type unary struct {
	expr  Expr
	minus bool
}

func (e unary) find(ctx *Context) (Sequence, error) {
	it, err := numericValue(e.expr, ctx)
	if err != nil || it == nil {
		return nil, err
	}
	if !e.minus {
		return Sequence{it}, nil
	}
	switch v := it.Value().(type) {
	case int64:
		return Singleton(createInt(-v)), nil
	case float64:
		return Singleton(createTyped(-v, it.Type())), nil
	default:
		return nil, typeErrorf("value can not be negated")
	}
}

func (e unary) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// valueCmp compares two single items. An empty operand yields the
// empty sequence, untyped values compare as strings.
type valueCmp struct {
	left  Expr
	right Expr
	op    rune
}

func (e valueCmp) find(ctx *Context) (Sequence, error) {
	left, err := singleValue(e.left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := singleValue(e.right, ctx)
	if err != nil {
		return nil, err
	}
	if left == nil || right == nil {
		return nil, nil
	}
	if isUntyped(left) {
		left, err = stringType.Cast(left)
		if err != nil {
			return nil, err
		}
	}
	if isUntyped(right) {
		right, err = stringType.Cast(right)
		if err != nil {
			return nil, err
		}
	}
	res, err := compareItems(e.op, left, right)
	if err != nil {
		return nil, err
	}
	return Singleton(createBool(res)), nil
}

func (e valueCmp) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

func compareItems(op rune, left, right Item) (bool, error) {
	if isNumericType(left.Type()) && isNumericType(right.Type()) {
		a, err := toFloat(left.Value())
		if err != nil {
			return false, err
		}
		b, err := toFloat(right.Value())
		if err != nil {
			return false, err
		}
		return compareFloat(op, a, b), nil
	}
	switch a := left.Value().(type) {
	case string:
		if b, ok := right.Value().(string); ok {
			return compareOrdered(op, strings.Compare(a, b)), nil
		}
	case bool:
		if b, ok := right.Value().(bool); ok {
			return compareOrdered(op, int(b2i(a)-b2i(b))), nil
		}
	case time.Time:
		if b, ok := right.Value().(time.Time); ok {
			return compareOrdered(op, a.Compare(b)), nil
		}
	case xml.QName:
		b, ok := right.Value().(xml.QName)
		if !ok {
			break
		}
		same := a.Uri == b.Uri && a.Name == b.Name
		switch op {
		case opValEq, opEq:
			return same, nil
		case opValNe, opNe:
			return !same, nil
		default:
			return false, typeErrorf("names only support equality comparison")
		}
	}
	return false, typeErrorf("%s can not be compared to %s",
		left.Type().Name().QualifiedName(), right.Type().Name().QualifiedName())
}

// compareFloat treats NaN as unordered: every comparison is false
// except not-equal. Equality uses a relative closeness test to soak
// up float noise in computed values.
func compareFloat(op rune, a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return op == opValNe || op == opNe
	}
	switch op {
	case opValEq, opEq:
		return nearlyEqual(a, b)
	case opValNe, opNe:
		return !nearlyEqual(a, b)
	case opValLt, opLt:
		return a < b
	case opValLe, opLe:
		return a <= b || nearlyEqual(a, b)
	case opValGt, opGt:
		return a > b
	case opValGe, opGe:
		return a >= b || nearlyEqual(a, b)
	default:
		return false
	}
}

func nearlyEqual(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	return diff <= 1e-7*math.Max(math.Abs(a), math.Abs(b))
}

func compareOrdered(op rune, cmp int) bool {
	switch op {
	case opValEq, opEq:
		return cmp == 0
	case opValNe, opNe:
		return cmp != 0
	case opValLt, opLt:
		return cmp < 0
	case opValLe, opLe:
		return cmp <= 0
	case opValGt, opGt:
		return cmp > 0
	case opValGe, opGe:
		return cmp >= 0
	default:
		return false
	}
}

// generalCmp is the existential comparison: true when any pair of
// items from the two sequences satisfies the operator.
type generalCmp struct {
	left  Expr
	right Expr
	op    rune
}

func (e generalCmp) find(ctx *Context) (Sequence, error) {
	left, err := e.operand(e.left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := e.operand(e.right, ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range left {
		for _, b := range right {
			ok, err := e.pair(a, b)
			if err != nil {
				return nil, err
			}
			if ok {
				return Singleton(createBool(true)), nil
			}
		}
	}
	return Singleton(createBool(false)), nil
}

func (e generalCmp) operand(expr Expr, ctx *Context) (Sequence, error) {
	seq, err := expr.find(ctx)
	if err != nil {
		return nil, err
	}
	return Atomize(seq)
}

func (e generalCmp) pair(left, right Item) (bool, error) {
	var err error
	if isUntyped(left) && !isUntyped(right) {
		left, err = coerceUntyped(left, right.Type())
		if err != nil {
			return false, err
		}
	}
	if isUntyped(right) && !isUntyped(left) {
		right, err = coerceUntyped(right, left.Type())
		if err != nil {
			return false, err
		}
	}
	return compareItems(e.op, left, right)
}

func (e generalCmp) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// coerceUntyped converts an untyped value for comparison against a
// typed one: to double against numbers, otherwise to the other type.
func coerceUntyped(it Item, other Type) (Item, error) {
	if isNumericType(other) {
		return doubleType.Cast(it)
	}
	return other.Cast(it)
}

// nodeCmp is identity (is) and document order (<<, >>) comparison.
// Each operand must select at most one node.
type nodeCmp struct {
	left  Expr
	right Expr
	op    rune
}

func (e nodeCmp) find(ctx *Context) (Sequence, error) {
	left, err := e.operand(e.left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := e.operand(e.right, ctx)
	if err != nil {
		return nil, err
	}
	if left == nil || right == nil {
		return nil, nil
	}
	switch e.op {
	case opIs:
		return Singleton(createBool(left == right)), nil
	case opBefore, opAfter:
		cmp, err := compareOrder(left, right)
		if err != nil {
			return nil, err
		}
		if e.op == opBefore {
			return Singleton(createBool(cmp < 0)), nil
		}
		return Singleton(createBool(cmp > 0)), nil
	default:
		return nil, errorf(CodeSyntax, "unsupported node comparison")
	}
}

func (e nodeCmp) operand(expr Expr, ctx *Context) (Node, error) {
	seq, err := expr.find(ctx)
	if err != nil {
		return nil, err
	}
	if seq.Empty() {
		return nil, nil
	}
	if seq.Len() > 1 {
		return nil, typeErrorf("operand is a sequence of more than one item")
	}
	n := seq[0].Node()
	if n == nil {
		return nil, typeErrorf("node comparison applied to an atomic value")
	}
	return n, nil
}

func (e nodeCmp) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// logical is and/or with short circuit on the left operand.
type logical struct {
	left  Expr
	right Expr
	and   bool
}

func (e logical) find(ctx *Context) (Sequence, error) {
	ok, err := booleanOf(e.left.choose(ctx))
	if err != nil {
		return nil, err
	}
	if ok != e.and {
		return Singleton(createBool(ok)), nil
	}
	ok, err = booleanOf(e.right.choose(ctx))
	if err != nil {
		return nil, err
	}
	return Singleton(createBool(ok)), nil
}

func (e logical) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// rangeExpr generates the integers between its bounds inclusive. A
// lower bound above the upper one gives the empty sequence.
type rangeExpr struct {
	left  Expr
	right Expr
}

func (e rangeExpr) find(ctx *Context) (Sequence, error) {
	return materialize(e.choose(ctx))
}

func (e rangeExpr) choose(ctx *Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		lo, ok, err := e.bound(e.left, ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		if !ok {
			return
		}
		hi, ok, err := e.bound(e.right, ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		if !ok {
			return
		}
		for i := lo; i <= hi; i++ {
			if !yield(createInt(i), nil) {
				return
			}
		}
	}
}

func (e rangeExpr) bound(expr Expr, ctx *Context) (int64, bool, error) {
	it, err := singleValue(expr, ctx)
	if err != nil || it == nil {
		return 0, false, err
	}
	if isUntyped(it) {
		it, err = integerType.Cast(it)
		if err != nil {
			return 0, false, err
		}
	}
	if it.Type() != integerType {
		return 0, false, typeErrorf("range boundary is not an integer")
	}
	n, err := toInt(it.Value())
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// union merges node sequences, removing duplicate nodes and sorting
// the result in document order.
type union struct {
	all []Expr
}

func (e union) find(ctx *Context) (Sequence, error) {
	var out Sequence
	for _, ex := range e.all {
		seq, err := ex.find(ctx)
		if err != nil {
			return nil, err
		}
		out.Concat(seq)
	}
	if !allNodes(out) {
		return nil, typeErrorf("union requires sequences of nodes")
	}
	return sortNodes(uniqueNodes(out)), nil
}

func (e union) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

type intersect struct {
	left  Expr
	right Expr
}

func (e intersect) find(ctx *Context) (Sequence, error) {
	return combineNodes(ctx, e.left, e.right, true)
}

func (e intersect) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

type except struct {
	left  Expr
	right Expr
}

func (e except) find(ctx *Context) (Sequence, error) {
	return combineNodes(ctx, e.left, e.right, false)
}

func (e except) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}

// combineNodes keeps the nodes of the left sequence that are, or are
// not, present in the right one. Membership is node identity.
func combineNodes(ctx *Context, left, right Expr, keep bool) (Sequence, error) {
	ls, err := left.find(ctx)
	if err != nil {
		return nil, err
	}
	rs, err := right.find(ctx)
	if err != nil {
		return nil, err
	}
	if !allNodes(ls) || !allNodes(rs) {
		return nil, typeErrorf("set operation requires sequences of nodes")
	}
	seen := make(map[Node]struct{}, len(rs))
	for _, it := range rs {
		seen[it.Node()] = struct{}{}
	}
	var out Sequence
	for _, it := range ls {
		if _, ok := seen[it.Node()]; ok == keep {
			out.Append(it)
		}
	}
	return sortNodes(uniqueNodes(out)), nil
}

// concat is the || operator. Empty operands contribute the empty
// string.
type concat struct {
	left  Expr
	right Expr
}

func (e concat) find(ctx *Context) (Sequence, error) {
	a, err := e.part(e.left, ctx)
	if err != nil {
		return nil, err
	}
	b, err := e.part(e.right, ctx)
	if err != nil {
		return nil, err
	}
	return Singleton(createString(a + b)), nil
}

func (e concat) part(expr Expr, ctx *Context) (string, error) {
	it, err := singleValue(expr, ctx)
	if err != nil || it == nil {
		return "", err
	}
	return toString(it.Value()), nil
}

func (e concat) choose(ctx *Context) iter.Seq2[Item, error] {
	return stream(e.find(ctx))
}
