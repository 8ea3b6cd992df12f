package xpath

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/midbel/xee/xml"
)

// BuiltinFunc evaluates a function call. Arguments come in
// unevaluated so implementations control the focus they run under.
type BuiltinFunc func(*Context, []Expr) (Sequence, error)

// FunctionDef describes a builtin function: its name, the accepted
// argument counts and the implementation. A negative MaxArgs means
// the function takes any number of arguments.
type FunctionDef struct {
	Name    xml.QName
	MinArgs int
	MaxArgs int
	Call    BuiltinFunc
}

func fnName(name string) xml.QName {
	return xml.QualifiedName(name, "fn")
}

func define(name string, minArgs, maxArgs int, call BuiltinFunc) *FunctionDef {
	return &FunctionDef{
		Name:    fnName(name),
		MinArgs: minArgs,
		MaxArgs: maxArgs,
		Call:    call,
	}
}

func coreFunctions() []*FunctionDef {
	return []*FunctionDef{
		define("position", 0, 0, callPosition),
		define("last", 0, 0, callLast),
		define("count", 1, 1, callCount),
		define("string", 0, 1, callString),
		define("number", 0, 1, callNumber),
		define("boolean", 1, 1, callBoolean),
		define("not", 1, 1, callNot),
		define("true", 0, 0, callTrue),
		define("false", 0, 0, callFalse),
		define("name", 0, 1, callName),
		define("local-name", 0, 1, callLocalName),
		define("namespace-uri", 0, 1, callNamespaceURI),
		define("root", 0, 1, callRoot),
		define("concat", 2, -1, callConcat),
		define("contains", 2, 2, callContains),
		define("starts-with", 2, 2, callStartsWith),
		define("substring", 2, 3, callSubstring),
		define("string-length", 0, 1, callStringLength),
		define("normalize-space", 0, 1, callNormalizeSpace),
		define("floor", 1, 1, callFloor),
		define("ceiling", 1, 1, callCeiling),
		define("round", 1, 1, callRound),
		define("sum", 1, 2, callSum),
	}
}

func extendedFunctions() []*FunctionDef {
	return []*FunctionDef{
		define("empty", 1, 1, callEmpty),
		define("exists", 1, 1, callExists),
		define("head", 1, 1, callHead),
		define("tail", 1, 1, callTail),
		define("reverse", 1, 1, callReverse),
		define("subsequence", 2, 3, callSubsequence),
		define("string-join", 2, 2, callStringJoin),
		define("abs", 1, 1, callAbs),
		define("min", 1, 1, callMin),
		define("max", 1, 1, callMax),
		define("distinct-values", 1, 1, callDistinctValues),
		define("doc", 1, 1, callDoc),
		define("collection", 0, 1, callCollection),
		define("current-dateTime", 0, 0, callCurrentDateTime),
	}
}

// stringArg returns the string value of the i-th argument, or of the
// context item when the argument is absent. An empty argument gives
// the empty string.
func stringArg(ctx *Context, args []Expr, i int) (string, error) {
	if i >= len(args) {
		if ctx.Item == nil {
			return "", missingContext()
		}
		it, err := atomizeItem(ctx.Item)
		if err != nil {
			return "", err
		}
		return toString(it.Value()), nil
	}
	it, err := singleValue(args[i], ctx)
	if err != nil || it == nil {
		return "", err
	}
	return toString(it.Value()), nil
}

// nodeArg returns the node selected by the i-th argument, or the
// context node when the argument is absent. A nil node with a nil
// error means the argument was empty.
func nodeArg(ctx *Context, args []Expr, i int) (Node, error) {
	if i >= len(args) {
		return ctx.currentNode()
	}
	seq, err := args[i].find(ctx)
	if err != nil {
		return nil, err
	}
	if seq.Empty() {
		return nil, nil
	}
	if seq.Len() > 1 {
		return nil, typeErrorf("argument is a sequence of more than one item")
	}
	n := seq[0].Node()
	if n == nil {
		return nil, typeErrorf("argument is not a node")
	}
	return n, nil
}

// numberArg returns the i-th argument as a single numeric item, nil
// when it evaluates to the empty sequence.
func numberArg(ctx *Context, args []Expr, i int) (Item, error) {
	return numericValue(args[i], ctx)
}

// floatArg returns the i-th argument as a required double.
func floatArg(ctx *Context, args []Expr, i int) (float64, error) {
	it, err := numberArg(ctx, args, i)
	if err != nil {
		return 0, err
	}
	if it == nil {
		return 0, typeErrorf("argument must not be empty")
	}
	return toFloat(it.Value())
}

func callPosition(ctx *Context, _ []Expr) (Sequence, error) {
	if ctx.Pos == 0 {
		return nil, missingContext()
	}
	return Singleton(createInt(int64(ctx.Pos))), nil
}

func callLast(ctx *Context, _ []Expr) (Sequence, error) {
	if ctx.Pos == 0 {
		return nil, missingContext()
	}
	return Singleton(createInt(int64(ctx.Size))), nil
}

func callCount(ctx *Context, args []Expr) (Sequence, error) {
	seq, err := args[0].find(ctx)
	if err != nil {
		return nil, err
	}
	return Singleton(createInt(int64(seq.Len()))), nil
}

func callString(ctx *Context, args []Expr) (Sequence, error) {
	str, err := stringArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	return Singleton(createString(str)), nil
}

func callNumber(ctx *Context, args []Expr) (Sequence, error) {
	var (
		it  Item
		err error
	)
	if len(args) == 0 {
		if ctx.Item == nil {
			return nil, missingContext()
		}
		it, err = atomizeItem(ctx.Item)
	} else {
		it, err = singleValue(args[0], ctx)
	}
	if err != nil {
		return nil, err
	}
	if it == nil {
		return Singleton(createDouble(math.NaN())), nil
	}
	res, err := doubleType.Cast(it)
	if err != nil {
		return Singleton(createDouble(math.NaN())), nil
	}
	return Sequence{res}, nil
}

func callBoolean(ctx *Context, args []Expr) (Sequence, error) {
	ok, err := booleanOf(args[0].choose(ctx))
	if err != nil {
		return nil, err
	}
	return Singleton(createBool(ok)), nil
}

func callNot(ctx *Context, args []Expr) (Sequence, error) {
	ok, err := booleanOf(args[0].choose(ctx))
	if err != nil {
		return nil, err
	}
	return Singleton(createBool(!ok)), nil
}

func callTrue(_ *Context, _ []Expr) (Sequence, error) {
	return Singleton(createBool(true)), nil
}

func callFalse(_ *Context, _ []Expr) (Sequence, error) {
	return Singleton(createBool(false)), nil
}

func callName(ctx *Context, args []Expr) (Sequence, error) {
	n, err := nodeArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return Singleton(createString("")), nil
	}
	return Singleton(createString(n.Name().QualifiedName())), nil
}

func callLocalName(ctx *Context, args []Expr) (Sequence, error) {
	n, err := nodeArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return Singleton(createString("")), nil
	}
	return Singleton(createString(n.Name().Name)), nil
}

func callNamespaceURI(ctx *Context, args []Expr) (Sequence, error) {
	n, err := nodeArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return Singleton(createString("")), nil
	}
	return Singleton(createString(n.Name().Uri)), nil
}

func callRoot(ctx *Context, args []Expr) (Sequence, error) {
	n, err := nodeArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	return Singleton(createNode(rootOf(n))), nil
}

func callConcat(ctx *Context, args []Expr) (Sequence, error) {
	var str strings.Builder
	for i := range args {
		it, err := singleValue(args[i], ctx)
		if err != nil {
			return nil, err
		}
		if it != nil {
			str.WriteString(toString(it.Value()))
		}
	}
	return Singleton(createString(str.String())), nil
}

func callContains(ctx *Context, args []Expr) (Sequence, error) {
	str, err := stringArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	sub, err := stringArg(ctx, args, 1)
	if err != nil {
		return nil, err
	}
	return Singleton(createBool(strings.Contains(str, sub))), nil
}

func callStartsWith(ctx *Context, args []Expr) (Sequence, error) {
	str, err := stringArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	prefix, err := stringArg(ctx, args, 1)
	if err != nil {
		return nil, err
	}
	return Singleton(createBool(strings.HasPrefix(str, prefix))), nil
}

// callSubstring counts characters from one and rounds its numeric
// arguments, so fractional and infinite boundaries behave.
func callSubstring(ctx *Context, args []Expr) (Sequence, error) {
	str, err := stringArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	start, err := floatArg(ctx, args, 1)
	if err != nil {
		return nil, err
	}
	begin := math.Floor(start + 0.5)
	end := math.Inf(1)
	if len(args) == 3 {
		length, err := floatArg(ctx, args, 2)
		if err != nil {
			return nil, err
		}
		end = begin + math.Floor(length+0.5)
	}
	var sb strings.Builder
	for i, r := range []rune(str) {
		at := float64(i + 1)
		if at >= begin && at < end {
			sb.WriteRune(r)
		}
	}
	return Singleton(createString(sb.String())), nil
}

func callStringLength(ctx *Context, args []Expr) (Sequence, error) {
	str, err := stringArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	count := len([]rune(str))
	return Singleton(createInt(int64(count))), nil
}

func callNormalizeSpace(ctx *Context, args []Expr) (Sequence, error) {
	str, err := stringArg(ctx, args, 0)
	if err != nil {
		return nil, err
	}
	str = strings.Join(strings.Fields(str), " ")
	return Singleton(createString(str)), nil
}

func callFloor(ctx *Context, args []Expr) (Sequence, error) {
	return roundingCall(ctx, args, math.Floor)
}

func callCeiling(ctx *Context, args []Expr) (Sequence, error) {
	return roundingCall(ctx, args, math.Ceil)
}

// callRound rounds halves up, so round(-2.5) is -2.
func callRound(ctx *Context, args []Expr) (Sequence, error) {
	return roundingCall(ctx, args, func(v float64) float64 {
		return math.Floor(v + 0.5)
	})
}

func roundingCall(ctx *Context, args []Expr, apply func(float64) float64) (Sequence, error) {
	it, err := numberArg(ctx, args, 0)
	if err != nil || it == nil {
		return nil, err
	}
	switch v := it.Value().(type) {
	case int64:
		return Sequence{it}, nil
	case float64:
		return Singleton(createTyped(apply(v), it.Type())), nil
	default:
		return nil, typeErrorf("argument is not a number")
	}
}

func callAbs(ctx *Context, args []Expr) (Sequence, error) {
	it, err := numberArg(ctx, args, 0)
	if err != nil || it == nil {
		return nil, err
	}
	switch v := it.Value().(type) {
	case int64:
		if v < 0 {
			v = -v
		}
		return Singleton(createInt(v)), nil
	case float64:
		return Singleton(createTyped(math.Abs(v), it.Type())), nil
	default:
		return nil, typeErrorf("argument is not a number")
	}
}

func callSum(ctx *Context, args []Expr) (Sequence, error) {
	seq, err := args[0].find(ctx)
	if err != nil {
		return nil, err
	}
	seq, err = Atomize(seq)
	if err != nil {
		return nil, err
	}
	if seq.Empty() {
		if len(args) == 2 {
			return args[1].find(ctx)
		}
		return Singleton(createInt(0)), nil
	}
	var (
		typ  = integerType
		isum int64
		fsum float64
	)
	for _, it := range seq {
		if isUntyped(it) {
			it, err = doubleType.Cast(it)
			if err != nil {
				return nil, err
			}
		}
		if !isNumericType(it.Type()) {
			return nil, errorWith(CodeInvalidArg, ErrArgument, "sum requires numeric values")
		}
		typ = promote(typ, it.Type())
		switch v := it.Value().(type) {
		case int64:
			isum += v
			fsum += float64(v)
		case float64:
			fsum += v
		}
	}
	if typ == integerType {
		return Singleton(createInt(isum)), nil
	}
	return Singleton(createTyped(fsum, typ)), nil
}

func callEmpty(ctx *Context, args []Expr) (Sequence, error) {
	seq, err := args[0].find(ctx)
	if err != nil {
		return nil, err
	}
	return Singleton(createBool(seq.Empty())), nil
}

func callExists(ctx *Context, args []Expr) (Sequence, error) {
	seq, err := args[0].find(ctx)
	if err != nil {
		return nil, err
	}
	return Singleton(createBool(!seq.Empty())), nil
}

func callHead(ctx *Context, args []Expr) (Sequence, error) {
	for it, err := range args[0].choose(ctx) {
		if err != nil {
			return nil, err
		}
		return Sequence{it}, nil
	}
	return nil, nil
}

func callTail(ctx *Context, args []Expr) (Sequence, error) {
	seq, err := args[0].find(ctx)
	if err != nil {
		return nil, err
	}
	if seq.Len() <= 1 {
		return nil, nil
	}
	return seq[1:], nil
}

func callReverse(ctx *Context, args []Expr) (Sequence, error) {
	seq, err := args[0].find(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(seq)
	slices.Reverse(out)
	return out, nil
}

func callSubsequence(ctx *Context, args []Expr) (Sequence, error) {
	seq, err := args[0].find(ctx)
	if err != nil {
		return nil, err
	}
	start, err := floatArg(ctx, args, 1)
	if err != nil {
		return nil, err
	}
	begin := math.Floor(start + 0.5)
	end := math.Inf(1)
	if len(args) == 3 {
		length, err := floatArg(ctx, args, 2)
		if err != nil {
			return nil, err
		}
		end = begin + math.Floor(length+0.5)
	}
	var out Sequence
	for i, it := range seq {
		at := float64(i + 1)
		if at >= begin && at < end {
			out.Append(it)
		}
	}
	return out, nil
}

func callStringJoin(ctx *Context, args []Expr) (Sequence, error) {
	seq, err := args[0].find(ctx)
	if err != nil {
		return nil, err
	}
	seq, err = Atomize(seq)
	if err != nil {
		return nil, err
	}
	sep, err := stringArg(ctx, args, 1)
	if err != nil {
		return nil, err
	}
	list := make([]string, 0, seq.Len())
	for _, it := range seq {
		if !isUntyped(it) && !stringType.Matches(it) {
			return nil, typeErrorf("string-join requires string values")
		}
		list = append(list, toString(it.Value()))
	}
	return Singleton(createString(strings.Join(list, sep))), nil
}

func callMin(ctx *Context, args []Expr) (Sequence, error) {
	return extremum(ctx, args, true)
}

func callMax(ctx *Context, args []Expr) (Sequence, error) {
	return extremum(ctx, args, false)
}

// extremum folds min or max over the atomized argument. NaN wins
// over every other number, mixing value families is an error.
func extremum(ctx *Context, args []Expr, min bool) (Sequence, error) {
	seq, err := args[0].find(ctx)
	if err != nil {
		return nil, err
	}
	seq, err = Atomize(seq)
	if err != nil {
		return nil, err
	}
	if seq.Empty() {
		return nil, nil
	}
	for i, it := range seq {
		if isUntyped(it) {
			it, err = doubleType.Cast(it)
			if err != nil {
				return nil, err
			}
			seq[i] = it
		}
	}
	if isNumericType(seq[0].Type()) {
		return numericExtremum(seq, min)
	}
	best := seq[0]
	for _, it := range seq[1:] {
		op := opValLt
		if !min {
			op = opValGt
		}
		ok, err := compareItems(op, it, best)
		if err != nil {
			return nil, errorWith(CodeInvalidArg, ErrArgument, "values can not be compared")
		}
		if ok {
			best = it
		}
	}
	return Sequence{best}, nil
}

func numericExtremum(seq Sequence, min bool) (Sequence, error) {
	typ := integerType
	best := math.Inf(1)
	if !min {
		best = math.Inf(-1)
	}
	for _, it := range seq {
		if !isNumericType(it.Type()) {
			return nil, errorWith(CodeInvalidArg, ErrArgument, "values can not be compared")
		}
		typ = promote(typ, it.Type())
		v, err := toFloat(it.Value())
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) {
			return Singleton(createTyped(v, promoteAll(seq))), nil
		}
		if (min && v < best) || (!min && v > best) {
			best = v
		}
	}
	if typ == integerType {
		return Singleton(createInt(int64(best))), nil
	}
	return Singleton(createTyped(best, typ)), nil
}

func promoteAll(seq Sequence) Type {
	typ := integerType
	for _, it := range seq {
		if isNumericType(it.Type()) {
			typ = promote(typ, it.Type())
		}
	}
	if typ == integerType || typ == decimalType {
		return doubleType
	}
	return typ
}

func callDistinctValues(ctx *Context, args []Expr) (Sequence, error) {
	seq, err := args[0].find(ctx)
	if err != nil {
		return nil, err
	}
	seq, err = Atomize(seq)
	if err != nil {
		return nil, err
	}
	type key struct {
		kind byte
		num  float64
		str  string
	}
	var (
		seen    = make(map[key]struct{}, seq.Len())
		seenNaN bool
		out     Sequence
	)
	for _, it := range seq {
		var k key
		switch v := it.Value().(type) {
		case int64:
			k = key{kind: 'n', num: float64(v)}
		case float64:
			if math.IsNaN(v) {
				if !seenNaN {
					seenNaN = true
					out.Append(it)
				}
				continue
			}
			k = key{kind: 'n', num: v}
		case string:
			k = key{kind: 's', str: v}
		case bool:
			k = key{kind: 'b', num: b2f(v)}
		case time.Time:
			k = key{kind: 't', num: float64(v.UnixNano())}
		case xml.QName:
			k = key{kind: 'q', str: v.ExpandedName()}
		default:
			k = key{kind: 's', str: toString(v)}
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out.Append(it)
	}
	return out, nil
}

func callDoc(ctx *Context, args []Expr) (Sequence, error) {
	it, err := singleValue(args[0], ctx)
	if err != nil || it == nil {
		return nil, err
	}
	n, err := ctx.document(toString(it.Value()))
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	return Singleton(createNode(n)), nil
}

func callCollection(ctx *Context, args []Expr) (Sequence, error) {
	var uri string
	if len(args) == 1 {
		it, err := singleValue(args[0], ctx)
		if err != nil {
			return nil, err
		}
		if it != nil {
			uri = toString(it.Value())
		}
	}
	list, err := ctx.collection(uri)
	if err != nil {
		return nil, err
	}
	return Sequence(list), nil
}

func callCurrentDateTime(ctx *Context, _ []Expr) (Sequence, error) {
	return Singleton(createTyped(ctx.now, dateTimeType)), nil
}
