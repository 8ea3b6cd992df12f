package xpath

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/midbel/distance"
	"github.com/midbel/xee/xml"
)

const (
	xsNamespace = "http://www.w3.org/2001/XMLSchema"
	fnNamespace = "http://www.w3.org/2005/xpath-functions"
)

// Compiler turns a scanned expression into an executable tree. Word
// operators are resolved against the grammar when they appear in
// operator position, so version 1 keeps names like eq or except
// usable as element names.
type Compiler struct {
	scan *Scanner
	curr Token
	peek Token

	grammar    *Grammar
	namespaces map[string]string

	Tracer

	infix  map[rune]func(Expr) (Expr, error)
	prefix map[rune]func() (Expr, error)
}

func NewCompiler(r io.Reader) *Compiler {
	cp := Compiler{
		scan:    Scan(r),
		grammar: grammars[2],
		namespaces: map[string]string{
			"xml": xmlNamespace,
			"xs":  xsNamespace,
			"fn":  fnNamespace,
		},
		Tracer: discardTracer{},
	}

	cp.infix = map[rune]func(Expr) (Expr, error){
		currLevel:    cp.compileStep,
		anyLevel:     cp.compileDescendantStep,
		begPred:      cp.compileFilter,
		begGrp:       cp.compileCall,
		opRange:      cp.compileRange,
		opConcat:     cp.compileBinary,
		opAdd:        cp.compileBinary,
		opSub:        cp.compileBinary,
		opMul:        cp.compileBinary,
		opDiv:        cp.compileBinary,
		opIdiv:       cp.compileBinary,
		opMod:        cp.compileBinary,
		opEq:         cp.compileBinary,
		opNe:         cp.compileBinary,
		opLt:         cp.compileBinary,
		opLe:         cp.compileBinary,
		opGt:         cp.compileBinary,
		opGe:         cp.compileBinary,
		opValEq:      cp.compileBinary,
		opValNe:      cp.compileBinary,
		opValLt:      cp.compileBinary,
		opValLe:      cp.compileBinary,
		opValGt:      cp.compileBinary,
		opValGe:      cp.compileBinary,
		opIs:         cp.compileBinary,
		opBefore:     cp.compileBinary,
		opAfter:      cp.compileBinary,
		opAnd:        cp.compileBinary,
		opOr:         cp.compileBinary,
		opUnion:      cp.compileUnion,
		opIntersect:  cp.compileIntersect,
		opExcept:     cp.compileExcept,
		opInstanceOf: cp.compileInstanceOf,
		opTreatAs:    cp.compileTreatAs,
		opCastAs:     cp.compileCastAs,
		opCastableAs: cp.compileCastableAs,
	}
	cp.prefix = map[rune]func() (Expr, error){
		currLevel:  cp.compileRoot,
		anyLevel:   cp.compileDescendantRoot,
		Name:       cp.compileName,
		variable:   cp.compileVariable,
		currNode:   cp.compileCurrent,
		parentNode: cp.compileParent,
		Attr:       cp.compileAttr,
		Literal:    cp.compileLiteral,
		Digit:      cp.compileNumber,
		opSub:      cp.compileMinus,
		opAdd:      cp.compilePlus,
		opMul:      cp.compileName,
		begGrp:     cp.compileGroup,
	}

	cp.next()
	cp.next()
	return &cp
}

func CompileString(q string) (Expr, error) {
	return Compile(strings.NewReader(q))
}

func Compile(r io.Reader) (Expr, error) {
	return NewCompiler(r).Compile()
}

func (c *Compiler) Compile() (Expr, error) {
	expr, err := c.compile()
	if err != nil {
		return nil, err
	}
	if !c.done() {
		return nil, c.syntaxError("unexpected input after expression")
	}
	return expr, nil
}

func (c *Compiler) compile() (Expr, error) {
	expr, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	if !c.is(opSeq) {
		return expr, nil
	}
	seq := sequence{
		all: []Expr{expr},
	}
	for c.is(opSeq) {
		c.next()
		next, err := c.compileExpr(powLowest)
		if err != nil {
			return nil, err
		}
		seq.all = append(seq.all, next)
	}
	return seq, nil
}

func (c *Compiler) compileExpr(pow int) (Expr, error) {
	c.Enter("expr")
	defer c.Leave("expr")
	prefix, ok := c.prefix[c.curr.Type]
	if !ok {
		return nil, c.syntaxError("unexpected token in expression")
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}
	for !c.done() && pow < c.power() {
		op := c.infixType()
		infix, ok := c.infix[op]
		if !ok {
			return nil, c.syntaxError("unexpected operator")
		}
		c.curr.Type = op
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

// infixType resolves a name in operator position to its word
// operator. Names the grammar does not know keep zero binding power
// and end the expression.
func (c *Compiler) infixType() rune {
	if c.curr.Type == Name {
		if op, ok := c.grammar.keyword(c.curr.Literal); ok {
			return op
		}
	}
	return c.curr.Type
}

func (c *Compiler) power() int {
	return c.grammar.power(c.infixType())
}

func (c *Compiler) compileBinary(left Expr) (Expr, error) {
	c.Enter("binary")
	defer c.Leave("binary")
	var (
		op  = c.curr.Type
		pow = c.grammar.power(op)
	)
	c.next()
	right, err := c.compileExpr(pow)
	if err != nil {
		return nil, err
	}
	switch op {
	case opAdd, opSub, opMul, opDiv, opIdiv, opMod:
		return arithmetic{left: left, right: right, op: op}, nil
	case opEq, opNe, opLt, opLe, opGt, opGe:
		return generalCmp{left: left, right: right, op: op}, nil
	case opValEq, opValNe, opValLt, opValLe, opValGt, opValGe:
		return valueCmp{left: left, right: right, op: op}, nil
	case opIs, opBefore, opAfter:
		return nodeCmp{left: left, right: right, op: op}, nil
	case opAnd, opOr:
		return logical{left: left, right: right, and: op == opAnd}, nil
	case opConcat:
		return concat{left: left, right: right}, nil
	default:
		return nil, c.syntaxError("unexpected operator")
	}
}

func (c *Compiler) compileRange(left Expr) (Expr, error) {
	c.Enter("range")
	defer c.Leave("range")
	c.next()
	right, err := c.compileExpr(powRange)
	if err != nil {
		return nil, err
	}
	expr := rangeExpr{
		left:  left,
		right: right,
	}
	return expr, nil
}

func (c *Compiler) compileUnion(left Expr) (Expr, error) {
	c.Enter("union")
	defer c.Leave("union")
	c.next()
	right, err := c.compileExpr(powUnion)
	if err != nil {
		return nil, err
	}
	if other, ok := right.(union); ok {
		return union{all: append([]Expr{left}, other.all...)}, nil
	}
	return union{all: []Expr{left, right}}, nil
}

func (c *Compiler) compileIntersect(left Expr) (Expr, error) {
	c.Enter("intersect")
	defer c.Leave("intersect")
	c.next()
	right, err := c.compileExpr(powIntersect)
	if err != nil {
		return nil, err
	}
	expr := intersect{
		left:  left,
		right: right,
	}
	return expr, nil
}

func (c *Compiler) compileExcept(left Expr) (Expr, error) {
	c.Enter("except")
	defer c.Leave("except")
	c.next()
	right, err := c.compileExpr(powIntersect)
	if err != nil {
		return nil, err
	}
	expr := except{
		left:  left,
		right: right,
	}
	return expr, nil
}

func (c *Compiler) compileInstanceOf(left Expr) (Expr, error) {
	c.Enter("instance")
	defer c.Leave("instance")
	c.next()
	st, err := c.compileSequenceType()
	if err != nil {
		return nil, err
	}
	expr := instanceOf{
		expr: left,
		st:   st,
	}
	return expr, nil
}

func (c *Compiler) compileTreatAs(left Expr) (Expr, error) {
	c.Enter("treat")
	defer c.Leave("treat")
	c.next()
	st, err := c.compileSequenceType()
	if err != nil {
		return nil, err
	}
	expr := treatAs{
		expr: left,
		st:   st,
	}
	return expr, nil
}

func (c *Compiler) compileCastAs(left Expr) (Expr, error) {
	c.Enter("cast")
	defer c.Leave("cast")
	c.next()
	typ, err := c.compileCastTarget()
	if err != nil {
		return nil, err
	}
	expr := castExpr{
		expr: left,
		typ:  typ,
	}
	if c.is(opQuestion) {
		expr.allowEmpty = true
		c.next()
	}
	return expr, nil
}

func (c *Compiler) compileCastableAs(left Expr) (Expr, error) {
	c.Enter("castable")
	defer c.Leave("castable")
	c.next()
	typ, err := c.compileCastTarget()
	if err != nil {
		return nil, err
	}
	expr := castableExpr{
		expr: left,
		typ:  typ,
	}
	if c.is(opQuestion) {
		expr.allowEmpty = true
		c.next()
	}
	return expr, nil
}

func (c *Compiler) compileCastTarget() (Type, error) {
	typ, err := c.compileAtomicType()
	if err != nil {
		return nil, err
	}
	if typ == anyAtomicType {
		return nil, c.errorAt(CodeInvalidTarget, "xs:anyAtomicType is not a valid cast target")
	}
	return typ, nil
}

func (c *Compiler) compileAtomicType() (Type, error) {
	name, err := c.compileQName()
	if err != nil {
		return nil, err
	}
	if name.Space != "" && name.Space != "xs" {
		return nil, c.errorAt(CodeUnknownType, fmt.Sprintf("%s is not a known type", name.QualifiedName()))
	}
	typ, ok := c.grammar.atomicType(name.Name)
	if !ok {
		return nil, c.errorAt(CodeUnknownType, fmt.Sprintf("%s is not a known type", name.QualifiedName()))
	}
	return typ, nil
}

// compileSequenceType parses the target of instance of and treat
// as. The occurrence indicator is consumed greedily, so in version 2
// a trailing + or * belongs to the type, never to arithmetic.
func (c *Compiler) compileSequenceType() (SequenceType, error) {
	var st SequenceType
	switch {
	case c.is(Name) && c.curr.Literal == "empty-sequence" && c.peek.Type == begGrp:
		if err := c.emptyParens(); err != nil {
			return st, err
		}
		st.empty = true
		return st, nil
	case c.is(Name) && c.curr.Literal == "item" && c.peek.Type == begGrp:
		if err := c.emptyParens(); err != nil {
			return st, err
		}
		st.anyItem = true
	case c.is(Name):
		kind, ok := c.grammar.kind(c.curr.Literal)
		if ok && c.peek.Type == begGrp {
			kt, err := c.compileKindTest(kind)
			if err != nil {
				return st, err
			}
			st.kind = kt
		} else {
			typ, err := c.compileAtomicType()
			if err != nil {
				return st, err
			}
			st.atomic = typ
		}
	default:
		return st, c.syntaxError("sequence type expected")
	}
	switch c.curr.Type {
	case opQuestion:
		st.card = occZero
		c.next()
	case opMul:
		st.card = occZero | occMore
		c.next()
	case opAdd:
		st.card = occMore
		c.next()
	}
	return st, nil
}

func (c *Compiler) emptyParens() error {
	c.next()
	c.next()
	if !c.is(endGrp) {
		return c.syntaxError("empty parentheses expected", ")")
	}
	c.next()
	return nil
}

func (c *Compiler) compileStep(left Expr) (Expr, error) {
	c.Enter("step")
	defer c.Leave("step")
	c.next()
	next, err := c.compileExpr(powStep)
	if err != nil {
		return nil, err
	}
	expr := step{
		curr: left,
		next: next,
	}
	return expr, nil
}

func (c *Compiler) compileDescendantStep(left Expr) (Expr, error) {
	c.Enter("descendant-step")
	defer c.Leave("descendant-step")
	c.next()
	next, err := c.compileExpr(powStep)
	if err != nil {
		return nil, err
	}
	expr := step{
		curr: left,
		next: step{
			curr: c.descendantOrSelf(),
			next: next,
		},
	}
	return expr, nil
}

func (c *Compiler) compileRoot() (Expr, error) {
	c.Enter("root")
	defer c.Leave("root")
	c.next()
	if c.done() || c.is(endGrp) || c.is(endPred) || c.is(opSeq) {
		return root{}, nil
	}
	next, err := c.compileExpr(powStep)
	if err != nil {
		return nil, err
	}
	expr := step{
		curr: root{},
		next: next,
	}
	return expr, nil
}

func (c *Compiler) compileDescendantRoot() (Expr, error) {
	c.Enter("descendant-root")
	defer c.Leave("descendant-root")
	c.next()
	next, err := c.compileExpr(powStep)
	if err != nil {
		return nil, err
	}
	expr := step{
		curr: root{},
		next: step{
			curr: c.descendantOrSelf(),
			next: next,
		},
	}
	return expr, nil
}

func (c *Compiler) descendantOrSelf() Expr {
	principal, _ := c.grammar.axis(descendantSelfAxis)
	return axisStep{
		axis:      descendantSelfAxis,
		principal: principal,
		test:      &kindTest{kind: KindNode},
	}
}

func (c *Compiler) compileFilter(left Expr) (Expr, error) {
	c.Enter("filter")
	defer c.Leave("filter")
	c.next()
	if c.is(Digit) && c.peek.Type == endPred {
		return c.compileIndex(left)
	}
	pred, err := c.compile()
	if err != nil {
		return nil, err
	}
	if !c.is(endPred) {
		return nil, c.syntaxError("missing ] after predicate", "]")
	}
	c.next()
	expr := filter{
		expr: left,
		pred: pred,
	}
	return expr, nil
}

func (c *Compiler) compileIndex(left Expr) (Expr, error) {
	c.Enter("index")
	defer c.Leave("index")
	pos, err := strconv.Atoi(c.curr.Literal)
	if err != nil {
		return nil, c.syntaxError("invalid position in predicate")
	}
	c.next()
	if !c.is(endPred) {
		return nil, c.syntaxError("missing ] after predicate", "]")
	}
	c.next()
	expr := index{
		expr: left,
		pos:  pos,
	}
	return expr, nil
}

func (c *Compiler) compileCall(left Expr) (Expr, error) {
	c.Enter("call")
	defer c.Leave("call")
	name, err := c.callName(left)
	if err != nil {
		return nil, err
	}
	args, err := c.compileArgs()
	if err != nil {
		return nil, err
	}
	if name.Space == "xs" {
		return c.typeConstructor(name, args)
	}
	if name.Space != "" && name.Space != "fn" {
		return nil, c.unknownFunction(name)
	}
	def, ok := c.grammar.function(name.Name)
	if !ok {
		return nil, c.unknownFunction(name)
	}
	if len(args) < def.MinArgs || (def.MaxArgs >= 0 && len(args) > def.MaxArgs) {
		return nil, c.errorAt(CodeUnknownFunc, fmt.Sprintf("%s called with %d arguments", name.QualifiedName(), len(args)))
	}
	expr := call{
		name: def.Name,
		def:  def,
		args: args,
	}
	return expr, nil
}

func (c *Compiler) callName(left Expr) (xml.QName, error) {
	st, ok := left.(axisStep)
	if !ok {
		return xml.QName{}, c.syntaxError("invalid function name")
	}
	test, ok := st.test.(nameTest)
	if !ok || test.anyName || test.anyLocal || test.anySpace {
		return xml.QName{}, c.syntaxError("invalid function name")
	}
	return test.name, nil
}

func (c *Compiler) compileArgs() ([]Expr, error) {
	c.next()
	var args []Expr
	for !c.done() && !c.is(endGrp) {
		arg, err := c.compileExpr(powLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch {
		case c.is(opSeq):
			c.next()
			if c.is(endGrp) {
				return nil, c.syntaxError("trailing comma in argument list")
			}
		case c.is(endGrp):
		default:
			return nil, c.syntaxError("unexpected token in argument list", ",", ")")
		}
	}
	if !c.is(endGrp) {
		return nil, c.syntaxError("missing closing ) in call", ")")
	}
	c.next()
	return args, nil
}

// typeConstructor turns xs:integer("5") and friends into a cast
// that lets the empty sequence through.
func (c *Compiler) typeConstructor(name xml.QName, args []Expr) (Expr, error) {
	typ, ok := c.grammar.atomicType(name.Name)
	if !ok || typ == anyAtomicType {
		return nil, c.unknownFunction(name)
	}
	if len(args) != 1 {
		return nil, c.errorAt(CodeUnknownFunc, fmt.Sprintf("%s called with %d arguments", name.QualifiedName(), len(args)))
	}
	expr := castExpr{
		expr:       args[0],
		typ:        typ,
		allowEmpty: true,
	}
	return expr, nil
}

func (c *Compiler) unknownFunction(name xml.QName) error {
	return &SyntaxError{
		Code:     CodeUnknownFunc,
		Token:    name.QualifiedName(),
		Cause:    "unknown function",
		Expected: distance.Levenshtein(name.Name, c.grammar.functionNames()),
		Position: c.curr.Position,
	}
}

func (c *Compiler) compileName() (Expr, error) {
	c.Enter("name")
	defer c.Leave("name")
	if c.peek.Type == opAxis {
		return c.compileAxis()
	}
	if c.grammar.isReserved(c.curr.Literal) {
		switch lit := c.curr.Literal; {
		case lit == "if" && c.peek.Type == begGrp:
			return c.compileIf()
		case lit == "for" && c.peek.Type == variable:
			return c.compileFor()
		case lit == "let" && c.peek.Type == variable:
			return c.compileLet()
		case (lit == "some" || lit == "every") && c.peek.Type == variable:
			return c.compileQuantified(lit == "every")
		}
	}
	expr, err := c.compileStepTest(childAxis)
	if err != nil {
		return nil, err
	}
	// an attribute test with no explicit axis walks the attribute
	// axis, not the child axis
	if st, ok := expr.(axisStep); ok {
		if kt, ok := st.test.(*kindTest); ok && kt.kind == KindAttribute {
			st.axis = attributeAxis
			st.principal, _ = c.grammar.axis(attributeAxis)
			return st, nil
		}
	}
	return expr, nil
}

func (c *Compiler) compileAxis() (Expr, error) {
	c.Enter("axis")
	defer c.Leave("axis")
	name := c.curr.Literal
	if _, ok := c.grammar.axis(name); !ok {
		return nil, c.errorAt(CodeUnknownAxis, fmt.Sprintf("%s is not a known axis", name))
	}
	c.next()
	c.next()
	return c.compileStepTest(name)
}

// compileStepTest parses a node test and wraps it in a step along
// the given axis.
func (c *Compiler) compileStepTest(axis string) (Expr, error) {
	principal, ok := c.grammar.axis(axis)
	if !ok {
		return nil, c.errorAt(CodeUnknownAxis, fmt.Sprintf("%s is not a known axis", axis))
	}
	test, err := c.compileNodeTest()
	if err != nil {
		return nil, err
	}
	expr := axisStep{
		axis:      axis,
		principal: principal,
		test:      test,
	}
	return expr, nil
}

func (c *Compiler) compileNodeTest() (nodeTest, error) {
	if c.is(Name) && c.peek.Type == begGrp {
		if kind, ok := c.grammar.kind(c.curr.Literal); ok {
			return c.compileKindTest(kind)
		}
	}
	return c.compileNameTest()
}

func (c *Compiler) compileNameTest() (nodeTest, error) {
	test := nameTest{
		defaultNS: c.namespaces[""],
	}
	switch {
	case c.is(opMul) && c.peek.Type != Namespace:
		c.next()
		test.anyName = true
		return test, nil
	case c.is(opMul):
		c.next()
		c.next()
		if !c.is(Name) {
			return nil, c.syntaxError("name expected after wildcard prefix")
		}
		test.name = xml.LocalName(c.curr.Literal)
		test.anySpace = true
		c.next()
		return test, nil
	case c.is(Name):
		lit := c.curr.Literal
		c.next()
		if !c.is(Namespace) {
			test.name = xml.LocalName(lit)
			return test, nil
		}
		c.next()
		uri, err := c.resolvePrefix(lit)
		if err != nil {
			return nil, err
		}
		switch {
		case c.is(opMul):
			test.name = xml.QName{Space: lit, Uri: uri}
			test.anyLocal = true
			c.next()
		case c.is(Name):
			test.name = xml.QName{Space: lit, Name: c.curr.Literal, Uri: uri}
			c.next()
		default:
			return nil, c.syntaxError("name expected after prefix")
		}
		return test, nil
	default:
		return nil, c.syntaxError("node test expected")
	}
}

func (c *Compiler) compileKindTest(kind NodeKind) (*kindTest, error) {
	c.Enter("kind")
	defer c.Leave("kind")
	kt := kindTest{
		kind: kind,
	}
	c.next()
	if !c.is(begGrp) {
		return nil, c.syntaxError("missing ( after kind test", "(")
	}
	c.next()
	var err error
	switch kind {
	case KindElement, KindAttribute:
		err = c.compileKindArgs(&kt)
	case KindInstruction:
		if c.is(Name) || c.is(Literal) {
			kt.name = c.curr.Literal
			c.next()
		}
	case KindDocument:
		if inner, ok := c.grammar.kind(c.curr.Literal); ok && c.is(Name) && inner == KindElement && c.peek.Type == begGrp {
			kt.inner, err = c.compileKindTest(inner)
		}
	}
	if err != nil {
		return nil, err
	}
	if !c.is(endGrp) {
		return nil, c.syntaxError("missing ) after kind test", ")")
	}
	c.next()
	return &kt, nil
}

func (c *Compiler) compileKindArgs(kt *kindTest) error {
	if c.is(endGrp) {
		return nil
	}
	switch {
	case c.is(opMul):
		kt.name = "*"
		c.next()
	case c.is(Name):
		name, err := c.compileQName()
		if err != nil {
			return err
		}
		kt.name = name.Name
	default:
		return c.syntaxError("name or * expected in kind test")
	}
	if !c.is(opSeq) {
		return nil
	}
	c.next()
	typ, err := c.compileQName()
	if err != nil {
		return err
	}
	kt.typ = typ
	return nil
}

// compileQName reads a possibly prefixed name.
func (c *Compiler) compileQName() (xml.QName, error) {
	if !c.is(Name) {
		return xml.QName{}, c.syntaxError("name expected")
	}
	name := xml.LocalName(c.curr.Literal)
	c.next()
	if !c.is(Namespace) {
		return name, nil
	}
	c.next()
	if !c.is(Name) {
		return xml.QName{}, c.syntaxError("name expected after prefix")
	}
	name.Space = name.Name
	name.Name = c.curr.Literal
	uri, err := c.resolvePrefix(name.Space)
	if err != nil {
		return xml.QName{}, err
	}
	name.Uri = uri
	c.next()
	return name, nil
}

func (c *Compiler) resolvePrefix(prefix string) (string, error) {
	if prefix == "" {
		return "", nil
	}
	uri, ok := c.namespaces[prefix]
	if !ok {
		return "", c.errorAt(CodeUnknownPrefix, fmt.Sprintf("prefix %s is not bound", prefix))
	}
	return uri, nil
}

func (c *Compiler) compileAttr() (Expr, error) {
	c.Enter("attribute")
	defer c.Leave("attribute")
	principal, _ := c.grammar.axis(attributeAxis)
	var test nameTest
	lit := c.curr.Literal
	switch prefix, local, found := strings.Cut(lit, ":"); {
	case lit == "*":
		test.anyName = true
	case !found:
		test.name = xml.LocalName(lit)
	case local == "*":
		uri, err := c.resolvePrefix(prefix)
		if err != nil {
			return nil, err
		}
		test.name = xml.QName{Space: prefix, Uri: uri}
		test.anyLocal = true
	default:
		uri, err := c.resolvePrefix(prefix)
		if err != nil {
			return nil, err
		}
		test.name = xml.QName{Space: prefix, Name: local, Uri: uri}
	}
	c.next()
	expr := axisStep{
		axis:      attributeAxis,
		principal: principal,
		test:      test,
	}
	return expr, nil
}

func (c *Compiler) compileCurrent() (Expr, error) {
	c.Enter("current")
	defer c.Leave("current")
	c.next()
	return current{}, nil
}

func (c *Compiler) compileParent() (Expr, error) {
	c.Enter("parent")
	defer c.Leave("parent")
	c.next()
	principal, _ := c.grammar.axis(parentAxis)
	expr := axisStep{
		axis:      parentAxis,
		principal: principal,
		test:      &kindTest{kind: KindNode},
	}
	return expr, nil
}

func (c *Compiler) compileVariable() (Expr, error) {
	c.Enter("variable")
	defer c.Leave("variable")
	defer c.next()
	v := identifier{
		ident: c.curr.Literal,
	}
	return v, nil
}

func (c *Compiler) compileLiteral() (Expr, error) {
	c.Enter("literal")
	defer c.Leave("literal")
	defer c.next()
	i := literal{
		expr: c.curr.Literal,
	}
	return i, nil
}

func (c *Compiler) compileNumber() (Expr, error) {
	c.Enter("number")
	defer c.Leave("number")
	defer c.next()
	lit := c.curr.Literal
	if !strings.ContainsAny(lit, ".eE") {
		n, err := strconv.ParseInt(lit, 10, 64)
		if err == nil {
			return number{value: createInt(n)}, nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, c.syntaxError("invalid number literal")
	}
	if strings.ContainsAny(lit, "eE") {
		return number{value: createDouble(f)}, nil
	}
	return number{value: createTyped(f, decimalType)}, nil
}

func (c *Compiler) compileMinus() (Expr, error) {
	c.Enter("minus")
	defer c.Leave("minus")
	c.next()
	expr, err := c.compileExpr(powPrefix)
	if err != nil {
		return nil, err
	}
	return unary{expr: expr, minus: true}, nil
}

func (c *Compiler) compilePlus() (Expr, error) {
	c.Enter("plus")
	defer c.Leave("plus")
	c.next()
	expr, err := c.compileExpr(powPrefix)
	if err != nil {
		return nil, err
	}
	return unary{expr: expr}, nil
}

func (c *Compiler) compileGroup() (Expr, error) {
	c.Enter("group")
	defer c.Leave("group")
	c.next()
	var seq sequence
	for !c.done() && !c.is(endGrp) {
		expr, err := c.compileExpr(powLowest)
		if err != nil {
			return nil, err
		}
		seq.all = append(seq.all, expr)
		switch {
		case c.is(opSeq):
			c.next()
			if c.is(endGrp) {
				return nil, c.syntaxError("trailing comma in sequence")
			}
		case c.is(endGrp):
		default:
			return nil, c.syntaxError("unexpected token in sequence", ",", ")")
		}
	}
	if !c.is(endGrp) {
		return nil, c.syntaxError("missing ) at end of sequence", ")")
	}
	c.next()
	return seq, nil
}

func (c *Compiler) compileIf() (Expr, error) {
	c.Enter("if")
	defer c.Leave("if")
	c.next()
	if !c.is(begGrp) {
		return nil, c.syntaxError("missing ( after if", "(")
	}
	c.next()
	test, err := c.compile()
	if err != nil {
		return nil, err
	}
	if !c.is(endGrp) {
		return nil, c.syntaxError("missing ) after condition", ")")
	}
	c.next()
	if err := c.expectWord("then"); err != nil {
		return nil, err
	}
	csq, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	if err := c.expectWord("else"); err != nil {
		return nil, err
	}
	alt, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	expr := conditional{
		test: test,
		csq:  csq,
		alt:  alt,
	}
	return expr, nil
}

func (c *Compiler) compileFor() (Expr, error) {
	c.Enter("for")
	defer c.Leave("for")
	c.next()
	binds, err := c.compileInBindings()
	if err != nil {
		return nil, err
	}
	if err := c.expectWord("return"); err != nil {
		return nil, err
	}
	body, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	expr := loop{
		binds: binds,
		body:  body,
	}
	return expr, nil
}

func (c *Compiler) compileLet() (Expr, error) {
	c.Enter("let")
	defer c.Leave("let")
	c.next()
	binds, err := c.compileLetBindings()
	if err != nil {
		return nil, err
	}
	if err := c.expectWord("return"); err != nil {
		return nil, err
	}
	body, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	expr := let{
		binds: binds,
		body:  body,
	}
	return expr, nil
}

func (c *Compiler) compileQuantified(every bool) (Expr, error) {
	c.Enter("quantified")
	defer c.Leave("quantified")
	c.next()
	binds, err := c.compileInBindings()
	if err != nil {
		return nil, err
	}
	if err := c.expectWord("satisfies"); err != nil {
		return nil, err
	}
	test, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	expr := quantified{
		binds: binds,
		test:  test,
		every: every,
	}
	return expr, nil
}

func (c *Compiler) compileInBindings() ([]binding, error) {
	var binds []binding
	for {
		if !c.is(variable) {
			return nil, c.syntaxError("variable expected")
		}
		b := binding{
			ident: c.curr.Literal,
		}
		c.next()
		if err := c.expectWord("in"); err != nil {
			return nil, err
		}
		expr, err := c.compileExpr(powLowest)
		if err != nil {
			return nil, err
		}
		b.expr = expr
		binds = append(binds, b)
		if !c.is(opSeq) {
			return binds, nil
		}
		c.next()
	}
}

func (c *Compiler) compileLetBindings() ([]binding, error) {
	var binds []binding
	for {
		if !c.is(variable) {
			return nil, c.syntaxError("variable expected")
		}
		b := binding{
			ident: c.curr.Literal,
		}
		c.next()
		if !c.is(opAssign) {
			return nil, c.syntaxError("assignment expected", ":=")
		}
		c.next()
		expr, err := c.compileExpr(powLowest)
		if err != nil {
			return nil, err
		}
		b.expr = expr
		binds = append(binds, b)
		if !c.is(opSeq) {
			return binds, nil
		}
		c.next()
	}
}

func (c *Compiler) expectWord(word string) error {
	if !c.is(Name) || c.curr.Literal != word {
		return c.syntaxError("unexpected token", word)
	}
	c.next()
	return nil
}

func (c *Compiler) syntaxError(cause string, expected ...string) error {
	return c.errorAt(CodeSyntax, cause, expected...)
}

func (c *Compiler) errorAt(code, cause string, expected ...string) error {
	return &SyntaxError{
		Code:     code,
		Token:    c.curr.String(),
		Cause:    cause,
		Expected: expected,
		Position: c.curr.Position,
	}
}

func (c *Compiler) is(kind rune) bool {
	return c.curr.Type == kind
}

func (c *Compiler) done() bool {
	return c.is(EOF)
}

func (c *Compiler) next() {
	c.curr = c.peek
	c.peek = c.scan.Scan()
}
