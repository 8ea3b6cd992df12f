package xpath

import (
	"fmt"
	"maps"
	"slices"
)

// Binding powers, lowest first. An operator binds its left operand
// when its power exceeds the power the parser is currently running
// at.
const (
	powLowest int = iota
	powOr
	powAnd
	powCmp
	powConcat
	powRange
	powAdd
	powMul
	powUnion
	powIntersect
	powInstance
	powTreat
	powCastable
	powCast
	powPrefix
	powStep
	powPred
	powCall
)

const (
	ancestorAxis         = "ancestor"
	ancestorSelfAxis     = "ancestor-or-self"
	attributeAxis        = "attribute"
	childAxis            = "child"
	descendantAxis       = "descendant"
	descendantSelfAxis   = "descendant-or-self"
	followingAxis        = "following"
	followingSiblingAxis = "following-sibling"
	parentAxis           = "parent"
	precedingAxis        = "preceding"
	precedingSiblingAxis = "preceding-sibling"
	selfAxis             = "self"
)

// Grammar is the symbol table of one language version: binding
// powers, word operators, axes, kind tests, functions and atomic
// types. A Grammar is built once, shared by every compiler of that
// version and never changed afterwards. A new version extends a copy
// of its parent.
type Grammar struct {
	version   int
	bindings  map[rune]int
	keywords  map[string]rune
	axes      map[string]NodeKind
	kinds     map[string]NodeKind
	functions map[string]*FunctionDef
	types     map[string]Type
	reserved  map[string]struct{}
}

func (g *Grammar) Version() int {
	return g.version
}

func (g *Grammar) power(op rune) int {
	return g.bindings[op]
}

func (g *Grammar) keyword(lit string) (rune, bool) {
	op, ok := g.keywords[lit]
	return op, ok
}

// axis reports the principal node kind of a known axis.
func (g *Grammar) axis(name string) (NodeKind, bool) {
	principal, ok := g.axes[name]
	return principal, ok
}

func (g *Grammar) kind(name string) (NodeKind, bool) {
	kind, ok := g.kinds[name]
	return kind, ok
}

func (g *Grammar) function(name string) (*FunctionDef, bool) {
	def, ok := g.functions[name]
	return def, ok
}

func (g *Grammar) atomicType(name string) (Type, bool) {
	typ, ok := g.types[name]
	return typ, ok
}

func (g *Grammar) isReserved(lit string) bool {
	_, ok := g.reserved[lit]
	return ok
}

func (g *Grammar) functionNames() []string {
	return slices.Sorted(maps.Keys(g.functions))
}

func (g *Grammar) clone() *Grammar {
	return &Grammar{
		version:   g.version,
		bindings:  maps.Clone(g.bindings),
		keywords:  maps.Clone(g.keywords),
		axes:      maps.Clone(g.axes),
		kinds:     maps.Clone(g.kinds),
		functions: maps.Clone(g.functions),
		types:     maps.Clone(g.types),
		reserved:  maps.Clone(g.reserved),
	}
}

func (g *Grammar) registerBinding(op rune, pow int) {
	g.bindings[op] = pow
}

func (g *Grammar) registerKeyword(lit string, op rune) {
	g.keywords[lit] = op
}

func (g *Grammar) registerAxis(name string, principal NodeKind) {
	g.axes[name] = principal
}

func (g *Grammar) registerKind(name string, kind NodeKind) {
	g.kinds[name] = kind
}

func (g *Grammar) registerFunction(def *FunctionDef) {
	g.functions[def.Name.Name] = def
}

func (g *Grammar) registerType(name string, typ Type) {
	g.types[name] = typ
}

func (g *Grammar) registerReserved(names ...string) {
	for _, n := range names {
		g.reserved[n] = struct{}{}
	}
}

// version1 builds the base grammar: paths, predicates, the word
// operators and the core function library. Names like "eq" or "for"
// are plain element names at this level.
func version1() *Grammar {
	g := Grammar{
		version:   1,
		bindings:  make(map[rune]int),
		keywords:  make(map[string]rune),
		axes:      make(map[string]NodeKind),
		kinds:     make(map[string]NodeKind),
		functions: make(map[string]*FunctionDef),
		types:     make(map[string]Type),
		reserved:  make(map[string]struct{}),
	}
	g.registerBinding(opOr, powOr)
	g.registerBinding(opAnd, powAnd)
	for _, op := range []rune{opEq, opNe, opLt, opLe, opGt, opGe} {
		g.registerBinding(op, powCmp)
	}
	g.registerBinding(opAdd, powAdd)
	g.registerBinding(opSub, powAdd)
	g.registerBinding(opMul, powMul)
	g.registerBinding(opDiv, powMul)
	g.registerBinding(opMod, powMul)
	g.registerBinding(opUnion, powUnion)
	g.registerBinding(currLevel, powStep)
	g.registerBinding(anyLevel, powStep)
	g.registerBinding(begPred, powPred)
	g.registerBinding(begGrp, powCall)

	g.registerKeyword("and", opAnd)
	g.registerKeyword("or", opOr)
	g.registerKeyword("div", opDiv)
	g.registerKeyword("mod", opMod)

	g.registerAxis(ancestorAxis, KindElement)
	g.registerAxis(ancestorSelfAxis, KindElement)
	g.registerAxis(attributeAxis, KindAttribute)
	g.registerAxis(childAxis, KindElement)
	g.registerAxis(descendantAxis, KindElement)
	g.registerAxis(descendantSelfAxis, KindElement)
	g.registerAxis(followingAxis, KindElement)
	g.registerAxis(followingSiblingAxis, KindElement)
	g.registerAxis(parentAxis, KindElement)
	g.registerAxis(precedingAxis, KindElement)
	g.registerAxis(precedingSiblingAxis, KindElement)
	g.registerAxis(selfAxis, KindElement)

	g.registerKind("node", KindNode)
	g.registerKind("text", KindText)
	g.registerKind("comment", KindComment)
	g.registerKind("processing-instruction", KindInstruction)

	for _, def := range coreFunctions() {
		g.registerFunction(def)
	}
	return &g
}

// version2 extends version1 with the value and node comparisons, the
// range and set operators, quantified and binding expressions, the
// type operators and the extended function library.
func version2() *Grammar {
	g := version1().clone()
	g.version = 2

	for _, op := range []rune{opValEq, opValNe, opValLt, opValLe, opValGt, opValGe, opIs, opBefore, opAfter} {
		g.registerBinding(op, powCmp)
	}
	g.registerBinding(opConcat, powConcat)
	g.registerBinding(opRange, powRange)
	g.registerBinding(opIdiv, powMul)
	g.registerBinding(opIntersect, powIntersect)
	g.registerBinding(opExcept, powIntersect)
	g.registerBinding(opInstanceOf, powInstance)
	g.registerBinding(opTreatAs, powTreat)
	g.registerBinding(opCastableAs, powCastable)
	g.registerBinding(opCastAs, powCast)

	g.registerKeyword("idiv", opIdiv)
	g.registerKeyword("to", opRange)
	g.registerKeyword("union", opUnion)
	g.registerKeyword("intersect", opIntersect)
	g.registerKeyword("except", opExcept)
	g.registerKeyword("is", opIs)
	g.registerKeyword("eq", opValEq)
	g.registerKeyword("ne", opValNe)
	g.registerKeyword("lt", opValLt)
	g.registerKeyword("le", opValLe)
	g.registerKeyword("gt", opValGt)
	g.registerKeyword("ge", opValGe)

	g.registerKind("element", KindElement)
	g.registerKind("attribute", KindAttribute)
	g.registerKind("document-node", KindDocument)

	g.registerType("anyAtomicType", anyAtomicType)
	g.registerType("untypedAtomic", untypedAtomicType)
	g.registerType("string", stringType)
	g.registerType("boolean", booleanType)
	g.registerType("decimal", decimalType)
	g.registerType("integer", integerType)
	g.registerType("double", doubleType)
	g.registerType("float", floatType)
	g.registerType("dateTime", dateTimeType)
	g.registerType("date", dateType)
	g.registerType("QName", qnameType)

	g.registerReserved("if", "for", "let", "some", "every")

	for _, def := range extendedFunctions() {
		g.registerFunction(def)
	}
	return g
}

var grammars = make(map[int]*Grammar)

func init() {
	grammars[1] = version1()
	grammars[2] = version2()
}

func grammarForVersion(version int) (*Grammar, error) {
	g, ok := grammars[version]
	if !ok {
		return nil, fmt.Errorf("unsupported language version %d", version)
	}
	return g, nil
}
