package xpath

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/midbel/xee/xml"
)

func Debug(expr Expr) string {
	var str strings.Builder
	debugExpr(&str, expr)
	return str.String()
}

// Debug renders the compiled expression tree of the query.
func (q *Query) Debug() string {
	return Debug(q.expr)
}

func debugExpr(w io.Writer, expr Expr) {
	switch v := expr.(type) {
	case *Query:
		debugExpr(w, v.expr)
	case root:
		io.WriteString(w, "root")
	case current:
		io.WriteString(w, "current")
	case literal:
		io.WriteString(w, "literal")
		io.WriteString(w, "(")
		io.WriteString(w, v.expr)
		io.WriteString(w, ")")
	case number:
		io.WriteString(w, "number")
		io.WriteString(w, "(")
		io.WriteString(w, toString(v.value.Value()))
		io.WriteString(w, ")")
	case identifier:
		io.WriteString(w, "identifier")
		io.WriteString(w, "(")
		io.WriteString(w, v.ident)
		io.WriteString(w, ")")
	case axisStep:
		io.WriteString(w, "axis")
		io.WriteString(w, "(")
		io.WriteString(w, v.axis)
		io.WriteString(w, ", ")
		io.WriteString(w, v.test.String())
		io.WriteString(w, ")")
	case step:
		io.WriteString(w, "step")
		io.WriteString(w, "(")
		debugExpr(w, v.curr)
		io.WriteString(w, ", ")
		debugExpr(w, v.next)
		io.WriteString(w, ")")
	case filter:
		io.WriteString(w, "filter")
		io.WriteString(w, "(")
		debugExpr(w, v.expr)
		io.WriteString(w, ", ")
		debugExpr(w, v.pred)
		io.WriteString(w, ")")
	case index:
		io.WriteString(w, "index")
		io.WriteString(w, "(")
		debugExpr(w, v.expr)
		io.WriteString(w, ", ")
		io.WriteString(w, strconv.Itoa(v.pos))
		io.WriteString(w, ")")
	case sequence:
		io.WriteString(w, "sequence")
		io.WriteString(w, "(")
		for i := range v.all {
			if i > 0 {
				io.WriteString(w, ", ")
			}
			debugExpr(w, v.all[i])
		}
		io.WriteString(w, ")")
	case call:
		io.WriteString(w, "call")
		io.WriteString(w, "(")
		debugName(w, v.name)
		for i := range v.args {
			io.WriteString(w, ", ")
			debugExpr(w, v.args[i])
		}
		io.WriteString(w, ")")
	case let:
		io.WriteString(w, "let")
		io.WriteString(w, "(")
		debugBinds(w, v.binds)
		io.WriteString(w, ", ")
		io.WriteString(w, "return")
		io.WriteString(w, "(")
		debugExpr(w, v.body)
		io.WriteString(w, ")")
		io.WriteString(w, ")")
	case loop:
		io.WriteString(w, "for")
		io.WriteString(w, "(")
		debugBinds(w, v.binds)
		io.WriteString(w, ", ")
		io.WriteString(w, "return")
		io.WriteString(w, "(")
		debugExpr(w, v.body)
		io.WriteString(w, ")")
		io.WriteString(w, ")")
	case quantified:
		if v.every {
			io.WriteString(w, "every")
		} else {
			io.WriteString(w, "some")
		}
		io.WriteString(w, "(")
		debugBinds(w, v.binds)
		io.WriteString(w, ", ")
		io.WriteString(w, "satisfies")
		io.WriteString(w, "(")
		debugExpr(w, v.test)
		io.WriteString(w, ")")
		io.WriteString(w, ")")
	case conditional:
		io.WriteString(w, "if")
		io.WriteString(w, "(")
		debugExpr(w, v.test)
		io.WriteString(w, ", ")
		debugExpr(w, v.csq)
		io.WriteString(w, ", ")
		debugExpr(w, v.alt)
		io.WriteString(w, ")")
	case arithmetic:
		io.WriteString(w, "binary")
		io.WriteString(w, "(")
		debugExpr(w, v.left)
		io.WriteString(w, ", ")
		debugExpr(w, v.right)
		io.WriteString(w, ", ")
		io.WriteString(w, debugOp(v.op))
		io.WriteString(w, ")")
	case unary:
		if !v.minus {
			debugExpr(w, v.expr)
			break
		}
		io.WriteString(w, "reverse")
		io.WriteString(w, "(")
		debugExpr(w, v.expr)
		io.WriteString(w, ")")
	case valueCmp:
		io.WriteString(w, "compare")
		io.WriteString(w, "(")
		debugExpr(w, v.left)
		io.WriteString(w, ", ")
		debugExpr(w, v.right)
		io.WriteString(w, ", ")
		io.WriteString(w, debugOp(v.op))
		io.WriteString(w, ")")
	case generalCmp:
		io.WriteString(w, "general")
		io.WriteString(w, "(")
		debugExpr(w, v.left)
		io.WriteString(w, ", ")
		debugExpr(w, v.right)
		io.WriteString(w, ", ")
		io.WriteString(w, debugOp(v.op))
		io.WriteString(w, ")")
	case nodeCmp:
		io.WriteString(w, "identity")
		io.WriteString(w, "(")
		debugExpr(w, v.left)
		io.WriteString(w, ", ")
		debugExpr(w, v.right)
		io.WriteString(w, ", ")
		io.WriteString(w, debugOp(v.op))
		io.WriteString(w, ")")
	case logical:
		if v.and {
			io.WriteString(w, "and")
		} else {
			io.WriteString(w, "or")
		}
		io.WriteString(w, "(")
		debugExpr(w, v.left)
		io.WriteString(w, ", ")
		debugExpr(w, v.right)
		io.WriteString(w, ")")
	case rangeExpr:
		io.WriteString(w, "range")
		io.WriteString(w, "(")
		debugExpr(w, v.left)
		io.WriteString(w, ", ")
		debugExpr(w, v.right)
		io.WriteString(w, ")")
	case union:
		io.WriteString(w, "union")
		io.WriteString(w, "(")
		for i := range v.all {
			if i > 0 {
				io.WriteString(w, ", ")
			}
			debugExpr(w, v.all[i])
		}
		io.WriteString(w, ")")
	case intersect:
		io.WriteString(w, "intersect")
		io.WriteString(w, "(")
		debugExpr(w, v.left)
		io.WriteString(w, ", ")
		debugExpr(w, v.right)
		io.WriteString(w, ")")
	case except:
		io.WriteString(w, "except")
		io.WriteString(w, "(")
		debugExpr(w, v.left)
		io.WriteString(w, ", ")
		debugExpr(w, v.right)
		io.WriteString(w, ")")
	case concat:
		io.WriteString(w, "concat")
		io.WriteString(w, "(")
		debugExpr(w, v.left)
		io.WriteString(w, ", ")
		debugExpr(w, v.right)
		io.WriteString(w, ")")
	case castExpr:
		io.WriteString(w, "cast")
		io.WriteString(w, "(")
		debugExpr(w, v.expr)
		io.WriteString(w, ", ")
		debugName(w, v.typ.Name())
		io.WriteString(w, ")")
	case castableExpr:
		io.WriteString(w, "castable")
		io.WriteString(w, "(")
		debugExpr(w, v.expr)
		io.WriteString(w, ", ")
		debugName(w, v.typ.Name())
		io.WriteString(w, ")")
	case instanceOf:
		io.WriteString(w, "instance")
		io.WriteString(w, "(")
		debugExpr(w, v.expr)
		io.WriteString(w, ", ")
		io.WriteString(w, v.st.String())
		io.WriteString(w, ")")
	case treatAs:
		io.WriteString(w, "treat")
		io.WriteString(w, "(")
		debugExpr(w, v.expr)
		io.WriteString(w, ", ")
		io.WriteString(w, v.st.String())
		io.WriteString(w, ")")
	default:
		io.WriteString(w, "unknown")
		io.WriteString(w, "(")
		io.WriteString(w, fmt.Sprintf("%T", v))
		io.WriteString(w, ")")
	}
}

func debugBinds(w io.Writer, binds []binding) {
	for i, b := range binds {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		io.WriteString(w, "(")
		io.WriteString(w, b.ident)
		io.WriteString(w, ", ")
		debugExpr(w, b.expr)
		io.WriteString(w, ")")
	}
}

func debugName(w io.Writer, qn xml.QName) {
	if qn.Space != "" {
		io.WriteString(w, qn.Space)
		io.WriteString(w, ":")
	}
	io.WriteString(w, qn.Name)
}

func debugOp(op rune) string {
	switch op {
	case opRange:
		return "range"
	case opConcat:
		return "concat"
	case opBefore:
		return "before"
	case opAfter:
		return "after"
	case opIs:
		return "is"
	case opAdd:
		return "add"
	case opSub:
		return "subtract"
	case opMul:
		return "multiply"
	case opDiv:
		return "divide"
	case opIdiv:
		return "idiv"
	case opMod:
		return "modulo"
	case opValEq, opEq:
		return "eq"
	case opValNe, opNe:
		return "ne"
	case opValGt, opGt:
		return "gt"
	case opValGe, opGe:
		return "ge"
	case opValLt, opLt:
		return "lt"
	case opValLe, opLe:
		return "le"
	case opAnd:
		return "and"
	case opOr:
		return "or"
	default:
		return ""
	}
}
