package xpath

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	EOF rune = -(1 + iota)
	Name
	Namespace
	Attr
	Literal
	Digit
	Invalid
)

const (
	currNode rune = -(iota + 1000)
	parentNode
	variable
	currLevel
	anyLevel
	begPred
	endPred
	begGrp
	endGrp
	opAssign
	opRange
	opConcat
	opBefore
	opAfter
	opQuestion
	opAdd
	opSub
	opMul
	opDiv
	opIdiv
	opMod
	opValEq
	opValNe
	opValGt
	opValGe
	opValLt
	opValLe
	opEq
	opNe
	opGt
	opGe
	opLt
	opLe
	opUnion
	opExcept
	opIntersect
	opIs
	opAnd
	opOr
	opSeq
	opAxis
	opInstanceOf
	opCastAs
	opCastableAs
	opTreatAs
)

var tokenNames = map[rune]string{
	currNode:     ".",
	parentNode:   "..",
	currLevel:    "/",
	anyLevel:     "//",
	begPred:      "[",
	endPred:      "]",
	begGrp:       "(",
	endGrp:       ")",
	opAssign:     ":=",
	opRange:      "to",
	opConcat:     "||",
	opBefore:     "<<",
	opAfter:      ">>",
	opQuestion:   "?",
	opAdd:        "+",
	opSub:        "-",
	opMul:        "*",
	opDiv:        "div",
	opIdiv:       "idiv",
	opMod:        "mod",
	opValEq:      "eq",
	opValNe:      "ne",
	opValGt:      "gt",
	opValGe:      "ge",
	opValLt:      "lt",
	opValLe:      "le",
	opEq:         "=",
	opNe:         "!=",
	opGt:         ">",
	opGe:         ">=",
	opLt:         "<",
	opLe:         "<=",
	opUnion:      "union",
	opExcept:     "except",
	opIntersect:  "intersect",
	opIs:         "is",
	opAnd:        "and",
	opOr:         "or",
	opSeq:        ",",
	opAxis:       "::",
	opInstanceOf: "instance of",
	opCastAs:     "cast as",
	opCastableAs: "castable as",
	opTreatAs:    "treat as",
}

type Position struct {
	Line   int
	Column int
}

type Token struct {
	Literal string
	Type    rune
	Position
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "<eof>"
	case Name, Literal, Digit:
		return t.Literal
	case Namespace:
		return ":"
	case Attr:
		return "@" + t.Literal
	case variable:
		return "$" + t.Literal
	case Invalid:
		if t.Literal != "" {
			return t.Literal
		}
		return "<invalid>"
	}
	if str, ok := tokenNames[t.Type]; ok {
		return str
	}
	return "<unknown>"
}

const (
	lparen     = '('
	rparen     = ')'
	lsquare    = '['
	rsquare    = ']'
	langle     = '<'
	rangle     = '>'
	colon      = ':'
	quote      = '"'
	apos       = '\''
	slash      = '/'
	dot        = '.'
	comma      = ','
	arobase    = '@'
	dollar     = '$'
	question   = '?'
	bang       = '!'
	star       = '*'
	plus       = '+'
	dash       = '-'
	underscore = '_'
	equal      = '='
	pipe       = '|'
	space      = ' '
	tab        = '\t'
	nl         = '\n'
	cr         = '\r'
)

type Scanner struct {
	input *bufio.Reader
	char  rune
	str   bytes.Buffer

	Position
}

func Scan(r io.Reader) *Scanner {
	s := Scanner{
		input: bufio.NewReader(r),
	}
	s.Line = 1
	s.read()
	return &s
}

func (s *Scanner) Scan() Token {
	s.skipBlank()
	var tok Token
	tok.Position = s.Position
	if s.done() {
		tok.Type = EOF
		return tok
	}
	if s.char == lparen && s.peek() == colon {
		if !s.skipComment() {
			tok.Type = Invalid
			return tok
		}
		return s.Scan()
	}
	s.str.Reset()
	switch {
	case isQuote(s.char):
		s.scanLiteral(&tok)
	case isDigit(s.char) || (s.char == dot && isDigit(s.peek())):
		s.scanNumber(&tok)
	case isLetter(s.char):
		s.scanIdent(&tok)
	case s.char == dollar:
		s.scanVariable(&tok)
	case s.char == arobase:
		s.scanAttr(&tok)
	case isDelim(s.char):
		s.scanDelimiter(&tok)
	case isOperator(s.char):
		s.scanOperator(&tok)
	default:
		tok.Type = Invalid
		tok.Literal = string(s.char)
		s.read()
	}
	return tok
}

func (s *Scanner) scanLiteral(tok *Token) {
	mark := s.char
	s.read()
	for !s.done() {
		if s.char == mark {
			if s.peek() == mark {
				s.str.WriteRune(mark)
				s.read()
				s.read()
				continue
			}
			break
		}
		s.str.WriteRune(s.char)
		s.read()
	}
	if s.done() {
		tok.Type = Invalid
		tok.Literal = s.str.String()
		return
	}
	s.read()
	tok.Type = Literal
	tok.Literal = s.str.String()
}

func (s *Scanner) scanNumber(tok *Token) {
	tok.Type = Digit
	for isDigit(s.char) {
		s.str.WriteRune(s.char)
		s.read()
	}
	if s.char == dot {
		s.str.WriteRune(s.char)
		s.read()
		for isDigit(s.char) {
			s.str.WriteRune(s.char)
			s.read()
		}
	}
	if s.char == 'e' || s.char == 'E' {
		s.str.WriteRune(s.char)
		s.read()
		if s.char == plus || s.char == dash {
			s.str.WriteRune(s.char)
			s.read()
		}
		if !isDigit(s.char) {
			tok.Type = Invalid
			tok.Literal = s.str.String()
			return
		}
		for isDigit(s.char) {
			s.str.WriteRune(s.char)
			s.read()
		}
	}
	tok.Literal = s.str.String()
}

// scanIdent reads a name. The four two word operators are joined here
// so the compiler never has to look past one token.
func (s *Scanner) scanIdent(tok *Token) {
	tok.Literal = s.scanName()
	tok.Type = Name
	switch tok.Literal {
	case "cast":
		if s.lookForward("as") {
			tok.Type = opCastAs
		}
	case "castable":
		if s.lookForward("as") {
			tok.Type = opCastableAs
		}
	case "instance":
		if s.lookForward("of") {
			tok.Type = opInstanceOf
		}
	case "treat":
		if s.lookForward("as") {
			tok.Type = opTreatAs
		}
	}
}

func (s *Scanner) scanVariable(tok *Token) {
	s.read()
	if !isLetter(s.char) {
		tok.Type = Invalid
		return
	}
	tok.Type = variable
	tok.Literal = s.scanName()
}

func (s *Scanner) scanAttr(tok *Token) {
	s.read()
	tok.Type = Attr
	if s.char == star {
		s.read()
		tok.Literal = "*"
		return
	}
	if !isLetter(s.char) {
		tok.Type = Invalid
		return
	}
	name := s.scanName()
	if s.char == colon && s.peek() != colon {
		s.read()
		if s.char == star {
			s.read()
			tok.Literal = name + ":*"
			return
		}
		if !isLetter(s.char) {
			tok.Type = Invalid
			tok.Literal = name
			return
		}
		name += ":" + s.scanName()
	}
	tok.Literal = name
}

func (s *Scanner) scanDelimiter(tok *Token) {
	switch s.char {
	case lparen:
		tok.Type = begGrp
	case rparen:
		tok.Type = endGrp
	case lsquare:
		tok.Type = begPred
	case rsquare:
		tok.Type = endPred
	case comma:
		tok.Type = opSeq
	case question:
		tok.Type = opQuestion
	case dot:
		tok.Type = currNode
		if s.peek() == dot {
			s.read()
			tok.Type = parentNode
		}
	case slash:
		tok.Type = currLevel
		if s.peek() == slash {
			s.read()
			tok.Type = anyLevel
		}
	case pipe:
		tok.Type = opUnion
		if s.peek() == pipe {
			s.read()
			tok.Type = opConcat
		}
	case colon:
		tok.Type = Namespace
		if s.peek() == colon {
			s.read()
			tok.Type = opAxis
		} else if s.peek() == equal {
			s.read()
			tok.Type = opAssign
		}
	default:
		tok.Type = Invalid
	}
	s.read()
}

func (s *Scanner) scanOperator(tok *Token) {
	switch s.char {
	case equal:
		tok.Type = opEq
	case bang:
		tok.Type = Invalid
		if s.peek() == equal {
			s.read()
			tok.Type = opNe
		}
	case langle:
		tok.Type = opLt
		if s.peek() == equal {
			s.read()
			tok.Type = opLe
		} else if s.peek() == langle {
			s.read()
			tok.Type = opBefore
		}
	case rangle:
		tok.Type = opGt
		if s.peek() == equal {
			s.read()
			tok.Type = opGe
		} else if s.peek() == rangle {
			s.read()
			tok.Type = opAfter
		}
	case plus:
		tok.Type = opAdd
	case dash:
		tok.Type = opSub
	case star:
		tok.Type = opMul
	default:
		tok.Type = Invalid
	}
	s.read()
}

func (s *Scanner) scanName() string {
	s.str.Reset()
	for isName(s.char) {
		if s.char == dot {
			if next := s.peek(); !isLetter(next) && !isDigit(next) {
				break
			}
		}
		s.str.WriteRune(s.char)
		s.read()
	}
	return s.str.String()
}

// lookForward joins the second word of a two word operator when the
// upcoming input is that word followed by a name boundary.
func (s *Scanner) lookForward(want string) bool {
	str := string(s.char)
	buf, _ := s.input.Peek(64)
	str += string(buf)
	trimmed := strings.TrimLeft(str, " \t\r\n")
	if !strings.HasPrefix(trimmed, want) {
		return false
	}
	rest := trimmed[len(want):]
	if rest != "" {
		if r, _ := utf8.DecodeRuneInString(rest); isName(r) {
			return false
		}
	}
	skip := len(str) - len(trimmed) + len(want)
	discard := skip - utf8.RuneLen(s.char)
	s.input.Discard(discard)
	s.Column += discard
	s.read()
	return true
}

func (s *Scanner) skipComment() bool {
	s.read()
	s.read()
	depth := 1
	for depth > 0 {
		if s.done() {
			return false
		}
		switch {
		case s.char == lparen && s.peek() == colon:
			s.read()
			s.read()
			depth++
		case s.char == colon && s.peek() == rparen:
			s.read()
			s.read()
			depth--
		default:
			s.read()
		}
	}
	return true
}

func (s *Scanner) skipBlank() {
	for isBlank(s.char) {
		s.read()
	}
}

func (s *Scanner) read() {
	if s.char == nl {
		s.Line++
		s.Column = 0
	}
	char, _, err := s.input.ReadRune()
	if err != nil {
		s.char = 0
		return
	}
	s.char = char
	s.Column++
}

func (s *Scanner) peek() rune {
	buf, _ := s.input.Peek(utf8.UTFMax)
	r, _ := utf8.DecodeRune(buf)
	return r
}

func (s *Scanner) done() bool {
	return s.char == 0
}

func isQuote(r rune) bool {
	return r == quote || r == apos
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r) || r == underscore
}

func isName(r rune) bool {
	return isLetter(r) || isDigit(r) || r == dash || r == dot
}

func isBlank(r rune) bool {
	return r == space || r == tab || r == nl || r == cr
}

func isDelim(r rune) bool {
	return strings.ContainsRune("()[],.:/|?", r)
}

func isOperator(r rune) bool {
	return strings.ContainsRune("+-*=!<>", r)
}
