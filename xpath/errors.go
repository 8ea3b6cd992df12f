package xpath

import (
	"errors"
	"fmt"
)

// W3C error codes reported by the compiler and the evaluator. Static
// errors (XPST) are raised while an expression is compiled, dynamic
// errors (XPDY) and function errors (FO*) while it is evaluated.
const (
	CodeSyntax         = "XPST0003"
	CodeEmptySelect    = "XPST0005"
	CodeUndefinedVar   = "XPST0008"
	CodeUnknownAxis    = "XPST0010"
	CodeUnknownFunc    = "XPST0017"
	CodeUnknownType    = "XPST0051"
	CodeInvalidTarget  = "XPST0080"
	CodeUnknownPrefix  = "XPST0081"
	CodeNoContext      = "XPDY0002"
	CodeTreatAs        = "XPDY0050"
	CodeType           = "XPTY0004"
	CodeDivByZero      = "FOAR0001"
	CodeNumeric        = "FOAR0002"
	CodeInvalidLexical = "FOCA0002"
	CodeInvalidValue   = "FORG0001"
	CodeInvalidArg     = "FORG0006"
	CodeAtomize        = "FOTY0013"
	CodeResource       = "FODC0002"
)

var (
	ErrSyntax    = errors.New("invalid syntax")
	ErrContext   = errors.New("context item is absent")
	ErrType      = errors.New("type mismatch")
	ErrCast      = errors.New("value can not be cast to target type")
	ErrUndefined = errors.New("undefined reference")
	ErrZero      = errors.New("division by zero")
	ErrArgument  = errors.New("invalid argument")
	ErrResource  = errors.New("resource not available")
)

// Error is a dynamic or type error raised while evaluating an
// expression. Code carries the W3C error code identifying the failure.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the W3C error code carried by err or the empty
// string when err carries none.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var s *SyntaxError
	if errors.As(err, &s) {
		return s.Code
	}
	return ""
}

func errorf(code, format string, args ...any) error {
	return &Error{
		Code: code,
		Err:  fmt.Errorf(format, args...),
	}
}

func errorWith(code string, err error, format string, args ...any) error {
	return &Error{
		Code: code,
		Err:  fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...)),
	}
}

func missingContext() error {
	return &Error{
		Code: CodeNoContext,
		Err:  ErrContext,
	}
}

func typeErrorf(format string, args ...any) error {
	return errorWith(CodeType, ErrType, format, args...)
}

func castError(value any, typ string) error {
	return errorWith(CodeInvalidValue, ErrCast, "%v can not be cast to %s", value, typ)
}

// SyntaxError is returned when an expression can not be compiled. It
// keeps the offending token and its position in the input together
// with the list of symbols the compiler would have accepted.
type SyntaxError struct {
	Code     string
	Token    string
	Cause    string
	Expected []string
	Position
}

func (e *SyntaxError) Error() string {
	var msg string
	if e.Token != "" {
		msg = fmt.Sprintf("%s (%d:%d): unexpected %q: %s", e.Code, e.Line, e.Column, e.Token, e.Cause)
	} else {
		msg = fmt.Sprintf("%s (%d:%d): %s", e.Code, e.Line, e.Column, e.Cause)
	}
	if len(e.Expected) > 0 {
		msg = fmt.Sprintf("%s (expected %s)", msg, formatExpected(e.Expected))
	}
	return msg
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func formatExpected(list []string) string {
	switch len(list) {
	case 1:
		return list[0]
	case 2:
		return fmt.Sprintf("%s or %s", list[0], list[1])
	default:
		str := list[len(list)-1]
		for i := len(list) - 2; i >= 0; i-- {
			str = fmt.Sprintf("%s, %s", list[i], str)
		}
		return str
	}
}
