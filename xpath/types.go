package xpath

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/midbel/xee/xml"
)

// Type is an atomic type usable in cast, castable and instance of
// expressions. Types form a tree rooted at xs:anyAtomicType and an
// item matches a type when its dynamic type derives from it.
type Type interface {
	Name() xml.QName
	Matches(Item) bool
	Cast(Item) (Item, error)
	base() Type
}

type atomicType struct {
	name   xml.QName
	parent *atomicType
	cast   func(Item) (Item, error)
}

func (t *atomicType) Name() xml.QName {
	return t.name
}

func (t *atomicType) base() Type {
	if t.parent == nil {
		return nil
	}
	return t.parent
}

func (t *atomicType) Matches(it Item) bool {
	if !it.Atomic() {
		return false
	}
	for typ := it.Type(); typ != nil; typ = typ.base() {
		if typ == Type(t) {
			return true
		}
	}
	return false
}

func (t *atomicType) Cast(it Item) (Item, error) {
	if t.cast == nil {
		return nil, errorf(CodeInvalidTarget, "%s is not a valid cast target", t.name.QualifiedName())
	}
	return t.cast(it)
}

func xsType(name string) xml.QName {
	return xml.QualifiedName(name, "xs")
}

var (
	anyAtomicType     = &atomicType{name: xsType("anyAtomicType")}
	untypedAtomicType = &atomicType{name: xsType("untypedAtomic")}
	stringType        = &atomicType{name: xsType("string")}
	booleanType       = &atomicType{name: xsType("boolean")}
	decimalType       = &atomicType{name: xsType("decimal")}
	integerType       = &atomicType{name: xsType("integer")}
	doubleType        = &atomicType{name: xsType("double")}
	floatType         = &atomicType{name: xsType("float")}
	dateTimeType      = &atomicType{name: xsType("dateTime")}
	dateType          = &atomicType{name: xsType("date")}
	qnameType         = &atomicType{name: xsType("QName")}
)

func init() {
	for _, t := range []*atomicType{
		untypedAtomicType,
		stringType,
		booleanType,
		decimalType,
		doubleType,
		floatType,
		dateTimeType,
		dateType,
		qnameType,
	} {
		t.parent = anyAtomicType
	}
	integerType.parent = decimalType

	untypedAtomicType.cast = func(it Item) (Item, error) {
		return createUntyped(toString(it.Value())), nil
	}
	stringType.cast = castString
	booleanType.cast = castBoolean
	decimalType.cast = castDecimal
	integerType.cast = castInteger
	doubleType.cast = castNumeric(doubleType)
	floatType.cast = castNumeric(floatType)
	dateTimeType.cast = castDateTime
	dateType.cast = castDate
	qnameType.cast = castQName
}

func castString(it Item) (Item, error) {
	return createString(toString(it.Value())), nil
}

func castBoolean(it Item) (Item, error) {
	switch v := it.Value().(type) {
	case bool:
		return it, nil
	case string:
		switch strings.TrimSpace(v) {
		case "true", "1":
			return createBool(true), nil
		case "false", "0":
			return createBool(false), nil
		default:
			return nil, castError(v, "xs:boolean")
		}
	case int64:
		return createBool(v != 0), nil
	case float64:
		return createBool(v != 0 && !math.IsNaN(v)), nil
	default:
		return nil, typeErrorf("%s can not be cast to xs:boolean", it.Type().Name())
	}
}

func castDecimal(it Item) (Item, error) {
	switch v := it.Value().(type) {
	case int64:
		return createTyped(float64(v), decimalType), nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, errorf(CodeInvalidLexical, "%v has no decimal value", v)
		}
		return createTyped(v, decimalType), nil
	case bool:
		return createTyped(b2f(v), decimalType), nil
	case string:
		str := strings.TrimSpace(v)
		if strings.ContainsAny(str, "eE") {
			return nil, castError(v, "xs:decimal")
		}
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, castError(v, "xs:decimal")
		}
		return createTyped(val, decimalType), nil
	default:
		return nil, typeErrorf("%s can not be cast to xs:decimal", it.Type().Name())
	}
}

func castInteger(it Item) (Item, error) {
	switch v := it.Value().(type) {
	case int64:
		return it, nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, errorf(CodeInvalidLexical, "%v has no integer value", v)
		}
		return createInt(int64(math.Trunc(v))), nil
	case bool:
		return createInt(b2i(v)), nil
	case string:
		val, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, castError(v, "xs:integer")
		}
		return createInt(val), nil
	default:
		return nil, typeErrorf("%s can not be cast to xs:integer", it.Type().Name())
	}
}

func castNumeric(target *atomicType) func(Item) (Item, error) {
	return func(it Item) (Item, error) {
		switch v := it.Value().(type) {
		case int64:
			return createTyped(float64(v), target), nil
		case float64:
			return createTyped(v, target), nil
		case bool:
			return createTyped(b2f(v), target), nil
		case string:
			val, err := parseDouble(v)
			if err != nil {
				return nil, err
			}
			return createTyped(val, target), nil
		default:
			return nil, typeErrorf("%s can not be cast to %s", it.Type().Name(), target.Name().QualifiedName())
		}
	}
}

func castDateTime(it Item) (Item, error) {
	switch v := it.Value().(type) {
	case time.Time:
		return createTyped(v, dateTimeType), nil
	case string:
		when, err := parseTime(v)
		if err != nil {
			return nil, castError(v, "xs:dateTime")
		}
		return createTyped(when, dateTimeType), nil
	default:
		return nil, typeErrorf("%s can not be cast to xs:dateTime", it.Type().Name())
	}
}

func castDate(it Item) (Item, error) {
	switch v := it.Value().(type) {
	case time.Time:
		return createTyped(truncateDay(v), dateType), nil
	case string:
		when, err := parseDate(v)
		if err != nil {
			return nil, castError(v, "xs:date")
		}
		return createTyped(when, dateType), nil
	default:
		return nil, typeErrorf("%s can not be cast to xs:date", it.Type().Name())
	}
}

func castQName(it Item) (Item, error) {
	switch v := it.Value().(type) {
	case xml.QName:
		return it, nil
	case string:
		name, err := xml.ParseName(strings.TrimSpace(v))
		if err != nil {
			return nil, castError(v, "xs:QName")
		}
		return createTyped(name, qnameType), nil
	default:
		return nil, typeErrorf("%s can not be cast to xs:QName", it.Type().Name())
	}
}

// parseDouble follows the xs:double lexical space: INF, -INF and NaN
// are the only spellings of the special values and overflow gives the
// infinities instead of an error.
func parseDouble(str string) (float64, error) {
	str = strings.TrimSpace(str)
	switch str {
	case "INF", "+INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	if strings.ContainsAny(str, "xX") {
		return 0, castError(str, "xs:double")
	}
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return val, nil
		}
		return 0, castError(str, "xs:double")
	}
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, castError(str, "xs:double")
	}
	return val, nil
}

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
}

var dateLayouts = []string{
	"2006-01-02Z07:00",
	"2006-01-02",
}

func parseTime(str string) (time.Time, error) {
	return parseLayouts(strings.TrimSpace(str), dateTimeLayouts)
}

func parseDate(str string) (time.Time, error) {
	return parseLayouts(strings.TrimSpace(str), dateLayouts)
}

func parseLayouts(str string, layouts []string) (time.Time, error) {
	var (
		when time.Time
		err  error
	)
	for _, layout := range layouts {
		when, err = time.Parse(layout, str)
		if err == nil {
			return when, nil
		}
	}
	return when, err
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatDouble(v)
	case time.Time:
		return v.Format("2006-01-02T15:04:05.999999999Z07:00")
	case xml.QName:
		return v.QualifiedName()
	default:
		return ""
	}
}

func formatDouble(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "INF"
	case math.IsInf(v, -1):
		return "-INF"
	case math.IsNaN(v):
		return "NaN"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return strconv.FormatInt(int64(v), 10)
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return parseDouble(v)
	default:
		return 0, typeErrorf("%T value is not a number", value)
	}
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, typeErrorf("%v is not an integer", v)
		}
		return int64(v), nil
	case string:
		val, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, castError(v, "xs:integer")
		}
		return val, nil
	default:
		return 0, typeErrorf("%T value is not an integer", value)
	}
}

func b2i(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func b2f(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// isNumericType reports whether t sits in the numeric branch of the
// type tree.
func isNumericType(t Type) bool {
	return t == integerType || t == decimalType || t == doubleType || t == floatType
}

// promote picks the common numeric type of a pair of operands:
// double wins over float, float over decimal, decimal over integer.
func promote(a, b Type) Type {
	switch {
	case a == doubleType || b == doubleType:
		return doubleType
	case a == floatType || b == floatType:
		return floatType
	case a == decimalType || b == decimalType:
		return decimalType
	default:
		return integerType
	}
}

// cardinality encodes an occurrence indicator as two flags: the
// sequence may be empty, the sequence may hold more than one item.
type cardinality int8

const (
	occOne  cardinality = 0
	occZero cardinality = 1 << iota
	occMore
)

func (c cardinality) Zero() bool {
	return c&occZero != 0
}

func (c cardinality) More() bool {
	return c&occMore != 0
}

func (c cardinality) One() bool {
	return c == occOne
}

func (c cardinality) String() string {
	switch {
	case c.Zero() && c.More():
		return "*"
	case c.Zero():
		return "?"
	case c.More():
		return "+"
	default:
		return ""
	}
}

// SequenceType is the target of instance of and treat as: an item
// test together with a cardinality.
type SequenceType struct {
	empty   bool
	anyItem bool
	atomic  Type
	kind    *kindTest
	card    cardinality
}

func (st SequenceType) Matches(seq Sequence) bool {
	if seq.Empty() {
		return st.empty || st.card.Zero()
	}
	if st.empty {
		return false
	}
	if seq.Len() > 1 && !st.card.More() {
		return false
	}
	for _, it := range seq {
		if !st.matchItem(it) {
			return false
		}
	}
	return true
}

func (st SequenceType) matchItem(it Item) bool {
	switch {
	case st.anyItem:
		return true
	case st.kind != nil:
		n := it.Node()
		return n != nil && st.kind.matches(n, KindNode)
	case st.atomic != nil:
		return st.atomic.Matches(it)
	default:
		return false
	}
}

func (st SequenceType) String() string {
	switch {
	case st.empty:
		return "empty-sequence()"
	case st.anyItem:
		return "item()" + st.card.String()
	case st.kind != nil:
		return st.kind.String() + st.card.String()
	case st.atomic != nil:
		return st.atomic.Name().QualifiedName() + st.card.String()
	default:
		return "none"
	}
}
