package xpath

import (
	"iter"
	"math"
	"slices"
	"time"

	"github.com/midbel/xee/xml"
)

// Item is one member of a sequence: a node of a tree or an atomic
// value carrying its type.
type Item interface {
	// Node returns the underlying node or nil for atomic items.
	Node() Node
	// Value returns the Go value of the item. Nodes return their
	// string value.
	Value() any
	// Type returns the dynamic type of the item. Nodes report the
	// type their atomization produces.
	Type() Type
	Atomic() bool
}

type nodeItem struct {
	node Node
}

func createNode(n Node) Item {
	return nodeItem{node: n}
}

func (n nodeItem) Node() Node   { return n.node }
func (n nodeItem) Value() any   { return n.node.Value() }
func (n nodeItem) Type() Type   { return untypedAtomicType }
func (n nodeItem) Atomic() bool { return false }

type literalItem struct {
	value any
	typ   Type
}

func createTyped(value any, typ Type) Item {
	return literalItem{value: value, typ: typ}
}

func createString(str string) Item {
	return createTyped(str, stringType)
}

func createUntyped(str string) Item {
	return createTyped(str, untypedAtomicType)
}

func createBool(ok bool) Item {
	return createTyped(ok, booleanType)
}

func createInt(val int64) Item {
	return createTyped(val, integerType)
}

func createDouble(val float64) Item {
	return createTyped(val, doubleType)
}

func (i literalItem) Node() Node   { return nil }
func (i literalItem) Value() any   { return i.value }
func (i literalItem) Type() Type   { return i.typ }
func (i literalItem) Atomic() bool { return true }

func isUntyped(it Item) bool {
	return it.Type() == untypedAtomicType
}

// Sequence is the result of evaluating an expression: zero or more
// items in order.
type Sequence []Item

// Singleton builds a one item sequence from a Go value. Nil gives the
// empty sequence.
func Singleton(value any) Sequence {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case Item:
		return Sequence{v}
	case Node:
		return Sequence{createNode(v)}
	case Sequence:
		return v
	case bool:
		return Sequence{createBool(v)}
	case int:
		return Sequence{createInt(int64(v))}
	case int64:
		return Sequence{createInt(v)}
	case float64:
		return Sequence{createDouble(v)}
	case string:
		return Sequence{createString(v)}
	case time.Time:
		return Sequence{createTyped(v, dateTimeType)}
	case xml.QName:
		return Sequence{createTyped(v, qnameType)}
	default:
		return Sequence{createTyped(v, anyAtomicType)}
	}
}

func (s Sequence) Len() int {
	return len(s)
}

func (s Sequence) Empty() bool {
	return len(s) == 0
}

func (s Sequence) First() Item {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

func (s *Sequence) Append(it Item) {
	*s = append(*s, it)
}

func (s *Sequence) Concat(other Sequence) {
	*s = slices.Concat(*s, other)
}

// True returns the effective boolean value of the sequence.
func (s Sequence) True() (bool, error) {
	return EffectiveBooleanValue(s)
}

// Strings returns the string value of every item in the sequence.
func (s Sequence) Strings() []string {
	list := make([]string, 0, len(s))
	for _, it := range s {
		list = append(list, toString(it.Value()))
	}
	return list
}

// EffectiveBooleanValue reduces a sequence to a boolean. The empty
// sequence is false, a sequence whose first item is a node is true, a
// singleton atomic is judged by its value, everything else is an
// error.
func EffectiveBooleanValue(seq Sequence) (bool, error) {
	if len(seq) == 0 {
		return false, nil
	}
	if seq[0].Node() != nil {
		return true, nil
	}
	if len(seq) > 1 {
		return false, errorWith(CodeInvalidArg, ErrArgument, "sequence of %d atomic values has no boolean value", len(seq))
	}
	return itemTruth(seq[0])
}

func itemTruth(it Item) (bool, error) {
	switch v := it.Value().(type) {
	case bool:
		return v, nil
	case string:
		return len(v) > 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0 && !math.IsNaN(v), nil
	default:
		return false, errorWith(CodeInvalidArg, ErrArgument, "%s value has no boolean value", it.Type().Name())
	}
}

// Atomize replaces every node of the sequence by its typed value.
func Atomize(seq Sequence) (Sequence, error) {
	list := make(Sequence, 0, len(seq))
	for _, it := range seq {
		atom, err := atomizeItem(it)
		if err != nil {
			return nil, err
		}
		list = append(list, atom)
	}
	return list, nil
}

func atomizeItem(it Item) (Item, error) {
	if it.Atomic() {
		return it, nil
	}
	n := it.Node()
	if n == nil {
		return nil, errorf(CodeAtomize, "item can not be atomized")
	}
	return createUntyped(n.Value()), nil
}

func allNodes(seq Sequence) bool {
	for _, it := range seq {
		if it.Node() == nil {
			return false
		}
	}
	return true
}

// uniqueNodes removes duplicate nodes, keeping the first occurrence.
// Identity is node identity, not value equality.
func uniqueNodes(seq Sequence) Sequence {
	seen := make(map[Node]struct{}, len(seq))
	list := make(Sequence, 0, len(seq))
	for _, it := range seq {
		n := it.Node()
		if n == nil {
			list = append(list, it)
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		list = append(list, it)
	}
	return list
}

// sortNodes orders a node sequence by document order. Nodes from
// several trees keep their trees in first seen order.
func sortNodes(seq Sequence) Sequence {
	var (
		roots []Node
		rank  = make(map[Node]int)
	)
	for _, it := range seq {
		r := rootOf(it.Node())
		if _, ok := rank[r]; !ok {
			rank[r] = len(roots)
			roots = append(roots, r)
		}
	}
	slices.SortStableFunc(seq, func(a, b Item) int {
		na, nb := a.Node(), b.Node()
		if d := rank[rootOf(na)] - rank[rootOf(nb)]; d != 0 {
			return d
		}
		return na.Position() - nb.Position()
	})
	return seq
}

// normalizeNodes applies the document order rule to a step result:
// all node sequences are sorted and deduplicated, mixed sequences of
// nodes and atomics are rejected.
func normalizeNodes(seq Sequence) (Sequence, error) {
	if allNodes(seq) {
		return sortNodes(uniqueNodes(seq)), nil
	}
	for _, it := range seq {
		if it.Node() != nil {
			return nil, typeErrorf("path result mixes nodes and atomic values")
		}
	}
	return seq, nil
}

func stream(seq Sequence, err error) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		if err != nil {
			yield(nil, err)
			return
		}
		for _, it := range seq {
			if !yield(it, nil) {
				return
			}
		}
	}
}

func materialize(it iter.Seq2[Item, error]) (Sequence, error) {
	var seq Sequence
	for item, err := range it {
		if err != nil {
			return nil, err
		}
		seq.Append(item)
	}
	return seq, nil
}

// booleanOf computes the effective boolean value from an iterator
// without draining it: one item decides for nodes, a second one only
// has to be absent.
func booleanOf(it iter.Seq2[Item, error]) (bool, error) {
	var (
		first Item
		count int
		fail  error
	)
	for item, err := range it {
		if err != nil {
			fail = err
			break
		}
		if count == 0 && item.Node() != nil {
			return true, nil
		}
		count++
		if count > 1 {
			fail = errorWith(CodeInvalidArg, ErrArgument, "sequence of atomic values has no boolean value")
			break
		}
		first = item
	}
	if fail != nil {
		return false, fail
	}
	if count == 0 {
		return false, nil
	}
	return itemTruth(first)
}
