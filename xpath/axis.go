package xpath

import "iter"

// axisNodes yields the nodes of one axis in axis order: document
// order for forward axes, reverse document order for reverse ones.
func axisNodes(name string, from Node) iter.Seq[Node] {
	switch name {
	case selfAxis:
		return selfOf(from)
	case childAxis:
		return childrenOf(from)
	case parentAxis:
		return parentOf(from)
	case ancestorAxis:
		return ancestorsOf(from, false)
	case ancestorSelfAxis:
		return ancestorsOf(from, true)
	case descendantAxis:
		return descendantsOf(from, false)
	case descendantSelfAxis:
		return descendantsOf(from, true)
	case followingSiblingAxis:
		return siblingsOf(from, false)
	case precedingSiblingAxis:
		return siblingsOf(from, true)
	case followingAxis:
		return followingOf(from)
	case precedingAxis:
		return precedingOf(from)
	case attributeAxis:
		return attributesOf(from)
	default:
		return emptyAxis()
	}
}

func emptyAxis() iter.Seq[Node] {
	return func(yield func(Node) bool) {}
}

func selfOf(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		yield(n)
	}
}

func childrenOf(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, c := range n.Children() {
			if !yield(c) {
				return
			}
		}
	}
}

func parentOf(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if p := n.Parent(); p != nil {
			yield(p)
		}
	}
}

func ancestorsOf(n Node, self bool) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if self && !yield(n) {
			return
		}
		for p := n.Parent(); p != nil; p = p.Parent() {
			if !yield(p) {
				return
			}
		}
	}
}

// descendantsOf walks the subtree in document order with an explicit
// stack. Schema graphs can cycle, so nodes already seen are skipped
// there.
func descendantsOf(n Node, self bool) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		seen := schemaGuard(n)
		if self && !yield(n) {
			return
		}
		stack := [][]Node{n.Children()}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if len(top) == 0 {
				stack = stack[:len(stack)-1]
				continue
			}
			head := top[0]
			stack[len(stack)-1] = top[1:]
			if seen != nil {
				if _, ok := seen[head]; ok {
					continue
				}
				seen[head] = struct{}{}
			}
			if !yield(head) {
				return
			}
			if kids := head.Children(); len(kids) > 0 {
				stack = append(stack, kids)
			}
		}
	}
}

func schemaGuard(n Node) map[Node]struct{} {
	switch n.(type) {
	case *SchemaNode, *SchemaElementNode:
		return make(map[Node]struct{})
	default:
		return nil
	}
}

// siblingsOf yields the siblings after n, or before n in reverse
// order when preceding is set. Attributes and namespace nodes have no
// siblings.
func siblingsOf(n Node, preceding bool) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		p := n.Parent()
		if p == nil {
			return
		}
		list := p.Children()
		at := -1
		for i, c := range list {
			if c == n {
				at = i
				break
			}
		}
		if at < 0 {
			return
		}
		if preceding {
			for i := at - 1; i >= 0; i-- {
				if !yield(list[i]) {
					return
				}
			}
			return
		}
		for i := at + 1; i < len(list); i++ {
			if !yield(list[i]) {
				return
			}
		}
	}
}

func followingOf(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for cur := n; cur != nil; cur = cur.Parent() {
			for s := range siblingsOf(cur, false) {
				for d := range descendantsOf(s, true) {
					if !yield(d) {
						return
					}
				}
			}
		}
	}
}

func precedingOf(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for cur := n; cur != nil; cur = cur.Parent() {
			for s := range siblingsOf(cur, true) {
				var list []Node
				for d := range descendantsOf(s, true) {
					list = append(list, d)
				}
				for i := len(list) - 1; i >= 0; i-- {
					if !yield(list[i]) {
						return
					}
				}
			}
		}
	}
}

func attributesOf(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		switch n := n.(type) {
		case *ElementNode:
			for _, a := range n.attrs {
				if !yield(a) {
					return
				}
			}
		case *SchemaElementNode:
			for _, a := range n.attrs {
				if !yield(a) {
					return
				}
			}
		}
	}
}
