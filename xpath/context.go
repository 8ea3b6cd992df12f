package xpath

import (
	"iter"
	"time"

	"github.com/midbel/xee/environ"
)

// Context is the dynamic context of an evaluation: the focus (item,
// position and size), the variable bindings and the resources shared
// by the whole evaluation.
type Context struct {
	Item Item
	Pos  int
	Size int
	Axis string

	vars        environ.Environ[Sequence]
	documents   map[string]Node
	collections map[string][]Item
	now         time.Time
	static      bool
	tracer      Tracer
}

// Copy gives the caller its own variable frame: bindings made on the
// copy never reach the original. Trees, documents and collections
// stay shared.
func (c *Context) Copy() *Context {
	clone := *c
	clone.vars = c.vars.Clone()
	return &clone
}

// Define binds a variable in the current frame.
func (c *Context) Define(name string, seq Sequence) {
	c.vars.Define(name, seq)
}

// Resolve looks a variable up through the enclosing frames.
func (c *Context) Resolve(name string) (Sequence, error) {
	seq, err := c.vars.Resolve(name)
	if err != nil {
		if c.static {
			return nil, nil
		}
		return nil, errorWith(CodeUndefinedVar, ErrUndefined, "variable $%s is not defined", name)
	}
	return seq, nil
}

func (c *Context) pushScope() {
	c.vars = environ.Enclosed(c.vars)
}

func (c *Context) popScope() {
	c.vars = c.vars.Unwrap()
}

func (c *Context) document(uri string) (Node, error) {
	doc, ok := c.documents[uri]
	if !ok {
		if c.static {
			return nil, nil
		}
		return nil, errorWith(CodeResource, ErrResource, "no document bound to %q", uri)
	}
	return doc, nil
}

func (c *Context) collection(uri string) ([]Item, error) {
	items, ok := c.collections[uri]
	if !ok {
		if c.static {
			return nil, nil
		}
		return nil, errorWith(CodeResource, ErrResource, "no collection bound to %q", uri)
	}
	return items, nil
}

func (c *Context) currentNode() (Node, error) {
	if c.Item == nil {
		return nil, missingContext()
	}
	n := c.Item.Node()
	if n == nil {
		return nil, typeErrorf("context item is not a node")
	}
	return n, nil
}

type focus struct {
	item Item
	pos  int
	size int
	axis string
}

func (c *Context) saveFocus() focus {
	return focus{
		item: c.Item,
		pos:  c.Pos,
		size: c.Size,
		axis: c.Axis,
	}
}

func (c *Context) restoreFocus(f focus) {
	c.Item, c.Pos, c.Size, c.Axis = f.item, f.pos, f.size, f.axis
}

// iterAxis walks one axis from the given node. The focus follows the
// iteration: each yielded node becomes the context item with its
// position counted along the axis. The previous focus comes back when
// the caller stops, whether the axis was exhausted or abandoned.
func (c *Context) iterAxis(name string, from Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		saved := c.saveFocus()
		defer c.restoreFocus(saved)
		c.Axis = name
		c.Pos, c.Size = 0, 0
		for n := range axisNodes(name, from) {
			c.Item = createNode(n)
			c.Pos++
			if !yield(n) {
				return
			}
		}
	}
}
