package index

import (
	"fmt"
	"iter"
)

// Order selects a depth-first traversal order.
type Order int

const (
	Inorder Order = iota
	Preorder
	Postorder
)

func (o Order) String() string {
	switch o {
	case Inorder:
		return "inorder"
	case Preorder:
		return "preorder"
	case Postorder:
		return "postorder"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// Iterator is a one-shot sequence of records. The sequence is captured when
// the iterator is built; later changes to the tree are not reflected.
type Iterator struct {
	records []*Record
	pos     int
}

// Iterator captures the tree in the given order.
func (t *Tree) Iterator(order Order) *Iterator {
	records := make([]*Record, 0, t.count)
	t.Walk(order, func(rec *Record) bool {
		records = append(records, rec)
		return true
	})
	return &Iterator{records: records}
}

// InorderIterator yields records in ascending word order.
func (t *Tree) InorderIterator() *Iterator {
	return t.Iterator(Inorder)
}

// PreorderIterator yields each node before its children, left before right.
func (t *Tree) PreorderIterator() *Iterator {
	return t.Iterator(Preorder)
}

// PostorderIterator yields children before their parent, left before right.
func (t *Tree) PostorderIterator() *Iterator {
	return t.Iterator(Postorder)
}

// HasNext reports whether Next will return a record.
func (it *Iterator) HasNext() bool {
	return it.pos < len(it.records)
}

// Next returns the next record, or false once the sequence is exhausted.
func (it *Iterator) Next() (*Record, bool) {
	if it.pos >= len(it.records) {
		return nil, false
	}
	rec := it.records[it.pos]
	it.pos++
	return rec, true
}

// Len returns the number of records not yet consumed.
func (it *Iterator) Len() int {
	return len(it.records) - it.pos
}

// All drains the iterator as a range-over-func sequence.
func (it *Iterator) All() iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for {
			rec, ok := it.Next()
			if !ok || !yield(rec) {
				return
			}
		}
	}
}

// Walk visits every record in the given order until fn returns false. The
// walk uses an explicit stack, so degenerate (list-shaped) trees do not grow
// the call stack.
func (t *Tree) Walk(order Order, fn func(*Record) bool) {
	visit := func(n *Node) bool { return fn(n.record) }
	switch order {
	case Inorder:
		walkInorder(t.root, visit)
	case Preorder:
		walkPreorder(t.root, visit)
	case Postorder:
		walkPostorder(t.root, visit)
	default:
		panic(fmt.Sprintf("index: unknown traversal %s", order))
	}
}

func walkInorder(root *Node, visit func(*Node) bool) {
	var stack []*Node
	cur := root
	for cur != nil || len(stack) > 0 {
		for cur != nil {
			stack = append(stack, cur)
			cur = cur.left
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(n) {
			return
		}
		cur = n.right
	}
}

func walkPreorder(root *Node, visit func(*Node) bool) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(n) {
			return
		}
		if n.right != nil {
			stack = append(stack, n.right)
		}
		if n.left != nil {
			stack = append(stack, n.left)
		}
	}
}

func walkPostorder(root *Node, visit func(*Node) bool) {
	var stack []*Node
	var last *Node
	cur := root
	for cur != nil || len(stack) > 0 {
		if cur != nil {
			stack = append(stack, cur)
			cur = cur.left
			continue
		}
		top := stack[len(stack)-1]
		if top.right != nil && top.right != last {
			cur = top.right
			continue
		}
		if !visit(top) {
			return
		}
		last = top
		stack = stack[:len(stack)-1]
	}
}
