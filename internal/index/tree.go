// Package index implements the ordered word index: an unbalanced binary
// search tree of occurrence Records keyed by word.
//
// The tree holds at most one node per word. It is not safe for concurrent
// use; callers must serialise mutation.
package index

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNilRecord     = errors.New("nil record")
	ErrDuplicateWord = errors.New("word already indexed")
)

// Tree is an unbalanced binary search tree ordered by Record word.
type Tree struct {
	root  *Node
	count int
}

// New creates an empty Tree.
func New() *Tree {
	return &Tree{}
}

// Root returns the root node, or nil when the tree is empty.
func (t *Tree) Root() *Node {
	return t.root
}

// Insert adds rec to the tree. Words smaller than a node's descend left,
// larger ones right. A word that is already present is rejected with
// ErrDuplicateWord and the tree is left untouched; callers that want to
// merge occurrences should Find the existing record first.
func (t *Tree) Insert(rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	if t.root == nil {
		t.root = newNode(rec, nil)
		t.count++
		return nil
	}
	cur := t.root
	for {
		cmp := rec.Compare(cur.record)
		switch {
		case cmp < 0:
			if cur.left == nil {
				cur.left = newNode(rec, cur)
				t.count++
				return nil
			}
			cur = cur.left
		case cmp > 0:
			if cur.right == nil {
				cur.right = newNode(rec, cur)
				t.count++
				return nil
			}
			cur = cur.right
		default:
			return fmt.Errorf("inserting %q: %w", rec.word, ErrDuplicateWord)
		}
	}
}

// Search returns the node holding word, or nil.
func (t *Tree) Search(word string) *Node {
	cur := t.root
	for cur != nil {
		cmp := strings.Compare(word, cur.record.word)
		switch {
		case cmp < 0:
			cur = cur.left
		case cmp > 0:
			cur = cur.right
		default:
			return cur
		}
	}
	return nil
}

// Find returns the record for word, or nil.
func (t *Tree) Find(word string) *Record {
	if n := t.Search(word); n != nil {
		return n.record
	}
	return nil
}

// Contains reports whether word is indexed.
func (t *Tree) Contains(word string) bool {
	return t.Search(word) != nil
}

// Min returns the record with the smallest word.
func (t *Tree) Min() (*Record, bool) {
	n := t.minNode()
	if n == nil {
		return nil, false
	}
	return n.record, true
}

// Max returns the record with the largest word.
func (t *Tree) Max() (*Record, bool) {
	n := t.maxNode()
	if n == nil {
		return nil, false
	}
	return n.record, true
}

// RemoveMin detaches the smallest word and returns a copy of its record.
// It returns false on an empty tree.
func (t *Tree) RemoveMin() (Record, bool) {
	n := t.minNode()
	if n == nil {
		return Record{}, false
	}
	// The leftmost node has no left child; its right subtree takes its place.
	t.splice(n, n.right)
	return t.detach(n), true
}

// RemoveMax detaches the largest word and returns a copy of its record.
// It returns false on an empty tree.
func (t *Tree) RemoveMax() (Record, bool) {
	n := t.maxNode()
	if n == nil {
		return Record{}, false
	}
	t.splice(n, n.left)
	return t.detach(n), true
}

// Height returns the number of nodes on the longest root-to-leaf path:
// 0 for an empty tree, 1 for a lone root.
func (t *Tree) Height() int {
	if t.root == nil {
		return 0
	}
	height := 0
	level := []*Node{t.root}
	for len(level) > 0 {
		height++
		next := make([]*Node, 0, len(level)*2)
		for _, n := range level {
			if n.left != nil {
				next = append(next, n.left)
			}
			if n.right != nil {
				next = append(next, n.right)
			}
		}
		level = next
	}
	return height
}

// Size returns the number of records in the tree.
func (t *Tree) Size() int {
	return t.count
}

// IsEmpty reports whether the tree holds no records.
func (t *Tree) IsEmpty() bool {
	return t.count == 0
}

// Clear releases every node and resets the tree to empty.
func (t *Tree) Clear() {
	if t.root == nil {
		t.count = 0
		return
	}
	stack := []*Node{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.left != nil {
			stack = append(stack, n.left)
		}
		if n.right != nil {
			stack = append(stack, n.right)
		}
		n.left, n.right, n.parent, n.record = nil, nil, nil, nil
	}
	t.root = nil
	t.count = 0
}

func (t *Tree) minNode() *Node {
	n := t.root
	if n == nil {
		return nil
	}
	for n.left != nil {
		n = n.left
	}
	return n
}

func (t *Tree) maxNode() *Node {
	n := t.root
	if n == nil {
		return nil
	}
	for n.right != nil {
		n = n.right
	}
	return n
}

// splice replaces n with child in n's parent (or at the root) and fixes
// child's back-reference.
func (t *Tree) splice(n, child *Node) {
	switch {
	case n.parent == nil:
		t.root = child
	case n.parent.left == n:
		n.parent.left = child
	default:
		n.parent.right = child
	}
	if child != nil {
		child.parent = n.parent
	}
}

func (t *Tree) detach(n *Node) Record {
	rec := n.record.Clone()
	n.left, n.right, n.parent, n.record = nil, nil, nil, nil
	t.count--
	return rec
}
