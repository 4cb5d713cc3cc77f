package index

// Node is a single tree node. left and right are owned by the node; parent
// is a back-reference used only to relink the tree on removal.
type Node struct {
	record *Record
	left   *Node
	right  *Node
	parent *Node
}

func newNode(rec *Record, parent *Node) *Node {
	return &Node{record: rec, parent: parent}
}

// Record returns the record stored in the node.
func (n *Node) Record() *Record {
	return n.record
}

// Left returns the left child, or nil.
func (n *Node) Left() *Node {
	return n.left
}

// Right returns the right child, or nil.
func (n *Node) Right() *Node {
	return n.right
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.left == nil && n.right == nil
}
