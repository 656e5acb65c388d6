package tree

import (
	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// Node is either a leaf (Leaf != nil) or an internal node with both
// children set. Left is the false branch, Right the true branch.
type Node struct {
	Question Question
	Gain     float64
	Samples  int
	Left     *Node
	Right    *Node
	Leaf     Leaf
}

// IsLeaf reports whether n is terminal.
func (n *Node) IsLeaf() bool {
	return n.Leaf != nil
}

// FindLeaf walks from n to the leaf that row falls into.
func (n *Node) FindLeaf(row []float64) (Leaf, error) {
	if n == nil {
		return nil, errors.NewInvariantViolation("traversal of a nil tree")
	}
	cur := n
	for !cur.IsLeaf() {
		if cur.Question.Feature >= len(row) {
			return nil, errors.NewDimensionError("tree.FindLeaf", cur.Question.Feature+1, len(row), 1)
		}
		if cur.Left == nil || cur.Right == nil {
			return nil, errors.NewInvariantViolation("internal node on feature %d is missing a child", cur.Question.Feature)
		}
		if cur.Question.Matches(row) {
			cur = cur.Right
		} else {
			cur = cur.Left
		}
	}
	return cur.Leaf, nil
}

// Depth is the number of edges on the longest root-to-leaf path.
func (n *Node) Depth() int {
	if n == nil || n.IsLeaf() {
		return 0
	}
	return 1 + max(n.Left.Depth(), n.Right.Depth())
}

// NumLeaves counts the leaves below n.
func (n *Node) NumLeaves() int {
	count := 0
	n.Walk(func(node *Node, _ int) bool {
		if node.IsLeaf() {
			count++
		}
		return true
	})
	return count
}

// NumNodes counts every node below and including n.
func (n *Node) NumNodes() int {
	count := 0
	n.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Walk visits nodes in pre-order (node, false branch, true branch). Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	var walk func(*Node, int)
	walk = func(node *Node, depth int) {
		if node == nil || !fn(node, depth) || node.IsLeaf() {
			return
		}
		walk(node.Left, depth+1)
		walk(node.Right, depth+1)
	}
	walk(n, 0)
}

// FeatureImportances returns the sample-weighted gain contributed by each
// feature, normalised to sum to 1. A tree without splits yields all zeros.
func (n *Node) FeatureImportances(nFeatures int) []float64 {
	imp := make([]float64, nFeatures)
	total := 0.0
	n.Walk(func(node *Node, _ int) bool {
		if !node.IsLeaf() && node.Question.Feature < nFeatures {
			w := node.Gain * float64(node.Samples)
			imp[node.Question.Feature] += w
			total += w
		}
		return true
	})
	if total > 0 {
		for i := range imp {
			imp[i] /= total
		}
	}
	return imp
}
