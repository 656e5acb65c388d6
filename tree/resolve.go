package tree

import (
	"github.com/YuminosukeSato/mtboost/pkg/errors"
)

// Resolve returns a copy of the tree rooted at root in which every
// RegressionLeaf has been replaced by fn(leaf). Questions, gains and sample
// counts are kept; other leaf variants are shared with the original.
func Resolve(root *Node, fn func(*RegressionLeaf) (Leaf, error)) (*Node, error) {
	if root == nil {
		return nil, errors.NewInvariantViolation("resolve of a nil tree")
	}
	if root.IsLeaf() {
		out := &Node{Samples: root.Samples, Leaf: root.Leaf}
		if rl, ok := root.Leaf.(*RegressionLeaf); ok {
			leaf, err := fn(rl)
			if err != nil {
				return nil, err
			}
			out.Leaf = leaf
		}
		return out, nil
	}

	left, err := Resolve(root.Left, fn)
	if err != nil {
		return nil, err
	}
	right, err := Resolve(root.Right, fn)
	if err != nil {
		return nil, err
	}
	return &Node{
		Question: root.Question,
		Gain:     root.Gain,
		Samples:  root.Samples,
		Left:     left,
		Right:    right,
	}, nil
}

// ResolveMean turns retained-subset leaves into gradient boosting leaves
// holding the subset's mean label vector.
func ResolveMean(root *Node) (*Node, error) {
	return Resolve(root, func(l *RegressionLeaf) (Leaf, error) {
		if l.Data == nil {
			return nil, errors.NewInsufficientDataError("tree.ResolveMean", "leaf retained no data")
		}
		return MeanOutput(*l.Data)
	})
}

// ResolveMajority turns retained-subset leaves into adaptive multi-class
// leaves holding the subset's majority class.
func ResolveMajority(root *Node, nClasses int) (*Node, error) {
	return Resolve(root, func(l *RegressionLeaf) (Leaf, error) {
		if l.Data == nil {
			return nil, errors.NewInsufficientDataError("tree.ResolveMajority", "leaf retained no data")
		}
		return MajorityClass(*l.Data, nClasses)
	})
}
