// Package tree builds binary decision trees over a dataset.View.
//
// Internal nodes hold a Question; rows whose feature value is <= the
// threshold take the true (Right) branch, all others the false (Left)
// branch. Leaves are one of three variants (see Leaf): a regression leaf
// that keeps its training subset for lazy statistics, a gradient boosting
// leaf holding an output vector, and an adaptive multi-class leaf holding a
// class and its score.
package tree

import "fmt"

// Question is the split test of an internal node.
type Question struct {
	Feature   int
	Threshold float64
}

// Matches reports whether row takes the true branch.
func (q Question) Matches(row []float64) bool {
	return row[q.Feature] <= q.Threshold
}

func (q Question) String() string {
	return fmt.Sprintf("x[%d] <= %.6g", q.Feature, q.Threshold)
}
