package xgb

import (
	"fmt"
	"math"
)

type tree struct {
	left        []int32
	right       []int32
	split       []int32
	cond        []float32
	defaultLeft []bool
}

func newTree(tj treeJSON, numFeature int) (tree, error) {
	n := len(tj.LeftChildren)
	if n == 0 {
		return tree{}, fmt.Errorf("no nodes")
	}
	if len(tj.RightChildren) != n || len(tj.SplitIndices) != n || len(tj.SplitConditions) != n || len(tj.DefaultLeft) != n {
		return tree{}, fmt.Errorf("node arrays differ in length")
	}
	for _, st := range tj.SplitType {
		if st != 0 {
			return tree{}, fmt.Errorf("categorical splits are not supported")
		}
	}
	for i := 0; i < n; i++ {
		l, r := tj.LeftChildren[i], tj.RightChildren[i]
		if l == -1 {
			continue
		}
		// children always come after their parent, which also rules out cycles
		if int(l) <= i || int(l) >= n || int(r) <= i || int(r) >= n {
			return tree{}, fmt.Errorf("node %d has invalid children %d/%d", i, l, r)
		}
		if int(tj.SplitIndices[i]) < 0 || int(tj.SplitIndices[i]) >= numFeature {
			return tree{}, fmt.Errorf("node %d splits on feature %d of %d", i, tj.SplitIndices[i], numFeature)
		}
	}
	return tree{
		left:        tj.LeftChildren,
		right:       tj.RightChildren,
		split:       tj.SplitIndices,
		cond:        tj.SplitConditions,
		defaultLeft: tj.DefaultLeft,
	}, nil
}

// leafValue walks to a leaf. Missing (NaN) values follow the default direction.
func (t *tree) leafValue(x []float32) float32 {
	n := int32(0)
	for t.left[n] != -1 {
		v := x[t.split[n]]
		switch {
		case math.IsNaN(float64(v)):
			if t.defaultLeft[n] {
				n = t.left[n]
			} else {
				n = t.right[n]
			}
		case v < t.cond[n]:
			n = t.left[n]
		default:
			n = t.right[n]
		}
	}
	return t.cond[n]
}
