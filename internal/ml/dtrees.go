// SPDX-License-Identifier: Apache-2.0

package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrCrossValidationPruning is returned when a tree is trained with
// cross-validation pruning switched on. Pruning is not implemented and the
// defaults leave it on, so callers must set CVFolds to 0 or 1.
var ErrCrossValidationPruning = errors.New("cross-validation pruning is not supported; set CVFolds to 0")

// DTreesParams configures a decision tree.
type DTreesParams struct {
	MaxDepth       int
	MinSampleCount int
	CVFolds        int
}

// DefaultDTreesParams returns the engine's stock settings.
func DefaultDTreesParams() DTreesParams {
	return DTreesParams{
		MaxDepth:       10,
		MinSampleCount: 2,
		CVFolds:        10,
	}
}

type treeNode struct {
	leaf      bool
	label     int
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// DTrees is a CART classifier splitting on Gini impurity.
type DTrees struct {
	params DTreesParams
	width  int
	root   *treeNode
}

// NewDTrees creates an untrained tree.
func NewDTrees(params DTreesParams) (*DTrees, error) {
	if params.MaxDepth < 1 {
		return nil, fmt.Errorf("max depth must be positive, got %d", params.MaxDepth)
	}
	if params.MinSampleCount < 1 {
		return nil, fmt.Errorf("min sample count must be positive, got %d", params.MinSampleCount)
	}
	if params.CVFolds < 0 {
		return nil, fmt.Errorf("cv folds cannot be negative, got %d", params.CVFolds)
	}
	return &DTrees{params: params}, nil
}

// Params returns the settings the tree was built with.
func (d *DTrees) Params() DTreesParams {
	return d.params
}

// Train fits the tree, replacing any previous fit.
func (d *DTrees) Train(samples [][]float64, labels []int) error {
	if d.params.CVFolds > 1 {
		return ErrCrossValidationPruning
	}
	width, err := checkTrainingSet(samples, labels)
	if err != nil {
		return err
	}
	idx := make([]int, len(samples))
	for i := range idx {
		idx[i] = i
	}
	d.width = width
	d.root = d.grow(samples, labels, idx, 0)
	return nil
}

// Predict returns the label for one sample.
func (d *DTrees) Predict(sample []float64) (int, error) {
	if d.root == nil {
		return 0, ErrNotTrained
	}
	if len(sample) != d.width {
		return 0, fmt.Errorf("sample has %d features, expected %d", len(sample), d.width)
	}
	n := d.root
	for !n.leaf {
		if sample[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.label, nil
}

// Depth reports the depth of the fitted tree; a lone leaf has depth 0.
func (d *DTrees) Depth() int {
	return depth(d.root)
}

func depth(n *treeNode) int {
	if n == nil || n.leaf {
		return 0
	}
	return 1 + max(depth(n.left), depth(n.right))
}

func (d *DTrees) grow(samples [][]float64, labels []int, idx []int, level int) *treeNode {
	counts := make(map[int]int)
	for _, i := range idx {
		counts[labels[i]]++
	}
	leaf := &treeNode{leaf: true, label: majority(counts)}
	if len(counts) == 1 || level >= d.params.MaxDepth || len(idx) < d.params.MinSampleCount {
		return leaf
	}

	feature, threshold, ok := bestSplit(samples, labels, idx, d.width)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if samples[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      d.grow(samples, labels, left, level+1),
		right:     d.grow(samples, labels, right, level+1),
	}
}

// bestSplit scans every feature for the threshold that minimizes weighted
// Gini impurity. Thresholds sit midway between adjacent distinct values. A
// split is taken even without an impurity gain; growth stops on purity,
// depth or sample count instead.
func bestSplit(samples [][]float64, labels []int, idx []int, width int) (int, float64, bool) {
	bestFeature, bestThreshold := -1, 0.0
	bestScore := math.Inf(1)

	sorted := make([]int, len(idx))
	for f := 0; f < width; f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool {
			return samples[sorted[a]][f] < samples[sorted[b]][f]
		})

		leftCounts := make(map[int]int)
		rightCounts := make(map[int]int)
		for _, i := range sorted {
			rightCounts[labels[i]]++
		}

		for k := 0; k < len(sorted)-1; k++ {
			label := labels[sorted[k]]
			leftCounts[label]++
			rightCounts[label]--

			cur, next := samples[sorted[k]][f], samples[sorted[k+1]][f]
			if cur == next {
				continue
			}
			nl, nr := k+1, len(sorted)-k-1
			score := (float64(nl)*impurity(leftCounts, nl) + float64(nr)*impurity(rightCounts, nr)) / float64(len(sorted))
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func impurity(counts map[int]int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum -= p * p
	}
	return sum
}
