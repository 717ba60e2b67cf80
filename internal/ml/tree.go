package ml

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a regression tree. Leaves have no children
// and predict Value; internal nodes route on Feature <= Threshold.
type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Value     float64   `json:"value"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

func (n *treeNode) isLeaf() bool {
	return n.Left == nil && n.Right == nil
}

func (n *treeNode) predict(vec []float64) float64 {
	for !n.isLeaf() {
		if vec[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// treeParams controls tree growth.
type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	// maxFeatures limits the candidate features per split; <= 0 means
	// all features are considered.
	maxFeatures int
}

// buildTree grows a CART regression tree over the sample indices in
// idx, splitting greedily on the largest sum-of-squares reduction. The
// rng drives feature subsampling only, so growth is deterministic for
// a fixed seed.
func buildTree(X [][]float64, y []float64, idx []int, depth int, p treeParams, rng *rand.Rand) *treeNode {
	node := &treeNode{Value: meanAt(y, idx)}
	if depth >= p.maxDepth || len(idx) < p.minSamplesSplit || constantAt(y, idx) {
		return node
	}

	feature, threshold, ok := bestSplit(X, y, idx, p, rng)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < p.minSamplesLeaf || len(right) < p.minSamplesLeaf {
		return node
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = buildTree(X, y, left, depth+1, p, rng)
	node.Right = buildTree(X, y, right, depth+1, p, rng)
	return node
}

// bestSplit scans candidate features for the split with the largest
// reduction in total sum of squares, using prefix sums over the sorted
// feature column.
func bestSplit(X [][]float64, y []float64, idx []int, p treeParams, rng *rand.Rand) (feature int, threshold float64, ok bool) {
	nFeatures := len(X[idx[0]])
	candidates := featureCandidates(nFeatures, p.maxFeatures, rng)

	total := 0.0
	totalSq := 0.0
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}
	n := float64(len(idx))
	baseSSE := totalSq - total*total/n

	best := baseSSE - 1e-12
	sorted := make([]int, len(idx))

	for _, f := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, b int) bool {
			return X[sorted[a]][f] < X[sorted[b]][f]
		})

		leftSum, leftSq := 0.0, 0.0
		for pos := 0; pos < len(sorted)-1; pos++ {
			i := sorted[pos]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			// No valid threshold between equal feature values.
			if X[i][f] == X[sorted[pos+1]][f] {
				continue
			}
			nl := float64(pos + 1)
			nr := n - nl
			if int(nl) < p.minSamplesLeaf || int(nr) < p.minSamplesLeaf {
				continue
			}
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < best {
				best = sse
				feature = f
				threshold = (X[i][f] + X[sorted[pos+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// featureCandidates returns the feature indices examined at a split:
// all of them, or a random subset of size maxFeatures.
func featureCandidates(nFeatures, maxFeatures int, rng *rand.Rand) []int {
	if maxFeatures <= 0 || maxFeatures >= nFeatures {
		all := make([]int, nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return rng.Perm(nFeatures)[:maxFeatures]
}

func meanAt(y []float64, idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func constantAt(y []float64, idx []int) bool {
	for _, i := range idx[1:] {
		if y[i] != y[idx[0]] {
			return false
		}
	}
	return true
}
