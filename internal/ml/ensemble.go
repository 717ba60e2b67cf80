package ml

import (
	"fmt"
	"math/rand"
)

// Kind selects the regressor variant trained for an exercise type.
type Kind string

const (
	// KindRandomForest is the bagging-style ensemble.
	KindRandomForest Kind = "random_forest"
	// KindGradientBoosting is the boosting-style ensemble.
	KindGradientBoosting Kind = "gradient_boosting"
)

// Ensemble hyperparameters. Fixed rather than searched; hyperparameter
// tuning is out of scope.
const (
	forestTrees           = 100
	forestMaxDepth        = 20
	forestMinSamplesSplit = 5
	forestMinSamplesLeaf  = 2

	boostingTrees        = 100
	boostingMaxDepth     = 10
	boostingLearningRate = 0.1

	ensembleSeed = 42
)

// regressor is the common prediction surface of both ensembles.
type regressor interface {
	predict(vec []float64) float64
}

// forest is a bagging ensemble of regression trees, each grown on a
// bootstrap resample with per-split feature subsampling.
type forest struct {
	Trees []*treeNode `json:"trees"`
}

func fitForest(X [][]float64, y []float64) *forest {
	rng := rand.New(rand.NewSource(ensembleSeed))
	params := treeParams{
		maxDepth:        forestMaxDepth,
		minSamplesSplit: forestMinSamplesSplit,
		minSamplesLeaf:  forestMinSamplesLeaf,
		maxFeatures:     max(1, len(X[0])/3),
	}

	f := &forest{Trees: make([]*treeNode, forestTrees)}
	for t := 0; t < forestTrees; t++ {
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.Intn(len(X))
		}
		f.Trees[t] = buildTree(X, y, sample, 0, params, rng)
	}
	return f
}

func (f *forest) predict(vec []float64) float64 {
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.predict(vec)
	}
	return sum / float64(len(f.Trees))
}

// boosting is a gradient-boosting ensemble: trees are fitted
// sequentially to the residuals of the running prediction.
type boosting struct {
	Init         float64     `json:"init"`
	LearningRate float64     `json:"learning_rate"`
	Trees        []*treeNode `json:"trees"`
}

func fitBoosting(X [][]float64, y []float64) *boosting {
	rng := rand.New(rand.NewSource(ensembleSeed))
	params := treeParams{
		maxDepth:        boostingMaxDepth,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}

	b := &boosting{
		Init:         meanAll(y),
		LearningRate: boostingLearningRate,
		Trees:        make([]*treeNode, 0, boostingTrees),
	}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = b.Init
	}
	residual := make([]float64, len(y))
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}

	for t := 0; t < boostingTrees; t++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		tree := buildTree(X, residual, idx, 0, params, rng)
		b.Trees = append(b.Trees, tree)
		for i := range pred {
			pred[i] += b.LearningRate * tree.predict(X[i])
		}
	}
	return b
}

func (b *boosting) predict(vec []float64) float64 {
	out := b.Init
	for _, t := range b.Trees {
		out += b.LearningRate * t.predict(vec)
	}
	return out
}

// fitRegressor trains the requested ensemble kind.
func fitRegressor(kind Kind, X [][]float64, y []float64) (regressor, error) {
	switch kind {
	case KindRandomForest:
		return fitForest(X, y), nil
	case KindGradientBoosting:
		return fitBoosting(X, y), nil
	default:
		return nil, fmt.Errorf("unknown model kind: %q", kind)
	}
}

func meanAll(y []float64) float64 {
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	return sum / float64(len(y))
}
