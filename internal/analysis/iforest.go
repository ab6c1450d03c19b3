package analysis

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Isolation forest after Liu, Ting and Zhou: anomalous points isolate in
// fewer random splits than regular ones. Scoring follows the usual
// convention of sklearn's IsolationForest so the calibrated offset makes
// decisionFunction negative for roughly the contamination fraction of the
// training data. The generator is seeded with a constant, the same training
// matrix always yields the same forest.
const (
	forestTrees     = 100
	forestSubsample = 256
	forestSeed      = 42
)

const eulerGamma = 0.5772156649015329

type iTreeNode struct {
	splitAttr  int
	splitValue float64
	left       *iTreeNode
	right      *iTreeNode
	size       int
}

type isolationForest struct {
	trees  []*iTreeNode
	psi    int
	offset float64
}

func fitIsolationForest(train [][]float64, contamination float64) *isolationForest {
	rnd := rand.New(rand.NewSource(forestSeed))

	n := len(train)
	psi := n
	if psi > forestSubsample {
		psi = forestSubsample
	}
	heightLimit := int(math.Ceil(math.Log2(float64(psi))))

	f := &isolationForest{
		trees: make([]*iTreeNode, forestTrees),
		psi:   psi,
	}

	for t := range f.trees {
		subsample := rnd.Perm(n)[:psi]
		f.trees[t] = buildTree(train, subsample, 0, heightLimit, rnd)
	}

	trainScores := f.scoreSamples(train)
	sort.Float64s(trainScores)
	f.offset = stat.Quantile(contamination, stat.LinInterp, trainScores, nil)

	return f
}

func buildTree(x [][]float64, idx []int, depth, heightLimit int, rnd *rand.Rand) *iTreeNode {
	if depth >= heightLimit || len(idx) <= 1 {
		return &iTreeNode{size: len(idx)}
	}

	attr := rnd.Intn(len(x[idx[0]]))

	minV, maxV := x[idx[0]][attr], x[idx[0]][attr]
	for _, i := range idx[1:] {
		v := x[i][attr]
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if minV == maxV {
		return &iTreeNode{size: len(idx)}
	}

	split := minV + rnd.Float64()*(maxV-minV)

	var left, right []int
	for _, i := range idx {
		if x[i][attr] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &iTreeNode{
		splitAttr:  attr,
		splitValue: split,
		left:       buildTree(x, left, depth+1, heightLimit, rnd),
		right:      buildTree(x, right, depth+1, heightLimit, rnd),
	}
}

func (node *iTreeNode) pathLength(v []float64, depth float64) float64 {
	if node.left == nil {
		return depth + averagePathLength(node.size)
	}

	if v[node.splitAttr] < node.splitValue {
		return node.left.pathLength(v, depth+1)
	}
	return node.right.pathLength(v, depth+1)
}

// averagePathLength is c(n), the expected path length of an unsuccessful
// search in a binary search tree of n nodes
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}

	f := float64(n)
	return 2*(math.Log(f-1)+eulerGamma) - 2*(f-1)/f
}

// scoreSamples returns -s(x) per point, in (-1, 0). More negative means
// more anomalous.
func (f *isolationForest) scoreSamples(x [][]float64) []float64 {
	scores := make([]float64, len(x))
	norm := averagePathLength(f.psi)

	for i, v := range x {
		var sum float64
		for _, tree := range f.trees {
			sum += tree.pathLength(v, 0)
		}
		mean := sum / float64(len(f.trees))
		scores[i] = -math.Exp2(-mean / norm)
	}

	return scores
}

// decisionFunction shifts raw scores by the calibrated offset, a point is an
// outlier when the result is negative
func (f *isolationForest) decisionFunction(x [][]float64) []float64 {
	scores := f.scoreSamples(x)
	for i := range scores {
		scores[i] -= f.offset
	}

	return scores
}
