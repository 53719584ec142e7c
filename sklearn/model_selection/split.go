package model_selection

import (
	"math/rand/v2"
	"slices"

	"github.com/YuminosukeSato/kernelmachine/core/features"
)

// KFoldSplitter defines interface for cross-validation splitters
type KFoldSplitter interface {
	Split(X features.Set, y features.Labels) []CVFold
	GetNSplits() int
}

// CVFold represents a single fold in cross-validation
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5 // Default to 5-fold
	}
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold. Folds beyond the
// number of vectors come out with empty test sets.
func (kf *KFold) Split(X features.Set, _ features.Labels) []CVFold {
	nSamples := X.NumVectors()

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]CVFold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	currentIdx := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		testIndices := make([]int, testSize)
		copy(testIndices, indices[currentIdx:currentIdx+testSize])
		folds[i] = newFold(nSamples, testIndices)
		currentIdx += testSize
	}
	return folds
}

// StratifiedKFold implements stratified k-fold cross-validation
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewStratifiedKFold creates a new stratified k-fold splitter
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold. Each class
// is dealt across the folds separately, so every fold keeps roughly the
// class proportions of y.
func (skf *StratifiedKFold) Split(X features.Set, y features.Labels) []CVFold {
	nSamples := X.NumVectors()

	// Group indices by class, classes in ascending order
	classIndices := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i)
		classIndices[label] = append(classIndices[label], i)
	}
	classes := y.Unique()

	var r *rand.Rand
	if skf.Shuffle {
		r = rand.New(rand.NewPCG(uint64(skf.RandomSeed), uint64(skf.RandomSeed)))
	}

	tests := make([][]int, skf.NSplits)
	for _, label := range classes {
		indices := classIndices[label]
		if r != nil {
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		currentIdx := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			tests[i] = append(tests[i], indices[currentIdx:currentIdx+testSize]...)
			currentIdx += testSize
		}
	}

	folds := make([]CVFold, skf.NSplits)
	for i := range folds {
		slices.Sort(tests[i])
		folds[i] = newFold(nSamples, tests[i])
	}
	return folds
}

// newFold builds the training side as every index not in test, ascending.
func newFold(nSamples int, test []int) CVFold {
	testSet := make(map[int]bool, len(test))
	for _, idx := range test {
		testSet[idx] = true
	}
	train := make([]int, 0, nSamples-len(test))
	for j := 0; j < nSamples; j++ {
		if !testSet[j] {
			train = append(train, j)
		}
	}
	return CVFold{TrainIndices: train, TestIndices: test}
}
