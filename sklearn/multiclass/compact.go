package multiclass

import (
	"slices"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"github.com/YuminosukeSato/kernelmachine/pkg/errors"
	"github.com/YuminosukeSato/kernelmachine/sklearn/svm"
	"github.com/samber/lo"
)

// Compaction is the result of merging several models' support vectors into
// one deduplicated set.
type Compaction struct {
	// Set holds each distinct support vector once. Nil when no model has
	// support vectors.
	Set features.Set
	// Indices maps a slot of Set to its index in the original vectors.
	Indices []int
	// Lookup is the inverse of Indices.
	Lookup map[int]int
	// Models are the inputs with indices rewritten into Set.
	Models []*svm.Model
}

// NaiveSize returns the total number of support vectors before
// deduplication.
func (c *Compaction) NaiveSize() int {
	return lo.SumBy(c.Models, func(m *svm.Model) int { return m.NumSupportVectors() })
}

// Compact collects the support vectors referenced by models, whose indices
// point into original, copies each distinct one once in ascending index
// order, and remaps every model onto the copy. An index outside original is
// an InternalConsistencyError.
func Compact(original features.Set, models []*svm.Model) (*Compaction, error) {
	const op = "multiclass.Compact"
	if original == nil {
		return nil, errors.NewConfigError(op, "original features are nil")
	}
	union := lo.Uniq(lo.FlatMap(models, func(m *svm.Model, _ int) []int {
		return m.GetSupportVectors()
	}))
	slices.Sort(union)

	n := original.NumVectors()
	if len(union) > 0 && (union[0] < 0 || union[len(union)-1] >= n) {
		bad := union[0]
		if bad >= 0 {
			bad = union[len(union)-1]
		}
		return nil, errors.NewInternalConsistencyError(op,
			"support vector index %d outside the %d training vectors", bad, n)
	}

	lookup := make(map[int]int, len(union))
	for slot, idx := range union {
		lookup[idx] = slot
	}
	remapped := make([]*svm.Model, len(models))
	for i, m := range models {
		r, err := m.Remap(lookup)
		if err != nil {
			return nil, err
		}
		remapped[i] = r
	}

	c := &Compaction{Indices: union, Lookup: lookup, Models: remapped}
	if len(union) > 0 {
		set, err := features.CopySubset(original, union)
		if err != nil {
			return nil, err
		}
		c.Set = set
	}
	return c, nil
}
