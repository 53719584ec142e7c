package svm

import (
	"github.com/YuminosukeSato/kernelmachine/kernel"
)

// QMatrix serves columns of the solver's Hessian Q.
type QMatrix interface {
	// Column returns Q[i][0:length]. The slice is owned by the matrix and is
	// only valid until the next call that modifies the matrix.
	Column(i, length int) []float64
	// Diagonal returns Q_ii for every position.
	Diagonal() []float64
	// SwapIndex exchanges positions i and j; used by shrinking.
	SwapIndex(i, j int)
}

// kernelQ builds Q_ij = sign_i·sign_j·k(perm_i, perm_j) from a symmetric
// kernel session. C-SVC uses the labels as signs, one-class uses +1, and
// epsilon-SVR doubles the index range with signs +1 and -1 over the same
// samples.
type kernelQ struct {
	sess  *kernel.Session
	perm  []int
	sign  []float64
	qd    []float64
	cache *columnCache
}

func newKernelQ(sess *kernel.Session, perm []int, sign []float64, cacheMB float64) *kernelQ {
	q := &kernelQ{
		sess:  sess,
		perm:  perm,
		sign:  sign,
		qd:    make([]float64, len(perm)),
		cache: newColumnCache(len(perm), cacheMB),
	}
	for i, p := range perm {
		q.qd[i] = sess.Get(p, p)
	}
	return q
}

// newSVCQ builds the C-SVC matrix for labels y in ±1.
func newSVCQ(sess *kernel.Session, y []float64, cacheMB float64) *kernelQ {
	perm := make([]int, len(y))
	sign := make([]float64, len(y))
	for i := range y {
		perm[i] = i
		sign[i] = y[i]
	}
	return newKernelQ(sess, perm, sign, cacheMB)
}

// newOneClassQ builds Q = K over l samples.
func newOneClassQ(sess *kernel.Session, l int, cacheMB float64) *kernelQ {
	perm := make([]int, l)
	sign := make([]float64, l)
	for i := range perm {
		perm[i] = i
		sign[i] = 1
	}
	return newKernelQ(sess, perm, sign, cacheMB)
}

// newSVRQ builds the 2l×2l epsilon-SVR matrix [K -K; -K K].
func newSVRQ(sess *kernel.Session, l int, cacheMB float64) *kernelQ {
	perm := make([]int, 2*l)
	sign := make([]float64, 2*l)
	for k := 0; k < l; k++ {
		perm[k], perm[k+l] = k, k
		sign[k], sign[k+l] = 1, -1
	}
	return newKernelQ(sess, perm, sign, cacheMB)
}

func (q *kernelQ) Column(i, length int) []float64 {
	data, start := q.cache.get(i, length)
	si, pi := q.sign[i], q.perm[i]
	for j := start; j < length; j++ {
		data[j] = si * q.sign[j] * q.sess.Get(pi, q.perm[j])
	}
	return data[:length]
}

func (q *kernelQ) Diagonal() []float64 { return q.qd }

func (q *kernelQ) SwapIndex(i, j int) {
	q.cache.swap(i, j)
	q.perm[i], q.perm[j] = q.perm[j], q.perm[i]
	q.sign[i], q.sign[j] = q.sign[j], q.sign[i]
	q.qd[i], q.qd[j] = q.qd[j], q.qd[i]
}
