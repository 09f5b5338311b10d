package bayesian

import (
	"sync"

	"gonum.org/v1/gonum/mat"
)

// MatrixPool reuses symmetric matrix allocations between GP refits. The
// engine refits the surrogate once per iteration, so without pooling each
// iteration allocates and discards an n×n matrix.
type MatrixPool struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
}

// NewMatrixPool creates a new matrix pool.
func NewMatrixPool() *MatrixPool {
	return &MatrixPool{pools: make(map[int]*sync.Pool)}
}

// GetSymDense returns a zeroed n×n symmetric matrix from the pool.
func (p *MatrixPool) GetSymDense(n int) *mat.SymDense {
	p.mu.Lock()
	pool, ok := p.pools[n]
	if !ok {
		size := n
		pool = &sync.Pool{
			New: func() interface{} {
				return mat.NewSymDense(size, nil)
			},
		}
		p.pools[n] = pool
	}
	p.mu.Unlock()

	m := pool.Get().(*mat.SymDense)
	m.Zero()
	return m
}

// PutSymDense returns a matrix to the pool.
func (p *MatrixPool) PutSymDense(m *mat.SymDense) {
	if m == nil {
		return
	}
	n := m.SymmetricDim()
	p.mu.Lock()
	pool, ok := p.pools[n]
	p.mu.Unlock()
	if ok {
		pool.Put(m)
	}
}
