// Package kernel computes null spaces of small rational matrices. It is
// used to find the affine dependencies between the points of a lemma
// cluster.
package kernel

import (
	"fmt"
	"math/big"
	"strings"
)

// Matrix is a dense rational matrix.
type Matrix struct {
	rows, cols int
	data       []*big.Rat
}

// NewMatrix builds a matrix from integer rows. All rows must have the same
// length.
func NewMatrix(rows [][]int64) *Matrix {
	m := &Matrix{rows: len(rows)}
	if len(rows) > 0 {
		m.cols = len(rows[0])
	}
	m.data = make([]*big.Rat, m.rows*m.cols)
	for i, row := range rows {
		if len(row) != m.cols {
			panic(fmt.Sprintf("kernel: row %d has %d columns, expected %d", i, len(row), m.cols))
		}
		for j, v := range row {
			m.data[i*m.cols+j] = new(big.Rat).SetInt64(v)
		}
	}
	return m
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) At(i, j int) *big.Rat {
	return m.data[i*m.cols+j]
}

func (m *Matrix) clone() *Matrix {
	c := &Matrix{rows: m.rows, cols: m.cols, data: make([]*big.Rat, len(m.data))}
	for i, v := range m.data {
		c.data[i] = new(big.Rat).Set(v)
	}
	return c
}

func (m *Matrix) String() string {
	var b strings.Builder
	for i := 0; i < m.rows; i++ {
		b.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				b.WriteString(" ")
			}
			b.WriteString(m.At(i, j).RatString())
		}
		b.WriteString("]\n")
	}
	return b.String()
}

// rref reduces m in place to reduced row echelon form and returns the
// pivot column of every non-zero row.
func (m *Matrix) rref() []int {
	var pivots []int
	r := 0
	for c := 0; c < m.cols && r < m.rows; c++ {
		p := -1
		for i := r; i < m.rows; i++ {
			if m.At(i, c).Sign() != 0 {
				p = i
				break
			}
		}
		if p < 0 {
			continue
		}
		m.swap(p, r)
		inv := new(big.Rat).Inv(m.At(r, c))
		for j := c; j < m.cols; j++ {
			m.At(r, j).Mul(m.At(r, j), inv)
		}
		for i := 0; i < m.rows; i++ {
			if i == r || m.At(i, c).Sign() == 0 {
				continue
			}
			f := new(big.Rat).Set(m.At(i, c))
			for j := c; j < m.cols; j++ {
				t := new(big.Rat).Mul(f, m.At(r, j))
				m.At(i, j).Sub(m.At(i, j), t)
			}
		}
		pivots = append(pivots, c)
		r++
	}
	return pivots
}

func (m *Matrix) swap(a, b int) {
	if a == b {
		return
	}
	for j := 0; j < m.cols; j++ {
		m.data[a*m.cols+j], m.data[b*m.cols+j] = m.data[b*m.cols+j], m.data[a*m.cols+j]
	}
}

// Rank returns the rank of m.
func Rank(m *Matrix) int {
	return len(m.clone().rref())
}

// ComputeKernel returns an integer basis of the null space of m, one
// vector per free column. ok is false when a basis vector does not fit in
// an int64; callers fall back to a coarser approximation in that case.
func ComputeKernel(m *Matrix) (basis [][]int64, ok bool) {
	r := m.clone()
	pivots := r.rref()
	isPivot := make(map[int]int, len(pivots))
	for row, c := range pivots {
		isPivot[c] = row
	}
	for free := 0; free < r.cols; free++ {
		if _, p := isPivot[free]; p {
			continue
		}
		v := make([]*big.Rat, r.cols)
		for j := range v {
			v[j] = new(big.Rat)
		}
		v[free].SetInt64(1)
		for row, c := range pivots {
			v[c].Neg(r.At(row, free))
		}
		iv, fits := integral(v)
		if !fits {
			return nil, false
		}
		basis = append(basis, iv)
	}
	return basis, true
}

// integral scales v by the lcm of its denominators and divides by the gcd
// of the result, so the first non-zero entry keeps its sign.
func integral(v []*big.Rat) ([]int64, bool) {
	lcm := big.NewInt(1)
	for _, x := range v {
		d := x.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	nums := make([]*big.Int, len(v))
	g := new(big.Int)
	for i, x := range v {
		n := new(big.Int).Mul(x.Num(), new(big.Int).Quo(lcm, x.Denom()))
		nums[i] = n
		g.GCD(nil, nil, g, new(big.Int).Abs(n))
	}
	out := make([]int64, len(v))
	for i, n := range nums {
		if g.Sign() != 0 {
			n.Quo(n, g)
		}
		if !n.IsInt64() {
			return nil, false
		}
		out[i] = n.Int64()
	}
	return out, true
}

// LinearDeps returns the affine dependencies satisfied by every point:
// each result d has one more entry than a point and satisfies
// d[0]*p[0] + ... + d[n-1]*p[n-1] + d[n] = 0. The dependencies span the
// null space of the points extended with a constant column.
func LinearDeps(points [][]int64) ([][]int64, bool) {
	if len(points) == 0 {
		return nil, true
	}
	rows := make([][]int64, len(points))
	for i, p := range points {
		rows[i] = append(append(make([]int64, 0, len(p)+1), p...), 1)
	}
	return ComputeKernel(NewMatrix(rows))
}
