package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	type tc struct {
		Name     string
		Rows     [][]int64
		Expected int
	}

	for _, tt := range []tc{
		{Name: "empty", Rows: nil, Expected: 0},
		{Name: "zero", Rows: [][]int64{{0, 0}, {0, 0}}, Expected: 0},
		{Name: "identity", Rows: [][]int64{{1, 0}, {0, 1}}, Expected: 2},
		{Name: "dependent rows", Rows: [][]int64{{1, 2, 3}, {2, 4, 6}, {1, 0, 1}}, Expected: 2},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			assert.Equal(t, tt.Expected, Rank(NewMatrix(tt.Rows)))
		})
	}
}

func TestComputeKernel(t *testing.T) {
	type tc struct {
		Name     string
		Rows     [][]int64
		Expected [][]int64
	}

	for _, tt := range []tc{
		{
			Name:     "full rank",
			Rows:     [][]int64{{1, 0}, {0, 1}},
			Expected: nil,
		},
		{
			Name:     "one free column",
			Rows:     [][]int64{{1, 2}},
			Expected: [][]int64{{-2, 1}},
		},
		{
			Name:     "rational entries are scaled",
			Rows:     [][]int64{{2, 3}},
			Expected: [][]int64{{-3, 2}},
		},
		{
			Name:     "two free columns",
			Rows:     [][]int64{{1, 1, 1}},
			Expected: [][]int64{{-1, 1, 0}, {-1, 0, 1}},
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			m := NewMatrix(tt.Rows)
			basis, ok := ComputeKernel(m)
			require.True(t, ok)
			assert.Equal(t, tt.Expected, basis)
			for _, v := range basis {
				for _, row := range tt.Rows {
					var sum int64
					for j := range row {
						sum += row[j] * v[j]
					}
					assert.Zero(t, sum)
				}
			}
		})
	}
}

func TestLinearDeps(t *testing.T) {
	// the points lie on y = x + 1
	deps, ok := LinearDeps([][]int64{{3, 4}, {5, 6}, {7, 8}})
	require.True(t, ok)
	require.Len(t, deps, 1)
	assert.Equal(t, []int64{1, -1, 1}, deps[0])

	// three points on a line of one coordinate have no dependency
	deps, ok = LinearDeps([][]int64{{4}, {6}, {8}})
	require.True(t, ok)
	assert.Empty(t, deps)

	// a single point fixes every coordinate
	deps, ok = LinearDeps([][]int64{{2, 5}})
	require.True(t, ok)
	assert.Len(t, deps, 2)
}

func TestNewMatrixRagged(t *testing.T) {
	assert.Panics(t, func() { NewMatrix([][]int64{{1, 2}, {3}}) })
}
