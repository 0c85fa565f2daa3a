package dpmix

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uvn(mean, prec float64) *UVNParam {
	return &UVNParam{Mean: mean, Prec: prec}
}

func testData(n int) [][]float64 {
	data := make([][]float64, n)
	for i := range data {
		data[i] = []float64{float64(i)}
	}
	return data
}

func TestCreateClusterAutoLabel(t *testing.T) {
	st := NewClusterState(testData(4))
	for i := 0; i < 4; i++ {
		lab := st.CreateCluster(i, uvn(float64(i), 1))
		assert.Equal(t, i+1, lab)
	}
	require.NoError(t, st.DropFromCluster(2, 3))
	st.Cleanup()
	assert.Equal(t, []int{1, 2, 4}, st.Labels())

	// the smallest purged label is reused first
	lab := st.CreateCluster(2, uvn(99, 1))
	assert.Equal(t, 3, lab)
	assert.Equal(t, []int{1, 2, 3, 4}, st.Labels())
}

func TestAddToClusterUnknownLabel(t *testing.T) {
	st := NewClusterState(testData(2))
	st.CreateCluster(0, uvn(0, 1))
	err := st.AddToCluster(1, 7)
	require.ErrorIs(t, err, ErrInvariant)
}

func TestAddPointMergeOrCreate(t *testing.T) {
	st := NewClusterState(testData(3))
	st.CreateCluster(0, uvn(1, 2))

	// equal within tolerance: merges, cluster count unchanged
	lab, err := st.AddPoint(1, uvn(1.0000001, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, lab)
	assert.Equal(t, 1, st.NumClusters())
	assert.Equal(t, 2, st.Count(1))
	assert.Equal(t, []int{0, 1}, st.Members(1))

	// sufficiently different: a new cluster appears
	lab, err = st.AddPoint(2, uvn(5, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, lab)
	assert.Equal(t, 2, st.NumClusters())
	assert.Equal(t, 1, st.Count(2))
}

func TestCountsMatchMembership(t *testing.T) {
	st := NewClusterState(testData(6))
	a := st.CreateCluster(0, uvn(0, 1))
	b := st.CreateCluster(1, uvn(10, 1))
	require.NoError(t, st.AddToCluster(2, a))
	require.NoError(t, st.AddToCluster(3, a))
	require.NoError(t, st.AddToCluster(4, b))
	require.NoError(t, st.DropFromCluster(3, a))
	st.Cleanup()
	for _, lab := range st.Labels() {
		assert.Equal(t, st.Count(lab), len(st.Members(lab)), "label %d", lab)
	}
}

func TestCleanupIdempotent(t *testing.T) {
	st := NewClusterState(testData(3))
	st.CreateCluster(0, uvn(0, 1))
	st.CreateCluster(1, uvn(1, 1))
	st.CreateCluster(2, uvn(2, 1))
	require.NoError(t, st.DropFromCluster(1, 2))

	st.Cleanup()
	first := st.Labels()
	assert.Equal(t, []int{1, 3}, first)
	for _, lab := range first {
		assert.NotZero(t, st.Count(lab))
	}

	st.Cleanup()
	assert.Equal(t, first, st.Labels())
}

func TestCloneParams(t *testing.T) {
	st := NewClusterState(testData(4))
	a := st.CreateCluster(0, uvn(0, 1))
	require.NoError(t, st.AddToCluster(1, a))
	b := st.CreateCluster(2, uvn(5, 1))
	require.NoError(t, st.AddToCluster(3, b))

	clone := st.CloneParams()
	assert.Equal(t, st.Labels(), clone.Labels())
	for _, lab := range st.Labels() {
		assert.Equal(t, st.Count(lab), clone.Count(lab))
		want, _ := st.Param(lab)
		got, _ := clone.Param(lab)
		assert.Same(t, want, got)
		assert.Empty(t, clone.Members(lab))
	}

	// member lists rebuild through AddToCluster despite the carried counts
	require.NoError(t, clone.DropFromCluster(0, a))
	require.NoError(t, clone.AddToCluster(0, a))
	assert.Equal(t, 2, clone.Count(a))
	assert.Equal(t, []int{0}, clone.Members(a))
}

func TestCreateClusterAtExplicitLabel(t *testing.T) {
	st := NewClusterState(testData(3))
	st.CreateClusterAt(0, uvn(0, 1), 5)
	assert.Equal(t, []int{5}, st.Labels())
	assert.Equal(t, 1, st.Count(5))

	// auto allocation fills the smallest hole below the explicit label
	lab := st.CreateCluster(1, uvn(1, 1))
	assert.Equal(t, 1, lab)
	lab = st.CreateCluster(2, uvn(2, 1))
	assert.Equal(t, 2, lab)
}

func TestSetParamAndDropErrors(t *testing.T) {
	st := NewClusterState(testData(2))
	lab := st.CreateCluster(0, uvn(0, 1))

	require.ErrorIs(t, st.SetParam(9, uvn(1, 1)), ErrInvariant)
	require.NoError(t, st.SetParam(lab, uvn(1, 1)))
	phi, ok := st.Param(lab)
	require.True(t, ok)
	eq, err := phi.ApproxEqual(uvn(1, 1), DefaultTol)
	require.NoError(t, err)
	assert.True(t, eq)

	require.ErrorIs(t, st.DropFromCluster(0, 9), ErrInvariant)
	require.NoError(t, st.DropFromCluster(0, lab))
	require.ErrorIs(t, st.DropFromCluster(0, lab), ErrInvariant)
}

func TestNewSingletonState(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	data := [][]float64{{0, 0}, {0.5, 0.5}, {8, 8}}
	st, err := NewSingletonState(rng, data, NewDefaultMVNModel())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, st.Labels())
	for i, lab := range st.Labels() {
		assert.Equal(t, 1, st.Count(lab))
		assert.Equal(t, []int{i}, st.Members(lab))
	}
}
