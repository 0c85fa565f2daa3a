package dpmix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSnapshotRenumbers(t *testing.T) {
	data := testData(4)
	st := NewClusterState(data)
	// sparse labels 2 and 5 must come out as dense 1 and 2
	st.CreateClusterAt(0, uvn(0, 1), 2)
	st.CreateClusterAt(1, uvn(10, 1), 5)
	require.NoError(t, st.AddToCluster(2, 2))
	require.NoError(t, st.AddToCluster(3, 5))

	model := NewDefaultUVNModel()
	snap, err := BuildSnapshot(model, st)
	require.NoError(t, err)

	assert.Equal(t, [][]float64(data), snap.Data)
	assert.Equal(t, []int{1, 2, 1, 2}, snap.Labels)
	assert.Equal(t, []int{2, 2}, snap.Counts)
	require.Len(t, snap.Params, 2)
	first, ok := snap.Params[0].(*UVNStandard)
	require.True(t, ok)
	assert.Equal(t, 0.0, first.Mean)
	assert.Equal(t, 1.0, first.Var)

	// the snapshot is a pure read
	assert.Equal(t, []int{2, 5}, st.Labels())
	assert.Equal(t, 2, st.Count(2))
}

func TestExportSnapshotsPreservesOrder(t *testing.T) {
	data := testData(2)
	a := NewClusterState(data)
	a.CreateCluster(0, uvn(0, 1))
	a.CreateCluster(1, uvn(5, 1))

	b := NewClusterState(data)
	lab := b.CreateCluster(0, uvn(0, 1))
	require.NoError(t, b.AddToCluster(1, lab))

	snaps, err := ExportSnapshots(NewDefaultUVNModel(), []*ClusterState{a, b})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, []int{2, 1}, []int{len(snaps[0].Counts), len(snaps[1].Counts)})
	assert.Equal(t, []int{1, 1}, snaps[1].Labels)
}
