package dpmix

import (
	"fmt"
	"math/rand/v2"
)

//clusterRecord is one slot of the catalog. A slot with a nil param is free.
type clusterRecord struct {
	param   Param
	members []int
	count   int
}

//ClusterState is the mutable per-chain cluster catalog: which points belong
//to which cluster, each cluster's parameter, and each cluster's size. The
//catalog is a dense growable slot array plus a free-list of reusable slots;
//a cluster's label is its slot index plus one, so labels are unique positive
//integers, reused only after the slot is purged, and label allocation never
//scans past the live slot range.
//
//A chain owns its state exclusively; nothing here locks. The dataset is
//shared by reference and must never be mutated after construction.
type ClusterState struct {
	data  [][]float64
	slots []clusterRecord
	free  []int // ascending slot indices available for reuse
}

//NewClusterState returns an empty catalog over a fixed dataset.
func NewClusterState(data [][]float64) *ClusterState {
	return &ClusterState{data: data}
}

//NewSingletonState starts every point in its own cluster, drawing each
//cluster's parameter from the model's posterior conditioned on that single
//point. This is the sampler's initial configuration.
func NewSingletonState(rng *rand.Rand, data [][]float64, model ConjugateModel) (*ClusterState, error) {
	st := NewClusterState(data)
	for i := range data {
		phi, err := model.SamplePosterior(rng, data[i:i+1])
		if err != nil {
			return nil, fmt.Errorf("seeding cluster for point %d: %w", i, err)
		}
		st.CreateCluster(i, phi)
	}
	return st, nil
}

//CloneParams returns a state that keeps every cluster's parameter and count
//but resets the membership lists, for resampling phases that regenerate
//membership from previously fixed parameters. Parameters are shared, not
//copied; they are immutable by contract.
func (st *ClusterState) CloneParams() *ClusterState {
	out := &ClusterState{
		data:  st.data,
		slots: make([]clusterRecord, len(st.slots)),
		free:  append([]int(nil), st.free...),
	}
	for idx := range st.slots {
		r := &st.slots[idx]
		if r.param == nil {
			continue
		}
		out.slots[idx] = clusterRecord{param: r.param, count: r.count}
	}
	return out
}

func (st *ClusterState) rec(label int) (*clusterRecord, bool) {
	idx := label - 1
	if idx < 0 || idx >= len(st.slots) || st.slots[idx].param == nil {
		return nil, false
	}
	return &st.slots[idx], true
}

//Data returns the chain's dataset. Callers must treat it as read-only.
func (st *ClusterState) Data() [][]float64 { return st.data }

//NumClusters returns the number of live clusters.
func (st *ClusterState) NumClusters() int {
	n := 0
	for idx := range st.slots {
		if st.slots[idx].param != nil {
			n++
		}
	}
	return n
}

//Labels returns the live cluster labels in ascending order.
func (st *ClusterState) Labels() []int {
	labs := make([]int, 0, len(st.slots))
	for idx := range st.slots {
		if st.slots[idx].param != nil {
			labs = append(labs, idx+1)
		}
	}
	return labs
}

//Param returns the parameter of a live cluster.
func (st *ClusterState) Param(label int) (Param, bool) {
	r, ok := st.rec(label)
	if !ok {
		return nil, false
	}
	return r.param, true
}

//Count returns a cluster's member count, zero for unknown labels.
func (st *ClusterState) Count(label int) int {
	r, ok := st.rec(label)
	if !ok {
		return 0
	}
	return r.count
}

//Members returns a copy of a cluster's member indices.
func (st *ClusterState) Members(label int) []int {
	r, ok := st.rec(label)
	if !ok {
		return nil
	}
	return append([]int(nil), r.members...)
}

//AddPoint places point i with a freshly drawn parameter phi: if some live
//cluster's parameter matches phi within the default tolerance the point joins
//that cluster, otherwise a new cluster is created around it. This is the
//merge-by-parameter-identity recombination step after independent per-point
//parameter resampling, and it returns the label the point landed in.
func (st *ClusterState) AddPoint(i int, phi Param) (int, error) {
	for idx := range st.slots {
		r := &st.slots[idx]
		if r.param == nil {
			continue
		}
		eq, err := phi.ApproxEqual(r.param, DefaultTol)
		if err != nil {
			return 0, err
		}
		if eq {
			label := idx + 1
			if err := st.AddToCluster(i, label); err != nil {
				return 0, err
			}
			return label, nil
		}
	}
	return st.CreateCluster(i, phi), nil
}

//AddToCluster adds point i to an existing cluster. The label must already be
//live; the member list is created on first append when it lags the count.
func (st *ClusterState) AddToCluster(i, label int) error {
	r, ok := st.rec(label)
	if !ok {
		return fmt.Errorf("%w: cluster %d does not exist", ErrInvariant, label)
	}
	r.count++
	r.members = append(r.members, i)
	return nil
}

//CreateCluster creates a singleton cluster for point i at the smallest
//unused label and returns that label.
func (st *ClusterState) CreateCluster(i int, phi Param) int {
	var idx int
	if len(st.free) > 0 {
		idx = st.free[0]
		st.free = st.free[1:]
	} else {
		st.slots = append(st.slots, clusterRecord{})
		idx = len(st.slots) - 1
	}
	st.slots[idx] = clusterRecord{param: phi, members: []int{i}, count: 1}
	return idx + 1
}

//CreateClusterAt creates a singleton cluster for point i at the caller's
//label. The caller guarantees the label is unused; no collision check runs.
func (st *ClusterState) CreateClusterAt(i int, phi Param, label int) {
	idx := label - 1
	for len(st.slots) <= idx {
		st.free = append(st.free, len(st.slots))
		st.slots = append(st.slots, clusterRecord{})
	}
	for j, f := range st.free {
		if f == idx {
			st.free = append(st.free[:j], st.free[j+1:]...)
			break
		}
	}
	st.slots[idx] = clusterRecord{param: phi, members: []int{i}, count: 1}
}

//DropFromCluster removes point i from the cluster at label, the sampler-side
//shrink operation. The count drops immediately; the member list sheds the
//index only when it holds it, so a list rebuilt from scratch may lag the
//count until the sweep reseats every point.
func (st *ClusterState) DropFromCluster(i, label int) error {
	r, ok := st.rec(label)
	if !ok {
		return fmt.Errorf("%w: cluster %d does not exist", ErrInvariant, label)
	}
	if r.count == 0 {
		return fmt.Errorf("%w: cluster %d is already empty", ErrInvariant, label)
	}
	r.count--
	for j, m := range r.members {
		if m == i {
			r.members = append(r.members[:j], r.members[j+1:]...)
			break
		}
	}
	return nil
}

//SetParam replaces a live cluster's parameter, the sampler-side refresh
//operation.
func (st *ClusterState) SetParam(label int, phi Param) error {
	r, ok := st.rec(label)
	if !ok {
		return fmt.Errorf("%w: cluster %d does not exist", ErrInvariant, label)
	}
	r.param = phi
	return nil
}

//Cleanup purges every cluster whose count reached zero, trims trailing empty
//slots, and rebuilds the free-list in ascending order. Stale member lists of
//purged labels need no reconciliation. Calling it twice in a row is a no-op.
func (st *ClusterState) Cleanup() {
	for idx := range st.slots {
		r := &st.slots[idx]
		if r.param != nil && r.count == 0 {
			*r = clusterRecord{}
		}
	}
	n := len(st.slots)
	for n > 0 && st.slots[n-1].param == nil {
		n--
	}
	st.slots = st.slots[:n]
	st.free = st.free[:0]
	for idx := 0; idx < n; idx++ {
		if st.slots[idx].param == nil {
			st.free = append(st.free, idx)
		}
	}
}
