package dpmix

//Snapshot is a read-only, renumbered view of a ClusterState at one point in
//time. Labels are dense 1..m in the catalog's natural label order; Params and
//Counts are indexed by dense label minus one. Snapshots are never fed back
//into a state.
type Snapshot struct {
	Data   [][]float64
	Labels []int
	Params []Param
	Counts []int
}

//BuildSnapshot renumbers the state's live clusters densely, scatters each
//member list into a per-point label array, and canonicalizes each cluster's
//parameter through the model's standard form. Pure read; the state is not
//mutated, and the build must not race a concurrent mutation of the same
//state.
func BuildSnapshot(model ConjugateModel, st *ClusterState) (*Snapshot, error) {
	labs := st.Labels()
	snap := &Snapshot{
		Data:   st.Data(),
		Labels: make([]int, len(st.Data())),
		Params: make([]Param, 0, len(labs)),
		Counts: make([]int, 0, len(labs)),
	}
	for dense, lab := range labs {
		phi, _ := st.Param(lab)
		std, err := model.StandardForm(phi)
		if err != nil {
			return nil, err
		}
		snap.Params = append(snap.Params, std)
		snap.Counts = append(snap.Counts, st.Count(lab))
		for _, i := range st.Members(lab) {
			snap.Labels[i] = dense + 1
		}
	}
	return snap, nil
}

//ExportSnapshots applies BuildSnapshot over an ordered sequence of retained
//states, preserving order.
func ExportSnapshots(model ConjugateModel, states []*ClusterState) ([]*Snapshot, error) {
	out := make([]*Snapshot, 0, len(states))
	for _, st := range states {
		snap, err := BuildSnapshot(model, st)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}
