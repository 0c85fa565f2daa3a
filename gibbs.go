package dpmix

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
)

//GibbsConfig collects the settings of one chain.
type GibbsConfig struct {
	Alpha       float64 // DP concentration; defaults to 1
	Sweeps      int     // number of full sweeps to run
	SampleEvery int     // retain a state every this many sweeps; defaults to 1
	PrintEvery  int     // log progress every this many sweeps; 0 silences
	Seed        uint64  // chain RNG seed
	Logger      *slog.Logger
}

//Gibbs drives one DPMM chain over a fixed dataset. A chain is sequential by
//construction; run independent chains on separate Gibbs values sharing only
//the immutable dataset and model.
type Gibbs struct {
	Data  [][]float64
	Model ConjugateModel
	State *ClusterState
	Alpha float64

	cfg    GibbsConfig
	assign []int // current cluster label of each point
	rng    *rand.Rand
	logger *slog.Logger
	keep   []*ClusterState
}

//NewGibbs initializes a chain in the singleton configuration, one cluster
//per point.
func NewGibbs(data [][]float64, model ConjugateModel, cfg GibbsConfig) (*Gibbs, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot run a chain over an empty dataset")
	}
	if cfg.Alpha <= 0 {
		cfg.Alpha = 1
	}
	if cfg.SampleEvery <= 0 {
		cfg.SampleEvery = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	st, err := NewSingletonState(rng, data, model)
	if err != nil {
		return nil, err
	}
	g := &Gibbs{
		Data:   data,
		Model:  model,
		State:  st,
		Alpha:  cfg.Alpha,
		cfg:    cfg,
		assign: make([]int, len(data)),
		rng:    rng,
		logger: logger,
	}
	for _, lab := range st.Labels() {
		for _, i := range st.Members(lab) {
			g.assign[i] = lab
		}
	}
	return g, nil
}

//Run executes the configured sweeps, retaining the state every SampleEvery
//sweeps, and returns the exported snapshot sequence in retention order.
func (g *Gibbs) Run() ([]*Snapshot, error) {
	for sweep := 1; sweep <= g.cfg.Sweeps; sweep++ {
		if err := g.Sweep(); err != nil {
			return nil, fmt.Errorf("sweep %d: %w", sweep, err)
		}
		if sweep%g.cfg.SampleEvery == 0 {
			g.keep = append(g.keep, g.State)
		}
		if g.cfg.PrintEvery > 0 && sweep%g.cfg.PrintEvery == 0 {
			g.logger.Info("gibbs sweep", "sweep", sweep, "clusters", g.State.NumClusters())
		}
	}
	return ExportSnapshots(g.Model, g.keep)
}

//Sweep performs one full update: refresh every cluster's parameter from its
//current members, then reseat every point in order. Reseating runs on a
//CloneParams state so the retained previous state stays frozen; counts carry
//over and member lists rebuild as points land.
func (g *Gibbs) Sweep() error {
	cur := g.State
	next := cur.CloneParams()
	for _, lab := range cur.Labels() {
		phi, err := g.Model.SamplePosterior(g.rng, g.gather(cur.Members(lab)))
		if err != nil {
			return fmt.Errorf("refreshing cluster %d: %w", lab, err)
		}
		if err := next.SetParam(lab, phi); err != nil {
			return err
		}
	}
	for i, y := range g.Data {
		if err := next.DropFromCluster(i, g.assign[i]); err != nil {
			return err
		}
		if next.Count(g.assign[i]) == 0 {
			// purge before reseating so a ghost parameter cannot capture the merge
			next.Cleanup()
		}
		phi, err := g.drawParam(next, y)
		if err != nil {
			return err
		}
		lab, err := next.AddPoint(i, phi)
		if err != nil {
			return err
		}
		g.assign[i] = lab
	}
	next.Cleanup()
	g.State = next
	return nil
}

//drawParam draws a point's parameter from its conditional: an existing
//cluster's atom with weight count x likelihood, or a fresh single-point
//posterior draw with weight alpha x marginal likelihood.
func (g *Gibbs) drawParam(st *ClusterState, y []float64) (Param, error) {
	labs := st.Labels()
	weights := make([]float64, len(labs))
	sum := 0.
	for j, lab := range labs {
		phi, _ := st.Param(lab)
		dens, err := g.Model.LikelihoodDensity(y, phi)
		if err != nil {
			return nil, err
		}
		weights[j] = float64(st.Count(lab)) * dens
		sum += weights[j]
	}
	marg, err := g.Model.MarginalLikelihood(y)
	if err != nil {
		return nil, err
	}
	newMass := g.Alpha * marg
	sum += newMass
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		// every existing atom underflowed; the point starts its own cluster
		return g.Model.SamplePosterior(g.rng, [][]float64{y})
	}
	u := g.rng.Float64() * sum
	acc := 0.
	for j, lab := range labs {
		acc += weights[j]
		if u < acc {
			phi, _ := st.Param(lab)
			return phi, nil
		}
	}
	return g.Model.SamplePosterior(g.rng, [][]float64{y})
}

func (g *Gibbs) gather(members []int) [][]float64 {
	block := make([][]float64, 0, len(members))
	for _, i := range members {
		block = append(block, g.Data[i])
	}
	return block
}
