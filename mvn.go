package dpmix

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmat"
	"gonum.org/v1/gonum/stat/distmv"
)

//MVNParam stores a multivariate normal component's mean vector and precision
//matrix. This is the internal parameterization the sampler works in.
type MVNParam struct {
	Mean *mat.VecDense
	Prec *mat.SymDense
}

//ApproxEqual compares the mean and precision entrywise.
func (p *MVNParam) ApproxEqual(other Param, tol float64) (bool, error) {
	o, ok := other.(*MVNParam)
	if !ok {
		return false, nil
	}
	eq, err := approxEqualVec(p.Mean, o.Mean, tol)
	if err != nil || !eq {
		return eq, err
	}
	return approxEqualSym(p.Prec, o.Prec, tol)
}

//MVNStandard is the canonical (mean, covariance) form reported to callers.
type MVNStandard struct {
	Mean *mat.VecDense
	Cov  *mat.SymDense
}

//ApproxEqual compares the mean and covariance entrywise.
func (p *MVNStandard) ApproxEqual(other Param, tol float64) (bool, error) {
	o, ok := other.(*MVNStandard)
	if !ok {
		return false, nil
	}
	eq, err := approxEqualVec(p.Mean, o.Mean, tol)
	if err != nil || !eq {
		return eq, err
	}
	return approxEqualSym(p.Cov, o.Cov, tol)
}

//MVNModel is a multivariate normal likelihood under a normal-inverse-Wishart
//prior with hyperparameters Mu0 (prior mean), Kap0 (belief in Mu0), a scale
//matrix held by its Cholesky factor, and Nu0 (belief in the scale).
type MVNModel struct {
	Mu0  *mat.VecDense
	Kap0 float64
	Nu0  float64

	dim        int
	lam0       *mat.SymDense
	chol0      mat.Cholesky // factor of lam0; the predictive updates it rank-one
	logDetLam0 float64
}

//NewMVNModel builds the model from explicit hyperparameters. The scale matrix
//must be positive definite and nu0 must exceed dim-1.
func NewMVNModel(mu0 *mat.VecDense, kap0 float64, lam0 *mat.SymDense, nu0 float64) (*MVNModel, error) {
	d := mu0.Len()
	if r, _ := lam0.Dims(); r != d {
		return nil, fmt.Errorf("%w: prior mean has dim %d but scale matrix has order %d", ErrDimension, d, r)
	}
	if kap0 <= 0 {
		return nil, fmt.Errorf("prior scale kap0 must be positive, got %g", kap0)
	}
	if nu0 <= float64(d)-1 {
		return nil, fmt.Errorf("prior degrees of freedom %g too small for dimension %d", nu0, d)
	}
	m := &MVNModel{Mu0: mu0, Kap0: kap0, Nu0: nu0, dim: d}
	m.lam0 = mat.NewSymDense(d, nil)
	m.lam0.CopySym(lam0)
	if ok := m.chol0.Factorize(m.lam0); !ok {
		return nil, fmt.Errorf("prior scale matrix is not positive definite")
	}
	m.logDetLam0 = m.chol0.LogDet()
	return m, nil
}

//NewMVNModelFromData builds an empirical-Bayes prior from the dataset's
//sufficient statistics: mean at the sample mean, a vague kap0, nu0 at the
//dimension, and the scale matrix as the inverse of the dimension-scaled
//sample covariance.
func NewMVNModelFromData(data [][]float64) (*MVNModel, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot build an empirical prior from an empty dataset")
	}
	d := len(data[0])
	n, mean, scatter, err := suffStats(data, d)
	if err != nil {
		return nil, err
	}
	cov := mat.NewSymDense(d, nil)
	cov.CopySym(scatter)
	cov.ScaleSym(float64(d)/n, cov)
	var ch mat.Cholesky
	if ok := ch.Factorize(cov); !ok {
		return nil, fmt.Errorf("sample covariance is not positive definite; supply hyperparameters explicitly")
	}
	lam0 := mat.NewSymDense(d, nil)
	if err := ch.InverseTo(lam0); err != nil {
		return nil, err
	}
	return NewMVNModel(mean, 1e-8, lam0, float64(d))
}

//NewMVNModelDim builds the vague default prior for a given dimension: zero
//mean, identity scale, kap0 = 1e-8, nu0 = dim.
func NewMVNModelDim(dim int) *MVNModel {
	m, err := NewMVNModel(mat.NewVecDense(dim, nil), 1e-8, identitySym(dim), float64(dim))
	if err != nil {
		panic(err) // identity scale cannot fail to factorize
	}
	return m
}

//NewDefaultMVNModel returns the default two-dimensional instance.
func NewDefaultMVNModel() *MVNModel {
	return NewMVNModelDim(2)
}

//Dim returns the model's data dimension.
func (m *MVNModel) Dim() int { return m.dim }

//LikelihoodDensity returns the multivariate normal density of x under the
//(mean, precision) parameter theta.
func (m *MVNModel) LikelihoodDensity(x []float64, theta Param) (float64, error) {
	p, ok := theta.(*MVNParam)
	if !ok {
		return 0, fmt.Errorf("%w: parameter is not a multivariate normal parameter", ErrDimension)
	}
	if len(x) != m.dim {
		return 0, fmt.Errorf("%w: point has dim %d, model has dim %d", ErrDimension, len(x), m.dim)
	}
	norm, ok := distmv.NewNormalPrecision(vecSlice(p.Mean), p.Prec, nil)
	if !ok {
		return 0, fmt.Errorf("component precision matrix is not positive definite")
	}
	return math.Exp(norm.LogProb(x)), nil
}

//SamplePosterior performs the conjugate normal-inverse-Wishart update from
//the block's sufficient statistics and returns one (mean, precision) draw
//from the updated posterior.
func (m *MVNModel) SamplePosterior(rng *rand.Rand, data [][]float64) (Param, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot sample a posterior from an empty data block")
	}
	n, mean, scatter, err := suffStats(data, m.dim)
	if err != nil {
		return nil, err
	}
	kapN := m.Kap0 + n
	nuN := m.Nu0 + n
	muN := mat.NewVecDense(m.dim, nil)
	muN.AddScaledVec(muN, m.Kap0, m.Mu0)
	muN.AddScaledVec(muN, n, mean)
	muN.ScaleVec(1/kapN, muN)
	lamN := mat.NewSymDense(m.dim, nil)
	lamN.CopySym(m.lam0)
	lamN.AddSym(lamN, scatter)
	diff := mat.NewVecDense(m.dim, nil)
	diff.SubVec(mean, m.Mu0)
	lamN.SymRankOne(lamN, m.Kap0*n/kapN, diff)

	var cholN mat.Cholesky
	if ok := cholN.Factorize(lamN); !ok {
		return nil, fmt.Errorf("posterior scale matrix is not positive definite")
	}
	lamNInv := mat.NewSymDense(m.dim, nil)
	if err := cholN.InverseTo(lamNInv); err != nil {
		return nil, err
	}
	wish, ok := distmat.NewWishart(lamNInv, nuN, rng)
	if !ok {
		return nil, fmt.Errorf("posterior Wishart parameters are invalid")
	}
	prec := mat.NewSymDense(m.dim, nil)
	wish.RandSymTo(prec)

	condPrec := mat.NewSymDense(m.dim, nil)
	condPrec.CopySym(prec)
	condPrec.ScaleSym(kapN, condPrec)
	norm, ok := distmv.NewNormalPrecision(vecSlice(muN), condPrec, rng)
	if !ok {
		return nil, fmt.Errorf("sampled precision matrix is not positive definite")
	}
	mu := norm.Rand(nil)
	return &MVNParam{Mean: mat.NewVecDense(m.dim, mu), Prec: prec}, nil
}

//MarginalLikelihood returns the single-point posterior predictive density
//with the component parameter integrated out. The scale-matrix update is a
//rank-one correction of the prior's Cholesky factor, and every term is
//accumulated in log space before a single exponentiation.
func (m *MVNModel) MarginalLikelihood(x []float64) (float64, error) {
	if len(x) != m.dim {
		return 0, fmt.Errorf("%w: point has dim %d, model has dim %d", ErrDimension, len(x), m.dim)
	}
	kapN := m.Kap0 + 1
	nuN := m.Nu0 + 1
	diff := mat.NewVecDense(m.dim, nil)
	for i, v := range x {
		diff.SetVec(i, v-m.Mu0.AtVec(i))
	}
	var cholN mat.Cholesky
	if ok := cholN.SymRankOne(&m.chol0, m.Kap0/kapN, diff); !ok {
		return 0, fmt.Errorf("rank-one update left the scale matrix indefinite")
	}
	d := float64(m.dim)
	logp := -d/2*math.Log(math.Pi) +
		logMvGamma(m.dim, nuN/2) - logMvGamma(m.dim, m.Nu0/2) +
		m.Nu0/2*m.logDetLam0 - nuN/2*cholN.LogDet() +
		d/2*(math.Log(m.Kap0)-math.Log(kapN))
	return math.Exp(logp), nil
}

//StandardForm converts a (mean, precision) parameter to the canonical
//(mean, covariance) form by matrix inversion.
func (m *MVNModel) StandardForm(theta Param) (Param, error) {
	p, ok := theta.(*MVNParam)
	if !ok {
		return nil, fmt.Errorf("%w: parameter is not a multivariate normal parameter", ErrDimension)
	}
	var ch mat.Cholesky
	if ok := ch.Factorize(p.Prec); !ok {
		return nil, fmt.Errorf("component precision matrix is not positive definite")
	}
	cov := mat.NewSymDense(m.dim, nil)
	if err := ch.InverseTo(cov); err != nil {
		return nil, err
	}
	mean := mat.NewVecDense(m.dim, nil)
	mean.CopyVec(p.Mean)
	return &MVNStandard{Mean: mean, Cov: cov}, nil
}

//ParameterNames returns the display labels of the canonical form.
func (m *MVNModel) ParameterNames() []string {
	return []string{"Mean", "Covariance Matrix"}
}

//suffStats accumulates the count, sample mean, and centered scatter matrix of
//a data block.
func suffStats(data [][]float64, d int) (float64, *mat.VecDense, *mat.SymDense, error) {
	n := float64(len(data))
	mean := mat.NewVecDense(d, nil)
	for _, x := range data {
		if len(x) != d {
			return 0, nil, nil, fmt.Errorf("%w: point has dim %d, model has dim %d", ErrDimension, len(x), d)
		}
		for i, v := range x {
			mean.SetVec(i, mean.AtVec(i)+v)
		}
	}
	mean.ScaleVec(1/n, mean)
	scatter := mat.NewSymDense(d, nil)
	for _, x := range data {
		for i := 0; i < d; i++ {
			for j := i; j < d; j++ {
				scatter.SetSym(i, j, scatter.At(i, j)+(x[i]-mean.AtVec(i))*(x[j]-mean.AtVec(j)))
			}
		}
	}
	return n, mean, scatter, nil
}

//logMvGamma returns the log of the multivariate gamma function of order d.
func logMvGamma(d int, a float64) float64 {
	out := float64(d*(d-1)) / 4 * math.Log(math.Pi)
	for j := 1; j <= d; j++ {
		lg, _ := math.Lgamma(a + (1-float64(j))/2)
		out += lg
	}
	return out
}

func identitySym(d int) *mat.SymDense {
	s := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		s.SetSym(i, i, 1)
	}
	return s
}

func vecSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
