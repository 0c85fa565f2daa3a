package dpmix

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

//UVNParam stores a univariate normal component's mean and precision.
type UVNParam struct {
	Mean float64
	Prec float64
}

//ApproxEqual compares the mean and precision.
func (p *UVNParam) ApproxEqual(other Param, tol float64) (bool, error) {
	o, ok := other.(*UVNParam)
	if !ok {
		return false, nil
	}
	return ApproxEqual(p.Mean, o.Mean, tol) && ApproxEqual(p.Prec, o.Prec, tol), nil
}

//UVNStandard is the canonical (mean, variance) form.
type UVNStandard struct {
	Mean float64
	Var  float64
}

//ApproxEqual compares the mean and variance.
func (p *UVNStandard) ApproxEqual(other Param, tol float64) (bool, error) {
	o, ok := other.(*UVNStandard)
	if !ok {
		return false, nil
	}
	return ApproxEqual(p.Mean, o.Mean, tol) && ApproxEqual(p.Var, o.Var, tol), nil
}

//UVNModel is a univariate normal likelihood with unknown mean and precision
//under a normal-gamma prior. Points are length-1 vectors so the model plugs
//into the same state machinery as the multivariate family.
type UVNModel struct {
	Mu0    float64 // prior mean
	Kap0   float64 // belief in Mu0
	Alpha0 float64 // shape on the precision
	Beta0  float64 // rate on the precision
}

//NewUVNModel builds the model from explicit normal-gamma hyperparameters.
func NewUVNModel(mu0, kap0, alpha0, beta0 float64) (*UVNModel, error) {
	if kap0 <= 0 || alpha0 <= 0 || beta0 <= 0 {
		return nil, fmt.Errorf("normal-gamma hyperparameters kap0, alpha0, beta0 must be positive")
	}
	return &UVNModel{Mu0: mu0, Kap0: kap0, Alpha0: alpha0, Beta0: beta0}, nil
}

//NewDefaultUVNModel returns a vague default: zero mean, kap0 = 1e-8, and a
//half-unit shape/rate pair mirroring one prior degree of freedom.
func NewDefaultUVNModel() *UVNModel {
	return &UVNModel{Mu0: 0, Kap0: 1e-8, Alpha0: 0.5, Beta0: 0.5}
}

func scalarPoint(x []float64) (float64, error) {
	if len(x) != 1 {
		return 0, fmt.Errorf("%w: point has dim %d, univariate model wants 1", ErrDimension, len(x))
	}
	return x[0], nil
}

//LikelihoodDensity returns the normal density of x under theta.
func (m *UVNModel) LikelihoodDensity(x []float64, theta Param) (float64, error) {
	p, ok := theta.(*UVNParam)
	if !ok {
		return 0, fmt.Errorf("%w: parameter is not a univariate normal parameter", ErrDimension)
	}
	y, err := scalarPoint(x)
	if err != nil {
		return 0, err
	}
	if p.Prec <= 0 {
		return 0, fmt.Errorf("component precision must be positive, got %g", p.Prec)
	}
	norm := distuv.Normal{Mu: p.Mean, Sigma: 1 / math.Sqrt(p.Prec)}
	return norm.Prob(y), nil
}

//SamplePosterior performs the conjugate normal-gamma update and returns one
//(mean, precision) draw from the updated posterior.
func (m *UVNModel) SamplePosterior(rng *rand.Rand, data [][]float64) (Param, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot sample a posterior from an empty data block")
	}
	n := float64(len(data))
	sum := 0.
	for _, x := range data {
		y, err := scalarPoint(x)
		if err != nil {
			return nil, err
		}
		sum += y
	}
	mean := sum / n
	ss := 0.
	for _, x := range data {
		d := x[0] - mean
		ss += d * d
	}
	kapN := m.Kap0 + n
	alphaN := m.Alpha0 + n/2
	muN := (m.Kap0*m.Mu0 + n*mean) / kapN
	betaN := m.Beta0 + ss/2 + m.Kap0*n*(mean-m.Mu0)*(mean-m.Mu0)/(2*kapN)

	prec := distuv.Gamma{Alpha: alphaN, Beta: betaN, Src: rng}.Rand()
	mu := distuv.Normal{Mu: muN, Sigma: 1 / math.Sqrt(kapN*prec), Src: rng}.Rand()
	return &UVNParam{Mean: mu, Prec: prec}, nil
}

//MarginalLikelihood returns the single-point posterior predictive, the
//Student-t density implied by the normal-gamma prior.
func (m *UVNModel) MarginalLikelihood(x []float64) (float64, error) {
	y, err := scalarPoint(x)
	if err != nil {
		return 0, err
	}
	stt := distuv.StudentsT{
		Mu:    m.Mu0,
		Sigma: math.Sqrt(m.Beta0 * (m.Kap0 + 1) / (m.Alpha0 * m.Kap0)),
		Nu:    2 * m.Alpha0,
	}
	return stt.Prob(y), nil
}

//StandardForm converts a (mean, precision) parameter to (mean, variance).
func (m *UVNModel) StandardForm(theta Param) (Param, error) {
	p, ok := theta.(*UVNParam)
	if !ok {
		return nil, fmt.Errorf("%w: parameter is not a univariate normal parameter", ErrDimension)
	}
	if p.Prec <= 0 {
		return nil, fmt.Errorf("component precision must be positive, got %g", p.Prec)
	}
	return &UVNStandard{Mean: p.Mean, Var: 1 / p.Prec}, nil
}

//ParameterNames returns the display labels of the canonical form.
func (m *UVNModel) ParameterNames() []string {
	return []string{"Mean", "Variance"}
}
