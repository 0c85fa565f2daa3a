package dpmix

import "math/rand/v2"

//Param is a mixture component parameter. Each model family declares its own
//concrete type, so parameter shape is checked at compile time rather than by
//runtime tuple conventions. Params are immutable once created and may be
//shared freely between states.
type Param interface {
	//ApproxEqual reports whether other names the same component parameter up
	//to tol. Comparing parameters of a different family is simply unequal;
	//comparing same-family parameters of mismatched shape is an ErrInvariant.
	ApproxEqual(other Param, tol float64) (bool, error)
}

//ConjugateModel is the capability a mixture component family provides to the
//sampler. Implementations hold prior hyperparameters only and are stateless
//across calls; all randomness flows through the explicit rng handle so each
//chain owns its stream.
type ConjugateModel interface {
	//LikelihoodDensity returns the density of x under the explicit
	//component parameter theta.
	LikelihoodDensity(x []float64, theta Param) (float64, error)

	//SamplePosterior returns one draw from the closed-form posterior given
	//the data block currently assigned to a component.
	SamplePosterior(rng *rand.Rand, data [][]float64) (Param, error)

	//MarginalLikelihood returns the evidence of a single point with the
	//component parameter integrated out.
	MarginalLikelihood(x []float64) (float64, error)

	//StandardForm converts the internal parameterization to the canonical
	//user-facing form.
	StandardForm(theta Param) (Param, error)

	//ParameterNames returns display labels for the canonical parameter
	//components.
	ParameterNames() []string
}
