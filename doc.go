// Package dpmix implements the inference core of a Dirichlet process
// mixture model: per-chain cluster bookkeeping, a conjugate model
// abstraction with multivariate normal (normal-inverse-Wishart) and
// univariate normal (normal-gamma) implementations, snapshot export,
// and a Gibbs sweep driver.
package dpmix
