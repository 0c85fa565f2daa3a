package dpmix

import "errors"

//ErrInvariant marks corrupted cluster bookkeeping: an operation referenced a
//cluster label that does not exist, or compared parameters of mismatched
//shape. A chain hitting it must abort the current step, not recover.
var ErrInvariant = errors.New("cluster invariant violation")

//ErrDimension marks a point or parameter whose dimension does not match the
//model it was handed to.
var ErrDimension = errors.New("dimension mismatch")
