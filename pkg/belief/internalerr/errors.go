package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrUnknownVariable = errors.New("unknown variable")
	ErrCycle           = errors.New("network contains a cycle")
	ErrCPTLookup       = errors.New("cpt entry not found")
	ErrZeroProbability = errors.New("probabilities sum to zero")
	ErrInvalidInput    = errors.New("invalid input")
	ErrDuplicate       = errors.New("duplicate entry")
	ErrNotFound        = errors.New("not found")
)
