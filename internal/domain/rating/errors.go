package rating

import "errors"

// Sentinel kinds for rating errors. These allow errors.Is/As from callers.
var (
	// ErrIllPosed reports that the competitor pool splits into groups with
	// no result linking them, so the maximum-likelihood estimate is not
	// identifiable and the iteration would diverge. This is an expected
	// outcome that callers branch on, not a fault.
	ErrIllPosed = errors.New("competitor pool is not strongly connected")

	// ErrNotConverged reports that a configured iteration cap was reached
	// before the convergence tolerance was met. Distinct from ErrIllPosed.
	ErrNotConverged = errors.New("fit did not converge within iteration cap")

	// ErrUnknownEngine reports an unrecognized engine selection.
	ErrUnknownEngine = errors.New("unknown fitting engine")
)
