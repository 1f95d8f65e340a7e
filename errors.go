package relfeed

import "github.com/querystack/relfeed/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrMissingQuery  = domain.ErrMissingQuery
	ErrQuerySyntax   = domain.ErrQuerySyntax
	ErrUnknownParser = domain.ErrUnknownParser
	ErrEngineFailure = domain.ErrEngineFailure
)
