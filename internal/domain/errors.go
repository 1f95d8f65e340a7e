package domain

import "errors"

var (
	// ErrMissingQuery signals a request without seed query text.
	ErrMissingQuery = errors.New("feedback handler requires a query (?q=) to find similar documents")
	// ErrQuerySyntax signals malformed query or filter syntax.
	ErrQuerySyntax = errors.New("query syntax error")
	// ErrUnknownParser signals an unrecognized query parser name.
	ErrUnknownParser = errors.New("unknown query parser")
	// ErrEngineFailure signals a search engine fault during resolution or expansion.
	ErrEngineFailure = errors.New("search engine failure")
)
