package storage

import "errors"

// ErrNotFound is returned by Select when the query matched no rows
var ErrNotFound = errors.New("storage: no rows found")

var (
	errUnknownQuery = errors.New("storage: config query not found; have you configured storage properly?")
	errUnknownTable = errors.New("storage: no table configured for struct")
)
