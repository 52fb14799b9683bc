package runstorage

import "github.com/cockroachdb/errors"

var (
	DefaultErrorMark = errors.New("Run DB error")
	RunNotFound      = errors.New("Run not found")
	IDEmptyMark      = errors.New("Run ID is empty")
	MarshalMark      = errors.New("Failed to marshal run")
	UnmarshalMark    = errors.New("Failed to unmarshal run")
)
