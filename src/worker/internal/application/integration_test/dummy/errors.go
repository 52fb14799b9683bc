package dummy

import "github.com/cockroachdb/errors"

var (
	NetworkFailure = errors.New("dummy network failure")
	NotFound       = errors.New("dummy not found")
	EngineFailure  = errors.New("dummy engine failure")
)
