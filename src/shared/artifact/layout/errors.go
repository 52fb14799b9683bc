package layout

import "github.com/cockroachdb/errors"

var (
	ArtifactLayoutCollision = errors.New("Two identities share one artifact directory")
	PathEscape              = errors.New("Requested path is outside the root directory")
)
