package pipeline

import "github.com/cockroachdb/errors"

var (
	CollaboratorUnavailable = errors.New("An external engine failed or is misconfigured")
	MissingPrerequisite     = errors.New("A stage's upstream artifact is missing")
	Cancelled               = errors.New("The run was cancelled")
)
