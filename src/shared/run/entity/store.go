package runentity

import "context"

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Store
type Store interface {
	GetRun(ctx context.Context, id string) (RunRecord, error)
	SetRun(ctx context.Context, record RunRecord) error
}
