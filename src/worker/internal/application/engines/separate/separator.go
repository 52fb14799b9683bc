package separate

import (
	"context"

	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Separator
type Separator interface {
	// Separate writes one audio file per stem, named by stem, directly into
	// outputDir. Nothing lands in outputDir unless the engine finished.
	Separate(ctx context.Context, input string, outputDir string, model string, device runentity.Device) error
}
