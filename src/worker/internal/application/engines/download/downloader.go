package download

import (
	"context"

	mediaentity "github.com/veedubyou/midifi/src/shared/media/entity"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Downloader
type Downloader interface {
	// Resolve looks up a URL without downloading. A playlist expands to its
	// entries in order; anything else yields a single item.
	Resolve(ctx context.Context, url string) ([]mediaentity.Metadata, error)
	// Download fetches one item as audio. destTemplate names the output file
	// with "%(ext)s" standing in for the extension.
	Download(ctx context.Context, url string, destTemplate string) (mediaentity.Metadata, error)
}
