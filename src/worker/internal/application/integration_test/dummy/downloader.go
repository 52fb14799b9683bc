package dummy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	mediaentity "github.com/veedubyou/midifi/src/shared/media/entity"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/download"
)

var _ download.Downloader = &Downloader{}

func NewDummyDownloader() *Downloader {
	return &Downloader{
		Items:   make(map[string][]mediaentity.Metadata),
		Failing: make(map[string]bool),
	}
}

// Downloader serves canned metadata and writes a small fake audio file for
// every download.
type Downloader struct {
	Unavailable bool
	Items       map[string][]mediaentity.Metadata
	Failing     map[string]bool

	mutex          sync.Mutex
	ResolveCalls   []string
	DownloadCalls  []string
	DownloadedDest []string
}

func (d *Downloader) AddItem(url string, fields mediaentity.MetadataFields) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.Items[url] = append(d.Items[url], mediaentity.NewMetadata(fields))
}

func (d *Downloader) Resolve(ctx context.Context, url string) ([]mediaentity.Metadata, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.ResolveCalls = append(d.ResolveCalls, url)
	if d.Unavailable {
		return nil, NetworkFailure
	}

	items, ok := d.Items[url]
	if !ok {
		return nil, NotFound
	}

	return items, nil
}

func (d *Downloader) Download(ctx context.Context, url string, destTemplate string) (mediaentity.Metadata, error) {
	d.mutex.Lock()
	d.DownloadCalls = append(d.DownloadCalls, url)
	unavailable := d.Unavailable || d.Failing[url]
	items := d.Items[url]
	d.mutex.Unlock()

	if unavailable {
		return mediaentity.Metadata{}, NetworkFailure
	}

	dest := strings.Replace(destTemplate, "%(ext)s", "mp3", 1)
	if err := os.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
		return mediaentity.Metadata{}, err
	}

	if err := os.WriteFile(dest, []byte("downloaded:"+url), 0o644); err != nil {
		return mediaentity.Metadata{}, err
	}

	d.mutex.Lock()
	d.DownloadedDest = append(d.DownloadedDest, dest)
	d.mutex.Unlock()

	if len(items) > 0 {
		return items[0], nil
	}

	return mediaentity.NewMetadata(mediaentity.MetadataFields{URL: url}), nil
}

func (d *Downloader) DownloadCount() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.DownloadCalls)
}
