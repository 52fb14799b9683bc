package dummy

import (
	"context"
	"sync"

	"github.com/veedubyou/midifi/src/worker/internal/application/mirror"
)

var _ mirror.FileStore = &FileStore{}

func NewDummyFileStore() *FileStore {
	return &FileStore{
		Files: make(map[string][]byte),
	}
}

type FileStore struct {
	Unavailable bool

	mutex sync.Mutex
	Files map[string][]byte
}

func (f *FileStore) WriteFile(_ context.Context, fileURL string, data []byte) error {
	if f.Unavailable {
		return NetworkFailure
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.Files[fileURL] = data
	return nil
}

func (f *FileStore) GetFile(_ context.Context, fileURL string) ([]byte, error) {
	if f.Unavailable {
		return nil, NetworkFailure
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	contents, ok := f.Files[fileURL]
	if !ok {
		return nil, NotFound
	}

	return contents, nil
}
