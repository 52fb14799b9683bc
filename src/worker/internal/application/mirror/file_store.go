package mirror

import (
	"context"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	"google.golang.org/api/option"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . FileStore
type FileStore interface {
	WriteFile(ctx context.Context, fileURL string, data []byte) error
}

var _ FileStore = GoogleFileStore{}

func NewGoogleFileStore(storageHost string, options ...option.ClientOption) (GoogleFileStore, error) {
	client, err := storage.NewClient(context.Background(), options...)
	if err != nil {
		return GoogleFileStore{}, cerr.Wrap(err).Error("Failed to create cloud storage client")
	}

	return GoogleFileStore{
		storageHost: strings.TrimSuffix(storageHost, "/"),
		client:      client,
	}, nil
}

type GoogleFileStore struct {
	storageHost string
	client      *storage.Client
}

func (g GoogleFileStore) WriteFile(ctx context.Context, fileURL string, data []byte) error {
	bucket, object, err := g.splitURL(fileURL)
	if err != nil {
		return err
	}

	errctx := cerr.Field("bucket", bucket).Field("object", object)

	writer := g.client.Bucket(bucket).Object(object).NewWriter(ctx)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return errctx.Wrap(err).Error("Failed to write object")
	}

	if err := writer.Close(); err != nil {
		return errctx.Wrap(err).Error("Failed to finalize object")
	}

	return nil
}

func (g GoogleFileStore) splitURL(fileURL string) (string, string, error) {
	errctx := cerr.Field("file_url", fileURL).Field("storage_host", g.storageHost)

	if !strings.HasPrefix(fileURL, g.storageHost+"/") {
		return "", "", errctx.Error("File URL is not on the storage host")
	}

	bucketAndObject := strings.TrimPrefix(fileURL, g.storageHost+"/")
	bucket, object, ok := strings.Cut(bucketAndObject, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", errctx.Error("File URL has no bucket or object")
	}

	return bucket, object, nil
}
