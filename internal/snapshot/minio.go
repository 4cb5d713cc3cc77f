package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Adithya-Monish-Kumar-K/wordtracker/pkg/config"
)

// MinioStore keeps the snapshot as an object in an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	key    string
}

// NewMinioClient connects to the configured endpoint.
func NewMinioClient(cfg config.MinioConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return client, nil
}

// NewMinioStore stores the snapshot at "<prefix>/<name>.wts" in bucket.
func NewMinioStore(client *minio.Client, bucket, prefix, name string) *MinioStore {
	return &MinioStore{
		client: client,
		bucket: bucket,
		key:    path.Join(prefix, name+".wts"),
	}
}

func (s *MinioStore) Name() string {
	return "minio:" + s.bucket + "/" + s.key
}

func (s *MinioStore) Load(ctx context.Context) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapError(err)
	}
	return data, nil
}

func (s *MinioStore) Save(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return writeFailure("uploading snapshot "+s.Name(), err)
	}
	return nil
}

func (s *MinioStore) mapError(err error) error {
	errResp := minio.ToErrorResponse(err)
	if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
		return ErrNotFound
	}
	return fmt.Errorf("reading snapshot %s: %w", s.Name(), err)
}
