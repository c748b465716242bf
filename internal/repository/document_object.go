package repository

import (
	"bytes"
	"context"
	"gradebook_backend/internal/config"
	"gradebook_backend/internal/util"
	"io"
	"sort"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

const (
	documentExt         = ".json"
	documentContentType = "application/json"
)

func objectKey(prefix, code string) string {
	return prefix + code + documentExt
}

func codeFromKey(prefix, key string) (string, bool) {
	if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, documentExt) {
		return "", false
	}
	code := strings.TrimSuffix(strings.TrimPrefix(key, prefix), documentExt)
	if code == "" || strings.Contains(code, "/") {
		return "", false
	}
	return code, true
}

// MinioDocumentStore 每个租户一个对象 {prefix}{code}.json
type MinioDocumentStore struct {
	Client *minio.Client
	Bucket string
	Prefix string
}

func NewMinioDocumentStore(cfg *config.StorageConfig) (*MinioDocumentStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioDocumentStore{Client: client, Bucket: cfg.MinioBucket, Prefix: cfg.Prefix}, nil
}

func (s *MinioDocumentStore) Name() string {
	return util.BackendMinio
}

func (s *MinioDocumentStore) Get(ctx context.Context, code string) ([]byte, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, objectKey(s.Prefix, code), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(err, code)
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate(err, code)
	}
	return body, nil
}

func (s *MinioDocumentStore) translate(err error, code string) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return util.ErrDocumentNotFound
	}
	return errors.Wrapf(err, "minio get %s", code)
}

// Upsert 单次 PutObject，对象存储保证读者只会看到旧版本或新版本
func (s *MinioDocumentStore) Upsert(ctx context.Context, code string, body []byte) error {
	_, err := s.Client.PutObject(ctx, s.Bucket, objectKey(s.Prefix, code), bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: documentContentType,
	})
	return errors.Wrapf(err, "minio put %s", code)
}

func (s *MinioDocumentStore) List(ctx context.Context) ([]string, error) {
	var codes []string
	for obj := range s.Client.ListObjects(ctx, s.Bucket, minio.ListObjectsOptions{Prefix: s.Prefix}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, "minio list documents")
		}
		if code, ok := codeFromKey(s.Prefix, obj.Key); ok {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

// OSSDocumentStore 阿里云 OSS 实现，对象布局与 MinIO 相同
type OSSDocumentStore struct {
	Bucket *oss.Bucket
	Prefix string
}

func NewOSSDocumentStore(cfg *config.StorageConfig) (*OSSDocumentStore, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	bucket, err := client.Bucket(cfg.OSSBucket)
	if err != nil {
		return nil, err
	}
	return &OSSDocumentStore{Bucket: bucket, Prefix: cfg.Prefix}, nil
}

func (s *OSSDocumentStore) Name() string {
	return util.BackendOSS
}

func (s *OSSDocumentStore) Get(ctx context.Context, code string) ([]byte, error) {
	rc, err := s.Bucket.GetObject(objectKey(s.Prefix, code), oss.WithContext(ctx))
	if err != nil {
		var serr oss.ServiceError
		if errors.As(err, &serr) && serr.Code == "NoSuchKey" {
			return nil, util.ErrDocumentNotFound
		}
		return nil, errors.Wrapf(err, "oss get %s", code)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "oss read %s", code)
	}
	return body, nil
}

func (s *OSSDocumentStore) Upsert(ctx context.Context, code string, body []byte) error {
	err := s.Bucket.PutObject(objectKey(s.Prefix, code), bytes.NewReader(body),
		oss.ContentType(documentContentType),
		oss.WithContext(ctx),
	)
	return errors.Wrapf(err, "oss put %s", code)
}

func (s *OSSDocumentStore) List(ctx context.Context) ([]string, error) {
	var codes []string
	token := ""
	for {
		opts := []oss.Option{oss.Prefix(s.Prefix), oss.WithContext(ctx)}
		if token != "" {
			opts = append(opts, oss.ContinuationToken(token))
		}
		res, err := s.Bucket.ListObjectsV2(opts...)
		if err != nil {
			return nil, errors.Wrap(err, "oss list documents")
		}
		for _, obj := range res.Objects {
			if code, ok := codeFromKey(s.Prefix, obj.Key); ok {
				codes = append(codes, code)
			}
		}
		if !res.IsTruncated {
			break
		}
		token = res.NextContinuationToken
	}
	sort.Strings(codes)
	return codes, nil
}
