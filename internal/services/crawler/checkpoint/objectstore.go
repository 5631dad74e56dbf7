package checkpoint

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"indexcrawler/internal/platform/config"
	perr "indexcrawler/internal/platform/errors"
	"indexcrawler/internal/platform/validate"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options configure the object store client
type S3Options struct {
	Endpoint  string `json:"CORE_CHECKPOINT_S3_ENDPOINT" validate:"required"`
	AccessKey string `json:"CORE_CHECKPOINT_S3_ACCESS_KEY"`
	SecretKey string `json:"CORE_CHECKPOINT_S3_SECRET_KEY"`
	UseSSL    bool   `json:"CORE_CHECKPOINT_S3_USE_SSL"`
	Region    string `json:"CORE_CHECKPOINT_S3_REGION"`
}

// S3FromConfig reads CORE_CHECKPOINT_S3_* under cfg
func S3FromConfig(cfg config.Conf) S3Options {
	c := cfg.Prefix("CORE_CHECKPOINT_S3_")
	return S3Options{
		Endpoint:  c.MayString("ENDPOINT", ""),
		AccessKey: c.MayString("ACCESS_KEY", ""),
		SecretKey: c.MayString("SECRET_KEY", ""),
		UseSSL:    c.MayBool("USE_SSL", true),
		Region:    c.MayString("REGION", ""),
	}
}

// ParseS3Location splits s3://bucket/prefix. The prefix may be empty
func ParseS3Location(location string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(location, schemeS3)
	if !ok {
		return "", "", perr.Configf("checkpoint: %q is not an s3:// location", location)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	prefix = strings.Trim(prefix, "/")
	if bucket == "" {
		return "", "", perr.Configf("checkpoint: %q has no bucket", location)
	}
	return bucket, prefix, nil
}

// objectAPI is the slice of *minio.Client the store uses
type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
}

// ObjectStore keeps markers as empty objects under bucket/prefix
type ObjectStore struct {
	api    objectAPI
	bucket string
	prefix string
	region string
}

var _ Store = (*ObjectStore)(nil)

// OpenObjectStore builds a minio client from opts
func OpenObjectStore(opts S3Options, bucket, prefix string) (*ObjectStore, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, err
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:    opts.UseSSL,
		Region:    opts.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "checkpoint: s3 client for %s", opts.Endpoint)
	}
	return newObjectStore(client, bucket, prefix, opts.Region), nil
}

func newObjectStore(api objectAPI, bucket, prefix, region string) *ObjectStore {
	return &ObjectStore{api: api, bucket: bucket, prefix: strings.Trim(prefix, "/"), region: region}
}

// Location returns s3://bucket/prefix
func (s *ObjectStore) Location() string {
	if s.prefix == "" {
		return schemeS3 + s.bucket
	}
	return schemeS3 + s.bucket + "/" + s.prefix
}

func (s *ObjectStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Highest lists the markers under the prefix. A missing bucket is no checkpoint
func (s *ObjectStore) Highest(ctx context.Context) (int64, bool, error) {
	names, err := s.markers(ctx)
	if err != nil {
		return 0, false, err
	}
	n, ok := highest(names)
	return n, ok, nil
}

// Advance uploads the new marker, then removes the others
func (s *ObjectStore) Advance(ctx context.Context, next int64) error {
	if err := checkNext(next); err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	keep := markerName(next)
	_, err := s.api.PutObject(ctx, s.bucket, s.key(keep), bytes.NewReader(nil), 0, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeCheckpoint, "checkpoint: put %s", s.key(keep))
	}

	names, err := s.markers(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		if name == keep {
			continue
		}
		if _, ok := parseMarker(name); !ok {
			continue
		}
		if err := s.api.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeCheckpoint, "checkpoint: remove stale markers in %s", s.Location())
	}
	return nil
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	ok, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeCheckpoint, "checkpoint: bucket %s", s.bucket)
	}
	if ok {
		return nil
	}
	if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeCheckpoint, "checkpoint: make bucket %s", s.bucket)
	}
	return nil
}

// markers returns the object names directly under the prefix
func (s *ObjectStore) markers(ctx context.Context) ([]string, error) {
	lctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listPrefix := ""
	if s.prefix != "" {
		listPrefix = s.prefix + "/"
	}
	var names []string
	for obj := range s.api.ListObjects(lctx, s.bucket, minio.ListObjectsOptions{Prefix: listPrefix}) {
		if obj.Err != nil {
			if minio.ToErrorResponse(obj.Err).Code == "NoSuchBucket" {
				return nil, nil
			}
			return nil, perr.Wrapf(obj.Err, perr.ErrorCodeCheckpoint, "checkpoint: list %s", s.Location())
		}
		name := strings.TrimPrefix(obj.Key, listPrefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
