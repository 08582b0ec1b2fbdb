package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an S3Disk.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// Prefix is prepended to every key, e.g. "site-a".
	Prefix string

	// URL is the public base URL of the bucket (or its CDN).
	URL string
}

// S3Disk stores files as objects in an S3-compatible bucket.
type S3Disk struct {
	client *minio.Client
	bucket string
	region string
	prefix string
	url    string

	// mu guards ready. Only a successful bucket check is remembered.
	mu    sync.Mutex
	ready bool
	check func(ctx context.Context) error
}

// NewS3Disk validates cfg and creates the client. No request is made until
// the first operation.
func NewS3Disk(cfg S3Config) (*S3Disk, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	d := &S3Disk{
		client: client,
		bucket: bucket,
		region: region,
		prefix: Clean(cfg.Prefix),
		url:    strings.TrimRight(cfg.URL, "/"),
	}
	d.check = d.createBucket
	return d, nil
}

func (d *S3Disk) ensureBucket(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ready {
		return nil
	}
	if err := d.check(ctx); err != nil {
		return err
	}
	d.ready = true
	return nil
}

func (d *S3Disk) createBucket(ctx context.Context) error {
	exists, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return d.client.MakeBucket(ctx, d.bucket, minio.MakeBucketOptions{Region: d.region})
}

// URL implements Disk.
func (d *S3Disk) URL() string {
	return d.url
}

// List implements Disk.
func (d *S3Disk) List(ctx context.Context, dir string) ([]string, error) {
	if err := d.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	listPrefix := d.key(Clean(dir))
	if listPrefix != "" {
		listPrefix += "/"
	}

	var out []string
	for obj := range d.client.ListObjects(ctx, d.bucket, minio.ListObjectsOptions{
		Prefix:    listPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		out = append(out, d.relative(obj.Key))
	}
	sort.Strings(out)
	return out, nil
}

// Read implements Disk.
func (d *S3Disk) Read(ctx context.Context, p string) ([]byte, error) {
	cleaned, err := cleanFile(p)
	if err != nil {
		return nil, err
	}
	if err := d.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := d.client.GetObject(ctx, d.bucket, d.key(cleaned), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, fmt.Errorf("%s: %w", cleaned, ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Write implements Disk. Public files are uploaded with a public-read ACL.
func (d *S3Disk) Write(ctx context.Context, p string, r io.Reader, opts WriteOptions) error {
	cleaned, err := cleanFile(p)
	if err != nil {
		return err
	}
	if err := d.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read content for %s: %w", cleaned, err)
	}

	putOpts := minio.PutObjectOptions{ContentType: opts.ContentType}
	if putOpts.ContentType == "" {
		putOpts.ContentType = "application/octet-stream"
	}
	if opts.Visibility == Public {
		putOpts.UserMetadata = map[string]string{"x-amz-acl": "public-read"}
	}

	_, err = d.client.PutObject(ctx, d.bucket, d.key(cleaned), bytes.NewReader(content), int64(len(content)), putOpts)
	return err
}

func (d *S3Disk) key(p string) string {
	switch {
	case d.prefix == "":
		return p
	case p == "":
		return d.prefix
	default:
		return d.prefix + "/" + p
	}
}

func (d *S3Disk) relative(key string) string {
	if d.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, d.prefix+"/")
}
