package mirror

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rpmrelay/rpmrelay/internal/utils"
)

// s3API is the slice of the S3 client the mirror uses.
type s3API interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // non-AWS endpoints, e.g. MinIO
	AccessKey string
	SecretKey string
}

// S3Mirror keeps the package repository in an S3 compatible bucket.
type S3Mirror struct {
	api    s3API
	bucket string
	prefix string
}

func NewS3Mirror(ctx context.Context, cfg *S3Config) (*S3Mirror, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		slog.Debug("using static s3 credentials", "access_key", maskKey(cfg.AccessKey))
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Mirror{
		api:    client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (m *S3Mirror) Location() string {
	return "s3://" + path.Join(m.bucket, m.prefix)
}

func (m *S3Mirror) key(rel string) string {
	if m.prefix == "" {
		return rel
	}
	return m.prefix + "/" + rel
}

func (m *S3Mirror) listKeys(ctx context.Context) ([]string, error) {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(m.bucket)}
	if m.prefix != "" {
		in.Prefix = aws.String(m.prefix + "/")
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(m.api, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", m.Location(), err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue // folder marker
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *S3Mirror) Pull(ctx context.Context, dest string) error {
	keys, err := m.listKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		rel := key
		if m.prefix != "" {
			rel = strings.TrimPrefix(key, m.prefix+"/")
		}
		if err := m.download(ctx, key, filepath.Join(dest, filepath.FromSlash(rel))); err != nil {
			return err
		}
	}
	slog.Debug("s3 pull finished", "from", m.Location(), "objects", len(keys))
	return nil
}

func (m *S3Mirror) download(ctx context.Context, key, dest string) error {
	out, err := m.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get s3://%s/%s: %w", m.bucket, key, err)
	}
	defer out.Body.Close()

	if err := utils.EnsureParent(dest); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, out.Body); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

// Push uploads every file under src and deletes remote objects that no
// longer exist locally, mirroring the tree exactly.
func (m *S3Mirror) Push(ctx context.Context, src string) error {
	local := map[string]bool{}
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		key := m.key(filepath.ToSlash(rel))
		local[key] = true
		return m.upload(ctx, p, key)
	})
	if err != nil {
		return err
	}

	remote, err := m.listKeys(ctx)
	if err != nil {
		return err
	}
	for _, key := range remote {
		if local[key] {
			continue
		}
		slog.Debug("deleting remote object", "key", key)
		if _, err := m.api.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.bucket),
			Key:    aws.String(key),
		}); err != nil {
			return fmt.Errorf("delete s3://%s/%s: %w", m.bucket, key, err)
		}
	}
	slog.Debug("s3 push finished", "to", m.Location(), "objects", len(local))
	return nil
}

func (m *S3Mirror) upload(ctx context.Context, p, key string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := m.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", m.bucket, key, err)
	}
	return nil
}

// maskKey keeps enough of an access key to tell credentials apart in logs
// without recording the key itself.
func maskKey(k string) string {
	if len(k) <= 4 {
		return "*****"
	}
	return k[:4] + "*****"
}
