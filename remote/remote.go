// Package remote moves source files and cache blobs to and from S3
// compatible object stores.
package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"b00m.in/landgrid/logging"
	"b00m.in/landgrid/ui"
)

// Config selects the store. Anonymous skips credential lookup, which public
// buckets need.
type Config struct {
	Region    string `mapstructure:"region" yaml:"region"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	PathStyle bool   `mapstructure:"path_style" yaml:"path_style"`
	Anonymous bool   `mapstructure:"anonymous" yaml:"anonymous"`
}

type Client struct {
	svc        *s3.S3
	downloader *s3manager.Downloader
	uploader   *s3manager.Uploader
	log        logging.Logger
}

func NewClient(cfg Config, log logging.Logger) (*Client, error) {
	awsCfg := &aws.Config{
		CredentialsChainVerboseErrors: aws.Bool(true),
		Region:                        aws.String(cfg.Region),
		S3ForcePathStyle:              aws.Bool(cfg.PathStyle),
	}
	if cfg.Anonymous {
		awsCfg.Credentials = credentials.AnonymousCredentials
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("remote: session: %w", err)
	}
	svc := s3.New(sess)
	return &Client{
		svc:        svc,
		downloader: s3manager.NewDownloaderWithClient(svc),
		uploader:   s3manager.NewUploaderWithClient(svc),
		log:        logging.OrDefault(log).Named("remote"),
	}, nil
}

// Size is the content length of an object.
func (c *Client) Size(ctx context.Context, bucket, key string) (int64, error) {
	resp, err := c.svc.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("remote: head s3://%s/%s: %w", bucket, key, err)
	}
	return aws.Int64Value(resp.ContentLength), nil
}

// Tail reads the last n bytes of an object, which for a parquet file is the
// footer length and magic.
func (c *Client) Tail(ctx context.Context, bucket, key string, n int) ([]byte, error) {
	out, err := c.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=-%d", n)),
	})
	if err != nil {
		return nil, fmt.Errorf("remote: get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	bs, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read s3://%s/%s: %w", bucket, key, err)
	}
	return bs, nil
}

// DownloadOptions narrow a download to a byte range and observe it.
type DownloadOptions struct {
	// Start and End are inclusive; End < 0 means the whole object.
	Start, End int64
	Progress   func(written, size int64)
}

// Download fetches an object into dest. The bytes land in a temporary file
// next to dest that is renamed once the download completes, so a failed
// download never leaves a partial dest behind. It returns the bytes written.
func (c *Client) Download(ctx context.Context, bucket, key, dest string, opts DownloadOptions) (int64, error) {
	size, err := c.Size(ctx, bucket, key)
	if err != nil {
		return 0, err
	}
	params := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if opts.End >= 0 {
		params.Range = aws.String(fmt.Sprintf("bytes=%d-%d", opts.Start, opts.End))
		size = opts.End - opts.Start + 1
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("remote: %w", err)
	}
	temp, err := os.CreateTemp(dir, ".landgrid-get-")
	if err != nil {
		return 0, fmt.Errorf("remote: %w", err)
	}
	tempName := temp.Name()

	c.log.Info("download started",
		logging.String("bucket", bucket),
		logging.String("key", key),
		logging.String("size", ui.ByteCountDecimal(size)))
	start := time.Now()

	writer := &ui.ProgressWriter{Writer: temp, Size: size, Progress: opts.Progress}
	n, err := c.downloader.DownloadWithContext(ctx, writer, params)
	if err != nil {
		temp.Close()
		os.Remove(tempName)
		return 0, fmt.Errorf("remote: get s3://%s/%s: %w", bucket, key, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return 0, fmt.Errorf("remote: %w", err)
	}
	if err := os.Chmod(tempName, 0o644); err != nil {
		os.Remove(tempName)
		return 0, fmt.Errorf("remote: %w", err)
	}
	if err := os.Rename(tempName, dest); err != nil {
		os.Remove(tempName)
		return 0, fmt.Errorf("remote: %w", err)
	}
	c.log.Info("download finished",
		logging.String("dest", dest),
		logging.Int64("bytes", n),
		logging.Duration("elapsed", time.Since(start)))
	return n, nil
}

// Upload puts the file at src under key and returns its location.
func (c *Client) Upload(ctx context.Context, bucket, key, src string) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("remote: %w", err)
	}
	defer f.Close()
	return c.UploadReader(ctx, bucket, key, f)
}

func (c *Client) UploadReader(ctx context.Context, bucket, key string, body io.Reader) (string, error) {
	out, err := c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("remote: put s3://%s/%s: %w", bucket, key, err)
	}
	c.log.Info("upload finished", logging.String("location", out.Location))
	return out.Location, nil
}

// Object is one listed key.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	StorageClass string
}

// List returns every object under prefix, following continuation tokens.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]Object, error) {
	var objects []Object
	err := c.svc.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, item := range page.Contents {
			objects = append(objects, Object{
				Key:          aws.StringValue(item.Key),
				Size:         aws.Int64Value(item.Size),
				LastModified: aws.TimeValue(item.LastModified),
				StorageClass: aws.StringValue(item.StorageClass),
			})
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("remote: list s3://%s/%s: %w", bucket, prefix, err)
	}
	return objects, nil
}

// ParseFilename is the last path element of an object key.
func ParseFilename(key string) string {
	ss := strings.Split(key, "/")
	return ss[len(ss)-1]
}

// ModifyFilename inserts add before the first extension of filename.
func ModifyFilename(filename, add string) string {
	before, after, found := strings.Cut(filename, ".")
	if found {
		return before + "-" + add + "." + after
	}
	return filename + "-" + add
}

// RangeFilename names a partial download after its byte range.
func RangeFilename(key string, start, end int64) string {
	return ModifyFilename(ParseFilename(key), fmt.Sprintf("bytes-%d-%d", start, end))
}
