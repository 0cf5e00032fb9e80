package storage

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lcensies/task-trackers-synchronizer/internal/config"
)

type S3Deps struct {
	Client  *s3.Client        // server-side access (container network endpoint)
	Presign *s3.PresignClient // signs URLs against the public endpoint
	Bucket  string
	Prefix  string
	Expire  time.Duration
}

func NewS3Deps(ctx context.Context, c config.Config) (*S3Deps, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(c.AWSRegion)}
	if c.S3AccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3AccessKey, c.S3SecretKey, "",
		)))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	internal := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(c.S3Endpoint)
		} // e.g. http://minio:9000
		o.UsePathStyle = c.S3UsePathStyle
	})

	publicBase := c.S3PublicEndpoint
	if publicBase == "" {
		publicBase = c.S3Endpoint
	}
	signerClient := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if publicBase != "" {
			o.BaseEndpoint = aws.String(publicBase)
		} // e.g. http://localhost:9000
		o.UsePathStyle = c.S3UsePathStyle
	})

	expire := time.Duration(c.S3URLExpirySec) * time.Second
	return &S3Deps{
		Client: internal,
		Presign: s3.NewPresignClient(signerClient, func(po *s3.PresignOptions) {
			po.Expires = expire
		}),
		Bucket: c.S3Bucket,
		Prefix: c.S3Prefix,
		Expire: expire,
	}, nil
}

// SnapshotKey is the object key for a snapshot taken at t.
func (d *S3Deps) SnapshotKey(t time.Time) string {
	return path.Join(d.Prefix, "snapshots", t.UTC().Format("20060102T150405.000000Z")+".json")
}

// Upload stores body under key and returns a presigned download URL.
func (d *S3Deps) Upload(ctx context.Context, key string, body []byte) (string, error) {
	if _, err := d.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return "", err
	}
	return presignGet(ctx, d, key)
}

func presignGet(ctx context.Context, d *S3Deps, key string) (string, error) {
	presigned, err := d.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:              aws.String(d.Bucket),
		Key:                 aws.String(key),
		ResponseContentType: aws.String("application/json"),
	}, func(o *s3.PresignOptions) { o.Expires = d.Expire })
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}

// URLTTL reports how long presigned URLs stay valid.
func (d *S3Deps) URLTTL() time.Duration {
	return d.Expire
}
