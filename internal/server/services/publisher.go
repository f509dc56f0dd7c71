package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/gophupload/internal/server/config"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// DownloadURLValidity is how long a presigned download link stays usable.
const DownloadURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Publication describes a finished file copied to object storage.
type Publication struct {
	StorageKey  string
	DownloadURL string
}

// Publisher copies finished uploads somewhere clients can download them.
type Publisher interface {
	Publish(ctx context.Context, path, contentType string) (*Publication, error)
}

// S3Publisher uploads finished files to an S3-compatible bucket and hands
// out presigned GET links.
type S3Publisher struct {
	fs     afero.Fs
	config *sc.Config
	now    func() time.Time
}

func NewS3Publisher(fsys afero.Fs, config *sc.Config) *S3Publisher {
	return &S3Publisher{fs: fsys, config: config, now: time.Now}
}

// GetRandomStorageKey returns a fresh object key under uploads/<y>/<m>/<d>/.
func GetRandomStorageKey(d time.Time) string {
	return fmt.Sprintf("uploads/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (p *S3Publisher) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.config.S3RootUser,
			p.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(p.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Publish streams the file at path into the bucket and presigns a download.
func (p *S3Publisher) Publish(ctx context.Context, path, contentType string) (*Publication, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	f, err := p.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	bucket := p.config.S3Bucket
	key := GetRandomStorageKey(p.now())

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        f,
		ContentType: aws.String(contentType),
	}); err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(DownloadURLValidity))
	if err != nil {
		return &Publication{StorageKey: key}, fmt.Errorf("presign %s: %w", key, err)
	}

	return &Publication{StorageKey: key, DownloadURL: req.URL}, nil
}
