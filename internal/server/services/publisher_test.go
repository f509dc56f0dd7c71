package services

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/gophupload/internal/server/config"
	"github.com/spf13/afero"
)

func newPublisherForTest(t *testing.T) (*S3Publisher, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/srv/uploads/a.txt", []byte("published"), 0o640); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "uploads",
	}
	p := NewS3Publisher(fsys, cfg)
	p.now = func() time.Time { return time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC) }
	return p, fsys
}

func stubAWS(t *testing.T) {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := putObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		putObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://127.0.0.1:9000" {
			t.Fatalf("BaseEndpoint not applied")
		}
		if !opts.UsePathStyle {
			t.Fatalf("path style addressing expected")
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func TestS3Publisher_Publish(t *testing.T) {
	p, _ := newPublisherForTest(t)
	stubAWS(t)

	var putKey, putType, body string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		putKey = *in.Key
		putType = *in.ContentType
		b, err := io.ReadAll(in.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		body = string(b)
		return &s3.PutObjectOutput{}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if *in.Key != putKey || *in.Bucket != "uploads" {
			t.Fatalf("presign for unexpected object %s/%s", *in.Bucket, *in.Key)
		}
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		if po.Expires != DownloadURLValidity {
			t.Fatalf("expires = %v", po.Expires)
		}
		return &v4.PresignedHTTPRequest{URL: "http://signed/" + *in.Key}, nil
	}

	pub, err := p.Publish(context.Background(), "/srv/uploads/a.txt", "text/plain")
	if err != nil {
		t.Fatalf("Publish err: %v", err)
	}

	if !regexp.MustCompile(`^uploads/2024/7/9/[0-9a-f-]{36}$`).MatchString(pub.StorageKey) {
		t.Fatalf("unexpected storage key %q", pub.StorageKey)
	}
	if pub.StorageKey != putKey || putType != "text/plain" || body != "published" {
		t.Fatalf("put mismatch: key=%q type=%q body=%q", putKey, putType, body)
	}
	if pub.DownloadURL != "http://signed/"+putKey {
		t.Fatalf("url mismatch: %q", pub.DownloadURL)
	}
}

func TestS3Publisher_LoadConfigError(t *testing.T) {
	p, _ := newPublisherForTest(t)
	stubAWS(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	if _, err := p.Publish(context.Background(), "/srv/uploads/a.txt", "text/plain"); err == nil || err.Error() != "load-fail" {
		t.Fatalf("expected load-fail, got %v", err)
	}
}

func TestS3Publisher_MissingFile(t *testing.T) {
	p, _ := newPublisherForTest(t)
	stubAWS(t)

	if _, err := p.Publish(context.Background(), "/srv/uploads/none", "text/plain"); err == nil {
		t.Fatal("expected open error")
	}
}

func TestS3Publisher_PutError(t *testing.T) {
	p, _ := newPublisherForTest(t)
	stubAWS(t)

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("put-fail")
	}

	_, err := p.Publish(context.Background(), "/srv/uploads/a.txt", "text/plain")
	if err == nil || !regexp.MustCompile(`put object .*: put-fail`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped put-fail, got %v", err)
	}
}

func TestS3Publisher_PresignErrorKeepsKey(t *testing.T) {
	p, _ := newPublisherForTest(t)
	stubAWS(t)

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return &s3.PutObjectOutput{}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-fail")
	}

	pub, err := p.Publish(context.Background(), "/srv/uploads/a.txt", "text/plain")
	if err == nil {
		t.Fatal("expected presign error")
	}
	if pub == nil || pub.StorageKey == "" || pub.DownloadURL != "" {
		t.Fatalf("expected key without url, got %+v", pub)
	}
}
