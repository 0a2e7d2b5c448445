package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/logging"

	"github.com/aerozone/backend/internal/config"
)

// S3Service uploads backup archives to an S3-compatible endpoint. It
// implements StorageUploader and is the collaborator the delivery dispatcher
// routes the "firebase" provider to.
type S3Service struct {
	client  *s3.Client
	cfg     *config.Config
	timeout time.Duration
}

func NewS3Service(cfg *config.Config) (*S3Service, error) {
	client, err := buildClient(cfg.BackupS3Endpoint, cfg.BackupS3Region,
		cfg.BackupS3AccessKeyID, cfg.BackupS3SecretAccessKey, cfg.BackupS3UsePathStyle)
	if err != nil {
		return nil, err
	}
	return &S3Service{client: client, cfg: cfg, timeout: cfg.SendTimeout}, nil
}

func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	resolver := awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
		func(service, rgn string, options ...interface{}) (aws.Endpoint, error) {
			if endpoint != "" {
				return aws.Endpoint{URL: endpoint, SigningRegion: region}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}))
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		resolver,
		awsconfig.WithLogger(logging.NewStandardLogger(nil)),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
	})
	return client, nil
}

// Upload stores the archive under key in the backup bucket and returns the
// stored path plus a best-effort download URL. The call is bounded by the
// configured timeout at this collaborator boundary.
func (s *S3Service) Upload(ctx context.Context, key string, data []byte) (string, string, error) {
	if s.cfg.BackupBucket == "" {
		return "", "", fmt.Errorf("backup bucket not configured")
	}

	timeout := s.timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	contentType := "application/zip"
	uploader := manager.NewUploader(s.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &s.cfg.BackupBucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
		ACL:         s3types.ObjectCannedACLPrivate,
	}, func(u *manager.Uploader) { u.PartSize = 10 * 1024 * 1024 })
	if err != nil {
		return "", "", fmt.Errorf("uploading %s: %w", key, err)
	}

	storagePath := fmt.Sprintf("%s/%s", s.cfg.BackupBucket, key)
	return storagePath, s.downloadURL(key), nil
}

func (s *S3Service) downloadURL(key string) string {
	endpoint := s.client.Options().BaseEndpoint
	if endpoint == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(*endpoint, "/"), s.cfg.BackupBucket, key)
}
