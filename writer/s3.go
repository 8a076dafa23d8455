package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "sdrflow/config"
	"sdrflow/logger"
)

// S3Uploader pushes generated artifacts (structured output, commentary
// files) to an S3 bucket after a run. It is optional; when storage.s3 is
// disabled the pipeline never constructs one.
type S3Uploader struct {
	config *appconfig.Config
	client *s3.Client
	log    *logger.Log
}

// NewS3Uploader configures the AWS SDK from the storage config, preferring
// static credentials when both keys are present.
func NewS3Uploader(cfg *appconfig.Config) (*S3Uploader, error) {
	log := logger.GetLogger()
	ctx := context.Background()

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Storage.S3.Region)}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.S3.Endpoint)
		}
		o.UsePathStyle = cfg.Storage.S3.PathStyle
	})

	log.WithComponent("s3_writer").WithFields(logger.Fields{
		"bucket": cfg.Storage.S3.Bucket,
		"region": cfg.Storage.S3.Region,
	}).Debug("s3 uploader initialized")

	return &S3Uploader{config: cfg, client: client, log: log}, nil
}

// Upload pushes each local file to the bucket under the configured prefix.
// Individual failures are logged and skipped so one bad artifact does not
// block the rest.
func (u *S3Uploader) Upload(ctx context.Context, paths []string) int {
	log := u.log.WithComponent("s3_writer")

	uploaded := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"file": path}).Error("failed to read artifact for upload")
			continue
		}

		key := filepath.Base(path)
		if u.config.Storage.S3.Prefix != "" {
			key = u.config.Storage.S3.Prefix + "/" + key
		}

		if _, err := u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(u.config.Storage.S3.Bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		}); err != nil {
			log.WithError(err).WithFields(logger.Fields{"file": path, "key": key}).Error("failed to upload artifact")
			continue
		}

		log.WithFields(logger.Fields{"file": path, "key": key, "bytes": len(data)}).Info("uploaded artifact")
		uploaded++
	}

	logger.IncrementFilesUploaded(uploaded)
	return uploaded
}
