package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	sc "github.com/Shubhajeetgithub/expense-tracker-server/internal/server/config"
)

// Archiver keeps a copy of every committed sync batch outside the database.
type Archiver interface {
	Archive(ctx context.Context, userID string, txs []models.Transaction) error
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Archive writes each batch as one JSON object to an S3-compatible bucket.
type S3Archive struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

// NewS3Archive returns nil, nil when no bucket is configured: archiving is off.
func NewS3Archive(ctx context.Context, cfg *sc.Config) (*S3Archive, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			// minio and friends do not do virtual-host buckets
			o.UsePathStyle = true
		}
	})

	return &S3Archive{client: client, bucket: cfg.S3Bucket, now: time.Now}, nil
}

// ArchiveKey lays objects out per user and per UTC day.
func ArchiveKey(userID string, d time.Time) string {
	d = d.UTC()
	return fmt.Sprintf("users/%s/%04d/%02d/%02d/%s.json", userID, d.Year(), int(d.Month()), d.Day(), uuid.New())
}

func (a *S3Archive) Archive(ctx context.Context, userID string, txs []models.Transaction) error {
	body, err := json.Marshal(Views(txs))
	if err != nil {
		return err
	}

	key := ArchiveKey(userID, a.now())
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
