// Package s3store keeps avatar images in an S3-compatible bucket.
// It is selected instead of the database column when avatar storage is set to "s3".
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/store"
)

// ObjectAPI is the subset of *s3.Client used by AvatarStore.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// AvatarStore implements store.AvatarStore on top of S3.
type AvatarStore struct {
	api    ObjectAPI
	bucket string
	logger *slog.Logger
}

var _ store.AvatarStore = (*AvatarStore)(nil)

// New builds an S3 client from cfg and returns a store writing into cfg.Bucket.
// Static credentials and a custom endpoint (e.g. MinIO) are used when configured;
// otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (*AvatarStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, cfg.Bucket, logger), nil
}

// NewWithClient returns a store using an existing client.
func NewWithClient(api ObjectAPI, bucket string, logger *slog.Logger) *AvatarStore {
	if api == nil {
		panic("api cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvatarStore{
		api:    api,
		bucket: bucket,
		logger: logger.With(slog.String("component", "s3_avatar_store")),
	}
}

// ObjectKey returns the key an avatar for userID is stored under.
func ObjectKey(userID uuid.UUID) string {
	return "avatars/" + userID.String() + ".png"
}

// PutAvatar implements store.AvatarStore.PutAvatar
func (s *AvatarStore) PutAvatar(ctx context.Context, userID uuid.UUID, image []byte) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(ObjectKey(userID)),
		Body:          bytes.NewReader(image),
		ContentType:   aws.String("image/png"),
		ContentLength: aws.Int64(int64(len(image))),
	})
	if err != nil {
		log.Error("failed to upload avatar",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to upload avatar: %w", err)
	}
	return nil
}

// GetAvatar implements store.AvatarStore.GetAvatar
func (s *AvatarStore) GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ObjectKey(userID)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, store.ErrAvatarNotFound
		}
		log.Error("failed to download avatar",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to download avatar: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	image, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar body: %w", err)
	}
	return image, nil
}

// DeleteAvatar implements store.AvatarStore.DeleteAvatar
// S3 treats deleting a missing key as success.
func (s *AvatarStore) DeleteAvatar(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ObjectKey(userID)),
	})
	if err != nil {
		log.Error("failed to delete avatar",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete avatar: %w", err)
	}
	return nil
}
