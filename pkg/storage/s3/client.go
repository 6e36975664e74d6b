package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nvelasquez/threadline-backend/pkg/config"
)

// PresignedUpload describes a signed PUT URL handed back to the client.
type PresignedUpload struct {
	URL       string
	Key       string
	ExpiresAt time.Time
}

// Client wraps the S3-compatible object store used for product assets.
type Client struct {
	api           *awss3.Client
	presigner     *awss3.PresignClient
	bucket        string
	publicBaseURL string
	uploadTTL     time.Duration
}

// New builds a client against the configured R2 endpoint and verifies the settings.
func New(ctx context.Context, cfg config.StorageConfig) (*Client, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage bucket is required")
	}
	if strings.TrimSpace(cfg.AccessKeyID) == "" || strings.TrimSpace(cfg.SecretAccessKey) == "" {
		return nil, errors.New("storage credentials are required")
	}
	if cfg.UploadURLExpiry <= 0 {
		return nil, errors.New("upload url expiry must be positive")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("loading storage config: %w", err)
	}

	api := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint())
	})

	return &Client{
		api:           api,
		presigner:     awss3.NewPresignClient(api),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		uploadTTL:     cfg.UploadURLExpiry,
	}, nil
}

// PresignPut signs a PUT URL for the given object key.
func (c *Client) PresignPut(ctx context.Context, key string) (*PresignedUpload, error) {
	if c == nil || c.presigner == nil {
		return nil, errors.New("storage client not initialized")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("object key is required")
	}

	input := &awss3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	presigned, err := c.presigner.PresignPutObject(ctx, input, func(o *awss3.PresignOptions) {
		o.Expires = c.uploadTTL
	})
	if err != nil {
		return nil, fmt.Errorf("presign put object: %w", err)
	}

	return &PresignedUpload{
		URL:       presigned.URL,
		Key:       key,
		ExpiresAt: time.Now().UTC().Add(c.uploadTTL),
	}, nil
}

// Delete removes a single object. Missing objects are not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.api == nil {
		return errors.New("storage client not initialized")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("object key is required")
	}
	_, err := c.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// PublicURL maps an object key to its public CDN URL.
func (c *Client) PublicURL(key string) string {
	if c == nil {
		return ""
	}
	return c.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

// UploadTTL reports how long signed PUT URLs stay valid.
func (c *Client) UploadTTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.uploadTTL
}
