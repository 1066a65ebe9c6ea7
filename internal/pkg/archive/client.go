package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/lumencast/lumencast/app/models"
	"github.com/lumencast/lumencast/app/repository"
)

const transcriptFetchLimit = 10000

// Client uploads ended-session chat transcripts to S3-compatible storage.
type Client struct {
	s3Client *s3.Client
	config   *Config
	chats    repository.ChatRepository
}

// NewClient creates a transcript archive client
func NewClient(cfg *Config, chats repository.ChatRepository) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("transcript archiving is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true // S3-compatible providers want path-style URLs
			o.UseAccelerate = false
		}
	})

	log.Infof("[Archive] initialized S3 client for bucket: %s", cfg.BucketName)
	return &Client{s3Client: s3Client, config: cfg, chats: chats}, nil
}

// Archive serializes the session's chat log as JSON lines and uploads it.
// Implements live.TranscriptArchiver.
func (c *Client) Archive(ctx context.Context, session *models.StreamSession) error {
	messages, err := c.chats.ListBySession(session.ID, transcriptFetchLimit)
	if err != nil {
		return fmt.Errorf("failed to load transcript for session %s: %w", session.PublicID, err)
	}
	if len(messages) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range messages {
		if err := enc.Encode(&messages[i]); err != nil {
			return fmt.Errorf("failed to encode transcript for session %s: %w", session.PublicID, err)
		}
	}

	objectKey := c.config.GetObjectKey(session.BroadcasterID, session.PublicID)
	_, err = c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String("application/x-ndjson"),
		ContentLength: aws.Int64(int64(buf.Len())),
		Metadata: map[string]string{
			"broadcaster-id": session.BroadcasterID,
			"upload-source":  "lumencast-transcripts",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload transcript to S3: %w", err)
	}

	log.Infof("[Archive] uploaded transcript s3://%s/%s (%d messages)", c.config.BucketName, objectKey, len(messages))
	return nil
}
