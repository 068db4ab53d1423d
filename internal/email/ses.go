package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"github.com/codr1/CampusCourts/internal/config"
)

// SESClient wraps AWS SESv2 sending.
type SESClient struct {
	client *sesv2.Client
	sender string
}

// NewSESClient initializes an SES client. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
func NewSESClient(ctx context.Context, cfg config.SESConfig) (*SESClient, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("ses region is required")
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("ses sender is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SESClient{
		client: sesv2.NewFromConfig(awsCfg),
		sender: cfg.Sender,
	}, nil
}

// Send delivers a plain-text email to a single recipient.
func (c *SESClient) Send(ctx context.Context, recipient, subject, body string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("ses client is not initialized")
	}
	if recipient == "" {
		return fmt.Errorf("recipient is required")
	}

	input := &sesv2.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
		FromEmailAddress: aws.String(c.sender),
	}

	if _, err := c.client.SendEmail(ctx, input); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("recipient", recipient).
			Str("subject", subject).
			Time("timestamp", time.Now().UTC()).
			Msg("Failed to send SES email")
		return fmt.Errorf("send ses email: %w", err)
	}

	return nil
}
