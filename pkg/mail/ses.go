package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESMailer sends email through AWS SES.
type SESMailer struct {
	client      *ses.Client
	fromAddress string
}

// NewSESMailer loads the default AWS config for the region and returns a
// mailer sending from the given verified address.
func NewSESMailer(ctx context.Context, region, fromAddress string) (*SESMailer, error) {
	if fromAddress == "" {
		return nil, errors.New("mail from address is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESMailer{
		client:      ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
	}, nil
}

// Send delivers one message via SES.
func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("message recipient is required")
	}
	input := &ses.SendEmailInput{
		Source: aws.String(m.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTML)},
				Text: &types.Content{Data: aws.String(msg.Text)},
			},
		},
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
