// Package notify sends status-change emails to applicants via SES.
package notify

import (
	"context"
	"fmt"

	"socialstar-core/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the subset of the SES client used by the notifier.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailNotifier sends applicant-facing emails.
type EmailNotifier struct {
	client SESService
	from   string
	logger logger.Logger
}

// NewEmailNotifier builds a notifier with a fresh SES client for the region.
func NewEmailNotifier(ctx context.Context, region, from string, log logger.Logger) (*EmailNotifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewEmailNotifierWithClient(ses.NewFromConfig(awsCfg), from, log), nil
}

// NewEmailNotifierWithClient wires an existing client, used by tests.
func NewEmailNotifierWithClient(client SESService, from string, log logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		client: client,
		from:   from,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// SendStatusChanged emails the applicant about a new application status.
func (n *EmailNotifier) SendStatusChanged(ctx context.Context, to, firstName, status string) error {
	if to == "" {
		return nil
	}

	subject := fmt.Sprintf("Your application is %s", status)
	body := fmt.Sprintf("Hi %s,\n\nYour influencer program application status is now: %s.\n", firstName, status)

	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.from),
	})
	if err != nil {
		return fmt.Errorf("send status email: %w", err)
	}

	n.logger.Info("status email sent", map[string]interface{}{
		"to":     to,
		"status": status,
	})
	return nil
}
