// Package analytics emits member-application events to the external
// analytics transport. The production transport is an SNS topic; the
// JSON envelope carries the event name, the property map, and a
// timestamp.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socialstar-core/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSService is the subset of the SNS client used by the tracker.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSTracker publishes analytics events to one SNS topic.
type SNSTracker struct {
	client     SNSService
	topicARN   string
	visitEvent string
	logger     logger.Logger
}

// NewSNSTracker builds a tracker with a fresh SNS client for the region.
func NewSNSTracker(ctx context.Context, region, topicARN, visitEvent string, log logger.Logger) (*SNSTracker, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewSNSTrackerWithClient(sns.NewFromConfig(awsCfg), topicARN, visitEvent, log), nil
}

// NewSNSTrackerWithClient wires an existing client, used by tests.
func NewSNSTrackerWithClient(client SNSService, topicARN, visitEvent string, log logger.Logger) *SNSTracker {
	return &SNSTracker{
		client:     client,
		topicARN:   topicARN,
		visitEvent: visitEvent,
		logger:     log.WithFields(map[string]interface{}{"component": "analytics"}),
	}
}

type envelope struct {
	Event      string                 `json:"event"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

// Track publishes one event with its property map.
func (t *SNSTracker) Track(ctx context.Context, event string, properties map[string]interface{}) error {
	payload, err := json.Marshal(envelope{
		Event:      event,
		Properties: properties,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal analytics event: %w", err)
	}

	_, err = t.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(t.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish analytics event: %w", err)
	}

	t.logger.Debug("analytics event published", map[string]interface{}{
		"event": event,
	})
	return nil
}

// MarkSeen publishes the configured visit event with no properties.
func (t *SNSTracker) MarkSeen(ctx context.Context) error {
	return t.Track(ctx, t.visitEvent, nil)
}
