// Package notification dispatches operator alerts.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
	infraconfig "github.com/shipbridge/backend/internal/infrastructure/config"
)

// Ensure SNSNotifier implements the processor's Notifier port
var _ shippingapp.Notifier = (*SNSNotifier)(nil)

// snsAPI is the slice of the SNS client the notifier uses.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes alerts to an SNS topic.
type SNSNotifier struct {
	client   snsAPI
	topicARN string
	logger   *zap.Logger
}

// SNSNotifierOption is a functional option for configuring SNSNotifier
type SNSNotifierOption func(*SNSNotifier)

// WithLogger sets a custom logger for SNSNotifier
func WithLogger(logger *zap.Logger) SNSNotifierOption {
	return func(n *SNSNotifier) {
		n.logger = logger
	}
}

// WithClient overrides the SNS client. For tests.
func WithClient(client snsAPI) SNSNotifierOption {
	return func(n *SNSNotifier) {
		n.client = client
	}
}

// NewSNSNotifier creates a notifier from configuration.
func NewSNSNotifier(cfg *infraconfig.NotifyConfig, opts ...SNSNotifierOption) (*SNSNotifier, error) {
	if cfg == nil {
		return nil, errors.New("notify configuration is required")
	}
	if cfg.TopicARN == "" {
		return nil, errors.New("notify topic ARN is required")
	}

	n := &SNSNotifier{
		topicARN: cfg.TopicARN,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.Region),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS config: %w", err)
		}
		n.client = sns.NewFromConfig(awsCfg)
	}

	return n, nil
}

// Notify publishes one subject+message alert to the topic.
func (n *SNSNotifier) Notify(ctx context.Context, subject, message string) error {
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	n.logger.Debug("alert published", zap.String("subject", subject))
	return nil
}
