package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSSender sends raw messages to an SQS queue.
type SQSSender interface {
	SendMessage(ctx context.Context, queueURL string, body []byte, attributes map[string]string) error
}

type SQSClient struct {
	client *sqs.Client
}

func NewSQSClient(cfg sdkaws.Config) *SQSClient {
	return &SQSClient{client: sqs.NewFromConfig(cfg)}
}

func (s *SQSClient) SendMessage(ctx context.Context, queueURL string, body []byte, attributes map[string]string) error {
	if queueURL == "" {
		return fmt.Errorf("empty queueURL")
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    sdkaws.String(queueURL),
		MessageBody: sdkaws.String(string(body)),
	}
	if len(attributes) > 0 {
		input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attributes))
		for k, v := range attributes {
			input.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    sdkaws.String("String"),
				StringValue: sdkaws.String(v),
			}
		}
	}

	if _, err := s.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("sqs send failed for queue %s: %w", queueURL, err)
	}
	return nil
}
